// Package federation abstracts the external identity provider used for the
// account-linking flow. A real OAuth integration substitutes the stub without
// touching the orchestrator.
package federation

import "context"

// Provider links a (app_id, user_id) pair to an external identity and returns
// the external identifier.
type Provider interface {
	Bind(ctx context.Context, appID, userID string) (string, error)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Verification and exchange-token metrics. Standalone package so HTTP and
// service layers can share them without import cycles.

var (
	VerifyAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ashpaw_verify_attempts_total",
		Help: "TOTP verification attempts by result (success, invalid_code, not_enrolled, app_not_found)",
	}, []string{"result"})

	TokensIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ashpaw_exchange_tokens_issued_total",
		Help: "Exchange tokens issued after successful verification",
	})

	TokenRedemptions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ashpaw_exchange_token_redemptions_total",
		Help: "Exchange token redemption attempts by result (valid, not_found, already_used, expired)",
	}, []string{"result"})

	TokensSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ashpaw_exchange_tokens_swept_total",
		Help: "Stale exchange tokens removed by the retention sweeper",
	})
)

// RegisterAuth registers the auth metrics on the given registry (or the
// default if nil).
func RegisterAuth(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{VerifyAttempts, TokensIssued, TokenRedemptions, TokensSwept} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

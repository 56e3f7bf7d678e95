package federation

import "context"

// MockWeChat is the placeholder WeChat provider: no OAuth round-trip, just a
// deterministic identifier derived from the user id.
type MockWeChat struct{}

func NewMockWeChat() *MockWeChat { return &MockWeChat{} }

func (m *MockWeChat) Bind(ctx context.Context, appID, userID string) (string, error) {
	return "wx_" + userID, nil
}

var _ Provider = (*MockWeChat)(nil)

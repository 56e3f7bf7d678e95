// Package auth holds request/response bodies for the end-user auth routes.
package auth

type StatusResponse struct {
	IsTOTPEnabled   bool    `json:"is_totp_enabled"`
	IsWeChatEnabled bool    `json:"is_wechat_enabled"`
	WeChatID        *string `json:"wechat_id,omitempty"`
}

type SetupResponse struct {
	Secret string `json:"secret"`
	// QRCode is a base64-encoded PNG of the provisioning URI.
	QRCode string `json:"qr_code"`
}

type VerifyRequest struct {
	Code string `json:"code"`
}

type VerifyResponse struct {
	Status string `json:"status"`
	// RedirectURL is null when the application has no callback configured.
	RedirectURL *string `json:"redirect_url"`
}

type BindWeChatResponse struct {
	Status   string `json:"status"`
	WeChatID string `json:"wechat_id"`
}

type ValidateTokenRequest struct {
	Token string `json:"token"`
}

type ValidateTokenResponse struct {
	Status string `json:"status"`
	AppID  string `json:"app_id"`
	UserID string `json:"user_id"`
}

// Package admin holds request/response bodies for the tenant-admin routes.
package admin

import "time"

type CreateAppRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CallbackURL *string `json:"callback_url"`
}

// UpdateAppRequest has partial-update semantics: only provided fields change.
type UpdateAppRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	CallbackURL *string `json:"callback_url"`
}

type AppResponse struct {
	ID          string    `json:"id"`
	AppID       string    `json:"app_id"`
	AppSecret   string    `json:"app_secret"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CallbackURL *string   `json:"callback_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserAuthResponse describes one enrollment record. The TOTP secret never
// leaves the service through the admin surface.
type UserAuthResponse struct {
	AppID           string    `json:"app_id"`
	UserID          string    `json:"user_id"`
	IsTOTPEnabled   bool      `json:"is_totp_enabled"`
	IsWeChatEnabled bool      `json:"is_wechat_enabled"`
	WeChatID        *string   `json:"wechat_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ResetUserResponse struct {
	Message string `json:"message"`
}

package core

import "time"

// App is a registered tenant application delegating 2FA to this service.
// AppID and AppSecret are generated at creation and never change.
type App struct {
	ID          string
	AppID       string
	AppSecret   string
	Name        string
	Description string
	CallbackURL *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AppUpdate holds a partial update: nil fields are left untouched.
type AppUpdate struct {
	Name        *string
	Description *string
	CallbackURL *string
}

// UserAuth is the per (app_id, user_id) second-factor enrollment record.
// TOTPSecret is nil until the first setup and immutable once set.
type UserAuth struct {
	ID              string
	AppID           string
	UserID          string
	TOTPSecret      *string
	IsTOTPEnabled   bool
	WeChatID        *string
	IsWeChatEnabled bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ExchangeToken is a short-lived single-use credential issued on successful
// TOTP verification and redeemed once by the tenant backend.
type ExchangeToken struct {
	Token     string
	AppID     string
	UserID    string
	ExpiresAt time.Time
	IsUsed    bool
	UsedAt    *time.Time
	CreatedAt time.Time
}

package pg

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ashpawlabs/ashpaw/internal/store/core"
)

const userAuthColumns = `id, app_id, user_id, totp_secret, is_totp_enabled, wechat_id, is_wechat_enabled, created_at, updated_at`

func scanUserAuth(row pgx.Row) (*core.UserAuth, error) {
	var ua core.UserAuth
	err := row.Scan(&ua.ID, &ua.AppID, &ua.UserID, &ua.TOTPSecret, &ua.IsTOTPEnabled,
		&ua.WeChatID, &ua.IsWeChatEnabled, &ua.CreatedAt, &ua.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &ua, nil
}

func (s *Store) GetUserAuth(ctx context.Context, appID, userID string) (*core.UserAuth, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userAuthColumns+` FROM user_auth WHERE app_id = $1 AND user_id = $2`, appID, userID)
	return scanUserAuth(row)
}

func (s *Store) GetOrCreateUserAuth(ctx context.Context, appID, userID string) (*core.UserAuth, error) {
	// Upsert primitive: DO NOTHING keeps an existing record (and its secret)
	// intact; the follow-up SELECT returns whichever row won.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_auth (id, app_id, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (app_id, user_id) DO NOTHING
	`, uuid.NewString(), appID, userID)
	if err != nil {
		return nil, err
	}
	return s.GetUserAuth(ctx, appID, userID)
}

func (s *Store) SetTOTPSecretIfAbsent(ctx context.Context, appID, userID, secret string) (string, error) {
	// First write wins: the UPDATE only fires while totp_secret is NULL.
	_, err := s.pool.Exec(ctx, `
		UPDATE user_auth SET totp_secret = $3, updated_at = NOW()
		WHERE app_id = $1 AND user_id = $2 AND totp_secret IS NULL
	`, appID, userID, secret)
	if err != nil {
		return "", err
	}

	var current *string
	err = s.pool.QueryRow(ctx,
		`SELECT totp_secret FROM user_auth WHERE app_id = $1 AND user_id = $2`, appID, userID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", core.ErrNotFound
		}
		return "", err
	}
	if current == nil {
		return "", core.ErrInvalid
	}
	return *current, nil
}

func (s *Store) EnableTOTP(ctx context.Context, appID, userID string) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE user_auth SET is_totp_enabled = TRUE, updated_at = NOW()
		WHERE app_id = $1 AND user_id = $2
	`, appID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) BindWeChat(ctx context.Context, appID, userID, wechatID string) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE user_auth SET wechat_id = $3, is_wechat_enabled = TRUE, updated_at = NOW()
		WHERE app_id = $1 AND user_id = $2
	`, appID, userID, wechatID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) ListUserAuth(ctx context.Context, appID string) ([]core.UserAuth, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userAuthColumns+` FROM user_auth WHERE app_id = $1 ORDER BY user_id`, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.UserAuth
	for rows.Next() {
		ua, err := scanUserAuth(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ua)
	}
	return out, rows.Err()
}

func (s *Store) DeleteUserAuth(ctx context.Context, appID, userID string) error {
	// Idempotent: deleting an absent record is a success.
	_, err := s.pool.Exec(ctx, `DELETE FROM user_auth WHERE app_id = $1 AND user_id = $2`, appID, userID)
	return err
}

package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ashpawlabs/ashpaw/internal/store/core"
)

func (s *Store) CreateExchangeToken(ctx context.Context, t *core.ExchangeToken) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO exchange_tokens (token, app_id, user_id, expires_at, is_used, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
	`, t.Token, t.AppID, t.UserID, t.ExpiresAt, t.CreatedAt)
	return err
}

func (s *Store) RedeemExchangeToken(ctx context.Context, token string, now time.Time) (string, string, error) {
	// Single-statement compare-and-swap: two concurrent redeemers cannot both
	// see is_used = FALSE because the row lock serializes the UPDATE.
	var appID, userID string
	err := s.pool.QueryRow(ctx, `
		UPDATE exchange_tokens
		SET is_used = TRUE, used_at = $2
		WHERE token = $1 AND is_used = FALSE AND expires_at > $2
		RETURNING app_id, user_id
	`, token, now).Scan(&appID, &userID)
	if err == nil {
		return appID, userID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", "", err
	}

	// The CAS missed. Classify why; safe to do after the fact because token
	// state only ever moves one way.
	var isUsed bool
	var expiresAt time.Time
	err = s.pool.QueryRow(ctx,
		`SELECT is_used, expires_at FROM exchange_tokens WHERE token = $1`, token).Scan(&isUsed, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", core.ErrTokenNotFound
		}
		return "", "", err
	}
	if isUsed {
		return "", "", core.ErrTokenUsed
	}
	return "", "", core.ErrTokenExpired
}

func (s *Store) DeleteStaleTokens(ctx context.Context, before time.Time) (int64, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM exchange_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

var _ core.Repository = (*Store)(nil)

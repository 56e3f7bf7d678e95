package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ashpawlabs/ashpaw/internal/store/core"
)

const appColumns = `id, app_id, app_secret, name, description, callback_url, created_at, updated_at`

func scanApp(row pgx.Row) (*core.App, error) {
	var a core.App
	err := row.Scan(&a.ID, &a.AppID, &a.AppSecret, &a.Name, &a.Description, &a.CallbackURL, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) CreateApp(ctx context.Context, a *core.App) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO applications (id, app_id, app_secret, name, description, callback_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, a.ID, a.AppID, a.AppSecret, a.Name, a.Description, a.CallbackURL, a.CreatedAt)
	return err
}

func (s *Store) ListApps(ctx context.Context) ([]core.App, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+appColumns+` FROM applications ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.App
	for rows.Next() {
		a, err := scanApp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) GetAppByAppID(ctx context.Context, appID string) (*core.App, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+appColumns+` FROM applications WHERE app_id = $1`, appID)
	return scanApp(row)
}

func (s *Store) UpdateApp(ctx context.Context, appID string, upd core.AppUpdate) (*core.App, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE applications
		SET name         = COALESCE($2, name),
		    description  = COALESCE($3, description),
		    callback_url = COALESCE($4, callback_url),
		    updated_at   = NOW()
		WHERE app_id = $1
		RETURNING `+appColumns,
		appID, upd.Name, upd.Description, upd.CallbackURL)
	return scanApp(row)
}

package postgres

import (
	"context"
	"database/sql"

	"github.com/soundlog/soundlog/src/internal/domain"
)

type PostgresUserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func (r *PostgresUserRepo) InitSchema() error {
	if r.db == nil {
		return domain.ErrStorageUnavailable
	}
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			catalog_id TEXT UNIQUE,
			access_token TEXT,
			refresh_token TEXT,
			token_expires_at BIGINT DEFAULT 0,
			embed_color TEXT DEFAULT '#1DB954',
			is_admin BOOLEAN DEFAULT FALSE,
			is_public BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			last_seen TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	return err
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if r.db == nil {
		return nil, domain.ErrStorageUnavailable
	}
	query := `
		SELECT id, COALESCE(catalog_id, ''), COALESCE(access_token, ''),
		       COALESCE(refresh_token, ''), COALESCE(token_expires_at, 0),
		       COALESCE(embed_color, ''), is_admin, is_public, created_at, last_seen
		FROM users
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var user domain.User
	err := row.Scan(&user.ID, &user.CatalogID, &user.AccessToken,
		&user.RefreshToken, &user.TokenExpiresAt,
		&user.EmbedColor, &user.IsAdmin, &user.IsPublic, &user.CreatedAt, &user.LastSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresUserRepo) EnsureExists(ctx context.Context, id string) error {
	if r.db == nil {
		return domain.ErrStorageUnavailable
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id)
	return err
}

func (r *PostgresUserRepo) ListConnected(ctx context.Context) ([]domain.User, error) {
	if r.db == nil {
		return nil, domain.ErrStorageUnavailable
	}
	query := `
		SELECT id, catalog_id, access_token, refresh_token,
		       COALESCE(token_expires_at, 0)
		FROM users
		WHERE catalog_id IS NOT NULL AND catalog_id <> ''
		  AND access_token IS NOT NULL AND access_token <> ''
		  AND refresh_token IS NOT NULL AND refresh_token <> ''
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.CatalogID, &u.AccessToken, &u.RefreshToken, &u.TokenExpiresAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PostgresUserRepo) LinkCatalogAccount(ctx context.Context, id, catalogID, accessToken, refreshToken string, expiresAt int64) error {
	if r.db == nil {
		return domain.ErrStorageUnavailable
	}
	// The provider does not always hand back a refresh token on re-connect;
	// keep the stored one in that case.
	query := `
		INSERT INTO users (id, catalog_id, access_token, refresh_token, token_expires_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		ON CONFLICT (id) DO UPDATE SET
			catalog_id = EXCLUDED.catalog_id,
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(EXCLUDED.refresh_token, users.refresh_token),
			token_expires_at = EXCLUDED.token_expires_at,
			last_seen = NOW();
	`
	_, err := r.db.ExecContext(ctx, query, id, catalogID, accessToken, refreshToken, expiresAt)
	return err
}

func (r *PostgresUserRepo) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt int64) error {
	if r.db == nil {
		return domain.ErrStorageUnavailable
	}
	query := `
		UPDATE users
		SET access_token = $2,
		    refresh_token = CASE WHEN $3 = '' THEN refresh_token ELSE $3 END,
		    token_expires_at = $4
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, accessToken, refreshToken, expiresAt)
	return err
}

func (r *PostgresUserRepo) ClearTokens(ctx context.Context, id string) error {
	if r.db == nil {
		return domain.ErrStorageUnavailable
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET access_token = NULL, refresh_token = NULL, token_expires_at = 0
		WHERE id = $1
	`, id)
	return err
}

func (r *PostgresUserRepo) SetColor(ctx context.Context, id, color string) error {
	if r.db == nil {
		return domain.ErrStorageUnavailable
	}
	_, err := r.db.ExecContext(ctx, `UPDATE users SET embed_color = $2 WHERE id = $1`, id, color)
	return err
}

func (r *PostgresUserRepo) SetPrivacy(ctx context.Context, id string, isPublic bool) error {
	if r.db == nil {
		return domain.ErrStorageUnavailable
	}
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_public = $2 WHERE id = $1`, id, isPublic)
	return err
}

func (r *PostgresUserRepo) IsPublic(ctx context.Context, id string) (bool, error) {
	if r.db == nil {
		return false, domain.ErrStorageUnavailable
	}
	var isPublic bool
	err := r.db.QueryRowContext(ctx, `SELECT is_public FROM users WHERE id = $1`, id).Scan(&isPublic)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return isPublic, nil
}

// Delete removes the user row; play events go with it via the FK cascade,
// so the purge is one atomic statement.
func (r *PostgresUserRepo) Delete(ctx context.Context, id string) error {
	if r.db == nil {
		return domain.ErrStorageUnavailable
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

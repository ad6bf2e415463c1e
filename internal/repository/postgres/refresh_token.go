package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

// RefreshTokenRepository keeps one refresh token row per email. Expired rows
// are treated as absent.
type RefreshTokenRepository struct {
	db *Connection
}

func NewRefreshTokenRepository(db *Connection) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Save(ctx context.Context, email string, token string, expiresAt time.Time) error {
	const query = `
        INSERT INTO refresh_tokens (email, token, expires_at, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (email) DO UPDATE
        SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, updated_at = NOW()
    `

	if _, err := r.db.querier(ctx).Exec(ctx, query, email, token, expiresAt); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// Replace updates the row only while it still holds current and has not
// expired.
func (r *RefreshTokenRepository) Replace(ctx context.Context, email string, current, next string, expiresAt time.Time) error {
	const query = `
        UPDATE refresh_tokens
        SET token = $3, expires_at = $4, updated_at = NOW()
        WHERE email = $1 AND token = $2 AND expires_at > NOW()
    `

	tag, err := r.db.querier(ctx).Exec(ctx, query, email, current, next, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to replace refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// GetByEmail locks the row until the surrounding transaction ends, so two
// reissues presenting the same token cannot both pass the comparison.
func (r *RefreshTokenRepository) GetByEmail(ctx context.Context, email string) (string, error) {
	const query = `
        SELECT token FROM refresh_tokens
        WHERE email = $1 AND expires_at > NOW()
        FOR UPDATE
    `

	var token string
	if err := r.db.querier(ctx).QueryRow(ctx, query, email).Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", model.ErrNotFound
		}
		return "", fmt.Errorf("failed to get refresh token by email: %w", err)
	}
	return token, nil
}

func (r *RefreshTokenRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `
        SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE email = $1 AND expires_at > NOW())
    `

	var exists bool
	if err := r.db.querier(ctx).QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check refresh token existence: %w", err)
	}
	return exists, nil
}

package model

import (
	"context"
	"time"
)

// RefreshTokenStore keeps a single current refresh token per user email.
// Save overwrites any previous value for the same email. Replace swaps the
// value only while it still equals current and returns ErrNotFound otherwise.
type RefreshTokenStore interface {
	Save(ctx context.Context, email string, token string, expiresAt time.Time) error
	Replace(ctx context.Context, email string, current, next string, expiresAt time.Time) error
	GetByEmail(ctx context.Context, email string) (string, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

package model

import "time"

// TokenType discriminates access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "ACCESS"
	TokenTypeRefresh TokenType = "REFRESH"
)

// TokenPair is an access/refresh token pair returned to the caller.
// Only the refresh half is persisted.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenManager generates and decodes signed tokens.
type TokenManager interface {
	Generate(subject string, role Role) (TokenPair, error)
	GetType(token string) (TokenType, error)
	GetSubject(token string) (string, error)
	GetIdentity(token string) (Identity, TokenType, error)
}

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Encode(password string) (string, error)
	Matches(password, encoded string) bool
}

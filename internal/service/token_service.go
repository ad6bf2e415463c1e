package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
)

// TokenService issues token pairs and checks presented tokens. It composes
// the TokenManager and the RefreshTokenStore. Only a digest of the refresh
// token is persisted.
type TokenService struct {
	manager model.TokenManager
	store   model.RefreshTokenStore
	logger  *logger.Logger
}

func NewTokenService(manager model.TokenManager, store model.RefreshTokenStore, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, store: store, logger: logger}
}

// Issue generates a new pair for email and overwrites the stored refresh token.
func (s *TokenService) Issue(ctx context.Context, email string, role model.Role) (model.TokenPair, error) {
	pair, err := s.manager.Generate(email, role)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := s.store.Save(ctx, email, hashRefresh(pair.RefreshToken), pair.RefreshExpiresAt); err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return pair, nil
}

// Rotate generates a new pair for email and swaps the stored refresh token
// from presented to the new one. If presented was superseded in the meantime
// the rotation is rejected.
func (s *TokenService) Rotate(ctx context.Context, email string, role model.Role, presented string) (model.TokenPair, error) {
	pair, err := s.manager.Generate(email, role)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to generate tokens: %w", err)
	}

	err = s.store.Replace(ctx, email, hashRefresh(presented), hashRefresh(pair.RefreshToken), pair.RefreshExpiresAt)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Debug("Token service: refresh token rotated concurrently", "email", email)
		return model.TokenPair{}, apierrors.NewErrInvalidRefreshToken()
	}
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to replace refresh token: %w", err)
	}

	return pair, nil
}

// Verify checks that refreshToken is a valid refresh-typed token and that it
// is the one currently stored for its subject. It returns the subject.
func (s *TokenService) Verify(ctx context.Context, refreshToken string) (string, error) {
	typ, err := s.manager.GetType(refreshToken)
	if err != nil {
		return "", err
	}
	if typ != model.TokenTypeRefresh {
		return "", apierrors.NewErrInvalidTokenType()
	}

	email, err := s.manager.GetSubject(refreshToken)
	if err != nil {
		return "", err
	}

	exists, err := s.store.ExistsByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to check refresh token: %w", err)
	}
	if !exists {
		s.logger.Debug("Token service: no stored refresh token", "email", email)
		return "", apierrors.NewErrInvalidRefreshToken()
	}

	stored, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return "", apierrors.NewErrInvalidRefreshToken()
	}
	if err != nil {
		return "", fmt.Errorf("failed to get refresh token: %w", err)
	}

	if !equalHex(stored, hashRefresh(refreshToken)) {
		s.logger.Debug("Token service: refresh token superseded", "email", email)
		return "", apierrors.NewErrInvalidRefreshToken()
	}

	return email, nil
}

// GetIdentity resolves the principal of an access token.
func (s *TokenService) GetIdentity(_ context.Context, accessToken string) (model.Identity, error) {
	identity, typ, err := s.manager.GetIdentity(accessToken)
	if err != nil {
		return model.Identity{}, err
	}
	if typ != model.TokenTypeAccess {
		return model.Identity{}, apierrors.NewErrInvalidTokenType()
	}
	return identity, nil
}

func hashRefresh(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

func equalHex(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.TokenManager = (*JWT)(nil)

// Claims represents JWT claims with token type and user role.
// The subject is the user email.
type Claims struct {
	jwt.RegisteredClaims
	Role      model.Role      `json:"role"`
	TokenType model.TokenType `json:"typ"`
}

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey  []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWT creates a new JWT token manager.
func NewJWT(secretKey, issuer string, accessTTL, refreshTTL time.Duration) *JWT {
	return &JWT{
		secretKey:  []byte(secretKey),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Generate creates an access/refresh pair for subject.
func (j *JWT) Generate(subject string, role model.Role) (model.TokenPair, error) {
	now := j.now()

	access, accessExp, err := j.sign(subject, role, model.TokenTypeAccess, now, j.accessTTL)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, refreshExp, err := j.sign(subject, role, model.TokenTypeRefresh, now, j.refreshTTL)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return model.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// GetType returns the type claim of a valid token.
func (j *JWT) GetType(tokenString string) (model.TokenType, error) {
	claims, err := j.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.TokenType, nil
}

// GetSubject returns the subject claim of a valid token.
func (j *JWT) GetSubject(tokenString string) (string, error) {
	claims, err := j.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// GetIdentity returns the principal and the type of a valid token.
func (j *JWT) GetIdentity(tokenString string) (model.Identity, model.TokenType, error) {
	claims, err := j.Parse(tokenString)
	if err != nil {
		return model.Identity{}, "", err
	}
	return model.Identity{Email: claims.Subject, Role: claims.Role}, claims.TokenType, nil
}

// Parse validates signature, algorithm, issuer and expiry and returns the
// claims. Any failure is reported as apierrors.ErrInvalidToken.
func (j *JWT) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return j.secretKey, nil
	}, opts...)
	if err != nil {
		return nil, apierrors.NewErrInvalidToken(err)
	}

	if claims.Subject == "" {
		return nil, apierrors.NewErrInvalidToken(errors.New("token has no subject"))
	}
	if claims.TokenType != model.TokenTypeAccess && claims.TokenType != model.TokenTypeRefresh {
		return nil, apierrors.NewErrInvalidToken(fmt.Errorf("unknown token type %q", claims.TokenType))
	}
	if !claims.Role.Valid() {
		return nil, apierrors.NewErrInvalidToken(fmt.Errorf("unknown role %q", claims.Role))
	}

	return claims, nil
}

func (j *JWT) sign(subject string, role model.Role, typ model.TokenType, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role:      role,
		TokenType: typ,
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, exp, nil
}

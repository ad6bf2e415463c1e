package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
	"github.com/google/uuid"
)

// Auth implements the account flows: signup, login, reissue and me.
type Auth struct {
	userStore    model.UserStore
	transactor   model.Transactor
	hasher       model.PasswordHasher
	tokenService *TokenService
	logger       *logger.Logger
	now          func() time.Time
}

func NewAuth(
	userStore model.UserStore,
	refreshTokenStore model.RefreshTokenStore,
	transactor model.Transactor,
	hasher model.PasswordHasher,
	tokenManager model.TokenManager,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:    userStore,
		transactor:   transactor,
		hasher:       hasher,
		tokenService: NewTokenService(tokenManager, refreshTokenStore, logger),
		logger:       logger,
		now:          time.Now,
	}
}

// Signup registers a new account with role USER. No tokens are issued.
func (a *Auth) Signup(ctx context.Context, email, password string) error {
	a.logger.Debug("Auth service: starting signup",
		"email", email)

	err := a.transactor.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := a.userStore.ExistsByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return apierrors.NewErrEmailDuplication(email)
		}

		encoded, err := a.hasher.Encode(password)
		if errors.Is(err, model.ErrPasswordTooLong) {
			return apierrors.NewErrPasswordTooLong(err)
		}
		if err != nil {
			return fmt.Errorf("failed to encode password: %w", err)
		}

		now := a.now().UTC()
		_, err = a.userStore.Create(ctx, model.User{
			ID:        uuid.New(),
			Email:     email,
			Password:  encoded,
			Role:      model.RoleUser,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if errors.Is(err, model.ErrAlreadyExists) {
			return apierrors.NewErrEmailDuplication(email)
		}
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		return nil
	})
	if err != nil {
		a.logFailure("signup", email, err)
		return err
	}

	a.logger.Info("Auth service: user signed up",
		"email", email)

	return nil
}

// Login checks the credentials and issues a fresh token pair. The stored
// refresh token is replaced, so the login runs in a read-write transaction.
func (a *Auth) Login(ctx context.Context, email, password string) (model.TokenPair, error) {
	a.logger.Debug("Auth service: starting login",
		"email", email)

	var pair model.TokenPair
	err := a.transactor.WithinTx(ctx, func(ctx context.Context) error {
		user, err := a.getUser(ctx, email)
		if err != nil {
			return err
		}

		if !a.hasher.Matches(password, user.Password) {
			return apierrors.NewErrWrongPassword()
		}

		pair, err = a.tokenService.Issue(ctx, user.Email, user.Role)
		if err != nil {
			return fmt.Errorf("failed to issue tokens: %w", err)
		}

		return nil
	})
	if err != nil {
		a.logFailure("login", email, err)
		return model.TokenPair{}, err
	}

	a.logger.Info("Auth service: user logged in",
		"email", email)

	return pair, nil
}

// Reissue rotates the refresh token. The presented token must be a
// refresh token and must equal the one currently stored for its subject.
// The swap itself is conditional on the stored value, so of two concurrent
// reissues with the same token only one succeeds.
func (a *Auth) Reissue(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	a.logger.Debug("Auth service: starting reissue")

	var (
		pair  model.TokenPair
		email string
	)
	err := a.transactor.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		email, err = a.tokenService.Verify(ctx, refreshToken)
		if err != nil {
			return err
		}

		user, err := a.getUser(ctx, email)
		if err != nil {
			return err
		}

		pair, err = a.tokenService.Rotate(ctx, user.Email, user.Role, refreshToken)
		if err != nil {
			return fmt.Errorf("failed to rotate tokens: %w", err)
		}

		return nil
	})
	if err != nil {
		a.logFailure("reissue", email, err)
		return model.TokenPair{}, err
	}

	a.logger.Info("Auth service: tokens reissued",
		"email", email)

	return pair, nil
}

// Me returns the profile of the authenticated identity.
func (a *Auth) Me(ctx context.Context, identity model.Identity) (model.UserProfile, error) {
	var user model.User
	err := a.transactor.WithinReadOnlyTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = a.getUser(ctx, identity.Email)
		return err
	})
	if err != nil {
		a.logFailure("me", identity.Email, err)
		return model.UserProfile{}, err
	}

	return model.UserProfile{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	}, nil
}

func (a *Auth) getUser(ctx context.Context, email string) (model.User, error) {
	user, err := a.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, apierrors.NewErrUserNotFound(email)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// logFailure reports domain rejections at info and everything else at error.
func (a *Auth) logFailure(op, email string, err error) {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		a.logger.Info("Auth service: "+op+" rejected",
			"email", email,
			"code", apiErr.Code)
		return
	}
	a.logger.Error("Auth service: "+op+" failed",
		"email", email,
		"error", err.Error())
}

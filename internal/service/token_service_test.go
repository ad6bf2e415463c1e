package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/authkeeper/internal/apierrors"
	servermocks "github.com/dtroode/authkeeper/internal/mocks"
	"github.com/dtroode/authkeeper/internal/model"
	"github.com/dtroode/authkeeper/internal/testutil"
)

func TestTokenService_Issue(t *testing.T) {
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	manager := servermocks.NewTokenManager(t)
	store := servermocks.NewRefreshTokenStore(t)

	manager.On("Generate", "a@b.c", model.RoleUser).
		Return(model.TokenPair{AccessToken: "access", RefreshToken: "refresh", RefreshExpiresAt: exp}, nil).Once()
	store.On("Save", ctx, "a@b.c", hashRefresh("refresh"), exp).Return(nil).Once()

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	pair, err := svc.Issue(ctx, "a@b.c", model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "access", pair.AccessToken)
	assert.Equal(t, "refresh", pair.RefreshToken)
}

func TestTokenService_Issue_StoresDigestOnly(t *testing.T) {
	ctx := context.Background()

	manager := servermocks.NewTokenManager(t)
	store := servermocks.NewRefreshTokenStore(t)

	manager.On("Generate", "a@b.c", model.RoleUser).Return(model.TokenPair{RefreshToken: "refresh"}, nil)
	store.On("Save", ctx, "a@b.c", mock.MatchedBy(func(v string) bool {
		return v != "refresh" && len(v) == 64
	}), mock.Anything).Return(nil)

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())
	_, err := svc.Issue(ctx, "a@b.c", model.RoleUser)
	require.NoError(t, err)
}

func TestTokenService_Issue_ManagerError(t *testing.T) {
	ctx := context.Background()

	manager := servermocks.NewTokenManager(t)
	store := servermocks.NewRefreshTokenStore(t)

	manager.On("Generate", "a@b.c", model.RoleUser).Return(model.TokenPair{}, assert.AnError).Once()

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	_, err := svc.Issue(ctx, "a@b.c", model.RoleUser)
	require.ErrorIs(t, err, assert.AnError)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTokenService_Rotate(t *testing.T) {
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	manager := servermocks.NewTokenManager(t)
	store := servermocks.NewRefreshTokenStore(t)

	manager.On("Generate", "a@b.c", model.RoleUser).
		Return(model.TokenPair{AccessToken: "access2", RefreshToken: "refresh2", RefreshExpiresAt: exp}, nil)
	store.On("Replace", ctx, "a@b.c", hashRefresh("refresh1"), hashRefresh("refresh2"), exp).Return(nil).Once()

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	pair, err := svc.Rotate(ctx, "a@b.c", model.RoleUser, "refresh1")
	require.NoError(t, err)
	assert.Equal(t, "refresh2", pair.RefreshToken)
}

func TestTokenService_Rotate_Superseded(t *testing.T) {
	ctx := context.Background()

	manager := servermocks.NewTokenManager(t)
	store := servermocks.NewRefreshTokenStore(t)

	manager.On("Generate", "a@b.c", model.RoleUser).Return(model.TokenPair{RefreshToken: "refresh2"}, nil)
	store.On("Replace", ctx, "a@b.c", mock.Anything, mock.Anything, mock.Anything).Return(model.ErrNotFound)

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	_, err := svc.Rotate(ctx, "a@b.c", model.RoleUser, "refresh1")
	assert.ErrorIs(t, err, apierrors.ErrInvalidRefreshToken)
}

func TestTokenService_Rotate_StoreError(t *testing.T) {
	ctx := context.Background()

	manager := servermocks.NewTokenManager(t)
	store := servermocks.NewRefreshTokenStore(t)

	manager.On("Generate", "a@b.c", model.RoleUser).Return(model.TokenPair{RefreshToken: "refresh2"}, nil)
	store.On("Replace", ctx, "a@b.c", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	_, err := svc.Rotate(ctx, "a@b.c", model.RoleUser, "refresh1")
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, apierrors.ErrInvalidRefreshToken)
}

func TestTokenService_Verify_Success(t *testing.T) {
	ctx := context.Background()

	manager := servermocks.NewTokenManager(t)
	store := servermocks.NewRefreshTokenStore(t)

	manager.On("GetType", "refresh").Return(model.TokenTypeRefresh, nil)
	manager.On("GetSubject", "refresh").Return("a@b.c", nil)
	store.On("ExistsByEmail", ctx, "a@b.c").Return(true, nil)
	store.On("GetByEmail", ctx, "a@b.c").Return(hashRefresh("refresh"), nil)

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	email, err := svc.Verify(ctx, "refresh")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", email)
}

func TestTokenService_Verify_Expired(t *testing.T) {
	ctx := context.Background()

	manager := servermocks.NewTokenManager(t)
	store := servermocks.NewRefreshTokenStore(t)

	manager.On("GetType", "expired").Return(model.TokenType(""), apierrors.NewErrInvalidToken(assert.AnError))

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	_, err := svc.Verify(ctx, "expired")
	assert.ErrorIs(t, err, apierrors.ErrInvalidToken)
}

func TestTokenService_Verify_VanishedBetweenChecks(t *testing.T) {
	ctx := context.Background()

	manager := servermocks.NewTokenManager(t)
	store := servermocks.NewRefreshTokenStore(t)

	manager.On("GetType", "refresh").Return(model.TokenTypeRefresh, nil)
	manager.On("GetSubject", "refresh").Return("a@b.c", nil)
	store.On("ExistsByEmail", ctx, "a@b.c").Return(true, nil)
	store.On("GetByEmail", ctx, "a@b.c").Return("", model.ErrNotFound)

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	_, err := svc.Verify(ctx, "refresh")
	assert.ErrorIs(t, err, apierrors.ErrInvalidRefreshToken)
}

func TestTokenService_Verify_StoreError(t *testing.T) {
	ctx := context.Background()

	manager := servermocks.NewTokenManager(t)
	store := servermocks.NewRefreshTokenStore(t)

	manager.On("GetType", "refresh").Return(model.TokenTypeRefresh, nil)
	manager.On("GetSubject", "refresh").Return("a@b.c", nil)
	store.On("ExistsByEmail", ctx, "a@b.c").Return(false, assert.AnError)

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	_, err := svc.Verify(ctx, "refresh")
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, apierrors.ErrInvalidRefreshToken)
}

func TestTokenService_GetIdentity(t *testing.T) {
	ctx := context.Background()
	manager := servermocks.NewTokenManager(t)
	store := servermocks.NewRefreshTokenStore(t)
	identity := model.Identity{Email: "a@b.c", Role: model.RoleAdmin}

	manager.On("GetIdentity", "access").Return(identity, model.TokenTypeAccess, nil)
	manager.On("GetIdentity", "refresh").Return(identity, model.TokenTypeRefresh, nil)

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	got, err := svc.GetIdentity(ctx, "access")
	require.NoError(t, err)
	assert.Equal(t, identity, got)

	_, err = svc.GetIdentity(ctx, "refresh")
	assert.ErrorIs(t, err, apierrors.ErrInvalidTokenType)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/authkeeper/internal/apierrors"
	servermocks "github.com/dtroode/authkeeper/internal/mocks"
	"github.com/dtroode/authkeeper/internal/model"
	"github.com/dtroode/authkeeper/internal/testutil"
)

// passthroughTx runs fn directly and records which kind of transaction was requested.
type passthroughTx struct {
	readWrite int
	readOnly  int
}

func (p *passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.readWrite++
	return fn(ctx)
}

func (p *passthroughTx) WithinReadOnlyTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.readOnly++
	return fn(ctx)
}

type authDeps struct {
	users   *servermocks.UserStore
	refresh *servermocks.RefreshTokenStore
	hasher  *servermocks.PasswordHasher
	tokens  *servermocks.TokenManager
	tx      *passthroughTx
}

func newTestAuth(t *testing.T) (*Auth, authDeps) {
	t.Helper()
	d := authDeps{
		users:   servermocks.NewUserStore(t),
		refresh: servermocks.NewRefreshTokenStore(t),
		hasher:  servermocks.NewPasswordHasher(t),
		tokens:  servermocks.NewTokenManager(t),
		tx:      &passthroughTx{},
	}
	a := NewAuth(d.users, d.refresh, d.tx, d.hasher, d.tokens, testutil.MakeNoopLogger())
	return a, d
}

func TestAuth_Signup_Success(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)

	d.users.On("ExistsByEmail", mock.Anything, "a@b.c").Return(false, nil)
	d.hasher.On("Encode", "pw").Return("hashed", nil)
	d.users.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.Email == "a@b.c" && u.Password == "hashed" && u.Role == model.RoleUser && u.ID != uuid.Nil
	})).Return(model.User{}, nil)

	err := a.Signup(ctx, "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, 1, d.tx.readWrite)
}

func TestAuth_Signup_EmailDuplication(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)

	d.users.On("ExistsByEmail", mock.Anything, "a@b.c").Return(true, nil)

	err := a.Signup(ctx, "a@b.c", "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, apierrors.ErrEmailDuplication)
	d.hasher.AssertNotCalled(t, "Encode", mock.Anything)
}

func TestAuth_Signup_CreateConflict(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)

	d.users.On("ExistsByEmail", mock.Anything, "a@b.c").Return(false, nil)
	d.hasher.On("Encode", "pw").Return("hashed", nil)
	d.users.On("Create", mock.Anything, mock.Anything).Return(model.User{}, model.ErrAlreadyExists)

	err := a.Signup(ctx, "a@b.c", "pw")
	assert.ErrorIs(t, err, apierrors.ErrEmailDuplication)
}

func TestAuth_Signup_PasswordTooLong(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)

	d.users.On("ExistsByEmail", mock.Anything, "a@b.c").Return(false, nil)
	d.hasher.On("Encode", "long").Return("", fmt.Errorf("failed to hash password: %w", model.ErrPasswordTooLong))

	err := a.Signup(ctx, "a@b.c", "long")
	assert.ErrorIs(t, err, apierrors.ErrPasswordTooLong)
	d.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuth_Signup_StoreError(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)
	boom := errors.New("db down")

	d.users.On("ExistsByEmail", mock.Anything, "a@b.c").Return(false, boom)

	err := a.Signup(ctx, "a@b.c", "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var apiErr *apierrors.APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestAuth_Login_Success(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)
	exp := time.Now().Add(time.Hour)
	pair := model.TokenPair{AccessToken: "acc", RefreshToken: "ref", AccessExpiresAt: exp, RefreshExpiresAt: exp}

	d.users.On("GetByEmail", mock.Anything, "a@b.c").Return(model.User{Email: "a@b.c", Password: "hashed", Role: model.RoleUser}, nil)
	d.hasher.On("Matches", "pw", "hashed").Return(true)
	d.tokens.On("Generate", "a@b.c", model.RoleUser).Return(pair, nil)
	d.refresh.On("Save", mock.Anything, "a@b.c", hashRefresh("ref"), exp).Return(nil)

	got, err := a.Login(ctx, "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, pair, got)
	assert.Equal(t, 1, d.tx.readWrite)
	assert.Zero(t, d.tx.readOnly)
}

func TestAuth_Login_UserNotFound(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)

	d.users.On("GetByEmail", mock.Anything, "nobody@b.c").Return(model.User{}, model.ErrNotFound)

	_, err := a.Login(ctx, "nobody@b.c", "pw")
	assert.ErrorIs(t, err, apierrors.ErrUserNotFound)
}

func TestAuth_Login_WrongPassword(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)

	d.users.On("GetByEmail", mock.Anything, "a@b.c").Return(model.User{Email: "a@b.c", Password: "hashed", Role: model.RoleUser}, nil)
	d.hasher.On("Matches", "bad", "hashed").Return(false)

	_, err := a.Login(ctx, "a@b.c", "bad")
	assert.ErrorIs(t, err, apierrors.ErrWrongPassword)
	d.tokens.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	d.refresh.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuth_Login_SaveError(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)
	boom := errors.New("redis down")

	d.users.On("GetByEmail", mock.Anything, "a@b.c").Return(model.User{Email: "a@b.c", Password: "hashed", Role: model.RoleUser}, nil)
	d.hasher.On("Matches", "pw", "hashed").Return(true)
	d.tokens.On("Generate", "a@b.c", model.RoleUser).Return(model.TokenPair{RefreshToken: "ref"}, nil)
	d.refresh.On("Save", mock.Anything, "a@b.c", mock.Anything, mock.Anything).Return(boom)

	_, err := a.Login(ctx, "a@b.c", "pw")
	assert.ErrorIs(t, err, boom)
}

func TestAuth_Reissue_Success(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)
	pair := model.TokenPair{AccessToken: "acc2", RefreshToken: "ref2"}

	d.tokens.On("GetType", "ref1").Return(model.TokenTypeRefresh, nil)
	d.tokens.On("GetSubject", "ref1").Return("a@b.c", nil)
	d.refresh.On("ExistsByEmail", mock.Anything, "a@b.c").Return(true, nil)
	d.refresh.On("GetByEmail", mock.Anything, "a@b.c").Return(hashRefresh("ref1"), nil)
	d.users.On("GetByEmail", mock.Anything, "a@b.c").Return(model.User{Email: "a@b.c", Role: model.RoleAdmin}, nil)
	d.tokens.On("Generate", "a@b.c", model.RoleAdmin).Return(pair, nil)
	d.refresh.On("Replace", mock.Anything, "a@b.c", hashRefresh("ref1"), hashRefresh("ref2"), mock.Anything).Return(nil)

	got, err := a.Reissue(ctx, "ref1")
	require.NoError(t, err)
	assert.Equal(t, pair, got)
	assert.Equal(t, 1, d.tx.readWrite)
	d.refresh.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuth_Reissue_RotatedConcurrently(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)

	d.tokens.On("GetType", "ref1").Return(model.TokenTypeRefresh, nil)
	d.tokens.On("GetSubject", "ref1").Return("a@b.c", nil)
	d.refresh.On("ExistsByEmail", mock.Anything, "a@b.c").Return(true, nil)
	d.refresh.On("GetByEmail", mock.Anything, "a@b.c").Return(hashRefresh("ref1"), nil)
	d.users.On("GetByEmail", mock.Anything, "a@b.c").Return(model.User{Email: "a@b.c", Role: model.RoleUser}, nil)
	d.tokens.On("Generate", "a@b.c", model.RoleUser).Return(model.TokenPair{RefreshToken: "ref2"}, nil)
	d.refresh.On("Replace", mock.Anything, "a@b.c", hashRefresh("ref1"), hashRefresh("ref2"), mock.Anything).Return(model.ErrNotFound)

	_, err := a.Reissue(ctx, "ref1")
	assert.ErrorIs(t, err, apierrors.ErrInvalidRefreshToken)
}

func TestAuth_Reissue_AccessToken(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)

	d.tokens.On("GetType", "acc").Return(model.TokenTypeAccess, nil)

	_, err := a.Reissue(ctx, "acc")
	assert.ErrorIs(t, err, apierrors.ErrInvalidTokenType)
	d.refresh.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
	d.users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestAuth_Reissue_NoStoredToken(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)

	d.tokens.On("GetType", "ref").Return(model.TokenTypeRefresh, nil)
	d.tokens.On("GetSubject", "ref").Return("a@b.c", nil)
	d.refresh.On("ExistsByEmail", mock.Anything, "a@b.c").Return(false, nil)

	_, err := a.Reissue(ctx, "ref")
	assert.ErrorIs(t, err, apierrors.ErrInvalidRefreshToken)
}

func TestAuth_Reissue_Superseded(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)

	d.tokens.On("GetType", "old").Return(model.TokenTypeRefresh, nil)
	d.tokens.On("GetSubject", "old").Return("a@b.c", nil)
	d.refresh.On("ExistsByEmail", mock.Anything, "a@b.c").Return(true, nil)
	d.refresh.On("GetByEmail", mock.Anything, "a@b.c").Return(hashRefresh("new"), nil)

	_, err := a.Reissue(ctx, "old")
	assert.ErrorIs(t, err, apierrors.ErrInvalidRefreshToken)
	d.tokens.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestAuth_Reissue_InvalidToken(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)

	d.tokens.On("GetType", "garbage").Return(model.TokenType(""), apierrors.NewErrInvalidToken(errors.New("malformed")))

	_, err := a.Reissue(ctx, "garbage")
	assert.ErrorIs(t, err, apierrors.ErrInvalidToken)
}

func TestAuth_Reissue_UserDeleted(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)

	d.tokens.On("GetType", "ref").Return(model.TokenTypeRefresh, nil)
	d.tokens.On("GetSubject", "ref").Return("gone@b.c", nil)
	d.refresh.On("ExistsByEmail", mock.Anything, "gone@b.c").Return(true, nil)
	d.refresh.On("GetByEmail", mock.Anything, "gone@b.c").Return(hashRefresh("ref"), nil)
	d.users.On("GetByEmail", mock.Anything, "gone@b.c").Return(model.User{}, model.ErrNotFound)

	_, err := a.Reissue(ctx, "ref")
	assert.ErrorIs(t, err, apierrors.ErrUserNotFound)
}

func TestAuth_Me_Success(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)
	id := uuid.New()

	d.users.On("GetByEmail", mock.Anything, "a@b.c").Return(model.User{ID: id, Email: "a@b.c", Password: "hashed", Role: model.RoleUser}, nil)

	profile, err := a.Me(ctx, model.Identity{Email: "a@b.c", Role: model.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, model.UserProfile{ID: id, Email: "a@b.c", Role: model.RoleUser}, profile)
	assert.Equal(t, 1, d.tx.readOnly)
	assert.Zero(t, d.tx.readWrite)
}

func TestAuth_Me_UserNotFound(t *testing.T) {
	ctx := context.Background()
	a, d := newTestAuth(t)

	d.users.On("GetByEmail", mock.Anything, "gone@b.c").Return(model.User{}, model.ErrNotFound)

	_, err := a.Me(ctx, model.Identity{Email: "gone@b.c", Role: model.RoleUser})
	assert.ErrorIs(t, err, apierrors.ErrUserNotFound)
}

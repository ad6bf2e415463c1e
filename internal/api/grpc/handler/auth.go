package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/dtroode/authkeeper/internal/api/grpc/authv1"
	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
)

// AuthService defines the account operations served over gRPC.
type AuthService interface {
	Signup(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (model.TokenPair, error)
	Reissue(ctx context.Context, refreshToken string) (model.TokenPair, error)
	Me(ctx context.Context, identity model.Identity) (model.UserProfile, error)
}

// Auth handles gRPC endpoints for authentication.
type Auth struct {
	authv1.UnimplementedAuthServer
	authService    AuthService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Signup registers a new account.
func (h *Auth) Signup(ctx context.Context, req *authv1.SignupRequest) (*emptypb.Empty, error) {
	h.logger.Debug("Auth handler: processing signup request",
		"email", req.Email)

	if err := validateCredentials(req.Email, req.Password); err != nil {
		return nil, err
	}

	if err := h.authService.Signup(ctx, req.Email, req.Password); err != nil {
		h.logger.Error("Auth handler: signup failed",
			"email", req.Email,
			"error", err.Error())
		return nil, handleError(err)
	}

	h.logger.Info("Auth handler: signup completed",
		"email", req.Email)

	return &emptypb.Empty{}, nil
}

// Login exchanges credentials for a token pair.
func (h *Auth) Login(ctx context.Context, req *authv1.LoginRequest) (*authv1.TokenResponse, error) {
	h.logger.Debug("Auth handler: processing login request",
		"email", req.Email)

	if err := validateCredentials(req.Email, req.Password); err != nil {
		return nil, err
	}

	pair, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.Error("Auth handler: login failed",
			"email", req.Email,
			"error", err.Error())
		return nil, handleError(err)
	}

	h.logger.Info("Auth handler: login completed",
		"email", req.Email)

	return tokenResponse(pair), nil
}

// Reissue exchanges the current refresh token for a new pair.
func (h *Auth) Reissue(ctx context.Context, req *authv1.ReissueRequest) (*authv1.TokenResponse, error) {
	h.logger.Debug("Auth handler: processing reissue request")

	if req.RefreshToken == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token is required")
	}

	pair, err := h.authService.Reissue(ctx, req.RefreshToken)
	if err != nil {
		h.logger.Error("Auth handler: reissue failed",
			"error", err.Error())
		return nil, handleError(err)
	}

	h.logger.Info("Auth handler: reissue completed")

	return tokenResponse(pair), nil
}

// Me returns the profile of the caller identified by the access token.
func (h *Auth) Me(ctx context.Context, _ *emptypb.Empty) (*authv1.UserResponse, error) {
	identity, ok := h.contextManager.GetIdentityFromContext(ctx)
	if !ok {
		return nil, handleError(apierrors.NewErrMissingAuthorizationToken())
	}

	profile, err := h.authService.Me(ctx, identity)
	if err != nil {
		h.logger.Error("Auth handler: me failed",
			"email", identity.Email,
			"error", err.Error())
		return nil, handleError(err)
	}

	return &authv1.UserResponse{
		Id:    profile.ID.String(),
		Email: profile.Email,
		Role:  string(profile.Role),
	}, nil
}

func validateCredentials(email, password string) error {
	if email == "" {
		return status.Error(codes.InvalidArgument, "email is required")
	}
	if password == "" {
		return status.Error(codes.InvalidArgument, "password is required")
	}
	return nil
}

func tokenResponse(pair model.TokenPair) *authv1.TokenResponse {
	return &authv1.TokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  timestamppb.New(pair.AccessExpiresAt),
		RefreshExpiresAt: timestamppb.New(pair.RefreshExpiresAt),
	}
}

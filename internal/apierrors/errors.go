// Package apierrors defines the typed failures returned by the auth service.
// Each error carries a fixed code, an HTTP-style status, the matching gRPC
// code and a client-facing message.
package apierrors

import (
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a stable machine-readable error identifier.
type Code string

const (
	CodeEmailDuplication          Code = "EMAIL_DUPLICATION"
	CodeUserNotFound              Code = "USER_NOT_FOUND"
	CodeWrongPassword             Code = "WRONG_PASSWORD"
	CodePasswordTooLong           Code = "PASSWORD_TOO_LONG"
	CodeInvalidTokenType          Code = "INVALID_TOKEN_TYPE"
	CodeInvalidRefreshToken       Code = "INVALID_REFRESH_TOKEN"
	CodeInvalidToken              Code = "INVALID_TOKEN"
	CodeMissingAuthorizationToken Code = "MISSING_AUTHORIZATION_TOKEN"
	CodeInternalServerError       Code = "INTERNAL_SERVER_ERROR"
)

// APIError is a terminal, non-retryable failure surfaced to the caller.
type APIError struct {
	Code     Code
	Status   int
	GRPCCode codes.Code
	Message  string
	Err      error
}

// Sentinels for errors.Is comparisons. Matching is done by Code, so errors
// built by the New* constructors match their sentinel.
var (
	ErrEmailDuplication          = &APIError{Code: CodeEmailDuplication, Status: http.StatusConflict, GRPCCode: codes.AlreadyExists, Message: "email is already registered"}
	ErrUserNotFound              = &APIError{Code: CodeUserNotFound, Status: http.StatusNotFound, GRPCCode: codes.NotFound, Message: "user not found"}
	ErrWrongPassword             = &APIError{Code: CodeWrongPassword, Status: http.StatusUnauthorized, GRPCCode: codes.Unauthenticated, Message: "wrong password"}
	ErrPasswordTooLong           = &APIError{Code: CodePasswordTooLong, Status: http.StatusBadRequest, GRPCCode: codes.InvalidArgument, Message: "password is too long"}
	ErrInvalidTokenType          = &APIError{Code: CodeInvalidTokenType, Status: http.StatusUnauthorized, GRPCCode: codes.Unauthenticated, Message: "invalid token type"}
	ErrInvalidRefreshToken       = &APIError{Code: CodeInvalidRefreshToken, Status: http.StatusUnauthorized, GRPCCode: codes.Unauthenticated, Message: "invalid refresh token"}
	ErrInvalidToken              = &APIError{Code: CodeInvalidToken, Status: http.StatusUnauthorized, GRPCCode: codes.Unauthenticated, Message: "invalid token"}
	ErrMissingAuthorizationToken = &APIError{Code: CodeMissingAuthorizationToken, Status: http.StatusUnauthorized, GRPCCode: codes.Unauthenticated, Message: "authorization token is missing"}
	ErrInternalServerError       = &APIError{Code: CodeInternalServerError, Status: http.StatusInternalServerError, GRPCCode: codes.Internal, Message: "internal server error"}
)

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an APIError with the same code.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *APIError) with(message string, cause error) *APIError {
	c := *e
	if message != "" {
		c.Message = message
	}
	c.Err = cause
	return &c
}

// NewErrEmailDuplication reports that email is already registered.
func NewErrEmailDuplication(email string) *APIError {
	return ErrEmailDuplication.with(fmt.Sprintf("email %s is already registered", email), nil)
}

// NewErrUserNotFound reports that no user with email exists.
func NewErrUserNotFound(email string) *APIError {
	return ErrUserNotFound.with(fmt.Sprintf("user %s not found", email), nil)
}

func NewErrWrongPassword() *APIError {
	return ErrWrongPassword.with("", nil)
}

// NewErrPasswordTooLong reports a password the hasher cannot encode in full.
func NewErrPasswordTooLong(cause error) *APIError {
	return ErrPasswordTooLong.with("", cause)
}

func NewErrInvalidTokenType() *APIError {
	return ErrInvalidTokenType.with("", nil)
}

func NewErrInvalidRefreshToken() *APIError {
	return ErrInvalidRefreshToken.with("", nil)
}

// NewErrInvalidToken wraps a token decoding failure.
func NewErrInvalidToken(cause error) *APIError {
	return ErrInvalidToken.with("", cause)
}

func NewErrMissingAuthorizationToken() *APIError {
	return ErrMissingAuthorizationToken.with("", nil)
}

// NewErrInternalServerError hides cause from the client message but keeps it
// in the error chain for logging.
func NewErrInternalServerError(cause error) *APIError {
	return ErrInternalServerError.with("", cause)
}

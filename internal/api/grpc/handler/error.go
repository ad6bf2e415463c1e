package handler

import (
	"errors"

	"github.com/dtroode/authkeeper/internal/apierrors"
)

// handleError converts err into a gRPC status error. Anything that is not an
// APIError becomes INTERNAL_SERVER_ERROR.
func handleError(err error) error {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		apiErr = apierrors.NewErrInternalServerError(err)
	}
	return apiErr.GRPCStatus().Err()
}

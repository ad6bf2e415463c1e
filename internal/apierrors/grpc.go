package apierrors

import (
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

// Domain is reported in the ErrorInfo detail of every status built from an APIError.
const Domain = "authkeeper"

// GRPCStatus converts e into a status carrying an ErrorInfo detail with the
// error code and HTTP-style status. The cause is never exposed.
func (e *APIError) GRPCStatus() *status.Status {
	st := status.New(e.GRPCCode, e.Message)
	detailed, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason: string(e.Code),
		Domain: Domain,
		Metadata: map[string]string{
			"http_status": strconv.Itoa(e.Status),
		},
	})
	if err != nil {
		return st
	}
	return detailed
}

// CodeFromStatus extracts the API error code from a gRPC status error.
func CodeFromStatus(err error) (Code, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return "", false
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.Domain == Domain {
			return Code(info.Reason), true
		}
	}
	return "", false
}

package middleware

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/dtroode/authkeeper/internal/apierrors"
)

// Recorder receives per-call observations.
type Recorder interface {
	ObserveRequest(method, code string, duration time.Duration)
	ObserveRejection(method, reason string)
}

// Metrics is a unary interceptor that records call counts, latencies and
// API error codes.
type Metrics struct {
	recorder Recorder
}

func NewMetrics(recorder Recorder) *Metrics {
	return &Metrics{recorder: recorder}
}

func (m *Metrics) HandleGRPC(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	m.recorder.ObserveRequest(info.FullMethod, status.Code(err).String(), time.Since(start))
	if code, ok := apierrors.CodeFromStatus(err); ok {
		m.recorder.ObserveRejection(info.FullMethod, string(code))
	}

	return resp, err
}

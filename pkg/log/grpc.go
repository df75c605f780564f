package log

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const metadataKeyRequestID = "x-request-id"

// UnaryServerInterceptor returns a gRPC unary server interceptor that
// creates a child logger with request metadata and injects it into context.
func UnaryServerInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		child := logger.With().
			Str(FieldRequestID, RequestIDFromMetadata(ctx)).
			Str(FieldGRPCMethod, info.FullMethod).
			Logger()

		resp, err := handler(WithLogger(ctx, child), req)

		evt := child.Info()
		if err != nil {
			evt = child.Warn().Err(err)
		}
		evt.
			Str(FieldGRPCCode, status.Code(err).String()).
			Float64(FieldLatency, float64(time.Since(start).Milliseconds())).
			Msg("unary call completed")

		return resp, err
	}
}

// RequestIDFromMetadata returns the caller's request ID, or a new one.
func RequestIDFromMetadata(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		vals := md.Get(metadataKeyRequestID)
		if len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	return uuid.New().String()
}

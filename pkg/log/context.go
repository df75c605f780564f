package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx retrieves the logger from the context, or the global logger.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}

// WithSource tags the context logger with an identifier source.
func WithSource(ctx context.Context, sourceID int64) context.Context {
	return WithLogger(ctx, Ctx(ctx).With().Int64(FieldSourceID, sourceID).Logger())
}

// WithLocation tags the context logger with the current location.
func WithLocation(ctx context.Context, locationID int64) context.Context {
	return WithLogger(ctx, Ctx(ctx).With().Int64(FieldLocationID, locationID).Logger())
}

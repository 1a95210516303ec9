package buildsys

import (
	"context"

	"github.com/rs/zerolog"
)

type logKey struct{}

// log returns the logger of the current run. Every exported operation that logs expects one, so a missing
// logger is a programming error.
func log(ctx context.Context) *zerolog.Logger {
	logger, ok := ctx.Value(logKey{}).(*zerolog.Logger)
	if !ok {
		panic("buildsys: no logger in context, use WithLogger() before building dependencies")
	}

	return logger
}

// WithLogger attaches the run's logger to ctx. Per-dependency loggers derived from it add a "dep" field.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, logKey{}, logger)
}

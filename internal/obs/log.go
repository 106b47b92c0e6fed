// Package obs provides omni's logging, generalizing the teacher's minimal
// io.Writer-backed logger into structured, leveled logging built on zap.
package obs

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey int

const loggerKey ctxKey = 0

// New builds a production-shaped logger; verbose raises the level to debug,
// mirroring the teacher's --verbose flag and the s.params.Trace gate in
// the solver.
func New(verbose bool) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.DisableStacktrace = !verbose
	l, err := cfg.Build()
	if err != nil {
		// Config above is static and always valid; fall back rather than
		// take down the process on a logging setup failure.
		l = zap.NewNop()
	}
	return l.Sugar()
}

// WithLogger returns a copy of ctx carrying l, retrievable with From.
func WithLogger(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// From returns the logger stored in ctx, or a no-op logger if none was
// attached.
func From(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(loggerKey).(*zap.SugaredLogger); ok && l != nil {
		return l
	}
	return zap.NewNop().Sugar()
}

package middleware

import (
	"context"
	"log/slog"
	"time"

	"rentacar/internal/app/commands"
	"rentacar/internal/app/queries"
	"rentacar/internal/domain/shared/apperr"
)

// Logging records every dispatched command with its duration and outcome.
// Expected failures (validation, conflict, not found) log at info.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			started := time.Now()
			res, err := nextFn(ctx, cmd)
			logOutcome(ctx, logger, "command", cmd.Key(), time.Since(started), err)
			return res, err
		})
	}
}

func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			started := time.Now()
			res, err := nextFn(ctx, q)
			logOutcome(ctx, logger, "query", q.Key(), time.Since(started), err)
			return res, err
		})
	}
}

func logOutcome(ctx context.Context, logger *slog.Logger, kind, key string, elapsed time.Duration, err error) {
	attrs := []any{kind, key, "duration_ms", elapsed.Milliseconds()}
	if err == nil {
		logger.DebugContext(ctx, kind+" handled", attrs...)
		return
	}
	errKind := apperr.KindOf(err)
	attrs = append(attrs, "error", err, "kind", string(errKind))
	switch errKind {
	case apperr.KindInternal, apperr.KindTransport:
		logger.ErrorContext(ctx, kind+" failed", attrs...)
	default:
		logger.InfoContext(ctx, kind+" rejected", attrs...)
	}
}

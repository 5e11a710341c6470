package middleware

import (
	"context"
	"log/slog"

	"rentacar/internal/app/commands"
	"rentacar/internal/app/outbox"
)

// OutboxFlush hands recorded events to the outbox after the command has
// committed. A failed flush does not fail the command: the records stay
// pending and go out with the next flush.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				logger.WarnContext(ctx, "outbox flush deferred", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}

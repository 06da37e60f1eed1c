// Package async runs request-scoped work in the background.
package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/serialport/pkg/utils/logging"
)

// Dispatch runs job in a new goroutine that outlives ctx.
//
// The job's context keeps the values of ctx but not its cancellation or
// deadline. Its logger is the logger of ctx extended with attrs, so every
// line the job writes carries them. A returned error or a recovered panic is
// logged under name. The returned channel is closed once the job and its
// logging have finished.
func Dispatch(ctx context.Context, name string, job func(ctx context.Context) error, attrs ...any) <-chan struct{} {
	logger := logging.From(ctx).With("task", name).With(attrs...)
	jobCtx := logging.With(context.WithoutCancel(ctx), logger)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in background task",
					"recover", r,
					"stack", string(debug.Stack()))
			}
		}()

		if err := job(jobCtx); err != nil {
			logger.Error("background task failed", "error", err)
		}
	}()

	return done
}

package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// Go schedules fn as a task of the errgroup with panic recovery
//
// Parameters:
//   - ctx: Group context; cancellation reaches fn so sibling failures abort it
//   - g: Errgroup the task joins
//   - fn: Function to execute as a task
//
// Behavior:
//   - Executes fn on a goroutine managed by g
//   - Recovers from panics in fn, logs them with the stack trace and turns
//     them into an error so the whole group aborts instead of the process
func Go(ctx context.Context, g *errgroup.Group, fn func(ctx context.Context) error) {
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger := ctxlog.From(ctx)
				logger.Error("panic in async task",
					"recover", r,
					"stack", string(stack))
				err = goerr.New("panic in async task", goerr.V("recover", r))
			}
		}()

		return fn(ctx)
	})
}

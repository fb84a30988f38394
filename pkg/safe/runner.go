package safe

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
	"macrosim.com/pkg/logger"
)

// Go starts a goroutine that recovers and logs panics instead of crashing
// the process.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())

				if logger.Log != nil {
					logger.Error(context.Background(), "goroutine panic recovered",
						zap.Any("panic", r),
						zap.String("stack", stack),
					)
				} else {
					fmt.Printf("goroutine panic: %v\nstack: %s\n", r, stack)
				}
			}
		}()

		fn()
	}()
}

// GoCtx is Go with a context carried into the function, so log entries keep
// the run/trace id.
func GoCtx(ctx context.Context, fn func(ctx context.Context)) {
	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())

				if logger.Log != nil {
					logger.Error(ctx, "goroutine panic recovered",
						zap.Any("panic", r),
						zap.String("stack", stack),
					)
				} else {
					fmt.Printf("goroutine panic: %v\nstack: %s\n", r, stack)
				}
			}
		}()

		fn(ctx)
	}()
}

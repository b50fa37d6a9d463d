package pipeline

import (
	"context"
	"fmt"
	"time"
)

type result[T any] struct {
	value T
	err   error
}

// call runs fn with its own deadline and turns a panic into an error.
// fn runs on its own goroutine so a collaborator that ignores its context
// still cannot hold the cycle past the deadline. Such a goroutine is abandoned,
// not stopped: its side effects may still land after call has returned, so
// collaborators must honour ctx to keep a timed-out stage from completing late.
func call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		var res result[T]
		defer func() {
			if r := recover(); r != nil {
				res.err = fmt.Errorf("panic: %v", r)
			}
			done <- res
		}()
		res.value, res.err = fn(callCtx)
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-callCtx.Done():
		var zero T
		return zero, fmt.Errorf("call abandoned: %w", callCtx.Err())
	}
}

package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
)

// PanicError carries a recovered handler panic.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string { return fmt.Sprintf("handler panic: %v", e.Value) }

// Recover turns handler panics into *PanicError so the table reports them
// like any other failure.
func Recover(next Handler) Handler {
	return func(ctx context.Context, ev *Event, r Responder) (err error) {
		defer func() {
			if v := recover(); v != nil {
				err = &PanicError{Value: v, Stack: string(debug.Stack())}
			}
		}()
		return next(ctx, ev, r)
	}
}

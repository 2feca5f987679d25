package search

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status is the result of a single provider call.
type Status string

// Provider call statuses.
const (
	StatusOK      Status = "ok"
	StatusTimeout Status = "timeout"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Outcome describes how one provider call ended. Anything other than StatusOK
// contributes an empty list to fusion.
type Outcome struct {
	Status  Status
	Err     error
	Elapsed time.Duration
}

// invoke runs fn and waits for it or for ctx, whichever ends first. A call still running
// when ctx ends is abandoned: its reply lands in a buffered channel nobody reads.
// Provider panics are converted into StatusError.
func invoke[T any](ctx context.Context, fn func(context.Context) ([]T, error)) ([]T, Outcome) {
	type reply struct {
		items []T
		err   error
	}

	start := time.Now()
	ch := make(chan reply, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- reply{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		items, err := fn(ctx)
		ch <- reply{items: items, err: err}
	}()

	select {
	case r := <-ch:
		elapsed := time.Since(start)
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				return nil, Outcome{Status: StatusTimeout, Err: r.err, Elapsed: elapsed}
			}
			return nil, Outcome{Status: StatusError, Err: r.err, Elapsed: elapsed}
		}
		return r.items, Outcome{Status: StatusOK, Elapsed: elapsed}
	case <-ctx.Done():
		elapsed := time.Since(start)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, Outcome{Status: StatusTimeout, Err: ctx.Err(), Elapsed: elapsed}
		}
		return nil, Outcome{Status: StatusError, Err: ctx.Err(), Elapsed: elapsed}
	}
}

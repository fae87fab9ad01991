package session

import (
	"context"
	"errors"
	"time"
)

// firstOf races wait, which must already be bounded by its own driver-level
// timeout, against an independent timer of length d. Whichever fires first
// decides the outcome and the other result is discarded.
//
// A wait that ends with context.DeadlineExceeded while ctx is still live is
// reported as timedOut, the same as the timer winning.
func firstOf[T any](ctx context.Context, d time.Duration, wait func() (T, error)) (res T, timedOut bool, err error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := wait()
		done <- result{v, err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	var zero T
	select {
	case r := <-done:
		if r.err != nil {
			if isTimeout(ctx, r.err) {
				return zero, true, nil
			}
			return zero, false, r.err
		}
		return r.v, false, nil
	case <-timer.C:
		return zero, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// isTimeout reports whether err is a deadline that fired on its own rather
// than because the caller gave up.
func isTimeout(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

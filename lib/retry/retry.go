// Package retry wraps a single upstream operation in bounded, jittered
// exponential backoff. Policies carry no shared state, so each adapter
// owns its own instance and concurrent use is safe.
package retry

import (
	"context"
	"errors"
	"time"

	random "github.com/mazen160/go-random"
)

type Policy struct {
	// total attempts, including the first; values < 1 behave as 1
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

var Default = Policy{
	Attempts:  3,
	BaseDelay: 500 * time.Millisecond,
	MaxDelay:  8 * time.Second,
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying (4xx responses, parse dead ends).
// Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// Do runs op until it succeeds, is marked permanent, ctx is done, or the
// attempt budget runs out. The delay doubles per attempt up to MaxDelay,
// with up to 25% random jitter added so concurrent units don't hammer an
// upstream in lockstep.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.BaseDelay
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return errors.Join(err, ctx.Err())
			case <-time.After(Jitter(delay)):
			}
			delay *= 2
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}

		err = op(ctx)
		if err == nil {
			return nil
		}
		if IsPermanent(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

// Jitter returns d plus up to 25% random slack.
func Jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	n, err := random.IntRange(0, int(d/4)+1)
	if err != nil {
		return d
	}
	return d + time.Duration(n)
}

package booking

import (
	"context"
	"errors"
)

// ErrStopped is returned by Loop.Run when the loop was cancelled before
// reaching a terminal outcome.
var ErrStopped = errors.New("booking loop stopped")

// Attempter performs one classified booking attempt.
type Attempter interface {
	Attempt(ctx context.Context, req Request) Outcome
}

type AttempterFunc func(ctx context.Context, req Request) Outcome

func (f AttempterFunc) Attempt(ctx context.Context, req Request) Outcome { return f(ctx, req) }

// Loop retries an Attempter until a terminal outcome. There is no delay
// between attempts: a retryable outcome is re-attempted immediately.
type Loop struct {
	Attempter Attempter

	// Stopped is polled before every attempt. Optional.
	Stopped func() bool
	// OnOutcome is called after every attempt with its 1-based number. Optional.
	OnOutcome func(n int, out Outcome)
}

// Run returns the terminal outcome and the number of attempts made. If the
// loop is stopped or ctx is done first, it returns the last outcome seen
// (zero value if none) and ErrStopped. A connection failure caused by ctx
// ending is neither reported to OnOutcome nor returned.
func (l *Loop) Run(ctx context.Context, req Request) (Outcome, int, error) {
	var (
		last Outcome
		n    int
	)
	for {
		if ctx.Err() != nil || (l.Stopped != nil && l.Stopped()) {
			return last, n, ErrStopped
		}
		n++
		out := l.Attempter.Attempt(ctx, req)
		// A request cut short by cancellation is a stop, not a failed attempt.
		if out.Kind == KindConnection && ctx.Err() != nil {
			return last, n, ErrStopped
		}
		last = out
		if l.OnOutcome != nil {
			l.OnOutcome(n, last)
		}
		if last.Terminal() {
			return last, n, nil
		}
	}
}

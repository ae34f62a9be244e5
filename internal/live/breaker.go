package live

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/sony/gobreaker"
	"pkt.systems/pslog"
)

// ErrUnavailable is yielded when the breaker rejects a generation.
var ErrUnavailable = errors.New("live generation unavailable")

// BreakerSettings controls when the live capability is considered down.
type BreakerSettings struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration
	Logger      pslog.Logger
}

type breakerGenerator struct {
	next Generator
	cb   *gobreaker.TwoStepCircuitBreaker
}

// WithBreaker fails generations fast once MaxFailures streams in a row have
// failed, until OpenTimeout has passed. A rejected turn is not retried.
func WithBreaker(next Generator, settings BreakerSettings) Generator {
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 3
	}
	logger := settings.Logger
	st := gobreaker.Settings{
		Name:    settings.Name,
		Timeout: settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	}
	if logger != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			logger.Warn("live breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}
	}
	return &breakerGenerator{next: next, cb: gobreaker.NewTwoStepCircuitBreaker(st)}
}

func (g *breakerGenerator) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		done, err := g.cb.Allow()
		if err != nil {
			yield("", fmt.Errorf("%w: %v", ErrUnavailable, err))
			return
		}
		// Cancellation by our own caller says nothing about upstream health.
		success := true
		defer func() { done(success) }()

		for fragment, err := range g.next.Stream(ctx, prompt) {
			if err != nil {
				success = ctx.Err() != nil
				yield("", err)
				return
			}
			if !yield(fragment, nil) {
				return
			}
		}
	}
}

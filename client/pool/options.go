package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/adamwoolhether/httpool/client/validate"
)

// Option is a functional option for configuring a [Pool] via [New].
type Option func(*options) error
type options struct {
	limits        Limits
	unusedTimeout time.Duration
	logger        *slog.Logger
	now           func() time.Time
	rand          *rand.Rand
}

// WithLimits bounds the pool's total and per-destination size.
func WithLimits(l Limits) Option {
	return func(o *options) error {
		if err := validate.Check(l); err != nil {
			return fmt.Errorf("invalid limits: %w", err)
		}
		o.limits = l
		return nil
	}
}

// WithUnusedTimeout enables the idle sweep, closing connections idle for longer than d.
func WithUnusedTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.New("unused timeout must be positive")
		}
		o.unusedTimeout = d
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Pool].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithClock replaces the clock used to stamp and age idle connections.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		o.now = now
		return nil
	}
}

// WithRand sets the source used to choose a destination for total-size eviction.
func WithRand(r *rand.Rand) Option {
	return func(o *options) error {
		if r == nil {
			return errors.New("rand must not be nil")
		}
		o.rand = r
		return nil
	}
}

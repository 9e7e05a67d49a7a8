package throttle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// NewGate returns a Gate admitting rps requests per second with the given
// burst. logFn lazily resolves the logger at wait time, making option
// ordering irrelevant. A nil-returning logFn disables wait logging.
func NewGate(rps, burst int, logFn func() *slog.Logger) (*Gate, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, ErrMustNotBeZero)
	}

	g := &Gate{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		cfg:     Config{RPS: rps, Burst: burst},
		logFn:   logFn,
	}

	return g, nil
}

// Wait blocks until a token is available for a request to dest, or ctx ends.
func (g *Gate) Wait(ctx context.Context, dest string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	var waited time.Duration
	var logger *slog.Logger
	if g.logFn != nil {
		logger = g.logFn()
	}
	if logger != nil && g.limiter.Tokens() < 1 {
		logger.Info("throttle tokens exhausted", "rate", g.cfg.RPS, "burst", g.cfg.Burst, "destination", dest)

		defer func() {
			logger.Info("throttle wait complete", "waited", waited.String(), "destination", dest)
		}()
	}

	start := time.Now()

	err := g.limiter.Wait(ctx)
	waited = time.Since(start)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if err := ctx.Err(); err != nil { // Check context hasn't expired again.
		return fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return nil
}

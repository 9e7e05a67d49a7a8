package throttle

import (
	"errors"
	"log/slog"

	"golang.org/x/time/rate"
)

var (
	// ErrMustNotBeZero rejects a rate or burst below one.
	ErrMustNotBeZero = errors.New("must be greater than zero")
	// ErrWaitingFailed wraps the limiter's refusal, including a wait that
	// would outlast the context deadline.
	ErrWaitingFailed = errors.New("limiter waiting failed")
	// ErrContextEnded is returned when the context ends around the wait.
	ErrContextEnded = errors.New("throttle context ended")
)

// Config is the token bucket of a Gate: RPS tokens are added per second,
// up to Burst.
type Config struct {
	RPS   int
	Burst int
}

// Gate admits requests before they acquire a connection.
// It is safe for concurrent use.
type Gate struct {
	limiter *rate.Limiter
	cfg     Config
	logFn   func() *slog.Logger
}

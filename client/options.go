package client

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/httpool/client/pool"
	"github.com/adamwoolhether/httpool/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	pool              ConnPool
	poolOpts          []pool.Option
	dialer            Dialer
	tlsConfig         *tls.Config
	throttle          *throttle.Config
	timeoutPolicy     TimeoutPolicy
	maxHeaderBytes    int
	handshakeAttempts int
	logger            *slog.Logger
	tracer            trace.Tracer
}

// WithPool replaces the [Client]'s own [pool.Pool] with p.
// The caller remains responsible for closing p.
func WithPool(p ConnPool) Option {
	return func(o *options) error {
		if p == nil {
			return errors.New("pool must not be nil")
		}
		o.pool = p
		return nil
	}
}

// WithPoolOptions configures the pool the [Client] creates for itself.
// It has no effect together with [WithPool].
func WithPoolOptions(opts ...pool.Option) Option {
	return func(o *options) error {
		o.poolOpts = append(o.poolOpts, opts...)
		return nil
	}
}

// WithDialer replaces the default [net.Dialer].
func WithDialer(d Dialer) Option {
	return func(o *options) error {
		if d == nil {
			return errors.New("dialer must not be nil")
		}
		o.dialer = d
		return nil
	}
}

// WithTLSConfig sets the base TLS configuration for secure requests.
// ServerName defaults to the request host when unset.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("tls config must not be nil")
		}
		o.tlsConfig = cfg
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(o *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		o.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithTimeoutPolicy decides whether a timed-out request's connection is
// closed, the default, or abandoned.
func WithTimeoutPolicy(p TimeoutPolicy) Option {
	return func(o *options) error {
		if p != TimeoutClose && p != TimeoutAbandon {
			return fmt.Errorf("unknown timeout policy %d", p)
		}
		o.timeoutPolicy = p
		return nil
	}
}

// WithMaxHeaderBytes caps the size of a response head. The default is 64KB.
func WithMaxHeaderBytes(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return errors.New("max header bytes must be positive")
		}
		o.maxHeaderBytes = n
		return nil
	}
}

// WithHandshakeAttempts bounds how often a stalled TLS handshake is resumed.
func WithHandshakeAttempts(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return errors.New("handshake attempts must be positive")
		}
		o.handshakeAttempts = n
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithTracer sets the tracer that records a span per request.
// A nil tracer leaves the no-op tracer in place.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// RequestOption is a functional option for [NewRequest].
type RequestOption func(*Request) error

// WithBody sets the request body. Content-Length is derived from it.
func WithBody(body []byte) RequestOption {
	return func(r *Request) error {
		r.Body = body
		return nil
	}
}

// WithHeaders adds custom headers to the outgoing request.
func WithHeaders(headers map[string][]string) RequestOption {
	return func(r *Request) error {
		if r.Header == nil {
			r.Header = make(Header, len(headers))
		}
		for k, v := range headers {
			r.Header[k] = append(r.Header[k], v...)
		}
		return nil
	}
}

// WithHeader adds a single header field to the outgoing request.
func WithHeader(name, value string) RequestOption {
	return WithHeaders(map[string][]string{name: {value}})
}

// WithSecure sends the request over TLS.
func WithSecure() RequestOption {
	return func(r *Request) error {
		r.Secure = true
		return nil
	}
}

// WithTimeout bounds the whole exchange.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *Request) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		r.Timeout = d
		return nil
	}
}

// WithPriority tags the request with a priority.
func WithPriority(p int) RequestOption {
	return func(r *Request) error {
		r.Priority = p
		return nil
	}
}

// WithBodyMaxSize truncates the response body to n bytes.
func WithBodyMaxSize(n int64) RequestOption {
	return func(r *Request) error {
		if n < 0 {
			return errors.New("body max size must not be negative")
		}
		r.BodyMaxSize = &n
		return nil
	}
}

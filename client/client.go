package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/httpool/client/pool"
	"github.com/adamwoolhether/httpool/client/throttle"
)

// ConnPool supplies idle connections to the [Client] and takes them back.
// [*pool.Pool] and [pool.Discard] satisfy it.
type ConnPool interface {
	Get(host string, port int) net.Conn
	Put(host string, port int, conn net.Conn)
}

// Client executes HTTP/1.1 requests over pooled connections.
// It is safe for concurrent use.
type Client struct {
	pool      ConnPool
	ownedPool *pool.Pool
	dialer    Dialer
	tlsConfig *tls.Config
	gate      *throttle.Gate

	timeoutPolicy     TimeoutPolicy
	maxHeaderBytes    int
	handshakeAttempts int

	logger *slog.Logger
	tracer trace.Tracer
}

// Build instantiates a Client with the provided options. Unless [WithPool]
// is given, the Client owns a fresh [pool.Pool], released by [Client.Close].
func Build(optFns ...Option) (*Client, error) {
	client := &Client{
		dialer:            defaultDialer(),
		timeoutPolicy:     TimeoutClose,
		maxHeaderBytes:    defaultMaxHeaderBytes,
		handshakeAttempts: defaultHandshakeAttempts,
		logger:            slog.Default(),
		tracer:            noop.NewTracerProvider().Tracer("no-op tracer"),
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.tracer != nil {
		client.tracer = opts.tracer
	}
	if opts.dialer != nil {
		client.dialer = opts.dialer
	}
	if opts.maxHeaderBytes > 0 {
		client.maxHeaderBytes = opts.maxHeaderBytes
	}
	if opts.handshakeAttempts > 0 {
		client.handshakeAttempts = opts.handshakeAttempts
	}
	client.tlsConfig = opts.tlsConfig
	client.timeoutPolicy = opts.timeoutPolicy

	if opts.throttle != nil {
		gate, err := throttle.NewGate(opts.throttle.RPS, opts.throttle.Burst, func() *slog.Logger { return client.logger })
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		client.gate = gate
	}

	switch {
	case opts.pool != nil:
		client.pool = opts.pool
	default:
		poolOpts := append([]pool.Option{pool.WithLogger(client.logger)}, opts.poolOpts...)
		p, err := pool.New(poolOpts...)
		if err != nil {
			return nil, fmt.Errorf("configuring pool: %w", err)
		}
		client.pool = p
		client.ownedPool = p
	}

	return client, nil
}

// Close releases the pool the Client created for itself.
// An injected pool is left to its owner.
func (c *Client) Close() error {
	if c.ownedPool == nil {
		return nil
	}
	return c.ownedPool.Close()
}

// Get executes a GET request for target.
func (c *Client) Get(ctx context.Context, host string, port int, target string, opts ...RequestOption) (*Response, error) {
	req, err := NewRequest(http.MethodGet, host, port, target, opts...)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, req)
}

// Post executes a POST request for target carrying body.
func (c *Client) Post(ctx context.Context, host string, port int, target string, body []byte, opts ...RequestOption) (*Response, error) {
	req, err := NewRequest(http.MethodPost, host, port, target, append([]RequestOption{WithBody(body)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, req)
}

// Execute sends req and reads the complete response.
//
// A connection taken from the pool that fails before any response byte
// arrives is replaced by a fresh one and the request is sent once more.
// After a successful exchange the connection returns to the pool unless
// either side asked to close it, the response was close-delimited or
// HTTP/1.0, or a timeout or body cap applied to the request.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "httpool.execute",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("request_id", requestID),
			attribute.String("http.request.method", req.Method),
			attribute.String("server.address", req.Host),
			attribute.Int("server.port", req.Port),
			attribute.Bool("secure", req.Secure),
			attribute.Int("priority", req.Priority),
		),
	)
	defer span.End()

	log := c.logger.With("request_id", requestID, "host", req.Host, "port", req.Port)

	resp, err := c.execute(ctx, req, log, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Debug("request failed", "method", req.Method, "target", req.Target, "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	log.Debug("request complete", "method", req.Method, "target", req.Target, "status", resp.StatusCode, "priority", req.Priority)

	return resp, nil
}

func (c *Client) execute(ctx context.Context, req Request, log *slog.Logger, span trace.Span) (*Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	if c.gate != nil {
		if err := c.gate.Wait(ctx, net.JoinHostPort(req.Host, strconv.Itoa(req.Port))); err != nil {
			// The limiter fails early when the wait would outlast the deadline.
			if _, ok := ctx.Deadline(); ok && !errors.Is(err, context.Canceled) {
				return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
			}
			return nil, err
		}
	}

	payload := encodeRequest(req)
	bounded := req.Timeout > 0 || req.BodyMaxSize != nil

	raw := c.pool.Get(req.Host, req.Port)
	reused := raw != nil
	for {
		if raw == nil {
			var err error
			if raw, err = c.connect(ctx, req); err != nil {
				return nil, err
			}
		}

		cn := &conn{Conn: raw, reused: reused}
		resp, doClose, err := c.exchange(ctx, cn, req, payload, bounded)
		if err == nil {
			c.release(req, cn, doClose, log)
			return resp, nil
		}

		if ctx.Err() != nil {
			err = contextErr(ctx)
			if c.timeoutPolicy == TimeoutAbandon && errors.Is(err, ErrTimeout) {
				log.Debug("abandoning connection of timed out request")
			} else {
				cn.dispose(log)
			}
			return nil, err
		}

		cn.dispose(log)

		var rerr *reuseError
		if !errors.As(err, &rerr) {
			return nil, err
		}

		log.Warn("error when reusing connection, trying again", "error", rerr.err)
		span.AddEvent("retry", trace.WithAttributes(attribute.String("error", rerr.err.Error())))
		raw, reused = nil, false
	}
}

// exchange runs one send/receive cycle on cn. It reports whether the
// connection must be closed rather than pooled.
func (c *Client) exchange(ctx context.Context, cn *conn, req Request, payload []byte, bounded bool) (resp *Response, doClose bool, err error) {
	stop := context.AfterFunc(ctx, func() { _ = cn.SetDeadline(aLongTimeAgo) })
	defer func() {
		if !stop() {
			doClose = true
		}
	}()

	defer func() {
		if err != nil && cn.reused && !cn.received {
			err = &reuseError{err: err}
		}
	}()

	if err := cn.writeAll(payload); err != nil {
		return nil, false, err
	}

	f := &feeder{conn: cn, buf: make([]byte, readSize)}
	head, err := readHead(f, c.maxHeaderBytes)
	if err != nil {
		return nil, false, err
	}

	plan, err := selectBody(bodyInput{
		method:    req.Method,
		reqHeader: req.Header,
		head:      head,
		bounded:   bounded,
	})
	if err != nil {
		return nil, false, err
	}

	body, trailers, err := readBody(f, plan, req.BodyMaxSize)
	if err != nil {
		return nil, false, err
	}

	resp = &Response{
		ResponseHead: head,
		Body:         body,
		Trailers:     trailers,
	}

	return resp, plan.doClose, nil
}

// release hands a connection back to the pool, or closes it.
func (c *Client) release(req Request, cn *conn, doClose bool, log *slog.Logger) {
	if doClose {
		cn.dispose(log)
		return
	}
	c.pool.Put(req.Host, req.Port, cn.Conn)
}

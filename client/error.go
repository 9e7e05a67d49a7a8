package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/adamwoolhether/httpool/client/chunked"
)

var (
	// ErrUnsupportedMethod is returned for CONNECT requests, before any I/O.
	ErrUnsupportedMethod = errors.New("unsupported method")
	// ErrConnect is the sentinel wrapped by [ConnectError].
	ErrConnect = errors.New("connect failed")
	// ErrHandshakeFailed is returned when the TLS handshake fails or does
	// not complete within the attempt bound.
	ErrHandshakeFailed = errors.New("tls handshake failed")
	// ErrTimeout is returned when the request's deadline passes. It is
	// joined with [context.DeadlineExceeded].
	ErrTimeout = errors.New("request timed out")
	// ErrProtocol is the sentinel wrapped by [ProtocolError].
	ErrProtocol = errors.New("protocol violation")
)

// Causes carried by a [ProtocolError].
var (
	Err1XXReceived          = errors.New("1XX status code received")
	ErrBodyNotEmpty         = errors.New("body not empty")
	ErrExcessBytes          = errors.New("excess bytes (> Content-Length) read")
	ErrPrematureClose       = errors.New("premature close")
	ErrMalformedHead        = errors.New("malformed response head")
	ErrHeadTooLarge         = errors.New("response head too large")
	ErrInvalidContentLength = errors.New("invalid Content-Length")

	ErrDataAfterLastChunk = chunked.ErrDataAfterLastChunk
	ErrMalformedChunk     = chunked.ErrMalformedChunk
)

// ProtocolError is returned when the peer violates HTTP/1.1 framing.
// errors.Is matches both [ErrProtocol] and the cause.
type ProtocolError struct {
	Cause error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%v: %v", ErrProtocol, e.Cause)
}

func (e *ProtocolError) Unwrap() []error {
	return []error{ErrProtocol, e.Cause}
}

func protocolErr(cause error) error {
	return &ProtocolError{Cause: cause}
}

// ConnectError is returned when a new connection cannot be established,
// whether name resolution, dialing, or the peer refused it.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("%v to %s: %v", ErrConnect, e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() []error {
	return []error{ErrConnect, e.Err}
}

// reuseError marks a failure on a pooled connection before any response
// byte arrived. It triggers the single retry and is never returned.
type reuseError struct {
	err error
}

func (e *reuseError) Error() string {
	return "reusing connection: " + e.err.Error()
}

func (e *reuseError) Unwrap() error {
	return e.err
}

// contextErr maps a done context to the error Execute reports.
func contextErr(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// A handshaker returns errWantRead or errWantWrite when the handshake
// cannot progress until the socket is readable or writable.
var (
	errWantRead  = errors.New("handshake wants read")
	errWantWrite = errors.New("handshake wants write")
)

type handshaker interface {
	HandshakeContext(ctx context.Context) error
}

type readiness interface {
	waitReadable() error
	waitWritable() error
}

// driveHandshake runs hs to completion, waiting on ready whenever the
// handshake needs the socket, and gives up after attempts tries.
func driveHandshake(ctx context.Context, hs handshaker, ready readiness, attempts int) error {
	for range attempts {
		err := hs.HandshakeContext(ctx)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, errWantRead):
			if err := ready.waitReadable(); err != nil {
				return err
			}
		case errors.Is(err, errWantWrite):
			if err := ready.waitWritable(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
		}
	}

	return fmt.Errorf("%w: no progress after %d attempts", ErrHandshakeFailed, attempts)
}

// poller waits for socket readiness through the runtime network poller.
type poller struct {
	rc syscall.RawConn
}

func readinessOf(c net.Conn) readiness {
	sc, ok := c.(syscall.Conn)
	if !ok {
		return noWait{}
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return noWait{}
	}
	return poller{rc: rc}
}

func (p poller) waitReadable() error {
	return p.rc.Read(once())
}

func (p poller) waitWritable() error {
	return p.rc.Write(once())
}

// once reports not-ready on its first call, so RawConn parks the goroutine
// until the poller signals readiness, and ready afterwards.
func once() func(uintptr) bool {
	waited := false
	return func(uintptr) bool {
		if waited {
			return true
		}
		waited = true
		return false
	}
}

type noWait struct{}

func (noWait) waitReadable() error { return nil }
func (noWait) waitWritable() error { return nil }

// tlsConfigFor returns the configuration used to secure a connection to host.
func tlsConfigFor(base *tls.Config, host string) *tls.Config {
	var cfg *tls.Config
	if base != nil {
		cfg = base.Clone()
	} else {
		cfg = &tls.Config{}
	}

	if cfg.ServerName == "" {
		cfg.ServerName = host
	}
	if len(cfg.NextProtos) == 0 {
		cfg.NextProtos = []string{"http/1.1"}
	}

	return cfg
}

package pool

import (
	"errors"
	"log/slog"
	"net"
)

// Discard is a pool that never keeps a connection: Get always misses and
// Put closes what it is given. A nil Logger logs to [slog.Default].
type Discard struct {
	Logger *slog.Logger
}

// Get always returns nil.
func (Discard) Get(string, int) net.Conn {
	return nil
}

// Put shuts down and closes conn.
func (d Discard) Put(_ string, _ int, conn net.Conn) {
	if conn == nil {
		return
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	Dispose(conn, logger)
}

// Shutdown half-closes both directions of conn when the connection
// supports it. TLS connections send close_notify.
func Shutdown(conn net.Conn) error {
	switch c := conn.(type) {
	case interface {
		CloseRead() error
		CloseWrite() error
	}:
		return errors.Join(c.CloseRead(), c.CloseWrite())
	case interface{ CloseWrite() error }:
		return c.CloseWrite()
	}

	return nil
}

// Dispose shuts conn down and closes it. A failed shutdown never
// prevents the close. Failures are logged, not returned.
func Dispose(conn net.Conn, logger *slog.Logger) {
	if err := Shutdown(conn); err != nil {
		logger.Debug("shutdown failed, closing anyway", "error", err)
	}

	if err := conn.Close(); err != nil {
		logger.Error("failed to close connection", "error", err)
	}
}

package client

import (
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/adamwoolhether/httpool/client/pool"
)

// aLongTimeAgo is a deadline in the past, used to interrupt blocked I/O.
var aLongTimeAgo = time.Unix(1, 0)

// conn is a connection in use by one Execute attempt.
type conn struct {
	net.Conn

	// reused is set when the connection came from the pool.
	reused bool
	// received latches on the first non-empty read of the attempt.
	received bool

	shut   bool
	closed bool
}

func (c *conn) read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if n > 0 {
		c.received = true
	}
	return n, err
}

func (c *conn) writeAll(p []byte) error {
	for len(p) > 0 {
		n, err := c.Conn.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

// dispose shuts the connection down and closes it, each at most once.
// Failures are logged and never returned.
func (c *conn) dispose(logger *slog.Logger) {
	if !c.shut {
		c.shut = true
		if err := pool.Shutdown(c.Conn); err != nil {
			logger.Debug("shutdown failed, closing anyway", "error", err)
		}
	}

	if !c.closed {
		c.closed = true
		if err := c.Conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// feeder hands out the bytes read past the response head first, then
// successive reads from the connection.
type feeder struct {
	conn *conn
	buf  []byte
	rest []byte
	err  error
}

func (f *feeder) pending() bool {
	return len(f.rest) > 0
}

// next returns the next non-empty run of bytes. The returned slice is only
// valid until the following call.
func (f *feeder) next() ([]byte, error) {
	if len(f.rest) > 0 {
		p := f.rest
		f.rest = nil
		return p, nil
	}

	for f.err == nil {
		n, err := f.conn.read(f.buf)
		f.err = err
		if n > 0 {
			return f.buf[:n], nil
		}
	}

	return nil, f.err
}

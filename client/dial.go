package client

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"
)

// Dialer opens the connections the [Client] cannot take from its pool.
// [*net.Dialer] satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

func defaultDialer() *net.Dialer {
	return &net.Dialer{
		KeepAliveConfig: net.KeepAliveConfig{
			Enable:   true,
			Idle:     10 * time.Minute,
			Interval: 75 * time.Second,
			Count:    9,
		},
	}
}

// connect opens a fresh connection for req, securing it when requested.
func (c *Client) connect(ctx context.Context, req Request) (net.Conn, error) {
	addr := net.JoinHostPort(req.Host, strconv.Itoa(req.Port))

	raw, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, contextErr(ctx)
		}
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	if !req.Secure {
		return raw, nil
	}

	tc := tls.Client(raw, tlsConfigFor(c.tlsConfig, req.Host))

	stop := context.AfterFunc(ctx, func() { _ = raw.SetDeadline(aLongTimeAgo) })
	err = driveHandshake(ctx, tc, readinessOf(raw), c.handshakeAttempts)
	stop()

	if err == nil && ctx.Err() == nil {
		return tc, nil
	}

	if cerr := raw.Close(); cerr != nil {
		c.logger.Error("failed to close connection after handshake", "error", cerr)
	}
	if ctx.Err() != nil {
		return nil, contextErr(ctx)
	}

	return nil, err
}

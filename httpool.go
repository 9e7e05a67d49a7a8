// Package httpool is a pooled HTTP/1.1 client engine.
//
// It executes requests over connections kept alive in a per-destination
// pool, with TLS, timeouts, response body caps, and a single transparent
// retry when a reused connection turns out to be stale. See the client
// package for the full API.
package httpool

import (
	"github.com/adamwoolhether/httpool/client"
	"github.com/adamwoolhether/httpool/client/pool"
)

// NewClient instantiates a new *client.Client with the provided options.
// If no pool is given, the client creates and owns one.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}

// NewPool instantiates a connection pool that can be shared between
// clients through client.WithPool.
func NewPool(opts ...pool.Option) (*pool.Pool, error) {
	return pool.New(opts...)
}

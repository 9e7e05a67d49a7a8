// Package pool keeps idle, reusable connections keyed by destination.
//
// # Reuse order
//
// Each (host, port) destination owns a stack: [Pool.Get] returns the most
// recently returned connection, so the warmest connection is reused first.
//
// # Limits
//
// [Limits] bounds the pool. When a destination already holds
// DestinationSize idle connections, [Pool.Put] closes that destination's
// oldest one. When the pool as a whole holds TotalSize, it closes the newest
// connection of a randomly chosen destination.
//
//	p, err := pool.New(
//		pool.WithLimits(pool.Limits{TotalSize: 64, DestinationSize: 8}),
//		pool.WithUnusedTimeout(90*time.Second),
//	)
//	defer p.Close()
//
// # Idle eviction
//
// With [WithUnusedTimeout], a background sweep closes connections that have
// sat in the pool for longer than the timeout. Checked-out connections are
// never touched.
//
// [Discard] satisfies the same contract but never keeps anything.
package pool

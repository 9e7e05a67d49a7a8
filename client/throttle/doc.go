// Package throttle provides a [Gate] that rate-limits outbound requests
// using a token-bucket algorithm from [golang.org/x/time/rate].
//
// # Usage
//
//	g, err := throttle.NewGate(
//		10, // requests per second
//		5,  // burst capacity
//		func() *slog.Logger { return slog.Default() },
//	)
//	if err := g.Wait(ctx, "example.com:443"); err != nil { ... }
//
// When the rate limit is exceeded, Wait blocks until a token becomes
// available or the context is cancelled.
package throttle

// Package client implements a pooled HTTP/1.1 client engine that speaks
// the protocol directly over TCP and TLS connections.
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithPoolOptions(pool.WithLimits(pool.Limits{DestinationSize: 8})),
//		client.WithThrottle(50, 10),
//	)
//	defer c.Close()
//
// The same settings can come from a TOML file through the config package:
//
//	cfg, err := config.Load("/etc/httpool.toml")
//	c, err := client.Build(cfg.Options()...)
//
// # Making Requests
//
// Construct a [Request] with [NewRequest], then execute it:
//
//	req, err := client.NewRequest(http.MethodGet, "api.example.com", 443, "/v1/resource",
//		client.WithSecure(),
//		client.WithTimeout(5*time.Second),
//	)
//	resp, err := c.Execute(ctx, req)
//
// [Client.Get] and [Client.Post] cover the common cases.
//
// # Connection reuse
//
// Connections are taken from and returned to a [ConnPool], by default a
// [github.com/adamwoolhether/httpool/client/pool.Pool] owned by the Client.
// A pooled connection the peer closed while idle fails before any byte of
// the response arrives; such a request is sent once more on a fresh
// connection. Fresh connections are never retried.
//
// # Response bodies
//
// The body is framed by, in order: a status or method that forbids a body,
// a final chunked transfer coding, Content-Length, or the connection close.
// [WithBodyMaxSize] truncates the body and stops reading at the cap.
//
// # Errors
//
// Framing violations are reported as [*ProtocolError]; match the cause with
// errors.Is, for example [ErrPrematureClose]. Dial failures are
// [*ConnectError]. An expired deadline is [ErrTimeout].
package client

// Package jsonclient provides a single-shot JSON request executor for
// unreliable remote services.
//
// An Executor performs exactly one HTTP round trip per call: it normalizes
// the connection descriptor (headers, basic auth, timeout), races the
// transport against a wall-clock timer, classifies the response, parses the
// JSON payload, and optionally applies a result transform. Each call settles
// exactly once; a late transport completion after a timeout is discarded.
//
// # Quick Start
//
//	executor := jsonclient.New(
//	    jsonclient.WithServiceName("chain-indexer"),
//	)
//
//	conn := jsonclient.NewConnection("https://api.example.com/head")
//	payload, err := executor.Execute(ctx, conn, nil, nil)
//
// # Authenticated Connections
//
//	conn := &jsonclient.Connection{
//	    URL:      "https://api.example.com/head",
//	    User:     "reader",
//	    Password: "secret",
//	    Timeout:  10 * time.Second,
//	}
//
// Credentials over plain http are rejected with a fault.Security error
// unless AllowInsecureAuth is set.
//
// # Conditional Requests
//
// Supplying an If-None-Match or If-Modified-Since header makes a 304
// response resolve to a nil "no update" payload instead of an error:
//
//	conn.Headers = map[string]any{"If-None-Match": etag}
//
// # Resilience Wrappers
//
// The transport capability can be wrapped with a circuit breaker and with
// in-flight request coalescing:
//
//	executor := jsonclient.New(
//	    jsonclient.WithBreaker(jsonclient.BreakerConfig{ConsecutiveFailures: 5}),
//	    jsonclient.WithCoalescing(),
//	)
//
// There is no retry inside the executor; retrying is the poll package's job,
// applied to whatever probe the caller builds on top of Execute.
package jsonclient

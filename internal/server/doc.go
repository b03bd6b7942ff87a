// Package server provides HTTP routing, middleware, and the HTTP server for the yard web interface.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers; [Chain] and [Mux.Use] apply them in registration order (first added is outermost).
//
// The [Mux] implementation uses chi internally, so method mismatches answer 405 and unknown paths 404.
//
// # Middleware
//
// [Defaults] provides request ids, real client addresses, panic recovery, and a per-request timeout.
// [RequestLogger] emits one structured line per request. [RateLimit] and [CORS] return nil when disabled,
// which [Mux.Use] and [Chain] skip.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface and return their routes, allowing a handler to register
// multiple endpoints and keep route definitions within the implementation.
//
// # Serving
//
// [HTTPServer] serves until its context is cancelled and then drains in-flight requests before returning.
package server

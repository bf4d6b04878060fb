// Package transport defines the request pipeline abstraction for the
// inference client. A Handler processes one normalized inference request;
// Middleware wraps handlers to layer cross-cutting behavior such as retry,
// concurrency limiting, caching, and logging around the core HTTP call.
package transport

import "context"

// Handler processes inference requests through a composable middleware
// pipeline. Implementations must be safe for concurrent use: many judgment
// tasks share a single assembled pipeline.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, *Request) (*Response, error)

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware transforms a Handler into an enhanced Handler.
type Middleware func(Handler) Handler

// Chain builds a middleware pipeline around a core handler. Middleware
// executes in the order provided, first middleware outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

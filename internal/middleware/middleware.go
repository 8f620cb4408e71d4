// Package middleware provides HTTP middleware for the API routes:
// security headers, CORS, request IDs, and rate limiting.
package middleware

import "net/http"

// Middleware wraps an http.HandlerFunc with additional behavior.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// Chain composes middlewares into one. The first argument is the
// outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

// requestIDHeader carries the per-request correlation ID.
const requestIDHeader = "X-Request-ID"

// RequestID returns a middleware that tags each response with a random
// request ID, preserving one supplied by the client.
func RequestID() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = newRequestID()
			}
			w.Header().Set(requestIDHeader, id)
			next(w, r)
		}
	}
}

func newRequestID() string {
	b := make([]byte, 8)
	rand.Read(b) // cannot fail since Go 1.24
	return hex.EncodeToString(b)
}

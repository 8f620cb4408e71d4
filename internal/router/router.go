// Package router provides centralized API route registration.
// All HTTP routes are registered here with the shared middleware chain
// applied; login endpoints additionally get a rate limiter.
package router

import (
	"net/http"
	"time"

	"slideflow/internal/handler"
	"slideflow/internal/middleware"
)

// Register registers all API routes to http.DefaultServeMux.
// Returns a cleanup function that should be called on shutdown to stop
// background goroutines.
func Register(app *handler.App) func() {
	// Secure API chain: SecurityHeaders + CORS + RequestID
	secureAPI := middleware.Chain(
		middleware.SecurityHeaders(),
		middleware.CORS(),
		middleware.RequestID(),
	)

	// Auth rate limiter: 10 attempts per minute per IP
	authRL := middleware.NewRateLimiter(10, 1*time.Minute)
	rateLimit := authRL.Limit()

	secure := func(h http.HandlerFunc) http.HandlerFunc {
		return secureAPI(h)
	}
	secureRL := func(h http.HandlerFunc) http.HandlerFunc {
		return secureAPI(rateLimit(h))
	}

	// ── Admin login ──
	http.HandleFunc("/api/admin/login", secureRL(handler.HandleAdminLogin(app)))
	http.HandleFunc("/api/admin/setup", secureRL(handler.HandleAdminSetup(app)))
	http.HandleFunc("/api/admin/status", secure(handler.HandleAdminStatus(app)))
	http.HandleFunc("/api/admin/logout", secure(handler.HandleAdminLogout(app)))

	// ── Presentations ──
	http.HandleFunc("/api/presentations/import", secure(handler.HandleImport(app)))
	http.HandleFunc("/api/presentations/upload", secure(handler.HandleUpload(app)))
	http.HandleFunc("/api/presentations/", secure(handler.HandlePresentationByID(app)))
	http.HandleFunc("/api/presentations", secure(handler.HandlePresentations(app)))

	// ── Health check ──
	http.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			handler.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		handler.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return func() {
		authRL.Stop()
	}
}

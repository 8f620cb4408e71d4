// Package handler provides the HTTP API facade for the slide editor
// backend, delegating to the importer, outline, preview, and storage
// components.
package handler

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"slideflow/internal/auth"
	"slideflow/internal/config"
	"slideflow/internal/db"
	"slideflow/internal/preview"
)

// App binds the backend services behind the API handlers.
type App struct {
	db             *sql.DB
	store          *db.PresentationStore
	sessionManager *auth.SessionManager
	configManager  *config.ConfigManager
	loginLimiter   *auth.LoginLimiter
	renderer       *preview.Renderer
}

// NewApp creates a new App with all service dependencies injected.
func NewApp(
	database *sql.DB,
	store *db.PresentationStore,
	sm *auth.SessionManager,
	cm *config.ConfigManager,
	renderer *preview.Renderer,
) *App {
	return &App{
		db:             database,
		store:          store,
		sessionManager: sm,
		configManager:  cm,
		loginLimiter:   auth.NewLoginLimiter(),
		renderer:       renderer,
	}
}

// SessionManager returns the session manager for testing purposes.
func (a *App) SessionManager() *auth.SessionManager {
	return a.sessionManager
}

// AdminLoginResponse contains the session created after admin login.
type AdminLoginResponse struct {
	Session *auth.Session `json:"session"`
}

// IsAdminConfigured returns whether the admin password has been set up.
func (a *App) IsAdminConfigured() bool {
	cfg := a.configManager.Get()
	return cfg != nil && cfg.Admin.Username != "" && cfg.Admin.PasswordHash != ""
}

// AdminSetup sets the admin username and password for the first time.
// Returns an error if admin is already configured.
func (a *App) AdminSetup(username, password string) (*AdminLoginResponse, error) {
	if a.IsAdminConfigured() {
		return nil, fmt.Errorf("admin account already configured")
	}
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	if len(username) < 3 || len(username) > 64 {
		return nil, fmt.Errorf("username must be 3-64 characters")
	}
	for _, c := range username {
		if c < 0x20 || c == '"' || c == '\'' || c == '\\' || c == '<' || c == '>' {
			return nil, fmt.Errorf("username contains invalid characters")
		}
	}
	if msg := ValidatePassword(password); msg != "" {
		return nil, fmt.Errorf("%s", msg)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	err = a.configManager.Update(map[string]interface{}{
		"admin.username":      username,
		"admin.password_hash": hash,
	})
	if err != nil {
		return nil, err
	}

	session, err := a.sessionManager.CreateSession("admin")
	if err != nil {
		return nil, err
	}
	return &AdminLoginResponse{Session: session}, nil
}

// AdminLogin verifies the admin username and password and creates a
// session. Enforces the login lockout on repeated failures.
func (a *App) AdminLogin(username, password, ip string) (*AdminLoginResponse, error) {
	if err := a.loginLimiter.CheckAllowed(username); err != nil {
		return nil, err
	}

	cfg := a.configManager.Get()
	if cfg == nil || cfg.Admin.PasswordHash == "" {
		return nil, fmt.Errorf("admin account not configured")
	}
	if username != cfg.Admin.Username || !auth.VerifyPassword(cfg.Admin.PasswordHash, password) {
		a.loginLimiter.RecordAttempt(username, false)
		log.Printf("[Auth] failed admin login attempt: username=%q ip=%s", username, ip)
		return nil, fmt.Errorf("invalid username or password")
	}
	a.loginLimiter.RecordAttempt(username, true)
	log.Printf("[Auth] successful admin login: username=%q ip=%s", username, ip)

	session, err := a.sessionManager.CreateSession("admin")
	if err != nil {
		return nil, err
	}
	return &AdminLoginResponse{Session: session}, nil
}

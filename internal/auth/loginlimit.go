package auth

import (
	"fmt"
	"sync"
	"time"
)

// Lockout policy for admin login.
const (
	maxConsecutiveFailures = 10
	lockoutDuration        = 15 * time.Minute
)

// LoginLimiter tracks failed admin login attempts per username and locks
// an account after too many consecutive failures. State is in memory; a
// restart clears it, which is acceptable for a single-admin deployment.
type LoginLimiter struct {
	mu       sync.Mutex
	failures map[string]int
	lockedAt map[string]time.Time
}

// NewLoginLimiter creates an empty LoginLimiter.
func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{
		failures: make(map[string]int),
		lockedAt: make(map[string]time.Time),
	}
}

// CheckAllowed returns nil if a login attempt is allowed, or an error
// describing the remaining lockout.
func (ll *LoginLimiter) CheckAllowed(username string) error {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	locked, ok := ll.lockedAt[username]
	if !ok {
		return nil
	}
	remaining := lockoutDuration - time.Since(locked)
	if remaining <= 0 {
		delete(ll.lockedAt, username)
		delete(ll.failures, username)
		return nil
	}
	mins := int(remaining.Minutes()) + 1
	return fmt.Errorf("too many failed attempts, try again in %d minutes", mins)
}

// RecordAttempt records the outcome of a login attempt. A success resets
// the failure counter; the failure that crosses the threshold starts the
// lockout window.
func (ll *LoginLimiter) RecordAttempt(username string, success bool) {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if success {
		delete(ll.failures, username)
		delete(ll.lockedAt, username)
		return
	}
	ll.failures[username]++
	if ll.failures[username] >= maxConsecutiveFailures {
		if _, locked := ll.lockedAt[username]; !locked {
			ll.lockedAt[username] = time.Now()
		}
	}
}

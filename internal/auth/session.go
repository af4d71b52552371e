package auth

import "time"

// SessionData represents the authenticated session context for a request
type SessionData struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

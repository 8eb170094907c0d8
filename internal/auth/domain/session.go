package domain

import "time"

// Session is a database-backed login session. Only the SHA-256 fingerprint
// of the opaque bearer token is persisted. Pending2FA starts true when the
// user must still present a second factor and flips to false exactly once.
type Session struct {
	TokenHash  string
	UserID     string
	Pending2FA bool
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Expired reports whether the session is past its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

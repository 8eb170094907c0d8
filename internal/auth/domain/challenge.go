package domain

import "time"

// OTPChallenge is an outstanding emailed one-time-passcode challenge.
// The table is keyed by UserID, so at most one challenge exists per user;
// re-issuing overwrites (and thereby invalidates) the previous code.
type OTPChallenge struct {
	UserID    string
	CodeHash  string // argon2id of the 6-digit code
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the challenge is past its expiry at the given time.
func (c OTPChallenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

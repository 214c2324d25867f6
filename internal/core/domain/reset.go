package domain

import "time"

// ResetTokenTTL is the absolute lifetime of a password-reset entry. Expiry is
// checked when the token is consumed, not by a background sweep.
const ResetTokenTTL = 15 * time.Minute

// PasswordResetEntry is a single-use, time-limited token record enabling a
// password change without a prior session. At most one live entry exists per
// email; a newer request supersedes the old one.
type PasswordResetEntry struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is past its lifetime at the given instant.
func (e *PasswordResetEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

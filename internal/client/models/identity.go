package models

import "time"

// Identity is the best-effort view of who the stored credential belongs to.
// It is decoded without verification and used for display only.
type Identity struct {
	Subject   string
	UserID    int64
	ExpiresAt time.Time
}

// Expired reports whether the token carried an expiry that is already past.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Registration is what the server tells us about a freshly created account.
// Both fields may be empty; the response is treated as opaque.
type Registration struct {
	UserID  int64
	Message string
}

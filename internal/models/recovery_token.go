package models

import (
	"time"
)

// RecoveryToken is a single-use password recovery credential bound to an email.
// Tokens are never deleted; consumed and superseded tokens keep UsedAt as an audit trail.
type RecoveryToken struct {
	ID        int64
	Email     string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// IsExpiredAt reports whether the token has expired at the given instant.
// A token is expired from its expiration instant onward.
func (t *RecoveryToken) IsExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsUsed checks if the token has been consumed or invalidated
func (t *RecoveryToken) IsUsed() bool {
	return t.UsedAt != nil
}

// IsValidAt checks if the token can still be consumed at the given instant
func (t *RecoveryToken) IsValidAt(now time.Time) bool {
	return !t.IsUsed() && !t.IsExpiredAt(now)
}

// MarkUsed stamps the token as used. Already used tokens keep their original timestamp.
func (t *RecoveryToken) MarkUsed(now time.Time) {
	if t.UsedAt != nil {
		return
	}
	used := now
	t.UsedAt = &used
}

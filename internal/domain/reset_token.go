package domain

import "time"

// PasswordResetToken is a single-use secret allowing one password change.
// Used never goes back to false once set.
type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
	Used      bool
}

// IsValid reports whether the token can still be consumed at now. The
// expiry instant itself is still valid.
func (t *PasswordResetToken) IsValid(now time.Time) bool {
	return !t.Used && !now.After(t.ExpiresAt)
}

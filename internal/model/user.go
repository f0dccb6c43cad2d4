package model

import "time"

// Principal represents an identity record as stored in the `users` table.
// Each field corresponds to a column in the database. Nullable columns are
// pointers. The json tags describe the public projection returned by the
// API; secret fields are never serialized.
//
// Fields:
//
//	ID             – opaque UUID identifier.
//	Email          – unique email address (null for social-only accounts).
//	Name           – display name.
//	PasswordHash   – bcrypt hash; null when the account has no password.
//	ResetTokenHash – SHA-256 hex of the pending reset token.
//	ResetExpires   – expiry of the pending reset token.
//	Provider       – external identity provider, if any.
//	SocialID       – account id at the provider (unique).
//	IsActive       – inactive principals cannot authenticate.
//	CreatedAt      – timestamp of creation.
type Principal struct {
	ID             string     `json:"id"`
	Email          *string    `json:"email,omitempty"`
	Name           *string    `json:"name,omitempty"`
	PasswordHash   *string    `json:"-"`
	ResetTokenHash *string    `json:"-"`
	ResetExpires   *time.Time `json:"-"`
	Provider       *string    `json:"provider,omitempty"`
	SocialID       *string    `json:"-"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Sanitized returns a copy without the password hash or reset fields.
func (p Principal) Sanitized() Principal {
	p.PasswordHash = nil
	p.ResetTokenHash = nil
	p.ResetExpires = nil
	return p
}

// HasPendingReset reports whether a reset token exists and is still usable
// at the given instant. An expired pair is treated as absent.
func (p Principal) HasPendingReset(now time.Time) bool {
	return p.ResetTokenHash != nil && p.ResetExpires != nil && p.ResetExpires.After(now)
}

// EmailValue returns the email or "" when unset.
func (p Principal) EmailValue() string {
	if p.Email == nil {
		return ""
	}
	return *p.Email
}

// NameValue returns the display name or "" when unset.
func (p Principal) NameValue() string {
	if p.Name == nil {
		return ""
	}
	return *p.Name
}

// StrPtr returns a pointer to s, or nil when s is empty.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

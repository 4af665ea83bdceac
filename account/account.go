package account

import (
	"strings"
	"time"
)

// Account is the persisted credential record. PasswordHash, RefreshToken and
// Reset are secrets and must never leave the process; use Public for any
// caller-facing view.
type Account struct {
	ID           string
	Username     string
	Email        string
	DisplayName  string
	PasswordHash string

	// RefreshToken is the single active refresh token. Empty means logged out.
	RefreshToken string

	// Reset is the pending password reset, nil when none is outstanding.
	Reset *ResetToken

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResetToken is the stored half of a password reset secret. Hash and
// ExpiresAt are always written and cleared together.
type ResetToken struct {
	Hash      string
	ExpiresAt time.Time
}

// Valid reports whether the reset token is set and unexpired at now.
func (r *ResetToken) Valid(now time.Time) bool {
	return r != nil && r.Hash != "" && now.Before(r.ExpiresAt)
}

// LoggedIn reports whether the account holds an active refresh token.
func (a *Account) LoggedIn() bool {
	return a.RefreshToken != ""
}

// Public is the caller-facing account view.
type Public struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Public strips every secret field from a.
func (a *Account) Public() Public {
	return Public{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// NormalizeUsername trims and lowercases a username.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeIdentifier prepares a login identifier, which may be either a
// username or an email, for lookup.
func NormalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

package account

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by lookups that match no account.
	ErrNotFound = errors.New("account not found")
	// ErrExists is returned by Create when the username or email is taken.
	ErrExists = errors.New("account with username or email already exists")
	// ErrRefreshMismatch is returned by SwapRefreshToken when the stored
	// token no longer equals the presented one.
	ErrRefreshMismatch = errors.New("stored refresh token does not match")
	// ErrResetMismatch is returned by ConsumeResetToken when the reset token
	// was already consumed, replaced, or has expired.
	ErrResetMismatch = errors.New("stored reset token does not match")
)

// Store persists accounts. Implementations must make SwapRefreshToken and
// ConsumeResetToken atomic per account; all other writes are last-writer-wins.
type Store interface {
	// Create inserts a new account. Username and email are unique.
	Create(ctx context.Context, acct Account) error

	FindByID(ctx context.Context, id string) (Account, error)
	// FindByIdentifier matches identifier against username OR email.
	FindByIdentifier(ctx context.Context, identifier string) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	// FindByResetToken returns the account whose reset hash equals hash and
	// whose reset expiry is after now.
	FindByResetToken(ctx context.Context, hash string, now time.Time) (Account, error)

	// SetRefreshToken unconditionally stores token as the active refresh token.
	SetRefreshToken(ctx context.Context, id, token string) error
	// SwapRefreshToken replaces presented with next only if presented is still
	// the stored value.
	SwapRefreshToken(ctx context.Context, id, presented, next string) error
	// ClearRefreshToken removes the active refresh token. Missing accounts and
	// already-cleared tokens are not errors.
	ClearRefreshToken(ctx context.Context, id string) error

	UpdatePasswordHash(ctx context.Context, id, hash string) error

	SetResetToken(ctx context.Context, id string, reset ResetToken) error
	ClearResetToken(ctx context.Context, id string) error
	// ConsumeResetToken sets passwordHash and clears the reset fields only if
	// the stored reset hash still equals hash and has not expired at now.
	ConsumeResetToken(ctx context.Context, id, hash, passwordHash string, now time.Time) error
}

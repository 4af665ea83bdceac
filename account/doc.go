// Package account defines the persisted credential record, its caller-facing
// view, input validation, and the Store contract every backend implements.
//
// # Invariants
//
//   - PasswordHash is never empty once an account exists.
//   - RefreshToken is either empty (logged out) or the most recently issued token.
//   - Reset is nil or carries both a hash and an expiry.
//
// Store implementations live under store/.
package account

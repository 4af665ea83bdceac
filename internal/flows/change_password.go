package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/mediauth/account"
)

// ChangePasswordFailureKind classifies password change failures.
type ChangePasswordFailureKind int

const (
	ChangePasswordFailureNone ChangePasswordFailureKind = iota
	ChangePasswordFailureInvalid
	ChangePasswordFailurePolicy
	ChangePasswordFailureNotFound
	ChangePasswordFailureCredentials
	ChangePasswordFailureHash
	ChangePasswordFailureStore
)

// ChangePasswordResult reports failure metadata and whether the active
// refresh token was revoked.
type ChangePasswordResult struct {
	Failure ChangePasswordFailureKind
	Err     error
	Revoked bool
}

type ChangePasswordStore interface {
	FindByID(ctx context.Context, id string) (account.Account, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	ClearRefreshToken(ctx context.Context, id string) error
}

// ChangePasswordDeps captures password change dependencies.
type ChangePasswordDeps struct {
	Store          ChangePasswordStore
	Hasher         PasswordHasher
	CheckPassword  func(string) error
	RevokeSessions bool
	Warn           func(string, ...any)
}

// RunChangePassword verifies oldPassword and stores a fresh hash of
// newPassword. The refresh token is left untouched unless RevokeSessions.
func RunChangePassword(ctx context.Context, accountID, oldPassword, newPassword string, deps ChangePasswordDeps) ChangePasswordResult {
	if accountID == "" || oldPassword == "" || newPassword == "" {
		return ChangePasswordResult{Failure: ChangePasswordFailureInvalid}
	}
	if deps.CheckPassword != nil {
		if err := deps.CheckPassword(newPassword); err != nil {
			return ChangePasswordResult{Failure: ChangePasswordFailurePolicy, Err: err}
		}
	}

	acct, err := deps.Store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ChangePasswordResult{Failure: ChangePasswordFailureNotFound, Err: err}
		}
		return ChangePasswordResult{Failure: ChangePasswordFailureStore, Err: err}
	}

	if !deps.Hasher.Verify(oldPassword, acct.PasswordHash) {
		return ChangePasswordResult{Failure: ChangePasswordFailureCredentials}
	}

	hash, err := deps.Hasher.Hash(newPassword)
	if err != nil {
		return ChangePasswordResult{Failure: ChangePasswordFailureHash, Err: fmt.Errorf("hash password: %w", err)}
	}
	if err := deps.Store.UpdatePasswordHash(ctx, acct.ID, hash); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ChangePasswordResult{Failure: ChangePasswordFailureNotFound, Err: err}
		}
		return ChangePasswordResult{Failure: ChangePasswordFailureStore, Err: err}
	}

	return ChangePasswordResult{Revoked: revokeAfterPasswordWrite(ctx, acct.ID, deps.RevokeSessions, deps.Store, deps.Warn)}
}

func revokeAfterPasswordWrite(ctx context.Context, accountID string, enabled bool, store LogoutStore, warn func(string, ...any)) bool {
	if !enabled {
		return false
	}
	if err := store.ClearRefreshToken(ctx, accountID); err != nil {
		if warn != nil {
			warn("mediauth: session revocation after password write failed", "account_id", accountID, "error", err)
		}
		return false
	}
	return true
}

package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/mediauth/account"
	"github.com/MrEthical07/mediauth/jwt"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureInvalid
	LoginFailureNotFound
	LoginFailureLookup
	LoginFailureCredentials
	LoginFailureIssue
	LoginFailurePersist
)

// LoginResult carries the issued pair or failure metadata.
type LoginResult struct {
	Failure  LoginFailureKind
	Err      error
	Account  account.Account
	Tokens   jwt.TokenPair
	Upgraded bool
}

type LoginStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (account.Account, error)
	SetRefreshToken(ctx context.Context, id, token string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Store          LoginStore
	Hasher         PasswordHasher
	Tokens         TokenCodec
	UpgradeOnLogin bool
	Warn           func(string, ...any)
}

// RunLogin authenticates identifier (username or email) and password, then
// issues a pair and records its refresh token as the account's only session.
func RunLogin(ctx context.Context, identifier, password string, deps LoginDeps) LoginResult {
	identifier = account.NormalizeIdentifier(identifier)
	if identifier == "" || password == "" {
		return LoginResult{Failure: LoginFailureInvalid}
	}

	acct, err := deps.Store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return LoginResult{Failure: LoginFailureNotFound, Err: err}
		}
		return LoginResult{Failure: LoginFailureLookup, Err: err}
	}

	if !deps.Hasher.Verify(password, acct.PasswordHash) {
		return LoginResult{Failure: LoginFailureCredentials, Account: acct}
	}

	pair, err := deps.Tokens.IssuePair(acct.ID, identityOf(acct))
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, Account: acct}
	}

	if err := deps.Store.SetRefreshToken(ctx, acct.ID, pair.RefreshToken); err != nil {
		return LoginResult{Failure: LoginFailurePersist, Err: err, Account: acct}
	}
	acct.RefreshToken = pair.RefreshToken

	upgraded := false
	if deps.UpgradeOnLogin && deps.Hasher.NeedsUpgrade(acct.PasswordHash) {
		// The password was just proven, so this is a legitimate rewrite of the
		// password field. Failure keeps the old hash and does not fail login.
		if hash, err := deps.Hasher.Hash(password); err == nil {
			if err := deps.Store.UpdatePasswordHash(ctx, acct.ID, hash); err == nil {
				acct.PasswordHash = hash
				upgraded = true
			} else if deps.Warn != nil {
				deps.Warn("mediauth: password hash upgrade failed", "account_id", acct.ID, "error", err)
			}
		}
	}

	return LoginResult{Account: acct, Tokens: pair, Upgraded: upgraded}
}

package flows

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/MrEthical07/mediauth/account"
	"github.com/MrEthical07/mediauth/jwt"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissing
	RefreshFailureVerify
	RefreshFailureAccountMissing
	RefreshFailureReuse
	RefreshFailureIssue
	RefreshFailureStore
)

// RefreshResult carries either the issued token pair or failure metadata.
type RefreshResult struct {
	Failure   RefreshFailureKind
	Err       error
	AccountID string
	Tokens    jwt.TokenPair
}

type RefreshStore interface {
	FindByID(ctx context.Context, id string) (account.Account, error)
	SwapRefreshToken(ctx context.Context, id, presented, next string) error
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Tokens TokenCodec
	Store  RefreshStore
}

// RunRefresh verifies a presented refresh token, checks it against the
// stored token, and rotates it by compare-and-swap. Only one of any number of
// concurrent calls presenting the same token can succeed.
func RunRefresh(ctx context.Context, presented string, deps RefreshDeps) RefreshResult {
	if presented == "" {
		return RefreshResult{Failure: RefreshFailureMissing}
	}

	claims, err := deps.Tokens.Verify(presented, jwt.PurposeRefresh)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureVerify, Err: err}
	}
	accountID := claims.AccountID()

	acct, err := deps.Store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return RefreshResult{Failure: RefreshFailureAccountMissing, Err: err, AccountID: accountID}
		}
		return RefreshResult{Failure: RefreshFailureStore, Err: err, AccountID: accountID}
	}

	if subtle.ConstantTimeCompare([]byte(acct.RefreshToken), []byte(presented)) != 1 {
		return RefreshResult{Failure: RefreshFailureReuse, Err: account.ErrRefreshMismatch, AccountID: accountID}
	}

	pair, err := deps.Tokens.IssuePair(acct.ID, identityOf(acct))
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, AccountID: accountID}
	}

	if err := deps.Store.SwapRefreshToken(ctx, acct.ID, presented, pair.RefreshToken); err != nil {
		switch {
		case errors.Is(err, account.ErrRefreshMismatch):
			return RefreshResult{Failure: RefreshFailureReuse, Err: err, AccountID: accountID}
		case errors.Is(err, account.ErrNotFound):
			return RefreshResult{Failure: RefreshFailureAccountMissing, Err: err, AccountID: accountID}
		default:
			return RefreshResult{Failure: RefreshFailureStore, Err: err, AccountID: accountID}
		}
	}

	return RefreshResult{AccountID: accountID, Tokens: pair}
}

package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/mediauth/account"
)

// RegisterFailureKind classifies registration failures for root-level mapping.
type RegisterFailureKind int

const (
	RegisterFailureNone RegisterFailureKind = iota
	RegisterFailureInvalid
	RegisterFailurePolicy
	RegisterFailureHash
	RegisterFailureDuplicate
	RegisterFailureStore
)

// RegisterResult carries the created account or failure metadata.
type RegisterResult struct {
	Failure RegisterFailureKind
	Err     error
	Account account.Account
}

type RegisterStore interface {
	Create(ctx context.Context, acct account.Account) error
}

// RegisterDeps captures registration flow dependencies.
type RegisterDeps struct {
	Store         RegisterStore
	Hasher        PasswordHasher
	CheckPassword func(string) error
	NewID         func() string
	Now           func() time.Time
}

// RunRegister validates and normalizes input, hashes the password once and
// inserts the account.
func RunRegister(ctx context.Context, in account.Registration, deps RegisterDeps) RegisterResult {
	in = in.Normalize()
	if err := account.Validate(in); err != nil {
		return RegisterResult{Failure: RegisterFailureInvalid, Err: err}
	}
	if deps.CheckPassword != nil {
		if err := deps.CheckPassword(in.Password); err != nil {
			return RegisterResult{Failure: RegisterFailurePolicy, Err: err}
		}
	}

	hash, err := deps.Hasher.Hash(in.Password)
	if err != nil {
		return RegisterResult{Failure: RegisterFailureHash, Err: fmt.Errorf("hash password: %w", err)}
	}

	now := nowOr(deps.Now).UTC()
	acct := account.Account{
		ID:           deps.NewID(),
		Username:     in.Username,
		Email:        in.Email,
		DisplayName:  in.DisplayName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := deps.Store.Create(ctx, acct); err != nil {
		if errors.Is(err, account.ErrExists) {
			return RegisterResult{Failure: RegisterFailureDuplicate, Err: err}
		}
		return RegisterResult{Failure: RegisterFailureStore, Err: err}
	}

	return RegisterResult{Account: acct}
}

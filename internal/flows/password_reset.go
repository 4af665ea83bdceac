package flows

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/MrEthical07/mediauth/account"
	"github.com/MrEthical07/mediauth/internal"
	"github.com/MrEthical07/mediauth/mailer"
)

// RequestResetFailureKind classifies reset request failures.
type RequestResetFailureKind int

const (
	RequestResetFailureNone RequestResetFailureKind = iota
	RequestResetFailureInvalid
	RequestResetFailureNotFound
	RequestResetFailureGenerate
	RequestResetFailureStore
	RequestResetFailureMail
)

// RequestResetResult reports failure metadata. Sent is false when a uniform
// response suppressed an unknown email.
type RequestResetResult struct {
	Failure   RequestResetFailureKind
	Err       error
	AccountID string
	Sent      bool
}

type RequestResetStore interface {
	FindByEmail(ctx context.Context, email string) (account.Account, error)
	SetResetToken(ctx context.Context, id string, reset account.ResetToken) error
	ClearResetToken(ctx context.Context, id string) error
}

// RequestResetDeps captures reset request dependencies.
type RequestResetDeps struct {
	Store           RequestResetStore
	Secrets         SecretGenerator
	Mailer          mailer.Mailer
	TTL             time.Duration
	LinkBaseURL     string
	Subject         string
	UniformResponse bool
	Now             func() time.Time
}

// RunRequestPasswordReset stores a hashed single-use secret on the account
// and mails the plaintext as a link. A mail failure rolls the stored secret
// back so no unreachable token stays valid.
func RunRequestPasswordReset(ctx context.Context, email string, deps RequestResetDeps) RequestResetResult {
	email = account.NormalizeEmail(email)
	if email == "" {
		return RequestResetResult{Failure: RequestResetFailureInvalid}
	}

	acct, err := deps.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			if deps.UniformResponse {
				return RequestResetResult{}
			}
			return RequestResetResult{Failure: RequestResetFailureNotFound, Err: err}
		}
		return RequestResetResult{Failure: RequestResetFailureStore, Err: err}
	}

	secret, err := deps.Secrets.Generate()
	if err != nil {
		return RequestResetResult{Failure: RequestResetFailureGenerate, Err: err, AccountID: acct.ID}
	}

	reset := account.ResetToken{
		Hash:      secret.Hash,
		ExpiresAt: nowOr(deps.Now).Add(deps.TTL).UTC(),
	}
	if err := deps.Store.SetResetToken(ctx, acct.ID, reset); err != nil {
		return RequestResetResult{Failure: RequestResetFailureStore, Err: err, AccountID: acct.ID}
	}

	msg := BuildResetMessage(acct.Email, deps.Subject, deps.LinkBaseURL, secret.Plaintext)
	if err := deps.Mailer.Send(ctx, msg); err != nil {
		if rbErr := deps.Store.ClearResetToken(ctx, acct.ID); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback reset token: %w", rbErr))
		}
		return RequestResetResult{Failure: RequestResetFailureMail, Err: err, AccountID: acct.ID}
	}

	return RequestResetResult{AccountID: acct.ID, Sent: true}
}

// BuildResetMessage renders the reset mail for to. The link is the base URL
// followed directly by the plaintext secret.
func BuildResetMessage(to, subject, linkBaseURL, plaintext string) mailer.Message {
	link := html.EscapeString(linkBaseURL + plaintext)
	return mailer.Message{
		To:      to,
		Subject: subject,
		Body:    fmt.Sprintf(`<p>Click <a href="%s">here</a> to reset your password.</p>`, link),
	}
}

// CompleteResetFailureKind classifies reset completion failures.
type CompleteResetFailureKind int

const (
	CompleteResetFailureNone CompleteResetFailureKind = iota
	CompleteResetFailureInvalid
	CompleteResetFailureMismatch
	CompleteResetFailurePolicy
	CompleteResetFailureToken
	CompleteResetFailureHash
	CompleteResetFailureStore
)

// CompleteResetResult reports failure metadata and the account that was reset.
type CompleteResetResult struct {
	Failure   CompleteResetFailureKind
	Err       error
	AccountID string
	Revoked   bool
}

type CompleteResetStore interface {
	FindByResetToken(ctx context.Context, hash string, now time.Time) (account.Account, error)
	ConsumeResetToken(ctx context.Context, id, hash, passwordHash string, now time.Time) error
	ClearRefreshToken(ctx context.Context, id string) error
}

// CompleteResetDeps captures reset completion dependencies.
type CompleteResetDeps struct {
	Store          CompleteResetStore
	Hasher         PasswordHasher
	CheckPassword  func(string) error
	RevokeSessions bool
	Now            func() time.Time
	Warn           func(string, ...any)
}

// RunCompletePasswordReset exchanges a valid, unexpired reset secret for a
// new password hash. The secret is consumed atomically; a second use fails.
func RunCompletePasswordReset(ctx context.Context, in account.PasswordResetInput, deps CompleteResetDeps) CompleteResetResult {
	if err := account.Validate(in); err != nil {
		return CompleteResetResult{Failure: CompleteResetFailureInvalid, Err: err}
	}
	if in.NewPassword != in.ConfirmPassword {
		return CompleteResetResult{Failure: CompleteResetFailureMismatch}
	}
	if deps.CheckPassword != nil {
		if err := deps.CheckPassword(in.NewPassword); err != nil {
			return CompleteResetResult{Failure: CompleteResetFailurePolicy, Err: err}
		}
	}
	if err := internal.CheckResetSecretShape(in.Secret); err != nil {
		return CompleteResetResult{Failure: CompleteResetFailureToken, Err: err}
	}

	now := nowOr(deps.Now)
	digest := internal.HashResetSecret(in.Secret)

	acct, err := deps.Store.FindByResetToken(ctx, digest, now)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return CompleteResetResult{Failure: CompleteResetFailureToken, Err: err}
		}
		return CompleteResetResult{Failure: CompleteResetFailureStore, Err: err}
	}
	if !acct.Reset.Valid(now) || !internal.MatchResetSecret(in.Secret, acct.Reset.Hash) {
		return CompleteResetResult{Failure: CompleteResetFailureToken, AccountID: acct.ID}
	}

	hash, err := deps.Hasher.Hash(in.NewPassword)
	if err != nil {
		return CompleteResetResult{Failure: CompleteResetFailureHash, Err: fmt.Errorf("hash password: %w", err), AccountID: acct.ID}
	}

	if err := deps.Store.ConsumeResetToken(ctx, acct.ID, digest, hash, now); err != nil {
		if errors.Is(err, account.ErrResetMismatch) || errors.Is(err, account.ErrNotFound) {
			return CompleteResetResult{Failure: CompleteResetFailureToken, Err: err, AccountID: acct.ID}
		}
		return CompleteResetResult{Failure: CompleteResetFailureStore, Err: err, AccountID: acct.ID}
	}

	return CompleteResetResult{
		AccountID: acct.ID,
		Revoked:   revokeAfterPasswordWrite(ctx, acct.ID, deps.RevokeSessions, deps.Store, deps.Warn),
	}
}

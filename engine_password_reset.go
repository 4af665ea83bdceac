package mediauth

import (
	"context"
	"fmt"

	"github.com/MrEthical07/mediauth/account"
	"github.com/MrEthical07/mediauth/internal/flows"
)

// RequestPasswordReset mails a single-use reset link to the account
// registered under email. Only the secret's digest is stored.
//
// An unknown email yields ErrAccountNotFound unless
// PasswordReset.UniformResponse is set, in which case it returns nil and
// sends nothing. When the mail cannot be sent the stored secret is removed
// and ErrMailDelivery is returned.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "mediauth.RequestPasswordReset"
	if err := e.ready(); err != nil {
		return err
	}

	res := flows.RunRequestPasswordReset(ctx, email, e.flows.RequestReset)

	var err error
	switch res.Failure {
	case flows.RequestResetFailureNone:
		if !res.Sent {
			e.logger.DebugContext(ctx, "reset requested for unknown email", "op", op)
			return nil
		}
		e.metricInc(MetricPasswordResetRequest)
		e.emitAudit(ctx, auditEventPasswordResetRequest, true, res.AccountID, nil, nil)
		e.logSuccess(ctx, op, res.AccountID)
		return nil
	case flows.RequestResetFailureInvalid:
		err = ErrValidation
	case flows.RequestResetFailureNotFound:
		err = ErrAccountNotFound
	case flows.RequestResetFailureGenerate:
		err = fmt.Errorf("%w: generate reset secret: %w", ErrDependency, res.Err)
	case flows.RequestResetFailureMail:
		e.metricInc(MetricPasswordResetMailFailure)
		err = fmt.Errorf("%w: %w", ErrMailDelivery, res.Err)
		e.emitAudit(ctx, auditEventPasswordResetMailFailure, false, res.AccountID, err, nil)
		e.logFailure(ctx, op, res.AccountID, err)
		return err
	default:
		e.metricInc(MetricStoreFailure)
		err = storeErr(res.Err)
	}

	e.emitAudit(ctx, auditEventPasswordResetRequest, false, res.AccountID, err, nil)
	e.logFailure(ctx, op, res.AccountID, err)
	return err
}

// CompletePasswordReset sets newPassword on the account holding secret. The
// secret is consumed atomically, so it works at most once and only before
// it expires.
//
// Fails with ErrValidation when a field is empty, ErrPasswordResetMismatch
// when the two passwords differ and ErrPasswordResetInvalid for an unknown,
// used or expired secret.
func (e *Engine) CompletePasswordReset(ctx context.Context, secret, newPassword, confirmPassword string) error {
	const op = "mediauth.CompletePasswordReset"
	if err := e.ready(); err != nil {
		return err
	}

	res := flows.RunCompletePasswordReset(ctx, account.PasswordResetInput{
		Secret:          secret,
		NewPassword:     newPassword,
		ConfirmPassword: confirmPassword,
	}, e.flows.CompleteReset)

	var err error
	switch res.Failure {
	case flows.CompleteResetFailureNone:
		e.metricInc(MetricPasswordResetConfirmSuccess)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, true, res.AccountID, nil, func() map[string]string {
			return map[string]string{"sessions_revoked": fmt.Sprint(res.Revoked)}
		})
		e.logSuccess(ctx, op, res.AccountID)
		return nil
	case flows.CompleteResetFailureInvalid:
		err = fmt.Errorf("%w: %v", ErrValidation, res.Err)
	case flows.CompleteResetFailureMismatch:
		err = ErrPasswordResetMismatch
	case flows.CompleteResetFailurePolicy:
		err = res.Err
	case flows.CompleteResetFailureToken:
		err = ErrPasswordResetInvalid
	case flows.CompleteResetFailureHash:
		err = hashErr(res.Err)
	default:
		e.metricInc(MetricStoreFailure)
		err = storeErr(res.Err)
	}

	e.metricInc(MetricPasswordResetConfirmFailure)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, false, res.AccountID, err, nil)
	e.logFailure(ctx, op, res.AccountID, err)
	return err
}

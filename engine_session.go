package mediauth

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/mediauth/internal/flows"
)

// Login authenticates identifier, which may be a username or an email, and
// starts the account's single session. A previous refresh token stops
// working as soon as the new one is stored.
//
// Login fails with ErrValidation for empty fields, ErrAccountNotFound for an
// unknown identifier and ErrInvalidCredentials for a wrong password.
func (e *Engine) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	const op = "mediauth.Login"
	if err := e.ready(); err != nil {
		return LoginResult{}, err
	}
	start := time.Now()
	defer e.observeSince(MetricLoginLatency, start)

	res := flows.RunLogin(ctx, identifier, password, e.flows.Login)

	var err error
	switch res.Failure {
	case flows.LoginFailureNone:
		e.metricInc(MetricLoginSuccess)
		if res.Upgraded {
			e.metricInc(MetricPasswordHashUpgraded)
			e.emitAudit(ctx, auditEventPasswordHashUpgraded, true, res.Account.ID, nil, nil)
		}
		e.emitAudit(ctx, auditEventLoginSuccess, true, res.Account.ID, nil, nil)
		e.logSuccess(ctx, op, res.Account.ID)
		return LoginResult{Tokens: res.Tokens, Account: res.Account.Public()}, nil
	case flows.LoginFailureInvalid:
		err = ErrValidation
	case flows.LoginFailureNotFound:
		e.metricInc(MetricLoginNotFound)
		err = ErrAccountNotFound
	case flows.LoginFailureCredentials:
		err = ErrInvalidCredentials
	case flows.LoginFailureIssue:
		err = fmt.Errorf("%w: issue tokens: %w", ErrDependency, res.Err)
	default:
		e.metricInc(MetricStoreFailure)
		err = storeErr(res.Err)
	}

	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, res.Account.ID, err, nil)
	e.logFailure(ctx, op, res.Account.ID, err)
	return LoginResult{}, err
}

// Refresh rotates the presented refresh token. Of several concurrent calls
// presenting the same token, exactly one succeeds; the rest get
// ErrRefreshReused.
//
// An empty token yields ErrUnauthorized. A token that fails verification or
// names an unknown account yields ErrTokenInvalid.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	const op = "mediauth.Refresh"
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}
	start := time.Now()
	defer e.observeSince(MetricRefreshLatency, start)

	res := flows.RunRefresh(ctx, refreshToken, e.flows.Refresh)

	var err error
	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, res.AccountID, nil, nil)
		e.logSuccess(ctx, op, res.AccountID)
		return res.Tokens, nil
	case flows.RefreshFailureMissing:
		err = ErrUnauthorized
	case flows.RefreshFailureVerify, flows.RefreshFailureAccountMissing:
		err = ErrTokenInvalid
	case flows.RefreshFailureReuse:
		e.metricInc(MetricRefreshReuseDetected)
		err = ErrRefreshReused
	case flows.RefreshFailureIssue:
		err = fmt.Errorf("%w: issue tokens: %w", ErrDependency, res.Err)
	default:
		e.metricInc(MetricStoreFailure)
		err = storeErr(res.Err)
	}

	e.metricInc(MetricRefreshFailure)
	event := auditEventRefreshInvalid
	if res.Failure == flows.RefreshFailureReuse {
		event = auditEventRefreshReuseDetected
	}
	e.emitAudit(ctx, event, false, res.AccountID, err, nil)
	e.logFailure(ctx, op, res.AccountID, err)
	return TokenPair{}, err
}

// Logout ends the account's session by clearing its refresh token. Access
// tokens already issued stay valid until they expire. Logging out twice, or
// logging out an unknown account, succeeds.
func (e *Engine) Logout(ctx context.Context, accountID string) error {
	const op = "mediauth.Logout"
	if err := e.ready(); err != nil {
		return err
	}
	if accountID == "" {
		return ErrValidation
	}

	if err := flows.RunLogout(ctx, accountID, e.flows.Logout); err != nil {
		e.metricInc(MetricStoreFailure)
		err = storeErr(err)
		e.emitAudit(ctx, auditEventLogout, false, accountID, err, nil)
		e.logFailure(ctx, op, accountID, err)
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, accountID, nil, nil)
	e.logSuccess(ctx, op, accountID)
	return nil
}

// ChangePassword replaces the password of accountID after verifying
// oldPassword. The active refresh token survives unless
// Session.RevokeOnPasswordChange is set.
func (e *Engine) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	const op = "mediauth.ChangePassword"
	if err := e.ready(); err != nil {
		return err
	}

	res := flows.RunChangePassword(ctx, accountID, oldPassword, newPassword, e.flows.ChangePassword)

	var err error
	switch res.Failure {
	case flows.ChangePasswordFailureNone:
		e.metricInc(MetricPasswordChangeSuccess)
		e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, accountID, nil, func() map[string]string {
			return map[string]string{"sessions_revoked": fmt.Sprint(res.Revoked)}
		})
		e.logSuccess(ctx, op, accountID)
		return nil
	case flows.ChangePasswordFailureInvalid:
		err = ErrValidation
	case flows.ChangePasswordFailurePolicy:
		err = res.Err
	case flows.ChangePasswordFailureNotFound:
		err = ErrAccountNotFound
	case flows.ChangePasswordFailureCredentials:
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordChangeInvalidOld, false, accountID, ErrInvalidCredentials, nil)
		e.logFailure(ctx, op, accountID, ErrInvalidCredentials)
		return ErrInvalidCredentials
	case flows.ChangePasswordFailureHash:
		err = hashErr(res.Err)
	default:
		e.metricInc(MetricStoreFailure)
		err = storeErr(res.Err)
	}

	e.emitAudit(ctx, auditEventPasswordChangeFailure, false, accountID, err, nil)
	e.logFailure(ctx, op, accountID, err)
	return err
}

package mediauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/mediauth/account"
	"github.com/MrEthical07/mediauth/internal"
	internalaudit "github.com/MrEthical07/mediauth/internal/audit"
	"github.com/MrEthical07/mediauth/internal/flows"
	"github.com/MrEthical07/mediauth/jwt"
	"github.com/MrEthical07/mediauth/password"
)

// Engine runs the credential and session lifecycle: registration, login,
// refresh rotation, logout, password change and password reset.
//
// Engine methods are safe for concurrent use after Builder.Build.
type Engine struct {
	config  Config
	store   CredentialStore
	mailer  Mailer
	hasher  password.Hasher
	tokens  *jwt.Codec
	secrets *internal.ResetSecretGenerator
	audit   *internalaudit.Dispatcher
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
	flows   flows.Deps
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped reports how many audit events were dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine's counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observeSince(id MetricID, start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil || e.tokens == nil || e.hasher == nil {
		return ErrEngineNotReady
	}
	return nil
}

// logFailure records a failed operation. Client mistakes log at debug so
// that guessing attacks do not flood the log; dependency failures at error.
func (e *Engine) logFailure(ctx context.Context, op, accountID string, err error) {
	level := slog.LevelDebug
	if KindOf(err) == KindDependency || KindOf(err) == KindUnknown {
		level = slog.LevelError
	}
	attrs := []slog.Attr{slog.String("op", op), slog.String("kind", KindOf(err).String())}
	if accountID != "" {
		attrs = append(attrs, slog.String("account_id", accountID))
	}
	attrs = append(attrs, slog.Any("error", err))
	e.logger.LogAttrs(ctx, level, "operation failed", attrs...)
}

func (e *Engine) logSuccess(ctx context.Context, op, accountID string) {
	e.logger.LogAttrs(ctx, slog.LevelInfo, "operation succeeded",
		slog.String("op", op),
		slog.String("account_id", accountID),
	)
}

func (e *Engine) checkPassword(pw string) error {
	maxLen := e.config.Password.MaxLength
	if e.config.Password.Algorithm == PasswordBcrypt && maxLen > password.BcryptMaxPasswordBytes {
		maxLen = password.BcryptMaxPasswordBytes
	}
	if n := len(pw); n < e.config.Password.MinLength || n > maxLen {
		return fmt.Errorf("%w: length must be within [%d, %d] bytes", ErrPasswordPolicy, e.config.Password.MinLength, maxLen)
	}
	return nil
}

func storeErr(err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func hashErr(err error) error {
	if errors.Is(err, password.ErrPasswordTooLong) {
		return fmt.Errorf("%w: %w", ErrPasswordPolicy, err)
	}
	return fmt.Errorf("%w: %w", ErrDependency, err)
}

// Register creates an account from in and returns its public view.
//
// Register fails with ErrValidation for missing or malformed fields,
// ErrPasswordPolicy for out-of-bounds passwords, and ErrAccountExists when
// the username or email is taken.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (PublicAccount, error) {
	const op = "mediauth.Register"
	if err := e.ready(); err != nil {
		return PublicAccount{}, err
	}

	res := flows.RunRegister(ctx, in, e.flows.Register)

	var err error
	switch res.Failure {
	case flows.RegisterFailureNone:
		e.metricInc(MetricRegisterSuccess)
		e.emitAudit(ctx, auditEventAccountCreationSuccess, true, res.Account.ID, nil, nil)
		e.logSuccess(ctx, op, res.Account.ID)
		return res.Account.Public(), nil
	case flows.RegisterFailureInvalid:
		err = fmt.Errorf("%w: %v", ErrValidation, res.Err)
	case flows.RegisterFailurePolicy:
		err = res.Err
	case flows.RegisterFailureHash:
		err = hashErr(res.Err)
	case flows.RegisterFailureDuplicate:
		err = ErrAccountExists
	default:
		err = storeErr(res.Err)
	}

	if errors.Is(err, ErrAccountExists) {
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventAccountCreationDuplicate, false, "", err, nil)
	} else {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventAccountCreationFailure, false, "", err, nil)
	}
	e.logFailure(ctx, op, "", err)
	return PublicAccount{}, err
}

// Account returns the public view of the account with id.
func (e *Engine) Account(ctx context.Context, accountID string) (PublicAccount, error) {
	const op = "mediauth.Account"
	if err := e.ready(); err != nil {
		return PublicAccount{}, err
	}
	if accountID == "" {
		return PublicAccount{}, ErrValidation
	}

	acct, err := e.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			err = ErrAccountNotFound
		} else {
			err = storeErr(err)
			e.metricInc(MetricStoreFailure)
		}
		e.logFailure(ctx, op, accountID, err)
		return PublicAccount{}, err
	}
	return acct.Public(), nil
}

// ValidateAccess verifies an access token and returns its claims. It never
// touches the credential store.
//
// An empty token yields ErrUnauthorized; every other failure yields
// ErrTokenInvalid.
func (e *Engine) ValidateAccess(ctx context.Context, accessToken string) (*Claims, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer e.observeSince(MetricValidateLatency, start)

	res := flows.RunValidate(accessToken, e.flows.Validate)
	switch {
	case res.Missing:
		e.metricInc(MetricValidateFailure)
		return nil, ErrUnauthorized
	case res.Err != nil:
		e.metricInc(MetricValidateFailure)
		e.logger.LogAttrs(ctx, slog.LevelDebug, "operation failed",
			slog.String("op", "mediauth.ValidateAccess"),
			slog.String("kind", KindInvalidToken.String()),
		)
		return nil, ErrTokenInvalid
	}
	e.metricInc(MetricValidateSuccess)
	return res.Claims, nil
}

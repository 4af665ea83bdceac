package mediauth

import (
	"context"
	"errors"
)

const (
	auditEventAccountCreationSuccess   = "account_creation_success"
	auditEventAccountCreationDuplicate = "account_creation_duplicate"
	auditEventAccountCreationFailure   = "account_creation_failure"
	auditEventLoginSuccess             = "login_success"
	auditEventLoginFailure             = "login_failure"
	auditEventPasswordHashUpgraded     = "password_hash_upgraded"
	auditEventRefreshSuccess           = "refresh_success"
	auditEventRefreshInvalid           = "refresh_invalid"
	auditEventRefreshReuseDetected     = "refresh_reuse_detected"
	auditEventLogout                   = "logout"
	auditEventPasswordChangeSuccess    = "password_change_success"
	auditEventPasswordChangeInvalidOld = "password_change_invalid_old"
	auditEventPasswordChangeFailure    = "password_change_failure"
	auditEventPasswordResetRequest     = "password_reset_request"
	auditEventPasswordResetMailFailure = "password_reset_mail_failure"
	auditEventPasswordResetConfirm     = "password_reset_confirm"
)

// AuditErrorCode is the stable, coarse error label written to audit events.
// Audit records never carry raw error text.
type AuditErrorCode string

const (
	auditErrValidation         AuditErrorCode = "validation"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrNotFound           AuditErrorCode = "account_not_found"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRefreshReuse       AuditErrorCode = "refresh_reuse"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrResetInvalid       AuditErrorCode = "reset_invalid"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrMailDelivery       AuditErrorCode = "mail_delivery"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	// Ordered from most to least specific: ErrRefreshReused wraps
	// ErrTokenInvalid and the dependency family shares ErrDependency.
	switch {
	case errors.Is(err, ErrRefreshReused):
		return auditErrRefreshReuse
	case errors.Is(err, ErrPasswordResetInvalid):
		return auditErrResetInvalid
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrPasswordResetMismatch):
		return auditErrValidation
	case errors.Is(err, ErrAccountNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrMailDelivery):
		return auditErrMailDelivery
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}

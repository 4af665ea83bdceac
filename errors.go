package mediauth

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation reports missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrPasswordPolicy reports a password outside the configured length bounds.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordResetMismatch reports that the new and confirm passwords differ.
	ErrPasswordResetMismatch = errors.New("password and confirm password must match")
	// ErrAccountNotFound reports that no account matches the lookup.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials reports a password mismatch. It never says which
	// field of the credential pair was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid reports any signature, expiry, purpose or rotation failure.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrRefreshReused reports a refresh token that was already rotated or revoked.
	ErrRefreshReused = fmt.Errorf("%w: refresh token is expired or used", ErrTokenInvalid)
	// ErrPasswordResetInvalid reports an unknown, consumed or expired reset secret.
	ErrPasswordResetInvalid = errors.New("password reset token is invalid or has expired")
	// ErrUnauthorized reports a missing token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAccountExists reports a duplicate username or email on registration.
	ErrAccountExists = errors.New("account with username or email already exists")
	// ErrDependency reports a hashing, signing or collaborator failure.
	ErrDependency = errors.New("dependency failure")
	// ErrMailDelivery reports that the reset mail could not be sent.
	ErrMailDelivery = fmt.Errorf("%w: mail delivery failed", ErrDependency)
	// ErrStoreUnavailable reports a credential store failure.
	ErrStoreUnavailable = fmt.Errorf("%w: credential store unavailable", ErrDependency)
	// ErrEngineNotReady reports use of an Engine that was not built.
	ErrEngineNotReady = fmt.Errorf("%w: engine not initialized", ErrDependency)
)

// Kind is the fixed classification every returned error belongs to.
type Kind int

const (
	// KindUnknown is reported for nil and for errors not produced by this module.
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindInvalidCredentials
	KindInvalidToken
	KindUnauthorized
	KindConflict
	KindDependency
)

var kindNames = [...]string{
	KindUnknown:            "unknown",
	KindValidation:         "validation",
	KindNotFound:           "not_found",
	KindInvalidCredentials: "invalid_credentials",
	KindInvalidToken:       "invalid_token",
	KindUnauthorized:       "unauthorized",
	KindConflict:           "conflict",
	KindDependency:         "dependency",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Status maps k onto the HTTP status a transport layer should answer with.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindInvalidCredentials:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidToken, KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// KindOf classifies err. Wrapped errors are classified by the sentinel they wrap.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrPasswordPolicy),
		errors.Is(err, ErrPasswordResetMismatch):
		return KindValidation
	case errors.Is(err, ErrAccountNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrPasswordResetInvalid):
		return KindInvalidToken
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrAccountExists):
		return KindConflict
	case errors.Is(err, ErrDependency):
		return KindDependency
	default:
		return KindUnknown
	}
}

// StatusOf is a shorthand for KindOf(err).Status(). An invalid reset
// secret answers 400 rather than 401 since no session is involved.
func StatusOf(err error) int {
	if errors.Is(err, ErrPasswordResetInvalid) {
		return http.StatusBadRequest
	}
	return KindOf(err).Status()
}

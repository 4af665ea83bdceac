package mediauth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{"nil", nil, KindUnknown, http.StatusInternalServerError},
		{"validation", fmt.Errorf("%w: Username (required)", ErrValidation), KindValidation, http.StatusBadRequest},
		{"policy", ErrPasswordPolicy, KindValidation, http.StatusBadRequest},
		{"confirm mismatch", ErrPasswordResetMismatch, KindValidation, http.StatusBadRequest},
		{"not found", ErrAccountNotFound, KindNotFound, http.StatusNotFound},
		{"credentials", ErrInvalidCredentials, KindInvalidCredentials, http.StatusBadRequest},
		{"token", ErrTokenInvalid, KindInvalidToken, http.StatusUnauthorized},
		{"reuse", ErrRefreshReused, KindInvalidToken, http.StatusUnauthorized},
		{"reset invalid", ErrPasswordResetInvalid, KindInvalidToken, http.StatusBadRequest},
		{"unauthorized", ErrUnauthorized, KindUnauthorized, http.StatusUnauthorized},
		{"conflict", ErrAccountExists, KindConflict, http.StatusConflict},
		{"mail", fmt.Errorf("%w: dial tcp", ErrMailDelivery), KindDependency, http.StatusInternalServerError},
		{"store", fmt.Errorf("%w: timeout", ErrStoreUnavailable), KindDependency, http.StatusInternalServerError},
		{"not ready", ErrEngineNotReady, KindDependency, http.StatusInternalServerError},
		{"foreign", errors.New("boom"), KindUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.kind {
				t.Fatalf("expected kind %s, got %s", tt.kind, got)
			}
			if got := StatusOf(tt.err); got != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, got)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindConflict.String() != "conflict" {
		t.Fatalf("unexpected name %q", KindConflict.String())
	}
	if Kind(99).String() != "unknown" {
		t.Fatalf("out of range kind should be unknown, got %q", Kind(99).String())
	}
}

package account

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput wraps every field-level validation failure.
var ErrInvalidInput = errors.New("invalid input")

// Registration is the input to account creation. Usernames never contain
// '@', so a login identifier is unambiguous between username and email.
type Registration struct {
	Username    string `validate:"required,max=64,excludesall=@"`
	Email       string `validate:"required,email,max=254"`
	DisplayName string `validate:"required,max=128"`
	Password    string `validate:"required"`
}

// Normalize trims every identity field and lowercases username and email.
// Password is left untouched.
func (r Registration) Normalize() Registration {
	r.Username = NormalizeUsername(r.Username)
	r.Email = NormalizeEmail(r.Email)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	return r
}

// PasswordResetInput is the input to completing a password reset.
type PasswordResetInput struct {
	Secret          string `validate:"required"`
	NewPassword     string `validate:"required"`
	ConfirmPassword string `validate:"required"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks v's struct tags. Failures are reported as
// ErrInvalidInput naming each offending field and rule.
func Validate(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s is %s", strings.ToLower(fe.Field()), describeTag(fe)))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(parts, ", "))
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "not a valid email"
	case "max":
		return "longer than " + fe.Param()
	case "excludesall":
		return "using a forbidden character"
	default:
		return "invalid (" + fe.Tag() + ")"
	}
}

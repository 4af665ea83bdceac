package account

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPublicStripsSecrets(t *testing.T) {
	acct := Account{
		ID:           "a1",
		Username:     "ada",
		Email:        "ada@x.com",
		DisplayName:  "Ada",
		PasswordHash: "$argon2id$secret",
		RefreshToken: "refresh-secret",
		Reset:        &ResetToken{Hash: "reset-hash", ExpiresAt: time.Now().Add(time.Minute)},
	}

	data, err := json.Marshal(acct.Public())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	for _, secret := range []string{"$argon2id$secret", "refresh-secret", "reset-hash"} {
		if strings.Contains(out, secret) {
			t.Fatalf("public view leaked %q: %s", secret, out)
		}
	}
	if !strings.Contains(out, `"username":"ada"`) {
		t.Fatalf("public view missing identity: %s", out)
	}
}

func TestResetTokenValid(t *testing.T) {
	now := time.Now()
	var nilReset *ResetToken
	if nilReset.Valid(now) {
		t.Fatal("nil reset must not be valid")
	}
	if (&ResetToken{Hash: "h", ExpiresAt: now}).Valid(now) {
		t.Fatal("reset expiring exactly now must not be valid")
	}
	if !(&ResetToken{Hash: "h", ExpiresAt: now.Add(time.Second)}).Valid(now) {
		t.Fatal("future reset must be valid")
	}
	if (&ResetToken{ExpiresAt: now.Add(time.Second)}).Valid(now) {
		t.Fatal("reset without hash must not be valid")
	}
}

func TestRegistrationNormalize(t *testing.T) {
	in := Registration{Username: "  Ada ", Email: " ADA@X.com", DisplayName: " Ada L. ", Password: " keep "}
	got := in.Normalize()
	if got.Username != "ada" || got.Email != "ada@x.com" || got.DisplayName != "Ada L." {
		t.Fatalf("unexpected normalization: %+v", got)
	}
	if got.Password != " keep " {
		t.Fatal("password must not be altered")
	}
}

func TestValidateRegistration(t *testing.T) {
	ok := Registration{Username: "ada", Email: "ada@x.com", DisplayName: "Ada", Password: "p@ss1"}
	if err := Validate(ok); err != nil {
		t.Fatalf("expected valid registration: %v", err)
	}

	cases := map[string]struct {
		in   Registration
		want string
	}{
		"missing username": {Registration{Email: "ada@x.com", DisplayName: "Ada", Password: "p"}, "username is required"},
		"bad email":        {Registration{Username: "ada", Email: "nope", DisplayName: "Ada", Password: "p"}, "email is not a valid email"},
		"at in username":   {Registration{Username: "a@b", Email: "ada@x.com", DisplayName: "Ada", Password: "p"}, "username is using a forbidden character"},
		"missing password": {Registration{Username: "ada", Email: "ada@x.com", DisplayName: "Ada"}, "password is required"},
	}
	for name, tc := range cases {
		err := Validate(tc.in)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected %q in %q", name, tc.want, err.Error())
		}
	}
}

func TestValidatePasswordResetInput(t *testing.T) {
	err := Validate(PasswordResetInput{Secret: "s", NewPassword: "n"})
	if !errors.Is(err, ErrInvalidInput) || !strings.Contains(err.Error(), "confirmpassword is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

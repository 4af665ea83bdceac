package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHashAndVerify(t *testing.T) {
	hasher, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	hash, err := hasher.Hash("p@ss1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Fatalf("unexpected bcrypt prefix: %s", hash)
	}
	if !hasher.Verify("p@ss1", hash) {
		t.Fatal("expected verification to succeed")
	}
	if hasher.Verify("wrong", hash) {
		t.Fatal("expected wrong password to fail")
	}
	if hasher.Verify("p@ss1", "garbage") {
		t.Fatal("expected malformed hash to fail")
	}
}

func TestBcryptNeedsUpgrade(t *testing.T) {
	weak, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	hash, err := weak.Hash("upgrade-me")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	strong, err := NewBcrypt(bcrypt.MinCost + 1)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	if !strong.NeedsUpgrade(hash) {
		t.Fatal("expected lower cost hash to need upgrade")
	}
	if weak.NeedsUpgrade(hash) {
		t.Fatal("expected same cost hash to be current")
	}
	if !weak.NeedsUpgrade("$argon2id$v=19$m=8192,t=1,p=1$x$y") {
		t.Fatal("expected argon2 hash to need upgrade under bcrypt")
	}
}

func TestBcryptRejectsInvalidInput(t *testing.T) {
	if _, err := NewBcrypt(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("expected out of range cost to be rejected")
	}

	hasher, err := NewBcrypt(0)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	if hasher.cost != DefaultBcryptCost {
		t.Fatalf("expected default cost %d, got %d", DefaultBcryptCost, hasher.cost)
	}
	if _, err := hasher.Hash(""); err != ErrEmptyPassword {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
	if _, err := hasher.Hash(strings.Repeat("x", 73)); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

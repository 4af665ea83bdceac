package password

import (
	"strings"
	"testing"
)

func fastConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashAndVerify(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("p@ss1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}
	if !hasher.Verify("p@ss1", hash) {
		t.Fatal("expected password verification to succeed")
	}
}

func TestHashSaltsEveryCall(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	first, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct encodings for repeated hashes")
	}
	if !hasher.Verify("same-password", first) || !hasher.Verify("same-password", second) {
		t.Fatal("expected both encodings to verify")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("correct-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if hasher.Verify("wrong-password", hash) {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestNeedsUpgrade(t *testing.T) {
	oldHasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2(old) error: %v", err)
	}

	hash, err := oldHasher.Hash("test-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	stronger := fastConfig()
	stronger.Time = 2
	newHasher, err := NewArgon2(stronger)
	if err != nil {
		t.Fatalf("NewArgon2(new) error: %v", err)
	}

	if !newHasher.NeedsUpgrade(hash) {
		t.Fatal("expected NeedsUpgrade to return true for weaker hash parameters")
	}
	if oldHasher.NeedsUpgrade(hash) {
		t.Fatal("expected NeedsUpgrade to return false for current parameters")
	}
	if !newHasher.NeedsUpgrade("$2a$10$abcdefghijklmnopqrstuv") {
		t.Fatal("expected foreign hash to need upgrade")
	}
}

func TestVerifyMalformedHashReturnsFalse(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("version-test")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	cases := map[string]string{
		"empty":         "",
		"not phc":       "not-a-phc-hash",
		"wrong version": strings.Replace(hash, "$v=19$", "$v=18$", 1),
		"wrong alg":     strings.Replace(hash, "$argon2id$", "$argon2i$", 1),
		"bad params":    strings.Replace(hash, "m=8192,t=1,p=1", "m=8192,t=1", 1),
		"tiny memory":   strings.Replace(hash, "m=8192", "m=8", 1),
		"truncated":     hash[:len(hash)-10] + "!!",
	}
	for name, encoded := range cases {
		if hasher.Verify("version-test", encoded) {
			t.Fatalf("%s: expected verification to fail", name)
		}
	}
}

func TestHashEmptyPassword(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	if _, err := hasher.Hash(""); err != ErrEmptyPassword {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestHashTooLongPasswordRejected(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxPasswordBytes = 64
	hasher, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	if _, err := hasher.Hash(strings.Repeat("a", 65)); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}

	exact := strings.Repeat("b", 64)
	hash, err := hasher.Hash(exact)
	if err != nil {
		t.Fatalf("expected exactly-max password to be accepted: %v", err)
	}
	if !hasher.Verify(exact, hash) {
		t.Fatal("Verify failed for max-length password")
	}
	if hasher.Verify(strings.Repeat("c", 65), hash) {
		t.Fatal("expected over-long password to fail verification")
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"memory":      func(c *Config) { c.Memory = 1024 },
		"time":        func(c *Config) { c.Time = 0 },
		"parallelism": func(c *Config) { c.Parallelism = 0 },
		"salt":        func(c *Config) { c.SaltLength = 8 },
		"key":         func(c *Config) { c.KeyLength = 8 },
		"max bytes":   func(c *Config) { c.MaxPasswordBytes = -1 },
	}
	for name, mutate := range cases {
		cfg := fastConfig()
		mutate(&cfg)
		if _, err := NewArgon2(cfg); err == nil {
			t.Fatalf("%s: expected config rejection", name)
		}
	}
}

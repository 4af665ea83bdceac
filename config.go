package mediauth

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config is the full engine configuration. Build it from DefaultConfig and
// override fields; Builder.Build validates it.
type Config struct {
	JWT           JWTConfig
	Password      PasswordConfig
	PasswordReset PasswordResetConfig
	Session       SessionConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds the two HMAC secrets and lifetimes. Access and refresh
// tokens never share a secret.
type JWTConfig struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordAlgorithm selects the credential hashing scheme.
type PasswordAlgorithm string

const (
	PasswordArgon2id PasswordAlgorithm = "argon2id"
	PasswordBcrypt   PasswordAlgorithm = "bcrypt"
)

// PasswordConfig selects and tunes the password hasher.
type PasswordConfig struct {
	Algorithm PasswordAlgorithm

	// Argon2id cost. Memory is in KiB.
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	BcryptCost int

	// Length bounds in bytes. With bcrypt the effective maximum is capped
	// at 72.
	MinLength      int
	MaxLength      int
	UpgradeOnLogin bool
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// PasswordResetConfig controls the reset secret lifetime and the mail that
// carries it.
type PasswordResetConfig struct {
	ResetTTL    time.Duration
	LinkBaseURL string
	Subject     string

	// UniformResponse makes a reset request for an unknown email succeed
	// without sending mail, instead of reporting ErrAccountNotFound.
	UniformResponse bool
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls single-session side effects of password writes.
type SessionConfig struct {
	RevokeOnPasswordChange bool
	RevokeOnPasswordReset  bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const (
	defaultAccessTTL    = 15 * time.Minute
	defaultRefreshTTL   = 7 * 24 * time.Hour
	defaultResetTTL     = 15 * time.Minute
	defaultResetLink    = "http://localhost:8000/api/v1/resetpassword/"
	defaultResetSubject = "Forget Password link"
	maxJWTLeeway        = 2 * time.Minute
	minJWTSecretBytes   = 32
)

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  defaultAccessTTL,
			RefreshTTL: defaultRefreshTTL,
			Issuer:     "mediauth",
		},
		Password: PasswordConfig{
			Algorithm:   PasswordArgon2id,
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			BcryptCost:  10,
			MinLength:   1,
			MaxLength:   1024,
		},
		PasswordReset: PasswordResetConfig{
			ResetTTL:    defaultResetTTL,
			LinkBaseURL: defaultResetLink,
			Subject:     defaultResetSubject,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// DefaultConfig returns the baseline configuration. The JWT secrets are left
// empty and must be supplied before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(c Config) Config {
	out := c
	out.JWT.AccessSecret = cloneBytes(c.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(c.JWT.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first configuration problem it finds.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}
	if len(c.JWT.AccessSecret) < minJWTSecretBytes {
		return errors.New("JWT AccessSecret must be at least 32 bytes")
	}
	if len(c.JWT.RefreshSecret) < minJWTSecretBytes {
		return errors.New("JWT RefreshSecret must be at least 32 bytes")
	}
	if string(c.JWT.AccessSecret) == string(c.JWT.RefreshSecret) {
		return errors.New("JWT AccessSecret and RefreshSecret must differ")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > maxJWTLeeway {
		return errors.New("JWT Leeway must be within [0, 2m]")
	}

	// Password
	switch c.Password.Algorithm {
	case PasswordArgon2id, PasswordBcrypt:
	default:
		return errors.New("Password Algorithm must be argon2id or bcrypt")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}
	if c.Password.MaxLength < c.Password.MinLength {
		return errors.New("Password MaxLength must be >= MinLength")
	}

	// Password reset
	if c.PasswordReset.ResetTTL <= 0 {
		return errors.New("PasswordReset ResetTTL must be > 0")
	}
	if strings.TrimSpace(c.PasswordReset.Subject) == "" {
		return errors.New("PasswordReset Subject is required")
	}
	u, err := url.Parse(c.PasswordReset.LinkBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("PasswordReset LinkBaseURL must be an absolute URL")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

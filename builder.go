package mediauth

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/mediauth/internal"
	internalaudit "github.com/MrEthical07/mediauth/internal/audit"
	"github.com/MrEthical07/mediauth/internal/flows"
	"github.com/MrEthical07/mediauth/jwt"
	"github.com/MrEthical07/mediauth/password"
)

// Builder assembles an Engine. Configure it during initialization, call
// Build once, and discard it.
type Builder struct {
	config Config
	store  CredentialStore
	mailer Mailer
	logger *slog.Logger

	auditSink AuditSink
	clock     func() time.Time
	entropy   io.Reader

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the credential store. Required.
func (b *Builder) WithStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithMailer sets the transport for password reset mail. Required.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithLogger sets the structured logger. The default discards output.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides the time source for token issuance and reset expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithEntropy overrides the random source for reset secrets. Intended for
// tests.
func (b *Builder) WithEntropy(r io.Reader) *Builder {
	b.entropy = r
	return b
}

// Build validates the configuration and wires every collaborator.
//
// Build fails when the configuration is invalid, a required collaborator is
// missing, or the builder was already used.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("credential store required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.clock
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	hasher, err := newHasher(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	codec, err := jwt.NewCodec(jwt.Config{
		AccessSecret:  cloneBytes(cfg.JWT.AccessSecret),
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshSecret: cloneBytes(cfg.JWT.RefreshSecret),
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
		Now:           now,
	})
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	engine := &Engine{
		config:  cfg,
		store:   b.store,
		mailer:  b.mailer,
		hasher:  hasher,
		tokens:  codec,
		secrets: internal.NewResetSecretGenerator(b.entropy),
		logger:  logger,
		now:     now,
		metrics: NewMetrics(cfg.Metrics),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}
	engine.flows = engine.buildFlowDeps()

	b.built = true

	return engine, nil
}

func newHasher(cfg PasswordConfig) (password.Hasher, error) {
	switch cfg.Algorithm {
	case PasswordBcrypt:
		return password.NewBcrypt(cfg.BcryptCost)
	default:
		return password.NewArgon2(password.Config{
			Memory:           cfg.Memory,
			Time:             cfg.Time,
			Parallelism:      cfg.Parallelism,
			SaltLength:       cfg.SaltLength,
			KeyLength:        cfg.KeyLength,
			MaxPasswordBytes: cfg.MaxLength,
		})
	}
}

func (e *Engine) buildFlowDeps() flows.Deps {
	warn := func(msg string, args ...any) { e.logger.Warn(msg, args...) }
	return flows.Deps{
		Register: flows.RegisterDeps{
			Store:         e.store,
			Hasher:        e.hasher,
			CheckPassword: e.checkPassword,
			NewID:         uuid.NewString,
			Now:           e.now,
		},
		Login: flows.LoginDeps{
			Store:          e.store,
			Hasher:         e.hasher,
			Tokens:         e.tokens,
			UpgradeOnLogin: e.config.Password.UpgradeOnLogin,
			Warn:           warn,
		},
		Refresh: flows.RefreshDeps{
			Tokens: e.tokens,
			Store:  e.store,
		},
		Validate: flows.ValidateDeps{
			Tokens: e.tokens,
		},
		Logout: flows.LogoutDeps{
			Store: e.store,
		},
		ChangePassword: flows.ChangePasswordDeps{
			Store:          e.store,
			Hasher:         e.hasher,
			CheckPassword:  e.checkPassword,
			RevokeSessions: e.config.Session.RevokeOnPasswordChange,
			Warn:           warn,
		},
		RequestReset: flows.RequestResetDeps{
			Store:           e.store,
			Secrets:         e.secrets,
			Mailer:          e.mailer,
			TTL:             e.config.PasswordReset.ResetTTL,
			LinkBaseURL:     e.config.PasswordReset.LinkBaseURL,
			Subject:         e.config.PasswordReset.Subject,
			UniformResponse: e.config.PasswordReset.UniformResponse,
			Now:             e.now,
		},
		CompleteReset: flows.CompleteResetDeps{
			Store:          e.store,
			Hasher:         e.hasher,
			CheckPassword:  e.checkPassword,
			RevokeSessions: e.config.Session.RevokeOnPasswordReset,
			Now:            e.now,
			Warn:           warn,
		},
	}
}

// Package config loads deployment settings from a YAML file with
// environment overrides and turns them into a mediauth.Config plus the
// adapter settings the mediauth command needs.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/MrEthical07/mediauth"
)

// File mirrors the YAML layout. Every field may be overridden by the
// environment variable named in its env tag.
//
// Defaults apply to zero fields, so a boolean defaulting to true
// (audit.drop_if_full, metrics.enabled) can only be switched off through
// its environment variable.
type File struct {
	Env           string        `yaml:"env" env:"MEDIAUTH_ENV" env-default:"local"`
	JWT           JWT           `yaml:"jwt"`
	Password      Password      `yaml:"password"`
	PasswordReset PasswordReset `yaml:"password_reset"`
	Session       Session       `yaml:"session"`
	Audit         Audit         `yaml:"audit"`
	Metrics       Metrics       `yaml:"metrics"`
	Store         Store         `yaml:"store"`
	SMTP          SMTP          `yaml:"smtp"`
	Queue         Queue         `yaml:"queue"`
	Log           Log           `yaml:"log"`
}

type JWT struct {
	AccessSecret  string        `yaml:"access_secret" env:"MEDIAUTH_JWT_ACCESS_SECRET"`
	AccessTTL     time.Duration `yaml:"access_ttl" env:"MEDIAUTH_JWT_ACCESS_TTL" env-default:"15m"`
	RefreshSecret string        `yaml:"refresh_secret" env:"MEDIAUTH_JWT_REFRESH_SECRET"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl" env:"MEDIAUTH_JWT_REFRESH_TTL" env-default:"168h"`
	Issuer        string        `yaml:"issuer" env:"MEDIAUTH_JWT_ISSUER" env-default:"mediauth"`
	Leeway        time.Duration `yaml:"leeway" env:"MEDIAUTH_JWT_LEEWAY" env-default:"0s"`
}

type Password struct {
	Algorithm      string `yaml:"algorithm" env:"MEDIAUTH_PASSWORD_ALGORITHM" env-default:"argon2id"`
	Memory         uint32 `yaml:"memory_kib" env:"MEDIAUTH_PASSWORD_MEMORY_KIB" env-default:"65536"`
	Time           uint32 `yaml:"time" env:"MEDIAUTH_PASSWORD_TIME" env-default:"3"`
	Parallelism    uint8  `yaml:"parallelism" env:"MEDIAUTH_PASSWORD_PARALLELISM" env-default:"2"`
	SaltLength     uint32 `yaml:"salt_length" env:"MEDIAUTH_PASSWORD_SALT_LENGTH" env-default:"16"`
	KeyLength      uint32 `yaml:"key_length" env:"MEDIAUTH_PASSWORD_KEY_LENGTH" env-default:"32"`
	BcryptCost     int    `yaml:"bcrypt_cost" env:"MEDIAUTH_PASSWORD_BCRYPT_COST" env-default:"10"`
	MinLength      int    `yaml:"min_length" env:"MEDIAUTH_PASSWORD_MIN_LENGTH" env-default:"1"`
	MaxLength      int    `yaml:"max_length" env:"MEDIAUTH_PASSWORD_MAX_LENGTH" env-default:"1024"`
	UpgradeOnLogin bool   `yaml:"upgrade_on_login" env:"MEDIAUTH_PASSWORD_UPGRADE_ON_LOGIN" env-default:"false"`
}

type PasswordReset struct {
	TTL             time.Duration `yaml:"ttl" env:"MEDIAUTH_RESET_TTL" env-default:"15m"`
	LinkBaseURL     string        `yaml:"link_base_url" env:"MEDIAUTH_RESET_LINK_BASE_URL" env-default:"http://localhost:8000/api/v1/resetpassword/"`
	Subject         string        `yaml:"subject" env:"MEDIAUTH_RESET_SUBJECT" env-default:"Forget Password link"`
	UniformResponse bool          `yaml:"uniform_response" env:"MEDIAUTH_RESET_UNIFORM_RESPONSE" env-default:"false"`
}

type Session struct {
	RevokeOnPasswordChange bool `yaml:"revoke_on_password_change" env:"MEDIAUTH_REVOKE_ON_PASSWORD_CHANGE" env-default:"false"`
	RevokeOnPasswordReset  bool `yaml:"revoke_on_password_reset" env:"MEDIAUTH_REVOKE_ON_PASSWORD_RESET" env-default:"false"`
}

type Audit struct {
	Enabled    bool `yaml:"enabled" env:"MEDIAUTH_AUDIT_ENABLED" env-default:"false"`
	BufferSize int  `yaml:"buffer_size" env:"MEDIAUTH_AUDIT_BUFFER_SIZE" env-default:"1024"`
	DropIfFull bool `yaml:"drop_if_full" env:"MEDIAUTH_AUDIT_DROP_IF_FULL" env-default:"true"`
}

type Metrics struct {
	Enabled           bool `yaml:"enabled" env:"MEDIAUTH_METRICS_ENABLED" env-default:"true"`
	LatencyHistograms bool `yaml:"latency_histograms" env:"MEDIAUTH_METRICS_LATENCY_HISTOGRAMS" env-default:"false"`
}

// Store selects the credential backend.
type Store struct {
	Driver      string `yaml:"driver" env:"MEDIAUTH_STORE_DRIVER" env-default:"redis" validate:"oneof=redis postgres"`
	RedisAddr   string `yaml:"redis_addr" env:"MEDIAUTH_REDIS_ADDR"`
	RedisPrefix string `yaml:"redis_prefix" env:"MEDIAUTH_REDIS_PREFIX" env-default:"mediauth"`
	PostgresURL string `yaml:"postgres_url" env:"MEDIAUTH_POSTGRES_URL"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"MEDIAUTH_SMTP_HOST"`
	Port     int    `yaml:"port" env:"MEDIAUTH_SMTP_PORT" env-default:"587" validate:"min=1,max=65535"`
	Username string `yaml:"username" env:"MEDIAUTH_SMTP_USERNAME"`
	Password string `yaml:"password" env:"MEDIAUTH_SMTP_PASSWORD"`
	From     string `yaml:"from" env:"MEDIAUTH_SMTP_FROM"`
}

type Queue struct {
	URL  string `yaml:"url" env:"MEDIAUTH_AMQP_URL"`
	Name string `yaml:"name" env:"MEDIAUTH_AMQP_QUEUE" env-default:"mediauth.mail"`
}

type Log struct {
	Level  string `yaml:"level" env:"MEDIAUTH_LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"MEDIAUTH_LOG_FORMAT" env-default:"text" validate:"oneof=text json"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Load reads path and applies environment overrides. An empty path reads
// the environment only.
func Load(path string) (*File, error) {
	const op = "config.Load"

	var f File
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(&f)
	} else {
		err = cleanenv.ReadConfig(path, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &f, nil
}

// EngineConfig converts the file into a validated mediauth.Config.
func (f *File) EngineConfig() (mediauth.Config, error) {
	cfg := mediauth.DefaultConfig()

	cfg.JWT.AccessSecret = []byte(f.JWT.AccessSecret)
	cfg.JWT.AccessTTL = f.JWT.AccessTTL
	cfg.JWT.RefreshSecret = []byte(f.JWT.RefreshSecret)
	cfg.JWT.RefreshTTL = f.JWT.RefreshTTL
	cfg.JWT.Issuer = f.JWT.Issuer
	cfg.JWT.Leeway = f.JWT.Leeway

	cfg.Password.Algorithm = mediauth.PasswordAlgorithm(f.Password.Algorithm)
	cfg.Password.Memory = f.Password.Memory
	cfg.Password.Time = f.Password.Time
	cfg.Password.Parallelism = f.Password.Parallelism
	cfg.Password.SaltLength = f.Password.SaltLength
	cfg.Password.KeyLength = f.Password.KeyLength
	cfg.Password.BcryptCost = f.Password.BcryptCost
	cfg.Password.MinLength = f.Password.MinLength
	cfg.Password.MaxLength = f.Password.MaxLength
	cfg.Password.UpgradeOnLogin = f.Password.UpgradeOnLogin

	cfg.PasswordReset.ResetTTL = f.PasswordReset.TTL
	cfg.PasswordReset.LinkBaseURL = f.PasswordReset.LinkBaseURL
	cfg.PasswordReset.Subject = f.PasswordReset.Subject
	cfg.PasswordReset.UniformResponse = f.PasswordReset.UniformResponse

	cfg.Session.RevokeOnPasswordChange = f.Session.RevokeOnPasswordChange
	cfg.Session.RevokeOnPasswordReset = f.Session.RevokeOnPasswordReset

	cfg.Audit.Enabled = f.Audit.Enabled
	cfg.Audit.BufferSize = f.Audit.BufferSize
	cfg.Audit.DropIfFull = f.Audit.DropIfFull

	cfg.Metrics.Enabled = f.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = f.Metrics.LatencyHistograms

	if err := cfg.Validate(); err != nil {
		return mediauth.Config{}, fmt.Errorf("config.EngineConfig: %w", err)
	}
	return cfg, nil
}

package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretBytes is the minimum HMAC secret length accepted for either purpose.
const MinSecretBytes = 32

// ErrInvalidToken is the only error Verify returns. Expired, tampered,
// mis-purposed and malformed tokens are deliberately indistinguishable.
var ErrInvalidToken = errors.New("invalid token")

// Purpose distinguishes access tokens from refresh tokens. It is carried
// in the "typ" claim and checked on verification.
type Purpose string

const (
	// PurposeAccess marks short-lived tokens presented on authenticated calls.
	PurposeAccess Purpose = "access"
	// PurposeRefresh marks long-lived tokens presented only to the refresh operation.
	PurposeRefresh Purpose = "refresh"
)

// Config configures a Codec. Access and refresh tokens are signed with
// independent secrets and expire independently.
type Config struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration

	// Now overrides the clock for issuance and verification. Nil means time.Now.
	Now func() time.Time
}

// IdentityClaims are embedded in access tokens so downstream consumers can
// read identity without a store lookup.
type IdentityClaims struct {
	Username    string
	Email       string
	DisplayName string
}

// Claims is the decoded payload of a verified token. Refresh tokens carry
// only the registered claims and the purpose.
type Claims struct {
	Purpose     Purpose `json:"typ"`
	Username    string  `json:"username,omitempty"`
	Email       string  `json:"email,omitempty"`
	DisplayName string  `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// AccountID returns the account identifier the token was issued to.
func (c *Claims) AccountID() string {
	return c.Subject
}

// TokenPair is the access and refresh token issued together on login and
// rotation. Both are opaque to callers.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Codec signs and verifies HS256 access and refresh tokens.
type Codec struct {
	config Config
}

// NewCodec validates cfg and returns a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, errors.New("refresh TTL must not be shorter than access TTL")
	}
	if len(cfg.AccessSecret) < MinSecretBytes {
		return nil, fmt.Errorf("access secret must be at least %d bytes", MinSecretBytes)
	}
	if len(cfg.RefreshSecret) < MinSecretBytes {
		return nil, fmt.Errorf("refresh secret must be at least %d bytes", MinSecretBytes)
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Codec{config: cfg}, nil
}

// IssueAccess signs an access token for accountID carrying identity claims.
// It returns the token and its expiry.
func (c *Codec) IssueAccess(accountID string, identity IdentityClaims) (string, time.Time, error) {
	claims := c.registered(accountID, c.config.AccessTTL)
	claims.Purpose = PurposeAccess
	claims.Username = identity.Username
	claims.Email = identity.Email
	claims.DisplayName = identity.DisplayName
	return c.sign(claims, c.config.AccessSecret)
}

// IssueRefresh signs a refresh token for accountID. Only the account
// identifier is embedded.
func (c *Codec) IssueRefresh(accountID string) (string, time.Time, error) {
	claims := c.registered(accountID, c.config.RefreshTTL)
	claims.Purpose = PurposeRefresh
	return c.sign(claims, c.config.RefreshSecret)
}

// IssuePair issues a fresh access and refresh token for accountID.
func (c *Codec) IssuePair(accountID string, identity IdentityClaims) (TokenPair, error) {
	access, accessExp, err := c.IssueAccess(accountID, identity)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := c.IssueRefresh(accountID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify checks signature, expiry, issuer and purpose of token. Any failure
// yields ErrInvalidToken.
func (c *Codec) Verify(token string, purpose Purpose) (*Claims, error) {
	var secret []byte
	switch purpose {
	case PurposeAccess:
		secret = c.config.AccessSecret
	case PurposeRefresh:
		secret = c.config.RefreshSecret
	default:
		return nil, ErrInvalidToken
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.config.Now),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (c *Codec) registered(accountID string, ttl time.Duration) Claims {
	now := c.config.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    c.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
}

func (c *Codec) sign(claims Claims, secret []byte) (string, time.Time, error) {
	if claims.Subject == "" {
		return "", time.Time{}, errors.New("account id is required")
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

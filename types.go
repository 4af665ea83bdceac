package mediauth

import (
	"io"
	"log/slog"

	"github.com/MrEthical07/mediauth/account"
	internalaudit "github.com/MrEthical07/mediauth/internal/audit"
	"github.com/MrEthical07/mediauth/jwt"
	"github.com/MrEthical07/mediauth/mailer"
)

// Account is the persisted credential record handed to and from a
// CredentialStore. It carries secrets; callers outside the store should use
// PublicAccount.
type Account = account.Account

// ResetToken is the stored digest and expiry of a pending password reset.
type ResetToken = account.ResetToken

// PublicAccount is the account view safe to return to clients.
type PublicAccount = account.Public

// CredentialStore persists accounts. See [account.Store] for the per-method
// contract; concrete implementations live in store/redisstore and
// store/pgstore.
type CredentialStore = account.Store

// TokenPair is an access token and its rotating refresh token.
type TokenPair = jwt.TokenPair

// Claims are the verified contents of an access token.
type Claims = jwt.Claims

// Mailer delivers outbound reset mail.
type Mailer = mailer.Mailer

// MailMessage is one outbound mail.
type MailMessage = mailer.Message

// MailerFunc adapts a function to Mailer.
type MailerFunc = mailer.Func

// RegisterInput is the input to Engine.Register.
type RegisterInput = account.Registration

// LoginResult is returned by Engine.Login.
type LoginResult struct {
	Tokens  TokenPair     `json:"tokens"`
	Account PublicAccount `json:"account"`
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives AuditEvent values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based AuditSink.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON-encoded event per line to an io.Writer.
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink writes audit events as structured log records.
type SlogSink = internalaudit.SlogSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}

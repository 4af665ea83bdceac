package flows

import (
	"time"

	"github.com/MrEthical07/mediauth/account"
	"github.com/MrEthical07/mediauth/internal"
	"github.com/MrEthical07/mediauth/jwt"
)

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Register       RegisterDeps
	Login          LoginDeps
	Refresh        RefreshDeps
	Validate       ValidateDeps
	Logout         LogoutDeps
	ChangePassword ChangePasswordDeps
	RequestReset   RequestResetDeps
	CompleteReset  CompleteResetDeps
}

// PasswordHasher is the subset of password.Hasher the flows use.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
	NeedsUpgrade(encoded string) bool
}

// TokenCodec is the subset of jwt.Codec the flows use.
type TokenCodec interface {
	IssuePair(accountID string, identity jwt.IdentityClaims) (jwt.TokenPair, error)
	Verify(token string, purpose jwt.Purpose) (*jwt.Claims, error)
}

// SecretGenerator produces single-use reset secrets.
type SecretGenerator interface {
	Generate() (internal.ResetSecret, error)
}

func identityOf(acct account.Account) jwt.IdentityClaims {
	return jwt.IdentityClaims{
		Username:    acct.Username,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
	}
}

func nowOr(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}

package flows

import (
	"github.com/MrEthical07/mediauth/jwt"
)

// ValidateDeps captures access-token validation dependencies.
type ValidateDeps struct {
	Tokens TokenCodec
}

// ValidateResult carries verified claims. Missing is set for an empty token.
type ValidateResult struct {
	Claims  *jwt.Claims
	Missing bool
	Err     error
}

// RunValidate verifies an access token without touching the store.
func RunValidate(token string, deps ValidateDeps) ValidateResult {
	if token == "" {
		return ValidateResult{Missing: true}
	}
	claims, err := deps.Tokens.Verify(token, jwt.PurposeAccess)
	if err != nil {
		return ValidateResult{Err: err}
	}
	return ValidateResult{Claims: claims}
}

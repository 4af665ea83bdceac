// Package jwt issues and verifies the HS256 access and refresh tokens used by
// the session lifecycle.
//
// Access tokens embed the account identifier plus username, email and display
// name. Refresh tokens embed only the account identifier. Each purpose has its
// own signing secret and lifetime, and the purpose is checked on verification
// so a refresh token can never be replayed as an access token.
//
// Verification collapses every failure into [ErrInvalidToken]; callers cannot
// tell an expired token from a forged one.
package jwt

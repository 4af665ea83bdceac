package password

import "errors"

var (
	// ErrEmptyPassword is returned by Hash when the plaintext is empty.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrPasswordTooLong is returned by Hash when the plaintext exceeds the hasher's limit.
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
)

// Hasher is the one-way credential transform used by the engine.
//
// Verify never returns an error: malformed or foreign hashes simply fail to
// verify. NeedsUpgrade reports whether a stored hash was produced with
// weaker parameters than the hasher is currently configured with.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
	NeedsUpgrade(encoded string) bool
}

var (
	_ Hasher = (*Argon2)(nil)
	_ Hasher = (*Bcrypt)(nil)
)

package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
)

// ResetSecretBytes is the entropy drawn for every reset secret.
const ResetSecretBytes = 20

// ResetSecret is a freshly generated single-use secret. Plaintext is handed
// to the account owner once; only Hash is persisted.
type ResetSecret struct {
	Plaintext string
	Hash      string
}

// ResetSecretGenerator draws reset secrets from an entropy source.
type ResetSecretGenerator struct {
	rand io.Reader
}

// NewResetSecretGenerator returns a generator reading from r. A nil r uses crypto/rand.
func NewResetSecretGenerator(r io.Reader) *ResetSecretGenerator {
	if r == nil {
		r = rand.Reader
	}
	return &ResetSecretGenerator{rand: r}
}

// Generate returns a hex-rendered random secret and its sha256 digest.
func (g *ResetSecretGenerator) Generate() (ResetSecret, error) {
	raw := make([]byte, ResetSecretBytes)
	if _, err := io.ReadFull(g.rand, raw); err != nil {
		return ResetSecret{}, err
	}
	plaintext := hex.EncodeToString(raw)
	return ResetSecret{Plaintext: plaintext, Hash: HashResetSecret(plaintext)}, nil
}

// HashResetSecret is the fast, deterministic digest stored in place of a
// reset secret.
func HashResetSecret(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// MatchResetSecret recomputes the digest of plaintext and compares it with
// storedHash in constant time.
func MatchResetSecret(plaintext, storedHash string) bool {
	if plaintext == "" || storedHash == "" {
		return false
	}
	computed := HashResetSecret(plaintext)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// ErrMalformedResetSecret reports a presented secret that could never have
// been produced by Generate.
var ErrMalformedResetSecret = errors.New("malformed reset secret")

// CheckResetSecretShape rejects secrets that are not ResetSecretBytes of
// lowercase hex, so obviously bogus input never reaches the store.
func CheckResetSecretShape(plaintext string) error {
	if len(plaintext) != hex.EncodedLen(ResetSecretBytes) {
		return ErrMalformedResetSecret
	}
	for i := 0; i < len(plaintext); i++ {
		c := plaintext[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return ErrMalformedResetSecret
		}
	}
	return nil
}

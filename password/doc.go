// Package password implements credential hashing and verification.
//
// Two algorithms are provided behind the [Hasher] interface:
//
//   - [Argon2]: Argon2id in PHC string format, the default.
//   - [Bcrypt]: standard $2a$ hashes, kept for stores migrated from older deployments.
//
// Argon2 hashes are encoded as:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>
//
// Salt and key use unpadded standard base64.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password length policy is
// enforced by the engine, and storage of hashes belongs to the credential store.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other mediauth package.
//   - Log plaintext passwords.
package password

// Package mediauth is the credential and session engine of a media
// application: account registration, login with a single active refresh
// token per account, access token validation, logout, password change and
// mailed password reset.
//
// Engine methods are safe for concurrent use once [Builder.Build] returns.
//
// # Architecture boundaries
//
// mediauth is the public surface. It exposes [Engine], [Builder], [Config],
// the error sentinels and [Kind] classification, and aliases for the value
// types defined in account/, jwt/ and mailer/. Flow orchestration lives in
// internal/flows and audit dispatch in internal/audit; neither is exported.
// Storage is pluggable through [CredentialStore]: store/redisstore and
// store/pgstore are the shipped implementations.
//
// # What this package must NOT do
//
//   - Return or log password hashes, refresh tokens or reset secrets.
//   - Import a store or mail transport package (they import mediauth).
//   - Perform I/O outside Engine methods.
//
// # Concurrency contract
//
// Refresh rotation and reset consumption are compare-and-swap operations
// in the store. Of N concurrent refreshes presenting the same token exactly
// one succeeds; the rest see [ErrRefreshReused].
package mediauth

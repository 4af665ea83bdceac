// Package redisstore implements mediauth.CredentialStore on Redis.
//
// Each account is one hash under "<prefix>:acct:<id>". Unique lookups go
// through string index keys:
//
//	<prefix>:uname:<username>  -> id
//	<prefix>:email:<email>     -> id
//	<prefix>:reset:<digest>    -> id   (expires with the reset token)
//
// # Atomicity
//
// Create, SwapRefreshToken and every single-account write run as Lua
// scripts, so index keys and the account hash never disagree and refresh
// rotation is a true compare-and-swap. ConsumeResetToken uses an optimistic
// WATCH/MULTI transaction retried a bounded number of times on conflict.
//
// # What this package must NOT do
//
//   - Store plaintext reset secrets. Only digests reach Redis.
//   - Expose the raw client or key layout through its API.
package redisstore

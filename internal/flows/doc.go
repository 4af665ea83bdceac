// Package flows contains the orchestration behind every Engine operation.
//
// Each Run function (RunRegister, RunLogin, RunRefresh, RunRequestPasswordReset
// and so on) takes a typed dependency struct and returns a result carrying a
// failure kind. The root package maps kinds to its public error sentinels,
// metrics and audit events.
//
// # Architecture boundaries
//
// Flows call the credential store, password hasher, token codec, reset
// secret generator and mailer through narrow interfaces. They never own
// those resources and never log on their own except through an injected
// Warn callback.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the mediauth root package.
//   - Return root sentinels; classification belongs to the Engine.
package flows

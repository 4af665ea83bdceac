// Package internal contains helpers private to mediauth, chiefly the
// reset-secret generator and its digest.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function flow orchestrators for every Engine operation
//
// # What this package must NOT do
//
//   - Export types that appear in the public mediauth API.
//   - Be imported by any package outside the mediauth module.
package internal

// Package pgstore is a PostgreSQL credential store built on pgx.
//
// All accounts live in one table, created by the embedded migrations (see
// Migrator). Username and email carry unique indexes; duplicate inserts are
// reported as account.ErrExists.
//
// Refresh rotation and reset consumption are single conditional UPDATE
// statements, so the row lock serializes concurrent callers and exactly one
// of them observes a matching row. A zero row count is followed by an
// existence probe to tell a mismatch apart from a missing account.
//
// Driver and network failures wrap mediauth.ErrStoreUnavailable and carry an
// oops code naming the failed operation.
package pgstore

package pgstore

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMigrate struct {
	upErr      error
	downErr    error
	version    uint
	dirty      bool
	versionErr error
	closed     bool
}

func (m *mockMigrate) Up() error   { return m.upErr }
func (m *mockMigrate) Down() error { return m.downErr }
func (m *mockMigrate) Version() (uint, bool, error) {
	return m.version, m.dirty, m.versionErr
}
func (m *mockMigrate) Close() (error, error) {
	m.closed = true
	return nil, nil
}

func TestNewMigratorInvalidURL(t *testing.T) {
	_, err := NewMigrator("badscheme://localhost:5432/testdb")
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "MIGRATION_INIT_FAILED", oopsErr.Code())
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/auth", migrateURL("postgres://u:p@db:5432/auth"))
	assert.Equal(t, "pgx5://db/auth", migrateURL("postgresql://db/auth"))
	assert.Equal(t, "pgx5://db/auth", migrateURL("pgx5://db/auth"))
}

func TestMigratorNoChangeIsNotAnError(t *testing.T) {
	m := &Migrator{m: &mockMigrate{upErr: migrate.ErrNoChange, downErr: migrate.ErrNoChange}}
	assert.NoError(t, m.Up())
	assert.NoError(t, m.Down())
}

func TestMigratorUpFailure(t *testing.T) {
	m := &Migrator{m: &mockMigrate{upErr: errors.New("syntax error")}}
	err := m.Up()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "MIGRATION_UP_FAILED", oopsErr.Code())
}

func TestMigratorVersion(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}
	v, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.False(t, dirty)

	m = &Migrator{m: &mockMigrate{version: 1}}
	v, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
}

func TestMigratorClose(t *testing.T) {
	mm := &mockMigrate{}
	require.NoError(t, (&Migrator{m: mm}).Close())
	assert.True(t, mm.closed)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationsFS, "migrations/*.down.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

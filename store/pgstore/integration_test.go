//go:build integration

package pgstore

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/mediauth/account"
)

func integrationStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("MEDIAUTH_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("MEDIAUTH_TEST_DATABASE_URL not set")
	}

	m, err := NewMigrator(dsn)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	ctx := context.Background()
	pool, err := Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return New(pool, Options{})
}

func seed(t *testing.T, s *Store) account.Account {
	t.Helper()
	id := uuid.NewString()
	acct := account.Account{
		ID:           id,
		Username:     "user-" + id[:8],
		Email:        id[:8] + "@example.com",
		PasswordHash: "hash:pw",
		RefreshToken: "rt-0",
	}
	require.NoError(t, s.Create(context.Background(), acct))
	return acct
}

func TestIntegrationDuplicateAccount(t *testing.T) {
	s := integrationStore(t)
	acct := seed(t, s)
	dup := acct
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, s.Create(context.Background(), dup), account.ErrExists)
}

func TestIntegrationConcurrentSwapSingleWinner(t *testing.T) {
	s := integrationStore(t)
	acct := seed(t, s)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.SwapRefreshToken(context.Background(), acct.ID, "rt-0", uuid.NewString()) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestIntegrationResetConsumedOnce(t *testing.T) {
	s := integrationStore(t)
	acct := seed(t, s)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.SetResetToken(ctx, acct.ID, account.ResetToken{Hash: "d-" + acct.ID, ExpiresAt: now.Add(time.Minute)}))
	found, err := s.FindByResetToken(ctx, "d-"+acct.ID, now)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, found.ID)

	require.NoError(t, s.ConsumeResetToken(ctx, acct.ID, "d-"+acct.ID, "hash:new", now))
	assert.ErrorIs(t, s.ConsumeResetToken(ctx, acct.ID, "d-"+acct.ID, "hash:other", now), account.ErrResetMismatch)

	after, err := s.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash:new", after.PasswordHash)
	assert.Nil(t, after.Reset)
}

package mediauth_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MrEthical07/mediauth"
)

func TestRefreshConcurrencySingleWinner(t *testing.T) {
	h := newHarness(t, nil)
	acct := h.register(t, "alice", "alice@example.com")
	res := h.login(t, "alice", testPassword)

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	start := make(chan struct{})
	results := make(chan error, n)
	winners := make(chan mediauth.TokenPair, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			<-start
			pair, err := h.engine.Refresh(context.Background(), res.Tokens.RefreshToken)
			if err == nil {
				winners <- pair
			}
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)
	close(winners)

	success := 0
	fail := 0
	for err := range results {
		if err == nil {
			success++
			continue
		}
		if errors.Is(err, mediauth.ErrRefreshReused) {
			fail++
			continue
		}
		t.Fatalf("unexpected refresh error: %v", err)
	}

	if success != 1 {
		t.Fatalf("expected exactly one refresh success, got %d", success)
	}
	if fail != n-1 {
		t.Fatalf("expected %d refresh failures, got %d", n-1, fail)
	}

	winner := <-winners
	stored, err := h.store.FindByID(context.Background(), acct.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.RefreshToken != winner.RefreshToken {
		t.Fatal("stored refresh token must be the winner's")
	}
	if got := h.engine.MetricsSnapshot().Counters[mediauth.MetricRefreshReuseDetected]; got != n-1 {
		t.Fatalf("expected %d reuse detections, got %d", n-1, got)
	}
}

func TestPasswordResetConcurrencySingleUse(t *testing.T) {
	h := newHarness(t, nil)
	h.register(t, "alice", "alice@example.com")
	if err := h.engine.RequestPasswordReset(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	secret := h.mail.lastSecret(t)

	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			results <- h.engine.CompletePasswordReset(context.Background(), secret, "new-password", "new-password")
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	for err := range results {
		switch {
		case err == nil:
			success++
		case errors.Is(err, mediauth.ErrPasswordResetInvalid):
		default:
			t.Fatalf("unexpected reset error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly one reset success, got %d", success)
	}
}

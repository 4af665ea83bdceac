package main

import (
	"context"
	"crypto/rand"
	"fmt"
	mrand "math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrEthical07/mediauth"
	"github.com/MrEthical07/mediauth/mailer"
	"github.com/MrEthical07/mediauth/store/redisstore"
)

type loadtestOptions struct {
	accounts    int
	concurrency int
	ops         int
	raceWidth   int
	redisAddr   string
	prefix      string
}

func newLoadtestCmd() *cobra.Command {
	var opts loadtestOptions

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Exercise login, validate and refresh against a Redis store",
		Long: `Register accounts, then run validate and refresh phases plus a
refresh race in which several workers present the same refresh token at once.
Exactly one of them must win. Without a Redis address an in-process miniredis
is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoadtest(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.accounts, "accounts", 1000, "number of accounts to register")
	f.IntVar(&opts.concurrency, "concurrency", 64, "number of concurrent workers")
	f.IntVar(&opts.ops, "ops", 20000, "operations per phase")
	f.IntVar(&opts.raceWidth, "race-width", 8, "workers racing on each refresh token")
	f.StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	f.StringVar(&opts.prefix, "prefix", "mediauth-loadtest", "redis key prefix")
	return cmd
}

type loadAccount struct {
	mu      sync.Mutex
	id      string
	access  string
	refresh string
}

func runLoadtest(cmd *cobra.Command, opts loadtestOptions) error {
	if opts.accounts <= 0 || opts.concurrency <= 0 || opts.ops <= 0 || opts.raceWidth < 2 {
		return fmt.Errorf("accounts, concurrency and ops must be > 0 and race-width >= 2")
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	client, cleanup, err := openRedis(opts.redisAddr)
	if err != nil {
		return err
	}
	defer cleanup()
	fmt.Fprintf(out, "using redis at %s\n", client.Options().Addr)

	engine, err := loadtestEngine(redisstore.New(client, redisstore.Options{Prefix: opts.prefix}))
	if err != nil {
		return err
	}
	defer engine.Close()

	accounts, err := seedAccounts(ctx, engine, opts.accounts)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "registered and logged in %d accounts\n", len(accounts))

	validate := runPhase(opts.ops, opts.concurrency, 7919, func(r *mrand.Rand) error {
		acct := accounts[r.Intn(len(accounts))]
		acct.mu.Lock()
		token := acct.access
		acct.mu.Unlock()
		_, err := engine.ValidateAccess(ctx, token)
		return err
	})

	refresh := runPhase(opts.ops, opts.concurrency, 6151, func(r *mrand.Rand) error {
		acct := accounts[r.Intn(len(accounts))]
		acct.mu.Lock()
		defer acct.mu.Unlock()
		pair, err := engine.Refresh(ctx, acct.refresh)
		if err != nil {
			return err
		}
		acct.access, acct.refresh = pair.AccessToken, pair.RefreshToken
		return nil
	})

	violations := runRefreshRace(ctx, engine, accounts, opts.raceWidth)

	fmt.Fprintln(out, "---- results ----")
	printStats(cmd, "validate", validate)
	printStats(cmd, "refresh", refresh)
	fmt.Fprintf(out, "race: tokens=%d width=%d violations=%d\n", len(accounts), opts.raceWidth, violations)
	if violations > 0 {
		return fmt.Errorf("refresh race: %d tokens did not have exactly one winner", violations)
	}
	return nil
}

func openRedis(addr string) (*redis.Client, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

// loadtestEngine uses bcrypt at its minimum cost so the run measures the
// token and store paths rather than password hashing.
func loadtestEngine(store mediauth.CredentialStore) (*mediauth.Engine, error) {
	cfg := mediauth.DefaultConfig()
	cfg.JWT.AccessSecret = randomSecret()
	cfg.JWT.RefreshSecret = randomSecret()
	cfg.Password.Algorithm = mediauth.PasswordBcrypt
	cfg.Password.BcryptCost = bcrypt.MinCost
	cfg.Metrics.EnableLatencyHistograms = true

	return mediauth.New().
		WithConfig(cfg).
		WithStore(store).
		WithMailer(mailer.Func(func(context.Context, mailer.Message) error { return nil })).
		Build()
}

func randomSecret() []byte {
	b := make([]byte, 48)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

func seedAccounts(ctx context.Context, engine *mediauth.Engine, n int) ([]*loadAccount, error) {
	runID := time.Now().UnixNano()
	accounts := make([]*loadAccount, n)
	for i := range accounts {
		username := fmt.Sprintf("load%d-%d", runID, i)
		pub, err := engine.Register(ctx, mediauth.RegisterInput{
			Username:    username,
			Email:       username + "@loadtest.local",
			DisplayName: "Load Test",
			Password:    "load-test-password",
		})
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", username, err)
		}
		res, err := engine.Login(ctx, username, "load-test-password")
		if err != nil {
			return nil, fmt.Errorf("login %s: %w", username, err)
		}
		accounts[i] = &loadAccount{id: pub.ID, access: res.Tokens.AccessToken, refresh: res.Tokens.RefreshToken}
	}
	return accounts, nil
}

// runRefreshRace presents each account's current refresh token from width
// goroutines at once and counts tokens without exactly one winner.
func runRefreshRace(ctx context.Context, engine *mediauth.Engine, accounts []*loadAccount, width int) int {
	violations := 0
	for _, acct := range accounts {
		var (
			wg    sync.WaitGroup
			wins  atomic.Int32
			start = make(chan struct{})
		)
		for w := 0; w < width; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if _, err := engine.Refresh(ctx, acct.refresh); err == nil {
					wins.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()
		if wins.Load() != 1 {
			violations++
		}
	}
	return violations
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func runPhase(ops, concurrency int, seed int64, op func(r *mrand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    atomic.Int64
		failures  atomic.Int64
		mu        sync.Mutex
		latencies = make([]time.Duration, 0, ops)
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := mrand.New(mrand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			local := make([]time.Duration, 0, ops/concurrency+1)
			for cursor.Add(1) <= int64(ops) {
				t0 := time.Now()
				if err := op(r); err != nil {
					failures.Add(1)
				}
				local = append(local, time.Since(t0))
			}
			mu.Lock()
			latencies = append(latencies, local...)
			mu.Unlock()
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures.Load())
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(cmd *cobra.Command, name string, s phaseStats) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/MrEthical07/mediauth"
	"github.com/MrEthical07/mediauth/account"
)

// Pool is the subset of *pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const selectAccount = `SELECT id, username, email, display_name, password_hash, refresh_token,
	reset_hash, reset_expires_at, created_at, updated_at FROM accounts`

// Options tunes a Store.
type Options struct {
	Now func() time.Time
}

// Store is a PostgreSQL-backed credential store.
type Store struct {
	pool Pool
	now  func() time.Time
}

var _ account.Store = (*Store)(nil)

// New returns a Store issuing queries on pool.
func New(pool Pool, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{pool: pool, now: opts.Now}
}

// Connect opens a pool for dsn and pings it once.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("PG_CONNECT_FAILED").Wrap(unavailable(err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("PG_PING_FAILED").Wrap(unavailable(err))
	}
	return pool, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", mediauth.ErrStoreUnavailable, err)
}

func queryFailed(op string, err error) error {
	return oops.Code("PG_QUERY_FAILED").With("operation", op).Wrap(unavailable(err))
}

func (s *Store) Create(ctx context.Context, acct account.Account) error {
	if acct.ID == "" || acct.Username == "" || acct.Email == "" || acct.PasswordHash == "" {
		return oops.Code("INVALID_ACCOUNT").Errorf("pgstore: account id, username, email and password hash are required")
	}
	created := acct.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	updated := acct.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, username, email, display_name, password_hash, refresh_token, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		acct.ID, acct.Username, acct.Email, acct.DisplayName, acct.PasswordHash, acct.RefreshToken,
		created.UTC(), updated.UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return account.ErrExists
		}
		return queryFailed("create account", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (account.Account, error) {
	if id == "" {
		return account.Account{}, account.ErrNotFound
	}
	return s.findOne(ctx, "find account by id", selectAccount+` WHERE id = $1`, id)
}

// FindByIdentifier matches identifier against both unique columns. Emails
// always contain '@' and usernames never do, so at most one row matches.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (account.Account, error) {
	if identifier == "" {
		return account.Account{}, account.ErrNotFound
	}
	return s.findOne(ctx, "find account by identifier",
		selectAccount+` WHERE username = $1 OR email = $1 LIMIT 1`, identifier)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (account.Account, error) {
	if email == "" {
		return account.Account{}, account.ErrNotFound
	}
	return s.findOne(ctx, "find account by email", selectAccount+` WHERE email = $1`, email)
}

func (s *Store) FindByResetToken(ctx context.Context, hash string, now time.Time) (account.Account, error) {
	if hash == "" {
		return account.Account{}, account.ErrNotFound
	}
	return s.findOne(ctx, "find account by reset token",
		selectAccount+` WHERE reset_hash = $1 AND reset_expires_at > $2`, hash, now.UTC())
}

func (s *Store) findOne(ctx context.Context, op, query string, args ...any) (account.Account, error) {
	var (
		acct      account.Account
		resetHash pgtype.Text
		resetExp  pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&acct.ID, &acct.Username, &acct.Email, &acct.DisplayName, &acct.PasswordHash, &acct.RefreshToken,
		&resetHash, &resetExp, &acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, queryFailed(op, err)
	}
	if resetHash.Valid && resetExp.Valid {
		acct.Reset = &account.ResetToken{Hash: resetHash.String, ExpiresAt: resetExp.Time.UTC()}
	}
	return acct, nil
}

func (s *Store) SetRefreshToken(ctx context.Context, id, token string) error {
	return s.updateOne(ctx, "set refresh token",
		`UPDATE accounts SET refresh_token = $2, updated_at = $3 WHERE id = $1`, id, token, s.now().UTC())
}

// SwapRefreshToken rotates presented to next in a single UPDATE. An empty
// presented token never matches.
func (s *Store) SwapRefreshToken(ctx context.Context, id, presented, next string) error {
	if presented == "" {
		return account.ErrRefreshMismatch
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET refresh_token = $3, updated_at = $4
		 WHERE id = $1 AND refresh_token = $2`,
		id, presented, next, s.now().UTC(),
	)
	if err != nil {
		return queryFailed("swap refresh token", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return s.missingOr(ctx, id, account.ErrRefreshMismatch)
}

func (s *Store) ClearRefreshToken(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE accounts SET refresh_token = '', updated_at = $2 WHERE id = $1 AND refresh_token <> ''`,
		id, s.now().UTC())
	if err != nil {
		return queryFailed("clear refresh token", err)
	}
	return nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	if hash == "" {
		return oops.Code("INVALID_PASSWORD_HASH").Errorf("pgstore: empty password hash")
	}
	return s.updateOne(ctx, "update password hash",
		`UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, hash, s.now().UTC())
}

func (s *Store) SetResetToken(ctx context.Context, id string, reset account.ResetToken) error {
	if reset.Hash == "" {
		return oops.Code("INVALID_RESET_TOKEN").Errorf("pgstore: empty reset hash")
	}
	return s.updateOne(ctx, "set reset token",
		`UPDATE accounts SET reset_hash = $2, reset_expires_at = $3, updated_at = $4 WHERE id = $1`,
		id, reset.Hash, reset.ExpiresAt.UTC(), s.now().UTC())
}

func (s *Store) ClearResetToken(ctx context.Context, id string) error {
	return s.updateOne(ctx, "clear reset token",
		`UPDATE accounts SET reset_hash = NULL, reset_expires_at = NULL, updated_at = $2 WHERE id = $1`,
		id, s.now().UTC())
}

// ConsumeResetToken writes passwordHash and clears the reset columns in one
// UPDATE guarded by the stored digest and expiry.
func (s *Store) ConsumeResetToken(ctx context.Context, id, hash, passwordHash string, now time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts
		 SET password_hash = $3, reset_hash = NULL, reset_expires_at = NULL, updated_at = $5
		 WHERE id = $1 AND reset_hash = $2 AND reset_expires_at > $4`,
		id, hash, passwordHash, now.UTC(), s.now().UTC(),
	)
	if err != nil {
		return queryFailed("consume reset token", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return s.missingOr(ctx, id, account.ErrResetMismatch)
}

func (s *Store) updateOne(ctx context.Context, op, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return queryFailed(op, err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}
	return nil
}

// missingOr returns account.ErrNotFound when id does not exist, otherwise mismatch.
func (s *Store) missingOr(ctx context.Context, id string, mismatch error) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return queryFailed("probe account", err)
	}
	if !exists {
		return account.ErrNotFound
	}
	return mismatch
}

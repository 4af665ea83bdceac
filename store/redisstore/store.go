package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"github.com/MrEthical07/mediauth"
	"github.com/MrEthical07/mediauth/account"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "mediauth"

const (
	fieldID             = "id"
	fieldUsername       = "username"
	fieldEmail          = "email"
	fieldDisplayName    = "display_name"
	fieldPasswordHash   = "password_hash"
	fieldRefreshToken   = "refresh_token"
	fieldResetHash      = "reset_hash"
	fieldResetExpiresAt = "reset_expires_at"
	fieldCreatedAt      = "created_at"
	fieldUpdatedAt      = "updated_at"
)

var accountFields = []string{
	fieldID, fieldUsername, fieldEmail, fieldDisplayName, fieldPasswordHash,
	fieldRefreshToken, fieldResetHash, fieldResetExpiresAt, fieldCreatedAt, fieldUpdatedAt,
}

// ErrCorruptRecord is returned when a stored account hash cannot be decoded.
var ErrCorruptRecord = errors.New("redisstore: corrupt account record")

// Options tunes a Store.
type Options struct {
	// Prefix defaults to DefaultPrefix.
	Prefix string
	// ConsumeRetries bounds WATCH conflicts in ConsumeResetToken. Default 5.
	ConsumeRetries uint64
	// ConsumeBackoff is the constant delay between retries. Default 5ms.
	ConsumeBackoff time.Duration
	Now            func() time.Time
}

// Store is a Redis-backed credential store.
type Store struct {
	redis   redis.UniversalClient
	prefix  string
	retries uint64
	backoff time.Duration
	now     func() time.Time
}

var _ account.Store = (*Store)(nil)

// New returns a Store using client.
func New(client redis.UniversalClient, opts Options) *Store {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.ConsumeRetries == 0 {
		opts.ConsumeRetries = 5
	}
	if opts.ConsumeBackoff <= 0 {
		opts.ConsumeBackoff = 5 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		redis:   client,
		prefix:  opts.Prefix,
		retries: opts.ConsumeRetries,
		backoff: opts.ConsumeBackoff,
		now:     opts.Now,
	}
}

func (s *Store) accountKey(id string) string { return s.prefix + ":acct:" + id }
func (s *Store) usernameKey(name string) string { return s.prefix + ":uname:" + name }
func (s *Store) emailKey(email string) string { return s.prefix + ":email:" + email }
func (s *Store) resetPrefix() string { return s.prefix + ":reset:" }
func (s *Store) resetKey(digest string) string { return s.resetPrefix() + digest }

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", mediauth.ErrStoreUnavailable, err)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (s *Store) stamp() string {
	return formatTime(s.now())
}

// Create inserts acct and claims its username and email index keys.
func (s *Store) Create(ctx context.Context, acct account.Account) error {
	if acct.ID == "" || acct.Username == "" || acct.Email == "" || acct.PasswordHash == "" {
		return errors.New("redisstore: account id, username, email and password hash are required")
	}
	created := acct.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	updated := acct.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	args := []any{
		acct.ID,
		fieldID, acct.ID,
		fieldUsername, acct.Username,
		fieldEmail, acct.Email,
		fieldDisplayName, acct.DisplayName,
		fieldPasswordHash, acct.PasswordHash,
		fieldRefreshToken, acct.RefreshToken,
		fieldCreatedAt, formatTime(created),
		fieldUpdatedAt, formatTime(updated),
	}
	res, err := createAccountLua.Run(ctx, s.redis,
		[]string{s.accountKey(acct.ID), s.usernameKey(acct.Username), s.emailKey(acct.Email)},
		args...,
	).Int64()
	if err != nil {
		return unavailable(err)
	}
	if res == 0 {
		return account.ErrExists
	}
	return nil
}

// FindByID loads the account hash for id.
func (s *Store) FindByID(ctx context.Context, id string) (account.Account, error) {
	if id == "" {
		return account.Account{}, account.ErrNotFound
	}
	vals, err := s.redis.HMGet(ctx, s.accountKey(id), accountFields...).Result()
	if err != nil {
		return account.Account{}, unavailable(err)
	}
	return decodeAccount(vals)
}

// FindByIdentifier resolves identifier as an email when it contains '@',
// otherwise as a username, falling back to the other index.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (account.Account, error) {
	first, second := s.usernameKey(identifier), s.emailKey(identifier)
	if strings.Contains(identifier, "@") {
		first, second = second, first
	}
	for _, key := range []string{first, second} {
		acct, err := s.findByIndex(ctx, key)
		if errors.Is(err, account.ErrNotFound) {
			continue
		}
		return acct, err
	}
	return account.Account{}, account.ErrNotFound
}

func (s *Store) FindByEmail(ctx context.Context, email string) (account.Account, error) {
	return s.findByIndex(ctx, s.emailKey(email))
}

// FindByResetToken resolves the reset index and re-checks the stored digest
// and expiry against now.
func (s *Store) FindByResetToken(ctx context.Context, hash string, now time.Time) (account.Account, error) {
	acct, err := s.findByIndex(ctx, s.resetKey(hash))
	if err != nil {
		return account.Account{}, err
	}
	if acct.Reset == nil || acct.Reset.Hash != hash || !acct.Reset.Valid(now) {
		return account.Account{}, account.ErrNotFound
	}
	return acct, nil
}

func (s *Store) findByIndex(ctx context.Context, key string) (account.Account, error) {
	id, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, unavailable(err)
	}
	return s.FindByID(ctx, id)
}

func (s *Store) SetRefreshToken(ctx context.Context, id, token string) error {
	return s.updateFields(ctx, id, fieldRefreshToken, token)
}

// SwapRefreshToken replaces presented with next in one Lua call. A stored
// value other than presented yields account.ErrRefreshMismatch.
func (s *Store) SwapRefreshToken(ctx context.Context, id, presented, next string) error {
	res, err := swapRefreshLua.Run(ctx, s.redis, []string{s.accountKey(id)}, presented, next, s.stamp()).Int64()
	if err != nil {
		return unavailable(err)
	}
	switch res {
	case updatedOK:
		return nil
	case updatedMismatch:
		return account.ErrRefreshMismatch
	default:
		return account.ErrNotFound
	}
}

func (s *Store) ClearRefreshToken(ctx context.Context, id string) error {
	err := s.updateFields(ctx, id, fieldRefreshToken, "")
	if errors.Is(err, account.ErrNotFound) {
		return nil
	}
	return err
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	if hash == "" {
		return errors.New("redisstore: empty password hash")
	}
	return s.updateFields(ctx, id, fieldPasswordHash, hash)
}

func (s *Store) updateFields(ctx context.Context, id string, pairs ...string) error {
	args := make([]any, 0, len(pairs)+2)
	for _, p := range pairs {
		args = append(args, p)
	}
	args = append(args, fieldUpdatedAt, s.stamp())

	res, err := updateFieldsLua.Run(ctx, s.redis, []string{s.accountKey(id)}, args...).Int64()
	if err != nil {
		return unavailable(err)
	}
	if res == updatedMissing {
		return account.ErrNotFound
	}
	return nil
}

// SetResetToken stores reset on the account and replaces any previous reset
// index key. The index key expires together with the token.
func (s *Store) SetResetToken(ctx context.Context, id string, reset account.ResetToken) error {
	if reset.Hash == "" {
		return errors.New("redisstore: empty reset hash")
	}
	ttl := reset.ExpiresAt.Sub(s.now())
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	res, err := setResetLua.Run(ctx, s.redis,
		[]string{s.accountKey(id), s.resetKey(reset.Hash)},
		s.resetPrefix(), id, reset.Hash,
		strconv.FormatInt(reset.ExpiresAt.UnixMilli(), 10),
		strconv.FormatInt(ttl.Milliseconds(), 10),
		s.stamp(),
	).Int64()
	if err != nil {
		return unavailable(err)
	}
	if res == updatedMissing {
		return account.ErrNotFound
	}
	return nil
}

func (s *Store) ClearResetToken(ctx context.Context, id string) error {
	res, err := clearResetLua.Run(ctx, s.redis, []string{s.accountKey(id)}, s.resetPrefix(), s.stamp()).Int64()
	if err != nil {
		return unavailable(err)
	}
	if res == updatedMissing {
		return account.ErrNotFound
	}
	return nil
}

// ConsumeResetToken writes passwordHash and clears the reset fields if the
// stored digest still equals hash and has not expired at now. Concurrent
// writers abort the transaction and it is retried; once the token is gone
// the retry reports account.ErrResetMismatch.
func (s *Store) ConsumeResetToken(ctx context.Context, id, hash, passwordHash string, now time.Time) error {
	key := s.accountKey(id)
	backoff := retry.WithMaxRetries(s.retries, retry.NewConstant(s.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			vals, err := tx.HMGet(ctx, key, fieldID, fieldResetHash, fieldResetExpiresAt).Result()
			if err != nil {
				return unavailable(err)
			}
			if str(vals[0]) == "" {
				return account.ErrNotFound
			}
			reset, err := decodeReset(str(vals[1]), str(vals[2]))
			if err != nil {
				return err
			}
			if reset == nil || reset.Hash != hash || !reset.Valid(now) {
				return account.ErrResetMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, fieldPasswordHash, passwordHash, fieldUpdatedAt, s.stamp())
				pipe.HDel(ctx, key, fieldResetHash, fieldResetExpiresAt)
				pipe.Del(ctx, s.resetKey(hash))
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			return retry.RetryableError(err)
		}
		return err
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, account.ErrNotFound),
		errors.Is(err, account.ErrResetMismatch),
		errors.Is(err, ErrCorruptRecord),
		errors.Is(err, mediauth.ErrStoreUnavailable):
		return err
	default:
		return unavailable(err)
	}
}

func decodeAccount(vals []any) (account.Account, error) {
	if len(vals) != len(accountFields) || str(vals[0]) == "" {
		return account.Account{}, account.ErrNotFound
	}

	acct := account.Account{
		ID:           str(vals[0]),
		Username:     str(vals[1]),
		Email:        str(vals[2]),
		DisplayName:  str(vals[3]),
		PasswordHash: str(vals[4]),
		RefreshToken: str(vals[5]),
	}
	if acct.PasswordHash == "" {
		return account.Account{}, ErrCorruptRecord
	}

	reset, err := decodeReset(str(vals[6]), str(vals[7]))
	if err != nil {
		return account.Account{}, err
	}
	acct.Reset = reset

	if acct.CreatedAt, err = parseTime(str(vals[8])); err != nil {
		return account.Account{}, err
	}
	if acct.UpdatedAt, err = parseTime(str(vals[9])); err != nil {
		return account.Account{}, err
	}
	return acct, nil
}

// decodeReset rejects a record holding only one of the two reset fields.
func decodeReset(hash, expiresAt string) (*account.ResetToken, error) {
	if hash == "" && expiresAt == "" {
		return nil, nil
	}
	if hash == "" || expiresAt == "" {
		return nil, ErrCorruptRecord
	}
	ms, err := strconv.ParseInt(expiresAt, 10, 64)
	if err != nil {
		return nil, ErrCorruptRecord
	}
	return &account.ResetToken{Hash: hash, ExpiresAt: time.UnixMilli(ms).UTC()}, nil
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, ErrCorruptRecord
	}
	return t, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

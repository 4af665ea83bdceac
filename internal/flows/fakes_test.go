package flows

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/mediauth/account"
	"github.com/MrEthical07/mediauth/jwt"
)

var errStoreDown = errors.New("store down")

type memStore struct {
	mu       sync.Mutex
	accounts map[string]account.Account
	failNext error
	clears   int
}

func newMemStore() *memStore {
	return &memStore{accounts: map[string]account.Account{}}
}

func (s *memStore) fail() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *memStore) Create(_ context.Context, acct account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	for _, a := range s.accounts {
		if a.Username == acct.Username || a.Email == acct.Email {
			return account.ErrExists
		}
	}
	s.accounts[acct.ID] = acct
	return nil
}

func (s *memStore) FindByID(_ context.Context, id string) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return account.Account{}, err
	}
	a, ok := s.accounts[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (s *memStore) FindByIdentifier(_ context.Context, identifier string) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return account.Account{}, err
	}
	for _, a := range s.accounts {
		if a.Username == identifier || a.Email == identifier {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (s *memStore) FindByEmail(_ context.Context, email string) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return account.Account{}, err
	}
	for _, a := range s.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (s *memStore) FindByResetToken(_ context.Context, hash string, now time.Time) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Reset != nil && a.Reset.Hash == hash && a.Reset.Valid(now) {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (s *memStore) SetRefreshToken(_ context.Context, id, token string) error {
	return s.update(id, func(a *account.Account) error { a.RefreshToken = token; return nil })
}

func (s *memStore) SwapRefreshToken(_ context.Context, id, presented, next string) error {
	return s.update(id, func(a *account.Account) error {
		if a.RefreshToken != presented {
			return account.ErrRefreshMismatch
		}
		a.RefreshToken = next
		return nil
	})
}

func (s *memStore) ClearRefreshToken(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	s.clears++
	if a, ok := s.accounts[id]; ok {
		a.RefreshToken = ""
		s.accounts[id] = a
	}
	return nil
}

func (s *memStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	return s.update(id, func(a *account.Account) error { a.PasswordHash = hash; return nil })
}

func (s *memStore) SetResetToken(_ context.Context, id string, reset account.ResetToken) error {
	return s.update(id, func(a *account.Account) error { a.Reset = &reset; return nil })
}

func (s *memStore) ClearResetToken(_ context.Context, id string) error {
	return s.update(id, func(a *account.Account) error { a.Reset = nil; return nil })
}

func (s *memStore) ConsumeResetToken(_ context.Context, id, hash, passwordHash string, now time.Time) error {
	return s.update(id, func(a *account.Account) error {
		if a.Reset == nil || a.Reset.Hash != hash || !a.Reset.Valid(now) {
			return account.ErrResetMismatch
		}
		a.PasswordHash = passwordHash
		a.Reset = nil
		return nil
	})
}

func (s *memStore) update(id string, fn func(*account.Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	a, ok := s.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	if err := fn(&a); err != nil {
		return err
	}
	s.accounts[id] = a
	return nil
}

func (s *memStore) get(id string) account.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id]
}

var _ account.Store = (*memStore)(nil)

// plainHasher is a reversible test hasher; "hash:" plus the password.
type plainHasher struct {
	version string
	calls   int
	err     error
}

func (h *plainHasher) Hash(password string) (string, error) {
	h.calls++
	if h.err != nil {
		return "", h.err
	}
	return "hash" + h.version + ":" + password, nil
}

func (h *plainHasher) Verify(password, encoded string) bool {
	_, rest, ok := strings.Cut(encoded, ":")
	return ok && rest == password
}

func (h *plainHasher) NeedsUpgrade(encoded string) bool {
	return !strings.HasPrefix(encoded, "hash"+h.version+":")
}

func testCodec(t interface{ Fatalf(string, ...any) }) *jwt.Codec {
	c, err := jwt.NewCodec(jwt.Config{
		AccessSecret:  []byte("access-secret-access-secret-0123456789"),
		AccessTTL:     time.Minute,
		RefreshSecret: []byte("refresh-secret-refresh-secret-0123456789"),
		RefreshTTL:    time.Hour,
		Issuer:        "mediauth-test",
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func seedAccount(s *memStore, id, username, email, password string) account.Account {
	a := account.Account{
		ID:           id,
		Username:     username,
		Email:        email,
		DisplayName:  "Test " + username,
		PasswordHash: "hash:" + password,
	}
	s.accounts[id] = a
	return a
}

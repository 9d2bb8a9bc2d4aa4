package account

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/services/email"
)

var ctx = context.Background()

type memRepo struct {
	mu   sync.RWMutex
	accs map[string]Account
}

var _ Repository = (*memRepo)(nil)

func (r *memRepo) CreateAccount(_ context.Context, acc Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc.ID = uuid.NewString()
	r.accs[acc.ID] = acc
	return acc, nil
}

func (r *memRepo) QueryAllAccounts(context.Context) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	accs := make([]Account, 0, len(r.accs))
	for _, acc := range r.accs {
		accs = append(accs, acc)
	}
	sort.Slice(accs, func(i, j int) bool { return accs[i].Email < accs[j].Email })
	return accs, nil
}

func (r *memRepo) GetAccountByID(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if acc, ok := r.accs[id]; ok {
		return acc, nil
	}
	return Account{}, ErrNotFound
}

func (r *memRepo) GetAccountByEmail(_ context.Context, email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, acc := range r.accs {
		if acc.Email == email {
			return acc, nil
		}
	}
	return Account{}, ErrNotFound
}

func (r *memRepo) UpdateAccount(_ context.Context, acc Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orig, ok := r.accs[acc.ID]
	if !ok {
		return Account{}, ErrNotFound
	}
	acc.CreatedAt = orig.CreatedAt
	r.accs[acc.ID] = acc
	return acc, nil
}

func (r *memRepo) DeleteAccountsByID(_ context.Context, ids ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.accs, id)
	}
	return nil
}

func newTestConfig() *core.Config {
	return &core.Config{
		AppName:                   "Shule",
		SecretKey:                 "secret",
		DefaultFromEmail:          "noreply@school.test",
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		TestMode:                  true,
	}
}

func newServiceMock(t *testing.T) Service {
	t.Helper()
	conf := newTestConfig()
	return NewService(&memRepo{accs: make(map[string]Account)}, emailsvc.NewConsoleServiceMock(conf), conf)
}

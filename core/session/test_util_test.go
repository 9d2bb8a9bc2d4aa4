package session

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/services/notify"
)

var (
	errRejected = errors.New("rejected")
	testCtx     = context.Background()
)

type memStore struct {
	mu     sync.Mutex
	data   map[string]string
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.data[key]
	if !ok {
		return "", ErrNoEntry
	}
	return val, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// fakeBackend accepts any credentials unless reject is set.
// When gate is set, every call blocks until the gate is closed or the context is done.
type fakeBackend struct {
	reject error
	gate   chan struct{}
	calls  int
	mu     sync.Mutex
}

func (b *fakeBackend) wait(ctx context.Context) error {
	b.mu.Lock()
	b.calls++
	gate := b.gate
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return b.reject
}

func (b *fakeBackend) Authenticate(ctx context.Context, email, _ string) (Identity, error) {
	if err := b.wait(ctx); err != nil {
		return Identity{}, err
	}
	return Identity{ID: "id-" + email}, nil
}

func (b *fakeBackend) SendRecoveryCode(ctx context.Context, _ string) error {
	return b.wait(ctx)
}

func (b *fakeBackend) ResetPassword(ctx context.Context, _, _, _ string) error {
	return b.wait(ctx)
}

type managerFixture struct {
	mgr     *Manager
	store   *memStore
	backend *fakeBackend
	notes   *notifysvc.Recorder
	logs    *bytes.Buffer
}

func newFixture(t *testing.T, store *memStore) managerFixture {
	t.Helper()
	if store == nil {
		store = newMemStore()
	}
	fx := managerFixture{
		store:   store,
		backend: &fakeBackend{},
		notes:   notifysvc.NewRecorder(),
		logs:    new(bytes.Buffer),
	}
	fx.mgr = NewManager(ManagerDeps{
		Store:    fx.store,
		Backend:  fx.backend,
		Notifier: fx.notes,
		Logger:   logsvc.NewLoggerMock(fx.logs),
	})
	return fx
}

package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

type (
	ManagerDeps struct {
		Store    Store
		Backend  Backend
		Notifier core.Notifier
		Logger   core.Logger
	}

	// Manager is the single authority over the active session of a portal context.
	// All methods are safe for concurrent use; concurrent logins are not serialized, the last to resolve wins.
	Manager struct {
		store    Store
		backend  Backend
		notifier core.Notifier
		logger   core.Logger

		initOnce sync.Once
		mu       sync.RWMutex
		state    State
		active   *Session
		loading  int32
	}
)

func NewManager(deps ManagerDeps) *Manager {
	return &Manager{
		store:    deps.Store,
		backend:  deps.Backend,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		state:    StateUninitialized,
	}
}

// Init restores the persisted session, if any. Only the first call has an effect.
func (m *Manager) Init(ctx context.Context) {
	m.initOnce.Do(func() {
		m.setState(StateRestoring, nil)

		sess, ok := m.restore(ctx)
		if ok {
			m.setState(StateAuthenticated, &sess)
		} else {
			m.setState(StateAnonymous, nil)
		}
	})
}

func (m *Manager) restore(ctx context.Context) (Session, bool) {
	raw, err := m.store.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, ErrNoEntry) {
			m.logger.Warn(fmt.Sprintf("session.restore: reading persisted session: %v", err), err)
		}
		return Session{}, false
	}

	sess, err := unmarshalSession(raw)
	if err != nil {
		m.logger.Warn(fmt.Sprintf("session.restore: ignoring corrupt persisted session: %v", err), err)
		return Session{}, false
	}
	return sess, true
}

// Login authenticates the credentials, then persists and activates the resulting session.
// A rejected login returns an *AuthenticationError and leaves the active session untouched.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	m.Init(ctx)
	email = core.CleanString(email, true /* lower */)

	m.startLoading()
	defer m.stopLoading()

	ident, err := m.backend.Authenticate(ctx, email, password)
	if err == nil {
		err = ctx.Err() // a result resolved after cancellation is discarded
	}
	if err != nil {
		m.notify("Login failed", "Invalid email or password. Please try again.", core.SeverityError)
		return Session{}, &AuthenticationError{Email: email, Err: err}
	}

	sess := New(ident.ID, email)
	if raw, err := sess.marshal(); err != nil {
		m.logger.Error(fmt.Sprintf("session.Login: encoding session: %v", err), err, sess.Person())
	} else if err = m.store.Set(ctx, StorageKey, raw); err != nil {
		m.logger.Error(fmt.Sprintf("session.Login: persisting session: %v", err), err, sess.Person())
	}
	m.setState(StateAuthenticated, &sess)

	m.notify("Welcome back!", fmt.Sprintf("Logged in as %s (%s).", sess.Name, sess.Role.DisplayName()), core.SeveritySuccess)
	return sess, nil
}

// Logout clears the active session and its persisted copy. It never fails.
func (m *Manager) Logout(ctx context.Context) {
	m.Init(ctx)

	if err := m.store.Delete(ctx, StorageKey); err != nil && !errors.Is(err, ErrNoEntry) {
		m.logger.Error(fmt.Sprintf("session.Logout: deleting persisted session: %v", err), err)
	}
	m.setState(StateAnonymous, nil)

	m.notify("Logged out", "You have been logged out successfully.", core.SeverityInfo)
}

// RequestPasswordRecovery asks the backend to deliver a recovery code to the email.
func (m *Manager) RequestPasswordRecovery(ctx context.Context, email string) error {
	email = core.CleanString(email, true /* lower */)

	m.startLoading()
	defer m.stopLoading()

	err := m.backend.SendRecoveryCode(ctx, email)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		m.notify("Recovery failed", "The recovery code could not be sent. Please try again.", core.SeverityError)
		return &RecoveryRequestError{Email: email, Err: err}
	}

	m.notify("Code sent", fmt.Sprintf("A recovery code has been sent to %s.", email), core.SeveritySuccess)
	return nil
}

// CompletePasswordRecovery sets a new password using a recovery code. It does not log in.
func (m *Manager) CompletePasswordRecovery(ctx context.Context, email, code, newPassword string) error {
	email = core.CleanString(email, true /* lower */)

	m.startLoading()
	defer m.stopLoading()

	err := m.backend.ResetPassword(ctx, email, core.CleanString(code), newPassword)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		m.notify("Password reset failed", "The code is invalid or the password was rejected.", core.SeverityError)
		return &RecoveryCompletionError{Email: email, Err: err}
	}

	m.notify("Password updated", "Your password has been reset. You can now log in.", core.SeveritySuccess)
	return nil
}

// ActiveSession returns a copy of the active session. It is false until Init resolved.
func (m *Manager) ActiveSession() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.active == nil {
		return Session{}, false
	}
	return *m.active, true
}

// IsLoading reports whether any login or recovery operation is outstanding.
func (m *Manager) IsLoading() bool {
	return atomic.LoadInt32(&m.loading) > 0
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) setState(state State, sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.active = sess
}

func (m *Manager) startLoading() { atomic.AddInt32(&m.loading, 1) }
func (m *Manager) stopLoading()  { atomic.AddInt32(&m.loading, -1) }

func (m *Manager) notify(title, desc, severity string) {
	if m.notifier == nil {
		return
	}
	m.notifier.Notify(core.Notification{Title: title, Description: desc, Severity: severity})
}

package simulated

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/session"
)

var (
	// errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrInvalidPassword    = errors.New("password cannot be empty")
)

// Op names a backend operation.
type Op string

const (
	OpAuthenticate     Op = "authenticate"
	OpSendRecoveryCode Op = "send-recovery-code"
	OpResetPassword    Op = "reset-password"
)

type (
	Options struct {
		Delay time.Duration
		// Fail, when set, can reject any call with its own error.
		Fail func(op Op, email string) error
	}

	// Backend stands in for a real account backend: every call resolves after a fixed delay with a hard-coded response.
	// Any well-formed email with a non-empty password is accepted.
	Backend struct {
		opts Options
	}
)

var _ session.Backend = (*Backend)(nil)

func New(opts Options) *Backend {
	return &Backend{opts: opts}
}

func (b *Backend) Authenticate(ctx context.Context, email, password string) (session.Identity, error) {
	if err := b.call(ctx, OpAuthenticate, email); err != nil {
		return session.Identity{}, err
	}
	if !validEmail(email) || password == "" {
		return session.Identity{}, ErrInvalidCredentials
	}
	return session.Identity{ID: uuid.NewString()}, nil
}

func (b *Backend) SendRecoveryCode(ctx context.Context, email string) error {
	if err := b.call(ctx, OpSendRecoveryCode, email); err != nil {
		return err
	}
	if !validEmail(email) {
		return ErrInvalidEmail
	}
	return nil
}

func (b *Backend) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := b.call(ctx, OpResetPassword, email); err != nil {
		return err
	}
	switch {
	case !validEmail(email):
		return ErrInvalidEmail
	case strings.TrimSpace(code) == "":
		return ErrInvalidCode
	case newPassword == "":
		return ErrInvalidPassword
	}
	return nil
}

// call waits for the simulated round trip, then applies failure injection.
func (b *Backend) call(ctx context.Context, op Op, email string) error {
	if b.opts.Delay > 0 {
		timer := time.NewTimer(b.opts.Delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if b.opts.Fail != nil {
		return b.opts.Fail(op, email)
	}
	return nil
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

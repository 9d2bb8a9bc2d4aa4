package session

import (
	"context"
	"errors"
)

// ErrNoEntry is returned by a Store when the key has no value.
var ErrNoEntry = errors.New("no entry")

type (
	// Store is a synchronous key/value store persisting the session between process runs.
	Store interface {
		Get(ctx context.Context, key string) (string, error)
		Set(ctx context.Context, key, value string) error
		Delete(ctx context.Context, key string) error
	}

	// Identity is what the backend returns for valid credentials.
	Identity struct {
		ID string `json:"id"`
	}

	// Backend authenticates credentials and runs the password recovery flow.
	Backend interface {
		Authenticate(ctx context.Context, email, password string) (Identity, error)
		SendRecoveryCode(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, email, code, newPassword string) error
	}
)

package session

import "fmt"

type (
	// AuthenticationError is returned when the backend rejects a login.
	AuthenticationError struct {
		Email string
		Err   error
	}

	// RecoveryRequestError is returned when a recovery code could not be dispatched.
	RecoveryRequestError struct {
		Email string
		Err   error
	}

	// RecoveryCompletionError is returned when a recovery code or new password is rejected.
	RecoveryCompletionError struct {
		Email string
		Err   error
	}
)

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed for %q: %v", e.Email, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

func (e *RecoveryRequestError) Error() string {
	return fmt.Sprintf("password recovery request failed for %q: %v", e.Email, e.Err)
}

func (e *RecoveryRequestError) Unwrap() error { return e.Err }

func (e *RecoveryCompletionError) Error() string {
	return fmt.Sprintf("password recovery failed for %q: %v", e.Email, e.Err)
}

func (e *RecoveryCompletionError) Unwrap() error { return e.Err }

// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"todoshare/internal/apperr"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, not found, not permitted).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// NotLoggedIn is printed when a command needs a session and there is none.
const NotLoggedIn = "not logged in (run: todoshare login)"

// FromError returns the exit code for err. A nil error is Success.
func FromError(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, apperr.ErrAuthRequired), errors.Is(err, apperr.ErrInvalidCredentials):
		return AuthError
	case errors.Is(err, apperr.ErrStore):
		return BackendError
	}
	return UserError
}

// Message returns the text shown to the user for err. Store failures are
// reported generically; their cause goes to the log.
func Message(err error) string {
	switch {
	case errors.Is(err, apperr.ErrAuthRequired):
		return NotLoggedIn
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return apperr.ErrInvalidCredentials.Error()
	case errors.Is(err, apperr.ErrStore):
		return "backend error"
	}
	return err.Error()
}

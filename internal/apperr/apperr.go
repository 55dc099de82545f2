// Package apperr defines the error taxonomy shared by every layer.
//
// Callers classify errors with errors.Is and errors.As; messages are never
// matched as strings.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthRequired indicates there is no authenticated identity.
	ErrAuthRequired = errors.New("authentication required")

	// ErrInvalidCredentials indicates the identity provider rejected a sign-in.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a referenced list, task or user is absent.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyMember indicates the user is already a participant of the list.
	ErrAlreadyMember = errors.New("user is already a participant")

	// ErrForbidden indicates the caller's role does not permit the action.
	ErrForbidden = errors.New("not permitted")

	// ErrOwnerCannotLeave indicates an owner tried to remove themselves.
	ErrOwnerCannotLeave = errors.New("owner cannot leave a list (delete it instead)")

	// ErrConflict indicates a write was based on a stale version of the document.
	ErrConflict = errors.New("list was modified concurrently, reload and try again")

	// ErrStore is matched by every *StoreError.
	ErrStore = errors.New("store error")
)

// ValidationError reports a rejected input. No store call has been made.
type ValidationError struct {
	Field   string
	Message string
}

// Validation returns a *ValidationError for field.
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StoreError wraps an unexpected failure from the document store or the
// identity provider. The user action failed and may be retried manually.
type StoreError struct {
	Op  string
	Err error
}

// Store wraps err as a *StoreError unless err is nil or already classified.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStore) true.
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// Classified reports whether err already belongs to the taxonomy.
func Classified(err error) bool {
	for _, target := range []error{
		ErrAuthRequired, ErrInvalidCredentials, ErrValidation, ErrNotFound,
		ErrAlreadyMember, ErrForbidden, ErrOwnerCannotLeave, ErrConflict, ErrStore,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

package exitcode_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"todoshare/internal/apperr"
	"todoshare/internal/exitcode"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		err  error
		code int
		msg  string
	}{
		{apperr.ErrAuthRequired, exitcode.AuthError, exitcode.NotLoggedIn},
		{fmt.Errorf("login: %w", apperr.ErrInvalidCredentials), exitcode.AuthError, "invalid credentials"},
		{apperr.Store("query lists", errors.New("connection reset")), exitcode.BackendError, "backend error"},
		{apperr.Validation("title", "title required"), exitcode.UserError, "title: title required"},
		{fmt.Errorf("list x: %w", apperr.ErrNotFound), exitcode.UserError, "list x: not found"},
		{apperr.ErrForbidden, exitcode.UserError, "not permitted"},
		{apperr.ErrOwnerCannotLeave, exitcode.UserError, apperr.ErrOwnerCannotLeave.Error()},
		{apperr.ErrConflict, exitcode.UserError, apperr.ErrConflict.Error()},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, exitcode.FromError(tt.err), tt.err.Error())
		assert.Equal(t, tt.msg, exitcode.Message(tt.err))
	}
	assert.Equal(t, exitcode.Success, exitcode.FromError(nil))
}

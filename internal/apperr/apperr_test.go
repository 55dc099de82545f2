package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"todoshare/internal/apperr"
)

func TestValidationErrorIs(t *testing.T) {
	err := fmt.Errorf("rename: %w", apperr.Validation("title", "must not be empty"))

	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "rename: title: must not be empty", err.Error())

	var verr *apperr.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "title", verr.Field)
}

func TestStoreWrapsOnlyUnclassified(t *testing.T) {
	raw := errors.New("connection reset")
	err := apperr.Store("get list", raw)
	assert.ErrorIs(t, err, apperr.ErrStore)
	assert.ErrorIs(t, err, raw)

	nf := fmt.Errorf("get list: %w", apperr.ErrNotFound)
	assert.Same(t, nf, apperr.Store("get list", nf))

	assert.NoError(t, apperr.Store("noop", nil))
}

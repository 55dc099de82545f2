package docstore_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"todoshare/internal/apperr"
	"todoshare/internal/docstore"
)

func TestMatches(t *testing.T) {
	fields := map[string]any{
		"title":        "Groceries",
		"participants": []any{"U1", "U2"},
		"owners":       []string{"U1"},
	}

	tests := []struct {
		name   string
		filter docstore.Filter
		want   bool
	}{
		{"equal hit", docstore.Eq("title", "Groceries"), true},
		{"equal miss", docstore.Eq("title", "Chores"), false},
		{"missing field", docstore.Eq("color", "red"), false},
		{"contains any slice", docstore.Contains("participants", "U2"), true},
		{"contains string slice", docstore.Contains("owners", "U1"), true},
		{"contains miss", docstore.Contains("participants", "U3"), false},
		{"contains on scalar", docstore.Contains("title", "Groceries"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, docstore.Matches(fields, tt.filter))
		})
	}
}

func TestWrap(t *testing.T) {
	assert.NoError(t, docstore.Wrap("get list", nil))

	err := docstore.Wrap("get list", docstore.ErrNotFound)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Contains(t, err.Error(), "get list")

	err = docstore.Wrap("add participant", docstore.ErrVersionMismatch)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	err = docstore.Wrap("query tasks", errors.New("deadline exceeded"))
	assert.ErrorIs(t, err, apperr.ErrStore)
	var se *apperr.StoreError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, "query tasks", se.Op)
}

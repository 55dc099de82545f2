// Package docstore defines the document database port.
//
// Every write is a single-document operation; the store's per-document
// atomicity is the only consistency primitive relied on.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"todoshare/internal/apperr"
)

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrVersionMismatch is returned by UpdateIfVersion when the stored
	// version differs from the expected one.
	ErrVersionMismatch = errors.New("document version mismatch")
)

// Op is a query predicate operator.
type Op string

const (
	// Equal matches documents whose field equals the value.
	Equal Op = "=="
	// ArrayContains matches documents whose array field contains the value.
	ArrayContains Op = "array-contains"
)

// Filter is a single-field query predicate.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: Equal, Value: value}
}

// Contains builds an array-contains filter.
func Contains(field string, value any) Filter {
	return Filter{Field: field, Op: ArrayContains, Value: value}
}

// Document is a stored document. Field values are limited to string, bool,
// int64, time.Time, nil, []any / []string and map[string]any.
type Document struct {
	ID     string
	Fields map[string]any
}

// Store is a document database.
type Store interface {
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Query returns all documents matching every filter, in no particular order.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)

	// Add creates a document with a store-assigned id.
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)

	// Set creates or replaces the document with the given id.
	Set(ctx context.Context, collection, id string, fields map[string]any) error

	// Update merges fields into an existing document. Top-level fields are
	// replaced as a whole. Returns ErrNotFound if the document is absent.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// UpdateIfVersion is Update guarded by the document's integer "version"
	// field: it applies only if the stored version equals expected, and
	// stores expected+1. Returns ErrVersionMismatch or ErrNotFound.
	UpdateIfVersion(ctx context.Context, collection, id string, expected int64, fields map[string]any) error

	// Delete removes the document. Returns ErrNotFound if it is absent.
	Delete(ctx context.Context, collection, id string) error

	// Close releases the underlying client.
	Close() error
}

// VersionField is the document field used by UpdateIfVersion.
const VersionField = "version"

// Matches reports whether fields satisfy filter. Backends without native
// predicates evaluate queries with it.
func Matches(fields map[string]any, f Filter) bool {
	v, ok := fields[f.Field]
	if !ok {
		return false
	}
	switch f.Op {
	case Equal:
		return v == f.Value
	case ArrayContains:
		switch arr := v.(type) {
		case []any:
			for _, e := range arr {
				if e == f.Value {
					return true
				}
			}
		case []string:
			for _, e := range arr {
				if e == f.Value {
					return true
				}
			}
		}
	}
	return false
}

// Wrap maps store errors into the application taxonomy: ErrNotFound becomes
// apperr.ErrNotFound, ErrVersionMismatch becomes apperr.ErrConflict and
// anything else becomes an *apperr.StoreError.
func Wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	case errors.Is(err, ErrVersionMismatch):
		return fmt.Errorf("%s: %w", op, apperr.ErrConflict)
	default:
		return apperr.Store(op, err)
	}
}

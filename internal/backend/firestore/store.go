// Package firestore implements docstore.Store with Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"todoshare/internal/docstore"
)

// APITimeout is the timeout for API calls.
const APITimeout = 5 * time.Second

// Store implements docstore.Store.
type Store struct {
	client *firestore.Client
}

// New connects to the Firestore database of projectID. Credentials come from
// opts: a service account file for servers, or the signed-in user's token
// source for the CLI so that security rules apply. FIRESTORE_EMULATOR_HOST
// is honored by the client library.
func New(ctx context.Context, projectID string, opts ...option.ClientOption) (*Store, error) {
	if projectID == "" {
		return nil, errors.New("firebase project_id is not configured")
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return docstore.Document{}, wrapError(err)
	}
	return docstore.Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

// Query implements docstore.Store.
func (s *Store) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, string(f.Op), f.Value)
	}
	it := q.Documents(ctx)
	defer it.Stop()

	var docs []docstore.Document
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, wrapError(err)
		}
		docs = append(docs, docstore.Document{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return docs, nil
}

// Add implements docstore.Store.
func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	ref, _, err := s.client.Collection(collection).Add(ctx, fields)
	if err != nil {
		return "", wrapError(err)
	}
	return ref.ID, nil
}

// Set implements docstore.Store.
func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	_, err := s.client.Collection(collection).Doc(id).Set(ctx, fields)
	return wrapError(err)
}

// Update implements docstore.Store. Firestore rejects updates of missing
// documents with NotFound.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	_, err := s.client.Collection(collection).Doc(id).Update(ctx, updates(fields))
	return wrapError(err)
}

// UpdateIfVersion implements docstore.Store with a read-write transaction.
func (s *Store) UpdateIfVersion(ctx context.Context, collection, id string, expected int64, fields map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	ref := s.client.Collection(collection).Doc(id)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		current, _ := snap.Data()[docstore.VersionField].(int64)
		if current != expected {
			return docstore.ErrVersionMismatch
		}
		ups := updates(fields)
		ups = append(ups, firestore.Update{FieldPath: firestore.FieldPath{docstore.VersionField}, Value: expected + 1})
		return tx.Update(ref, ups)
	})
	return wrapError(err)
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	_, err := s.client.Collection(collection).Doc(id).Delete(ctx, firestore.Exists)
	return wrapError(err)
}

// Close implements docstore.Store.
func (s *Store) Close() error {
	return s.client.Close()
}

func updates(fields map[string]any) []firestore.Update {
	ups := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		ups = append(ups, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	return ups
}

// wrapError maps gRPC status codes onto docstore sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, docstore.ErrVersionMismatch) {
		return docstore.ErrVersionMismatch
	}
	switch status.Code(err) {
	case codes.NotFound:
		return docstore.ErrNotFound
	case codes.DeadlineExceeded:
		return fmt.Errorf("request timed out: %w", err)
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("access denied by firestore: %w", err)
	}
	return err
}

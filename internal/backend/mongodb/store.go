// Package mongodb implements docstore.Store with MongoDB. Document ids are
// stored as string _id values so they read the same as Firestore ids.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"todoshare/internal/docstore"
)

const (
	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// ConnectTimeout bounds the initial connect and ping.
	ConnectTimeout = 10 * time.Second
)

// Store implements docstore.Store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to uri and pings the server.
func New(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is not configured")
	}
	if database == "" {
		database = "todoshare"
	}
	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach mongodb: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return docstore.Document{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Document{}, err
	}
	return toDocument(raw), nil
}

// Query implements docstore.Store. Equality on an array field matches any
// element, so both filter operators map to a plain match.
func (s *Store) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	filter := bson.M{}
	for _, f := range filters {
		filter[f.Field] = f.Value
	}
	cur, err := s.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []docstore.Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		docs = append(docs, toDocument(raw))
	}
	return docs, cur.Err()
}

// Add implements docstore.Store.
func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	id := primitive.NewObjectID().Hex()
	if _, err := s.db.Collection(collection).InsertOne(ctx, withID(id, fields)); err != nil {
		return "", err
	}
	return id, nil
}

// Set implements docstore.Store.
func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	_, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, withID(id, fields), options.Replace().SetUpsert(true))
	return err
}

// Update implements docstore.Store.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// UpdateIfVersion implements docstore.Store with a filtered single-document
// update. A document without a version field counts as version 0.
func (s *Store) UpdateIfVersion(ctx context.Context, collection, id string, expected int64, fields map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	filter := bson.M{"_id": id, docstore.VersionField: expected}
	if expected == 0 {
		filter = bson.M{"_id": id, "$or": bson.A{
			bson.M{docstore.VersionField: int64(0)},
			bson.M{docstore.VersionField: bson.M{"$exists": false}},
		}}
	}
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	set[docstore.VersionField] = expected + 1

	coll := s.db.Collection(collection)
	res, err := coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return docstore.ErrNotFound
	}
	return docstore.ErrVersionMismatch
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// Close implements docstore.Store.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), APITimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func withID(id string, fields map[string]any) bson.M {
	doc := bson.M{"_id": id}
	for k, v := range fields {
		doc[k] = v
	}
	return doc
}

func toDocument(raw bson.M) docstore.Document {
	id, _ := raw["_id"].(string)
	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		fields[k] = normalize(v)
	}
	return docstore.Document{ID: id, Fields: fields}
}

// normalize converts BSON decoding types to the plain values documented by
// docstore.Document.
func normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case int32:
		return int64(t)
	case float64:
		if t == float64(int64(t)) {
			return int64(t)
		}
		return t
	default:
		return v
	}
}

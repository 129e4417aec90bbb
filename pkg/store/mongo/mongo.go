// Package mongo implements store.Store on MongoDB.
//
// Records live in one collection with the instance key as _id. Put is a
// single conditional upsert: it replaces the document only when the stored
// score is higher, and a duplicate-key error from the upsert means a record
// at least as good already exists.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bnerrors "github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/score"
	"github.com/matzehuels/bnsearch/pkg/store"
)

// Config holds connection settings.
type Config struct {
	URI        string `toml:"uri" yaml:"uri"`
	Database   string `toml:"database" yaml:"database"`
	Collection string `toml:"collection" yaml:"collection"`
}

// Store is a MongoDB-backed result store.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects to MongoDB, pings it, and ensures the collection's index.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Database == "" {
		cfg.Database = "bnsearch"
	}
	if cfg.Collection == "" {
		cfg.Collection = "results"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "ping mongo")
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "instance", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "create index")
	}
	return &Store{client: client, coll: coll}, nil
}

// document is the stored shape of a record. Seeds are kept as int64 bit
// patterns since BSON has no unsigned 64-bit integer.
type document struct {
	Key       string    `bson:"_id"`
	Instance  string    `bson:"instance"`
	Score     int64     `bson:"score"`
	Ordering  []int     `bson:"ordering"`
	Method    string    `bson:"method"`
	RunID     string    `bson:"run_id"`
	Seed      int64     `bson:"seed"`
	ElapsedMS int64     `bson:"elapsed_ms"`
	CreatedAt time.Time `bson:"created_at"`
}

func toDocument(r store.Record) document {
	return document{
		Key:       r.Key,
		Instance:  r.Instance,
		Score:     int64(r.Score),
		Ordering:  r.Ordering,
		Method:    r.Method,
		RunID:     r.RunID,
		Seed:      int64(r.Seed),
		ElapsedMS: r.Elapsed.Milliseconds(),
		CreatedAt: r.CreatedAt,
	}
}

func fromDocument(d document) store.Record {
	return store.Record{
		Key:       d.Key,
		Instance:  d.Instance,
		Score:     score.Score(d.Score),
		Ordering:  d.Ordering,
		Method:    d.Method,
		RunID:     d.RunID,
		Seed:      uint64(d.Seed),
		Elapsed:   time.Duration(d.ElapsedMS) * time.Millisecond,
		CreatedAt: d.CreatedAt,
	}
}

// betterFilter matches the document for key only when its score is worse
// than s.
func betterFilter(key string, s score.Score) bson.M {
	return bson.M{"_id": key, "score": bson.M{"$gt": int64(s)}}
}

// Get returns the record stored for key.
func (s *Store) Get(ctx context.Context, key string) (store.Record, error) {
	if err := bnerrors.ValidateInstanceKey(key); err != nil {
		return store.Record{}, err
	}
	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Record{}, store.ErrNotFound
	}
	if err != nil {
		return store.Record{}, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "mongo get")
	}
	return fromDocument(doc), nil
}

// Put stores rec if it beats the stored record.
func (s *Store) Put(ctx context.Context, rec store.Record) (bool, error) {
	if err := rec.Validate(); err != nil {
		return false, err
	}
	res, err := s.coll.ReplaceOne(ctx,
		betterFilter(rec.Key, rec.Score),
		toDocument(rec),
		options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "mongo put")
	}
	return res.MatchedCount > 0 || res.UpsertedCount > 0, nil
}

// List returns every record, ordered by instance then key.
func (s *Store) List(ctx context.Context) ([]store.Record, error) {
	cur, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "instance", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "mongo list")
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "mongo list")
	}
	out := make([]store.Record, len(docs))
	for i, d := range docs {
		out[i] = fromDocument(d)
	}
	return out, nil
}

// Delete removes the record for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := bnerrors.ValidateInstanceKey(key); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return bnerrors.Wrap(bnerrors.ErrCodeStore, err, "mongo delete")
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ store.Store = (*Store)(nil)

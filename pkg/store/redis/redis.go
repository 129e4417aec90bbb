// Package redis implements store.Store on Redis.
//
// Each record is a JSON string under "<prefix>result:<key>", and the set
// "<prefix>results" indexes the stored keys for List. Put uses an optimistic
// WATCH transaction so concurrent writers never replace a better record.
package redis

import (
	"context"
	"encoding/json"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	bnerrors "github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/store"
)

// Config holds connection settings.
type Config struct {
	Addr     string `toml:"addr" yaml:"addr"`
	Password string `toml:"password" yaml:"password"`
	DB       int    `toml:"db" yaml:"db"`
	Prefix   string `toml:"prefix" yaml:"prefix"` // key namespace, default "bnsearch:"
}

// DefaultPrefix namespaces keys when Config.Prefix is empty.
const DefaultPrefix = "bnsearch:"

// Store is a Redis-backed result store.
type Store struct {
	client  goredis.UniversalClient
	prefix  string
	backoff store.Backoff
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "connect to redis at %s", cfg.Addr)
	}
	return NewFromClient(client, cfg.Prefix), nil
}

// NewFromClient wraps an existing client. An empty prefix selects
// DefaultPrefix.
func NewFromClient(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix, backoff: store.DefaultBackoff}
}

func recordKey(prefix, key string) string { return prefix + "result:" + key }
func indexKey(prefix string) string       { return prefix + "results" }

func encode(rec store.Record) ([]byte, error) { return json.Marshal(rec) }

func decode(data []byte) (store.Record, error) {
	var rec store.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return store.Record{}, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "decode record")
	}
	return rec, nil
}

// Get returns the record stored for key.
func (s *Store) Get(ctx context.Context, key string) (store.Record, error) {
	if err := bnerrors.ValidateInstanceKey(key); err != nil {
		return store.Record{}, err
	}
	data, err := s.client.Get(ctx, recordKey(s.prefix, key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return store.Record{}, store.ErrNotFound
	}
	if err != nil {
		return store.Record{}, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "redis get")
	}
	return decode(data)
}

// Put stores rec if it beats the stored record. A write that loses the
// optimistic lock is retried with backoff.
func (s *Store) Put(ctx context.Context, rec store.Record) (bool, error) {
	if err := rec.Validate(); err != nil {
		return false, err
	}
	data, err := encode(rec)
	if err != nil {
		return false, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "encode record")
	}
	k := recordKey(s.prefix, rec.Key)

	var stored bool
	err = s.backoff.Retry(ctx, func() error {
		stored = false
		err := s.client.Watch(ctx, func(tx *goredis.Tx) error {
			existing, found := store.Record{}, false
			cur, err := tx.Get(ctx, k).Bytes()
			switch {
			case errors.Is(err, goredis.Nil):
			case err != nil:
				return err
			default:
				if existing, err = decode(cur); err == nil {
					found = true
				}
			}
			if !store.Better(rec, existing, found) {
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				pipe.Set(ctx, k, data, 0)
				pipe.SAdd(ctx, indexKey(s.prefix), rec.Key)
				return nil
			})
			if err == nil {
				stored = true
			}
			return err
		}, k)
		if errors.Is(err, goredis.TxFailedErr) {
			return store.Retryable(err)
		}
		return err
	})
	if err != nil {
		return false, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "redis put")
	}
	return stored, nil
}

// List returns every indexed record. Index entries whose record has
// vanished are skipped.
func (s *Store) List(ctx context.Context) ([]store.Record, error) {
	keys, err := s.client.SMembers(ctx, indexKey(s.prefix)).Result()
	if err != nil {
		return nil, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "redis list")
	}
	if len(keys) == 0 {
		return nil, nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = recordKey(s.prefix, key)
	}
	vals, err := s.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "redis list")
	}
	out := make([]store.Record, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		if rec, err := decode([]byte(str)); err == nil {
			out = append(out, rec)
		}
	}
	store.SortRecords(out)
	return out, nil
}

// Delete removes the record for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := bnerrors.ValidateInstanceKey(key); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, recordKey(s.prefix, key))
		pipe.SRem(ctx, indexKey(s.prefix), key)
		return nil
	})
	if err != nil {
		return bnerrors.Wrap(bnerrors.ErrCodeStore, err, "redis delete")
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ store.Store = (*Store)(nil)

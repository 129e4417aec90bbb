// Package store keeps the best known solution for each instance.
//
// Results are keyed by the catalogue hash, so renaming or moving an
// instance file does not lose its record. Put only replaces a stored record
// when the new score is strictly lower; the store therefore holds the best
// ordering ever found for every instance it has seen.
//
// Backends: [NullStore] (disabled), [FileStore] (JSON files, the CLI
// default), and the redis and mongo subpackages for shared deployments.
// [Instrument] wraps any backend with the registered observability hooks.
package store

import (
	"context"
	"errors"
	"time"

	bnerrors "github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/observability"
	"github.com/matzehuels/bnsearch/pkg/score"
)

// ErrNotFound is returned when no record exists for a key.
var ErrNotFound = errors.New("not found")

// Record is the best known solution for one instance.
type Record struct {
	Instance  string        `json:"instance"` // instance name, informational
	Key       string        `json:"key"`      // catalogue hash
	Score     score.Score   `json:"score"`
	Ordering  []int         `json:"ordering"`
	Method    string        `json:"method"`
	RunID     string        `json:"run_id"`
	Seed      uint64        `json:"seed"`
	Elapsed   time.Duration `json:"elapsed"`
	CreatedAt time.Time     `json:"created_at"`
}

// Validate checks that r can be stored.
func (r Record) Validate() error {
	if err := bnerrors.ValidateInstanceKey(r.Key); err != nil {
		return err
	}
	if err := bnerrors.ValidateInstanceName(r.Instance); err != nil {
		return err
	}
	if !r.Score.Known() {
		return bnerrors.New(bnerrors.ErrCodeInvalidInput, "record for %s has no score", r.Key)
	}
	if len(r.Ordering) == 0 {
		return bnerrors.New(bnerrors.ErrCodeInvalidInput, "record for %s has no ordering", r.Key)
	}
	return nil
}

// Better reports whether candidate should replace existing. A missing
// record (found == false) is always replaced.
func Better(candidate, existing Record, found bool) bool {
	return !found || candidate.Score < existing.Score
}

// Store persists one Record per instance key.
type Store interface {
	// Get returns the record for key, or ErrNotFound.
	Get(ctx context.Context, key string) (Record, error)

	// Put stores rec unless a record with an equal or lower score exists.
	// It reports whether rec was stored.
	Put(ctx context.Context, rec Record) (bool, error)

	// List returns every record, ordered by instance name then key.
	List(ctx context.Context) ([]Record, error)

	// Delete removes the record for key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Instrument wraps s so every Get and Put reports to the registered
// store hooks under the given backend name.
func Instrument(s Store, backend string) Store {
	return &instrumented{Store: s, backend: backend}
}

type instrumented struct {
	Store
	backend string
}

func (i *instrumented) Get(ctx context.Context, key string) (Record, error) {
	rec, err := i.Store.Get(ctx, key)
	switch {
	case err == nil:
		observability.Store().OnHit(ctx, i.backend)
	case errors.Is(err, ErrNotFound):
		observability.Store().OnMiss(ctx, i.backend)
	}
	return rec, err
}

func (i *instrumented) Put(ctx context.Context, rec Record) (bool, error) {
	stored, err := i.Store.Put(ctx, rec)
	if err == nil {
		observability.Store().OnPut(ctx, i.backend, stored)
	}
	return stored, err
}

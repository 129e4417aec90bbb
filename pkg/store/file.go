package store

import (
	"cmp"
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	bnerrors "github.com/matzehuels/bnsearch/pkg/errors"
)

// FileStore keeps records as JSON files in a directory, one file per
// instance key, sharded by the first two characters of the key.
//
// A FileStore serializes its own writes; separate processes sharing a
// directory may race, in which case the last writer wins.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a file store in dir, creating the directory if
// needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "create store directory")
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

// Get returns the record stored for key.
func (s *FileStore) Get(_ context.Context, key string) (Record, error) {
	if err := bnerrors.ValidateInstanceKey(key); err != nil {
		return Record{}, err
	}
	return s.read(s.path(key))
}

func (s *FileStore) read(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "read record")
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		// Invalid entry - treat as missing
		_ = os.Remove(path)
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Put stores rec if it beats the stored record.
func (s *FileStore) Put(_ context.Context, rec Record) (bool, error) {
	if err := rec.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(rec.Key)
	existing, err := s.read(path)
	found := err == nil
	if err != nil && err != ErrNotFound {
		return false, err
	}
	if !Better(rec, existing, found) {
		return false, nil
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return false, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "encode record")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "create shard directory")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return false, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "write record")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return false, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "write record")
	}
	return true, nil
}

// List returns every stored record.
func (s *FileStore) List(_ context.Context) ([]Record, error) {
	var out []Record
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries, continue walking
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		rec, err := s.read(path)
		if err == nil {
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, bnerrors.Wrap(bnerrors.ErrCodeStore, err, "list records")
	}
	SortRecords(out)
	return out, nil
}

// Delete removes the record for key.
func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := bnerrors.ValidateInstanceKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return bnerrors.Wrap(bnerrors.ErrCodeStore, err, "delete record")
	}
	return nil
}

// Close does nothing for the file store.
func (s *FileStore) Close() error {
	return nil
}

// path maps a key to its shard file. Keys are validated hex, so they are
// safe as path components.
func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key[:2], key[2:]+".json")
}

// SortRecords orders records by instance name, then key.
func SortRecords(recs []Record) {
	slices.SortFunc(recs, func(a, b Record) int {
		if c := cmp.Compare(a.Instance, b.Instance); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)

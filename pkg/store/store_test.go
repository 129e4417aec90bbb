package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	bnerrors "github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/observability"
	"github.com/matzehuels/bnsearch/pkg/score"
)

func key(c byte) string { return strings.Repeat(string(c), 64) }

func record(k string, s score.Score) Record {
	return Record{
		Instance:  "alarm",
		Key:       k,
		Score:     s,
		Ordering:  []int{2, 0, 1},
		Method:    "ils",
		RunID:     "run-1",
		Seed:      7,
		Elapsed:   1500 * time.Millisecond,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNullStore(t *testing.T) {
	ctx := context.Background()
	s := NewNullStore()
	defer s.Close()

	if _, err := s.Get(ctx, key('a')); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get should return ErrNotFound, got %v", err)
	}
	stored, err := s.Put(ctx, record(key('a'), 10))
	if err != nil || stored {
		t.Errorf("Put = %v, %v; want false, nil", stored, err)
	}
	if _, err := s.Put(ctx, record("bad", 10)); err == nil {
		t.Error("Put should still validate records")
	}
	if recs, _ := s.List(ctx); len(recs) != 0 {
		t.Errorf("List should be empty, got %d", len(recs))
	}
	if err := s.Delete(ctx, key('a')); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileStoreKeepsBest(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, err := s.Get(ctx, key('b')); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store = %v, want ErrNotFound", err)
	}

	steps := []struct {
		score  score.Score
		stored bool
		best   score.Score
	}{
		{100, true, 100},
		{120, false, 100},
		{100, false, 100},
		{90, true, 90},
	}
	for _, st := range steps {
		stored, err := s.Put(ctx, record(key('b'), st.score))
		if err != nil {
			t.Fatalf("Put(%d): %v", st.score, err)
		}
		if stored != st.stored {
			t.Errorf("Put(%d) stored = %v, want %v", st.score, stored, st.stored)
		}
		got, err := s.Get(ctx, key('b'))
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Score != st.best {
			t.Errorf("after Put(%d) best = %d, want %d", st.score, got.Score, st.best)
		}
	}

	got, _ := s.Get(ctx, key('b'))
	want := record(key('b'), 90)
	if got.Method != want.Method || got.Seed != want.Seed || got.Elapsed != want.Elapsed ||
		!got.CreatedAt.Equal(want.CreatedAt) || len(got.Ordering) != 3 {
		t.Errorf("round trip lost fields: %+v", got)
	}
}

func TestFileStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	r1 := record(key('c'), 5)
	r1.Instance = "zoo"
	r2 := record(key('d'), 6)
	r2.Instance = "asia"
	for _, r := range []Record{r1, r2} {
		if _, err := s.Put(ctx, r); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	// A corrupt entry is skipped and removed.
	bad := filepath.Join(dir, "ee", strings.Repeat("e", 62)+".json")
	if err := os.MkdirAll(filepath.Dir(bad), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	recs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 || recs[0].Instance != "asia" || recs[1].Instance != "zoo" {
		t.Fatalf("List = %+v, want asia then zoo", recs)
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}

	if err := s.Delete(ctx, key('c')); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, key('c')); err != nil {
		t.Errorf("Delete of a missing key should succeed, got %v", err)
	}
	if _, err := s.Get(ctx, key('c')); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
}

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Record)
		code bnerrors.Code
	}{
		{"valid", func(*Record) {}, ""},
		{"short key", func(r *Record) { r.Key = "abc" }, bnerrors.ErrCodeInvalidKey},
		{"upper key", func(r *Record) { r.Key = strings.Repeat("A", 64) }, bnerrors.ErrCodeInvalidKey},
		{"path key", func(r *Record) { r.Key = "../" + strings.Repeat("a", 61) }, bnerrors.ErrCodeInvalidKey},
		{"no score", func(r *Record) { r.Score = score.Max }, bnerrors.ErrCodeInvalidInput},
		{"no ordering", func(r *Record) { r.Ordering = nil }, bnerrors.ErrCodeInvalidInput},
		{"control name", func(r *Record) { r.Instance = "a\x00b" }, bnerrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := record(key('f'), 1)
			tt.mod(&r)
			err := r.Validate()
			if got := bnerrors.GetCode(err); got != tt.code {
				t.Errorf("Validate() code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestBackoffRetry(t *testing.T) {
	ctx := context.Background()
	b := Backoff{Attempts: 3, Delay: time.Millisecond}

	calls := 0
	err := b.Retry(ctx, func() error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("Retry = %v after %d calls, want success after 3", err, calls)
	}

	calls = 0
	permanent := errors.New("permanent")
	err = b.Retry(ctx, func() error { calls++; return permanent })
	if !errors.Is(err, permanent) || calls != 1 {
		t.Errorf("non-retryable error should stop at once, got %v after %d calls", err, calls)
	}

	calls = 0
	err = b.Retry(ctx, func() error { calls++; return Retryable(permanent) })
	if calls != 3 || IsRetryable(err) || !errors.Is(err, permanent) {
		t.Errorf("exhausted retries should return the unwrapped error, got %v after %d calls", err, calls)
	}

	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
}

type countingHooks struct {
	observability.NoopStoreHooks
	hits, misses, puts int
}

func (h *countingHooks) OnHit(context.Context, string)       { h.hits++ }
func (h *countingHooks) OnMiss(context.Context, string)      { h.misses++ }
func (h *countingHooks) OnPut(context.Context, string, bool) { h.puts++ }

func TestInstrument(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetStoreHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := Instrument(fs, "file")

	_, _ = s.Get(ctx, key('a'))
	_, _ = s.Put(ctx, record(key('a'), 3))
	_, _ = s.Get(ctx, key('a'))

	if hooks.hits != 1 || hooks.misses != 1 || hooks.puts != 1 {
		t.Errorf("hooks = %+v, want 1 hit, 1 miss, 1 put", *hooks)
	}
}

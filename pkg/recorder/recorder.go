// Package recorder keeps the progress of a search run: every sample handed
// to it, the subsequence of strict improvements, and the best ordering.
//
// A Register is the search clock as well. Drivers compare Elapsed against
// their time limit, so the limit counts from New or the latest Reset.
//
// Registers are safe for concurrent use, so a dashboard can read one while
// a search writes to it.
package recorder

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/score"
)

// Sample is one recorded score and when it was recorded.
type Sample struct {
	Elapsed time.Duration
	Score   score.Score
}

// MarshalJSON encodes the sample with millisecond precision.
func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ElapsedMS int64 `json:"elapsed_ms"`
		Score     int64 `json:"score"`
	}{s.Elapsed.Milliseconds(), int64(s.Score)})
}

// Register records search progress.
type Register struct {
	mu       sync.Mutex
	id       string
	origin   time.Time
	samples  []Sample
	improved []Sample
	best     score.Score
	ordering order.Ordering
	onRecord func(Sample, bool)
}

// Option configures a Register.
type Option func(*Register)

// WithOnRecord registers fn to observe every sample. improved reports
// whether the sample is a new best. fn runs with the register locked and
// must not call back into it.
func WithOnRecord(fn func(s Sample, improved bool)) Option {
	return func(r *Register) { r.onRecord = fn }
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(r *Register) { r.id = id }
}

// New returns an empty Register with a fresh run id whose clock starts now.
func New(opts ...Option) *Register {
	r := &Register{
		id:     uuid.NewString(),
		origin: time.Now(),
		best:   score.Max,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunID returns the register's run id.
func (r *Register) RunID() string { return r.id }

// Record stores a sample. The best score and ordering change only on
// strict improvement; o is copied.
func (r *Register) Record(s score.Score, o order.Ordering) {
	r.mu.Lock()
	defer r.mu.Unlock()

	smp := Sample{Elapsed: time.Since(r.origin), Score: s}
	r.samples = append(r.samples, smp)
	improved := s < r.best
	if improved {
		r.best = s
		r.ordering = append(r.ordering[:0], o...)
		r.improved = append(r.improved, smp)
	}
	if r.onRecord != nil {
		r.onRecord(smp, improved)
	}
}

// Elapsed returns the time since New or the latest Reset.
func (r *Register) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Since(r.origin)
}

// Best returns the best recorded score, score.Max before any sample.
func (r *Register) Best() score.Score {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.best
}

// BestOrdering returns a copy of the ordering that produced Best, or nil.
func (r *Register) BestOrdering() order.Ordering {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ordering.Clone()
}

// Samples returns a copy of every recorded sample.
func (r *Register) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.samples)
}

// Improvements returns a copy of the samples that set a new best.
func (r *Register) Improvements() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.improved)
}

// Reset restarts the clock. Recorded samples are kept.
func (r *Register) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.origin = time.Now()
}

// WriteTo writes every sample as an "elapsed_ms score" line, a BEST line,
// then the improving samples in the same format.
func (r *Register) WriteTo(w io.Writer) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cw := &countingWriter{w: bufio.NewWriter(w)}
	for _, s := range r.samples {
		fmt.Fprintf(cw, "%d %d\n", s.Elapsed.Milliseconds(), int64(s.Score))
	}
	fmt.Fprintln(cw, "BEST")
	for _, s := range r.improved {
		fmt.Fprintf(cw, "%d %d\n", s.Elapsed.Milliseconds(), int64(s.Score))
	}
	if cw.err != nil {
		return cw.n, cw.err
	}
	return cw.n, cw.w.Flush()
}

// Dump writes header lines followed by WriteTo output to path.
func (r *Register) Dump(path string, header ...string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	for _, h := range header {
		if _, err := fmt.Fprintln(f, h); err != nil {
			return err
		}
	}
	_, err = r.WriteTo(f)
	return err
}

// MarshalJSON encodes the run id, best result and sample history.
func (r *Register) MarshalJSON() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best *int64
	if r.best.Known() {
		b := int64(r.best)
		best = &b
	}
	return json.Marshal(struct {
		RunID        string   `json:"run_id"`
		Best         *int64   `json:"best"`
		BestOrdering []int    `json:"best_ordering,omitempty"`
		Samples      []Sample `json:"samples"`
		Improvements []Sample `json:"improvements"`
	}{
		RunID:        r.id,
		Best:         best,
		BestOrdering: r.ordering,
		Samples:      nonNil(r.samples),
		Improvements: nonNil(r.improved),
	})
}

func nonNil(s []Sample) []Sample {
	if s == nil {
		return []Sample{}
	}
	return s
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}

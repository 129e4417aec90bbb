// Package search implements the local-search drivers over variable
// orderings: hill climbing in several flavours, simulated annealing, tabu
// search over recent orderings, swap-based tabu search with a move memory,
// and iterated local search. Each driver has a restart wrapper that draws
// fresh random or greedy start orderings until the time budget runs out or
// a known optimum is reached.
//
// A Searcher bundles what every driver needs: the Evaluator, a random
// source, a Recorder that keeps the best result and the search clock, a
// logger and a set of observability hooks. A Searcher is not safe for
// concurrent use; run parallel searches with separate Searchers.
//
// # Termination
//
// Drivers check the context, the time limit and the known optimum at every
// iteration and return the best solution found so far when any of them
// fires. Context cancellation is not an error: the partial result is
// returned with a nil error.
package search

import (
	"context"
	"io"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/observability"
	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/rng"
	"github.com/matzehuels/bnsearch/pkg/score"
	"github.com/matzehuels/bnsearch/pkg/scoring"
)

// Result is an ordering and its score.
type Result struct {
	Score    score.Score
	Ordering order.Ordering
}

// Better reports whether r scores strictly lower than other.
func (r Result) Better(other Result) bool { return r.Score < other.Score }

// Recorder receives search progress. Record is called with a snapshot of
// every new best solution; implementations keep whatever they need and
// must not retain o without copying. Elapsed is the search clock the
// drivers compare against the time limit, and Best the best score recorded
// so far.
type Recorder interface {
	Record(s score.Score, o order.Ordering)
	Elapsed() time.Duration
	Best() score.Score
}

// clock is the Recorder used when none is configured.
type clock struct {
	start time.Time
	best  score.Score
}

func newClock() *clock { return &clock{start: time.Now(), best: score.Max} }

func (c *clock) Record(s score.Score, _ order.Ordering) { c.best = min(c.best, s) }
func (c *clock) Elapsed() time.Duration                 { return time.Since(c.start) }
func (c *clock) Best() score.Score                      { return c.best }

// Searcher runs search drivers against one catalogue.
type Searcher struct {
	eval    *scoring.Evaluator
	rand    *rng.Source
	rec     Recorder
	logger  *log.Logger
	hooks   observability.SearchHooks
	limit   time.Duration
	optimum score.Score

	pred    *bitset.BitSet
	trace   func(order.Ordering) // sees every accepted tabu move
	method  string
	started time.Time
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithRand sets the random source. The default is seeded from the clock.
func WithRand(r *rng.Source) Option { return func(s *Searcher) { s.rand = r } }

// WithRecorder sets the recorder. The default only tracks the best score
// and the wall clock since New.
func WithRecorder(r Recorder) Option { return func(s *Searcher) { s.rec = r } }

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option { return func(s *Searcher) { s.logger = l } }

// WithHooks sets the observability hooks. The default is the globally
// registered set.
func WithHooks(h observability.SearchHooks) Option { return func(s *Searcher) { s.hooks = h } }

// WithTimeLimit stops drivers once the recorder's clock reaches d. Zero
// means no limit.
func WithTimeLimit(d time.Duration) Option { return func(s *Searcher) { s.limit = d } }

// WithOptimum stops drivers as soon as a score within score.Epsilon
// percent of opt is found. score.Max disables the check.
func WithOptimum(opt score.Score) Option { return func(s *Searcher) { s.optimum = opt } }

// New returns a Searcher over eval.
func New(eval *scoring.Evaluator, opts ...Option) *Searcher {
	s := &Searcher{
		eval:    eval,
		optimum: score.Max,
		pred:    bitset.New(uint(eval.N())),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rand == nil {
		s.rand = rng.New(0)
	}
	if s.rec == nil {
		s.rec = newClock()
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if s.hooks == nil {
		s.hooks = observability.Search()
	}
	return s
}

// Evaluator returns the evaluator s searches with.
func (s *Searcher) Evaluator() *scoring.Evaluator { return s.eval }

// Rand returns the random source s draws from.
func (s *Searcher) Rand() *rng.Source { return s.rand }

// Recorder returns the recorder s reports to.
func (s *Searcher) Recorder() Recorder { return s.rec }

// Logger returns the logger s writes to.
func (s *Searcher) Logger() *log.Logger { return s.logger }

// TimeLimit returns the configured time limit, zero when unlimited.
func (s *Searcher) TimeLimit() time.Duration { return s.limit }

// Optimum returns the known optimum, score.Max when unknown.
func (s *Searcher) Optimum() score.Score { return s.optimum }

// Expired reports whether the context is done or the time limit has been
// reached.
func (s *Searcher) Expired(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return s.limit > 0 && s.rec.Elapsed() >= s.limit
}

// Optimal reports whether sc is within tolerance of the known optimum.
func (s *Searcher) Optimal(sc score.Score) bool {
	return score.IsOptimal(sc, s.optimum)
}

// Done reports whether a driver holding best should stop.
func (s *Searcher) Done(ctx context.Context, best score.Score) bool {
	return s.Expired(ctx) || s.Optimal(best)
}

// Bounded reports whether some stop condition other than reaching the
// optimum can end an unbounded restart loop.
func (s *Searcher) Bounded(ctx context.Context) bool {
	if s.limit > 0 {
		return true
	}
	_, ok := ctx.Deadline()
	return ok || ctx.Done() != nil
}

// Record passes a solution to the recorder if it beats everything recorded
// so far.
func (s *Searcher) Record(ctx context.Context, sc score.Score, o order.Ordering) {
	if sc >= s.rec.Best() {
		return
	}
	s.rec.Record(sc, o)
	s.hooks.OnImprovement(ctx, s.methodName(), int64(sc), s.rec.Elapsed())
	s.logger.Debug("new best", "method", s.methodName(), "score", sc, "elapsed", s.rec.Elapsed().Truncate(time.Millisecond))
}

// Sample passes a solution to the recorder unconditionally.
func (s *Searcher) Sample(ctx context.Context, sc score.Score, o order.Ordering) {
	improved := sc < s.rec.Best()
	s.rec.Record(sc, o)
	if improved {
		s.hooks.OnImprovement(ctx, s.methodName(), int64(sc), s.rec.Elapsed())
	}
}

// Iteration reports one completed driver iteration.
func (s *Searcher) Iteration(ctx context.Context, current score.Score) {
	s.hooks.OnIteration(ctx, s.methodName(), int64(current))
}

// Begin marks the start of a top-level driver call. Nested calls (a climb
// inside ILS, say) keep reporting under the outer method. The returned
// function reports completion and must be deferred by the caller.
func (s *Searcher) Begin(ctx context.Context, method string) func(*Result, *error) {
	if s.method != "" {
		return func(*Result, *error) {}
	}
	s.method = method
	s.started = time.Now()
	s.hooks.OnRunStart(ctx, method, s.eval.N())
	return func(r *Result, err *error) {
		best := score.Max
		if r != nil {
			best = r.Score
		}
		s.hooks.OnRunComplete(ctx, method, int64(best), time.Since(s.started), *err)
		s.method = ""
	}
}

func (s *Searcher) methodName() string {
	if s.method == "" {
		return "search"
	}
	return s.method
}

// Start returns a start ordering: greedy with the given greediness when it
// is positive, uniformly random otherwise.
func (s *Searcher) Start(greediness int) (order.Ordering, error) {
	if greediness > 0 {
		return order.Greedy(s.eval.Catalogue(), s.rand, greediness)
	}
	return order.Random(s.rand, s.eval.N()), nil
}

func (s *Searcher) state(o order.Ordering) (*scoring.State, error) {
	if len(o) != s.eval.N() {
		return nil, errors.New(errors.ErrCodeInvalidOrdering,
			"ordering has %d variables, catalogue has %d", len(o), s.eval.N())
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return s.eval.NewState(o)
}

func result(st *scoring.State) Result {
	return Result{Score: st.Score, Ordering: st.Ordering.Clone()}
}

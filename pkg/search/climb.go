package search

import (
	"context"
	"fmt"

	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/score"
	"github.com/matzehuels/bnsearch/pkg/scoring"
)

// Strategy selects how a hill climb picks its next move.
type Strategy int

const (
	// ClimbHybrid visits pivots in random order and applies the best
	// relocation of the first pivot that has an improving one.
	ClimbHybrid Strategy = iota
	// ClimbFirstPair visits all (pivot, target) pairs in random order and
	// applies the first improving relocation.
	ClimbFirstPair
	// ClimbFirstTable prices every relocation up front from cache-free
	// sweeps, then applies the first improving one in random pair order.
	ClimbFirstTable
	// ClimbBest applies the best relocation over all pivots, stopping when
	// it no longer improves.
	ClimbBest
	// ClimbLegacy is ClimbHybrid priced with the cache-free sweep.
	ClimbLegacy
)

var strategyNames = map[Strategy]string{
	ClimbHybrid:     "hybrid",
	ClimbFirstPair:  "first-pair",
	ClimbFirstTable: "first-table",
	ClimbBest:       "best",
	ClimbLegacy:     "legacy",
}

func (st Strategy) String() string {
	if name, ok := strategyNames[st]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(st))
}

// ParseStrategy maps a strategy name to its value.
func ParseStrategy(name string) (Strategy, error) {
	for st, n := range strategyNames {
		if n == name {
			return st, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidMethod, "unknown climb strategy %q", name)
}

// Climb hill-climbs from o with the given strategy until no relocation
// improves the score or the search must stop.
func (s *Searcher) Climb(ctx context.Context, o order.Ordering, strategy Strategy) (res Result, err error) {
	done := s.Begin(ctx, "climb")
	defer done(&res, &err)

	st, err := s.state(o)
	if err != nil {
		return Result{Score: score.Max}, err
	}
	if err := s.ClimbState(ctx, st, strategy); err != nil {
		return result(st), err
	}
	return result(st), nil
}

// ClimbState is Climb on an existing State, which is improved in place.
func (s *Searcher) ClimbState(ctx context.Context, st *scoring.State, strategy Strategy) error {
	var step func(context.Context, *scoring.State) (bool, error)
	switch strategy {
	case ClimbHybrid:
		step = s.stepHybrid
	case ClimbFirstPair:
		step = s.stepFirstPair
	case ClimbFirstTable:
		step = s.stepFirstTable
	case ClimbBest:
		step = s.stepBest
	case ClimbLegacy:
		step = s.stepLegacy
	default:
		return errors.New(errors.ErrCodeInvalidMethod, "unknown climb strategy %d", int(strategy))
	}

	s.Record(ctx, st.Score, st.Ordering)
	for !s.Done(ctx, st.Score) {
		improved, err := step(ctx, st)
		if err != nil {
			return err
		}
		if !improved {
			break
		}
		s.Iteration(ctx, st.Score)
		s.Record(ctx, st.Score, st.Ordering)
	}
	return nil
}

func (s *Searcher) stepHybrid(_ context.Context, st *scoring.State) (bool, error) {
	for _, p := range s.rand.Perm(len(st.Ordering)) {
		r, err := s.eval.BestRelocation(st, p, nil)
		if err != nil {
			return false, err
		}
		if r.Score < st.Score {
			return true, s.eval.Apply(st, r)
		}
	}
	return false, nil
}

func (s *Searcher) stepLegacy(_ context.Context, st *scoring.State) (bool, error) {
	for _, p := range s.rand.Perm(len(st.Ordering)) {
		r, err := s.eval.SlowBestRelocation(st.Ordering, p, st.Score, nil)
		if err != nil {
			return false, err
		}
		if r.Score < st.Score {
			return true, s.eval.Apply(st, r)
		}
	}
	return false, nil
}

func (s *Searcher) stepFirstPair(ctx context.Context, st *scoring.State) (bool, error) {
	n := len(st.Ordering)
	for k, pair := range s.rand.Perm(n * n) {
		from, to := pair/n, pair%n
		if from == to {
			continue
		}
		if k%1024 == 1023 && s.Expired(ctx) {
			return false, nil
		}
		r, err := s.eval.RelocationTo(st, from, to)
		if err != nil {
			return false, err
		}
		if r.Score < st.Score {
			return true, s.eval.Apply(st, r)
		}
	}
	return false, nil
}

func (s *Searcher) stepFirstTable(_ context.Context, st *scoring.State) (bool, error) {
	n := len(st.Ordering)
	table, err := s.eval.SlowRelocationTable(st.Ordering, st.Score, nil)
	if err != nil {
		return false, err
	}
	for _, pair := range s.rand.Perm(n * n) {
		from, to := pair/n, pair%n
		if table[from][to] < st.Score {
			r := scoring.Relocation{Pivot: from, Target: to, Score: table[from][to]}
			return true, s.eval.Apply(st, r)
		}
	}
	return false, nil
}

func (s *Searcher) stepBest(_ context.Context, st *scoring.State) (bool, error) {
	best := scoring.Relocation{Score: score.Max}
	for p := range st.Ordering {
		r, err := s.eval.BestRelocation(st, p, nil)
		if err != nil {
			return false, err
		}
		if r.Score < best.Score {
			best = r
		}
	}
	if best.Score >= st.Score {
		return false, nil
	}
	return true, s.eval.Apply(st, best)
}

package search

import (
	"context"
	"math"

	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/score"
	"github.com/matzehuels/bnsearch/pkg/scoring"
)

// Neighbourhood is the move set simulated annealing samples from.
type Neighbourhood string

const (
	// NeighbourSwap exchanges two random positions.
	NeighbourSwap Neighbourhood = "swap"
	// NeighbourInsert moves one random variable to another random position.
	NeighbourInsert Neighbourhood = "insert"
)

// AnnealParams configures simulated annealing.
type AnnealParams struct {
	InitialTemp   float64
	Steps         int
	Decay         float64 // temperature multiplier applied after every step
	Neighbourhood Neighbourhood
}

// DefaultAnnealParams returns the stock annealing schedule.
func DefaultAnnealParams() AnnealParams {
	return AnnealParams{
		InitialTemp:   1e9,
		Steps:         10000,
		Decay:         0.98,
		Neighbourhood: NeighbourSwap,
	}
}

// Validate checks that p describes a usable schedule.
func (p AnnealParams) Validate() error {
	switch {
	case p.InitialTemp <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "initial temperature must be positive, got %g", p.InitialTemp)
	case p.Steps <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "annealing steps must be positive, got %d", p.Steps)
	case p.Decay <= 0 || p.Decay > 1:
		return errors.New(errors.ErrCodeInvalidConfig, "decay must be in (0, 1], got %g", p.Decay)
	case p.Neighbourhood != NeighbourSwap && p.Neighbourhood != NeighbourInsert:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown neighbourhood %q", p.Neighbourhood)
	}
	return nil
}

// Anneal runs one simulated annealing schedule from o and returns the best
// ordering visited. A neighbour with delta d is accepted when d < 0, or
// with probability exp(-d/T) otherwise.
func (s *Searcher) Anneal(ctx context.Context, o order.Ordering, p AnnealParams) (res Result, err error) {
	done := s.Begin(ctx, "anneal")
	defer done(&res, &err)

	if err := p.Validate(); err != nil {
		return Result{Score: score.Max}, err
	}
	st, err := s.state(o)
	if err != nil {
		return Result{Score: score.Max}, err
	}
	best := result(st)
	s.Record(ctx, best.Score, best.Ordering)

	n := len(st.Ordering)
	if n < 2 {
		return best, nil
	}

	temp := p.InitialTemp
	for step := 0; step < p.Steps && !s.Done(ctx, best.Score); step++ {
		i, j := s.rand.UniquePair(n)
		switch p.Neighbourhood {
		case NeighbourSwap:
			if _, err := s.annealSwap(st, min(i, j), max(i, j), temp); err != nil {
				return best, err
			}

		case NeighbourInsert:
			r, err := s.eval.RelocationTo(st, i, j)
			if err != nil {
				return best, err
			}
			if s.accept(r.Score-st.Score, temp) {
				if err := s.eval.Apply(st, r); err != nil {
					return best, err
				}
			}
		}

		if st.Score < best.Score {
			best = result(st)
			s.Record(ctx, best.Score, best.Ordering)
		}
		s.Iteration(ctx, st.Score)
		temp *= p.Decay
	}
	return best, nil
}

// annealSwap proposes exchanging positions lo and hi of st. An accepted
// swap rescores the range so the choice cache stays consistent; a rejected
// one leaves st unchanged.
func (s *Searcher) annealSwap(st *scoring.State, lo, hi int, temp float64) (bool, error) {
	before := st.RangeScore(lo, hi)
	st.Ordering.Swap(lo, hi)
	after, err := s.eval.ScoreRange(st.Ordering, lo, hi)
	if err != nil {
		st.Ordering.Swap(lo, hi)
		return false, err
	}
	if !s.accept(after-before, temp) {
		st.Ordering.Swap(lo, hi)
		return false, nil
	}
	return true, s.eval.Rescore(st, lo, hi)
}

func (s *Searcher) accept(delta score.Score, temp float64) bool {
	if delta < 0 {
		return true
	}
	return s.rand.Float64() <= math.Exp(-float64(delta)/temp)
}

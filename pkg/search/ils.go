package search

import (
	"context"

	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/score"
)

// ILSParams configures iterated local search.
type ILSParams struct {
	Perturb   int     // random swaps per perturbation
	Soft      int     // consecutive rejected perturbations before stopping
	Hard      int     // accepted perturbations before stopping
	Tolerance float64 // accept climbs up to this fraction worse than the incumbent
	Strategy  Strategy
}

// DefaultILSParams returns the stock settings.
func DefaultILSParams() ILSParams {
	return ILSParams{Perturb: 4, Soft: 10, Hard: 150, Strategy: ClimbHybrid}
}

// Validate checks p.
func (p ILSParams) Validate() error {
	switch {
	case p.Perturb < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "perturbation size must be at least 1, got %d", p.Perturb)
	case p.Soft < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "ILS soft limit must be at least 1, got %d", p.Soft)
	case p.Hard < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "ILS hard limit must be at least 1, got %d", p.Hard)
	case p.Tolerance < 0 || p.Tolerance >= 1:
		return errors.New(errors.ErrCodeInvalidConfig, "ILS tolerance must be in [0, 1), got %g", p.Tolerance)
	}
	return nil
}

// accepts reports whether a climbed score next replaces the incumbent cur.
func (p ILSParams) accepts(next, cur score.Score) bool {
	return (1-p.Tolerance)*float64(next) < float64(cur)
}

// ILS runs iterated local search from o: climb, then repeatedly perturb the
// incumbent with Perturb random swaps and climb again. A climbed ordering
// replaces the incumbent when (1-Tolerance) times its score is below the
// incumbent's. The run ends after Hard acceptances or Soft consecutive
// rejections, and returns the best ordering seen.
func (s *Searcher) ILS(ctx context.Context, o order.Ordering, p ILSParams) (res Result, err error) {
	done := s.Begin(ctx, "ils")
	defer done(&res, &err)

	if err := p.Validate(); err != nil {
		return Result{Score: score.Max}, err
	}
	cur, err := s.state(o)
	if err != nil {
		return Result{Score: score.Max}, err
	}
	if err := s.ClimbState(ctx, cur, p.Strategy); err != nil {
		return result(cur), err
	}
	best := result(cur)
	s.Record(ctx, best.Score, best.Ordering)

	for accepted, rejected := 0, 0; accepted < p.Hard && rejected < p.Soft; {
		if s.Done(ctx, best.Score) {
			break
		}
		perturbed := cur.Ordering.Clone()
		perturbed.Perturb(s.rand, p.Perturb)
		next, err := s.eval.NewState(perturbed)
		if err != nil {
			return best, err
		}
		if err := s.ClimbState(ctx, next, p.Strategy); err != nil {
			return best, err
		}

		if p.accepts(next.Score, cur.Score) {
			cur = next
			accepted++
			rejected = 0
		} else {
			rejected++
		}
		if cur.Score < best.Score {
			best = result(cur)
			s.Record(ctx, best.Score, best.Ordering)
		}
		s.Iteration(ctx, cur.Score)
	}
	return best, nil
}

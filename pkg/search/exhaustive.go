package search

import (
	"context"

	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/perm"
	"github.com/matzehuels/bnsearch/pkg/score"
)

// Exhaustive scores every ordering of a catalogue with at most
// perm.MaxExhaustive variables and returns the best. Ties keep the first
// ordering enumerated. Cancellation returns the best seen so far.
func (s *Searcher) Exhaustive(ctx context.Context) (res Result, err error) {
	done := s.Begin(ctx, "exhaustive")
	defer done(&res, &err)

	n := s.eval.N()
	if n > perm.MaxExhaustive {
		return Result{Score: score.Max}, errors.New(errors.ErrCodeUnsupported,
			"exhaustive search supports at most %d variables, got %d", perm.MaxExhaustive, n)
	}

	best := Result{Score: score.Max}
	visited := 0
	perm.Each(n, func(p []int) bool {
		visited++
		if visited%1024 == 0 && s.Expired(ctx) {
			return false
		}
		sc, e := s.eval.Score(p)
		if e != nil {
			err = e
			return false
		}
		if sc < best.Score {
			best = Result{Score: sc, Ordering: order.Ordering(p).Clone()}
			s.Record(ctx, best.Score, best.Ordering)
		}
		return true
	})
	if err != nil {
		return best, err
	}
	s.logger.Debug("exhaustive search finished", "orderings", visited, "best", best.Score)
	return best, nil
}

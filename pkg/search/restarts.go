package search

import (
	"context"

	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/score"
)

// Restarts controls a restart wrapper.
type Restarts struct {
	// Greediness selects the start orderings: greedy construction with this
	// greediness when positive, uniformly random otherwise.
	Greediness int
	// MaxRuns bounds the number of runs. Zero means unbounded, which is
	// only allowed when the Searcher has a time limit or the context can
	// be cancelled.
	MaxRuns int
}

// restart drives fn from fresh start orderings until the run budget, the time
// limit or the optimum stops it, and returns the best result.
func (s *Searcher) restart(ctx context.Context, method string, rs Restarts,
	fn func(context.Context, order.Ordering) (Result, error)) (res Result, err error) {
	done := s.Begin(ctx, method)
	defer done(&res, &err)

	if rs.MaxRuns < 0 {
		return Result{Score: score.Max}, errors.New(errors.ErrCodeInvalidConfig, "run budget must not be negative, got %d", rs.MaxRuns)
	}
	if rs.MaxRuns == 0 && !s.Bounded(ctx) {
		return Result{Score: score.Max}, errors.New(errors.ErrCodeInvalidConfig,
			"unbounded restarts need a time limit, a cancellable context or a run budget")
	}

	best := Result{Score: score.Max}
	runs := 0
	for rs.MaxRuns == 0 || runs < rs.MaxRuns {
		start, err := s.Start(rs.Greediness)
		if err != nil {
			return best, err
		}
		r, err := fn(ctx, start)
		if err != nil {
			return best, err
		}
		runs++
		s.Sample(ctx, r.Score, r.Ordering)
		if r.Score < best.Score {
			best = r
		}
		if s.Done(ctx, best.Score) {
			break
		}
	}
	s.logger.Debug("restarts finished", "method", method, "runs", runs, "best", best.Score)
	return best, nil
}

// ClimbRestarts repeats Climb from fresh starts. Every run's result is
// passed to the recorder, improving or not.
func (s *Searcher) ClimbRestarts(ctx context.Context, strategy Strategy, rs Restarts) (Result, error) {
	return s.restart(ctx, "climb", rs, func(ctx context.Context, o order.Ordering) (Result, error) {
		return s.Climb(ctx, o, strategy)
	})
}

// AnnealRestarts repeats Anneal from fresh starts.
func (s *Searcher) AnnealRestarts(ctx context.Context, p AnnealParams, rs Restarts) (Result, error) {
	return s.restart(ctx, "anneal", rs, func(ctx context.Context, o order.Ordering) (Result, error) {
		return s.Anneal(ctx, o, p)
	})
}

// TabuRestarts repeats Tabu from fresh starts.
func (s *Searcher) TabuRestarts(ctx context.Context, p TabuParams, rs Restarts) (Result, error) {
	return s.restart(ctx, "tabu", rs, func(ctx context.Context, o order.Ordering) (Result, error) {
		return s.Tabu(ctx, o, p)
	})
}

// SwapTabuRestarts repeats SwapTabu from fresh starts.
func (s *Searcher) SwapTabuRestarts(ctx context.Context, p SwapTabuParams, rs Restarts) (Result, error) {
	return s.restart(ctx, "swaptabu", rs, func(ctx context.Context, o order.Ordering) (Result, error) {
		return s.SwapTabu(ctx, o, p)
	})
}

// ILSRestarts repeats ILS from fresh starts.
func (s *Searcher) ILSRestarts(ctx context.Context, p ILSParams, rs Restarts) (Result, error) {
	return s.restart(ctx, "ils", rs, func(ctx context.Context, o order.Ordering) (Result, error) {
		return s.ILS(ctx, o, p)
	})
}

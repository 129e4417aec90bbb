package search

import (
	"context"

	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/score"
	"github.com/matzehuels/bnsearch/pkg/scoring"
	"github.com/matzehuels/bnsearch/pkg/tabu"
)

// TabuParams configures tabu search over recently visited orderings.
type TabuParams struct {
	ListSize int // orderings remembered
	Soft     int // consecutive non-improving rounds before stopping
}

// DefaultTabuParams returns the stock tabu settings.
func DefaultTabuParams() TabuParams {
	return TabuParams{ListSize: 20, Soft: 20}
}

// Validate checks p.
func (p TabuParams) Validate() error {
	if p.ListSize < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "tabu list size must be at least 1, got %d", p.ListSize)
	}
	if p.Soft < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "tabu soft limit must be at least 1, got %d", p.Soft)
	}
	return nil
}

// Tabu runs tabu search from o. Every round it prices all relocations,
// takes the lowest scoring one whose result is not among the last
// ListSize orderings, and applies it even when it makes things worse. It
// stops after Soft rounds without a new best, when every move is tabu, or
// when the search must stop, and returns the best ordering visited.
func (s *Searcher) Tabu(ctx context.Context, o order.Ordering, p TabuParams) (res Result, err error) {
	done := s.Begin(ctx, "tabu")
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

	history := tabu.NewOrderingHistory(p.ListSize)
	history.Add(st.Ordering)
	row := make([]score.Score, n)
	scratch := make(order.Ordering, n)

	for stall := 0; stall < p.Soft && !s.Done(ctx, best.Score); {
		pivot, target := -1, -1
		moveScore := score.Max
		for _, pv := range s.rand.Perm(n) {
			if _, err := s.eval.BestRelocation(st, pv, row); err != nil {
				return best, err
			}
			for t, sc := range row {
				if t == pv || sc >= moveScore {
					continue
				}
				copy(scratch, st.Ordering)
				scratch.Relocate(pv, t)
				if history.Contains(scratch) {
					continue
				}
				pivot, target, moveScore = pv, t, sc
			}
		}
		if pivot < 0 {
			s.logger.Debug("tabu: every move is tabu", "score", st.Score)
			break
		}

		r, err := s.eval.RelocationTo(st, pivot, target)
		if err != nil {
			return best, err
		}
		if err := s.eval.Apply(st, r); err != nil {
			return best, err
		}
		history.Add(st.Ordering)
		if s.trace != nil {
			s.trace(st.Ordering)
		}
		s.Iteration(ctx, st.Score)

		if st.Score < best.Score {
			best = result(st)
			s.Record(ctx, best.Score, best.Ordering)
			stall = 0
		} else {
			stall++
		}
	}
	return best, nil
}

// Memory selects what SwapTabu remembers about accepted swaps.
type Memory string

const (
	// MemoryMoves remembers (variable, position) placements. A swap is
	// tabu when it would put either variable back where it recently was.
	MemoryMoves Memory = "moves"
	// MemoryPairs remembers unordered variable pairs. A swap is tabu when
	// the same two variables were recently exchanged.
	MemoryPairs Memory = "pairs"
)

// SwapTabuParams configures tabu search over adjacent swaps.
type SwapTabuParams struct {
	ListSize int // accepted swaps remembered; zero means 2n
	Soft     int // consecutive non-improving steps before stopping
	Memory   Memory
}

// DefaultSwapTabuParams returns the stock settings.
func DefaultSwapTabuParams() SwapTabuParams {
	return SwapTabuParams{Soft: 20, Memory: MemoryMoves}
}

// Validate checks p.
func (p SwapTabuParams) Validate() error {
	if p.ListSize < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "tabu list size must not be negative, got %d", p.ListSize)
	}
	if p.Soft < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "tabu soft limit must be at least 1, got %d", p.Soft)
	}
	if p.Memory != MemoryMoves && p.Memory != MemoryPairs {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown tabu memory %q", p.Memory)
	}
	return nil
}

// swapMemory abstracts over the two memories SwapTabu can use.
type swapMemory interface {
	tabu(pos, a, b int) bool
	remember(pos, a, b int)
}

type moveMemory struct{ h *tabu.MoveHistory }

// After swapping a (at pos) with b, b sits at pos and a at pos+1.
func (m moveMemory) tabu(pos, a, b int) bool {
	return (m.h.ContainsVar(b) && m.h.Contains(b, pos)) ||
		(m.h.ContainsVar(a) && m.h.Contains(a, pos+1))
}

func (m moveMemory) remember(pos, a, b int) {
	m.h.Add(b, pos)
	m.h.Add(a, pos+1)
}

type pairMemory struct{ h *tabu.PairHistory }

func (m pairMemory) tabu(_, a, b int) bool { return m.h.Contains(a, b) }
func (m pairMemory) remember(_, a, b int)  { m.h.Add(a, b) }

// SwapTabu runs tabu search over adjacent swaps from o. Every step it
// prices all n-1 adjacent swaps with one left-to-right pass of swap deltas
// and applies the best non-tabu one, breaking ties between zero-delta
// moves at random. It stops after Soft consecutive steps that do not
// lower the score, when every swap is tabu, or when the search must stop,
// and returns the best ordering visited.
func (s *Searcher) SwapTabu(ctx context.Context, o order.Ordering, p SwapTabuParams) (res Result, err error) {
	done := s.Begin(ctx, "swaptabu")
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
	size := p.ListSize
	if size == 0 {
		size = 2 * n
	}
	var mem swapMemory
	if p.Memory == MemoryPairs {
		mem = pairMemory{tabu.NewPairHistory(size)}
	} else {
		// Each accepted swap records two placements.
		mem = moveMemory{tabu.NewMoveHistory(2*size, n)}
	}

	var plateau []int
	for stall := 0; stall < p.Soft && !s.Done(ctx, best.Score); {
		s.pred.ClearAll()
		bestPos, bestDelta := -1, score.Max
		var bestSwap scoring.SwapResult
		plateau = plateau[:0]

		for i := 0; i+1 < n; i++ {
			a, b := st.Ordering[i], st.Ordering[i+1]
			if mem.tabu(i, a, b) {
				s.pred.Set(uint(a))
				continue
			}
			r, err := s.eval.SwapDelta(st.Ordering, i, st.Choices, s.pred)
			if err != nil {
				return best, err
			}
			s.pred.Set(uint(a))
			delta := r.Score() - st.Choices[a].Score - st.Choices[b].Score
			if delta < bestDelta {
				bestPos, bestDelta, bestSwap = i, delta, r
			}
			if delta == 0 {
				plateau = append(plateau, i)
			}
		}
		if bestPos < 0 {
			s.logger.Debug("swap tabu: every swap is tabu", "score", st.Score)
			break
		}
		if bestDelta == 0 && len(plateau) > 1 {
			bestPos = plateau[s.rand.IntN(len(plateau))]
			s.pred.ClearAll()
			for _, v := range st.Ordering[:bestPos] {
				s.pred.Set(uint(v))
			}
			bestSwap, err = s.eval.SwapDelta(st.Ordering, bestPos, st.Choices, s.pred)
			if err != nil {
				return best, err
			}
		}

		a, b := st.Ordering[bestPos], st.Ordering[bestPos+1]
		st.ApplySwap(bestPos, bestSwap)
		mem.remember(bestPos, a, b)
		if s.trace != nil {
			s.trace(st.Ordering)
		}
		s.Iteration(ctx, st.Score)

		if bestDelta < 0 {
			stall = 0
		} else {
			stall++
		}
		if st.Score < best.Score {
			best = result(st)
			s.Record(ctx, best.Score, best.Ordering)
		}
	}
	return best, nil
}

package scoring

import (
	"slices"

	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/score"
)

// State is a driver's working set: an ordering, the optimal choice of every
// variable under it, and the total score.
type State struct {
	Ordering order.Ordering
	Choices  Choices
	Score    score.Score
}

// NewState scores a copy of o and returns it with a full choice cache.
func (e *Evaluator) NewState(o order.Ordering) (*State, error) {
	total, choices, err := e.ScoreWithChoices(o)
	if err != nil {
		return nil, err
	}
	return &State{Ordering: o.Clone(), Choices: choices, Score: total}, nil
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	return &State{
		Ordering: s.Ordering.Clone(),
		Choices:  slices.Clone(s.Choices),
		Score:    s.Score,
	}
}

// CopyFrom overwrites s with other without reallocating.
func (s *State) CopyFrom(other *State) {
	s.Ordering = append(s.Ordering[:0], other.Ordering...)
	s.Choices = append(s.Choices[:0], other.Choices...)
	s.Score = other.Score
}

// ApplySwap commits the adjacent swap at i using the result of SwapDelta.
func (s *State) ApplySwap(i int, r SwapResult) {
	a, b := s.Ordering[i], s.Ordering[i+1]
	s.Score += r.Score() - s.Choices[a].Score - s.Choices[b].Score
	s.Ordering.Swap(i, i+1)
	s.Choices[b] = r.First
	s.Choices[a] = r.Second
}

// RangeScore returns the cached scores of the variables at positions lo
// through hi inclusive.
func (s *State) RangeScore(lo, hi int) score.Score {
	var total score.Score
	for _, v := range s.Ordering[lo : hi+1] {
		total += s.Choices[v].Score
	}
	return total
}

// Rescore recomputes the choices of the variables at positions lo through
// hi and adjusts the total. It must follow any change to s.Ordering that
// stays within that range, such as a swap of lo and hi.
func (e *Evaluator) Rescore(s *State, lo, hi int) error {
	pred := Predecessors(s.Ordering, lo)
	for i := lo; i <= hi; i++ {
		v := s.Ordering[i]
		p, err := e.BestParent(pred, v)
		if err != nil {
			return err
		}
		s.Score += p.Score - s.Choices[v].Score
		s.Choices[v] = Choice{Rank: p.Rank, Score: p.Score}
		pred.Set(uint(v))
	}
	return nil
}

// Apply commits r to s. Relocations that carry choice updates are applied
// in place; those that do not, as produced by the slow evaluators, are
// applied by rescoring.
func (e *Evaluator) Apply(s *State, r Relocation) error {
	if r.Pivot == r.Target {
		return nil
	}
	s.Ordering.Relocate(r.Pivot, r.Target)
	if r.Updates == nil {
		total, choices, err := e.ScoreWithChoices(s.Ordering)
		if err != nil {
			return err
		}
		s.Choices, s.Score = choices, total
		return nil
	}
	lo := min(r.Pivot, r.Target)
	for k, c := range r.Updates {
		s.Choices[s.Ordering[lo+k]] = c
	}
	s.Score = r.Score
	return nil
}

// Verify recomputes s from its ordering and fails with an
// INCONSISTENT_CACHE error if the cached choices or total disagree. Choices
// may differ in rank between equally scored candidates but must be feasible.
func (e *Evaluator) Verify(s *State) error {
	if err := s.Ordering.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInconsistentCache, err, "state ordering")
	}
	total, choices, err := e.ScoreWithChoices(s.Ordering)
	if err != nil {
		return err
	}
	if total != s.Score {
		return errors.New(errors.ErrCodeInconsistentCache, "cached total %d, recomputed %d", s.Score, total)
	}
	pos := s.Ordering.Inverse()
	for v, c := range s.Choices {
		if c.Score != choices[v].Score {
			return errors.New(errors.ErrCodeInconsistentCache,
				"variable %d: cached score %d, recomputed %d", v, c.Score, choices[v].Score)
		}
		p := e.cat.Var(v).Candidate(c.Rank)
		if p.Score != c.Score {
			return errors.New(errors.ErrCodeInconsistentCache,
				"variable %d: cached rank %d scores %d, cache says %d", v, c.Rank, p.Score, c.Score)
		}
		for _, parent := range p.Members {
			if pos[parent] >= pos[v] {
				return errors.New(errors.ErrCodeInconsistentCache,
					"variable %d: cached parent %d does not precede it", v, parent)
			}
		}
	}
	return nil
}

package scoring

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/score"
)

// SwapResult holds the new choices of the two variables of an adjacent
// swap at position i.
type SwapResult struct {
	First  Choice // the variable that moved from i+1 to i
	Second Choice // the variable that moved from i to i+1
}

// Score returns the combined score of both variables after the swap.
func (r SwapResult) Score() score.Score {
	return r.First.Score + r.Second.Score
}

// SwapDelta prices swapping the variables at positions i and i+1 of o
// without touching o. choices must be consistent with o, and pred must hold
// exactly the variables before position i; pred is unchanged on return.
//
// Let a be at i and b at i+1. After the swap b loses a as a potential
// parent, so b is rescanned only if its cached parent set contains a. a
// gains b, so a is searched only among candidates containing b that beat
// its current score, and not at all if it already holds its best candidate.
func (e *Evaluator) SwapDelta(o order.Ordering, i int, choices Choices, pred *bitset.BitSet) (SwapResult, error) {
	a, b := o[i], o[i+1]
	return e.swap(pred, a, b, choices[a], choices[b])
}

// swap is SwapDelta on explicit variables and choices, so relocation sweeps
// can thread the moving variable's choice without copying the cache.
func (e *Evaluator) swap(pred *bitset.BitSet, a, b int, ca, cb Choice) (SwapResult, error) {
	res := SwapResult{First: cb, Second: ca}

	if e.cat.Var(b).Candidate(cb.Rank).Contains(a) {
		p, err := e.BestParent(pred, b)
		if err != nil {
			return res, err
		}
		res.First = Choice{Rank: p.Rank, Score: p.Score}
	}

	if ca.Rank != 0 {
		pred.Set(uint(b))
		if p, ok := e.BestParentContaining(pred, a, b, ca.Score); ok {
			res.Second = Choice{Rank: p.Rank, Score: p.Score}
		}
		pred.Clear(uint(b))
	}
	return res, nil
}

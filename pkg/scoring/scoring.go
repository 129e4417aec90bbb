// Package scoring evaluates orderings against a catalogue.
//
// The score of an ordering is the sum, over variables, of the best parent
// set whose members all precede the variable. Evaluator computes it from
// scratch and, more importantly, incrementally: SwapDelta prices an adjacent
// swap by rescanning only what the swap can change, and BestRelocation
// prices moving one variable to every other position with two linear sweeps
// of swap deltas. Drivers keep a State (ordering, per-variable choice cache
// and total) and commit moves through Apply, which keeps the three in step.
//
// # Invariants
//
// Every path that mutates a State updates the ordering, the cache and the
// total together. A variable with no feasible parent set under some
// predecessor set is reported as an INFEASIBLE error; it is never replaced
// by an arbitrary candidate.
//
// An Evaluator owns scratch buffers and is not safe for concurrent use.
package scoring

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/bnsearch/pkg/catalogue"
	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/score"
)

// Choice is the cached parent set of one variable: its rank in the
// variable's candidate list and its score.
type Choice struct {
	Rank  int
	Score score.Score
}

// Choices holds one Choice per variable, indexed by variable id.
type Choices []Choice

// Evaluator scores orderings of one catalogue.
type Evaluator struct {
	cat  *catalogue.Catalogue
	n    int
	pred *bitset.BitSet

	fwdMoved, fwdPivot []Choice
	bwdMoved, bwdPivot []Choice
}

// New returns an Evaluator for cat.
func New(cat *catalogue.Catalogue) *Evaluator {
	n := cat.N()
	return &Evaluator{
		cat:      cat,
		n:        n,
		pred:     bitset.New(uint(n)),
		fwdMoved: make([]Choice, n),
		fwdPivot: make([]Choice, n),
		bwdMoved: make([]Choice, n),
		bwdPivot: make([]Choice, n),
	}
}

// Catalogue returns the catalogue e scores against.
func (e *Evaluator) Catalogue() *catalogue.Catalogue { return e.cat }

// N returns the number of variables.
func (e *Evaluator) N() int { return e.n }

// BestParent returns the optimal parent set of v among those contained in
// pred. It fails with an INFEASIBLE error when no candidate fits.
func (e *Evaluator) BestParent(pred *bitset.BitSet, v int) (*catalogue.ParentSet, error) {
	p, ok := e.cat.Var(v).BestFeasible(pred)
	if !ok {
		return nil, errors.New(errors.ErrCodeInfeasible,
			"variable %d has no feasible parent set among %d predecessors", v, pred.Count())
	}
	return p, nil
}

// BestParentContaining looks for a parent set of v that contains
// mustContain, fits pred, and scores strictly below bound. The second
// result is false when there is none.
func (e *Evaluator) BestParentContaining(pred *bitset.BitSet, v, mustContain int, bound score.Score) (*catalogue.ParentSet, bool) {
	return e.cat.Var(v).BestFeasibleContaining(pred, mustContain, bound)
}

// Predecessors returns the set of variables at positions before idx.
func Predecessors(o order.Ordering, idx int) *bitset.BitSet {
	pred := bitset.New(uint(len(o)))
	for _, v := range o[:idx] {
		pred.Set(uint(v))
	}
	return pred
}

// predecessors fills the scratch set with the variables before idx.
func (e *Evaluator) predecessors(o order.Ordering, idx int) *bitset.BitSet {
	e.pred.ClearAll()
	for _, v := range o[:idx] {
		e.pred.Set(uint(v))
	}
	return e.pred
}

// Score returns the total score of o.
func (e *Evaluator) Score(o order.Ordering) (score.Score, error) {
	return e.ScoreRange(o, 0, len(o)-1)
}

// ScoreWithChoices returns the total score of o and the optimal choice of
// every variable.
func (e *Evaluator) ScoreWithChoices(o order.Ordering) (score.Score, Choices, error) {
	choices := make(Choices, e.n)
	pred := bitset.New(uint(e.n))
	var total score.Score
	for _, v := range o {
		p, err := e.BestParent(pred, v)
		if err != nil {
			return score.Max, nil, err
		}
		choices[v] = Choice{Rank: p.Rank, Score: p.Score}
		total += p.Score
		pred.Set(uint(v))
	}
	return total, choices, nil
}

// ScoreRange returns the summed optimal scores of the variables at
// positions start through end inclusive, with the predecessor set seeded
// from the positions before start.
func (e *Evaluator) ScoreRange(o order.Ordering, start, end int) (score.Score, error) {
	pred := Predecessors(o, start)
	var total score.Score
	for i := start; i <= end; i++ {
		p, err := e.BestParent(pred, o[i])
		if err != nil {
			return score.Max, err
		}
		total += p.Score
		pred.Set(uint(o[i]))
	}
	return total, nil
}

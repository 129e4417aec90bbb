// Package catalogue holds the immutable candidate parent-set model that every
// search runs against.
//
// A Catalogue has one Variable per network node. Each Variable lists its
// candidate ParentSets sorted ascending by score, so the first candidate
// whose parents all precede the variable in an ordering is the optimal
// choice for that ordering. A reverse index maps each parent id to the
// ranks of the candidates containing it, which lets incremental scoring
// look only at parent sets a move could newly enable.
//
// Catalogues are built with a Builder or read from the instance text
// format with Read and ReadFile. Once built they are never modified and
// may be shared freely.
package catalogue

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/bnsearch/pkg/score"
)

// ParentSet is one scored candidate parent set of a variable.
type ParentSet struct {
	Var     int            // owning variable
	Rank    int            // position in the variable's sorted candidate list
	Score   score.Score    // local score, lower is better
	Parents *bitset.BitSet // parent ids as a bitset over all variables
	Members []int          // parent ids, ascending
}

// SubsetOf reports whether every parent is in pred.
func (p *ParentSet) SubsetOf(pred *bitset.BitSet) bool {
	return pred.IsSuperSet(p.Parents)
}

// Contains reports whether v is one of the parents.
func (p *ParentSet) Contains(v int) bool {
	return p.Parents.Test(uint(v))
}

// Size returns the number of parents.
func (p *ParentSet) Size() int { return len(p.Members) }

// Variable is a network node with its ranked candidates.
type Variable struct {
	ID         int
	candidates []ParentSet
	containing [][]int
	fallback   int
}

// Len returns the number of candidates.
func (v *Variable) Len() int { return len(v.candidates) }

// Candidate returns the candidate with the given rank.
func (v *Variable) Candidate(rank int) *ParentSet { return &v.candidates[rank] }

// Candidates returns all candidates, best first. The slice must not be
// modified.
func (v *Variable) Candidates() []ParentSet { return v.candidates }

// Containing returns the ranks of the candidates that include parent, in
// ascending score order. The slice must not be modified.
func (v *Variable) Containing(parent int) []int {
	if parent < 0 || parent >= len(v.containing) {
		return nil
	}
	return v.containing[parent]
}

// Fallback returns the rank of the empty parent set, or -1 if the variable
// has none.
func (v *Variable) Fallback() int { return v.fallback }

// BestFeasible returns the first candidate, in rank order, whose parents
// are all in pred. Because candidates are sorted, it is the optimal
// feasible choice, with ties going to the lowest rank.
func (v *Variable) BestFeasible(pred *bitset.BitSet) (*ParentSet, bool) {
	for i := range v.candidates {
		if v.candidates[i].SubsetOf(pred) {
			return &v.candidates[i], true
		}
	}
	return nil, false
}

// BestFeasibleContaining scans only the candidates that include parent and
// returns the first one that is feasible under pred. The scan stops as soon
// as a candidate scores bound or worse, so a hit is always strictly better
// than bound.
func (v *Variable) BestFeasibleContaining(pred *bitset.BitSet, parent int, bound score.Score) (*ParentSet, bool) {
	for _, rank := range v.Containing(parent) {
		p := &v.candidates[rank]
		if p.Score >= bound {
			break
		}
		if p.SubsetOf(pred) {
			return p, true
		}
	}
	return nil, false
}

// Catalogue is the immutable collection of variables of one instance.
type Catalogue struct {
	vars []Variable
	hash string
	size int
}

// N returns the number of variables.
func (c *Catalogue) N() int { return len(c.vars) }

// Var returns variable id.
func (c *Catalogue) Var(id int) *Variable { return &c.vars[id] }

// Hash returns a hex SHA-256 digest of the catalogue contents. Two
// catalogues with the same candidates in the same sorted order share a
// hash regardless of how they were loaded.
func (c *Catalogue) Hash() string { return c.hash }

// Candidates returns the total number of parent sets across all variables.
func (c *Catalogue) Candidates() int { return c.size }

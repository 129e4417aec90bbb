// Package order implements the variable ordering that every search moves
// through: a permutation of variable ids with swap, relocation and
// perturbation moves, plus greedy and random construction.
package order

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/bnsearch/pkg/catalogue"
	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/rng"
	"github.com/matzehuels/bnsearch/pkg/score"
)

// DefaultGreediness is the candidate pool size used by Greedy when the
// caller has no preference.
const DefaultGreediness = 10

// Ordering lists variable ids by position. A valid Ordering of length n is
// a permutation of 0..n-1.
type Ordering []int

// Identity returns 0, 1, ..., n-1.
func Identity(n int) Ordering {
	o := make(Ordering, n)
	for i := range o {
		o[i] = i
	}
	return o
}

// Random returns a uniformly random ordering of n variables.
func Random(r *rng.Source, n int) Ordering {
	return Ordering(r.Perm(n))
}

// Greedy builds an ordering position by position. At each position it
// takes, for every unplaced variable, the best parent set that fits the
// variables placed so far, keeps the greediness lowest of those scores, and
// places one of their variables chosen uniformly at random.
func Greedy(cat *catalogue.Catalogue, r *rng.Source, greediness int) (Ordering, error) {
	if greediness < 1 {
		greediness = 1
	}
	n := cat.N()
	o := make(Ordering, 0, n)
	placed := bitset.New(uint(n))

	type option struct {
		v int
		s score.Score
	}
	pool := make([]option, 0, n)

	for len(o) < n {
		pool = pool[:0]
		for v := 0; v < n; v++ {
			if placed.Test(uint(v)) {
				continue
			}
			if p, ok := cat.Var(v).BestFeasible(placed); ok {
				pool = append(pool, option{v, p.Score})
			}
		}
		if len(pool) == 0 {
			return nil, errors.New(errors.ErrCodeInfeasible,
				"greedy construction: no unplaced variable has a feasible parent set at position %d", len(o))
		}
		slices.SortStableFunc(pool, func(a, b option) int { return cmp.Compare(a.s, b.s) })
		pick := pool[r.IntN(min(greediness, len(pool)))].v
		o = append(o, pick)
		placed.Set(uint(pick))
	}
	return o, nil
}

// Swap exchanges the variables at positions i and j.
func (o Ordering) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
}

// Relocate removes the variable at position from and reinserts it at
// position to, shifting the variables in between by one.
func (o Ordering) Relocate(from, to int) {
	v := o[from]
	if from < to {
		copy(o[from:to], o[from+1:to+1])
	} else {
		copy(o[to+1:from+1], o[to:from])
	}
	o[to] = v
}

// Perturb applies k swaps between uniformly chosen positions. A swap may
// pick the same position twice and leave the ordering unchanged.
func (o Ordering) Perturb(r *rng.Source, k int) {
	if len(o) < 2 {
		return
	}
	for ; k > 0; k-- {
		o.Swap(r.IntN(len(o)), r.IntN(len(o)))
	}
}

// Clone returns a copy of o.
func (o Ordering) Clone() Ordering {
	return slices.Clone(o)
}

// Equal reports whether o and other list the same variables in the same
// positions.
func (o Ordering) Equal(other Ordering) bool {
	return slices.Equal(o, other)
}

// Inverse returns the position of every variable: Inverse()[o[i]] == i.
func (o Ordering) Inverse() []int {
	inv := make([]int, len(o))
	for i, v := range o {
		inv[v] = i
	}
	return inv
}

// Validate checks that o is a permutation of 0..len(o)-1.
func (o Ordering) Validate() error {
	seen := make([]bool, len(o))
	for i, v := range o {
		if v < 0 || v >= len(o) {
			return errors.New(errors.ErrCodeInvalidOrdering, "position %d holds %d, outside [0,%d)", i, v, len(o))
		}
		if seen[v] {
			return errors.New(errors.ErrCodeInvalidOrdering, "variable %d appears more than once", v)
		}
		seen[v] = true
	}
	return nil
}

// String formats o as space separated ids.
func (o Ordering) String() string {
	var sb strings.Builder
	for i, v := range o {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}

// Parse reads an ordering written as ids separated by spaces or commas and
// validates it.
func Parse(text string) (Ordering, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	o := make(Ordering, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidOrdering, err, "position %d", i)
		}
		o[i] = v
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

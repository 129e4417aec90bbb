package catalogue

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/score"
)

type rawCandidate struct {
	score   score.Score
	parents []int
}

// Builder accumulates candidates and produces a sorted, indexed Catalogue.
// A Builder is single use.
type Builder struct {
	n            int
	raw          [][]rawCandidate
	allowMissing bool
	err          error
}

// NewBuilder returns a Builder for n variables with ids 0..n-1.
func NewBuilder(n int) *Builder {
	return &Builder{n: n, raw: make([][]rawCandidate, max(n, 0))}
}

// AllowMissingFallback lets Build accept variables without an empty parent
// set. Searches over such catalogues can fail with an INFEASIBLE error when
// no candidate of a variable fits its predecessors.
func (b *Builder) AllowMissingFallback() *Builder {
	b.allowMissing = true
	return b
}

// Add appends a candidate for variable v. Errors are reported by Build.
func (b *Builder) Add(v int, s score.Score, parents ...int) *Builder {
	if b.err != nil {
		return b
	}
	if v < 0 || v >= b.n {
		b.err = errors.New(errors.ErrCodeInvalidInstance, "variable %d out of range [0,%d)", v, b.n)
		return b
	}
	ps := slices.Clone(parents)
	slices.Sort(ps)
	ps = slices.Compact(ps)
	for _, p := range ps {
		if p < 0 || p >= b.n {
			b.err = errors.New(errors.ErrCodeInvalidInstance, "variable %d: parent %d out of range [0,%d)", v, p, b.n)
			return b
		}
		if p == v {
			b.err = errors.New(errors.ErrCodeInvalidInstance, "variable %d lists itself as a parent", v)
			return b
		}
	}
	b.raw[v] = append(b.raw[v], rawCandidate{score: s, parents: ps})
	return b
}

// Build sorts each variable's candidates ascending by score, keeping input
// order among equal scores, assigns ranks, and builds the reverse index.
func (b *Builder) Build() (*Catalogue, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.n <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInstance, "catalogue needs at least one variable, got %d", b.n)
	}

	h := sha256.New()
	fmt.Fprintf(h, "%d\n", b.n)

	c := &Catalogue{vars: make([]Variable, b.n)}
	for id, raw := range b.raw {
		if len(raw) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidInstance, "variable %d has no candidate parent sets", id)
		}
		slices.SortStableFunc(raw, func(x, y rawCandidate) int { return cmp.Compare(x.score, y.score) })

		v := Variable{
			ID:         id,
			candidates: make([]ParentSet, len(raw)),
			containing: make([][]int, b.n),
			fallback:   -1,
		}
		fmt.Fprintf(h, "%d %d\n", id, len(raw))
		for rank, r := range raw {
			bs := bitset.New(uint(b.n))
			for _, p := range r.parents {
				bs.Set(uint(p))
				v.containing[p] = append(v.containing[p], rank)
			}
			if len(r.parents) == 0 && v.fallback < 0 {
				v.fallback = rank
			}
			v.candidates[rank] = ParentSet{
				Var:     id,
				Rank:    rank,
				Score:   r.score,
				Parents: bs,
				Members: r.parents,
			}
			fmt.Fprintf(h, "%d %v\n", r.score, r.parents)
		}
		if v.fallback < 0 && !b.allowMissing {
			return nil, errors.New(errors.ErrCodeInvalidInstance, "variable %d has no empty parent set", id)
		}
		c.vars[id] = v
		c.size += len(raw)
	}
	c.hash = hex.EncodeToString(h.Sum(nil))
	return c, nil
}

package genetic

import (
	"cmp"
	"slices"

	"github.com/matzehuels/bnsearch/pkg/score"
	"github.com/matzehuels/bnsearch/pkg/search"
)

// Population is a set of scored orderings.
type Population struct {
	members []search.Result
}

// Len returns the number of members.
func (p *Population) Len() int { return len(p.members) }

// Members returns the members. After Trim they are sorted best first.
func (p *Population) Members() []search.Result { return p.members }

// Member returns the i-th member.
func (p *Population) Member(i int) search.Result { return p.members[i] }

// Add appends one member.
func (p *Population) Add(r search.Result) { p.members = append(p.members, r) }

// Append appends all of rs.
func (p *Population) Append(rs []search.Result) { p.members = append(p.members, rs...) }

// Trim sorts the population best first and cuts it to size. While the
// population is oversized, members scoring the same as their better
// neighbour are dropped first, then the worst members.
func (p *Population) Trim(size int) {
	slices.SortStableFunc(p.members, func(a, b search.Result) int {
		return cmp.Compare(a.Score, b.Score)
	})
	for i := len(p.members) - 1; i > 0 && len(p.members) > size; i-- {
		if p.members[i].Score == p.members[i-1].Score {
			p.members = slices.Delete(p.members, i, i+1)
		}
	}
	if len(p.members) > size {
		p.members = p.members[:size]
	}
}

// Best returns the lowest scoring member, or a Result with score.Max when
// the population is empty.
func (p *Population) Best() search.Result {
	best := search.Result{Score: score.Max}
	for _, m := range p.members {
		if m.Score < best.Score {
			best = m
		}
	}
	return best
}

// MeanFitness returns the integer mean score of the members, or zero for
// an empty population.
func (p *Population) MeanFitness() score.Score {
	if len(p.members) == 0 {
		return 0
	}
	var total score.Score
	for _, m := range p.members {
		total += m.Score
	}
	return total / score.Score(len(p.members))
}

// Keep trims the population to its k best members.
func (p *Population) Keep(k int) {
	p.Trim(len(p.members))
	if k < len(p.members) {
		p.members = p.members[:k]
	}
}

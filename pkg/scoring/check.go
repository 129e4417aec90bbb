package scoring

import (
	"cmp"
	"slices"

	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/score"
)

// Entry is one line of a Report: the variable at a position and the parent
// set it takes.
type Entry struct {
	Position int         `json:"position"`
	Var      int         `json:"var"`
	Score    score.Score `json:"score"`
	Parents  []int       `json:"parents"`
	Valid    bool        `json:"valid"` // every parent precedes the variable
}

// Report is the outcome of Check.
type Report struct {
	Entries []Entry     `json:"entries"`
	Total   score.Score `json:"total"`
	Valid   bool        `json:"valid"`
}

// Check recomputes every variable's optimal parent set under o and
// verifies that each chosen parent occupies an earlier position.
func (e *Evaluator) Check(o order.Ordering) (Report, error) {
	if err := o.Validate(); err != nil {
		return Report{}, err
	}
	_, choices, err := e.ScoreWithChoices(o)
	if err != nil {
		return Report{}, err
	}
	pos := o.Inverse()
	rep := Report{Entries: make([]Entry, len(o)), Valid: true}
	for i, v := range o {
		p := e.cat.Var(v).Candidate(choices[v].Rank)
		ent := Entry{Position: i, Var: v, Score: p.Score, Parents: p.Members, Valid: true}
		for _, parent := range p.Members {
			if pos[parent] >= i {
				ent.Valid = false
			}
		}
		rep.Entries[i] = ent
		rep.Total += p.Score
		rep.Valid = rep.Valid && ent.Valid
	}
	return rep, nil
}

// Network returns the chosen parents of every variable under o, indexed by
// variable id.
func (e *Evaluator) Network(o order.Ordering) ([][]int, error) {
	_, choices, err := e.ScoreWithChoices(o)
	if err != nil {
		return nil, err
	}
	parents := make([][]int, e.n)
	for v, c := range choices {
		parents[v] = e.cat.Var(v).Candidate(c.Rank).Members
	}
	return parents, nil
}

// DepthSort reorders o by the depth of each variable in the network o
// induces, breaking ties by variable id. Parents keep preceding their
// children, so the result scores no worse than o.
func (e *Evaluator) DepthSort(o order.Ordering) (order.Ordering, error) {
	parents, err := e.Network(o)
	if err != nil {
		return nil, err
	}
	depth := make([]int, e.n)
	for _, v := range o {
		d := 0
		for _, p := range parents[v] {
			d = max(d, depth[p]+1)
		}
		depth[v] = d
	}
	sorted := o.Clone()
	slices.SortFunc(sorted, func(a, b int) int {
		if c := cmp.Compare(depth[a], depth[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return sorted, nil
}

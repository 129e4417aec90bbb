package scoring

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/score"
)

// Relocation describes moving the variable at Pivot to Target.
type Relocation struct {
	Pivot  int
	Target int
	Score  score.Score // total score after the move

	// Updates holds the new choices of the variables at positions
	// min(Pivot,Target) through max(Pivot,Target) after the move. It is nil
	// when the evaluator did not track choices.
	Updates []Choice
}

// Moves reports whether r changes the ordering.
func (r Relocation) Moves() bool { return r.Pivot != r.Target }

// BestRelocation prices moving the variable at pivot to every other
// position and returns the lowest scoring destination, whether or not it
// improves on s. Ties go to the first destination found, forward before
// backward. When row is non-nil it must have length n and receives the
// total score for every destination, with row[pivot] set to s.Score.
//
// Both sweeps walk the move as a chain of adjacent swaps, threading the
// predecessor set and the moving variable's choice, so all n-1
// destinations cost O(n) swap deltas.
func (e *Evaluator) BestRelocation(s *State, pivot int, row []score.Score) (Relocation, error) {
	o := s.Ordering
	n := len(o)
	pv := o[pivot]
	best := Relocation{Pivot: pivot, Target: pivot, Score: score.Max}
	if row != nil {
		row[pivot] = s.Score
	}

	pred := e.predecessors(o, pivot)
	pc, total := s.Choices[pv], s.Score
	for i := pivot; i+1 < n; i++ {
		b := o[i+1]
		cb := s.Choices[b]
		res, err := e.swap(pred, pv, b, pc, cb)
		if err != nil {
			return best, err
		}
		total += res.Score() - pc.Score - cb.Score
		e.fwdMoved[i] = res.First
		pc = res.Second
		e.fwdPivot[i+1] = pc
		pred.Set(uint(b))

		if row != nil {
			row[i+1] = total
		}
		if total < best.Score {
			best.Target, best.Score = i+1, total
		}
	}

	pred = e.predecessors(o, pivot)
	pc, total = s.Choices[pv], s.Score
	for i := pivot - 1; i >= 0; i-- {
		a := o[i]
		ca := s.Choices[a]
		pred.Clear(uint(a))
		res, err := e.swap(pred, a, pv, ca, pc)
		if err != nil {
			return best, err
		}
		total += res.Score() - ca.Score - pc.Score
		e.bwdMoved[i+1] = res.Second
		pc = res.First
		e.bwdPivot[i] = pc

		if row != nil {
			row[i] = total
		}
		if total < best.Score {
			best.Target, best.Score = i, total
		}
	}

	if best.Target == pivot {
		best.Score = s.Score
		return best, nil
	}
	best.Updates = e.splice(pivot, best.Target)
	return best, nil
}

// splice copies the sweep results for a move from pivot to target.
func (e *Evaluator) splice(pivot, target int) []Choice {
	if target > pivot {
		upd := make([]Choice, target-pivot+1)
		copy(upd, e.fwdMoved[pivot:target])
		upd[target-pivot] = e.fwdPivot[target]
		return upd
	}
	upd := make([]Choice, pivot-target+1)
	upd[0] = e.bwdPivot[target]
	copy(upd[1:], e.bwdMoved[target+1:pivot+1])
	return upd
}

// RelocationTo prices one specific move of the variable at from to
// position to by walking its chain of swap deltas. s is not modified.
func (e *Evaluator) RelocationTo(s *State, from, to int) (Relocation, error) {
	r := Relocation{Pivot: from, Target: to, Score: s.Score}
	if from == to {
		return r, nil
	}
	o := s.Ordering
	pv := o[from]
	pred := e.predecessors(o, from)
	pc, total := s.Choices[pv], s.Score

	if from < to {
		for i := from; i < to; i++ {
			b := o[i+1]
			cb := s.Choices[b]
			res, err := e.swap(pred, pv, b, pc, cb)
			if err != nil {
				return r, err
			}
			total += res.Score() - pc.Score - cb.Score
			e.fwdMoved[i] = res.First
			pc = res.Second
			e.fwdPivot[i+1] = pc
			pred.Set(uint(b))
		}
	} else {
		for i := from - 1; i >= to; i-- {
			a := o[i]
			ca := s.Choices[a]
			pred.Clear(uint(a))
			res, err := e.swap(pred, a, pv, ca, pc)
			if err != nil {
				return r, err
			}
			total += res.Score() - ca.Score - pc.Score
			e.bwdMoved[i+1] = res.Second
			pc = res.First
			e.bwdPivot[i] = pc
		}
	}
	r.Score = total
	r.Updates = e.splice(from, to)
	return r, nil
}

// pairScore returns the optimal scores of x placed right after pred and y
// placed right after x. pred is unchanged on return.
func (e *Evaluator) pairScore(pred *bitset.BitSet, x, y int) (score.Score, error) {
	px, err := e.BestParent(pred, x)
	if err != nil {
		return score.Max, err
	}
	pred.Set(uint(x))
	py, err := e.BestParent(pred, y)
	pred.Clear(uint(x))
	if err != nil {
		return score.Max, err
	}
	return px.Score + py.Score, nil
}

// SlowBestRelocation is BestRelocation without a choice cache: every swap
// along both sweeps is priced by rescanning both variables through the
// oracle. total must be the score of o. The result carries no Updates.
func (e *Evaluator) SlowBestRelocation(o order.Ordering, pivot int, total score.Score, row []score.Score) (Relocation, error) {
	n := len(o)
	pv := o[pivot]
	best := Relocation{Pivot: pivot, Target: pivot, Score: score.Max}
	if row != nil {
		row[pivot] = total
	}

	pred := e.predecessors(o, pivot)
	cur := total
	for i := pivot; i+1 < n; i++ {
		b := o[i+1]
		before, err := e.pairScore(pred, pv, b)
		if err != nil {
			return best, err
		}
		after, err := e.pairScore(pred, b, pv)
		if err != nil {
			return best, err
		}
		cur += after - before
		pred.Set(uint(b))
		if row != nil {
			row[i+1] = cur
		}
		if cur < best.Score {
			best.Target, best.Score = i+1, cur
		}
	}

	pred = e.predecessors(o, pivot)
	cur = total
	for i := pivot - 1; i >= 0; i-- {
		a := o[i]
		pred.Clear(uint(a))
		before, err := e.pairScore(pred, a, pv)
		if err != nil {
			return best, err
		}
		after, err := e.pairScore(pred, pv, a)
		if err != nil {
			return best, err
		}
		cur += after - before
		if row != nil {
			row[i] = cur
		}
		if cur < best.Score {
			best.Target, best.Score = i, cur
		}
	}

	if best.Target == pivot {
		best.Score = total
	}
	return best, nil
}

// SlowRelocationTable fills table[p][t] with the total score of o after
// moving the variable at p to t, for every pair, from one pass of slow
// sweeps. table[p][p] is total. The table is allocated when nil or
// mis-sized, and returned.
func (e *Evaluator) SlowRelocationTable(o order.Ordering, total score.Score, table [][]score.Score) ([][]score.Score, error) {
	n := len(o)
	if len(table) != n {
		table = make([][]score.Score, n)
		for p := range table {
			table[p] = make([]score.Score, n)
		}
	}
	for p := 0; p < n; p++ {
		if _, err := e.SlowBestRelocation(o, p, total, table[p]); err != nil {
			return table, err
		}
	}
	return table, nil
}

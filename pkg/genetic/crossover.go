package genetic

import (
	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/rng"
)

// Crossover combines two parent orderings of equal length into a child.
// Parents are not modified and the child is always a permutation.
type Crossover func(r *rng.Source, p1, p2 order.Ordering) order.Ordering

// CrossoverOB is order-based crossover: each position keeps p1's variable
// on a coin flip, and the remaining positions take the unused variables in
// the order they appear in p2.
func CrossoverOB(r *rng.Source, p1, p2 order.Ordering) order.Ordering {
	n := len(p1)
	child := make(order.Ordering, n)
	used := make([]bool, n)
	kept := make([]bool, n)
	for i, v := range p1 {
		if r.Coin() {
			child[i] = v
			used[v] = true
			kept[i] = true
		}
	}
	j := 0
	for i := range child {
		if kept[i] {
			continue
		}
		for used[p2[j]] {
			j++
		}
		child[i] = p2[j]
		used[p2[j]] = true
	}
	return child
}

// CrossoverCX is cycle crossover. The positions split into cycles where
// p1 and p2 hold the same set of variables; starting from a random unfilled
// position, each cycle is copied whole from a parent chosen by coin flip.
func CrossoverCX(r *rng.Source, p1, p2 order.Ordering) order.Ordering {
	n := len(p1)
	child := make(order.Ordering, n)
	filled := make([]bool, n)
	inv1 := p1.Inverse()

	open := make([]int, n)
	for i := range open {
		open[i] = i
	}
	for len(open) > 0 {
		k := r.IntN(len(open))
		start := open[k]
		open[k] = open[len(open)-1]
		open = open[:len(open)-1]
		if filled[start] {
			continue
		}
		src := p1
		if r.Coin() {
			src = p2
		}
		for pos := start; !filled[pos]; pos = inv1[p2[pos]] {
			child[pos] = src[pos]
			filled[pos] = true
		}
	}
	return child
}

// CrossoverRK is random-keys crossover: every variable is keyed by the sum
// of its positions in both parents, variables are laid out by ascending
// key, and ties are shuffled.
func CrossoverRK(r *rng.Source, p1, p2 order.Ordering) order.Ordering {
	n := len(p1)
	inv1, inv2 := p1.Inverse(), p2.Inverse()
	buckets := make([][]int, max(2*n-1, 1))
	for v := 0; v < n; v++ {
		k := inv1[v] + inv2[v]
		buckets[k] = append(buckets[k], v)
	}
	child := make(order.Ordering, 0, n)
	for _, b := range buckets {
		r.Shuffle(len(b), func(i, j int) { b[i], b[j] = b[j], b[i] })
		child = append(child, b...)
	}
	return child
}

var crossovers = map[string]Crossover{
	"ob": CrossoverOB,
	"cx": CrossoverCX,
	"rk": CrossoverRK,
}

// ParseCrossover maps "ob", "cx" or "rk" to its operator.
func ParseCrossover(name string) (Crossover, error) {
	if c, ok := crossovers[name]; ok {
		return c, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown crossover %q (want ob, cx or rk)", name)
}

// Package cataloguetest provides catalogue fixtures for tests.
package cataloguetest

import (
	"fmt"
	"math/rand/v2"

	"github.com/matzehuels/bnsearch/pkg/catalogue"
	"github.com/matzehuels/bnsearch/pkg/score"
)

// ChainOptimum is the optimal score of Chain(5). The identity ordering is
// its unique optimum.
const ChainOptimum score.Score = 390

// Chain returns a catalogue where variable i may take any subset P of
// {0..i-1} as parents, scored 100 - 10|P| - sum(P). Every parent j < i that
// precedes i lowers the total by at least 10, so the identity ordering is
// the unique optimum and every ordering with an adjacent inversion can be
// improved by a single adjacent swap.
func Chain(n int) *catalogue.Catalogue {
	b := catalogue.NewBuilder(n)
	for v := 0; v < n; v++ {
		for mask := 0; mask < 1<<v; mask++ {
			var parents []int
			s := score.Score(100)
			for p := 0; p < v; p++ {
				if mask&(1<<p) != 0 {
					parents = append(parents, p)
					s -= 10 + score.Score(p)
				}
			}
			b.Add(v, s, parents...)
		}
	}
	c, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("cataloguetest: chain: %v", err))
	}
	return c
}

// ChainOptimal returns the optimal score of Chain(n).
func ChainOptimal(n int) score.Score {
	var total score.Score
	for v := 0; v < n; v++ {
		total += 100 - 10*score.Score(v) - score.Score(v*(v-1)/2)
	}
	return total
}

// Random returns a catalogue of n variables, each with an empty parent set
// and up to k-1 further candidates of at most maxParents parents. Scores
// are small integers so ties occur often.
func Random(seed uint64, n, k, maxParents int) *catalogue.Catalogue {
	r := rand.New(rand.NewPCG(seed, seed+1))
	b := catalogue.NewBuilder(n)
	for v := 0; v < n; v++ {
		base := score.Score(500 + r.IntN(500))
		b.Add(v, base)
		if n == 1 {
			continue
		}
		for j := 1; j < k; j++ {
			size := 1 + r.IntN(min(maxParents, n-1))
			parents := make([]int, 0, size)
			for len(parents) < size {
				p := r.IntN(n)
				if p != v {
					parents = append(parents, p)
				}
			}
			b.Add(v, base-score.Score(1+r.IntN(int(base)/2)), parents...)
		}
	}
	c, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("cataloguetest: random: %v", err))
	}
	return c
}

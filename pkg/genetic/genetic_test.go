package genetic

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/bnsearch/pkg/catalogue/cataloguetest"
	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/observability"
	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/rng"
	"github.com/matzehuels/bnsearch/pkg/score"
	"github.com/matzehuels/bnsearch/pkg/scoring"
	"github.com/matzehuels/bnsearch/pkg/search"
)

func TestCrossoversProducePermutations(t *testing.T) {
	r := rng.New(99)
	for name, cross := range crossovers {
		t.Run(name, func(t *testing.T) {
			for k := 0; k < 1000; k++ {
				n := 4 + r.IntN(47)
				p1, p2 := order.Random(r, n), order.Random(r, n)
				child := cross(r, p1, p2)
				require.NoError(t, child.Validate(), "parents %v and %v", p1, p2)
				require.Len(t, child, n)
			}
		})
	}
}

func TestCrossoversKeepIdenticalParents(t *testing.T) {
	r := rng.New(1)
	p := order.Random(r, 12)
	for name, cross := range crossovers {
		assert.Equal(t, p, cross(r, p, p.Clone()), name)
	}
}

func TestCrossoverCXTakesEachPositionFromAParent(t *testing.T) {
	r := rng.New(5)
	for k := 0; k < 200; k++ {
		p1, p2 := order.Random(r, 10), order.Random(r, 10)
		child := CrossoverCX(r, p1, p2)
		for i, v := range child {
			assert.True(t, v == p1[i] || v == p2[i], "position %d holds %d, parents hold %d and %d", i, v, p1[i], p2[i])
		}
	}
}

func TestCrossoverRKFollowsSummedPositions(t *testing.T) {
	p1 := order.Ordering{0, 1, 2, 3}
	p2 := order.Ordering{1, 0, 3, 2}
	// Keys: 0->1, 1->1, 2->5, 3->5; each pair may come out in either order.
	child := CrossoverRK(rng.New(3), p1, p2)
	assert.ElementsMatch(t, []int{0, 1}, []int(child[:2]))
	assert.ElementsMatch(t, []int{2, 3}, []int(child[2:]))
}

func TestParseCrossover(t *testing.T) {
	for _, name := range []string{"ob", "cx", "rk"} {
		c, err := ParseCrossover(name)
		require.NoError(t, err)
		assert.NotNil(t, c)
	}
	_, err := ParseCrossover("pmx")
	assert.Equal(t, errors.ErrCodeInvalidConfig, errors.GetCode(err))
}

func results(scores ...score.Score) []search.Result {
	rs := make([]search.Result, len(scores))
	for i, s := range scores {
		rs[i] = search.Result{Score: s, Ordering: order.Identity(1)}
	}
	return rs
}

func scoresOf(p *Population) []score.Score {
	var out []score.Score
	for _, m := range p.Members() {
		out = append(out, m.Score)
	}
	return out
}

func TestPopulationTrim(t *testing.T) {
	tests := []struct {
		in   []score.Score
		size int
		want []score.Score
	}{
		{[]score.Score{5, 3, 3, 1, 4}, 3, []score.Score{1, 3, 4}},
		{[]score.Score{2, 2, 2, 2}, 2, []score.Score{2, 2}},
		{[]score.Score{7, 1}, 5, []score.Score{1, 7}},
		{[]score.Score{4, 4, 1}, 3, []score.Score{1, 4, 4}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			p := &Population{}
			p.Append(results(tt.in...))
			p.Trim(tt.size)
			assert.Equal(t, tt.want, scoresOf(p))
		})
	}
}

func TestPopulationStats(t *testing.T) {
	p := &Population{}
	assert.Equal(t, score.Max, p.Best().Score)
	assert.Equal(t, score.Score(0), p.MeanFitness())

	p.Append(results(9, 4, 8))
	assert.Equal(t, score.Score(4), p.Best().Score)
	assert.Equal(t, score.Score(7), p.MeanFitness())

	p.Keep(2)
	assert.Equal(t, []score.Score{4, 8}, scoresOf(p))
}

func newSearcher(seed uint64, n int, opts ...search.Option) *search.Searcher {
	opts = append([]search.Option{
		search.WithRand(rng.New(seed)),
		search.WithHooks(observability.NoopSearchHooks{}),
	}, opts...)
	return search.New(scoring.New(cataloguetest.Chain(n)), opts...)
}

func TestRunReachesChainOptimum(t *testing.T) {
	s := newSearcher(4, 6)
	p := DefaultParams()
	p.Greediness = 0
	p.PopulationSize = 6
	p.Generations = 3

	r, err := Run(context.Background(), s, p)
	require.NoError(t, err)
	assert.Equal(t, cataloguetest.ChainOptimal(6), r.Score)
	assert.Equal(t, order.Identity(6), r.Ordering)
	assert.Equal(t, r.Score, s.Recorder().Best())
}

func TestRunDiversifiesUnderTimeLimit(t *testing.T) {
	cat := cataloguetest.Random(8, 10, 6, 3)
	s := search.New(scoring.New(cat),
		search.WithRand(rng.New(2)),
		search.WithHooks(observability.NoopSearchHooks{}),
		search.WithTimeLimit(200*time.Millisecond))

	p := DefaultParams()
	p.PopulationSize = 5
	p.Lookahead = 1
	p.Tolerance = 1
	p.Crossover = CrossoverCX

	started := time.Now()
	r, err := Run(context.Background(), s, p)
	require.NoError(t, err)
	assert.Less(t, time.Since(started), 5*time.Second)

	require.NoError(t, r.Ordering.Validate())
	want, err := s.Evaluator().Score(r.Ordering)
	require.NoError(t, err)
	assert.Equal(t, want, r.Score)
}

func TestRunRejectsInvalidParams(t *testing.T) {
	ctx := context.Background()
	s := newSearcher(1, 4)

	p := DefaultParams()
	_, err := Run(ctx, s, p)
	assert.Equal(t, errors.ErrCodeInvalidConfig, errors.GetCode(err), "unbounded run")

	p.Generations = 1
	p.Keep = 0
	_, err = Run(ctx, s, p)
	assert.Equal(t, errors.ErrCodeInvalidConfig, errors.GetCode(err))

	p = DefaultParams()
	p.Crossover = nil
	_, err = Run(ctx, s, p)
	assert.Equal(t, errors.ErrCodeInvalidConfig, errors.GetCode(err))
}

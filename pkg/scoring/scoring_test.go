package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/bnsearch/pkg/catalogue"
	"github.com/matzehuels/bnsearch/pkg/catalogue/cataloguetest"
	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/perm"
	"github.com/matzehuels/bnsearch/pkg/rng"
	"github.com/matzehuels/bnsearch/pkg/score"
)

func mustScore(t *testing.T, e *Evaluator, o order.Ordering) score.Score {
	t.Helper()
	s, err := e.Score(o)
	require.NoError(t, err)
	return s
}

func checkSwap(t *testing.T, e *Evaluator, o order.Ordering) {
	t.Helper()
	for i := 0; i+1 < len(o); i++ {
		s, err := e.NewState(o)
		require.NoError(t, err)
		pred := Predecessors(o, i)
		before := pred.Clone()

		a, b := o[i], o[i+1]
		res, err := e.SwapDelta(o, i, s.Choices, pred)
		require.NoError(t, err)
		require.True(t, pred.Equal(before), "SwapDelta must leave pred unchanged")

		swapped := o.Clone()
		swapped.Swap(i, i+1)
		want := mustScore(t, e, swapped)
		got := s.Score + res.Score() - s.Choices[a].Score - s.Choices[b].Score
		require.Equal(t, want, got, "ordering %v, swap at %d", o, i)

		s.ApplySwap(i, res)
		require.NoError(t, e.Verify(s))
	}
}

func TestSwapDeltaExhaustive(t *testing.T) {
	for n := 2; n <= 8; n++ {
		seeds := uint64(3)
		if n > 6 {
			seeds = 1
		}
		for seed := uint64(1); seed <= seeds; seed++ {
			e := New(cataloguetest.Random(seed*17+uint64(n), n, 6, 3))
			perm.Each(n, func(p []int) bool {
				checkSwap(t, e, order.Ordering(p).Clone())
				return !t.Failed()
			})
		}
	}
}

func TestRescoreAfterSwap(t *testing.T) {
	r := rng.New(21)
	for trial := 0; trial < 10; trial++ {
		n := 2 + trial%7
		e := New(cataloguetest.Random(uint64(trial)+40, n, 8, 3))
		s, err := e.NewState(order.Random(r, n))
		require.NoError(t, err)
		for k := 0; k < 30; k++ {
			i, j := r.UniquePair(n)
			lo, hi := min(i, j), max(i, j)
			before := s.RangeScore(lo, hi)
			want, err := e.ScoreRange(s.Ordering, lo, hi)
			require.NoError(t, err)
			require.Equal(t, want, before, "cached range must match a rescore")

			s.Ordering.Swap(lo, hi)
			require.NoError(t, e.Rescore(s, lo, hi))
			require.NoError(t, e.Verify(s), "ordering %v after swapping %d and %d", s.Ordering, lo, hi)
		}
	}
}

func TestSwapDeltaRandom(t *testing.T) {
	r := rng.New(99)
	for trial := 0; trial < 20; trial++ {
		e := New(cataloguetest.Random(uint64(trial)+100, 8, 10, 4))
		for k := 0; k < 25; k++ {
			checkSwap(t, e, order.Random(r, 8))
		}
	}
}

func TestSwapDeltaChain(t *testing.T) {
	e := New(cataloguetest.Chain(5))
	perm.Each(5, func(p []int) bool {
		checkSwap(t, e, order.Ordering(p).Clone())
		return !t.Failed()
	})
}

func TestBestRelocationMatchesRescore(t *testing.T) {
	r := rng.New(5)
	for trial := 0; trial < 15; trial++ {
		n := 3 + trial%6
		e := New(cataloguetest.Random(uint64(trial)+7, n, 8, 3))
		s, err := e.NewState(order.Random(r, n))
		require.NoError(t, err)

		row := make([]score.Score, n)
		for p := 0; p < n; p++ {
			rel, err := e.BestRelocation(s, p, row)
			require.NoError(t, err)
			assert.Equal(t, s.Score, row[p])

			lowest := score.Max
			for tgt := 0; tgt < n; tgt++ {
				moved := s.Ordering.Clone()
				moved.Relocate(p, tgt)
				require.Equal(t, mustScore(t, e, moved), row[tgt], "pivot %d target %d", p, tgt)
				if tgt != p {
					lowest = score.Min(lowest, row[tgt])
				}
			}
			require.Equal(t, lowest, rel.Score)
			require.True(t, rel.Moves())

			applied := s.Clone()
			require.NoError(t, e.Apply(applied, rel))
			require.Equal(t, rel.Score, applied.Score)
			require.NoError(t, e.Verify(applied))
		}
	}
}

func TestRelocationTo(t *testing.T) {
	e := New(cataloguetest.Random(3, 7, 8, 3))
	s, err := e.NewState(order.Random(rng.New(4), 7))
	require.NoError(t, err)
	for from := 0; from < 7; from++ {
		for to := 0; to < 7; to++ {
			rel, err := e.RelocationTo(s, from, to)
			require.NoError(t, err)
			moved := s.Ordering.Clone()
			moved.Relocate(from, to)
			require.Equal(t, mustScore(t, e, moved), rel.Score)

			applied := s.Clone()
			require.NoError(t, e.Apply(applied, rel))
			require.Equal(t, moved, applied.Ordering)
			require.NoError(t, e.Verify(applied))
		}
	}
}

func TestSlowRelocationAgrees(t *testing.T) {
	r := rng.New(8)
	for trial := 0; trial < 10; trial++ {
		n := 4 + trial%5
		e := New(cataloguetest.Random(uint64(trial)+40, n, 6, 3))
		s, err := e.NewState(order.Random(r, n))
		require.NoError(t, err)

		table, err := e.SlowRelocationTable(s.Ordering, s.Score, nil)
		require.NoError(t, err)
		fast := make([]score.Score, n)
		for p := 0; p < n; p++ {
			rel, err := e.BestRelocation(s, p, fast)
			require.NoError(t, err)
			slow, err := e.SlowBestRelocation(s.Ordering, p, s.Score, nil)
			require.NoError(t, err)

			assert.Equal(t, fast, table[p])
			assert.Equal(t, rel.Score, slow.Score)
			assert.Nil(t, slow.Updates)

			applied := s.Clone()
			require.NoError(t, e.Apply(applied, slow))
			assert.Equal(t, slow.Score, applied.Score)
		}
	}
}

func TestSingleVariable(t *testing.T) {
	cat, err := catalogue.NewBuilder(1).Add(0, 12).Build()
	require.NoError(t, err)
	e := New(cat)
	s, err := e.NewState(order.Identity(1))
	require.NoError(t, err)
	rel, err := e.BestRelocation(s, 0, nil)
	require.NoError(t, err)
	assert.False(t, rel.Moves())
	assert.Equal(t, score.Score(12), rel.Score)
}

func TestScoreRange(t *testing.T) {
	e := New(cataloguetest.Chain(5))
	o := order.Identity(5)
	total := mustScore(t, e, o)
	assert.Equal(t, cataloguetest.ChainOptimum, total)

	head, err := e.ScoreRange(o, 0, 1)
	require.NoError(t, err)
	tail, err := e.ScoreRange(o, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, total, head+tail)
}

func TestInfeasibleIsAnError(t *testing.T) {
	cat, err := catalogue.NewBuilder(2).AllowMissingFallback().
		Add(0, 5).
		Add(1, 3, 0).
		Build()
	require.NoError(t, err)
	e := New(cat)

	_, err = e.Score(order.Ordering{1, 0})
	assert.True(t, errors.Is(err, errors.ErrCodeInfeasible), "got %v", err)

	s, err := e.NewState(order.Ordering{0, 1})
	require.NoError(t, err)
	_, err = e.SwapDelta(s.Ordering, 0, s.Choices, Predecessors(s.Ordering, 0))
	assert.True(t, errors.Is(err, errors.ErrCodeInfeasible), "got %v", err)
}

func TestVerifyDetectsStaleCache(t *testing.T) {
	e := New(cataloguetest.Chain(4))
	s, err := e.NewState(order.Ordering{3, 2, 1, 0})
	require.NoError(t, err)
	require.NoError(t, e.Verify(s))

	stale := s.Clone()
	stale.Ordering.Swap(0, 1)
	assert.True(t, errors.Is(e.Verify(stale), errors.ErrCodeInconsistentCache))

	wrongTotal := s.Clone()
	wrongTotal.Score--
	assert.True(t, errors.Is(e.Verify(wrongTotal), errors.ErrCodeInconsistentCache))
}

func TestCheck(t *testing.T) {
	e := New(cataloguetest.Chain(5))
	rep, err := e.Check(order.Ordering{4, 0, 1, 2, 3})
	require.NoError(t, err)
	assert.True(t, rep.Valid)
	require.Len(t, rep.Entries, 5)
	assert.Equal(t, 4, rep.Entries[0].Var)
	assert.Empty(t, rep.Entries[0].Parents)
	assert.Equal(t, []int{0, 1, 2}, rep.Entries[4].Parents)

	var sum score.Score
	for _, ent := range rep.Entries {
		sum += ent.Score
	}
	assert.Equal(t, rep.Total, sum)

	_, err = e.Check(order.Ordering{0, 0, 1, 2, 3})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOrdering))
}

func TestDepthSort(t *testing.T) {
	r := rng.New(12)
	e := New(cataloguetest.Random(77, 12, 8, 3))
	for k := 0; k < 20; k++ {
		o := order.Random(r, 12)
		sorted, err := e.DepthSort(o)
		require.NoError(t, err)
		require.NoError(t, sorted.Validate())
		assert.LessOrEqual(t, mustScore(t, e, sorted), mustScore(t, e, o))
	}
}

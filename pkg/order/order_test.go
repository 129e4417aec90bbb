package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/bnsearch/pkg/catalogue"
	"github.com/matzehuels/bnsearch/pkg/catalogue/cataloguetest"
	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/rng"
)

func TestRelocate(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     Ordering
	}{
		{"forward", 1, 3, Ordering{0, 2, 3, 1, 4}},
		{"backward", 3, 0, Ordering{3, 0, 1, 2, 4}},
		{"to end", 0, 4, Ordering{1, 2, 3, 4, 0}},
		{"in place", 2, 2, Ordering{0, 1, 2, 3, 4}},
		{"adjacent", 2, 3, Ordering{0, 1, 3, 2, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Identity(5)
			o.Relocate(tt.from, tt.to)
			assert.Equal(t, tt.want, o)
		})
	}
}

func TestMovesKeepPermutation(t *testing.T) {
	r := rng.New(11)
	o := Random(r, 30)
	for step := 0; step < 2000; step++ {
		switch r.IntN(3) {
		case 0:
			i, j := r.UniquePair(len(o))
			o.Swap(i, j)
		case 1:
			i, j := r.UniquePair(len(o))
			o.Relocate(i, j)
		case 2:
			o.Perturb(r, 1+r.IntN(5))
		}
		require.NoError(t, o.Validate(), "after step %d: %v", step, o)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Ordering{2, 0, 1}.Validate())
	assert.True(t, errors.Is(Ordering{0, 0, 1}.Validate(), errors.ErrCodeInvalidOrdering))
	assert.True(t, errors.Is(Ordering{0, 3, 1}.Validate(), errors.ErrCodeInvalidOrdering))
	assert.NoError(t, Ordering{}.Validate())
}

func TestInverse(t *testing.T) {
	o := Ordering{3, 1, 0, 2}
	inv := o.Inverse()
	for i, v := range o {
		assert.Equal(t, i, inv[v])
	}
}

func TestParse(t *testing.T) {
	o, err := Parse("3, 1 0\t2")
	require.NoError(t, err)
	assert.Equal(t, Ordering{3, 1, 0, 2}, o)
	assert.Equal(t, "3 1 0 2", o.String())

	_, err = Parse("0 1 1")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOrdering))
	_, err = Parse("0 x")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOrdering))
}

func TestGreedyIsPermutation(t *testing.T) {
	cat := cataloguetest.Random(5, 25, 6, 3)
	r := rng.New(9)
	for _, g := range []int{0, 1, 10, 100} {
		o, err := Greedy(cat, r, g)
		require.NoError(t, err)
		require.Len(t, o, 25)
		require.NoError(t, o.Validate())
	}
}

func TestGreedinessOneFollowsChain(t *testing.T) {
	// With a pool of one the lowest first-feasible score wins. On the chain
	// catalogue every unplaced variable ties at each position, and ties keep
	// index order.
	cat := cataloguetest.Chain(5)
	o, err := Greedy(cat, rng.New(1), 1)
	require.NoError(t, err)
	assert.Equal(t, Identity(5), o)
}

func TestGreedyInfeasible(t *testing.T) {
	cat, err := catalogue.NewBuilder(2).AllowMissingFallback().
		Add(0, 1, 1).
		Add(1, 1, 0).
		Build()
	require.NoError(t, err)
	_, err = Greedy(cat, rng.New(1), 3)
	assert.True(t, errors.Is(err, errors.ErrCodeInfeasible))
}

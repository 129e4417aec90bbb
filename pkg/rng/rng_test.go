package rng

import "testing"

func TestSameSeedSameStream(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 100; i++ {
		if x, y := a.IntN(1000), b.IntN(1000); x != y {
			t.Fatalf("draw %d differs: %d vs %d", i, x, y)
		}
	}
}

func TestZeroSeedIsReplaced(t *testing.T) {
	if New(0).Seed() == 0 {
		t.Error("zero seed should be replaced with a time-based seed")
	}
}

func TestUniquePair(t *testing.T) {
	s := New(7)
	for _, n := range []int{2, 3, 10} {
		for k := 0; k < 500; k++ {
			i, j := s.UniquePair(n)
			if i == j {
				t.Fatalf("UniquePair(%d) returned equal indexes %d", n, i)
			}
			if i < 0 || i >= n || j < 0 || j >= n {
				t.Fatalf("UniquePair(%d) out of range: %d, %d", n, i, j)
			}
		}
	}
}

func TestPermIsPermutation(t *testing.T) {
	s := New(3)
	p := s.Perm(20)
	seen := make([]bool, 20)
	for _, v := range p {
		if seen[v] {
			t.Fatalf("value %d repeated in %v", v, p)
		}
		seen[v] = true
	}
}

package catalogue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/score"
)

func set(n int, ids ...int) *bitset.BitSet {
	b := bitset.New(uint(n))
	for _, id := range ids {
		b.Set(uint(id))
	}
	return b
}

func buildSample(t *testing.T) *Catalogue {
	t.Helper()
	return buildScaled(t, 1)
}

func buildScaled(t *testing.T, unit score.Score) *Catalogue {
	t.Helper()
	c, err := NewBuilder(3).
		Add(0, 50*unit).
		Add(1, 40*unit).
		Add(1, 10*unit, 0).
		Add(1, 5*unit, 0, 2).
		Add(1, 20*unit, 2).
		Add(2, 30*unit).
		Add(2, 25*unit, 0).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return c
}

func TestBuildSortsAndRanks(t *testing.T) {
	c := buildSample(t)
	v := c.Var(1)
	want := []score.Score{5, 10, 20, 40}
	if v.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", v.Len(), len(want))
	}
	for rank, s := range want {
		p := v.Candidate(rank)
		if p.Score != s || p.Rank != rank || p.Var != 1 {
			t.Errorf("candidate %d = {score %d rank %d var %d}, want score %d", rank, p.Score, p.Rank, p.Var, s)
		}
	}
	if v.Fallback() != 3 {
		t.Errorf("Fallback() = %d, want 3", v.Fallback())
	}
	if c.Candidates() != 7 {
		t.Errorf("Candidates() = %d, want 7", c.Candidates())
	}
}

func TestContainingIndex(t *testing.T) {
	c := buildSample(t)
	v := c.Var(1)
	if got := v.Containing(0); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("Containing(0) = %v, want [0 1]", got)
	}
	if got := v.Containing(2); len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("Containing(2) = %v, want [0 2]", got)
	}
	if got := v.Containing(1); len(got) != 0 {
		t.Errorf("Containing(1) = %v, want empty", got)
	}
	if got := v.Containing(99); got != nil {
		t.Errorf("Containing(99) = %v, want nil", got)
	}
}

func TestBestFeasible(t *testing.T) {
	c := buildSample(t)
	v := c.Var(1)
	tests := []struct {
		name string
		pred *bitset.BitSet
		want score.Score
	}{
		{"nothing before", set(3), 40},
		{"only 0", set(3, 0), 10},
		{"only 2", set(3, 2), 20},
		{"both", set(3, 0, 2), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := v.BestFeasible(tt.pred)
			if !ok {
				t.Fatal("no feasible parent set")
			}
			if p.Score != tt.want {
				t.Errorf("score = %d, want %d", p.Score, tt.want)
			}
		})
	}
}

func TestBestFeasibleContainingBound(t *testing.T) {
	c := buildSample(t)
	v := c.Var(1)

	p, ok := v.BestFeasibleContaining(set(3, 2), 2, 40)
	if !ok || p.Score != 20 {
		t.Fatalf("got %v %v, want score 20", p, ok)
	}
	if _, ok := v.BestFeasibleContaining(set(3, 2), 2, 20); ok {
		t.Error("candidates scoring at the bound must not be returned")
	}
	if _, ok := v.BestFeasibleContaining(set(3, 0), 2, 100); ok {
		t.Error("infeasible candidates must not be returned")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		b    *Builder
	}{
		{"no variables", NewBuilder(0)},
		{"no candidates", NewBuilder(2).Add(0, 1)},
		{"self parent", NewBuilder(2).Add(0, 1).Add(1, 1).Add(1, 0, 1)},
		{"parent out of range", NewBuilder(2).Add(0, 1).Add(1, 1, 5)},
		{"variable out of range", NewBuilder(1).Add(3, 1)},
		{"missing fallback", NewBuilder(2).Add(0, 1).Add(1, 1, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.b.Build()
			if !errors.Is(err, errors.ErrCodeInvalidInstance) {
				t.Errorf("Build() error = %v, want INVALID_INSTANCE", err)
			}
		})
	}
}

func TestAllowMissingFallback(t *testing.T) {
	c, err := NewBuilder(2).AllowMissingFallback().Add(0, 1).Add(1, 1, 0).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if c.Var(1).Fallback() != -1 {
		t.Errorf("Fallback() = %d, want -1", c.Var(1).Fallback())
	}
}

const sampleInstance = `3
1 4
-40 0
-10 1 0
-5 2 0 2
-20 1 2
0 1
-50.0 0
2 2
-30 0
-25 1 0
`

func TestRead(t *testing.T) {
	c, err := Read(strings.NewReader(sampleInstance))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if c.N() != 3 {
		t.Fatalf("N() = %d, want 3", c.N())
	}
	if got := c.Var(1).Candidate(0); got.Score != 5_000_000 || len(got.Members) != 2 {
		t.Errorf("var 1 best = %+v, want score 5000000 with two parents", got)
	}
	if c.Hash() != buildScaled(t, 1_000_000).Hash() {
		t.Error("reading the sample should produce the same hash as building it")
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"bad count", "x"},
		{"truncated", "2\n0 1\n-1.0 0\n"},
		{"duplicate id", "2\n0 1\n-1.0 0\n0 1\n-1.0 0\n"},
		{"bad score", "1\n0 1\nabc 0\n"},
		{"oversized set", "1\n0 1\n-1.0 3 0 0 0\n"},
		{"overflowing score", "2\n0 1\n-1e13 0\n1 1\n-1 0\n"},
		{"overflowing sum", "2\n0 1\n-5e12 0\n1 1\n-1 0\n"},
		{"NaN score", "2\n0 1\nNaN 0\n1 1\n-1 0\n"},
		{"negative infinite score", "2\n0 1\n-Inf 0\n1 1\n-1 0\n"},
		{"positive infinite score", "2\n0 1\n+Inf 0\n1 1\n-1 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.input)); !errors.Is(err, errors.ErrCodeInvalidInstance) {
				t.Errorf("Read() error = %v, want INVALID_INSTANCE", err)
			}
		})
	}
}

func TestReadExperiment(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "asia.txt"), []byte(sampleInstance), 0o644); err != nil {
		t.Fatal(err)
	}
	exp := filepath.Join(dir, "asia.exp")
	if err := os.WriteFile(exp, []byte("asia.txt 85\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	e, err := ReadExperiment(exp)
	if err != nil {
		t.Fatalf("ReadExperiment: %v", err)
	}
	if e.Optimum != 85 {
		t.Errorf("Optimum = %d, want 85", e.Optimum)
	}
	if e.Instance != filepath.Join(dir, "asia.txt") {
		t.Errorf("Instance = %q", e.Instance)
	}
	if _, err := ReadFile(e.Instance); err != nil {
		t.Errorf("ReadFile: %v", err)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

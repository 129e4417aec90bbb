package tabu

import "testing"

func TestOrderingHistoryEvictsOldest(t *testing.T) {
	h := NewOrderingHistory(2)
	a, b, c := []int{0, 1, 2}, []int{1, 0, 2}, []int{2, 1, 0}

	h.Add(a)
	h.Add(b)
	if !h.Contains(a) || !h.Contains(b) {
		t.Fatal("both orderings should be remembered")
	}
	h.Add(c)
	if h.Contains(a) {
		t.Error("oldest ordering should be evicted")
	}
	if !h.Contains(b) || !h.Contains(c) {
		t.Error("newer orderings should be remembered")
	}
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
}

func TestOrderingHistoryCopies(t *testing.T) {
	h := NewOrderingHistory(3)
	o := []int{0, 1, 2}
	h.Add(o)
	o[0], o[1] = o[1], o[0]
	if h.Contains(o) {
		t.Error("history must not alias the caller's slice")
	}
	if !h.Contains([]int{0, 1, 2}) {
		t.Error("original ordering should be remembered")
	}
}

func TestDisabledMemories(t *testing.T) {
	oh := NewOrderingHistory(0)
	oh.Add([]int{0})
	if oh.Contains([]int{0}) {
		t.Error("zero capacity ordering history should be empty")
	}
	mh := NewMoveHistory(-1, 3)
	mh.Add(1, 1)
	if mh.Contains(1, 1) || mh.ContainsVar(1) {
		t.Error("disabled move history should be empty")
	}
	ph := NewPairHistory(0)
	ph.Add(1, 2)
	if ph.Contains(1, 2) {
		t.Error("disabled pair history should be empty")
	}
}

func TestMoveHistoryCounts(t *testing.T) {
	h := NewMoveHistory(3, 4)
	h.Add(1, 0)
	h.Add(1, 2)
	h.Add(2, 3)
	if !h.ContainsVar(1) || !h.Contains(1, 2) || h.Contains(1, 3) {
		t.Fatal("unexpected membership")
	}

	h.Add(3, 1) // evicts (1,0)
	h.Add(0, 0) // evicts (1,2)
	if h.ContainsVar(1) {
		t.Error("variable 1 should have no remembered moves after eviction")
	}
	if !h.Contains(2, 3) || !h.Contains(3, 1) || !h.Contains(0, 0) {
		t.Error("recent moves should be remembered")
	}
}

func TestPairHistoryUnordered(t *testing.T) {
	h := NewPairHistory(2)
	h.Add(4, 1)
	if !h.Contains(1, 4) || !h.Contains(4, 1) {
		t.Error("pairs should match in either order")
	}
	h.Add(0, 1)
	h.Add(2, 3)
	if h.Contains(1, 4) {
		t.Error("oldest pair should be evicted")
	}
}

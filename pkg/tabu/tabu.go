// Package tabu implements the fixed-capacity recency memories used by tabu
// search to forbid cycling. Each memory is a FIFO ring: adding beyond
// capacity evicts the oldest entry. A capacity of zero or less disables the
// memory, so it never reports a hit.
package tabu

import (
	"hash/maphash"
	"slices"
)

// ring is a fixed-capacity FIFO of T.
type ring[T any] struct {
	items []T
	head  int
	size  int
}

func newRing[T any](capacity int) ring[T] {
	return ring[T]{items: make([]T, max(capacity, 0))}
}

// push appends v and returns the evicted entry, if any.
func (r *ring[T]) push(v T) (evicted T, ok bool) {
	if len(r.items) == 0 {
		return evicted, false
	}
	if r.size == len(r.items) {
		evicted, ok = r.items[r.head], true
		r.items[r.head] = v
		r.head = (r.head + 1) % len(r.items)
		return evicted, ok
	}
	r.items[(r.head+r.size)%len(r.items)] = v
	r.size++
	return evicted, false
}

func (r *ring[T]) each(fn func(T) bool) {
	for i := 0; i < r.size; i++ {
		if !fn(r.items[(r.head+i)%len(r.items)]) {
			return
		}
	}
}

// OrderingHistory remembers recently visited orderings.
type OrderingHistory struct {
	seed maphash.Seed
	ring ring[entry]
}

type entry struct {
	sum      uint64
	ordering []int
}

// NewOrderingHistory returns a history of up to capacity orderings.
func NewOrderingHistory(capacity int) *OrderingHistory {
	return &OrderingHistory{seed: maphash.MakeSeed(), ring: newRing[entry](capacity)}
}

func (h *OrderingHistory) sum(o []int) uint64 {
	var mh maphash.Hash
	mh.SetSeed(h.seed)
	var buf [8]byte
	for _, v := range o {
		u := uint64(v)
		for i := range buf {
			buf[i] = byte(u >> (8 * i))
		}
		mh.Write(buf[:])
	}
	return mh.Sum64()
}

// Add records a copy of o.
func (h *OrderingHistory) Add(o []int) {
	if len(h.ring.items) == 0 {
		return
	}
	h.ring.push(entry{sum: h.sum(o), ordering: slices.Clone(o)})
}

// Contains reports whether o equals a remembered ordering.
func (h *OrderingHistory) Contains(o []int) bool {
	if h.ring.size == 0 {
		return false
	}
	sum := h.sum(o)
	found := false
	h.ring.each(func(e entry) bool {
		if e.sum == sum && slices.Equal(e.ordering, o) {
			found = true
		}
		return !found
	})
	return found
}

// Len returns the number of remembered orderings.
func (h *OrderingHistory) Len() int { return h.ring.size }

// Move is a variable placed at a position.
type Move struct {
	Var int
	Pos int
}

// MoveHistory remembers recent (variable, position) placements. It keeps a
// per-variable count so ContainsVar is O(1).
type MoveHistory struct {
	ring   ring[Move]
	counts []int
}

// NewMoveHistory returns a history of up to capacity moves over n
// variables.
func NewMoveHistory(capacity, n int) *MoveHistory {
	return &MoveHistory{ring: newRing[Move](capacity), counts: make([]int, n)}
}

// Add records that v was placed at pos.
func (h *MoveHistory) Add(v, pos int) {
	if len(h.ring.items) == 0 {
		return
	}
	if old, ok := h.ring.push(Move{v, pos}); ok {
		h.counts[old.Var]--
	}
	h.counts[v]++
}

// ContainsVar reports whether any remembered move placed v.
func (h *MoveHistory) ContainsVar(v int) bool { return h.counts[v] > 0 }

// Contains reports whether placing v at pos is remembered.
func (h *MoveHistory) Contains(v, pos int) bool {
	found := false
	h.ring.each(func(m Move) bool {
		found = m.Var == v && m.Pos == pos
		return !found
	})
	return found
}

// Len returns the number of remembered moves.
func (h *MoveHistory) Len() int { return h.ring.size }

// PairHistory remembers recently swapped variable pairs, ignoring order.
type PairHistory struct {
	ring ring[[2]int]
}

// NewPairHistory returns a history of up to capacity pairs.
func NewPairHistory(capacity int) *PairHistory {
	return &PairHistory{ring: newRing[[2]int](capacity)}
}

func pair(a, b int) [2]int {
	if b < a {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Add records the pair {a, b}.
func (h *PairHistory) Add(a, b int) {
	h.ring.push(pair(a, b))
}

// Contains reports whether {a, b} is remembered.
func (h *PairHistory) Contains(a, b int) bool {
	p := pair(a, b)
	found := false
	h.ring.each(func(q [2]int) bool {
		found = q == p
		return !found
	})
	return found
}

// Len returns the number of remembered pairs.
func (h *PairHistory) Len() int { return h.ring.size }

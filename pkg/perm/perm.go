// Package perm enumerates permutations with Heap's algorithm.
//
// Each visits permutations one at a time through a reused buffer, which is
// what the exhaustive solver and the property tests need; Generate
// materializes them for small n.
package perm

import "slices"

// MaxExhaustive is the largest n for which full enumeration is attempted.
// 10! is about 3.6 million permutations.
const MaxExhaustive = 10

// Seq returns the sequence [0, 1, ..., n-1]. For n <= 0 it returns an
// empty slice.
func Seq(n int) []int {
	result := make([]int, max(n, 0))
	for i := range result {
		result[i] = i
	}
	return result
}

// Factorial returns n!. For n <= 1 it returns 1.
// 21! overflows int64.
func Factorial(n int) int {
	result := 1
	for i := 2; i <= n; i++ {
		result *= i
	}
	return result
}

// Each calls fn with every permutation of [0, n) until fn returns false.
// The slice passed to fn is reused between calls and must be cloned to be
// retained. The first permutation is the identity. It returns the number of
// permutations visited.
func Each(n int, fn func(p []int) bool) int {
	p := Seq(n)
	if !fn(p) {
		return 1
	}
	visited := 1
	state := make([]int, n)
	for i := 0; i < n; {
		if state[i] < i {
			if i&1 == 0 {
				p[0], p[i] = p[i], p[0]
			} else {
				p[state[i]], p[i] = p[i], p[state[i]]
			}
			visited++
			if !fn(p) {
				return visited
			}
			state[i]++
			i = 0
		} else {
			state[i] = 0
			i++
		}
	}
	return visited
}

// Generate returns up to limit permutations of [0, n), or all n! when
// limit <= 0. Each returned slice is a separate allocation.
func Generate(n, limit int) [][]int {
	capacity := limit
	if capacity <= 0 {
		capacity = Factorial(min(n, MaxExhaustive))
	}
	result := make([][]int, 0, capacity)
	Each(n, func(p []int) bool {
		result = append(result, slices.Clone(p))
		return limit <= 0 || len(result) < limit
	})
	return result
}

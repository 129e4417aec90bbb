// Package score defines the fixed-point score used to rank parent sets and
// orderings.
//
// Scores are negated, scaled log-likelihoods stored as int64: lower is
// better, and sums across variables are exact. The reserved Max value means
// "unknown" or "worst" and never results from a real evaluation.
package score

import (
	"fmt"
	"math"
	"strconv"
)

// Score is a fixed-point network score. Lower is better.
type Score int64

const (
	// Max is the sentinel for an unknown or unreachable score.
	Max Score = math.MaxInt64

	// Scale converts a log-likelihood to a Score. The sign flip turns
	// "higher likelihood" into "lower score".
	Scale = -1_000_000

	// Epsilon is the relative gap, in percent, under which a score counts
	// as matching a known optimum.
	Epsilon = 0.005
)

// FromLogLikelihood converts a source log-likelihood to a Score, truncating
// toward zero like an integer cast.
func FromLogLikelihood(v float64) Score {
	return Score(v * Scale)
}

// Convertible reports whether v is finite and small enough that a sum of
// terms converted scores of the same magnitude stays below Max.
func Convertible(v float64, terms int) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return math.Abs(v*Scale) < float64(Max)/float64(max(terms, 1))
}

// Known reports whether s is a real score rather than the Max sentinel.
func (s Score) Known() bool { return s != Max }

// String formats s as an integer, or "unknown" for Max.
func (s Score) String() string {
	if s == Max {
		return "unknown"
	}
	return strconv.FormatInt(int64(s), 10)
}

// RelativeGap returns 100*(s-opt)/opt, the distance of s from opt in percent.
// It returns +Inf when opt is unknown or zero.
func RelativeGap(s, opt Score) float64 {
	if opt == Max || opt == 0 || s == Max {
		return math.Inf(1)
	}
	return 100 * (float64(s-opt) / float64(opt))
}

// IsOptimal reports whether s is within Epsilon percent of opt.
// It is always false when opt is unknown.
func IsOptimal(s, opt Score) bool {
	return RelativeGap(s, opt) < Epsilon
}

// Ratio returns the approximation ratio 1 - opt/s reported for runs that
// did not reach the optimum.
func Ratio(s, opt Score) float64 {
	if s == Max || opt == Max || s == 0 {
		return math.NaN()
	}
	return 1 - float64(opt)/float64(s)
}

// Parse reads a Score written as an integer. "unknown" parses to Max.
func Parse(text string) (Score, error) {
	if text == "unknown" {
		return Max, nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Max, fmt.Errorf("parse score %q: %w", text, err)
	}
	return Score(v), nil
}

// Min returns the lower of a and b.
func Min(a, b Score) Score {
	if a < b {
		return a
	}
	return b
}

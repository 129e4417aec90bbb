// Package genetic implements a memetic search over orderings: a
// population of hill-climbed orderings evolves through crossover and
// mutation, every offspring is climbed to a local optimum, and the
// population is rebuilt around its best members whenever its mean fitness
// stagnates.
package genetic

import (
	"context"
	"math"

	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/score"
	"github.com/matzehuels/bnsearch/pkg/search"
)

// Params configures a memetic run.
type Params struct {
	PopulationSize int
	Crossovers     int     // children per generation
	Mutations      int     // mutants per generation
	MutationPower  int     // random swaps per mutant
	Lookahead      int     // generations between stagnation checks
	Keep           int     // members kept when diversifying
	Tolerance      float64 // relative change in mean fitness counted as stagnation
	Greediness     int     // start orderings are greedy when positive, random otherwise
	Crossover      Crossover
	Strategy       search.Strategy
	// Generations bounds the run. Zero runs until the time limit, the
	// context or the optimum stops it.
	Generations int
}

// DefaultParams returns the stock memetic settings.
func DefaultParams() Params {
	return Params{
		PopulationSize: 20,
		Crossovers:     10,
		Mutations:      3,
		MutationPower:  3,
		Lookahead:      10,
		Keep:           2,
		Tolerance:      0.001,
		Greediness:     32,
		Crossover:      CrossoverOB,
		Strategy:       search.ClimbHybrid,
	}
}

// Validate checks p.
func (p Params) Validate() error {
	switch {
	case p.PopulationSize < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "population size must be at least 1, got %d", p.PopulationSize)
	case p.Crossovers < 0 || p.Mutations < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "crossover and mutation counts must not be negative")
	case p.Crossovers+p.Mutations == 0:
		return errors.New(errors.ErrCodeInvalidConfig, "a generation needs at least one crossover or mutation")
	case p.MutationPower < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "mutation power must be at least 1, got %d", p.MutationPower)
	case p.Lookahead < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "lookahead must be at least 1, got %d", p.Lookahead)
	case p.Keep < 1 || p.Keep > p.PopulationSize:
		return errors.New(errors.ErrCodeInvalidConfig, "keep must be in [1, %d], got %d", p.PopulationSize, p.Keep)
	case p.Tolerance < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "tolerance must not be negative, got %g", p.Tolerance)
	case p.Crossover == nil:
		return errors.New(errors.ErrCodeInvalidConfig, "no crossover operator")
	case p.Generations < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "generations must not be negative, got %d", p.Generations)
	}
	return nil
}

// Run evolves a population with s and returns the best ordering found.
func Run(ctx context.Context, s *search.Searcher, p Params) (res search.Result, err error) {
	done := s.Begin(ctx, "memetic")
	defer done(&res, &err)

	if err := p.Validate(); err != nil {
		return search.Result{Score: score.Max}, err
	}
	if p.Generations == 0 && !s.Bounded(ctx) {
		return search.Result{Score: score.Max}, errors.New(errors.ErrCodeInvalidConfig,
			"an unbounded memetic run needs a time limit, a cancellable context or a generation budget")
	}

	r := &runner{s: s, p: p}
	pop := &Population{}
	if err := r.fill(ctx, pop, p.PopulationSize); err != nil {
		return pop.Best(), err
	}
	best := pop.Best()

	var window []score.Score
	for gen := 0; p.Generations == 0 || gen < p.Generations; gen++ {
		if s.Done(ctx, best.Score) {
			break
		}
		offspring, err := r.breed(ctx, pop)
		if err != nil {
			return best, err
		}
		pop.Append(offspring)
		pop.Trim(p.PopulationSize)

		if b := pop.Best(); b.Score < best.Score {
			best = b
			s.Record(ctx, best.Score, best.Ordering)
		}
		mean := pop.MeanFitness()
		s.Iteration(ctx, mean)

		window = append(window, mean)
		if len(window) <= p.Lookahead {
			continue
		}
		old := window[0]
		window = window[1:]
		if old != 0 && math.Abs(float64(mean-old)/float64(old)) < p.Tolerance {
			s.Logger().Debug("memetic: diversifying", "generation", gen, "mean", mean, "best", best.Score)
			pop.Keep(p.Keep)
			if err := r.fill(ctx, pop, p.PopulationSize); err != nil {
				return best, err
			}
			if b := pop.Best(); b.Score < best.Score {
				best = b
			}
			window = window[:0]
		}
	}
	return best, nil
}

type runner struct {
	s *search.Searcher
	p Params
}

// climb improves o to a local optimum and records it.
func (r *runner) climb(ctx context.Context, o order.Ordering) (search.Result, error) {
	st, err := r.s.Evaluator().NewState(o)
	if err != nil {
		return search.Result{Score: score.Max}, err
	}
	if err := r.s.ClimbState(ctx, st, r.p.Strategy); err != nil {
		return search.Result{Score: score.Max}, err
	}
	return search.Result{Score: st.Score, Ordering: st.Ordering.Clone()}, nil
}

// fill tops pop up to size with climbed start orderings.
func (r *runner) fill(ctx context.Context, pop *Population, size int) error {
	for pop.Len() < size {
		o, err := r.s.Start(r.p.Greediness)
		if err != nil {
			return err
		}
		m, err := r.climb(ctx, o)
		if err != nil {
			return err
		}
		pop.Add(m)
		if r.s.Done(ctx, m.Score) {
			break
		}
	}
	return nil
}

// breed returns one generation of climbed children and mutants.
func (r *runner) breed(ctx context.Context, pop *Population) ([]search.Result, error) {
	rnd := r.s.Rand()
	offspring := make([]search.Result, 0, r.p.Crossovers+r.p.Mutations)
	if pop.Len() >= 2 {
		for c := 0; c < r.p.Crossovers && !r.s.Expired(ctx); c++ {
			i, j := rnd.UniquePair(pop.Len())
			child := r.p.Crossover(rnd, pop.Member(i).Ordering, pop.Member(j).Ordering)
			m, err := r.climb(ctx, child)
			if err != nil {
				return offspring, err
			}
			offspring = append(offspring, m)
		}
	}
	for k := 0; k < r.p.Mutations && !r.s.Expired(ctx); k++ {
		mutant := pop.Member(rnd.IntN(pop.Len())).Ordering.Clone()
		mutant.Perturb(rnd, r.p.MutationPower)
		m, err := r.climb(ctx, mutant)
		if err != nil {
			return offspring, err
		}
		offspring = append(offspring, m)
	}
	return offspring, nil
}

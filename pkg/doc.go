// Package pkg provides the libraries behind bnsearch, a structure learner
// for Bayesian networks that searches over variable orderings.
//
// # Overview
//
// Every variable comes with a catalogue of candidate parent sets, each with
// a local score. An ordering of the variables induces the best network
// consistent with it: each variable takes its best candidate whose parents
// all precede it. The search problem is to find the ordering whose induced
// network has the lowest total score.
//
// # Architecture
//
//	Instance file
//	     ↓
//	[catalogue] (candidate parent sets, ranked and hashed)
//	     ↓
//	[scoring] (ordering → network score, incremental moves)
//	     ↓
//	[search] / [genetic] (local search, tabu, annealing, ILS, memetic)
//	     ↓
//	[recorder] + [store] (progress log, best known results)
//
// # Quick Start
//
//	cat, _ := catalogue.ReadFile("alarm.txt")
//	s := search.New(scoring.New(cat),
//	    search.WithRand(rng.New(42)),
//	    search.WithTimeLimit(time.Minute),
//	)
//	res, _ := s.ILSRestarts(ctx, search.DefaultILSParams(), search.Restarts{Greediness: 10})
//	fmt.Println(res.Score, res.Ordering)
//
// # Main Packages
//
// [score] - Fixed-point scores, where lower is better and score.Max means
// unknown. Relative gaps and the optimality test live here.
//
// [catalogue] - The instance: per-variable candidate parent sets sorted by
// score, read from the candidate text format.
//
// [order] - Orderings as permutations, with parsing and the basic moves.
//
// [scoring] - Evaluates orderings. A State caches each variable's chosen
// parent set and scores relocation and swap moves without rescoring.
//
// [search] - The Searcher and its drivers. [tabu] holds the tabu lists and
// [perm] the enumeration used by the exhaustive driver.
//
// [genetic] - The memetic algorithm: order crossovers, mutation and local
// search on a population of orderings.
//
// [recorder] - Records best-so-far samples with timestamps for progress
// logs and dumps.
//
// [store] - Best known result per instance, with file, Redis and MongoDB
// backends.
//
// [config] - TOML and YAML configuration for the command line.
//
// [render] - DOT, SVG, PNG and PDF output of induced networks.
//
// [observability] - Hooks for search and store events, with a Prometheus
// implementation.
package pkg

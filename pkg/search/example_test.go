package search_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/bnsearch/pkg/catalogue"
	"github.com/matzehuels/bnsearch/pkg/rng"
	"github.com/matzehuels/bnsearch/pkg/scoring"
	"github.com/matzehuels/bnsearch/pkg/search"
)

func Example() {
	// Variable 1 scores better with 0 as a parent, and 2 with both.
	b := catalogue.NewBuilder(3)
	b.Add(0, 10)
	b.Add(1, 10)
	b.Add(1, 4, 0)
	b.Add(2, 10)
	b.Add(2, 6, 1)
	b.Add(2, 1, 0, 1)
	cat, err := b.Build()
	if err != nil {
		panic(err)
	}

	s := search.New(scoring.New(cat), search.WithRand(rng.New(1)))
	res, err := s.Climb(context.Background(), []int{2, 1, 0}, search.ClimbBest)
	if err != nil {
		panic(err)
	}
	fmt.Println(res.Score, res.Ordering)
	// Output: 15 0 1 2
}

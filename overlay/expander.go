package overlay

import (
	"context"
	"fmt"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/errors"
	"github.com/c360/ontosim/graph"
)

// PairScorer scores one concept against another.
type PairScorer interface {
	Pairwise(a, b concept.ID) Result
}

// ExpandStats counts the work done by one expansion.
type ExpandStats struct {
	// Evaluations is the number of similarity computations.
	Evaluations int
	// Pops is the number of concepts taken off the frontier.
	Pops int
}

// Expander grows a neighborhood around a seed concept, walking SubClassOf
// edges in both directions and admitting only concepts whose similarity to
// the seed is strictly above a threshold.
//
// The frontier is a set drained in map order, so the visiting order varies
// between runs; only the resulting set is stable. There is no depth or size
// bound.
type Expander struct {
	graph  *graph.Graph
	scorer PairScorer
}

// NewExpander creates an expander over g.
func NewExpander(g *graph.Graph, scorer PairScorer) *Expander {
	return &Expander{graph: g, scorer: scorer}
}

// Expand returns the neighborhood of seed at threshold. The seed is always
// part of the result, even when it is not a concept of the graph. A failed
// similarity computation aborts the expansion.
func (x *Expander) Expand(ctx context.Context, seed concept.ID, threshold float64) (concept.Set, error) {
	result, _, err := x.ExpandWithStats(ctx, seed, threshold)
	return result, err
}

// ExpandWithStats is Expand plus the work counters.
func (x *Expander) ExpandWithStats(ctx context.Context, seed concept.ID, threshold float64) (concept.Set, ExpandStats, error) {
	var stats ExpandStats

	results := concept.NewSet(seed)
	processed := concept.NewSet(seed)
	frontier := concept.NewSet(seed)
	// a concept is scored against the seed once, even when rejected
	evaluated := concept.NewSet(seed)

	for frontier.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, stats, errors.WrapTransient(err, "Expander", "Expand", "expand neighborhood")
		}

		current, _ := frontier.Pop()
		stats.Pops++

		for _, neighbor := range x.graph.Neighbors(current, graph.SubClassOf, graph.Both) {
			if processed.Has(neighbor) || evaluated.Has(neighbor) {
				continue
			}
			evaluated.Add(neighbor)

			r := x.scorer.Pairwise(seed, neighbor)
			stats.Evaluations++
			if r.Err != nil {
				return nil, stats, errors.Wrap(r.Err, "Expander", "Expand",
					fmt.Sprintf("score %s against seed %s", neighbor, seed))
			}
			if r.Score > threshold {
				frontier.Add(neighbor)
				results.Add(neighbor)
			}
		}

		processed.Add(current)
	}

	return results, stats, nil
}

package overlay

import (
	"context"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/graph"
	"github.com/c360/ontosim/loader/mesh"
	"github.com/c360/ontosim/similarity"
)

// Loader reads an ontology source into a concept graph together with the
// preferred-label source built from the same file.
type Loader interface {
	Load(ctx context.Context, path, prefix string) (*graph.Graph, LabelSource, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path, prefix string) (*graph.Graph, LabelSource, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, path, prefix string) (*graph.Graph, LabelSource, error) {
	return f(ctx, path, prefix)
}

// LabelSource returns the preferred label of a concept as written in the
// ontology source.
type LabelSource interface {
	PreferredLabel(id concept.ID) (string, bool)
}

// DAGValidator reports whether g is a rooted DAG.
type DAGValidator func(g *graph.Graph) bool

// Scorer computes similarity with an explicitly chosen measure and
// aggregation. Failures wrap errors.ErrSimilarity.
type Scorer interface {
	Pairwise(measure similarity.Measure, a, b concept.ID) (float64, error)
	Groupwise(agg similarity.Aggregation, measure similarity.Measure, a, b concept.Set) (float64, error)
}

// ScorerFactory builds a Scorer over a sanitized, frozen graph.
type ScorerFactory func(g *graph.Graph) (Scorer, error)

// MeSHLoader adapts a MeSH descriptor loader, reading the file once for both
// the graph and the labels.
func MeSHLoader(l *mesh.Loader) Loader {
	return LoaderFunc(func(ctx context.Context, path, prefix string) (*graph.Graph, LabelSource, error) {
		g, idx, err := l.LoadAll(ctx, path, prefix)
		if err != nil {
			return nil, nil, err
		}
		return g, idx, nil
	})
}

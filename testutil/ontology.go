package testutil

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/errors"
	"github.com/c360/ontosim/graph"
	"github.com/c360/ontosim/similarity"
)

// MeSH descriptor identifiers used by the sample ontology.
const (
	Behavior        = "D001520"
	SocialBehavior  = "D012919"
	Morals          = "D009014"
	Ethics          = "D004989"
	Humanities      = "D006809"
	Virtues         = "D057190"
	Organic         = "D009930"
	CarboxylicAcids = "D002264"
	Hydroxybutyrate = "D006885"
	HydroxyAcid     = "D020155"
	Female          = "D005260"
	Root            = "MESH"
)

// ID mints a concept in the default namespace.
func ID(local string) concept.ID {
	return concept.NewID(concept.DefaultNamespace, local)
}

// IDs mints several concepts.
func IDs(locals ...string) []concept.ID {
	out := make([]concept.ID, len(locals))
	for i, l := range locals {
		out[i] = ID(l)
	}
	return out
}

// SampleMeSHPath returns the path of the sample MeSH descriptor file. Its
// Morals/Ethics and Hydroxybutyrate edges form the two MeSH 2014 cycles.
func SampleMeSHPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "loader", "mesh", "testdata", "desc_sample.xml")
}

// BuildGraph creates an unfrozen graph from child/parent local-name pairs.
func BuildGraph(t testing.TB, edges ...[2]string) *graph.Graph {
	t.Helper()
	g := graph.New("http://usi")
	for _, e := range edges {
		err := g.AddEdge(graph.Edge{Source: ID(e[0]), Target: ID(e[1]), Relation: graph.SubClassOf})
		if err != nil {
			t.Fatalf("add edge %v: %v", e, err)
		}
	}
	return g
}

// Labels is an in-memory preferred-label source.
type Labels map[concept.ID]string

// PreferredLabel returns the label of id.
func (l Labels) PreferredLabel(id concept.ID) (string, bool) {
	label, ok := l[id]
	return label, ok
}

// StubScorer returns fixed pairwise scores. Unlisted distinct pairs score
// Default, identical concepts score 1, and concepts in Fail are unknown.
// Groupwise is the best-match average of the stub pairwise scores.
type StubScorer struct {
	Scores  map[[2]concept.ID]float64
	Default float64
	Fail    concept.Set

	mu    sync.Mutex
	calls map[[2]concept.ID]int
}

// NewStubScorer creates an empty stub scorer.
func NewStubScorer() *StubScorer {
	return &StubScorer{
		Scores: make(map[[2]concept.ID]float64),
		Fail:   concept.NewSet(),
		calls:  make(map[[2]concept.ID]int),
	}
}

// Set records a symmetric score for a and b.
func (s *StubScorer) Set(a, b concept.ID, score float64) *StubScorer {
	s.Scores[pairKey(a, b)] = score
	return s
}

// Pairwise implements the overlay scorer.
func (s *StubScorer) Pairwise(_ similarity.Measure, a, b concept.ID) (float64, error) {
	key := pairKey(a, b)

	s.mu.Lock()
	if s.calls == nil {
		s.calls = make(map[[2]concept.ID]int)
	}
	s.calls[key]++
	s.mu.Unlock()

	for _, id := range []concept.ID{a, b} {
		if s.Fail.Has(id) {
			return 0, errors.WithCause(errors.ErrSimilarity, errors.ErrUnknownConcept, id.String())
		}
	}
	if a == b {
		return 1, nil
	}
	if score, ok := s.Scores[key]; ok {
		return score, nil
	}
	return s.Default, nil
}

// Groupwise implements the overlay scorer.
func (s *StubScorer) Groupwise(_ similarity.Aggregation, m similarity.Measure, a, b concept.Set) (float64, error) {
	if a.Len() == 0 || b.Len() == 0 {
		return 0, errors.WithCause(errors.ErrSimilarity, errors.ErrEmptyConceptSet, "")
	}
	best := func(from, to concept.Set) (float64, error) {
		sum := 0.0
		for x := range from {
			top := 0.0
			for y := range to {
				score, err := s.Pairwise(m, x, y)
				if err != nil {
					return 0, err
				}
				if score > top {
					top = score
				}
			}
			sum += top
		}
		return sum / float64(from.Len()), nil
	}
	ab, err := best(a, b)
	if err != nil {
		return 0, err
	}
	ba, err := best(b, a)
	if err != nil {
		return 0, err
	}
	return (ab + ba) / 2, nil
}

// Calls returns how often the unordered pair a, b was scored.
func (s *StubScorer) Calls(a, b concept.ID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[pairKey(a, b)]
}

// MaxCalls returns the highest call count of any pair.
func (s *StubScorer) MaxCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	top := 0
	for _, n := range s.calls {
		if n > top {
			top = n
		}
	}
	return top
}

func pairKey(a, b concept.ID) [2]concept.ID {
	if a > b {
		a, b = b, a
	}
	return [2]concept.ID{a, b}
}

// String describes the stub for test failure messages.
func (s *StubScorer) String() string {
	return fmt.Sprintf("StubScorer{%d scores, default %.2f, %d failing}", len(s.Scores), s.Default, s.Fail.Len())
}

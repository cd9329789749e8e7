// Package graph provides the in-memory concept graph: concept vertices joined
// by typed, directed relations, with edge lookup by relation and direction.
//
// Adjacency is kept twice, keyed by source and by target, so that parents and
// children of a concept are both O(1) to reach. The graph is mutable until
// Freeze is called; after that every mutation fails with errors.ErrGraphFrozen
// and the graph may be shared by concurrent readers.
package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/errors"
)

// Relation names the kind of an edge.
type Relation string

// SubClassOf is the subsumption ("is-a") relation. Edges point from the
// specific concept to its more general parent.
const SubClassOf Relation = "rdfs:subClassOf"

// Direction selects which edges of a concept to follow.
type Direction int

const (
	// Out follows edges leaving the concept (toward parents for SubClassOf).
	Out Direction = iota
	// In follows edges entering the concept (toward children for SubClassOf).
	In
	// Both follows edges in either direction.
	Both
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case Out:
		return "out"
	case In:
		return "in"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

// Edge is a directed relation between two concepts.
type Edge struct {
	Source   concept.ID
	Target   concept.ID
	Relation Relation
}

// String renders the edge as a triple.
func (e Edge) String() string {
	return fmt.Sprintf("%s -[%s]-> %s", e.Source, e.Relation, e.Target)
}

// adjacency maps relation -> neighbor -> present.
type adjacency map[Relation]map[concept.ID]struct{}

// Graph is an in-memory directed graph of concepts.
type Graph struct {
	uri concept.ID

	mu       sync.RWMutex
	vertices map[concept.ID]struct{}
	out      map[concept.ID]adjacency
	in       map[concept.ID]adjacency
	edges    int
	frozen   bool
}

// New creates an empty graph named by uri.
func New(uri concept.ID) *Graph {
	return &Graph{
		uri:      uri,
		vertices: make(map[concept.ID]struct{}),
		out:      make(map[concept.ID]adjacency),
		in:       make(map[concept.ID]adjacency),
	}
}

// URI returns the graph name.
func (g *Graph) URI() concept.ID {
	return g.uri
}

// AddConcept inserts a vertex. Adding an existing vertex is a no-op.
func (g *Graph) AddConcept(id concept.ID) error {
	if id == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "Graph", "AddConcept", "empty concept ID")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frozen {
		return errors.WrapInvalid(errors.ErrGraphFrozen, "Graph", "AddConcept", "add concept")
	}
	g.vertices[id] = struct{}{}
	return nil
}

// AddEdge inserts e, adding missing endpoints. Duplicate edges are ignored.
func (g *Graph) AddEdge(e Edge) error {
	if e.Source == "" || e.Target == "" || e.Relation == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "Graph", "AddEdge",
			fmt.Sprintf("incomplete edge %s", e))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frozen {
		return errors.WrapInvalid(errors.ErrGraphFrozen, "Graph", "AddEdge", "add edge")
	}

	g.vertices[e.Source] = struct{}{}
	g.vertices[e.Target] = struct{}{}

	if link(g.out, e.Source, e.Target, e.Relation) {
		link(g.in, e.Target, e.Source, e.Relation)
		g.edges++
	}
	return nil
}

// RemoveEdge deletes e and reports whether it was present.
func (g *Graph) RemoveEdge(e Edge) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frozen {
		return false, errors.WrapInvalid(errors.ErrGraphFrozen, "Graph", "RemoveEdge", "remove edge")
	}

	if !unlink(g.out, e.Source, e.Target, e.Relation) {
		return false, nil
	}
	unlink(g.in, e.Target, e.Source, e.Relation)
	g.edges--
	return true, nil
}

// Freeze makes the graph read-only.
func (g *Graph) Freeze() {
	g.mu.Lock()
	g.frozen = true
	g.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (g *Graph) Frozen() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.frozen
}

// HasConcept reports whether id is a vertex.
func (g *Graph) HasConcept(id concept.ID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.vertices[id]
	return ok
}

// HasEdge reports whether e is present.
func (g *Graph) HasEdge(e Edge) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.out[e.Source][e.Relation][e.Target]
	return ok
}

// Concepts returns every vertex in ascending order.
func (g *Graph) Concepts() []concept.ID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]concept.ID, 0, len(g.vertices))
	for id := range g.vertices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of vertices.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.vertices)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges
}

// Edges returns the edges of relation rel touching id in direction dir.
// Edges are oriented as stored: for In, id is the Target.
func (g *Graph) Edges(rel Relation, id concept.ID, dir Direction) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var edges []Edge
	if dir == Out || dir == Both {
		for target := range g.out[id][rel] {
			edges = append(edges, Edge{Source: id, Target: target, Relation: rel})
		}
	}
	if dir == In || dir == Both {
		for source := range g.in[id][rel] {
			edges = append(edges, Edge{Source: source, Target: id, Relation: rel})
		}
	}
	return edges
}

// Neighbors returns the concepts adjacent to id through rel in direction dir.
// With Both, a concept that is parent and child at once appears once.
func (g *Graph) Neighbors(id concept.ID, rel Relation, dir Direction) []concept.ID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[concept.ID]struct{})
	var out []concept.ID
	collect := func(adj map[concept.ID]adjacency) {
		for n := range adj[id][rel] {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}

	if dir == Out || dir == Both {
		collect(g.out)
	}
	if dir == In || dir == Both {
		collect(g.in)
	}
	return out
}

// Degree returns the number of rel edges of id in direction dir.
func (g *Graph) Degree(id concept.ID, rel Relation, dir Direction) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	if dir == Out || dir == Both {
		n += len(g.out[id][rel])
	}
	if dir == In || dir == Both {
		n += len(g.in[id][rel])
	}
	return n
}

func link(index map[concept.ID]adjacency, from, to concept.ID, rel Relation) bool {
	adj, ok := index[from]
	if !ok {
		adj = make(adjacency)
		index[from] = adj
	}
	targets, ok := adj[rel]
	if !ok {
		targets = make(map[concept.ID]struct{})
		adj[rel] = targets
	}
	if _, exists := targets[to]; exists {
		return false
	}
	targets[to] = struct{}{}
	return true
}

func unlink(index map[concept.ID]adjacency, from, to concept.ID, rel Relation) bool {
	targets := index[from][rel]
	if _, ok := targets[to]; !ok {
		return false
	}
	delete(targets, to)
	if len(targets) == 0 {
		delete(index[from], rel)
	}
	return true
}

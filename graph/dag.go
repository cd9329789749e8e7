package graph

import (
	"sort"

	"github.com/c360/ontosim/concept"
)

// Roots returns the concepts without outgoing rel edges, in ascending order.
// For SubClassOf these are the most general concepts.
func Roots(g *Graph, rel Relation) []concept.ID {
	var roots []concept.ID
	for _, id := range g.Concepts() {
		if g.Degree(id, rel, Out) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// IsRootedDAG reports whether the SubClassOf edges of g form a rooted DAG:
// no directed cycle and exactly one root. In a finite acyclic graph with a
// single root every concept reaches that root by following its parents.
//
// An empty graph is accepted.
func IsRootedDAG(g *Graph) bool {
	if g.Len() == 0 {
		return true
	}
	if len(Roots(g, SubClassOf)) != 1 {
		return false
	}
	_, acyclic := TopologicalOrder(g, SubClassOf)
	return acyclic
}

// TopologicalOrder orders the concepts so that every concept comes after all
// of its rel targets (parents first for SubClassOf). Ties are broken by
// identifier so the order is deterministic. The second result is false when
// the graph has a cycle; the order then holds only the acyclic part.
func TopologicalOrder(g *Graph, rel Relation) ([]concept.ID, bool) {
	ids := g.Concepts()
	pending := make(map[concept.ID]int, len(ids))
	var ready []concept.ID
	for _, id := range ids {
		pending[id] = g.Degree(id, rel, Out)
		if pending[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]concept.ID, 0, len(ids))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		order = append(order, current)

		children := g.Neighbors(current, rel, In)
		sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
		for _, child := range children {
			pending[child]--
			if pending[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	return order, len(order) == len(ids)
}

// FindCycle returns one directed cycle over rel edges as a closed path
// (first == last), or nil when the graph is acyclic. It is a diagnostic aid;
// nothing in the overlay removes edges based on it.
func FindCycle(g *Graph, rel Relation) []concept.ID {
	const (
		unvisited = iota
		onStack
		done
	)

	state := make(map[concept.ID]int)
	parent := make(map[concept.ID]concept.ID)

	type frame struct {
		id   concept.ID
		next []concept.ID
	}

	for _, start := range g.Concepts() {
		if state[start] != unvisited {
			continue
		}

		stack := []*frame{{id: start, next: sortedNeighbors(g, start, rel)}}
		state[start] = onStack

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if len(top.next) == 0 {
				state[top.id] = done
				stack = stack[:len(stack)-1]
				continue
			}

			n := top.next[0]
			top.next = top.next[1:]

			switch state[n] {
			case unvisited:
				parent[n] = top.id
				state[n] = onStack
				stack = append(stack, &frame{id: n, next: sortedNeighbors(g, n, rel)})
			case onStack:
				cycle := []concept.ID{n}
				for at := top.id; at != n; at = parent[at] {
					cycle = append(cycle, at)
				}
				cycle = append(cycle, n)
				// collected backwards along parent links
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
		}
	}
	return nil
}

func sortedNeighbors(g *Graph, id concept.ID, rel Relation) []concept.ID {
	n := g.Neighbors(id, rel, Out)
	sort.Slice(n, func(i, j int) bool { return n[i] < n[j] })
	return n
}

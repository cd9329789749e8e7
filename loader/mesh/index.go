package mesh

import "github.com/c360/ontosim/concept"

// Index is the preferred-label source built from the same descriptor file as
// the graph, keyed by concept identifier.
type Index struct {
	descriptors map[concept.ID]Descriptor
}

// NewIndex indexes descriptors by identifier. Later duplicates replace
// earlier ones.
func NewIndex(descriptors []Descriptor) *Index {
	idx := &Index{descriptors: make(map[concept.ID]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		idx.descriptors[d.ID] = d
	}
	return idx
}

// PreferredLabel returns the descriptor name of id as written in the source
// file (not normalized).
func (i *Index) PreferredLabel(id concept.ID) (string, bool) {
	d, ok := i.descriptors[id]
	if !ok || d.Label == "" {
		return "", false
	}
	return d.Label, true
}

// Descriptor returns the full descriptor record for id.
func (i *Index) Descriptor(id concept.ID) (Descriptor, bool) {
	d, ok := i.descriptors[id]
	return d, ok
}

// Len returns the number of indexed descriptors.
func (i *Index) Len() int {
	return len(i.descriptors)
}

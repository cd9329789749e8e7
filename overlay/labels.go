package overlay

import (
	"fmt"
	"sort"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/errors"
)

// CollisionPolicy decides which concept keeps a normalized label shared by
// several concepts. Concepts are visited in ascending identifier order.
type CollisionPolicy string

const (
	// CollisionFirst keeps the lowest identifier.
	CollisionFirst CollisionPolicy = "first"
	// CollisionLast keeps the highest identifier.
	CollisionLast CollisionPolicy = "last"
)

// Validate rejects unknown policies. The empty policy means CollisionFirst.
func (p CollisionPolicy) Validate() error {
	switch p {
	case "", CollisionFirst, CollisionLast:
		return nil
	}
	return errors.WrapInvalid(fmt.Errorf("%w: label collision policy %q", errors.ErrInvalidConfig, p),
		"CollisionPolicy", "Validate", "check policy")
}

// LabelIndex maps normalized preferred labels to concepts. It is built once
// and never modified.
type LabelIndex struct {
	byLabel    map[string]concept.ID
	source     LabelSource
	collisions int
}

// BuildLabelIndex indexes every concept that has a preferred label in source.
func BuildLabelIndex(concepts []concept.ID, source LabelSource, policy CollisionPolicy) *LabelIndex {
	idx := &LabelIndex{
		byLabel: make(map[string]concept.ID),
		source:  source,
	}
	if source == nil {
		return idx
	}

	ordered := append([]concept.ID(nil), concepts...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	for _, id := range ordered {
		if id == "" {
			continue
		}
		label, ok := source.PreferredLabel(id)
		if !ok {
			continue
		}
		key := concept.NormalizeLabel(label)
		if key == "" {
			continue
		}
		if _, taken := idx.byLabel[key]; taken {
			idx.collisions++
			if policy != CollisionLast {
				continue
			}
		}
		idx.byLabel[key] = id
	}
	return idx
}

// LookupByLabel returns the concept whose preferred label matches label after
// normalization.
func (i *LabelIndex) LookupByLabel(label string) (concept.ID, bool) {
	id, ok := i.byLabel[concept.NormalizeLabel(label)]
	return id, ok
}

// LookupLabel returns the preferred label of id from the label source.
func (i *LabelIndex) LookupLabel(id concept.ID) (string, bool) {
	if i.source == nil {
		return "", false
	}
	return i.source.PreferredLabel(id)
}

// Len returns the number of distinct labels.
func (i *LabelIndex) Len() int {
	return len(i.byLabel)
}

// Collisions returns how many concepts found their label already taken.
func (i *LabelIndex) Collisions() int {
	return i.collisions
}

package gateway

import (
	"fmt"
	"math"
	"strings"

	"github.com/c360/ontosim/errors"
)

// ConceptQuery looks a concept up by label.
type ConceptQuery struct {
	Label string `json:"label"`
}

// Validate ensures the query names a label.
func (q ConceptQuery) Validate() error {
	if strings.TrimSpace(q.Label) == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "ConceptQuery", "Validate", "label cannot be empty")
	}
	return nil
}

// ConceptResponse carries the concept a label resolved to.
type ConceptResponse struct {
	Concept string `json:"concept"`
	Label   string `json:"label"`
}

// LabelQuery looks up the preferred label of a concept.
type LabelQuery struct {
	Concept string `json:"concept"`
}

// Validate ensures the query names a concept.
func (q LabelQuery) Validate() error {
	if strings.TrimSpace(q.Concept) == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "LabelQuery", "Validate", "concept cannot be empty")
	}
	return nil
}

// LabelResponse carries a concept's preferred label.
type LabelResponse struct {
	Concept string `json:"concept"`
	Label   string `json:"label"`
}

// PairwiseRequest asks for the similarity of two concepts. Concepts may be
// full identifiers or local names in the ontology namespace.
type PairwiseRequest struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Strict bool   `json:"strict,omitempty"`
}

// Validate ensures both concepts are named.
func (r PairwiseRequest) Validate() error {
	if strings.TrimSpace(r.A) == "" || strings.TrimSpace(r.B) == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "PairwiseRequest", "Validate", "a and b are required")
	}
	return nil
}

// GroupwiseRequest asks for the similarity of two concept sets.
type GroupwiseRequest struct {
	SetA   []string `json:"set_a"`
	SetB   []string `json:"set_b"`
	Strict bool     `json:"strict,omitempty"`
}

// Validate rejects blank members. Empty sets are allowed and score 0.
func (r GroupwiseRequest) Validate() error {
	for _, set := range [][]string{r.SetA, r.SetB} {
		for i, ref := range set {
			if strings.TrimSpace(ref) == "" {
				return errors.WrapInvalid(errors.ErrInvalidData, "GroupwiseRequest", "Validate",
					fmt.Sprintf("blank concept at index %d", i))
			}
		}
	}
	return nil
}

// ScoreResponse is the fail-soft similarity answer. Error is only set when
// the request asked for strict reporting and the computation failed.
type ScoreResponse struct {
	Score float64 `json:"score"`
	Error string  `json:"error,omitempty"`
}

// NeighborhoodRequest asks for the similarity-bounded neighborhood of a seed.
type NeighborhoodRequest struct {
	Seed      string  `json:"seed"`
	Threshold float64 `json:"threshold"`
}

// Validate ensures the seed is named and the threshold is a finite number.
func (r NeighborhoodRequest) Validate() error {
	if strings.TrimSpace(r.Seed) == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "NeighborhoodRequest", "Validate", "seed is required")
	}
	if math.IsNaN(r.Threshold) || math.IsInf(r.Threshold, 0) {
		return errors.WrapInvalid(errors.ErrInvalidData, "NeighborhoodRequest", "Validate",
			"threshold must be a finite number")
	}
	return nil
}

// NeighborhoodResponse lists the neighborhood in sorted order.
type NeighborhoodResponse struct {
	Seed      string   `json:"seed"`
	Threshold float64  `json:"threshold"`
	Concepts  []string `json:"concepts"`
}

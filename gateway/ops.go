package gateway

import (
	"context"
	"fmt"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/errors"
)

// ErrNotFound reports a label or concept the overlay does not know.
var ErrNotFound = errors.New("not found")

// Concept resolves a label to its concept.
func Concept(svc Service, q ConceptQuery) (ConceptResponse, error) {
	if err := q.Validate(); err != nil {
		return ConceptResponse{}, err
	}
	id, ok := svc.ConceptForLabel(q.Label)
	if !ok {
		return ConceptResponse{}, fmt.Errorf("label %q: %w", q.Label, ErrNotFound)
	}
	resp := ConceptResponse{Concept: id.String()}
	resp.Label, _ = svc.LabelForConcept(id)
	return resp, nil
}

// Label returns a concept's preferred label.
func Label(svc Service, q LabelQuery) (LabelResponse, error) {
	if err := q.Validate(); err != nil {
		return LabelResponse{}, err
	}
	id := svc.Resolve(q.Concept)
	label, ok := svc.LabelForConcept(id)
	if !ok {
		return LabelResponse{}, fmt.Errorf("concept %q: %w", id, ErrNotFound)
	}
	return LabelResponse{Concept: id.String(), Label: label}, nil
}

// Pairwise scores two concepts. Engine failures never surface as errors.
func Pairwise(svc Service, req PairwiseRequest) (ScoreResponse, error) {
	if err := req.Validate(); err != nil {
		return ScoreResponse{}, err
	}
	r := svc.PairwiseResult(svc.Resolve(req.A), svc.Resolve(req.B))
	return scoreResponse(r.OrZero(), r.Err, req.Strict), nil
}

// Groupwise scores two concept sets. Engine failures never surface as errors.
func Groupwise(svc Service, req GroupwiseRequest) (ScoreResponse, error) {
	if err := req.Validate(); err != nil {
		return ScoreResponse{}, err
	}
	r := svc.GroupwiseResult(resolveAll(svc, req.SetA), resolveAll(svc, req.SetB))
	return scoreResponse(r.OrZero(), r.Err, req.Strict), nil
}

// Neighborhood expands from the seed. Unlike the similarity operations, an
// engine failure is returned.
func Neighborhood(ctx context.Context, svc Service, req NeighborhoodRequest) (NeighborhoodResponse, error) {
	if err := req.Validate(); err != nil {
		return NeighborhoodResponse{}, err
	}
	seed := svc.Resolve(req.Seed)
	set, err := svc.Neighborhood(ctx, seed, req.Threshold)
	if err != nil {
		return NeighborhoodResponse{}, err
	}
	return NeighborhoodResponse{
		Seed:      seed.String(),
		Threshold: req.Threshold,
		Concepts:  set.Strings(),
	}, nil
}

func resolveAll(svc Service, refs []string) concept.Set {
	set := concept.NewSet()
	for _, ref := range refs {
		set.Add(svc.Resolve(ref))
	}
	return set
}

func scoreResponse(score float64, err error, strict bool) ScoreResponse {
	resp := ScoreResponse{Score: score}
	if strict && err != nil {
		resp.Error = err.Error()
	}
	return resp
}

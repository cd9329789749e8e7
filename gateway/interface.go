package gateway

import (
	"context"
	"net/http"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/overlay"
)

// Service is the overlay surface the transports expose. *overlay.Overlay
// implements it.
type Service interface {
	ConceptForLabel(label string) (concept.ID, bool)
	LabelForConcept(id concept.ID) (string, bool)
	PairwiseResult(a, b concept.ID) overlay.Result
	GroupwiseResult(a, b concept.Set) overlay.Result
	Neighborhood(ctx context.Context, seed concept.ID, threshold float64) (concept.Set, error)
	Resolve(ref string) concept.ID
}

var _ Service = (*overlay.Overlay)(nil)

// HTTPHandler is implemented by anything that mounts routes on a shared mux.
type HTTPHandler interface {
	RegisterHTTPHandlers(prefix string, mux *http.ServeMux)
}

// Package overlaytest builds overlays over the sample MeSH ontology for
// transport tests.
package overlaytest

import (
	"context"
	"testing"

	"github.com/c360/ontosim/loader/mesh"
	"github.com/c360/ontosim/metric"
	"github.com/c360/ontosim/overlay"
	"github.com/c360/ontosim/testutil"
)

// NewSample builds an overlay from the sample descriptor file with the
// default configuration. A nil registry disables metrics.
func NewSample(t testing.TB, registry *metric.MetricsRegistry) *overlay.Overlay {
	t.Helper()

	cfg := overlay.DefaultConfig()
	cfg.OntologyPath = testutil.SampleMeSHPath()

	o, err := overlay.New(context.Background(), cfg, overlay.Dependencies{
		Loader:   overlay.MeSHLoader(mesh.NewLoader()),
		Registry: registry,
	})
	if err != nil {
		t.Fatalf("build sample overlay: %v", err)
	}
	return o
}

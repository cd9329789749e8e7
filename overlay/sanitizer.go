package overlay

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/errors"
	"github.com/c360/ontosim/graph"
)

// EdgePair names a SubClassOf edge, child to parent, that closes a cycle in a
// given ontology release.
type EdgePair struct {
	Child  concept.ID `json:"child" yaml:"child"`
	Parent concept.ID `json:"parent" yaml:"parent"`
}

// String renders the pair as "child -> parent".
func (p EdgePair) String() string {
	return fmt.Sprintf("%s -> %s", p.Child, p.Parent)
}

// DefaultMeSHCycleEdges returns the edges that make MeSH 2014 cyclic:
// Morals under Ethics and 3-Hydroxybutyric Acid under Hydroxybutyrates.
func DefaultMeSHCycleEdges(prefix string) []EdgePair {
	return []EdgePair{
		{Child: concept.NewID(prefix, "D009014"), Parent: concept.NewID(prefix, "D004989")},
		{Child: concept.NewID(prefix, "D020155"), Parent: concept.NewID(prefix, "D006885")},
	}
}

// SanitizeReport describes what Sanitize did.
type SanitizeReport struct {
	Removed []graph.Edge
	Missing []EdgePair
	IsDAG   bool
	Roots   []concept.ID
	// Cycle holds one offending cycle when IsDAG is false and one exists.
	Cycle []concept.ID
}

// Sanitizer removes a configured set of cycle-closing edges and validates the
// result. It never looks for cycles on its own.
type Sanitizer struct {
	pairs      []EdgePair
	validate   DAGValidator
	requireDAG bool
	logger     *slog.Logger
}

// SanitizerOption configures a Sanitizer.
type SanitizerOption func(*Sanitizer)

// WithValidator replaces graph.IsRootedDAG.
func WithValidator(v DAGValidator) SanitizerOption {
	return func(s *Sanitizer) {
		if v != nil {
			s.validate = v
		}
	}
}

// WithRequireDAG controls whether a failed validation is an error (true, the
// default) or only logged.
func WithRequireDAG(require bool) SanitizerOption {
	return func(s *Sanitizer) { s.requireDAG = require }
}

// WithSanitizerLogger sets the logger.
func WithSanitizerLogger(logger *slog.Logger) SanitizerOption {
	return func(s *Sanitizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSanitizer creates a sanitizer for pairs.
func NewSanitizer(pairs []EdgePair, opts ...SanitizerOption) *Sanitizer {
	s := &Sanitizer{
		pairs:      append([]EdgePair(nil), pairs...),
		validate:   graph.IsRootedDAG,
		requireDAG: true,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "sanitizer")
	return s
}

// Pairs returns the configured edge pairs.
func (s *Sanitizer) Pairs() []EdgePair {
	return append([]EdgePair(nil), s.pairs...)
}

// Sanitize removes every outgoing SubClassOf edge of each pair's child that
// targets the pair's parent, then validates g. A pair with no such edge is
// reported as missing. The graph must not be frozen.
func (s *Sanitizer) Sanitize(g *graph.Graph) (SanitizeReport, error) {
	var report SanitizeReport

	for _, pair := range s.pairs {
		found := false
		for _, e := range g.Edges(graph.SubClassOf, pair.Child, graph.Out) {
			if e.Target != pair.Parent {
				continue
			}
			removed, err := g.RemoveEdge(e)
			if err != nil {
				return report, errors.Wrap(err, "Sanitizer", "Sanitize", fmt.Sprintf("remove %s", e))
			}
			if removed {
				found = true
				report.Removed = append(report.Removed, e)
				s.logger.Debug("Removed cycle edge", "child", pair.Child, "parent", pair.Parent)
			}
		}
		if !found {
			report.Missing = append(report.Missing, pair)
			s.logger.Warn("Cycle edge not found", "child", pair.Child, "parent", pair.Parent)
		}
	}

	report.IsDAG = s.validate(g)
	if report.IsDAG {
		s.logger.Info("Graph sanitized",
			"removed", len(report.Removed),
			"missing", len(report.Missing))
		return report, nil
	}

	report.Roots = graph.Roots(g, graph.SubClassOf)
	report.Cycle = graph.FindCycle(g, graph.SubClassOf)

	detail := fmt.Sprintf("%d roots", len(report.Roots))
	if len(report.Cycle) > 0 {
		detail += ", cycle " + joinIDs(report.Cycle)
	}

	if !s.requireDAG {
		s.logger.Error("Sanitized graph is not a rooted DAG", "detail", detail)
		return report, nil
	}
	return report, errors.WrapFatal(fmt.Errorf("%w: %s", errors.ErrGraphIntegrity, detail),
		"Sanitizer", "Sanitize", "validate rooted DAG")
}

func joinIDs(ids []concept.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.LocalName()
	}
	return strings.Join(parts, " -> ")
}

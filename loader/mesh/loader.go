// Package mesh loads MeSH descriptor XML (the DescriptorRecordSet format of
// the NLM "desc" files) into a concept graph and a preferred-label index.
//
// Each DescriptorRecord becomes a concept named prefix + DescriptorUI. Each of
// its tree numbers yields a SubClassOf edge to the descriptor owning the
// parent tree number ("F01.829.316" -> "F01.829"). Top-level tree numbers are
// linked to a single root concept so the result has one root.
//
// The file is streamed record by record; the whole document is never held in
// memory. The DTD referenced by the DOCTYPE is not read.
package mesh

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/errors"
	"github.com/c360/ontosim/graph"
)

// DefaultRoot is the local name of the synthetic root concept.
const DefaultRoot = "MESH"

// Loader reads MeSH descriptor files.
type Loader struct {
	root   string
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithRoot overrides the local name of the synthetic root concept.
func WithRoot(localName string) Option {
	return func(l *Loader) {
		if localName != "" {
			l.root = localName
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a MeSH loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		root:   DefaultRoot,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "mesh-loader")
	return l
}

// Load reads the file at path and returns the concept graph. The graph URI is
// the namespace prefix without its trailing separator, matching the way
// concept identifiers are minted.
func (l *Loader) Load(ctx context.Context, path, prefix string) (*graph.Graph, error) {
	descriptors, err := l.readFile(ctx, path, prefix)
	if err != nil {
		return nil, err
	}
	return l.buildGraph(descriptors, prefix)
}

// Index reads the file at path and returns the preferred-label source.
func (l *Loader) Index(ctx context.Context, path, prefix string) (*Index, error) {
	descriptors, err := l.readFile(ctx, path, prefix)
	if err != nil {
		return nil, err
	}
	return NewIndex(descriptors), nil
}

// LoadAll reads the file once and returns both the graph and the label index.
func (l *Loader) LoadAll(ctx context.Context, path, prefix string) (*graph.Graph, *Index, error) {
	descriptors, err := l.readFile(ctx, path, prefix)
	if err != nil {
		return nil, nil, err
	}
	g, err := l.buildGraph(descriptors, prefix)
	if err != nil {
		return nil, nil, err
	}
	return g, NewIndex(descriptors), nil
}

func (l *Loader) readFile(ctx context.Context, path, prefix string) ([]Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapFatal(fmt.Errorf("%w: %w", errors.ErrLoad, err),
			"Loader", "Load", "open ontology file")
	}
	defer f.Close()

	descriptors, err := Decode(ctx, f, prefix)
	if err != nil {
		return nil, err
	}

	l.logger.Info("MeSH descriptors read", "path", path, "descriptors", len(descriptors))
	return descriptors, nil
}

// charsetReader converts the encodings MeSH releases have declared to UTF-8.
// Older desc files are ISO-8859-1.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return input, nil
	case "iso-8859-1", "iso8859-1", "iso_8859-1", "latin1", "latin-1", "l1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("%w: unsupported charset %q", errors.ErrLoad, label)
}

// Decode streams DescriptorRecord elements from r.
func Decode(ctx context.Context, r io.Reader, prefix string) ([]Descriptor, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charsetReader

	var descriptors []Descriptor
	sawRecordSet := false

	for {
		if len(descriptors)%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.WrapTransient(err, "Loader", "Decode", "read descriptors")
			}
		}

		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapFatal(fmt.Errorf("%w: %w", errors.ErrLoad, err),
				"Loader", "Decode", "parse XML")
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "DescriptorRecordSet":
			sawRecordSet = true
		case "DescriptorRecord":
			var rec descriptorRecord
			if err := decoder.DecodeElement(&rec, &start); err != nil {
				return nil, errors.WrapFatal(fmt.Errorf("%w: %w", errors.ErrLoad, err),
					"Loader", "Decode", "decode DescriptorRecord")
			}
			if rec.UI == "" {
				return nil, errors.WrapFatal(fmt.Errorf("%w: descriptor without DescriptorUI", errors.ErrLoad),
					"Loader", "Decode", "decode DescriptorRecord")
			}
			descriptors = append(descriptors, rec.toDescriptor(prefix))
		}
	}

	if !sawRecordSet {
		return nil, errors.WrapFatal(fmt.Errorf("%w: no DescriptorRecordSet element", errors.ErrLoad),
			"Loader", "Decode", "parse XML")
	}
	return descriptors, nil
}

func (l *Loader) buildGraph(descriptors []Descriptor, prefix string) (*graph.Graph, error) {
	ns := concept.NormalizeNamespace(prefix)
	g := graph.New(concept.ID(ns[:len(ns)-1]))

	// tree number -> owning descriptor
	owners := make(map[string]concept.ID)
	for _, d := range descriptors {
		for _, tn := range d.TreeNumbers {
			owners[tn] = d.ID
		}
	}

	root := concept.NewID(prefix, l.root)
	if len(descriptors) > 0 {
		if err := g.AddConcept(root); err != nil {
			return nil, errors.WrapFatal(err, "Loader", "Load", "add root concept")
		}
	}

	unresolved := 0
	for _, d := range descriptors {
		if err := g.AddConcept(d.ID); err != nil {
			return nil, errors.WrapFatal(err, "Loader", "Load", "add concept")
		}

		// descriptors without tree numbers (e.g. check tags) hang off the root
		if len(d.TreeNumbers) == 0 {
			if err := g.AddEdge(graph.Edge{Source: d.ID, Target: root, Relation: graph.SubClassOf}); err != nil {
				return nil, errors.WrapFatal(err, "Loader", "Load", "link to root")
			}
			continue
		}

		for _, tn := range d.TreeNumbers {
			parent := root
			if ptn, ok := parentTreeNumber(tn); ok {
				owner, found := owners[ptn]
				if !found {
					unresolved++
					l.logger.Debug("parent tree number has no descriptor",
						"descriptor", d.UI, "tree_number", tn, "parent", ptn)
					continue
				}
				parent = owner
			}
			if parent == d.ID {
				continue
			}
			if err := g.AddEdge(graph.Edge{Source: d.ID, Target: parent, Relation: graph.SubClassOf}); err != nil {
				return nil, errors.WrapFatal(err, "Loader", "Load", "add subsumption edge")
			}
		}
	}

	if unresolved > 0 {
		l.logger.Warn("tree numbers with unknown parents skipped", "count", unresolved)
	}
	l.logger.Info("MeSH graph built", "concepts", g.Len(), "edges", g.EdgeCount(), "root", root)
	return g, nil
}

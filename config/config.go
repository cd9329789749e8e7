package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/errors"
	"github.com/c360/ontosim/loader/mesh"
	"github.com/c360/ontosim/overlay"
	"github.com/c360/ontosim/similarity"
)

// FormatMeSHXML is the only supported ontology format.
const FormatMeSHXML = "mesh-xml"

// Config is the complete ontosim configuration.
type Config struct {
	Version    string           `json:"version,omitempty" yaml:"version,omitempty"`
	Ontology   OntologyConfig   `json:"ontology" yaml:"ontology"`
	Sanitizer  SanitizerConfig  `json:"sanitizer" yaml:"sanitizer"`
	Similarity SimilarityConfig `json:"similarity" yaml:"similarity"`
	Labels     LabelsConfig     `json:"labels" yaml:"labels"`
	HTTP       HTTPConfig       `json:"http" yaml:"http"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics"`
	NATS       NATSConfig       `json:"nats" yaml:"nats"`
}

// OntologyConfig locates the ontology source.
type OntologyConfig struct {
	Path   string `json:"path" yaml:"path"`
	Format string `json:"format" yaml:"format"`
	Prefix string `json:"prefix" yaml:"prefix"`
	// Root is the local name of the synthetic root concept.
	Root string `json:"root" yaml:"root"`
}

// EdgeRef names a cycle edge by local name or full IRI.
type EdgeRef struct {
	Child  string `json:"child" yaml:"child"`
	Parent string `json:"parent" yaml:"parent"`
}

// SanitizerConfig lists the edges to remove and how to treat a graph that is
// still not a rooted DAG afterwards.
type SanitizerConfig struct {
	CycleEdges []EdgeRef `json:"cycle_edges" yaml:"cycle_edges"`
	RequireDAG bool      `json:"require_dag" yaml:"require_dag"`
}

// SimilarityConfig selects the measure and aggregation of the overlay.
type SimilarityConfig struct {
	Measure     string `json:"measure" yaml:"measure"`
	Aggregation string `json:"aggregation" yaml:"aggregation"`
	CacheSize   int    `json:"cache_size" yaml:"cache_size"`
}

// LabelsConfig controls label index construction.
type LabelsConfig struct {
	Collision string `json:"collision" yaml:"collision"`
}

// HTTPConfig configures the JSON API.
type HTTPConfig struct {
	Enabled         bool     `json:"enabled" yaml:"enabled"`
	Port            int      `json:"port" yaml:"port"`
	MaxRequestBytes int64    `json:"max_request_bytes" yaml:"max_request_bytes"`
	ShutdownTimeout Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port" yaml:"port"`
	Path    string `json:"path" yaml:"path"`
}

// NATSConfig configures the request/reply query processor.
type NATSConfig struct {
	Enabled           bool     `json:"enabled" yaml:"enabled"`
	URLs              []string `json:"urls" yaml:"urls"`
	Name              string   `json:"name" yaml:"name"`
	MaxReconnects     int      `json:"max_reconnects" yaml:"max_reconnects"`
	ReconnectWait     Duration `json:"reconnect_wait" yaml:"reconnect_wait"`
	SubjectPrefix     string   `json:"subject_prefix" yaml:"subject_prefix"`
	NeighborhoodRate  float64  `json:"neighborhood_rate" yaml:"neighborhood_rate"`
	NeighborhoodBurst int      `json:"neighborhood_burst" yaml:"neighborhood_burst"`
	// Workers answer queries concurrently; QueueSize bounds waiting requests.
	Workers   int `json:"workers" yaml:"workers"`
	QueueSize int `json:"queue_size" yaml:"queue_size"`
}

// Duration is a time.Duration written as a Go duration string ("2s").
type Duration time.Duration

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	*d = Duration(n)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Defaults returns the configuration used when a field is not set.
func Defaults() *Config {
	return &Config{
		Version: "1.0.0",
		Ontology: OntologyConfig{
			Format: FormatMeSHXML,
			Prefix: concept.DefaultNamespace,
			Root:   mesh.DefaultRoot,
		},
		Sanitizer: SanitizerConfig{
			CycleEdges: []EdgeRef{
				{Child: "D009014", Parent: "D004989"},
				{Child: "D020155", Parent: "D006885"},
			},
			RequireDAG: true,
		},
		Similarity: SimilarityConfig{
			Measure:     string(similarity.MeasureLin),
			Aggregation: string(similarity.AggregationBMA),
			CacheSize:   similarity.DefaultMemoSize,
		},
		Labels: LabelsConfig{
			Collision: string(overlay.CollisionFirst),
		},
		HTTP: HTTPConfig{
			Enabled:         false,
			Port:            8080,
			MaxRequestBytes: 1 << 20,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
		NATS: NATSConfig{
			Enabled:           false,
			URLs:              []string{"nats://localhost:4222"},
			Name:              "ontosim",
			MaxReconnects:     -1,
			ReconnectWait:     Duration(2 * time.Second),
			SubjectPrefix:     "ontology.query",
			NeighborhoodRate:  10,
			NeighborhoodBurst: 5,
			Workers:           8,
			QueueSize:         256,
		},
	}
}

// Validate checks semantic constraints the schema cannot express.
func (c *Config) Validate() error {
	if c.Ontology.Path == "" {
		return invalid(errors.ErrMissingConfig, "ontology.path is required")
	}
	if c.Ontology.Format != FormatMeSHXML {
		return invalid(errors.ErrInvalidConfig, fmt.Sprintf("ontology.format %q is not supported", c.Ontology.Format))
	}

	for i, e := range c.Sanitizer.CycleEdges {
		if strings.TrimSpace(e.Child) == "" || strings.TrimSpace(e.Parent) == "" {
			return invalid(errors.ErrInvalidConfig, fmt.Sprintf("sanitizer.cycle_edges[%d] needs child and parent", i))
		}
	}

	if err := c.SimilarityConfig().Validate(); err != nil {
		return err
	}
	if c.Similarity.CacheSize < 0 {
		return invalid(errors.ErrInvalidConfig, "similarity.cache_size must not be negative")
	}
	if err := overlay.CollisionPolicy(c.Labels.Collision).Validate(); err != nil {
		return err
	}

	if c.HTTP.Enabled && !validPort(c.HTTP.Port) {
		return invalid(errors.ErrInvalidConfig, fmt.Sprintf("http.port %d out of range", c.HTTP.Port))
	}
	if c.Metrics.Enabled {
		if !validPort(c.Metrics.Port) {
			return invalid(errors.ErrInvalidConfig, fmt.Sprintf("metrics.port %d out of range", c.Metrics.Port))
		}
		if c.HTTP.Enabled && c.Metrics.Port == c.HTTP.Port {
			return invalid(errors.ErrInvalidConfig, "metrics.port and http.port must differ")
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return invalid(errors.ErrInvalidConfig, "metrics.path must start with /")
		}
	}

	if c.NATS.Enabled {
		if len(c.NATS.URLs) == 0 {
			return invalid(errors.ErrMissingConfig, "nats.urls is required when nats is enabled")
		}
		if !isValidNATSSubjectPart(c.NATS.SubjectPrefix) {
			return invalid(errors.ErrInvalidConfig,
				fmt.Sprintf("nats.subject_prefix %q is not a valid subject", c.NATS.SubjectPrefix))
		}
		if c.NATS.NeighborhoodRate <= 0 || c.NATS.NeighborhoodBurst < 1 {
			return invalid(errors.ErrInvalidConfig, "nats neighborhood rate and burst must be positive")
		}
		if c.NATS.Workers < 1 || c.NATS.QueueSize < 1 {
			return invalid(errors.ErrInvalidConfig, "nats workers and queue_size must be positive")
		}
	}
	return nil
}

func invalid(sentinel error, detail string) error {
	return errors.WrapInvalid(fmt.Errorf("%w: %s", sentinel, detail), "Config", "Validate", "validate configuration")
}

func validPort(p int) bool {
	return p > 0 && p < 65536
}

// isValidNATSSubjectPart checks if a string is valid for use in NATS subjects.
// Valid characters are alphanumeric, dots, dashes, and underscores.
func isValidNATSSubjectPart(s string) bool {
	if len(s) == 0 || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			r != '-' && r != '_' && r != '.' {
			return false
		}
	}
	return true
}

// SimilarityConfig returns the measure/aggregation pair.
func (c *Config) SimilarityConfig() similarity.Config {
	return similarity.Config{
		Measure:     similarity.Measure(c.Similarity.Measure),
		Aggregation: similarity.Aggregation(c.Similarity.Aggregation),
	}
}

// Overlay converts the configuration into overlay construction parameters.
// Cycle edges given as local names are minted in the ontology prefix.
func (c *Config) Overlay() overlay.Config {
	prefix := concept.NormalizeNamespace(c.Ontology.Prefix)

	pairs := make([]overlay.EdgePair, 0, len(c.Sanitizer.CycleEdges))
	for _, e := range c.Sanitizer.CycleEdges {
		pairs = append(pairs, overlay.EdgePair{
			Child:  concept.Resolve(prefix, e.Child),
			Parent: concept.Resolve(prefix, e.Parent),
		})
	}

	return overlay.Config{
		OntologyPath: c.Ontology.Path,
		Prefix:       prefix,
		CycleEdges:   pairs,
		RequireDAG:   c.Sanitizer.RequireDAG,
		Similarity:   c.SimilarityConfig(),
		CacheSize:    c.Similarity.CacheSize,
		Collision:    overlay.CollisionPolicy(c.Labels.Collision),
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

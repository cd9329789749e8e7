package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/c360/ontosim/errors"
)

//go:embed schema.json
var schemaJSON string

// DefaultEnvPrefix prefixes every environment override.
const DefaultEnvPrefix = "ONTOSIM"

// Loader builds a Config from defaults, file layers and environment
// overrides, in that order.
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
	getenv     func(string) string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		envPrefix: DefaultEnvPrefix,
		getenv:    os.Getenv,
	}
}

// AddLayer adds a configuration file layer. Later layers override earlier ones.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables Config.Validate after loading.
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load merges all layers over the defaults and applies environment overrides.
// Every layer is checked against the embedded JSON schema before merging.
func (l *Loader) Load() (*Config, error) {
	cfg := Defaults()

	for _, path := range l.layers {
		raw, err := l.loadRaw(path)
		if err != nil {
			return nil, err
		}
		merged, err := mergeFromMap(cfg, raw)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("merge %s", path))
		}
		cfg = merged
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadRaw reads a JSON or YAML file into a generic map and validates it
// against the schema.
func (l *Loader) loadRaw(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, errors.WrapFatal(fmt.Errorf("%w: %w", errors.ErrConfigNotFound, err),
			"Loader", "Load", fmt.Sprintf("read %s", path))
	}

	format, _ := configFormat(path)
	raw := map[string]any{}
	switch format {
	case "json":
		if err := validateJSONDepth(data); err != nil {
			return nil, parseError(path, err)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, parseError(path, err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, parseError(path, err)
		}
	}

	if err := ValidateDocument(raw); err != nil {
		return nil, errors.Wrap(err, "Loader", "Load", fmt.Sprintf("validate %s", path))
	}
	return raw, nil
}

func parseError(path string, err error) error {
	return errors.WrapInvalid(fmt.Errorf("%w: %w", errors.ErrParsingFailed, err),
		"Loader", "Load", fmt.Sprintf("parse %s", path))
}

// ValidateDocument checks a decoded configuration document against the
// embedded JSON schema.
func ValidateDocument(doc map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return errors.WrapInvalid(fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err),
			"Config", "ValidateDocument", "run schema validation")
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return errors.WrapInvalid(fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(problems, "; ")),
		"Config", "ValidateDocument", "check schema")
}

// Schema returns the embedded JSON schema.
func Schema() string {
	return schemaJSON
}

// mergeFromMap overrides only the fields present in override.
func mergeFromMap(base *Config, override map[string]any) (*Config, error) {
	baseJSON, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return nil, err
	}

	mergedJSON, err := json.Marshal(deepMergeMaps(baseMap, override))
	if err != nil {
		return nil, err
	}
	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// deepMergeMaps merges nested objects key by key; any other value, arrays
// included, replaces the base value.
func deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		if v == nil {
			continue
		}
		overrideMap, ok := v.(map[string]any)
		if !ok {
			result[k] = v
			continue
		}
		if baseMap, ok := result[k].(map[string]any); ok {
			result[k] = deepMergeMaps(baseMap, overrideMap)
		} else {
			result[k] = overrideMap
		}
	}
	return result
}

// applyEnvOverrides applies environment variable overrides
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	lookup := func(name string) (string, bool, error) {
		key := l.envPrefix + "_" + name
		val := l.getenv(key)
		if val == "" {
			return "", false, nil
		}
		if err := validateEnvVar(key, val); err != nil {
			return "", false, errors.WrapInvalid(fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err),
				"Loader", "Load", "read environment")
		}
		return val, true, nil
	}

	overrides := []struct {
		name  string
		apply func(string) error
	}{
		{"ONTOLOGY_PATH", func(v string) error { cfg.Ontology.Path = v; return nil }},
		{"ONTOLOGY_PREFIX", func(v string) error { cfg.Ontology.Prefix = v; return nil }},
		{"MEASURE", func(v string) error { cfg.Similarity.Measure = v; return nil }},
		{"AGGREGATION", func(v string) error { cfg.Similarity.Aggregation = v; return nil }},
		{"NATS_URLS", func(v string) error {
			cfg.NATS.URLs = nil
			for _, u := range strings.Split(v, ",") {
				if u = strings.TrimSpace(u); u != "" {
					cfg.NATS.URLs = append(cfg.NATS.URLs, u)
				}
			}
			return nil
		}},
		{"HTTP_PORT", func(v string) error {
			port, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			cfg.HTTP.Port = port
			return nil
		}},
	}

	for _, o := range overrides {
		val, ok, err := lookup(o.name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := o.apply(val); err != nil {
			return errors.WrapInvalid(fmt.Errorf("%w: %s_%s: %w", errors.ErrInvalidConfig, l.envPrefix, o.name, err),
				"Loader", "Load", "apply environment override")
		}
	}
	return nil
}

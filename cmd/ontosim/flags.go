package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath   string
	OntologyPath string
	LogLevel     string
	LogFormat    string
	Debug        bool
	ShowVersion  bool
	ShowHelp     bool
	Validate     bool

	// One-shot queries. When any is set the overlay answers it on stdout
	// and exits instead of serving.
	ConceptForLabel string
	LabelForConcept string
	Pairwise        string
	Groupwise       string
	Neighborhood    string
	Threshold       float64
	Strict          bool
}

// HasQuery reports whether a one-shot query was requested.
func (c *CLIConfig) HasQuery() bool {
	return c.ConceptForLabel != "" || c.LabelForConcept != "" || c.Pairwise != "" ||
		c.Groupwise != "" || c.Neighborhood != ""
}

func parseFlags(args []string, output io.Writer) (*CLIConfig, error) {
	cfg := &CLIConfig{}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.ConfigPath, "config", getEnv("ONTOSIM_CONFIG", ""),
		"Path to a JSON or YAML configuration file (env: ONTOSIM_CONFIG)")
	fs.StringVar(&cfg.ConfigPath, "c", getEnv("ONTOSIM_CONFIG", ""),
		"Path to a JSON or YAML configuration file (env: ONTOSIM_CONFIG)")
	fs.StringVar(&cfg.OntologyPath, "ontology", "",
		"MeSH descriptor XML file, overrides ontology.path")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("ONTOSIM_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: ONTOSIM_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", getEnv("ONTOSIM_LOG_FORMAT", "json"),
		"Log format: json, text (env: ONTOSIM_LOG_FORMAT)")
	fs.BoolVar(&cfg.Debug, "debug", getEnvBool("ONTOSIM_DEBUG", false),
		"Enable debug logging (env: ONTOSIM_DEBUG)")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	fs.StringVar(&cfg.ConceptForLabel, "concept-for-label", "", "Print the concept with this label")
	fs.StringVar(&cfg.LabelForConcept, "label-for-concept", "", "Print the preferred label of this concept")
	fs.StringVar(&cfg.Pairwise, "pairwise", "", "Score two concepts: A,B")
	fs.StringVar(&cfg.Groupwise, "groupwise", "", "Score two concept sets: A1,A2;B1,B2")
	fs.StringVar(&cfg.Neighborhood, "neighborhood", "", "Expand the neighborhood of this seed concept")
	fs.Float64Var(&cfg.Threshold, "threshold", 0.9, "Neighborhood similarity threshold")
	fs.BoolVar(&cfg.Strict, "strict", false, "Report similarity failures instead of scoring 0")

	fs.Usage = func() { printDetailedHelp(output, fs) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	if cfg.ShowHelp {
		fs.Usage()
	}
	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}
	if cfg.ConfigPath == "" && cfg.OntologyPath == "" && getEnv("ONTOSIM_ONTOLOGY_PATH", "") == "" {
		return fmt.Errorf("one of --config, --ontology or ONTOSIM_ONTOLOGY_PATH is required")
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if !slices.Contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	queries := 0
	for _, q := range []string{cfg.ConceptForLabel, cfg.LabelForConcept, cfg.Pairwise, cfg.Groupwise, cfg.Neighborhood} {
		if q != "" {
			queries++
		}
	}
	if queries > 1 {
		return fmt.Errorf("only one query flag may be given")
	}
	if cfg.Pairwise != "" {
		if _, _, err := splitPair(cfg.Pairwise); err != nil {
			return err
		}
	}
	if cfg.Groupwise != "" {
		if _, _, err := splitSets(cfg.Groupwise); err != nil {
			return err
		}
	}
	return nil
}

// splitPair parses "A,B".
func splitPair(s string) (string, string, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return "", "", fmt.Errorf("invalid --pairwise %q, want A,B", s)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// splitSets parses "A1,A2;B1,B2".
func splitSets(s string) ([]string, []string, error) {
	sides := strings.Split(s, ";")
	if len(sides) != 2 {
		return nil, nil, fmt.Errorf("invalid --groupwise %q, want A1,A2;B1,B2", s)
	}
	return splitList(sides[0]), splitList(sides[1]), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printDetailedHelp(w io.Writer, fs *flag.FlagSet) {
	_, _ = fmt.Fprintf(w, `%s - concept similarity over the MeSH hierarchy

Usage: %s [options]

Options:
`, appName, appName)
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(w, `
Examples:
  # Serve HTTP and NATS queries as configured
  %[1]s --config=ontosim.yaml

  # One-shot queries
  %[1]s --ontology=desc2014.xml --concept-for-label=Morals
  %[1]s --ontology=desc2014.xml --pairwise=D009014,D004989
  %[1]s --ontology=desc2014.xml --neighborhood=D009014 --threshold=0.8

  # Validate configuration only
  %[1]s --config=ontosim.yaml --validate

Version: %[2]s
Build: %[3]s
`, appName, Version, BuildTime)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

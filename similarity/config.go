package similarity

import (
	"fmt"
	"sort"

	"github.com/c360/ontosim/errors"
)

// Measure names a pairwise similarity measure.
type Measure string

// Pairwise measures. All return scores in [0,1].
const (
	// MeasureLin is 2*IC(mica) / (IC(a) + IC(b)).
	MeasureLin Measure = "lin"
	// MeasureResnik is IC(mica); with intrinsic IC the maximum is 1.
	MeasureResnik Measure = "resnik"
	// MeasureJiangConrath is 1 - (IC(a) + IC(b) - 2*IC(mica)) / 2.
	MeasureJiangConrath Measure = "jiang_conrath"
	// MeasureWuPalmer is 2*depth(lcs) / (depth(a) + depth(b)).
	MeasureWuPalmer Measure = "wu_palmer"
)

// Aggregation names a groupwise strategy built on a pairwise measure.
type Aggregation string

// Groupwise aggregations.
const (
	// AggregationBMA averages the best-match averages of both directions.
	AggregationBMA Aggregation = "bma"
	// AggregationBMM keeps the larger of the two best-match averages.
	AggregationBMM Aggregation = "bmm"
	// AggregationAverage averages every pair.
	AggregationAverage Aggregation = "average"
	// AggregationMax keeps the best pair.
	AggregationMax Aggregation = "max"
	// AggregationMin keeps the worst pair.
	AggregationMin Aggregation = "min"
)

var (
	knownMeasures = map[Measure]struct{}{
		MeasureLin: {}, MeasureResnik: {}, MeasureJiangConrath: {}, MeasureWuPalmer: {},
	}
	knownAggregations = map[Aggregation]struct{}{
		AggregationBMA: {}, AggregationBMM: {}, AggregationAverage: {}, AggregationMax: {}, AggregationMin: {},
	}
)

// Measures lists the supported measures in ascending order.
func Measures() []string {
	out := make([]string, 0, len(knownMeasures))
	for m := range knownMeasures {
		out = append(out, string(m))
	}
	sort.Strings(out)
	return out
}

// Aggregations lists the supported aggregations in ascending order.
func Aggregations() []string {
	out := make([]string, 0, len(knownAggregations))
	for a := range knownAggregations {
		out = append(out, string(a))
	}
	sort.Strings(out)
	return out
}

// Config is the measure/aggregation pair an overlay is built with. It is
// fixed for the lifetime of the overlay.
type Config struct {
	Measure     Measure     `json:"measure" yaml:"measure"`
	Aggregation Aggregation `json:"aggregation" yaml:"aggregation"`
}

// DefaultConfig returns Lin with best-match average.
func DefaultConfig() Config {
	return Config{
		Measure:     MeasureLin,
		Aggregation: AggregationBMA,
	}
}

// Validate checks that both names are supported.
func (c Config) Validate() error {
	if _, ok := knownMeasures[c.Measure]; !ok {
		return errors.WrapInvalid(fmt.Errorf("%w: %q", errors.ErrUnknownMeasure, c.Measure),
			"Config", "Validate", "check measure")
	}
	if _, ok := knownAggregations[c.Aggregation]; !ok {
		return errors.WrapInvalid(fmt.Errorf("%w: %q", errors.ErrUnknownAggregation, c.Aggregation),
			"Config", "Validate", "check aggregation")
	}
	return nil
}

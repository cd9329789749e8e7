package metric

import (
	dto "github.com/prometheus/client_model/go"

	"github.com/c360/ontosim/errors"
)

// Snapshot gathers the registry and returns the value of every counter and
// gauge series, keyed by metric name. Series of a labelled family are summed.
func (r *MetricsRegistry) Snapshot() (map[string]float64, error) {
	families, err := r.prometheusRegistry.Gather()
	if err != nil {
		return nil, errors.WrapTransient(err, "MetricsRegistry", "Snapshot", "gather metrics")
	}

	values := make(map[string]float64, len(families))
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if v, ok := seriesValue(mf.GetType(), m); ok {
				values[mf.GetName()] += v
			}
		}
	}
	return values, nil
}

func seriesValue(kind dto.MetricType, m *dto.Metric) (float64, bool) {
	switch kind {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue(), true
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue(), true
	default:
		return 0, false
	}
}

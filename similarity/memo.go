package similarity

import (
	"log/slog"
	"sync"

	"github.com/c360/ontosim/metric"
	"github.com/c360/ontosim/pkg/cache"
)

// memoMetricsPrefix labels the memo series on a metrics registry.
const memoMetricsPrefix = "similarity_memo"

// MemoStats is a snapshot of memo activity.
type MemoStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// HitRatio returns hits / (hits + misses), or 0 before the first lookup.
func (s MemoStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// memoKey identifies one score. a <= b.
type memoKey struct {
	measure Measure
	a, b    int
}

// memo is an LRU of pairwise scores. A nil memo stores nothing.
type memo struct {
	scores cache.Cache[memoKey, float64]
	full   sync.Once
}

// newMemo returns nil when maxSize <= 0. The first eviction is logged once
// at warn level; later ones only show in the stats and metrics.
func newMemo(maxSize int, registry *metric.MetricsRegistry, logger *slog.Logger) (*memo, error) {
	if maxSize <= 0 {
		return nil, nil
	}
	m := &memo{}
	onEvict := func(memoKey, float64) {
		m.full.Do(func() {
			logger.Warn("Similarity memo full, evicting least recently used scores",
				"memo_size", maxSize)
		})
	}
	scores, err := cache.NewLRU(maxSize,
		cache.WithMetrics[memoKey, float64](registry, memoMetricsPrefix),
		cache.WithEvictionCallback[memoKey, float64](onEvict),
	)
	if err != nil {
		return nil, err
	}
	m.scores = scores
	return m, nil
}

func (m *memo) get(key memoKey) (float64, bool) {
	if m == nil {
		return 0, false
	}
	return m.scores.Get(key)
}

func (m *memo) set(key memoKey, score float64) {
	if m == nil {
		return
	}
	// measure is never empty
	_, _ = m.scores.Set(key, score)
}

func (m *memo) stats() MemoStats {
	if m == nil {
		return MemoStats{}
	}
	s := m.scores.Stats()
	return MemoStats{
		Hits:      uint64(s.Hits()),
		Misses:    uint64(s.Misses()),
		Evictions: uint64(s.Evictions()),
		Size:      m.scores.Size(),
	}
}

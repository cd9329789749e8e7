package similarity

import (
	"log/slog"
	"math"
	"sort"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/errors"
	"github.com/c360/ontosim/graph"
	"github.com/c360/ontosim/metric"
)

// DefaultMemoSize bounds the pairwise memo when no option overrides it.
const DefaultMemoSize = 100000

// Engine scores concepts of a frozen SubClassOf graph.
//
// Everything the measures need is computed once in NewEngine: the ancestor
// list of each concept (itself included), the number of descendants, the
// depth below the root and the intrinsic information content. Scoring is
// then a merge of two sorted ancestor lists. The engine holds no mutable
// state besides the memo and is safe for concurrent use.
type Engine struct {
	index map[concept.ID]int
	ids   []concept.ID

	ancestors [][]int
	hypo      []int
	depth     []int
	ic        []float64

	memo   *memo
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	memoSize int
	registry *metric.MetricsRegistry
	logger   *slog.Logger
}

// WithMemoSize bounds the pairwise memo; n <= 0 disables it.
func WithMemoSize(n int) Option {
	return func(o *engineOptions) { o.memoSize = n }
}

// WithRegistry exports memo activity through registry.
func WithRegistry(registry *metric.MetricsRegistry) Option {
	return func(o *engineOptions) { o.registry = registry }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = logger }
}

// NewEngine indexes g. The graph should not change afterwards; callers
// normally freeze it first. Cycles do not make NewEngine fail, but scores on
// a cyclic graph have no useful meaning.
func NewEngine(g *graph.Graph, opts ...Option) (*Engine, error) {
	o := engineOptions{memoSize: DefaultMemoSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	ids := g.Concepts()
	e := &Engine{
		index:  make(map[concept.ID]int, len(ids)),
		ids:    ids,
		logger: o.logger.With("component", "similarity-engine"),
	}
	for i, id := range ids {
		e.index[id] = i
	}

	parents := make([][]int, len(ids))
	for i, id := range ids {
		for _, p := range g.Neighbors(id, graph.SubClassOf, graph.Out) {
			parents[i] = append(parents[i], e.index[p])
		}
		sort.Ints(parents[i])
	}

	e.ancestors = make([][]int, len(ids))
	e.hypo = make([]int, len(ids))
	for i := range ids {
		e.ancestors[i] = ancestorsOf(i, parents)
		for _, a := range e.ancestors[i] {
			if a != i {
				e.hypo[a]++
			}
		}
	}

	e.depth = depths(parents)
	e.ic = intrinsicIC(e.hypo)

	m, err := newMemo(o.memoSize, o.registry, e.logger)
	if err != nil {
		return nil, errors.Wrap(err, "Engine", "NewEngine", "create memo")
	}
	e.memo = m

	e.logger.Debug("Similarity engine indexed",
		"concepts", len(ids),
		"memo_size", o.memoSize)
	return e, nil
}

// ancestorsOf returns i and everything reachable through parents, sorted.
func ancestorsOf(i int, parents [][]int) []int {
	seen := map[int]struct{}{i: {}}
	queue := []int{i}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range parents[cur] {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			queue = append(queue, p)
		}
	}
	out := make([]int, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Ints(out)
	return out
}

// depths assigns every concept the length of its longest path to a root,
// counting the root as 1. Edges closing a cycle are ignored.
func depths(parents [][]int) []int {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(parents))
	depth := make([]int, len(parents))

	var visit func(int) int
	visit = func(i int) int {
		switch state[i] {
		case done:
			return depth[i]
		case visiting:
			return 0
		}
		state[i] = visiting
		d := 1
		for _, p := range parents[i] {
			if pd := visit(p) + 1; pd > d {
				d = pd
			}
		}
		state[i] = done
		depth[i] = d
		return d
	}

	for i := range parents {
		visit(i)
	}
	return depth
}

// intrinsicIC computes 1 - log(hypo+1)/log(N) for every concept. Leaves score
// 1 and the root of an N-concept DAG scores 0.
func intrinsicIC(hypo []int) []float64 {
	ic := make([]float64, len(hypo))
	n := float64(len(hypo))
	if n <= 1 {
		for i := range ic {
			ic[i] = 1
		}
		return ic
	}
	logN := math.Log(n)
	for i, h := range hypo {
		ic[i] = clamp(1 - math.Log(float64(h)+1)/logN)
	}
	return ic
}

// Len returns the number of indexed concepts.
func (e *Engine) Len() int {
	return len(e.ids)
}

// Contains reports whether id was indexed.
func (e *Engine) Contains(id concept.ID) bool {
	_, ok := e.index[id]
	return ok
}

// IC returns the intrinsic information content of id.
func (e *Engine) IC(id concept.ID) (float64, error) {
	i, err := e.lookup(id, "IC")
	if err != nil {
		return 0, err
	}
	return e.ic[i], nil
}

// Depth returns the depth of id, the root being 1.
func (e *Engine) Depth(id concept.ID) (int, error) {
	i, err := e.lookup(id, "Depth")
	if err != nil {
		return 0, err
	}
	return e.depth[i], nil
}

// Ancestors returns id and all of its ancestors in ascending order.
func (e *Engine) Ancestors(id concept.ID) ([]concept.ID, error) {
	i, err := e.lookup(id, "Ancestors")
	if err != nil {
		return nil, err
	}
	out := make([]concept.ID, len(e.ancestors[i]))
	for k, a := range e.ancestors[i] {
		out[k] = e.ids[a]
	}
	return out, nil
}

// MemoStats reports memo activity. All fields are zero when the memo is off.
func (e *Engine) MemoStats() MemoStats {
	return e.memo.stats()
}

// Pairwise scores a against b with measure. The score is symmetric and lies
// in [0,1].
func (e *Engine) Pairwise(measure Measure, a, b concept.ID) (float64, error) {
	if _, ok := knownMeasures[measure]; !ok {
		return 0, e.fail("Pairwise", errors.ErrUnknownMeasure, string(measure))
	}
	ia, err := e.lookup(a, "Pairwise")
	if err != nil {
		return 0, err
	}
	ib, err := e.lookup(b, "Pairwise")
	if err != nil {
		return 0, err
	}
	return e.score(measure, ia, ib), nil
}

// Groupwise scores set a against set b: measure is applied to every pair and
// the resulting matrix is reduced by agg. Both sets must be non-empty and
// fully indexed.
func (e *Engine) Groupwise(agg Aggregation, measure Measure, a, b concept.Set) (float64, error) {
	if _, ok := knownAggregations[agg]; !ok {
		return 0, e.fail("Groupwise", errors.ErrUnknownAggregation, string(agg))
	}
	if _, ok := knownMeasures[measure]; !ok {
		return 0, e.fail("Groupwise", errors.ErrUnknownMeasure, string(measure))
	}
	if a.Len() == 0 || b.Len() == 0 {
		return 0, e.fail("Groupwise", errors.ErrEmptyConceptSet, "")
	}

	rows, err := e.lookupAll(a, "Groupwise")
	if err != nil {
		return 0, err
	}
	cols, err := e.lookupAll(b, "Groupwise")
	if err != nil {
		return 0, err
	}

	matrix := make([][]float64, len(rows))
	for r, ia := range rows {
		matrix[r] = make([]float64, len(cols))
		for c, ib := range cols {
			matrix[r][c] = e.score(measure, ia, ib)
		}
	}
	return clamp(aggregate(agg, matrix)), nil
}

func (e *Engine) score(measure Measure, a, b int) float64 {
	if a > b {
		a, b = b, a
	}
	key := memoKey{measure: measure, a: a, b: b}
	if s, ok := e.memo.get(key); ok {
		return s
	}
	s := clamp(e.compute(measure, a, b))
	e.memo.set(key, s)
	return s
}

func (e *Engine) compute(measure Measure, a, b int) float64 {
	switch measure {
	case MeasureLin:
		denom := e.ic[a] + e.ic[b]
		if denom == 0 {
			if a == b {
				return 1
			}
			return 0
		}
		return 2 * e.micaIC(a, b) / denom
	case MeasureResnik:
		return e.micaIC(a, b)
	case MeasureJiangConrath:
		if a == b {
			return 1
		}
		return 1 - (e.ic[a]+e.ic[b]-2*e.micaIC(a, b))/2
	case MeasureWuPalmer:
		if a == b {
			return 1
		}
		return 2 * float64(e.lcsDepth(a, b)) / float64(e.depth[a]+e.depth[b])
	}
	return 0
}

// micaIC returns the IC of the most informative common ancestor, or 0 when
// a and b share none.
func (e *Engine) micaIC(a, b int) float64 {
	best := 0.0
	e.common(a, b, func(c int) {
		if e.ic[c] > best {
			best = e.ic[c]
		}
	})
	return best
}

// lcsDepth returns the depth of the deepest common ancestor, or 0.
func (e *Engine) lcsDepth(a, b int) int {
	best := 0
	e.common(a, b, func(c int) {
		if e.depth[c] > best {
			best = e.depth[c]
		}
	})
	return best
}

// common calls fn for every shared ancestor of a and b.
func (e *Engine) common(a, b int, fn func(int)) {
	xs, ys := e.ancestors[a], e.ancestors[b]
	i, j := 0, 0
	for i < len(xs) && j < len(ys) {
		switch {
		case xs[i] < ys[j]:
			i++
		case xs[i] > ys[j]:
			j++
		default:
			fn(xs[i])
			i++
			j++
		}
	}
}

func aggregate(agg Aggregation, m [][]float64) float64 {
	switch agg {
	case AggregationBMA:
		return (rowBest(m) + colBest(m)) / 2
	case AggregationBMM:
		return math.Max(rowBest(m), colBest(m))
	case AggregationAverage:
		sum, n := 0.0, 0
		for _, row := range m {
			for _, v := range row {
				sum += v
				n++
			}
		}
		return sum / float64(n)
	case AggregationMax:
		best := math.Inf(-1)
		for _, row := range m {
			for _, v := range row {
				best = math.Max(best, v)
			}
		}
		return best
	case AggregationMin:
		worst := math.Inf(1)
		for _, row := range m {
			for _, v := range row {
				worst = math.Min(worst, v)
			}
		}
		return worst
	}
	return 0
}

// rowBest is the mean over rows of each row's maximum.
func rowBest(m [][]float64) float64 {
	sum := 0.0
	for _, row := range m {
		best := 0.0
		for _, v := range row {
			best = math.Max(best, v)
		}
		sum += best
	}
	return sum / float64(len(m))
}

// colBest is the mean over columns of each column's maximum.
func colBest(m [][]float64) float64 {
	cols := len(m[0])
	sum := 0.0
	for c := 0; c < cols; c++ {
		best := 0.0
		for _, row := range m {
			best = math.Max(best, row[c])
		}
		sum += best
	}
	return sum / float64(cols)
}

func (e *Engine) lookup(id concept.ID, method string) (int, error) {
	i, ok := e.index[id]
	if !ok {
		return 0, e.fail(method, errors.ErrUnknownConcept, id.String())
	}
	return i, nil
}

func (e *Engine) lookupAll(s concept.Set, method string) ([]int, error) {
	out := make([]int, 0, s.Len())
	for _, id := range s.Sorted() {
		i, err := e.lookup(id, method)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

func (e *Engine) fail(method string, cause error, detail string) error {
	return errors.WrapInvalid(errors.WithCause(errors.ErrSimilarity, cause, detail),
		"Engine", method, "score concepts")
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

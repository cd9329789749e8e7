package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/c360/ontosim/errors"
	"github.com/c360/ontosim/gateway"
	"github.com/c360/ontosim/metric"
	"github.com/c360/ontosim/natsclient"
	"github.com/c360/ontosim/pkg/worker"
)

// Operation suffixes appended to the subject prefix.
const (
	OpConcept      = "concept"
	OpLabel        = "label"
	OpPairwise     = "pairwise"
	OpGroupwise    = "groupwise"
	OpNeighborhood = "neighborhood"

	DefaultSubjectPrefix = "ontology.query"
	DefaultQueueGroup    = "ontosim"

	// DefaultQueryTimeout bounds one neighborhood expansion.
	DefaultQueryTimeout = 5 * time.Second

	// RequestIDHeader lets callers supply their own query ID.
	RequestIDHeader = "X-Request-ID"
)

// Operations lists every operation served.
func Operations() []string {
	return []string{OpConcept, OpLabel, OpPairwise, OpGroupwise, OpNeighborhood}
}

// QueryResponse is the reply envelope for every subject.
type QueryResponse struct {
	ID    string `json:"id"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Subscriber registers request handlers. *natsclient.Client implements it.
type Subscriber interface {
	Subscribe(subject, queue string, handler natsclient.Handler) error
}

var _ Subscriber = (*natsclient.Client)(nil)

// Config holds the processor settings.
type Config struct {
	SubjectPrefix     string
	QueueGroup        string
	NeighborhoodRate  float64
	NeighborhoodBurst int
	QueryTimeout      time.Duration
	// Workers answer requests concurrently. A request arriving while
	// QueueSize requests wait is rejected as rate limited.
	Workers   int
	QueueSize int
}

// DefaultConfig returns the defaults used by the service.
func DefaultConfig() Config {
	return Config{
		SubjectPrefix:     DefaultSubjectPrefix,
		QueueGroup:        DefaultQueueGroup,
		NeighborhoodRate:  10,
		NeighborhoodBurst: 5,
		QueryTimeout:      DefaultQueryTimeout,
		Workers:           worker.DefaultWorkers,
		QueueSize:         worker.DefaultQueueSize,
	}
}

// request is one NATS message waiting for a worker.
type request struct {
	op  string
	msg *nats.Msg
}

// Processor answers overlay queries over NATS request/reply.
type Processor struct {
	svc     gateway.Service
	cfg     Config
	metrics *metric.Metrics
	logger  *slog.Logger

	neighborhoodLimiter *rate.Limiter

	mu      sync.Mutex
	pool    *worker.Pool[request]
	cancel  context.CancelFunc
	started bool
}

// NewProcessor creates a query processor. Zero config fields take defaults.
func NewProcessor(svc gateway.Service, cfg Config, metrics *metric.Metrics, logger *slog.Logger) (*Processor, error) {
	if svc == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "QueryProcessor", "NewProcessor",
			"overlay service is required")
	}

	def := DefaultConfig()
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = def.SubjectPrefix
	}
	if cfg.NeighborhoodRate <= 0 {
		cfg.NeighborhoodRate = def.NeighborhoodRate
	}
	if cfg.NeighborhoodBurst < 1 {
		cfg.NeighborhoodBurst = def.NeighborhoodBurst
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = def.QueryTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Processor{
		svc:                 svc,
		cfg:                 cfg,
		metrics:             metrics,
		logger:              logger.With("component", "query-processor"),
		neighborhoodLimiter: rate.NewLimiter(rate.Limit(cfg.NeighborhoodRate), cfg.NeighborhoodBurst),
	}, nil
}

// Subject returns the full subject of op.
func (p *Processor) Subject(op string) string {
	return p.cfg.SubjectPrefix + "." + op
}

// Start subscribes every operation subject and starts the workers that
// answer them. Workers stop once ctx is cancelled.
func (p *Processor) Start(ctx context.Context, sub Subscriber) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "QueryProcessor", "Start", "start processor")
	}
	if err := ctx.Err(); err != nil {
		return errors.WrapTransient(err, "QueryProcessor", "Start", "start processor")
	}

	pool, err := worker.NewPool(p.cfg.Workers, p.cfg.QueueSize, p.reply)
	if err != nil {
		return errors.Wrap(err, "QueryProcessor", "Start", "create worker pool")
	}
	ctx, cancel := context.WithCancel(ctx)
	if err := pool.Start(ctx); err != nil {
		cancel()
		return errors.WrapFatal(err, "QueryProcessor", "Start", "start worker pool")
	}

	for _, op := range Operations() {
		subject := p.Subject(op)
		if err := sub.Subscribe(subject, p.cfg.QueueGroup, p.handler(pool, op)); err != nil {
			cancel()
			_ = pool.Stop(p.cfg.QueryTimeout)
			return errors.WrapFatal(err, "QueryProcessor", "Start", fmt.Sprintf("subscribe to %s", subject))
		}
		p.logger.Debug("Subscribed to query subject", "subject", subject)
	}

	p.pool = pool
	p.cancel = cancel
	p.started = true
	p.logger.Info("Query handlers initialized",
		"prefix", p.cfg.SubjectPrefix,
		"subjects", len(Operations()),
		"workers", p.cfg.Workers)
	return nil
}

// Stop lets queued requests finish for up to the query timeout, then cancels
// anything still running. Subscriptions are owned by the NATS client and end
// when it is closed.
func (p *Processor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pool != nil {
		if err := p.pool.Stop(p.cfg.QueryTimeout); err != nil {
			p.logger.Warn("Query workers did not drain", "error", err)
		}
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.pool = nil
	p.cancel = nil
	p.started = false
}

// Stats reports worker pool activity. Zero before Start.
func (p *Processor) Stats() worker.PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pool == nil {
		return worker.PoolStats{}
	}
	return p.pool.Stats()
}

// handler queues msg for a worker. When the queue is full the requester is
// told to back off right away.
func (p *Processor) handler(pool *worker.Pool[request], op string) natsclient.Handler {
	return func(msg *nats.Msg) {
		err := pool.Submit(request{op: op, msg: msg})
		if err == nil {
			return
		}

		resp := QueryResponse{
			ID: requestID(msg),
			Error: errors.WrapTransient(fmt.Errorf("%w: %w", errors.ErrRateLimited, err),
				"QueryProcessor", "handler", "queue request").Error(),
		}
		if resp.ID == "" {
			resp.ID = uuid.New().String()
		}
		p.metrics.RecordRequest("nats", op, errors.ErrorTransient.String(), 0)
		p.respond(msg, op, resp)
	}
}

// reply runs on a pool worker.
func (p *Processor) reply(ctx context.Context, req request) error {
	resp := p.Handle(ctx, req.op, requestID(req.msg), req.msg.Data)
	return p.respond(req.msg, req.op, resp)
}

func (p *Processor) respond(msg *nats.Msg, op string, resp QueryResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		p.logger.Error("Failed to encode reply", "id", resp.ID, "operation", op, "error", err)
		return err
	}
	if err := msg.Respond(data); err != nil {
		p.logger.Warn("Failed to send reply", "id", resp.ID, "operation", op, "error", err)
		return err
	}
	return nil
}

func requestID(msg *nats.Msg) string {
	if msg.Header == nil {
		return ""
	}
	return msg.Header.Get(RequestIDHeader)
}

// Handle answers one request. An empty id is replaced with a new UUID.
func (p *Processor) Handle(ctx context.Context, op, id string, payload []byte) QueryResponse {
	start := time.Now()
	if id == "" {
		id = uuid.New().String()
	}

	data, err := p.dispatch(ctx, op, payload)
	resp := QueryResponse{ID: id, Data: data}
	status := "ok"
	if err != nil {
		resp.Data = nil
		resp.Error = err.Error()
		status = errors.Classify(err).String()
		p.logger.Debug("Query failed", "id", id, "operation", op, "error", err)
	}

	p.metrics.RecordRequest("nats", op, status, time.Since(start))
	return resp
}

func (p *Processor) dispatch(ctx context.Context, op string, payload []byte) (any, error) {
	switch op {
	case OpConcept:
		var q gateway.ConceptQuery
		if err := decode(op, payload, &q); err != nil {
			return nil, err
		}
		return gateway.Concept(p.svc, q)

	case OpLabel:
		var q gateway.LabelQuery
		if err := decode(op, payload, &q); err != nil {
			return nil, err
		}
		return gateway.Label(p.svc, q)

	case OpPairwise:
		var req gateway.PairwiseRequest
		if err := decode(op, payload, &req); err != nil {
			return nil, err
		}
		return gateway.Pairwise(p.svc, req)

	case OpGroupwise:
		var req gateway.GroupwiseRequest
		if err := decode(op, payload, &req); err != nil {
			return nil, err
		}
		return gateway.Groupwise(p.svc, req)

	case OpNeighborhood:
		if !p.neighborhoodLimiter.Allow() {
			return nil, errors.WrapTransient(errors.ErrRateLimited, "QueryProcessor", "handleNeighborhood",
				"admit request")
		}
		var req gateway.NeighborhoodRequest
		if err := decode(op, payload, &req); err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
		defer cancel()
		return gateway.Neighborhood(ctx, p.svc, req)
	}

	return nil, errors.WrapInvalid(errors.ErrInvalidData, "QueryProcessor", "dispatch",
		fmt.Sprintf("route operation %q", op))
}

func decode(op string, payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return errors.WrapInvalid(fmt.Errorf("%w: %w", errors.ErrParsingFailed, err),
			"QueryProcessor", "decode", fmt.Sprintf("decode %s request", op))
	}
	return nil
}

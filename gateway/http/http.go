// Package http serves the overlay queries as a JSON API.
package http

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/c360/ontosim/errors"
	"github.com/c360/ontosim/gateway"
	"github.com/c360/ontosim/health"
	"github.com/c360/ontosim/metric"
)

// Defaults for NewGateway.
const (
	DefaultMaxRequestBytes = 1 << 20
	DefaultShutdownTimeout = 10 * time.Second
	RequestIDHeader        = "X-Request-ID"
)

// Gateway exposes a gateway.Service over HTTP.
type Gateway struct {
	svc             gateway.Service
	monitor         *health.Monitor
	metrics         *metric.Metrics
	logger          *slog.Logger
	maxRequestBytes int64
	shutdownTimeout time.Duration
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithMonitor serves the monitor's aggregate on /health.
func WithMonitor(m *health.Monitor) Option {
	return func(g *Gateway) { g.monitor = m }
}

// WithMetrics records one request metric per call.
func WithMetrics(m *metric.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMaxRequestBytes caps request bodies.
func WithMaxRequestBytes(n int64) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxRequestBytes = n
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown in ListenAndServe.
func WithShutdownTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.shutdownTimeout = d
		}
	}
}

// NewGateway creates the HTTP gateway.
func NewGateway(svc gateway.Service, opts ...Option) (*Gateway, error) {
	if svc == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Gateway", "NewGateway", "overlay service is required")
	}
	g := &Gateway{
		svc:             svc,
		logger:          slog.Default(),
		maxRequestBytes: DefaultMaxRequestBytes,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "http-gateway")
	return g, nil
}

var _ gateway.HTTPHandler = (*Gateway)(nil)

// RegisterHTTPHandlers mounts the API under prefix.
func (g *Gateway) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	mux.HandleFunc("GET "+prefix+"/api/v1/concepts", g.route("concept", g.handleConcept))
	mux.HandleFunc("GET "+prefix+"/api/v1/labels", g.route("label", g.handleLabel))
	mux.HandleFunc("POST "+prefix+"/api/v1/similarity/pairwise", g.route("pairwise", g.handlePairwise))
	mux.HandleFunc("POST "+prefix+"/api/v1/similarity/groupwise", g.route("groupwise", g.handleGroupwise))
	mux.HandleFunc("POST "+prefix+"/api/v1/neighborhood", g.route("neighborhood", g.handleNeighborhood))
	mux.HandleFunc("GET "+prefix+"/health", g.route("health", g.handleHealth))
}

// Handler returns a mux with the API mounted at the root.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	g.RegisterHTTPHandlers("", mux)
	return mux
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down
// gracefully.
func (g *Gateway) ListenAndServe(ctx context.Context, port int) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return errors.WrapFatal(err, "Gateway", "ListenAndServe", fmt.Sprintf("listen on port %d", port))
	}
	return g.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled.
func (g *Gateway) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           g.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(listener) }()
	g.logger.Info("HTTP gateway listening", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.WrapFatal(err, "Gateway", "Serve", "serve HTTP")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), g.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.WrapTransient(err, "Gateway", "Serve", "shut down HTTP server")
	}
	g.logger.Info("HTTP gateway stopped")
	return nil
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) (any, error)

// route wraps a handler with request IDs, body limits, metrics and the
// error-to-status mapping.
func (g *Gateway) route(operation string, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := getOrGenerateRequestID(r)
		w.Header().Set(RequestIDHeader, requestID)
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, g.maxRequestBytes)
		}

		data, err := h(w, r)
		code := http.StatusOK
		if err != nil {
			code = mapErrorToHTTPStatus(err)
			g.writeError(w, code, errorMessage(err, code))
			g.logger.Debug("Request failed",
				"request_id", requestID, "operation", operation, "status", code, "error", err)
		} else if operation == "health" {
			code = g.writeHealth(w, data)
		} else {
			g.writeJSON(w, http.StatusOK, data)
		}

		g.metrics.RecordRequest("http", operation, strconv.Itoa(code), time.Since(start))
	}
}

func (g *Gateway) handleConcept(_ http.ResponseWriter, r *http.Request) (any, error) {
	return gateway.Concept(g.svc, gateway.ConceptQuery{Label: r.URL.Query().Get("label")})
}

func (g *Gateway) handleLabel(_ http.ResponseWriter, r *http.Request) (any, error) {
	return gateway.Label(g.svc, gateway.LabelQuery{Concept: r.URL.Query().Get("concept")})
}

func (g *Gateway) handlePairwise(_ http.ResponseWriter, r *http.Request) (any, error) {
	var req gateway.PairwiseRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if strict(r) {
		req.Strict = true
	}
	return gateway.Pairwise(g.svc, req)
}

func (g *Gateway) handleGroupwise(_ http.ResponseWriter, r *http.Request) (any, error) {
	var req gateway.GroupwiseRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if strict(r) {
		req.Strict = true
	}
	return gateway.Groupwise(g.svc, req)
}

func (g *Gateway) handleNeighborhood(_ http.ResponseWriter, r *http.Request) (any, error) {
	var req gateway.NeighborhoodRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	return gateway.Neighborhood(r.Context(), g.svc, req)
}

func (g *Gateway) handleHealth(_ http.ResponseWriter, _ *http.Request) (any, error) {
	if g.monitor == nil {
		return health.NewHealthy("ontosim", "Serving"), nil
	}
	return g.monitor.AggregateHealth("ontosim"), nil
}

func (g *Gateway) writeHealth(w http.ResponseWriter, data any) int {
	code := http.StatusOK
	if status, ok := data.(health.Status); ok && status.IsUnhealthy() {
		code = http.StatusServiceUnavailable
	}
	g.writeJSON(w, code, data)
	return code
}

// strict reports whether the query string asks for failure reporting.
func strict(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("strict"))
	return err == nil && v
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.WrapInvalid(err, "Gateway", "decodeBody", "read request body")
		}
		return errors.WrapInvalid(fmt.Errorf("%w: %w", errors.ErrParsingFailed, err),
			"Gateway", "decodeBody", "decode request body")
	}
	return nil
}

// getOrGenerateRequestID extracts request ID from headers or generates a new one
func getOrGenerateRequestID(r *http.Request) string {
	if reqID := r.Header.Get(RequestIDHeader); reqID != "" {
		return reqID
	}
	return uuid.New().String()
}

// mapErrorToHTTPStatus maps error classes to HTTP status codes
func mapErrorToHTTPStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case stderrors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case stderrors.Is(err, gateway.ErrNotFound):
		return http.StatusNotFound
	case errors.IsSimilarityFailure(err):
		return http.StatusUnprocessableEntity
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.IsTransient(err):
		if stderrors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// errorMessage returns the text clients see. Server-side failures are not
// described.
func errorMessage(err error, code int) string {
	switch {
	case code == http.StatusRequestEntityTooLarge:
		return "request body too large"
	case code >= 500:
		return http.StatusText(code)
	}
	return err.Error()
}

func (g *Gateway) writeError(w http.ResponseWriter, code int, message string) {
	g.writeJSON(w, code, map[string]any{
		"error":  message,
		"status": code,
	})
}

func (g *Gateway) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Warn("Failed to write response", "error", err)
	}
}

package httpx

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	metricssvc "github.com/eshopco/telemetry-api/internal/service/metrics"
)

// DatasetInfo describes the snapshot the service answers from, surfaced on
// the health endpoint.
type DatasetInfo struct {
	Source  string
	Records int
}

// Router wires HTTP endpoints to the metrics service.
type Router struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	metrics metricssvc.Service
	dataset DatasetInfo
	cors    CORSPolicy
	limiter RateLimiter

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault = time.Minute
	rateLimitCompute  = 120
	rateLimitRead     = 240

	routeCompute = "compute"
	routeInfo    = "info"
	routeHealth  = "health"
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, metricsSvc metricssvc.Service, dataset DatasetInfo, cors CORSPolicy, limiter RateLimiter) *Router {
	r := &Router{
		mux:     http.NewServeMux(),
		logger:  logger,
		metrics: metricsSvc,
		dataset: dataset,
		cors:    cors,
		limiter: limiter,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/health", r.audit(r.withCORS(r.instrument(routeHealth, r.withRateLimit(routeHealth, rateLimitRead, rateWindowDefault, rateLimitKeyIP, r.handleHealth)))))
	r.mux.HandleFunc("/", r.audit(r.withCORS(r.handleRoot)))
}

// handleRoot dispatches the service root: GET serves service info, POST
// computes region metrics. Unknown paths fall through here because of the
// catch-all pattern and must 404.
func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		r.notFound(w)
		return
	}
	switch req.Method {
	case http.MethodGet:
		r.instrument(routeInfo, r.withRateLimit(routeInfo, rateLimitRead, rateWindowDefault, rateLimitKeyIP, r.handleInfo))(w, req)
	case http.MethodPost:
		r.instrument(routeCompute, r.withRateLimit(routeCompute, rateLimitCompute, rateWindowDefault, rateLimitKeyIP, r.handleCompute))(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleCompute(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Regions     []string `json:"regions"`
		ThresholdMS *int     `json:"threshold_ms"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.Regions == nil {
		writeError(w, http.StatusBadRequest, "regions is required")
		return
	}
	for _, region := range payload.Regions {
		if region == "" {
			writeError(w, http.StatusBadRequest, "region identifiers must be non-empty")
			return
		}
	}
	if payload.ThresholdMS == nil {
		writeError(w, http.StatusBadRequest, "threshold_ms is required")
		return
	}
	if *payload.ThresholdMS < 0 {
		writeError(w, http.StatusBadRequest, "threshold_ms must be non-negative")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"regions": r.metrics.RegionMetrics(payload.Regions, *payload.ThresholdMS),
	})
}

func (r *Router) handleInfo(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":           "eShopCo Telemetry API",
		"status":            "active",
		"regions_available": r.metrics.Regions(),
		"usage":             "POST / with {'regions': ['amer','emea'], 'threshold_ms': 180}",
	})
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	datasetStatus := "loaded"
	if r.dataset.Records == 0 {
		datasetStatus = "empty"
	}
	payload := map[string]any{
		"status": "healthy",
		"components": map[string]any{
			"dataset": map[string]any{
				"status":  datasetStatus,
				"source":  r.dataset.Source,
				"records": r.dataset.Records,
			},
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	writeJSON(w, http.StatusOK, payload)
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		requestID := strings.TrimSpace(req.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
			"request_id", requestID,
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}

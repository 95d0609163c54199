package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eshopco/telemetry-api/internal/dataset"
	"github.com/eshopco/telemetry-api/internal/domain"
	metricssvc "github.com/eshopco/telemetry-api/internal/service/metrics"
)

type rateLimiterStub struct {
	mu      sync.Mutex
	calls   []rateLimitCall
	allowFn func(key string, limit int, window time.Duration) rateDecision
}

type rateLimitCall struct {
	key    string
	limit  int
	window time.Duration
}

func newRateLimiterStub() *rateLimiterStub {
	return &rateLimiterStub{}
}

func (rl *rateLimiterStub) Allow(key string, limit int, window time.Duration) rateDecision {
	rl.mu.Lock()
	rl.calls = append(rl.calls, rateLimitCall{key: key, limit: limit, window: window})
	fn := rl.allowFn
	rl.mu.Unlock()
	if fn != nil {
		return fn(key, limit, window)
	}
	return rateDecision{allowed: true, count: 1, windowEnd: time.Now().Add(window)}
}

func (rl *rateLimiterStub) Close() {}

type regionPayload struct {
	AvgLatency float64 `json:"avg_latency"`
	P95Latency float64 `json:"p95_latency"`
	AvgUptime  float64 `json:"avg_uptime"`
	Breaches   int     `json:"breaches"`
}

func newTestRouter(t *testing.T, limiter RateLimiter) *Router {
	t.Helper()
	svc := metricssvc.New(domain.NewDataset([]domain.Record{
		{Region: "amer", LatencyMS: 100, Uptime: 0.99},
		{Region: "amer", LatencyMS: 200, Uptime: 0.95},
		{Region: "emea", LatencyMS: 80, Uptime: 1},
	}), metricssvc.Options{})

	router := NewRouter(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		svc,
		DatasetInfo{Source: "embedded", Records: 3},
		CORSPolicy{},
		limiter,
	)
	t.Cleanup(router.Close)
	return router
}

func parseError(t *testing.T, body string) string {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	v, _ := payload["error"].(string)
	return v
}

func TestHandleComputeReturnsRegionAggregates(t *testing.T) {
	router := newTestRouter(t, newRateLimiterStub())

	body := `{"regions": ["amer"], "threshold_ms": 150}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected CORS header on response")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}

	var payload struct {
		Regions map[string]regionPayload `json:"regions"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Regions) != 1 {
		t.Fatalf("expected one region, got %d", len(payload.Regions))
	}
	amer := payload.Regions["amer"]
	if amer.AvgLatency != 150.0 {
		t.Fatalf("unexpected avg_latency %v", amer.AvgLatency)
	}
	if amer.P95Latency != 195.0 {
		t.Fatalf("unexpected p95_latency %v", amer.P95Latency)
	}
	if amer.AvgUptime != 0.97 {
		t.Fatalf("unexpected avg_uptime %v", amer.AvgUptime)
	}
	if amer.Breaches != 1 {
		t.Fatalf("unexpected breaches %d", amer.Breaches)
	}
}

func TestHandleComputeReferenceDataset(t *testing.T) {
	loaded, err := dataset.EmbeddedProvider{}.Load(context.Background())
	if err != nil {
		t.Fatalf("load embedded dataset: %v", err)
	}
	svc := metricssvc.New(domain.NewDataset(loaded.Records), metricssvc.Options{})
	router := NewRouter(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		svc,
		DatasetInfo{Source: loaded.Source, Records: len(loaded.Records)},
		CORSPolicy{},
		newRateLimiterStub(),
	)
	t.Cleanup(router.Close)

	body := `{"regions": ["apac", "amer"], "threshold_ms": 180}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload struct {
		Regions map[string]regionPayload `json:"regions"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}

	apac := payload.Regions["apac"]
	if apac.AvgLatency != 172.36 || apac.P95Latency != 214.14 {
		t.Fatalf("unexpected apac latencies: %+v", apac)
	}
	if apac.AvgUptime != 0.9853 || apac.Breaches != 4 {
		t.Fatalf("unexpected apac uptime/breaches: %+v", apac)
	}

	amer := payload.Regions["amer"]
	if amer.AvgLatency != 153.86 || amer.P95Latency != 207.08 {
		t.Fatalf("unexpected amer latencies: %+v", amer)
	}
	if amer.AvgUptime != 0.9834 || amer.Breaches != 2 {
		t.Fatalf("unexpected amer uptime/breaches: %+v", amer)
	}
}

func TestHandleComputeUnknownRegionYieldsZeroes(t *testing.T) {
	router := newTestRouter(t, newRateLimiterStub())

	body := `{"regions": ["amer", "mars"], "threshold_ms": 150}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var payload struct {
		Regions map[string]regionPayload `json:"regions"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	mars, ok := payload.Regions["mars"]
	if !ok {
		t.Fatalf("expected mars entry, got %v", payload.Regions)
	}
	if mars != (regionPayload{}) {
		t.Fatalf("expected zeroed metrics for unknown region, got %+v", mars)
	}
	if payload.Regions["amer"].Breaches != 1 {
		t.Fatalf("expected amer aggregates alongside, got %+v", payload.Regions["amer"])
	}
}

func TestHandleComputePreservesRequestSpelling(t *testing.T) {
	router := newTestRouter(t, newRateLimiterStub())

	body := `{"regions": ["AMER"], "threshold_ms": 150}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var payload struct {
		Regions map[string]regionPayload `json:"regions"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	upper, ok := payload.Regions["AMER"]
	if !ok {
		t.Fatalf("expected response key spelled as requested, got %v", payload.Regions)
	}
	if upper.AvgLatency != 150.0 || upper.Breaches != 1 {
		t.Fatalf("expected case-insensitive aggregation, got %+v", upper)
	}
}

func TestHandleComputeEmptyRegionsList(t *testing.T) {
	router := newTestRouter(t, newRateLimiterStub())

	body := `{"regions": [], "threshold_ms": 100}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload struct {
		Regions map[string]regionPayload `json:"regions"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Regions) != 0 {
		t.Fatalf("expected empty regions map, got %v", payload.Regions)
	}
}

func TestHandleComputeDuplicateRegionsCollapse(t *testing.T) {
	router := newTestRouter(t, newRateLimiterStub())

	body := `{"regions": ["amer", "amer"], "threshold_ms": 150}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var payload struct {
		Regions map[string]regionPayload `json:"regions"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Regions) != 1 {
		t.Fatalf("expected duplicates collapsed, got %v", payload.Regions)
	}
}

func TestHandleComputeValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed body", `{"regions": ["amer"`, "invalid JSON body"},
		{"missing regions", `{"threshold_ms": 100}`, "regions is required"},
		{"null regions", `{"regions": null, "threshold_ms": 100}`, "regions is required"},
		{"empty region identifier", `{"regions": ["amer", ""], "threshold_ms": 100}`, "region identifiers must be non-empty"},
		{"missing threshold", `{"regions": ["amer"]}`, "threshold_ms is required"},
		{"negative threshold", `{"regions": ["amer"], "threshold_ms": -5}`, "threshold_ms must be non-negative"},
		{"fractional threshold", `{"regions": ["amer"], "threshold_ms": 120.5}`, "invalid JSON body"},
		{"string threshold", `{"regions": ["amer"], "threshold_ms": "180"}`, "invalid JSON body"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(t, newRateLimiterStub())
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
			if msg := parseError(t, rr.Body.String()); msg != tc.want {
				t.Fatalf("expected error %q, got %q", tc.want, msg)
			}
		})
	}
}

func TestHandleInfo(t *testing.T) {
	router := newTestRouter(t, newRateLimiterStub())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["message"] != "eShopCo Telemetry API" {
		t.Fatalf("unexpected message: %v", payload["message"])
	}
	if payload["status"] != "active" {
		t.Fatalf("unexpected status: %v", payload["status"])
	}
	regions, ok := payload["regions_available"].([]any)
	if !ok || len(regions) != 2 {
		t.Fatalf("unexpected regions_available: %v", payload["regions_available"])
	}
	if regions[0] != "amer" || regions[1] != "emea" {
		t.Fatalf("expected sorted region list, got %v", regions)
	}
	usage, ok := payload["usage"].(string)
	if !ok || !strings.Contains(usage, "threshold_ms") {
		t.Fatalf("unexpected usage: %v", payload["usage"])
	}
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(t, newRateLimiterStub())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var payload struct {
		Status     string `json:"status"`
		Components map[string]struct {
			Status  string `json:"status"`
			Source  string `json:"source"`
			Records int    `json:"records"`
		} `json:"components"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Status != "healthy" {
		t.Fatalf("unexpected status %q", payload.Status)
	}
	dataset, ok := payload.Components["dataset"]
	if !ok {
		t.Fatalf("expected dataset component, got %v", payload.Components)
	}
	if dataset.Status != "loaded" {
		t.Fatalf("unexpected dataset status %q", dataset.Status)
	}
	if dataset.Source != "embedded" || dataset.Records != 3 {
		t.Fatalf("unexpected dataset details: %+v", dataset)
	}
	if _, err := time.Parse(time.RFC3339Nano, payload.Timestamp); err != nil {
		t.Fatalf("unexpected timestamp %q: %v", payload.Timestamp, err)
	}
}

func TestHandleHealthEmptyDataset(t *testing.T) {
	svc := metricssvc.New(domain.NewDataset(nil), metricssvc.Options{})
	router := NewRouter(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		svc,
		DatasetInfo{Source: "file:empty.json", Records: 0},
		CORSPolicy{},
		newRateLimiterStub(),
	)
	t.Cleanup(router.Close)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	components := payload["components"].(map[string]any)
	dataset := components["dataset"].(map[string]any)
	if dataset["status"] != "empty" {
		t.Fatalf("expected empty dataset status, got %v", dataset["status"])
	}
}

func TestPreflightRequests(t *testing.T) {
	router := newTestRouter(t, newRateLimiterStub())

	for _, path := range []string{"/", "/health"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Fatalf("expected status 204 for %s, got %d", path, rr.Code)
		}
		if rr.Body.Len() != 0 {
			t.Fatalf("expected empty preflight body for %s, got %q", path, rr.Body.String())
		}
		if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Fatalf("missing allow origin header for %s", path)
		}
		if rr.Header().Get("Access-Control-Allow-Methods") != "POST, GET, OPTIONS" {
			t.Fatalf("unexpected allow methods header %q", rr.Header().Get("Access-Control-Allow-Methods"))
		}
		if rr.Header().Get("Access-Control-Allow-Headers") != "Content-Type, Authorization" {
			t.Fatalf("unexpected allow headers header %q", rr.Header().Get("Access-Control-Allow-Headers"))
		}
	}
}

func TestCustomCORSOrigin(t *testing.T) {
	svc := metricssvc.New(domain.NewDataset(nil), metricssvc.Options{})
	router := NewRouter(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		svc,
		DatasetInfo{},
		CORSPolicy{AllowedOrigin: "https://dashboard.eshopco.dev"},
		newRateLimiterStub(),
	)
	t.Cleanup(router.Close)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://dashboard.eshopco.dev" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, newRateLimiterStub())

	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		req := httptest.NewRequest(method, "/", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405 for %s, got %d", method, rr.Code)
		}
		if msg := parseError(t, rr.Body.String()); msg != "method not allowed" {
			t.Fatalf("unexpected error %q", msg)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405 for POST /health, got %d", rr.Code)
	}
}

func TestUnknownPathNotFound(t *testing.T) {
	router := newTestRouter(t, newRateLimiterStub())

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if msg := parseError(t, rr.Body.String()); msg != "not found" {
		t.Fatalf("unexpected error %q", msg)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected CORS headers on 404 responses")
	}
}

func TestHandleComputeRateLimited(t *testing.T) {
	limiter := newRateLimiterStub()
	reset := time.Unix(1_960_000_000, 0)
	limiter.allowFn = func(key string, limit int, window time.Duration) rateDecision {
		return rateDecision{allowed: false, count: limit, windowEnd: reset}
	}
	router := newTestRouter(t, limiter)

	body := `{"regions": ["amer"], "threshold_ms": 150}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "120" {
		t.Fatalf("unexpected limit header %q", rr.Header().Get("X-RateLimit-Limit"))
	}
	if rr.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected remaining header %q", rr.Header().Get("X-RateLimit-Remaining"))
	}
	if rr.Header().Get("X-RateLimit-Reset") != "1960000000" {
		t.Fatalf("unexpected reset header %q", rr.Header().Get("X-RateLimit-Reset"))
	}
	if msg := parseError(t, rr.Body.String()); msg != "rate limit exceeded" {
		t.Fatalf("unexpected error %q", msg)
	}

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if len(limiter.calls) != 1 {
		t.Fatalf("expected limiter called once, got %d", len(limiter.calls))
	}
	call := limiter.calls[0]
	if call.key != "ip:192.0.2.1" {
		t.Fatalf("unexpected limiter key %q", call.key)
	}
	if call.limit != rateLimitCompute {
		t.Fatalf("unexpected limiter limit %d", call.limit)
	}
	if call.window != rateWindowDefault {
		t.Fatalf("unexpected limiter window %v", call.window)
	}
}

func TestHandleInfoRateHeaders(t *testing.T) {
	limiter := newRateLimiterStub()
	reset := time.Unix(1_950_000_000, 0)
	limiter.allowFn = func(key string, limit int, window time.Duration) rateDecision {
		return rateDecision{allowed: true, count: 3, windowEnd: reset}
	}
	router := newTestRouter(t, limiter)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "240" {
		t.Fatalf("unexpected limit header %q", rr.Header().Get("X-RateLimit-Limit"))
	}
	if rr.Header().Get("X-RateLimit-Remaining") != "237" {
		t.Fatalf("unexpected remaining header %q", rr.Header().Get("X-RateLimit-Remaining"))
	}
	if rr.Header().Get("X-RateLimit-Reset") != "1950000000" {
		t.Fatalf("unexpected reset header %q", rr.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router := newTestRouter(t, newRateLimiterStub())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-abc-123")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != "req-abc-123" {
		t.Fatalf("expected caller request id echoed, got %q", got)
	}
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"imgenhance/internal/core/domain"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockPipeline struct {
	strictness domain.Strictness
	result     domain.EnhancementResult
	err        error
	panicWith  any

	mutex    sync.Mutex
	requests []domain.EnhancementRequest
}

func (m *MockPipeline) Enhance(_ context.Context, request domain.EnhancementRequest) (
	domain.EnhancementResult, error) {
	m.mutex.Lock()
	m.requests = append(m.requests, request)
	m.mutex.Unlock()

	if m.panicWith != nil {
		panic(m.panicWith)
	}

	return m.result, m.err
}

func (m *MockPipeline) Strictness() domain.Strictness {
	return m.strictness
}

func newTestRouter(t *testing.T, pipeline *MockPipeline, strictness domain.Strictness) (http.Handler, *Metrics) {
	t.Helper()

	pipeline.strictness = strictness
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	return NewRouter(NewEnhance(pipeline, metrics), reg), metrics
}

var okResult = domain.EnhancementResult{
	OriginalURL: "https://example.com/in.jpg",
	EnhancedURL: "https://example.com/out.png",
	SizeLabel:   "200.00 KB",
}

func TestEnhance_Endpoints(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		pipeline   *MockPipeline
		strictness domain.Strictness
		wantStatus int
		wantBody   map[string]string
		wantURL    string
	}{
		{
			name:       "post strict includes original url",
			method:     http.MethodPost,
			target:     "/enhance-image",
			body:       `{"url":"https://example.com/in.jpg"}`,
			pipeline:   &MockPipeline{result: okResult},
			strictness: domain.Strict,
			wantStatus: http.StatusOK,
			wantBody: map[string]string{
				"original_url": "https://example.com/in.jpg",
				"image_data":   "https://example.com/out.png",
				"image_size":   "200.00 KB",
			},
			wantURL: "https://example.com/in.jpg",
		},
		{
			name:       "get basic omits original url",
			method:     http.MethodGet,
			target:     "/enhance-image?url=https%3A%2F%2Fexample.com%2Fin.jpg",
			pipeline:   &MockPipeline{result: okResult},
			strictness: domain.Basic,
			wantStatus: http.StatusOK,
			wantBody: map[string]string{
				"image_data": "https://example.com/out.png",
				"image_size": "200.00 KB",
			},
			wantURL: "https://example.com/in.jpg",
		},
		{
			name:       "classified failure is a bad request",
			method:     http.MethodPost,
			target:     "/enhance-image",
			body:       `{"url":"not a url"}`,
			pipeline:   &MockPipeline{err: domain.NewFailure(domain.InvalidURL, "invalid URL format")},
			strictness: domain.Strict,
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]string{"error": "ENHANCEMENT_FAILED", "message": "invalid URL format"},
			wantURL:    "not a url",
		},
		{
			name:   "provider cause is not leaked",
			method: http.MethodGet,
			target: "/enhance-image?url=https://example.com/in.jpg",
			pipeline: &MockPipeline{err: domain.NewFailure(domain.ProviderFailure, "image enhancement failed").
				WithCause("secret upstream payload")},
			strictness: domain.Strict,
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]string{"error": "ENHANCEMENT_FAILED", "message": "image enhancement failed"},
			wantURL:    "https://example.com/in.jpg",
		},
		{
			name:       "malformed body is a missing url",
			method:     http.MethodPost,
			target:     "/enhance-image",
			body:       `{"url":`,
			pipeline:   &MockPipeline{err: domain.NewFailure(domain.MissingURL, "URL is required")},
			strictness: domain.Strict,
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]string{"error": "ENHANCEMENT_FAILED", "message": "URL is required"},
			wantURL:    "",
		},
		{
			name:       "empty body is a missing url",
			method:     http.MethodPost,
			target:     "/enhance-image",
			pipeline:   &MockPipeline{err: domain.NewFailure(domain.MissingURL, "URL is required")},
			strictness: domain.Strict,
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]string{"error": "ENHANCEMENT_FAILED", "message": "URL is required"},
			wantURL:    "",
		},
		{
			name:       "unclassified error is internal",
			method:     http.MethodGet,
			target:     "/enhance-image?url=https://example.com/in.jpg",
			pipeline:   &MockPipeline{err: errors.New("boom")},
			strictness: domain.Strict,
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]string{"error": "INTERNAL_SERVER_ERROR", "message": "internal server error"},
			wantURL:    "https://example.com/in.jpg",
		},
		{
			name:       "panic is internal",
			method:     http.MethodGet,
			target:     "/enhance-image?url=https://example.com/in.jpg",
			pipeline:   &MockPipeline{panicWith: "nil pointer"},
			strictness: domain.Strict,
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]string{"error": "INTERNAL_SERVER_ERROR", "message": "internal server error"},
			wantURL:    "https://example.com/in.jpg",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := newTestRouter(t, tc.pipeline, tc.strictness)

			req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

			var got map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tc.wantBody, got)

			require.Len(t, tc.pipeline.requests, 1)
			assert.Equal(t, tc.wantURL, tc.pipeline.requests[0].SourceURL)
		})
	}
}

func TestEnhance_Health(t *testing.T) {
	pipeline := &MockPipeline{strictness: domain.Strict}
	reg := prometheus.NewRegistry()
	h := NewEnhance(pipeline, NewMetrics(reg))
	h.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	NewRouter(h, reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","timestamp":"2026-10-18T12:00:00Z"}`, rec.Body.String())
	assert.Empty(t, pipeline.requests)
}

func TestEnhance_RequestIDIsEchoed(t *testing.T) {
	router, _ := newTestRouter(t, &MockPipeline{}, domain.Strict)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestEnhance_Metrics(t *testing.T) {
	router, metrics := newTestRouter(t, &MockPipeline{result: okResult}, domain.Strict)

	for range 2 {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/enhance-image?url=https://example.com/a.png", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.outcomes.WithLabelValues(outcomeOK)))
	assert.Equal(t, float64(2),
		testutil.ToFloat64(metrics.requests.WithLabelValues("/enhance-image", http.MethodGet, "200")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `imgenhance_pipeline_outcomes_total{kind="ok"} 2`)
}

func TestEnhance_UnmatchedRoutesGetMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "unknown route",
			method:     http.MethodGet,
			target:     "/nope",
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"NOT_FOUND","message":"route not found"}`,
		},
		{
			name:       "wrong method",
			method:     http.MethodPut,
			target:     "/enhance-image",
			wantStatus: http.StatusMethodNotAllowed,
			wantBody:   `{"error":"METHOD_NOT_ALLOWED","message":"method not allowed"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router, metrics := newTestRouter(t, &MockPipeline{}, domain.Strict)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, nil))

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.JSONEq(t, tc.wantBody, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
			assert.Equal(t, float64(1), testutil.ToFloat64(
				metrics.requests.WithLabelValues("unmatched", tc.method, strconv.Itoa(tc.wantStatus))))
		})
	}
}

func TestEnhance_PanicIsCounted(t *testing.T) {
	router, metrics := newTestRouter(t, &MockPipeline{panicWith: "boom"}, domain.Strict)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/enhance-image?url=https://example.com/a.png", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.requests.WithLabelValues("/enhance-image", http.MethodGet, "500")))
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"imgenhance/internal/core/domain"
	"imgenhance/internal/core/port"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	errEnhancementFailed = "ENHANCEMENT_FAILED"
	errInternalServer    = "INTERNAL_SERVER_ERROR"
	errNotFound          = "NOT_FOUND"
	errMethodNotAllowed  = "METHOD_NOT_ALLOWED"

	maxBodyBytes = 64 << 10
)

type enhanceBody struct {
	URL string `json:"url"`
}

type enhanceResponse struct {
	OriginalURL string `json:"original_url,omitempty"`
	ImageData   string `json:"image_data"`
	ImageSize   string `json:"image_size"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Enhance serves the enhancement endpoints on top of a pipeline.
type Enhance struct {
	pipeline        port.EnhancementPipeline
	metrics         *Metrics
	includeOriginal bool
	now             func() time.Time
}

func NewEnhance(pipeline port.EnhancementPipeline, metrics *Metrics) *Enhance {
	return &Enhance{
		pipeline:        pipeline,
		metrics:         metrics,
		includeOriginal: pipeline.Strictness() == domain.Strict,
		now:             time.Now,
	}
}

// NewRouter wires the façade routes. Middleware wraps the whole router so unmatched routes and panics are logged
// and counted too. gatherer backs the /metrics endpoint.
func NewRouter(h *Enhance, gatherer prometheus.Gatherer) http.Handler {
	router := mux.NewRouter()
	router.Use(captureRoute)

	router.HandleFunc("/", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/enhance-image", h.EnhancePost).Methods(http.MethodPost)
	router.HandleFunc("/enhance-image", h.EnhanceGet).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: errNotFound, Message: "route not found"})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, errorResponse{
			Error:   errMethodNotAllowed,
			Message: "method not allowed",
		})
	})

	return RequestID(Logging(h.metrics.Middleware(Recover(router))))
}

func (h *Enhance) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Enhance) EnhanceGet(w http.ResponseWriter, r *http.Request) {
	h.enhance(w, r, r.URL.Query().Get("url"))
}

func (h *Enhance) EnhancePost(w http.ResponseWriter, r *http.Request) {
	var body enhanceBody

	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body)
	if err != nil && !errors.Is(err, io.EOF) {
		// an unreadable body carries no URL, the pipeline reports it as missing
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("could not decode request body")
		body = enhanceBody{}
	}

	h.enhance(w, r, body.URL)
}

func (h *Enhance) enhance(w http.ResponseWriter, r *http.Request, rawURL string) {
	l := zerolog.Ctx(r.Context())

	// an accepted request runs to completion even if the client goes away
	ctx := context.WithoutCancel(r.Context())

	result, err := h.pipeline.Enhance(ctx, domain.EnhancementRequest{SourceURL: rawURL})
	if err != nil {
		var failure *domain.PipelineFailure
		if errors.As(err, &failure) {
			h.metrics.Outcome(string(failure.Kind))
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: errEnhancementFailed, Message: failure.Message})
			return
		}

		h.metrics.Outcome(errInternalServer)
		l.Error().Err(err).Msg("pipeline returned an unclassified error")
		respondJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   errInternalServer,
			Message: "internal server error",
		})
		return
	}

	h.metrics.Outcome(outcomeOK)

	res := enhanceResponse{ImageData: result.EnhancedURL, ImageSize: result.SizeLabel}
	if h.includeOriginal {
		res.OriginalURL = result.OriginalURL
	}

	respondJSON(w, http.StatusOK, res)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("could not write response")
	}
}

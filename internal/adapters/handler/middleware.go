package handler

import (
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const requestIDHeader = "X-Request-ID"

// RequestID attaches a request scoped logger carrying the caller's X-Request-ID, or a fresh one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			generated, err := uuid.NewV4()
			if err != nil {
				log.Warn().Err(err).Msg("could not generate request id")
			} else {
				id = generated.String()
			}
		}

		w.Header().Set(requestIDHeader, id)

		l := log.With().Str("requestId", id).Logger()
		next.ServeHTTP(w, r.WithContext(l.WithContext(r.Context())))
	})
}

// Logging logs method, uri, duration and response code of every request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		l := zerolog.Ctx(r.Context())
		event := l.Info()
		if rw.statusCode >= http.StatusBadRequest {
			event = l.Error()
		}

		event.Str("method", r.Method).
			Str("uri", r.RequestURI).
			Str("client_ip", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Dur("duration", time.Since(start)).
			Int("response_code", rw.statusCode).
			Msg("api")
	})
}

// Recover turns a panic in a handler into a 500 response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				zerolog.Ctx(r.Context()).Error().Interface("panic", rec).Msg("handler panicked")
				respondJSON(w, http.StatusInternalServerError, errorResponse{
					Error:   errInternalServer,
					Message: "internal server error",
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// responseWriter is a wrapper around http.ResponseWriter and helps capture the response code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

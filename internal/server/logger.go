package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/woozymasta/safetymap/internal/metrics"

	"github.com/rs/zerolog/log"
)

// RequestLogger is a middleware to log and measure HTTP requests.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		metrics.ObserveRequest(r.Method, routeLabel(r.URL.Path), ww.statusCode, elapsed)

		event := log.Debug()
		if ww.statusCode >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.statusCode).
			Str("ip", r.RemoteAddr).
			Dur("duration", elapsed).
			Msg("Request processed")
	})
}

// Recoverer turns a handler panic into a 500 response.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Msg("Handler panicked")
				errInternal(w)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// routeLabel collapses parameterised paths so metric cardinality stays bounded.
func routeLabel(path string) string {
	switch {
	case path == "/", path == "/favicon.ico", path == "/healthz", path == "/metrics",
		path == "/api/view", path == "/api/overlays", path == "/api/search":
		return path
	case strings.HasPrefix(path, "/tiles/"):
		return "/tiles"
	case strings.HasPrefix(path, "/icons/"):
		return "/icons"
	case strings.HasPrefix(path, "/api/markers/"):
		return "/api/markers"
	default:
		return "other"
	}
}

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing to the underlying response writer.
func (w *responseWriterWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

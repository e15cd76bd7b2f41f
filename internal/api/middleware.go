package api

import (
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"marketpulse/internal/metrics"
	"marketpulse/pkg/logger"
)

// rateLimit applies a process-wide token bucket to the API surface. The
// backend fans out to ClickHouse per request, so a burst of dashboard
// refreshes must not translate into a query storm.
func rateLimit(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// observe logs each request and feeds the request counter.
func observe(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		metrics.HTTPRequests.WithLabelValues(r.URL.Path, strconv.Itoa(recorder.status)).Inc()
		log.Debugw("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", time.Since(start),
		)
	})
}

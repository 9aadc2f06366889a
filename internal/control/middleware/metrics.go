// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "academy_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "academy_http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	})

	httpRequestSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "academy_http_request_size_bytes",
		Help:    "HTTP request sizes in bytes",
		Buckets: prometheus.ExponentialBuckets(100, 10, 8),
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "academy_http_response_size_bytes",
		Help:    "HTTP response sizes in bytes",
		Buckets: prometheus.ExponentialBuckets(100, 10, 8),
	}, []string{"method", "path", "status"})

	sessionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academy_session_requests_total",
		Help: "Session API requests by operation and status class",
	}, []string{"op", "status_class"})
)

const sessionsPrefix = "/api/sessions"

// Metrics creates a middleware that records Prometheus metrics for HTTP requests.
// It tracks request duration, in-flight requests, request/response sizes, and status codes.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			contentLength := r.ContentLength

			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			path := routeLabel(r)

			if contentLength > 0 {
				httpRequestSize.WithLabelValues(r.Method, path).Observe(float64(contentLength))
			}

			status := strconv.Itoa(ww.Status())
			httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)

			if written := ww.BytesWritten(); written > 0 {
				httpResponseSize.WithLabelValues(r.Method, path, status).Observe(float64(written))
			}

			if op := sessionOp(r.Method, path); op != "" {
				sessionRequests.WithLabelValues(op, statusClass(ww.Status())).Inc()
			}
		})
	}
}

// routeLabel returns the chi route pattern, so session ids never become label values.
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// sessionOp maps a session route pattern to the operation it serves.
// Non-session routes map to "".
func sessionOp(method, pattern string) string {
	rest, ok := strings.CutPrefix(pattern, sessionsPrefix)
	if !ok {
		return ""
	}
	switch strings.TrimSuffix(rest, "/") {
	case "":
		if method == http.MethodPost {
			return "create"
		}
		return "list"
	case "/{id}":
		switch method {
		case http.MethodPatch:
			return "patch"
		case http.MethodDelete:
			return "delete"
		default:
			return "get"
		}
	case "/{id}/coaching":
		return "coaching"
	case "/{id}/checkins":
		return "checkin"
	case "/{id}/checkins/{index}":
		return "delete_checkin"
	case "/{id}/post":
		return "complete"
	case "/{id}/abort":
		return "abort"
	case "/{id}/drafts":
		return "drafts"
	case "/{id}/phase":
		return "phase"
	case "/{id}/microfeedback":
		return "microfeedback"
	}
	return "other"
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}

// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// OTelHTTP wraps the handler with OpenTelemetry HTTP instrumentation and
// propagates incoming trace context.
func OTelHTTP(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(
			next,
			serviceName,
			otelhttp.WithTracerProvider(otel.GetTracerProvider()),
			otelhttp.WithSpanOptions(
				trace.WithAttributes(semconv.ServiceNameKey.String(serviceName)),
			),
			otelhttp.WithFilter(shouldTrace),
			otelhttp.WithSpanNameFormatter(spanNameFormatter),
		)
	}
}

// shouldTrace skips probes and the metrics scrape.
func shouldTrace(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/readyz", "/livez", "/metrics", "/api/health":
		return false
	}
	return true
}

// spanNameFormatter names spans "{METHOD} {route}". Session ids are collapsed
// to {id} since the chi route is not resolved yet when the span starts.
func spanNameFormatter(_ string, r *http.Request) string {
	return r.Method + " " + collapseSessionPath(r.URL.Path)
}

var sessionSubParams = map[string]string{
	"checkins":      "{index}",
	"microfeedback": "{phase}",
}

func collapseSessionPath(path string) string {
	const prefix = "/api/sessions/"
	rest, ok := strings.CutPrefix(path, prefix)
	if !ok || rest == "" {
		return path
	}
	segs := strings.Split(rest, "/")
	segs[0] = "{id}"
	if len(segs) == 3 {
		if param, ok := sessionSubParams[segs[1]]; ok {
			segs[2] = param
		}
	}
	return prefix + strings.Join(segs, "/")
}

// ExtractTraceContext returns trace and span ids of the active span, if any.
func ExtractTraceContext(r *http.Request) (traceID, spanID string) {
	spanCtx := trace.SpanContextFromContext(r.Context())
	if !spanCtx.IsValid() {
		return "", ""
	}
	return spanCtx.TraceID().String(), spanCtx.SpanID().String()
}

// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"strings"

	"github.com/ManuGH/academy/internal/control/http/problem"
	"github.com/ManuGH/academy/internal/log"
	"github.com/google/uuid"
)

const (
	HeaderTraceID     = "X-Trace-Id"
	HeaderTraceAction = "X-Trace-Action"

	maxClientIDLen = 128
)

// RequestID adds a unique ID to every request. A well-formed client-supplied
// X-Request-ID is kept.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := sanitizeClientID(r.Header.Get(problem.HeaderRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		w.Header().Set(problem.HeaderRequestID, reqID)
		ctx := log.ContextWithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TraceHeaders copies the frontend's X-Trace-Id and X-Trace-Action into the
// request context so handler logs can be matched with client-side traces.
func TraceHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := sanitizeClientID(r.Header.Get(HeaderTraceID)); id != "" {
			ctx = log.ContextWithTraceID(ctx, id)
		}
		if action := sanitizeClientID(r.Header.Get(HeaderTraceAction)); action != "" {
			ctx = log.ContextWithTraceAction(ctx, action)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sanitizeClientID drops ids that are too long or carry control characters.
func sanitizeClientID(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > maxClientIDLen {
		return ""
	}
	for _, c := range v {
		if c < 0x20 || c == 0x7f {
			return ""
		}
	}
	return v
}

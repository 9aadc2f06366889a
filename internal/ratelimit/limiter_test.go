// SPDX-License-Identifier: MIT

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Burst(t *testing.T) {
	l := New(Config{PerClientRate: 1, PerClientBurst: 3, IdleTTL: time.Minute})
	base := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	allowed := 0
	for i := 0; i < 10; i++ {
		if l.Allow("10.0.0.1") {
			allowed++
		}
	}
	assert.Equal(t, 3, allowed)
	assert.True(t, l.Allow("10.0.0.2"), "clients have separate buckets")

	base = base.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"), "a token refills after one second")
}

func TestLimiter_DropsIdleClients(t *testing.T) {
	l := New(Config{PerClientRate: 1, PerClientBurst: 1, IdleTTL: time.Minute})
	base := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	l.lastCleanup = base
	l.now = func() time.Time { return base }

	l.Allow("a")
	l.Allow("b")
	require.Equal(t, 2, l.size())

	base = base.Add(2 * time.Minute)
	l.Allow("c")
	assert.Equal(t, 1, l.size())
}

func TestLimiter_Middleware(t *testing.T) {
	l := New(Config{PerClientRate: 0.5, PerClientBurst: 1, IdleTTL: time.Minute})
	h := l.Middleware(func(r *http.Request) string { return r.RemoteAddr })(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions/x/checkin", nil)
		req.RemoteAddr = "192.0.2.1"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, send().Code)
	rr := send()
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "2", rr.Header().Get("Retry-After"))
}

// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func storeOpSampleCount(t *testing.T, backend, op string) uint64 {
	t.Helper()
	h, ok := storeOpDuration.WithLabelValues(backend, op).(prometheus.Histogram)
	if !ok {
		t.Fatalf("observer is not a prometheus.Histogram")
	}
	metric := &dto.Metric{}
	if err := h.Write(metric); err != nil {
		t.Fatalf("write histogram metric: %v", err)
	}
	return metric.GetHistogram().GetSampleCount()
}

func TestPromhttpExposure(t *testing.T) {
	srv := httptest.NewServer(promhttp.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestRecordCheckinMerge(t *testing.T) {
	beforeUpdate := testutil.ToFloat64(checkinsMerged.WithLabelValues("update"))
	beforeDup := testutil.ToFloat64(checkinDuplicatesRemoved)

	RecordCheckinMerge("update", 2)
	RecordCheckinMerge("update", 0)

	if got := testutil.ToFloat64(checkinsMerged.WithLabelValues("update")) - beforeUpdate; got != 2 {
		t.Errorf("update merges = %v, want 2", got)
	}
	if got := testutil.ToFloat64(checkinDuplicatesRemoved) - beforeDup; got != 2 {
		t.Errorf("duplicates removed = %v, want 2", got)
	}
}

func TestObserveStoreOp(t *testing.T) {
	before := testutil.ToFloat64(storeErrors.WithLabelValues("file", "put"))
	beforeSamples := storeOpSampleCount(t, "file", "put")

	ObserveStoreOp("file", "put", 3*time.Millisecond, false)
	ObserveStoreOp("file", "put", 3*time.Millisecond, true)

	if got := testutil.ToFloat64(storeErrors.WithLabelValues("file", "put")) - before; got != 1 {
		t.Errorf("store errors = %v, want 1", got)
	}
	if got := storeOpSampleCount(t, "file", "put") - beforeSamples; got != 2 {
		t.Errorf("store duration samples = %d, want 2", got)
	}
}

func TestRecordTransitionAndReload(t *testing.T) {
	before := testutil.ToFloat64(sessionTransitions.WithLabelValues("COMPLETED"))
	RecordTransition("COMPLETED")
	if got := testutil.ToFloat64(sessionTransitions.WithLabelValues("COMPLETED")) - before; got != 1 {
		t.Errorf("transitions = %v, want 1", got)
	}

	beforeReload := testutil.ToFloat64(catalogReloads.WithLabelValues("invalid"))
	RecordCatalogReload("invalid")
	if got := testutil.ToFloat64(catalogReloads.WithLabelValues("invalid")) - beforeReload; got != 1 {
		t.Errorf("reloads = %v, want 1", got)
	}

	beforeCreated := testutil.ToFloat64(sessionsCreated)
	IncSessionCreated()
	if got := testutil.ToFloat64(sessionsCreated) - beforeCreated; got != 1 {
		t.Errorf("created = %v, want 1", got)
	}
}

// SPDX-License-Identifier: MIT
package telemetry

import (
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestSessionAttributes(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		phase   string
		wantLen int
	}{
		{"all fields", "anna_a1_20250101_1", "P1", 2},
		{"only id", "anna_a1_20250101_1", "", 1},
		{"empty", "", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := SessionAttributes(tt.id, tt.phase)
			if len(attrs) != tt.wantLen {
				t.Fatalf("Expected %d attributes, got %d", tt.wantLen, len(attrs))
			}
			if tt.id != "" {
				verifyAttribute(t, attrs, SessionIDKey, tt.id)
			}
			if tt.phase != "" {
				verifyAttribute(t, attrs, SessionPhaseKey, tt.phase)
			}
		})
	}
}

func TestHTTPAttributes(t *testing.T) {
	attrs := HTTPAttributes("GET", "/api/sessions/{id}", 200)
	if len(attrs) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(attrs))
	}
	verifyAttribute(t, attrs, HTTPRouteKey, "/api/sessions/{id}")
}

func TestErrorAttributes(t *testing.T) {
	attrs := ErrorAttributes("storage")
	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}
	verifyAttribute(t, attrs, ErrorTypeKey, "storage")
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ServiceName: "academy", ExporterType: "zipkin"})
	if err == nil {
		t.Fatal("expected error for unsupported exporter")
	}
}

func TestNewProvider_HTTPExporter(t *testing.T) {
	// The exporter connects lazily, so construction succeeds without a collector.
	p, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "academy",
		ExporterType: "http",
		Endpoint:     "127.0.0.1:4318",
		SamplingRate: 0.5,
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = p.Shutdown(ctx)
}

func TestResourceAttributes(t *testing.T) {
	attrs := resourceAttributes(Config{ServiceName: "academy", ServiceVersion: "v1", StoreBackend: "sqlite"})
	verifyAttribute(t, attrs, "service.name", "academy")
	verifyAttribute(t, attrs, "service.namespace", "academy")
	verifyAttribute(t, attrs, StoreBackendKey, "sqlite")
	for _, a := range attrs {
		if a.Key == "deployment.environment" {
			t.Errorf("empty environment must not be recorded")
		}
	}
}

func TestExporterEndpoint(t *testing.T) {
	tests := []struct {
		name         string
		cfg          Config
		wantProtocol string
		wantEndpoint string
		wantErr      bool
	}{
		{"grpc default", Config{ExporterType: "grpc"}, "grpc", "localhost:4317", false},
		{"http default", Config{ExporterType: "HTTP"}, "http", "localhost:4318", false},
		{"explicit endpoint", Config{ExporterType: " grpc ", Endpoint: "collector:4317"}, "grpc", "collector:4317", false},
		{"unknown", Config{ExporterType: "zipkin"}, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			protocol, endpoint, err := exporterEndpoint(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("exporterEndpoint() error = %v", err)
			}
			if protocol != tt.wantProtocol || endpoint != tt.wantEndpoint {
				t.Errorf("got (%s, %s), want (%s, %s)", protocol, endpoint, tt.wantProtocol, tt.wantEndpoint)
			}
		})
	}
}

func TestSamplerFor_FollowsParent(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0.0, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		desc := samplerFor(tt.rate).Description()
		if !strings.HasPrefix(desc, "ParentBased{root:"+tt.want) {
			t.Errorf("samplerFor(%v) = %s, want root %s", tt.rate, desc, tt.want)
		}
	}
}

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, want string) {
	t.Helper()
	for _, a := range attrs {
		if string(a.Key) == key {
			if got := a.Value.AsString(); got != want {
				t.Errorf("attribute %s = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %s not found", key)
}

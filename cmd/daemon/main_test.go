// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "/etc/academy.yaml", resolveConfigPath("/etc/academy.yaml", dir))
	assert.Equal(t, "", resolveConfigPath("", dir), "no config.yaml in data dir")
	assert.Equal(t, "", resolveConfigPath("", ""))

	auto := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(auto, []byte("logLevel: debug\n"), 0o600))
	assert.Equal(t, auto, resolveConfigPath("", dir))
}

func TestHealthcheck(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.URL.Path == "/healthz" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	addr := strings.TrimPrefix(srv.URL, "http://")

	var out, errOut bytes.Buffer
	assert.Equal(t, 0, healthcheck([]string{"-addr", addr}, &out, &errOut))
	assert.Equal(t, "/readyz", gotPath)
	assert.Contains(t, out.String(), "successful (ready)")

	errOut.Reset()
	assert.Equal(t, 1, healthcheck([]string{"-addr", addr, "-mode", "live"}, &out, &errOut))
	assert.Equal(t, "/healthz", gotPath)
	assert.Contains(t, errOut.String(), "503")

	assert.Equal(t, 2, healthcheck([]string{"-bogus"}, &out, &errOut))
}

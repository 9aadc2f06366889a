// SPDX-License-Identifier: MIT
package validate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name           string
		value          string
		allowedSchemes []string
		wantErr        bool
	}{
		{"valid http", "http://example.com", []string{"http", "https"}, false},
		{"valid https", "https://example.com", []string{"http", "https"}, false},
		{"empty url", "", []string{"http"}, true},
		{"no host", "http://", []string{"http"}, true},
		{"invalid scheme", "ftp://example.com", []string{"http", "https"}, true},
		{"no scheme", "example.com", []string{"http"}, true},
		{"any scheme", "grpc://collector:4317", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.URL("testURL", tt.value, tt.allowedSchemes)
			assert.Equal(t, tt.wantErr, !v.IsValid(), "err: %v", v.Err())
		})
	}
}

func TestValidator_ListenAddrAndHostPort(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		listen   bool
		hostPort bool
	}{
		{"all interfaces", ":8000", true, false},
		{"loopback", "127.0.0.1:8000", true, true},
		{"named host", "redis:6379", true, true},
		{"no port", "localhost", false, false},
		{"port zero", ":0", false, false},
		{"port too high", "host:70000", false, false},
		{"non numeric port", "host:http", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.ListenAddr("listen", tt.value)
			assert.Equal(t, tt.listen, v.IsValid(), "listen: %v", v.Err())

			v = New()
			v.HostPort("endpoint", tt.value)
			assert.Equal(t, tt.hostPort, v.IsValid(), "host:port: %v", v.Err())
		})
	}
}

func TestValidator_RangeAndOneOf(t *testing.T) {
	v := New()
	v.Range("confidence", 3, 1, 5)
	v.FloatRange("sampling", 0.5, 0, 1)
	v.OneOf("backend", "file", []string{"file", "sqlite"})
	v.Positive("rpm", 1)
	v.NonNegative("db", 0)
	v.NotEmpty("name", "x")
	require.True(t, v.IsValid())

	v.Range("confidence", 6, 1, 5)
	v.FloatRange("sampling", 1.5, 0, 1)
	v.OneOf("backend", "mongo", []string{"file", "sqlite"})
	v.Positive("rpm", 0)
	v.NonNegative("db", -1)
	v.NotEmpty("name", "  ")
	assert.Len(t, v.Errors(), 6)
}

func TestValidationError_Aggregates(t *testing.T) {
	v := New()
	assert.NoError(t, v.Err())

	v.AddError("a", "first", 1)
	err := v.Err()
	require.Error(t, err)
	assert.Equal(t, "validation failed for a: first", err.Error())

	v.AddError("b", "second", 2)
	err = v.Err()
	assert.True(t, strings.Contains(err.Error(), "; "))

	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors(), 2)
}

func TestValidator_Directory(t *testing.T) {
	dir := t.TempDir()

	v := New()
	v.Directory("data", dir, true)
	assert.True(t, v.IsValid())

	created := filepath.Join(dir, "sessions")
	v = New()
	v.Directory("data", created, false)
	assert.True(t, v.IsValid())
	assert.DirExists(t, created)

	v = New()
	v.Directory("data", filepath.Join(dir, "missing"), true)
	assert.False(t, v.IsValid())

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	v = New()
	v.Directory("data", file, true)
	assert.False(t, v.IsValid())

	v = New()
	v.Directory("data", "../escape", false)
	assert.False(t, v.IsValid())
}

func TestValidator_WritableDirectory(t *testing.T) {
	v := New()
	v.WritableDirectory("data", filepath.Join(t.TempDir(), "new"), false)
	assert.True(t, v.IsValid(), "%v", v.Err())

	v = New()
	v.WritableDirectory("data", "", false)
	assert.Len(t, v.Errors(), 1, "directory errors are not duplicated")
}

func TestLogLevel(t *testing.T) {
	assert.True(t, LogLevel("warn").IsValid())
	assert.False(t, LogLevel("trace").IsValid())
	assert.Contains(t, Levels(), "debug")
}

// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gowebpki/jcs"
)

// recordETag is the sha256 of the RFC 8785 canonical form of v.
func recordETag(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return `"` + hex.EncodeToString(sum[:]) + `"`, nil
}

// etagMatches implements the If-None-Match comparison, including "*" and lists.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

// writeRecord writes rec with its ETag. For GET requests a matching
// If-None-Match yields 304 without a body.
func writeRecord(w http.ResponseWriter, r *http.Request, status int, rec any) {
	etag, err := recordETag(rec)
	if err == nil {
		w.Header().Set("ETag", etag)
		if r.Method == http.MethodGet && etagMatches(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	writeJSON(w, status, rec)
}

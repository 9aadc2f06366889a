// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxBodyBytes = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

// camelAliases maps camelCase keys sent by newer clients onto the snake_case
// wire names. The snake_case key wins when both are present.
var camelAliases = map[string]string{
	"moduleId":      "module_id",
	"drillId":       "drill_id",
	"gameInfo":      "game_info",
	"observedTeam":  "observed_team",
	"sessionMethod": "session_method",
	"nextTask":      "next_task",
	"nextModule":    "next_module",
	"currentPhase":  "current_phase",
	"createdBy":     "created_by",
}

// readObject reads a size limited JSON object body.
func readObject(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, errBodyTooLarge
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, errors.New("request body must be a JSON object")
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return obj, nil
}

// normalizeKeys rewrites camelCase aliases in place.
func normalizeKeys(obj map[string]json.RawMessage) {
	for camel, snake := range camelAliases {
		v, ok := obj[camel]
		if !ok {
			continue
		}
		delete(obj, camel)
		if _, exists := obj[snake]; !exists {
			obj[snake] = v
		}
	}
}

// decodeBody decodes a JSON object body into dst after alias normalization.
// Unknown fields are ignored.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	obj, err := readObject(w, r)
	if err != nil {
		return err
	}
	normalizeKeys(obj)
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeDecodeError reports a body that could not be read.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeProblem(w, r, http.StatusRequestEntityTooLarge, "request/too_large", "Payload Too Large", "BODY_TOO_LARGE",
			fmt.Sprintf("request body exceeds %d bytes", maxBodyBytes))
		return
	}
	writeBadRequest(w, r, err.Error())
}

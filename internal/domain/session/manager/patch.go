// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package manager

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ManuGH/academy/internal/domain/session/model"
)

// applyPatch overwrites top-level keys of rec with updates. microfeedback is
// merged per phase and field. id is immutable and ignored.
func applyPatch(rec *model.SessionRecord, updates map[string]json.RawMessage) (*model.SessionRecord, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	for key, value := range updates {
		switch key {
		case "id":
			continue
		case "microfeedback":
			merged, err := mergeMicrofeedback(doc["microfeedback"], value)
			if err != nil {
				return nil, err
			}
			doc[key] = merged
		default:
			doc[key] = value
		}
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode patched record: %w", err)
	}
	var next model.SessionRecord
	if err := json.Unmarshal(out, &next); err != nil {
		return nil, model.InvalidArgumentf("patch does not fit the session schema: %v", err)
	}
	next.ID = rec.ID
	return &next, nil
}

func mergeMicrofeedback(existing, incoming json.RawMessage) (json.RawMessage, error) {
	var patch map[string]map[string]json.RawMessage
	if err := json.Unmarshal(incoming, &patch); err != nil {
		return nil, model.InvalidArgumentf("microfeedback must map phases to objects: %v", err)
	}

	current := map[string]map[string]json.RawMessage{}
	if len(existing) > 0 && !bytes.Equal(existing, []byte("null")) {
		if err := json.Unmarshal(existing, &current); err != nil {
			return nil, fmt.Errorf("decode stored microfeedback: %w", err)
		}
	}
	if len(current) == 0 {
		for _, p := range model.MicrofeedbackPhases {
			current[string(p)] = map[string]json.RawMessage{
				"done": json.RawMessage("false"),
				"text": json.RawMessage(`""`),
			}
		}
	}

	for phase, fields := range patch {
		entry, ok := current[phase]
		if !ok || entry == nil {
			current[phase] = fields
			continue
		}
		for k, v := range fields {
			entry[k] = v
		}
	}
	return json.Marshal(current)
}

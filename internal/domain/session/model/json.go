// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"encoding/json"
)

var recordKeys = keySet(
	"id", "user", "created_by", "module_id", "goal", "confidence", "focus",
	"session_method", "drill_id", "state", "current_phase", "created_at", "drills",
	"progress", "checkins", "drafts", "post", "abort", "game_info", "observed_team",
	"microfeedback",
)

var checkinKeys = keySet("phase", "answers", "feedback", "next_task", "timestamp")

func keySet(keys ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out
}

// MarshalJSON writes the known fields followed by preserved unknown keys.
func (r SessionRecord) MarshalJSON() ([]byte, error) {
	type plain SessionRecord
	return marshalWithExtra(plain(r), r.Extra)
}

// UnmarshalJSON reads a record and back-fills fields older files lack.
func (r *SessionRecord) UnmarshalJSON(data []byte) error {
	type plain SessionRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, recordKeys)
	if err != nil {
		return err
	}
	*r = SessionRecord(p)
	r.Extra = extra

	if r.CreatedBy == "" {
		r.CreatedBy = r.User
	}
	if r.Checkins == nil {
		r.Checkins = []Checkin{}
	}
	if r.Drills == nil {
		r.Drills = []json.RawMessage{}
	}
	if r.Drafts == nil {
		r.Drafts = map[string]any{}
	}
	if r.Progress.CompletedDrills == nil {
		r.Progress.CompletedDrills = []any{}
	}
	return nil
}

// MarshalJSON writes the checkin including preserved legacy keys.
func (c Checkin) MarshalJSON() ([]byte, error) {
	type plain Checkin
	return marshalWithExtra(plain(c), c.Extra)
}

// UnmarshalJSON reads a checkin and keeps legacy keys in Extra.
func (c *Checkin) UnmarshalJSON(data []byte) error {
	type plain Checkin
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, checkinKeys)
	if err != nil {
		return err
	}
	*c = Checkin(p)
	c.Extra = extra
	return nil
}

func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, exists := fields[k]; exists {
			continue
		}
		fields[k] = raw
	}
	return json.Marshal(fields)
}

func extraFields(data []byte, known map[string]struct{}) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	for k, v := range all {
		if _, ok := known[k]; ok {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra, nil
}

// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package model defines the persisted shape of a coaching session.
package model

import (
	"encoding/json"
	"fmt"
)

// SessionRecord is the single persisted document per session.
// Wire names follow the snake_case layout of the session files on disk.
type SessionRecord struct {
	ID            string                  `json:"id"`
	User          string                  `json:"user"`
	CreatedBy     string                  `json:"created_by"`
	ModuleID      string                  `json:"module_id"`
	Goal          string                  `json:"goal"`
	Confidence    int                     `json:"confidence"`
	Focus         *string                 `json:"focus"`
	SessionMethod *string                 `json:"session_method"`
	DrillID       *string                 `json:"drill_id"`
	State         SessionState            `json:"state"`
	CurrentPhase  Phase                   `json:"current_phase,omitempty"`
	CreatedAt     string                  `json:"created_at"`
	Drills        []json.RawMessage       `json:"drills"`
	Progress      Progress                `json:"progress"`
	Checkins      []Checkin               `json:"checkins"`
	Drafts        map[string]any          `json:"drafts"`
	Post          *PostSummary            `json:"post"`
	Abort         *AbortInfo              `json:"abort,omitempty"`
	GameInfo      map[string]any          `json:"game_info"`
	ObservedTeam  *string                 `json:"observed_team"`
	Microfeedback map[Phase]Microfeedback `json:"microfeedback,omitempty"`

	// Extra keeps top-level keys written by older clients so they survive a rewrite.
	Extra map[string]json.RawMessage `json:"-"`
}

// Progress tracks drill navigation inside a session.
type Progress struct {
	CurrentDrillIndex int   `json:"current_drill_index"`
	CompletedDrills   []any `json:"completed_drills"`
}

// Checkin is the answer set submitted for one phase.
type Checkin struct {
	Phase     string         `json:"phase"`
	Answers   map[string]any `json:"answers"`
	Feedback  *string        `json:"feedback,omitempty"`
	NextTask  *string        `json:"next_task,omitempty"`
	Timestamp string         `json:"timestamp"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Legacy free-text feedback keys that older clients stored on checkins.
var legacyCheckinFeedbackKeys = []string{"mini_feedback", "micro_feedback", "microfeedback_done"}

// StripFeedback removes POST-only fields and legacy free-text feedback keys.
func (c *Checkin) StripFeedback() {
	c.Feedback = nil
	c.NextTask = nil
	c.StripLegacyFeedback()
}

// StripLegacyFeedback removes the free-text feedback keys older clients wrote.
func (c *Checkin) StripLegacyFeedback() {
	for _, k := range legacyCheckinFeedbackKeys {
		delete(c.Extra, k)
	}
	if len(c.Extra) == 0 {
		c.Extra = nil
	}
}

// Microfeedback is the short free-text note attached to P1..P3.
type Microfeedback struct {
	Done bool   `json:"done"`
	Text string `json:"text"`
	Ts   string `json:"ts,omitempty"`
}

// PostSummary closes a session as COMPLETED.
type PostSummary struct {
	Summary     string  `json:"summary"`
	Unclear     *string `json:"unclear"`
	NextModule  *string `json:"next_module"`
	Helpfulness int     `json:"helpfulness"`
	CompletedAt string  `json:"completed_at"`
}

// AbortInfo closes a session as ABORTED.
type AbortInfo struct {
	Reason    AbortReason `json:"reason"`
	Note      *string     `json:"note"`
	AbortedAt string      `json:"aborted_at"`
}

// EmptyMicrofeedback returns the initial P1..P3 block of a new session.
func EmptyMicrofeedback() map[Phase]Microfeedback {
	out := make(map[Phase]Microfeedback, len(MicrofeedbackPhases))
	for _, p := range MicrofeedbackPhases {
		out[p] = Microfeedback{Done: false, Text: ""}
	}
	return out
}

// FindCheckin returns the index of the checkin for phase, or -1.
func (r *SessionRecord) FindCheckin(phase Phase) int {
	for i := range r.Checkins {
		if SamePhase(r.Checkins[i].Phase, string(phase)) {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the record.
func (r *SessionRecord) Clone() (*SessionRecord, error) {
	if r == nil {
		return nil, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("clone session %s: %w", r.ID, err)
	}
	var out SessionRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("clone session %s: %w", r.ID, err)
	}
	return &out, nil
}

// Ptr returns a pointer to s, or nil for the empty string.
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

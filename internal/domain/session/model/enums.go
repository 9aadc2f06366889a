// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import "strings"

// Phase identifies a step of a coaching session. It doubles as the key of a
// checkin entry and of a microfeedback block.
type Phase string

const (
	PhasePre  Phase = "PRE"
	PhaseP1   Phase = "P1"
	PhaseP2   Phase = "P2"
	PhaseP3   Phase = "P3"
	PhasePost Phase = "POST"
)

// SessionState is the coarse lifecycle status of a session record.
// It is independent of CurrentPhase, which tracks where the user resumes.
type SessionState string

const (
	StateInProgress SessionState = "IN_PROGRESS"
	StatePre        SessionState = "PRE"
	StateP1         SessionState = "P1"
	StateP2         SessionState = "P2"
	StateP3         SessionState = "P3"
	StatePost       SessionState = "POST"
	StateCompleted  SessionState = "COMPLETED"
	StateAborted    SessionState = "ABORTED"
)

// IsTerminal returns true if the state is a final state.
func (s SessionState) IsTerminal() bool {
	switch s {
	case StateCompleted, StateAborted:
		return true
	}
	return false
}

// AbortReason enumerates why a user gave up on a session.
type AbortReason string

const (
	AbortTime         AbortReason = "time"
	AbortWrongGame    AbortReason = "wrong_game"
	AbortNoMotivation AbortReason = "no_motivation"
	AbortBadSession   AbortReason = "bad_session"
	AbortOther        AbortReason = "other"
)

// AbortReasons lists the accepted abort reasons in display order.
var AbortReasons = []AbortReason{AbortTime, AbortWrongGame, AbortNoMotivation, AbortBadSession, AbortOther}

// Valid reports whether r is one of AbortReasons.
func (r AbortReason) Valid() bool {
	for _, known := range AbortReasons {
		if r == known {
			return true
		}
	}
	return false
}

// MicrofeedbackPhases are the phases that carry a microfeedback block.
var MicrofeedbackPhases = []Phase{PhaseP1, PhaseP2, PhaseP3}

// NormalizePhase trims and upper-cases a client supplied phase.
func NormalizePhase(raw string) Phase {
	return Phase(strings.ToUpper(strings.TrimSpace(raw)))
}

// PhaseKey is the comparison key used when grouping checkins by phase.
func PhaseKey(p string) string {
	return strings.ToUpper(strings.TrimSpace(p))
}

// SamePhase compares two stored phase values the way checkin dedup does.
func SamePhase(a, b string) bool {
	return PhaseKey(a) == PhaseKey(b)
}

// IsCheckinPhase reports whether p may carry a checkin.
func (p Phase) IsCheckinPhase() bool {
	switch p {
	case PhasePre, PhaseP1, PhaseP2, PhaseP3, PhasePost:
		return true
	}
	return false
}

// IsMicrofeedbackPhase reports whether p may carry a microfeedback block.
func (p Phase) IsMicrofeedbackPhase() bool {
	switch p {
	case PhaseP1, PhaseP2, PhaseP3:
		return true
	}
	return false
}

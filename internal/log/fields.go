// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID   = "session_id"
	FieldRequestID   = "request_id"
	FieldTraceID     = "trace_id"
	FieldTraceAction = "trace_action"
	FieldUser        = "user"
	FieldModuleID    = "module_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldBackend   = "backend"

	// Session fields
	FieldPhase    = "phase"
	FieldPhaseRaw = "phase_raw"
	FieldAction   = "action"
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path fields
	FieldPath = "path"
)

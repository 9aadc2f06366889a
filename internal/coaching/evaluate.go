// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package coaching

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ManuGH/academy/internal/domain/session/model"
	xglog "github.com/ManuGH/academy/internal/log"
)

// Result is the coaching outcome for one phase.
type Result struct {
	Phase    model.Phase `json:"phase"`
	Matched  bool        `json:"matched"`
	DrillID  string      `json:"drill_id,omitempty"`
	Feedback string      `json:"feedback,omitempty"`
	NextTask string      `json:"next_task,omitempty"`
}

type drillDoc struct {
	ID     string          `json:"id"`
	Config json.RawMessage `json:"config"`
}

// Evaluate runs the rules of the drill snapshot against answers and returns
// the first match. Drills with malformed rules are skipped.
func Evaluate(ctx context.Context, drills []json.RawMessage, phase model.Phase, answers map[string]any) Result {
	logger := xglog.WithComponentFromContext(ctx, "coaching")
	for _, raw := range drills {
		var d drillDoc
		if err := json.Unmarshal(raw, &d); err != nil {
			continue
		}
		rules, err := ParseRules(d.Config)
		if err != nil {
			logger.Warn().Err(err).Str("drill_id", d.ID).Msg("skipping drill with invalid coaching rules")
			continue
		}
		for _, r := range rules {
			if r.Condition.Match(answers) {
				return Result{Phase: phase, Matched: true, DrillID: d.ID, Feedback: r.Feedback, NextTask: r.NextTask}
			}
		}
	}
	return Result{Phase: phase}
}

// ForSession evaluates the checkin of rawPhase in rec. A session without a
// checkin for that phase yields model.ErrNotFound.
func ForSession(ctx context.Context, rec *model.SessionRecord, rawPhase string) (Result, error) {
	phase := model.NormalizePhase(rawPhase)
	if !phase.IsCheckinPhase() {
		return Result{}, fmt.Errorf("%w: %q", model.ErrInvalidPhase, rawPhase)
	}
	idx := rec.FindCheckin(phase)
	if idx < 0 {
		return Result{}, fmt.Errorf("%w: no %s checkin in session %s", model.ErrNotFound, phase, rec.ID)
	}
	return Evaluate(ctx, rec.Drills, phase, rec.Checkins[idx].Answers), nil
}

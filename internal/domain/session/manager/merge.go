// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package manager

import (
	"github.com/ManuGH/academy/internal/domain/session/model"
)

// Merge actions reported in logs and metrics.
const (
	ActionUpdate = "update"
	ActionAppend = "append"
)

// CheckinInput is one client checkin submission.
type CheckinInput struct {
	Phase    string
	Answers  map[string]any
	Feedback *string
	NextTask *string
}

// MergeResult describes what MergeCheckin did to the record.
type MergeResult struct {
	Action       string
	Phase        model.Phase
	Removed      int
	CountsBefore map[string]int
	CountsAfter  map[string]int
}

// DedupCheckins keeps one entry per phase group (trimmed, case-folded), choosing
// the latest timestamp. Ties keep the earlier entry. Groups
// stay in the order of their first appearance.
func DedupCheckins(in []model.Checkin) ([]model.Checkin, int) {
	out := make([]model.Checkin, 0, len(in))
	pos := make(map[string]int, len(in))
	for _, c := range in {
		key := model.PhaseKey(c.Phase)
		if i, seen := pos[key]; seen {
			if model.TimestampAfter(c.Timestamp, out[i].Timestamp) {
				out[i] = c
			}
			continue
		}
		pos[key] = len(out)
		out = append(out, c)
	}
	return out, len(in) - len(out)
}

// MergeCheckin applies in to rec. now is the write timestamp.
// The caller persists rec afterwards.
func MergeCheckin(rec *model.SessionRecord, in CheckinInput, now string) MergeResult {
	phase := model.NormalizePhase(in.Phase)
	res := MergeResult{Phase: phase, CountsBefore: phaseCounts(rec.Checkins)}

	rec.Checkins, res.Removed = DedupCheckins(rec.Checkins)

	answers := in.Answers
	if answers == nil {
		answers = map[string]any{}
	}
	isPost := phase == model.PhasePost

	if i := rec.FindCheckin(phase); i >= 0 {
		res.Action = ActionUpdate
		c := &rec.Checkins[i]
		c.Phase = string(phase)
		c.Answers = answers
		if isPost {
			if in.Feedback != nil {
				c.Feedback = in.Feedback
			}
			if in.NextTask != nil {
				c.NextTask = in.NextTask
			}
			c.StripLegacyFeedback()
		} else {
			c.StripFeedback()
		}
		c.Timestamp = now
	} else {
		res.Action = ActionAppend
		c := model.Checkin{Phase: string(phase), Answers: answers, Timestamp: now}
		if isPost {
			c.Feedback = in.Feedback
			c.NextTask = in.NextTask
		}
		rec.Checkins = append(rec.Checkins, c)
	}

	res.CountsAfter = phaseCounts(rec.Checkins)
	return res
}

func phaseCounts(checkins []model.Checkin) map[string]int {
	out := make(map[string]int, len(checkins))
	for _, c := range checkins {
		out[c.Phase]++
	}
	return out
}

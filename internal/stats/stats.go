// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package stats aggregates session counts for the dashboard.
package stats

import "github.com/ManuGH/academy/internal/domain/session/model"

// Summary counts sessions by lifecycle outcome.
type Summary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Aborted   int `json:"aborted"`
	Active    int `json:"active"`
}

// Aggregate counts recs. Active sessions are those neither completed nor aborted.
func Aggregate(recs []*model.SessionRecord) Summary {
	var s Summary
	for _, r := range recs {
		s.Total++
		switch r.State {
		case model.StateCompleted:
			s.Completed++
		case model.StateAborted:
			s.Aborted++
		default:
			s.Active++
		}
	}
	return s
}

// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import "sort"

// ListFilter narrows a listing. Empty fields match everything.
type ListFilter struct {
	User  string
	State SessionState
}

// Matches reports whether rec passes the filter.
func (f ListFilter) Matches(rec *SessionRecord) bool {
	if rec == nil {
		return false
	}
	if f.User != "" && rec.User != f.User {
		return false
	}
	if f.State != "" && rec.State != f.State {
		return false
	}
	return true
}

// SortNewestFirst orders records by created_at descending, then id ascending.
func SortNewestFirst(records []*SessionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt > records[j].CreatedAt
		}
		return records[i].ID < records[j].ID
	})
}

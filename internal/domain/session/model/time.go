// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import "time"

// TimestampLayout is fixed width so that string order equals time order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// legacyLayout matches zone-less timestamps written by older clients. Fractional
// seconds of any width are accepted on parse.
const legacyLayout = "2006-01-02T15:04:05"

// ParseTimestamp reads a stored timestamp. Values without a zone are legacy
// local-time writes and are read in the server's local zone.
func ParseTimestamp(s string) (time.Time, bool) {
	return ParseTimestampIn(s, time.Local)
}

// ParseTimestampIn is ParseTimestamp with an explicit zone for legacy values.
func ParseTimestampIn(s string, legacy *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(legacyLayout, s, legacy); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// TimestampAfter reports whether a is later than b. Parsable values compare as
// instants so legacy local times and UTC values order correctly; anything else
// falls back to string order.
func TimestampAfter(a, b string) bool {
	ta, okA := ParseTimestamp(a)
	tb, okB := ParseTimestamp(b)
	if okA && okB {
		return ta.After(tb)
	}
	return a > b
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

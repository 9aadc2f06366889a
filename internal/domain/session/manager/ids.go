// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package manager

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/ManuGH/academy/internal/domain/session/model"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 40

var slugReplacer = strings.NewReplacer("ß", "ss", "æ", "ae", "ø", "o", "đ", "d", "ł", "l")

// Slug lowercases s, strips diacritics and maps every other non-alphanumeric
// rune to a single dash. fallback is returned when nothing survives.
func Slug(s, fallback string) string {
	s = slugReplacer.Replace(strings.ToLower(s))
	var b strings.Builder
	dash := false
	for _, r := range norm.NFD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > maxSlugLen {
		out = strings.TrimRight(out[:maxSlugLen], "-")
	}
	if out == "" {
		return fallback
	}
	return out
}

// IDGenerator builds session ids of the form
// <user>_<drill or module>_<YYYYMMDD>_<unix millis>. The millisecond suffix is
// strictly increasing per process so two creates in the same instant differ.
type IDGenerator struct {
	mu    sync.Mutex
	last  int64
	clock model.Clock
}

func NewIDGenerator(clock model.Clock) *IDGenerator {
	if clock == nil {
		clock = model.SystemClock{}
	}
	return &IDGenerator{clock: clock}
}

// Next returns a fresh id for user and subject.
func (g *IDGenerator) Next(user, subject string) string {
	now := g.clock.Now().UTC()
	ms := now.UnixMilli()

	g.mu.Lock()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	return fmt.Sprintf("%s_%s_%s_%d", Slug(user, "anon"), Slug(subject, "session"), now.Format("20060102"), ms)
}

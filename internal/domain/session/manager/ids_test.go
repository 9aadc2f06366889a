// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package manager

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"anna", "anna"},
		{"Anna Schmidt", "anna-schmidt"},
		{"Weißwasser", "weisswasser"},
		{"Čeština", "cestina"},
		{"A1", "a1"},
		{"forecheck / 1-2-2", "forecheck-1-2-2"},
		{"--__--", "fallback"},
		{"", "fallback"},
		{"日本", "fallback"},
		{strings.Repeat("ab", 40), strings.Repeat("ab", 20)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in, "fallback"), "input %q", tt.in)
	}
}

func TestIDGenerator_MonotonicWithinSameInstant(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	g := NewIDGenerator(fixedClock{t: now})

	first := g.Next("anna", "A1")
	second := g.Next("anna", "A1")
	assert.Equal(t, "anna_a1_20250102_1735787045000", first)
	assert.Equal(t, "anna_a1_20250102_1735787045001", second)
}

func TestIDGenerator_ConcurrentUnique(t *testing.T) {
	g := NewIDGenerator(fixedClock{t: time.Unix(1_700_000_000, 0)})
	var (
		mu   sync.Mutex
		seen = map[string]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.Next("u", "m")
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[id], "duplicate %s", id)
			seen[id] = true
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 64)
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Equal(t, 2, k.size())

	done := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		unlock()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second holder acquired a held key")
	case <-time.After(20 * time.Millisecond):
	}

	unlockA()
	<-done
	unlockB()
	assert.Equal(t, 0, k.size())
}

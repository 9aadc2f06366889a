// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package curriculum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ManuGH/academy/internal/domain/session/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `{
  "version": 3,
  "tracks": [
    {"id": "T1", "title": "Basics", "modules": [
      {"id": "A1", "title": "Forecheck", "drills": [
        {"id": "d1", "type": "period_checkin", "config": {"coaching_rules": [{"condition": "pressure <= 2", "feedback": "f", "next_task": "n"}]}},
        {"id": "d2", "type": "live_watch"}
      ]},
      {"id": "EMPTY", "drills": []}
    ]},
    {"id": "T2", "modules": [
      {"id": "EMPTY", "drills": [{"id": "e1"}]}
    ]}
  ]
}`

func writeCatalog(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "curriculum.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestParse_ServesRawVerbatim(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)
	assert.JSONEq(t, sampleCatalog, string(c.Raw))
	require.Len(t, c.Tracks, 2)
}

func TestValidate_RejectsBadShapes(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not an object", `[]`},
		{"missing tracks", `{}`},
		{"track without id", `{"tracks":[{"modules":[]}]}`},
		{"numeric module id", `{"tracks":[{"id":"t","modules":[{"id":7}]}]}`},
		{"drill without id", `{"tracks":[{"id":"t","modules":[{"id":"m","drills":[{"type":"x"}]}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate([]byte(tt.doc)))
		})
	}
}

func TestFindDrills(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	all := c.FindDrills("A1", "")
	require.Len(t, all, 2)
	assert.Equal(t, "d1", DrillID(all[0]))

	one := c.FindDrills("A1", "d2")
	require.Len(t, one, 1)
	assert.Equal(t, "d2", DrillID(one[0]))

	assert.Nil(t, c.FindDrills("A1", "nope"))
	assert.Nil(t, c.FindDrills("ZZ", ""))

	// An empty module earlier in the catalog does not shadow a later match.
	later := c.FindDrills("EMPTY", "")
	require.Len(t, later, 1)
	assert.Equal(t, "e1", DrillID(later[0]))

	var nilCatalog *Catalog
	assert.Nil(t, nilCatalog.FindDrills("A1", ""))
}

func TestLookups(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	require.NotNil(t, c.Track("T1"))
	assert.Nil(t, c.Track("T9"))
	require.NotNil(t, c.Module("T1", "A1"))
	assert.Nil(t, c.Module("T2", "A1"))

	d := c.Drill("T1", "A1", "d1")
	require.NotNil(t, d)
	assert.Equal(t, "period_checkin", d.Type)
	assert.Contains(t, string(d.Config), "coaching_rules")
	assert.Nil(t, c.Drill("T1", "A1", "d9"))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, model.ErrCatalogNotFound)
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "teams.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"teams":[{"id":"EBB"}]}`), 0o600))

	doc, err := ReadDocument(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"teams":[{"id":"EBB"}]}`, string(doc))

	_, err = ReadDocument(filepath.Join(dir, "none.json"))
	assert.ErrorIs(t, err, model.ErrCatalogNotFound)

	require.NoError(t, os.WriteFile(p, []byte(`{broken`), 0o600))
	_, err = ReadDocument(p)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrCatalogNotFound)
}

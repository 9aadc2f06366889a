// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package curriculum loads the read-only track/module/drill catalog and the
// teams reference document.
package curriculum

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/ManuGH/academy/internal/domain/session/model"
	"github.com/kaptinlin/jsonschema"
)

//go:embed catalog.schema.json
var catalogSchema []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiledSchema, schemaErr = compiler.Compile(catalogSchema)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile catalog schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// Catalog is a parsed curriculum document. Raw keeps the document exactly as
// read so it can be served verbatim.
type Catalog struct {
	Raw    json.RawMessage
	Tracks []Track
}

type Track struct {
	ID      string   `json:"id"`
	Title   string   `json:"title,omitempty"`
	Modules []Module `json:"modules"`
}

type Module struct {
	ID     string            `json:"id"`
	Title  string            `json:"title,omitempty"`
	Drills []json.RawMessage `json:"drills"`
}

// Drill is the typed view of a drill definition. The raw definition is what
// gets snapshotted into sessions.
type Drill struct {
	ID     string          `json:"id"`
	Type   string          `json:"type,omitempty"`
	Title  string          `json:"title,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

// DrillID extracts the id of a raw drill definition.
func DrillID(raw json.RawMessage) string {
	var d struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return ""
	}
	return d.ID
}

// Parse validates data against the catalog schema and decodes it.
func Parse(data []byte) (*Catalog, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var doc struct {
		Tracks []Track `json:"tracks"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	raw := make(json.RawMessage, len(data))
	copy(raw, data)
	return &Catalog{Raw: raw, Tracks: doc.Tracks}, nil
}

// Validate checks data against the embedded catalog schema.
func Validate(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}
	result := s.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("catalog schema validation failed: %v", result.Errors)
}

// Load reads and parses the catalog at path. A missing file yields
// model.ErrCatalogNotFound.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrCatalogNotFound, path)
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// FindDrills returns the drills of the first module with id moduleID that
// yields any drills, narrowed to drillID when it is set. No match returns nil.
func (c *Catalog) FindDrills(moduleID, drillID string) []json.RawMessage {
	if c == nil {
		return nil
	}
	for _, t := range c.Tracks {
		for _, m := range t.Modules {
			if m.ID != moduleID {
				continue
			}
			var found []json.RawMessage
			if drillID == "" {
				found = append(found, m.Drills...)
			} else {
				for _, d := range m.Drills {
					if DrillID(d) == drillID {
						found = []json.RawMessage{d}
						break
					}
				}
			}
			if len(found) > 0 {
				return found
			}
			// Only the first module with this id within a track counts.
			break
		}
	}
	return nil
}

// Track returns the track with id, or nil.
func (c *Catalog) Track(id string) *Track {
	if c == nil {
		return nil
	}
	for i := range c.Tracks {
		if c.Tracks[i].ID == id {
			return &c.Tracks[i]
		}
	}
	return nil
}

// Module returns the module of a track, or nil.
func (c *Catalog) Module(trackID, moduleID string) *Module {
	t := c.Track(trackID)
	if t == nil {
		return nil
	}
	for i := range t.Modules {
		if t.Modules[i].ID == moduleID {
			return &t.Modules[i]
		}
	}
	return nil
}

// Drill returns the typed drill of a module, or nil.
func (c *Catalog) Drill(trackID, moduleID, drillID string) *Drill {
	m := c.Module(trackID, moduleID)
	if m == nil {
		return nil
	}
	for _, raw := range m.Drills {
		var d Drill
		if err := json.Unmarshal(raw, &d); err != nil {
			continue
		}
		if d.ID == drillID {
			return &d
		}
	}
	return nil
}

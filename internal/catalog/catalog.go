package catalog

import (
	"github.com/orcasql/orcasql/internal/record"
)

// Version is the catalog's monotonic commit counter. Every mutation batch
// must present the version it believes is current; a committed batch bumps
// the version by exactly one.
type Version uint64

// DefaultSchema is the schema unqualified table references resolve against
// first.
const DefaultSchema = "public"

// TableEntry describes one table in a schema.
type TableEntry struct {
	Name     string        `json:"name"`
	Columns  record.Schema `json:"columns"`
	External bool          `json:"external"`
	// Location is only set for external tables.
	Location string `json:"location,omitempty"`
	Format   string `json:"format,omitempty"`
}

// SchemaEntry describes one schema and its tables.
type SchemaEntry struct {
	Name   string                 `json:"name"`
	Tables map[string]*TableEntry `json:"tables"`
}

// CredentialEntry describes a stored credentials object.
type CredentialEntry struct {
	Name     string            `json:"name"`
	Provider string            `json:"provider"`
	Options  map[string]string `json:"options,omitempty"`
}

// State is one immutable-by-convention snapshot of the catalog. The mutator
// never edits a committed snapshot in place; it clones, applies, and swaps.
type State struct {
	Version     Version                     `json:"version"`
	Schemas     map[string]*SchemaEntry     `json:"schemas"`
	Credentials map[string]*CredentialEntry `json:"credentials"`
}

// NewState returns an empty catalog at version 0 containing only the default
// schema.
func NewState() *State {
	return &State{
		Schemas: map[string]*SchemaEntry{
			DefaultSchema: {Name: DefaultSchema, Tables: map[string]*TableEntry{}},
		},
		Credentials: map[string]*CredentialEntry{},
	}
}

// Clone deep-copies the state.
func (s *State) Clone() *State {
	next := &State{
		Version:     s.Version,
		Schemas:     make(map[string]*SchemaEntry, len(s.Schemas)),
		Credentials: make(map[string]*CredentialEntry, len(s.Credentials)),
	}
	for name, sc := range s.Schemas {
		tables := make(map[string]*TableEntry, len(sc.Tables))
		for tname, t := range sc.Tables {
			cp := *t
			tables[tname] = &cp
		}
		next.Schemas[name] = &SchemaEntry{Name: sc.Name, Tables: tables}
	}
	for name, c := range s.Credentials {
		cp := *c
		if c.Options != nil {
			cp.Options = make(map[string]string, len(c.Options))
			for k, v := range c.Options {
				cp.Options[k] = v
			}
		}
		next.Credentials[name] = &cp
	}
	return next
}

// Table looks up a table by schema and name.
func (s *State) Table(schema, name string) (*TableEntry, bool) {
	sc, ok := s.Schemas[schema]
	if !ok {
		return nil, false
	}
	t, ok := sc.Tables[name]
	return t, ok
}

package catalog

import (
	"fmt"

	"github.com/orcasql/orcasql/internal/record"
)

// Mutation is a pure description of one catalog change. Mutations carry no
// side effects; they only take effect when submitted to the Mutator as part
// of a batch.
type Mutation interface {
	mutation()
	// apply stages the change onto a cloned state. It must either fully
	// apply or return an error leaving next untouched beyond what it wrote
	// (the caller discards next on error).
	apply(next *State) error
}

type CreateSchema struct {
	Name        string `json:"name"`
	IfNotExists bool   `json:"if_not_exists"`
}

type CreateTable struct {
	Schema      string        `json:"schema"`
	Name        string        `json:"name"`
	Columns     record.Schema `json:"columns"`
	IfNotExists bool          `json:"if_not_exists"`
}

type CreateExternalTable struct {
	Schema      string        `json:"schema"`
	Name        string        `json:"name"`
	Columns     record.Schema `json:"columns"`
	Location    string        `json:"location"`
	Format      string        `json:"format"`
	IfNotExists bool          `json:"if_not_exists"`
}

type DropTables struct {
	Schema   string   `json:"schema"`
	Names    []string `json:"names"`
	IfExists bool     `json:"if_exists"`
}

type DropSchemas struct {
	Names    []string `json:"names"`
	IfExists bool     `json:"if_exists"`
	Cascade  bool     `json:"cascade"`
}

// AlterTableOperation describes what an AlterTable mutation does to the
// table. Only renames are supported for now.
type AlterTableOperation struct {
	RenameTo string `json:"rename_to,omitempty"`
}

type AlterTable struct {
	Schema    string              `json:"schema"`
	Name      string              `json:"name"`
	Operation AlterTableOperation `json:"operation"`
}

type CreateCredentials struct {
	Name     string            `json:"name"`
	Provider string            `json:"provider"`
	Options  map[string]string `json:"options,omitempty"`
}

type DropCredentials struct {
	Names    []string `json:"names"`
	IfExists bool     `json:"if_exists"`
}

func (CreateSchema) mutation()        {}
func (CreateTable) mutation()         {}
func (CreateExternalTable) mutation() {}
func (DropTables) mutation()          {}
func (DropSchemas) mutation()         {}
func (AlterTable) mutation()          {}
func (CreateCredentials) mutation()   {}
func (DropCredentials) mutation()     {}

func (m CreateSchema) apply(next *State) error {
	if _, ok := next.Schemas[m.Name]; ok {
		if m.IfNotExists {
			return nil
		}
		return fmt.Errorf("catalog: schema %q already exists", m.Name)
	}
	next.Schemas[m.Name] = &SchemaEntry{Name: m.Name, Tables: map[string]*TableEntry{}}
	return nil
}

func (m CreateTable) apply(next *State) error {
	sc, ok := next.Schemas[m.Schema]
	if !ok {
		return fmt.Errorf("catalog: schema %q does not exist", m.Schema)
	}
	if _, ok := sc.Tables[m.Name]; ok {
		if m.IfNotExists {
			return nil
		}
		return fmt.Errorf("catalog: table %q already exists in schema %q", m.Name, m.Schema)
	}
	sc.Tables[m.Name] = &TableEntry{Name: m.Name, Columns: m.Columns}
	return nil
}

func (m CreateExternalTable) apply(next *State) error {
	sc, ok := next.Schemas[m.Schema]
	if !ok {
		return fmt.Errorf("catalog: schema %q does not exist", m.Schema)
	}
	if _, ok := sc.Tables[m.Name]; ok {
		if m.IfNotExists {
			return nil
		}
		return fmt.Errorf("catalog: table %q already exists in schema %q", m.Name, m.Schema)
	}
	sc.Tables[m.Name] = &TableEntry{
		Name:     m.Name,
		Columns:  m.Columns,
		External: true,
		Location: m.Location,
		Format:   m.Format,
	}
	return nil
}

func (m DropTables) apply(next *State) error {
	sc, ok := next.Schemas[m.Schema]
	if !ok {
		return fmt.Errorf("catalog: schema %q does not exist", m.Schema)
	}
	for _, name := range m.Names {
		if _, ok := sc.Tables[name]; !ok {
			if m.IfExists {
				continue
			}
			return fmt.Errorf("catalog: table %q does not exist in schema %q", name, m.Schema)
		}
		delete(sc.Tables, name)
	}
	return nil
}

func (m DropSchemas) apply(next *State) error {
	for _, name := range m.Names {
		sc, ok := next.Schemas[name]
		if !ok {
			if m.IfExists {
				continue
			}
			return fmt.Errorf("catalog: schema %q does not exist", name)
		}
		if len(sc.Tables) > 0 && !m.Cascade {
			return fmt.Errorf("catalog: schema %q is not empty", name)
		}
		delete(next.Schemas, name)
	}
	return nil
}

func (m AlterTable) apply(next *State) error {
	sc, ok := next.Schemas[m.Schema]
	if !ok {
		return fmt.Errorf("catalog: schema %q does not exist", m.Schema)
	}
	t, ok := sc.Tables[m.Name]
	if !ok {
		return fmt.Errorf("catalog: table %q does not exist in schema %q", m.Name, m.Schema)
	}
	if m.Operation.RenameTo == "" {
		return fmt.Errorf("catalog: alter table %q: empty operation", m.Name)
	}
	if _, ok := sc.Tables[m.Operation.RenameTo]; ok {
		return fmt.Errorf("catalog: table %q already exists in schema %q", m.Operation.RenameTo, m.Schema)
	}
	delete(sc.Tables, m.Name)
	t.Name = m.Operation.RenameTo
	sc.Tables[t.Name] = t
	return nil
}

func (m CreateCredentials) apply(next *State) error {
	if _, ok := next.Credentials[m.Name]; ok {
		return fmt.Errorf("catalog: credentials %q already exist", m.Name)
	}
	next.Credentials[m.Name] = &CredentialEntry{Name: m.Name, Provider: m.Provider, Options: m.Options}
	return nil
}

func (m DropCredentials) apply(next *State) error {
	for _, name := range m.Names {
		if _, ok := next.Credentials[name]; !ok {
			if m.IfExists {
				continue
			}
			return fmt.Errorf("catalog: credentials %q do not exist", name)
		}
		delete(next.Credentials, name)
	}
	return nil
}

package logical

import (
	"fmt"
	"strings"

	"github.com/orcasql/orcasql/internal/catalog"
	"github.com/orcasql/orcasql/internal/record"
)

// Extension node name constants. These are the stable identifiers used for
// wire dispatch; renaming one is a wire format break.
const (
	ExtensionCreateTable         = "CreateTable"
	ExtensionCreateExternalTable = "CreateExternalTable"
	ExtensionCreateTableAs       = "CreateTableAs"
	ExtensionCreateSchema        = "CreateSchema"
	ExtensionDropTables          = "DropTables"
	ExtensionDropSchemas         = "DropSchemas"
	ExtensionAlterTable          = "AlterTable"
	ExtensionCreateCredentials   = "CreateCredentials"
	ExtensionDropCredentials     = "DropCredentials"
)

// ddlNode provides the shared leaf behavior of every DDL extension node:
// no inputs, no scalar expressions, and the shared generic operation schema.
type ddlNode struct{}

func (ddlNode) planNode()                   {}
func (ddlNode) Inputs() []Plan              { return nil }
func (ddlNode) OutputSchema() record.Schema { return ExtensionSchema }
func (ddlNode) Expressions() []string       { return nil }

type CreateTable struct {
	ddlNode
	Schema      string        `json:"schema"`
	Name        string        `json:"name"`
	Columns     record.Schema `json:"columns"`
	IfNotExists bool          `json:"if_not_exists"`
}

type CreateExternalTable struct {
	ddlNode
	Schema      string        `json:"schema"`
	Name        string        `json:"name"`
	Columns     record.Schema `json:"columns"`
	Location    string        `json:"location"`
	Format      string        `json:"format"`
	IfNotExists bool          `json:"if_not_exists"`
}

type CreateTableAs struct {
	ddlNode
	Schema string `json:"schema"`
	Name   string `json:"name"`
	Source *Query `json:"source"`
}

type CreateSchema struct {
	ddlNode
	Name        string `json:"name"`
	IfNotExists bool   `json:"if_not_exists"`
}

type DropTables struct {
	ddlNode
	Schema   string   `json:"schema"`
	Names    []string `json:"names"`
	IfExists bool     `json:"if_exists"`
}

type DropSchemas struct {
	ddlNode
	Names    []string `json:"names"`
	IfExists bool     `json:"if_exists"`
	Cascade  bool     `json:"cascade"`
}

type AlterTable struct {
	ddlNode
	Schema    string                      `json:"schema"`
	Name      string                      `json:"name"`
	Operation catalog.AlterTableOperation `json:"operation"`
}

type CreateCredentials struct {
	ddlNode
	Name     string            `json:"name"`
	Provider string            `json:"provider"`
	Options  map[string]string `json:"options,omitempty"`
}

type DropCredentials struct {
	ddlNode
	Names    []string `json:"names"`
	IfExists bool     `json:"if_exists"`
}

func (n *CreateTable) ExtensionName() string         { return ExtensionCreateTable }
func (n *CreateExternalTable) ExtensionName() string { return ExtensionCreateExternalTable }
func (n *CreateTableAs) ExtensionName() string       { return ExtensionCreateTableAs }
func (n *CreateSchema) ExtensionName() string        { return ExtensionCreateSchema }
func (n *DropTables) ExtensionName() string          { return ExtensionDropTables }
func (n *DropSchemas) ExtensionName() string         { return ExtensionDropSchemas }
func (n *AlterTable) ExtensionName() string          { return ExtensionAlterTable }
func (n *CreateCredentials) ExtensionName() string   { return ExtensionCreateCredentials }
func (n *DropCredentials) ExtensionName() string     { return ExtensionDropCredentials }

// String is the single line explain form of each node.

func (n *CreateTable) String() string {
	return fmt.Sprintf("CreateTable: %s.%s", n.Schema, n.Name)
}

func (n *CreateExternalTable) String() string {
	return fmt.Sprintf("CreateExternalTable: %s.%s location=%s", n.Schema, n.Name, n.Location)
}

func (n *CreateTableAs) String() string {
	return fmt.Sprintf("CreateTableAs: %s.%s", n.Schema, n.Name)
}

func (n *CreateSchema) String() string {
	return fmt.Sprintf("CreateSchema: %s", n.Name)
}

func (n *DropTables) String() string {
	return fmt.Sprintf("DropTables: %s.[%s]", n.Schema, strings.Join(n.Names, ", "))
}

func (n *DropSchemas) String() string {
	return fmt.Sprintf("DropSchemas: [%s]", strings.Join(n.Names, ", "))
}

func (n *AlterTable) String() string {
	return fmt.Sprintf("AlterTable: %s.%s rename to %s", n.Schema, n.Name, n.Operation.RenameTo)
}

func (n *CreateCredentials) String() string {
	return fmt.Sprintf("CreateCredentials: %s provider=%s", n.Name, n.Provider)
}

func (n *DropCredentials) String() string {
	return fmt.Sprintf("DropCredentials: [%s]", strings.Join(n.Names, ", "))
}

// FromTemplate rebuilds an equivalent node. DDL nodes take no inputs or
// expressions, so this is always a clone.

func (n *CreateTable) FromTemplate() ExtensionNode         { cp := *n; return &cp }
func (n *CreateExternalTable) FromTemplate() ExtensionNode { cp := *n; return &cp }
func (n *CreateSchema) FromTemplate() ExtensionNode        { cp := *n; return &cp }
func (n *DropTables) FromTemplate() ExtensionNode          { cp := *n; return &cp }
func (n *DropSchemas) FromTemplate() ExtensionNode         { cp := *n; return &cp }
func (n *AlterTable) FromTemplate() ExtensionNode          { cp := *n; return &cp }
func (n *CreateCredentials) FromTemplate() ExtensionNode   { cp := *n; return &cp }
func (n *DropCredentials) FromTemplate() ExtensionNode     { cp := *n; return &cp }

// CreateTableAs carries a query subtree, which needs a deep copy to keep
// the template and the clone independent.
func (n *CreateTableAs) FromTemplate() ExtensionNode {
	cp := *n
	cp.Source = n.Source.clone()
	return &cp
}

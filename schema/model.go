// Package schema defines the normalized, dialect-agnostic description of a
// PostgreSQL schema shared by the catalog introspector, the metadata compiler,
// the diff engine, and the DDL emitter.
package schema

// Schema describes a single Postgres schema namespace.
type Schema struct {
	Name   string  `json:"name"`
	Tables []Table `json:"tables"`
}

// Table describes one base table.
type Table struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	Indexes     []Index      `json:"indexes,omitempty"`
	Constraints []Constraint `json:"constraints,omitempty"`
}

// Column describes one table column.
type Column struct {
	TableName string `json:"tableName"`
	Name      string `json:"name"`

	// Type is the column's SQL type, or the element type when IsArray is true.
	Type string `json:"type"`

	// Values holds the ordered enum labels when Type == "enum".
	Values []string `json:"values,omitempty"`

	Nullable bool `json:"nullable"`
	IsArray  bool `json:"isArray,omitempty"`
	Primary  bool `json:"primary,omitempty"`

	// Default is the verbatim SQL default expression, or nil.
	Default *string `json:"default,omitempty"`

	NumericPrecision *int `json:"numericPrecision,omitempty"`
	NumericScale     *int `json:"numericScale,omitempty"`
}

// Index describes a standalone index (never one backing a PK/UNIQUE constraint).
type Index struct {
	Name      string `json:"name"`
	TableName string `json:"tableName"`
	Unique    bool   `json:"unique,omitempty"`

	// Exactly one of ColumnNames or Expression is set.
	ColumnNames []string `json:"columnNames,omitempty"`
	Expression  string   `json:"expression,omitempty"`

	Using string `json:"using,omitempty"`
	Where string `json:"where,omitempty"`
}

// ConstraintType tags the Constraint variant.
type ConstraintType string

const (
	ConstraintPrimaryKey ConstraintType = "PRIMARY_KEY"
	ConstraintForeignKey ConstraintType = "FOREIGN_KEY"
	ConstraintUnique     ConstraintType = "UNIQUE"
	ConstraintCheck      ConstraintType = "CHECK"
)

// ReferentialAction is a FOREIGN_KEY ON UPDATE / ON DELETE action.
type ReferentialAction string

const (
	ActionNoAction   ReferentialAction = "NO ACTION"
	ActionCascade    ReferentialAction = "CASCADE"
	ActionRestrict   ReferentialAction = "RESTRICT"
	ActionSetNull    ReferentialAction = "SET NULL"
	ActionSetDefault ReferentialAction = "SET DEFAULT"
)

// Constraint is the tagged union over PRIMARY_KEY, FOREIGN_KEY, UNIQUE, CHECK.
// Fields irrelevant to Type are left zero-valued.
type Constraint struct {
	Type      ConstraintType `json:"type"`
	Name      string         `json:"name"`
	TableName string         `json:"tableName"`

	// PRIMARY_KEY, FOREIGN_KEY, UNIQUE
	ColumnNames []string `json:"columnNames,omitempty"`

	// FOREIGN_KEY
	ReferenceTableName   string            `json:"referenceTableName,omitempty"`
	ReferenceColumnNames []string          `json:"referenceColumnNames,omitempty"`
	OnUpdate             ReferentialAction `json:"onUpdate,omitempty"`
	OnDelete             ReferentialAction `json:"onDelete,omitempty"`

	// CHECK — predicate text without the leading CHECK keyword.
	Expression string `json:"expression,omitempty"`
}

// Key returns the (type, name) pair constraints are keyed by within a schema.
func (c Constraint) Key() (ConstraintType, string) {
	return c.Type, c.Name
}

// TableByName returns the table with the given name, or false if absent.
func (s *Schema) TableByName(name string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

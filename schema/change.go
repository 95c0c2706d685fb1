package schema

// ChangeKind tags the nine Change variants the diff engine can produce.
type ChangeKind string

const (
	ChangeTableCreate      ChangeKind = "table.create"
	ChangeTableDelete      ChangeKind = "table.delete"
	ChangeColumnCreate     ChangeKind = "column.create"
	ChangeColumnUpdate     ChangeKind = "column.update"
	ChangeColumnDelete     ChangeKind = "column.delete"
	ChangeConstraintCreate ChangeKind = "constraint.create"
	ChangeConstraintDelete ChangeKind = "constraint.delete"
	ChangeIndexCreate      ChangeKind = "index.create"
	ChangeIndexDelete      ChangeKind = "index.delete"
)

// Change is one operation in the diff output, the unit of SQL emission.
// Only the fields relevant to Kind are populated.
type Change struct {
	Kind ChangeKind `json:"kind"`

	// table.create / table.delete
	TableName string   `json:"tableName,omitempty"`
	Columns   []Column `json:"columns,omitempty"`

	// column.create / column.delete
	ColumnName string  `json:"columnName,omitempty"`
	Column     *Column `json:"column,omitempty"`

	// column.update
	SourceColumn *Column `json:"sourceColumn,omitempty"`
	TargetColumn *Column `json:"targetColumn,omitempty"`

	// constraint.create / constraint.delete
	Constraint     *Constraint `json:"constraint,omitempty"`
	ConstraintName string      `json:"constraintName,omitempty"`

	// index.create / index.delete
	Index     *Index `json:"index,omitempty"`
	IndexName string `json:"indexName,omitempty"`
}

package schema

import "fmt"

// CatalogError wraps an I/O or query failure encountered during introspection.
type CatalogError struct {
	SchemaName string
	Cancelled  bool
	Err        error
}

func (e *CatalogError) Error() string {
	if e.Cancelled {
		return fmt.Sprintf("catalog: introspection of schema %q cancelled: %v", e.SchemaName, e.Err)
	}
	return fmt.Sprintf("catalog: failed to introspect schema %q: %v", e.SchemaName, e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// UnknownEnumError is raised when a column's udt_name has no matching pg_enum rows.
// It is always logged and recovered from by dropping the column, never fatal.
type UnknownEnumError struct {
	TableName, ColumnName, UDTName string
}

func (e *UnknownEnumError) Error() string {
	return fmt.Sprintf("unknown enum type %q for column %s.%s", e.UDTName, e.TableName, e.ColumnName)
}

// UnknownArrayElementError is raised when an ARRAY column's element type is missing.
type UnknownArrayElementError struct {
	TableName, ColumnName string
}

func (e *UnknownArrayElementError) Error() string {
	return fmt.Sprintf("unknown array element type for column %s.%s", e.TableName, e.ColumnName)
}

// UnparseableConstraintError is raised when a UNIQUE constraint's column list
// cannot be extracted from pg_get_constraintdef output.
type UnparseableConstraintError struct {
	TableName, ConstraintName, Definition string
}

func (e *UnparseableConstraintError) Error() string {
	return fmt.Sprintf("cannot parse columns from constraint %q on table %s: %q",
		e.ConstraintName, e.TableName, e.Definition)
}

// MetadataError is raised when a registered relation references a table that
// was never registered.
type MetadataError struct {
	TableName, FieldName, ReferencedType string
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("relation %s.%s references unregistered table for type %q",
		e.TableName, e.FieldName, e.ReferencedType)
}

// Package metadata compiles application-level table/column/index/relation
// declarations into a schema.Schema. Go has no decorator mechanism, so the
// host surface is a set of explicit Register* functions, called from an
// init() in the package that owns each entity type — the nearest idiomatic
// Go analogue to a class decorator evaluated at import time.
package metadata

import "github.com/lockplane/schemadiff/schema"

// TableOptions configures a registered table.
type TableOptions struct {
	// Name overrides the default snake_case conversion of the Go type name.
	Name string
}

// ColumnOptions configures a registered column.
type ColumnOptions struct {
	Name     string
	Type     string
	Enum     []string
	Primary  bool
	Unique   bool
	Nullable bool

	// Default is the column's default value. Leave nil for "no default".
	// Set to metadata.Null to declare an explicit null default, which per
	// §3 forces Nullable regardless of the Nullable field above.
	Default any
}

type nullDefault struct{}

// Null is the sentinel ColumnOptions.Default value representing an explicit
// null default (as opposed to no default at all): per §3, it forces the
// column nullable with no DEFAULT clause emitted.
var Null = nullDefault{}

// IndexOptions configures a table-level index registration.
type IndexOptions struct {
	Name       string
	Columns    []string
	Using      string
	Expression string
	Where      string
	Unique     bool
}

// ColumnIndexOptions configures a field-level single-column index.
type ColumnIndexOptions struct {
	Name   string
	Using  string
	Unique bool
}

// RelationOptions configures a many-to-one relation registration.
type RelationOptions struct {
	// Target is the Go type the relation points to; it must have been
	// registered with RegisterTable.
	Target   any
	OnUpdate schema.ReferentialAction
	OnDelete schema.ReferentialAction
}

type tableReg struct {
	goType any
	opts   TableOptions
}

type columnReg struct {
	goType any
	field  string
	opts   ColumnOptions
}

type indexReg struct {
	goType any
	opts   IndexOptions
}

type columnIndexReg struct {
	goType any
	field  string
	opts   ColumnIndexOptions
}

type relationReg struct {
	goType any
	field  string
	opts   RelationOptions
}

var (
	tableRegistry       []tableReg
	columnRegistry      []columnReg
	indexRegistry       []indexReg
	columnIndexRegistry []columnIndexReg
	relationRegistry    []relationReg
)

// RegisterTable declares goType as a table target. Call from an init() in
// the package that owns goType.
func RegisterTable(goType any, opts TableOptions) {
	tableRegistry = append(tableRegistry, tableReg{goType: goType, opts: opts})
}

// RegisterColumn declares a column on a previously (or later) registered
// table type.
func RegisterColumn(goType any, field string, opts ColumnOptions) {
	columnRegistry = append(columnRegistry, columnReg{goType: goType, field: field, opts: opts})
}

// RegisterIndex declares a table-level index.
func RegisterIndex(goType any, opts IndexOptions) {
	indexRegistry = append(indexRegistry, indexReg{goType: goType, opts: opts})
}

// RegisterColumnIndex declares a field-level single-column index.
func RegisterColumnIndex(goType any, field string, opts ColumnIndexOptions) {
	columnIndexRegistry = append(columnIndexRegistry, columnIndexReg{goType: goType, field: field, opts: opts})
}

// RegisterRelation declares a many-to-one relation from goType.field to
// opts.Target.
func RegisterRelation(goType any, field string, opts RelationOptions) {
	relationRegistry = append(relationRegistry, relationReg{goType: goType, field: field, opts: opts})
}

// resetRegistries clears all five registries and the compiled-schema cache.
// Used only by tests: production callers register once at import time and
// never need to reset.
func resetRegistries() {
	tableRegistry = nil
	columnRegistry = nil
	indexRegistry = nil
	columnIndexRegistry = nil
	relationRegistry = nil
	compiledOnce = newOnceCache()
}

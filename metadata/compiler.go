package metadata

import (
	"crypto/sha1"
	"encoding/hex"
	"log"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/lockplane/schemadiff/schema"
)

// Logger receives warnings for dropped relations, mirroring the catalog
// package's injectable *log.Logger. Defaults to the standard logger.
var Logger = log.Default()

type onceCache struct {
	once   sync.Once
	schema *schema.Schema
}

func newOnceCache() *onceCache { return &onceCache{} }

var compiledOnce = newOnceCache()

// GetDynamicSchema compiles the five registries into a schema.Schema.
// Idempotent: the first call compiles and caches the result under a
// sync.Once guard; subsequent calls return the cached, immutable value.
func GetDynamicSchema() *schema.Schema {
	compiledOnce.once.Do(func() {
		compiledOnce.schema = compile()
	})
	return compiledOnce.schema
}

type tableState struct {
	name        string
	columns     []schema.Column
	colSeen     map[string]bool
	constraints []schema.Constraint
}

func compile() *schema.Schema {
	tableNameByType := make(map[reflect.Type]string)
	stateByName := make(map[string]*tableState)
	var tableOrder []string

	// Pass 1: tables.
	for _, t := range tableRegistry {
		typ := reflect.TypeOf(t.goType)
		name := t.opts.Name
		if name == "" {
			name = toSnakeCase(typeBaseName(typ))
		}
		tableNameByType[typ] = name
		if _, ok := stateByName[name]; !ok {
			stateByName[name] = &tableState{name: name, colSeen: make(map[string]bool)}
			tableOrder = append(tableOrder, name)
		}
	}

	// Pass 2: columns.
	for _, c := range columnRegistry {
		typ := reflect.TypeOf(c.goType)
		tableName, ok := tableNameByType[typ]
		if !ok {
			continue
		}
		st := stateByName[tableName]

		colName := c.opts.Name
		if colName == "" {
			colName = c.field
		}
		if st.colSeen[colName] {
			continue
		}

		col := schema.Column{
			TableName: tableName,
			Name:      colName,
			Type:      "character varying",
			Primary:   c.opts.Primary,
		}
		if c.opts.Type != "" {
			col.Type = c.opts.Type
		}
		if len(c.opts.Enum) > 0 {
			col.Type = "enum"
			col.Values = c.opts.Enum
		}
		col.Nullable = c.opts.Nullable
		if _, isExplicitNull := c.opts.Default.(nullDefault); isExplicitNull {
			def, forcesNullable := schema.NormalizeDefault(nil)
			col.Default = def
			col.Nullable = forcesNullable
		} else if c.opts.Default != nil {
			def, _ := schema.NormalizeDefault(c.opts.Default)
			col.Default = def
		}

		st.columns = append(st.columns, col)
		st.colSeen[colName] = true

		if c.opts.Unique && !c.opts.Primary {
			cols := []string{colName}
			name := hashName("UQ_", tableName, cols)
			addConstraint(st, schema.Constraint{
				Type: schema.ConstraintUnique, Name: name, TableName: tableName, ColumnNames: cols,
			})
		}
	}

	// Pass 3: primary keys.
	for _, name := range tableOrder {
		st := stateByName[name]
		var pkCols []string
		for _, c := range st.columns {
			if c.Primary {
				pkCols = append(pkCols, c.Name)
			}
		}
		if len(pkCols) > 0 {
			pkName := hashName("PK_", name, pkCols)
			addConstraint(st, schema.Constraint{
				Type: schema.ConstraintPrimaryKey, Name: pkName, TableName: name, ColumnNames: pkCols,
			})
		}
	}

	// Pass 4: indexes.
	var indexesByTable = make(map[string][]schema.Index)
	for _, idx := range indexRegistry {
		typ := reflect.TypeOf(idx.goType)
		tableName, ok := tableNameByType[typ]
		if !ok {
			continue
		}
		indexesByTable[tableName] = append(indexesByTable[tableName], schema.Index{
			Name:        idx.opts.Name,
			TableName:   tableName,
			ColumnNames: idx.opts.Columns,
			Using:       idx.opts.Using,
			Expression:  idx.opts.Expression,
			Where:       idx.opts.Where,
			Unique:      idx.opts.Unique,
		})
	}
	for _, ci := range columnIndexRegistry {
		typ := reflect.TypeOf(ci.goType)
		tableName, ok := tableNameByType[typ]
		if !ok {
			continue
		}
		colName := ci.field
		name := ci.opts.Name
		if name == "" {
			name = hashName("IDX_", tableName, []string{colName})
		}
		indexesByTable[tableName] = append(indexesByTable[tableName], schema.Index{
			Name:        name,
			TableName:   tableName,
			ColumnNames: []string{colName},
			Using:       ci.opts.Using,
			Unique:      ci.opts.Unique,
		})
	}

	// Pass 5: relations.
	for _, rel := range relationRegistry {
		typ := reflect.TypeOf(rel.goType)
		childTable, ok := tableNameByType[typ]
		if !ok {
			continue
		}
		targetType := reflect.TypeOf(rel.opts.Target)
		refTable, ok := tableNameByType[targetType]
		if !ok {
			err := &schema.MetadataError{TableName: childTable, FieldName: rel.field, ReferencedType: targetType.String()}
			Logger.Printf("warning: %v", err)
			continue
		}
		st := stateByName[childTable]

		colName := rel.field + "Id"
		if !st.colSeen[colName] {
			st.columns = append(st.columns, schema.Column{
				TableName: childTable, Name: colName, Type: "uuid",
			})
			st.colSeen[colName] = true
		}

		refCols := primaryKeyColumns(stateByName[refTable])
		fkName := hashName("FK_", childTable, []string{colName})
		addConstraint(st, schema.Constraint{
			Type: schema.ConstraintForeignKey, Name: fkName, TableName: childTable,
			ColumnNames: []string{colName}, ReferenceTableName: refTable, ReferenceColumnNames: refCols,
			OnUpdate: rel.opts.OnUpdate, OnDelete: rel.opts.OnDelete,
		})
	}

	out := &schema.Schema{Name: "public"}
	for _, name := range tableOrder {
		st := stateByName[name]
		out.Tables = append(out.Tables, schema.Table{
			Name:        st.name,
			Columns:     st.columns,
			Indexes:     indexesByTable[st.name],
			Constraints: st.constraints,
		})
	}
	return out
}

func primaryKeyColumns(st *tableState) []string {
	var cols []string
	for _, c := range st.columns {
		if c.Primary {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

func addConstraint(st *tableState, c schema.Constraint) {
	st.constraints = append(st.constraints, c)
}

// hashName reproduces the TypeORM naming convention byte-for-byte:
// sha1(tableName + "_" + sortedColumns.join("_")), first 27 hex chars,
// prefixed, for a deterministic 30-character identifier.
func hashName(prefix, tableName string, columnNames []string) string {
	sorted := append([]string(nil), columnNames...)
	sort.Strings(sorted)
	payload := tableName + "_" + strings.Join(sorted, "_")
	sum := sha1.Sum([]byte(payload))
	return prefix + hex.EncodeToString(sum[:])[:27]
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// toSnakeCase converts a Go type name (e.g. "UserProfile") to snake_case
// ("user_profile"), the same default the metadata compiler applies when a
// table's name isn't explicitly overridden.
func toSnakeCase(name string) string {
	name = nonAlphanumeric.ReplaceAllString(name, "_")
	var sb strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r - 'A' + 'a')
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func typeBaseName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

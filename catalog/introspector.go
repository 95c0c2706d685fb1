// Package catalog introspects a live PostgreSQL schema namespace into a
// schema.Schema value.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lockplane/schemadiff/schema"
)

// Introspector reads a Postgres schema namespace via pg_catalog and
// information_schema queries.
type Introspector struct {
	DB     *sql.DB
	Logger *log.Logger
}

// NewIntrospector creates an Introspector bound to db, logging drop/skip
// warnings to the standard logger unless overridden.
func NewIntrospector(db *sql.DB) *Introspector {
	return &Introspector{DB: db, Logger: log.Default()}
}

type tableRow struct {
	name string
}

type columnRow struct {
	tableName        string
	name             string
	dataType         string
	isNullable       string
	columnDefault    sql.NullString
	numericPrecision sql.NullInt64
	numericScale     sql.NullInt64
	udtName          string
	elementType      sql.NullString
}

type enumRow struct {
	typeName string
	label    string
}

type indexRow struct {
	name       string
	tableName  string
	unique     bool
	columnName sql.NullString
	expression sql.NullString
	where      sql.NullString
	using      string
}

type constraintRow struct {
	name           string
	tableName      string
	contype        string
	columnName     sql.NullString
	refTableName   sql.NullString
	refColumnName  sql.NullString
	confUpdType    sql.NullString
	confDelType    sql.NullString
	constraintDef  sql.NullString
}

// LoadSchema returns the Schema describing schemaName (default "public").
// The five catalog queries (T, C, E, I, K) run concurrently on an
// errgroup.Group bound to ctx; the first query error cancels the rest and
// partial results are discarded.
func (ins *Introspector) LoadSchema(ctx context.Context, schemaName string) (*schema.Schema, error) {
	if schemaName == "" {
		schemaName = "public"
	}

	group, gctx := errgroup.WithContext(ctx)

	var (
		tables      []tableRow
		columns     []columnRow
		enums       map[string][]string
		indexes     []indexRow
		constraints []constraintRow
	)

	group.Go(func() error {
		var err error
		tables, err = ins.queryTables(gctx, schemaName)
		return err
	})
	group.Go(func() error {
		var err error
		columns, err = ins.queryColumns(gctx, schemaName)
		return err
	})
	group.Go(func() error {
		var err error
		enums, err = ins.queryEnums(gctx, schemaName)
		return err
	})
	group.Go(func() error {
		var err error
		indexes, err = ins.queryIndexes(gctx, schemaName)
		return err
	})
	group.Go(func() error {
		var err error
		constraints, err = ins.queryConstraints(gctx, schemaName)
		return err
	})

	if err := group.Wait(); err != nil {
		cancelled := ctx.Err() != nil
		return nil, &schema.CatalogError{SchemaName: schemaName, Cancelled: cancelled, Err: err}
	}

	return ins.merge(schemaName, tables, columns, enums, indexes, constraints), nil
}

func (ins *Introspector) queryTables(ctx context.Context, schemaName string) ([]tableRow, error) {
	rows, err := ins.DB.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []tableRow
	for rows.Next() {
		var t tableRow
		if err := rows.Scan(&t.name); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (ins *Introspector) queryColumns(ctx context.Context, schemaName string) ([]columnRow, error) {
	rows, err := ins.DB.QueryContext(ctx, `
		SELECT
			c.table_name,
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			c.numeric_precision,
			c.numeric_scale,
			c.udt_name,
			et.data_type AS element_type
		FROM information_schema.columns c
		LEFT JOIN information_schema.element_types et
			ON et.object_catalog = c.table_catalog
			AND et.object_schema = c.table_schema
			AND et.object_name = c.table_name
			AND et.object_type = 'TABLE'
			AND et.collection_type_identifier = c.dtd_identifier
		WHERE c.table_schema = $1
		ORDER BY c.table_name, c.ordinal_position
	`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []columnRow
	for rows.Next() {
		var c columnRow
		if err := rows.Scan(&c.tableName, &c.name, &c.dataType, &c.isNullable,
			&c.columnDefault, &c.numericPrecision, &c.numericScale, &c.udtName, &c.elementType); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (ins *Introspector) queryEnums(ctx context.Context, schemaName string) (map[string][]string, error) {
	rows, err := ins.DB.QueryContext(ctx, `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_namespace n ON n.oid = t.typnamespace
		JOIN pg_enum e ON e.enumtypid = t.oid
		WHERE t.typtype = 'e' AND n.nspname = $1
		ORDER BY t.typname, e.enumsortorder
	`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query enums: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]string)
	for rows.Next() {
		var r enumRow
		if err := rows.Scan(&r.typeName, &r.label); err != nil {
			return nil, fmt.Errorf("scan enum row: %w", err)
		}
		out[r.typeName] = append(out[r.typeName], r.label)
	}
	return out, rows.Err()
}

// queryIndexes returns indexes that do not back a PRIMARY KEY or UNIQUE
// constraint (those are anti-joined out; the constraint itself represents
// them).
func (ins *Introspector) queryIndexes(ctx context.Context, schemaName string) ([]indexRow, error) {
	rows, err := ins.DB.QueryContext(ctx, `
		SELECT
			ic.relname AS index_name,
			tc.relname AS table_name,
			ix.indisunique,
			am.amname AS using,
			pg_get_expr(ix.indexprs, ix.indrelid) AS expression,
			pg_get_expr(ix.indpred, ix.indrelid) AS where_clause,
			a.attname AS column_name
		FROM pg_index ix
		JOIN pg_class ic ON ic.oid = ix.indexrelid
		JOIN pg_class tc ON tc.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = tc.relnamespace
		JOIN pg_am am ON am.oid = ic.relam
		LEFT JOIN pg_attribute a ON a.attrelid = tc.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = $1
			AND NOT EXISTS (
				SELECT 1 FROM pg_constraint con
				WHERE con.conindid = ix.indexrelid AND con.contype IN ('p', 'u')
			)
		ORDER BY ic.relname
	`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query indexes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []indexRow
	for rows.Next() {
		var r indexRow
		if err := rows.Scan(&r.name, &r.tableName, &r.unique, &r.using, &r.expression, &r.where, &r.columnName); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (ins *Introspector) queryConstraints(ctx context.Context, schemaName string) ([]constraintRow, error) {
	rows, err := ins.DB.QueryContext(ctx, `
		SELECT
			con.conname,
			src.relname AS table_name,
			con.contype,
			a.attname AS column_name,
			ref.relname AS ref_table_name,
			ra.attname AS ref_column_name,
			con.confupdtype,
			con.confdeltype,
			pg_get_constraintdef(con.oid) AS definition
		FROM pg_constraint con
		JOIN pg_namespace n ON n.oid = con.connamespace
		JOIN pg_class src ON src.oid = con.conrelid AND src.relkind IN ('r', 'p', 'f')
		LEFT JOIN pg_class ref ON ref.oid = con.confrelid
		LEFT JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = ANY(con.conkey)
		LEFT JOIN pg_attribute ra ON ra.attrelid = con.confrelid AND ra.attnum = ANY(con.confkey)
		WHERE n.nspname = $1
		ORDER BY con.conname
	`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query constraints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []constraintRow
	for rows.Next() {
		var r constraintRow
		if err := rows.Scan(&r.name, &r.tableName, &r.contype, &r.columnName,
			&r.refTableName, &r.refColumnName, &r.confUpdType, &r.confDelType, &r.constraintDef); err != nil {
			return nil, fmt.Errorf("scan constraint row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// merge folds the five independent result sets into a schema.Schema,
// single-threaded, applying the §4.1 normalization rules.
func (ins *Introspector) merge(schemaName string, tables []tableRow, columns []columnRow,
	enums map[string][]string, indexes []indexRow, constraints []constraintRow) *schema.Schema {

	out := &schema.Schema{Name: schemaName}
	tableOrder := make([]string, 0, len(tables))
	tableByName := make(map[string]*schema.Table)

	for _, t := range tables {
		tbl := &schema.Table{Name: t.name}
		tableByName[t.name] = tbl
		tableOrder = append(tableOrder, t.name)
	}

	for _, c := range columns {
		tbl, ok := tableByName[c.tableName]
		if !ok {
			continue
		}
		col, ok := ins.normalizeColumn(c, enums)
		if !ok {
			continue
		}
		tbl.Columns = append(tbl.Columns, *col)
	}

	ins.mergeIndexes(tableByName, indexes)
	ins.mergeConstraints(tableByName, constraints)

	for _, name := range tableOrder {
		out.Tables = append(out.Tables, *tableByName[name])
	}
	return out
}

func (ins *Introspector) normalizeColumn(c columnRow, enums map[string][]string) (*schema.Column, bool) {
	col := &schema.Column{
		TableName:        c.tableName,
		Name:             c.name,
		Type:             c.dataType,
		Nullable:         c.isNullable == "YES",
		NumericPrecision: nullIntPtr(c.numericPrecision),
		NumericScale:     nullIntPtr(c.numericScale),
	}

	switch c.dataType {
	case "ARRAY":
		if !c.elementType.Valid || c.elementType.String == "" {
			ins.Logger.Printf("warning: dropping column: %v",
				&schema.UnknownArrayElementError{TableName: c.tableName, ColumnName: c.name})
			return nil, false
		}
		col.Type = c.elementType.String
		col.IsArray = true
	case "USER-DEFINED":
		values, ok := enums[c.udtName]
		if !ok {
			ins.Logger.Printf("warning: dropping column: %v",
				&schema.UnknownEnumError{TableName: c.tableName, ColumnName: c.name, UDTName: c.udtName})
			return nil, false
		}
		col.Type = "enum"
		col.Values = values
	}

	if c.columnDefault.Valid {
		normalized := strings.TrimSpace(c.columnDefault.String)
		col.Default = &normalized
	}

	return col, true
}

func nullIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func (ins *Introspector) mergeIndexes(tables map[string]*schema.Table, rows []indexRow) {
	byName := make(map[string]*schema.Index)
	order := make([]string, 0)

	for _, r := range rows {
		idx, ok := byName[r.name]
		if !ok {
			idx = &schema.Index{
				Name:      r.name,
				TableName: r.tableName,
				Unique:    r.unique,
				Using:     r.using,
			}
			if r.expression.Valid && r.expression.String != "" {
				idx.Expression = r.expression.String
			}
			if r.where.Valid {
				idx.Where = r.where.String
			}
			byName[r.name] = idx
			order = append(order, r.name)
		}
		if r.columnName.Valid {
			idx.ColumnNames = append(idx.ColumnNames, r.columnName.String)
		}
	}

	for _, name := range order {
		idx := byName[name]
		tbl, ok := tables[idx.TableName]
		if !ok {
			continue
		}
		tbl.Indexes = append(tbl.Indexes, *idx)
	}
}

var constraintColumnListPattern = regexp.MustCompile(`\(([^)]*)\)`)

func (ins *Introspector) mergeConstraints(tables map[string]*schema.Table, rows []constraintRow) {
	type accum struct {
		c       schema.Constraint
		columns []string
		refCols []string
	}
	byName := make(map[string]*accum)
	order := make([]string, 0)

	for _, r := range rows {
		a, ok := byName[r.name]
		if !ok {
			a = &accum{c: schema.Constraint{Name: r.name, TableName: r.tableName}}
			byName[r.name] = a
			order = append(order, r.name)
		}
		if r.columnName.Valid && !containsString(a.columns, r.columnName.String) {
			a.columns = append(a.columns, r.columnName.String)
		}
		if r.refColumnName.Valid && !containsString(a.refCols, r.refColumnName.String) {
			a.refCols = append(a.refCols, r.refColumnName.String)
		}
		switch r.contype {
		case "f":
			if r.refTableName.Valid {
				a.c.ReferenceTableName = r.refTableName.String
			}
			a.c.OnUpdate = mapAction(r.confUpdType)
			a.c.OnDelete = mapAction(r.confDelType)
		case "c":
			if r.constraintDef.Valid {
				a.c.Expression = strings.TrimPrefix(r.constraintDef.String, "CHECK ")
			}
		case "u":
			if r.constraintDef.Valid && len(a.columns) == 0 {
				cols, ok := parseUniqueColumns(r.constraintDef.String)
				if !ok {
					ins.Logger.Printf("warning: dropping constraint: %v", &schema.UnparseableConstraintError{
						TableName: r.tableName, ConstraintName: r.name, Definition: r.constraintDef.String})
					continue
				}
				a.columns = cols
			}
		}
		a.c.ColumnNames = a.columns

		switch r.contype {
		case "p":
			a.c.Type = schema.ConstraintPrimaryKey
		case "f":
			a.c.Type = schema.ConstraintForeignKey
		case "u":
			a.c.Type = schema.ConstraintUnique
		case "c":
			a.c.Type = schema.ConstraintCheck
		}
	}

	for _, name := range order {
		a := byName[name]
		a.c.ColumnNames = a.columns
		a.c.ReferenceColumnNames = a.refCols

		switch a.c.Type {
		case schema.ConstraintPrimaryKey:
			if len(a.c.ColumnNames) == 0 {
				ins.Logger.Printf("warning: dropping primary key %s on %s: no columns", a.c.Name, a.c.TableName)
				continue
			}
		case schema.ConstraintForeignKey:
			if len(a.c.ColumnNames) == 0 || a.c.ReferenceTableName == "" || len(a.c.ReferenceColumnNames) == 0 {
				ins.Logger.Printf("warning: dropping foreign key %s on %s: missing columns or reference", a.c.Name, a.c.TableName)
				continue
			}
		case "":
			continue
		}

		tbl, ok := tables[a.c.TableName]
		if !ok {
			continue
		}
		tbl.Constraints = append(tbl.Constraints, a.c)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// mapAction translates confupdtype/confdeltype codes per §4.1.
func mapAction(code sql.NullString) schema.ReferentialAction {
	if !code.Valid {
		return schema.ActionNoAction
	}
	switch code.String {
	case "a":
		return schema.ActionNoAction
	case "c":
		return schema.ActionCascade
	case "r":
		return schema.ActionRestrict
	case "n":
		return schema.ActionSetNull
	case "d":
		return schema.ActionSetDefault
	default:
		return schema.ActionNoAction
	}
}

// parseUniqueColumns extracts the parenthesized column list from a
// pg_get_constraintdef UNIQUE definition, e.g. `UNIQUE ("a", "b")`.
func parseUniqueColumns(def string) ([]string, bool) {
	m := constraintColumnListPattern.FindStringSubmatch(def)
	if m == nil {
		return nil, false
	}
	parts := strings.Split(m[1], ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		c := strings.Trim(strings.TrimSpace(p), `"`)
		if c == "" {
			return nil, false
		}
		cols = append(cols, c)
	}
	return cols, true
}

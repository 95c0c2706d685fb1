// Package emitter converts a schema.Change list into executable PostgreSQL
// DDL statements.
package emitter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lockplane/schemadiff/schema"
)

// ToSQL flat-maps each change into zero or more SQL statements, preserving
// the change-list order exactly.
func ToSQL(changes []schema.Change) []string {
	var stmts []string
	for _, c := range changes {
		stmts = append(stmts, changeToSQL(c)...)
	}
	return stmts
}

func changeToSQL(c schema.Change) []string {
	switch c.Kind {
	case schema.ChangeTableCreate:
		return []string{createTable(c.TableName, c.Columns)}
	case schema.ChangeTableDelete:
		return []string{fmt.Sprintf("DROP TABLE %s;", schema.QuoteIdent(c.TableName))}
	case schema.ChangeColumnCreate:
		return []string{addColumn(*c.Column)}
	case schema.ChangeColumnUpdate:
		if stmt, ok := updateColumn(*c.SourceColumn, *c.TargetColumn); ok {
			return []string{stmt}
		}
		return nil
	case schema.ChangeColumnDelete:
		return []string{fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;",
			schema.QuoteIdent(c.TableName), schema.QuoteIdent(c.ColumnName))}
	case schema.ChangeConstraintCreate:
		return []string{createConstraint(*c.Constraint)}
	case schema.ChangeConstraintDelete:
		return []string{fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;",
			schema.QuoteIdent(c.TableName), schema.QuoteIdent(c.ConstraintName))}
	case schema.ChangeIndexCreate:
		return []string{createIndex(*c.Index)}
	case schema.ChangeIndexDelete:
		return []string{fmt.Sprintf("DROP INDEX %s;", schema.QuoteIdent(c.IndexName))}
	default:
		return nil
	}
}

func createTable(tableName string, cols []schema.Column) string {
	defs := make([]string, len(cols))
	for i, col := range cols {
		defs[i] = columnDefinition(col)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s);", schema.QuoteIdent(tableName), strings.Join(defs, ", "))
}

func addColumn(col schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s;", schema.QuoteIdent(col.TableName), columnDefinition(col))
}

func columnDefinition(col schema.Column) string {
	var sb strings.Builder
	sb.WriteString(schema.QuoteIdent(col.Name))
	sb.WriteString(" ")
	sb.WriteString(col.Type)
	if !col.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if col.Default != nil {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(*col.Default)
	}
	return sb.String()
}

// updateColumn emits SQL only for nullability transitions; see spec.md §9
// open question 1 — type/default/primary/array-only changes in a
// column.update produce no SQL in this release.
func updateColumn(source, target schema.Column) (string, bool) {
	if source.Nullable == target.Nullable {
		return "", false
	}
	tbl, col := schema.QuoteIdent(target.TableName), schema.QuoteIdent(target.Name)
	if target.Nullable && !source.Nullable {
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;", tbl, col), true
	}
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL;", tbl, col), true
}

func createConstraint(c schema.Constraint) string {
	tbl := schema.QuoteIdent(c.TableName)
	name := schema.QuoteIdent(c.Name)

	switch c.Type {
	case schema.ConstraintPrimaryKey:
		return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s);",
			tbl, name, quoteSortedColumns(c.ColumnNames))
	case schema.ConstraintForeignKey:
		stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			tbl, name, quoteSortedColumns(c.ColumnNames),
			schema.QuoteIdent(c.ReferenceTableName), quoteSortedColumns(c.ReferenceColumnNames))
		if c.OnDelete != "" {
			stmt += fmt.Sprintf(" ON DELETE %s", c.OnDelete)
		}
		if c.OnUpdate != "" {
			stmt += fmt.Sprintf(" ON UPDATE %s", c.OnUpdate)
		}
		return stmt + ";"
	case schema.ConstraintUnique:
		return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s);",
			tbl, name, quoteSortedColumns(c.ColumnNames))
	case schema.ConstraintCheck:
		return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);", tbl, name, c.Expression)
	default:
		return ""
	}
}

// createIndex intentionally omits the terminating semicolon; see spec.md §9
// open question 2 — this asymmetry with every other statement form is
// preserved as-is.
func createIndex(idx schema.Index) string {
	var sb strings.Builder
	sb.WriteString("CREATE ")
	if idx.Unique {
		sb.WriteString("UNIQUE ")
	}
	sb.WriteString("INDEX ")
	sb.WriteString(schema.QuoteIdent(idx.Name))
	sb.WriteString(" ON ")
	sb.WriteString(schema.QuoteIdent(idx.TableName))
	if len(idx.ColumnNames) > 0 {
		sb.WriteString(fmt.Sprintf(" (%s)", quoteSortedColumns(idx.ColumnNames)))
	}
	if idx.Using != "" {
		sb.WriteString(fmt.Sprintf(" USING %s", idx.Using))
	}
	if idx.Expression != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", idx.Expression))
	}
	if idx.Where != "" {
		sb.WriteString(fmt.Sprintf(" WHERE %s", idx.Where))
	}
	return sb.String()
}

func quoteSortedColumns(cols []string) string {
	sorted := append([]string(nil), cols...)
	sort.Strings(sorted)
	quoted := make([]string, len(sorted))
	for i, c := range sorted {
		quoted[i] = schema.QuoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

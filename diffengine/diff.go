// Package diffengine computes the ordered list of schema.Change operations
// that transform an observed schema into a desired one.
package diffengine

import (
	"sort"

	"github.com/lockplane/schemadiff/schema"
)

// Options controls diff behavior.
type Options struct {
	// IgnoreExtraTables, when true (the default callers should use), skips
	// tables present in target but absent from source instead of emitting
	// table.delete. This protects application tables from third-party
	// tables sharing the namespace.
	IgnoreExtraTables bool
}

// Diff compares source (desired) against target (observed) and returns the
// ordered change list that transforms target into source.
func Diff(source, target *schema.Schema, opts Options) []schema.Change {
	var changes []schema.Change

	sourceTables := tableIndex(source)
	targetTables := tableIndex(target)

	for _, name := range unionKeys(sourceTables, targetTables) {
		sTable, inSource := sourceTables[name]
		tTable, inTarget := targetTables[name]

		switch {
		case inSource && !inTarget:
			changes = append(changes, diffNewTable(sTable)...)
		case !inSource && inTarget:
			if !opts.IgnoreExtraTables {
				changes = append(changes, schema.Change{
					Kind:      schema.ChangeTableDelete,
					TableName: tTable.Name,
				})
			}
		default:
			changes = append(changes, diffTable(sTable, tTable)...)
		}
	}

	return changes
}

// diffNewTable emits table.create followed by its indexes and constraints,
// i.e. diffing a full table against empty index/constraint sets.
func diffNewTable(t *schema.Table) []schema.Change {
	changes := []schema.Change{{
		Kind:      schema.ChangeTableCreate,
		TableName: t.Name,
		Columns:   t.Columns,
	}}
	changes = append(changes, diffIndexes(t.Indexes, nil)...)
	changes = append(changes, diffConstraints(t.Constraints, nil)...)
	return changes
}

// diffTable recurses into columns, constraints, and indexes of a table
// present on both sides.
func diffTable(source, target *schema.Table) []schema.Change {
	var changes []schema.Change
	changes = append(changes, diffColumns(source.Columns, target.Columns)...)
	changes = append(changes, diffConstraints(source.Constraints, target.Constraints)...)
	changes = append(changes, diffIndexes(source.Indexes, target.Indexes)...)
	return changes
}

func diffColumns(source, target []schema.Column) []schema.Change {
	sourceCols := columnIndex(source)
	targetCols := columnIndex(target)

	var changes []schema.Change
	for _, name := range unionKeys(sourceCols, targetCols) {
		sCol, inSource := sourceCols[name]
		tCol, inTarget := targetCols[name]

		switch {
		case inSource && !inTarget:
			col := *sCol
			changes = append(changes, schema.Change{
				Kind:   schema.ChangeColumnCreate,
				Column: &col,
			})
		case !inSource && inTarget:
			changes = append(changes, schema.Change{
				Kind:       schema.ChangeColumnDelete,
				TableName:  tCol.TableName,
				ColumnName: tCol.Name,
			})
		default:
			if sCol.Type != tCol.Type {
				// Drop-and-recreate: data migration across type changes is
				// not attempted.
				changes = append(changes, schema.Change{
					Kind:       schema.ChangeColumnDelete,
					TableName:  tCol.TableName,
					ColumnName: tCol.Name,
				})
				newCol := *sCol
				changes = append(changes, schema.Change{
					Kind:   schema.ChangeColumnCreate,
					Column: &newCol,
				})
			} else if columnFieldsDiffer(sCol, tCol) {
				s, t := *sCol, *tCol
				changes = append(changes, schema.Change{
					Kind:         schema.ChangeColumnUpdate,
					SourceColumn: &s,
					TargetColumn: &t,
				})
			}
		}
	}
	return changes
}

func columnFieldsDiffer(a, b *schema.Column) bool {
	return a.Type != b.Type ||
		a.Nullable != b.Nullable ||
		a.Primary != b.Primary ||
		!defaultsEqual(a.Default, b.Default) ||
		a.IsArray != b.IsArray
}

func defaultsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func diffConstraints(source, target []schema.Constraint) []schema.Change {
	sourceByType := partitionConstraints(source)
	targetByType := partitionConstraints(target)

	var changes []schema.Change
	for _, ctype := range constraintTypes(sourceByType, targetByType) {
		sourceSet := sourceByType[ctype]
		targetSet := targetByType[ctype]

		for _, name := range unionKeys(sourceSet, targetSet) {
			sC, inSource := sourceSet[name]
			tC, inTarget := targetSet[name]

			switch {
			case inSource && !inTarget:
				c := *sC
				changes = append(changes, schema.Change{
					Kind:       schema.ChangeConstraintCreate,
					Constraint: &c,
				})
			case !inSource && inTarget:
				changes = append(changes, schema.Change{
					Kind:           schema.ChangeConstraintDelete,
					TableName:      tC.TableName,
					ConstraintName: tC.Name,
				})
			default:
				if !constraintsEqual(sC, tC) {
					changes = append(changes, schema.Change{
						Kind:           schema.ChangeConstraintDelete,
						TableName:      tC.TableName,
						ConstraintName: tC.Name,
					})
					c := *sC
					changes = append(changes, schema.Change{
						Kind:       schema.ChangeConstraintCreate,
						Constraint: &c,
					})
				}
			}
		}
	}
	return changes
}

func constraintsEqual(a, b *schema.Constraint) bool {
	if a.TableName != b.TableName {
		return false
	}
	switch a.Type {
	case schema.ConstraintPrimaryKey:
		return stringSetEqual(a.ColumnNames, b.ColumnNames)
	case schema.ConstraintForeignKey:
		return a.ReferenceTableName == b.ReferenceTableName &&
			a.OnUpdate == b.OnUpdate &&
			a.OnDelete == b.OnDelete &&
			stringSetEqual(a.ColumnNames, b.ColumnNames) &&
			stringSetEqual(a.ReferenceColumnNames, b.ReferenceColumnNames)
	case schema.ConstraintUnique:
		return stringSetEqual(a.ColumnNames, b.ColumnNames)
	case schema.ConstraintCheck:
		return a.Expression == b.Expression
	default:
		return false
	}
}

func diffIndexes(source, target []schema.Index) []schema.Change {
	sourceIdx := indexIndex(source)
	targetIdx := indexIndex(target)

	var changes []schema.Change
	for _, name := range unionKeys(sourceIdx, targetIdx) {
		sI, inSource := sourceIdx[name]
		tI, inTarget := targetIdx[name]

		switch {
		case inSource && !inTarget:
			idx := *sI
			changes = append(changes, schema.Change{
				Kind:  schema.ChangeIndexCreate,
				Index: &idx,
			})
		case !inSource && inTarget:
			changes = append(changes, schema.Change{
				Kind:      schema.ChangeIndexDelete,
				IndexName: tI.Name,
			})
		default:
			if !indexesEqual(sI, tI) {
				changes = append(changes, schema.Change{
					Kind:      schema.ChangeIndexDelete,
					IndexName: tI.Name,
				})
				idx := *sI
				changes = append(changes, schema.Change{
					Kind:  schema.ChangeIndexCreate,
					Index: &idx,
				})
			}
		}
	}
	return changes
}

// indexesEqual intentionally does not compare Using: spec.md §9 preserves
// this as a known gap — changing only the access method produces no diff.
func indexesEqual(a, b *schema.Index) bool {
	return stringSetEqual(a.ColumnNames, b.ColumnNames) &&
		a.Expression == b.Expression &&
		a.Unique == b.Unique &&
		a.Where == b.Where
}

func stringSetEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

func tableIndex(s *schema.Schema) map[string]*schema.Table {
	m := make(map[string]*schema.Table)
	if s == nil {
		return m
	}
	for i := range s.Tables {
		m[s.Tables[i].Name] = &s.Tables[i]
	}
	return m
}

func columnIndex(cols []schema.Column) map[string]*schema.Column {
	m := make(map[string]*schema.Column, len(cols))
	for i := range cols {
		m[cols[i].Name] = &cols[i]
	}
	return m
}

func indexIndex(idxs []schema.Index) map[string]*schema.Index {
	m := make(map[string]*schema.Index, len(idxs))
	for i := range idxs {
		m[idxs[i].Name] = &idxs[i]
	}
	return m
}

func partitionConstraints(cs []schema.Constraint) map[schema.ConstraintType]map[string]*schema.Constraint {
	m := make(map[schema.ConstraintType]map[string]*schema.Constraint)
	for i := range cs {
		t := cs[i].Type
		if m[t] == nil {
			m[t] = make(map[string]*schema.Constraint)
		}
		m[t][cs[i].Name] = &cs[i]
	}
	return m
}

func constraintTypes(a, b map[schema.ConstraintType]map[string]*schema.Constraint) []schema.ConstraintType {
	seen := make(map[schema.ConstraintType]bool)
	var order []schema.ConstraintType
	for t := range a {
		if !seen[t] {
			seen[t] = true
			order = append(order, t)
		}
	}
	for t := range b {
		if !seen[t] {
			seen[t] = true
			order = append(order, t)
		}
	}
	return order
}

// unionKeys returns the union of keys from both maps: all of a's keys first,
// then the keys found only in b, each group sorted lexicographically so the
// result does not depend on Go's map iteration order.
func unionKeys[V any](a, b map[string]V) []string {
	seen := make(map[string]bool)
	var order []string
	for k := range a {
		if !seen[k] {
			seen[k] = true
			order = append(order, k)
		}
	}
	sort.Strings(order)
	n := len(order)
	for k := range b {
		if !seen[k] {
			seen[k] = true
			order = append(order, k)
		}
	}
	sort.Strings(order[n:])
	return order
}

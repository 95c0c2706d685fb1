package diffengine

import (
	"testing"

	"github.com/lockplane/schemadiff/schema"
)

func TestDiff_StabilityUnderSelfDiff(t *testing.T) {
	s := &schema.Schema{
		Tables: []schema.Table{
			{
				Name: "widgets",
				Columns: []schema.Column{
					{TableName: "widgets", Name: "id", Type: "uuid", Primary: true},
					{TableName: "widgets", Name: "name", Type: "character varying", Nullable: true},
				},
				Constraints: []schema.Constraint{
					{Type: schema.ConstraintPrimaryKey, Name: "PK_widgets", TableName: "widgets", ColumnNames: []string{"id"}},
				},
				Indexes: []schema.Index{
					{Name: "IDX_widgets_name", TableName: "widgets", ColumnNames: []string{"name"}},
				},
			},
		},
	}

	changes := Diff(s, s, Options{IgnoreExtraTables: false})
	if len(changes) != 0 {
		t.Fatalf("expected no changes diffing a schema against itself, got %v", changes)
	}
}

func TestDiff_IgnoreExtraTablesSemantics(t *testing.T) {
	target := &schema.Schema{Tables: []schema.Table{{Name: "t1"}}}
	empty := &schema.Schema{}

	changes := Diff(empty, target, Options{IgnoreExtraTables: true})
	if len(changes) != 0 {
		t.Fatalf("expected empty diff with IgnoreExtraTables, got %v", changes)
	}

	changes = Diff(empty, target, Options{IgnoreExtraTables: false})
	if len(changes) != 1 || changes[0].Kind != schema.ChangeTableDelete || changes[0].TableName != "t1" {
		t.Fatalf("expected single table.delete change, got %v", changes)
	}
}

func TestDiff_SetEqualityForColumnLists(t *testing.T) {
	pk := func(cols []string) schema.Constraint {
		return schema.Constraint{Type: schema.ConstraintPrimaryKey, Name: "PK_1", TableName: "t1", ColumnNames: cols}
	}

	source := &schema.Schema{Tables: []schema.Table{{Name: "t1", Constraints: []schema.Constraint{pk([]string{"a", "b"})}}}}
	target := &schema.Schema{Tables: []schema.Table{{Name: "t1", Constraints: []schema.Constraint{pk([]string{"b", "a"})}}}}

	changes := Diff(source, target, Options{})
	if len(changes) != 0 {
		t.Fatalf("expected reordered column lists to diff as equal, got %v", changes)
	}
}

func TestDiff_DropThenCreateOrdering(t *testing.T) {
	source := &schema.Schema{Tables: []schema.Table{{
		Name: "t1",
		Columns: []schema.Column{
			{TableName: "t1", Name: "c1", Type: "uuid"},
		},
	}}}
	target := &schema.Schema{Tables: []schema.Table{{
		Name: "t1",
		Columns: []schema.Column{
			{TableName: "t1", Name: "c1", Type: "text"},
		},
	}}}

	changes := Diff(source, target, Options{})
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes for a type change, got %d: %v", len(changes), changes)
	}
	if changes[0].Kind != schema.ChangeColumnDelete {
		t.Fatalf("expected delete before create, got %v then %v", changes[0].Kind, changes[1].Kind)
	}
	if changes[1].Kind != schema.ChangeColumnCreate {
		t.Fatalf("expected create to follow delete, got %v", changes[1].Kind)
	}
}

func TestDiff_S1_CreateEmptyTable(t *testing.T) {
	source := &schema.Schema{Tables: []schema.Table{{
		Name: "T1",
		Columns: []schema.Column{
			{TableName: "T1", Name: "C1", Type: "character varying", Nullable: true},
		},
	}}}

	changes := Diff(source, &schema.Schema{}, Options{})
	if len(changes) != 1 {
		t.Fatalf("expected single table.create change, got %v", changes)
	}
	if changes[0].Kind != schema.ChangeTableCreate || changes[0].TableName != "T1" {
		t.Fatalf("unexpected change: %+v", changes[0])
	}
	if len(changes[0].Columns) != 1 || changes[0].Columns[0].Name != "C1" {
		t.Fatalf("unexpected columns: %v", changes[0].Columns)
	}
}

func TestDiff_AddColumn(t *testing.T) {
	source := &schema.Schema{Tables: []schema.Table{{
		Name:    "T1",
		Columns: []schema.Column{{TableName: "T1", Name: "C1", Type: "character varying", Nullable: true}},
	}}}
	target := &schema.Schema{Tables: []schema.Table{{Name: "T1"}}}

	changes := Diff(source, target, Options{})
	if len(changes) != 1 || changes[0].Kind != schema.ChangeColumnCreate {
		t.Fatalf("expected single column.create, got %v", changes)
	}
}

func TestDiff_NullabilityFlipOnly(t *testing.T) {
	source := &schema.Schema{Tables: []schema.Table{{
		Name:    "T1",
		Columns: []schema.Column{{TableName: "T1", Name: "C1", Type: "character varying", Nullable: false}},
	}}}
	target := &schema.Schema{Tables: []schema.Table{{
		Name:    "T1",
		Columns: []schema.Column{{TableName: "T1", Name: "C1", Type: "character varying", Nullable: true}},
	}}}

	changes := Diff(source, target, Options{})
	if len(changes) != 1 || changes[0].Kind != schema.ChangeColumnUpdate {
		t.Fatalf("expected single column.update, got %v", changes)
	}
	if changes[0].SourceColumn.Nullable != false || changes[0].TargetColumn.Nullable != true {
		t.Fatalf("unexpected source/target: %+v", changes[0])
	}
}

func TestDiff_ForeignKeyCreate(t *testing.T) {
	fk := schema.Constraint{
		Type: schema.ConstraintForeignKey, Name: "FK_1", TableName: "Table1",
		ColumnNames: []string{"Column1"}, ReferenceTableName: "Table2",
		ReferenceColumnNames: []string{"Column2"},
		OnUpdate:             schema.ActionCascade, OnDelete: schema.ActionNoAction,
	}
	source := &schema.Schema{Tables: []schema.Table{{Name: "Table1", Constraints: []schema.Constraint{fk}}}}
	target := &schema.Schema{Tables: []schema.Table{{Name: "Table1"}}}

	changes := Diff(source, target, Options{})
	if len(changes) != 1 || changes[0].Kind != schema.ChangeConstraintCreate {
		t.Fatalf("expected single constraint.create, got %v", changes)
	}
}

func TestDiff_UniqueIndexColumnOrderInsensitive(t *testing.T) {
	idx := func(cols []string) schema.Index {
		return schema.Index{Name: "IDX_1", TableName: "Table1", ColumnNames: cols, Unique: true}
	}
	source := &schema.Schema{Tables: []schema.Table{{Name: "Table1", Indexes: []schema.Index{idx([]string{"Column1", "Column2"})}}}}
	target := &schema.Schema{Tables: []schema.Table{{Name: "Table1", Indexes: []schema.Index{idx([]string{"Column2", "Column1"})}}}}

	changes := Diff(source, target, Options{})
	if len(changes) != 0 {
		t.Fatalf("expected reordered index column lists to diff as equal, got %v", changes)
	}
}

func TestDiff_IndexUsingNotCompared(t *testing.T) {
	source := &schema.Schema{Tables: []schema.Table{{Name: "t1", Indexes: []schema.Index{
		{Name: "idx1", TableName: "t1", ColumnNames: []string{"a"}, Using: "btree"},
	}}}}
	target := &schema.Schema{Tables: []schema.Table{{Name: "t1", Indexes: []schema.Index{
		{Name: "idx1", TableName: "t1", ColumnNames: []string{"a"}, Using: "gin"},
	}}}}

	changes := Diff(source, target, Options{})
	if len(changes) != 0 {
		t.Fatalf("expected using-only difference to produce no diff, got %v", changes)
	}
}

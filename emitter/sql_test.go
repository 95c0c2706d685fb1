package emitter

import (
	"testing"

	"github.com/lockplane/schemadiff/schema"
)

func strp(s string) *string { return &s }

func TestToSQL_S1_CreateEmptyTable(t *testing.T) {
	changes := []schema.Change{{
		Kind:      schema.ChangeTableCreate,
		TableName: "T1",
		Columns:   []schema.Column{{TableName: "T1", Name: "C1", Type: "character varying", Nullable: true}},
	}}
	got := ToSQL(changes)
	want := []string{`CREATE TABLE "T1" ("C1" character varying);`}
	assertEqual(t, got, want)
}

func TestToSQL_S2_NonNullableWithDefault(t *testing.T) {
	changes := []schema.Change{{
		Kind:      schema.ChangeTableCreate,
		TableName: "T1",
		Columns: []schema.Column{{
			TableName: "T1", Name: "C1", Type: "character varying",
			Nullable: false, Default: strp("uuid_generate_v4()"),
		}},
	}}
	got := ToSQL(changes)
	want := []string{`CREATE TABLE "T1" ("C1" character varying NOT NULL DEFAULT uuid_generate_v4());`}
	assertEqual(t, got, want)
}

func TestToSQL_S3_AddColumn(t *testing.T) {
	changes := []schema.Change{{
		Kind:   schema.ChangeColumnCreate,
		Column: &schema.Column{TableName: "T1", Name: "C1", Type: "character varying", Nullable: true},
	}}
	got := ToSQL(changes)
	want := []string{`ALTER TABLE "T1" ADD "C1" character varying;`}
	assertEqual(t, got, want)
}

func TestToSQL_S4_NullabilityFlipOnly(t *testing.T) {
	changes := []schema.Change{{
		Kind:         schema.ChangeColumnUpdate,
		SourceColumn: &schema.Column{TableName: "T1", Name: "C1", Nullable: false},
		TargetColumn: &schema.Column{TableName: "T1", Name: "C1", Nullable: true},
	}}
	got := ToSQL(changes)
	want := []string{`ALTER TABLE "T1" ALTER COLUMN "C1" SET NOT NULL;`}
	assertEqual(t, got, want)
}

func TestToSQL_ColumnUpdate_TypeChangeOnlyEmitsNoSQL(t *testing.T) {
	changes := []schema.Change{{
		Kind:         schema.ChangeColumnUpdate,
		SourceColumn: &schema.Column{TableName: "T1", Name: "C1", Nullable: true, Type: "text"},
		TargetColumn: &schema.Column{TableName: "T1", Name: "C1", Nullable: true, Type: "character varying"},
	}}
	got := ToSQL(changes)
	if len(got) != 0 {
		t.Fatalf("expected no SQL for a nullability-equal column.update, got %v", got)
	}
}

func TestToSQL_S5_ForeignKeyWithCascades(t *testing.T) {
	changes := []schema.Change{{
		Kind: schema.ChangeConstraintCreate,
		Constraint: &schema.Constraint{
			Type: schema.ConstraintForeignKey, Name: "FK_1", TableName: "Table1",
			ColumnNames: []string{"Column1"}, ReferenceTableName: "Table2",
			ReferenceColumnNames: []string{"Column2"},
			OnUpdate:             schema.ActionCascade,
			OnDelete:             schema.ActionNoAction,
		},
	}}
	got := ToSQL(changes)
	want := []string{`ALTER TABLE "Table1" ADD CONSTRAINT "FK_1" FOREIGN KEY ("Column1") REFERENCES "Table2" ("Column2") ON DELETE NO ACTION ON UPDATE CASCADE;`}
	assertEqual(t, got, want)
}

func TestToSQL_S6_MultiColumnUniqueSortedAndQuoted(t *testing.T) {
	changes := []schema.Change{{
		Kind: schema.ChangeConstraintCreate,
		Constraint: &schema.Constraint{
			Type: schema.ConstraintUnique, Name: "UQ_1", TableName: "Table1",
			ColumnNames: []string{"Column2", "Column1"},
		},
	}}
	got := ToSQL(changes)
	want := []string{`ALTER TABLE "Table1" ADD CONSTRAINT "UQ_1" UNIQUE ("Column1", "Column2");`}
	assertEqual(t, got, want)
}

func TestToSQL_S7_UniqueIndexNoTerminatingSemicolon(t *testing.T) {
	changes := []schema.Change{{
		Kind: schema.ChangeIndexCreate,
		Index: &schema.Index{
			Name: "IDX_1", TableName: "Table1", ColumnNames: []string{"Column1"}, Unique: true,
		},
	}}
	got := ToSQL(changes)
	want := []string{`CREATE UNIQUE INDEX "IDX_1" ON "Table1" ("Column1")`}
	assertEqual(t, got, want)
}

func TestToSQL_PrimaryKeyConstraint(t *testing.T) {
	changes := []schema.Change{{
		Kind: schema.ChangeConstraintCreate,
		Constraint: &schema.Constraint{
			Type: schema.ConstraintPrimaryKey, Name: "PK_1", TableName: "Table1",
			ColumnNames: []string{"id"},
		},
	}}
	got := ToSQL(changes)
	want := []string{`ALTER TABLE "Table1" ADD CONSTRAINT "PK_1" PRIMARY KEY ("id");`}
	assertEqual(t, got, want)
}

func TestToSQL_CheckConstraint(t *testing.T) {
	changes := []schema.Change{{
		Kind: schema.ChangeConstraintCreate,
		Constraint: &schema.Constraint{
			Type: schema.ConstraintCheck, Name: "CHK_1", TableName: "Table1",
			Expression: "price > 0",
		},
	}}
	got := ToSQL(changes)
	want := []string{`ALTER TABLE "Table1" ADD CONSTRAINT "CHK_1" CHECK (price > 0);`}
	assertEqual(t, got, want)
}

func TestToSQL_DropStatements(t *testing.T) {
	changes := []schema.Change{
		{Kind: schema.ChangeTableDelete, TableName: "T1"},
		{Kind: schema.ChangeColumnDelete, TableName: "T1", ColumnName: "C1"},
		{Kind: schema.ChangeConstraintDelete, TableName: "T1", ConstraintName: "PK_1"},
		{Kind: schema.ChangeIndexDelete, IndexName: "IDX_1"},
	}
	got := ToSQL(changes)
	want := []string{
		`DROP TABLE "T1";`,
		`ALTER TABLE "T1" DROP COLUMN "C1";`,
		`ALTER TABLE "T1" DROP CONSTRAINT "PK_1";`,
		`DROP INDEX "IDX_1";`,
	}
	assertEqual(t, got, want)
}

func TestToSQL_PreservesChangeOrder(t *testing.T) {
	changes := []schema.Change{
		{Kind: schema.ChangeColumnDelete, TableName: "T1", ColumnName: "old"},
		{Kind: schema.ChangeColumnCreate, Column: &schema.Column{TableName: "T1", Name: "new", Type: "text", Nullable: true}},
	}
	got := ToSQL(changes)
	if len(got) != 2 || got[0] != `ALTER TABLE "T1" DROP COLUMN "old";` {
		t.Fatalf("expected delete then create preserved in order, got %v", got)
	}
}

func assertEqual(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch:\n got:  %v\n want: %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("statement %d mismatch:\n got:  %q\n want: %q", i, got[i], want[i])
		}
	}
}

// Package driver loads the desired and observed schemas, runs the diff, and
// writes the pipeline's output artifacts. It is the only component in this
// module, besides cmd/schemadiff, that writes files; its database reads go
// through catalog.Introspector.
package driver

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lockplane/schemadiff/catalog"
	"github.com/lockplane/schemadiff/diffengine"
	"github.com/lockplane/schemadiff/emitter"
	"github.com/lockplane/schemadiff/metadata"
	"github.com/lockplane/schemadiff/schema"
)

// Result holds every artifact a Run produces, so callers (CLI or tests) can
// inspect them without re-reading the files Run wrote.
type Result struct {
	Desired  *schema.Schema
	Observed *schema.Schema
	Changes  []schema.Change
	SQL      []string
}

// Run introspects db's schemaName namespace, compiles the application's
// registered metadata, diffs desired against observed, and writes the four
// artifacts spec.md §6 names into outDir.
func Run(ctx context.Context, db *sql.DB, schemaName, outDir string) (*Result, error) {
	observed, err := catalog.NewIntrospector(db).LoadSchema(ctx, schemaName)
	if err != nil {
		return nil, fmt.Errorf("load observed schema: %w", err)
	}

	desired := metadata.GetDynamicSchema()

	changes := diffengine.Diff(desired, observed, diffengine.Options{IgnoreExtraTables: true})
	statements := emitter.ToSQL(changes)

	result := &Result{
		Desired:  desired,
		Observed: filterToDesiredTables(observed, desired),
		Changes:  changes,
		SQL:      statements,
	}

	if err := writeArtifacts(result, outDir); err != nil {
		return nil, fmt.Errorf("write artifacts: %w", err)
	}

	return result, nil
}

// filterToDesiredTables restricts observed to the tables also present in
// desired, per spec.md §6's schema-database.json contract.
func filterToDesiredTables(observed, desired *schema.Schema) *schema.Schema {
	wanted := make(map[string]bool, len(desired.Tables))
	for _, t := range desired.Tables {
		wanted[t.Name] = true
	}

	filtered := &schema.Schema{Name: observed.Name}
	for _, t := range observed.Tables {
		if wanted[t.Name] {
			filtered.Tables = append(filtered.Tables, t)
		}
	}
	return filtered
}

func writeArtifacts(r *Result, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(outDir, "schema-dynamic.json"), r.Desired); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, "schema-database.json"), r.Observed); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, "schema-diff.json"), r.Changes); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("-- UP\n")
	for _, stmt := range r.SQL {
		sb.WriteString(stmt)
		sb.WriteString("\n")
	}
	return os.WriteFile(filepath.Join(outDir, "schema-sql.sql"), []byte(sb.String()), 0o644)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

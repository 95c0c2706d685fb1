// Command schemadiff loads the desired schema from application metadata and
// the observed schema from a live Postgres catalog, diffs them, and writes
// the migration artifacts spec.md §6 describes.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"

	"github.com/lockplane/schemadiff/driver"
	"github.com/lockplane/schemadiff/internal/config"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] != "migrate" {
		printUsage()
		os.Exit(1)
	}

	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbFlag := fs.String("db", "", "Postgres connection string (overrides config and DB_URL)")
	schemaFlag := fs.String("schema", "", "schema namespace to introspect (default: public)")
	outFlag := fs.String("out", "", "directory to write artifacts into (default: .)")
	if err := fs.Parse(os.Args[2:]); err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config file: %v", err)
	}

	dbURL := config.ResolveDatabaseURL(*dbFlag, cfg)
	if dbURL == "" {
		log.Fatalf("no database connection configured: pass --db, set DB_URL, or configure database_url in schemadiff.toml")
	}
	schemaName := config.ResolveSchemaName(*schemaFlag, cfg)
	outDir := config.ResolveOutputDir(*outFlag, cfg)

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("failed to open database connection: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	result, err := driver.Run(ctx, db, schemaName, outDir)
	if err != nil {
		log.Fatalf("migration pipeline failed: %v", err)
	}

	fmt.Printf("wrote %d change(s), %d SQL statement(s) to %s\n", len(result.Changes), len(result.SQL), outDir)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: schemadiff migrate [--db <url>] [--schema <name>] [--out <dir>]")
}

// Command generate_schema migrates an empty in-memory database and writes
// the resulting schema to schema.sql, or to the path given as its argument.
package main

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"os"

	"rota-go/internal/database"
	"rota-go/internal/database/migrations"
)

const header = `-- This file is auto-generated from migration files.
-- DO NOT EDIT MANUALLY. Run 'go generate ./internal/database' to regenerate.
-- Source: internal/database/migrations/files/*.sql

`

func main() {
	outPath := "schema.sql"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	if err := run(outPath); err != nil {
		fmt.Fprintf(os.Stderr, "generate_schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("generated %s from migrations\n", outPath)
}

func run(outPath string) error {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := migrations.Up(db); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	w := bufio.NewWriter(f)
	if err := writeSchema(w, db); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return f.Close()
}

// writeSchema writes every user table, then every index, each sorted by
// name. The migration bookkeeping table is left out.
func writeSchema(w io.Writer, db *sql.DB) error {
	rows, err := db.Query(`
		SELECT sql
		FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY type = 'index', name`)
	if err != nil {
		return fmt.Errorf("reading sqlite_master: %w", err)
	}
	defer rows.Close()

	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return fmt.Errorf("scanning statement: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s;\n\n", stmt); err != nil {
			return err
		}
	}
	return rows.Err()
}

package export

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/glebarez/go-sqlite"

	"github.com/ssargent/dbcforge/pkg/codec"
	"github.com/ssargent/dbcforge/pkg/schema"
)

// WriteSQLite creates a fresh SQLite database at path holding the table as
// SQLTableName(d.Name). Float columns are nullable because SQLite stores NaN
// as NULL.
func WriteSQLite(path string, d Dataset) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace sqlite file: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer db.Close()

	table := quoteIdent(SQLTableName(d.Name))
	cols := make([]string, len(d.Schema.Fields))
	marks := make([]string, len(d.Schema.Fields))
	for i, f := range d.Schema.Fields {
		cols[i] = quoteIdent(f.Name) + " " + sqliteColumnType(f.Kind)
		marks[i] = "?"
	}

	if _, err := db.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(cols, ", "))); err != nil {
		return fmt.Errorf("failed to create sqlite table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin sqlite transaction: %w", err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, strings.Join(marks, ", ")))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare sqlite insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(d.Schema.Fields))
	for i, rec := range d.Table {
		for j := range args {
			args[j] = nil
			if j < len(rec) {
				args[j] = sqliteArg(rec[j])
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sqlite export: %w", err)
	}
	return nil
}

func sqliteColumnType(k schema.FieldKind) string {
	switch k {
	case schema.KindFloat32:
		return "REAL"
	case schema.KindString:
		return "TEXT NOT NULL DEFAULT ''"
	default:
		return "INTEGER NOT NULL DEFAULT 0"
	}
}

func sqliteArg(v codec.Value) any {
	switch v.Kind() {
	case schema.KindString:
		return v.Str()
	case schema.KindInt32:
		return int64(v.Int32())
	case schema.KindFloat32:
		return float64(v.Float32())
	default:
		return int64(v.Uint32())
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

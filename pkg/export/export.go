// Package export renders decoded DBC tables in other formats.
//
// Every exporter works from the same Dataset: the table, its schema, and the
// names used to label the output. Integer columns are written as decimal,
// float columns as the shortest decimal that reads back to the same float32,
// and string columns as UTF-8 text quoted or escaped as the target requires.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ssargent/dbcforge/pkg/codec"
	"github.com/ssargent/dbcforge/pkg/schema"
)

// Format names an output format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatSQL     Format = "sql"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
	FormatSQLite  Format = "sqlite"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatSQL, FormatJSON, FormatParquet, FormatSQLite}

// ParseFormat accepts a format name in any case.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", name)
}

// Ext returns the conventional file extension, including the dot.
func (f Format) Ext() string {
	if f == FormatSQLite {
		return ".sqlite"
	}
	return "." + string(f)
}

// Streamable reports whether the format can be written to an io.Writer.
func (f Format) Streamable() bool {
	return f != FormatSQLite
}

// Dataset is what every exporter consumes.
type Dataset struct {
	// Name is the table name, used for SQL table names.
	Name string
	// Source is the file the table was read from, used in comments.
	Source string
	Schema *schema.Schema
	Table  codec.Table
}

// Write streams d to w in format f. FormatSQLite needs a file; use WriteFile.
func Write(w io.Writer, f Format, d Dataset) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, d)
	case FormatSQL:
		return WriteSQL(w, d)
	case FormatJSON:
		return WriteJSON(w, d)
	case FormatParquet:
		return WriteParquet(w, d)
	case FormatSQLite:
		return fmt.Errorf("%s export needs a file path", f)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// WriteFile exports d to path, replacing any existing file.
func WriteFile(path string, f Format, d Dataset) error {
	if f == FormatSQLite {
		return WriteSQLite(path, d)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	bw := bufio.NewWriter(file)
	if err := Write(bw, f, d); err != nil {
		file.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to flush export file: %w", err)
	}
	return file.Close()
}

func (d Dataset) fieldCount() int {
	return len(d.Schema.Fields)
}

package export

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ssargent/dbcforge/pkg/schema"
)

var sqlEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// SQLTableName is the name tables are created under: the DBC table name with
// a "_dbc" suffix.
func SQLTableName(name string) string {
	return name + "_dbc"
}

// WriteSQL writes a MySQL script: a CREATE TABLE statement followed by one
// INSERT per record.
func WriteSQL(w io.Writer, d Dataset) error {
	bw := bufio.NewWriter(w)
	table := SQLTableName(d.Name)
	n := d.fieldCount()

	fmt.Fprintf(bw, "CREATE TABLE `%s` (\n", table)
	for i, f := range d.Schema.Fields {
		sep := ",\n"
		if i == n-1 {
			sep = "\n"
		}
		fmt.Fprintf(bw, "\t`%s` %s%s", f.Name, sqlColumnType(f.Kind), sep)
	}
	fmt.Fprintf(bw, ") ENGINE = MyISAM DEFAULT CHARSET = utf8 COMMENT = 'Data from %s';\n\n",
		sqlEscaper.Replace(filepath.Base(d.Source)))

	columns := make([]string, n)
	for i, name := range d.Schema.FieldNames() {
		columns[i] = "`" + name + "`"
	}
	prefix := fmt.Sprintf("INSERT INTO `%s` (%s) VALUES (", table, strings.Join(columns, ", "))

	values := make([]string, n)
	for _, rec := range d.Table {
		for j := range values {
			values[j] = "''"
			if j < len(rec) {
				values[j] = "'" + sqlEscaper.Replace(rec[j].Text()) + "'"
			}
		}
		bw.WriteString(prefix)
		bw.WriteString(strings.Join(values, ", "))
		bw.WriteString(");\n")
	}

	return bw.Flush()
}

func sqlColumnType(k schema.FieldKind) string {
	switch k {
	case schema.KindFloat32:
		return "float NOT NULL default '0'"
	case schema.KindString:
		return "text NOT NULL"
	default:
		return "bigint(20) NOT NULL default '0'"
	}
}

package export

import (
	"bufio"
	"io"
	"strings"
)

// WriteCSV writes a semicolon-separated table. Every cell, the last one
// included, is followed by ';'. String cells are wrapped in double quotes
// with embedded quotes doubled.
func WriteCSV(w io.Writer, d Dataset) error {
	bw := bufio.NewWriter(w)

	for _, name := range d.Schema.FieldNames() {
		bw.WriteString(name)
		bw.WriteByte(';')
	}
	bw.WriteByte('\n')

	for _, rec := range d.Table {
		for j := 0; j < d.fieldCount() && j < len(rec); j++ {
			if d.Schema.FieldKind(j).IsString() {
				bw.WriteByte('"')
				bw.WriteString(strings.ReplaceAll(rec[j].Str(), `"`, `""`))
				bw.WriteByte('"')
			} else {
				bw.WriteString(rec[j].Text())
			}
			bw.WriteByte(';')
		}
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ssargent/dbcforge/pkg/schema"
)

// ArrowSchema maps a DBC schema to Arrow columns: uint32, int32, float32 or
// utf8 per field kind.
func ArrowSchema(s *schema.Schema) *arrow.Schema {
	fields := make([]arrow.Field, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = arrow.Field{Name: f.Name, Type: arrowType(f.Kind)}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(k schema.FieldKind) arrow.DataType {
	switch k {
	case schema.KindInt32:
		return arrow.PrimitiveTypes.Int32
	case schema.KindFloat32:
		return arrow.PrimitiveTypes.Float32
	case schema.KindString:
		return arrow.BinaryTypes.String
	default:
		return arrow.PrimitiveTypes.Uint32
	}
}

// WriteParquet writes the table as a Snappy-compressed Parquet file with the
// Arrow schema stored in its metadata.
func WriteParquet(w io.Writer, d Dataset) error {
	sc := ArrowSchema(d.Schema)

	b := array.NewRecordBuilder(memory.DefaultAllocator, sc)
	defer b.Release()

	for _, rec := range d.Table {
		for j := range sc.Fields() {
			if j >= len(rec) {
				b.Field(j).AppendNull()
				continue
			}
			v := rec[j]
			switch fb := b.Field(j).(type) {
			case *array.Uint32Builder:
				fb.Append(v.Uint32())
			case *array.Int32Builder:
				fb.Append(v.Int32())
			case *array.Float32Builder:
				fb.Append(v.Float32())
			case *array.StringBuilder:
				fb.Append(v.Str())
			}
		}
	}

	record := b.NewRecord()
	defer record.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(sc, w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := writer.Write(record); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write parquet record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

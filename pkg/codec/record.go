package codec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ssargent/dbcforge/pkg/schema"
)

// FieldSize is the on-disk width of every column.
const FieldSize = 4

// RecordCodec converts between fixed-width record bytes and Records for one
// schema. It holds no mutable state and is safe for concurrent use.
type RecordCodec struct {
	schema *schema.Schema
}

// NewRecordCodec creates a codec for records laid out by s.
func NewRecordCodec(s *schema.Schema) *RecordCodec {
	return &RecordCodec{schema: s}
}

// Schema returns the layout the codec was built for.
func (c *RecordCodec) Schema() *schema.Schema {
	return c.schema
}

// Size returns the encoded length of one record.
func (c *RecordCodec) Size() int {
	return len(c.schema.Fields) * FieldSize
}

// Decode reads one record from the start of data. String columns are resolved
// through strs; numeric columns keep their raw bits.
func (c *RecordCodec) Decode(data []byte, strs *StringTable) (Record, error) {
	if len(data) < c.Size() {
		return nil, fmt.Errorf("data too short for record: %d < %d: %w", len(data), c.Size(), io.ErrUnexpectedEOF)
	}

	rec := make(Record, len(c.schema.Fields))
	for j := range rec {
		raw := binary.LittleEndian.Uint32(data[j*FieldSize:])

		switch kind := c.schema.FieldKind(j); kind {
		case schema.KindString:
			s, err := strs.Lookup(raw)
			if err != nil {
				return nil, fmt.Errorf("field %d: %w", j, err)
			}
			rec[j] = String(s)
		case schema.KindInt32:
			rec[j] = Int32(int32(raw))
		case schema.KindFloat32:
			rec[j] = Float32Bits(raw)
		case schema.KindUint32, schema.KindUnknown:
			rec[j] = Uint32(raw)
		default:
			rec[j] = Uint32(raw)
		}
	}
	return rec, nil
}

// Encode writes rec into dst, which must hold at least Size bytes. String
// columns are written as their offset in heap, which must already contain
// every non-empty string of rec.
func (c *RecordCodec) Encode(dst []byte, rec Record, heap *Heap) error {
	if len(rec) != len(c.schema.Fields) {
		return fmt.Errorf("%w: record has %d fields, schema has %d", ErrSchemaMismatch, len(rec), len(c.schema.Fields))
	}
	if len(dst) < c.Size() {
		return fmt.Errorf("buffer too short for record: %d < %d", len(dst), c.Size())
	}

	for j, v := range rec {
		var raw uint32

		switch kind := c.schema.FieldKind(j); kind {
		case schema.KindString:
			if !v.Kind().IsString() {
				return &KindError{Field: j, Column: kind, Value: v.Kind()}
			}
			off, ok := heap.Offset(v.Str())
			if !ok {
				return fmt.Errorf("field %d %q: %w", j, v.Str(), errMissingOffset)
			}
			raw = off
		case schema.KindUint32, schema.KindInt32, schema.KindFloat32, schema.KindUnknown:
			if v.Kind().IsString() {
				return &KindError{Field: j, Column: kind, Value: v.Kind()}
			}
			raw = v.Bits()
		default:
			raw = v.Bits()
		}

		binary.LittleEndian.PutUint32(dst[j*FieldSize:], raw)
	}
	return nil
}

// Append encodes rec onto the end of dst.
func (c *RecordCodec) Append(dst []byte, rec Record, heap *Heap) ([]byte, error) {
	n := len(dst)
	dst = append(dst, make([]byte, c.Size())...)
	if err := c.Encode(dst[n:], rec, heap); err != nil {
		return dst[:n], err
	}
	return dst, nil
}

package export

import (
	"fmt"
	"io"
	"math"

	jsoniter "github.com/json-iterator/go"

	"github.com/ssargent/dbcforge/pkg/codec"
	"github.com/ssargent/dbcforge/pkg/schema"
)

const jsonFlushThreshold = 64 * 1024

// WriteJSON writes the table as an array of objects keyed by field name, in
// schema order. NaN and infinite floats, which JSON cannot represent as
// numbers, are written as strings.
func WriteJSON(w io.Writer, d Dataset) error {
	stream := jsoniter.NewStream(jsoniter.ConfigCompatibleWithStandardLibrary, w, 4096)
	names := d.Schema.FieldNames()

	stream.WriteArrayStart()
	for i, rec := range d.Table {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectStart()
		for j := 0; j < len(names) && j < len(rec); j++ {
			if j > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(names[j])
			writeJSONValue(stream, rec[j])
		}
		stream.WriteObjectEnd()

		if stream.Buffered() > jsonFlushThreshold {
			if err := stream.Flush(); err != nil {
				return fmt.Errorf("failed to write json: %w", err)
			}
		}
	}
	stream.WriteArrayEnd()
	stream.WriteRaw("\n")

	if stream.Error != nil {
		return fmt.Errorf("failed to encode json: %w", stream.Error)
	}
	if err := stream.Flush(); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}
	return nil
}

func writeJSONValue(stream *jsoniter.Stream, v codec.Value) {
	switch v.Kind() {
	case schema.KindString:
		stream.WriteString(v.Str())
	case schema.KindInt32:
		stream.WriteInt32(v.Int32())
	case schema.KindFloat32:
		f := float64(v.Float32())
		if math.IsNaN(f) || math.IsInf(f, 0) {
			stream.WriteString(v.Text())
			return
		}
		stream.WriteFloat32(v.Float32())
	default:
		stream.WriteUint32(v.Uint32())
	}
}

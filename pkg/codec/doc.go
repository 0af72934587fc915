// Package codec provides field, string heap and record serialization for DBC
// tables.
//
// A DBC file stores its rows as fixed-width records of 4-byte little-endian
// columns followed by a heap of NUL-terminated strings. This package handles
// everything below the file header: interpreting one record's columns
// according to a schema, and translating between string columns and heap
// offsets in both directions.
//
// # Column Encoding
//
// Every column occupies exactly four bytes:
//
//	uint    raw uint32
//	int     int32 two's complement bits
//	float   IEEE-754 single precision bits
//	string  uint32 byte offset into the string heap
//	unknown read and written exactly like uint
//
// Float columns are never converted numerically. The raw pattern is kept in
// the Value and written back unchanged, so NaN payloads and negative zero
// survive a decode/encode round trip.
//
// # String Heap
//
// The heap is a run of NUL-terminated strings. Offset 0 always holds the empty
// string: on write the heap starts with a single NUL and empty strings are
// never stored. Non-empty strings are stored once each, at the offset where
// they were first encountered while walking records in order and fields in
// order within each record.
//
//	heap := codec.NewHeap()
//	off, _ := heap.Add("Fireball") // 1
//	off, _ = heap.Add("Fireball")  // 1 again
//
// On read, ParseStringBlock splits the block on NUL and indexes each segment
// by its starting offset. A string column whose offset is not the start of a
// segment fails with ErrCorruptStringOffset.
//
// # Usage
//
//	s := schema.Default("Spell", 2)
//	rc := codec.NewRecordCodec(s)
//
//	heap, err := codec.BuildHeap(table, s)
//	if err != nil {
//	    return err
//	}
//	buf, err := rc.Append(nil, table[0], heap)
//
//	strs := codec.ParseStringBlock(heap.Bytes())
//	rec, err := rc.Decode(buf, strs)
//
// # Error Handling
//
// ErrCorruptStringOffset and ErrSchemaMismatch are sentinels; the concrete
// *OffsetError and *KindError carry detail and unwrap to them, so callers
// match with errors.Is.
//
// # Thread Safety
//
// RecordCodec and StringTable are read-only after construction and safe for
// concurrent use. Heap is not.
package codec

package codec

import (
	"bytes"
	"strings"

	"github.com/ssargent/dbcforge/pkg/schema"
)

// StringTable resolves heap offsets read from string columns.
//
// The heap is a run of NUL-terminated strings. Splitting it on NUL gives the
// segments in order; segment i starts at the offset of segment i-1 plus that
// segment's length plus one for its terminator, with segment 0 at offset 0.
// Only those start offsets resolve.
type StringTable struct {
	entries map[uint32]string
	size    int
}

// ParseStringBlock indexes every string in a raw heap block.
func ParseStringBlock(block []byte) *StringTable {
	segments := bytes.Split(block, []byte{0})
	t := &StringTable{
		entries: make(map[uint32]string, len(segments)),
		size:    len(block),
	}

	var offset uint32
	for _, seg := range segments {
		t.entries[offset] = string(seg)
		offset += uint32(len(seg)) + 1
	}
	return t
}

// Lookup returns the string starting at offset.
func (t *StringTable) Lookup(offset uint32) (string, error) {
	s, ok := t.entries[offset]
	if !ok {
		return "", &OffsetError{Offset: offset}
	}
	return s, nil
}

// Len returns the number of indexed strings.
func (t *StringTable) Len() int {
	return len(t.entries)
}

// Size returns the byte length of the parsed block.
func (t *StringTable) Size() int {
	return t.size
}

// Heap is the string block being assembled for writing. It always starts with
// a single NUL so that offset 0 is the empty string, and stores each distinct
// non-empty string once, at the offset it was first added.
type Heap struct {
	buf     []byte
	offsets map[string]uint32
}

// NewHeap returns a heap holding only the reserved empty string.
func NewHeap() *Heap {
	return &Heap{
		buf:     []byte{0},
		offsets: make(map[string]uint32),
	}
}

// Add places s in the heap if it is not there yet and returns its offset.
// The empty string is never stored and always lives at offset 0.
func (h *Heap) Add(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	if off, ok := h.offsets[s]; ok {
		return off, nil
	}
	if strings.IndexByte(s, 0) >= 0 {
		return 0, ErrEmbeddedNUL
	}

	off := uint32(len(h.buf))
	h.buf = append(h.buf, s...)
	h.buf = append(h.buf, 0)
	h.offsets[s] = off
	return off, nil
}

// Offset returns the offset assigned to s.
func (h *Heap) Offset(s string) (uint32, bool) {
	if s == "" {
		return 0, true
	}
	off, ok := h.offsets[s]
	return off, ok
}

// Bytes returns the heap block. The slice is owned by the heap.
func (h *Heap) Bytes() []byte {
	return h.buf
}

// Len returns the byte length of the heap block.
func (h *Heap) Len() int {
	return len(h.buf)
}

// Count returns the number of distinct non-empty strings stored.
func (h *Heap) Count() int {
	return len(h.offsets)
}

// BuildHeap collects the strings of every string column of t, visiting
// records in order and, within a record, fields in order, so offsets are
// assigned in first-encounter order.
func BuildHeap(t Table, s *schema.Schema) (*Heap, error) {
	h := NewHeap()
	if !s.HasStrings() {
		return h, nil
	}

	for _, rec := range t {
		for j, v := range rec {
			if !s.FieldKind(j).IsString() {
				continue
			}
			if _, err := h.Add(v.Str()); err != nil {
				return nil, err
			}
		}
	}
	return h, nil
}

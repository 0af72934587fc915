package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ssargent/dbcforge/pkg/schema"
)

func TestParseStringBlock_Offsets(t *testing.T) {
	testCases := []struct {
		name  string
		block []byte
		want  map[uint32]string
	}{
		{
			name:  "empty block",
			block: nil,
			want:  map[uint32]string{0: ""},
		},
		{
			name:  "single NUL",
			block: []byte{0},
			want:  map[uint32]string{0: "", 1: ""},
		},
		{
			name:  "padded heap",
			block: []byte{0x00, 0x41, 0x42, 0x00, 0x00},
			want:  map[uint32]string{0: "", 1: "AB", 4: "", 5: ""},
		},
		{
			name:  "several strings",
			block: []byte("\x00one\x00three\x00\x00x\x00"),
			want:  map[uint32]string{0: "", 1: "one", 5: "three", 11: "", 12: "x", 14: ""},
		},
		{
			name:  "unterminated tail",
			block: []byte("\x00abc"),
			want:  map[uint32]string{0: "", 1: "abc"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			strs := ParseStringBlock(tc.block)
			if strs.Len() != len(tc.want) {
				t.Errorf("Len: got %d, want %d", strs.Len(), len(tc.want))
			}
			if strs.Size() != len(tc.block) {
				t.Errorf("Size: got %d, want %d", strs.Size(), len(tc.block))
			}
			for off, want := range tc.want {
				got, err := strs.Lookup(off)
				if err != nil {
					t.Errorf("Lookup(%d) failed: %v", off, err)
					continue
				}
				if got != want {
					t.Errorf("Lookup(%d): got %q, want %q", off, got, want)
				}
			}
		})
	}
}

func TestStringTable_LookupMiss(t *testing.T) {
	strs := ParseStringBlock([]byte("\x00hello\x00"))

	for _, off := range []uint32{2, 3, 6, 100} {
		_, err := strs.Lookup(off)
		if !errors.Is(err, ErrCorruptStringOffset) {
			t.Errorf("Lookup(%d): expected ErrCorruptStringOffset, got %v", off, err)
		}
	}
}

func TestHeap_Dedupe(t *testing.T) {
	h := NewHeap()

	if h.Len() != 1 || h.Bytes()[0] != 0 {
		t.Fatalf("new heap must be a single NUL, got % X", h.Bytes())
	}

	a, _ := h.Add("alpha")
	b, _ := h.Add("beta")
	a2, _ := h.Add("alpha")
	e, _ := h.Add("")

	if a != 1 || b != 7 || a2 != a || e != 0 {
		t.Errorf("offsets: alpha=%d beta=%d alpha again=%d empty=%d", a, b, a2, e)
	}
	if h.Count() != 2 {
		t.Errorf("Count: got %d, want 2", h.Count())
	}
	if want := []byte("\x00alpha\x00beta\x00"); !bytes.Equal(h.Bytes(), want) {
		t.Errorf("Bytes: got %q, want %q", h.Bytes(), want)
	}

	if off, ok := h.Offset("beta"); !ok || off != 7 {
		t.Errorf("Offset(beta): got %d %v", off, ok)
	}
	if off, ok := h.Offset(""); !ok || off != 0 {
		t.Errorf("Offset(empty): got %d %v", off, ok)
	}
	if _, ok := h.Offset("gamma"); ok {
		t.Error("Offset(gamma) should miss")
	}
}

func TestHeap_RejectsNUL(t *testing.T) {
	h := NewHeap()
	if _, err := h.Add("a\x00b"); !errors.Is(err, ErrEmbeddedNUL) {
		t.Errorf("expected ErrEmbeddedNUL, got %v", err)
	}
	if h.Len() != 1 {
		t.Errorf("rejected string must not be stored, heap is % X", h.Bytes())
	}
}

func TestBuildHeap_Order(t *testing.T) {
	s := &schema.Schema{Fields: []schema.FieldDescriptor{
		{Kind: schema.KindString},
		{Kind: schema.KindUint32},
		{Kind: schema.KindString},
	}}
	table := Table{
		{String("b"), Uint32(1), String("a")},
		{String("c"), Uint32(2), String("b")},
		{String(""), Uint32(3), String("c")},
	}

	h, err := BuildHeap(table, s)
	if err != nil {
		t.Fatalf("BuildHeap failed: %v", err)
	}

	// record-major: b, a, c
	if want := []byte("\x00b\x00a\x00c\x00"); !bytes.Equal(h.Bytes(), want) {
		t.Errorf("heap: got %q, want %q", h.Bytes(), want)
	}
}

func TestBuildHeap_SharedString(t *testing.T) {
	s := &schema.Schema{Fields: []schema.FieldDescriptor{{Kind: schema.KindString}}}
	table := Table{{String("Shared")}, {String("Shared")}}

	h, err := BuildHeap(table, s)
	if err != nil {
		t.Fatalf("BuildHeap failed: %v", err)
	}
	if h.Count() != 1 {
		t.Errorf("expected one heap entry, got %d", h.Count())
	}
	if n := bytes.Count(h.Bytes(), []byte("Shared")); n != 1 {
		t.Errorf("string stored %d times", n)
	}
}

func TestBuildHeap_AllEmpty(t *testing.T) {
	s := &schema.Schema{Fields: []schema.FieldDescriptor{{Kind: schema.KindString}, {Kind: schema.KindString}}}
	table := Table{{String(""), String("")}, {String(""), String("")}}

	h, err := BuildHeap(table, s)
	if err != nil {
		t.Fatalf("BuildHeap failed: %v", err)
	}
	if !bytes.Equal(h.Bytes(), []byte{0}) {
		t.Errorf("heap: got % X, want 00", h.Bytes())
	}
}

func TestBuildHeap_NoStringColumns(t *testing.T) {
	h, err := BuildHeap(Table{{Uint32(1)}}, schema.Default("x", 1))
	if err != nil {
		t.Fatalf("BuildHeap failed: %v", err)
	}
	if h.Len() != 1 {
		t.Errorf("heap length: got %d, want 1", h.Len())
	}
}

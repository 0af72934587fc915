package codec

import (
	"errors"
	"math"
	"testing"

	"github.com/ssargent/dbcforge/pkg/schema"
)

func TestValue_Text(t *testing.T) {
	testCases := []struct {
		name string
		v    Value
		want string
	}{
		{"uint", Uint32(4294967295), "4294967295"},
		{"int", Int32(-17), "-17"},
		{"float", Float32(0.1), "0.1"},
		{"float integral", Float32(2), "2"},
		{"float NaN", Float32Bits(0xFFFFFFFF), "NaN"},
		{"string", String("Hearthstone"), "Hearthstone"},
		{"zero value", Value{}, "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.v.Text(); got != tc.want {
				t.Errorf("Text: got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	testCases := []struct {
		name    string
		kind    schema.FieldKind
		text    string
		want    Value
		wantErr bool
	}{
		{"uint", schema.KindUint32, "42", Uint32(42), false},
		{"uint trims", schema.KindUint32, " 7 ", Uint32(7), false},
		{"unknown parses as uint", schema.KindUnknown, "9", Uint32(9), false},
		{"uint negative", schema.KindUint32, "-1", Value{}, true},
		{"uint overflow", schema.KindUint32, "4294967296", Value{}, true},
		{"int", schema.KindInt32, "-2147483648", Int32(math.MinInt32), false},
		{"int garbage", schema.KindInt32, "ten", Value{}, true},
		{"float", schema.KindFloat32, "1.5", Float32(1.5), false},
		{"float bits", schema.KindFloat32, "0xFFFFFFFF", Float32Bits(0xFFFFFFFF), false},
		{"float bad bits", schema.KindFloat32, "0xZZ", Value{}, true},
		{"float garbage", schema.KindFloat32, "fast", Value{}, true},
		{"string keeps spaces", schema.KindString, " a b ", String(" a b "), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseValue(tc.kind, tc.text)
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error, got %#v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseValue failed: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("got %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestValue_TextRoundTrip(t *testing.T) {
	for _, f := range []float32{0, 1.0 / 3, -250.125, math.SmallestNonzeroFloat32, math.MaxFloat32} {
		v := Float32(f)
		back, err := ParseValue(schema.KindFloat32, v.Text())
		if err != nil {
			t.Fatalf("ParseValue(%q) failed: %v", v.Text(), err)
		}
		if back.Bits() != v.Bits() {
			t.Errorf("%v: text %q read back as bits 0x%08X, want 0x%08X", f, v.Text(), back.Bits(), v.Bits())
		}
	}
}

func TestTable_Set(t *testing.T) {
	s := &schema.Schema{Fields: []schema.FieldDescriptor{{Kind: schema.KindUint32}, {Kind: schema.KindString}}}
	table := Table{{Uint32(1), String("a")}}

	if err := table.Set(s, 0, 1, String("b")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := table.SetText(s, 0, 0, "99"); err != nil {
		t.Fatalf("SetText failed: %v", err)
	}
	if want := (Record{Uint32(99), String("b")}); !table[0].Equal(want) {
		t.Errorf("got %#v, want %#v", table[0], want)
	}

	if err := table.Set(s, 0, 1, Uint32(3)); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch, got %v", err)
	}
	if err := table.Set(s, 1, 0, Uint32(3)); err == nil {
		t.Error("expected record range error")
	}
	if err := table.Set(s, 0, 2, Uint32(3)); err == nil {
		t.Error("expected field range error")
	}
	if err := table.SetText(s, 0, 0, "x"); err == nil {
		t.Error("expected parse error")
	}
}

func TestTable_SetNumericKind(t *testing.T) {
	s := &schema.Schema{Fields: []schema.FieldDescriptor{
		{Kind: schema.KindInt32},
		{Kind: schema.KindUint32},
		{Kind: schema.KindFloat32},
		{Kind: schema.KindUnknown},
	}}
	table := Table{{Int32(-1), Uint32(1), Float32(0.5), Uint32(7)}}
	orig := table.Clone()

	tests := []struct {
		name  string
		field int
		value Value
	}{
		{"float into int column", 0, Float32(1.5)},
		{"int into uint column", 1, Int32(-2)},
		{"uint into float column", 2, Uint32(0x3F800000)},
		{"int into unknown column", 3, Int32(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := table.Set(s, 0, tt.field, tt.value)
			if !errors.Is(err, ErrSchemaMismatch) {
				t.Fatalf("expected ErrSchemaMismatch, got %v", err)
			}
			var ke *KindError
			if !errors.As(err, &ke) || ke.Field != tt.field || ke.Value != tt.value.Kind() {
				t.Errorf("unexpected kind error %#v", err)
			}
		})
	}
	if !table.Equal(orig) {
		t.Fatalf("rejected sets changed the table: %#v", table[0])
	}

	if err := table.Set(s, 0, 3, Uint32(9)); err != nil {
		t.Fatalf("uint into unknown column: %v", err)
	}
	if err := table.SetText(s, 0, 3, "10"); err != nil {
		t.Fatalf("SetText into unknown column: %v", err)
	}
	if err := table.SetText(s, 0, 0, "-5"); err != nil {
		t.Fatalf("SetText into int column: %v", err)
	}
	if want := (Record{Int32(-5), Uint32(1), Float32(0.5), Uint32(10)}); !table[0].Equal(want) {
		t.Errorf("got %#v, want %#v", table[0], want)
	}
}

func TestTable_CloneAndEqual(t *testing.T) {
	table := Table{{Uint32(1), String("a")}, {Uint32(2), String("b")}}
	clone := table.Clone()

	if !clone.Equal(table) {
		t.Fatal("clone should equal the original")
	}

	clone[0][0] = Uint32(5)
	if table[0][0].Uint32() != 1 {
		t.Error("clone must not share record storage")
	}
	if clone.Equal(table) {
		t.Error("modified clone should differ")
	}
	if table.Equal(table[:1]) {
		t.Error("tables of different length should differ")
	}
	if (Record{Float32Bits(0x7FC00000)}).Equal(Record{Float32Bits(0x7FC00001)}) {
		t.Error("NaN payloads must compare by bits")
	}
}

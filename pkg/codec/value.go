package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ssargent/dbcforge/pkg/schema"
)

// Value is one decoded column. Numeric kinds keep their raw 32-bit pattern so
// that float columns survive a round trip bit for bit, NaN payloads included.
type Value struct {
	kind schema.FieldKind
	bits uint32
	str  string
}

// Uint32 returns an unsigned integer value.
func Uint32(v uint32) Value {
	return Value{kind: schema.KindUint32, bits: v}
}

// Int32 returns a signed integer value.
func Int32(v int32) Value {
	return Value{kind: schema.KindInt32, bits: uint32(v)}
}

// Float32 returns a float value.
func Float32(v float32) Value {
	return Value{kind: schema.KindFloat32, bits: math.Float32bits(v)}
}

// Float32Bits returns a float value with exactly the given IEEE-754 bit
// pattern.
func Float32Bits(bits uint32) Value {
	return Value{kind: schema.KindFloat32, bits: bits}
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: schema.KindString, str: s}
}

// Kind returns the value's kind. Values read from KindUnknown columns report
// KindUint32.
func (v Value) Kind() schema.FieldKind {
	return v.kind
}

// Bits returns the raw 32-bit pattern of a numeric value.
func (v Value) Bits() uint32 {
	return v.bits
}

// Uint32 returns the value as an unsigned integer.
func (v Value) Uint32() uint32 {
	return v.bits
}

// Int32 returns the value as a signed integer.
func (v Value) Int32() int32 {
	return int32(v.bits)
}

// Float32 reinterprets the raw bits as a float.
func (v Value) Float32() float32 {
	return math.Float32frombits(v.bits)
}

// Str returns the string of a string value and "" for numeric values.
func (v Value) Str() string {
	return v.str
}

// IsZero reports whether v is the zero of its kind: integer 0, the all-zero
// float pattern or the empty string.
func (v Value) IsZero() bool {
	if v.kind.IsString() {
		return v.str == ""
	}
	return v.bits == 0
}

// Text formats the value the way exporters and the CLI print it: integers as
// decimal, floats as the shortest decimal that reads back to the same float32,
// strings verbatim.
func (v Value) Text() string {
	switch v.kind {
	case schema.KindString:
		return v.str
	case schema.KindInt32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case schema.KindFloat32:
		return strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32)
	default:
		return strconv.FormatUint(uint64(v.bits), 10)
	}
}

// GoString is used by %#v and testify diffs.
func (v Value) GoString() string {
	if v.kind.IsString() {
		return fmt.Sprintf("String(%q)", v.str)
	}
	return fmt.Sprintf("%s(0x%08X)", v.kind, v.bits)
}

// Equal compares kind and content; floats compare by bit pattern.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.bits == o.bits && v.str == o.str
}

// ParseValue converts text to a value of the given kind. Float text may also
// be a raw bit pattern written as 0xXXXXXXXX.
func ParseValue(kind schema.FieldKind, text string) (Value, error) {
	switch kind {
	case schema.KindString:
		return String(text), nil
	case schema.KindInt32:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("invalid int value %q: %w", text, err)
		}
		return Int32(int32(n)), nil
	case schema.KindFloat32:
		t := strings.TrimSpace(text)
		if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
			n, err := strconv.ParseUint(t[2:], 16, 32)
			if err != nil {
				return Value{}, fmt.Errorf("invalid float bit pattern %q: %w", text, err)
			}
			return Float32Bits(uint32(n)), nil
		}
		f, err := strconv.ParseFloat(t, 32)
		if err != nil {
			return Value{}, fmt.Errorf("invalid float value %q: %w", text, err)
		}
		return Float32(float32(f)), nil
	default:
		n, err := strconv.ParseUint(strings.TrimSpace(text), 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("invalid uint value %q: %w", text, err)
		}
		return Uint32(uint32(n)), nil
	}
}

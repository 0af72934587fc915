package codec

import (
	"fmt"

	"github.com/ssargent/dbcforge/pkg/schema"
)

// Record is one row, positionally aligned with its schema.
type Record []Value

// Equal compares two records field by field.
func (r Record) Equal(o Record) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if !r[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Table is the decoded record block.
type Table []Record

// Equal compares two tables record by record.
func (t Table) Equal(o Table) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if !t[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for i, rec := range t {
		out[i] = append(Record(nil), rec...)
	}
	return out
}

// Set replaces one field. The value must fit the column kind in s: strings
// go in string columns and numbers everywhere else.
func (t Table) Set(s *schema.Schema, record, field int, v Value) error {
	if record < 0 || record >= len(t) {
		return fmt.Errorf("record %d out of range [0,%d)", record, len(t))
	}
	if field < 0 || field >= len(t[record]) {
		return fmt.Errorf("field %d out of range [0,%d)", field, len(t[record]))
	}

	kind := s.FieldKind(field)
	if v.Kind() != storedKind(kind) {
		return &KindError{Field: field, Column: kind, Value: v.Kind()}
	}
	t[record][field] = v
	return nil
}

// storedKind is the kind a decoded value of a column carries.
func storedKind(k schema.FieldKind) schema.FieldKind {
	if k == schema.KindUnknown {
		return schema.KindUint32
	}
	return k
}

// SetText parses text for the column kind of field and stores it.
func (t Table) SetText(s *schema.Schema, record, field int, text string) error {
	v, err := ParseValue(s.FieldKind(field), text)
	if err != nil {
		return err
	}
	return t.Set(s, record, field, v)
}

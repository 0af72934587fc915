// Package schema describes how the fixed-width columns of a DBC record are
// interpreted.
//
// A Schema is an ordered list of field descriptors, one per 4-byte column.
// Schemas are normally looked up by table name and client build in a Catalog;
// when no build is chosen, or the requested build is unknown, the Default
// schema (every column an unsigned 32-bit integer named Field1..FieldN) is
// used instead.
package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultBuild is the build identifier that selects the fieldCount-only
// default schema.
const DefaultBuild = "Default"

// FieldKind is the on-disk interpretation of a 4-byte column.
type FieldKind uint8

const (
	// KindUnknown marks a type tag the catalog did not recognise. Columns of
	// this kind are read and written exactly like KindUint32.
	KindUnknown FieldKind = iota
	KindUint32
	KindInt32
	KindFloat32
	KindString
)

// ParseKind maps a catalog type tag to a FieldKind. Both the long names used
// in catalog files and the single-letter tags of the legacy format file are
// accepted.
func ParseKind(tag string) FieldKind {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "uint", "u", "uint32":
		return KindUint32
	case "int", "i", "int32":
		return KindInt32
	case "float", "f", "float32":
		return KindFloat32
	case "string", "s", "str":
		return KindString
	default:
		return KindUnknown
	}
}

func (k FieldKind) String() string {
	switch k {
	case KindUint32:
		return "uint"
	case KindInt32:
		return "int"
	case KindFloat32:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// IsString reports whether the column holds a string heap offset.
func (k FieldKind) IsString() bool {
	return k == KindString
}

// FieldDescriptor describes a single column.
type FieldDescriptor struct {
	Kind    FieldKind
	Name    string
	Visible bool
}

// Schema is the ordered column layout of one table for one build.
type Schema struct {
	Table  string
	Build  string
	Fields []FieldDescriptor
}

// Default returns the fallback schema for a table with fieldCount columns.
func Default(table string, fieldCount uint32) *Schema {
	fields := make([]FieldDescriptor, fieldCount)
	for i := range fields {
		fields[i] = FieldDescriptor{
			Kind:    KindUint32,
			Name:    defaultFieldName(i),
			Visible: true,
		}
	}
	return &Schema{Table: table, Build: DefaultBuild, Fields: fields}
}

func defaultFieldName(i int) string {
	return fmt.Sprintf("Field%d", i+1)
}

// FieldCount returns the number of columns.
func (s *Schema) FieldCount() uint32 {
	return uint32(len(s.Fields))
}

// FieldKind returns the kind of column i. Indexes outside the schema report
// KindUnknown, which codecs treat as an unsigned integer.
func (s *Schema) FieldKind(i int) FieldKind {
	if i < 0 || i >= len(s.Fields) {
		return KindUnknown
	}
	return s.Fields[i].Kind
}

// FieldName returns the name of column i, or the default FieldN name when i
// is outside the schema.
func (s *Schema) FieldName(i int) string {
	if i < 0 || i >= len(s.Fields) {
		return defaultFieldName(i)
	}
	return s.Fields[i].Name
}

// FieldNames returns every column name in order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// HasStrings reports whether any column is a string reference.
func (s *Schema) HasStrings() bool {
	for _, f := range s.Fields {
		if f.Kind.IsString() {
			return true
		}
	}
	return false
}

// IsDefault reports whether s is the fieldCount-only fallback schema.
func (s *Schema) IsDefault() bool {
	return s.Build == DefaultBuild
}

// FieldIndex resolves a column reference: a decimal index, or a field name
// matched exactly and then case-insensitively.
func (s *Schema) FieldIndex(ref string) (int, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		if i < 0 || i >= len(s.Fields) {
			return 0, fmt.Errorf("field %d out of range [0,%d)", i, len(s.Fields))
		}
		return i, nil
	}
	for i, f := range s.Fields {
		if f.Name == ref {
			return i, nil
		}
	}
	for i, f := range s.Fields {
		if strings.EqualFold(f.Name, ref) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no field named %q", ref)
}

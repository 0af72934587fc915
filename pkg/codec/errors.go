package codec

import (
	"errors"
	"fmt"

	"github.com/ssargent/dbcforge/pkg/schema"
)

var (
	// ErrCorruptStringOffset is returned when a string column points at a heap
	// position that is not the start of a string.
	ErrCorruptStringOffset = errors.New("corrupt string offset")

	// ErrSchemaMismatch is returned when a record's shape disagrees with the
	// schema or with the other records of its table.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrEmbeddedNUL is returned when a string to be written contains a NUL
	// byte, which the heap uses as its terminator.
	ErrEmbeddedNUL = errors.New("string contains NUL byte")

	errMissingOffset = errors.New("string was not placed in the heap")
)

// OffsetError reports an unresolvable heap offset.
type OffsetError struct {
	Offset uint32
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("%v: no string starts at heap offset %d", ErrCorruptStringOffset, e.Offset)
}

func (e *OffsetError) Unwrap() error {
	return ErrCorruptStringOffset
}

// KindError reports a value whose kind cannot be stored in its column.
type KindError struct {
	Field  int
	Column schema.FieldKind
	Value  schema.FieldKind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%v: field %d is %s but value is %s", ErrSchemaMismatch, e.Field, e.Column, e.Value)
}

func (e *KindError) Unwrap() error {
	return ErrSchemaMismatch
}

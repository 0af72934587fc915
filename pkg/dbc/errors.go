package dbc

import (
	"errors"
	"fmt"

	"github.com/ssargent/dbcforge/pkg/codec"
)

var (
	// ErrIO covers open, read and write failures, and input that ends
	// before the sizes in its header say it should.
	ErrIO = errors.New("dbc i/o error")

	// ErrBadMagic is returned when the file does not start with "WDBC".
	ErrBadMagic = errors.New("bad magic: not a WDBC file")

	// ErrCorruptStringOffset is returned when a string column has no
	// matching heap entry.
	ErrCorruptStringOffset = codec.ErrCorruptStringOffset

	// ErrSchemaMismatch is returned when record shapes disagree with the
	// schema or with each other.
	ErrSchemaMismatch = codec.ErrSchemaMismatch

	// ErrNotLoaded is returned when saving a File that holds no table.
	ErrNotLoaded = errors.New("dbc file not loaded")
)

// MagicError carries the tag that was found instead of "WDBC".
type MagicError struct {
	Got uint32
}

func (e *MagicError) Error() string {
	return fmt.Sprintf("%v (got 0x%08X)", ErrBadMagic, e.Got)
}

func (e *MagicError) Unwrap() error {
	return ErrBadMagic
}

// MismatchError reports a record whose field count differs from the table's.
type MismatchError struct {
	Record int
	Got    int
	Want   int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v: record %d has %d fields, want %d", ErrSchemaMismatch, e.Record, e.Got, e.Want)
}

func (e *MismatchError) Unwrap() error {
	return ErrSchemaMismatch
}

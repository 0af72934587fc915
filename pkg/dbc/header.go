package dbc

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ssargent/dbcforge/pkg/codec"
)

const (
	// Magic is the tag "WDBC" read as a little-endian uint32.
	Magic uint32 = 0x43424457

	// HeaderSize is the fixed length of the file header.
	HeaderSize = 20
)

// Header is the 20-byte preamble of a DBC file.
type Header struct {
	Magic           uint32
	RecordCount     uint32
	FieldCount      uint32
	RecordSize      uint32
	StringBlockSize uint32
}

// ParseHeader reads and checks the header at the start of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: data too short for header: %d < %d: %w", ErrIO, len(data), HeaderSize, io.ErrUnexpectedEOF)
	}

	h := Header{
		Magic:           binary.LittleEndian.Uint32(data[0:4]),
		RecordCount:     binary.LittleEndian.Uint32(data[4:8]),
		FieldCount:      binary.LittleEndian.Uint32(data[8:12]),
		RecordSize:      binary.LittleEndian.Uint32(data[12:16]),
		StringBlockSize: binary.LittleEndian.Uint32(data[16:20]),
	}
	if h.Magic != Magic {
		return Header{}, &MagicError{Got: h.Magic}
	}
	return h, nil
}

// AppendBinary appends the encoded header to dst.
func (h Header) AppendBinary(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, h.Magic)
	dst = binary.LittleEndian.AppendUint32(dst, h.RecordCount)
	dst = binary.LittleEndian.AppendUint32(dst, h.FieldCount)
	dst = binary.LittleEndian.AppendUint32(dst, h.RecordSize)
	dst = binary.LittleEndian.AppendUint32(dst, h.StringBlockSize)
	return dst
}

// FileSize returns the total encoded length the header describes.
func (h Header) FileSize() int64 {
	return HeaderSize + int64(h.RecordCount)*int64(h.RecordSize) + int64(h.StringBlockSize)
}

// newHeader derives a header from the table shape and heap length.
func newHeader(records int, fields uint32, heapLen int) Header {
	return Header{
		Magic:           Magic,
		RecordCount:     uint32(records),
		FieldCount:      fields,
		RecordSize:      fields * codec.FieldSize,
		StringBlockSize: uint32(heapLen),
	}
}

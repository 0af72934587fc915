package dbc

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ssargent/dbcforge/pkg/codec"
	"github.com/ssargent/dbcforge/pkg/schema"
)

// SchemaLoader resolves the column layout of a table. *schema.Catalog
// satisfies it.
type SchemaLoader interface {
	Load(table, build string, fieldCount uint32) *schema.Schema
}

// State is the load state of a File.
type State int

const (
	Unloaded State = iota
	Loaded
)

func (s State) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "unloaded"
}

// File owns the header, schema and records of one DBC table between a decode
// and the following encode. A File is not safe for concurrent use; callers
// run at most one operation on it at a time.
type File struct {
	name     string
	build    string
	loader   SchemaLoader
	fixed    *schema.Schema
	observer Observer

	header Header
	schema *schema.Schema
	table  codec.Table
	state  State
}

// Option configures a File.
type Option func(*File)

// WithLoader sets where schemas are looked up by table name and build.
func WithLoader(l SchemaLoader) Option {
	return func(f *File) {
		f.loader = l
	}
}

// WithSchema pins the schema instead of looking it up.
func WithSchema(s *schema.Schema) Option {
	return func(f *File) {
		f.fixed = s
	}
}

// WithObserver receives record-by-record progress.
func WithObserver(o Observer) Option {
	return func(f *File) {
		if o == nil {
			o = nopObserver{}
		}
		f.observer = o
	}
}

// NewFile creates an unloaded File for the named table. build selects the
// schema; "" or schema.DefaultBuild uses the all-uint default.
func NewFile(name, build string, opts ...Option) *File {
	f := &File{
		name:     name,
		build:    build,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// TableName derives a table name from a file path: the base name up to its
// first dot, so "dbc/Spell.dbc" is "Spell".
func TableName(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}

// Name returns the table name used for schema lookup.
func (f *File) Name() string { return f.name }

// Build returns the build used for schema lookup.
func (f *File) Build() string { return f.build }

// State reports whether the File holds a decoded table.
func (f *File) State() State { return f.state }

// Header returns the header of the last successful decode or encode.
func (f *File) Header() Header { return f.header }

// Schema returns the schema of the loaded table, or nil.
func (f *File) Schema() *schema.Schema { return f.schema }

// Table returns the loaded records. The editor may modify them in place
// before the next encode.
func (f *File) Table() codec.Table { return f.table }

// SetTable replaces the records and schema to be encoded and marks the File
// loaded. A nil schema keeps the current one.
func (f *File) SetTable(t codec.Table, s *schema.Schema) {
	if s != nil {
		f.schema = s
	}
	f.table = t
	f.state = Loaded
}

// Load reads and decodes the file at path. An empty table name is derived
// from the path.
func (f *File) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		f.reset()
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if f.name == "" {
		f.name = TableName(path)
	}
	return f.Decode(data)
}

// Decode parses a complete DBC image. On failure the File is left unloaded
// and exposes no partial table.
func (f *File) Decode(data []byte) error {
	h, err := ParseHeader(data)
	if err == nil {
		err = checkBounds(h, len(data))
	}
	if err != nil {
		f.reset()
		return err
	}

	s := f.resolveSchema(h.FieldCount)
	table, err := decodeBody(data, h, s, f.observer)
	if err != nil {
		f.reset()
		return err
	}

	f.header = h
	f.schema = s
	f.table = table
	f.state = Loaded
	return nil
}

// MarshalBinary encodes the loaded table. The header is recomputed from the
// table and stored on success.
func (f *File) MarshalBinary() ([]byte, error) {
	if f.state != Loaded {
		return nil, ErrNotLoaded
	}

	data, h, err := encode(f.table, f.schema, f.observer)
	if err != nil {
		return nil, err
	}
	f.header = h
	return data, nil
}

// Encode writes the loaded table to w. Nothing is written if encoding fails.
func (f *File) Encode(w io.Writer) error {
	data, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// Save encodes the loaded table and writes it to path, replacing any
// existing file.
func (f *File) Save(path string) error {
	data, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

func (f *File) resolveSchema(fieldCount uint32) *schema.Schema {
	switch {
	case f.fixed != nil:
		return f.fixed
	case f.loader != nil:
		return f.loader.Load(f.name, f.build, fieldCount)
	default:
		return schema.Default(f.name, fieldCount)
	}
}

func (f *File) reset() {
	f.header = Header{}
	f.schema = nil
	f.table = nil
	f.state = Unloaded
}

// Decode parses a DBC image with a known schema. A nil schema selects the
// default layout for the header's field count.
func Decode(data []byte, s *schema.Schema) (Header, codec.Table, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return Header{}, nil, err
	}
	if err := checkBounds(h, len(data)); err != nil {
		return Header{}, nil, err
	}
	if s == nil {
		s = schema.Default("", h.FieldCount)
	}
	table, err := decodeBody(data, h, s, nopObserver{})
	if err != nil {
		return Header{}, nil, err
	}
	return h, table, nil
}

// Encode serializes t with schema s. A nil schema treats every column as
// uint.
func Encode(t codec.Table, s *schema.Schema) ([]byte, error) {
	data, _, err := encode(t, s, nopObserver{})
	return data, err
}

// checkBounds validates the header sizes against the input length before
// anything is allocated from them.
func checkBounds(h Header, size int) error {
	if uint64(h.FieldCount)*codec.FieldSize > uint64(h.RecordSize) {
		return fmt.Errorf("%w: record size %d too small for %d fields",
			ErrSchemaMismatch, h.RecordSize, h.FieldCount)
	}
	if h.RecordSize == 0 && h.RecordCount > 0 {
		return fmt.Errorf("%w: %d records of zero width", ErrSchemaMismatch, h.RecordCount)
	}

	end := uint64(HeaderSize) + uint64(h.RecordCount)*uint64(h.RecordSize)
	if end > uint64(size) {
		return fmt.Errorf("%w: record block ends at %d, file is %d bytes: %w",
			ErrIO, end, size, io.ErrUnexpectedEOF)
	}
	if uint64(h.StringBlockSize) > uint64(size-HeaderSize) {
		return fmt.Errorf("%w: string block of %d bytes exceeds file: %w",
			ErrIO, h.StringBlockSize, io.ErrUnexpectedEOF)
	}
	return nil
}

func decodeBody(data []byte, h Header, s *schema.Schema, obs Observer) (codec.Table, error) {
	start := time.Now()

	if s.FieldCount() != h.FieldCount {
		return nil, fmt.Errorf("%w: schema %s/%s has %d fields, file has %d",
			ErrSchemaMismatch, s.Table, s.Build, s.FieldCount(), h.FieldCount)
	}
	rc := codec.NewRecordCodec(s)
	if int64(h.RecordSize) < int64(rc.Size()) {
		return nil, fmt.Errorf("%w: record size %d too small for %d fields",
			ErrSchemaMismatch, h.RecordSize, h.FieldCount)
	}

	strs := codec.ParseStringBlock(data[len(data)-int(h.StringBlockSize):])

	obs.Begin(OpDecode, int(h.RecordCount))
	table := make(codec.Table, h.RecordCount)
	off := HeaderSize
	for i := range table {
		rec, err := rc.Decode(data[off:off+int(h.RecordSize)], strs)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		table[i] = rec
		off += int(h.RecordSize)
		obs.Step(OpDecode, i+1)
	}
	obs.End(OpDecode, time.Since(start))

	return table, nil
}

func encode(t codec.Table, s *schema.Schema, obs Observer) ([]byte, Header, error) {
	start := time.Now()

	var fieldCount uint32
	switch {
	case len(t) > 0:
		fieldCount = uint32(len(t[0]))
	case s != nil:
		fieldCount = s.FieldCount()
	}
	if s == nil {
		s = schema.Default("", fieldCount)
	}

	if len(t) > 0 && fieldCount == 0 {
		return nil, Header{}, fmt.Errorf("%w: %d records of zero width", ErrSchemaMismatch, len(t))
	}
	for i, rec := range t {
		if uint32(len(rec)) != fieldCount {
			return nil, Header{}, &MismatchError{Record: i, Got: len(rec), Want: int(fieldCount)}
		}
	}
	if s.FieldCount() != fieldCount {
		return nil, Header{}, fmt.Errorf("%w: records have %d fields, schema %s/%s has %d",
			ErrSchemaMismatch, fieldCount, s.Table, s.Build, s.FieldCount())
	}

	heap, err := codec.BuildHeap(t, s)
	if err != nil {
		return nil, Header{}, err
	}

	h := newHeader(len(t), fieldCount, heap.Len())
	rc := codec.NewRecordCodec(s)

	buf := make([]byte, 0, h.FileSize())
	buf = h.AppendBinary(buf)

	obs.Begin(OpEncode, len(t))
	for i, rec := range t {
		if buf, err = rc.Append(buf, rec, heap); err != nil {
			return nil, Header{}, fmt.Errorf("record %d: %w", i, err)
		}
		obs.Step(OpEncode, i+1)
	}
	buf = append(buf, heap.Bytes()...)
	obs.End(OpEncode, time.Since(start))

	return buf, h, nil
}

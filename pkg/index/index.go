// Package index looks up the records of a decoded table by the value of one
// column.
package index

import (
	"fmt"
	"math"

	"github.com/ssargent/dbcforge/pkg/bptree"
	"github.com/ssargent/dbcforge/pkg/codec"
	"github.com/ssargent/dbcforge/pkg/schema"
)

const treeOrder = 64

// Index maps the values of one column to the positions of the records that
// hold them. Numeric columns are ordered by value; string columns by byte
// order. NaN floats are not indexed.
type Index struct {
	field int
	kind  schema.FieldKind
	nums  *bptree.Tree[float64, []int]
	strs  *bptree.Tree[string, []int]
}

// Build indexes column field of t.
func Build(t codec.Table, s *schema.Schema, field int) (*Index, error) {
	if field < 0 || uint32(field) >= s.FieldCount() {
		return nil, fmt.Errorf("field %d out of range [0,%d)", field, s.FieldCount())
	}

	idx := &Index{field: field, kind: s.FieldKind(field)}
	if idx.kind.IsString() {
		idx.strs = bptree.New[string, []int](treeOrder)
	} else {
		idx.nums = bptree.New[float64, []int](treeOrder)
	}

	for i, rec := range t {
		if field >= len(rec) {
			return nil, fmt.Errorf("%w: record %d has %d fields", codec.ErrSchemaMismatch, i, len(rec))
		}
		idx.add(rec[field], i)
	}
	return idx, nil
}

// Field returns the indexed column.
func (idx *Index) Field() int { return idx.field }

// Len returns the number of distinct indexed values.
func (idx *Index) Len() int {
	if idx.strs != nil {
		return idx.strs.Len()
	}
	return idx.nums.Len()
}

// Lookup returns the records whose column equals text, parsed as the
// column's kind, in table order.
func (idx *Index) Lookup(text string) ([]int, error) {
	v, err := codec.ParseValue(idx.kind, text)
	if err != nil {
		return nil, err
	}
	var records []int
	if idx.strs != nil {
		records, _ = idx.strs.Search(v.Str())
	} else if k, ok := numericKey(v); ok {
		records, _ = idx.nums.Search(k)
	}
	return append([]int(nil), records...), nil
}

// Range returns the records whose column lies in [from, to], ordered by
// value and then by position.
func (idx *Index) Range(from, to string) ([]int, error) {
	lo, err := codec.ParseValue(idx.kind, from)
	if err != nil {
		return nil, err
	}
	hi, err := codec.ParseValue(idx.kind, to)
	if err != nil {
		return nil, err
	}

	var records []int
	if idx.strs != nil {
		idx.strs.Range(lo.Str(), hi.Str(), func(_ string, r []int) bool {
			records = append(records, r...)
			return true
		})
		return records, nil
	}

	lk, lok := numericKey(lo)
	hk, hok := numericKey(hi)
	if !lok || !hok {
		return nil, fmt.Errorf("NaN is not a valid range bound")
	}
	idx.nums.Range(lk, hk, func(_ float64, r []int) bool {
		records = append(records, r...)
		return true
	})
	return records, nil
}

func (idx *Index) add(v codec.Value, record int) {
	appendRecord := func(old []int, _ bool) []int { return append(old, record) }
	if idx.strs != nil {
		idx.strs.Update(v.Str(), appendRecord)
		return
	}
	if k, ok := numericKey(v); ok {
		idx.nums.Update(k, appendRecord)
	}
}

// numericKey orders every numeric kind on one float64 axis; uint32 and int32
// convert exactly.
func numericKey(v codec.Value) (float64, bool) {
	switch v.Kind() {
	case schema.KindInt32:
		return float64(v.Int32()), true
	case schema.KindFloat32:
		f := float64(v.Float32())
		if math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return float64(v.Uint32()), true
	}
}

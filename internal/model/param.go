package model

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/optlang/internal/diag"
)

// Parameter is a scalar parameter. Its value is a cty number, string or
// bool; a tuple-valued temporary additionally carries the instance itself.
type Parameter struct {
	Name       string
	Value      cty.Value
	Tuple      *TupleInstance
	IsExternal bool
}

// HasValue reports whether the parameter has been given a value yet.
func (p *Parameter) HasValue() bool {
	return p.Tuple != nil || p.Value != cty.NilVal
}

// IndexedParam is a parameter indexed by one or two index sets. Cell values
// are cty values so that numeric and tuple-valued indexed parameters share
// one representation.
type IndexedParam struct {
	Name        string
	Index       *IndexSet
	SecondIndex *IndexSet
	IsExternal  bool

	values map[string]cty.Value
}

// NewIndexedParam declares an indexed parameter over one or two index sets.
func NewIndexedParam(name string, index, second *IndexSet, external bool) *IndexedParam {
	return &IndexedParam{
		Name:        name,
		Index:       index,
		SecondIndex: second,
		IsExternal:  external,
		values:      make(map[string]cty.Value),
	}
}

// Dims returns 1 or 2.
func (p *IndexedParam) Dims() int {
	if p.SecondIndex != nil {
		return 2
	}
	return 1
}

func (p *IndexedParam) cellKey(i int, j *int) string {
	if j != nil {
		return fmt.Sprintf("%d,%d", i, *j)
	}
	return fmt.Sprintf("%d", i)
}

// SetValue stores a cell value, bounds-checked against the index sets.
func (p *IndexedParam) SetValue(i int, j *int, v cty.Value) error {
	if !p.Index.Contains(i) {
		return diag.Structuralf("index %d out of range for parameter %q (%d..%d)", i, p.Name, p.Index.StartIndex, p.Index.EndIndex)
	}
	if p.SecondIndex == nil && j != nil {
		return diag.Structuralf("parameter %q is one-dimensional", p.Name)
	}
	if p.SecondIndex != nil {
		if j == nil {
			return diag.Structuralf("parameter %q is two-dimensional", p.Name)
		}
		if !p.SecondIndex.Contains(*j) {
			return diag.Structuralf("index %d out of range for parameter %q (%d..%d)", *j, p.Name, p.SecondIndex.StartIndex, p.SecondIndex.EndIndex)
		}
	}
	p.values[p.cellKey(i, j)] = v
	return nil
}

// Value fetches a cell value. The bool is false when the cell has not been
// populated.
func (p *IndexedParam) Value(i int, j *int) (cty.Value, bool) {
	v, ok := p.values[p.cellKey(i, j)]
	return v, ok
}

// HasData reports whether at least one cell has been populated.
func (p *IndexedParam) HasData() bool {
	return len(p.values) > 0
}

// CellCount returns the number of populated cells.
func (p *IndexedParam) CellCount() int {
	return len(p.values)
}

package model

import (
	"reflect"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/optlang/internal/diag"
)

// FieldType enumerates the scalar types a tuple field may hold.
type FieldType int

const (
	FieldInt FieldType = iota
	FieldFloat
	FieldString
	FieldBool
)

// TupleField is one field of a tuple schema. Key fields participate in
// item() lookup; their declaration order defines composite-key component
// order.
type TupleField struct {
	Name  string
	Type  FieldType
	IsKey bool
}

// TupleSchema is a named record type with an ordered field list.
type TupleSchema struct {
	Name   string
	Fields []TupleField
}

// Field returns the named field and its position.
func (s *TupleSchema) Field(name string) (TupleField, int, bool) {
	for i, f := range s.Fields {
		if f.Name == name {
			return f, i, true
		}
	}
	return TupleField{}, 0, false
}

// KeyFields returns the key fields in declaration order.
func (s *TupleSchema) KeyFields() []TupleField {
	var keys []TupleField
	for _, f := range s.Fields {
		if f.IsKey {
			keys = append(keys, f)
		}
	}
	return keys
}

// TupleInstance is one row of a tuple set. It is owned by exactly one
// TupleSet and immutable after construction except through SetValue.
type TupleInstance struct {
	schema *TupleSchema
	values map[string]cty.Value
}

// NewTupleInstance builds an instance from values given in schema field
// order.
func NewTupleInstance(schema *TupleSchema, values []cty.Value) (*TupleInstance, error) {
	if len(values) != len(schema.Fields) {
		return nil, diag.Structuralf("tuple %q expects %d fields, got %d", schema.Name, len(schema.Fields), len(values))
	}
	m := make(map[string]cty.Value, len(values))
	for i, f := range schema.Fields {
		m[f.Name] = values[i]
	}
	return &TupleInstance{schema: schema, values: m}, nil
}

// Schema returns the instance's schema.
func (t *TupleInstance) Schema() *TupleSchema {
	return t.schema
}

// Get returns the value of the named field.
func (t *TupleInstance) Get(field string) (cty.Value, bool) {
	v, ok := t.values[field]
	return v, ok
}

// SetValue overwrites the named field. The field must exist in the schema.
func (t *TupleInstance) SetValue(field string, v cty.Value) error {
	if _, _, ok := t.schema.Field(field); !ok {
		return diag.Structuralf("tuple %q has no field %q", t.schema.Name, field)
	}
	t.values[field] = v
	return nil
}

// TupleCapsule lets a tuple instance travel through cty.Value channels
// (tuple-valued parameters, item() results) without a parallel value type.
var TupleCapsule = cty.Capsule("tuple_instance", reflect.TypeOf(TupleInstance{}))

// CapsuleFor wraps a tuple instance as a cty value.
func CapsuleFor(t *TupleInstance) cty.Value {
	return cty.CapsuleVal(TupleCapsule, t)
}

// TupleFromValue unwraps a tuple instance from a cty value, if it holds one.
func TupleFromValue(v cty.Value) (*TupleInstance, bool) {
	if v == cty.NilVal || !v.Type().Equals(TupleCapsule) {
		return nil, false
	}
	return v.EncapsulatedValue().(*TupleInstance), true
}

// TupleSet is a named, ordered collection of instances of one schema. Order
// is declaration/load order and is used for positional indexing. A set may
// optionally be backed by an IndexSet, in which case indexing goes through
// the index set's position mapping instead of raw positions.
type TupleSet struct {
	Name       string
	Schema     *TupleSchema
	Instances  []*TupleInstance
	IndexedBy  *IndexSet
	IsExternal bool
	HasData    bool
}

// Append adds an instance at the end of the set.
func (ts *TupleSet) Append(t *TupleInstance) {
	ts.Instances = append(ts.Instances, t)
	ts.HasData = true
}

// InstanceAt resolves an index value to an instance. With a backing index
// set the value is mapped through GetPosition; otherwise it is a 1-based
// position into the declaration order.
func (ts *TupleSet) InstanceAt(index int) (*TupleInstance, error) {
	pos := index - 1
	if ts.IndexedBy != nil {
		p, err := ts.IndexedBy.GetPosition(index)
		if err != nil {
			return nil, err
		}
		pos = p
	}
	if pos < 0 || pos >= len(ts.Instances) {
		return nil, diag.Structuralf("index %d out of range for tuple set %q (%d instances)", index, ts.Name, len(ts.Instances))
	}
	return ts.Instances[pos], nil
}

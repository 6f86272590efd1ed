package model

import (
	"fmt"
	"sort"

	"github.com/vk/optlang/internal/diag"
)

// Model is the symbol environment of one parse session. Declaration order is
// preserved wherever later stages depend on it (tuple sets for the resolver's
// positional fallback, variables for export column order).
type Model struct {
	params        map[string]*Parameter
	indexedParams map[string]*IndexedParam
	indexSets     map[string]*IndexSet
	primitiveSets map[string]*PrimitiveSet
	schemas       map[string]*TupleSchema
	tupleSets     map[string]*TupleSet
	tupleSetOrder []string
	variables     map[string]*IndexedVariable
	varOrder      []string
}

// New creates an empty symbol environment.
func New() *Model {
	m := &Model{}
	m.Clear()
	return m
}

// Clear resets the environment between independent parses.
func (m *Model) Clear() {
	m.params = make(map[string]*Parameter)
	m.indexedParams = make(map[string]*IndexedParam)
	m.indexSets = make(map[string]*IndexSet)
	m.primitiveSets = make(map[string]*PrimitiveSet)
	m.schemas = make(map[string]*TupleSchema)
	m.tupleSets = make(map[string]*TupleSet)
	m.tupleSetOrder = nil
	m.variables = make(map[string]*IndexedVariable)
	m.varOrder = nil
}

// declared reports whether name is already taken by any declaration kind.
func (m *Model) declared(name string) bool {
	if _, ok := m.params[name]; ok {
		return true
	}
	if _, ok := m.indexedParams[name]; ok {
		return true
	}
	if _, ok := m.indexSets[name]; ok {
		return true
	}
	if _, ok := m.primitiveSets[name]; ok {
		return true
	}
	if _, ok := m.schemas[name]; ok {
		return true
	}
	if _, ok := m.tupleSets[name]; ok {
		return true
	}
	if _, ok := m.variables[name]; ok {
		return true
	}
	return false
}

func (m *Model) checkFresh(name string) error {
	if m.declared(name) {
		return diag.Structuralf("name %q is already declared", name)
	}
	return nil
}

// AddParameter registers a scalar parameter.
func (m *Model) AddParameter(p *Parameter) error {
	if err := m.checkFresh(p.Name); err != nil {
		return err
	}
	m.params[p.Name] = p
	return nil
}

// Parameter looks up a scalar parameter.
func (m *Model) Parameter(name string) (*Parameter, bool) {
	p, ok := m.params[name]
	return p, ok
}

// AddIndexedParam registers an indexed parameter.
func (m *Model) AddIndexedParam(p *IndexedParam) error {
	if err := m.checkFresh(p.Name); err != nil {
		return err
	}
	m.indexedParams[p.Name] = p
	return nil
}

// IndexedParam looks up an indexed parameter.
func (m *Model) IndexedParam(name string) (*IndexedParam, bool) {
	p, ok := m.indexedParams[name]
	return p, ok
}

// AddIndexSet registers an index set.
func (m *Model) AddIndexSet(s *IndexSet) error {
	if err := m.checkFresh(s.Name); err != nil {
		return err
	}
	m.indexSets[s.Name] = s
	return nil
}

// IndexSet looks up an index set.
func (m *Model) IndexSet(name string) (*IndexSet, bool) {
	s, ok := m.indexSets[name]
	return s, ok
}

// AddPrimitiveSet registers a primitive set.
func (m *Model) AddPrimitiveSet(s *PrimitiveSet) error {
	if err := m.checkFresh(s.Name); err != nil {
		return err
	}
	m.primitiveSets[s.Name] = s
	return nil
}

// PrimitiveSet looks up a primitive set.
func (m *Model) PrimitiveSet(name string) (*PrimitiveSet, bool) {
	s, ok := m.primitiveSets[name]
	return s, ok
}

// AddSchema registers a tuple schema.
func (m *Model) AddSchema(s *TupleSchema) error {
	if err := m.checkFresh(s.Name); err != nil {
		return err
	}
	m.schemas[s.Name] = s
	return nil
}

// Schema looks up a tuple schema.
func (m *Model) Schema(name string) (*TupleSchema, bool) {
	s, ok := m.schemas[name]
	return s, ok
}

// AddTupleSet registers a tuple set, preserving declaration order.
func (m *Model) AddTupleSet(ts *TupleSet) error {
	if err := m.checkFresh(ts.Name); err != nil {
		return err
	}
	m.tupleSets[ts.Name] = ts
	m.tupleSetOrder = append(m.tupleSetOrder, ts.Name)
	return nil
}

// TupleSet looks up a tuple set.
func (m *Model) TupleSet(name string) (*TupleSet, bool) {
	ts, ok := m.tupleSets[name]
	return ts, ok
}

// TupleSets returns all tuple sets in declaration order.
func (m *Model) TupleSets() []*TupleSet {
	out := make([]*TupleSet, 0, len(m.tupleSetOrder))
	for _, name := range m.tupleSetOrder {
		out = append(out, m.tupleSets[name])
	}
	return out
}

// AddVariable registers an indexed-variable declaration, preserving order.
func (m *Model) AddVariable(v *IndexedVariable) error {
	if err := m.checkFresh(v.Name); err != nil {
		return err
	}
	m.variables[v.Name] = v
	m.varOrder = append(m.varOrder, v.Name)
	return nil
}

// Variable looks up an indexed-variable declaration.
func (m *Model) Variable(name string) (*IndexedVariable, bool) {
	v, ok := m.variables[name]
	return v, ok
}

// Variables returns all variable declarations in declaration order.
func (m *Model) Variables() []*IndexedVariable {
	out := make([]*IndexedVariable, 0, len(m.varOrder))
	for _, name := range m.varOrder {
		out = append(out, m.variables[name])
	}
	return out
}

// IteratorDomain enumerates the domain of an iterator bound to the named
// set: a declared index set's range or an all-integer primitive set's
// members, in ascending declared order. An undeclared name is a structural
// failure.
func (m *Model) IteratorDomain(name string) ([]int, error) {
	if s, ok := m.indexSets[name]; ok {
		return s.Values(), nil
	}
	if s, ok := m.primitiveSets[name]; ok {
		return s.IntMembers()
	}
	return nil, diag.Structuralf("index set %q not found", name)
}

// UnresolvedExternals lists external declarations that still have no value.
// Expansion must not run while any remain.
func (m *Model) UnresolvedExternals() []string {
	var out []string
	for name, p := range m.params {
		if p.IsExternal && !p.HasValue() {
			out = append(out, name)
		}
	}
	for name, p := range m.indexedParams {
		if p.IsExternal && !p.HasData() {
			out = append(out, name)
		}
	}
	for name, s := range m.primitiveSets {
		if s.IsExternal && !s.HasData {
			out = append(out, name)
		}
	}
	for _, name := range m.tupleSetOrder {
		ts := m.tupleSets[name]
		if ts.IsExternal && !ts.HasData {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// String summarizes the environment for debug logging.
func (m *Model) String() string {
	return fmt.Sprintf("model{params:%d indexed:%d ranges:%d sets:%d tuples:%d vars:%d}",
		len(m.params), len(m.indexedParams), len(m.indexSets),
		len(m.primitiveSets)+len(m.tupleSets), len(m.schemas), len(m.variables))
}

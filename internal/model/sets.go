package model

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/scalar"
)

// IndexSet is a contiguous, inclusive integer range declared with
// `range NAME = start..end;`. It doubles as the position mapping for tuple
// sets declared "indexed by" it.
type IndexSet struct {
	Name       string
	StartIndex int
	EndIndex   int
}

// Size returns the number of values in the range.
func (s *IndexSet) Size() int {
	if s.EndIndex < s.StartIndex {
		return 0
	}
	return s.EndIndex - s.StartIndex + 1
}

// Contains reports whether v lies within the range.
func (s *IndexSet) Contains(v int) bool {
	return v >= s.StartIndex && v <= s.EndIndex
}

// GetPosition maps an index-set value to a zero-based instance position,
// failing when the value lies outside the declared range.
func (s *IndexSet) GetPosition(v int) (int, error) {
	if !s.Contains(v) {
		return 0, diag.Structuralf("index %d out of range for set %q (%d..%d)", v, s.Name, s.StartIndex, s.EndIndex)
	}
	return v - s.StartIndex, nil
}

// Values enumerates the range in ascending order.
func (s *IndexSet) Values() []int {
	out := make([]int, 0, s.Size())
	for v := s.StartIndex; v <= s.EndIndex; v++ {
		out = append(out, v)
	}
	return out
}

// PrimitiveSet is an explicitly enumerated set of scalar members, kept in
// declaration order. An external set declares its name in the model and
// receives its members from a data file.
type PrimitiveSet struct {
	Name       string
	Members    []cty.Value
	IsExternal bool
	HasData    bool
}

// IntMembers returns the members as integers, in declaration order. Only
// all-integer primitive sets may serve as iterator domains.
func (s *PrimitiveSet) IntMembers() ([]int, error) {
	out := make([]int, 0, len(s.Members))
	for _, m := range s.Members {
		f, ok := scalar.Float(m)
		if !ok {
			return nil, diag.Structuralf("set %q is not an integer set and cannot be iterated", s.Name)
		}
		out = append(out, int(f))
	}
	return out, nil
}

package model

import "fmt"

// VarType enumerates decision-variable domains.
type VarType int

const (
	VarFloat VarType = iota
	VarInt
	VarBool
)

// IndexedVariable declares a decision variable, optionally indexed by one or
// two index sets and optionally bounded.
type IndexedVariable struct {
	Name        string
	Type        VarType
	Index       *IndexSet
	SecondIndex *IndexSet
	LowerBound  *float64
	UpperBound  *float64
}

// Dims returns 0 for a scalar variable, otherwise 1 or 2.
func (v *IndexedVariable) Dims() int {
	switch {
	case v.SecondIndex != nil:
		return 2
	case v.Index != nil:
		return 1
	default:
		return 0
	}
}

// ExpandedName renders the concrete variable name for bound index values,
// e.g. x[2] becomes "x2" and y[2,3] becomes "y2_3".
func (v *IndexedVariable) ExpandedName(i int, j *int) string {
	if j != nil {
		return fmt.Sprintf("%s%d_%d", v.Name, i, *j)
	}
	if v.Index != nil {
		return fmt.Sprintf("%s%d", v.Name, i)
	}
	return v.Name
}

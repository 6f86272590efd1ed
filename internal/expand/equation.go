package expand

import (
	"fmt"
	"strings"

	"github.com/vk/optlang/internal/expr"
)

// Relation is the relational operator of an equation.
type Relation int

const (
	LessEq Relation = iota
	GreaterEq
	Equal
)

// String returns the source spelling of the relation.
func (r Relation) String() string {
	switch r {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "=="
	default:
		return "?"
	}
}

// Sense is the optimization direction of an objective.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

// String returns the source spelling of the sense.
func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// LinearEquation is one flattened constraint: a variable→coefficient map, a
// constant and a relational operator, normalized so variables sit on the
// left and the constant on the right. Coefficients and the constant are
// expression trees; consumers evaluate them at export time.
type LinearEquation struct {
	Label        string
	BaseName     string
	Index        *int
	SecondIndex  *int
	Relation     Relation
	Coefficients map[string]expr.Expression
	Constant     expr.Expression

	varOrder []string
}

func newEquation(label, baseName string, index, second *int, rel Relation) *LinearEquation {
	return &LinearEquation{
		Label:        label,
		BaseName:     baseName,
		Index:        index,
		SecondIndex:  second,
		Relation:     rel,
		Coefficients: make(map[string]expr.Expression),
	}
}

// addCoefficient accumulates a contribution for an expanded variable name.
// Repeated occurrences within one equation sum.
func (eq *LinearEquation) addCoefficient(name string, coeff expr.Expression) {
	if existing, ok := eq.Coefficients[name]; ok {
		eq.Coefficients[name] = expr.NewBinary(expr.OpAdd, existing, coeff)
		return
	}
	eq.Coefficients[name] = coeff
	eq.varOrder = append(eq.varOrder, name)
}

// addConstant accumulates a contribution to the right-hand constant.
func (eq *LinearEquation) addConstant(c expr.Expression) {
	if eq.Constant == nil {
		eq.Constant = c
		return
	}
	eq.Constant = expr.NewBinary(expr.OpAdd, eq.Constant, c)
}

// merge folds another equation's coefficients and constant into eq.
func (eq *LinearEquation) merge(other *LinearEquation) {
	for _, name := range other.varOrder {
		eq.addCoefficient(name, other.Coefficients[name])
	}
	if other.Constant != nil {
		eq.addConstant(other.Constant)
	}
}

// dropVariable removes a variable whose coefficient vanished.
func (eq *LinearEquation) dropVariable(name string) {
	delete(eq.Coefficients, name)
	for i, n := range eq.varOrder {
		if n == name {
			eq.varOrder = append(eq.varOrder[:i], eq.varOrder[i+1:]...)
			return
		}
	}
}

// VarNames returns the expanded variable names in first-appearance order.
func (eq *LinearEquation) VarNames() []string {
	out := make([]string, len(eq.varOrder))
	copy(out, eq.varOrder)
	return out
}

// String renders the equation for debug logging.
func (eq *LinearEquation) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: ", eq.Label)
	for i, name := range eq.varOrder {
		if i > 0 {
			sb.WriteString(" + ")
		}
		fmt.Fprintf(&sb, "%s*%s", eq.Coefficients[name], name)
	}
	fmt.Fprintf(&sb, " %s %s", eq.Relation, eq.Constant)
	return sb.String()
}

// Objective is the expanded optimization target, same representation as an
// equation body without a relation.
type Objective struct {
	Sense        Sense
	Coefficients map[string]expr.Expression
	Constant     expr.Expression

	varOrder []string
}

// VarNames returns the expanded variable names in first-appearance order.
func (o *Objective) VarNames() []string {
	out := make([]string, len(o.varOrder))
	copy(out, o.varOrder)
	return out
}

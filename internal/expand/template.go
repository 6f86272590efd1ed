package expand

import (
	"github.com/vk/optlang/internal/expr"
)

// VarRef is an unexpanded decision-variable reference inside a term, e.g.
// x[i] or y[i,j]. Index expressions are evaluated once iterators are bound.
type VarRef struct {
	Name        string
	Index       expr.Expression
	SecondIndex expr.Expression
}

// Term is one `coefficient * variable` product of a linear expression. A
// term with no variable contributes to the constant; a term with a Sum
// expands into further terms per iterator combination.
type Term struct {
	Coeff expr.Expression // nil means 1
	Var   *VarRef
	Sum   *SumTerm
}

// SumTerm is an unexpanded sum(...) over terms.
type SumTerm struct {
	Iterators []expr.Iterator
	Filter    expr.Expression // nil when unfiltered
	Body      []Term
}

// LinearExpr is one side of an equation: an ordered list of terms.
type LinearExpr struct {
	Terms []Term
}

// TemplateState tracks the expansion lifecycle of a template.
type TemplateState int

const (
	Unexpanded TemplateState = iota
	Expanding
	Expanded
	Failed
)

// String returns a short name for the state.
func (s TemplateState) String() string {
	switch s {
	case Unexpanded:
		return "unexpanded"
	case Expanding:
		return "expanding"
	case Expanded:
		return "expanded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Template is an equation awaiting expansion: a base name, up to two
// iterator/domain pairs, an optional filter predicate, and the unexpanded
// body. A template with no iterators expands to exactly one equation. Once
// expansion runs the template is terminal: Expanded templates are replaced
// by their concrete equations, Failed templates keep the error that stopped
// them and emit nothing.
type Template struct {
	BaseName  string
	Iterators []expr.Iterator // zero to two
	Filter    expr.Expression
	Relation  Relation
	LHS       *LinearExpr
	RHS       *LinearExpr
	Line      int

	State TemplateState
	Err   error
}

// ObjectiveSpec is the unexpanded optimization target.
type ObjectiveSpec struct {
	Sense Sense
	Body  *LinearExpr
	Line  int
}

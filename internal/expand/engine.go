package expand

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/vk/optlang/internal/ctxlog"
	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/expr"
	"github.com/vk/optlang/internal/model"
	"github.com/vk/optlang/internal/scalar"
)

// Engine expands the workspace's templates and objective into concrete
// equations. Per-combination value failures land on the reporter; structural
// failures fail their template.
type Engine struct {
	ws       *Workspace
	reporter *diag.Reporter
}

// NewEngine creates an engine over a workspace.
func NewEngine(ws *Workspace, reporter *diag.Reporter) *Engine {
	return &Engine{ws: ws, reporter: reporter}
}

// ExpandAll expands every pending template and the objective. It fails fast
// when external declarations still have no data: missing values must never
// silently expand as zero.
func (e *Engine) ExpandAll(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	if unresolved := e.ws.Model.UnresolvedExternals(); len(unresolved) > 0 {
		return diag.Structuralf("cannot expand: external declarations without data: %s", strings.Join(unresolved, ", "))
	}

	for _, t := range e.ws.Templates {
		if err := e.expandTemplate(ctx, t); err != nil {
			e.reporter.Report(t.Line, err)
		}
	}
	if e.ws.ObjectiveSpec != nil && e.ws.Objective == nil {
		if err := e.expandObjective(ctx); err != nil {
			e.reporter.Report(e.ws.ObjectiveSpec.Line, err)
		}
	}

	logger.Info("Expansion finished.",
		"templates", len(e.ws.Templates),
		"equations", len(e.ws.Equations),
		"diagnostics", len(e.reporter.Records()))
	return nil
}

// expandTemplate drives one template through its state machine. A failure
// leaves no partial equations behind.
func (e *Engine) expandTemplate(ctx context.Context, t *Template) error {
	logger := ctxlog.FromContext(ctx)
	if t.State != Unexpanded {
		return diag.Structuralf("template %q already expanded (state %s)", t.BaseName, t.State)
	}
	t.State = Expanding
	before := len(e.ws.Equations)

	ectx := model.NewContext()
	err := expr.WalkDomains(e.ws.Model, ectx, t.Iterators, func(c *model.EvaluationContext) error {
		if t.Filter != nil {
			f, ferr := t.Filter.Evaluate(e.ws.Model, c)
			if ferr != nil {
				if diag.IsValueResolution(ferr) {
					e.reporter.Report(t.Line, ferr)
					return nil
				}
				return ferr
			}
			if !scalar.Truthy(f) {
				return nil
			}
		}
		eq, berr := e.buildEquation(t, c)
		if berr != nil {
			if diag.IsValueResolution(berr) {
				e.reporter.Report(t.Line, berr)
				return nil
			}
			return berr
		}
		e.ws.Equations = append(e.ws.Equations, eq)
		return nil
	})
	if err != nil {
		e.ws.Equations = e.ws.Equations[:before]
		t.State = Failed
		t.Err = err
		return err
	}

	t.State = Expanded
	logger.Debug("Template expanded.", "base_name", t.BaseName, "equations", len(e.ws.Equations)-before)
	return nil
}

// buildEquation folds LHS − RHS under the bound context into a normalized
// coefficient map plus right-hand constant.
func (e *Engine) buildEquation(t *Template, c *model.EvaluationContext) (*LinearEquation, error) {
	var index, second *int
	label := t.BaseName
	if len(t.Iterators) > 0 {
		v, _ := c.Lookup(t.Iterators[0].Name)
		index = &v
		label = fmt.Sprintf("%s_%d", label, v)
	}
	if len(t.Iterators) > 1 {
		v, _ := c.Lookup(t.Iterators[1].Name)
		second = &v
		label = fmt.Sprintf("%s_%d", label, v)
	}

	eq := newEquation(label, t.BaseName, index, second, t.Relation)
	if err := e.addLinear(eq, t.LHS, +1, c); err != nil {
		return nil, err
	}
	if err := e.addLinear(eq, t.RHS, -1, c); err != nil {
		return nil, err
	}
	e.dropNearZero(eq)
	if eq.Constant == nil {
		eq.Constant = expr.NewConstant(0)
	}
	if err := e.probeEvaluable(eq); err != nil {
		return nil, err
	}
	return eq, nil
}

// probeEvaluable evaluates every coefficient and the constant once, so a
// combination with missing data is caught and skipped here instead of
// surfacing at export. The expressions themselves stay in the equation;
// data edits between expansion and export still take effect.
func (e *Engine) probeEvaluable(eq *LinearEquation) error {
	for _, name := range eq.VarNames() {
		if _, err := eq.Coefficients[name].Evaluate(e.ws.Model, nil); err != nil {
			return err
		}
	}
	if _, err := eq.Constant.Evaluate(e.ws.Model, nil); err != nil {
		return err
	}
	return nil
}

func (e *Engine) addLinear(eq *LinearEquation, le *LinearExpr, sign float64, c *model.EvaluationContext) error {
	if le == nil {
		return nil
	}
	for _, term := range le.Terms {
		if err := e.addTerm(eq, term, sign, c); err != nil {
			return err
		}
	}
	return nil
}

// addTerm folds one term into the equation under the bound context. sign is
// +1 for LHS terms and −1 for RHS terms.
func (e *Engine) addTerm(eq *LinearEquation, term Term, sign float64, c *model.EvaluationContext) error {
	switch {
	case term.Sum != nil:
		return e.addSum(eq, term, sign, c)
	case term.Var != nil:
		return e.addVarTerm(eq, term, sign, c)
	default:
		coeff := boundCoeff(term.Coeff, c)
		// Constants move to the other side of the relation.
		if sign > 0 {
			coeff = &expr.Negate{Inner: coeff}
		}
		eq.addConstant(coeff)
		return nil
	}
}

// addSum expands a sum term over its iterator cross product. A combination
// whose filter or body fails with a value-resolution error is skipped and
// recorded; everything else keeps expanding.
func (e *Engine) addSum(eq *LinearEquation, term Term, sign float64, c *model.EvaluationContext) error {
	outer := boundCoeff(term.Coeff, c)
	return expr.WalkDomains(e.ws.Model, c, term.Sum.Iterators, func(cc *model.EvaluationContext) error {
		if term.Sum.Filter != nil {
			f, err := term.Sum.Filter.Evaluate(e.ws.Model, cc)
			if err != nil {
				if diag.IsValueResolution(err) {
					e.reporter.Report(0, err)
					return nil
				}
				return err
			}
			if !scalar.Truthy(f) {
				return nil
			}
		}
		// Body terms land on a staging equation first, so a term failing
		// partway through leaves nothing of the skipped combination behind.
		staged := newEquation(eq.Label, eq.BaseName, nil, nil, eq.Relation)
		for _, bt := range term.Sum.Body {
			scaled := bt
			if term.Coeff != nil {
				scaled.Coeff = expr.NewBinary(expr.OpMul, outer, boundCoeff(bt.Coeff, cc))
			}
			if err := e.addTerm(staged, scaled, sign, cc); err != nil {
				if diag.IsValueResolution(err) {
					e.reporter.Report(0, err)
					return nil
				}
				return err
			}
		}
		eq.merge(staged)
		return nil
	})
}

func (e *Engine) addVarTerm(eq *LinearEquation, term Term, sign float64, c *model.EvaluationContext) error {
	decl, ok := e.ws.Model.Variable(term.Var.Name)
	if !ok {
		return diag.Structuralf("variable %q not found", term.Var.Name)
	}

	var i int
	var j *int
	if term.Var.Index != nil {
		v, err := expr.EvalIndex(term.Var.Index, e.ws.Model, c)
		if err != nil {
			return err
		}
		if decl.Index == nil {
			return diag.Structuralf("variable %q is not indexed", decl.Name)
		}
		if !decl.Index.Contains(v) {
			return diag.Structuralf("index %d out of range for variable %q (%d..%d)", v, decl.Name, decl.Index.StartIndex, decl.Index.EndIndex)
		}
		i = v
	} else if decl.Index != nil {
		return diag.Structuralf("variable %q requires an index", decl.Name)
	}
	if term.Var.SecondIndex != nil {
		v, err := expr.EvalIndex(term.Var.SecondIndex, e.ws.Model, c)
		if err != nil {
			return err
		}
		if decl.SecondIndex == nil {
			return diag.Structuralf("variable %q is not two-dimensional", decl.Name)
		}
		if !decl.SecondIndex.Contains(v) {
			return diag.Structuralf("index %d out of range for variable %q (%d..%d)", v, decl.Name, decl.SecondIndex.StartIndex, decl.SecondIndex.EndIndex)
		}
		j = &v
	} else if decl.SecondIndex != nil {
		return diag.Structuralf("variable %q requires two indexes", decl.Name)
	}

	coeff := boundCoeff(term.Coeff, c)
	if sign < 0 {
		coeff = &expr.Negate{Inner: coeff}
	}
	eq.addCoefficient(decl.ExpandedName(i, j), coeff)
	return nil
}

// boundCoeff substitutes the context into a coefficient, defaulting a nil
// coefficient to 1.
func boundCoeff(coeff expr.Expression, c *model.EvaluationContext) expr.Expression {
	if coeff == nil {
		return expr.NewConstant(1)
	}
	return coeff.Bind(c)
}

// dropNearZero removes variables whose coefficient evaluates below Epsilon.
// Coefficients that cannot be evaluated yet are kept.
func (e *Engine) dropNearZero(eq *LinearEquation) {
	for _, name := range eq.VarNames() {
		v, err := eq.Coefficients[name].Evaluate(e.ws.Model, nil)
		if err == nil && math.Abs(v) < scalar.Epsilon {
			eq.dropVariable(name)
		}
	}
}

// expandObjective folds the objective body the same way an equation LHS is
// folded; its constant keeps the body's own sign.
func (e *Engine) expandObjective(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	spec := e.ws.ObjectiveSpec

	scratch := newEquation("objective", "objective", nil, nil, Equal)
	ectx := model.NewContext()
	if err := e.addLinear(scratch, spec.Body, +1, ectx); err != nil {
		return err
	}
	e.dropNearZero(scratch)

	constant := scratch.Constant
	if constant == nil {
		constant = expr.NewConstant(0)
	} else {
		constant = &expr.Negate{Inner: constant}
	}
	e.ws.Objective = &Objective{
		Sense:        spec.Sense,
		Coefficients: scratch.Coefficients,
		Constant:     constant,
		varOrder:     scratch.varOrder,
	}
	logger.Debug("Objective expanded.", "sense", spec.Sense, "variables", len(scratch.varOrder))
	return nil
}

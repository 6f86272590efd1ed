package expr

import (
	"fmt"
	"math"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/model"
	"github.com/vk/optlang/internal/scalar"
)

// ParamRef references a scalar parameter or a bound iterator by name. The
// evaluation context is consulted before the symbol environment, so iterator
// bindings shadow parameters of the same name.
type ParamRef struct {
	Name string
}

func (p *ParamRef) Evaluate(env *model.Model, ctx *model.EvaluationContext) (float64, error) {
	if v, ok := ctx.Lookup(p.Name); ok {
		return float64(v), nil
	}
	param, ok := env.Parameter(p.Name)
	if !ok {
		return 0, diag.Structuralf("parameter %q not found", p.Name)
	}
	if param.Tuple != nil {
		return 0, diag.Numericf("parameter %q holds a tuple and is not numeric", p.Name)
	}
	if !param.HasValue() {
		return 0, diag.Resolutionf("parameter %q has no value yet", p.Name)
	}
	f, ok := scalar.Float(param.Value)
	if !ok {
		return 0, diag.Numericf("parameter %q holds a non-numeric value %q", p.Name, scalar.Format(param.Value))
	}
	return f, nil
}

func (p *ParamRef) Simplify(env *model.Model) Expression {
	if env == nil {
		return p
	}
	param, ok := env.Parameter(p.Name)
	if !ok || !param.HasValue() || param.Tuple != nil {
		return p
	}
	if f, ok := scalar.Float(param.Value); ok {
		return &Constant{Value: f}
	}
	return p
}

func (p *ParamRef) Bind(ctx *model.EvaluationContext) Expression {
	if v, ok := ctx.Lookup(p.Name); ok {
		return &Constant{Value: float64(v)}
	}
	return p
}

func (p *ParamRef) IsConstant() bool { return false }

func (p *ParamRef) String() string { return p.Name }

func (p *ParamRef) value(env *model.Model, ctx *model.EvaluationContext) (cty.Value, error) {
	if v, ok := ctx.Lookup(p.Name); ok {
		return scalar.Int(v), nil
	}
	param, ok := env.Parameter(p.Name)
	if !ok {
		return cty.NilVal, diag.Structuralf("parameter %q not found", p.Name)
	}
	if param.Tuple != nil {
		return model.CapsuleFor(param.Tuple), nil
	}
	if !param.HasValue() {
		return cty.NilVal, diag.Resolutionf("parameter %q has no value yet", p.Name)
	}
	return param.Value, nil
}

// IndexedParamRef references one cell of an indexed parameter, e.g. a[i] or
// d[i,j].
type IndexedParamRef struct {
	Name    string
	Indexes []Expression // one or two
}

func (p *IndexedParamRef) cell(env *model.Model, ctx *model.EvaluationContext) (cty.Value, error) {
	param, ok := env.IndexedParam(p.Name)
	if !ok {
		return cty.NilVal, diag.Structuralf("indexed parameter %q not found", p.Name)
	}
	if len(p.Indexes) != param.Dims() {
		return cty.NilVal, diag.Structuralf("parameter %q expects %d indexes, got %d", p.Name, param.Dims(), len(p.Indexes))
	}
	i, err := EvalIndex(p.Indexes[0], env, ctx)
	if err != nil {
		return cty.NilVal, err
	}
	var j *int
	if len(p.Indexes) == 2 {
		v, err := EvalIndex(p.Indexes[1], env, ctx)
		if err != nil {
			return cty.NilVal, err
		}
		j = &v
	}
	if !param.Index.Contains(i) {
		return cty.NilVal, diag.Structuralf("index %d out of range for parameter %q (%d..%d)", i, p.Name, param.Index.StartIndex, param.Index.EndIndex)
	}
	if j != nil && !param.SecondIndex.Contains(*j) {
		return cty.NilVal, diag.Structuralf("index %d out of range for parameter %q (%d..%d)", *j, p.Name, param.SecondIndex.StartIndex, param.SecondIndex.EndIndex)
	}
	v, ok := param.Value(i, j)
	if !ok {
		return cty.NilVal, diag.Resolutionf("parameter %q has no value at %s", p.Name, indexString(i, j))
	}
	return v, nil
}

func (p *IndexedParamRef) Evaluate(env *model.Model, ctx *model.EvaluationContext) (float64, error) {
	v, err := p.cell(env, ctx)
	if err != nil {
		return 0, err
	}
	if _, ok := model.TupleFromValue(v); ok {
		return 0, diag.Numericf("parameter %q holds tuples and is not numeric", p.Name)
	}
	f, ok := scalar.Float(v)
	if !ok {
		return 0, diag.Numericf("parameter %q holds a non-numeric value %q", p.Name, scalar.Format(v))
	}
	return f, nil
}

func (p *IndexedParamRef) Simplify(env *model.Model) Expression {
	indexes, changed := simplifyAll(p.Indexes, env)
	if !changed {
		return p
	}
	return &IndexedParamRef{Name: p.Name, Indexes: indexes}
}

func (p *IndexedParamRef) Bind(ctx *model.EvaluationContext) Expression {
	indexes, changed := bindAll(p.Indexes, ctx)
	if !changed {
		return p
	}
	return &IndexedParamRef{Name: p.Name, Indexes: indexes}
}

func (p *IndexedParamRef) IsConstant() bool { return false }

func (p *IndexedParamRef) String() string {
	parts := make([]string, len(p.Indexes))
	for i, e := range p.Indexes {
		parts[i] = e.String()
	}
	return fmt.Sprintf("%s[%s]", p.Name, strings.Join(parts, ","))
}

func (p *IndexedParamRef) value(env *model.Model, ctx *model.EvaluationContext) (cty.Value, error) {
	return p.cell(env, ctx)
}

// EvalIndex evaluates an index expression and requires an integral result.
func EvalIndex(e Expression, env *model.Model, ctx *model.EvaluationContext) (int, error) {
	f, err := e.Evaluate(env, ctx)
	if err != nil {
		return 0, err
	}
	i := int(math.Round(f))
	if math.Abs(f-float64(i)) > scalar.Epsilon {
		return 0, diag.Structuralf("index expression %s is not integral (%g)", e, f)
	}
	return i, nil
}

func indexString(i int, j *int) string {
	if j != nil {
		return fmt.Sprintf("[%d,%d]", i, *j)
	}
	return fmt.Sprintf("[%d]", i)
}

func simplifyAll(exprs []Expression, env *model.Model) ([]Expression, bool) {
	out := make([]Expression, len(exprs))
	changed := false
	for i, e := range exprs {
		out[i] = e.Simplify(env)
		if out[i] != e {
			changed = true
		}
	}
	return out, changed
}

func bindAll(exprs []Expression, ctx *model.EvaluationContext) ([]Expression, bool) {
	out := make([]Expression, len(exprs))
	changed := false
	for i, e := range exprs {
		out[i] = e.Bind(ctx)
		if out[i] != e {
			changed = true
		}
	}
	return out, changed
}

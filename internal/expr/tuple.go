package expr

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/model"
	"github.com/vk/optlang/internal/scalar"
)

// fieldValue extracts the named field of a tuple as a cty value.
func fieldValue(t *model.TupleInstance, field string) (cty.Value, error) {
	if _, _, ok := t.Schema().Field(field); !ok {
		return cty.NilVal, diag.Structuralf("tuple %q has no field %q", t.Schema().Name, field)
	}
	v, ok := t.Get(field)
	if !ok {
		return cty.NilVal, diag.Resolutionf("field %q of tuple %q has no value", field, t.Schema().Name)
	}
	return v, nil
}

func fieldNumber(t *model.TupleInstance, field string) (float64, error) {
	v, err := fieldValue(t, field)
	if err != nil {
		return 0, err
	}
	f, ok := scalar.Float(v)
	if !ok {
		return 0, diag.Numericf("field %q of tuple %q holds non-numeric value %q", field, t.Schema().Name, scalar.Format(v))
	}
	return f, nil
}

// TupleAccess reads a field of a tuple set instance addressed by an index
// expression: set[3].field (fixed) or set[p].field (iterator-indexed). Bind
// turns the latter into the former.
type TupleAccess struct {
	Set   string
	Index Expression
	Field string
}

func (a *TupleAccess) ResolveTuple(env *model.Model, ctx *model.EvaluationContext) (*model.TupleInstance, error) {
	ts, ok := env.TupleSet(a.Set)
	if !ok {
		return nil, diag.Structuralf("tuple set %q not found", a.Set)
	}
	i, err := EvalIndex(a.Index, env, ctx)
	if err != nil {
		return nil, err
	}
	return ts.InstanceAt(i)
}

func (a *TupleAccess) Evaluate(env *model.Model, ctx *model.EvaluationContext) (float64, error) {
	t, err := a.ResolveTuple(env, ctx)
	if err != nil {
		return 0, err
	}
	return fieldNumber(t, a.Field)
}

func (a *TupleAccess) Simplify(env *model.Model) Expression {
	index := a.Index.Simplify(env)
	if index == a.Index {
		return a
	}
	return &TupleAccess{Set: a.Set, Index: index, Field: a.Field}
}

func (a *TupleAccess) Bind(ctx *model.EvaluationContext) Expression {
	index := a.Index.Bind(ctx)
	if index == a.Index {
		return a
	}
	return &TupleAccess{Set: a.Set, Index: index, Field: a.Field}
}

func (a *TupleAccess) IsConstant() bool { return false }

func (a *TupleAccess) String() string {
	return fmt.Sprintf("%s[%s].%s", a.Set, a.Index, a.Field)
}

func (a *TupleAccess) value(env *model.Model, ctx *model.EvaluationContext) (cty.Value, error) {
	t, err := a.ResolveTuple(env, ctx)
	if err != nil {
		return cty.NilVal, err
	}
	return fieldValue(t, a.Field)
}

// DynamicFieldAccess reads a field through a name bound at evaluation time:
// p.field where p is either a bound iterator or a tuple-valued parameter.
//
// The iterator path treats the bound integer as a 1-based position into the
// first tuple set (in declaration order) with at least that many instances.
// When several sets qualify the choice is ambiguous; the resolver picks the
// first and logs a warning so users see the undefined behavior.
type DynamicFieldAccess struct {
	Name  string
	Field string

	// boundPos pins the positional lookup once Bind has run.
	boundPos *int
}

func (a *DynamicFieldAccess) ResolveTuple(env *model.Model, ctx *model.EvaluationContext) (*model.TupleInstance, error) {
	pos := a.boundPos
	if pos == nil {
		if v, ok := ctx.Lookup(a.Name); ok {
			pos = &v
		}
	}
	if pos != nil {
		return resolveByPosition(env, a.Name, *pos)
	}
	param, ok := env.Parameter(a.Name)
	if !ok {
		return nil, diag.Structuralf("parameter %q not found", a.Name)
	}
	if param.Tuple == nil {
		return nil, diag.Resolutionf("parameter %q does not hold a tuple", a.Name)
	}
	return param.Tuple, nil
}

// resolveByPosition scans tuple sets in declaration order for one with at
// least pos instances.
func resolveByPosition(env *model.Model, name string, pos int) (*model.TupleInstance, error) {
	if pos < 1 {
		return nil, diag.Resolutionf("iterator %q value %d is not a valid tuple position", name, pos)
	}
	var chosen *model.TupleSet
	qualifying := 0
	for _, ts := range env.TupleSets() {
		if len(ts.Instances) >= pos {
			qualifying++
			if chosen == nil {
				chosen = ts
			}
		}
	}
	if chosen == nil {
		return nil, diag.Resolutionf("no tuple set has %d instances for iterator %q", pos, name)
	}
	if qualifying > 1 {
		slog.Warn("Ambiguous positional tuple lookup; using first declared set.",
			"iterator", name, "position", pos, "set", chosen.Name, "candidates", qualifying)
	}
	return chosen.Instances[pos-1], nil
}

func (a *DynamicFieldAccess) Evaluate(env *model.Model, ctx *model.EvaluationContext) (float64, error) {
	t, err := a.ResolveTuple(env, ctx)
	if err != nil {
		return 0, err
	}
	return fieldNumber(t, a.Field)
}

func (a *DynamicFieldAccess) Simplify(*model.Model) Expression { return a }

func (a *DynamicFieldAccess) Bind(ctx *model.EvaluationContext) Expression {
	if a.boundPos != nil {
		return a
	}
	if v, ok := ctx.Lookup(a.Name); ok {
		return &DynamicFieldAccess{Name: a.Name, Field: a.Field, boundPos: &v}
	}
	return a
}

func (a *DynamicFieldAccess) IsConstant() bool { return false }

func (a *DynamicFieldAccess) String() string { return a.Name + "." + a.Field }

func (a *DynamicFieldAccess) value(env *model.Model, ctx *model.EvaluationContext) (cty.Value, error) {
	t, err := a.ResolveTuple(env, ctx)
	if err != nil {
		return cty.NilVal, err
	}
	return fieldValue(t, a.Field)
}

// ItemFunction locates a tuple instance in a named set by key:
// item(set, <k1,k2>). It is inherently tuple-valued.
type ItemFunction struct {
	Set string
	Key Expression
}

func (i *ItemFunction) ResolveTuple(env *model.Model, ctx *model.EvaluationContext) (*model.TupleInstance, error) {
	return Resolve(i, env, ctx)
}

func (i *ItemFunction) Evaluate(*model.Model, *model.EvaluationContext) (float64, error) {
	return 0, diag.Numericf("item(%s, ...) yields a tuple, not a number", i.Set)
}

func (i *ItemFunction) Simplify(env *model.Model) Expression {
	key := i.Key.Simplify(env)
	if key == i.Key {
		return i
	}
	return &ItemFunction{Set: i.Set, Key: key}
}

func (i *ItemFunction) Bind(ctx *model.EvaluationContext) Expression {
	key := i.Key.Bind(ctx)
	if key == i.Key {
		return i
	}
	return &ItemFunction{Set: i.Set, Key: key}
}

func (i *ItemFunction) IsConstant() bool { return false }

func (i *ItemFunction) String() string {
	return fmt.Sprintf("item(%s, %s)", i.Set, i.Key)
}

func (i *ItemFunction) value(env *model.Model, ctx *model.EvaluationContext) (cty.Value, error) {
	t, err := i.ResolveTuple(env, ctx)
	if err != nil {
		return cty.NilVal, err
	}
	return model.CapsuleFor(t), nil
}

// FieldAccess reads a field of any tuple-valued expression, e.g.
// item(set, <k>).cost.
type FieldAccess struct {
	Tuple TupleValued
	Field string
}

func (a *FieldAccess) Evaluate(env *model.Model, ctx *model.EvaluationContext) (float64, error) {
	t, err := a.Tuple.ResolveTuple(env, ctx)
	if err != nil {
		return 0, err
	}
	return fieldNumber(t, a.Field)
}

func (a *FieldAccess) Simplify(env *model.Model) Expression {
	if inner, ok := a.Tuple.Simplify(env).(TupleValued); ok && inner != a.Tuple {
		return &FieldAccess{Tuple: inner, Field: a.Field}
	}
	return a
}

func (a *FieldAccess) Bind(ctx *model.EvaluationContext) Expression {
	if inner, ok := a.Tuple.Bind(ctx).(TupleValued); ok && inner != a.Tuple {
		return &FieldAccess{Tuple: inner, Field: a.Field}
	}
	return a
}

func (a *FieldAccess) IsConstant() bool { return false }

func (a *FieldAccess) String() string { return a.Tuple.String() + "." + a.Field }

func (a *FieldAccess) value(env *model.Model, ctx *model.EvaluationContext) (cty.Value, error) {
	t, err := a.Tuple.ResolveTuple(env, ctx)
	if err != nil {
		return cty.NilVal, err
	}
	return fieldValue(t, a.Field)
}

// CompositeKey is an angle-bracket multi-part key <a,b,c>. It has no numeric
// value of its own.
type CompositeKey struct {
	Parts []Expression
}

func (k *CompositeKey) Evaluate(*model.Model, *model.EvaluationContext) (float64, error) {
	return 0, diag.Numericf("composite key %s is not numeric", k)
}

func (k *CompositeKey) Simplify(env *model.Model) Expression {
	parts, changed := simplifyAll(k.Parts, env)
	if !changed {
		return k
	}
	return &CompositeKey{Parts: parts}
}

func (k *CompositeKey) Bind(ctx *model.EvaluationContext) Expression {
	parts, changed := bindAll(k.Parts, ctx)
	if !changed {
		return k
	}
	return &CompositeKey{Parts: parts}
}

func (k *CompositeKey) IsConstant() bool { return false }

func (k *CompositeKey) String() string {
	parts := make([]string, len(k.Parts))
	for i, p := range k.Parts {
		parts[i] = p.String()
	}
	return "<" + strings.Join(parts, ",") + ">"
}

// TupleKey wraps a single angle-bracket key <k>.
type TupleKey struct {
	Inner Expression
}

func (k *TupleKey) Evaluate(*model.Model, *model.EvaluationContext) (float64, error) {
	return 0, diag.Numericf("tuple key %s is not numeric", k)
}

func (k *TupleKey) Simplify(env *model.Model) Expression {
	inner := k.Inner.Simplify(env)
	if inner == k.Inner {
		return k
	}
	return &TupleKey{Inner: inner}
}

func (k *TupleKey) Bind(ctx *model.EvaluationContext) Expression {
	inner := k.Inner.Bind(ctx)
	if inner == k.Inner {
		return k
	}
	return &TupleKey{Inner: inner}
}

func (k *TupleKey) IsConstant() bool { return false }

func (k *TupleKey) String() string { return "<" + k.Inner.String() + ">" }

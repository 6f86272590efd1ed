package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/model"
	"github.com/vk/optlang/internal/scalar"
)

// resolverModel declares products{key int id; key string name; float cost}
// with three instances.
func resolverModel(t *testing.T) *model.Model {
	t.Helper()
	m := model.New()
	schema := &model.TupleSchema{Name: "Product", Fields: []model.TupleField{
		{Name: "id", Type: model.FieldInt, IsKey: true},
		{Name: "name", Type: model.FieldString, IsKey: true},
		{Name: "cost", Type: model.FieldFloat},
	}}
	require.NoError(t, m.AddSchema(schema))
	ts := &model.TupleSet{Name: "products", Schema: schema}
	rows := []struct {
		id   int
		name string
		cost float64
	}{
		{1, "bolt", 0.5},
		{2, "nut", 0.2},
		{2, "washer", 0.1}, // same id, different name
	}
	for _, r := range rows {
		inst, err := model.NewTupleInstance(schema, []cty.Value{
			scalar.Int(r.id), scalar.String(r.name), scalar.Number(r.cost),
		})
		require.NoError(t, err)
		ts.Append(inst)
	}
	require.NoError(t, m.AddTupleSet(ts))
	return m
}

func costOf(t *testing.T, inst *model.TupleInstance) float64 {
	t.Helper()
	v, ok := inst.Get("cost")
	require.True(t, ok)
	f, ok := scalar.Float(v)
	require.True(t, ok)
	return f
}

func TestResolve_CompositeKey(t *testing.T) {
	t.Parallel()
	env := resolverModel(t)

	item := &ItemFunction{Set: "products", Key: &CompositeKey{Parts: []Expression{
		NewConstant(2), &StringConstant{Value: "washer"},
	}}}
	inst, err := Resolve(item, env, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.1, costOf(t, inst))
}

func TestResolve_CaseInsensitiveStringKey(t *testing.T) {
	t.Parallel()
	env := resolverModel(t)

	item := &ItemFunction{Set: "products", Key: &CompositeKey{Parts: []Expression{
		NewConstant(1), &StringConstant{Value: "BOLT"},
	}}}
	inst, err := Resolve(item, env, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.5, costOf(t, inst))
}

func TestResolve_FirstMatchWins(t *testing.T) {
	t.Parallel()

	m := model.New()
	schema := &model.TupleSchema{Name: "P", Fields: []model.TupleField{
		{Name: "id", Type: model.FieldInt, IsKey: true},
		{Name: "cost", Type: model.FieldFloat},
	}}
	require.NoError(t, m.AddSchema(schema))
	ts := &model.TupleSet{Name: "ps", Schema: schema}
	for _, c := range []float64{1.0, 2.0} {
		inst, err := model.NewTupleInstance(schema, []cty.Value{scalar.Int(7), scalar.Number(c)})
		require.NoError(t, err)
		ts.Append(inst)
	}
	require.NoError(t, m.AddTupleSet(ts))

	item := &ItemFunction{Set: "ps", Key: &TupleKey{Inner: NewConstant(7)}}
	inst, err := Resolve(item, m, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, costOf(t, inst), "declaration order decides between duplicate keys")
}

func TestResolve_ArityMismatch(t *testing.T) {
	t.Parallel()
	env := resolverModel(t)

	item := &ItemFunction{Set: "products", Key: &TupleKey{Inner: NewConstant(1)}}
	_, err := Resolve(item, env, nil)
	require.Error(t, err)
	assert.True(t, diag.IsStructural(err))
	assert.Contains(t, err.Error(), "arity mismatch")
}

func TestResolve_NoMatchIsResolution(t *testing.T) {
	t.Parallel()
	env := resolverModel(t)

	item := &ItemFunction{Set: "products", Key: &CompositeKey{Parts: []Expression{
		NewConstant(9), &StringConstant{Value: "bolt"},
	}}}
	_, err := Resolve(item, env, nil)
	require.Error(t, err)
	assert.True(t, diag.IsValueResolution(err), "an unmatched key is skippable, not fatal")
}

func TestResolve_UnknownSetIsStructural(t *testing.T) {
	t.Parallel()
	env := resolverModel(t)

	item := &ItemFunction{Set: "ghosts", Key: &TupleKey{Inner: NewConstant(1)}}
	_, err := Resolve(item, env, nil)
	require.Error(t, err)
	assert.True(t, diag.IsStructural(err))
}

func TestResolve_NumericKeyWithinEpsilon(t *testing.T) {
	t.Parallel()

	m := model.New()
	schema := &model.TupleSchema{Name: "P", Fields: []model.TupleField{
		{Name: "w", Type: model.FieldFloat, IsKey: true},
		{Name: "cost", Type: model.FieldFloat},
	}}
	require.NoError(t, m.AddSchema(schema))
	ts := &model.TupleSet{Name: "ps", Schema: schema}
	inst, err := model.NewTupleInstance(schema, []cty.Value{scalar.Number(0.5), scalar.Number(3)})
	require.NoError(t, err)
	ts.Append(inst)
	require.NoError(t, m.AddTupleSet(ts))

	item := &ItemFunction{Set: "ps", Key: &TupleKey{Inner: NewConstant(0.5 + scalar.Epsilon/2)}}
	got, err := Resolve(item, m, nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, costOf(t, got))
}

func TestResolve_Idempotent(t *testing.T) {
	t.Parallel()
	env := resolverModel(t)

	item := &ItemFunction{Set: "products", Key: &CompositeKey{Parts: []Expression{
		NewConstant(2), &StringConstant{Value: "nut"},
	}}}
	first, err := Resolve(item, env, nil)
	require.NoError(t, err)
	second, err := Resolve(item, env, nil)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestFieldAccess(t *testing.T) {
	t.Parallel()
	env := resolverModel(t)

	item := &ItemFunction{Set: "products", Key: &CompositeKey{Parts: []Expression{
		NewConstant(1), &StringConstant{Value: "bolt"},
	}}}

	t.Run("numeric field", func(t *testing.T) {
		t.Parallel()
		e := &FieldAccess{Tuple: item, Field: "cost"}
		got, err := e.Evaluate(env, nil)
		require.NoError(t, err)
		assert.Equal(t, 0.5, got)
	})

	t.Run("string field on numeric path", func(t *testing.T) {
		t.Parallel()
		e := &FieldAccess{Tuple: item, Field: "name"}
		_, err := e.Evaluate(env, nil)
		require.Error(t, err)
		kind, ok := diag.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, diag.NumericType, kind)
	})

	t.Run("item itself is not numeric", func(t *testing.T) {
		t.Parallel()
		_, err := item.Evaluate(env, nil)
		require.Error(t, err)
		kind, ok := diag.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, diag.NumericType, kind)
	})
}

package token

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/expr"
	"github.com/vk/optlang/internal/model"
	"github.com/vk/optlang/internal/scalar"
)

// tokenModel declares I=1..3, J=1..2, scalar p, a[I], b[I,J] and a loaded
// tuple set plants{key string name; float cap}.
func tokenModel(t *testing.T) *model.Model {
	t.Helper()
	m := model.New()
	setI := &model.IndexSet{Name: "I", StartIndex: 1, EndIndex: 3}
	setJ := &model.IndexSet{Name: "J", StartIndex: 1, EndIndex: 2}
	require.NoError(t, m.AddIndexSet(setI))
	require.NoError(t, m.AddIndexSet(setJ))
	require.NoError(t, m.AddParameter(&model.Parameter{Name: "p", Value: scalar.Number(10)}))
	require.NoError(t, m.AddIndexedParam(model.NewIndexedParam("a", setI, nil, false)))
	require.NoError(t, m.AddIndexedParam(model.NewIndexedParam("b", setI, setJ, false)))

	schema := &model.TupleSchema{Name: "Plant", Fields: []model.TupleField{
		{Name: "name", Type: model.FieldString, IsKey: true},
		{Name: "cap", Type: model.FieldFloat},
	}}
	require.NoError(t, m.AddSchema(schema))
	ts := &model.TupleSet{Name: "plants", Schema: schema}
	for i, row := range []struct {
		name string
		cap  float64
	}{{"north", 40}, {"south", 60}} {
		inst, err := model.NewTupleInstance(schema, []cty.Value{
			scalar.String(row.name), scalar.Number(row.cap),
		})
		require.NoError(t, err, "row %d", i)
		ts.Append(inst)
	}
	require.NoError(t, m.AddTupleSet(ts))
	return m
}

func mustLookup(t *testing.T, tm *Manager, placeholder string) expr.Expression {
	t.Helper()
	e, ok := tm.Lookup(placeholder)
	require.True(t, ok, "placeholder %q not registered", placeholder)
	return e
}

func TestManager_RegisterAndLookup(t *testing.T) {
	t.Parallel()
	tm := NewManager()

	p0 := tm.Register(KindParam, &expr.ParamRef{Name: "p"})
	p1 := tm.Register(KindItem, &expr.ItemFunction{Set: "plants"})
	assert.Equal(t, "__PARAM0__", p0)
	assert.Equal(t, "__ITEM1__", p1)
	assert.Equal(t, 2, tm.Len())

	e := mustLookup(t, tm, p0)
	assert.Equal(t, "p", e.(*expr.ParamRef).Name)

	_, ok := tm.Lookup("__PARAM99__")
	assert.False(t, ok)

	assert.True(t, IsPlaceholder("__TUPLE_ITER3__"))
	assert.True(t, IsPlaceholder("__PARAM99__"), "shape check does not require registration")
	assert.False(t, IsPlaceholder("plants"))
	assert.False(t, IsPlaceholder("__OTHER0__"))

	tm.Clear()
	assert.Equal(t, 0, tm.Len())
	assert.Equal(t, "__PARAM0__", tm.Register(KindParam, &expr.ParamRef{Name: "p"}),
		"counter resets on Clear")
}

func TestTokenize_ScalarParam(t *testing.T) {
	t.Parallel()
	env := tokenModel(t)
	tm := NewManager()

	out, err := Tokenize(context.Background(), "2 * p + x", tm, env)
	require.NoError(t, err)
	assert.Equal(t, "2 * __PARAM0__ + x", out, "undeclared x stays literal")

	ref := mustLookup(t, tm, "__PARAM0__").(*expr.ParamRef)
	assert.Equal(t, "p", ref.Name)
}

func TestTokenize_OneDimParam(t *testing.T) {
	t.Parallel()
	env := tokenModel(t)
	tm := NewManager()

	out, err := Tokenize(context.Background(), "a[i] * x[i]", tm, env)
	require.NoError(t, err)
	assert.Equal(t, "__PARAM0__ * x[i]", out, "variable reference is left for the term parser")

	ref := mustLookup(t, tm, "__PARAM0__").(*expr.IndexedParamRef)
	assert.Equal(t, "a", ref.Name)
	require.Len(t, ref.Indexes, 1)
	assert.Equal(t, "i", ref.Indexes[0].(*expr.ParamRef).Name)
}

func TestTokenize_TwoDimParam(t *testing.T) {
	t.Parallel()
	env := tokenModel(t)
	tm := NewManager()

	out, err := Tokenize(context.Background(), "b[i, j] + b[1, 2]", tm, env)
	require.NoError(t, err)
	assert.Equal(t, "__PARAM0__ + __PARAM1__", out)

	ref := mustLookup(t, tm, "__PARAM1__").(*expr.IndexedParamRef)
	require.Len(t, ref.Indexes, 2)
	assert.InDelta(t, 1.0, ref.Indexes[0].(*expr.Constant).Value, 1e-12)
	assert.InDelta(t, 2.0, ref.Indexes[1].(*expr.Constant).Value, 1e-12)
}

func TestTokenize_IndexArithmetic(t *testing.T) {
	t.Parallel()
	env := tokenModel(t)
	tm := NewManager()

	out, err := Tokenize(context.Background(), "a[i+1]", tm, env)
	require.NoError(t, err)
	assert.Equal(t, "__PARAM0__", out)

	ref := mustLookup(t, tm, "__PARAM0__").(*expr.IndexedParamRef)
	require.Len(t, ref.Indexes, 1)
	assert.IsType(t, &expr.Binary{}, ref.Indexes[0])
}

func TestTokenize_FixedIndexOutOfRange(t *testing.T) {
	t.Parallel()
	env := tokenModel(t)

	_, err := Tokenize(context.Background(), "a[9]", NewManager(), env)
	require.Error(t, err)
	assert.True(t, diag.IsStructural(err))
	assert.Contains(t, err.Error(), `out of range for parameter "a"`)
}

func TestTokenize_TupleAccess(t *testing.T) {
	t.Parallel()
	env := tokenModel(t)

	t.Run("fixed index", func(t *testing.T) {
		t.Parallel()
		tm := NewManager()
		out, err := Tokenize(context.Background(), "plants[2].cap", tm, env)
		require.NoError(t, err)
		assert.Equal(t, "__TUPLE0__", out)

		ta := mustLookup(t, tm, "__TUPLE0__").(*expr.TupleAccess)
		assert.Equal(t, "plants", ta.Set)
		assert.Equal(t, "cap", ta.Field)
		assert.InDelta(t, 2.0, ta.Index.(*expr.Constant).Value, 1e-12)
	})

	t.Run("iterator index", func(t *testing.T) {
		t.Parallel()
		tm := NewManager()
		out, err := Tokenize(context.Background(), "plants[f].cap", tm, env)
		require.NoError(t, err)
		assert.Equal(t, "__TUPLE_ITER0__", out)

		ta := mustLookup(t, tm, "__TUPLE_ITER0__").(*expr.TupleAccess)
		assert.Equal(t, "f", ta.Index.(*expr.ParamRef).Name)
	})

	t.Run("fixed index out of range", func(t *testing.T) {
		t.Parallel()
		_, err := Tokenize(context.Background(), "plants[7].cap", NewManager(), env)
		require.Error(t, err)
		assert.True(t, diag.IsStructural(err))
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		_, err := Tokenize(context.Background(), "plants[1].weight", NewManager(), env)
		require.Error(t, err)
		assert.True(t, diag.IsStructural(err))
		assert.Contains(t, err.Error(), `has no field "weight"`)
	})
}

func TestTokenize_ItemFunction(t *testing.T) {
	t.Parallel()
	env := tokenModel(t)

	t.Run("string key with field", func(t *testing.T) {
		t.Parallel()
		tm := NewManager()
		out, err := Tokenize(context.Background(), `item(plants, <"north">).cap * 2`, tm, env)
		require.NoError(t, err)
		assert.Equal(t, "__ITEM0__ * 2", out)

		fa := mustLookup(t, tm, "__ITEM0__").(*expr.FieldAccess)
		assert.Equal(t, "cap", fa.Field)
		item := fa.Tuple.(*expr.ItemFunction)
		assert.Equal(t, "plants", item.Set)
		assert.IsType(t, &expr.TupleKey{}, item.Key)
	})

	t.Run("composite key", func(t *testing.T) {
		t.Parallel()
		tm := NewManager()
		out, err := Tokenize(context.Background(), `item(plants, <"north", 1>)`, tm, env)
		require.NoError(t, err)
		assert.Equal(t, "__ITEM0__", out)

		item := mustLookup(t, tm, "__ITEM0__").(*expr.ItemFunction)
		key := item.Key.(*expr.CompositeKey)
		assert.Len(t, key.Parts, 2)
	})

	t.Run("unknown set left untouched", func(t *testing.T) {
		t.Parallel()
		out, err := Tokenize(context.Background(), `item(widgets, <"w">).cap`, NewManager(), env)
		require.NoError(t, err)
		assert.Equal(t, `item(widgets, <"w">).cap`, out)
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		_, err := Tokenize(context.Background(), `item(plants, <"north">).weight`, NewManager(), env)
		require.Error(t, err)
		assert.True(t, diag.IsStructural(err))
	})
}

func TestTokenize_PriorityOrder(t *testing.T) {
	t.Parallel()
	env := tokenModel(t)
	tm := NewManager()

	text := `item(plants, <"north">).cap + plants[f].cap + b[i, j] + a[i] + p`
	out, err := Tokenize(context.Background(), text, tm, env)
	require.NoError(t, err)
	assert.Equal(t, "__ITEM0__ + __TUPLE_ITER1__ + __PARAM2__ + __PARAM3__ + __PARAM4__", out,
		"placeholders number in strategy priority order")
	assert.Equal(t, 5, tm.Len())
}

func TestTokenize_SecondPassIsNoop(t *testing.T) {
	t.Parallel()
	env := tokenModel(t)
	tm := NewManager()

	first, err := Tokenize(context.Background(), "a[i] + p", tm, env)
	require.NoError(t, err)
	second, err := Tokenize(context.Background(), first, tm, env)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTokenize_CounterStableAcrossCalls(t *testing.T) {
	t.Parallel()
	env := tokenModel(t)
	tm := NewManager()

	for i := 0; i < 3; i++ {
		out, err := Tokenize(context.Background(), "p", tm, env)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("__PARAM%d__", i), out)
	}
	assert.Equal(t, 3, tm.Len())

	tm.Clear()
	out, err := Tokenize(context.Background(), "p", tm, env)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "__PARAM0__"))
}

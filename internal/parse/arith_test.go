package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/optlang/internal/expr"
	"github.com/vk/optlang/internal/model"
	"github.com/vk/optlang/internal/scalar"
	"github.com/vk/optlang/internal/token"
)

func evalArith(t *testing.T, text string) float64 {
	t.Helper()
	e, err := ParseArith(text, token.NewManager())
	require.NoError(t, err)
	f, err := e.Evaluate(model.New(), nil)
	require.NoError(t, err)
	return f
}

func TestParseArith_Precedence(t *testing.T) {
	t.Parallel()
	cases := []struct {
		text string
		want float64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 - 4 - 3", 3},
		{"12 / 4 / 3", 1},
		{"-2 * 3", -6},
		{"2 * -3", -6},
		{"1 + 2 <= 3", 1},
		{"2 > 3", 0},
		{"1 < 2 && 3 < 2", 0},
		{"1 < 2 || 3 < 2", 1},
		{"2 == 2", 1},
		{"2 != 2", 0},
		{"if(1 < 2, 10, 20)", 10},
		{"if(1 > 2, 10, 20)", 20},
		{"if(2 == 2, 1 + 1, 0) * 5", 10},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.text, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tc.want, evalArith(t, tc.text), 1e-12)
		})
	}
}

func TestParseArith_Placeholder(t *testing.T) {
	t.Parallel()
	env := model.New()
	require.NoError(t, env.AddParameter(&model.Parameter{Name: "p", Value: scalar.Number(10)}))
	tm := token.NewManager()
	ph := tm.Register(token.KindParam, &expr.ParamRef{Name: "p"})

	e, err := ParseArith(ph+" * 2", tm)
	require.NoError(t, err)
	f, err := e.Evaluate(env, nil)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, f, 1e-12)
}

func TestParseArith_UnregisteredPlaceholder(t *testing.T) {
	t.Parallel()
	_, err := ParseArith("__PARAM7__", token.NewManager())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unregistered placeholder")
}

func TestParseArith_NodeShapes(t *testing.T) {
	t.Parallel()
	tm := token.NewManager()

	e, err := ParseArith("p.cost", tm)
	require.NoError(t, err)
	dfa := e.(*expr.DynamicFieldAccess)
	assert.Equal(t, "p", dfa.Name)
	assert.Equal(t, "cost", dfa.Field)

	e, err = ParseArith("a[i+1, j]", tm)
	require.NoError(t, err)
	ref := e.(*expr.IndexedParamRef)
	assert.Equal(t, "a", ref.Name)
	assert.Len(t, ref.Indexes, 2)

	e, err = ParseArith("n", tm)
	require.NoError(t, err)
	assert.Equal(t, "n", e.(*expr.ParamRef).Name)
}

func TestParseArith_Errors(t *testing.T) {
	t.Parallel()
	for _, text := range []string{"1 +", "(1 + 2", "1 2", "* 3", "if(1, 2)", ""} {
		_, err := ParseArith(text, token.NewManager())
		assert.Error(t, err, "text %q", text)
	}
}

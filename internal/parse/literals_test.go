package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/model"
	"github.com/vk/optlang/internal/scalar"
)

func TestParseScalarLiteral(t *testing.T) {
	t.Parallel()
	cases := []struct {
		text string
		want cty.Value
	}{
		{"42", scalar.Number(42)},
		{"2.5", scalar.Number(2.5)},
		{"-3", scalar.Number(-3)},
		{`"bolt"`, scalar.String("bolt")},
		{"true", scalar.Bool(true)},
		{"false", scalar.Bool(false)},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.text, func(t *testing.T) {
			t.Parallel()
			v, err := ParseScalarLiteral(tc.text)
			require.NoError(t, err)
			assert.True(t, tc.want.RawEquals(v), "want %v, got %v", tc.want, v)
		})
	}

	t.Run("errors", func(t *testing.T) {
		t.Parallel()
		for _, text := range []string{"", "hello", "1 2", `-"x"`} {
			_, err := ParseScalarLiteral(text)
			assert.Error(t, err, "text %q", text)
		}
	})
}

func TestParseList(t *testing.T) {
	t.Parallel()
	vals, err := ParseList("[1, 2.5, -3]")
	require.NoError(t, err)
	require.Len(t, vals, 3)
	f, ok := scalar.Float(vals[2])
	require.True(t, ok)
	assert.InDelta(t, -3.0, f, 1e-12)

	empty, err := ParseList("[]")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseList("[1, 2")
	assert.Error(t, err)
	_, err = ParseList("[1] extra")
	assert.Error(t, err)
}

func TestParseMatrix(t *testing.T) {
	t.Parallel()
	rows, err := ParseMatrix("[[1, 2, 3], [4, 5, 6]]")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Len(t, rows[1], 3)
	f, ok := scalar.Float(rows[1][0])
	require.True(t, ok)
	assert.InDelta(t, 4.0, f, 1e-12)

	_, err = ParseMatrix("[[1], [2]")
	assert.Error(t, err)
}

func TestParseSetMembers(t *testing.T) {
	t.Parallel()
	nums, err := ParseSetMembers("{1, 3, 5}")
	require.NoError(t, err)
	assert.Len(t, nums, 3)

	strs, err := ParseSetMembers(`{"red", "green, blue"}`)
	require.NoError(t, err)
	require.Len(t, strs, 2)
	assert.Equal(t, "green, blue", strs[1].AsString(), "commas inside strings do not split members")
}

func TestParseTupleRows(t *testing.T) {
	t.Parallel()
	schema := &model.TupleSchema{Name: "Product", Fields: []model.TupleField{
		{Name: "id", Type: model.FieldInt, IsKey: true},
		{Name: "name", Type: model.FieldString},
		{Name: "cost", Type: model.FieldFloat},
	}}

	t.Run("valid rows", func(t *testing.T) {
		t.Parallel()
		rows, err := ParseTupleRows(`{<1, "bolt", 0.5>, <2, "nut", 0.2>}`, schema)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		v, ok := rows[1].Get("name")
		require.True(t, ok)
		assert.Equal(t, "nut", v.AsString())
	})

	t.Run("wrong arity", func(t *testing.T) {
		t.Parallel()
		_, err := ParseTupleRows(`{<1, "bolt">}`, schema)
		require.Error(t, err)
		assert.True(t, diag.IsStructural(err))
		assert.Contains(t, err.Error(), "schema declares 3 fields")
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()
		_, err := ParseTupleRows(`{<1, 7, 0.5>}`, schema)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `field "name" expects a string`)
	})

	t.Run("int field rejects fraction", func(t *testing.T) {
		t.Parallel()
		_, err := ParseTupleRows(`{<1.5, "bolt", 0.5>}`, schema)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `field "id" expects an int`)
	})
}

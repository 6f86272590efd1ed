package data_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/optlang/internal/data"
	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/expand"
	"github.com/vk/optlang/internal/parse"
	"github.com/vk/optlang/internal/scalar"
)

const declSrc = `
range I = 1..2;
range J = 1..3;

tuple Plant {
  key string name;
  float cap;
}

float budget = ...;
float fixed = 100;
float c[I] = ...;
float d[I, J] = ...;
{Plant} plants = ...;
set Grades = ...;
set Fixed = {1, 2};
`

func declaredModel(t *testing.T) (*expand.Workspace, *diag.Reporter) {
	t.Helper()
	ws := expand.NewWorkspace()
	rep := diag.NewReporter()
	require.NoError(t, parse.NewParser(ws, rep).ParseSource(context.Background(), declSrc))
	require.Empty(t, rep.Records())
	return ws, rep
}

func TestLoad_Assignments(t *testing.T) {
	t.Parallel()
	ws, rep := declaredModel(t)
	src := `
// production data
budget = 250;
c = [3, 5];
d = [[1, 2, 3], [4, 5, 6]];
plants = {<"north", 40>, <"south", 60>};
Grades = {2, 4, 6};
`
	require.NoError(t, data.Load(context.Background(), ws.Model, src, rep))
	require.Empty(t, rep.Records())

	budget, _ := ws.Model.Parameter("budget")
	f, ok := scalar.Float(budget.Value)
	require.True(t, ok)
	assert.InDelta(t, 250.0, f, 1e-12)

	c, _ := ws.Model.IndexedParam("c")
	v, ok := c.Value(2, nil)
	require.True(t, ok)
	cf, _ := scalar.Float(v)
	assert.InDelta(t, 5.0, cf, 1e-12)

	d, _ := ws.Model.IndexedParam("d")
	j := 3
	dv, ok := d.Value(2, &j)
	require.True(t, ok)
	df, _ := scalar.Float(dv)
	assert.InDelta(t, 6.0, df, 1e-12)

	plants, _ := ws.Model.TupleSet("plants")
	assert.True(t, plants.HasData)
	inst, err := plants.InstanceAt(2)
	require.NoError(t, err)
	name, ok := inst.Get("name")
	require.True(t, ok)
	assert.Equal(t, "south", name.AsString())

	grades, _ := ws.Model.PrimitiveSet("Grades")
	assert.True(t, grades.HasData)
	members, err := grades.IntMembers()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, members)

	assert.Empty(t, ws.Model.UnresolvedExternals(), "budget, c, d, plants and Grades are all loaded")
}

func TestLoad_SetAssignments(t *testing.T) {
	t.Parallel()
	ws, rep := declaredModel(t)

	require.NoError(t, data.Load(context.Background(), ws.Model, "Fixed = {9};", rep))
	require.Len(t, rep.Records(), 1)
	assert.Contains(t, rep.Records()[0].Message, `set "Fixed" is not declared external`)

	rep = diag.NewReporter()
	require.NoError(t, data.Load(context.Background(), ws.Model, "Grades = {1, 2}; Grades = {3};", rep))
	require.Len(t, rep.Records(), 1)
	assert.Contains(t, rep.Records()[0].Message, `set "Grades" already has data`)

	grades, _ := ws.Model.PrimitiveSet("Grades")
	members, err := grades.IntMembers()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, members, "the second assignment must not overwrite")
}

func TestLoad_ErrorsAreRecordedPerStatement(t *testing.T) {
	t.Parallel()
	ws, rep := declaredModel(t)
	src := `
unknown = 1;
fixed = 2;
budget = "lots";
plants + 1;
c = [3, 5];
`
	require.NoError(t, data.Load(context.Background(), ws.Model, src, rep))

	records := rep.Records()
	require.Len(t, records, 4)
	assert.Contains(t, records[0].Message, `data target "unknown" is not declared`)
	assert.Equal(t, 2, records[0].Line)
	assert.Contains(t, records[1].Message, `parameter "fixed" is not declared external`)
	assert.Contains(t, records[2].Message, `parameter "budget" expects a number`)
	assert.Contains(t, records[3].Message, "not an assignment")

	c, _ := ws.Model.IndexedParam("c")
	assert.True(t, c.HasData(), "statements after a bad one still load")
}

func TestLoad_VectorLengthChecked(t *testing.T) {
	t.Parallel()
	ws, rep := declaredModel(t)

	require.NoError(t, data.Load(context.Background(), ws.Model, "c = [1, 2, 3];", rep))
	require.Len(t, rep.Records(), 1)
	assert.Contains(t, rep.Records()[0].Message, "expects 2 values, got 3")
}

func TestLoad_MatrixShapeChecked(t *testing.T) {
	t.Parallel()
	ws, rep := declaredModel(t)

	require.NoError(t, data.Load(context.Background(), ws.Model, "d = [[1, 2, 3]];", rep))
	require.Len(t, rep.Records(), 1)
	assert.Contains(t, rep.Records()[0].Message, "expects 2 rows, got 1")
}

func TestLoad_TupleSetOnlyOnce(t *testing.T) {
	t.Parallel()
	ws, rep := declaredModel(t)

	require.NoError(t, data.Load(context.Background(), ws.Model, `plants = {<"north", 40>};`, rep))
	require.Empty(t, rep.Records())

	require.NoError(t, data.Load(context.Background(), ws.Model, `plants = {<"east", 20>};`, rep))
	require.Len(t, rep.Records(), 1)
	assert.Contains(t, rep.Records()[0].Message, `tuple set "plants" already has data`)

	plants, _ := ws.Model.TupleSet("plants")
	_, err := plants.InstanceAt(2)
	assert.Error(t, err, "the second file must not append")
}

func TestLoad_TupleRowTypeChecked(t *testing.T) {
	t.Parallel()
	ws, rep := declaredModel(t)

	require.NoError(t, data.Load(context.Background(), ws.Model, `plants = {<40, "north">};`, rep))
	require.Len(t, rep.Records(), 1)
	assert.Contains(t, rep.Records()[0].Message, `field "name" expects a string`)
}

func TestLoad_SplitFailureAborts(t *testing.T) {
	t.Parallel()
	ws, rep := declaredModel(t)

	err := data.Load(context.Background(), ws.Model, "budget = 250", rep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing terminating semicolon")
}

package export_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/expand"
	"github.com/vk/optlang/internal/export"
	"github.com/vk/optlang/internal/parse"
)

func expandedWorkspace(t *testing.T, src string) *expand.Workspace {
	t.Helper()
	ws := expand.NewWorkspace()
	rep := diag.NewReporter()
	require.NoError(t, parse.NewParser(ws, rep).ParseSource(context.Background(), src))
	require.NoError(t, expand.NewEngine(ws, rep).ExpandAll(context.Background()))
	require.Empty(t, rep.Records())
	return ws
}

func writeModel(t *testing.T, src string) string {
	t.Helper()
	ws := expandedWorkspace(t, src)
	var buf bytes.Buffer
	require.NoError(t, export.WriteMPS(context.Background(), &buf, ws, "test"))
	return buf.String()
}

func TestWriteMPS_Sections(t *testing.T) {
	t.Parallel()
	out := writeModel(t, `
range I = 1..2;
float c[I] = [3, 5];
var float x[I];
minimize sum(i in I) c[i] * x[i];
forall(i in I) cap: x[i] <= 10;
`)

	assert.True(t, strings.HasPrefix(out, "NAME          test\n"))
	assert.NotContains(t, out, "OBJSENSE", "minimize is the MPS default")
	assert.True(t, strings.HasSuffix(out, "ENDATA\n"))

	wantLines := []string{
		" N  OBJ",
		" L  cap_1",
		" L  cap_2",
		"    x1        OBJ       3",
		"    x1        cap_1     1",
		"    x2        OBJ       5",
		"    x2        cap_2     1",
		"    RHS       cap_1     10",
		"    RHS       cap_2     10",
	}
	for _, line := range wantLines {
		assert.Contains(t, out, line+"\n")
	}

	rows := strings.Index(out, "ROWS")
	columns := strings.Index(out, "COLUMNS")
	rhs := strings.Index(out, "RHS\n")
	bounds := strings.Index(out, "BOUNDS")
	assert.True(t, rows < columns && columns < rhs && rhs < bounds,
		"sections in ROWS, COLUMNS, RHS, BOUNDS order")
}

func TestWriteMPS_MaximizeAndObjectiveConstant(t *testing.T) {
	t.Parallel()
	out := writeModel(t, `
var float x;
maximize 2 * x + 10;
x <= 4;
`)

	assert.Contains(t, out, "OBJSENSE\n    MAX\n")
	assert.Contains(t, out, "    x         OBJ       2\n")
	assert.Contains(t, out, "    RHS       OBJ       -10\n",
		"objective constant moves to the RHS negated")
}

func TestWriteMPS_RelationRowTypes(t *testing.T) {
	t.Parallel()
	out := writeModel(t, `
var float x;
minimize x;
lo: x >= 1;
hi: x <= 5;
pin: x == 3;
`)
	assert.Contains(t, out, " G  lo\n")
	assert.Contains(t, out, " L  hi\n")
	assert.Contains(t, out, " E  pin\n")
}

func TestWriteMPS_IntegerMarkersAndBounds(t *testing.T) {
	t.Parallel()
	out := writeModel(t, `
range I = 1..2;
var float x[I];
var int y in 0..10;
var bool open;
minimize x[1] + x[2] + y + open;
x[1] + y + open >= 1;
`)

	intorg := strings.Index(out, "'INTORG'")
	intend := strings.Index(out, "'INTEND'")
	require.True(t, intorg >= 0 && intend > intorg)

	// Continuous columns stay outside the marker pair, integrals inside.
	x1 := strings.Index(out, "    x1        OBJ")
	y := strings.Index(out, "    y         OBJ")
	open := strings.Index(out, "    open      OBJ")
	require.True(t, x1 >= 0 && y >= 0 && open >= 0)
	assert.Less(t, x1, intorg)
	assert.Greater(t, y, intorg)
	assert.Less(t, y, intend)
	assert.Greater(t, open, intorg)
	assert.Less(t, open, intend)

	assert.Contains(t, out, " LO BND       y         0\n")
	assert.Contains(t, out, " UP BND       y         10\n")
	assert.Contains(t, out, " BV BND       open\n")
}

func TestWriteMPS_ZeroRHSOmitted(t *testing.T) {
	t.Parallel()
	out := writeModel(t, `
var float x;
minimize x;
zero: x >= 0;
`)
	assert.NotContains(t, out, "RHS       zero")
}

func TestWriteMPS_BlockedWhileTemplatesPending(t *testing.T) {
	t.Parallel()
	ws := expand.NewWorkspace()
	rep := diag.NewReporter()
	src := `
var float x;
minimize x;
x >= 1;
`
	require.NoError(t, parse.NewParser(ws, rep).ParseSource(context.Background(), src))

	var buf bytes.Buffer
	err := export.WriteMPS(context.Background(), &buf, ws, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "templates not expanded")
	assert.Contains(t, err.Error(), `"eq1"`)
	assert.Contains(t, err.Error(), "unexpanded")
	assert.Zero(t, buf.Len(), "nothing is written on a blocked export")
}

func TestWriteMPS_BlockedWithoutObjective(t *testing.T) {
	t.Parallel()
	ws := expandedWorkspace(t, `
var float x;
x >= 1;
`)
	var buf bytes.Buffer
	err := export.WriteMPS(context.Background(), &buf, ws, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no expanded objective")
}

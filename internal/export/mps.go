package export

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vk/optlang/internal/ctxlog"
	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/expand"
	"github.com/vk/optlang/internal/expr"
	"github.com/vk/optlang/internal/model"
)

const objRow = "OBJ"

// column is one variable's evaluated entries across the objective and
// constraint rows, in row order.
type column struct {
	name    string
	entries []entry
	decl    *model.IndexedVariable
}

type entry struct {
	row   string
	value float64
}

// WriteMPS renders the workspace's expanded equations and objective as an
// MPS model named name. Every coefficient and constant expression is
// evaluated here; an unevaluable expression aborts the export.
func WriteMPS(ctx context.Context, w io.Writer, ws *expand.Workspace, name string) error {
	logger := ctxlog.FromContext(ctx)
	if pending := ws.UnexpandedTemplates(); len(pending) > 0 {
		return diag.Structuralf("cannot export: %d templates not expanded (first: %q, state %s)",
			len(pending), pending[0].BaseName, pending[0].State)
	}
	if ws.Objective == nil {
		return diag.Structuralf("cannot export: model has no expanded objective")
	}

	cols, err := collectColumns(ws)
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "NAME          %s\n", name)
	if ws.Objective.Sense == expand.Maximize {
		sb.WriteString("OBJSENSE\n    MAX\n")
	}

	sb.WriteString("ROWS\n")
	fmt.Fprintf(&sb, " N  %s\n", objRow)
	for _, eq := range ws.Equations {
		fmt.Fprintf(&sb, " %s  %s\n", rowType(eq.Relation), eq.Label)
	}

	sb.WriteString("COLUMNS\n")
	writeColumns(&sb, cols)

	sb.WriteString("RHS\n")
	if ws.Objective.Constant != nil {
		c, err := evalConst(ws, ws.Objective.Constant, objRow)
		if err != nil {
			return err
		}
		if c != 0 {
			fmt.Fprintf(&sb, "    RHS       %-10s%s\n", objRow, num(-c))
		}
	}
	for _, eq := range ws.Equations {
		c, err := evalConst(ws, eq.Constant, eq.Label)
		if err != nil {
			return err
		}
		if c != 0 {
			fmt.Fprintf(&sb, "    RHS       %-10s%s\n", eq.Label, num(c))
		}
	}

	sb.WriteString("BOUNDS\n")
	writeBounds(&sb, cols)
	sb.WriteString("ENDATA\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("writing mps output: %w", err)
	}
	logger.Info("exported mps model",
		"name", name,
		"rows", len(ws.Equations),
		"columns", len(cols))
	return nil
}

func rowType(r expand.Relation) string {
	switch r {
	case expand.LessEq:
		return "L"
	case expand.GreaterEq:
		return "G"
	default:
		return "E"
	}
}

// collectColumns evaluates every coefficient and groups them by variable in
// first-appearance order, objective first.
func collectColumns(ws *expand.Workspace) ([]*column, error) {
	byName := make(map[string]*column)
	var order []*column
	decls := declaredVars(ws.Model)

	add := func(varName, row string, coeff float64) {
		col, ok := byName[varName]
		if !ok {
			col = &column{name: varName, decl: decls[varName]}
			byName[varName] = col
			order = append(order, col)
		}
		col.entries = append(col.entries, entry{row: row, value: coeff})
	}

	for _, varName := range ws.Objective.VarNames() {
		v, err := evalConst(ws, ws.Objective.Coefficients[varName], objRow)
		if err != nil {
			return nil, err
		}
		add(varName, objRow, v)
	}
	for _, eq := range ws.Equations {
		for _, varName := range eq.VarNames() {
			v, err := evalConst(ws, eq.Coefficients[varName], eq.Label)
			if err != nil {
				return nil, err
			}
			add(varName, eq.Label, v)
		}
	}

	for _, col := range order {
		if col.decl == nil {
			return nil, diag.Structuralf("column %q has no variable declaration", col.name)
		}
	}
	return order, nil
}

// declaredVars maps every expandable variable name to its declaration.
func declaredVars(m *model.Model) map[string]*model.IndexedVariable {
	out := make(map[string]*model.IndexedVariable)
	for _, v := range m.Variables() {
		switch v.Dims() {
		case 0:
			out[v.Name] = v
		case 1:
			for _, i := range v.Index.Values() {
				out[v.ExpandedName(i, nil)] = v
			}
		case 2:
			for _, i := range v.Index.Values() {
				for _, j := range v.SecondIndex.Values() {
					jj := j
					out[v.ExpandedName(i, &jj)] = v
				}
			}
		}
	}
	return out
}

// writeColumns emits continuous columns first, then integer and boolean
// columns inside an INTORG/INTEND marker pair.
func writeColumns(sb *strings.Builder, cols []*column) {
	var integral []*column
	for _, col := range cols {
		if col.decl.Type != model.VarFloat {
			integral = append(integral, col)
			continue
		}
		writeColumn(sb, col)
	}
	if len(integral) == 0 {
		return
	}
	sb.WriteString("    MARKER                 'MARKER'                 'INTORG'\n")
	for _, col := range integral {
		writeColumn(sb, col)
	}
	sb.WriteString("    MARKER                 'MARKER'                 'INTEND'\n")
}

func writeColumn(sb *strings.Builder, col *column) {
	for _, e := range col.entries {
		fmt.Fprintf(sb, "    %-10s%-10s%s\n", col.name, e.row, num(e.value))
	}
}

func writeBounds(sb *strings.Builder, cols []*column) {
	for _, col := range cols {
		decl := col.decl
		if decl.Type == model.VarBool {
			fmt.Fprintf(sb, " BV BND       %s\n", col.name)
			continue
		}
		if decl.LowerBound != nil {
			fmt.Fprintf(sb, " LO BND       %-10s%s\n", col.name, num(*decl.LowerBound))
		}
		if decl.UpperBound != nil {
			fmt.Fprintf(sb, " UP BND       %-10s%s\n", col.name, num(*decl.UpperBound))
		}
	}
}

func evalConst(ws *expand.Workspace, e expr.Expression, row string) (float64, error) {
	if e == nil {
		return 0, nil
	}
	v, err := e.Evaluate(ws.Model, nil)
	if err != nil {
		return 0, fmt.Errorf("evaluating row %q: %w", row, err)
	}
	return v, nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

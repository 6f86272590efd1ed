package data

import (
	"context"

	"github.com/vk/optlang/internal/ctxlog"
	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/model"
	"github.com/vk/optlang/internal/parse"
	"github.com/vk/optlang/internal/scalar"
)

// Load applies the assignments in src to env. Statement errors go to rep
// with their source line; only an unsplittable source aborts the load.
func Load(ctx context.Context, env *model.Model, src string, rep *diag.Reporter) error {
	logger := ctxlog.FromContext(ctx)
	stmts, err := parse.SplitStatements(src)
	if err != nil {
		return err
	}
	loaded := 0
	for _, st := range stmts {
		if err := assign(env, st.Text); err != nil {
			rep.Report(st.Line, err)
		} else {
			loaded++
		}
		rep.StatementProcessed()
	}
	logger.Debug("loaded data file", "assignments", loaded, "errors", len(stmts)-loaded)
	return nil
}

func assign(env *model.Model, text string) error {
	name, value, ok := parse.SplitAssign(text)
	if !ok {
		return diag.Structuralf("data statement is not an assignment: %q", text)
	}

	if p, ok := env.Parameter(name); ok {
		return assignScalar(p, value)
	}
	if p, ok := env.IndexedParam(name); ok {
		return assignIndexed(p, value)
	}
	if s, ok := env.PrimitiveSet(name); ok {
		return assignSet(s, value)
	}
	if ts, ok := env.TupleSet(name); ok {
		return assignTupleSet(ts, value)
	}
	return diag.Structuralf("data target %q is not declared in the model", name)
}

func assignSet(s *model.PrimitiveSet, value string) error {
	if !s.IsExternal {
		return diag.Structuralf("set %q is not declared external", s.Name)
	}
	if s.HasData {
		return diag.Structuralf("set %q already has data", s.Name)
	}
	members, err := parse.ParseSetMembers(value)
	if err != nil {
		return err
	}
	s.Members = members
	s.HasData = true
	return nil
}

func assignScalar(p *model.Parameter, value string) error {
	if !p.IsExternal {
		return diag.Structuralf("parameter %q is not declared external", p.Name)
	}
	v, err := parse.ParseScalarLiteral(value)
	if err != nil {
		return err
	}
	if _, ok := scalar.Float(v); !ok {
		return diag.Numericf("parameter %q expects a number, got %q", p.Name, scalar.Format(v))
	}
	p.Value = v
	return nil
}

func assignIndexed(p *model.IndexedParam, value string) error {
	if !p.IsExternal {
		return diag.Structuralf("parameter %q is not declared external", p.Name)
	}
	if p.Dims() == 1 {
		vals, err := parse.ParseList(value)
		if err != nil {
			return err
		}
		return parse.FillVector(p, vals)
	}
	rows, err := parse.ParseMatrix(value)
	if err != nil {
		return err
	}
	return parse.FillMatrix(p, rows)
}

func assignTupleSet(ts *model.TupleSet, value string) error {
	if !ts.IsExternal {
		return diag.Structuralf("tuple set %q is not declared external", ts.Name)
	}
	if ts.HasData {
		return diag.Structuralf("tuple set %q already has data", ts.Name)
	}
	rows, err := parse.ParseTupleRows(value, ts.Schema)
	if err != nil {
		return err
	}
	for _, row := range rows {
		ts.Append(row)
	}
	return nil
}

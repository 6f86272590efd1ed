package parse

import (
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/model"
	"github.com/vk/optlang/internal/scalar"
)

// externalMarker in a declaration's value position defers the data to a
// data file.
const externalMarker = "..."

// SplitAssign splits a declaration at its top-level '=' into declaration
// head and value text. Comparison operators and quoted strings are skipped.
func SplitAssign(text string) (head, value string, ok bool) {
	inStr := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inStr {
			if c == '"' {
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '=':
			if i > 0 && strings.ContainsRune("=<>!", rune(text[i-1])) {
				continue
			}
			if i+1 < len(text) && text[i+1] == '=' {
				i++
				continue
			}
			return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+1:]), true
		}
	}
	return "", "", false
}

func expectIdent(s *tokenStream) (string, error) {
	t := s.next()
	if t.kind != tokIdent {
		return "", diag.Structuralf("expected identifier, found %q", t.text)
	}
	return t.text, nil
}

func expectInt(s *tokenStream) (int, error) {
	neg := s.acceptSymbol("-")
	t := s.next()
	if t.kind != tokNumber {
		return 0, diag.Structuralf("expected integer, found %q", t.text)
	}
	n, err := strconv.Atoi(t.text)
	if err != nil {
		return 0, diag.Structuralf("expected integer, found %q", t.text)
	}
	if neg {
		n = -n
	}
	return n, nil
}

func expectFloat(s *tokenStream) (float64, error) {
	neg := s.acceptSymbol("-")
	t := s.next()
	if t.kind != tokNumber {
		return 0, diag.Structuralf("expected number, found %q", t.text)
	}
	f, err := strconv.ParseFloat(t.text, 64)
	if err != nil {
		return 0, diag.Structuralf("expected number, found %q", t.text)
	}
	if neg {
		f = -f
	}
	return f, nil
}

// range I = 1..5;
func (p *Parser) parseRange(text string) error {
	toks, err := lex(text)
	if err != nil {
		return err
	}
	s := &tokenStream{toks: toks}
	s.next() // range
	name, err := expectIdent(s)
	if err != nil {
		return err
	}
	if err := s.expectSymbol("="); err != nil {
		return err
	}
	lo, err := expectInt(s)
	if err != nil {
		return err
	}
	if err := s.expectSymbol(".."); err != nil {
		return err
	}
	hi, err := expectInt(s)
	if err != nil {
		return err
	}
	if !s.atEOF() {
		return diag.Structuralf("unexpected %q after range declaration", s.peek().text)
	}
	if hi < lo {
		return diag.Structuralf("range %q is empty: %d..%d", name, lo, hi)
	}
	return p.ws.Model.AddIndexSet(&model.IndexSet{Name: name, StartIndex: lo, EndIndex: hi})
}

// set S = {1, 3, 5};  or  set S = ...;
func (p *Parser) parseSet(text string) error {
	head, value, ok := SplitAssign(text)
	if !ok {
		return diag.Structuralf("set declaration needs an initializer or %q", externalMarker)
	}
	name := strings.TrimSpace(strings.TrimPrefix(head, "set"))
	if !identPattern.MatchString(name) {
		return diag.Structuralf("bad set name %q", name)
	}
	if strings.TrimSpace(value) == externalMarker {
		return p.ws.Model.AddPrimitiveSet(&model.PrimitiveSet{Name: name, IsExternal: true})
	}
	members, err := ParseSetMembers(value)
	if err != nil {
		return err
	}
	return p.ws.Model.AddPrimitiveSet(&model.PrimitiveSet{Name: name, Members: members, HasData: true})
}

// tuple Product { key int id; string name; float cost; }
func (p *Parser) parseTupleSchema(text string) error {
	toks, err := lex(text)
	if err != nil {
		return err
	}
	s := &tokenStream{toks: toks}
	s.next() // tuple
	name, err := expectIdent(s)
	if err != nil {
		return err
	}
	if err := s.expectSymbol("{"); err != nil {
		return err
	}
	schema := &model.TupleSchema{Name: name}
	for !s.acceptSymbol("}") {
		f, err := parseTupleField(s)
		if err != nil {
			return err
		}
		schema.Fields = append(schema.Fields, f)
		s.acceptSymbol(";")
	}
	if !s.atEOF() {
		return diag.Structuralf("unexpected %q after tuple declaration", s.peek().text)
	}
	if len(schema.Fields) == 0 {
		return diag.Structuralf("tuple %q declares no fields", name)
	}
	return p.ws.Model.AddSchema(schema)
}

func parseTupleField(s *tokenStream) (model.TupleField, error) {
	var f model.TupleField
	t := s.next()
	if t.kind != tokIdent {
		return f, diag.Structuralf("expected field declaration, found %q", t.text)
	}
	if t.text == "key" {
		f.IsKey = true
		t = s.next()
		if t.kind != tokIdent {
			return f, diag.Structuralf("expected field type after key, found %q", t.text)
		}
	}
	switch t.text {
	case "int":
		f.Type = model.FieldInt
	case "float":
		f.Type = model.FieldFloat
	case "string":
		f.Type = model.FieldString
	case "bool":
		f.Type = model.FieldBool
	default:
		return f, diag.Structuralf("unknown tuple field type %q", t.text)
	}
	name, err := expectIdent(s)
	if err != nil {
		return f, err
	}
	f.Name = name
	return f, nil
}

// {Product} products indexed by Items = ...;
func (p *Parser) parseTupleSet(text string) error {
	head, value, ok := SplitAssign(text)
	if !ok {
		return diag.Structuralf("tuple set declaration needs an initializer or %q", externalMarker)
	}
	toks, err := lex(head)
	if err != nil {
		return err
	}
	s := &tokenStream{toks: toks}
	if err := s.expectSymbol("{"); err != nil {
		return err
	}
	schemaName, err := expectIdent(s)
	if err != nil {
		return err
	}
	if err := s.expectSymbol("}"); err != nil {
		return err
	}
	name, err := expectIdent(s)
	if err != nil {
		return err
	}
	ts := &model.TupleSet{Name: name}
	schema, ok := p.ws.Model.Schema(schemaName)
	if !ok {
		return diag.Structuralf("tuple schema %q not found", schemaName)
	}
	ts.Schema = schema
	if t := s.peek(); t.kind == tokIdent && t.text == "indexed" {
		s.next()
		kw := s.next()
		if kw.kind != tokIdent || kw.text != "by" {
			return diag.Structuralf("expected %q after indexed", "by")
		}
		idxName, err := expectIdent(s)
		if err != nil {
			return err
		}
		idx, ok := p.ws.Model.IndexSet(idxName)
		if !ok {
			return diag.Structuralf("index set %q not found", idxName)
		}
		ts.IndexedBy = idx
	}
	if !s.atEOF() {
		return diag.Structuralf("unexpected %q in tuple set declaration", s.peek().text)
	}

	if value == externalMarker {
		ts.IsExternal = true
		return p.ws.Model.AddTupleSet(ts)
	}
	rows, err := ParseTupleRows(value, schema)
	if err != nil {
		return err
	}
	for _, row := range rows {
		ts.Append(row)
	}
	return p.ws.Model.AddTupleSet(ts)
}

// int n = 5;  float c = 2*n;  float a[I] = [..];  float d[I,J] = ...;
func (p *Parser) parseParam(text string) error {
	head, value, ok := SplitAssign(text)
	if !ok {
		return diag.Structuralf("parameter declaration needs an initializer or %q", externalMarker)
	}
	toks, err := lex(head)
	if err != nil {
		return err
	}
	s := &tokenStream{toks: toks}
	typ := s.next().text // int or float, already dispatched
	name, err := expectIdent(s)
	if err != nil {
		return err
	}
	if s.acceptSymbol("[") {
		return p.parseIndexedParam(s, name, value)
	}
	if !s.atEOF() {
		return diag.Structuralf("unexpected %q in parameter declaration", s.peek().text)
	}

	param := &model.Parameter{Name: name}
	if value == externalMarker {
		param.IsExternal = true
		return p.ws.Model.AddParameter(param)
	}
	e, err := ParseArith(value, p.ws.Tokens)
	if err != nil {
		return err
	}
	f, err := e.Evaluate(p.ws.Model, nil)
	if err != nil {
		return err
	}
	if typ == "int" && f != float64(int(f)) {
		return diag.Numericf("parameter %q declared int, got %v", name, f)
	}
	param.Value = scalar.Number(f)
	return p.ws.Model.AddParameter(param)
}

func (p *Parser) parseIndexedParam(s *tokenStream, name, value string) error {
	idxName, err := expectIdent(s)
	if err != nil {
		return err
	}
	idx, ok := p.ws.Model.IndexSet(idxName)
	if !ok {
		return diag.Structuralf("index set %q not found", idxName)
	}
	var second *model.IndexSet
	if s.acceptSymbol(",") {
		secondName, err := expectIdent(s)
		if err != nil {
			return err
		}
		second, ok = p.ws.Model.IndexSet(secondName)
		if !ok {
			return diag.Structuralf("index set %q not found", secondName)
		}
	}
	if err := s.expectSymbol("]"); err != nil {
		return err
	}
	if !s.atEOF() {
		return diag.Structuralf("unexpected %q in parameter declaration", s.peek().text)
	}

	param := model.NewIndexedParam(name, idx, second, value == externalMarker)
	if err := p.ws.Model.AddIndexedParam(param); err != nil {
		return err
	}
	if value == externalMarker {
		return nil
	}
	if second == nil {
		vals, err := ParseList(value)
		if err != nil {
			return err
		}
		return FillVector(param, vals)
	}
	rows, err := ParseMatrix(value)
	if err != nil {
		return err
	}
	return FillMatrix(param, rows)
}

// FillVector assigns list values to a one-dimensional parameter in
// index-set order.
func FillVector(param *model.IndexedParam, vals []cty.Value) error {
	indexes := param.Index.Values()
	if len(vals) != len(indexes) {
		return diag.Structuralf("parameter %q expects %d values, got %d", param.Name, len(indexes), len(vals))
	}
	for k, i := range indexes {
		if err := param.SetValue(i, nil, vals[k]); err != nil {
			return err
		}
	}
	return nil
}

// FillMatrix assigns row-major matrix values to a two-dimensional
// parameter in index-set order.
func FillMatrix(param *model.IndexedParam, rows [][]cty.Value) error {
	rowIdx := param.Index.Values()
	colIdx := param.SecondIndex.Values()
	if len(rows) != len(rowIdx) {
		return diag.Structuralf("parameter %q expects %d rows, got %d", param.Name, len(rowIdx), len(rows))
	}
	for r, row := range rows {
		if len(row) != len(colIdx) {
			return diag.Structuralf("parameter %q row %d expects %d values, got %d", param.Name, r+1, len(colIdx), len(row))
		}
		for c, v := range row {
			j := colIdx[c]
			if err := param.SetValue(rowIdx[r], &j, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// var float x[I];  var int y[I,J] in 0..10;  var bool open;
func (p *Parser) parseVar(text string) error {
	toks, err := lex(text)
	if err != nil {
		return err
	}
	s := &tokenStream{toks: toks}
	s.next() // var
	v := &model.IndexedVariable{}
	t := s.next()
	switch t.text {
	case "float":
		v.Type = model.VarFloat
	case "int":
		v.Type = model.VarInt
	case "bool":
		v.Type = model.VarBool
	default:
		return diag.Structuralf("unknown variable type %q", t.text)
	}
	name, err := expectIdent(s)
	if err != nil {
		return err
	}
	v.Name = name
	if s.acceptSymbol("[") {
		idxName, err := expectIdent(s)
		if err != nil {
			return err
		}
		idx, ok := p.ws.Model.IndexSet(idxName)
		if !ok {
			return diag.Structuralf("index set %q not found", idxName)
		}
		v.Index = idx
		if s.acceptSymbol(",") {
			secondName, err := expectIdent(s)
			if err != nil {
				return err
			}
			second, ok := p.ws.Model.IndexSet(secondName)
			if !ok {
				return diag.Structuralf("index set %q not found", secondName)
			}
			v.SecondIndex = second
		}
		if err := s.expectSymbol("]"); err != nil {
			return err
		}
	}
	if t := s.peek(); t.kind == tokIdent && t.text == "in" {
		s.next()
		lo, err := expectFloat(s)
		if err != nil {
			return err
		}
		if err := s.expectSymbol(".."); err != nil {
			return err
		}
		hi, err := expectFloat(s)
		if err != nil {
			return err
		}
		if hi < lo {
			return diag.Structuralf("variable %q has empty bounds %v..%v", name, lo, hi)
		}
		v.LowerBound = &lo
		v.UpperBound = &hi
	}
	if !s.atEOF() {
		return diag.Structuralf("unexpected %q in variable declaration", s.peek().text)
	}
	return p.ws.Model.AddVariable(v)
}

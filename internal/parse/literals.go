package parse

import (
	"strconv"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/model"
	"github.com/vk/optlang/internal/scalar"
)

// literal parsing shared by model-file initializers and data files. All
// forms are parsed from the lexed token stream so string members containing
// commas or braces cannot confuse the splitting.

// parseScalarTok reads one scalar literal: a number, a string, true/false,
// or a negated number.
func parseScalarTok(s *tokenStream) (cty.Value, error) {
	t := s.next()
	switch t.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return cty.NilVal, diag.Structuralf("bad number literal %q", t.text)
		}
		return scalar.Number(f), nil
	case tokString:
		return scalar.String(t.text), nil
	case tokIdent:
		switch t.text {
		case "true":
			return scalar.Bool(true), nil
		case "false":
			return scalar.Bool(false), nil
		}
		return cty.NilVal, diag.Structuralf("expected literal value, found %q", t.text)
	case tokSymbol:
		if t.text == "-" {
			v, err := parseScalarTok(s)
			if err != nil {
				return cty.NilVal, err
			}
			f, ok := scalar.Float(v)
			if !ok {
				return cty.NilVal, diag.Structuralf("cannot negate non-numeric literal")
			}
			return scalar.Number(-f), nil
		}
		return cty.NilVal, diag.Structuralf("expected literal value, found %q", t.text)
	default:
		return cty.NilVal, diag.Structuralf("expected literal value, reached end of statement")
	}
}

// ParseScalarLiteral parses a single scalar literal from text.
func ParseScalarLiteral(text string) (cty.Value, error) {
	toks, err := lex(text)
	if err != nil {
		return cty.NilVal, err
	}
	s := &tokenStream{toks: toks}
	v, err := parseScalarTok(s)
	if err != nil {
		return cty.NilVal, err
	}
	if !s.atEOF() {
		return cty.NilVal, diag.Structuralf("unexpected %q after literal", s.peek().text)
	}
	return v, nil
}

// parseList reads a bracketed list [v, v, ...] of scalars.
func parseList(s *tokenStream) ([]cty.Value, error) {
	if err := s.expectSymbol("["); err != nil {
		return nil, err
	}
	var out []cty.Value
	if s.acceptSymbol("]") {
		return out, nil
	}
	for {
		v, err := parseScalarTok(s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if s.acceptSymbol(",") {
			continue
		}
		if err := s.expectSymbol("]"); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// ParseList parses a one-dimensional list literal like [1, 2.5, 3].
func ParseList(text string) ([]cty.Value, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	s := &tokenStream{toks: toks}
	out, err := parseList(s)
	if err != nil {
		return nil, err
	}
	if !s.atEOF() {
		return nil, diag.Structuralf("unexpected %q after list literal", s.peek().text)
	}
	return out, nil
}

// ParseMatrix parses a row-major matrix literal like [[1,2],[3,4]]. Rows may
// differ in length; bounds are checked against the index sets at assignment.
func ParseMatrix(text string) ([][]cty.Value, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	s := &tokenStream{toks: toks}
	if err := s.expectSymbol("["); err != nil {
		return nil, err
	}
	var rows [][]cty.Value
	if s.acceptSymbol("]") {
		return rows, nil
	}
	for {
		row, err := parseList(s)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
		if s.acceptSymbol(",") {
			continue
		}
		if err := s.expectSymbol("]"); err != nil {
			return nil, err
		}
		break
	}
	if !s.atEOF() {
		return nil, diag.Structuralf("unexpected %q after matrix literal", s.peek().text)
	}
	return rows, nil
}

// ParseSetMembers parses a primitive-set literal like {1, 3, 5} or
// {"red", "green"}.
func ParseSetMembers(text string) ([]cty.Value, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	s := &tokenStream{toks: toks}
	if err := s.expectSymbol("{"); err != nil {
		return nil, err
	}
	var out []cty.Value
	if s.acceptSymbol("}") {
		return out, nil
	}
	for {
		v, err := parseScalarTok(s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if s.acceptSymbol(",") {
			continue
		}
		if err := s.expectSymbol("}"); err != nil {
			return nil, err
		}
		break
	}
	if !s.atEOF() {
		return nil, diag.Structuralf("unexpected %q after set literal", s.peek().text)
	}
	return out, nil
}

// ParseTupleRows parses a tuple-set literal like {<1,"bolt",0.5>, <2,"nut",0.2>}
// into instances of schema. Row values are given in schema field order and
// type-checked against the field types.
func ParseTupleRows(text string, schema *model.TupleSchema) ([]*model.TupleInstance, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	s := &tokenStream{toks: toks}
	if err := s.expectSymbol("{"); err != nil {
		return nil, err
	}
	var out []*model.TupleInstance
	if s.acceptSymbol("}") {
		return out, nil
	}
	for {
		inst, err := parseTupleRow(s, schema)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
		if s.acceptSymbol(",") {
			continue
		}
		if err := s.expectSymbol("}"); err != nil {
			return nil, err
		}
		break
	}
	if !s.atEOF() {
		return nil, diag.Structuralf("unexpected %q after tuple rows", s.peek().text)
	}
	return out, nil
}

func parseTupleRow(s *tokenStream, schema *model.TupleSchema) (*model.TupleInstance, error) {
	if err := s.expectSymbol("<"); err != nil {
		return nil, err
	}
	var values []cty.Value
	for {
		v, err := parseScalarTok(s)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if s.acceptSymbol(",") {
			continue
		}
		if err := s.expectSymbol(">"); err != nil {
			return nil, err
		}
		break
	}
	if len(values) != len(schema.Fields) {
		return nil, diag.Structuralf("tuple row for %q has %d values, schema declares %d fields", schema.Name, len(values), len(schema.Fields))
	}
	for i, f := range schema.Fields {
		if err := checkFieldType(values[i], f); err != nil {
			return nil, err
		}
	}
	return model.NewTupleInstance(schema, values)
}

func checkFieldType(v cty.Value, f model.TupleField) error {
	switch f.Type {
	case model.FieldString:
		if v.Type() != cty.String {
			return diag.Structuralf("field %q expects a string, got %q", f.Name, scalar.Format(v))
		}
	case model.FieldBool:
		if v.Type() != cty.Bool {
			return diag.Structuralf("field %q expects a bool, got %q", f.Name, scalar.Format(v))
		}
	case model.FieldInt:
		fv, ok := scalar.Float(v)
		if !ok {
			return diag.Structuralf("field %q expects an int, got %q", f.Name, scalar.Format(v))
		}
		if fv != float64(int(fv)) {
			return diag.Structuralf("field %q expects an int, got %v", f.Name, fv)
		}
	case model.FieldFloat:
		if _, ok := scalar.Float(v); !ok {
			return diag.Structuralf("field %q expects a number, got %q", f.Name, scalar.Format(v))
		}
	}
	return nil
}

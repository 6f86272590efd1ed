package parse

import (
	"strconv"

	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/expr"
	"github.com/vk/optlang/internal/token"
)

// ParseArith parses tokenized arithmetic text (filter predicates, scalar
// initializers, index expressions) into an expression tree. Placeholders are
// resolved through tm; bare identifiers become parameter or iterator
// references resolved at evaluation time.
func ParseArith(text string, tm *token.Manager) (expr.Expression, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	s := &tokenStream{toks: toks}
	e, err := parseOr(s, tm)
	if err != nil {
		return nil, err
	}
	if !s.atEOF() {
		return nil, diag.Structuralf("unexpected %q after expression in %q", s.peek().text, text)
	}
	return e, nil
}

func parseOr(s *tokenStream, tm *token.Manager) (expr.Expression, error) {
	left, err := parseAnd(s, tm)
	if err != nil {
		return nil, err
	}
	for s.acceptSymbol("||") {
		right, err := parseAnd(s, tm)
		if err != nil {
			return nil, err
		}
		left = expr.NewBinary(expr.OpOr, left, right)
	}
	return left, nil
}

func parseAnd(s *tokenStream, tm *token.Manager) (expr.Expression, error) {
	left, err := parseCompare(s, tm)
	if err != nil {
		return nil, err
	}
	for s.acceptSymbol("&&") {
		right, err := parseCompare(s, tm)
		if err != nil {
			return nil, err
		}
		left = expr.NewBinary(expr.OpAnd, left, right)
	}
	return left, nil
}

var compareOps = map[string]expr.BinaryOp{
	"==": expr.OpEq,
	"!=": expr.OpNe,
	"<=": expr.OpLe,
	">=": expr.OpGe,
	"<":  expr.OpLt,
	">":  expr.OpGt,
}

func parseCompare(s *tokenStream, tm *token.Manager) (expr.Expression, error) {
	left, err := parseAdd(s, tm)
	if err != nil {
		return nil, err
	}
	t := s.peek()
	if t.kind == tokSymbol {
		if op, ok := compareOps[t.text]; ok {
			s.next()
			right, err := parseAdd(s, tm)
			if err != nil {
				return nil, err
			}
			return expr.NewBinary(op, left, right), nil
		}
	}
	return left, nil
}

func parseAdd(s *tokenStream, tm *token.Manager) (expr.Expression, error) {
	left, err := parseMul(s, tm)
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case s.acceptSymbol("+"):
			right, err := parseMul(s, tm)
			if err != nil {
				return nil, err
			}
			left = expr.NewBinary(expr.OpAdd, left, right)
		case s.acceptSymbol("-"):
			right, err := parseMul(s, tm)
			if err != nil {
				return nil, err
			}
			left = expr.NewBinary(expr.OpSub, left, right)
		default:
			return left, nil
		}
	}
}

func parseMul(s *tokenStream, tm *token.Manager) (expr.Expression, error) {
	left, err := parseUnary(s, tm)
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case s.acceptSymbol("*"):
			right, err := parseUnary(s, tm)
			if err != nil {
				return nil, err
			}
			left = expr.NewBinary(expr.OpMul, left, right)
		case s.acceptSymbol("/"):
			right, err := parseUnary(s, tm)
			if err != nil {
				return nil, err
			}
			left = expr.NewBinary(expr.OpDiv, left, right)
		default:
			return left, nil
		}
	}
}

func parseUnary(s *tokenStream, tm *token.Manager) (expr.Expression, error) {
	if s.acceptSymbol("-") {
		inner, err := parseUnary(s, tm)
		if err != nil {
			return nil, err
		}
		return &expr.Negate{Inner: inner}, nil
	}
	return parsePrimary(s, tm)
}

func parsePrimary(s *tokenStream, tm *token.Manager) (expr.Expression, error) {
	t := s.next()
	switch t.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, diag.Structuralf("bad number literal %q", t.text)
		}
		return expr.NewConstant(f), nil
	case tokString:
		return &expr.StringConstant{Value: t.text}, nil
	case tokSymbol:
		if t.text == "(" {
			inner, err := parseOr(s, tm)
			if err != nil {
				return nil, err
			}
			if err := s.expectSymbol(")"); err != nil {
				return nil, err
			}
			return inner, nil
		}
		return nil, diag.Structuralf("unexpected %q in expression", t.text)
	case tokIdent:
		return parseIdentExpr(s, tm, t.text)
	default:
		return nil, diag.Structuralf("unexpected end of expression")
	}
}

// parseIdentExpr handles everything that starts with an identifier: the
// if(cond, a, b) form, registered placeholders, dotted field access on a
// tuple iterator, indexed references that tokenization left untouched, and
// plain parameter or iterator names.
func parseIdentExpr(s *tokenStream, tm *token.Manager, name string) (expr.Expression, error) {
	if name == "if" && s.acceptSymbol("(") {
		cond, err := parseOr(s, tm)
		if err != nil {
			return nil, err
		}
		if err := s.expectSymbol(","); err != nil {
			return nil, err
		}
		truthy, err := parseOr(s, tm)
		if err != nil {
			return nil, err
		}
		if err := s.expectSymbol(","); err != nil {
			return nil, err
		}
		falsy, err := parseOr(s, tm)
		if err != nil {
			return nil, err
		}
		if err := s.expectSymbol(")"); err != nil {
			return nil, err
		}
		return &expr.Conditional{Cond: cond, True: truthy, False: falsy}, nil
	}
	if token.IsPlaceholder(name) {
		e, ok := tm.Lookup(name)
		if !ok {
			return nil, diag.Structuralf("unregistered placeholder %q", name)
		}
		return e, nil
	}
	if s.acceptSymbol(".") {
		field := s.next()
		if field.kind != tokIdent {
			return nil, diag.Structuralf("expected field name after %q.", name)
		}
		return &expr.DynamicFieldAccess{Name: name, Field: field.text}, nil
	}
	if s.acceptSymbol("[") {
		indexes, err := parseIndexList(s, tm)
		if err != nil {
			return nil, err
		}
		return &expr.IndexedParamRef{Name: name, Indexes: indexes}, nil
	}
	return &expr.ParamRef{Name: name}, nil
}

func parseIndexList(s *tokenStream, tm *token.Manager) ([]expr.Expression, error) {
	var indexes []expr.Expression
	for {
		e, err := parseAdd(s, tm)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, e)
		if s.acceptSymbol(",") {
			continue
		}
		if err := s.expectSymbol("]"); err != nil {
			return nil, err
		}
		return indexes, nil
	}
}

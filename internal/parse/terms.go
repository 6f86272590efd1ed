package parse

import (
	"strconv"

	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/expand"
	"github.com/vk/optlang/internal/expr"
	"github.com/vk/optlang/internal/token"
)

// splitRelation finds the single top-level relation operator in toks and
// returns the two sides. Operators inside parentheses or brackets belong to
// filters and index arithmetic and are skipped.
func splitRelation(toks []tok) (lhs, rhs []tok, rel expand.Relation, err error) {
	depth := 0
	at := -1
	for i, t := range toks {
		if t.kind != tokSymbol {
			continue
		}
		switch t.text {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		case "<=", ">=", "==":
			if depth != 0 {
				continue
			}
			if at >= 0 {
				return nil, nil, 0, diag.Structuralf("multiple relation operators in one equation")
			}
			at = i
		}
	}
	if at < 0 {
		return nil, nil, 0, diag.Structuralf("equation has no relation operator (<=, >= or ==)")
	}
	switch toks[at].text {
	case "<=":
		rel = expand.LessEq
	case ">=":
		rel = expand.GreaterEq
	case "==":
		rel = expand.Equal
	}
	return toks[:at], toks[at+1:], rel, nil
}

// termParser reads tokenized equation text as linear terms. It carries the
// iterator names currently in scope so a bare identifier can be told apart
// from a decision variable: iterators evaluate as coefficients, everything
// else unrecognized is assumed to be a variable and validated at expansion.
type termParser struct {
	s     *tokenStream
	tm    *token.Manager
	iters map[string]bool
}

// ParseLinearText parses one tokenized equation side into an ordered list of
// linear terms. iterNames holds the template iterators in scope, if any.
func ParseLinearText(text string, tm *token.Manager, iterNames []string) (*expand.LinearExpr, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	return parseLinearToks(toks, tm, iterNames)
}

func parseLinearToks(toks []tok, tm *token.Manager, iterNames []string) (*expand.LinearExpr, error) {
	scope := make(map[string]bool, len(iterNames))
	for _, n := range iterNames {
		scope[n] = true
	}
	p := &termParser{s: &tokenStream{toks: toks}, tm: tm, iters: scope}
	le, err := p.parseLinearExpr()
	if err != nil {
		return nil, err
	}
	if !p.s.atEOF() {
		return nil, diag.Structuralf("unexpected %q in linear expression", p.s.peek().text)
	}
	return le, nil
}

func (p *termParser) parseLinearExpr() (*expand.LinearExpr, error) {
	le := &expand.LinearExpr{}
	negative := p.s.acceptSymbol("-")
	if !negative {
		p.s.acceptSymbol("+")
	}
	for {
		terms, err := p.parseTermGroup()
		if err != nil {
			return nil, err
		}
		if negative {
			for i := range terms {
				terms[i].Coeff = negateCoeff(terms[i].Coeff)
			}
		}
		le.Terms = append(le.Terms, terms...)

		switch {
		case p.s.acceptSymbol("+"):
			negative = false
		case p.s.acceptSymbol("-"):
			negative = true
		default:
			return le, nil
		}
	}
}

func negateCoeff(coeff expr.Expression) expr.Expression {
	if coeff == nil {
		return expr.NewConstant(-1)
	}
	if c, ok := coeff.(*expr.Constant); ok {
		return expr.NewConstant(-c.Value)
	}
	return &expr.Negate{Inner: coeff}
}

// parseTermGroup parses either a sum(...) group or a single
// coefficient*variable product.
func (p *termParser) parseTermGroup() ([]expand.Term, error) {
	t := p.s.peek()
	if t.kind == tokIdent && t.text == "sum" {
		sum, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		return []expand.Term{{Sum: sum}}, nil
	}
	term, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	return []expand.Term{term}, nil
}

func (p *termParser) parseSum() (*expand.SumTerm, error) {
	p.s.next() // sum
	if err := p.s.expectSymbol("("); err != nil {
		return nil, err
	}
	sum := &expand.SumTerm{}
	for {
		it, err := parseIterator(p.s)
		if err != nil {
			return nil, err
		}
		sum.Iterators = append(sum.Iterators, it)
		if p.s.acceptSymbol(",") {
			continue
		}
		break
	}

	// The sum's own iterators shadow the enclosing scope for the filter
	// and body, then fall back out on return.
	var shadowed []string
	for _, it := range sum.Iterators {
		if !p.iters[it.Name] {
			p.iters[it.Name] = true
			shadowed = append(shadowed, it.Name)
		}
	}
	defer func() {
		for _, n := range shadowed {
			delete(p.iters, n)
		}
	}()

	if p.s.acceptSymbol(":") {
		filter, err := parseOr(p.s, p.tm)
		if err != nil {
			return nil, err
		}
		sum.Filter = filter
	}
	if err := p.s.expectSymbol(")"); err != nil {
		return nil, err
	}

	if p.s.acceptSymbol("(") {
		inner, err := p.parseLinearExpr()
		if err != nil {
			return nil, err
		}
		if err := p.s.expectSymbol(")"); err != nil {
			return nil, err
		}
		if t := p.s.peek(); t.kind == tokSymbol && (t.text == "*" || t.text == "/") {
			return nil, diag.Structuralf("cannot multiply a parenthesized sum body")
		}
		sum.Body = inner.Terms
		return sum, nil
	}
	term, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	sum.Body = []expand.Term{term}
	return sum, nil
}

func parseIterator(s *tokenStream) (expr.Iterator, error) {
	name := s.next()
	if name.kind != tokIdent {
		return expr.Iterator{}, diag.Structuralf("expected iterator name, found %q", name.text)
	}
	kw := s.next()
	if kw.kind != tokIdent || kw.text != "in" {
		return expr.Iterator{}, diag.Structuralf("expected %q after iterator %q", "in", name.text)
	}
	domain := s.next()
	if domain.kind != tokIdent {
		return expr.Iterator{}, diag.Structuralf("expected domain set after %q in", name.text)
	}
	return expr.Iterator{Name: name.text, Domain: domain.text}, nil
}

// parseProduct reads factors joined by * and / into one term. At most one
// factor may be a decision-variable reference; the rest multiply into the
// coefficient.
func (p *termParser) parseProduct() (expand.Term, error) {
	var term expand.Term
	mulCoeff := func(f expr.Expression) {
		if term.Coeff == nil {
			term.Coeff = f
		} else {
			term.Coeff = expr.NewBinary(expr.OpMul, term.Coeff, f)
		}
	}

	divide := false
	for {
		coeff, vref, err := p.parseFactor()
		if err != nil {
			return expand.Term{}, err
		}
		switch {
		case vref != nil && divide:
			return expand.Term{}, diag.Structuralf("nonlinear term: division by variable %q", vref.Name)
		case vref != nil && term.Var != nil:
			return expand.Term{}, diag.Structuralf("nonlinear term: variables %q and %q multiplied together", term.Var.Name, vref.Name)
		case vref != nil:
			term.Var = vref
		case divide:
			if term.Coeff == nil {
				term.Coeff = expr.NewConstant(1)
			}
			term.Coeff = expr.NewBinary(expr.OpDiv, term.Coeff, coeff)
		default:
			mulCoeff(coeff)
		}

		switch {
		case p.s.acceptSymbol("*"):
			divide = false
		case p.s.acceptSymbol("/"):
			divide = true
		default:
			return term, nil
		}
	}
}

// parseFactor returns either a coefficient expression or a variable
// reference, never both.
func (p *termParser) parseFactor() (expr.Expression, *expand.VarRef, error) {
	t := p.s.next()
	switch t.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, nil, diag.Structuralf("bad number literal %q", t.text)
		}
		return expr.NewConstant(f), nil, nil
	case tokSymbol:
		if t.text == "(" {
			inner, err := parseOr(p.s, p.tm)
			if err != nil {
				return nil, nil, err
			}
			if err := p.s.expectSymbol(")"); err != nil {
				return nil, nil, err
			}
			return inner, nil, nil
		}
		if t.text == "-" {
			coeff, vref, err := p.parseFactor()
			if err != nil {
				return nil, nil, err
			}
			if vref != nil {
				return nil, nil, diag.Structuralf("unexpected sign before variable %q inside a product", vref.Name)
			}
			return negateCoeff(coeff), nil, nil
		}
		return nil, nil, diag.Structuralf("unexpected %q in term", t.text)
	case tokIdent:
		if token.IsPlaceholder(t.text) {
			e, ok := p.tm.Lookup(t.text)
			if !ok {
				return nil, nil, diag.Structuralf("unregistered placeholder %q", t.text)
			}
			return e, nil, nil
		}
		if t.text == "if" && p.s.peek().kind == tokSymbol && p.s.peek().text == "(" {
			e, err := parseIdentExpr(p.s, p.tm, t.text)
			if err != nil {
				return nil, nil, err
			}
			return e, nil, nil
		}
		if p.s.acceptSymbol(".") {
			field := p.s.next()
			if field.kind != tokIdent {
				return nil, nil, diag.Structuralf("expected field name after %q.", t.text)
			}
			return &expr.DynamicFieldAccess{Name: t.text, Field: field.text}, nil, nil
		}
		if p.s.acceptSymbol("[") {
			indexes, err := parseIndexList(p.s, p.tm)
			if err != nil {
				return nil, nil, err
			}
			if len(indexes) > 2 {
				return nil, nil, diag.Structuralf("variable %q indexed with %d dimensions, at most 2 supported", t.text, len(indexes))
			}
			vref := &expand.VarRef{Name: t.text, Index: indexes[0]}
			if len(indexes) == 2 {
				vref.SecondIndex = indexes[1]
			}
			return nil, vref, nil
		}
		if p.iters[t.text] {
			return &expr.ParamRef{Name: t.text}, nil, nil
		}
		return nil, &expand.VarRef{Name: t.text}, nil
	default:
		return nil, nil, diag.Structuralf("unexpected end of term")
	}
}

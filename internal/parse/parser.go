package parse

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/vk/optlang/internal/ctxlog"
	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/expand"
	"github.com/vk/optlang/internal/expr"
	"github.com/vk/optlang/internal/token"
)

var (
	identPattern = regexp.MustCompile(`^[A-Za-z_]\w*$`)
	labelPattern = regexp.MustCompile(`^([A-Za-z_]\w*)\s*:\s*(.*)$`)
)

// Parser drives one model-parse session. Statement errors are reported to
// the session reporter and parsing continues with the next statement, so a
// single run surfaces every diagnosable problem.
type Parser struct {
	ws     *expand.Workspace
	rep    *diag.Reporter
	autoEq int
}

// NewParser creates a parser writing into ws and reporting to rep.
func NewParser(ws *expand.Workspace, rep *diag.Reporter) *Parser {
	return &Parser{ws: ws, rep: rep}
}

// ParseSource splits src into statements and parses each one. Statement
// errors are recorded against their source line; only a malformed source
// that cannot be split aborts the whole parse.
func (p *Parser) ParseSource(ctx context.Context, src string) error {
	logger := ctxlog.FromContext(ctx)
	stmts, err := SplitStatements(src)
	if err != nil {
		return err
	}
	for _, st := range stmts {
		if err := p.parseStatement(ctx, st); err != nil {
			p.rep.Report(st.Line, err)
		}
		p.rep.StatementProcessed()
	}
	logger.Debug("parsed model source",
		"statements", len(stmts),
		"templates", len(p.ws.Templates),
		"errors", len(p.rep.Records()))
	return nil
}

func (p *Parser) parseStatement(ctx context.Context, st Statement) error {
	text := st.Text
	switch firstWord(text) {
	case "range":
		return p.parseRange(text)
	case "set":
		return p.parseSet(text)
	case "tuple":
		return p.parseTupleSchema(text)
	case "int", "float":
		return p.parseParam(text)
	case "var":
		return p.parseVar(text)
	case "minimize":
		return p.parseObjective(ctx, st, expand.Minimize)
	case "maximize":
		return p.parseObjective(ctx, st, expand.Maximize)
	case "forall":
		return p.parseForall(ctx, st)
	default:
		if strings.HasPrefix(text, "{") {
			return p.parseTupleSet(text)
		}
		return p.parseEquation(ctx, st, nil, nil)
	}
}

func firstWord(text string) string {
	for i := 0; i < len(text); i++ {
		if !isIdentChar(text[i]) {
			return text[:i]
		}
	}
	return text
}

// minimize sum(i in I) c[i]*x[i];
func (p *Parser) parseObjective(ctx context.Context, st Statement, sense expand.Sense) error {
	if p.ws.ObjectiveSpec != nil {
		return diag.Structuralf("objective already declared on line %d", p.ws.ObjectiveSpec.Line)
	}
	body := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(st.Text, "minimize"), "maximize"))
	rewritten, err := token.Tokenize(ctx, body, p.ws.Tokens, p.ws.Model)
	if err != nil {
		return err
	}
	le, err := ParseLinearText(rewritten, p.ws.Tokens, nil)
	if err != nil {
		return err
	}
	p.ws.ObjectiveSpec = &expand.ObjectiveSpec{Sense: sense, Body: le, Line: st.Line}
	return nil
}

// forall(i in I, j in J : filter) [label:] lhs REL rhs;
func (p *Parser) parseForall(ctx context.Context, st Statement) error {
	header, rest, err := balancedParens(strings.TrimSpace(strings.TrimPrefix(st.Text, "forall")))
	if err != nil {
		return err
	}
	iterText, filterText := splitTopColon(header)
	iters, err := parseIteratorList(iterText)
	if err != nil {
		return err
	}
	if len(iters) > 2 {
		return diag.Structuralf("forall supports at most two iterators, got %d", len(iters))
	}
	var filter expr.Expression
	if filterText != "" {
		rewritten, err := token.Tokenize(ctx, filterText, p.ws.Tokens, p.ws.Model)
		if err != nil {
			return err
		}
		filter, err = ParseArith(rewritten, p.ws.Tokens)
		if err != nil {
			return err
		}
	}
	return p.parseEquation(ctx, Statement{Text: rest, Line: st.Line}, iters, filter)
}

// parseEquation parses [label:] lhs REL rhs into a template. iters and
// filter come from an enclosing forall and may be nil.
func (p *Parser) parseEquation(ctx context.Context, st Statement, iters []expr.Iterator, filter expr.Expression) error {
	text := strings.TrimSpace(st.Text)
	base := ""
	if m := labelPattern.FindStringSubmatch(text); m != nil {
		base = m[1]
		text = m[2]
	}
	if base == "" {
		p.autoEq++
		base = fmt.Sprintf("eq%d", p.autoEq)
	}

	rewritten, err := token.Tokenize(ctx, text, p.ws.Tokens, p.ws.Model)
	if err != nil {
		return err
	}
	toks, err := lex(rewritten)
	if err != nil {
		return err
	}
	lhsToks, rhsToks, rel, err := splitRelation(toks)
	if err != nil {
		return err
	}
	iterNames := make([]string, len(iters))
	for i, it := range iters {
		iterNames[i] = it.Name
	}
	lhs, err := parseLinearToks(lhsToks, p.ws.Tokens, iterNames)
	if err != nil {
		return err
	}
	rhs, err := parseLinearToks(rhsToks, p.ws.Tokens, iterNames)
	if err != nil {
		return err
	}
	p.ws.Templates = append(p.ws.Templates, &expand.Template{
		BaseName:  base,
		Iterators: iters,
		Filter:    filter,
		Relation:  rel,
		LHS:       lhs,
		RHS:       rhs,
		Line:      st.Line,
	})
	return nil
}

// balancedParens splits "(header) rest" at the matching close paren.
func balancedParens(text string) (header, rest string, err error) {
	if !strings.HasPrefix(text, "(") {
		return "", "", diag.Structuralf("expected %q, found %q", "(", text)
	}
	depth := 0
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
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return text[1:i], strings.TrimSpace(text[i+1:]), nil
			}
		}
	}
	return "", "", diag.Structuralf("unbalanced parentheses in %q", text)
}

// splitTopColon splits an iterator header at its top-level colon, if any.
func splitTopColon(text string) (iterText, filterText string) {
	depth := 0
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
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ':':
			if depth == 0 {
				return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+1:])
			}
		}
	}
	return strings.TrimSpace(text), ""
}

func parseIteratorList(text string) ([]expr.Iterator, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	s := &tokenStream{toks: toks}
	var iters []expr.Iterator
	for {
		it, err := parseIterator(s)
		if err != nil {
			return nil, err
		}
		iters = append(iters, it)
		if s.acceptSymbol(",") {
			continue
		}
		if !s.atEOF() {
			return nil, diag.Structuralf("unexpected %q in iterator list", s.peek().text)
		}
		return iters, nil
	}
}

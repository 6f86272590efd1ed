package parse

import (
	"strings"

	"github.com/vk/optlang/internal/diag"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokNumber
	tokString
	tokSymbol
)

type tok struct {
	kind tokKind
	text string
	pos  int
}

// multiCharSymbols are matched longest-first before single characters.
// "..." is the external-data marker; ".." delimits range bounds.
var multiCharSymbols = []string{"...", "<=", ">=", "==", "!=", "&&", "||", ".."}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// lex splits text into identifier, number, string and symbol tokens.
// Numbers stop before ".." so range bounds like 1..5 stay two numbers.
func lex(text string) ([]tok, error) {
	var toks []tok
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case isIdentStart(c):
			j := i + 1
			for j < len(text) && isIdentChar(text[j]) {
				j++
			}
			toks = append(toks, tok{tokIdent, text[i:j], i})
			i = j
		case isDigit(c):
			j := i + 1
			for j < len(text) && isDigit(text[j]) {
				j++
			}
			if j+1 < len(text) && text[j] == '.' && isDigit(text[j+1]) {
				j++
				for j < len(text) && isDigit(text[j]) {
					j++
				}
			}
			toks = append(toks, tok{tokNumber, text[i:j], i})
			i = j
		case c == '"':
			j := i + 1
			for j < len(text) && text[j] != '"' {
				j++
			}
			if j >= len(text) {
				return nil, diag.Structuralf("unterminated string literal in %q", text)
			}
			toks = append(toks, tok{tokString, text[i+1 : j], i})
			i = j + 1
		default:
			matched := false
			for _, sym := range multiCharSymbols {
				if strings.HasPrefix(text[i:], sym) {
					toks = append(toks, tok{tokSymbol, sym, i})
					i += len(sym)
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			if strings.ContainsRune("+-*/()[]{}<>=,:.!;", rune(c)) {
				toks = append(toks, tok{tokSymbol, string(c), i})
				i++
				continue
			}
			return nil, diag.Structuralf("unexpected character %q in %q", string(c), text)
		}
	}
	return toks, nil
}

type tokenStream struct {
	toks []tok
	pos  int
}

func (s *tokenStream) peek() tok {
	if s.pos >= len(s.toks) {
		return tok{kind: tokEOF}
	}
	return s.toks[s.pos]
}

func (s *tokenStream) next() tok {
	t := s.peek()
	if t.kind != tokEOF {
		s.pos++
	}
	return t
}

func (s *tokenStream) acceptSymbol(sym string) bool {
	t := s.peek()
	if t.kind == tokSymbol && t.text == sym {
		s.pos++
		return true
	}
	return false
}

func (s *tokenStream) expectSymbol(sym string) error {
	if !s.acceptSymbol(sym) {
		t := s.peek()
		if t.kind == tokEOF {
			return diag.Structuralf("expected %q, reached end of statement", sym)
		}
		return diag.Structuralf("expected %q, found %q", sym, t.text)
	}
	return nil
}

func (s *tokenStream) atEOF() bool { return s.peek().kind == tokEOF }

package parse

import (
	"strings"

	"github.com/vk/optlang/internal/diag"
)

// Statement is one semicolon-terminated source statement with the line it
// started on. Line numbers are 1-based and survive comment stripping.
type Statement struct {
	Text string
	Line int
}

// SplitStatements strips // and /* */ comments from src and splits the
// remainder into statements at top-level semicolons. Semicolons inside
// braces stay put so tuple schema bodies survive as one statement, and a
// schema's closing brace terminates it, so "tuple T { ... }" needs no
// trailing semicolon. Quoted strings are opaque to both comment detection
// and splitting. An unterminated block comment or string literal is a
// structural error.
func SplitStatements(src string) ([]Statement, error) {
	var (
		out     []Statement
		buf     strings.Builder
		line    = 1
		stmtAt  = 0
		depth   = 0
		inStr   bool
		inLine  bool
		inBlock bool
	)
	flush := func() {
		text := strings.TrimSpace(buf.String())
		buf.Reset()
		if text != "" {
			out = append(out, Statement{Text: text, Line: stmtAt})
		}
		stmtAt = 0
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		if c == '\n' {
			line++
			if inLine {
				inLine = false
			}
			if !inBlock && !inLine {
				buf.WriteByte(' ')
			}
			continue
		}
		if inLine {
			continue
		}
		if inBlock {
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				inBlock = false
				i++
			}
			continue
		}
		if inStr {
			buf.WriteByte(c)
			if c == '"' {
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
			if stmtAt == 0 {
				stmtAt = line
			}
			buf.WriteByte(c)
		case '/':
			if i+1 < len(src) {
				switch src[i+1] {
				case '/':
					inLine = true
					i++
					continue
				case '*':
					inBlock = true
					i++
					continue
				}
			}
			if stmtAt == 0 {
				stmtAt = line
			}
			buf.WriteByte(c)
		case '{':
			depth++
			if stmtAt == 0 {
				stmtAt = line
			}
			buf.WriteByte(c)
		case '}':
			depth--
			buf.WriteByte(c)
			// A schema body's closing brace ends the statement: the
			// grammar accepts "tuple T { ... }" with or without a
			// trailing semicolon. Braced literals ({1, 2}, tuple rows)
			// keep buffering until their statement's semicolon.
			if depth == 0 && firstWord(strings.TrimSpace(buf.String())) == "tuple" {
				flush()
			}
		case ';':
			if depth > 0 {
				buf.WriteByte(c)
				continue
			}
			flush()
		default:
			if stmtAt == 0 && c != ' ' && c != '\t' && c != '\r' {
				stmtAt = line
			}
			buf.WriteByte(c)
		}
	}
	if inBlock {
		return nil, diag.Structuralf("unterminated block comment").WithLine(line)
	}
	if inStr {
		return nil, diag.Structuralf("unterminated string literal").WithLine(line)
	}
	if strings.TrimSpace(buf.String()) != "" {
		return nil, diag.Structuralf("statement missing terminating semicolon: %q", strings.TrimSpace(buf.String())).WithLine(stmtAt)
	}
	return out, nil
}

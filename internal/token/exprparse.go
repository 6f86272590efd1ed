package token

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/expr"
)

var (
	identPattern      = regexp.MustCompile(`^[A-Za-z_]\w*$`)
	fieldAccessSplit  = regexp.MustCompile(`^([A-Za-z_]\w*)\.([A-Za-z_]\w*)$`)
	indexArithPattern = regexp.MustCompile(`^([A-Za-z_]\w*)\s*([+-])\s*(\d+)$`)
)

// parseKeyPart interprets one component of an angle-bracket key: a quoted
// string, a number, an iterator/parameter name, or a dynamic field access
// p.field.
func parseKeyPart(text string) (expr.Expression, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, diag.Structuralf("empty key component")
	}
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		return &expr.StringConstant{Value: text[1 : len(text)-1]}, nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return expr.NewConstant(f), nil
	}
	if m := fieldAccessSplit.FindStringSubmatch(text); m != nil {
		return &expr.DynamicFieldAccess{Name: m[1], Field: m[2]}, nil
	}
	if identPattern.MatchString(text) {
		return &expr.ParamRef{Name: text}, nil
	}
	return nil, diag.Structuralf("malformed key component %q", text)
}

// parseIndexExpr interprets an index expression inside square brackets: an
// integer, an iterator/parameter name, or name±offset.
func parseIndexExpr(text string) (expr.Expression, error) {
	text = strings.TrimSpace(text)
	if n, err := strconv.Atoi(text); err == nil {
		return expr.NewConstant(float64(n)), nil
	}
	if identPattern.MatchString(text) {
		return &expr.ParamRef{Name: text}, nil
	}
	if m := indexArithPattern.FindStringSubmatch(text); m != nil {
		offset, _ := strconv.Atoi(m[3])
		op := expr.OpAdd
		if m[2] == "-" {
			op = expr.OpSub
		}
		return expr.NewBinary(op, &expr.ParamRef{Name: m[1]}, expr.NewConstant(float64(offset))), nil
	}
	return nil, diag.Structuralf("malformed index expression %q", text)
}

// match is one regex hit scheduled for replacement.
type match struct {
	start, end  int
	replacement string
}

// applyMatches splices the replacements into text. Matches must be
// non-overlapping and in ascending order.
func applyMatches(text string, matches []match) string {
	if len(matches) == 0 {
		return text
	}
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(text[last:m.start])
		sb.WriteString(m.replacement)
		last = m.end
	}
	sb.WriteString(text[last:])
	return sb.String()
}

package token

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/expr"
	"github.com/vk/optlang/internal/model"
)

// itemStrategy rewrites item(set, <keys>) calls, optionally with a trailing
// field access. It runs first: the angle brackets and nested parentheses of
// an item call would confuse the indexing strategies below it.
type itemStrategy struct{}

var itemPattern = regexp.MustCompile(`\bitem\s*\(\s*([A-Za-z_]\w*)\s*,\s*<([^<>]*)>\s*\)(?:\s*\.\s*([A-Za-z_]\w*))?`)

func (s *itemStrategy) Name() string { return "item" }

func (s *itemStrategy) Priority() int { return 1 }

func (s *itemStrategy) Rewrite(text string, tm *Manager, env *model.Model) (string, error) {
	var matches []match
	for _, loc := range itemPattern.FindAllStringSubmatchIndex(text, -1) {
		setName := text[loc[2]:loc[3]]
		ts, ok := env.TupleSet(setName)
		if !ok {
			// Left untouched so the term parser can report it in context.
			continue
		}

		keyText := text[loc[4]:loc[5]]
		var parts []expr.Expression
		for _, p := range strings.Split(keyText, ",") {
			part, err := parseKeyPart(p)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		var key expr.Expression
		if len(parts) == 1 {
			key = &expr.TupleKey{Inner: parts[0]}
		} else {
			key = &expr.CompositeKey{Parts: parts}
		}
		item := &expr.ItemFunction{Set: setName, Key: key}

		var node expr.Expression = item
		if loc[6] >= 0 {
			field := text[loc[6]:loc[7]]
			if ts.Schema != nil {
				if _, _, ok := ts.Schema.Field(field); !ok {
					return "", diag.Structuralf("tuple %q has no field %q", ts.Schema.Name, field)
				}
			}
			node = &expr.FieldAccess{Tuple: item, Field: field}
		}
		matches = append(matches, match{start: loc[0], end: loc[1], replacement: tm.Register(KindItem, node)})
	}
	return applyMatches(text, matches), nil
}

// tupleAccessStrategy rewrites positional and iterator-indexed tuple field
// access: set[3].field and set[p].field.
type tupleAccessStrategy struct{}

var tupleAccessPattern = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\[\s*([A-Za-z_]\w*|\d+)\s*\]\s*\.\s*([A-Za-z_]\w*)`)

func (s *tupleAccessStrategy) Name() string { return "tuple-access" }

func (s *tupleAccessStrategy) Priority() int { return 2 }

func (s *tupleAccessStrategy) Rewrite(text string, tm *Manager, env *model.Model) (string, error) {
	var matches []match
	for _, loc := range tupleAccessPattern.FindAllStringSubmatchIndex(text, -1) {
		setName := text[loc[2]:loc[3]]
		ts, ok := env.TupleSet(setName)
		if !ok {
			continue
		}
		field := text[loc[6]:loc[7]]
		if ts.Schema != nil {
			if _, _, ok := ts.Schema.Field(field); !ok {
				return "", diag.Structuralf("tuple %q has no field %q", ts.Schema.Name, field)
			}
		}

		indexText := text[loc[4]:loc[5]]
		kind := KindTupleIter
		var index expr.Expression
		if n, err := strconv.Atoi(indexText); err == nil {
			kind = KindTuple
			index = expr.NewConstant(float64(n))
			// A fixed index against a loaded set is checked now; external
			// sets without data yet are checked at resolution time.
			if ts.HasData || ts.IndexedBy != nil {
				if _, err := ts.InstanceAt(n); err != nil {
					return "", err
				}
			}
		} else {
			index = &expr.ParamRef{Name: indexText}
		}

		node := &expr.TupleAccess{Set: setName, Index: index, Field: field}
		matches = append(matches, match{start: loc[0], end: loc[1], replacement: tm.Register(kind, node)})
	}
	return applyMatches(text, matches), nil
}

// twoDimStrategy rewrites two-dimensional indexed-parameter references
// name[i,j]. Decision-variable references keep their literal spelling for
// the term parser.
type twoDimStrategy struct{}

var twoDimPattern = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\[\s*([^\[\],]+?)\s*,\s*([^\[\],]+?)\s*\]`)

func (s *twoDimStrategy) Name() string { return "two-dim-index" }

func (s *twoDimStrategy) Priority() int { return 3 }

func (s *twoDimStrategy) Rewrite(text string, tm *Manager, env *model.Model) (string, error) {
	var matches []match
	for _, loc := range twoDimPattern.FindAllStringSubmatchIndex(text, -1) {
		name := text[loc[2]:loc[3]]
		param, ok := env.IndexedParam(name)
		if !ok || param.Dims() != 2 {
			continue
		}
		first, err := validatedIndex(text[loc[4]:loc[5]], name, param.Index)
		if err != nil {
			return "", err
		}
		second, err := validatedIndex(text[loc[6]:loc[7]], name, param.SecondIndex)
		if err != nil {
			return "", err
		}
		node := &expr.IndexedParamRef{Name: name, Indexes: []expr.Expression{first, second}}
		matches = append(matches, match{start: loc[0], end: loc[1], replacement: tm.Register(KindParam, node)})
	}
	return applyMatches(text, matches), nil
}

// oneDimStrategy rewrites one-dimensional indexed-parameter references
// name[i].
type oneDimStrategy struct{}

var oneDimPattern = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\[\s*([^\[\],]+?)\s*\]`)

func (s *oneDimStrategy) Name() string { return "one-dim-index" }

func (s *oneDimStrategy) Priority() int { return 4 }

func (s *oneDimStrategy) Rewrite(text string, tm *Manager, env *model.Model) (string, error) {
	var matches []match
	for _, loc := range oneDimPattern.FindAllStringSubmatchIndex(text, -1) {
		name := text[loc[2]:loc[3]]
		param, ok := env.IndexedParam(name)
		if !ok || param.Dims() != 1 {
			continue
		}
		index, err := validatedIndex(text[loc[4]:loc[5]], name, param.Index)
		if err != nil {
			return "", err
		}
		node := &expr.IndexedParamRef{Name: name, Indexes: []expr.Expression{index}}
		matches = append(matches, match{start: loc[0], end: loc[1], replacement: tm.Register(KindParam, node)})
	}
	return applyMatches(text, matches), nil
}

// validatedIndex parses an index expression and rejects constant indexes
// outside the declared range of a known parameter. Iterator names cannot be
// checked until expansion binds them.
func validatedIndex(text, paramName string, set *model.IndexSet) (expr.Expression, error) {
	index, err := parseIndexExpr(text)
	if err != nil {
		return nil, err
	}
	if c, ok := index.(*expr.Constant); ok && set != nil && !set.Contains(int(c.Value)) {
		return nil, diag.Structuralf("index %d out of range for parameter %q (%d..%d)",
			int(c.Value), paramName, set.StartIndex, set.EndIndex)
	}
	return index, nil
}

// scalarParamStrategy rewrites bare identifiers that name declared scalar
// parameters. It runs last: every structured reference has already been
// consumed, so any scalar parameter name still present is a plain term
// factor.
type scalarParamStrategy struct{}

var wordPattern = regexp.MustCompile(`\b[A-Za-z_]\w*\b`)

func (s *scalarParamStrategy) Name() string { return "scalar-param" }

func (s *scalarParamStrategy) Priority() int { return 5 }

func (s *scalarParamStrategy) Rewrite(text string, tm *Manager, env *model.Model) (string, error) {
	var matches []match
	for _, loc := range wordPattern.FindAllStringIndex(text, -1) {
		name := text[loc[0]:loc[1]]
		if _, ok := env.Parameter(name); !ok {
			continue
		}
		// Skip field access and call positions; those belong to earlier
		// strategies or to the term parser.
		if loc[0] > 0 && text[loc[0]-1] == '.' {
			continue
		}
		if next := nextNonSpace(text, loc[1]); next == '[' || next == '(' || next == '.' {
			continue
		}
		node := &expr.ParamRef{Name: name}
		matches = append(matches, match{start: loc[0], end: loc[1], replacement: tm.Register(KindParam, node)})
	}
	return applyMatches(text, matches), nil
}

func nextNonSpace(text string, from int) byte {
	for i := from; i < len(text); i++ {
		if text[i] != ' ' && text[i] != '\t' {
			return text[i]
		}
	}
	return 0
}

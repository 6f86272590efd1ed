package token

import (
	"context"
	"sort"

	"github.com/vk/optlang/internal/ctxlog"
	"github.com/vk/optlang/internal/model"
)

// Strategy is one priority-ordered rewrite pass. Rewrite must be idempotent
// on its own output and must leave unvalidated matches untouched.
type Strategy interface {
	Name() string
	Priority() int
	Rewrite(text string, tm *Manager, env *model.Model) (string, error)
}

// strategies returns the full pipeline in registration order; Tokenize sorts
// by priority before running.
func strategies() []Strategy {
	return []Strategy{
		&itemStrategy{},
		&tupleAccessStrategy{},
		&twoDimStrategy{},
		&oneDimStrategy{},
		&scalarParamStrategy{},
	}
}

// Tokenize runs every strategy over text in ascending priority order,
// feeding each strategy's output into the next, and returns the rewritten
// text. Structural errors (unknown field on a known schema, constant index
// out of a known range) abort immediately.
func Tokenize(ctx context.Context, text string, tm *Manager, env *model.Model) (string, error) {
	logger := ctxlog.FromContext(ctx)
	passes := strategies()
	sort.SliceStable(passes, func(i, j int) bool { return passes[i].Priority() < passes[j].Priority() })

	for _, s := range passes {
		rewritten, err := s.Rewrite(text, tm, env)
		if err != nil {
			return "", err
		}
		if rewritten != text {
			logger.Debug("Tokenization pass rewrote text.", "strategy", s.Name(), "text", rewritten)
		}
		text = rewritten
	}
	return text, nil
}

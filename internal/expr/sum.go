package expr

import (
	"fmt"
	"strings"

	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/model"
	"github.com/vk/optlang/internal/scalar"
)

// Iterator pairs a free iterator variable with the set it ranges over.
type Iterator struct {
	Name   string
	Domain string
}

func (it Iterator) String() string { return it.Name + " in " + it.Domain }

// WalkDomains enumerates the full cross product of the iterators' domains in
// ascending declared order, outer iterator before inner, binding each
// combination into ctx and invoking fn. The binding frame is reverted after
// every branch, whether or not fn fails. An unresolvable domain is a
// structural failure that aborts the walk.
//
// This is the single iteration algorithm shared by FilteredSummation
// evaluation and equation-template expansion.
func WalkDomains(env *model.Model, ctx *model.EvaluationContext, iters []Iterator, fn func(*model.EvaluationContext) error) error {
	if len(iters) == 0 {
		return fn(ctx)
	}
	domain, err := env.IteratorDomain(iters[0].Domain)
	if err != nil {
		return err
	}
	for _, v := range domain {
		ctx.Push()
		ctx.Bind(iters[0].Name, v)
		err := WalkDomains(env, ctx, iters[1:], fn)
		ctx.Pop()
		if err != nil {
			return err
		}
	}
	return nil
}

// FilteredSummation sums its body over the cross product of its iterator
// domains, skipping combinations where the filter is false. A combination
// whose filter or body fails with a value-resolution error is silently
// skipped: partial domains with undefined terms must not abort the whole
// summation. Structural and numeric-type failures still propagate.
type FilteredSummation struct {
	Iterators []Iterator
	Filter    Expression // nil when unfiltered
	Body      Expression
}

func (s *FilteredSummation) Evaluate(env *model.Model, ctx *model.EvaluationContext) (float64, error) {
	if ctx == nil {
		ctx = model.NewContext()
	}
	total := 0.0
	err := WalkDomains(env, ctx, s.Iterators, func(c *model.EvaluationContext) error {
		if s.Filter != nil {
			f, err := s.Filter.Evaluate(env, c)
			if err != nil {
				if diag.IsValueResolution(err) {
					return nil
				}
				return err
			}
			if !scalar.Truthy(f) {
				return nil
			}
		}
		v, err := s.Body.Evaluate(env, c)
		if err != nil {
			if diag.IsValueResolution(err) {
				return nil
			}
			return err
		}
		total += v
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Simplify never folds a summation to a constant: its value depends on the
// iterator domains held by the environment.
func (s *FilteredSummation) Simplify(env *model.Model) Expression {
	var filter Expression
	if s.Filter != nil {
		filter = s.Filter.Simplify(env)
	}
	body := s.Body.Simplify(env)
	if filter == s.Filter && body == s.Body {
		return s
	}
	return &FilteredSummation{Iterators: s.Iterators, Filter: filter, Body: body}
}

// Bind substitutes outer iterator bindings into the filter and body. The
// summation's own iterators shadow outer bindings of the same name.
func (s *FilteredSummation) Bind(ctx *model.EvaluationContext) Expression {
	names := make([]string, len(s.Iterators))
	for i, it := range s.Iterators {
		names[i] = it.Name
	}
	visible := ctx.Without(names)
	var filter Expression
	if s.Filter != nil {
		filter = s.Filter.Bind(visible)
	}
	body := s.Body.Bind(visible)
	if filter == s.Filter && body == s.Body {
		return s
	}
	return &FilteredSummation{Iterators: s.Iterators, Filter: filter, Body: body}
}

func (s *FilteredSummation) IsConstant() bool { return false }

func (s *FilteredSummation) String() string {
	iters := make([]string, len(s.Iterators))
	for i, it := range s.Iterators {
		iters[i] = it.String()
	}
	head := strings.Join(iters, ", ")
	if s.Filter != nil {
		head += " : " + s.Filter.String()
	}
	return fmt.Sprintf("sum(%s) %s", head, s.Body)
}

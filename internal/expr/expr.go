package expr

import (
	"fmt"
	"math"
	"strconv"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/model"
	"github.com/vk/optlang/internal/scalar"
)

// Expression is one node of the expression tree.
type Expression interface {
	// Evaluate computes the node's numeric value against the environment and
	// the iterator overlay. A nil context is treated as empty.
	Evaluate(env *model.Model, ctx *model.EvaluationContext) (float64, error)
	// Simplify constant-folds the tree bottom-up, returning a new tree or
	// the receiver unchanged. env may be nil.
	Simplify(env *model.Model) Expression
	// Bind substitutes bound iterator values, returning a context-free tree.
	Bind(ctx *model.EvaluationContext) Expression
	// IsConstant reports whether the node can be evaluated without an
	// environment or evaluation context.
	IsConstant() bool

	fmt.Stringer
}

// TupleValued is satisfied by nodes whose result is a tuple instance rather
// than a number. Such nodes are only valid as intermediate steps reached
// through field access or key resolution.
type TupleValued interface {
	Expression
	ResolveTuple(env *model.Model, ctx *model.EvaluationContext) (*model.TupleInstance, error)
}

// valuer is satisfied by nodes that can produce a scalar value for key
// comparison, where strings and tuples are as legitimate as numbers.
type valuer interface {
	value(env *model.Model, ctx *model.EvaluationContext) (cty.Value, error)
}

// KeyValue evaluates an expression in key position, preserving string and
// tuple shapes instead of forcing the numeric path.
func KeyValue(e Expression, env *model.Model, ctx *model.EvaluationContext) (cty.Value, error) {
	if v, ok := e.(valuer); ok {
		return v.value(env, ctx)
	}
	f, err := e.Evaluate(env, ctx)
	if err != nil {
		return cty.NilVal, err
	}
	return scalar.Number(f), nil
}

// Constant is a literal numeric value.
type Constant struct {
	Value float64
}

// NewConstant wraps a float64.
func NewConstant(v float64) *Constant { return &Constant{Value: v} }

func (c *Constant) Evaluate(*model.Model, *model.EvaluationContext) (float64, error) {
	return c.Value, nil
}

func (c *Constant) Simplify(*model.Model) Expression { return c }

func (c *Constant) Bind(*model.EvaluationContext) Expression { return c }

func (c *Constant) IsConstant() bool { return true }

func (c *Constant) String() string { return strconv.FormatFloat(c.Value, 'g', -1, 64) }

func (c *Constant) value(*model.Model, *model.EvaluationContext) (cty.Value, error) {
	return scalar.Number(c.Value), nil
}

// StringConstant is a literal string value. It only appears in key positions
// and conditions; the numeric path rejects it.
type StringConstant struct {
	Value string
}

func (s *StringConstant) Evaluate(*model.Model, *model.EvaluationContext) (float64, error) {
	return 0, diag.Numericf("string constant %q is not numeric", s.Value)
}

func (s *StringConstant) Simplify(*model.Model) Expression { return s }

func (s *StringConstant) Bind(*model.EvaluationContext) Expression { return s }

func (s *StringConstant) IsConstant() bool { return true }

func (s *StringConstant) String() string { return strconv.Quote(s.Value) }

func (s *StringConstant) value(*model.Model, *model.EvaluationContext) (cty.Value, error) {
	return scalar.String(s.Value), nil
}

// BinaryOp enumerates arithmetic, relational and logical operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

var opSymbols = map[BinaryOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpAnd: "&&", OpOr: "||",
}

// Binary applies an operator to two sub-expressions. Relational and logical
// operators evaluate to 1 or 0.
type Binary struct {
	Op    BinaryOp
	Left  Expression
	Right Expression
}

// NewBinary builds an operator node.
func NewBinary(op BinaryOp, left, right Expression) *Binary {
	return &Binary{Op: op, Left: left, Right: right}
}

func (b *Binary) Evaluate(env *model.Model, ctx *model.EvaluationContext) (float64, error) {
	l, err := b.Left.Evaluate(env, ctx)
	if err != nil {
		return 0, err
	}
	r, err := b.Right.Evaluate(env, ctx)
	if err != nil {
		return 0, err
	}
	return applyOp(b.Op, l, r)
}

func applyOp(op BinaryOp, l, r float64) (float64, error) {
	bool01 := func(v bool) float64 {
		if v {
			return 1
		}
		return 0
	}
	switch op {
	case OpAdd:
		return l + r, nil
	case OpSub:
		return l - r, nil
	case OpMul:
		return l * r, nil
	case OpDiv:
		if r == 0 {
			return 0, diag.Resolutionf("division by zero")
		}
		return l / r, nil
	case OpEq:
		return bool01(math.Abs(l-r) <= scalar.Epsilon), nil
	case OpNe:
		return bool01(math.Abs(l-r) > scalar.Epsilon), nil
	case OpLt:
		return bool01(l < r-scalar.Epsilon), nil
	case OpLe:
		return bool01(l <= r+scalar.Epsilon), nil
	case OpGt:
		return bool01(l > r+scalar.Epsilon), nil
	case OpGe:
		return bool01(l >= r-scalar.Epsilon), nil
	case OpAnd:
		return bool01(scalar.Truthy(l) && scalar.Truthy(r)), nil
	case OpOr:
		return bool01(scalar.Truthy(l) || scalar.Truthy(r)), nil
	default:
		return 0, diag.Numericf("unknown binary operator %d", op)
	}
}

func (b *Binary) Simplify(env *model.Model) Expression {
	left := b.Left.Simplify(env)
	right := b.Right.Simplify(env)
	lc, lok := left.(*Constant)
	rc, rok := right.(*Constant)
	if lok && rok {
		// Division by zero stays unfolded so the error surfaces at
		// evaluation time, where it can carry combination context.
		if v, err := applyOp(b.Op, lc.Value, rc.Value); err == nil {
			return &Constant{Value: v}
		}
	}
	if left == b.Left && right == b.Right {
		return b
	}
	return &Binary{Op: b.Op, Left: left, Right: right}
}

func (b *Binary) Bind(ctx *model.EvaluationContext) Expression {
	left := b.Left.Bind(ctx)
	right := b.Right.Bind(ctx)
	if left == b.Left && right == b.Right {
		return b
	}
	return &Binary{Op: b.Op, Left: left, Right: right}
}

func (b *Binary) IsConstant() bool {
	return b.Left.IsConstant() && b.Right.IsConstant()
}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, opSymbols[b.Op], b.Right)
}

// Negate is unary minus.
type Negate struct {
	Inner Expression
}

func (n *Negate) Evaluate(env *model.Model, ctx *model.EvaluationContext) (float64, error) {
	v, err := n.Inner.Evaluate(env, ctx)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

func (n *Negate) Simplify(env *model.Model) Expression {
	inner := n.Inner.Simplify(env)
	if c, ok := inner.(*Constant); ok {
		return &Constant{Value: -c.Value}
	}
	if inner == n.Inner {
		return n
	}
	return &Negate{Inner: inner}
}

func (n *Negate) Bind(ctx *model.EvaluationContext) Expression {
	inner := n.Inner.Bind(ctx)
	if inner == n.Inner {
		return n
	}
	return &Negate{Inner: inner}
}

func (n *Negate) IsConstant() bool { return n.Inner.IsConstant() }

func (n *Negate) String() string { return fmt.Sprintf("(-%s)", n.Inner) }

// Conditional selects between two branches. A condition is true when its
// absolute value exceeds Epsilon.
type Conditional struct {
	Cond  Expression
	True  Expression
	False Expression
}

func (c *Conditional) Evaluate(env *model.Model, ctx *model.EvaluationContext) (float64, error) {
	cond, err := c.Cond.Evaluate(env, ctx)
	if err != nil {
		return 0, err
	}
	if scalar.Truthy(cond) {
		return c.True.Evaluate(env, ctx)
	}
	return c.False.Evaluate(env, ctx)
}

func (c *Conditional) Simplify(env *model.Model) Expression {
	cond := c.Cond.Simplify(env)
	if cc, ok := cond.(*Constant); ok {
		if scalar.Truthy(cc.Value) {
			return c.True.Simplify(env)
		}
		return c.False.Simplify(env)
	}
	tr := c.True.Simplify(env)
	fl := c.False.Simplify(env)
	if cond == c.Cond && tr == c.True && fl == c.False {
		return c
	}
	return &Conditional{Cond: cond, True: tr, False: fl}
}

func (c *Conditional) Bind(ctx *model.EvaluationContext) Expression {
	cond := c.Cond.Bind(ctx)
	tr := c.True.Bind(ctx)
	fl := c.False.Bind(ctx)
	if cond == c.Cond && tr == c.True && fl == c.False {
		return c
	}
	return &Conditional{Cond: cond, True: tr, False: fl}
}

func (c *Conditional) IsConstant() bool {
	return c.Cond.IsConstant() && c.True.IsConstant() && c.False.IsConstant()
}

func (c *Conditional) String() string {
	return fmt.Sprintf("if(%s, %s, %s)", c.Cond, c.True, c.False)
}

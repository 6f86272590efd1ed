// Package expr defines the immutable polymorphic expression tree built by
// the statement parser and consumed by the evaluator, the tuple/item
// resolver, and the equation expansion engine.
//
// Every node satisfies three contracts:
//
//   - Evaluate resolves parameter and iterator references through the symbol
//     environment and the evaluation-context overlay and produces a float64.
//     Inherently tuple-valued nodes (item calls, composite keys) fail the
//     numeric path with a NumericType error.
//   - Simplify constant-folds sub-trees bottom-up without mutating the
//     original tree; it is side-effect free and idempotent. Passing a non-nil
//     environment additionally folds parameter references that already have
//     numeric values.
//   - Bind substitutes currently bound iterator values into the tree,
//     turning iterator-indexed access into fixed-index access, and returns a
//     context-free tree suitable for late evaluation.
package expr

// Package model holds the symbol environment of one model-parse session:
// scalar and indexed parameters, index sets, primitive sets, tuple schemas
// and tuple sets, and indexed decision-variable declarations.
//
// The environment is process-local mutable state owned by a single thread.
// Iterator bindings made during expansion never touch it: they live in an
// EvaluationContext, a stack of name→value overlay frames consulted before
// the environment, so no scratch entries need to be inserted and reverted.
package model

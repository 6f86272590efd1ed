// Package diag defines the error taxonomy shared by the parser, tokenizer,
// resolver and expansion engine, plus the session reporter that accumulates
// per-line diagnostics while a model is being processed.
//
// Three kinds of failure exist:
//
//   - Structural: an undeclared set/parameter/field, a key-arity mismatch, a
//     malformed composite key. Always fatal to the containing statement or
//     template.
//   - ValueResolution: no tuple matches a key, or a referenced parameter has
//     no value yet. Fatal only to the single expansion combination that
//     triggered it; sibling combinations continue.
//   - NumericType: a tuple-valued or string-valued node was evaluated through
//     the numeric path. A programming-contract violation, never swallowed.
package diag

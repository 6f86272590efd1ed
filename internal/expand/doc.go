// Package expand turns equation templates into concrete linear equations.
//
// A template carries up to two free iterators bound by forall syntax, an
// optional filter, and unexpanded left/right linear expressions whose terms
// reference tokenized expression nodes. The engine enumerates the cross
// product of the iterator domains (outer before inner, ascending order),
// binds each combination into an evaluation-context overlay, substitutes the
// bound values into the term coefficients, and folds the result into a
// variable→coefficient map plus a constant.
//
// Coefficients and constants stay as expression trees rather than raw
// floats: parameter changes made after expansion but before export are still
// reflected when the exporter finally evaluates them.
//
// Failure handling follows the session taxonomy. An unresolvable iterator
// domain is structural and fails the whole template with no partial
// equations. A value-resolution failure (an item() key with no match for one
// particular combination) is recorded on the session reporter and skips only
// that combination; all others expand normally.
package expand

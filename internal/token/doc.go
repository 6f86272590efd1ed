// Package token implements the string-rewriting tokenization pipeline that
// runs over an equation or objective body before linear-term parsing.
//
// An ordered set of pattern strategies replaces recognized structured
// sub-expressions (item lookups, tuple field access, multi-dimensional
// indices, scalar parameter references) with opaque placeholders of the form
// __KIND<N>__, registering the corresponding expression node in a Manager
// keyed by the placeholder. The downstream term parser can then treat the
// rewritten text as plain `coefficient * token` terms.
//
// Strategies run in ascending priority order. Item calls go first because
// they contain angle brackets and nested parentheses that would otherwise
// confuse the lower-priority indexing strategies. Each strategy rewrites only
// validated matches: the referenced set or parameter must exist in the
// symbol environment and the accessed field or index must be in range.
// Unrecognized references are left untouched for later diagnostics, except
// where the construct is unambiguous and invalid (an unknown field on a
// known schema, a constant index outside a known range), which raises
// immediately. Placeholders never match any strategy's pattern, so each pass
// is idempotent on its own output.
package token

// Package parse turns model source text into symbol-environment entries and
// unexpanded equation templates.
//
// The splitter strips comments and yields semicolon-delimited statements
// tagged with their originating line. Declarations (ranges, sets, tuples,
// parameters, variables) go straight into the symbol environment. Equation
// and objective statements run through the tokenization pipeline first, then
// a linear-term parser reads the rewritten text as `coefficient * variable`
// terms, with sum(...) groups kept unexpanded for the expansion engine.
// Filter predicates and scalar initializers go through a small
// precedence-climbing arithmetic parser producing ordinary expression trees.
package parse

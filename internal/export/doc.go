// Package export writes an expanded model as an MPS file.
//
// Coefficient and constant expressions are evaluated at write time, so
// export is the step that finally forces every value. Export refuses to run
// while any template is unexpanded or the objective is missing.
package export

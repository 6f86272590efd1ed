// Package data loads data files into a parsed model's external symbols.
//
// A data file is a sequence of `name = value;` assignments. Every target
// must have been declared with the external marker in the model file; the
// value grammar matches the model file's literal forms (scalars, lists,
// matrices, primitive sets, tuple rows). Assignment errors are recorded
// against their source line and loading continues, so one pass reports
// every bad assignment.
package data

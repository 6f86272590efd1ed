// Package scalar is the value layer of the modeling front-end. Parameter
// values, tuple field values and lookup keys all travel as cty.Value, which
// gives us a closed, exhaustively comparable set of shapes (number, string,
// bool, plus a capsule for tuple instances) instead of ad-hoc inspection of
// boxed Go values.
//
// Key equality is deliberately forgiving: lookup keys may arrive as int,
// string or float depending on the source syntax that produced them, so
// Equal falls back from exact equality to case-insensitive string comparison
// to numeric comparison within Epsilon.
package scalar

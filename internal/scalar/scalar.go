package scalar

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Epsilon is the tolerance used for numeric key equality, conditional
// truthiness and near-zero coefficient elimination.
const Epsilon = 1e-10

// FromGo converts a native Go value into its corresponding cty.Value.
func FromGo(v any) (cty.Value, error) {
	if v == nil {
		return cty.NilVal, nil
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}

// Number wraps a float64 as a cty number value.
func Number(f float64) cty.Value {
	return cty.NumberFloatVal(f)
}

// Int wraps an int as a cty number value.
func Int(i int) cty.Value {
	return cty.NumberIntVal(int64(i))
}

// String wraps a Go string as a cty string value.
func String(s string) cty.Value {
	return cty.StringVal(s)
}

// Bool wraps a Go bool as a cty bool value.
func Bool(b bool) cty.Value {
	return cty.BoolVal(b)
}

// Float extracts a float64 from a numeric value. The second return is false
// when the value is not a number (string, bool, capsule, or nil).
func Float(v cty.Value) (float64, bool) {
	if v == cty.NilVal || !v.Type().Equals(cty.Number) {
		return 0, false
	}
	f, _ := v.AsBigFloat().Float64()
	return f, true
}

// Format renders a value in its canonical string form, the representation
// used by the second tier of key equality.
func Format(v cty.Value) string {
	if v == cty.NilVal {
		return ""
	}
	switch {
	case v.Type().Equals(cty.Number):
		f, _ := v.AsBigFloat().Float64()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case v.Type().Equals(cty.String):
		return v.AsString()
	case v.Type().Equals(cty.Bool):
		return strconv.FormatBool(v.True())
	default:
		return v.Type().FriendlyName()
	}
}

// Truthy implements conditional semantics: any value whose absolute
// difference from zero exceeds Epsilon is true.
func Truthy(f float64) bool {
	return math.Abs(f) > Epsilon
}

// Equal compares a supplied key value with a candidate field value using the
// three-tier fallback: exact equality, then case-insensitive comparison of
// both operands' string representations, then numeric comparison within
// Epsilon.
func Equal(a, b cty.Value) bool {
	if a == cty.NilVal || b == cty.NilVal {
		return a == b
	}
	if a.RawEquals(b) {
		return true
	}
	if strings.EqualFold(Format(a), Format(b)) {
		return true
	}
	fa, okA := Float(a)
	fb, okB := Float(b)
	if okA && okB {
		return math.Abs(fa-fb) <= Epsilon
	}
	// A numeric value may also be compared against its string spelling.
	if okA && b.Type().Equals(cty.String) {
		if fb, err := strconv.ParseFloat(strings.TrimSpace(b.AsString()), 64); err == nil {
			return math.Abs(fa-fb) <= Epsilon
		}
	}
	if okB && a.Type().Equals(cty.String) {
		if fa, err := strconv.ParseFloat(strings.TrimSpace(a.AsString()), 64); err == nil {
			return math.Abs(fa-fb) <= Epsilon
		}
	}
	return false
}

// ParseLiteral interprets a trimmed source literal as a scalar value:
// quoted strings, booleans, then numbers.
func ParseLiteral(text string) (cty.Value, error) {
	text = strings.TrimSpace(text)
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		return cty.StringVal(text[1 : len(text)-1]), nil
	}
	switch text {
	case "true":
		return cty.True, nil
	case "false":
		return cty.False, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return cty.NilVal, fmt.Errorf("invalid scalar literal %q", text)
	}
	return cty.NumberFloatVal(f), nil
}

package jsonv

import (
	"math"
	"strconv"
	"strings"
)

// String renders v for display.
//
// Scalars print the way JavaScript's String() prints them: strings are
// unquoted, integral numbers have no fraction, and numbers at or above 1e21
// or below 1e-6 switch to exponent form ("1e+21", "1.5e-7"). Arrays print
// their elements comma separated and objects print as "[object Object]",
// which only matters for callers that stringify containers directly.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.boolean)
	case KindNumber:
		return FormatNumber(v.number)
	case KindString:
		return v.str
	case KindArray:
		parts := make([]string, len(v.items))
		for i, item := range v.items {
			if !item.IsNull() {
				parts[i] = item.String()
			}
		}
		return strings.Join(parts, ",")
	case KindObject:
		return "[object Object]"
	}
	return ""
}

// FormatNumber formats f using JavaScript's Number-to-String rules.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[0]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mantissa + "e" + string(sign) + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

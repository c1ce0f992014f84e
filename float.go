package roomle

import (
	"strconv"
	"strings"
)

// FloatFormat rounds v half-even to precision decimals and drops trailing
// zeros. Negative zero is written as "0".
func FloatFormat(v float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	s := strconv.FormatFloat(v, 'f', precision, 64)
	if strings.IndexByte(s, '.') >= 0 {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}

// IsZero reports whether v vanishes once rounded to precision decimals.
func IsZero(v float64, precision int) bool {
	return FloatFormat(v, precision) == "0"
}

func formatVec3(x, y, z float64, precision int) string {
	return "{" + FloatFormat(x, precision) + "," + FloatFormat(y, precision) + "," + FloatFormat(z, precision) + "}"
}

func formatVec2(u, v float64, precision int) string {
	return "{" + FloatFormat(u, precision) + "," + FloatFormat(v, precision) + "}"
}

func round2(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return f
}

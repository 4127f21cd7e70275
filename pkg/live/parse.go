package live

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseFloat reads the longest decimal prefix of s after leading whitespace,
// so "4.5abc" yields 4.5 and "Infinity" yields +Inf. It returns NaN when s
// has no numeric prefix.
func ParseFloat(s string) float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return math.NaN()
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	// the prefix is well formed, so only range errors remain and those
	// already come back as ±Inf or 0
	f, _ := strconv.ParseFloat(s[:i], 64)
	return f
}

// ParseInt reads the longest integer prefix of s after leading whitespace.
// A 0x prefix selects base 16. The result is integral or NaN when s has no
// digits.
func ParseInt(s string) float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	base := 10.0
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	v, n := 0.0, 0
	for ; n < len(s); n++ {
		d := digitValue(s[n])
		if d < 0 || float64(d) >= base {
			break
		}
		v = v*base + float64(d)
	}
	if n == 0 {
		return math.NaN()
	}
	if neg {
		v = -v
	}
	return v
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func digitValue(b byte) int {
	switch {
	case isDigit(b):
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	}
	return -1
}

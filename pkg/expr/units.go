package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Engineering suffixes, matched case-insensitively with the longest name
// first. "m" is milli; mega is "meg".
var unitSuffixes = []struct {
	name   string
	factor float64
}{
	{"meg", 1e6},
	{"mil", 25.4e-6},
	{"t", 1e12},
	{"g", 1e9},
	{"k", 1e3},
	{"m", 1e-3},
	{"u", 1e-6},
	{"n", 1e-9},
	{"p", 1e-12},
	{"f", 1e-15},
}

// UnitFactor returns the multiplier for the suffix following a number.
// Letters after a recognized prefix, and unknown letters, are units such
// as V or Hz and scale by 1.
func UnitFactor(suffix string) float64 {
	s := strings.ToLower(suffix)
	for _, u := range unitSuffixes {
		if strings.HasPrefix(s, u.name) {
			return u.factor
		}
	}
	return 1
}

// ParseValue converts a SPICE number such as "10k", "2.2uF" or "1e-3" to
// a float.
func ParseValue(s string) (float64, error) {
	n := numberPrefix(s)
	if n == 0 {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	v, err := strconv.ParseFloat(s[:n], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return v * UnitFactor(s[n:]), nil
}

// numberPrefix returns the length of the numeric part of s: sign, digits,
// fraction and exponent. It returns 0 if s does not start with a number.
func numberPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
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
		return 0
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
	return i
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

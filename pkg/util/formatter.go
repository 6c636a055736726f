package util

import (
	"fmt"
	"math"
	"strings"
)

var factors = []struct {
	scale  float64
	prefix string
}{
	{1e9, "G"},
	{1e6, "M"},
	{1e3, "k"},
	{1, ""},
	{1e-3, "m"},
	{1e-6, "u"},
	{1e-9, "n"},
	{1e-12, "p"},
}

// FormatValueFactor prints value with three decimals and the SPICE scale
// prefix that keeps the mantissa in [1, 1000). Zero prints unscaled and
// values outside the table fall back to exponent notation.
func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	if absValue == 0 {
		return strings.TrimSpace(fmt.Sprintf("%.3f %s", value, unit))
	}
	if absValue < 1e12 {
		for _, f := range factors {
			if absValue >= f.scale {
				return strings.TrimSpace(fmt.Sprintf("%.3f %s%s", value/f.scale, f.prefix, unit))
			}
		}
	}
	return strings.TrimSpace(fmt.Sprintf("%.3e %s", value, unit))
}

package eval

import (
	"strings"

	"github.com/edp1096/toy-spice-parser/pkg/expr"
)

// Dialect selects the numeric edge-case behavior of a SPICE variant.
type Dialect int

const (
	Standard Dialect = iota
	LtSpice
	HSpice
	SmartSpice
)

var dialectNames = map[Dialect]string{
	Standard:   "standard",
	LtSpice:    "ltspice",
	HSpice:     "hspice",
	SmartSpice: "smartspice",
}

func (d Dialect) String() string {
	if s, ok := dialectNames[d]; ok {
		return s
	}
	return "unknown"
}

// ParseDialect accepts the dialect names case-insensitively; "" is Standard.
func ParseDialect(s string) (Dialect, error) {
	if s == "" {
		return Standard, nil
	}
	for d, name := range dialectNames {
		if strings.EqualFold(s, name) {
			return d, nil
		}
	}
	return Standard, &UnsupportedDialectOperationError{Dialect: s, Op: "evaluation"}
}

// Grammar returns the expression grammar of the dialect.
func (d Dialect) Grammar() expr.Options {
	return expr.Options{LeftAssociativePower: d == LtSpice}
}

func (d Dialect) valid() bool {
	_, ok := dialectNames[d]
	return ok
}

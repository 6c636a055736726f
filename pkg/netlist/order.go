package netlist

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

var (
	topControls  = []string{"st_r", "step_r", "param", "func", "options"}
	postControls = []string{"plot", "print", "save"}
	controls     = []string{"temp", "step", "st", "mc", "op", "ac", "tran", "dc", "ic", "nodeset"}
)

const (
	orderSubCircuit  = 1000
	orderModel       = 2000
	orderComponent   = 3000
	orderControl     = 3500
	orderPostControl = 4000
)

// OrderKey returns the sort key of a statement. Lower keys are read first.
func OrderKey(s Statement) int {
	switch s := s.(type) {
	case *SubCircuit:
		return orderSubCircuit
	case *Model:
		return orderModel
	case *Component:
		return orderComponent
	case *Control:
		name := strings.ToLower(s.Name)
		if slices.Contains(postControls, name) {
			return orderPostControl
		}
		if i := slices.Index(topControls, name); i >= 0 {
			return i
		}
		if i := slices.Index(controls, name); i >= 0 {
			return orderControl + i
		}
		return orderControl + len(controls)
	}
	return math.MaxInt
}

// Order returns the statements sorted for reading: parameter, function and
// option declarations, then subcircuits, models, components, analysis
// controls and finally output controls. Equal keys keep their input order.
// The input slice is not modified.
func Order(stmts []Statement) []Statement {
	out := slices.Clone(stmts)
	slices.SortStableFunc(out, func(a, b Statement) int {
		return cmp.Compare(OrderKey(a), OrderKey(b))
	})
	return out
}

package eval

import (
	"github.com/edp1096/toy-spice-parser/pkg/expr"
	"github.com/edp1096/toy-spice-parser/pkg/netlist"
)

// Expression is a registered computation: compiled text plus what to do
// with its value when a parameter it reads changes. Identity is the
// pointer; two Expressions with the same text are distinct entries.
type Expression struct {
	Name string
	Text string
	Node expr.Node

	// Param names the parameter this expression defines, if any.
	Param string
	// Action receives the new value after re-evaluation.
	Action func(float64)

	value float64
}

// Value is the result of the most recent evaluation.
func (e *Expression) Value() float64 { return e.value }

type registration struct {
	expr  *Expression
	names map[string]bool
}

// Registry maps parameter names to the expressions that read them.
// Registering the same *Expression again replaces its name set and keeps
// its original position.
type Registry struct {
	entries       []*registration
	index         map[*Expression]*registration
	caseSensitive bool
}

func NewRegistry(caseSensitive bool) *Registry {
	return &Registry{index: map[*Expression]*registration{}, caseSensitive: caseSensitive}
}

func (r *Registry) Register(e *Expression, names []string) {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[netlist.Key(n, r.caseSensitive)] = true
	}
	if reg, ok := r.index[e]; ok {
		reg.names = set
		return
	}
	reg := &registration{expr: e, names: set}
	r.entries = append(r.entries, reg)
	r.index[e] = reg
}

// DependentsOf returns, in registration order, every expression whose
// name set contains name.
func (r *Registry) DependentsOf(name string) []*Expression {
	k := netlist.Key(name, r.caseSensitive)
	var out []*Expression
	for _, reg := range r.entries {
		if reg.names[k] {
			out = append(out, reg.expr)
		}
	}
	return out
}

func (r *Registry) Remove(e *Expression) bool {
	reg, ok := r.index[e]
	if !ok {
		return false
	}
	delete(r.index, e)
	for i, x := range r.entries {
		if x == reg {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) Contains(e *Expression) bool {
	_, ok := r.index[e]
	return ok
}

func (r *Registry) Len() int { return len(r.entries) }

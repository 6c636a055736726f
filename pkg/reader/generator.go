package reader

import (
	"fmt"

	"github.com/edp1096/toy-spice-parser/pkg/eval"
	"github.com/edp1096/toy-spice-parser/pkg/netlist"
)

// Entity is the handle a generator returned for one statement.
type Entity struct {
	Name   string
	Type   string
	Nodes  []string
	Line   int
	Object any
}

// Request carries everything a generator needs to build one entity.
type Request struct {
	// Name is the full entity name from the ObjectNamer.
	Name string
	// Type is the upper-case leading letter of a component or the
	// lower-case type of a model.
	Type       string
	Statement  netlist.Statement
	Nodes      []string
	Parameters netlist.ParameterCollection
	Context    *eval.Context

	sc *scope
}

// ComponentGenerator builds components of one type letter. Pins is the
// number of leading parameters that are node names.
type ComponentGenerator struct {
	Pins     int
	Generate func(req *Request) (any, error)
}

type ModelGenerator func(req *Request) (any, error)

// Model finds a model visible from the requesting statement.
func (r *Request) Model(name string) (*Entity, bool) {
	for sc := r.sc; sc != nil; sc = sc.parent {
		if e, ok := sc.models[sc.key(name)]; ok {
			return e, true
		}
	}
	return nil, false
}

// Value evaluates a single value or expression parameter, or the value of
// an assignment.
func (r *Request) Value(p netlist.Parameter) (float64, error) {
	text, err := valueText(p)
	if err != nil {
		return 0, err
	}
	return r.Context.EvaluateDouble(text)
}

// Bind evaluates p like Value and calls set again whenever a parameter it
// reads changes.
func (r *Request) Bind(p netlist.Parameter, set func(float64)) (float64, error) {
	text, err := valueText(p)
	if err != nil {
		return 0, err
	}
	e, err := r.Context.AddAction(r.Name, text, set)
	if err != nil {
		return 0, err
	}
	return e.Value(), nil
}

func valueText(p netlist.Parameter) (string, error) {
	switch p := p.(type) {
	case *netlist.SingleParameter:
		return p.Expression(), nil
	case *netlist.AssignmentParameter:
		if len(p.Values) != 1 {
			return "", fmt.Errorf("parameter %s: want one value, got %d", p.Name, len(p.Values))
		}
		return p.Value(), nil
	}
	return "", fmt.Errorf("parameter %s is not a value", p)
}

package netlist

import (
	"iter"
	"strings"
)

// Parameter is one entry of a statement's parameter list. The concrete
// types are *SingleParameter, *StringParameter, *AssignmentParameter,
// *BracketParameter and *VectorParameter.
type Parameter interface {
	String() string
	Clone() Parameter
	aParam()
}

// SingleKind tells how a single parameter was written.
type SingleKind int

const (
	WordKind             SingleKind = iota // identifier, node name, keyword
	ValueKind                              // number with optional unit suffix
	ExpressionKind                         // {...}
	QuotedExpressionKind                   // '...'
)

// SingleParameter is a bare word, value or expression. For the expression
// kinds Value holds the text without delimiters.
type SingleParameter struct {
	Kind  SingleKind
	Value string
}

// StringParameter is a double-quoted string.
type StringParameter struct {
	Value string
}

// AssignmentParameter is name=value, or name(args)=value for function
// definitions. Values has more than one element for name=a,b,c.
type AssignmentParameter struct {
	Name      string
	Arguments []string
	Values    []SingleParameter
}

// BracketParameter is name(...) such as D(IS=1e-14) or v(out).
type BracketParameter struct {
	Name       string
	Parameters ParameterCollection
}

// VectorParameter is a comma separated list such as 0,1 inside PWL(0,1).
type VectorParameter struct {
	Elements []SingleParameter
}

func (*SingleParameter) aParam()     {}
func (*StringParameter) aParam()     {}
func (*AssignmentParameter) aParam() {}
func (*BracketParameter) aParam()    {}
func (*VectorParameter) aParam()     {}

// Expression returns the text to hand to the expression compiler.
func (p *SingleParameter) Expression() string { return p.Value }

// IsExpression reports whether p was written inside braces or quotes.
func (p *SingleParameter) IsExpression() bool {
	return p.Kind == ExpressionKind || p.Kind == QuotedExpressionKind
}

func (p *SingleParameter) String() string {
	switch p.Kind {
	case ExpressionKind:
		return "{" + p.Value + "}"
	case QuotedExpressionKind:
		return "'" + p.Value + "'"
	}
	return p.Value
}

func (p *SingleParameter) Clone() Parameter {
	c := *p
	return &c
}

func (p *StringParameter) String() string { return `"` + p.Value + `"` }

func (p *StringParameter) Clone() Parameter {
	c := *p
	return &c
}

// Value returns the expression text of the first value.
func (p *AssignmentParameter) Value() string {
	if len(p.Values) == 0 {
		return ""
	}
	return p.Values[0].Value
}

func (p *AssignmentParameter) String() string {
	var b strings.Builder
	b.WriteString(p.Name)
	if len(p.Arguments) > 0 {
		b.WriteString("(" + strings.Join(p.Arguments, ",") + ")")
	}
	b.WriteByte('=')
	for i := range p.Values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Values[i].String())
	}
	return b.String()
}

func (p *AssignmentParameter) Clone() Parameter {
	return &AssignmentParameter{
		Name:      p.Name,
		Arguments: append([]string(nil), p.Arguments...),
		Values:    append([]SingleParameter(nil), p.Values...),
	}
}

func (p *BracketParameter) String() string {
	return p.Name + "(" + p.Parameters.String() + ")"
}

func (p *BracketParameter) Clone() Parameter {
	return &BracketParameter{Name: p.Name, Parameters: p.Parameters.Clone()}
}

func (p *VectorParameter) String() string {
	parts := make([]string, len(p.Elements))
	for i := range p.Elements {
		parts[i] = p.Elements[i].String()
	}
	return strings.Join(parts, ",")
}

func (p *VectorParameter) Clone() Parameter {
	return &VectorParameter{Elements: append([]SingleParameter(nil), p.Elements...)}
}

// ParameterCollection is an ordered list of parameters. Duplicates are
// allowed. Skip, Take, Merge and Clone return collections that never share
// backing storage with the receiver.
type ParameterCollection struct {
	items []Parameter
}

func NewParameterCollection(params ...Parameter) ParameterCollection {
	return ParameterCollection{items: append([]Parameter(nil), params...)}
}

func (c *ParameterCollection) Len() int { return len(c.items) }

func (c *ParameterCollection) At(i int) Parameter { return c.items[i] }

func (c *ParameterCollection) Add(params ...Parameter) {
	c.items = append(c.items, params...)
}

// Insert places p before index i. i == Len appends.
func (c *ParameterCollection) Insert(i int, p Parameter) {
	c.items = append(c.items, nil)
	copy(c.items[i+1:], c.items[i:])
	c.items[i] = p
}

func (c *ParameterCollection) Remove(i int) {
	c.items = append(c.items[:i], c.items[i+1:]...)
}

func (c *ParameterCollection) Clear() { c.items = nil }

// Skip returns the parameters after the first n.
func (c *ParameterCollection) Skip(n int) ParameterCollection {
	n = min(max(n, 0), len(c.items))
	return NewParameterCollection(c.items[n:]...)
}

// Take returns the first n parameters.
func (c *ParameterCollection) Take(n int) ParameterCollection {
	n = min(max(n, 0), len(c.items))
	return NewParameterCollection(c.items[:n]...)
}

// Merge returns the receiver's parameters followed by other's.
func (c *ParameterCollection) Merge(other ParameterCollection) ParameterCollection {
	out := NewParameterCollection(c.items...)
	out.items = append(out.items, other.items...)
	return out
}

// Clone deep-copies every parameter.
func (c *ParameterCollection) Clone() ParameterCollection {
	out := ParameterCollection{items: make([]Parameter, len(c.items))}
	for i, p := range c.items {
		out.items[i] = p.Clone()
	}
	return out
}

// Value returns the written form of parameter i.
func (c *ParameterCollection) Value(i int) string {
	return c.items[i].String()
}

// IndexOf returns the index of the first parameter whose written form
// equals s ignoring case, or -1.
func (c *ParameterCollection) IndexOf(s string) int {
	for i, p := range c.items {
		if strings.EqualFold(p.String(), s) {
			return i
		}
	}
	return -1
}

// Assignments returns the assignment parameters in order.
func (c *ParameterCollection) Assignments() []*AssignmentParameter {
	var out []*AssignmentParameter
	for _, p := range c.items {
		if a, ok := p.(*AssignmentParameter); ok {
			out = append(out, a)
		}
	}
	return out
}

func (c *ParameterCollection) All() iter.Seq2[int, Parameter] {
	return func(yield func(int, Parameter) bool) {
		for i, p := range c.items {
			if !yield(i, p) {
				return
			}
		}
	}
}

func (c *ParameterCollection) String() string {
	parts := make([]string, len(c.items))
	for i, p := range c.items {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}

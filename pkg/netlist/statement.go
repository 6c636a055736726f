// Package netlist holds the statement model produced by the netlist parser.
package netlist

import (
	"strings"
)

// Statement is one logical declaration of a netlist. The concrete types are
// *CommentLine, *Component, *Model, *SubCircuit and *Control.
type Statement interface {
	LineNumber() int
	String() string
	Clone() Statement
	aStmt()
}

// Loc is the source line a statement starts on.
type Loc struct {
	Line int
}

func (l Loc) LineNumber() int { return l.Line }

type CommentLine struct {
	Loc
	Text string
}

// Component is an element line such as "R1 a b 10k". The element type is
// the leading letter of Name.
type Component struct {
	Loc
	Name              string
	PinsAndParameters ParameterCollection
}

// Model is ".MODEL name type(...)" or ".MODEL name type p=v ...". The first
// parameter carries the model type.
type Model struct {
	Loc
	Name       string
	Parameters ParameterCollection
}

type SubCircuit struct {
	Loc
	Name              string
	Pins              []string
	DefaultParameters ParameterCollection
	Statements        []Statement
}

// Control is a dot command. Name is lower case without the dot, so .PARAM
// is a Control named "param".
type Control struct {
	Loc
	Name       string
	Parameters ParameterCollection
}

func (*CommentLine) aStmt() {}
func (*Component) aStmt()   {}
func (*Model) aStmt()       {}
func (*SubCircuit) aStmt()  {}
func (*Control) aStmt()     {}

// Type returns the upper-case element letter.
func (c *Component) Type() string {
	if c.Name == "" {
		return ""
	}
	return strings.ToUpper(c.Name[:1])
}

// ModelType returns the model type, e.g. "D" for ".MODEL D1 D(IS=1e-14)".
func (m *Model) ModelType() string {
	if m.Parameters.Len() == 0 {
		return ""
	}
	switch p := m.Parameters.At(0).(type) {
	case *BracketParameter:
		return p.Name
	case *SingleParameter:
		return p.Value
	}
	return ""
}

// ModelParameters returns the model's name=value pairs for both the
// bracketed and the flat form.
func (m *Model) ModelParameters() []*AssignmentParameter {
	if m.Parameters.Len() == 0 {
		return nil
	}
	if b, ok := m.Parameters.At(0).(*BracketParameter); ok {
		return b.Parameters.Assignments()
	}
	rest := m.Parameters.Skip(1)
	return rest.Assignments()
}

// Assignments returns the name=value pairs of a .PARAM or .FUNC control.
func (c *Control) Assignments() []*AssignmentParameter {
	return c.Parameters.Assignments()
}

func (c *CommentLine) String() string { return "* " + c.Text }

func (c *Component) String() string {
	if c.PinsAndParameters.Len() == 0 {
		return c.Name
	}
	return c.Name + " " + c.PinsAndParameters.String()
}

func (m *Model) String() string {
	return strings.TrimSpace(".MODEL " + m.Name + " " + m.Parameters.String())
}

func (c *Control) String() string {
	return strings.TrimSpace("." + strings.ToUpper(c.Name) + " " + c.Parameters.String())
}

func (s *SubCircuit) String() string {
	var b strings.Builder
	b.WriteString(".SUBCKT " + s.Name)
	for _, p := range s.Pins {
		b.WriteString(" " + p)
	}
	if s.DefaultParameters.Len() > 0 {
		b.WriteString(" params: " + s.DefaultParameters.String())
	}
	b.WriteByte('\n')
	for _, st := range s.Statements {
		b.WriteString(st.String())
		b.WriteByte('\n')
	}
	b.WriteString(".ENDS " + s.Name)
	return b.String()
}

func (c *CommentLine) Clone() Statement {
	n := *c
	return &n
}

func (c *Component) Clone() Statement {
	return &Component{Loc: c.Loc, Name: c.Name, PinsAndParameters: c.PinsAndParameters.Clone()}
}

func (m *Model) Clone() Statement {
	return &Model{Loc: m.Loc, Name: m.Name, Parameters: m.Parameters.Clone()}
}

func (c *Control) Clone() Statement {
	return &Control{Loc: c.Loc, Name: c.Name, Parameters: c.Parameters.Clone()}
}

func (s *SubCircuit) Clone() Statement {
	out := &SubCircuit{
		Loc:               s.Loc,
		Name:              s.Name,
		Pins:              append([]string(nil), s.Pins...),
		DefaultParameters: s.DefaultParameters.Clone(),
		Statements:        make([]Statement, len(s.Statements)),
	}
	for i, st := range s.Statements {
		out.Statements[i] = st.Clone()
	}
	return out
}

// Netlist is a parsed netlist. The title line is kept apart from the
// statements.
type Netlist struct {
	Title      string
	Statements []Statement
}

// String writes the netlist back as text that parses to the same
// statements.
func (n *Netlist) String() string {
	var b strings.Builder
	b.WriteString(n.Title)
	b.WriteByte('\n')
	for _, st := range n.Statements {
		b.WriteString(st.String())
		b.WriteByte('\n')
	}
	b.WriteString(".END\n")
	return b.String()
}

// CaseSensitivity selects which names compare case-sensitively. Parsing is
// unaffected.
type CaseSensitivity struct {
	Nodes      bool
	Parameters bool
	Functions  bool
	Entities   bool
}

// Key returns the map key for a name under the given sensitivity.
func Key(name string, caseSensitive bool) string {
	if caseSensitive {
		return name
	}
	return strings.ToLower(name)
}

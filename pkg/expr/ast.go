// Package expr compiles SPICE parameter expressions into syntax trees.
//
// Compiled trees are immutable and may be evaluated concurrently against
// different scopes. The only deferred compilation is the lazy(#...#)
// construct, whose text is compiled on first use.
package expr

import (
	"math"
	"strconv"
	"strings"
	"sync"
)

// Node is an expression tree node. Pos is the byte offset of the node in
// the source text.
type Node interface {
	Pos() int
	aNode()
}

type (
	// Literal is a number with its unit suffix already applied.
	Literal struct {
		Value float64
		Text  string
		At    int
	}

	Variable struct {
		Name string
		At   int
	}

	// Unary is -x, +x or !x.
	Unary struct {
		Op string
		X  Node
		At int
	}

	// Binary is x op y. Power is always "**" whichever form was written.
	Binary struct {
		Op   string
		X, Y Node
		At   int
	}

	// Call is a function call. The function is resolved when the call is
	// evaluated, not when it is compiled.
	Call struct {
		Name string
		Args []Node
		At   int
	}

	// Conditional is cond ? then : else.
	Conditional struct {
		Cond, Then, Else Node
		At               int
	}

	// Lazy holds the text of lazy(#...#) and compiles it the first time
	// Compiled is called.
	Lazy struct {
		Text string
		At   int

		opts Options
		once sync.Once
		node Node
		err  error
	}
)

func (n *Literal) Pos() int     { return n.At }
func (n *Variable) Pos() int    { return n.At }
func (n *Unary) Pos() int       { return n.At }
func (n *Binary) Pos() int      { return n.At }
func (n *Call) Pos() int        { return n.At }
func (n *Conditional) Pos() int { return n.At }
func (n *Lazy) Pos() int        { return n.At }

func (*Literal) aNode()     {}
func (*Variable) aNode()    {}
func (*Unary) aNode()       {}
func (*Binary) aNode()      {}
func (*Call) aNode()        {}
func (*Conditional) aNode() {}
func (*Lazy) aNode()        {}

// Compiled returns the tree of the deferred text. The result is cached.
func (n *Lazy) Compiled() (Node, error) {
	n.once.Do(func() {
		n.node, n.err = Compile(n.Text, n.opts)
	})
	return n.node, n.err
}

// Equal reports whether a and b are structurally the same tree. Source
// offsets and the spelling of literals are ignored.
func Equal(a, b Node) bool {
	switch a := a.(type) {
	case *Literal:
		b, ok := b.(*Literal)
		return ok && (a.Value == b.Value || math.IsNaN(a.Value) && math.IsNaN(b.Value))
	case *Variable:
		b, ok := b.(*Variable)
		return ok && a.Name == b.Name
	case *Unary:
		b, ok := b.(*Unary)
		return ok && a.Op == b.Op && Equal(a.X, b.X)
	case *Binary:
		b, ok := b.(*Binary)
		return ok && a.Op == b.Op && Equal(a.X, b.X) && Equal(a.Y, b.Y)
	case *Call:
		b, ok := b.(*Call)
		if !ok || a.Name != b.Name || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case *Conditional:
		b, ok := b.(*Conditional)
		return ok && Equal(a.Cond, b.Cond) && Equal(a.Then, b.Then) && Equal(a.Else, b.Else)
	case *Lazy:
		b, ok := b.(*Lazy)
		return ok && strings.TrimSpace(a.Text) == strings.TrimSpace(b.Text)
	}
	return a == nil && b == nil
}

// Format writes n back as expression text. Every operator application is
// parenthesized, so Compile(Format(n)) is Equal to n under any grammar.
func Format(n Node) string {
	var b strings.Builder
	format(&b, n)
	return b.String()
}

func format(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Literal:
		if n.Text != "" {
			b.WriteString(n.Text)
		} else {
			b.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
		}
	case *Variable:
		b.WriteString(n.Name)
	case *Unary:
		b.WriteString("(" + n.Op + "(")
		format(b, n.X)
		b.WriteString("))")
	case *Binary:
		b.WriteByte('(')
		format(b, n.X)
		b.WriteString(" " + n.Op + " ")
		format(b, n.Y)
		b.WriteByte(')')
	case *Call:
		b.WriteString(n.Name + "(")
		for i, a := range n.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			format(b, a)
		}
		b.WriteByte(')')
	case *Conditional:
		b.WriteByte('(')
		format(b, n.Cond)
		b.WriteString(" ? ")
		format(b, n.Then)
		b.WriteString(" : ")
		format(b, n.Else)
		b.WriteByte(')')
	case *Lazy:
		b.WriteString("lazy(#" + n.Text + "#)")
	}
}

// Inspect calls f for n and, while f returns true, for its children.
// Lazy bodies are not entered.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *Unary:
		Inspect(n.X, f)
	case *Binary:
		Inspect(n.X, f)
		Inspect(n.Y, f)
	case *Call:
		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *Conditional:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		Inspect(n.Else, f)
	}
}

// Variables returns the distinct variable names n references, in order of
// first appearance. Names inside lazy bodies are included when the body
// compiles.
func Variables(n Node) []string {
	var names []string
	seen := map[string]bool{}
	var visit func(Node) bool
	visit = func(n Node) bool {
		switch n := n.(type) {
		case *Variable:
			if !seen[n.Name] {
				seen[n.Name] = true
				names = append(names, n.Name)
			}
		case *Lazy:
			if inner, err := n.Compiled(); err == nil {
				Inspect(inner, visit)
			}
		}
		return true
	}
	Inspect(n, visit)
	return names
}

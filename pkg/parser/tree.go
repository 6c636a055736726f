package parser

import (
	"strings"

	"github.com/edp1096/toy-spice-parser/pkg/lexer"
)

// Node is a parse tree node, either *Terminal or *NonTerminal.
type Node interface {
	Pos() lexer.Pos
	aNode()
}

// Terminal wraps one token.
type Terminal struct {
	Token lexer.Token
}

// NonTerminal is a grammar rule application.
type NonTerminal struct {
	Name     string
	Children []Node
	pos      lexer.Pos
}

// Grammar rule names.
const (
	RuleNetlist    = "netlist"
	RuleStatements = "statements"
	RuleComment    = "comment"
	RuleComponent  = "component"
	RuleModel      = "model"
	RuleControl    = "control"
	RuleSubckt     = "subckt"
	RuleSubcktEnd  = "subckt_ends"
	RuleParameters = "parameters"
	RuleSingle     = "single"
	RuleAssignment = "assignment"
	RuleBracket    = "bracket"
	RuleVector     = "vector"
)

func (*Terminal) aNode()    {}
func (*NonTerminal) aNode() {}

func (t *Terminal) Pos() lexer.Pos    { return t.Token.Pos }
func (n *NonTerminal) Pos() lexer.Pos { return n.pos }

func newNonTerminal(name string, pos lexer.Pos, children ...Node) *NonTerminal {
	return &NonTerminal{Name: name, Children: children, pos: pos}
}

func (n *NonTerminal) add(children ...Node) {
	n.Children = append(n.Children, children...)
}

// Visitor is called for each node during Walk. If it returns false the
// children of the node are not visited.
type Visitor func(node Node) bool

// Walk traverses the tree depth-first.
func Walk(node Node, v Visitor) {
	if node == nil || !v(node) {
		return
	}
	if n, ok := node.(*NonTerminal); ok {
		for _, c := range n.Children {
			Walk(c, v)
		}
	}
}

// Dump renders the tree one node per line, for debugging.
func Dump(node Node) string {
	var b strings.Builder
	var rec func(n Node, depth int)
	rec = func(n Node, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		switch n := n.(type) {
		case *Terminal:
			b.WriteString(n.Token.String())
			b.WriteByte('\n')
		case *NonTerminal:
			b.WriteString(n.Name)
			b.WriteByte('\n')
			for _, c := range n.Children {
				rec(c, depth+1)
			}
		}
	}
	rec(node, 0)
	return b.String()
}

package parser

import (
	"fmt"
	"strings"

	"github.com/edp1096/toy-spice-parser/pkg/lexer"
	"github.com/edp1096/toy-spice-parser/pkg/netlist"
)

// Parse parses src with the default options.
func Parse(src string) (*netlist.Netlist, error) {
	return ParseNetlist(src, DefaultOptions())
}

// ParseNetlist parses src into its statement model.
func ParseNetlist(src string, opts Options) (*netlist.Netlist, error) {
	tree, err := ParseTree(src, opts)
	if err != nil {
		return nil, err
	}
	return Reduce(tree)
}

// Reduce converts a parse tree built by ParseTree into statements.
func Reduce(root *NonTerminal) (*netlist.Netlist, error) {
	if root.Name != RuleNetlist {
		return nil, &ParseError{Pos: root.Pos(), Msg: fmt.Sprintf("cannot reduce %q as a netlist", root.Name)}
	}
	nl := &netlist.Netlist{}
	for _, c := range root.Children {
		switch c := c.(type) {
		case *Terminal:
			if c.Token.Type == lexer.Title {
				nl.Title = c.Token.Text
			}
		case *NonTerminal:
			stmts, err := reduceStatements(c)
			if err != nil {
				return nil, err
			}
			nl.Statements = stmts
		}
	}
	return nl, nil
}

func reduceStatements(n *NonTerminal) ([]netlist.Statement, error) {
	out := make([]netlist.Statement, 0, len(n.Children))
	for _, c := range n.Children {
		st, err := reduceStatement(c.(*NonTerminal))
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func reduceStatement(n *NonTerminal) (netlist.Statement, error) {
	loc := netlist.Loc{Line: n.Pos().Line}
	head := n.Children[0].(*Terminal).Token

	switch n.Name {
	case RuleComment:
		return &netlist.CommentLine{Loc: loc, Text: head.Text}, nil

	case RuleComponent:
		params, err := reduceParameters(n.Children[1].(*NonTerminal))
		if err != nil {
			return nil, err
		}
		return &netlist.Component{Loc: loc, Name: head.Text, PinsAndParameters: params}, nil

	case RuleModel:
		params, err := reduceParameters(n.Children[1].(*NonTerminal))
		if err != nil {
			return nil, err
		}
		name, ok := leadingWord(params)
		if !ok {
			return nil, &ParseError{Pos: head.Pos, Msg: ".MODEL without a name"}
		}
		if params.Len() < 2 {
			return nil, &ParseError{Pos: head.Pos, Msg: fmt.Sprintf(".MODEL %s has no type", name)}
		}
		return &netlist.Model{Loc: loc, Name: name, Parameters: params.Skip(1)}, nil

	case RuleControl:
		params, err := reduceParameters(n.Children[1].(*NonTerminal))
		if err != nil {
			return nil, err
		}
		return &netlist.Control{Loc: loc, Name: controlName(head.Text), Parameters: params}, nil

	case RuleSubckt:
		return reduceSubckt(n, loc, head)
	}
	return nil, &ParseError{Pos: n.Pos(), Msg: fmt.Sprintf("unknown rule %q", n.Name)}
}

func controlName(keyword string) string {
	return strings.ToLower(strings.TrimPrefix(keyword, "."))
}

func leadingWord(params netlist.ParameterCollection) (string, bool) {
	if params.Len() == 0 {
		return "", false
	}
	s, ok := params.At(0).(*netlist.SingleParameter)
	if !ok || s.IsExpression() {
		return "", false
	}
	return s.Value, true
}

// reduceSubckt splits ".SUBCKT name pins... [params:] defaults..." and
// reduces the body.
func reduceSubckt(n *NonTerminal, loc netlist.Loc, head lexer.Token) (netlist.Statement, error) {
	params, err := reduceParameters(n.Children[1].(*NonTerminal))
	if err != nil {
		return nil, err
	}
	name, ok := leadingWord(params)
	if !ok {
		return nil, &ParseError{Pos: head.Pos, Msg: ".SUBCKT without a name"}
	}

	sub := &netlist.SubCircuit{Loc: loc, Name: name}
	defaults := false
	rest := params.Skip(1)
	for _, p := range rest.All() {
		switch p := p.(type) {
		case *netlist.SingleParameter:
			if strings.EqualFold(p.Value, "params:") {
				defaults = true
				continue
			}
			if defaults || p.IsExpression() {
				return nil, &ParseError{Pos: head.Pos, Msg: fmt.Sprintf("unexpected %s in .SUBCKT %s", p, name)}
			}
			sub.Pins = append(sub.Pins, p.Value)
		case *netlist.AssignmentParameter:
			defaults = true
			sub.DefaultParameters.Add(p)
		default:
			return nil, &ParseError{Pos: head.Pos, Msg: fmt.Sprintf("unexpected %s in .SUBCKT %s", p, name)}
		}
	}

	body, err := reduceStatements(n.Children[2].(*NonTerminal))
	if err != nil {
		return nil, err
	}
	sub.Statements = body
	return sub, nil
}

func reduceParameters(n *NonTerminal) (netlist.ParameterCollection, error) {
	var out netlist.ParameterCollection
	for _, c := range n.Children {
		p, err := reduceParameter(c.(*NonTerminal))
		if err != nil {
			return netlist.ParameterCollection{}, err
		}
		out.Add(p)
	}
	return out, nil
}

func reduceParameter(n *NonTerminal) (netlist.Parameter, error) {
	switch n.Name {
	case RuleSingle:
		tok := n.Children[0].(*Terminal).Token
		if tok.Type == lexer.DoubleQuotedString {
			return &netlist.StringParameter{Value: tok.Text}, nil
		}
		s := single(tok)
		return &s, nil

	case RuleVector:
		v := &netlist.VectorParameter{}
		for _, c := range n.Children {
			if sn, ok := c.(*NonTerminal); ok {
				v.Elements = append(v.Elements, single(sn.Children[0].(*Terminal).Token))
			}
		}
		return v, nil

	case RuleBracket:
		b := &netlist.BracketParameter{}
		for _, c := range n.Children {
			switch c := c.(type) {
			case *Terminal:
				if c.Token.Type == lexer.Word {
					b.Name = c.Token.Text
				}
			case *NonTerminal:
				inner, err := reduceParameters(c)
				if err != nil {
					return nil, err
				}
				b.Parameters = inner
			}
		}
		return b, nil

	case RuleAssignment:
		return reduceAssignment(n)
	}
	return nil, &ParseError{Pos: n.Pos(), Msg: fmt.Sprintf("unknown rule %q", n.Name)}
}

func reduceAssignment(n *NonTerminal) (netlist.Parameter, error) {
	a := &netlist.AssignmentParameter{}
	seenEqual := false
	for _, c := range n.Children {
		switch c := c.(type) {
		case *Terminal:
			switch {
			case c.Token.Type == lexer.Equal:
				seenEqual = true
			case c.Token.Type == lexer.Word && !seenEqual:
				a.Name = c.Token.Text
			}
		case *NonTerminal:
			if seenEqual {
				a.Values = append(a.Values, single(c.Children[0].(*Terminal).Token))
				continue
			}
			args, err := reduceParameters(c)
			if err != nil {
				return nil, err
			}
			for _, p := range args.All() {
				switch p := p.(type) {
				case *netlist.SingleParameter:
					a.Arguments = append(a.Arguments, p.Value)
				case *netlist.VectorParameter:
					for _, e := range p.Elements {
						a.Arguments = append(a.Arguments, e.Value)
					}
				default:
					return nil, &ParseError{Pos: c.Pos(), Msg: fmt.Sprintf("bad argument %s in definition of %s", p, a.Name)}
				}
			}
		}
	}
	// params:a=1 written without a space
	if len(a.Name) > len("params:") && strings.EqualFold(a.Name[:len("params:")], "params:") {
		a.Name = a.Name[len("params:"):]
	}
	return a, nil
}

func single(tok lexer.Token) netlist.SingleParameter {
	switch tok.Type {
	case lexer.Value:
		return netlist.SingleParameter{Kind: netlist.ValueKind, Value: tok.Text}
	case lexer.ExpressionBracket:
		return netlist.SingleParameter{Kind: netlist.ExpressionKind, Value: tok.Text}
	case lexer.ExpressionSingleQuotes:
		return netlist.SingleParameter{Kind: netlist.QuotedExpressionKind, Value: tok.Text}
	}
	return netlist.SingleParameter{Kind: netlist.WordKind, Value: tok.Text}
}

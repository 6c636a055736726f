// Package parser builds a parse tree from netlist tokens and reduces it
// to the statement model of package netlist.
package parser

import (
	"fmt"
	"strings"

	"github.com/edp1096/toy-spice-parser/pkg/lexer"
)

// ParseError reports a structural problem in the netlist.
type ParseError struct {
	Pos lexer.Pos
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
}

// Options configures parsing.
type Options struct {
	Lexer lexer.Options
}

func DefaultOptions() Options {
	return Options{Lexer: lexer.DefaultOptions()}
}

// grammar is a recursive descent parser over the token stream with two
// tokens of lookahead. Continuation markers and trailing inline comments
// are dropped before the grammar sees them; an inline comment that opens a
// line is kept as a comment statement.
type grammar struct {
	lx   *lexer.Lexer
	tok  lexer.Token
	peek lexer.Token
	// lineStart is set when the next token read opens a logical line.
	lineStart bool
}

func newGrammar(src string, opts Options) (*grammar, error) {
	g := &grammar{lx: lexer.New(src, opts.Lexer), lineStart: true}
	var err error
	if g.tok, err = g.read(); err != nil {
		return nil, err
	}
	if g.peek, err = g.read(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *grammar) read() (lexer.Token, error) {
	for {
		tok, err := g.lx.Next()
		if err != nil {
			return tok, err
		}
		switch tok.Type {
		case lexer.Continue:
			continue
		case lexer.CommentPSpice, lexer.CommentHSpice:
			if !g.lineStart {
				continue
			}
		}
		g.lineStart = tok.Type == lexer.Newline
		return tok, nil
	}
}

// next consumes the current token and returns it.
func (g *grammar) next() (lexer.Token, error) {
	cur := g.tok
	if cur.Type == lexer.EOF {
		return cur, nil
	}
	g.tok = g.peek
	if g.peek.Type != lexer.EOF {
		var err error
		if g.peek, err = g.read(); err != nil {
			return cur, err
		}
	}
	return cur, nil
}

func (g *grammar) terminal() (*Terminal, error) {
	tok, err := g.next()
	if err != nil {
		return nil, err
	}
	return &Terminal{Token: tok}, nil
}

func (g *grammar) errorf(format string, args ...any) error {
	return &ParseError{Pos: g.tok.Pos, Msg: fmt.Sprintf(format, args...)}
}

func (g *grammar) isDelimiter(tok lexer.Token, s string) bool {
	return tok.Type == lexer.Delimiter && tok.Text == s
}

// endOfLine consumes the Newline closing a statement.
func (g *grammar) endOfLine() error {
	switch g.tok.Type {
	case lexer.Newline:
		_, err := g.next()
		return err
	case lexer.EOF:
		return nil
	}
	return g.errorf("unexpected %s at end of statement", g.tok)
}

// ParseTree builds the parse tree of src. Parsing stops at .END.
func ParseTree(src string, opts Options) (*NonTerminal, error) {
	g, err := newGrammar(src, opts)
	if err != nil {
		return nil, err
	}
	root := newNonTerminal(RuleNetlist, g.tok.Pos)

	if g.tok.Type == lexer.Title {
		title, err := g.terminal()
		if err != nil {
			return nil, err
		}
		root.add(title)
		if err := g.endOfLine(); err != nil {
			return nil, err
		}
	}

	stmts, err := g.statements(nil)
	if err != nil {
		return nil, err
	}
	root.add(stmts)

	switch g.tok.Type {
	case lexer.Ends:
		return nil, g.errorf(".ENDS without a matching .SUBCKT")
	case lexer.End:
		end, err := g.terminal()
		if err != nil {
			return nil, err
		}
		root.add(end)
	}
	return root, nil
}

// statements parses until EOF, .END or .ENDS. open is the .SUBCKT terminal
// of the enclosing subcircuit, nil at the top level.
func (g *grammar) statements(open *Terminal) (*NonTerminal, error) {
	list := newNonTerminal(RuleStatements, g.tok.Pos)
	for {
		switch g.tok.Type {
		case lexer.EOF, lexer.End:
			if open != nil {
				return nil, &ParseError{Pos: open.Token.Pos, Msg: ".SUBCKT without a matching .ENDS"}
			}
			return list, nil
		case lexer.Ends:
			return list, nil
		case lexer.Newline:
			if _, err := g.next(); err != nil {
				return nil, err
			}
			continue
		}

		stmt, err := g.statement()
		if err != nil {
			return nil, err
		}
		list.add(stmt)
	}
}

func (g *grammar) statement() (*NonTerminal, error) {
	pos := g.tok.Pos
	switch g.tok.Type {
	case lexer.Comment, lexer.BlockComment, lexer.CommentPSpice, lexer.CommentHSpice:
		t, err := g.terminal()
		if err != nil {
			return nil, err
		}
		return newNonTerminal(RuleComment, pos, t), g.endOfLine()

	case lexer.Word:
		return g.line(RuleComponent)

	case lexer.Control:
		switch strings.ToLower(g.tok.Text) {
		case ".model":
			return g.line(RuleModel)
		case ".subckt":
			return g.subckt()
		}
		return g.line(RuleControl)
	}
	return nil, g.errorf("unexpected %s at start of statement", g.tok)
}

// line parses a keyword or name followed by parameters.
func (g *grammar) line(rule string) (*NonTerminal, error) {
	head, err := g.terminal()
	if err != nil {
		return nil, err
	}
	params, err := g.parameters(false)
	if err != nil {
		return nil, err
	}
	return newNonTerminal(rule, head.Pos(), head, params), g.endOfLine()
}

func (g *grammar) subckt() (*NonTerminal, error) {
	head, err := g.terminal()
	if err != nil {
		return nil, err
	}
	params, err := g.parameters(false)
	if err != nil {
		return nil, err
	}
	if err := g.endOfLine(); err != nil {
		return nil, err
	}
	body, err := g.statements(head)
	if err != nil {
		return nil, err
	}

	ends := newNonTerminal(RuleSubcktEnd, g.tok.Pos)
	for g.tok.Type != lexer.Newline && g.tok.Type != lexer.EOF {
		t, err := g.terminal()
		if err != nil {
			return nil, err
		}
		ends.add(t)
	}
	if err := g.endOfLine(); err != nil {
		return nil, err
	}
	return newNonTerminal(RuleSubckt, head.Pos(), head, params, body, ends), nil
}

// parameters parses up to the end of the line, or up to the closing
// parenthesis when inBracket is set.
func (g *grammar) parameters(inBracket bool) (*NonTerminal, error) {
	list := newNonTerminal(RuleParameters, g.tok.Pos)
	for {
		switch {
		case g.tok.Type == lexer.Newline || g.tok.Type == lexer.EOF:
			if inBracket {
				return nil, g.errorf("unclosed '('")
			}
			return list, nil
		case g.isDelimiter(g.tok, ")"):
			if !inBracket {
				return nil, g.errorf("unmatched ')'")
			}
			return list, nil
		}

		p, err := g.parameter()
		if err != nil {
			return nil, err
		}
		list.add(p)
	}
}

func (g *grammar) isSingle(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.Word, lexer.Value, lexer.ExpressionBracket, lexer.ExpressionSingleQuotes, lexer.DoubleQuotedString:
		return true
	}
	return false
}

func (g *grammar) parameter() (Node, error) {
	pos := g.tok.Pos
	switch {
	case g.tok.Type == lexer.Word && g.peek.Type == lexer.Equal:
		name, err := g.terminal()
		if err != nil {
			return nil, err
		}
		return g.assignment(newNonTerminal(RuleAssignment, pos, name))

	case g.tok.Type == lexer.Word && g.isDelimiter(g.peek, "("):
		name, err := g.terminal()
		if err != nil {
			return nil, err
		}
		b, err := g.bracket(newNonTerminal(RuleBracket, pos, name))
		if err != nil {
			return nil, err
		}
		if g.tok.Type == lexer.Equal {
			// f(a,b)=expr
			return g.assignment(newNonTerminal(RuleAssignment, pos, b.Children...))
		}
		return b, nil

	case g.isDelimiter(g.tok, "("):
		return g.bracket(newNonTerminal(RuleBracket, pos))

	case g.isSingle(g.tok):
		return g.vector()

	case g.tok.Type == lexer.Equal:
		return nil, g.errorf("assignment without a name")
	}
	return nil, g.errorf("unexpected %s in parameter list", g.tok)
}

// bracket parses "( parameters )" and appends to node.
func (g *grammar) bracket(node *NonTerminal) (*NonTerminal, error) {
	open, err := g.terminal()
	if err != nil {
		return nil, err
	}
	inner, err := g.parameters(true)
	if err != nil {
		return nil, err
	}
	closing, err := g.terminal()
	if err != nil {
		return nil, err
	}
	node.add(open, inner, closing)
	return node, nil
}

// assignment parses "= single {, single}" and appends to node.
func (g *grammar) assignment(node *NonTerminal) (*NonTerminal, error) {
	eq, err := g.terminal()
	if err != nil {
		return nil, err
	}
	if !g.isSingle(g.tok) {
		return nil, &ParseError{Pos: eq.Token.Pos, Msg: "assignment has no value"}
	}
	node.add(eq)
	for {
		v, err := g.terminal()
		if err != nil {
			return nil, err
		}
		node.add(newNonTerminal(RuleSingle, v.Pos(), v))
		if g.tok.Type != lexer.Comma {
			return node, nil
		}
		comma, err := g.terminal()
		if err != nil {
			return nil, err
		}
		if !g.isSingle(g.tok) {
			return nil, &ParseError{Pos: comma.Token.Pos, Msg: "missing value after ','"}
		}
	}
}

// vector parses a single parameter, or a comma separated list of them.
func (g *grammar) vector() (*NonTerminal, error) {
	first, err := g.terminal()
	if err != nil {
		return nil, err
	}
	single := newNonTerminal(RuleSingle, first.Pos(), first)
	if g.tok.Type != lexer.Comma {
		return single, nil
	}

	vec := newNonTerminal(RuleVector, first.Pos(), single)
	for g.tok.Type == lexer.Comma {
		comma, err := g.terminal()
		if err != nil {
			return nil, err
		}
		if !g.isSingle(g.tok) {
			return nil, &ParseError{Pos: comma.Token.Pos, Msg: "missing value after ','"}
		}
		v, err := g.terminal()
		if err != nil {
			return nil, err
		}
		vec.add(comma, newNonTerminal(RuleSingle, v.Pos(), v))
	}
	return vec, nil
}

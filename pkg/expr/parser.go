package expr

import (
	"strings"
)

// Options selects grammar variations between SPICE dialects.
type Options struct {
	// LeftAssociativePower parses 2**3**2 as (2**3)**2 instead of
	// 2**(3**2).
	LeftAssociativePower bool
}

// Binary operator precedence, loosest first. The ternary conditional sits
// below all of them and unary operators and power above.
var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3, "<": 3, "<=": 3, ">": 3, ">=": 3,
	"+": 4, "-": 4,
	"*": 5, "/": 5, "%": 5,
}

type parser struct {
	sc   scanner
	opts Options
	tok  token
	err  error
}

// Compile parses expression text into a tree.
func Compile(text string, opts Options) (Node, error) {
	p := &parser{sc: scanner{src: text}, opts: opts}
	p.next()
	if p.err != nil {
		return nil, p.err
	}
	if p.tok.kind == tEOF {
		return nil, p.sc.errorf(0, "empty expression")
	}
	n := p.ternary()
	if p.err != nil {
		return nil, p.err
	}
	if p.tok.kind != tEOF {
		return nil, p.sc.errorf(p.tok.pos, "unexpected %q", p.tok.text)
	}
	return n, nil
}

func (p *parser) next() {
	if p.err != nil {
		return
	}
	tok, err := p.sc.next()
	if err != nil {
		p.err = err
		p.tok = token{kind: tEOF, pos: len(p.sc.src)}
		return
	}
	p.tok = tok
}

func (p *parser) fail(pos int, format string, args ...any) Node {
	if p.err == nil {
		p.err = p.sc.errorf(pos, format, args...)
	}
	p.tok = token{kind: tEOF, pos: len(p.sc.src)}
	return &Literal{At: pos}
}

func (p *parser) want(kind tokenKind, what string) {
	if p.tok.kind != kind {
		p.fail(p.tok.pos, "expected %s", what)
		return
	}
	p.next()
}

func (p *parser) ternary() Node {
	cond := p.binary(1)
	if p.tok.kind != tQuestion {
		return cond
	}
	pos := p.tok.pos
	p.next()
	then := p.ternary()
	p.want(tColon, "':' in conditional")
	els := p.ternary()
	return &Conditional{Cond: cond, Then: then, Else: els, At: pos}
}

func (p *parser) binary(minPrec int) Node {
	x := p.unary()
	for p.tok.kind == tOp {
		prec, ok := binaryPrec[p.tok.text]
		if !ok || prec < minPrec {
			break
		}
		op, pos := p.tok.text, p.tok.pos
		p.next()
		y := p.binary(prec + 1)
		x = &Binary{Op: op, X: x, Y: y, At: pos}
	}
	return x
}

// unary handles prefix operators. A minus directly in front of a number
// is part of the literal, so -2**2 is (-2)**2 while -x**2 is -(x**2).
func (p *parser) unary() Node {
	if lit := p.negativeLiteral(); lit != nil {
		return p.power(lit)
	}
	if p.tok.kind == tOp && (p.tok.text == "-" || p.tok.text == "+" || p.tok.text == "!") {
		op, pos := p.tok.text, p.tok.pos
		p.next()
		return &Unary{Op: op, X: p.unary(), At: pos}
	}
	return p.power(p.primary())
}

func (p *parser) negativeLiteral() Node {
	if p.tok.kind != tOp || p.tok.text != "-" {
		return nil
	}
	save, saveTok := p.sc, p.tok
	p.next()
	if p.err != nil || p.tok.kind != tNumber || p.tok.pos != saveTok.pos+1 {
		p.sc, p.tok = save, saveTok
		return nil
	}
	lit := p.literal("-"+p.tok.text, saveTok.pos)
	p.next()
	return lit
}

// power parses the exponent chain following base.
func (p *parser) power(base Node) Node {
	for p.tok.kind == tOp && p.tok.text == "**" {
		pos := p.tok.pos
		p.next()
		if !p.opts.LeftAssociativePower {
			return &Binary{Op: "**", X: base, Y: p.unary(), At: pos}
		}
		base = &Binary{Op: "**", X: base, Y: p.operand(), At: pos}
	}
	return base
}

// operand is a primary with optional prefix operators but no exponent.
func (p *parser) operand() Node {
	if lit := p.negativeLiteral(); lit != nil {
		return lit
	}
	if p.tok.kind == tOp && (p.tok.text == "-" || p.tok.text == "+" || p.tok.text == "!") {
		op, pos := p.tok.text, p.tok.pos
		p.next()
		return &Unary{Op: op, X: p.operand(), At: pos}
	}
	return p.primary()
}

func (p *parser) literal(text string, pos int) Node {
	v, err := ParseValue(text)
	if err != nil {
		return p.fail(pos, "invalid number %q", text)
	}
	return &Literal{Value: v, Text: text, At: pos}
}

func (p *parser) primary() Node {
	tok := p.tok
	switch tok.kind {
	case tNumber:
		p.next()
		return p.literal(tok.text, tok.pos)

	case tIdent:
		p.next()
		if p.tok.kind != tLParen {
			return &Variable{Name: tok.text, At: tok.pos}
		}
		p.next()
		if strings.EqualFold(tok.text, "lazy") && p.tok.kind == tLazyText {
			lazy := &Lazy{Text: p.tok.text, At: tok.pos, opts: p.opts}
			p.next()
			p.want(tRParen, "')' after lazy text")
			return lazy
		}
		call := &Call{Name: tok.text, At: tok.pos}
		if p.tok.kind == tRParen {
			p.next()
			return call
		}
		for {
			call.Args = append(call.Args, p.ternary())
			if p.tok.kind != tComma {
				break
			}
			p.next()
		}
		p.want(tRParen, "')' after arguments")
		return call

	case tLParen:
		p.next()
		x := p.ternary()
		p.want(tRParen, "')'")
		return x

	case tEOF:
		return p.fail(tok.pos, "unexpected end of expression")
	}
	return p.fail(tok.pos, "unexpected %q", tok.text)
}

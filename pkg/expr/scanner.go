package expr

import "fmt"

// SyntaxError reports malformed expression text.
type SyntaxError struct {
	Expr   string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error in %q at offset %d: %s", e.Expr, e.Offset, e.Msg)
}

type tokenKind int

const (
	tEOF tokenKind = iota
	tNumber
	tIdent
	tOp
	tLParen
	tRParen
	tComma
	tQuestion
	tColon
	tLazyText // the text between # marks
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// twoCharOps are checked before single characters.
var twoCharOps = map[string]string{
	"**": "**",
	"==": "==",
	"!=": "!=",
	"<>": "!=",
	"<=": "<=",
	">=": ">=",
	"&&": "&&",
	"||": "||",
}

type scanner struct {
	src string
	off int
}

func (s *scanner) errorf(pos int, format string, args ...any) error {
	return &SyntaxError{Expr: s.src, Offset: pos, Msg: fmt.Sprintf(format, args...)}
}

func (s *scanner) next() (token, error) {
	for s.off < len(s.src) && (s.src[s.off] == ' ' || s.src[s.off] == '\t' || s.src[s.off] == '\n' || s.src[s.off] == '\r') {
		s.off++
	}
	start := s.off
	if start >= len(s.src) {
		return token{kind: tEOF, pos: start}, nil
	}

	c := s.src[start]
	switch {
	case isDigit(c) || c == '.' && start+1 < len(s.src) && isDigit(s.src[start+1]):
		n := numberPrefix(s.src[start:])
		end := start + n
		for end < len(s.src) && isLetter(s.src[end]) {
			end++
		}
		s.off = end
		return token{kind: tNumber, text: s.src[start:end], pos: start}, nil

	case isLetter(c) || c == '_':
		end := start + 1
		for end < len(s.src) && isIdentChar(s.src[end]) {
			end++
		}
		s.off = end
		return token{kind: tIdent, text: s.src[start:end], pos: start}, nil

	case c == '#':
		for i := start + 1; i < len(s.src); i++ {
			if s.src[i] == '#' {
				s.off = i + 1
				return token{kind: tLazyText, text: s.src[start+1 : i], pos: start}, nil
			}
		}
		return token{}, s.errorf(start, "unterminated lazy text")
	}

	if start+2 <= len(s.src) {
		if op, ok := twoCharOps[s.src[start:start+2]]; ok {
			s.off += 2
			return token{kind: tOp, text: op, pos: start}, nil
		}
	}

	s.off++
	switch c {
	case '(':
		return token{kind: tLParen, text: "(", pos: start}, nil
	case ')':
		return token{kind: tRParen, text: ")", pos: start}, nil
	case ',':
		return token{kind: tComma, text: ",", pos: start}, nil
	case '?':
		return token{kind: tQuestion, text: "?", pos: start}, nil
	case ':':
		return token{kind: tColon, text: ":", pos: start}, nil
	case '^':
		return token{kind: tOp, text: "**", pos: start}, nil
	case '+', '-', '*', '/', '%', '<', '>', '!':
		return token{kind: tOp, text: string(c), pos: start}, nil
	}
	return token{}, s.errorf(start, "unexpected character %q", c)
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_' || c == '.' || c == '$'
}

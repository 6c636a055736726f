package lexer

import (
	"iter"
	"regexp"
	"strings"
)

// Options selects the lexical features of a netlist dialect.
type Options struct {
	HasTitle           bool // first line is the circuit title
	ContinuationMarker byte // leading marker joining a line to the previous statement, 0 disables
	PSpiceComments     bool // ';' starts an inline comment
	HSpiceComments     bool // '$' after whitespace starts an inline comment
	BlockComments      bool // #COM ... #ENDCOM
}

// DefaultOptions enables every feature with '+' as the continuation marker.
func DefaultOptions() Options {
	return Options{
		HasTitle:           true,
		ContinuationMarker: '+',
		PSpiceComments:     true,
		HSpiceComments:     true,
		BlockComments:      true,
	}
}

var valuePattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?[A-Za-z%]*$`)

// IsValue reports whether s reads as a number with an optional unit suffix.
func IsValue(s string) bool {
	return valuePattern.MatchString(s)
}

// Lexer produces tokens one at a time. It holds no more than the current
// logical line, so a Reset followed by another pass yields the same tokens.
type Lexer struct {
	opts Options
	src  string

	lines *lineReader
	line  *logicalLine
	off   int // next unread byte in line.text
	seg   int // next segment whose continuation marker is still unannounced
	first bool
	done  bool
}

func New(src string, opts Options) *Lexer {
	l := &Lexer{opts: opts, src: src}
	l.Reset()
	return l
}

// Reset rewinds the lexer to the start of the input.
func (l *Lexer) Reset() {
	l.lines = newLineReader(l.src, l.opts)
	l.line = nil
	l.off = 0
	l.seg = 1
	l.done = false
}

// Next returns the next token. Once EOF has been returned every further
// call returns EOF again.
func (l *Lexer) Next() (Token, error) {
	for {
		if l.done {
			return Token{Type: EOF, Pos: l.eofPos()}, nil
		}
		if l.line == nil {
			next, err := l.lines.next()
			if err != nil {
				l.done = true
				return Token{}, err
			}
			if next == nil {
				l.done = true
				continue
			}
			l.line, l.off, l.seg, l.first = next, 0, 1, true
			switch next.kind {
			case lineTitle:
				l.off = len(next.text)
				return Token{Type: Title, Text: next.text, Pos: next.segs[0].pos}, nil
			case lineComment:
				l.off = len(next.text)
				return Token{Type: Comment, Text: next.text, Pos: next.segs[0].pos}, nil
			case lineBlockComment:
				l.off = len(next.text)
				return Token{Type: BlockComment, Text: next.text, Pos: next.segs[0].pos}, nil
			}
		}

		tok, ok, err := l.scan()
		if err != nil {
			l.done = true
			return Token{}, err
		}
		if ok {
			return tok, nil
		}
		end := l.line.posAt(len(l.line.text))
		l.line = nil
		return Token{Type: Newline, Pos: end}, nil
	}
}

func (l *Lexer) eofPos() Pos {
	return Pos{Line: l.lines.line + 1, Col: 1}
}

// All returns the whole token sequence from the start of the input. The
// sequence stops after EOF or after the first error.
func (l *Lexer) All() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		l.Reset()
		for {
			tok, err := l.Next()
			if !yield(tok, err) || err != nil || tok.Type == EOF {
				return
			}
		}
	}
}

// Tokenize lexes src completely, EOF token included.
func Tokenize(src string, opts Options) ([]Token, error) {
	var toks []Token
	for tok, err := range New(src, opts).All() {
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

// scan reads the next token of the current statement line. ok is false
// when the line is exhausted.
func (l *Lexer) scan() (tok Token, ok bool, err error) {
	text := l.line.text
	prevEnd := l.off
	for l.off < len(text) && isSpace(text[l.off]) {
		l.off++
	}

	// A marker swallowed by a bracket expression spanning lines is not reported.
	for l.seg < len(l.line.segs) && l.line.segs[l.seg].off <= l.off {
		s := l.line.segs[l.seg]
		l.seg++
		if s.off >= prevEnd {
			return Token{Type: Continue, Text: string(l.opts.ContinuationMarker), Pos: s.marker}, true, nil
		}
	}

	if l.off >= len(text) {
		return Token{}, false, nil
	}

	start := l.off
	pos := l.line.posAt(start)
	first := l.first
	l.first = false
	c := text[start]

	switch {
	case first && c == '.' && start+1 < len(text) && isLetter(text[start+1]):
		word := l.readWord()
		switch strings.ToUpper(word) {
		case ".ENDS":
			return Token{Type: Ends, Text: word, Pos: pos}, true, nil
		case ".END":
			return Token{Type: End, Text: word, Pos: pos}, true, nil
		}
		return Token{Type: Control, Text: word, Pos: pos}, true, nil

	case c == ';' && l.opts.PSpiceComments:
		return l.inlineComment(CommentPSpice, pos), true, nil

	case c == '$' && l.opts.HSpiceComments && (start == 0 || isSpace(text[start-1])):
		return l.inlineComment(CommentHSpice, pos), true, nil

	case c == '{':
		depth := 0
		for i := start; i < len(text); i++ {
			switch text[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					l.off = i + 1
					return Token{Type: ExpressionBracket, Text: text[start+1 : i], Pos: pos}, true, nil
				}
			}
		}
		return Token{}, false, &LexError{Pos: pos, Msg: "unterminated expression bracket"}

	case c == '}':
		return Token{}, false, &LexError{Pos: pos, Msg: "unexpected '}'"}

	case c == '\'' || c == '"':
		end := strings.IndexByte(text[start+1:], c)
		if end < 0 {
			if c == '"' {
				return Token{}, false, &LexError{Pos: pos, Msg: "unterminated string"}
			}
			return Token{}, false, &LexError{Pos: pos, Msg: "unterminated quoted expression"}
		}
		l.off = start + 1 + end + 1
		typ := ExpressionSingleQuotes
		if c == '"' {
			typ = DoubleQuotedString
		}
		return Token{Type: typ, Text: text[start+1 : start+1+end], Pos: pos}, true, nil

	case c == '=':
		l.off++
		return Token{Type: Equal, Text: "=", Pos: pos}, true, nil

	case c == '(' || c == ')':
		l.off++
		return Token{Type: Delimiter, Text: string(c), Pos: pos}, true, nil

	case c == ',':
		l.off++
		return Token{Type: Comma, Text: ",", Pos: pos}, true, nil
	}

	word := l.readWord()
	if IsValue(word) {
		return Token{Type: Value, Text: word, Pos: pos}, true, nil
	}
	return Token{Type: Word, Text: word, Pos: pos}, true, nil
}

// inlineComment consumes the rest of the current physical line.
func (l *Lexer) inlineComment(typ TokenType, pos Pos) Token {
	start := l.off
	end := l.line.segmentEnd(start)
	l.off = end
	return Token{Type: typ, Text: strings.TrimSpace(l.line.text[start+1 : end]), Pos: pos}
}

func (l *Lexer) readWord() string {
	text := l.line.text
	start := l.off
	for l.off < len(text) && !isSpace(text[l.off]) && !isStop(text[l.off], l.opts) {
		l.off++
	}
	return text[start:l.off]
}

func isStop(c byte, opts Options) bool {
	switch c {
	case '=', '(', ')', ',', '{', '}', '\'', '"':
		return true
	case ';':
		return opts.PSpiceComments
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

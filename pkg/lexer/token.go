// Package lexer splits SPICE netlist text into tokens.
package lexer

import "fmt"

// TokenType is the kind of a netlist token.
type TokenType int

const (
	EOF TokenType = iota

	Title
	Comment                // * full line comment
	CommentPSpice          // ; comment
	CommentHSpice          // $ comment
	BlockComment           // #COM ... #ENDCOM
	Newline                // end of a logical line
	Continue               // continuation marker at the start of a physical line
	Control                // .keyword
	Ends                   // .ENDS
	End                    // .END
	Word                   // identifier-like text
	Value                  // number with optional unit suffix
	Equal                  // =
	Delimiter              // ( or )
	Comma                  // ,
	ExpressionBracket      // {...}, payload is the inner text
	ExpressionSingleQuotes // '...', payload is the inner text
	DoubleQuotedString     // "...", payload is the inner text

	tokenTypeCount
)

var tokenTypeNames = [...]string{
	EOF:                    "EOF",
	Title:                  "TITLE",
	Comment:                "COMMENT",
	CommentPSpice:          "COMMENT_PSPICE",
	CommentHSpice:          "COMMENT_HSPICE",
	BlockComment:           "BLOCK_COMMENT",
	Newline:                "NEWLINE",
	Continue:               "CONTINUE",
	Control:                "CONTROL",
	Ends:                   "ENDS",
	End:                    "END",
	Word:                   "WORD",
	Value:                  "VALUE",
	Equal:                  "EQUAL",
	Delimiter:              "DELIMITER",
	Comma:                  "COMMA",
	ExpressionBracket:      "EXPRESSION_BRACKET",
	ExpressionSingleQuotes: "EXPRESSION_SINGLE_QUOTES",
	DoubleQuotedString:     "DOUBLE_QUOTED_STRING",
}

func (t TokenType) String() string {
	if t >= 0 && t < tokenTypeCount {
		return tokenTypeNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// IsComment reports whether t is one of the comment kinds.
func (t TokenType) IsComment() bool {
	switch t {
	case Comment, CommentPSpice, CommentHSpice, BlockComment:
		return true
	}
	return false
}

// Pos is a 1-based line/column position in the source text.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is an immutable lexical unit. For bracket, quoted and comment tokens
// Text holds the payload without delimiters.
type Token struct {
	Type TokenType
	Text string
	Pos  Pos
}

func (t Token) String() string {
	switch t.Type {
	case EOF, Newline:
		return t.Type.String()
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Text)
}

// LexError reports malformed input such as an unterminated string,
// expression bracket or block comment.
type LexError struct {
	Pos Pos
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s: %s", e.Pos, e.Msg)
}

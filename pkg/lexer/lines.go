package lexer

import (
	"sort"
	"strings"
)

type lineKind int

const (
	lineStatement lineKind = iota
	lineTitle
	lineComment
	lineBlockComment
)

// segment marks where a physical line starts inside a logical line.
type segment struct {
	off    int // byte offset in logicalLine.text
	pos    Pos // source position of text[off]
	marker Pos // position of the continuation marker, zero for the first segment
}

// logicalLine is one statement after continuation lines have been merged.
type logicalLine struct {
	kind lineKind
	text string
	segs []segment
}

func (l *logicalLine) posAt(off int) Pos {
	i := sort.Search(len(l.segs), func(i int) bool { return l.segs[i].off > off }) - 1
	if i < 0 {
		i = 0
	}
	s := l.segs[i]
	return Pos{Line: s.pos.Line, Col: s.pos.Col + off - s.off}
}

// segmentEnd returns the offset where the segment containing off ends.
func (l *logicalLine) segmentEnd(off int) int {
	for _, s := range l.segs {
		if s.off > off {
			return s.off - 1
		}
	}
	return len(l.text)
}

// lineReader assembles logical lines from physical lines. A continuation
// line is appended to the last statement line even when comment lines sit
// in between; those comment lines are held back and emitted after the
// statement they interrupted.
type lineReader struct {
	opts Options
	src  string
	off  int
	line int

	cur   *logicalLine
	held  []*logicalLine
	ready []*logicalLine
	eof   bool
}

func newLineReader(src string, opts Options) *lineReader {
	return &lineReader{opts: opts, src: src}
}

func (r *lineReader) physical() (string, int, bool) {
	if r.off >= len(r.src) {
		return "", 0, false
	}
	r.line++
	rest := r.src[r.off:]
	idx := strings.IndexByte(rest, '\n')
	var text string
	if idx < 0 {
		text = rest
		r.off = len(r.src)
	} else {
		text = rest[:idx]
		r.off += idx + 1
	}
	return strings.TrimSuffix(text, "\r"), r.line, true
}

// next returns the next logical line, or nil at the end of input.
func (r *lineReader) next() (*logicalLine, error) {
	for len(r.ready) == 0 {
		if r.eof {
			return nil, nil
		}
		if err := r.step(); err != nil {
			return nil, err
		}
	}
	l := r.ready[0]
	r.ready = r.ready[1:]
	return l, nil
}

func (r *lineReader) flush() {
	if r.cur != nil {
		r.ready = append(r.ready, r.cur)
		r.cur = nil
	}
	r.ready = append(r.ready, r.held...)
	r.held = nil
}

func (r *lineReader) emitComment(l *logicalLine) {
	if r.cur != nil {
		r.held = append(r.held, l)
		return
	}
	r.ready = append(r.ready, l)
}

func (r *lineReader) step() error {
	text, lineNo, ok := r.physical()
	if !ok {
		r.flush()
		r.eof = true
		return nil
	}

	if lineNo == 1 && r.opts.HasTitle {
		r.ready = append(r.ready, &logicalLine{
			kind: lineTitle,
			text: strings.TrimSpace(text),
			segs: []segment{{pos: Pos{Line: 1, Col: 1}}},
		})
		return nil
	}

	trimmed := strings.TrimLeft(text, " \t")
	col := len(text) - len(trimmed) + 1
	if strings.TrimSpace(trimmed) == "" {
		return nil
	}

	switch {
	case r.opts.ContinuationMarker != 0 && trimmed[0] == r.opts.ContinuationMarker:
		if r.cur == nil {
			return &LexError{Pos: Pos{Line: lineNo, Col: col}, Msg: "continuation line without a preceding statement"}
		}
		body := trimmed[1:]
		lead := len(body) - len(strings.TrimLeft(body, " \t"))
		r.cur.text += " "
		r.cur.segs = append(r.cur.segs, segment{
			off:    len(r.cur.text),
			pos:    Pos{Line: lineNo, Col: col + 1 + lead},
			marker: Pos{Line: lineNo, Col: col},
		})
		r.cur.text += strings.TrimLeft(body, " \t")

	case trimmed[0] == '*':
		r.emitComment(&logicalLine{
			kind: lineComment,
			text: strings.TrimSpace(trimmed[1:]),
			segs: []segment{{pos: Pos{Line: lineNo, Col: col}}},
		})

	case r.opts.BlockComments && hasPrefixFold(trimmed, "#com") && !hasPrefixFold(trimmed, "#comment"):
		return r.blockComment(lineNo, col)

	default:
		r.flush()
		r.cur = &logicalLine{
			kind: lineStatement,
			text: trimmed,
			segs: []segment{{pos: Pos{Line: lineNo, Col: col}}},
		}
	}
	return nil
}

func (r *lineReader) blockComment(startLine, startCol int) error {
	var body []string
	for {
		text, _, ok := r.physical()
		if !ok {
			return &LexError{Pos: Pos{Line: startLine, Col: startCol}, Msg: "unterminated block comment, missing #ENDCOM"}
		}
		if hasPrefixFold(strings.TrimSpace(text), "#endcom") {
			break
		}
		body = append(body, text)
	}
	r.emitComment(&logicalLine{
		kind: lineBlockComment,
		text: strings.Join(body, "\n"),
		segs: []segment{{pos: Pos{Line: startLine, Col: startCol}}},
	})
	return nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

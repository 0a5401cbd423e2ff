// Package lexer implements the character-level pushback stream and the
// one-token-lookahead tokenizer built on top of it, grounded on the
// original Valley compiler's util.cpp (PushBackStream) and tokenizer.cpp.
package lexer

import "github.com/valley-lang/valleyc/token"

// charPos pairs a rune with the (line, column) it was read from, so
// pushing it back can restore the stream's position exactly.
type charPos struct {
	ch   rune
	line int
	col  int
}

// PushbackStream reads runes from an underlying reader one at a time while
// tracking (line, column) and supports pushing runes back onto the front of
// the stream — including runes that were never produced by the reader, used
// by the tokenizer's elif rewrite.
type PushbackStream struct {
	src     []rune
	pos     int
	pending []charPos
	line    int
	col     int
	eof     bool
}

// NewPushbackStream wraps a full source text. The teacher's reference
// compiler reads its input character-by-character from a callback; reading
// the whole file up front is equivalent for our purposes and is how the
// other pack examples build lexers over in-memory sources.
func NewPushbackStream(src string) *PushbackStream {
	return &PushbackStream{src: []rune(src), line: 0, col: 0}
}

// Next returns the next rune and true, or (0, false) at end of input.
func (s *PushbackStream) Next() (rune, bool) {
	if n := len(s.pending); n > 0 {
		top := s.pending[n-1]
		s.pending = s.pending[:n-1]
		s.line, s.col = top.line, top.col
		s.advance(top.ch)
		return top.ch, true
	}
	if s.pos >= len(s.src) {
		s.eof = true
		return 0, false
	}
	ch := s.src[s.pos]
	s.pos++
	s.advance(ch)
	return ch, true
}

// advance updates line/column bookkeeping the way the reference
// PushBackStream increments _char_index always and _line_number on '\n'.
func (s *PushbackStream) advance(ch rune) {
	if ch == '\n' {
		s.line++
		s.col = 0
	} else {
		s.col++
	}
}

// PushBack returns ch to the front of the stream, restoring the position it
// was read at. Multiple pushbacks stack LIFO, mirroring the reference
// stream's vector-based pushback buffer.
func (s *PushbackStream) PushBack(ch rune) {
	if ch == '\n' {
		s.line--
	} else {
		s.col--
	}
	s.pending = append(s.pending, charPos{ch, s.line, s.col})
}

// PushBackString pushes str onto the stream back-to-front so that reading
// forward again reproduces str verbatim. Used by the tokenizer's stepBack,
// which re-injects a token's textual form in reverse character order.
func (s *PushbackStream) PushBackString(str string) {
	runes := []rune(str)
	for i := len(runes) - 1; i >= 0; i-- {
		s.PushBack(runes[i])
	}
}

// Position returns the stream's current (line, column), matching the
// coordinates that will be stamped on the next token produced.
func (s *PushbackStream) Position() token.Position {
	return token.Position{Line: s.line, Column: s.col}
}

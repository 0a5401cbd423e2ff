package lexer

import (
	"testing"

	"github.com/valley-lang/valleyc/token"
)

func TestPushbackStreamRoundTrip(t *testing.T) {
	s := NewPushbackStream("ab")
	ch, ok := s.Next()
	if !ok || ch != 'a' {
		t.Fatalf("Next() = %q, %v, want 'a', true", ch, ok)
	}
	s.PushBack(ch)
	ch2, ok := s.Next()
	if !ok || ch2 != 'a' {
		t.Fatalf("Next() after PushBack = %q, %v, want 'a', true", ch2, ok)
	}
	ch3, ok := s.Next()
	if !ok || ch3 != 'b' {
		t.Fatalf("Next() = %q, %v, want 'b', true", ch3, ok)
	}
	if _, ok := s.Next(); ok {
		t.Fatalf("Next() at EOF should return ok=false")
	}
}

func TestPushbackStreamLineColumn(t *testing.T) {
	s := NewPushbackStream("ab\ncd")
	for i := 0; i < 3; i++ {
		s.Next()
	}
	pos := s.Position()
	if pos.Line != 1 || pos.Column != 0 {
		t.Fatalf("Position() after newline = %+v, want line 1 col 0", pos)
	}
}

func tokenizeAll(t *testing.T, src string) []token.Token {
	t.Helper()
	tz := NewTokenizer(NewPushbackStream(src))
	var toks []token.Token
	for {
		tok, err := tz.Next()
		if err != nil {
			t.Fatalf("tokenizer error: %v", err)
		}
		if tok.IsEOF() {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestMaximalMunchOperators(t *testing.T) {
	cases := []struct {
		src  string
		want []token.Reserved
	}{
		{"<", []token.Reserved{token.ANGLE_L}},
		{"<=", []token.Reserved{token.ANGLE_L_EQUAL}},
		{"<<", []token.Reserved{token.D_ANGLE_L}},
		{"<<=", []token.Reserved{token.D_ANGLE_L_EQUAL}},
		{"<<=<", []token.Reserved{token.D_ANGLE_L_EQUAL, token.ANGLE_L}},
		{"...", []token.Reserved{token.ELLIPSIS}},
		{"++", []token.Reserved{token.D_PLUS}},
		{"+++", []token.Reserved{token.D_PLUS, token.PLUS}},
	}
	for _, c := range cases {
		toks := tokenizeAll(t, c.src)
		if len(toks) != len(c.want) {
			t.Fatalf("tokenize(%q) = %d tokens, want %d", c.src, len(toks), len(c.want))
		}
		for i, tok := range toks {
			if tok.Reserved != c.want[i] {
				t.Errorf("tokenize(%q)[%d] = %v, want %v", c.src, i, tok.Reserved, c.want[i])
			}
		}
	}
}

func TestElifRewritesToElseIf(t *testing.T) {
	toks := tokenizeAll(t, "elif")
	if len(toks) != 2 {
		t.Fatalf("tokenize(\"elif\") produced %d tokens, want 2 (else, if)", len(toks))
	}
	if !toks[0].Has(token.KW_ELSE) {
		t.Errorf("first token = %v, want KW_ELSE", toks[0])
	}
	if !toks[1].Has(token.KW_IF) {
		t.Errorf("second token = %v, want KW_IF", toks[1])
	}
}

func TestIdentifiersAndKeywords(t *testing.T) {
	toks := tokenizeAll(t, "while foo")
	if len(toks) != 2 {
		t.Fatalf("got %d tokens, want 2", len(toks))
	}
	if !toks[0].Has(token.KW_WHILE) {
		t.Errorf("toks[0] = %v, want KW_WHILE", toks[0])
	}
	if !toks[1].IsIdent() || toks[1].Ident != "foo" {
		t.Errorf("toks[1] = %v, want identifier foo", toks[1])
	}
}

func TestTrueFalseNullAreIdentifiers(t *testing.T) {
	toks := tokenizeAll(t, "true false null")
	for _, tok := range toks {
		if !tok.IsIdent() {
			t.Errorf("token %v should be a plain identifier", tok)
		}
	}
}

func TestNumberSuffixes(t *testing.T) {
	toks := tokenizeAll(t, "5b 5s 5 5l 5.0f 5.0d")
	want := []token.Kind{token.KindByte, token.KindShort, token.KindInt, token.KindLong, token.KindFloat, token.KindDouble}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, tok := range toks {
		if tok.Kind != want[i] {
			t.Errorf("toks[%d].Kind = %v, want %v", i, tok.Kind, want[i])
		}
	}
}

func TestByteOverflowIsRangeError(t *testing.T) {
	tz := NewTokenizer(NewPushbackStream("999b"))
	_, err := tz.Next()
	if err == nil {
		t.Fatalf("expected a range error for byte overflow")
	}
}

func TestStringEscapes(t *testing.T) {
	toks := tokenizeAll(t, `"a\nb"`)
	if len(toks) != 1 || toks[0].Kind != token.KindString {
		t.Fatalf("got %v, want one string token", toks)
	}
	if toks[0].Str != "a\nb" {
		t.Errorf("Str = %q, want %q", toks[0].Str, "a\nb")
	}
}

func TestUnterminatedStringIsError(t *testing.T) {
	tz := NewTokenizer(NewPushbackStream(`"abc`))
	_, err := tz.Next()
	if err == nil {
		t.Fatalf("expected an unterminated-string error")
	}
}

func TestLineAndBlockComments(t *testing.T) {
	toks := tokenizeAll(t, "1 // comment\n2 /* block */ 3")
	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3", len(toks))
	}
}

func TestTokenIteratorStepBack(t *testing.T) {
	it := NewTokenIterator(NewPushbackStream("foo bar"))
	first := it.Current()
	it.StepBack()
	replayed := it.Current()
	if replayed.Kind != first.Kind || replayed.String() != first.String() {
		t.Fatalf("StepBack did not replay the same token: got %v, want %v", replayed, first)
	}
	it.Advance()
	second := it.Current()
	if !second.IsIdent() || second.Ident != "bar" {
		t.Fatalf("token after replay = %v, want identifier bar", second)
	}
}

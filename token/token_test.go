package token

import "testing"

func TestReprRoundTrip(t *testing.T) {
	for _, r := range []Reserved{PLUS, D_PLUS, PLUS_EQUAL, D_ANGLE_L_EQUAL, ELLIPSIS, ARROW_R, KW_WHILE, TYPE_DOUBLE} {
		text := Repr(r)
		if text == "" {
			t.Fatalf("Repr(%d) is empty", r)
		}
	}
}

func TestKeywordsTableHasNoOperators(t *testing.T) {
	if _, ok := Keywords["+"]; ok {
		t.Fatalf("Keywords table should not contain operator glyphs")
	}
	if r, ok := Keywords["while"]; !ok || r != KW_WHILE {
		t.Fatalf("Keywords[\"while\"] = %v, %v, want KW_WHILE, true", r, ok)
	}
}

func TestTokenString(t *testing.T) {
	cases := []struct {
		tok  Token
		want string
	}{
		{Token{Kind: KindInt, Int: 42}, "42"},
		{Token{Kind: KindBool, Bool: true}, "true"},
		{Token{Kind: KindIdent, Ident: "x"}, "x"},
		{Token{Kind: KindReserved, Reserved: PLUS}, "+"},
	}
	for _, c := range cases {
		if got := c.tok.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

package compileerrors

import (
	"bytes"
	"strings"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := SyntaxError(4, 2, "encountered unexpected '%s' while parsing.", "}")
	want := "SyntaxError (line 5): encountered unexpected '}' while parsing."
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestUnexpectedHelper(t *testing.T) {
	err := Unexpected(0, 0, ";")
	if !strings.Contains(err.Message, "unexpected ';'") {
		t.Fatalf("message = %q, want it to mention unexpected ';'", err.Message)
	}
}

func TestFormatCaretUnderline(t *testing.T) {
	err := SyntaxError(0, 3, "bad token.")
	var buf bytes.Buffer
	if err := err.Format(&buf, strings.NewReader("1 + ;"), false); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Format produced %d lines, want 3", len(lines))
	}
	if lines[2] != "   ^" {
		t.Fatalf("underline = %q, want %q", lines[2], "   ^")
	}
}

func TestFormatTildeUnderlineForLength(t *testing.T) {
	err := SyntaxError(0, 0, "bad span.").WithLength(3)
	var buf bytes.Buffer
	if err := err.Format(&buf, strings.NewReader("abc"), false); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[2] != "~~~" {
		t.Fatalf("underline = %q, want %q", lines[2], "~~~")
	}
}

// Package compileerrors defines the structured error kinds raised by the
// lexer and parser, grounded on the original Valley compiler's
// errors.hpp/errors.cpp.
package compileerrors

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Kind names the class of failure, mirroring the reference compiler's
// Error subclasses.
type Kind string

const (
	KindSyntaxError   Kind = "SyntaxError"
	KindSemanticError Kind = "SemanticError"
	KindTypeError     Kind = "TypeError"
	KindCompileError  Kind = "CompileError"
	KindRuntimeError  Kind = "RuntimeError"
)

// Error is the single structured error type raised anywhere in the front
// end: a kind, a human message, a zero-based (line, column), and an
// optional underline length for multi-character spans.
type Error struct {
	Kind    Kind
	Message string
	Line    int
	Column  int
	Length  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (line %d): %s", e.Kind, e.Line+1, e.Message)
}

func newError(kind Kind, line, column int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Line: line, Column: column}
}

func SyntaxError(line, column int, format string, args ...interface{}) *Error {
	return newError(KindSyntaxError, line, column, format, args...)
}

func SemanticError(line, column int, format string, args ...interface{}) *Error {
	return newError(KindSemanticError, line, column, format, args...)
}

func TypeError(line, column int, format string, args ...interface{}) *Error {
	return newError(KindTypeError, line, column, format, args...)
}

func CompileError(line, column int, format string, args ...interface{}) *Error {
	return newError(KindCompileError, line, column, format, args...)
}

func RuntimeError(line, column int, format string, args ...interface{}) *Error {
	return newError(KindRuntimeError, line, column, format, args...)
}

// Unexpected wraps the common "encountered unexpected 'X' while parsing."
// SyntaxError, matching the reference compiler's SyntaxError_unexpected.
func Unexpected(line, column int, text string) *Error {
	return SyntaxError(line, column, "encountered unexpected '%s' while parsing.", text)
}

// WithLength returns a copy of e carrying an underline span of n characters
// instead of a single caret.
func (e *Error) WithLength(n int) *Error {
	dup := *e
	dup.Length = n
	return &dup
}

// Format renders e the way the reference compiler's Error::format does:
// the message line, then the offending source line, then a caret (no
// Length) or a run of tildes (Length > 0) under the column. When useColor
// is true the header is colored red, matching lib/compiler/utils.go's
// posError.
func (e *Error) Format(w io.Writer, source io.Reader, useColor bool) error {
	header := e.Error()
	if useColor {
		header = color.RedString("%s", header)
	}
	fmt.Fprintln(w, header)

	line, ok := sourceLine(source, e.Line)
	if !ok {
		return nil
	}
	fmt.Fprintln(w, line)

	underline := strings.Repeat(" ", e.Column)
	if e.Length > 0 {
		underline += strings.Repeat("~", e.Length)
	} else {
		underline += "^"
	}
	fmt.Fprintln(w, underline)
	return nil
}

func sourceLine(r io.Reader, n int) (string, bool) {
	scanner := bufio.NewScanner(r)
	for i := 0; scanner.Scan(); i++ {
		if i == n {
			return scanner.Text(), true
		}
	}
	return "", false
}

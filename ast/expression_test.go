package ast

import (
	"testing"

	"github.com/valley-lang/valleyc/compileerrors"
	"github.com/valley-lang/valleyc/token"
	"github.com/valley-lang/valleyc/types"
)

func pos() token.Position { return token.Position{Line: 1, Column: 1} }

func ident(name string, t *types.Type, lvalue bool) *Expression {
	return NewIdentifier(name, pos(), t, lvalue)
}

func TestArrayLiteralUnifiesAgainstLastElement(t *testing.T) {
	reg := types.NewRegistry()
	intLit := &Expression{Op: OpLiteral, Type: reg.Int(), Pos: pos()}
	dblLit := &Expression{Op: OpLiteral, Type: reg.Double(), Pos: pos()}
	lit, err := NewArrayLiteral([]*Expression{intLit, dblLit}, pos(), reg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lit.Type.Elem().Equals(reg.Double()) {
		t.Fatalf("element type = %v, want double (widened to the last element)", types.Repr(lit.Type.Elem()))
	}
}

func TestArrayLiteralRejectsElementNotConvertibleToLast(t *testing.T) {
	reg := types.NewRegistry()
	strLit := &Expression{Op: OpLiteral, Type: reg.Str(), Pos: pos()}
	intLit := &Expression{Op: OpLiteral, Type: reg.Int(), Pos: pos()}
	// the last element is int; an earlier str element cannot convert to it,
	// even though the reverse (int -> str) would succeed.
	if _, err := NewArrayLiteral([]*Expression{strLit, intLit}, pos(), reg, nil); err == nil {
		t.Fatalf("expected a TypeError: str does not convert to int")
	}
}

func TestSubscriptInheritsArrayLvalueness(t *testing.T) {
	reg := types.NewRegistry()
	idx := &Expression{Op: OpLiteral, Type: reg.Int(), Pos: pos()}

	finalArr := ident("a", reg.Array(reg.Int()), false)
	sub, err := NewSubscript(finalArr, idx, pos(), reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Lvalue {
		t.Fatalf("indexing a final array must not be an lvalue")
	}

	mutArr := ident("b", reg.Array(reg.Int()), true)
	sub2, err := NewSubscript(mutArr, idx, pos(), reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sub2.Lvalue {
		t.Fatalf("indexing a non-final array must be an lvalue")
	}
}

func TestSubscriptOfStringIsNeverLvalue(t *testing.T) {
	reg := types.NewRegistry()
	idx := &Expression{Op: OpLiteral, Type: reg.Int(), Pos: pos()}
	s := ident("s", reg.Str(), true)
	sub, err := NewSubscript(s, idx, pos(), reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Lvalue {
		t.Fatalf("a string subscript is never an lvalue, even when the string itself is mutable")
	}
	if !sub.Type.Equals(reg.Char()) {
		t.Fatalf("type = %v, want char", types.Repr(sub.Type))
	}
}

func TestEqualityNeverFails(t *testing.T) {
	reg := types.NewRegistry()
	left := &Expression{Op: OpLiteral, Type: reg.Str(), Pos: pos()}
	right := &Expression{Op: OpLiteral, Type: reg.Int(), Pos: pos()}
	if _, err := NewBinary(OpEq, left, right, pos(), reg); err != nil {
		t.Fatalf("== between unrelated types must never fail: %v", err)
	}
}

func TestLessThanRejectsNonNumeric(t *testing.T) {
	reg := types.NewRegistry()
	left := &Expression{Op: OpLiteral, Type: reg.Str(), Pos: pos()}
	right := &Expression{Op: OpLiteral, Type: reg.Int(), Pos: pos()}
	if _, err := NewBinary(OpLt, left, right, pos(), reg); err == nil {
		t.Fatalf("'<' requires numeric operands, unlike '=='")
	}
}

func TestBitwiseAssignRejectsFloat(t *testing.T) {
	reg := types.NewRegistry()
	left := ident("x", reg.Double(), true)
	right := &Expression{Op: OpLiteral, Type: reg.Int(), Pos: pos()}
	if _, err := NewBinary(OpAndAssign, left, right, pos(), reg); err == nil {
		t.Fatalf("'&=' on a double left-hand side should fail: only convertible-to-long operands are allowed")
	}
}

func TestCompoundArithmeticAssignAcceptsFloat(t *testing.T) {
	reg := types.NewRegistry()
	left := ident("x", reg.Double(), true)
	right := &Expression{Op: OpLiteral, Type: reg.Int(), Pos: pos()}
	result, err := NewBinary(OpAddAssign, left, right, pos(), reg)
	if err != nil {
		t.Fatalf("'+=' on double should be fine: %v", err)
	}
	if !result.Lvalue {
		t.Fatalf("an assignment result must be an lvalue")
	}
}

func TestAssignmentResultIsLvalue(t *testing.T) {
	reg := types.NewRegistry()
	left := ident("x", reg.Int(), true)
	right := &Expression{Op: OpLiteral, Type: reg.Int(), Pos: pos()}
	result, err := NewBinary(OpAssign, left, right, pos(), reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Lvalue {
		t.Fatalf("'=' result must be an lvalue")
	}
}

func TestCallOnNonFunctionIsSemanticError(t *testing.T) {
	reg := types.NewRegistry()
	callee := ident("x", reg.Int(), false)
	_, err := NewCall(callee, nil, pos())
	if err == nil {
		t.Fatalf("calling a non-function should fail")
	}
	ce, ok := err.(*compileerrors.Error)
	if !ok {
		t.Fatalf("error should be a *compileerrors.Error, got %T", err)
	}
	if ce.Kind != compileerrors.KindSemanticError {
		t.Fatalf("Kind = %v, want KindSemanticError", ce.Kind)
	}
}

func TestCommaYieldsRightOperandTypeAndLvalue(t *testing.T) {
	reg := types.NewRegistry()
	left := &Expression{Op: OpLiteral, Type: reg.Int(), Pos: pos()}
	right := ident("y", reg.Str(), true)
	result, err := NewBinary(OpComma, left, right, pos(), reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Type.Equals(reg.Str()) {
		t.Fatalf("comma result type = %v, want str", types.Repr(result.Type))
	}
	if !result.Lvalue {
		t.Fatalf("comma result should inherit the right operand's lvalue-ness")
	}
}

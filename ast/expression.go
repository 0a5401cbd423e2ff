// Package ast defines the typed expression and statement trees produced by
// package parser. Expression construction performs the same type-inference
// and implicit-conversion checks the original compiler's expression.cpp
// performs inside the Expression constructor; by the time a node exists it
// already carries its resolved Type and lvalue-ness.
package ast

import (
	"fmt"
	"strings"

	"github.com/valley-lang/valleyc/compileerrors"
	"github.com/valley-lang/valleyc/token"
	"github.com/valley-lang/valleyc/types"
)

// Operation tags every expression node shape, grounded on expression.cpp's
// Operation enum.
type Operation int

const (
	OpLiteral Operation = iota
	OpIdentifier
	OpCall
	OpSubscript
	OpArrayLiteral

	OpPostIncrement
	OpPostDecrement
	OpPreIncrement
	OpPreDecrement
	OpUnaryPlus
	OpUnaryMinus
	OpLogicalNot
	OpBitwiseNot

	OpPow
	OpMul
	OpDiv
	OpMod
	OpAdd
	OpSub
	OpShl
	OpShr
	OpLt
	OpGt
	OpLe
	OpGe
	OpEq
	OpNe
	OpBitwiseAnd
	OpBitwiseXor
	OpBitwiseOr
	OpLogicalAnd
	OpLogicalXor
	OpLogicalOr
	OpTernary

	OpAssign
	OpAddAssign
	OpSubAssign
	OpMulAssign
	OpDivAssign
	OpModAssign
	OpPowAssign
	OpAndAssign
	OpOrAssign
	OpXorAssign
	OpShlAssign
	OpShrAssign

	OpComma
)

var opText = map[Operation]string{
	OpPow: "**", OpMul: "*", OpDiv: "/", OpMod: "%", OpAdd: "+", OpSub: "-",
	OpShl: "<<", OpShr: ">>", OpLt: "<", OpGt: ">", OpLe: "<=", OpGe: ">=",
	OpEq: "==", OpNe: "!=", OpBitwiseAnd: "&", OpBitwiseXor: "^", OpBitwiseOr: "|",
	OpLogicalAnd: "&&", OpLogicalXor: "^^", OpLogicalOr: "||",
	OpAssign: "=", OpAddAssign: "+=", OpSubAssign: "-=", OpMulAssign: "*=",
	OpDivAssign: "/=", OpModAssign: "%=", OpPowAssign: "**=", OpAndAssign: "&=",
	OpOrAssign: "|=", OpXorAssign: "^=", OpShlAssign: "<<=", OpShrAssign: ">>=",
	OpUnaryPlus: "+", OpUnaryMinus: "-", OpLogicalNot: "!", OpBitwiseNot: "~",
	OpPreIncrement: "++", OpPreDecrement: "--", OpPostIncrement: "++", OpPostDecrement: "--",
	OpComma: ",",
}

// IsAssignment reports whether op is one of the "=" family that requires
// its left operand to be an lvalue.
func IsAssignment(op Operation) bool {
	switch op {
	case OpAssign, OpAddAssign, OpSubAssign, OpMulAssign, OpDivAssign, OpModAssign,
		OpPowAssign, OpAndAssign, OpOrAssign, OpXorAssign, OpShlAssign, OpShrAssign:
		return true
	default:
		return false
	}
}

// Expression is one node of the typed expression tree. It is immutable once
// constructed: New* functions run the same checks the reference compiler's
// Expression constructor runs, and return a *compileerrors.Error instead of
// a node when a check fails.
type Expression struct {
	Op       Operation
	Children []*Expression
	Type     *types.Type
	Lvalue   bool
	Pos      token.Position

	// literal payload, valid when Op == OpLiteral
	Ident   string // identifier name, valid when Op == OpIdentifier
	LitKind token.Kind
	LitTok  token.Token
}

func numericConstraint(t *types.Type) bool { return types.IsNumeric(t) }

// numericTargets enumerates, per source primitive, every primitive it widens
// to. This is NOT a total order: bool, byte and char all widen into the same
// set, which includes byte and char themselves (byte -> char and
// char -> byte are both legal), so the chain can't be modeled as a single
// rank comparison. Grounded on expression.cpp:27-34's per-source isConvertible
// branches.
var numericTargets = map[types.Primitive]map[types.Primitive]bool{
	types.Bool:   widenSet(types.Byte, types.Short, types.Int, types.Long, types.Float, types.Double, types.Char),
	types.Byte:   widenSet(types.Byte, types.Short, types.Int, types.Long, types.Float, types.Double, types.Char),
	types.Char:   widenSet(types.Byte, types.Short, types.Int, types.Long, types.Float, types.Double, types.Char),
	types.Short:  widenSet(types.Short, types.Int, types.Long, types.Float, types.Double),
	types.Int:    widenSet(types.Int, types.Long, types.Float, types.Double),
	types.Long:   widenSet(types.Long, types.Float, types.Double),
	types.Float:  widenSet(types.Float, types.Double),
	types.Double: widenSet(types.Double),
}

func widenSet(ps ...types.Primitive) map[types.Primitive]bool {
	set := make(map[types.Primitive]bool, len(ps))
	for _, p := range ps {
		set[p] = true
	}
	return set
}

// isConvertible mirrors expression.cpp's isConvertible predicate: identity
// or a void target always succeeds, any target is any/bool universally,
// arrays recurse on their inner type propagating the lvalue flag, the
// numeric/char/bool widening chain follows numericTargets, and everything
// else falls back to "convertible to str".
func isConvertible(from *types.Type, fromLvalue bool, to *types.Type) bool {
	if from.Equals(to) {
		return true
	}
	if to.IsPrimitive() && to.Primitive() == types.Void {
		return true
	}
	if to.IsPrimitive() && (to.Primitive() == types.Any || to.Primitive() == types.Bool) {
		return true
	}
	if from.IsArray() && to.IsArray() {
		return isConvertible(from.Elem(), fromLvalue, to.Elem())
	}
	if numericConstraint(from) && numericConstraint(to) {
		return numericTargets[from.Primitive()][to.Primitive()]
	}
	// everything converts to str as a last resort.
	if to.IsPrimitive() && to.Primitive() == types.Str {
		return true
	}
	return false
}

// checkConversion raises a TypeError (wrong shape) or SemanticError (right
// shape, wrong lvalue-ness) the way the reference compiler's
// checkConversion does, and is used by the parser whenever an expression is
// required to match a target type — e.g. a declaration's initializer, or a
// function argument against its parameter type.
func checkConversion(pos token.Position, from *types.Type, fromLvalue bool, to *types.Type, needLvalue bool) error {
	if !isConvertible(from, fromLvalue, to) {
		return compileerrors.TypeError(pos.Line, pos.Column,
			"value of type '%s' cannot be converted to '%s'.", types.Repr(from), types.Repr(to))
	}
	if needLvalue && !fromLvalue {
		return compileerrors.SemanticError(pos.Line, pos.Column, "cannot be assigned to.")
	}
	return nil
}

// CheckConversion exposes checkConversion to package parser.
func CheckConversion(pos token.Position, from *types.Type, fromLvalue bool, to *types.Type, needLvalue bool) error {
	return checkConversion(pos, from, fromLvalue, to, needLvalue)
}

// NewLiteral builds a literal node; its type and lvalue-ness are fixed by
// the token kind.
func NewLiteral(tok token.Token, reg *types.Registry) *Expression {
	e := &Expression{Op: OpLiteral, Pos: tok.Pos, LitKind: tok.Kind, LitTok: tok}
	switch tok.Kind {
	case token.KindByte:
		e.Type = reg.Byte()
	case token.KindShort:
		e.Type = reg.Short()
	case token.KindInt:
		e.Type = reg.Int()
	case token.KindLong:
		e.Type = reg.Long()
	case token.KindFloat:
		e.Type = reg.Float()
	case token.KindDouble:
		e.Type = reg.Double()
	case token.KindBool:
		e.Type = reg.Bool()
	case token.KindChar:
		e.Type = reg.Char()
	case token.KindString:
		e.Type = reg.Str()
	case token.KindVoid:
		e.Type = reg.Void()
	}
	return e
}

// NewIdentifier builds an identifier reference node with the type resolved
// by the caller's scope lookup (package parser owns the context.Context
// walk; this constructor just records the result).
func NewIdentifier(name string, pos token.Position, t *types.Type, lvalue bool) *Expression {
	return &Expression{Op: OpIdentifier, Ident: name, Pos: pos, Type: t, Lvalue: lvalue}
}

// NewUnary builds a prefix/postfix unary node, inferring its type the way
// expression.cpp's big switch does per Operation: arithmetic unary ops
// require a numeric operand and produce that operand's type; logical not
// requires (and converts to) bool; bitwise not requires an integral type;
// increment/decrement require and preserve an lvalue numeric operand.
func NewUnary(op Operation, operand *Expression, pos token.Position, reg *types.Registry) (*Expression, error) {
	switch op {
	case OpUnaryPlus, OpUnaryMinus:
		if !types.IsNumeric(operand.Type) {
			return nil, compileerrors.TypeError(pos.Line, pos.Column,
				"unary '%s' requires a numeric operand, got '%s'.", opText[op], types.Repr(operand.Type))
		}
		return &Expression{Op: op, Children: []*Expression{operand}, Pos: pos, Type: operand.Type}, nil
	case OpLogicalNot:
		if err := checkConversion(pos, operand.Type, operand.Lvalue, reg.Bool(), false); err != nil {
			return nil, err
		}
		return &Expression{Op: op, Children: []*Expression{operand}, Pos: pos, Type: reg.Bool()}, nil
	case OpBitwiseNot:
		if !isIntegral(operand.Type) {
			return nil, compileerrors.TypeError(pos.Line, pos.Column,
				"bitwise '~' requires an integral operand, got '%s'.", types.Repr(operand.Type))
		}
		return &Expression{Op: op, Children: []*Expression{operand}, Pos: pos, Type: operand.Type}, nil
	case OpPreIncrement, OpPreDecrement, OpPostIncrement, OpPostDecrement:
		if !types.IsNumeric(operand.Type) {
			return nil, compileerrors.TypeError(pos.Line, pos.Column,
				"'%s' requires a numeric operand, got '%s'.", opText[op], types.Repr(operand.Type))
		}
		if !operand.Lvalue {
			return nil, compileerrors.SemanticError(pos.Line, pos.Column, "cannot be assigned to.")
		}
		return &Expression{Op: op, Children: []*Expression{operand}, Pos: pos, Type: operand.Type, Lvalue: op == OpPreIncrement || op == OpPreDecrement}, nil
	default:
		return nil, fmt.Errorf("NewUnary: not a unary operation: %d", op)
	}
}

// isBitwiseAssign reports whether op is one of the compound bitwise/shift
// assignments, which the reference compiler checks against longHandle
// (excluding float/double) rather than doubleHandle.
func isBitwiseAssign(op Operation) bool {
	switch op {
	case OpAndAssign, OpOrAssign, OpXorAssign, OpShlAssign, OpShrAssign:
		return true
	default:
		return false
	}
}

// isIntegral reports whether t is convertible to long: every numeric type
// except float and double.
func isIntegral(t *types.Type) bool {
	return types.IsNumeric(t) && t.Primitive() != types.Float && t.Primitive() != types.Double
}

// NewBinary builds a binary arithmetic/relational/logical/assignment node.
// Arithmetic and relational operators widen both operands to
// maxNumericPrecision; logical operators require and convert both operands
// to bool; assignment operators require the left operand to be an lvalue
// and the right operand convertible to its type, producing the left
// operand's type as an lvalue result, matching the original compiler's
// SET/SET_ADD/... cases, which all leave _lvalue = true.
func NewBinary(op Operation, left, right *Expression, pos token.Position, reg *types.Registry) (*Expression, error) {
	switch {
	case op == OpComma:
		// comma discards the left operand entirely: no conversion check runs
		// against it, and the result is simply the right operand's (type,lvalue).
		return &Expression{Op: op, Children: []*Expression{left, right}, Pos: pos, Type: right.Type, Lvalue: right.Lvalue}, nil

	case IsAssignment(op):
		if !left.Lvalue {
			return nil, compileerrors.SemanticError(pos.Line, pos.Column, "cannot be assigned to.")
		}
		switch {
		case op == OpAssign:
			if err := checkConversion(pos, right.Type, right.Lvalue, left.Type, false); err != nil {
				return nil, err
			}
		case isBitwiseAssign(op):
			if !isIntegral(left.Type) || !isIntegral(right.Type) {
				return nil, compileerrors.TypeError(pos.Line, pos.Column,
					"operator '%s' requires operands convertible to 'long'.", opText[op])
			}
		default: // compound arithmetic: += -= *= /= %= **=
			if !types.IsNumeric(left.Type) || !types.IsNumeric(right.Type) {
				return nil, compileerrors.TypeError(pos.Line, pos.Column,
					"operator '%s' requires numeric operands.", opText[op])
			}
		}
		return &Expression{Op: op, Children: []*Expression{left, right}, Pos: pos, Type: left.Type, Lvalue: true}, nil

	case op == OpLogicalAnd || op == OpLogicalOr || op == OpLogicalXor:
		if err := checkConversion(pos, left.Type, left.Lvalue, reg.Bool(), false); err != nil {
			return nil, err
		}
		if err := checkConversion(pos, right.Type, right.Lvalue, reg.Bool(), false); err != nil {
			return nil, err
		}
		return &Expression{Op: op, Children: []*Expression{left, right}, Pos: pos, Type: reg.Bool()}, nil

	case op == OpEq || op == OpNe:
		// equality is universal: any pair of operands compares, matching
		// the reference compiler's EQ/NEQ case, which runs no conversion
		// check at all before producing bool.
		return &Expression{Op: op, Children: []*Expression{left, right}, Pos: pos, Type: reg.Bool()}, nil

	case op == OpLt || op == OpGt || op == OpLe || op == OpGe:
		if !types.IsNumeric(left.Type) || !types.IsNumeric(right.Type) {
			return nil, compileerrors.TypeError(pos.Line, pos.Column,
				"cannot compare '%s' with '%s'.", types.Repr(left.Type), types.Repr(right.Type))
		}
		return &Expression{Op: op, Children: []*Expression{left, right}, Pos: pos, Type: reg.Bool()}, nil

	case op == OpBitwiseAnd || op == OpBitwiseOr || op == OpBitwiseXor || op == OpShl || op == OpShr:
		if !isIntegral(left.Type) || !isIntegral(right.Type) {
			return nil, compileerrors.TypeError(pos.Line, pos.Column,
				"operator '%s' requires operands convertible to 'long', got '%s' and '%s'.",
				opText[op], types.Repr(left.Type), types.Repr(right.Type))
		}
		return &Expression{Op: op, Children: []*Expression{left, right}, Pos: pos, Type: types.MaxNumericPrecision(left.Type, right.Type)}, nil

	default: // arithmetic: + - * / % **
		if !types.IsNumeric(left.Type) || !types.IsNumeric(right.Type) {
			return nil, compileerrors.TypeError(pos.Line, pos.Column,
				"operator '%s' requires numeric operands, got '%s' and '%s'.",
				opText[op], types.Repr(left.Type), types.Repr(right.Type))
		}
		return &Expression{Op: op, Children: []*Expression{left, right}, Pos: pos, Type: types.MaxNumericPrecision(left.Type, right.Type)}, nil
	}
}

// NewTernary builds a `cond ? a : b` node. The condition must convert to
// bool; the branches must share (or widen to) a common type, matching
// the reference compiler's handling of the conditional operator.
func NewTernary(cond, a, b *Expression, pos token.Position, reg *types.Registry) (*Expression, error) {
	if err := checkConversion(pos, cond.Type, cond.Lvalue, reg.Bool(), false); err != nil {
		return nil, err
	}
	result, lvalue := a.Type, a.Lvalue
	if !a.Type.Equals(b.Type) {
		switch {
		case isConvertible(b.Type, b.Lvalue, a.Type):
			result, lvalue = a.Type, a.Lvalue
		case isConvertible(a.Type, a.Lvalue, b.Type):
			result, lvalue = b.Type, b.Lvalue
		default:
			return nil, compileerrors.TypeError(pos.Line, pos.Column,
				"ternary branches of type '%s' and '%s' have no common type.", types.Repr(a.Type), types.Repr(b.Type))
		}
	}
	return &Expression{Op: OpTernary, Children: []*Expression{cond, a, b}, Pos: pos, Type: result, Lvalue: lvalue}, nil
}

// NewCall builds a function-call node. callee must have a func type; each
// argument is checked against the corresponding parameter type, with the
// last parameter type absorbing any surplus arguments when the function is
// variadic.
func NewCall(callee *Expression, args []*Expression, pos token.Position) (*Expression, error) {
	if !callee.Type.IsFunc() {
		return nil, compileerrors.SemanticError(pos.Line, pos.Column,
			"'%s' object is not callable.", types.Repr(callee.Type))
	}
	params := callee.Type.Params()
	variadic := callee.Type.Variadic()
	if !variadic && len(args) != len(params) {
		return nil, compileerrors.SemanticError(pos.Line, pos.Column,
			"expected %d argument(s), got %d.", len(params), len(args))
	}
	if variadic && len(args) < len(params)-1 {
		return nil, compileerrors.SemanticError(pos.Line, pos.Column,
			"expected at least %d argument(s), got %d.", len(params)-1, len(args))
	}
	for i, arg := range args {
		pt := params[len(params)-1]
		if !variadic || i < len(params)-1 {
			pt = params[i]
		} else {
			pt = pt.Elem()
		}
		if err := checkConversion(arg.Pos, arg.Type, arg.Lvalue, pt, false); err != nil {
			return nil, err
		}
	}
	children := append([]*Expression{callee}, args...)
	return &Expression{Op: OpCall, Children: children, Pos: pos, Type: callee.Type.Return()}, nil
}

// NewSubscript builds an `arr[i]` node. If base is an array, the result's
// lvalue-ness is inherited from base's own lvalue-ness (so indexing a final
// array is never assignable, but a non-final one is); if base is `str`, the
// result is a non-lvalue char, since string contents are never assignable.
// Anything else is not subscriptable. This mirrors the reference compiler's
// SUBSCRIPT case exactly, including its asymmetry between the array and
// string branches.
func NewSubscript(base, index *Expression, pos token.Position, reg *types.Registry) (*Expression, error) {
	if base.Type.IsArray() {
		return &Expression{Op: OpSubscript, Children: []*Expression{base, index}, Pos: pos, Type: base.Type.Elem(), Lvalue: base.Lvalue}, nil
	}
	if base.Type.Equals(reg.Str()) {
		return &Expression{Op: OpSubscript, Children: []*Expression{base, index}, Pos: pos, Type: reg.Char(), Lvalue: false}, nil
	}
	return nil, compileerrors.SemanticError(pos.Line, pos.Column,
		"'%s' is not subscriptable.", types.Repr(base.Type))
}

// NewArrayLiteral builds an `[a, b, c]` literal. Every element is unified
// against the LAST element's type rather than the first — the reference
// compiler's intentional asymmetry, kept here rather than smoothed over. An
// empty literal needs an expected type supplied by its context (e.g. a
// declaration's annotation).
func NewArrayLiteral(elems []*Expression, pos token.Position, reg *types.Registry, expected *types.Type) (*Expression, error) {
	if len(elems) == 0 {
		if expected == nil || !expected.IsArray() {
			return nil, compileerrors.SemanticError(pos.Line, pos.Column, "cannot infer the type of an empty array literal.")
		}
		return &Expression{Op: OpArrayLiteral, Pos: pos, Type: expected}, nil
	}
	elemType := elems[len(elems)-1].Type
	for _, e := range elems[:len(elems)-1] {
		if e.Type.Equals(elemType) {
			continue
		}
		if !isConvertible(e.Type, e.Lvalue, elemType) {
			return nil, compileerrors.TypeError(pos.Line, pos.Column,
				"array literal elements of type '%s' and '%s' have no common type.", types.Repr(e.Type), types.Repr(elemType))
		}
	}
	return &Expression{Op: OpArrayLiteral, Children: elems, Pos: pos, Type: reg.Array(elemType)}, nil
}

// String renders a fully parenthesized debug form of the expression tree,
// equivalent to the reference compiler's expressionRepr: identifiers are
// prefixed with '$', binary/unary operators are wrapped in parentheses.
func (e *Expression) String() string {
	switch e.Op {
	case OpLiteral:
		return e.LitTok.String()
	case OpIdentifier:
		return "$" + e.Ident
	case OpCall:
		args := make([]string, len(e.Children)-1)
		for i, c := range e.Children[1:] {
			args[i] = c.String()
		}
		return fmt.Sprintf("%s(%s)", e.Children[0].String(), strings.Join(args, ","))
	case OpSubscript:
		return fmt.Sprintf("%s[%s]", e.Children[0].String(), e.Children[1].String())
	case OpArrayLiteral:
		parts := make([]string, len(e.Children))
		for i, c := range e.Children {
			parts[i] = c.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case OpTernary:
		return fmt.Sprintf("(%s?%s:%s)", e.Children[0].String(), e.Children[1].String(), e.Children[2].String())
	case OpUnaryPlus, OpUnaryMinus, OpLogicalNot, OpBitwiseNot, OpPreIncrement, OpPreDecrement:
		return fmt.Sprintf("(%s%s)", opText[e.Op], e.Children[0].String())
	case OpPostIncrement, OpPostDecrement:
		return fmt.Sprintf("(%s%s)", e.Children[0].String(), opText[e.Op])
	default:
		if len(e.Children) == 2 {
			return fmt.Sprintf("(%s%s%s)", e.Children[0].String(), opText[e.Op], e.Children[1].String())
		}
		return "?"
	}
}

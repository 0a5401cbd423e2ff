// Package parser implements the expression and statement parsers: a
// precedence-climbing/shunting-yard algorithm for expressions that performs
// type inference and conversion checks as it reduces, and a recursive-
// descent parser for statements. Grounded on the original compiler's
// expression_manager.cpp and statement_manager.cpp.
package parser

import (
	"github.com/valley-lang/valleyc/ast"
	"github.com/valley-lang/valleyc/compileerrors"
	"github.com/valley-lang/valleyc/context"
	"github.com/valley-lang/valleyc/lexer"
	"github.com/valley-lang/valleyc/token"
	"github.com/valley-lang/valleyc/types"
)

// associativity names which side a same-precedence chain grows from.
type associativity int

const (
	leftAssoc associativity = iota
	rightAssoc
)

type opInfo struct {
	op    ast.Operation
	prec  int
	assoc associativity
	arity int
}

// binaryOps maps a reserved token to its binary/assignment operator info,
// used while the parser is in "expecting an operator" state. Precedence
// numbers follow expression_manager.cpp's OperatorPrecedence enum from
// loosest (assignment) to tightest (postfix), which this table reproduces
// with assignment at 1 and postfix handled outside the table entirely.
var binaryOps = map[token.Reserved]opInfo{
	token.D_ASTERISK: {ast.OpPow, 14, rightAssoc, 2},
	token.ASTERISK:   {ast.OpMul, 13, leftAssoc, 2},
	token.SLASH:      {ast.OpDiv, 13, leftAssoc, 2},
	token.PERCENT:    {ast.OpMod, 13, leftAssoc, 2},
	token.PLUS:       {ast.OpAdd, 12, leftAssoc, 2},
	token.HYPHEN:     {ast.OpSub, 12, leftAssoc, 2},
	token.D_ANGLE_L:  {ast.OpShl, 11, leftAssoc, 2},
	token.D_ANGLE_R:  {ast.OpShr, 11, leftAssoc, 2},
	token.ANGLE_L:       {ast.OpLt, 10, leftAssoc, 2},
	token.ANGLE_R:       {ast.OpGt, 10, leftAssoc, 2},
	token.ANGLE_L_EQUAL: {ast.OpLe, 10, leftAssoc, 2},
	token.ANGLE_R_EQUAL: {ast.OpGe, 10, leftAssoc, 2},
	token.D_EQUAL:         {ast.OpEq, 9, leftAssoc, 2},
	token.EXCLAMATION_EQUAL: {ast.OpNe, 9, leftAssoc, 2},
	token.AMPERSAND: {ast.OpBitwiseAnd, 8, leftAssoc, 2},
	token.CARET:     {ast.OpBitwiseXor, 7, leftAssoc, 2},
	token.BAR:       {ast.OpBitwiseOr, 6, leftAssoc, 2},
	token.D_AMPERSAND: {ast.OpLogicalAnd, 5, leftAssoc, 2},
	token.D_CARET:     {ast.OpLogicalXor, 4, leftAssoc, 2},
	token.D_BAR:       {ast.OpLogicalOr, 3, leftAssoc, 2},

	token.EQUAL:             {ast.OpAssign, 1, rightAssoc, 2},
	token.PLUS_EQUAL:        {ast.OpAddAssign, 1, rightAssoc, 2},
	token.HYPHEN_EQUAL:      {ast.OpSubAssign, 1, rightAssoc, 2},
	token.ASTERISK_EQUAL:    {ast.OpMulAssign, 1, rightAssoc, 2},
	token.SLASH_EQUAL:       {ast.OpDivAssign, 1, rightAssoc, 2},
	token.PERCENT_EQUAL:     {ast.OpModAssign, 1, rightAssoc, 2},
	token.D_ASTERISK_EQUAL:  {ast.OpPowAssign, 1, rightAssoc, 2},
	token.AMPERSAND_EQUAL:   {ast.OpAndAssign, 1, rightAssoc, 2},
	token.BAR_EQUAL:         {ast.OpOrAssign, 1, rightAssoc, 2},
	token.CARET_EQUAL:       {ast.OpXorAssign, 1, rightAssoc, 2},
	token.D_ANGLE_L_EQUAL:   {ast.OpShlAssign, 1, rightAssoc, 2},
	token.D_ANGLE_R_EQUAL:   {ast.OpShrAssign, 1, rightAssoc, 2},
}

const ternaryPrecedence = 2
const prefixPrecedence = 15
const commaPrecedence = 0

var commaOp = opInfo{ast.OpComma, commaPrecedence, leftAssoc, 2}

// prefixOps maps a reserved token to its prefix operator info, used while
// the parser is in "expecting an operand" state.
var prefixOps = map[token.Reserved]opInfo{
	token.PLUS:        {ast.OpUnaryPlus, prefixPrecedence, rightAssoc, 1},
	token.HYPHEN:      {ast.OpUnaryMinus, prefixPrecedence, rightAssoc, 1},
	token.EXCLAMATION: {ast.OpLogicalNot, prefixPrecedence, rightAssoc, 1},
	token.TILDE:       {ast.OpBitwiseNot, prefixPrecedence, rightAssoc, 1},
	token.D_PLUS:      {ast.OpPreIncrement, prefixPrecedence, rightAssoc, 1},
	token.D_HYPHEN:    {ast.OpPreDecrement, prefixPrecedence, rightAssoc, 1},
}

// isEvaluatedBefore reports whether the operator already on the stack must
// be reduced before newOp can be pushed: strictly looser operators always
// yield, and equally-precedenced operators yield only when newOp is
// left-associative — matching expression_manager.cpp's isEvaluatedBefore.
func isEvaluatedBefore(onStack, newOp opInfo) bool {
	if newOp.assoc == leftAssoc {
		return onStack.prec >= newOp.prec
	}
	return onStack.prec > newOp.prec
}

// opFrame is an entry on the operator stack: the operator plus the source
// position it appeared at, for error reporting.
type opFrame struct {
	opInfo
	pos token.Position
}

// ExprParser drives the shunting-yard loop over a TokenIterator, resolving
// identifiers against ctx and interning types through reg as it goes.
type ExprParser struct {
	it  *lexer.TokenIterator
	ctx *context.Context
	reg *types.Registry
}

func NewExprParser(it *lexer.TokenIterator, ctx *context.Context, reg *types.Registry) *ExprParser {
	return &ExprParser{it: it, ctx: ctx, reg: reg}
}

// ParseExpression parses and type-checks one expression, stopping before
// any token that cannot extend it (a statement terminator, a closing
// bracket belonging to an enclosing construct, and so on). A top-level
// comma is never consumed here: grouping, array-literal elements, call
// arguments and ternary branches all recurse through this method precisely
// because they must forbid it, matching the reference parser's
// generateParseTree(..., allowComma=false, ...).
func (p *ExprParser) ParseExpression() (*ast.Expression, error) {
	return p.parseExpression(false)
}

// ParseTopLevelExpression parses one expression and additionally reduces a
// chain of top-level commas into left-associative ast.OpComma nodes. Used
// wherever the reference statement driver would allow a bare comma
// expression: expression-statements, conditions, return values, for-loop
// clauses and switch subjects.
func (p *ExprParser) ParseTopLevelExpression() (*ast.Expression, error) {
	return p.parseExpression(true)
}

func (p *ExprParser) parseExpression(allowComma bool) (*ast.Expression, error) {
	var operands []*ast.Expression
	var operators []opFrame
	expectingOperand := true

	reduce := func(minPrecExclusive opInfo) error {
		for len(operators) > 0 && isEvaluatedBefore(operators[len(operators)-1].opInfo, minPrecExclusive) {
			top := operators[len(operators)-1]
			operators = operators[:len(operators)-1]
			if len(operands) < top.arity {
				return compileerrors.CompileError(top.pos.Line, top.pos.Column, "operator stack underflow.")
			}
			args := operands[len(operands)-top.arity:]
			operands = operands[:len(operands)-top.arity]
			var node *ast.Expression
			var err error
			if top.arity == 1 {
				node, err = ast.NewUnary(top.op, args[0], top.pos, p.reg)
			} else {
				node, err = ast.NewBinary(top.op, args[0], args[1], top.pos, p.reg)
			}
			if err != nil {
				return err
			}
			operands = append(operands, node)
		}
		return nil
	}

	for {
		tok := p.it.Current()
		if err := p.it.Err(); err != nil {
			return nil, err
		}

		if expectingOperand {
			switch {
			case tok.IsLiteral():
				operands = append(operands, ast.NewLiteral(tok, p.reg))
				p.it.Advance()
				expectingOperand = false

			case tok.IsIdent():
				info, ok := p.ctx.Find(tok.Ident)
				if !ok {
					return nil, compileerrors.SemanticError(tok.Pos.Line, tok.Pos.Column, "undeclared identifier '%s'.", tok.Ident)
				}
				operands = append(operands, ast.NewIdentifier(tok.Ident, tok.Pos, info.Type, !info.Const))
				p.it.Advance()
				expectingOperand = false

			case tok.Has(token.ROUND_L):
				p.it.Advance()
				sub, err := p.ParseExpression()
				if err != nil {
					return nil, err
				}
				if !p.it.Current().Has(token.ROUND_R) {
					return nil, compileerrors.Unexpected(p.it.Current().Pos.Line, p.it.Current().Pos.Column, p.it.Current().String())
				}
				p.it.Advance()
				operands = append(operands, sub)
				expectingOperand = false

			case tok.Has(token.SQUARE_L):
				pos := tok.Pos
				p.it.Advance()
				var elems []*ast.Expression
				for !p.it.Current().Has(token.SQUARE_R) {
					e, err := p.ParseExpression()
					if err != nil {
						return nil, err
					}
					elems = append(elems, e)
					if p.it.Current().Has(token.COMMA) {
						p.it.Advance()
						continue
					}
					break
				}
				if !p.it.Current().Has(token.SQUARE_R) {
					return nil, compileerrors.Unexpected(p.it.Current().Pos.Line, p.it.Current().Pos.Column, p.it.Current().String())
				}
				p.it.Advance()
				lit, err := ast.NewArrayLiteral(elems, pos, p.reg, nil)
				if err != nil {
					return nil, err
				}
				operands = append(operands, lit)
				expectingOperand = false

			case tok.IsReserved() && isPrefixToken(tok.Reserved):
				info := prefixOps[tok.Reserved]
				operators = append(operators, opFrame{info, tok.Pos})
				p.it.Advance()
				// expectingOperand stays true

			default:
				if len(operands) == 0 && len(operators) == 0 {
					return nil, compileerrors.Unexpected(tok.Pos.Line, tok.Pos.Column, tok.String())
				}
				return nil, compileerrors.SyntaxError(tok.Pos.Line, tok.Pos.Column, "expected an operand.")
			}
			continue
		}

		// expecting an operator, a postfix suffix, or the end of the expression.
		switch {
		case tok.Has(token.ROUND_L):
			pos := tok.Pos
			p.it.Advance()
			var args []*ast.Expression
			for !p.it.Current().Has(token.ROUND_R) {
				a, err := p.ParseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.it.Current().Has(token.COMMA) {
					p.it.Advance()
					continue
				}
				break
			}
			if !p.it.Current().Has(token.ROUND_R) {
				return nil, compileerrors.Unexpected(p.it.Current().Pos.Line, p.it.Current().Pos.Column, p.it.Current().String())
			}
			p.it.Advance()
			callee := operands[len(operands)-1]
			operands = operands[:len(operands)-1]
			call, err := ast.NewCall(callee, args, pos)
			if err != nil {
				return nil, err
			}
			operands = append(operands, call)

		case tok.Has(token.SQUARE_L):
			pos := tok.Pos
			p.it.Advance()
			idx, err := p.ParseExpression()
			if err != nil {
				return nil, err
			}
			if !p.it.Current().Has(token.SQUARE_R) {
				return nil, compileerrors.Unexpected(p.it.Current().Pos.Line, p.it.Current().Pos.Column, p.it.Current().String())
			}
			p.it.Advance()
			base := operands[len(operands)-1]
			operands = operands[:len(operands)-1]
			sub, err := ast.NewSubscript(base, idx, pos, p.reg)
			if err != nil {
				return nil, err
			}
			operands = append(operands, sub)

		case tok.Has(token.D_PLUS), tok.Has(token.D_HYPHEN):
			op := ast.OpPostIncrement
			if tok.Reserved == token.D_HYPHEN {
				op = ast.OpPostDecrement
			}
			base := operands[len(operands)-1]
			operands = operands[:len(operands)-1]
			node, err := ast.NewUnary(op, base, tok.Pos, p.reg)
			if err != nil {
				return nil, err
			}
			operands = append(operands, node)
			p.it.Advance()

		case tok.Has(token.QUESTION):
			pos := tok.Pos
			if err := reduce(opInfo{prec: ternaryPrecedence, assoc: rightAssoc}); err != nil {
				return nil, err
			}
			p.it.Advance()
			thenExpr, err := p.ParseExpression()
			if err != nil {
				return nil, err
			}
			if !p.it.Current().Has(token.COLON) {
				return nil, compileerrors.Unexpected(p.it.Current().Pos.Line, p.it.Current().Pos.Column, p.it.Current().String())
			}
			p.it.Advance()
			elseExpr, err := p.ParseExpression()
			if err != nil {
				return nil, err
			}
			cond := operands[len(operands)-1]
			operands = operands[:len(operands)-1]
			node, err := ast.NewTernary(cond, thenExpr, elseExpr, pos, p.reg)
			if err != nil {
				return nil, err
			}
			operands = append(operands, node)

		case tok.IsReserved() && isBinaryToken(tok.Reserved):
			info := binaryOps[tok.Reserved]
			if err := reduce(info); err != nil {
				return nil, err
			}
			operators = append(operators, opFrame{info, tok.Pos})
			p.it.Advance()
			expectingOperand = true

		case allowComma && tok.Has(token.COMMA):
			if err := reduce(commaOp); err != nil {
				return nil, err
			}
			operators = append(operators, opFrame{commaOp, tok.Pos})
			p.it.Advance()
			expectingOperand = true

		default:
			// end of expression: reduce everything remaining and stop.
			if err := reduce(opInfo{prec: -1, assoc: leftAssoc}); err != nil {
				return nil, err
			}
			if len(operands) != 1 {
				return nil, compileerrors.CompileError(tok.Pos.Line, tok.Pos.Column, "malformed expression.")
			}
			return operands[0], nil
		}
	}
}

func isBinaryToken(r token.Reserved) bool {
	_, ok := binaryOps[r]
	return ok
}

func isPrefixToken(r token.Reserved) bool {
	_, ok := prefixOps[r]
	return ok
}

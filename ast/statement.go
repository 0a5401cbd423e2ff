package ast

import (
	"fmt"
	"strings"

	"github.com/valley-lang/valleyc/context"
	"github.com/valley-lang/valleyc/types"
)

// StatementKind tags a Statement's concrete shape, grounded on the
// reference compiler's StatementType enum.
type StatementKind int

const (
	StmtEmpty StatementKind = iota
	StmtExpr
	StmtBlock
	StmtDeclare
	StmtDeclareFunc
	StmtReturn
	StmtBreak
	StmtContinue
	StmtIfElse
	StmtWhile
	StmtDoWhile
	StmtFor
	StmtForEach
	StmtSwitch
	StmtTryCatch
)

// Param describes one declared function parameter.
type Param struct {
	Name     string
	Type     *types.Type
	Variadic bool
}

// SwitchCase is kept as a bare AST shape: its body is intentionally left
// unparsed, matching the Non-goal that excludes switch/case body parsing.
type SwitchCase struct {
	Values []*Expression // label values; parseSwitch does not parse labels, so this is empty for case and default alike
	Pos    int
}

// CatchClause is kept as a bare AST shape for the same reason try/catch
// bodies are out of scope: it records the exception type and bound name a
// catch(...) clause declares, nothing more.
type CatchClause struct {
	ExceptionType *types.Type
	BindName      string
}

// Statement is one node of the statement tree. Parent is a weak,
// non-owning back-pointer to the enclosing statement, for walking upward
// only (the parser itself tracks enclosing loops with a depth counter and
// does not follow it) — it must never be followed to free anything, mirroring the reference compiler's use of
// a raw/weak pointer for the same purpose to avoid a reference cycle with
// the owning parent-to-child edges.
type Statement struct {
	Kind   StatementKind
	Parent *Statement
	Line   int

	// StmtExpr
	Expr *Expression

	// StmtBlock
	Body []*Statement

	// StmtDeclare / StmtDeclareFunc
	Name     string
	DeclType *types.Type
	Const    bool
	Static   bool
	Init     *Expression
	Params   []Param
	Variadic bool
	FuncBody []*Statement // nil means a bodyless (";" terminated) declaration
	Info     *context.Info

	// StmtReturn
	ReturnValue *Expression // nil for a bare "return;"

	// StmtIfElse / StmtWhile / StmtDoWhile / StmtFor
	Cond *Expression
	Then *Statement
	Else *Statement

	// StmtFor
	ForInit *Statement
	ForPost *Expression

	// StmtForEach
	LoopVarName string
	LoopVarType *types.Type
	Collection  *Expression

	// StmtSwitch
	Subject *Expression
	Cases   []SwitchCase

	// StmtTryCatch
	TryBody  *Statement
	Catchers []CatchClause
}

// adopt wires each child's weak Parent pointer to s, the way the parser
// links every nested statement back to its enclosing one as it builds the
// tree bottom-up.
func (s *Statement) adopt(children ...*Statement) *Statement {
	for _, c := range children {
		if c != nil {
			c.Parent = s
		}
	}
	return s
}

func NewBlock(body []*Statement, line int) *Statement {
	s := &Statement{Kind: StmtBlock, Body: body, Line: line}
	return s.adopt(body...)
}

func NewExprStatement(e *Expression, line int) *Statement {
	return &Statement{Kind: StmtExpr, Expr: e, Line: line}
}

func NewEmptyStatement(line int) *Statement {
	return &Statement{Kind: StmtEmpty, Line: line}
}

func NewReturn(value *Expression, line int) *Statement {
	return &Statement{Kind: StmtReturn, ReturnValue: value, Line: line}
}

func NewBreak(line int) *Statement    { return &Statement{Kind: StmtBreak, Line: line} }
func NewContinue(line int) *Statement { return &Statement{Kind: StmtContinue, Line: line} }

func NewDeclare(name string, t *types.Type, isConst, isStatic bool, init *Expression, info *context.Info, line int) *Statement {
	s := &Statement{Kind: StmtDeclare, Name: name, DeclType: t, Const: isConst, Static: isStatic, Init: init, Info: info, Line: line}
	return s
}

func NewDeclareFunc(name string, ret *types.Type, params []Param, variadic bool, body []*Statement, info *context.Info, line int) *Statement {
	fnType := ret
	s := &Statement{Kind: StmtDeclareFunc, Name: name, DeclType: fnType, Params: params, Variadic: variadic, FuncBody: body, Info: info, Line: line}
	return s.adopt(body...)
}

func NewIfElse(cond *Expression, then, els *Statement, line int) *Statement {
	s := &Statement{Kind: StmtIfElse, Cond: cond, Then: then, Else: els, Line: line}
	return s.adopt(then, els)
}

func NewWhile(cond *Expression, body *Statement, line int) *Statement {
	s := &Statement{Kind: StmtWhile, Cond: cond, Then: body, Line: line}
	return s.adopt(body)
}

func NewDoWhile(cond *Expression, body *Statement, line int) *Statement {
	s := &Statement{Kind: StmtDoWhile, Cond: cond, Then: body, Line: line}
	return s.adopt(body)
}

func NewFor(init *Statement, cond *Expression, post *Expression, body *Statement, line int) *Statement {
	s := &Statement{Kind: StmtFor, ForInit: init, Cond: cond, ForPost: post, Then: body, Line: line}
	return s.adopt(init, body)
}

func NewForEach(varName string, varType *types.Type, collection *Expression, body *Statement, line int) *Statement {
	s := &Statement{Kind: StmtForEach, LoopVarName: varName, LoopVarType: varType, Collection: collection, Then: body, Line: line}
	return s.adopt(body)
}

func NewSwitch(subject *Expression, cases []SwitchCase, line int) *Statement {
	return &Statement{Kind: StmtSwitch, Subject: subject, Cases: cases, Line: line}
}

func NewTryCatch(body *Statement, catchers []CatchClause, line int) *Statement {
	s := &Statement{Kind: StmtTryCatch, TryBody: body, Catchers: catchers, Line: line}
	return s.adopt(body)
}

// String renders a debug form of the statement tree, equivalent to the
// reference compiler's Statement::toString.
func (s *Statement) String() string {
	if s == nil {
		return ""
	}
	switch s.Kind {
	case StmtEmpty:
		return ";"
	case StmtExpr:
		return s.Expr.String() + ";"
	case StmtBlock:
		lines := make([]string, len(s.Body))
		for i, c := range s.Body {
			lines[i] = c.String()
		}
		return "{\n" + indent(strings.Join(lines, "\n")) + "\n}"
	case StmtDeclare:
		kw := ""
		if s.Const {
			kw += "final "
		}
		if s.Static {
			kw += "static "
		}
		if s.Init != nil {
			return fmt.Sprintf("%s%s %s = %s;", kw, types.Repr(s.DeclType), s.Name, s.Init.String())
		}
		return fmt.Sprintf("%s%s %s;", kw, types.Repr(s.DeclType), s.Name)
	case StmtDeclareFunc:
		parts := make([]string, len(s.Params))
		for i, p := range s.Params {
			suffix := ""
			if p.Variadic {
				suffix = "..."
			}
			parts[i] = fmt.Sprintf("%s %s%s", types.Repr(p.Type), p.Name, suffix)
		}
		header := fmt.Sprintf("%s %s(%s)", types.Repr(s.DeclType), s.Name, strings.Join(parts, ","))
		if s.FuncBody == nil {
			return header + ";"
		}
		return header + " " + (&Statement{Kind: StmtBlock, Body: s.FuncBody, Line: s.Line}).String()
	case StmtReturn:
		if s.ReturnValue == nil {
			return "return;"
		}
		return "return " + s.ReturnValue.String() + ";"
	case StmtBreak:
		return "break;"
	case StmtContinue:
		return "continue;"
	case StmtIfElse:
		out := fmt.Sprintf("if (%s) %s", s.Cond.String(), s.Then.String())
		if s.Else != nil {
			out += " else " + s.Else.String()
		}
		return out
	case StmtWhile:
		return fmt.Sprintf("while (%s) %s", s.Cond.String(), s.Then.String())
	case StmtDoWhile:
		return fmt.Sprintf("do %s while (%s);", s.Then.String(), s.Cond.String())
	case StmtFor:
		initStr := ""
		if s.ForInit != nil {
			initStr = strings.TrimSuffix(s.ForInit.String(), ";")
		}
		postStr := ""
		if s.ForPost != nil {
			postStr = s.ForPost.String()
		}
		condStr := ""
		if s.Cond != nil {
			condStr = s.Cond.String()
		}
		return fmt.Sprintf("for (%s; %s; %s) %s", initStr, condStr, postStr, s.Then.String())
	case StmtForEach:
		return fmt.Sprintf("for (%s %s : %s) %s", types.Repr(s.LoopVarType), s.LoopVarName, s.Collection.String(), s.Then.String())
	case StmtSwitch:
		return fmt.Sprintf("switch (%s) { ... }", s.Subject.String())
	case StmtTryCatch:
		return fmt.Sprintf("try %s catch (...) { ... }", s.TryBody.String())
	default:
		return "?"
	}
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

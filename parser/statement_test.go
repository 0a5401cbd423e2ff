package parser

import (
	"strings"
	"testing"

	"github.com/valley-lang/valleyc/ast"
	"github.com/valley-lang/valleyc/context"
	"github.com/valley-lang/valleyc/lexer"
	"github.com/valley-lang/valleyc/types"
)

func parseProgram(t *testing.T, src string) ([]*ast.Statement, error) {
	t.Helper()
	reg := types.NewRegistry()
	ctx := context.NewGlobal()
	if _, err := ctx.CreateIdentifier("true", reg.Bool(), true, false); err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.CreateIdentifier("false", reg.Bool(), true, false); err != nil {
		t.Fatal(err)
	}
	it := lexer.NewTokenIterator(lexer.NewPushbackStream(src))
	return NewStmtParser(it, ctx, reg).ParseProgram()
}

func TestParseVariableDeclaration(t *testing.T) {
	prog, err := parseProgram(t, "int x = 5;")
	if err != nil {
		t.Fatal(err)
	}
	if len(prog) != 1 || prog[0].Kind != ast.StmtDeclare {
		t.Fatalf("program = %+v, want one StmtDeclare", prog)
	}
	if prog[0].Name != "x" {
		t.Errorf("Name = %q, want x", prog[0].Name)
	}
}

func TestParseFunctionDeclarationWithBody(t *testing.T) {
	prog, err := parseProgram(t, "int add(int a, int b) { return a+b; }")
	if err != nil {
		t.Fatal(err)
	}
	if len(prog) != 1 || prog[0].Kind != ast.StmtDeclareFunc {
		t.Fatalf("program = %+v, want one StmtDeclareFunc", prog)
	}
	fn := prog[0]
	if len(fn.Params) != 2 || fn.Params[0].Name != "a" || fn.Params[1].Name != "b" {
		t.Fatalf("Params = %+v", fn.Params)
	}
	if len(fn.FuncBody) != 1 || fn.FuncBody[0].Kind != ast.StmtReturn {
		t.Fatalf("FuncBody = %+v, want one return statement", fn.FuncBody)
	}
}

func TestParseVariadicFunction(t *testing.T) {
	prog, err := parseProgram(t, "void f(int first, str... rest) { return; }")
	if err != nil {
		t.Fatal(err)
	}
	fn := prog[0]
	if !fn.Variadic {
		t.Fatalf("Variadic = false, want true")
	}
	if !fn.Params[1].Variadic {
		t.Fatalf("last parameter should be marked Variadic")
	}
}

func TestParseIfElse(t *testing.T) {
	prog, err := parseProgram(t, "void f() { bool b = true; if (b) { return; } else { return; } }")
	if err != nil {
		t.Fatal(err)
	}
	body := prog[0].FuncBody
	ifStmt := body[1]
	if ifStmt.Kind != ast.StmtIfElse || ifStmt.Else == nil {
		t.Fatalf("statement = %+v, want an if/else with both branches", ifStmt)
	}
}

func TestElifDesugarsToNestedIfElse(t *testing.T) {
	prog, err := parseProgram(t, "void f() { bool b = true; if (b) { return; } elif (b) { return; } else { return; } }")
	if err != nil {
		t.Fatal(err)
	}
	ifStmt := prog[0].FuncBody[1]
	if ifStmt.Else == nil || ifStmt.Else.Kind != ast.StmtIfElse {
		t.Fatalf("elif should desugar to an else-if chain, got %+v", ifStmt.Else)
	}
}

func TestParseWhileAndDoWhile(t *testing.T) {
	prog, err := parseProgram(t, "void f() { bool b = true; while (b) { break; } do { continue; } while (b); }")
	if err != nil {
		t.Fatal(err)
	}
	body := prog[0].FuncBody
	if body[1].Kind != ast.StmtWhile {
		t.Fatalf("body[1] = %+v, want StmtWhile", body[1])
	}
	if body[2].Kind != ast.StmtDoWhile {
		t.Fatalf("body[2] = %+v, want StmtDoWhile", body[2])
	}
}

func TestBreakOutsideLoopIsError(t *testing.T) {
	_, err := parseProgram(t, "void f() { break; }")
	if err == nil {
		t.Fatalf("break outside a loop should be an error")
	}
}

func TestParseClassicForLoop(t *testing.T) {
	prog, err := parseProgram(t, "void f() { for (int i = 0; i < 10; i = i + 1) { continue; } }")
	if err != nil {
		t.Fatal(err)
	}
	forStmt := prog[0].FuncBody[0]
	if forStmt.Kind != ast.StmtFor {
		t.Fatalf("statement = %+v, want StmtFor", forStmt)
	}
	if forStmt.ForInit == nil || forStmt.Cond == nil || forStmt.ForPost == nil {
		t.Fatalf("for loop missing a clause: %+v", forStmt)
	}
}

func TestParseForEachLoop(t *testing.T) {
	prog, err := parseProgram(t, "void f(int... xs) { for (int x : xs) { continue; } }")
	if err != nil {
		t.Fatal(err)
	}
	body := prog[0].FuncBody
	if body[0].Kind != ast.StmtForEach {
		t.Fatalf("statement = %+v, want StmtForEach", body[0])
	}
	if body[0].LoopVarName != "x" {
		t.Errorf("LoopVarName = %q, want x", body[0].LoopVarName)
	}
}

func TestParseSwitchSkipsCaseBodies(t *testing.T) {
	prog, err := parseProgram(t, "void f(int x) { switch (x) { case 1: return; default: return; } }")
	if err != nil {
		t.Fatal(err)
	}
	sw := prog[0].FuncBody[0]
	if sw.Kind != ast.StmtSwitch || len(sw.Cases) != 2 {
		t.Fatalf("statement = %+v, want a switch with 2 cases", sw)
	}
}

func TestParseTryCatchSkipsBodies(t *testing.T) {
	prog, err := parseProgram(t, "void f() { try { int x = 1; } catch (any e) { return; } }")
	if err != nil {
		t.Fatal(err)
	}
	tc := prog[0].FuncBody[0]
	if tc.Kind != ast.StmtTryCatch || len(tc.Catchers) != 1 {
		t.Fatalf("statement = %+v, want a try/catch with 1 catcher", tc)
	}
	if tc.Catchers[0].BindName != "e" {
		t.Errorf("BindName = %q, want e", tc.Catchers[0].BindName)
	}
}

func TestReturnValueCheckedAgainstFunctionReturnType(t *testing.T) {
	if _, err := parseProgram(t, `int f() { return "x"; }`); err == nil {
		t.Fatalf("returning a str from an int function should fail")
	}
}

func TestBareReturnRequiresVoidFunction(t *testing.T) {
	if _, err := parseProgram(t, "int f() { return; }"); err == nil {
		t.Fatalf("a bare 'return;' in a non-void function should fail")
	}
}

func TestReturnOutsideFunctionIsError(t *testing.T) {
	if _, err := parseProgram(t, "return;"); err == nil {
		t.Fatalf("'return' at the top level should fail")
	}
}

func TestDuplicateDeclarationRejected(t *testing.T) {
	_, err := parseProgram(t, "int x = 1; int x = 2;")
	if err == nil {
		t.Fatalf("redeclaring a global should fail")
	}
}

func TestProgramASTStringContainsNameAndReturn(t *testing.T) {
	prog, err := parseProgram(t, "int add(int a, int b) { return a+b; }")
	if err != nil {
		t.Fatal(err)
	}
	repr := prog[0].String()
	if !strings.Contains(repr, "return") || !strings.Contains(repr, "add") {
		t.Fatalf("String() = %q, missing expected fragments", repr)
	}
}

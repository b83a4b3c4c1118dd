package parser

import (
	"testing"

	"oxidate/ast"
	"oxidate/lexer"
	"oxidate/token"
)

func parseSource(t *testing.T, src string) ast.Block {
	t.Helper()
	tokens, err := lexer.New(src).Scan()
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	program, parseErrs := New(tokens).Parse()
	if len(parseErrs) > 0 {
		t.Fatalf("unexpected parse errors: %v", parseErrs)
	}
	return program
}

func TestParseLetWithAnnotationAndTrailingExpr(t *testing.T) {
	program := parseSource(t, "let x: int = 10; x")
	if len(program.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(program.Decls))
	}
	let, ok := program.Decls[0].(ast.LetStmt)
	if !ok {
		t.Fatalf("expected LetStmt, got %T", program.Decls[0])
	}
	if let.Name.Lexeme != "x" || let.Type == nil || let.Type.Name != "int" {
		t.Fatalf("unexpected let binding: %+v", let)
	}
	if program.DeclaredSymbols[0] != "x" {
		t.Fatalf("expected DeclaredSymbols to contain x, got %v", program.DeclaredSymbols)
	}
	ident, ok := program.Last.(ast.Identifier)
	if !ok || ident.Name.Lexeme != "x" {
		t.Fatalf("expected trailing identifier x, got %#v", program.Last)
	}
}

func TestParseBinaryPrecedence(t *testing.T) {
	program := parseSource(t, "1 + 2 * 3")
	binary, ok := program.Last.(ast.Binary)
	if !ok {
		t.Fatalf("expected top-level Binary, got %T", program.Last)
	}
	if binary.Operator.TokenType != token.ADD {
		t.Fatalf("expected '+' at the top, got %s", binary.Operator.TokenType)
	}
	right, ok := binary.Right.(ast.Binary)
	if !ok || right.Operator.TokenType != token.MULT {
		t.Fatalf("expected '2 * 3' to bind tighter, got %#v", binary.Right)
	}
}

func TestParseAssignIsRightAssociative(t *testing.T) {
	program := parseSource(t, "let a = 0; let b = 0; a = b = 1;")
	assignStmt, ok := program.Decls[2].(ast.ExpressionStmt)
	if !ok {
		t.Fatalf("expected ExpressionStmt, got %T", program.Decls[2])
	}
	outer, ok := assignStmt.Expression.(ast.Assign)
	if !ok || outer.Name.Lexeme != "a" {
		t.Fatalf("expected outer assign to 'a', got %#v", assignStmt.Expression)
	}
	inner, ok := outer.Value.(ast.Assign)
	if !ok || inner.Name.Lexeme != "b" {
		t.Fatalf("expected nested assign to 'b', got %#v", outer.Value)
	}
}

func TestParseIfElseAsTrailingExpression(t *testing.T) {
	program := parseSource(t, "if true { 1 } else { 2 }")
	ifExpr, ok := program.Last.(ast.If)
	if !ok {
		t.Fatalf("expected trailing If, got %T", program.Last)
	}
	if ifExpr.Else == nil {
		t.Fatalf("expected an else branch")
	}
}

func TestParseLoopWithoutConditionAndBreak(t *testing.T) {
	program := parseSource(t, "loop { break; }")
	loop, ok := program.Last.(ast.Loop)
	if !ok {
		t.Fatalf("expected trailing Loop, got %T", program.Last)
	}
	if loop.Condition != nil {
		t.Fatalf("expected no loop condition, got %#v", loop.Condition)
	}
	if len(loop.Body.Decls) != 1 {
		t.Fatalf("expected 1 decl in loop body, got %d", len(loop.Body.Decls))
	}
	if _, ok := loop.Body.Decls[0].(ast.BreakStmt); !ok {
		t.Fatalf("expected BreakStmt, got %T", loop.Body.Decls[0])
	}
}

func TestParseLoopStatementFollowedByTrailingExpr(t *testing.T) {
	program := parseSource(t, "let x = 0; loop x < 3 { x = x + 1; } x")
	if len(program.Decls) != 2 {
		t.Fatalf("expected 2 decls (let + loop statement), got %d", len(program.Decls))
	}
	exprStmt, ok := program.Decls[1].(ast.ExpressionStmt)
	if !ok {
		t.Fatalf("expected loop wrapped as ExpressionStmt, got %T", program.Decls[1])
	}
	if _, ok := exprStmt.Expression.(ast.Loop); !ok {
		t.Fatalf("expected Loop, got %T", exprStmt.Expression)
	}
	if ident, ok := program.Last.(ast.Identifier); !ok || ident.Name.Lexeme != "x" {
		t.Fatalf("expected trailing identifier x, got %#v", program.Last)
	}
}

func TestParseFnDeclWithCurriedReturnType(t *testing.T) {
	program := parseSource(t, "fn adder(x: int) -> fn(int) -> int { x }")
	fn, ok := program.Decls[0].(ast.FnDecl)
	if !ok {
		t.Fatalf("expected FnDecl, got %T", program.Decls[0])
	}
	if fn.Name.Lexeme != "adder" || len(fn.Params) != 1 {
		t.Fatalf("unexpected fn decl: %+v", fn)
	}
	if fn.ReturnType == nil || fn.ReturnType.Name != "fn" {
		t.Fatalf("expected curried function return type, got %#v", fn.ReturnType)
	}
	if fn.ReturnType.Return == nil || fn.ReturnType.Return.Name != "int" {
		t.Fatalf("expected inner return type int, got %#v", fn.ReturnType.Return)
	}
}

func TestParseSpawnRequiresCall(t *testing.T) {
	_, errs := New(mustScan(t, "spawn 1;")).Parse()
	if len(errs) == 0 {
		t.Fatalf("expected a syntax error for 'spawn 1'")
	}
}

func TestParseSpawnWaitPostJoin(t *testing.T) {
	program := parseSource(t, "let s = f(); spawn g(1, 2); wait s; post s; join s;")
	if len(program.Decls) != 5 {
		t.Fatalf("expected 5 decls, got %d", len(program.Decls))
	}
	assertExprStmtType[ast.Spawn](t, program.Decls[1])
	assertExprStmtType[ast.Wait](t, program.Decls[2])
	assertExprStmtType[ast.Post](t, program.Decls[3])
	assertExprStmtType[ast.Join](t, program.Decls[4])
}

func assertExprStmtType[T any](t *testing.T, stmt ast.Stmt) {
	t.Helper()
	exprStmt, ok := stmt.(ast.ExpressionStmt)
	if !ok {
		t.Fatalf("expected ExpressionStmt, got %T", stmt)
	}
	if _, ok := exprStmt.Expression.(T); !ok {
		t.Fatalf("expected %T, got %#v", *new(T), exprStmt.Expression)
	}
}

func TestParseMissingSemicolonIsSyntaxError(t *testing.T) {
	_, errs := New(mustScan(t, "let x = 1 x")).Parse()
	if len(errs) == 0 {
		t.Fatalf("expected a syntax error for missing ';'")
	}
}

func TestParseRecoversAfterErrorWithoutSpuriousDiagnostics(t *testing.T) {
	_, errs := New(mustScan(t, "let = 1; let y = 2;")).Parse()
	if len(errs) != 1 {
		t.Fatalf("expected exactly 1 syntax error, got %d: %v", len(errs), errs)
	}
}

func mustScan(t *testing.T, src string) []token.Token {
	t.Helper()
	tokens, err := lexer.New(src).Scan()
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	return tokens
}

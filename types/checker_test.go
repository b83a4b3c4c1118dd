package types

import (
	"testing"

	"oxidate/lexer"
	"oxidate/parser"
)

func mustCheck(t *testing.T, src string) Diagnostics {
	t.Helper()
	tokens, err := lexer.New(src).Scan()
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	program, parseErrs := parser.New(tokens).Parse()
	if len(parseErrs) > 0 {
		t.Fatalf("unexpected parse errors: %v", parseErrs)
	}
	return Check(program)
}

func checkAndType(t *testing.T, src string) (Type, Diagnostics) {
	t.Helper()
	tokens, err := lexer.New(src).Scan()
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	program, parseErrs := parser.New(tokens).Parse()
	if len(parseErrs) > 0 {
		t.Fatalf("unexpected parse errors: %v", parseErrs)
	}
	c := NewChecker()
	return c.checkBlock(program, nil)
}

func expectPass(t *testing.T, src string, want Type) {
	t.Helper()
	ty, diag := checkAndType(t, src)
	if !diag.Ok() {
		t.Fatalf("expected no errors for %q, got %v", src, diag.Errors)
	}
	if !ty.Equal(want) {
		t.Fatalf("expected type %s for %q, got %s", want, src, ty)
	}
}

func expectErr(t *testing.T, src string) Diagnostics {
	t.Helper()
	_, diag := checkAndType(t, src)
	if diag.Ok() {
		t.Fatalf("expected a type error for %q", src)
	}
	return diag
}

func TestCheckBlockLiteralAndTrailingExpr(t *testing.T) {
	expectPass(t, "{ 2 }", TyInt)
	expectPass(t, "{ 2; true }", TyBool)
	expectPass(t, "{ let x: float = 2.4; x }", TyFloat)
	expectPass(t, "{ let x = 2.4; x; }", TyUnit)
}

func TestCheckBlockScopingAndShadowing(t *testing.T) {
	expectErr(t, "let x: int = 2; { let y: int = 3; } y")

	expectPass(t, `
		let x: int = 2;
		{
			let x: bool = true;
			let y: bool = x;
		}
		x
	`, TyInt)

	expectErr(t, `
		let x: int = 2;
		{
			let x: bool = true;
			let y: int = x;
		}
		x
	`)
}

func TestCheckLetAnnotationMismatch(t *testing.T) {
	diag := expectErr(t, "let y: bool = 20; y")
	if len(diag.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", diag.Errors)
	}
}

func TestCheckAssignBeforeDeclarationIsFatal(t *testing.T) {
	diag := expectErr(t, "x = 10; let x = 5;")
	if !diag.Fatal {
		t.Fatalf("expected a fatal diagnostic, got %v", diag.Errors)
	}
}

func TestCheckAssignTypeMismatchContinues(t *testing.T) {
	diag := expectErr(t, "let x = 20; x = true; x")
	if diag.Fatal {
		t.Fatalf("expected a non-fatal diagnostic, got fatal: %v", diag.Errors)
	}
}

func TestCheckIfElseTypeMatch(t *testing.T) {
	expectPass(t, "if true { 20 } else { 30 }", TyInt)
	expectPass(t, "if true { 20; } else { 30; }", TyUnit)
	expectPass(t, "if true { 20 }", TyUnit)
}

func TestCheckIfElseTypeMismatch(t *testing.T) {
	expectErr(t, "if true { 300 } else { true }")
}

func TestCheckIfConditionMustBeBool(t *testing.T) {
	expectErr(t, "if 2+2 { 20; }")
}

func TestCheckLoopConditionMustBeBool(t *testing.T) {
	expectPass(t, "loop { }", TyUnit)
	expectErr(t, "loop 2+2-3 { }")
}

func TestCheckBreakOutsideLoopIsError(t *testing.T) {
	expectErr(t, "break;")
}

func TestCheckBinaryRequiresMatchingNumericTypes(t *testing.T) {
	expectPass(t, "1 + 2 * 3", TyInt)
	expectErr(t, "2 + true")
}

func TestCheckUnaryOperators(t *testing.T) {
	expectErr(t, "-true")
	expectErr(t, "!2")
	expectPass(t, "-2", TyInt)
	expectPass(t, "!true", TyBool)
}

func TestCheckFnDeclReturnTypeMismatch(t *testing.T) {
	expectErr(t, "fn f() -> int { true }")
}

func TestCheckFnCallArityAndTypes(t *testing.T) {
	expectPass(t, "fn add(x: int, y: int) -> int { x + y } add(1, 2)", TyInt)
	expectErr(t, "fn add(x: int, y: int) -> int { x + y } add(1)")
	expectErr(t, "fn add(x: int, y: int) -> int { x + y } add(1, true)")
}

func TestCheckSpawnWaitPostJoin(t *testing.T) {
	program := "fn work(n: int) -> int { n } let t = spawn work(1); let s = sem_create(); wait s; post s; join t"
	expectPass(t, program, TyDynamic)
}

func TestCheckSpawnRequiresFunctionCallee(t *testing.T) {
	expectErr(t, "let x = 1; spawn x();")
}

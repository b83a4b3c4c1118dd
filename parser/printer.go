package parser

import (
	"encoding/json"
	"fmt"
	"oxidate/ast"
	"os"
)

const (
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// astPrinter implements the Visitor interfaces and builds a JSON-friendly
// representation of the AST using maps and slices. Each Visit method
// returns an object that can be marshaled to JSON.
type astPrinter struct{}

func (p astPrinter) VisitExpressionStmt(stmt ast.ExpressionStmt) any {
	return map[string]any{
		"type":       "ExpressionStmt",
		"expression": stmt.Expression.Accept(p),
	}
}

func (p astPrinter) VisitLetStmt(stmt ast.LetStmt) any {
	return map[string]any{
		"type":        "LetStmt",
		"name":        stmt.Name.Lexeme,
		"annotation":  typeAnnString(stmt.Type),
		"initializer": stmt.Initializer.Accept(p),
	}
}

func (p astPrinter) VisitFnDecl(stmt ast.FnDecl) any {
	params := make([]any, 0, len(stmt.Params))
	for _, param := range stmt.Params {
		params = append(params, map[string]any{
			"name": param.Name.Lexeme,
			"type": typeAnnString(param.Type),
		})
	}
	return map[string]any{
		"type":       "FnDecl",
		"name":       stmt.Name.Lexeme,
		"params":     params,
		"returnType": typeAnnString(stmt.ReturnType),
		"body":       stmt.Body.Accept(p),
	}
}

func (p astPrinter) VisitReturnStmt(stmt ast.ReturnStmt) any {
	return map[string]any{
		"type":  "ReturnStmt",
		"value": nilOrAccept(stmt.Value, p),
	}
}

func (p astPrinter) VisitBreakStmt(stmt ast.BreakStmt) any {
	return map[string]any{"type": "BreakStmt"}
}

func (p astPrinter) VisitLiteral(lit ast.Literal) any {
	return lit.Value
}

func (p astPrinter) VisitIdentifier(id ast.Identifier) any {
	return map[string]any{
		"type": "Identifier",
		"name": id.Name.Lexeme,
	}
}

func (p astPrinter) VisitUnary(unary ast.Unary) any {
	return map[string]any{
		"type":     "Unary",
		"operator": unary.Operator.Lexeme,
		"right":    unary.Right.Accept(p),
	}
}

func (p astPrinter) VisitBinary(binary ast.Binary) any {
	return map[string]any{
		"type":     "Binary",
		"operator": binary.Operator.Lexeme,
		"left":     binary.Left.Accept(p),
		"right":    binary.Right.Accept(p),
	}
}

func (p astPrinter) VisitLogical(logical ast.Logical) any {
	return map[string]any{
		"type":     "Logical",
		"operator": logical.Operator.Lexeme,
		"left":     logical.Left.Accept(p),
		"right":    logical.Right.Accept(p),
	}
}

func (p astPrinter) VisitAssign(assign ast.Assign) any {
	return map[string]any{
		"type":  "Assign",
		"name":  assign.Name.Lexeme,
		"value": assign.Value.Accept(p),
	}
}

func (p astPrinter) VisitCall(call ast.Call) any {
	args := make([]any, 0, len(call.Args))
	for _, arg := range call.Args {
		args = append(args, arg.Accept(p))
	}
	return map[string]any{
		"type":   "Call",
		"callee": call.Callee.Accept(p),
		"args":   args,
	}
}

func (p astPrinter) VisitBlock(block ast.Block) any {
	decls := make([]any, 0, len(block.Decls))
	for _, stmt := range block.Decls {
		decls = append(decls, stmt.Accept(p))
	}
	return map[string]any{
		"type":            "Block",
		"declaredSymbols": block.DeclaredSymbols,
		"decls":           decls,
		"last":            nilOrAccept(block.Last, p),
	}
}

func (p astPrinter) VisitIf(ifExpr ast.If) any {
	var elseVal any
	if ifExpr.Else != nil {
		elseVal = ifExpr.Else.Accept(p)
	}
	return map[string]any{
		"type":      "If",
		"condition": ifExpr.Condition.Accept(p),
		"then":      ifExpr.Then.Accept(p),
		"else":      elseVal,
	}
}

func (p astPrinter) VisitLoop(loop ast.Loop) any {
	return map[string]any{
		"type":      "Loop",
		"condition": nilOrAccept(loop.Condition, p),
		"body":      loop.Body.Accept(p),
	}
}

func (p astPrinter) VisitSpawn(spawn ast.Spawn) any {
	return map[string]any{
		"type": "Spawn",
		"call": spawn.Call.Accept(p),
	}
}

func (p astPrinter) VisitWait(wait ast.Wait) any {
	return map[string]any{
		"type":      "Wait",
		"semaphore": wait.Semaphore.Accept(p),
	}
}

func (p astPrinter) VisitPost(post ast.Post) any {
	return map[string]any{
		"type":      "Post",
		"semaphore": post.Semaphore.Accept(p),
	}
}

func (p astPrinter) VisitJoin(join ast.Join) any {
	return map[string]any{
		"type":     "Join",
		"threadID": join.ThreadID.Accept(p),
	}
}

// nilOrAccept returns nil if expr is nil, otherwise it continues
// processing the expression and returns the result.
func nilOrAccept(expr ast.Expression, p ast.ExpressionVisitor) any {
	if expr == nil {
		return nil
	}
	return expr.Accept(p)
}

func typeAnnString(t *ast.TypeAnn) any {
	if t == nil {
		return nil
	}
	return t.String()
}

// PrintASTJSON converts the program's top-level block into a prettified
// JSON string and echoes it to stdout.
func PrintASTJSON(program ast.Block) (string, error) {
	printer := astPrinter{}
	out := program.Accept(printer)
	bytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}

	jsonStr := string(bytes)
	fmt.Println(colorYellow + "----- AST JSON -----")
	fmt.Println(colorYellow + jsonStr)
	fmt.Println(colorYellow + "-----" + colorReset)
	fmt.Println("")
	return jsonStr, nil
}

// WriteASTJSONToFile writes the prettified AST JSON to the given file path.
func WriteASTJSONToFile(program ast.Block, path string) error {
	s, err := PrintASTJSON(program)
	if err != nil {
		return err
	}
	fDescriptor, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating AST file: %s", err.Error())
	}
	defer fDescriptor.Close()

	if _, err := fDescriptor.Write([]byte(s)); err != nil {
		return fmt.Errorf("error writing AST to file: %s", err.Error())
	}
	return nil
}

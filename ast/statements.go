// statements.go contains all the statement AST nodes that can appear as
// declarations inside a Block.

package ast

import "oxidate/token"

// ExpressionStmt wraps an expression used as a statement; its value is
// produced then popped by the enclosing block.
type ExpressionStmt struct {
	Expression Expression
}

func (stmt ExpressionStmt) Accept(v StmtVisitor) any { return v.VisitExpressionStmt(stmt) }

// LetStmt represents `let x [: T] = e;`. The name must already be present
// in the enclosing Block's DeclaredSymbols.
type LetStmt struct {
	Name        token.Token
	Type        *TypeAnn // nil if no annotation was given
	Initializer Expression
}

func (stmt LetStmt) Accept(v StmtVisitor) any { return v.VisitLetStmt(stmt) }

// Param is one parameter of a function declaration.
type Param struct {
	Name token.Token
	Type *TypeAnn
}

// FnDecl represents `fn f(p1, ..., pn) [-> T] { body }`. The declared name
// is bound to a closure capturing the environment in force when the
// declaration executes.
type FnDecl struct {
	Name       token.Token
	Params     []Param
	ReturnType *TypeAnn
	Body       Block
}

func (stmt FnDecl) Accept(v StmtVisitor) any { return v.VisitFnDecl(stmt) }

// ReturnStmt represents `return e;`, valid only inside a function body.
type ReturnStmt struct {
	Keyword token.Token
	Value   Expression // nil for a bare `return;`
}

func (stmt ReturnStmt) Accept(v StmtVisitor) any { return v.VisitReturnStmt(stmt) }

// BreakStmt represents `break;`, valid only inside a loop body and always
// targeting the innermost lexically enclosing loop.
type BreakStmt struct {
	Keyword token.Token
}

func (stmt BreakStmt) Accept(v StmtVisitor) any { return v.VisitBreakStmt(stmt) }

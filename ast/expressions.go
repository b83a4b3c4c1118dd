// expressions.go contains all the expression AST nodes. An expression node
// always evaluates to exactly one value.

package ast

import "oxidate/token"

// Literal represents a literal value in the source code (int, float, bool,
// or string). `Value` holds the interpreted Go value.
type Literal struct {
	Value any
}

func (lit Literal) Accept(v ExpressionVisitor) any { return v.VisitLiteral(lit) }

// Identifier represents a reference to a previously bound name.
type Identifier struct {
	Name token.Token
}

func (id Identifier) Accept(v ExpressionVisitor) any { return v.VisitIdentifier(id) }

// Unary represents a unary operation (`-a`, `!a`).
type Unary struct {
	Operator token.Token
	Right    Expression
}

func (unary Unary) Accept(v ExpressionVisitor) any { return v.VisitUnary(unary) }

// Binary represents a non-short-circuiting binary operation
// (`+ - * / % > < == != <= >=`).
type Binary struct {
	Left     Expression
	Operator token.Token
	Right    Expression
}

func (binary Binary) Accept(v ExpressionVisitor) any { return v.VisitBinary(binary) }

// Logical represents a short-circuiting `&&`/`||` expression, compiled as
// conditional branches rather than BINOP.
type Logical struct {
	Left     Expression
	Operator token.Token
	Right    Expression
}

func (logical Logical) Accept(v ExpressionVisitor) any { return v.VisitLogical(logical) }

// Assign represents `x = e`, mutating the nearest enclosing binding of x.
type Assign struct {
	Name  token.Token
	Value Expression
}

func (assign Assign) Accept(v ExpressionVisitor) any { return v.VisitAssign(assign) }

// Call represents a function call `g(a1, ..., an)`. Callee is usually an
// Identifier (the common case: `LD(g)` then arguments then `CALL(n)`),
// but any expression producing a closure value is accepted (e.g. calling
// the result of another call).
type Call struct {
	Callee Expression
	Args   []Expression
}

func (call Call) Accept(v ExpressionVisitor) any { return v.VisitCall(call) }

// Block represents `{ d1; d2; ...; last? }`. DeclaredSymbols lists every
// name bound by a `let` or `fn` directly in this block, in declaration
// order — consumed by ENTERSCOPE to pre-bind them to Uninitialized.
type Block struct {
	Decls           []Stmt
	Last            Expression // nil if the block has no trailing expression
	DeclaredSymbols []string
}

func (block Block) Accept(v ExpressionVisitor) any { return v.VisitBlock(block) }

// If represents `if c { t } [else { f }]`, used as either a statement or
// an expression. Else is nil when there is no else branch (the compiled
// result is then always Unit, regardless of Then's apparent value).
type If struct {
	Condition Expression
	Then      Block
	Else      *Block
}

func (ifExpr If) Accept(v ExpressionVisitor) any { return v.VisitIf(ifExpr) }

// Loop represents `loop [cond] { body }`. Condition is nil for an
// unconditional loop (exited only via `break`).
type Loop struct {
	Condition Expression // nil if absent
	Body      Block
}

func (loop Loop) Accept(v ExpressionVisitor) any { return v.VisitLoop(loop) }

// Spawn represents `spawn g(a1, ..., an)`, creating a child thread running
// the call and yielding the new thread's id as its value.
type Spawn struct {
	Call Call
}

func (spawn Spawn) Accept(v ExpressionVisitor) any { return v.VisitSpawn(spawn) }

// Wait represents `wait s`, P on a semaphore.
type Wait struct {
	Semaphore Expression
}

func (wait Wait) Accept(v ExpressionVisitor) any { return v.VisitWait(wait) }

// Post represents `post s`, V on a semaphore.
type Post struct {
	Semaphore Expression
}

func (post Post) Accept(v ExpressionVisitor) any { return v.VisitPost(post) }

// Join represents `join t`, blocking until thread t has terminated and
// yielding its terminal value.
type Join struct {
	ThreadID Expression
}

func (join Join) Accept(v ExpressionVisitor) any { return v.VisitJoin(join) }

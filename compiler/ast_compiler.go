package compiler

// This file implements the ASTCompiler, which compiles the abstract
// syntax tree (AST) directly to a flat, index-addressed instruction
// vector.

import (
	"fmt"

	"oxidate/ast"
	"oxidate/token"
)

// ASTCompiler is a visitor that walks AST nodes and emits instructions to
// an append-only buffer, back-patching jump targets once their
// destination address is known, using named symbols resolved at runtime
// through the environment chain rather than slot-based locals
// (ENTERSCOPE pre-binds every declared name, so there is no local-slot
// bookkeeping to do at compile time).
type ASTCompiler struct {
	instructions []Instruction

	// loopExits is a stack of pending back-patch addresses for `break`,
	// one entry per lexically enclosing loop: the index of the GOTO
	// instruction `break` emitted, later patched to the loop's exit
	// address once it's known.
	loopExits [][]int

	// fnDepth tracks whether `return` is currently legal.
	fnDepth int
}

// NewASTCompiler creates a new AST-to-bytecode compiler.
func NewASTCompiler() *ASTCompiler {
	return &ASTCompiler{instructions: []Instruction{}}
}

// CompileProgram compiles a parsed top-level program (the implicit
// top-level block) into a complete Bytecode: compile the block, then
// append a trailing DONE.
func (ac *ASTCompiler) CompileProgram(program ast.Block) (b Bytecode, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case SemanticError:
				err = v
			case DeveloperError:
				err = v
			default:
				panic(r)
			}
		}
	}()

	program.Accept(ac)
	ac.emit(MakeInstruction(OP_DONE))
	return Bytecode{Instructions: ac.instructions}, nil
}

// emit appends an instruction and returns its address.
func (ac *ASTCompiler) emit(instr Instruction) int {
	ac.instructions = append(ac.instructions, instr)
	return len(ac.instructions) - 1
}

func (ac *ASTCompiler) here() int { return len(ac.instructions) }

// patchJump overwrites a previously emitted JOF/GOTO/SPAWN's Addr field
// with the now-known target address. Jump instructions are first emitted
// with a placeholder target, then patched once the code they should jump
// to has been compiled, using index-addressed instructions instead of
// byte offsets.
func (ac *ASTCompiler) patchJump(pos int, target int) {
	ac.instructions[pos].Addr = target
}

// VisitBlock compiles `{ d1; d2; ...; last? }`: each declaration in
// order, then the trailing expression if present (Unit constant
// otherwise).
func (ac *ASTCompiler) VisitBlock(block ast.Block) any {
	hasScope := len(block.DeclaredSymbols) > 0
	if hasScope {
		ac.emit(MakeEnterScope(block.DeclaredSymbols))
	}

	for _, stmt := range block.Decls {
		stmt.Accept(ac)
		ac.emit(MakeInstruction(OP_POP))
	}

	if block.Last != nil {
		block.Last.Accept(ac)
	} else {
		ac.emit(MakeConstant(nil))
	}

	if hasScope {
		ac.emit(MakeInstruction(OP_EXITSCOPE))
	}
	return nil
}

// VisitExpressionStmt compiles an expression used as a statement; its
// value is produced then popped by the enclosing block (VisitBlock emits
// the POP).
func (ac *ASTCompiler) VisitExpressionStmt(stmt ast.ExpressionStmt) any {
	stmt.Expression.Accept(ac)
	return nil
}

// VisitLetStmt compiles `let x [: T] = e;`: compile e, ASSIGN(x), LDC(Unit)
// (the declared name was already pre-bound to Uninitialized by the
// enclosing block's ENTERSCOPE).
func (ac *ASTCompiler) VisitLetStmt(stmt ast.LetStmt) any {
	stmt.Initializer.Accept(ac)
	ac.emit(MakeAssign(stmt.Name.Lexeme))
	ac.emit(MakeConstant(nil))
	return nil
}

// VisitFnDecl compiles `fn f(p1, ..., pn) [-> T] { body }`: LDF +
// GOTO-over-body, body compiled with a trailing RESET(CallFrame), then
// ASSIGN(f) + LDC(Unit).
func (ac *ASTCompiler) VisitFnDecl(decl ast.FnDecl) any {
	params := make([]string, len(decl.Params))
	for i, p := range decl.Params {
		params[i] = p.Name.Lexeme
	}

	ldfPos := ac.emit(MakeLoadFn(0, params))
	gotoPos := ac.emit(MakeGoto(0))

	bodyAddr := ac.here()
	ac.instructions[ldfPos].Addr = bodyAddr

	ac.fnDepth++
	decl.Body.Accept(ac)
	ac.fnDepth--

	ac.emit(MakeReset(FRAME_CALL))

	ac.patchJump(gotoPos, ac.here())

	ac.emit(MakeAssign(decl.Name.Lexeme))
	ac.emit(MakeConstant(nil))
	return nil
}

// VisitReturnStmt compiles `return e;`, valid only inside a function body.
func (ac *ASTCompiler) VisitReturnStmt(stmt ast.ReturnStmt) any {
	if ac.fnDepth == 0 {
		panic(SemanticError{
			Line:    stmt.Keyword.Line,
			Column:  stmt.Keyword.Column,
			Message: "'return' used outside of a function",
		})
	}
	if stmt.Value != nil {
		stmt.Value.Accept(ac)
	} else {
		ac.emit(MakeConstant(nil))
	}
	ac.emit(MakeReset(FRAME_CALL))
	return nil
}

// VisitBreakStmt emits a GOTO to the nearest enclosing loop's exit,
// recorded for back-patching once that address is known. Rejected at
// compile time outside any loop.
func (ac *ASTCompiler) VisitBreakStmt(stmt ast.BreakStmt) any {
	if len(ac.loopExits) == 0 {
		panic(SemanticError{
			Line:    stmt.Keyword.Line,
			Column:  stmt.Keyword.Column,
			Message: "'break' used outside of a loop",
		})
	}
	pos := ac.emit(MakeGoto(0))
	top := len(ac.loopExits) - 1
	ac.loopExits[top] = append(ac.loopExits[top], pos)
	return nil
}

// VisitLiteral emits LDC(value) directly; literals carry their value in
// the instruction itself rather than through a separate constants pool.
func (ac *ASTCompiler) VisitLiteral(literal ast.Literal) any {
	ac.emit(MakeConstant(literal.Value))
	return nil
}

// VisitIdentifier emits LD(name), resolved at runtime through the
// current environment chain.
func (ac *ASTCompiler) VisitIdentifier(id ast.Identifier) any {
	ac.emit(MakeLoad(id.Name.Lexeme))
	return nil
}

// VisitUnary compiles operand then UNOP(op).
func (ac *ASTCompiler) VisitUnary(unary ast.Unary) any {
	unary.Right.Accept(ac)
	switch unary.Operator.TokenType {
	case token.SUB:
		ac.emit(MakeUnary(UNOP_NEG))
	case token.BANG:
		ac.emit(MakeUnary(UNOP_NOT))
	default:
		panic(DeveloperError{Message: fmt.Sprintf("unknown unary operator '%s'", unary.Operator.Lexeme)})
	}
	return nil
}

var binaryOpcodes = map[token.TokenType]BinaryOp{
	token.ADD:          BINOP_ADD,
	token.SUB:          BINOP_SUB,
	token.MULT:         BINOP_MUL,
	token.DIV:          BINOP_DIV,
	token.MOD:          BINOP_MOD,
	token.LESS:         BINOP_LT,
	token.LESS_EQUAL:   BINOP_LTE,
	token.LARGER:       BINOP_GT,
	token.LARGER_EQUAL: BINOP_GTE,
	token.EQUAL_EQUAL:  BINOP_EQ,
	token.NOT_EQUAL:    BINOP_NEQ,
}

// VisitBinary compiles lhs, rhs, then BINOP(op) for the non-short-circuit
// operators.
func (ac *ASTCompiler) VisitBinary(binary ast.Binary) any {
	binary.Left.Accept(ac)
	binary.Right.Accept(ac)
	op, ok := binaryOpcodes[binary.Operator.TokenType]
	if !ok {
		panic(DeveloperError{Message: fmt.Sprintf("unknown binary operator '%s'", binary.Operator.Lexeme)})
	}
	ac.emit(MakeBinary(op))
	return nil
}

// VisitLogical compiles short-circuiting `&&`/`||` as conditional
// branches, preserving the left operand's value when it decides the
// result.
func (ac *ASTCompiler) VisitLogical(logical ast.Logical) any {
	logical.Left.Accept(ac)

	switch logical.Operator.TokenType {
	case token.AND_AND:
		jumpFalse := ac.emit(MakeJumpIfFalse(0))
		logical.Right.Accept(ac)
		jumpEnd := ac.emit(MakeGoto(0))
		ac.patchJump(jumpFalse, ac.here())
		ac.emit(MakeConstant(false))
		ac.patchJump(jumpEnd, ac.here())
	case token.OR_OR:
		jumpFalse := ac.emit(MakeJumpIfFalse(0))
		ac.emit(MakeConstant(true))
		jumpEnd := ac.emit(MakeGoto(0))
		ac.patchJump(jumpFalse, ac.here())
		logical.Right.Accept(ac)
		ac.patchJump(jumpEnd, ac.here())
	default:
		panic(DeveloperError{Message: fmt.Sprintf("unknown logical operator '%s'", logical.Operator.Lexeme)})
	}
	return nil
}

// VisitAssign compiles `x = e`: compile e, ASSIGN(x), LDC(Unit).
func (ac *ASTCompiler) VisitAssign(assign ast.Assign) any {
	assign.Value.Accept(ac)
	ac.emit(MakeAssign(assign.Name.Lexeme))
	ac.emit(MakeConstant(nil))
	return nil
}

// VisitCall compiles `g(a1, ..., an)`: LD(g) (or any callee-producing
// expression), each argument left-to-right, then CALL(n).
func (ac *ASTCompiler) VisitCall(call ast.Call) any {
	call.Callee.Accept(ac)
	for _, arg := range call.Args {
		arg.Accept(ac)
	}
	ac.emit(MakeCall(len(call.Args)))
	return nil
}

// VisitIf compiles `if c { t } [else { f }]` with a JOF/GOTO diamond;
// both branches leave exactly one value, and a missing else compiles to
// LDC(Unit) so the if-expression always balances to one value.
func (ac *ASTCompiler) VisitIf(ifExpr ast.If) any {
	ifExpr.Condition.Accept(ac)
	jumpElse := ac.emit(MakeJumpIfFalse(0))

	ifExpr.Then.Accept(ac)
	jumpEnd := ac.emit(MakeGoto(0))

	ac.patchJump(jumpElse, ac.here())
	if ifExpr.Else != nil {
		ifExpr.Else.Accept(ac)
	} else {
		ac.emit(MakeConstant(nil))
	}
	ac.patchJump(jumpEnd, ac.here())
	return nil
}

// VisitLoop compiles `loop [cond] { body }`, back-patching every `break`
// reached inside the body to the loop's exit address.
func (ac *ASTCompiler) VisitLoop(loop ast.Loop) any {
	ac.loopExits = append(ac.loopExits, []int{})

	loopStart := ac.here()
	var jumpEnd int
	hasCond := loop.Condition != nil
	if hasCond {
		loop.Condition.Accept(ac)
		jumpEnd = ac.emit(MakeJumpIfFalse(0))
	}

	loop.Body.Accept(ac)
	ac.emit(MakeInstruction(OP_POP))
	ac.emit(MakeGoto(loopStart))

	loopEnd := ac.here()
	if hasCond {
		ac.patchJump(jumpEnd, loopEnd)
	}
	ac.emit(MakeConstant(nil))

	top := len(ac.loopExits) - 1
	for _, pos := range ac.loopExits[top] {
		ac.patchJump(pos, loopEnd)
	}
	ac.loopExits = ac.loopExits[:top]
	return nil
}

// VisitSpawn compiles `spawn g(a1, ..., an)`: SPAWN(child_addr), GOTO
// past the child's inline call code, then the child's call compiled
// exactly like an ordinary call followed by DONE.
func (ac *ASTCompiler) VisitSpawn(spawn ast.Spawn) any {
	spawnPos := ac.emit(MakeSpawn(0))
	jumpAfter := ac.emit(MakeGoto(0))

	childAddr := ac.here()
	ac.instructions[spawnPos].Addr = childAddr
	spawn.Call.Accept(ac)
	ac.emit(MakeInstruction(OP_DONE))

	ac.patchJump(jumpAfter, ac.here())
	return nil
}

// VisitWait compiles `wait s`: compile s, WAIT, then LDC(Unit).
func (ac *ASTCompiler) VisitWait(wait ast.Wait) any {
	wait.Semaphore.Accept(ac)
	ac.emit(MakeInstruction(OP_WAIT))
	ac.emit(MakeConstant(nil))
	return nil
}

// VisitPost compiles `post s`: compile s, POST, then LDC(Unit).
func (ac *ASTCompiler) VisitPost(post ast.Post) any {
	post.Semaphore.Accept(ac)
	ac.emit(MakeInstruction(OP_POST))
	ac.emit(MakeConstant(nil))
	return nil
}

// VisitJoin compiles `join t`: compile t, then JOIN. The terminal value
// of the joined thread is left on the operand stack by the VM.
func (ac *ASTCompiler) VisitJoin(join ast.Join) any {
	join.ThreadID.Accept(ac)
	ac.emit(MakeInstruction(OP_JOIN))
	return nil
}

package types

import "oxidate/ast"

// checkExpr dispatches on concrete expression type and returns its static
// type plus any diagnostics. Whenever a subexpression already produced an
// error, checkExpr stops applying further operator-specific rules at this
// level and just propagates — matching the original checker's pattern of
// not piling a type-mismatch error on top of an already-broken operand.
func (c *Checker) checkExpr(expr ast.Expression) (Type, Diagnostics) {
	switch e := expr.(type) {
	case ast.Literal:
		return literalType(e), Diagnostics{}
	case ast.Identifier:
		return c.checkIdentifier(e)
	case ast.Unary:
		return c.checkUnary(e)
	case ast.Binary:
		return c.checkBinary(e)
	case ast.Logical:
		return c.checkLogical(e)
	case ast.Assign:
		return c.checkAssign(e)
	case ast.Call:
		return c.checkCall(e)
	case ast.Block:
		return c.checkBlock(e, nil)
	case ast.If:
		return c.checkIf(e)
	case ast.Loop:
		return c.checkLoop(e)
	case ast.Spawn:
		return c.checkSpawn(e)
	case ast.Wait:
		return c.checkSemaphoreOperand(e.Semaphore, "wait")
	case ast.Post:
		return c.checkSemaphoreOperand(e.Semaphore, "post")
	case ast.Join:
		return c.checkJoin(e)
	default:
		var diag Diagnostics
		diag.Add("internal: unhandled expression %T", expr)
		return TyUnit, diag
	}
}

func literalType(lit ast.Literal) Type {
	switch lit.Value.(type) {
	case int64:
		return TyInt
	case float64:
		return TyFloat
	case bool:
		return TyBool
	case string:
		return TyString
	default:
		return TyUnit
	}
}

func (c *Checker) checkIdentifier(id ast.Identifier) (Type, Diagnostics) {
	var diag Diagnostics
	b, ok := c.scope.lookup(id.Name.Lexeme)
	if !ok {
		diag.Add("identifier '%s' not declared", id.Name.Lexeme)
		return TyUnit, diag
	}
	if !b.initialized {
		diag.Add("identifier '%s' used before declaration", id.Name.Lexeme)
		return TyUnit, diag
	}
	return b.typ, diag
}

func (c *Checker) checkUnary(u ast.Unary) (Type, Diagnostics) {
	right, diag := c.checkExpr(u.Right)
	if !diag.Ok() {
		return TyUnit, diag
	}
	switch u.Operator.Lexeme {
	case "-":
		if !isNumeric(right) {
			diag.Add("can't negate type %s", right)
			return TyUnit, diag
		}
		return right, diag
	case "!":
		if right.Kind != Bool {
			diag.Add("can't apply logical NOT to type %s", right)
			return TyUnit, diag
		}
		return TyBool, diag
	default:
		diag.Add("internal: unknown unary operator '%s'", u.Operator.Lexeme)
		return TyUnit, diag
	}
}

var comparisonOps = map[string]bool{"<": true, "<=": true, ">": true, ">=": true}
var equalityOps = map[string]bool{"==": true, "!=": true}

func (c *Checker) checkBinary(b ast.Binary) (Type, Diagnostics) {
	left, diag := c.checkExpr(b.Left)
	right, rightDiag := c.checkExpr(b.Right)
	diag.Append(rightDiag)
	if !diag.Ok() {
		return TyUnit, diag
	}

	op := b.Operator.Lexeme
	switch {
	case equalityOps[op]:
		if !left.Equal(right) || !equalityComparable(left) {
			diag.Add("can't apply '%s' to types '%s' and '%s'", op, left, right)
			return TyUnit, diag
		}
		return TyBool, diag
	case comparisonOps[op]:
		if !left.Equal(right) || !isNumeric(left) {
			diag.Add("can't apply '%s' to types '%s' and '%s'", op, left, right)
			return TyUnit, diag
		}
		return TyBool, diag
	default: // + - * / %
		if !left.Equal(right) || !isNumeric(left) {
			diag.Add("can't apply '%s' to types '%s' and '%s'", op, left, right)
			return TyUnit, diag
		}
		return left, diag
	}
}

func equalityComparable(t Type) bool {
	switch t.Kind {
	case Int, Float, Bool, String, Unit, Dynamic:
		return true
	default:
		return false
	}
}

func (c *Checker) checkLogical(l ast.Logical) (Type, Diagnostics) {
	left, diag := c.checkExpr(l.Left)
	right, rightDiag := c.checkExpr(l.Right)
	diag.Append(rightDiag)
	if !diag.Ok() {
		return TyUnit, diag
	}
	if left.Kind != Bool || right.Kind != Bool {
		diag.Add("can't apply '%s' to types '%s' and '%s'", l.Operator.Lexeme, left, right)
		return TyUnit, diag
	}
	return TyBool, diag
}

func (c *Checker) checkAssign(a ast.Assign) (Type, Diagnostics) {
	var diag Diagnostics
	b, ok := c.scope.lookup(a.Name.Lexeme)
	if !ok {
		diag.Add("identifier '%s' not declared", a.Name.Lexeme)
		// Still check the rhs so later expressions see its errors too.
		_, rhsDiag := c.checkExpr(a.Value)
		diag.Append(rhsDiag)
		return TyUnit, diag
	}
	if !b.initialized {
		diag.Add("identifier '%s' assigned before declaration", a.Name.Lexeme)
		diag.Fatal = true
		return TyUnit, diag
	}
	rhsTy, rhsDiag := c.checkExpr(a.Value)
	diag.Append(rhsDiag)
	if rhsDiag.Ok() && !b.typ.Equal(rhsTy) {
		diag.Add("'%s' declared with type %s but assigned type %s", a.Name.Lexeme, b.typ, rhsTy)
	}
	return TyUnit, diag
}

func (c *Checker) checkCall(call ast.Call) (Type, Diagnostics) {
	var diag Diagnostics
	argTypes := make([]Type, 0, len(call.Args))
	for _, arg := range call.Args {
		ty, d := c.checkExpr(arg)
		diag.Append(d)
		argTypes = append(argTypes, ty)
	}
	if !diag.Ok() {
		return TyUnit, diag
	}

	if name, ok := callee(call.Callee); ok {
		if polymorphicUnaryMath[name] {
			return checkPolymorphicMath(name, argTypes, &diag)
		}
		if polymorphicBinaryMath[name] {
			return checkPolymorphicMath(name, argTypes, &diag)
		}
	}

	calleeTy, d := c.checkExpr(call.Callee)
	diag.Append(d)
	if !diag.Ok() {
		return TyUnit, diag
	}
	return applyFn(calleeTy, argTypes, &diag)
}

func callee(expr ast.Expression) (string, bool) {
	id, ok := expr.(ast.Identifier)
	if !ok {
		return "", false
	}
	return id.Name.Lexeme, true
}

func checkPolymorphicMath(name string, argTypes []Type, diag *Diagnostics) (Type, Diagnostics) {
	for _, ty := range argTypes {
		if !isNumeric(ty) {
			diag.Add("'%s' requires numeric arguments, got %s", name, ty)
			return TyUnit, *diag
		}
	}
	for i := 1; i < len(argTypes); i++ {
		if !argTypes[0].Equal(argTypes[i]) {
			diag.Add("'%s' requires matching argument types, got %s and %s", name, argTypes[0], argTypes[i])
			return TyUnit, *diag
		}
	}
	if len(argTypes) == 0 {
		return TyUnit, *diag
	}
	return argTypes[0], *diag
}

func applyFn(calleeTy Type, argTypes []Type, diag *Diagnostics) (Type, Diagnostics) {
	if calleeTy.Kind == Dynamic {
		return TyDynamic, *diag
	}
	if calleeTy.Kind != Fn {
		diag.Add("cannot call non-function type '%s'", calleeTy)
		return TyUnit, *diag
	}
	if len(argTypes) != len(calleeTy.Params) {
		diag.Add("expected %d argument(s) but got %d", len(calleeTy.Params), len(argTypes))
		return TyUnit, *diag
	}
	for i, want := range calleeTy.Params {
		if !want.Equal(argTypes[i]) {
			diag.Add("argument %d: expected type %s but got %s", i+1, want, argTypes[i])
		}
	}
	if !diag.Ok() {
		return TyUnit, *diag
	}
	if calleeTy.Return == nil {
		return TyUnit, *diag
	}
	return *calleeTy.Return, *diag
}

func (c *Checker) checkIf(ifExpr ast.If) (Type, Diagnostics) {
	var diag Diagnostics
	condTy, condDiag := c.checkExpr(ifExpr.Condition)
	if !condDiag.Ok() {
		diag.Append(condDiag)
	} else if condTy.Kind != Bool {
		diag.Add("expected type 'bool' for if condition, got '%s'", condTy)
	}

	thenTy, thenDiag := c.checkBlock(ifExpr.Then, nil)
	diag.Append(thenDiag)

	if ifExpr.Else == nil {
		return TyUnit, diag
	}

	elseTy, elseDiag := c.checkBlock(*ifExpr.Else, nil)
	diag.Append(elseDiag)

	if thenDiag.Ok() && elseDiag.Ok() {
		if !thenTy.Equal(elseTy) {
			diag.Add("if-else has type mismatch - consequent: %s, alt: %s", thenTy, elseTy)
			return TyUnit, diag
		}
		if diag.Ok() {
			return thenTy, diag
		}
	}
	return TyUnit, diag
}

func (c *Checker) checkLoop(loop ast.Loop) (Type, Diagnostics) {
	var diag Diagnostics
	if loop.Condition != nil {
		condTy, condDiag := c.checkExpr(loop.Condition)
		diag.Append(condDiag)
		if condDiag.Ok() && condTy.Kind != Bool {
			diag.Add("expected type 'bool' for loop predicate but got '%s'", condTy)
		}
	}

	c.loopDepth++
	_, bodyDiag := c.checkBlock(loop.Body, nil)
	c.loopDepth--
	diag.Append(bodyDiag)

	return TyUnit, diag
}

func (c *Checker) checkSpawn(spawn ast.Spawn) (Type, Diagnostics) {
	_, diag := c.checkCall(spawn.Call)
	if !diag.Ok() {
		return TyUnit, diag
	}
	return TyInt, diag
}

func (c *Checker) checkSemaphoreOperand(expr ast.Expression, verb string) (Type, Diagnostics) {
	ty, diag := c.checkExpr(expr)
	if !diag.Ok() {
		return TyUnit, diag
	}
	if ty.Kind != Semaphore {
		diag.Add("expected a semaphore for '%s' but got '%s'", verb, ty)
		return TyUnit, diag
	}
	return TyUnit, diag
}

func (c *Checker) checkJoin(join ast.Join) (Type, Diagnostics) {
	ty, diag := c.checkExpr(join.ThreadID)
	if !diag.Ok() {
		return TyUnit, diag
	}
	if ty.Kind != Int {
		diag.Add("expected a thread id (int) for 'join' but got '%s'", ty)
		return TyUnit, diag
	}
	return TyDynamic, diag
}

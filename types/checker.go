package types

import "oxidate/ast"

// binding tracks one name's checked type and whether it has been assigned
// a value yet. Symbols are pre-declared uninitialized when a block's
// scope is entered (ENTERSCOPE's compile-time counterpart), so a use or
// assignment before the `let`/`fn` that introduces them is a type error
// rather than a silent shadow of an outer binding.
type binding struct {
	typ         Type
	initialized bool
}

type scope struct {
	bindings map[string]*binding
	parent   *scope
}

func newScope(parent *scope, declared []string) *scope {
	s := &scope{bindings: make(map[string]*binding, len(declared)), parent: parent}
	for _, name := range declared {
		s.bindings[name] = &binding{}
	}
	return s
}

func (s *scope) lookup(name string) (*binding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.bindings[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// Checker walks a parsed program and reports TypeErrors without aborting
// on the first one, the same cascading-but-bounded recovery the original
// checker's per-decl `cont` flag implements.
type Checker struct {
	scope     *scope
	loopDepth int
	fnDepth   int
	fnReturn  *Type
}

// NewChecker builds a Checker with the builtin table
// pre-bound in the root scope.
func NewChecker() *Checker {
	root := &scope{bindings: map[string]*binding{}}
	for name, ty := range builtinConstants {
		root.bindings[name] = &binding{typ: ty, initialized: true}
	}
	for name, ty := range builtinFns {
		root.bindings[name] = &binding{typ: ty, initialized: true}
	}
	return &Checker{scope: root}
}

// Check type-checks an entire program (the implicit top-level block) and
// returns every diagnostic found.
func Check(program ast.Block) Diagnostics {
	c := NewChecker()
	_, diag := c.checkBlock(program, nil)
	return diag
}

func (c *Checker) checkBlock(block ast.Block, params map[string]Type) (Type, Diagnostics) {
	c.scope = newScope(c.scope, block.DeclaredSymbols)
	for name, ty := range params {
		c.scope.bindings[name] = &binding{typ: ty, initialized: true}
	}
	defer func() { c.scope = c.scope.parent }()

	var diag Diagnostics
	for _, stmt := range block.Decls {
		d := c.checkStmt(stmt)
		diag.Append(d)
		if d.Fatal {
			break
		}
	}
	// Decl errors block checking the trailing expression: its type may
	// depend on bindings that failed to resolve.
	if !diag.Ok() {
		return TyUnit, diag
	}
	if block.Last != nil {
		ty, d := c.checkExpr(block.Last)
		diag.Append(d)
		return ty, diag
	}
	return TyUnit, diag
}

func (c *Checker) checkStmt(stmt ast.Stmt) Diagnostics {
	switch s := stmt.(type) {
	case ast.ExpressionStmt:
		_, diag := c.checkExpr(s.Expression)
		return diag
	case ast.LetStmt:
		return c.checkLet(s)
	case ast.FnDecl:
		return c.checkFnDecl(s)
	case ast.ReturnStmt:
		return c.checkReturn(s)
	case ast.BreakStmt:
		var diag Diagnostics
		if c.loopDepth == 0 {
			diag.Add("break outside of a loop")
		}
		return diag
	default:
		var diag Diagnostics
		diag.Add("internal: unhandled statement %T", stmt)
		return diag
	}
}

func (c *Checker) checkLet(stmt ast.LetStmt) Diagnostics {
	var diag Diagnostics
	var declared *Type
	if stmt.Type != nil {
		t := resolveTypeAnn(*stmt.Type, &diag)
		declared = &t
	}

	exprTy, exprDiag := c.checkExpr(stmt.Initializer)

	switch {
	case !exprDiag.Ok() && declared == nil:
		// No annotation to fall back on: the rest of the program can't be
		// meaningfully checked against this binding's type.
		diag.Append(exprDiag)
		diag.Fatal = true
		c.bind(stmt.Name.Lexeme, TyUnit)
		return diag

	case !exprDiag.Ok():
		diag.Append(exprDiag)
		c.bind(stmt.Name.Lexeme, *declared)
		return diag

	case declared == nil:
		diag.Append(exprDiag)
		c.bind(stmt.Name.Lexeme, exprTy)
		return diag

	default:
		diag.Append(exprDiag)
		c.bind(stmt.Name.Lexeme, *declared)
		if !declared.Equal(exprTy) {
			diag.Add("'%s' has declared type %s but assigned type %s", stmt.Name.Lexeme, declared, exprTy)
		}
		return diag
	}
}

func (c *Checker) bind(name string, ty Type) {
	b, ok := c.scope.lookup(name)
	if !ok {
		// Hoisting guarantees every let/fn name in this block was
		// pre-declared; this path only runs for malformed trees.
		b = &binding{}
		c.scope.bindings[name] = b
	}
	b.typ = ty
	b.initialized = true
}

func (c *Checker) checkFnDecl(decl ast.FnDecl) Diagnostics {
	var diag Diagnostics
	params := make(map[string]Type, len(decl.Params))
	paramTypes := make([]Type, 0, len(decl.Params))
	for _, p := range decl.Params {
		if p.Type == nil {
			diag.Add("parameter '%s' of '%s' is missing a type annotation", p.Name.Lexeme, decl.Name.Lexeme)
			params[p.Name.Lexeme] = TyUnit
			paramTypes = append(paramTypes, TyUnit)
			continue
		}
		t := resolveTypeAnn(*p.Type, &diag)
		params[p.Name.Lexeme] = t
		paramTypes = append(paramTypes, t)
	}

	var retType *Type
	if decl.ReturnType != nil {
		t := resolveTypeAnn(*decl.ReturnType, &diag)
		retType = &t
	}
	c.bind(decl.Name.Lexeme, fnType(derefOr(retType, TyUnit), paramTypes...))

	prevReturn, prevDepth := c.fnReturn, c.fnDepth
	c.fnReturn, c.fnDepth = retType, c.fnDepth+1
	bodyTy, bodyDiag := c.checkBlock(decl.Body, params)
	c.fnReturn, c.fnDepth = prevReturn, prevDepth

	diag.Append(bodyDiag)
	if retType != nil && bodyDiag.Ok() && !retType.Equal(bodyTy) {
		diag.Add("function '%s' has declared return type %s but body has type %s", decl.Name.Lexeme, retType, bodyTy)
	}
	// A function declaration never contributes its body's type to the
	// enclosing block; the declaration itself is always Unit.
	return diag
}

func derefOr(t *Type, fallback Type) Type {
	if t == nil {
		return fallback
	}
	return *t
}

func (c *Checker) checkReturn(stmt ast.ReturnStmt) Diagnostics {
	var diag Diagnostics
	if c.fnDepth == 0 {
		diag.Add("return outside of a function")
	}
	if stmt.Value == nil {
		if c.fnReturn != nil && c.fnReturn.Kind != Unit {
			diag.Add("function expects return type %s but got bare 'return'", c.fnReturn)
		}
		return diag
	}
	ty, exprDiag := c.checkExpr(stmt.Value)
	diag.Append(exprDiag)
	if exprDiag.Ok() && c.fnReturn != nil && !c.fnReturn.Equal(ty) {
		diag.Add("function has declared return type %s but returned %s", c.fnReturn, ty)
	}
	return diag
}

func resolveTypeAnn(ann ast.TypeAnn, diag *Diagnostics) Type {
	switch ann.Name {
	case "int":
		return TyInt
	case "float":
		return TyFloat
	case "bool":
		return TyBool
	case "string":
		return TyString
	case "fn":
		params := make([]Type, 0, len(ann.Params))
		for _, p := range ann.Params {
			params = append(params, resolveTypeAnn(p, diag))
		}
		var ret *Type
		if ann.Return != nil {
			r := resolveTypeAnn(*ann.Return, diag)
			ret = &r
		}
		return Type{Kind: Fn, Params: params, Return: ret}
	default:
		diag.Add("unknown type '%s'", ann.Name)
		return TyUnit
	}
}

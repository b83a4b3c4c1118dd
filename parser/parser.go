// Recursive descent Pratt parser.
// https://en.wikipedia.org/wiki/Pratt_parser
//
// Each token type maps to an optional prefix parse rule (how to start
// parsing an expression when that token is seen first) and an optional
// infix parse rule plus a binding precedence (how that token continues
// an expression already in progress). This is the same prefix/infix/
// precedence table shape a Pratt-style token-driven compiler would use,
// just producing `ast` nodes instead of bytecode directly.
package parser

import (
	"fmt"
	"oxidate/ast"
	"oxidate/token"
)

type precedence int

const (
	PREC_NONE precedence = iota
	PREC_ASSIGN
	PREC_OR
	PREC_AND
	PREC_EQUALITY
	PREC_COMPARISON
	PREC_TERM
	PREC_FACTOR
	PREC_UNARY
	PREC_CALL
)

type prefixFn func(*Parser) (ast.Expression, error)
type infixFn func(*Parser, ast.Expression) (ast.Expression, error)

var precedences = map[token.TokenType]precedence{
	token.OR_OR:        PREC_OR,
	token.AND_AND:       PREC_AND,
	token.EQUAL_EQUAL:  PREC_EQUALITY,
	token.NOT_EQUAL:    PREC_EQUALITY,
	token.LESS:         PREC_COMPARISON,
	token.LESS_EQUAL:   PREC_COMPARISON,
	token.LARGER:       PREC_COMPARISON,
	token.LARGER_EQUAL: PREC_COMPARISON,
	token.ADD:          PREC_TERM,
	token.SUB:          PREC_TERM,
	token.MULT:         PREC_FACTOR,
	token.DIV:          PREC_FACTOR,
	token.MOD:          PREC_FACTOR,
	token.ASSIGN:       PREC_ASSIGN,
	token.LPAREN:       PREC_CALL,
}

var prefixRules map[token.TokenType]prefixFn
var infixRules map[token.TokenType]infixFn

func init() {
	prefixRules = map[token.TokenType]prefixFn{
		token.INT:    parseLiteralExpr,
		token.FLOAT:  parseLiteralExpr,
		token.STRING: parseLiteralExpr,
		token.TRUE:   parseLiteralExpr,
		token.FALSE:  parseLiteralExpr,

		token.IDENTIFIER: parseIdentifierExpr,
		token.LPAREN:      parseGroupingExpr,
		token.SUB:         parseUnaryExpr,
		token.BANG:        parseUnaryExpr,
		token.LBRACE:      parseBlockExpr,
		token.IF:          parseIfExpr,
		token.LOOP:        parseLoopExpr,
		token.SPAWN:       parseSpawnExpr,
		token.WAIT:        parseWaitExpr,
		token.POST:        parsePostExpr,
		token.JOIN:        parseJoinExpr,
	}

	infixRules = map[token.TokenType]infixFn{
		token.ADD:          parseBinaryExpr,
		token.SUB:          parseBinaryExpr,
		token.MULT:         parseBinaryExpr,
		token.DIV:          parseBinaryExpr,
		token.MOD:          parseBinaryExpr,
		token.EQUAL_EQUAL:  parseBinaryExpr,
		token.NOT_EQUAL:    parseBinaryExpr,
		token.LESS:         parseBinaryExpr,
		token.LESS_EQUAL:   parseBinaryExpr,
		token.LARGER:       parseBinaryExpr,
		token.LARGER_EQUAL: parseBinaryExpr,
		token.AND_AND:      parseLogicalExpr,
		token.OR_OR:        parseLogicalExpr,
		token.ASSIGN:       parseAssignExpr,
		token.LPAREN:       parseCallExpr,
	}
}

// Parser turns a token stream into the program's top-level Block.
type Parser struct {
	tokens   []token.Token
	position int
}

// New constructs a Parser over the given token stream.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, position: 0}
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.position]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.position-1]
}

func (p *Parser) advance() token.Token {
	if !p.isFinished() {
		p.position++
	}
	return p.previous()
}

func (p *Parser) isFinished() bool {
	return p.peek().TokenType == token.EOF
}

func (p *Parser) check(tokenType token.TokenType) bool {
	if p.isFinished() && tokenType != token.EOF {
		return false
	}
	return p.peek().TokenType == tokenType
}

func (p *Parser) match(tokenType token.TokenType) bool {
	if p.check(tokenType) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(tokenType token.TokenType, errorMessage string) (token.Token, error) {
	if p.check(tokenType) {
		return p.advance(), nil
	}
	tok := p.peek()
	return token.Token{}, CreateSyntaxError(tok.Line, tok.Column, errorMessage)
}

// Parse parses the entire token stream into the implicit top-level block
// (compiled as a single implicit block), recovering after
// a syntax error so multiple diagnostics can be reported in one pass.
func (p *Parser) Parse() (ast.Block, []error) {
	block := ast.Block{}
	var errs []error

	for !p.isFinished() {
		start := p.position
		stmt, trailing, hasCandidate, err := p.parseBlockItem()
		if err != nil {
			errs = append(errs, err)
			p.synchronize()
			if p.position == start {
				p.advance()
			}
			continue
		}
		if hasCandidate {
			if p.isFinished() {
				block.Last = trailing
				continue
			}
			if !isBlockLike(trailing) {
				tok := p.peek()
				errs = append(errs, CreateSyntaxError(tok.Line, tok.Column, "expected ';' after expression"))
				p.synchronize()
				continue
			}
			stmt = ast.ExpressionStmt{Expression: trailing}
		}
		block.Decls = append(block.Decls, stmt)
		if name, ok := declaredName(stmt); ok {
			block.DeclaredSymbols = append(block.DeclaredSymbols, name)
		}
	}
	return block, errs
}

// synchronize discards tokens until it reaches a plausible statement
// boundary, so that Parse can keep reporting errors after one is found.
func (p *Parser) synchronize() {
	for !p.isFinished() {
		if p.previous().TokenType == token.SEMICOLON {
			return
		}
		switch p.peek().TokenType {
		case token.LET, token.FN, token.IF, token.LOOP, token.RETURN, token.BREAK:
			return
		}
		p.advance()
	}
}

func declaredName(stmt ast.Stmt) (string, bool) {
	switch s := stmt.(type) {
	case ast.LetStmt:
		return s.Name.Lexeme, true
	case ast.FnDecl:
		return s.Name.Lexeme, true
	}
	return "", false
}

func isBlockLike(expr ast.Expression) bool {
	switch expr.(type) {
	case ast.If, ast.Loop, ast.Block:
		return true
	}
	return false
}

// parseBlockItem parses one element of a block sequence: either a
// statement to append to Decls, or — when an expression isn't followed by
// a semicolon — a *candidate* trailing value. Whether a candidate is
// actually the block's trailing value (tail position) or just a
// semicolon-less statement (block-like, ending in its own '}') is for the
// caller to decide, since only the caller knows the block's terminator.
func (p *Parser) parseBlockItem() (stmt ast.Stmt, trailing ast.Expression, hasCandidate bool, err error) {
	switch p.peek().TokenType {
	case token.LET:
		s, e := p.parseLetStmt()
		return s, nil, false, e
	case token.FN:
		s, e := p.parseFnDecl()
		return s, nil, false, e
	case token.RETURN:
		s, e := p.parseReturnStmt()
		return s, nil, false, e
	case token.BREAK:
		s, e := p.parseBreakStmt()
		return s, nil, false, e
	}

	expr, e := p.parseExpression(PREC_NONE)
	if e != nil {
		return nil, nil, false, e
	}
	if p.match(token.SEMICOLON) {
		return ast.ExpressionStmt{Expression: expr}, nil, false, nil
	}
	return nil, expr, true, nil
}

// parseBlockBody parses a `{ ... }`-delimited (or, at the top level,
// EOF-delimited) block body, aborting on the first error encountered.
func (p *Parser) parseBlockBody(endTok token.TokenType) (ast.Block, error) {
	block := ast.Block{}
	for !p.check(endTok) && !p.isFinished() {
		stmt, trailing, hasCandidate, err := p.parseBlockItem()
		if err != nil {
			return ast.Block{}, err
		}
		if hasCandidate {
			if p.check(endTok) {
				block.Last = trailing
				break
			}
			if !isBlockLike(trailing) {
				tok := p.peek()
				return ast.Block{}, CreateSyntaxError(tok.Line, tok.Column, "expected ';' after expression")
			}
			stmt = ast.ExpressionStmt{Expression: trailing}
		}
		block.Decls = append(block.Decls, stmt)
		if name, ok := declaredName(stmt); ok {
			block.DeclaredSymbols = append(block.DeclaredSymbols, name)
		}
	}
	if endTok != token.EOF {
		if _, err := p.consume(endTok, fmt.Sprintf("expected '%s'", endTok)); err != nil {
			return ast.Block{}, err
		}
	}
	return block, nil
}

func (p *Parser) parseLetStmt() (ast.LetStmt, error) {
	p.advance() // 'let'
	name, err := p.consume(token.IDENTIFIER, "expected variable name after 'let'")
	if err != nil {
		return ast.LetStmt{}, err
	}
	var typeAnn *ast.TypeAnn
	if p.match(token.COLON) {
		t, err := p.parseTypeAnn()
		if err != nil {
			return ast.LetStmt{}, err
		}
		typeAnn = &t
	}
	if _, err := p.consume(token.ASSIGN, "expected '=' in let binding"); err != nil {
		return ast.LetStmt{}, err
	}
	value, err := p.parseExpression(PREC_ASSIGN)
	if err != nil {
		return ast.LetStmt{}, err
	}
	if _, err := p.consume(token.SEMICOLON, "expected ';' after let binding"); err != nil {
		return ast.LetStmt{}, err
	}
	return ast.LetStmt{Name: name, Type: typeAnn, Initializer: value}, nil
}

func (p *Parser) parseFnDecl() (ast.FnDecl, error) {
	p.advance() // 'fn'
	name, err := p.consume(token.IDENTIFIER, "expected function name")
	if err != nil {
		return ast.FnDecl{}, err
	}
	if _, err := p.consume(token.LPAREN, "expected '(' after function name"); err != nil {
		return ast.FnDecl{}, err
	}

	params := []ast.Param{}
	if !p.check(token.RPAREN) {
		for {
			pname, err := p.consume(token.IDENTIFIER, "expected parameter name")
			if err != nil {
				return ast.FnDecl{}, err
			}
			var ptype *ast.TypeAnn
			if p.match(token.COLON) {
				t, err := p.parseTypeAnn()
				if err != nil {
					return ast.FnDecl{}, err
				}
				ptype = &t
			}
			params = append(params, ast.Param{Name: pname, Type: ptype})
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.consume(token.RPAREN, "expected ')' after parameters"); err != nil {
		return ast.FnDecl{}, err
	}

	var retType *ast.TypeAnn
	if p.match(token.ARROW) {
		t, err := p.parseTypeAnn()
		if err != nil {
			return ast.FnDecl{}, err
		}
		retType = &t
	}

	if _, err := p.consume(token.LBRACE, "expected '{' to start function body"); err != nil {
		return ast.FnDecl{}, err
	}
	body, err := p.parseBlockBody(token.RBRACE)
	if err != nil {
		return ast.FnDecl{}, err
	}
	return ast.FnDecl{Name: name, Params: params, ReturnType: retType, Body: body}, nil
}

func (p *Parser) parseReturnStmt() (ast.ReturnStmt, error) {
	kw := p.advance() // 'return'
	var value ast.Expression
	if !p.check(token.SEMICOLON) {
		v, err := p.parseExpression(PREC_ASSIGN)
		if err != nil {
			return ast.ReturnStmt{}, err
		}
		value = v
	}
	if _, err := p.consume(token.SEMICOLON, "expected ';' after return statement"); err != nil {
		return ast.ReturnStmt{}, err
	}
	return ast.ReturnStmt{Keyword: kw, Value: value}, nil
}

func (p *Parser) parseBreakStmt() (ast.BreakStmt, error) {
	kw := p.advance() // 'break'
	if _, err := p.consume(token.SEMICOLON, "expected ';' after break"); err != nil {
		return ast.BreakStmt{}, err
	}
	return ast.BreakStmt{Keyword: kw}, nil
}

func (p *Parser) parseTypeAnn() (ast.TypeAnn, error) {
	if p.check(token.FN) {
		p.advance()
		if _, err := p.consume(token.LPAREN, "expected '(' in function type"); err != nil {
			return ast.TypeAnn{}, err
		}
		params := []ast.TypeAnn{}
		if !p.check(token.RPAREN) {
			for {
				t, err := p.parseTypeAnn()
				if err != nil {
					return ast.TypeAnn{}, err
				}
				params = append(params, t)
				if !p.match(token.COMMA) {
					break
				}
			}
		}
		if _, err := p.consume(token.RPAREN, "expected ')' in function type"); err != nil {
			return ast.TypeAnn{}, err
		}
		var ret *ast.TypeAnn
		if p.match(token.ARROW) {
			r, err := p.parseTypeAnn()
			if err != nil {
				return ast.TypeAnn{}, err
			}
			ret = &r
		}
		return ast.TypeAnn{Name: "fn", Params: params, Return: ret}, nil
	}
	name, err := p.consume(token.IDENTIFIER, "expected type name")
	if err != nil {
		return ast.TypeAnn{}, err
	}
	return ast.TypeAnn{Name: name.Lexeme}, nil
}

// parseExpression is the Pratt driver: parse a prefix expression, then
// keep folding in infix operators as long as they bind tighter than
// `prec`.
func (p *Parser) parseExpression(prec precedence) (ast.Expression, error) {
	prefix, ok := prefixRules[p.peek().TokenType]
	if !ok {
		tok := p.peek()
		return nil, CreateSyntaxError(tok.Line, tok.Column, fmt.Sprintf("unexpected token '%s'", tok.Lexeme))
	}
	left, err := prefix(p)
	if err != nil {
		return nil, err
	}

	for !p.isFinished() {
		nextPrec, ok := precedences[p.peek().TokenType]
		if !ok || prec >= nextPrec {
			break
		}
		infix := infixRules[p.peek().TokenType]
		left, err = infix(p, left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func parseLiteralExpr(p *Parser) (ast.Expression, error) {
	tok := p.advance()
	switch tok.TokenType {
	case token.TRUE:
		return ast.Literal{Value: true}, nil
	case token.FALSE:
		return ast.Literal{Value: false}, nil
	default:
		return ast.Literal{Value: tok.Literal}, nil
	}
}

func parseIdentifierExpr(p *Parser) (ast.Expression, error) {
	return ast.Identifier{Name: p.advance()}, nil
}

func parseGroupingExpr(p *Parser) (ast.Expression, error) {
	p.advance() // '('
	expr, err := p.parseExpression(PREC_ASSIGN)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN, "expected ')' to close grouped expression"); err != nil {
		return nil, err
	}
	return expr, nil
}

func parseUnaryExpr(p *Parser) (ast.Expression, error) {
	op := p.advance()
	right, err := p.parseExpression(PREC_UNARY)
	if err != nil {
		return nil, err
	}
	return ast.Unary{Operator: op, Right: right}, nil
}

func parseBlockExpr(p *Parser) (ast.Expression, error) {
	p.advance() // '{'
	block, err := p.parseBlockBody(token.RBRACE)
	if err != nil {
		return nil, err
	}
	return block, nil
}

func parseIfExpr(p *Parser) (ast.Expression, error) {
	p.advance() // 'if'
	cond, err := p.parseExpression(PREC_ASSIGN)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "expected '{' after if condition"); err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBlockBody(token.RBRACE)
	if err != nil {
		return nil, err
	}
	var elseBlock *ast.Block
	if p.match(token.ELSE) {
		if _, err := p.consume(token.LBRACE, "expected '{' after else"); err != nil {
			return nil, err
		}
		eb, err := p.parseBlockBody(token.RBRACE)
		if err != nil {
			return nil, err
		}
		elseBlock = &eb
	}
	return ast.If{Condition: cond, Then: thenBlock, Else: elseBlock}, nil
}

func parseLoopExpr(p *Parser) (ast.Expression, error) {
	p.advance() // 'loop'
	var cond ast.Expression
	if !p.check(token.LBRACE) {
		c, err := p.parseExpression(PREC_ASSIGN)
		if err != nil {
			return nil, err
		}
		cond = c
	}
	if _, err := p.consume(token.LBRACE, "expected '{' to start loop body"); err != nil {
		return nil, err
	}
	body, err := p.parseBlockBody(token.RBRACE)
	if err != nil {
		return nil, err
	}
	return ast.Loop{Condition: cond, Body: body}, nil
}

func parseSpawnExpr(p *Parser) (ast.Expression, error) {
	p.advance() // 'spawn'
	callee, err := p.parseExpression(PREC_UNARY)
	if err != nil {
		return nil, err
	}
	call, ok := callee.(ast.Call)
	if !ok {
		tok := p.previous()
		return nil, CreateSyntaxError(tok.Line, tok.Column, "spawn requires a function call")
	}
	return ast.Spawn{Call: call}, nil
}

func parseWaitExpr(p *Parser) (ast.Expression, error) {
	p.advance() // 'wait'
	sem, err := p.parseExpression(PREC_UNARY)
	if err != nil {
		return nil, err
	}
	return ast.Wait{Semaphore: sem}, nil
}

func parsePostExpr(p *Parser) (ast.Expression, error) {
	p.advance() // 'post'
	sem, err := p.parseExpression(PREC_UNARY)
	if err != nil {
		return nil, err
	}
	return ast.Post{Semaphore: sem}, nil
}

func parseJoinExpr(p *Parser) (ast.Expression, error) {
	p.advance() // 'join'
	tid, err := p.parseExpression(PREC_UNARY)
	if err != nil {
		return nil, err
	}
	return ast.Join{ThreadID: tid}, nil
}

func parseBinaryExpr(p *Parser, left ast.Expression) (ast.Expression, error) {
	op := p.advance()
	right, err := p.parseExpression(precedences[op.TokenType])
	if err != nil {
		return nil, err
	}
	return ast.Binary{Left: left, Operator: op, Right: right}, nil
}

func parseLogicalExpr(p *Parser, left ast.Expression) (ast.Expression, error) {
	op := p.advance()
	right, err := p.parseExpression(precedences[op.TokenType])
	if err != nil {
		return nil, err
	}
	return ast.Logical{Left: left, Operator: op, Right: right}, nil
}

// parseAssignExpr is right-associative: it recurses at prec-1 so a chain
// like `a = b = c` nests as `a = (b = c)`.
func parseAssignExpr(p *Parser, left ast.Expression) (ast.Expression, error) {
	eq := p.advance()
	ident, ok := left.(ast.Identifier)
	if !ok {
		return nil, CreateSyntaxError(eq.Line, eq.Column, "invalid assignment target")
	}
	value, err := p.parseExpression(PREC_ASSIGN - 1)
	if err != nil {
		return nil, err
	}
	return ast.Assign{Name: ident.Name, Value: value}, nil
}

func parseCallExpr(p *Parser, left ast.Expression) (ast.Expression, error) {
	p.advance() // '('
	args := []ast.Expression{}
	if !p.check(token.RPAREN) {
		for {
			arg, err := p.parseExpression(PREC_ASSIGN)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.consume(token.RPAREN, "expected ')' after arguments"); err != nil {
		return nil, err
	}
	return ast.Call{Callee: left, Args: args}, nil
}

package lexer

import (
	"oxidate/token"
	"testing"
)

func tokenTypes(tokens []token.Token) []token.TokenType {
	types := make([]token.TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.TokenType
	}
	return types
}

func assertTypes(t *testing.T, got []token.TokenType, want []token.TokenType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestOperatorsSuccess(t *testing.T) {
	expected := []token.TokenType{
		token.EQUAL_EQUAL, token.DIV, token.ASSIGN, token.MULT, token.ADD,
		token.LARGER, token.SUB, token.LESS, token.NOT_EQUAL, token.LESS_EQUAL,
		token.LARGER_EQUAL, token.BANG, token.BANG, token.AND_AND, token.OR_OR,
		token.ARROW, token.MOD, token.EOF,
	}
	scanner := New("==/=*+>-<!=<=>=!!&&||->%")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	assertTypes(t, tokenTypes(got), expected)
}

func TestScanDelimiters(t *testing.T) {
	expected := []token.TokenType{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.MULT, token.MULT, token.SEMICOLON, token.ADD, token.NOT_EQUAL,
		token.LESS_EQUAL, token.COLON, token.EOF,
	}
	scanner := New("(){}**;+!=<=:")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	assertTypes(t, tokenTypes(got), expected)
}

func TestScanKeywords(t *testing.T) {
	expected := []token.TokenType{
		token.FN, token.IDENTIFIER, token.LOOP, token.BREAK, token.RETURN,
		token.SPAWN, token.WAIT, token.POST, token.JOIN, token.LET, token.EOF,
	}
	scanner := New("fn adder loop break return spawn wait post join let")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	assertTypes(t, tokenTypes(got), expected)
}

func TestScanNumbers(t *testing.T) {
	scanner := New("42 3.14")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if got[0].TokenType != token.INT || got[0].Literal != int64(42) {
		t.Errorf("first token = %+v, want INT 42", got[0])
	}
	if got[1].TokenType != token.FLOAT || got[1].Literal != 3.14 {
		t.Errorf("second token = %+v, want FLOAT 3.14", got[1])
	}
}

func TestScanStringLiteral(t *testing.T) {
	scanner := New(`"hello world"`)
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if got[0].TokenType != token.STRING || got[0].Literal != "hello world" {
		t.Errorf("got %+v, want STRING \"hello world\"", got[0])
	}
}

func TestScanUnclosedStringIsError(t *testing.T) {
	scanner := New(`"unterminated`)
	_, err := scanner.Scan()
	if err == nil {
		t.Fatal("expected error for unclosed string literal")
	}
}

func TestScanCommentsAreSkipped(t *testing.T) {
	scanner := New("1 # this is a comment\n+ 2")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	assertTypes(t, tokenTypes(got), []token.TokenType{token.INT, token.ADD, token.INT, token.EOF})
}

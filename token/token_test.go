package token

import "testing"

func TestCreate(t *testing.T) {
	tok := Create(ASSIGN, "=", 1, 4)
	if tok.TokenType != ASSIGN || tok.Lexeme != "=" || tok.Line != 1 || tok.Column != 4 {
		t.Errorf("Create() = %+v, want {%s %q 1 4}", tok, ASSIGN, "=")
	}
}

func TestCreateLiteral(t *testing.T) {
	tok := CreateLiteral(INT, int64(42), "42", 2, 0)
	if tok.TokenType != INT || tok.Literal != int64(42) || tok.Lexeme != "42" {
		t.Errorf("CreateLiteral() = %+v", tok)
	}
}

func TestKeyWordsCoversControlFlow(t *testing.T) {
	want := []string{"fn", "let", "if", "else", "loop", "break", "return", "spawn", "wait", "post", "join"}
	for _, w := range want {
		if _, ok := KeyWords[w]; !ok {
			t.Errorf("KeyWords missing %q", w)
		}
	}
}

func TestStringFormatting(t *testing.T) {
	tok := Create(IDENTIFIER, "x", 0, 0)
	got := tok.String()
	want := `Token {Type: IDENTIFIER, Value: "x"}`
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

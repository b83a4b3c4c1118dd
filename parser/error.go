package parser

import "fmt"

// SyntaxError is returned by the parser for any input the grammar rejects:
// an unexpected token, a missing delimiter, an assignment to a non-place
// expression. Line/Column point at the offending token so a caller (the
// CLI, the REPL) can report exactly where the source went wrong.
type SyntaxError struct {
	Line    int32
	Column  int
	Message string
}

func CreateSyntaxError(line int32, column int, message string) SyntaxError {
	return SyntaxError{Line: line, Column: column, Message: message}
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("💥 Syntax error:\nline:%d, column:%d - %s", e.Line, e.Column, e.Message)
}

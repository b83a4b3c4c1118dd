package compiler

import "fmt"

// SemanticError is raised by the compiler for a construct that parses fine
// but violates a rule the compiler itself enforces (`return` outside a
// function, `break` outside a loop) — the type checker runs first and
// would normally catch these too, but the compiler still refuses to emit
// nonsensical control flow if it's ever invoked without one (the REPL's
// `--notype` flag).
type SemanticError struct {
	Line    int32
	Column  int
	Message string
}

func (e SemanticError) Error() string {
	return fmt.Sprintf("💥 Compile error:\nline:%d, column:%d - %s", e.Line, e.Column, e.Message)
}

// DeveloperError marks an invariant the compiler itself should never
// violate (an operator token the parser accepted but VisitUnary/VisitBinary
// has no opcode for). Seeing one means the parser's grammar and the
// compiler's opcode tables have drifted apart, not that the input is bad.
type DeveloperError struct {
	Message string
}

func (e DeveloperError) Error() string {
	return fmt.Sprintf("🤖 Compiler bug: %s", e.Message)
}

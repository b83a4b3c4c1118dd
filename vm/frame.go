package vm

import "oxidate/compiler"

// Frame is a runtime-stack element. It records the environment to
// restore on exit and, for CallFrame, the address to resume the caller at.
// FrameKind is the same enum the compiler emits into RESET's operand
// (compiler.FrameKind), so there is exactly one definition of "what kind of
// frame is this" shared by both packages.
type Frame struct {
	Kind       compiler.FrameKind
	ReturnAddr int
	HasReturn  bool
	Env        EnvHandle
}

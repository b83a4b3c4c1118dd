package compiler

import (
	"reflect"
	"testing"
)

func TestEncodeDecodeBytecodeRoundTrip(t *testing.T) {
	code := Bytecode{Instructions: []Instruction{
		MakeEnterScope([]string{"x"}),
		MakeConstant(int64(5)),
		MakeAssign("x"),
		MakeInstruction(OP_POP),
		MakeConstant(nil),
		MakeLoad("x"),
		MakeUnary(UNOP_NEG),
		MakeBinary(BINOP_ADD),
		MakeJumpIfFalse(3),
		MakeGoto(7),
		MakeLoadFn(4, []string{"a", "b"}),
		MakeCall(2),
		MakeReset(FRAME_CALL),
		MakeSpawn(9),
		MakeInstruction(OP_EXITSCOPE),
		MakeInstruction(OP_DONE),
	}}

	encoded, err := EncodeBytecode(code)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := DecodeBytecode(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(decoded.Instructions) != len(code.Instructions) {
		t.Fatalf("instruction count mismatch - got: %d, want: %d", len(decoded.Instructions), len(code.Instructions))
	}
	for i, want := range code.Instructions {
		got := decoded.Instructions[i]
		if !reflect.DeepEqual(got, want) {
			t.Errorf("instruction %d mismatch - got: %+v, want: %+v", i, got, want)
		}
	}
}

func TestEncodeDecodeLiteralKinds(t *testing.T) {
	code := Bytecode{Instructions: []Instruction{
		MakeConstant(int64(-7)),
		MakeConstant(3.5),
		MakeConstant(true),
		MakeConstant("hi"),
		MakeConstant(nil),
	}}

	encoded, err := EncodeBytecode(code)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeBytecode(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	for i, want := range code.Instructions {
		got := decoded.Instructions[i].Value
		if got != want.Value {
			t.Errorf("literal %d mismatch - got: %v (%T), want: %v (%T)", i, got, got, want.Value, want.Value)
		}
	}
}

func TestDecodeBytecodeRejectsBadLengthHeader(t *testing.T) {
	code := Bytecode{Instructions: []Instruction{MakeInstruction(OP_DONE)}}
	encoded, err := EncodeBytecode(code)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	// Corrupt the length header so it no longer matches the body.
	encoded[0] = 0xFF

	if _, err := DecodeBytecode(encoded); err == nil {
		t.Fatalf("expected a decode error for a mismatched length header")
	}
}

func TestDisassembleRendersMnemonics(t *testing.T) {
	code := []Instruction{
		MakeConstant(int64(2)),
		MakeConstant(int64(3)),
		MakeBinary(BINOP_ADD),
		MakeInstruction(OP_DONE),
	}
	out := Disassemble(code)
	if out == "" {
		t.Fatalf("expected non-empty disassembly")
	}
}

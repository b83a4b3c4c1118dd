package compiler

// bytecode.go implements the on-disk encoding for a compiled
// Bytecode: an 8-byte little-endian length header followed by a
// deterministic binary encoding of the instruction vector. Closures and
// Semaphores are runtime-only values and are never produced by the
// compiler as LDC operands, so no Value case needs to encode them.

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const bytecodeFileExt = ".o2"

// valueTag distinguishes the LDC literal kinds in the wire encoding. Unit
// carries no payload.
type valueTag byte

const (
	valUnit valueTag = iota
	valInt
	valFloat
	valBool
	valString
)

// EncodeBytecode serializes an instruction vector into its on-disk
// format: an 8-byte little-endian length prefix followed by that many
// bytes of encoded instructions.
func EncodeBytecode(code Bytecode) ([]byte, error) {
	var body bytes.Buffer
	if err := binary.Write(&body, binary.BigEndian, uint32(len(code.Instructions))); err != nil {
		return nil, err
	}
	for _, instr := range code.Instructions {
		if err := encodeInstruction(&body, instr); err != nil {
			return nil, err
		}
	}

	var out bytes.Buffer
	if err := binary.Write(&out, binary.LittleEndian, uint64(body.Len())); err != nil {
		return nil, err
	}
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

// DecodeBytecode parses the on-disk format back into a Bytecode value.
func DecodeBytecode(data []byte) (Bytecode, error) {
	if len(data) < 8 {
		return Bytecode{}, fmt.Errorf("bytecode: file too short for length header")
	}
	length := binary.LittleEndian.Uint64(data[:8])
	body := data[8:]
	if uint64(len(body)) != length {
		return Bytecode{}, fmt.Errorf("bytecode: length header says %d bytes, got %d", length, len(body))
	}

	r := bytes.NewReader(body)
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return Bytecode{}, fmt.Errorf("bytecode: reading instruction count: %w", err)
	}

	code := Bytecode{Instructions: make([]Instruction, 0, count)}
	for i := uint32(0); i < count; i++ {
		instr, err := decodeInstruction(r)
		if err != nil {
			return Bytecode{}, fmt.Errorf("bytecode: decoding instruction %d: %w", i, err)
		}
		code.Instructions = append(code.Instructions, instr)
	}
	return code, nil
}

func encodeInstruction(w *bytes.Buffer, instr Instruction) error {
	w.WriteByte(byte(instr.Op))
	switch instr.Op {
	case OP_LDC:
		return encodeValue(w, instr.Value)
	case OP_LD, OP_ASSIGN:
		return encodeString(w, instr.Symbol)
	case OP_UNOP:
		w.WriteByte(byte(instr.Unary))
	case OP_BINOP:
		w.WriteByte(byte(instr.Binary))
	case OP_JOF, OP_GOTO, OP_SPAWN:
		return binary.Write(w, binary.BigEndian, uint32(instr.Addr))
	case OP_ENTERSCOPE:
		return encodeStrings(w, instr.Names)
	case OP_LDF:
		if err := binary.Write(w, binary.BigEndian, uint32(instr.Addr)); err != nil {
			return err
		}
		return encodeStrings(w, instr.Names)
	case OP_CALL:
		return binary.Write(w, binary.BigEndian, uint32(instr.N))
	case OP_RESET:
		w.WriteByte(byte(instr.Frame))
	case OP_DONE, OP_POP, OP_EXITSCOPE, OP_JOIN, OP_YIELD, OP_SEMCREATE, OP_WAIT, OP_POST:
		// no operand
	default:
		return fmt.Errorf("unknown opcode %v", instr.Op)
	}
	return nil
}

func decodeInstruction(r *bytes.Reader) (Instruction, error) {
	opByte, err := r.ReadByte()
	if err != nil {
		return Instruction{}, err
	}
	op := Op(opByte)
	instr := Instruction{Op: op}

	switch op {
	case OP_LDC:
		v, err := decodeValue(r)
		if err != nil {
			return Instruction{}, err
		}
		instr.Value = v
	case OP_LD, OP_ASSIGN:
		s, err := decodeString(r)
		if err != nil {
			return Instruction{}, err
		}
		instr.Symbol = s
	case OP_UNOP:
		b, err := r.ReadByte()
		if err != nil {
			return Instruction{}, err
		}
		instr.Unary = UnaryOp(b)
	case OP_BINOP:
		b, err := r.ReadByte()
		if err != nil {
			return Instruction{}, err
		}
		instr.Binary = BinaryOp(b)
	case OP_JOF, OP_GOTO, OP_SPAWN:
		var addr uint32
		if err := binary.Read(r, binary.BigEndian, &addr); err != nil {
			return Instruction{}, err
		}
		instr.Addr = int(addr)
	case OP_ENTERSCOPE:
		names, err := decodeStrings(r)
		if err != nil {
			return Instruction{}, err
		}
		instr.Names = names
	case OP_LDF:
		var addr uint32
		if err := binary.Read(r, binary.BigEndian, &addr); err != nil {
			return Instruction{}, err
		}
		names, err := decodeStrings(r)
		if err != nil {
			return Instruction{}, err
		}
		instr.Addr = int(addr)
		instr.Names = names
	case OP_CALL:
		var n uint32
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return Instruction{}, err
		}
		instr.N = int(n)
	case OP_RESET:
		b, err := r.ReadByte()
		if err != nil {
			return Instruction{}, err
		}
		instr.Frame = FrameKind(b)
	case OP_DONE, OP_POP, OP_EXITSCOPE, OP_JOIN, OP_YIELD, OP_SEMCREATE, OP_WAIT, OP_POST:
		// no operand
	default:
		return Instruction{}, fmt.Errorf("unknown opcode byte %d", opByte)
	}
	return instr, nil
}

func encodeValue(w *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case nil:
		w.WriteByte(byte(valUnit))
		return nil
	case int64:
		w.WriteByte(byte(valInt))
		return binary.Write(w, binary.BigEndian, v)
	case float64:
		w.WriteByte(byte(valFloat))
		return binary.Write(w, binary.BigEndian, v)
	case bool:
		w.WriteByte(byte(valBool))
		if v {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
		return nil
	case string:
		w.WriteByte(byte(valString))
		return encodeString(w, v)
	default:
		return fmt.Errorf("cannot serialize constant of type %T", value)
	}
}

func decodeValue(r *bytes.Reader) (any, error) {
	tagByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch valueTag(tagByte) {
	case valUnit:
		return nil, nil
	case valInt:
		var v int64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return nil, err
		}
		return v, nil
	case valFloat:
		var v float64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return nil, err
		}
		return v, nil
	case valBool:
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		return b != 0, nil
	case valString:
		return decodeString(r)
	default:
		return nil, fmt.Errorf("unknown value tag %d", tagByte)
	}
}

func encodeString(w *bytes.Buffer, s string) error {
	if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	w.WriteString(s)
	return nil
}

func decodeString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := r.Read(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func encodeStrings(w *bytes.Buffer, names []string) error {
	if err := binary.Write(w, binary.BigEndian, uint16(len(names))); err != nil {
		return err
	}
	for _, name := range names {
		if err := encodeString(w, name); err != nil {
			return err
		}
	}
	return nil
}

func decodeStrings(r *bytes.Reader) ([]string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	names := make([]string, 0, n)
	for i := uint16(0); i < n; i++ {
		s, err := decodeString(r)
		if err != nil {
			return nil, err
		}
		names = append(names, s)
	}
	return names, nil
}

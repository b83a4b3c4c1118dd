package vm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"oxidate/compiler"
)

// ErrCancelled is returned by Run when Cancel was called mid-program,
// e.g. from a SIGINT handler. It is a CLI-level control signal, not one of
// the RuntimeErrorKind taxonomy's cases, since nothing internal to the VM
// ever raises it.
var ErrCancelled = errors.New("oxidate: program cancelled")

// VM is the stack-based runtime. It owns the environment registry, the
// green-thread scheduler state, and the operand/runtime stacks that live
// per-thread. The dispatch loop is a plain fetch/switch/increment cycle
// over a flat `[]compiler.Instruction` vector, with multi-thread
// scheduling layered on top.
type VM struct {
	code []compiler.Instruction

	reg    *registry
	global EnvHandle

	threads map[ThreadID]*Thread
	current *Thread
	nextTID ThreadID

	ready   []ThreadID
	blocked map[*Semaphore][]ThreadID
	joiners map[ThreadID][]ThreadID
	zombies map[ThreadID]*Thread

	quantum    time.Duration
	gcInterval time.Duration

	lastDispatch time.Time
	lastGC       time.Time

	debug  bool
	stdout io.Writer
	stdin  io.Reader
	in     *bufio.Reader

	cancelled int32
}

const (
	defaultQuantum    = 100 * time.Millisecond
	defaultGCInterval = 1 * time.Second
)

// Option configures a VM at construction time, mirroring the CLI flags
// that configure it (`--quantum`, `--gc-interval`, `--debug`).
type Option func(*VM)

func WithQuantum(d time.Duration) Option    { return func(vm *VM) { vm.quantum = d } }
func WithGCInterval(d time.Duration) Option { return func(vm *VM) { vm.gcInterval = d } }
func WithDebug(debug bool) Option           { return func(vm *VM) { vm.debug = debug } }
func WithStdout(w io.Writer) Option         { return func(vm *VM) { vm.stdout = w } }
func WithStdin(r io.Reader) Option          { return func(vm *VM) { vm.stdin = r } }

// New creates a VM with a freshly populated global environment.
func New(opts ...Option) *VM {
	vm := &VM{
		reg:        newRegistry(),
		threads:    make(map[ThreadID]*Thread),
		blocked:    make(map[*Semaphore][]ThreadID),
		joiners:    make(map[ThreadID][]ThreadID),
		zombies:    make(map[ThreadID]*Thread),
		nextTID:    1,
		quantum:    defaultQuantum,
		gcInterval: defaultGCInterval,
		stdout:     os.Stdout,
		stdin:      os.Stdin,
	}
	vm.global = vm.reg.alloc(noParent, false)
	vm.installBuiltins()
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// GlobalEnv exposes the persistent global environment handle so a REPL can
// reuse the same VM (and thus the same bindings) across inputs.
func (vm *VM) GlobalEnv() EnvHandle { return vm.global }

// Cancel requests that a running Run call stop at the next instruction
// boundary and return ErrCancelled. Safe to call from another goroutine,
// e.g. a SIGINT handler — it only ever sets a flag Run polls.
func (vm *VM) Cancel() { atomic.StoreInt32(&vm.cancelled, 1) }

func (vm *VM) newThread(env EnvHandle) *Thread {
	t := &Thread{ID: vm.nextTID, Env: env, State: Ready}
	vm.nextTID++
	return t
}

// Run executes a compiled program to completion (or to a runtime error)
// starting a fresh main thread (id 1) at pc 0 in the global environment.
// Repeated calls on the same VM (as the REPL does) share the global
// environment but each get their own main thread id.
func (vm *VM) Run(code compiler.Bytecode) (Value, error) {
	vm.code = code.Instructions

	main := vm.newThread(vm.global)
	vm.current = main
	vm.threads[main.ID] = main

	vm.lastDispatch = time.Now()
	vm.lastGC = time.Now()

	for vm.current != nil {
		if atomic.LoadInt32(&vm.cancelled) != 0 {
			return Value{}, ErrCancelled
		}
		if err := vm.step(); err != nil {
			return Value{}, err
		}
		if vm.current == nil {
			break
		}
		if time.Since(vm.lastDispatch) >= vm.quantum {
			vm.doYield()
		}
		if vm.current != nil && time.Since(vm.lastGC) >= vm.gcInterval {
			vm.gc()
			vm.lastGC = time.Now()
		}
	}

	if z, ok := vm.zombies[main.ID]; ok {
		delete(vm.zombies, main.ID)
		return z.Terminal, nil
	}
	return Value{}, newRuntimeError(NoReadyThread, "no thread became ready; the program deadlocked before the main thread finished")
}

func (vm *VM) step() error {
	cur := vm.current
	if cur.PC < 0 || cur.PC >= len(vm.code) {
		return newRuntimeError(PcOutOfBounds, "pc %d out of bounds (%d instructions)", cur.PC, len(vm.code))
	}
	instr := vm.code[cur.PC]
	pc := cur.PC
	cur.PC++
	if vm.debug {
		fmt.Fprintf(vm.stdout, "[tid=%d pc=%d] %s\n", cur.ID, pc, instr.String())
	}
	return vm.execute(instr)
}

func (vm *VM) execute(instr compiler.Instruction) error {
	cur := vm.current
	switch instr.Op {
	case compiler.OP_DONE:
		return vm.threadDone()

	case compiler.OP_LDC:
		cur.Operand.Push(FromGoLiteral(instr.Value))
		return nil

	case compiler.OP_LD:
		v, err := vm.reg.lookup(cur.Env, instr.Symbol)
		if err != nil {
			return err
		}
		if v.Kind == Uninitialized {
			return newRuntimeError(UseOfUninitialized, "use of uninitialized name %q", instr.Symbol)
		}
		cur.Operand.Push(v)
		return nil

	case compiler.OP_ASSIGN:
		v, ok := cur.Operand.Pop()
		if !ok {
			return newRuntimeError(OperandUnderflow, "ASSIGN: operand stack is empty")
		}
		return vm.reg.update(cur.Env, instr.Symbol, v)

	case compiler.OP_POP:
		if _, ok := cur.Operand.Pop(); !ok {
			return newRuntimeError(OperandUnderflow, "POP: operand stack is empty")
		}
		return nil

	case compiler.OP_UNOP:
		x, ok := cur.Operand.Pop()
		if !ok {
			return newRuntimeError(OperandUnderflow, "UNOP: operand stack is empty")
		}
		result, err := applyUnary(instr.Unary, x)
		if err != nil {
			return err
		}
		cur.Operand.Push(result)
		return nil

	case compiler.OP_BINOP:
		rhs, ok := cur.Operand.Pop()
		if !ok {
			return newRuntimeError(OperandUnderflow, "BINOP: operand stack is empty")
		}
		lhs, ok := cur.Operand.Pop()
		if !ok {
			return newRuntimeError(OperandUnderflow, "BINOP: operand stack is empty")
		}
		result, err := applyBinary(instr.Binary, lhs, rhs)
		if err != nil {
			return err
		}
		cur.Operand.Push(result)
		return nil

	case compiler.OP_JOF:
		x, ok := cur.Operand.Pop()
		if !ok {
			return newRuntimeError(OperandUnderflow, "JOF: operand stack is empty")
		}
		truthy, err := x.IsTruthy()
		if err != nil {
			return err
		}
		if !truthy {
			cur.PC = instr.Addr
		}
		return nil

	case compiler.OP_GOTO:
		cur.PC = instr.Addr
		return nil

	case compiler.OP_ENTERSCOPE:
		child := vm.reg.alloc(cur.Env, true)
		if err := vm.reg.declare(child, instr.Names); err != nil {
			return err
		}
		cur.Runtime.Push(Frame{Kind: compiler.FRAME_BLOCK, Env: cur.Env})
		cur.Env = child
		return nil

	case compiler.OP_EXITSCOPE:
		frame, ok := cur.Runtime.Pop()
		if !ok || frame.Kind != compiler.FRAME_BLOCK {
			return newRuntimeError(RuntimeStackUnderflow, "EXITSCOPE: no matching BlockFrame")
		}
		cur.Env = frame.Env
		return nil

	case compiler.OP_LDF:
		cur.Operand.Push(ClosureValue(&Closure{
			Source: UserClosure,
			Addr:   instr.Addr,
			Params: instr.Names,
			Env:    cur.Env,
		}))
		return nil

	case compiler.OP_CALL:
		return vm.call(instr.N)

	case compiler.OP_RESET:
		return vm.reset(instr.Frame)

	case compiler.OP_SPAWN:
		return vm.spawn(instr.Addr)

	case compiler.OP_JOIN:
		return vm.join()

	case compiler.OP_YIELD:
		vm.doYield()
		return nil

	case compiler.OP_SEMCREATE:
		// Initial count of 1, distinct from the sem_create() builtin's
		// count of 0. No compiled program reaches this opcode; see
		// DESIGN.md.
		cur.Operand.Push(SemaphoreValue(&Semaphore{Count: 1}))
		return nil

	case compiler.OP_WAIT:
		return vm.wait()

	case compiler.OP_POST:
		return vm.post()

	default:
		return newRuntimeError(TypeErrorKind, "unknown opcode %v", instr.Op)
	}
}

func (vm *VM) call(n int) error {
	cur := vm.current
	args := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		v, ok := cur.Operand.Pop()
		if !ok {
			return newRuntimeError(OperandUnderflow, "CALL: operand stack is empty while popping argument %d", i)
		}
		args[i] = v
	}
	callee, ok := cur.Operand.Pop()
	if !ok {
		return newRuntimeError(OperandUnderflow, "CALL: operand stack is empty while popping callee")
	}
	if callee.Kind != ClosureKind {
		return newRuntimeError(BadType, "CALL: callee is not a Closure, got %s", callee.Kind)
	}
	closure := callee.Closure

	if closure.Source == BuiltinClosure {
		result, err := closure.Builtin(vm, args)
		if err != nil {
			return err
		}
		cur.Operand.Push(result)
		return nil
	}

	if len(closure.Params) != n {
		return newRuntimeError(ArityMismatch, "CALL: %s expects %d argument(s), got %d", closure.Symbol, len(closure.Params), n)
	}

	cur.Runtime.Push(Frame{Kind: compiler.FRAME_CALL, ReturnAddr: cur.PC, HasReturn: true, Env: cur.Env})

	callEnv := vm.reg.alloc(closure.Env, true)
	for i, param := range closure.Params {
		if err := vm.reg.set(callEnv, param, args[i]); err != nil {
			return err
		}
	}
	cur.Env = callEnv
	cur.PC = closure.Addr
	return nil
}

func (vm *VM) reset(kind compiler.FrameKind) error {
	cur := vm.current
	for {
		frame, ok := cur.Runtime.Pop()
		if !ok {
			return newRuntimeError(RuntimeStackUnderflow, "RESET(%s): no matching frame on the runtime stack", kind)
		}
		if frame.Kind != kind {
			continue
		}
		cur.Env = frame.Env
		if frame.HasReturn {
			cur.PC = frame.ReturnAddr
		}
		return nil
	}
}

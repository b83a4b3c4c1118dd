package vm

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// installBuiltins prepopulates the global environment, grounded on
// `_examples/original_source/src/bytecode/src/builtin/{constants,math,conv,
// string,stdin,stdout,semaphore}/*.rs`: each builtin there is a Closure
// value wrapping a native implementation function, which is exactly how
// Closure{Builtin, ...} + CALL's native-dispatch branch works here.
func (vm *VM) installBuiltins() {
	set := func(name string, v Value) {
		if err := vm.reg.set(vm.global, name, v); err != nil {
			panic(fmt.Sprintf("vm: installing builtin %q: %v", name, err))
		}
	}

	set("true", BoolValue(true))
	set("false", BoolValue(false))
	set("PI", FloatValue(math.Pi))
	set("E", FloatValue(math.E))
	set("MAX_INT", IntValue(math.MaxInt64))
	set("MIN_INT", IntValue(math.MinInt64))
	set("MAX_FLOAT", FloatValue(math.MaxFloat64))
	set("MIN_FLOAT", FloatValue(-math.MaxFloat64))
	set("EPSILON", FloatValue(epsilonFloat64))

	builtin := func(name string, params []string, fn BuiltinFunc) {
		set(name, ClosureValue(&Closure{
			Source:  BuiltinClosure,
			Symbol:  name,
			Params:  params,
			Builtin: fn,
		}))
	}

	builtin("read_line", nil, builtinReadLine)
	builtin("print", []string{"v"}, builtinPrint)
	builtin("println", []string{"v"}, builtinPrintln)

	builtin("string_len", []string{"s"}, builtinStringLen)

	builtin("abs", []string{"x"}, builtinAbs)
	builtin("cos", []string{"x"}, floatUnary(math.Cos))
	builtin("sin", []string{"x"}, floatUnary(math.Sin))
	builtin("tan", []string{"x"}, floatUnary(math.Tan))
	builtin("sqrt", []string{"x"}, floatUnary(math.Sqrt))
	builtin("log", []string{"x"}, floatUnary(math.Log10))
	builtin("pow", []string{"base", "exp"}, builtinPow)
	builtin("min", []string{"v1", "v2"}, builtinMin)
	builtin("max", []string{"v1", "v2"}, builtinMax)

	builtin("int_to_float", []string{"x"}, builtinIntToFloat)
	builtin("float_to_int", []string{"x"}, builtinFloatToInt)
	builtin("atoi", []string{"s"}, builtinAtoi)
	builtin("itoa", []string{"i"}, builtinItoa)

	builtin("sem_create", nil, builtinSemCreate)
	builtin("sem_set", []string{"s", "n"}, builtinSemSet)
}

// epsilonFloat64 mirrors Rust's f64::EPSILON (the difference between 1.0
// and the next representable float64), which Go's math package does not
// expose as a named constant.
const epsilonFloat64 = 2.220446049250313e-16

func wantArgs(args []Value, n int) error {
	if len(args) != n {
		return newRuntimeError(ArityMismatch, "expected %d argument(s), got %d", n, len(args))
	}
	return nil
}

func builtinReadLine(vm *VM, args []Value) (Value, error) {
	if err := wantArgs(args, 0); err != nil {
		return Value{}, err
	}
	if vm.in == nil {
		vm.in = bufio.NewReader(vm.stdin)
	}
	line, err := vm.in.ReadString('\n')
	if err != nil && line == "" {
		return Value{}, newRuntimeError(TypeErrorKind, "read_line: %v", err)
	}
	return StringValue(strings.TrimRight(line, "\r\n")), nil
}

func builtinPrint(vm *VM, args []Value) (Value, error) {
	if err := wantArgs(args, 1); err != nil {
		return Value{}, err
	}
	fmt.Fprint(vm.stdout, args[0].String())
	return UnitValue(), nil
}

func builtinPrintln(vm *VM, args []Value) (Value, error) {
	if err := wantArgs(args, 1); err != nil {
		return Value{}, err
	}
	fmt.Fprintln(vm.stdout, args[0].String())
	return UnitValue(), nil
}

func builtinStringLen(vm *VM, args []Value) (Value, error) {
	if err := wantArgs(args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind != StringKind {
		return Value{}, newRuntimeError(TypeErrorKind, "string_len expects a String, got %s", args[0].Kind)
	}
	return IntValue(int64(len(args[0].Str))), nil
}

func builtinAbs(vm *VM, args []Value) (Value, error) {
	if err := wantArgs(args, 1); err != nil {
		return Value{}, err
	}
	switch args[0].Kind {
	case IntKind:
		x := args[0].Int
		if x < 0 {
			x = -x
		}
		return IntValue(x), nil
	case FloatKind:
		return FloatValue(math.Abs(args[0].Float)), nil
	default:
		return Value{}, newRuntimeError(TypeErrorKind, "abs expects Int or Float, got %s", args[0].Kind)
	}
}

// floatUnary adapts a math.* float64->float64 function into a BuiltinFunc
// over a single Float argument, used for the trig/log/sqrt family, which
// always computes in floating point.
func floatUnary(fn func(float64) float64) BuiltinFunc {
	return func(vm *VM, args []Value) (Value, error) {
		if err := wantArgs(args, 1); err != nil {
			return Value{}, err
		}
		if args[0].Kind != FloatKind {
			return Value{}, newRuntimeError(TypeErrorKind, "expected a Float argument, got %s", args[0].Kind)
		}
		return FloatValue(fn(args[0].Float)), nil
	}
}

func builtinPow(vm *VM, args []Value) (Value, error) {
	if err := wantArgs(args, 2); err != nil {
		return Value{}, err
	}
	switch {
	case args[0].Kind == IntKind && args[1].Kind == IntKind:
		return IntValue(int64(math.Pow(float64(args[0].Int), float64(args[1].Int)))), nil
	case args[0].Kind == FloatKind && args[1].Kind == FloatKind:
		return FloatValue(math.Pow(args[0].Float, args[1].Float)), nil
	default:
		return Value{}, newRuntimeError(TypeErrorKind, "pow requires matching Int/Int or Float/Float operands, got %s/%s", args[0].Kind, args[1].Kind)
	}
}

func builtinMin(vm *VM, args []Value) (Value, error) {
	return minMax(args, false)
}

func builtinMax(vm *VM, args []Value) (Value, error) {
	return minMax(args, true)
}

func minMax(args []Value, wantMax bool) (Value, error) {
	if err := wantArgs(args, 2); err != nil {
		return Value{}, err
	}
	switch {
	case args[0].Kind == IntKind && args[1].Kind == IntKind:
		if (args[0].Int > args[1].Int) == wantMax {
			return args[0], nil
		}
		return args[1], nil
	case args[0].Kind == FloatKind && args[1].Kind == FloatKind:
		if (args[0].Float > args[1].Float) == wantMax {
			return args[0], nil
		}
		return args[1], nil
	default:
		return Value{}, newRuntimeError(TypeErrorKind, "min/max requires matching Int/Int or Float/Float operands, got %s/%s", args[0].Kind, args[1].Kind)
	}
}

func builtinIntToFloat(vm *VM, args []Value) (Value, error) {
	if err := wantArgs(args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind != IntKind {
		return Value{}, newRuntimeError(TypeErrorKind, "int_to_float expects an Int, got %s", args[0].Kind)
	}
	return FloatValue(float64(args[0].Int)), nil
}

func builtinFloatToInt(vm *VM, args []Value) (Value, error) {
	if err := wantArgs(args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind != FloatKind {
		return Value{}, newRuntimeError(TypeErrorKind, "float_to_int expects a Float, got %s", args[0].Kind)
	}
	return IntValue(int64(args[0].Float)), nil
}

func builtinAtoi(vm *VM, args []Value) (Value, error) {
	if err := wantArgs(args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind != StringKind {
		return Value{}, newRuntimeError(TypeErrorKind, "atoi expects a String, got %s", args[0].Kind)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(args[0].Str), 10, 64)
	if err != nil {
		return Value{}, newRuntimeError(TypeErrorKind, "atoi: %v", err)
	}
	return IntValue(n), nil
}

func builtinItoa(vm *VM, args []Value) (Value, error) {
	if err := wantArgs(args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind != IntKind {
		return Value{}, newRuntimeError(TypeErrorKind, "itoa expects an Int, got %s", args[0].Kind)
	}
	return StringValue(strconv.FormatInt(args[0].Int, 10)), nil
}

// builtinSemCreate uses an initial count of 0, not the 1 a bare SEMCREATE
// opcode produces — see DESIGN.md's compiler section for why the compiler
// never emits SEMCREATE from source.
func builtinSemCreate(vm *VM, args []Value) (Value, error) {
	if err := wantArgs(args, 0); err != nil {
		return Value{}, err
	}
	return SemaphoreValue(&Semaphore{Count: 0}), nil
}

func builtinSemSet(vm *VM, args []Value) (Value, error) {
	if err := wantArgs(args, 2); err != nil {
		return Value{}, err
	}
	if args[0].Kind != SemaphoreKind {
		return Value{}, newRuntimeError(TypeErrorKind, "sem_set expects a Semaphore, got %s", args[0].Kind)
	}
	if args[1].Kind != IntKind {
		return Value{}, newRuntimeError(TypeErrorKind, "sem_set expects an Int count, got %s", args[1].Kind)
	}
	args[0].Sem.Count = args[1].Int
	return UnitValue(), nil
}

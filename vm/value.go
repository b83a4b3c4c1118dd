package vm

import "fmt"

// ValueKind tags the variant carried by a Value.
type ValueKind int

const (
	Uninitialized ValueKind = iota
	Unit
	IntKind
	FloatKind
	BoolKind
	StringKind
	SemaphoreKind
	ClosureKind
)

func (k ValueKind) String() string {
	switch k {
	case Uninitialized:
		return "Uninitialized"
	case Unit:
		return "Unit"
	case IntKind:
		return "Int"
	case FloatKind:
		return "Float"
	case BoolKind:
		return "Bool"
	case StringKind:
		return "String"
	case SemaphoreKind:
		return "Semaphore"
	case ClosureKind:
		return "Closure"
	default:
		return "Unknown"
	}
}

// ClosureSource distinguishes a user-defined closure (has a code address to
// jump to) from a builtin (native Go implementation).
type ClosureSource int

const (
	UserClosure ClosureSource = iota
	BuiltinClosure
)

// Semaphore is a shared, reference-counted, non-negative counter.
// Equality is identity of the underlying counter, which falls naturally out
// of comparing the *Semaphore pointer itself.
type Semaphore struct {
	Count int64
}

// Closure is a first-class function value: a User closure carries a code
// address and the environment captured at LDF time; a Builtin closure
// carries a native Go function instead and Addr/Env are unused.
type Closure struct {
	Source  ClosureSource
	Symbol  string
	Params  []string
	Addr    int
	Env     EnvHandle
	Builtin BuiltinFunc
}

// BuiltinFunc is the native implementation behind a Builtin closure. It
// receives the already-popped, left-to-right ordered argument values.
type BuiltinFunc func(vm *VM, args []Value) (Value, error)

// Value is the VM's tagged union. Only the field matching Kind is
// meaningful; the others are left at their zero value.
type Value struct {
	Kind    ValueKind
	Int     int64
	Float   float64
	Bool    bool
	Str     string
	Sem     *Semaphore
	Closure *Closure
}

func UnitValue() Value                { return Value{Kind: Unit} }
func UninitializedValue() Value       { return Value{Kind: Uninitialized} }
func IntValue(v int64) Value          { return Value{Kind: IntKind, Int: v} }
func FloatValue(v float64) Value      { return Value{Kind: FloatKind, Float: v} }
func BoolValue(v bool) Value          { return Value{Kind: BoolKind, Bool: v} }
func StringValue(v string) Value      { return Value{Kind: StringKind, Str: v} }
func SemaphoreValue(s *Semaphore) Value {
	return Value{Kind: SemaphoreKind, Sem: s}
}
func ClosureValue(c *Closure) Value { return Value{Kind: ClosureKind, Closure: c} }

// FromGoLiteral converts a compiler.Instruction's LDC payload (a Go literal
// decoded from source: nil, int64, float64, bool, or string) into a Value.
func FromGoLiteral(v any) Value {
	switch lit := v.(type) {
	case nil:
		return UnitValue()
	case int64:
		return IntValue(lit)
	case float64:
		return FloatValue(lit)
	case bool:
		return BoolValue(lit)
	case string:
		return StringValue(lit)
	default:
		panic(fmt.Sprintf("vm: unrepresentable literal %v (%T)", v, v))
	}
}

func (v Value) String() string {
	switch v.Kind {
	case Uninitialized:
		return "<uninitialized>"
	case Unit:
		return "()"
	case IntKind:
		return fmt.Sprintf("%d", v.Int)
	case FloatKind:
		return fmt.Sprintf("%g", v.Float)
	case BoolKind:
		return fmt.Sprintf("%t", v.Bool)
	case StringKind:
		return v.Str
	case SemaphoreKind:
		return fmt.Sprintf("Semaphore(%d)", v.Sem.Count)
	case ClosureKind:
		return fmt.Sprintf("<fn %s/%d>", v.Closure.Symbol, len(v.Closure.Params))
	default:
		return "<?>"
	}
}

func (v Value) IsTruthy() (bool, error) {
	if v.Kind != BoolKind {
		return false, newRuntimeError(TypeErrorKind, "condition must be Bool, got %s", v.Kind)
	}
	return v.Bool, nil
}

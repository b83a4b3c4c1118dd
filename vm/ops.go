package vm

import "oxidate/compiler"

// applyUnary implements UNOP. Neg works on Int or Float; Not only
// type-checks on Bool — integer bitwise-not is rejected by the type
// checker, so a runtime Not on a non-Bool is unreachable from a checked
// program and is rejected here too for defense when the type checker is
// bypassed (REPL's `-n`/`--notype`).
func applyUnary(op compiler.UnaryOp, x Value) (Value, error) {
	switch op {
	case compiler.UNOP_NEG:
		switch x.Kind {
		case IntKind:
			return IntValue(-x.Int), nil
		case FloatKind:
			return FloatValue(-x.Float), nil
		default:
			return Value{}, newRuntimeError(TypeErrorKind, "unary '-' expects Int or Float, got %s", x.Kind)
		}
	case compiler.UNOP_NOT:
		if x.Kind != BoolKind {
			return Value{}, newRuntimeError(TypeErrorKind, "unary '!' expects Bool, got %s", x.Kind)
		}
		return BoolValue(!x.Bool), nil
	default:
		return Value{}, newRuntimeError(TypeErrorKind, "unknown unary operator %v", op)
	}
}

// applyBinary implements BINOP. Integer arithmetic wraps on overflow
// (Go's native int64 overflow behavior, taken as-is). Equality is
// restricted to Int/Float/Bool/String/
// Unit and Semaphore-by-identity; Closure equality is a TypeError (decision
// 3), since structural equality across distinct captured environments
// isn't meaningful.
func applyBinary(op compiler.BinaryOp, lhs, rhs Value) (Value, error) {
	switch op {
	case compiler.BINOP_ADD:
		return arith(op, lhs, rhs)
	case compiler.BINOP_SUB, compiler.BINOP_MUL, compiler.BINOP_DIV, compiler.BINOP_MOD:
		return arith(op, lhs, rhs)
	case compiler.BINOP_LT, compiler.BINOP_LTE, compiler.BINOP_GT, compiler.BINOP_GTE:
		return compare(op, lhs, rhs)
	case compiler.BINOP_EQ:
		return equals(lhs, rhs, false)
	case compiler.BINOP_NEQ:
		return equals(lhs, rhs, true)
	default:
		return Value{}, newRuntimeError(TypeErrorKind, "unknown binary operator %v", op)
	}
}

func arith(op compiler.BinaryOp, lhs, rhs Value) (Value, error) {
	if lhs.Kind == StringKind && rhs.Kind == StringKind {
		if op != compiler.BINOP_ADD {
			return Value{}, newRuntimeError(TypeErrorKind, "operator %v not supported on String", op)
		}
		return StringValue(lhs.Str + rhs.Str), nil
	}
	if lhs.Kind == IntKind && rhs.Kind == IntKind {
		switch op {
		case compiler.BINOP_ADD:
			return IntValue(lhs.Int + rhs.Int), nil
		case compiler.BINOP_SUB:
			return IntValue(lhs.Int - rhs.Int), nil
		case compiler.BINOP_MUL:
			return IntValue(lhs.Int * rhs.Int), nil
		case compiler.BINOP_DIV:
			if rhs.Int == 0 {
				return Value{}, newRuntimeError(TypeErrorKind, "integer division by zero")
			}
			return IntValue(lhs.Int / rhs.Int), nil
		case compiler.BINOP_MOD:
			if rhs.Int == 0 {
				return Value{}, newRuntimeError(TypeErrorKind, "integer modulo by zero")
			}
			return IntValue(lhs.Int % rhs.Int), nil
		}
	}
	if lhs.Kind == FloatKind && rhs.Kind == FloatKind {
		switch op {
		case compiler.BINOP_ADD:
			return FloatValue(lhs.Float + rhs.Float), nil
		case compiler.BINOP_SUB:
			return FloatValue(lhs.Float - rhs.Float), nil
		case compiler.BINOP_MUL:
			return FloatValue(lhs.Float * rhs.Float), nil
		case compiler.BINOP_DIV:
			return FloatValue(lhs.Float / rhs.Float), nil
		case compiler.BINOP_MOD:
			return Value{}, newRuntimeError(TypeErrorKind, "'%%' is not defined on Float")
		}
	}
	return Value{}, newRuntimeError(TypeErrorKind, "operator %v not supported between %s and %s", op, lhs.Kind, rhs.Kind)
}

func compare(op compiler.BinaryOp, lhs, rhs Value) (Value, error) {
	var less, equal bool
	switch {
	case lhs.Kind == IntKind && rhs.Kind == IntKind:
		less, equal = lhs.Int < rhs.Int, lhs.Int == rhs.Int
	case lhs.Kind == FloatKind && rhs.Kind == FloatKind:
		less, equal = lhs.Float < rhs.Float, lhs.Float == rhs.Float
	default:
		return Value{}, newRuntimeError(TypeErrorKind, "comparison requires matching Int/Int or Float/Float operands, got %s/%s", lhs.Kind, rhs.Kind)
	}
	switch op {
	case compiler.BINOP_LT:
		return BoolValue(less), nil
	case compiler.BINOP_LTE:
		return BoolValue(less || equal), nil
	case compiler.BINOP_GT:
		return BoolValue(!less && !equal), nil
	case compiler.BINOP_GTE:
		return BoolValue(!less), nil
	default:
		return Value{}, newRuntimeError(TypeErrorKind, "unknown comparison operator %v", op)
	}
}

func equals(lhs, rhs Value, negate bool) (Value, error) {
	if lhs.Kind != rhs.Kind {
		return Value{}, newRuntimeError(TypeErrorKind, "'==' requires operands of the same kind, got %s and %s", lhs.Kind, rhs.Kind)
	}
	var eq bool
	switch lhs.Kind {
	case Unit:
		eq = true
	case IntKind:
		eq = lhs.Int == rhs.Int
	case FloatKind:
		eq = lhs.Float == rhs.Float
	case BoolKind:
		eq = lhs.Bool == rhs.Bool
	case StringKind:
		eq = lhs.Str == rhs.Str
	case SemaphoreKind:
		eq = lhs.Sem == rhs.Sem
	default:
		return Value{}, newRuntimeError(TypeErrorKind, "'==' is not defined on %s", lhs.Kind)
	}
	if negate {
		eq = !eq
	}
	return BoolValue(eq), nil
}

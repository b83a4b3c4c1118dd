package types

// fnType is a small constructor for Type{Kind: Fn}.
func fnType(ret Type, params ...Type) Type {
	r := ret
	return Type{Kind: Fn, Params: params, Return: &r}
}

// builtinConstants mirrors the constant half of the builtin table: names
// prepopulated into the global environment with fixed types.
var builtinConstants = map[string]Type{
	"PI":         TyFloat,
	"E":          TyFloat,
	"MAX_INT":    TyInt,
	"MIN_INT":    TyInt,
	"MAX_FLOAT":  TyFloat,
	"MIN_FLOAT":  TyFloat,
	"EPSILON":    TyFloat,
}

// builtinFns mirrors the fixed-signature half of the builtin table.
// `print`/`println` accept any single argument, modeled as Dynamic so no
// spurious mismatch is raised regardless of what's passed.
var builtinFns = map[string]Type{
	"read_line":     fnType(TyString),
	"print":         fnType(TyUnit, TyDynamic),
	"println":       fnType(TyUnit, TyDynamic),
	"string_len":    fnType(TyInt, TyString),
	"int_to_float":  fnType(TyFloat, TyInt),
	"float_to_int":  fnType(TyInt, TyFloat),
	"atoi":          fnType(TyInt, TyString),
	"itoa":          fnType(TyString, TyInt),
	"sem_create":    fnType(TySemaphore),
	"sem_set":       fnType(TyUnit, TySemaphore, TyInt),
}

// polymorphicUnaryMath are the arity-1 math builtins that are polymorphic
// over Int/Float with exact type match: the argument's type, whichever
// it is, is also the result type.
var polymorphicUnaryMath = map[string]bool{
	"abs": true, "cos": true, "sin": true, "tan": true, "sqrt": true, "log": true,
}

// polymorphicBinaryMath are the arity-2 math builtins with the same
// polymorphism rule, requiring both arguments to share one numeric type.
var polymorphicBinaryMath = map[string]bool{
	"pow": true, "min": true, "max": true,
}

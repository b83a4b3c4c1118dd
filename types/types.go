// Package types implements the static type checker: the external
// collaborator that filters compiler input.
// Its internal behavior — scoped environments, cascading-error recovery,
// per-construct diagnostics — is grounded directly on the original
// implementation's types crate, since the Go corpus has no type checker
// of its own to imitate.
package types

import "fmt"

// Kind is the tag of a checked type.
type Kind int

const (
	Unit Kind = iota
	Int
	Float
	Bool
	String
	Semaphore
	Fn
	// Dynamic stands for a value whose static type cannot be known ahead
	// of time — currently only the result of `join`, since a thread's
	// terminal value depends on whichever function happened to run in
	// it. Equal always succeeds against Dynamic so it doesn't cascade
	// spurious mismatches into the rest of a program.
	Dynamic
)

func (k Kind) String() string {
	switch k {
	case Unit:
		return "()"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Semaphore:
		return "semaphore"
	case Fn:
		return "fn"
	case Dynamic:
		return "?"
	default:
		return "unknown"
	}
}

// Type is a checked type: a primitive kind, or (when Kind == Fn) a
// function signature.
type Type struct {
	Kind   Kind
	Params []Type
	Return *Type
}

var (
	TyUnit      = Type{Kind: Unit}
	TyInt       = Type{Kind: Int}
	TyFloat     = Type{Kind: Float}
	TyBool      = Type{Kind: Bool}
	TyString    = Type{Kind: String}
	TySemaphore = Type{Kind: Semaphore}
	TyDynamic   = Type{Kind: Dynamic}
)

func isNumeric(t Type) bool { return t.Kind == Int || t.Kind == Float }

// Equal reports structural equality, treating Dynamic as a wildcard.
func (t Type) Equal(other Type) bool {
	if t.Kind == Dynamic || other.Kind == Dynamic {
		return true
	}
	if t.Kind != other.Kind {
		return false
	}
	if t.Kind != Fn {
		return true
	}
	if len(t.Params) != len(other.Params) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equal(other.Params[i]) {
			return false
		}
	}
	switch {
	case t.Return == nil && other.Return == nil:
		return true
	case t.Return == nil || other.Return == nil:
		return false
	default:
		return t.Return.Equal(*other.Return)
	}
}

func (t Type) String() string {
	if t.Kind != Fn {
		return t.Kind.String()
	}
	ret := "()"
	if t.Return != nil {
		ret = t.Return.String()
	}
	s := "fn("
	for i, p := range t.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return fmt.Sprintf("%s) -> %s", s, ret)
}

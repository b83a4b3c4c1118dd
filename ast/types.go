// types.go defines the shape of parsed type annotations. Type annotations
// are surface syntax consumed only by the external type checker — they
// carry no runtime weight in the compiler or VM.

package ast

import "fmt"

// TypeAnn is a parsed type annotation: a primitive name (`int`, `float`,
// `bool`, `string`) or a function type `fn(T1, T2) -> Tout`.
type TypeAnn struct {
	Name    string    // "int", "float", "bool", "string", or "fn" for function types
	Params  []TypeAnn // parameter types, only set when Name == "fn"
	Return  *TypeAnn  // return type, only set when Name == "fn"
}

func (t TypeAnn) String() string {
	if t.Name != "fn" {
		return t.Name
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

// Equal reports whether two type annotations denote the same type.
func (t TypeAnn) Equal(other TypeAnn) bool {
	if t.Name != other.Name {
		return false
	}
	if t.Name != "fn" {
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

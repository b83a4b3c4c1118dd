package types

import "fmt"

// Diagnostics accumulates type errors for one check pass. Fatal marks an
// error severe enough that the enclosing block must stop checking further
// declarations (e.g. an initializer with no type annotation whose own
// type couldn't be determined) — mirroring the original checker's
// decl_errs.cont flag, inverted into Go's zero-value-is-safe convention.
type Diagnostics struct {
	Errors []string
	Fatal  bool
}

func (d *Diagnostics) Add(format string, args ...any) {
	d.Errors = append(d.Errors, fmt.Sprintf(format, args...))
}

func (d *Diagnostics) Ok() bool { return len(d.Errors) == 0 }

// Append merges another Diagnostics into d. A Fatal child makes d Fatal.
func (d *Diagnostics) Append(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	if other.Fatal {
		d.Fatal = true
	}
}

package vm

import "strings"

// Var is a named 32-bit variable.
type Var struct {
	Name  string
	Value int32
}

// VarTable is a flat, insertion-ordered variable store. Programs touch a
// handful of names, so lookups are a linear scan.
type VarTable struct {
	vars []Var
}

// Get returns the value bound to name.
func (t *VarTable) Get(name string) (int32, bool) {
	for i := range t.vars {
		if t.vars[i].Name == name {
			return t.vars[i].Value, true
		}
	}
	return 0, false
}

// Set binds name to v, overwriting any existing binding.
func (t *VarTable) Set(name string, v int32) {
	for i := range t.vars {
		if t.vars[i].Name == name {
			t.vars[i].Value = v
			return
		}
	}
	t.vars = append(t.vars, Var{Name: name, Value: v})
}

func (t *VarTable) Len() int { return len(t.vars) }

// Snapshot returns a copy of all bindings in first-write order.
func (t *VarTable) Snapshot() []Var {
	out := make([]Var, len(t.vars))
	copy(out, t.vars)
	return out
}

// Unquote strips the single quotes from a variable token such as 'x'.
// The token must start and end with a quote and hold at least one
// character between them.
func Unquote(token string) (string, bool) {
	if len(token) < 3 || !strings.HasPrefix(token, "'") || !strings.HasSuffix(token, "'") {
		return "", false
	}
	return token[1 : len(token)-1], true
}

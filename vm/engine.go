package vm

import "strconv"

// Engine owns the operand stack and the variable table and implements the
// semantics of every data-manipulating opcode. It knows nothing about
// program counters or control flow; the dispatch loop drives it.
//
// Binary operations pop the top of the stack first (left) and the value
// beneath it second (right), and compute left OP right.
type Engine struct {
	stack *Stack
	vars  VarTable
}

// NewEngine returns an engine with an operand stack of the given capacity.
func NewEngine(stackSize int) *Engine {
	return &Engine{stack: NewStack(stackSize)}
}

// ---------------------------------------------------------------------------
// Stack helpers
// ---------------------------------------------------------------------------

func (e *Engine) push(v int32) error {
	if !e.stack.Push(v) {
		return Errorf(KindStackOverflow, "cannot push %d: stack holds %d values", v, e.stack.Cap())
	}
	return nil
}

func (e *Engine) pop(op string) (int32, error) {
	v, ok := e.stack.Pop()
	if !ok {
		return 0, Errorf(KindInternal, "%s: operand stack is empty", op)
	}
	return v, nil
}

func (e *Engine) popPair(op string) (left, right int32, err error) {
	if left, err = e.pop(op); err != nil {
		return 0, 0, err
	}
	if right, err = e.pop(op); err != nil {
		return 0, 0, err
	}
	return left, right, nil
}

// ---------------------------------------------------------------------------
// Values and variables
// ---------------------------------------------------------------------------

// ParseValue parses a base-10 32-bit integer literal with an optional sign.
func ParseValue(token string) (int32, error) {
	n, err := strconv.ParseInt(token, 10, 32)
	if err != nil {
		return 0, Errorf(KindSyntax, "invalid integer literal %q", token)
	}
	return int32(n), nil
}

// LoadValue parses token as an integer and pushes it.
func (e *Engine) LoadValue(token string) error {
	v, err := ParseValue(token)
	if err != nil {
		return err
	}
	return e.push(v)
}

// WriteVar pops the top of the stack into the variable named by token.
func (e *Engine) WriteVar(token string) error {
	name, ok := Unquote(token)
	if !ok {
		return Errorf(KindSyntax, "invalid variable name %s: expected 'name'", token)
	}
	v, err := e.pop("WRITE_VAR")
	if err != nil {
		return err
	}
	e.vars.Set(name, v)
	return nil
}

// ReadVar pushes the value of the variable named by token.
func (e *Engine) ReadVar(token string) error {
	name, ok := Unquote(token)
	if !ok {
		return Errorf(KindSyntax, "invalid variable name %s: expected 'name'", token)
	}
	v, found := e.vars.Get(name)
	if !found {
		return Errorf(KindUndefinedVar, "variable '%s' was never written", name)
	}
	return e.push(v)
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

// Arithmetic wraps on overflow.

func (e *Engine) Add() error {
	l, r, err := e.popPair("ADD")
	if err != nil {
		return err
	}
	return e.push(l + r)
}

func (e *Engine) Subtract() error {
	l, r, err := e.popPair("SUBTRACT")
	if err != nil {
		return err
	}
	return e.push(l - r)
}

func (e *Engine) Multiply() error {
	l, r, err := e.popPair("MULTIPLY")
	if err != nil {
		return err
	}
	return e.push(l * r)
}

// Divide truncates toward zero. A zero divisor is an internal error.
func (e *Engine) Divide() error {
	l, r, err := e.popPair("DIVIDE")
	if err != nil {
		return err
	}
	if r == 0 {
		return Errorf(KindInternal, "division by zero")
	}
	return e.push(l / r)
}

// ---------------------------------------------------------------------------
// Comparison and return
// ---------------------------------------------------------------------------

// IsEqual pops two values and reports whether they are equal.
// Nothing is pushed back.
func (e *Engine) IsEqual() (bool, error) {
	l, r, err := e.popPair("JUMP_IF_EQ")
	if err != nil {
		return false, err
	}
	return l == r, nil
}

// ReturnValue pops and returns the program result.
func (e *Engine) ReturnValue() (int32, error) {
	return e.pop("RETURN_VALUE")
}

// ---------------------------------------------------------------------------
// Inspection
// ---------------------------------------------------------------------------

// Lookup returns the current value of a variable by bare name.
func (e *Engine) Lookup(name string) (int32, bool) {
	return e.vars.Get(name)
}

// Variables returns every variable in first-write order.
func (e *Engine) Variables() []Var {
	return e.vars.Snapshot()
}

// Depth returns the number of values on the operand stack.
func (e *Engine) Depth() int {
	return e.stack.Len()
}

// StackValues returns the operand stack contents, bottom first.
func (e *Engine) StackValues() []int32 {
	return e.stack.Values()
}

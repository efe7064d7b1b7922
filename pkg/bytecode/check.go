package bytecode

import (
	"fmt"

	"github.com/chazu/bcvm/vm"
)

// Severity ranks a Diagnostic.
type Severity int

const (
	SeverityError   Severity = iota + 1 // the program fails if this instruction runs
	SeverityWarning                     // legal, but probably not what was meant
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Diagnostic is a problem found by Check without running the program.
type Diagnostic struct {
	PC       int
	Line     int
	Severity Severity
	Op       string // opcode token of the offending instruction
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Severity, d.Message)
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Check performs static checks on a program. It reports problems the
// dispatch loop would raise at run time, plus a few structural warnings
// such as nested loops, which the single bookmark does not support.
// Diagnostics are ordered by program counter.
func Check(p *Program) []Diagnostic {
	var diags []Diagnostic
	report := func(pc int, sev Severity, format string, args ...any) {
		in := p.Instructions[pc]
		diags = append(diags, Diagnostic{
			PC:       pc,
			Line:     in.Line,
			Severity: sev,
			Op:       in.Name,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	loops := p.Loops()
	loopAt := make(map[int]Loop, len(loops))
	for _, l := range loops {
		loopAt[l.Head] = l
	}
	insideLoop := func(pc int) bool {
		for _, l := range loops {
			if l.End >= 0 && pc > l.Head && pc < l.End {
				return true
			}
		}
		return false
	}

	written := make(map[string]bool)
	seenJump := false
	pendingEnd := -1
	returned := false

	for pc, in := range p.Instructions {
		if returned {
			report(pc, SeverityWarning, "unreachable: follows an unconditional RETURN_VALUE")
			returned = false
		}
		if pendingEnd >= 0 && pc > pendingEnd {
			pendingEnd = -1
		}

		switch in.Op {
		case OpInvalid:
			report(pc, SeverityError, "unknown opcode %s", in.Name)
			continue

		case OpLoadVal, OpWriteVar, OpReadVar:
			if len(in.Args) != 1 {
				report(pc, SeverityError, "%s takes 1 argument, got %d", in.Name, len(in.Args))
				continue
			}
		}

		switch in.Op {
		case OpLoadVal:
			if _, err := vm.ParseValue(in.Args[0]); err != nil {
				report(pc, SeverityError, "invalid integer literal %s", in.Args[0])
			}

		case OpWriteVar, OpReadVar:
			name, ok := vm.Unquote(in.Args[0])
			if !ok {
				report(pc, SeverityError, "invalid variable name %s: expected 'name'", in.Args[0])
				break
			}
			if in.Op == OpWriteVar {
				written[name] = true
			} else if !written[name] {
				report(pc, SeverityWarning, "'%s' is read before any WRITE_VAR", name)
			}

		case OpJumpIfEq:
			seenJump = true
			l := loopAt[pc]
			if pc < 2 {
				report(pc, SeverityError, "JUMP_IF_EQ needs two instructions before it to compare and loop back to")
			}
			if l.End < 0 {
				report(pc, SeverityError, "JUMP_IF_EQ has no following END")
				break
			}
			if pendingEnd >= 0 {
				report(pc, SeverityWarning, "nested JUMP_IF_EQ: loops do not nest, the outer loop's END will return here")
			}
			pendingEnd = l.End

		case OpEnd:
			if !seenJump {
				report(pc, SeverityError, "END has no preceding JUMP_IF_EQ")
			}

		case OpReturnValue:
			if !insideLoop(pc) {
				returned = true
			}
		}
	}
	return diags
}

package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the program.
func (p *Program) Disassemble() string {
	return p.DisassembleWithName("")
}

// DisassembleWithName returns a human-readable listing with a name header.
func (p *Program) DisassembleWithName(name string) string {
	var sb strings.Builder

	loops := p.Loops()
	heads := make(map[int]Loop, len(loops))
	exits := make(map[int][]int)
	for _, l := range loops {
		heads[l.Head] = l
		if l.End >= 0 {
			exits[l.End] = append(exits[l.End], l.Head)
		}
	}

	// Header
	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; Instructions: %d\n", p.Len()))
	sb.WriteString(fmt.Sprintf("; Loops: %d\n", len(loops)))
	sb.WriteString("\n")

	// Code section
	sb.WriteString("; Code:\n")
	for pc, in := range p.Instructions {
		line := disassembleInstruction(in)
		note := ""
		switch in.Op {
		case OpJumpIfEq:
			if l := heads[pc]; l.End >= 0 {
				note = fmt.Sprintf("loop head, -> %04d", l.End+1)
			} else {
				note = "loop head, no END"
			}
		case OpEnd:
			if hs := exits[pc]; len(hs) > 0 {
				back := hs[len(hs)-1] - 2
				note = fmt.Sprintf("<- %04d", max(back, 0))
			} else {
				note = "no JUMP_IF_EQ"
			}
		case OpInvalid:
			note = "unknown opcode"
		}

		if note != "" {
			sb.WriteString(fmt.Sprintf("%04d  %-28s ; line %d, %s\n", pc, line, in.Line, note))
		} else {
			sb.WriteString(fmt.Sprintf("%04d  %-28s ; line %d\n", pc, line, in.Line))
		}
	}

	return sb.String()
}

// disassembleInstruction formats a single instruction.
func disassembleInstruction(in Instruction) string {
	if len(in.Args) == 0 {
		return in.Name
	}
	return fmt.Sprintf("%-12s %s", in.Name, strings.Join(in.Args, " "))
}

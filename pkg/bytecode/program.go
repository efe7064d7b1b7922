package bytecode

import (
	"strings"
)

// Instruction is one decoded program line.
type Instruction struct {
	Op   Opcode   // OpInvalid if Name is not a known opcode
	Name string   // opcode token as written
	Args []string // remaining whitespace-separated fields
	Line int      // 1-based line in the source text
}

// Arg returns the i'th argument, or "" if absent.
func (in Instruction) Arg(i int) string {
	if i < len(in.Args) {
		return in.Args[i]
	}
	return ""
}

// Text reconstructs the normalized instruction line.
func (in Instruction) Text() string {
	if len(in.Args) == 0 {
		return in.Name
	}
	return in.Name + " " + strings.Join(in.Args, " ")
}

// Program is an immutable, ordered sequence of instructions indexed by a
// zero-based program counter. Blank lines in the source do not occupy a
// program counter slot.
type Program struct {
	Instructions []Instruction
}

// Parse decodes program text. Each non-blank line is trimmed and split on
// whitespace; the first field is the opcode. Parse never fails: unknown
// opcodes and malformed arguments are reported when the instruction runs
// or by Check.
func Parse(text string) *Program {
	return ParseLines(strings.Split(text, "\n"))
}

// ParseLines decodes pre-split lines. Line numbers count every element of
// lines, blank or not.
func ParseLines(lines []string) *Program {
	p := &Program{Instructions: make([]Instruction, 0, len(lines))}
	for i, raw := range lines {
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}
		op, _ := LookupOpcode(fields[0])
		p.Instructions = append(p.Instructions, Instruction{
			Op:   op,
			Name: fields[0],
			Args: fields[1:],
			Line: i + 1,
		})
	}
	return p
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Instructions)
}

// Lines returns the normalized text of every instruction, one per element.
// Parsing the result yields an equivalent program.
func (p *Program) Lines() []string {
	out := make([]string, len(p.Instructions))
	for i, in := range p.Instructions {
		out[i] = in.Text()
	}
	return out
}

// String returns the normalized program text.
func (p *Program) String() string {
	return strings.Join(p.Lines(), "\n")
}

// FindEnd returns the index of the nearest instruction at or after from
// whose opcode is END.
func (p *Program) FindEnd(from int) (int, bool) {
	for i := max(from, 0); i < len(p.Instructions); i++ {
		if p.Instructions[i].Op == OpEnd {
			return i, true
		}
	}
	return -1, false
}

// Loop describes a JUMP_IF_EQ and the END that closes it.
type Loop struct {
	Head int // pc of JUMP_IF_EQ
	End  int // pc of the matching END, -1 if none
}

// Loops pairs every JUMP_IF_EQ with the END the dispatch loop would
// select for it.
func (p *Program) Loops() []Loop {
	var loops []Loop
	for pc, in := range p.Instructions {
		if in.Op != OpJumpIfEq {
			continue
		}
		end, ok := p.FindEnd(pc)
		if !ok {
			end = -1
		}
		loops = append(loops, Loop{Head: pc, End: end})
	}
	return loops
}

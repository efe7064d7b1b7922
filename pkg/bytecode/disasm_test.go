package bytecode

import (
	"strings"
	"testing"
)

func TestDisassembleHeader(t *testing.T) {
	out := Parse(loopProgram).DisassembleWithName("count")
	for _, want := range []string{"; === count ===", "; Instructions: 12", "; Loops: 1", "; Code:"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestDisassembleLoopAnnotations(t *testing.T) {
	out := Parse(loopProgram).Disassemble()
	lines := strings.Split(out, "\n")

	var head, end string
	for _, l := range lines {
		if strings.HasPrefix(l, "0004") {
			head = l
		}
		if strings.HasPrefix(l, "0009") {
			end = l
		}
	}
	if !strings.Contains(head, "JUMP_IF_EQ") || !strings.Contains(head, "loop head, -> 0010") {
		t.Errorf("head row = %q", head)
	}
	if !strings.Contains(end, "END") || !strings.Contains(end, "<- 0002") {
		t.Errorf("end row = %q", end)
	}
}

func TestDisassembleSourceLines(t *testing.T) {
	out := Parse("LOAD_VAL 1\n\n\nRETURN_VALUE").Disassemble()
	if !strings.Contains(out, "; line 4") {
		t.Errorf("listing does not map pc 1 to line 4:\n%s", out)
	}
	if strings.Contains(out, "<end") {
		t.Errorf("unexpected trailer:\n%s", out)
	}
}

func TestDisassembleProblems(t *testing.T) {
	out := Parse("FROB\nEND\nLOAD_VAL 1\nLOAD_VAL 1\nJUMP_IF_EQ").Disassemble()
	for _, want := range []string{"unknown opcode", "no JUMP_IF_EQ", "no END"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestDisassembleArguments(t *testing.T) {
	out := Parse("READ_VAR 'counter'").Disassemble()
	if !strings.Contains(out, "READ_VAR     'counter'") {
		t.Errorf("listing = %q", out)
	}
}

package bytecode

import (
	"fmt"
	"slices"
)

// Opcode identifies an instruction. Programs name opcodes textually; the
// decoder maps each name onto this closed set.
type Opcode byte

const (
	// OpInvalid is the decoded form of any unrecognized opcode name.
	// It fails only when executed.
	OpInvalid Opcode = 0x00

	// ========================================================================
	// Values and variables (0x10-0x1F)
	// ========================================================================

	OpLoadVal  Opcode = 0x10 // Push integer literal: LOAD_VAL <int>
	OpWriteVar Opcode = 0x11 // Pop into variable: WRITE_VAR '<name>'
	OpReadVar  Opcode = 0x12 // Push variable: READ_VAR '<name>'

	// ========================================================================
	// Arithmetic (0x20-0x2F)
	// ========================================================================

	OpAdd      Opcode = 0x20 // Pop left, right; push left + right
	OpSubtract Opcode = 0x21 // Pop left, right; push left - right
	OpMultiply Opcode = 0x22 // Pop left, right; push left * right
	OpDivide   Opcode = 0x23 // Pop left, right; push left / right

	// ========================================================================
	// Control flow (0x30-0x3F)
	// ========================================================================

	OpJumpIfEq Opcode = 0x30 // Bookmark pc; pop two; if equal skip past the next END
	OpEnd      Opcode = 0x31 // Jump back two instructions before the bookmark

	// ========================================================================
	// Return (0xF0-0xFF)
	// ========================================================================

	OpReturnValue Opcode = 0xF0 // Pop and return as the program result
)

// OpcodeInfo provides metadata about each opcode for decoding, tooling and
// documentation.
type OpcodeInfo struct {
	Name      string // Textual name as written in programs
	Arity     int    // Number of arguments following the name
	StackPop  int    // How many values popped from the stack
	StackPush int    // How many values pushed to the stack
	Doc       string // One-line description
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Values and variables
	OpLoadVal:  {"LOAD_VAL", 1, 0, 1, "Push a signed 32-bit integer literal."},
	OpWriteVar: {"WRITE_VAR", 1, 1, 0, "Pop the top of the stack into a quoted variable, creating or overwriting it."},
	OpReadVar:  {"READ_VAR", 1, 0, 1, "Push the value of a quoted variable. Fails if the variable was never written."},

	// Arithmetic
	OpAdd:      {"ADD", 0, 2, 1, "Pop left (top) and right; push left + right."},
	OpSubtract: {"SUBTRACT", 0, 2, 1, "Pop left (top) and right; push left - right."},
	OpMultiply: {"MULTIPLY", 0, 2, 1, "Pop left (top) and right; push left * right."},
	OpDivide:   {"DIVIDE", 0, 2, 1, "Pop left (top) and right; push left / right, truncated. Fails on a zero divisor."},

	// Control flow
	OpJumpIfEq: {"JUMP_IF_EQ", 0, 2, 0, "Bookmark this instruction and pop two values. If equal, continue after the next END."},
	OpEnd:      {"END", 0, 0, 0, "Jump back to two instructions before the bookmarked JUMP_IF_EQ."},

	// Return
	OpReturnValue: {"RETURN_VALUE", 0, 1, 0, "Pop the top of the stack and stop with it as the result."},
}

// opcodesByName is the reverse of opcodeInfoTable, built at init.
var opcodesByName = make(map[string]Opcode, len(opcodeInfoTable))

func init() {
	for op, info := range opcodeInfoTable {
		opcodesByName[info.Name] = op
	}
}

// LookupOpcode maps a case-sensitive opcode name to its Opcode.
// Unknown names return OpInvalid and false.
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := opcodesByName[name]
	if !ok {
		return OpInvalid, false
	}
	return op, true
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the textual name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Arity returns the number of arguments the opcode takes.
func (op Opcode) Arity() int {
	return GetOpcodeInfo(op).Arity
}

// IsArithmetic returns true for ADD, SUBTRACT, MULTIPLY and DIVIDE.
func (op Opcode) IsArithmetic() bool {
	return op >= OpAdd && op <= OpDivide
}

// IsVariable returns true for opcodes whose argument is a quoted variable name.
func (op Opcode) IsVariable() bool {
	return op == OpWriteVar || op == OpReadVar
}

// IsControl returns true for the loop opcodes.
func (op Opcode) IsControl() bool {
	return op == OpJumpIfEq || op == OpEnd
}

// AllOpcodes returns every defined opcode in numeric order.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	slices.Sort(opcodes)
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}

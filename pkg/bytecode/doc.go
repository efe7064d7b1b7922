// Package bytecode decodes and runs bcvm programs.
//
// A program is plain text with one instruction per line. Each line is
// trimmed and split on whitespace; the first field is a case-sensitive
// opcode name and the rest are its arguments. Blank lines are ignored and
// do not occupy a program counter slot.
//
//	LOAD_VAL 1
//	WRITE_VAR 'x'
//	READ_VAR 'x'
//	LOAD_VAL 1
//	ADD
//	RETURN_VALUE
//
// # Architecture Overview
//
//   - Opcodes: a closed set of ten instructions with metadata (arity, stack
//     effect, documentation) used by the decoder, the checker and editors.
//
//   - Program: the decoded instruction sequence. Decoding never fails;
//     unknown opcodes decode to OpInvalid and fail only if executed.
//
//   - Interpreter: the dispatch loop. It owns the program counter and the
//     loop bookmark and drives a vm.Engine, which owns the operand stack and
//     variables.
//
//   - Check and Disassemble: static tooling over a Program.
//
// # Loops
//
// JUMP_IF_EQ records its own program counter as the bookmark and pops two
// values. If they are equal, execution continues after the nearest
// following END. Otherwise it falls into the loop body. END jumps back to
// two instructions before the bookmarked JUMP_IF_EQ, which re-runs the two
// pushes feeding the comparison:
//
//	LOAD_VAL 5
//	READ_VAR 'x'
//	JUMP_IF_EQ
//	  ...body...
//	END
//
// There is a single bookmark, so loops do not nest. Check warns about
// nested JUMP_IF_EQ instructions.
//
// # Bounding execution
//
// A loop whose comparison never succeeds runs forever. Hosts that need a
// guarantee set Options.MaxSteps or use RunContext.
package bytecode

// Package vm implements the bcvm execution engine.
//
// This package contains:
//   - a fixed-capacity operand stack of 32-bit integers
//   - a flat variable table keyed by name
//   - the value, variable, arithmetic, comparison and return operations
//   - the error kinds shared with the dispatch loop
//
// The engine has no notion of a program counter. Package
// github.com/chazu/bcvm/pkg/bytecode decodes instruction lines and drives
// an Engine one operation at a time.
package vm

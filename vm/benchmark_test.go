package vm

import (
	"testing"
)

// =============================================================================
// Engine Operation Overhead
// =============================================================================

// BenchmarkLoadValue measures literal parsing plus a push.
func BenchmarkLoadValue(b *testing.B) {
	e := NewEngine(DefaultStackSize)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.LoadValue("12345"); err != nil {
			b.Fatal(err)
		}
		if _, err := e.ReturnValue(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkAdd measures a binary arithmetic operation.
func BenchmarkAdd(b *testing.B) {
	e := NewEngine(DefaultStackSize)
	if err := e.LoadValue("1"); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.LoadValue("1")
		if err := e.Add(); err != nil {
			b.Fatal(err)
		}
	}
}

// =============================================================================
// Variable Table
// =============================================================================

// BenchmarkWriteReadVar measures a store and load through the variable table.
func BenchmarkWriteReadVar(b *testing.B) {
	e := NewEngine(DefaultStackSize)
	for _, name := range []string{"'a'", "'b'", "'c'", "'d'"} {
		e.LoadValue("0")
		e.WriteVar(name)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.LoadValue("7")
		if err := e.WriteVar("'d'"); err != nil {
			b.Fatal(err)
		}
		if err := e.ReadVar("'d'"); err != nil {
			b.Fatal(err)
		}
		e.ReturnValue()
	}
}

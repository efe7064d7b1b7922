package vm

import (
	"errors"
	"strings"
	"testing"
)

func TestStackPushPop(t *testing.T) {
	s := NewStack(3)
	if s.Cap() != 3 {
		t.Fatalf("Cap = %d, want 3", s.Cap())
	}
	for i := int32(1); i <= 3; i++ {
		if !s.Push(i) {
			t.Fatalf("Push(%d) failed", i)
		}
	}
	if s.Push(4) {
		t.Error("Push on a full stack succeeded")
	}
	if top, _ := s.Peek(); top != 3 {
		t.Errorf("Peek = %d, want 3", top)
	}
	for want := int32(3); want >= 1; want-- {
		got, ok := s.Pop()
		if !ok || got != want {
			t.Errorf("Pop = %d, %v, want %d, true", got, ok, want)
		}
	}
	if _, ok := s.Pop(); ok {
		t.Error("Pop on an empty stack succeeded")
	}
}

func TestStackDefaultSize(t *testing.T) {
	if got := NewStack(0).Cap(); got != DefaultStackSize {
		t.Errorf("NewStack(0).Cap() = %d, want %d", got, DefaultStackSize)
	}
}

func TestStackValues(t *testing.T) {
	s := NewStack(8)
	s.Push(1)
	s.Push(2)
	vals := s.Values()
	if len(vals) != 2 || vals[0] != 1 || vals[1] != 2 {
		t.Errorf("Values = %v, want [1 2]", vals)
	}
	vals[0] = 99
	if v, _ := s.Pop(); v != 2 {
		t.Errorf("Values did not return a copy")
	}
}

func TestErrorFormatting(t *testing.T) {
	err := AtLine(Errorf(KindInvalidOp, "unknown opcode %q", "FOO"), 7)
	if !errors.Is(err, ErrInvalidOp) {
		t.Fatalf("errors.Is(err, ErrInvalidOp) = false for %v", err)
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "line 7: invalid operation") || !strings.Contains(msg, "FOO") {
		t.Errorf("Error() = %q", msg)
	}
	if again := AtLine(err, 9); again.Error() != msg {
		t.Errorf("AtLine restamped an existing line: %q", again.Error())
	}
	if KindOf(errors.New("plain")) != 0 {
		t.Error("KindOf(plain error) != 0")
	}
	if KindStackOverflow.String() != "stack-overflow" {
		t.Errorf("KindStackOverflow.String() = %q", KindStackOverflow.String())
	}
}

package vm

// DefaultStackSize is the operand stack capacity used when none is given.
const DefaultStackSize = 512

// Stack is a fixed-capacity LIFO of 32-bit integers. It never grows:
// Push on a full stack and Pop on an empty one report failure instead.
type Stack struct {
	data []int32
	sp   int
}

// NewStack returns an empty stack holding at most size values.
// A non-positive size selects DefaultStackSize.
func NewStack(size int) *Stack {
	if size <= 0 {
		size = DefaultStackSize
	}
	return &Stack{data: make([]int32, size)}
}

// Push places v on top of the stack. It returns false if the stack is full.
func (s *Stack) Push(v int32) bool {
	if s.sp >= len(s.data) {
		return false
	}
	s.data[s.sp] = v
	s.sp++
	return true
}

// Pop removes and returns the top value. It returns false if the stack is empty.
func (s *Stack) Pop() (int32, bool) {
	if s.sp == 0 {
		return 0, false
	}
	s.sp--
	return s.data[s.sp], true
}

// Peek returns the top value without removing it.
func (s *Stack) Peek() (int32, bool) {
	if s.sp == 0 {
		return 0, false
	}
	return s.data[s.sp-1], true
}

func (s *Stack) Len() int { return s.sp }
func (s *Stack) Cap() int { return len(s.data) }

// Values returns a copy of the live stack contents, bottom first.
func (s *Stack) Values() []int32 {
	out := make([]int32, s.sp)
	copy(out, s.data[:s.sp])
	return out
}

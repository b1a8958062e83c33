package vm

import "errors"

// ---------------------------------------------------------------------------
// Root stack
// ---------------------------------------------------------------------------

// DefaultStackCapacity is the root stack capacity used by New.
const DefaultStackCapacity = 256

var (
	// ErrStackOverflow is returned by Push when the root stack is full.
	ErrStackOverflow = errors.New("root stack overflow")

	// ErrStackUnderflow is returned by Pop when the root stack is empty.
	ErrStackUnderflow = errors.New("root stack underflow")
)

// rootStack is the VM's operand stack. Every slot below size holds a valid
// reference to a still-allocated object; during a collection these are the
// roots the mark phase starts from. Purely index bookkeeping, no heap side
// effects.
type rootStack struct {
	slots []*Object
	size  int
}

func newRootStack(capacity int) rootStack {
	return rootStack{slots: make([]*Object, capacity)}
}

func (s *rootStack) push(obj *Object) error {
	if s.size >= len(s.slots) {
		return ErrStackOverflow
	}
	s.slots[s.size] = obj
	s.size++
	return nil
}

func (s *rootStack) pop() (*Object, error) {
	if s.size <= 0 {
		return nil, ErrStackUnderflow
	}
	s.size--
	obj := s.slots[s.size]
	s.slots[s.size] = nil
	return obj, nil
}

// clear discards all roots without touching the heap.
func (s *rootStack) clear() {
	for i := 0; i < s.size; i++ {
		s.slots[i] = nil
	}
	s.size = 0
}

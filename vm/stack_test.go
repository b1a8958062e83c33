package vm

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Root stack tests
// ---------------------------------------------------------------------------

func TestStackPushPopOrder(t *testing.T) {
	v := New()
	first := mustPushInt(t, v, 1)
	second := mustPushInt(t, v, 2)

	got, err := v.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if got != second {
		t.Error("first pop should return the most recently pushed reference")
	}
	got, err = v.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if got != first {
		t.Error("second pop should return the earlier-pushed reference")
	}
}

func TestStackUnderflow(t *testing.T) {
	v := New()
	obj, err := v.Pop()
	if !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("expected ErrStackUnderflow, got %v", err)
	}
	if obj != nil {
		t.Error("underflowing Pop must not return a reference")
	}
}

func TestStackOverflow(t *testing.T) {
	v := NewWithOptions(Options{StackCapacity: 4, Threshold: 100})
	for i := int64(0); i < 4; i++ {
		mustPushInt(t, v, i)
	}

	_, err := v.PushInt(99)
	if !errors.Is(err, ErrStackOverflow) {
		t.Errorf("expected ErrStackOverflow, got %v", err)
	}
	if v.StackSize() != 4 {
		t.Errorf("failed push must not change the stack, size = %d", v.StackSize())
	}
}

func TestStackDefaultCapacity(t *testing.T) {
	v := New()
	if v.StackCapacity() != DefaultStackCapacity {
		t.Errorf("expected capacity %d, got %d", DefaultStackCapacity, v.StackCapacity())
	}
}

func TestMakePairUnderflow(t *testing.T) {
	v := New()
	mustPushInt(t, v, 1)

	before := v.Count()
	_, err := v.MakePair()
	if !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("expected ErrStackUnderflow with one operand, got %v", err)
	}
	if v.Count() != before {
		t.Errorf("failed MakePair must not allocate, count %d -> %d", before, v.Count())
	}
	if v.StackSize() != 1 {
		t.Errorf("failed MakePair must not disturb the stack, size = %d", v.StackSize())
	}
}

func TestPushExistingReference(t *testing.T) {
	v := New()
	obj := mustPushInt(t, v, 7)
	if _, err := v.Pop(); err != nil {
		t.Fatal(err)
	}
	if err := v.Push(obj); err != nil {
		t.Fatalf("Push: %v", err)
	}

	v.Collect()
	if v.Count() != 1 {
		t.Errorf("re-pushed reference should be a root, count = %d", v.Count())
	}
}

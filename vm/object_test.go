package vm

import "testing"

// ---------------------------------------------------------------------------
// Object accessor tests
// ---------------------------------------------------------------------------

func TestObjectKinds(t *testing.T) {
	v := New()
	n := mustPushInt(t, v, 42)
	if n.Kind() != ObjInt {
		t.Errorf("expected ObjInt, got %v", n.Kind())
	}
	if n.Int() != 42 {
		t.Errorf("expected 42, got %d", n.Int())
	}

	mustPushInt(t, v, 43)
	p := mustMakePair(t, v)
	if p.Kind() != ObjPair {
		t.Errorf("expected ObjPair, got %v", p.Kind())
	}
	if p.Head() != n {
		t.Error("head should be the earlier-pushed operand")
	}
	if p.Tail().Int() != 43 {
		t.Errorf("tail should be the later-pushed operand, got %d", p.Tail().Int())
	}
}

func TestObjectKindString(t *testing.T) {
	cases := []struct {
		kind ObjectKind
		want string
	}{
		{ObjInt, "int"},
		{ObjPair, "pair"},
		{ObjectKind(9), "unknown"},
	}
	for _, tc := range cases {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("ObjectKind(%d).String() = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestObjectAccessorsPanicOnWrongKind(t *testing.T) {
	v := New()
	n := mustPushInt(t, v, 1)
	mustPushInt(t, v, 2)
	p := mustMakePair(t, v)

	cases := []struct {
		name string
		fn   func()
	}{
		{"Int on pair", func() { p.Int() }},
		{"Head on int", func() { n.Head() }},
		{"Tail on int", func() { n.Tail() }},
		{"SetHead on int", func() { n.SetHead(p) }},
		{"SetTail on int", func() { n.SetTail(p) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tc.fn()
		})
	}
}

func TestPairMutation(t *testing.T) {
	v := New()
	mustPushInt(t, v, 1)
	mustPushInt(t, v, 2)
	p := mustMakePair(t, v)
	other := mustPushInt(t, v, 3)

	p.SetHead(other)
	if p.Head() != other {
		t.Error("SetHead did not take")
	}
	p.SetTail(nil)
	if p.Tail() != nil {
		t.Error("SetTail(nil) did not take")
	}

	// A nulled edge must not break the collector. The original head and
	// tail ints are orphaned; p and its new head survive.
	v.Collect()
	if v.Count() != 2 {
		t.Errorf("expected pair and its head to survive, count = %d", v.Count())
	}
}

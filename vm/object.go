package vm

// ---------------------------------------------------------------------------
// Object: heap nodes managed by the collector
// ---------------------------------------------------------------------------

// ObjectKind discriminates the two payloads an Object can carry.
type ObjectKind uint8

const (
	// ObjInt is a scalar integer object.
	ObjInt ObjectKind = iota
	// ObjPair is a pair of references to two other objects.
	ObjPair
)

// String returns the kind name for diagnostics.
func (k ObjectKind) String() string {
	switch k {
	case ObjInt:
		return "int"
	case ObjPair:
		return "pair"
	default:
		return "unknown"
	}
}

// Object is a single heap-allocated node holding either a scalar integer or
// a pair of object references.
//
// The marked flag is transient: it is false outside a collection cycle and
// is reset on every survivor during sweep. The next link threads the heap's
// all-objects list and is owned exclusively by the Heap; head/tail are graph
// edges and, together with the root stack, the only source of reachability.
// Cycles through head/tail are legal.
type Object struct {
	kind   ObjectKind
	marked bool

	// Intrusive link in the heap's all-objects list. Not a graph edge.
	next *Object

	intVal     int64
	head, tail *Object
}

// Kind returns the object's kind tag.
func (o *Object) Kind() ObjectKind {
	return o.kind
}

// Int returns the scalar value.
// Panics if o is not an ObjInt.
func (o *Object) Int() int64 {
	if o.kind != ObjInt {
		panic("Object.Int: not an int object")
	}
	return o.intVal
}

// Head returns the pair's first component.
// Panics if o is not an ObjPair.
func (o *Object) Head() *Object {
	if o.kind != ObjPair {
		panic("Object.Head: not a pair object")
	}
	return o.head
}

// Tail returns the pair's second component.
// Panics if o is not an ObjPair.
func (o *Object) Tail() *Object {
	if o.kind != ObjPair {
		panic("Object.Tail: not a pair object")
	}
	return o.tail
}

// SetHead replaces the pair's first component.
// Panics if o is not an ObjPair.
func (o *Object) SetHead(target *Object) {
	if o.kind != ObjPair {
		panic("Object.SetHead: not a pair object")
	}
	o.head = target
}

// SetTail replaces the pair's second component.
// Panics if o is not an ObjPair.
func (o *Object) SetTail(target *Object) {
	if o.kind != ObjPair {
		panic("Object.SetTail: not a pair object")
	}
	o.tail = target
}

package vm

import (
	"fmt"

	"github.com/chazu/picovm/vm/dump"
)

// ---------------------------------------------------------------------------
// Heap snapshots
// ---------------------------------------------------------------------------

// Snapshot flattens the entire heap into a dump.Snapshot: every allocated
// object (reachable or not), the root stack as object indices, and the
// current collection threshold. Object indices follow all-objects list
// order, most recently allocated first.
func (vm *VM) Snapshot() *dump.Snapshot {
	// First pass: assign an index to every heap node.
	index := make(map[*Object]uint32, vm.heap.count)
	order := make([]*Object, 0, vm.heap.count)
	vm.EachObject(func(obj *Object) {
		index[obj] = uint32(len(order))
		order = append(order, obj)
	})

	ref := func(obj *Object) int32 {
		if obj == nil {
			return dump.NoRef
		}
		return int32(index[obj])
	}

	// Second pass: flatten payloads and edges.
	objects := make([]dump.Object, len(order))
	for i, obj := range order {
		switch obj.kind {
		case ObjInt:
			objects[i] = dump.Object{Kind: dump.KindInt, Int: obj.intVal, Head: dump.NoRef, Tail: dump.NoRef}
		case ObjPair:
			objects[i] = dump.Object{Kind: dump.KindPair, Head: ref(obj.head), Tail: ref(obj.tail)}
		}
	}

	roots := make([]uint32, 0, vm.stack.size)
	vm.EachRoot(func(obj *Object) {
		roots = append(roots, index[obj])
	})

	return &dump.Snapshot{
		Version:   dump.Version,
		Threshold: vm.heap.threshold,
		Objects:   objects,
		Roots:     roots,
	}
}

// FromSnapshot rebuilds a VM from a snapshot. The rebuilt heap has the same
// object graph, root stack, live count, and threshold as the captured one;
// no collection runs during the rebuild.
func FromSnapshot(s *dump.Snapshot, opts Options) (*VM, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if opts.Threshold <= 0 {
		opts.Threshold = s.Threshold
	}
	vm := NewWithOptions(opts)
	if len(s.Roots) > vm.StackCapacity() {
		return nil, fmt.Errorf("vm: snapshot has %d roots, stack capacity is %d",
			len(s.Roots), vm.StackCapacity())
	}

	// Materialize every node, then wire edges by index.
	objects := make([]*Object, len(s.Objects))
	for i, so := range s.Objects {
		switch so.Kind {
		case dump.KindInt:
			objects[i] = &Object{kind: ObjInt, intVal: so.Int}
		case dump.KindPair:
			objects[i] = &Object{kind: ObjPair}
		}
	}
	for i, so := range s.Objects {
		if so.Kind != dump.KindPair {
			continue
		}
		if so.Head != dump.NoRef {
			objects[i].head = objects[so.Head]
		}
		if so.Tail != dump.NoRef {
			objects[i].tail = objects[so.Tail]
		}
	}

	// Rebuild the all-objects list preserving capture order: index 0 was
	// the head of the list.
	for i := len(objects) - 1; i >= 0; i-- {
		objects[i].next = vm.heap.first
		vm.heap.first = objects[i]
	}
	vm.heap.count = len(objects)

	for _, root := range s.Roots {
		if err := vm.stack.push(objects[root]); err != nil {
			return nil, err
		}
	}
	return vm, nil
}

package vm

// ---------------------------------------------------------------------------
// Heap: registry of every allocated object
// ---------------------------------------------------------------------------

// DefaultThreshold is the initial (and floor) collection threshold.
const DefaultThreshold = 8

// heap is the registry of all allocated objects, threaded as an intrusive
// singly-linked list through each object's next field. The heap exclusively
// owns object storage; head/tail edges and root-stack slots are non-owning.
type heap struct {
	first     *Object
	count     int
	threshold int
}

func newHeap(threshold int) heap {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	return heap{threshold: threshold}
}

// link prepends obj to the all-objects list and counts it.
func (h *heap) link(obj *Object) {
	obj.next = h.first
	h.first = obj
	h.count++
}

// adjustThreshold applies the growth policy after a collection: reset to
// the default when the heap is empty, otherwise track twice the live set,
// never dropping below the default.
func (h *heap) adjustThreshold() {
	if h.count == 0 {
		h.threshold = DefaultThreshold
		return
	}
	h.threshold = h.count * 2
	if h.threshold < DefaultThreshold {
		h.threshold = DefaultThreshold
	}
}

// allocate constructs a new object and links it into the heap. When the
// live count has reached the threshold, a collection runs first; the object
// being allocated does not exist yet at that point, so only references
// already on the root stack are protected.
func (vm *VM) allocate(kind ObjectKind) *Object {
	if vm.heap.count >= vm.heap.threshold {
		vm.Collect()
	}
	obj := &Object{kind: kind}
	vm.heap.link(obj)
	return obj
}

// newInt allocates a scalar integer object.
func (vm *VM) newInt(n int64) *Object {
	obj := vm.allocate(ObjInt)
	obj.intVal = n
	return obj
}

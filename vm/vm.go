package vm

import "io"

// ---------------------------------------------------------------------------
// VM: one root stack + one heap
// ---------------------------------------------------------------------------

// VM is a minimal virtual machine whose heap is managed by an embedded
// tracing mark-and-sweep collector. All state lives on the VM value; there
// is no process-wide collector state, so independent VMs never interact.
//
// A VM is single-threaded: operations must not be called concurrently, and
// a collection runs as a stop-the-world pause inside the operation that
// triggered it.
type VM struct {
	stack rootStack
	heap  heap

	weakRefs *weakRegistry

	// reportWriter, when set, receives the per-collection report line in
	// addition to the structured log.
	reportWriter io.Writer

	// onCollect, when set, observes the stats of every collection cycle,
	// including cycles triggered implicitly by allocation.
	onCollect func(CollectStats)

	collectCount uint64
	lastStats    *CollectStats
}

// Options configures a new VM. Zero values select the defaults.
type Options struct {
	// Threshold is the initial collection threshold (default 8).
	Threshold int
	// StackCapacity is the root stack capacity (default 256).
	StackCapacity int
}

// New creates a VM with the default threshold and stack capacity.
func New() *VM {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a VM with the given options.
func NewWithOptions(opts Options) *VM {
	capacity := opts.StackCapacity
	if capacity <= 0 {
		capacity = DefaultStackCapacity
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &VM{
		stack:    newRootStack(capacity),
		heap:     newHeap(threshold),
		weakRefs: newWeakRegistry(),
	}
}

// ---------------------------------------------------------------------------
// Client operations
// ---------------------------------------------------------------------------

// PushInt allocates a scalar integer object and pushes it onto the root
// stack. The allocation may trigger a collection; that happens before the
// new object exists, so it is never itself at risk.
func (vm *VM) PushInt(n int64) (*Object, error) {
	obj := vm.newInt(n)
	if err := vm.stack.push(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// MakePair pops two references and pushes a new pair built from them. The
// first pop becomes the tail and the second the head, so the head is the
// earlier-pushed value. The pair is allocated before the operands are
// popped; if the allocation triggers a collection they are still rooted.
func (vm *VM) MakePair() (*Object, error) {
	if vm.stack.size < 2 {
		return nil, ErrStackUnderflow
	}
	obj := vm.allocate(ObjPair)
	tail, err := vm.stack.pop()
	if err != nil {
		return nil, err
	}
	head, err := vm.stack.pop()
	if err != nil {
		return nil, err
	}
	obj.head = head
	obj.tail = tail
	if err := vm.stack.push(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Push pushes an existing reference back onto the root stack.
func (vm *VM) Push(obj *Object) error {
	return vm.stack.push(obj)
}

// Pop removes and returns the top root. The popped object stays allocated
// until the next collection finds it unreachable.
func (vm *VM) Pop() (*Object, error) {
	return vm.stack.pop()
}

// Close models clean shutdown: it discards all roots, runs one final
// collection (reclaiming every remaining object), and detaches the heap.
// The VM must not be used afterwards.
func (vm *VM) Close() {
	vm.stack.clear()
	vm.Collect()
	vm.heap.first = nil
	vm.weakRefs.reset()
}

// ---------------------------------------------------------------------------
// Introspection
// ---------------------------------------------------------------------------

// Count returns the number of currently-allocated objects.
func (vm *VM) Count() int {
	return vm.heap.count
}

// Threshold returns the live-object count at which the next allocation
// triggers a collection.
func (vm *VM) Threshold() int {
	return vm.heap.threshold
}

// StackSize returns the number of roots currently on the stack.
func (vm *VM) StackSize() int {
	return vm.stack.size
}

// StackCapacity returns the root stack capacity.
func (vm *VM) StackCapacity() int {
	return len(vm.stack.slots)
}

// CollectCount returns the number of collection cycles run so far.
func (vm *VM) CollectCount() uint64 {
	return vm.collectCount
}

// LastStats returns statistics from the most recent collection, or nil if
// none has run yet.
func (vm *VM) LastStats() *CollectStats {
	return vm.lastStats
}

// SetReportWriter mirrors each collection's report line to w. Pass nil to
// disable. Useful for tests and the CLI.
func (vm *VM) SetReportWriter(w io.Writer) {
	vm.reportWriter = w
}

// SetCollectHook installs fn to observe every collection's stats, including
// collections triggered implicitly inside an allocation. Pass nil to remove.
func (vm *VM) SetCollectHook(fn func(CollectStats)) {
	vm.onCollect = fn
}

// EachObject calls fn for every allocated object, in all-objects list order
// (most recently allocated first). fn must not allocate or collect.
func (vm *VM) EachObject(fn func(*Object)) {
	for obj := vm.heap.first; obj != nil; obj = obj.next {
		fn(obj)
	}
}

// EachRoot calls fn for every root stack slot, bottom first.
func (vm *VM) EachRoot(fn func(*Object)) {
	for i := 0; i < vm.stack.size; i++ {
		fn(vm.stack.slots[i])
	}
}

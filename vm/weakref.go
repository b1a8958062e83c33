package vm

import "sync"

// ---------------------------------------------------------------------------
// WeakRef: references the collector is allowed to break
// ---------------------------------------------------------------------------

// WeakRef holds a reference to an object without keeping it alive. When the
// target is reclaimed by a collection, the reference becomes nil. An
// optional finalizer runs after the sweep that reclaimed the target.
type WeakRef struct {
	id        uint32
	target    *Object
	finalizer func()
	mu        sync.RWMutex
}

// ID returns the unique identifier for this weak reference.
func (wr *WeakRef) ID() uint32 {
	return wr.id
}

// Get returns the target object, or nil if it has been collected.
func (wr *WeakRef) Get() *Object {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return wr.target
}

// IsAlive reports whether the target has not been collected.
func (wr *WeakRef) IsAlive() bool {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return wr.target != nil
}

// SetFinalizer sets a callback to run after the target is collected.
func (wr *WeakRef) SetFinalizer(fn func()) {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	wr.finalizer = fn
}

// clear breaks the reference and returns the finalizer to run, if any.
func (wr *WeakRef) clear() func() {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	wr.target = nil
	fn := wr.finalizer
	wr.finalizer = nil
	return fn
}

// ---------------------------------------------------------------------------
// weakRegistry: the VM-local set of live weak references
// ---------------------------------------------------------------------------

// weakRegistry tracks every weak reference created on a VM so the collector
// can break the ones whose targets die. Cleared entries are dropped from
// the registry during the collection that clears them.
type weakRegistry struct {
	refs   map[uint32]*WeakRef
	nextID uint32

	// pending holds finalizers queued by processCollection, run once the
	// sweep has finished.
	pending []func()
}

func newWeakRegistry() *weakRegistry {
	return &weakRegistry{refs: make(map[uint32]*WeakRef)}
}

func (r *weakRegistry) register(target *Object) *WeakRef {
	r.nextID++
	wr := &WeakRef{id: r.nextID, target: target}
	r.refs[wr.id] = wr
	return wr
}

func (r *weakRegistry) lookup(id uint32) *WeakRef {
	return r.refs[id]
}

func (r *weakRegistry) count() int {
	return len(r.refs)
}

// processCollection runs between mark and sweep, while mark bits are still
// set: any reference whose target is unmarked is about to be reclaimed, so
// the reference is broken now and its finalizer queued.
func (r *weakRegistry) processCollection() {
	for id, wr := range r.refs {
		target := wr.Get()
		if target == nil || !target.marked {
			if fn := wr.clear(); fn != nil {
				r.pending = append(r.pending, fn)
			}
			delete(r.refs, id)
		}
	}
}

// runFinalizers runs and drops the finalizers queued by the last
// processCollection. Finalizers may touch the VM; the sweep is over.
func (r *weakRegistry) runFinalizers() {
	pending := r.pending
	r.pending = nil
	for _, fn := range pending {
		fn()
	}
}

func (r *weakRegistry) reset() {
	r.refs = make(map[uint32]*WeakRef)
	r.pending = nil
}

// ---------------------------------------------------------------------------
// VM surface
// ---------------------------------------------------------------------------

// NewWeakRef creates a weak reference to target. The reference does not
// count as a root: if nothing else reaches target, the next collection
// reclaims it and breaks the reference.
func (vm *VM) NewWeakRef(target *Object) *WeakRef {
	return vm.weakRefs.register(target)
}

// LookupWeakRef returns the live weak reference with the given ID, or nil
// if it was never created or has already been broken.
func (vm *VM) LookupWeakRef(id uint32) *WeakRef {
	return vm.weakRefs.lookup(id)
}

// WeakRefCount returns the number of weak references whose targets are
// still alive.
func (vm *VM) WeakRefCount() int {
	return vm.weakRefs.count()
}

package vm

import (
	"fmt"
	"time"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

// ---------------------------------------------------------------------------
// Collector: mark, sweep, orchestration
// ---------------------------------------------------------------------------

var gcLog = commonlog.GetLogger("picovm.gc")

// CollectStats holds statistics from a single collection cycle.
type CollectStats struct {
	Before    int // live objects when the cycle started
	Live      int // live objects after sweep
	Collected int // objects reclaimed (Before - Live)
	Threshold int // collection threshold after the growth policy ran
	Duration  time.Duration
	Timestamp time.Time
}

// Collect performs one full mark-and-sweep cycle: mark everything reachable
// from the root stack, reclaim everything unmarked, then apply the growth
// policy to the collection threshold. It is synchronous and runs to
// completion; no VM operation may interleave with it.
func (vm *VM) Collect() CollectStats {
	start := time.Now()
	before := vm.heap.count

	vm.markAll()
	vm.weakRefs.processCollection()
	vm.sweep()
	vm.heap.adjustThreshold()

	stats := CollectStats{
		Before:    before,
		Live:      vm.heap.count,
		Collected: before - vm.heap.count,
		Threshold: vm.heap.threshold,
		Duration:  time.Since(start),
		Timestamp: start,
	}
	vm.collectCount++
	vm.lastStats = &stats

	vm.report(stats)
	vm.weakRefs.runFinalizers()
	if vm.onCollect != nil {
		vm.onCollect(stats)
	}
	return stats
}

// markAll marks every object reachable from the root stack, visiting the
// slots in index order. Marking is idempotent, so shared subgraphs and
// repeated roots are harmless.
func (vm *VM) markAll() {
	for i := 0; i < vm.stack.size; i++ {
		mark(vm.stack.slots[i])
	}
}

// mark performs a depth-first traversal from root, setting the mark bit on
// every reachable object. The already-marked check is what terminates the
// walk on cyclic graphs. An explicit work list stands in for call-stack
// recursion so deep graphs cannot exhaust the goroutine stack.
func mark(root *Object) {
	if root == nil {
		return
	}
	work := []*Object{root}
	for len(work) > 0 {
		obj := work[len(work)-1]
		work = work[:len(work)-1]
		if obj.marked {
			continue
		}
		obj.marked = true
		if obj.kind == ObjPair {
			// Push tail first so head is visited first, matching the
			// recursive head-then-tail order.
			if obj.tail != nil {
				work = append(work, obj.tail)
			}
			if obj.head != nil {
				work = append(work, obj.head)
			}
		}
	}
}

// sweep walks the all-objects list through a cursor that can rewrite the
// predecessor's next link (or the heap's first field for the head node).
// Unmarked objects are unlinked and released; survivors get their mark bit
// cleared for the next cycle. Consecutive runs of dead objects, including
// at the list head, fall out of the cursor staying put after an unlink.
func (vm *VM) sweep() int {
	reclaimed := 0
	cursor := &vm.heap.first
	for *cursor != nil {
		obj := *cursor
		if !obj.marked {
			*cursor = obj.next
			vm.heap.count--
			reclaimed++
			release(obj)
		} else {
			obj.marked = false
			cursor = &obj.next
		}
	}
	return reclaimed
}

// release severs a reclaimed object's links. The node is unreferenced by
// the heap at this point; clearing the edges keeps a stale outside pointer
// from resurrecting part of the old graph.
func release(obj *Object) {
	obj.next = nil
	obj.head = nil
	obj.tail = nil
}

// report emits the human-readable collection line.
func (vm *VM) report(stats CollectStats) {
	gcLog.Infof("collected %d objects, %d remaining", stats.Collected, stats.Live)
	if vm.reportWriter != nil {
		fmt.Fprintf(vm.reportWriter, "Collected %d objects, %d remaining.\n",
			stats.Collected, stats.Live)
	}
}

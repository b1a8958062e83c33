// Package dump defines the heap snapshot format: a flattened,
// index-addressed copy of a VM's object graph suitable for writing to disk
// and inspecting offline. Snapshots are a debugging artifact; the live heap
// is never backed by one.
package dump

import "fmt"

// Version is the current snapshot format version.
const Version uint32 = 1

// Object kinds in a snapshot. They mirror the VM's object kinds but are
// fixed wire values, independent of the in-memory representation.
const (
	KindInt  uint8 = 0
	KindPair uint8 = 1
)

// NoRef marks an absent head/tail edge.
const NoRef int32 = -1

// Object is one flattened heap node. Head and Tail index into
// Snapshot.Objects, or are NoRef for an int object.
type Object struct {
	Kind uint8 `cbor:"k"`
	Int  int64 `cbor:"i,omitempty"`
	Head int32 `cbor:"h"`
	Tail int32 `cbor:"t"`
}

// Snapshot is a complete flattened heap: every allocated object, the root
// stack as indices into Objects (bottom first), and the collection
// threshold in force when the snapshot was taken.
type Snapshot struct {
	Version   uint32   `cbor:"v"`
	Threshold int      `cbor:"threshold"`
	Objects   []Object `cbor:"objects"`
	Roots     []uint32 `cbor:"roots"`
}

// Validate checks internal consistency: version, edge indices in range,
// pair edges present, int edges absent.
func (s *Snapshot) Validate() error {
	if s.Version != Version {
		return fmt.Errorf("dump: unsupported snapshot version %d", s.Version)
	}
	n := int32(len(s.Objects))
	checkRef := func(ref int32) error {
		if ref < 0 || ref >= n {
			return fmt.Errorf("dump: object reference %d out of range [0,%d)", ref, n)
		}
		return nil
	}
	for i, obj := range s.Objects {
		switch obj.Kind {
		case KindInt:
			if obj.Head != NoRef || obj.Tail != NoRef {
				return fmt.Errorf("dump: int object %d has edges", i)
			}
		case KindPair:
			// NoRef edges are legal: mutation can null out a pair slot.
			if obj.Head != NoRef {
				if err := checkRef(obj.Head); err != nil {
					return err
				}
			}
			if obj.Tail != NoRef {
				if err := checkRef(obj.Tail); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("dump: object %d has unknown kind %d", i, obj.Kind)
		}
	}
	for _, root := range s.Roots {
		if int(root) >= len(s.Objects) {
			return fmt.Errorf("dump: root index %d out of range [0,%d)", root, len(s.Objects))
		}
	}
	return nil
}

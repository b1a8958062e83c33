// Package vm implements the picovm virtual machine.
//
// This package contains:
//   - The object model (scalar ints and pairs)
//   - The heap registry with its intrusive all-objects list
//   - The mark-and-sweep collector and its adaptive threshold
//   - The root stack and the thin client API (PushInt, MakePair, Pop)
//   - Weak references and heap snapshots
package vm

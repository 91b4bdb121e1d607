package wasm

import "fmt"

// FuncRef is a handle to a function index slot owned by a module. Call
// instructions hold handles rather than raw indices so that a pass can
// repoint every call sharing a slot with one write.
type FuncRef uint32

// FuncRefs is the arena of function index slots. Slots live as long as
// the module.
type FuncRefs struct {
	slots []uint32
}

// New allocates a slot holding idx.
func (a *FuncRefs) New(idx uint32) FuncRef {
	a.slots = append(a.slots, idx)
	return FuncRef(len(a.slots) - 1)
}

// Get resolves a handle. An unknown handle is a programming error.
func (a *FuncRefs) Get(r FuncRef) uint32 {
	return a.slots[a.check(r)]
}

// Set repoints a slot and with it every instruction holding the handle.
func (a *FuncRefs) Set(r FuncRef, idx uint32) {
	a.slots[a.check(r)] = idx
}

// Retarget rewrites every slot holding from to hold to, returning how many
// slots changed.
func (a *FuncRefs) Retarget(from, to uint32) int {
	n := 0
	for i, v := range a.slots {
		if v == from {
			a.slots[i] = to
			n++
		}
	}
	return n
}

// Shift adds delta to every slot holding an index >= from. Used after new
// function imports push defined functions up the index space.
func (a *FuncRefs) Shift(from, delta uint32) int {
	n := 0
	for i, v := range a.slots {
		if v >= from {
			a.slots[i] = v + delta
			n++
		}
	}
	return n
}

// Len returns the number of allocated slots.
func (a *FuncRefs) Len() int {
	return len(a.slots)
}

func (a *FuncRefs) check(r FuncRef) int {
	if int(r) >= len(a.slots) {
		panic(fmt.Sprintf("wasm: function ref %d was never allocated (%d slots)", r, len(a.slots)))
	}
	return int(r)
}

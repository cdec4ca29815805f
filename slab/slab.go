// Package slab provides a stable-index slot table. Allocated slots keep
// their id until deallocated, vacant slots are recycled through an
// in-place free list.
package slab

// ID locates an allocated slot. Ids stay valid across unrelated
// allocations and deallocations and are only recycled after the slot
// they name has been deallocated.
type ID uint32

type entry[T any] struct {
	value T
	next  ID // free list link, meaningful only while vacant
	used  bool
}

// Slab is not thread safe. The zero value is an empty table ready for
// use.
type Slab[T any] struct {
	entries []entry[T]
	// one plus the index of the first vacant slot, 0 when the free
	// list is empty
	firstFree ID
	used      int
}

// Alloc stores value in a vacant slot and returns the slot's id,
// recycling the most recently deallocated slot first.
func (slab *Slab[T]) Alloc(value T) ID {
	if slab.firstFree != 0 {
		id := slab.firstFree - 1
		slot := &slab.entries[id]
		slab.firstFree = slot.next
		slot.value = value
		slot.next = 0
		slot.used = true
		slab.used++
		return id
	}
	slab.entries = append(slab.entries, entry[T]{value: value, used: true})
	slab.used++
	return ID(len(slab.entries) - 1)
}

// Get returns a pointer to the slot's value, or false if the slot is
// vacant or the id was never allocated.
func (slab *Slab[T]) Get(id ID) (*T, bool) {
	if int(id) >= len(slab.entries) || !slab.entries[id].used {
		return nil, false
	}
	return &slab.entries[id].value, true
}

// Dealloc vacates the slot and returns the value it held. Deallocating
// a vacant slot is a bug in the caller.
func (slab *Slab[T]) Dealloc(id ID) T {
	if int(id) >= len(slab.entries) || !slab.entries[id].used {
		panic("slab: dealloc of vacant slot")
	}
	slot := &slab.entries[id]
	value := slot.value
	var zero T
	slot.value = zero
	slot.next = slab.firstFree
	slot.used = false
	slab.firstFree = id + 1
	slab.used--
	return value
}

// Len returns the number of allocated slots.
func (slab *Slab[T]) Len() int {
	return slab.used
}

// Range calls f for every allocated slot until f returns false. The
// value pointer stays valid until the slot is deallocated or another
// slot is allocated, and f may write through it. f must not allocate or
// deallocate slots.
func (slab *Slab[T]) Range(f func(id ID, value *T) bool) {
	for i := range slab.entries {
		if !slab.entries[i].used {
			continue
		}
		if !f(ID(i), &slab.entries[i].value) {
			return
		}
	}
}

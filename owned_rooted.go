package roots

import (
	"github.com/v2pro/plz/countlog"

	"github.com/bytecodealliance/wasmtime-sub002/ref"
)

// OwnedRooted is a handle to a garbage-collected object of phantom
// type T, rooted until every handle sharing its slot has been closed.
// The original and each Clone must be closed exactly once; a plain
// struct copy shares the receiver's hold and must not be closed on its
// own. Closing is cheap and store-independent, the slot itself is
// freed by a later trim.
type OwnedRooted[T any] struct {
	index GcRootIndex
	flag  *ref.Flag
}

// NewOwnedRooted roots gcRef for an arbitrary lifetime. The root set
// takes over the caller's reference and drops it through the heap once
// the last handle is closed and the slot is trimmed.
func NewOwnedRooted[T any](store *Store, gcRef GcRef) OwnedRooted[T] {
	return newOwnedRooted[T](store, gcRef)
}

func newOwnedRooted[T any](store *Store, gcRef GcRef) OwnedRooted[T] {
	index, flag := store.roots.allocOwnedSlot(store.id, store.Heap, gcRef)
	return OwnedRooted[T]{index: index, flag: flag}
}

// ComesFromSameStore reports whether the handle was minted by store.
func (owned OwnedRooted[T]) ComesFromSameStore(store *Store) bool {
	return owned.index.ComesFromSameStore(store)
}

// GcRef resolves the handle, reporting false once every hold on the
// slot has been released or the store has dropped its roots.
func (owned OwnedRooted[T]) GcRef(store *Store) (GcRef, bool) {
	gcRef, err := owned.TryGcRef(store)
	if err != nil {
		return NullGcRef, false
	}
	return gcRef, true
}

// TryGcRef resolves the handle, reporting UnrootedError once every
// hold on the slot has been released. The flag is consulted before the
// slot, so a fully closed handle can never read a slot that was
// recycled for somebody else in the meantime.
func (owned OwnedRooted[T]) TryGcRef(store *Store) (GcRef, error) {
	if owned.flag == nil || !owned.flag.Live() {
		return NullGcRef, UnrootedError
	}
	return owned.index.tryGcRef(store)
}

// Clone returns an independently closable handle sharing the slot.
// Cloning after the last hold was released is a bug and panics.
func (owned OwnedRooted[T]) Clone() OwnedRooted[T] {
	if owned.flag == nil || !owned.flag.Acquire() {
		countlog.Fatal("event!roots.cloned closed owned root",
			"root", owned.index)
		panic("clone of a fully closed owned root")
	}
	return owned
}

// Close releases the receiver's hold on the slot and always returns
// nil. The last Close across all clones makes the slot reclaimable;
// nothing on the store is touched here. Closing the same handle twice
// is a no-op.
func (owned *OwnedRooted[T]) Close() error {
	if owned.flag == nil {
		return nil
	}
	owned.flag.Release()
	owned.flag = nil
	return nil
}

// ToRooted roots the referent in the current lifo scope, leaving the
// owned slot untouched.
func (owned OwnedRooted[T]) ToRooted(store *Store) (Rooted[T], error) {
	gcRef, err := owned.TryGcRef(store)
	if err != nil {
		return Rooted[T]{}, err
	}
	return NewRooted[T](store, cloneGcRef(store.Heap, gcRef)), nil
}

// UncheckedCastOwned reinterprets the handle as rooting a U, acquiring
// a hold of its own on the slot. Nothing checks that the referent
// really is a U. Receiver and result each still need their Close.
func UncheckedCastOwned[U, T any](owned OwnedRooted[T]) OwnedRooted[U] {
	if owned.flag == nil || !owned.flag.Acquire() {
		countlog.Fatal("event!roots.cast closed owned root",
			"root", owned.index)
		panic("cast of a fully closed owned root")
	}
	return OwnedRooted[U]{index: owned.index, flag: owned.flag}
}

func (owned OwnedRooted[T]) rootIndex() GcRootIndex {
	return owned.index
}

package roots

// The raw boundary is how references cross in and out of the embedded
// guest: a bare uint32 with no handle around it. An outgoing raw value
// carries one strong hold of its own, so it stays meaningful no matter
// what happens to the handle it came from. An incoming raw value keeps
// its hold; rooting it takes a fresh one. Whoever ends up with a raw
// value releases it through the heap when done with it.

// ToRaw hands the referent out as its raw encoding. The reference is
// cloned first; the receiver owns that hold.
func (rooted Rooted[T]) ToRaw(store *Store) (uint32, error) {
	gcRef, err := rooted.index.tryGcRef(store)
	if err != nil {
		return 0, err
	}
	return cloneGcRef(store.Heap, gcRef).Raw(), nil
}

// ToRaw hands the referent out as its raw encoding. The reference is
// cloned first; the receiver owns that hold.
func (owned OwnedRooted[T]) ToRaw(store *Store) (uint32, error) {
	gcRef, err := owned.TryGcRef(store)
	if err != nil {
		return 0, err
	}
	return cloneGcRef(store.Heap, gcRef).Raw(), nil
}

// RootedFromRaw roots a raw value coming back from the guest into the
// current lifo scope. The reference is cloned, the raw value keeps its
// own hold. A raw null reports false without rooting anything.
func RootedFromRaw[T any](store *Store, raw uint32) (Rooted[T], bool) {
	gcRef := GcRefFromRaw(raw)
	if gcRef.IsNull() {
		return Rooted[T]{}, false
	}
	return NewRooted[T](store, cloneGcRef(store.Heap, gcRef)), true
}

// OwnedFromRaw roots a raw value coming back from the guest in a fresh
// owned slot. The reference is cloned, the raw value keeps its own
// hold. A raw null reports false without rooting anything.
func OwnedFromRaw[T any](store *Store, raw uint32) (OwnedRooted[T], bool) {
	gcRef := GcRefFromRaw(raw)
	if gcRef.IsNull() {
		return OwnedRooted[T]{}, false
	}
	return NewOwnedRooted[T](store, cloneGcRef(store.Heap, gcRef)), true
}

package roots

// Rooted is a handle to a garbage-collected object of phantom type T,
// rooted for the duration of the innermost lifo scope. It is a plain
// comparable value, freely copyable and usable as a map key; all the
// state lives in the store's root set, so a copy is the same root.
type Rooted[T any] struct {
	index GcRootIndex
}

// NewRooted roots gcRef in the current lifo scope of the store. The
// root set takes over the caller's reference and drops it through the
// heap when the scope exits.
func NewRooted[T any](store *Store, gcRef GcRef) Rooted[T] {
	return Rooted[T]{index: store.roots.PushLifoRoot(store.id, gcRef)}
}

// ComesFromSameStore reports whether the handle was minted by store.
func (rooted Rooted[T]) ComesFromSameStore(store *Store) bool {
	return rooted.index.ComesFromSameStore(store)
}

// GcRef resolves the handle, reporting false once its scope has
// exited.
func (rooted Rooted[T]) GcRef(store *Store) (GcRef, bool) {
	gcRef, err := rooted.index.tryGcRef(store)
	if err != nil {
		return NullGcRef, false
	}
	return gcRef, true
}

// TryGcRef resolves the handle, reporting UnrootedError once its scope
// has exited.
func (rooted Rooted[T]) TryGcRef(store *Store) (GcRef, error) {
	return rooted.index.tryGcRef(store)
}

// ToOwnedRooted roots the referent in a fresh owned slot that outlives
// the current scope. The receiver itself stays rooted until its scope
// exits; the new handle must be closed like any other owned handle.
func (rooted Rooted[T]) ToOwnedRooted(store *Store) (OwnedRooted[T], error) {
	gcRef, err := rooted.index.tryGcRef(store)
	if err != nil {
		return OwnedRooted[T]{}, err
	}
	return newOwnedRooted[T](store, cloneGcRef(store.Heap, gcRef)), nil
}

// UncheckedCastRooted reinterprets the handle as rooting a U. Nothing
// checks that the referent really is a U; the caller vouches for it.
func UncheckedCastRooted[U, T any](rooted Rooted[T]) Rooted[U] {
	return Rooted[U]{index: rooted.index}
}

func (rooted Rooted[T]) rootIndex() GcRootIndex {
	return rooted.index
}

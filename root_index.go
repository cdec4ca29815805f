package roots

import (
	"fmt"

	"github.com/v2pro/plz/countlog"

	"github.com/bytecodealliance/wasmtime-sub002/slab"
)

// GcRootIndex names one root inside one store. It is a plain value,
// freely copyable and comparable, and never dereferences anything by
// itself: every access goes back through the store that created it so
// staleness can be detected.
type GcRootIndex struct {
	store      StoreID
	generation uint32
	index      PackedIndex
}

// ComesFromSameStore reports whether the root was created by the given
// store. Mixing roots across stores is a programmer error and every
// accessor checks this first.
func (index GcRootIndex) ComesFromSameStore(store *Store) bool {
	return store != nil && index.store == store.id
}

func (index GcRootIndex) assertSameStore(store *Store) {
	if index.ComesFromSameStore(store) {
		return
	}
	countlog.Fatal("event!roots.root used with wrong store",
		"rootStore", index.store,
		"store", storeIDOf(store))
	panic("gc root used with a store it does not belong to")
}

// tryGcRef resolves the index to the gc reference it roots, or reports
// UnrootedError when the root has been unrooted since. Cross-store use
// is not an error value, it is a bug, and panics.
func (index GcRootIndex) tryGcRef(store *Store) (GcRef, error) {
	index.assertSameStore(store)
	rootSet := &store.roots
	if offset, ok := index.index.AsLifo(); ok {
		if int(offset) >= len(rootSet.lifoRoots) {
			return NullGcRef, UnrootedError
		}
		entry := rootSet.lifoRoots[offset]
		if entry.generation != index.generation {
			return NullGcRef, UnrootedError
		}
		return entry.gcRef, nil
	}
	slot, _ := index.index.AsOwned()
	slotRef, ok := rootSet.ownedRooted.Get(slab.ID(slot))
	if !ok {
		return NullGcRef, UnrootedError
	}
	return *slotRef, nil
}

func (index GcRootIndex) String() string {
	return fmt.Sprintf("root{store=%d,generation=%d,index=%s}",
		index.store, index.generation, index.index)
}

func storeIDOf(store *Store) StoreID {
	if store == nil {
		return 0
	}
	return store.id
}

package roots

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_to_raw_hands_out_an_extra_hold(t *testing.T) {
	should := require.New(t)
	heap := newCountingHeap()
	store := NewStore(Config{Heap: heap})
	defer store.Close()
	scope := NewRootScope(store)
	gcRef := heap.alloc()
	rooted := NewRooted[testObject](store, gcRef)
	raw, err := rooted.ToRaw(store)
	should.Nil(err)
	should.Equal(gcRef.Raw(), raw)
	should.Equal(1, heap.clones)
	scope.Close()
	// the raw hold keeps the object alive past the scope exit
	should.Equal(1, heap.live())
	heap.DropGcRef(GcRefFromRaw(raw))
	should.Equal(0, heap.live())
}

func Test_to_raw_of_unrooted_handle_fails(t *testing.T) {
	should := require.New(t)
	heap := newCountingHeap()
	store := NewStore(Config{Heap: heap})
	defer store.Close()
	scope := NewRootScope(store)
	rooted := NewRooted[testObject](store, heap.alloc())
	scope.Close()
	_, err := rooted.ToRaw(store)
	should.Equal(UnrootedError, err)
}

func Test_rooted_from_raw_re_roots_the_reference(t *testing.T) {
	should := require.New(t)
	heap := newCountingHeap()
	store := NewStore(Config{Heap: heap})
	defer store.Close()
	scope := NewRootScope(store)
	defer scope.Close()
	gcRef := heap.alloc()
	rooted, ok := RootedFromRaw[testObject](store, gcRef.Raw())
	should.True(ok)
	should.Equal(1, heap.clones)
	resolved, ok := rooted.GcRef(store)
	should.True(ok)
	should.Equal(gcRef, resolved)
	// the raw value kept its own hold
	heap.DropGcRef(gcRef)
	should.Equal(1, heap.live())
}

func Test_from_raw_null_roots_nothing(t *testing.T) {
	should := require.New(t)
	heap := newCountingHeap()
	store := NewStore(Config{Heap: heap})
	defer store.Close()
	scope := NewRootScope(store)
	defer scope.Close()
	_, ok := RootedFromRaw[testObject](store, 0)
	should.False(ok)
	_, ok = OwnedFromRaw[testObject](store, 0)
	should.False(ok)
	should.Equal(0, store.RootSet().NumLifoRoots())
	should.Equal(0, store.RootSet().NumOwnedRoots())
	should.Equal(0, heap.clones)
}

func Test_owned_raw_round_trip(t *testing.T) {
	should := require.New(t)
	heap := newCountingHeap()
	store := NewStore(Config{Heap: heap})
	defer store.Close()
	gcRef := heap.alloc()
	owned := NewOwnedRooted[testObject](store, gcRef)
	raw, err := owned.ToRaw(store)
	should.Nil(err)
	reRooted, ok := OwnedFromRaw[testObject](store, raw)
	should.True(ok)
	same, err := RefEq(store, owned, reRooted)
	should.Nil(err)
	should.True(same)
	should.False(RootedEq(owned, reRooted))
	heap.DropGcRef(GcRefFromRaw(raw))
	owned.Close()
	reRooted.Close()
}

func Test_immediates_cross_the_raw_boundary_unchanged(t *testing.T) {
	should := require.New(t)
	heap := newCountingHeap()
	store := NewStore(Config{Heap: heap})
	defer store.Close()
	scope := NewRootScope(store)
	defer scope.Close()
	rooted := NewRooted[testObject](store, NewImmediate(-3))
	raw, err := rooted.ToRaw(store)
	should.Nil(err)
	back, ok := RootedFromRaw[testObject](store, raw)
	should.True(ok)
	resolved, _ := back.GcRef(store)
	value, ok := resolved.Immediate()
	should.True(ok)
	should.Equal(int32(-3), value)
	should.Equal(0, heap.clones)
}

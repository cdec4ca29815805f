package roots

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_rooted_is_unrooted_after_scope_exit(t *testing.T) {
	should := require.New(t)
	heap := newCountingHeap()
	store := NewStore(Config{Heap: heap})
	defer store.Close()
	scope := NewRootScope(store)
	rooted := NewRooted[testObject](store, heap.alloc())
	scope.Close()
	_, ok := rooted.GcRef(store)
	should.False(ok)
	_, err := rooted.TryGcRef(store)
	should.Equal(UnrootedError, err)
}

func Test_rooted_copy_is_the_same_root(t *testing.T) {
	should := require.New(t)
	heap := newCountingHeap()
	store := NewStore(Config{Heap: heap})
	defer store.Close()
	scope := NewRootScope(store)
	defer scope.Close()
	rooted := NewRooted[testObject](store, heap.alloc())
	copied := rooted
	should.True(RootedEq(rooted, copied))
	first, _ := rooted.GcRef(store)
	second, _ := copied.GcRef(store)
	should.Equal(first, second)
}

func Test_root_used_with_wrong_store_panics(t *testing.T) {
	should := require.New(t)
	storeA := NewStore(Config{})
	defer storeA.Close()
	storeB := NewStore(Config{})
	defer storeB.Close()
	scope := NewRootScope(storeA)
	defer scope.Close()
	rooted := NewRooted[testObject](storeA, NewImmediate(1))
	should.True(rooted.ComesFromSameStore(storeA))
	should.False(rooted.ComesFromSameStore(storeB))
	should.Panics(func() {
		rooted.GcRef(storeB)
	})
}

func Test_rooted_eq_and_ref_eq_are_different_relations(t *testing.T) {
	should := require.New(t)
	heap := newCountingHeap()
	store := NewStore(Config{Heap: heap})
	defer store.Close()
	scope := NewRootScope(store)
	defer scope.Close()
	shared := heap.alloc()
	first := NewRooted[testObject](store, shared)
	second := NewRooted[testObject](store, heap.CloneGcRef(shared))
	other := NewRooted[testObject](store, heap.alloc())

	// two roots of the same object: same referent, different slots
	should.False(RootedEq(first, second))
	same, err := RefEq(store, first, second)
	should.Nil(err)
	should.True(same)

	same, err = RefEq(store, first, other)
	should.Nil(err)
	should.False(same)
	should.False(RootedEq(first, other))
}

func Test_ref_eq_reports_unrooted_handles(t *testing.T) {
	should := require.New(t)
	heap := newCountingHeap()
	store := NewStore(Config{Heap: heap})
	defer store.Close()
	scope := NewRootScope(store)
	stale := NewRooted[testObject](store, heap.alloc())
	scope.Close()
	fresh := NewRootScope(store)
	defer fresh.Close()
	live := NewRooted[testObject](store, heap.alloc())
	_, err := RefEq(store, stale, live)
	should.Equal(UnrootedError, err)
	_, err = RefEq(store, live, stale)
	should.Equal(UnrootedError, err)
}

func Test_hashes_follow_the_two_relations(t *testing.T) {
	should := require.New(t)
	heap := newCountingHeap()
	store := NewStore(Config{Heap: heap})
	defer store.Close()
	scope := NewRootScope(store)
	defer scope.Close()
	shared := heap.alloc()
	first := NewRooted[testObject](store, shared)
	second := NewRooted[testObject](store, heap.CloneGcRef(shared))

	should.Equal(RootedHash(first), RootedHash(first))
	should.NotEqual(RootedHash(first), RootedHash(second))

	hashFirst, err := RefHash(store, first)
	should.Nil(err)
	hashSecond, err := RefHash(store, second)
	should.Nil(err)
	should.Equal(hashFirst, hashSecond)
}

func Test_to_owned_rooted_outlives_the_scope(t *testing.T) {
	should := require.New(t)
	heap := newCountingHeap()
	store := NewStore(Config{Heap: heap})
	defer store.Close()
	scope := NewRootScope(store)
	gcRef := heap.alloc()
	rooted := NewRooted[testObject](store, gcRef)
	owned, err := rooted.ToOwnedRooted(store)
	should.Nil(err)
	should.Equal(1, heap.clones)
	scope.Close()
	resolved, ok := owned.GcRef(store)
	should.True(ok)
	should.Equal(gcRef, resolved)
	owned.Close()
}

func Test_promotion_round_trip_is_a_new_slot_same_referent(t *testing.T) {
	should := require.New(t)
	heap := newCountingHeap()
	store := NewStore(Config{Heap: heap})
	defer store.Close()
	scope := NewRootScope(store)
	defer scope.Close()
	rooted := NewRooted[testObject](store, heap.alloc())
	owned, err := rooted.ToOwnedRooted(store)
	should.Nil(err)
	defer owned.Close()
	back, err := owned.ToRooted(store)
	should.Nil(err)
	should.False(RootedEq(rooted, back))
	same, err := RefEq(store, rooted, back)
	should.Nil(err)
	should.True(same)
}

func Test_to_owned_rooted_of_stale_handle_fails(t *testing.T) {
	should := require.New(t)
	heap := newCountingHeap()
	store := NewStore(Config{Heap: heap})
	defer store.Close()
	scope := NewRootScope(store)
	stale := NewRooted[testObject](store, heap.alloc())
	scope.Close()
	_, err := stale.ToOwnedRooted(store)
	should.Equal(UnrootedError, err)
}

func Test_unchecked_cast_rooted_keeps_the_slot(t *testing.T) {
	should := require.New(t)
	heap := newCountingHeap()
	store := NewStore(Config{Heap: heap})
	defer store.Close()
	scope := NewRootScope(store)
	defer scope.Close()
	gcRef := heap.alloc()
	rooted := NewRooted[testObject](store, gcRef)
	cast := UncheckedCastRooted[int](rooted)
	should.True(RootedEq(rooted, cast))
	resolved, ok := cast.GcRef(store)
	should.True(ok)
	should.Equal(gcRef, resolved)
}

func Test_immediate_roots_need_no_heap_traffic(t *testing.T) {
	should := require.New(t)
	heap := newCountingHeap()
	store := NewStore(Config{Heap: heap})
	defer store.Close()
	scope := NewRootScope(store)
	rooted := NewRooted[testObject](store, NewImmediate(-42))
	resolved, ok := rooted.GcRef(store)
	should.True(ok)
	value, ok := resolved.Immediate()
	should.True(ok)
	should.Equal(int32(-42), value)
	scope.Close()
	should.Equal(0, heap.clones)
	should.Equal(0, heap.drops)
}

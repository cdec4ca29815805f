// Package roots tracks the references an embedder holds into a GC
// managed guest heap. The collector finds every live reference through
// one TraceRoots call and may relocate the referents in place.
// Embedders hold scoped Rooted handles bounded by a RootScope,
// arbitrary lifetime OwnedRooted handles, or bare uint32 values at the
// guest boundary; every handle detects staleness instead of
// dereferencing a dead slot.
package roots

import (
	"github.com/v2pro/plz/countlog"

	"github.com/bytecodealliance/wasmtime-sub002/slab"
)

type lifoRoot struct {
	generation uint32
	gcRef      GcRef
}

// RootSet tracks every gc reference the embedder holds, so the
// collector can find them all and relocate them. Scoped roots live on
// a stack bounded by enter/exit pairs, owned roots live in a slab of
// stable slots. RootSet is not thread safe
type RootSet struct {
	ownedRooted   slab.Slab[GcRef]
	livenessFlags []livenessEntry
	trimHighWater int

	lifoRoots      []lifoRoot
	lifoGeneration uint32
	scopeMarkers   []int
}

// EnterLifoScope opens a scope and returns its marker. Every root
// pushed before the matching exit is unrooted by that exit.
func (rootSet *RootSet) EnterLifoScope() int {
	marker := len(rootSet.lifoRoots)
	rootSet.scopeMarkers = append(rootSet.scopeMarkers, marker)
	return marker
}

// ExitLifoScope closes the innermost scope. Exiting with any marker
// but the innermost one is a bug and panics. Drained references are
// released through the heap, which may be nil.
func (rootSet *RootSet) ExitLifoScope(heap GcHeap, marker int) {
	depth := len(rootSet.scopeMarkers)
	if depth == 0 || rootSet.scopeMarkers[depth-1] != marker ||
		len(rootSet.lifoRoots) < marker {
		countlog.Fatal("event!roots.lifo scope exited out of order",
			"marker", marker,
			"depth", depth)
		panic("lifo scope exited out of order")
	}
	rootSet.scopeMarkers = rootSet.scopeMarkers[:depth-1]
	if len(rootSet.lifoRoots) == marker {
		// nothing was pushed in the scope, so no stack offset is
		// freed here and no later root can alias a stale handle,
		// the generation can stay as it is
		return
	}
	rootSet.exitLifoScopeSlow(heap, marker)
}

func (rootSet *RootSet) exitLifoScopeSlow(heap GcHeap, marker int) {
	rootSet.lifoGeneration++
	drained := rootSet.lifoRoots[marker:]
	for _, entry := range drained {
		dropGcRef(heap, entry.gcRef)
	}
	rootSet.lifoRoots = rootSet.lifoRoots[:marker]
	countlog.Trace("event!roots.exited lifo scope",
		"marker", marker,
		"drained", len(drained),
		"generation", rootSet.lifoGeneration)
}

// PushLifoRoot roots gcRef in the innermost scope, taking over the
// caller's reference. The returned index stays valid until the scope
// exits.
func (rootSet *RootSet) PushLifoRoot(store StoreID, gcRef GcRef) GcRootIndex {
	offset := len(rootSet.lifoRoots)
	index := newLifoIndex(offset)
	rootSet.lifoRoots = append(rootSet.lifoRoots, lifoRoot{
		generation: rootSet.lifoGeneration,
		gcRef:      gcRef,
	})
	return GcRootIndex{
		store:      store,
		generation: rootSet.lifoGeneration,
		index:      index,
	}
}

func (rootSet *RootSet) reserve(n int) {
	need := len(rootSet.lifoRoots) + n
	if need <= cap(rootSet.lifoRoots) {
		return
	}
	grown := make([]lifoRoot, len(rootSet.lifoRoots), need)
	copy(grown, rootSet.lifoRoots)
	rootSet.lifoRoots = grown
}

// TraceRoots hands every live root to the collector. The collector may
// rewrite each reference in place to relocate its referent. The root
// set must not be mutated until TraceRoots returns.
func (rootSet *RootSet) TraceRoots(list RootsList) {
	for i := range rootSet.lifoRoots {
		list.AddRoot(&rootSet.lifoRoots[i].gcRef, "lifo root")
	}
	rootSet.ownedRooted.Range(func(id slab.ID, slotRef *GcRef) bool {
		list.AddRoot(slotRef, "owned root")
		return true
	})
	countlog.Debug("event!roots.traced roots",
		"lifo", len(rootSet.lifoRoots),
		"owned", rootSet.ownedRooted.Len())
}

// NumLifoRoots returns how many scoped roots are currently live.
func (rootSet *RootSet) NumLifoRoots() int {
	return len(rootSet.lifoRoots)
}

// NumOwnedRoots returns how many owned slots are currently allocated,
// reclaimed holds excluded.
func (rootSet *RootSet) NumOwnedRoots() int {
	return rootSet.ownedRooted.Len()
}

// NumLivenessFlags returns how many owned slots still carry a
// liveness observer, dead ones awaiting a trim included.
func (rootSet *RootSet) NumLivenessFlags() int {
	return len(rootSet.livenessFlags)
}

func (rootSet *RootSet) releaseAll(heap GcHeap) {
	for _, entry := range rootSet.lifoRoots {
		dropGcRef(heap, entry.gcRef)
	}
	released := len(rootSet.lifoRoots)
	rootSet.lifoRoots = nil
	rootSet.lifoGeneration++
	rootSet.scopeMarkers = nil
	rootSet.ownedRooted.Range(func(id slab.ID, slotRef *GcRef) bool {
		dropGcRef(heap, *slotRef)
		released++
		return true
	})
	rootSet.ownedRooted = slab.Slab[GcRef]{}
	rootSet.livenessFlags = nil
	countlog.Trace("event!roots.released all roots",
		"released", released)
}

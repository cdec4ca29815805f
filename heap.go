package roots

// GcHeap is the reference bookkeeping side of the GC heap, consumed by
// the root set. Implementations that also implement io.Closer are
// closed together with their store.
type GcHeap interface {
	// CloneGcRef duplicates a reference, for example by incrementing
	// an object's reference count. The returned reference is owned by
	// the caller.
	CloneGcRef(gcRef GcRef) GcRef

	// DropGcRef releases a reference previously obtained from the
	// heap or from CloneGcRef.
	DropGcRef(gcRef GcRef)
}

// RootsList is the collector's sink for live roots. During a trace the
// collector receives a pointer to each stored reference and may rewrite
// it in place when the referenced object moved; the rewrite is visible
// to every later lookup through the same slot.
type RootsList interface {
	AddRoot(gcRef *GcRef, why string)
}

// cloneGcRef forwards to the heap, skipping the reference kinds that
// need no bookkeeping: null, immediates, and every reference when no
// heap is attached (a program may only ever use immediates).
func cloneGcRef(heap GcHeap, gcRef GcRef) GcRef {
	if heap == nil || gcRef.IsNull() || gcRef.IsImmediate() {
		return gcRef
	}
	return heap.CloneGcRef(gcRef)
}

func dropGcRef(heap GcHeap, gcRef GcRef) {
	if heap == nil || gcRef.IsNull() || gcRef.IsImmediate() {
		return
	}
	heap.DropGcRef(gcRef)
}

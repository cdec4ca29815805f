package roots

import (
	"github.com/v2pro/plz/countlog"

	"github.com/bytecodealliance/wasmtime-sub002/ref"
	"github.com/bytecodealliance/wasmtime-sub002/slab"
)

const defaultLivenessHighWater = 8

// livenessEntry observes one owned slot. The flag counts the handles
// still holding the slot; once they are all gone the next trim frees
// the slot and drops the reference it pinned.
type livenessEntry struct {
	flag *ref.Flag
	slot slab.ID
}

func (rootSet *RootSet) allocOwnedSlot(
	store StoreID, heap GcHeap, gcRef GcRef) (GcRootIndex, *ref.Flag) {
	rootSet.TrimLivenessFlags(heap, false)
	slot := rootSet.ownedRooted.Alloc(gcRef)
	index := newOwnedIndex(uint32(slot))
	flag := ref.NewFlag()
	rootSet.livenessFlags = append(rootSet.livenessFlags, livenessEntry{
		flag: flag,
		slot: slot,
	})
	// owned slots never move, generation stays zero for them
	return GcRootIndex{store: store, generation: 0, index: index}, flag
}

// TrimLivenessFlags frees the slots of owned roots whose handles have
// all been closed. Unless eager is set the scan is skipped while the
// flag list is below the high water mark, and after every scan the
// mark resets to twice the surviving length with a floor of 8, so the
// list never grows past twice the peak number of live owned roots and
// the scan cost stays amortized constant per owned root created.
func (rootSet *RootSet) TrimLivenessFlags(heap GcHeap, eager bool) {
	if !eager && len(rootSet.livenessFlags) < rootSet.trimHighWater {
		return
	}
	retained := rootSet.livenessFlags[:0]
	reclaimed := 0
	for _, entry := range rootSet.livenessFlags {
		if entry.flag.Live() {
			retained = append(retained, entry)
			continue
		}
		slotRef := rootSet.ownedRooted.Dealloc(entry.slot)
		dropGcRef(heap, slotRef)
		reclaimed++
	}
	rootSet.livenessFlags = retained
	rootSet.trimHighWater = 2 * len(retained)
	if rootSet.trimHighWater < defaultLivenessHighWater {
		rootSet.trimHighWater = defaultLivenessHighWater
	}
	if reclaimed > 0 {
		countlog.Debug("event!roots.trimmed liveness flags",
			"reclaimed", reclaimed,
			"retained", len(retained),
			"highWater", rootSet.trimHighWater)
	}
}

// Package drc is a deferred reference counting, compacting gc heap.
// Dropping the last count does not free an object; reclamation is
// deferred to the next Collect, which copies every object still
// counted into a fresh arena in address order and rewrites the rooted
// references through the root set. Cycles are never collected, and
// only rooted references survive a move: raw values and bare
// references held across a Collect go stale.
package drc

import (
	"encoding/binary"

	"github.com/v2pro/plz/countlog"

	roots "github.com/bytecodealliance/wasmtime-sub002"
)

// object layout: [count uint32][size uint32][payload], padded to 8
const objectHeaderSize = 8

func alignedObjectSize(payloadSize int) int {
	return (objectHeaderSize + payloadSize + 7) &^ 7
}

type Config struct {
	PageSizeInPowerOfTwo uint8 // 2 ^ x bytes per page
	MaxPagesCount        int
}

// Heap is not thread safe
type Heap struct {
	Config
	arena       *arena
	objects     []uint32
	liveObjects int
}

func New(config Config) *Heap {
	if config.PageSizeInPowerOfTwo == 0 {
		config.PageSizeInPowerOfTwo = 16
	}
	if config.MaxPagesCount == 0 {
		config.MaxPagesCount = 1024
	}
	return &Heap{
		Config: config,
		arena:  newArena(config.PageSizeInPowerOfTwo, config.MaxPagesCount),
	}
}

// Alloc copies payload into a fresh object and returns a reference
// carrying one count, owned by the caller.
func (heap *Heap) Alloc(payload []byte) roots.GcRef {
	offset, buf := heap.arena.allocate(alignedObjectSize(len(payload)))
	binary.LittleEndian.PutUint32(buf[:4], 1)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[objectHeaderSize:], payload)
	heap.objects = append(heap.objects, offset)
	heap.liveObjects++
	return roots.NewHeapGcRef(offset)
}

// Payload returns a live view of the object's bytes, valid until the
// next Collect moves the object.
func (heap *Heap) Payload(gcRef roots.GcRef) []byte {
	header := heap.header(gcRef)
	size := int(binary.LittleEndian.Uint32(header[4:8]))
	addr, _ := gcRef.HeapAddr()
	return heap.arena.slice(addr, objectHeaderSize+size)[objectHeaderSize:]
}

// RefCount reads the object's current count, for accounting checks.
func (heap *Heap) RefCount(gcRef roots.GcRef) uint32 {
	return binary.LittleEndian.Uint32(heap.header(gcRef)[:4])
}

// NumObjects returns how many objects still carry at least one count.
func (heap *Heap) NumObjects() int {
	return heap.liveObjects
}

// CloneGcRef adds one count to the referenced object. Null and
// immediate references carry no counts and pass through unchanged.
func (heap *Heap) CloneGcRef(gcRef roots.GcRef) roots.GcRef {
	if gcRef.IsNull() || gcRef.IsImmediate() {
		return gcRef
	}
	header := heap.header(gcRef)
	count := binary.LittleEndian.Uint32(header[:4])
	if count == 0 {
		countlog.Fatal("event!drc.cloned dead object",
			"gcRef", gcRef)
		panic("clone of a dead object")
	}
	binary.LittleEndian.PutUint32(header[:4], count+1)
	return gcRef
}

// DropGcRef releases one count. The object's memory stays put until
// the next Collect, even when the last count goes.
func (heap *Heap) DropGcRef(gcRef roots.GcRef) {
	if gcRef.IsNull() || gcRef.IsImmediate() {
		return
	}
	header := heap.header(gcRef)
	count := binary.LittleEndian.Uint32(header[:4])
	if count == 0 {
		countlog.Fatal("event!drc.dropped dead object",
			"gcRef", gcRef)
		panic("drop of a dead object")
	}
	binary.LittleEndian.PutUint32(header[:4], count-1)
	if count == 1 {
		heap.liveObjects--
	}
}

// Collect copies every object still carrying a count into a fresh
// arena, in address order, and rewrites the references held by the
// root set to the new addresses. Everything else, dead objects
// included, is unmapped with the old arena.
func (heap *Heap) Collect(rootSet *roots.RootSet) {
	gathered := &gatheredRoots{}
	rootSet.TraceRoots(gathered)
	fresh := newArena(heap.PageSizeInPowerOfTwo, heap.MaxPagesCount)
	moved := make(map[uint32]uint32, heap.liveObjects)
	survivors := make([]uint32, 0, heap.liveObjects)
	for _, offset := range heap.objects {
		header := heap.arena.slice(offset, objectHeaderSize)
		count := binary.LittleEndian.Uint32(header[:4])
		if count == 0 {
			continue
		}
		size := int(binary.LittleEndian.Uint32(header[4:8]))
		newOffset, buf := fresh.allocate(alignedObjectSize(size))
		copy(buf, heap.arena.slice(offset, objectHeaderSize+size))
		moved[offset] = newOffset
		survivors = append(survivors, newOffset)
	}
	relocated := 0
	for _, rootRef := range gathered.refs {
		addr, ok := rootRef.HeapAddr()
		if !ok {
			continue
		}
		newAddr, ok := moved[addr]
		if !ok {
			countlog.Fatal("event!drc.rooted object is dead",
				"gcRef", *rootRef)
			panic("rooted object is dead")
		}
		*rootRef = roots.NewHeapGcRef(newAddr)
		relocated++
	}
	old := heap.arena
	heap.arena = fresh
	heap.objects = survivors
	heap.liveObjects = len(survivors)
	err := old.Close()
	countlog.TraceCall("callee!arena.Close", err)
	countlog.Debug("event!drc.collected",
		"survivors", len(survivors),
		"relocatedRoots", relocated)
}

func (heap *Heap) Close() error {
	return heap.arena.Close()
}

func (heap *Heap) header(gcRef roots.GcRef) []byte {
	addr, ok := gcRef.HeapAddr()
	if !ok {
		countlog.Fatal("event!drc.not a heap reference",
			"gcRef", gcRef)
		panic("not a heap reference")
	}
	return heap.arena.slice(addr, objectHeaderSize)
}

type gatheredRoots struct {
	refs []*roots.GcRef
}

func (gathered *gatheredRoots) AddRoot(gcRef *roots.GcRef, why string) {
	gathered.refs = append(gathered.refs, gcRef)
}

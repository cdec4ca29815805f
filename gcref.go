package roots

import (
	"fmt"
)

// GcRef is a raw reference to a GC managed value, in the same encoding
// the host boundary uses: 0 is null, a value with the low bit set is an
// immediate (a 31 bit payload carried in the reference itself, never
// heap backed), and any other nonzero value is an opaque heap reference
// minted by the active GC heap.
//
// A GcRef is only a name for an object. It does not keep the object
// alive; holding one across a collection requires rooting it first.
type GcRef uint32

const immediateTag uint32 = 1

// NullGcRef is the null reference.
const NullGcRef GcRef = 0

// NewImmediate returns an immediate reference carrying the low 31 bits
// of value. Immediates need no heap bookkeeping: cloning and dropping
// them are no-ops.
func NewImmediate(value int32) GcRef {
	return GcRef(uint32(value)<<1 | immediateTag)
}

// NewHeapGcRef returns a heap reference for an address minted by the GC
// heap. The address must be nonzero and even, odd values collide with
// the immediate encoding.
func NewHeapGcRef(addr uint32) GcRef {
	if addr == 0 || addr&immediateTag != 0 {
		panic(fmt.Sprintf("invalid heap address %#x", addr))
	}
	return GcRef(addr)
}

// GcRefFromRaw reinterprets a raw host value as a reference. The zero
// raw value becomes the null reference.
func GcRefFromRaw(raw uint32) GcRef {
	return GcRef(raw)
}

// Raw returns the host encoding of the reference.
func (gcRef GcRef) Raw() uint32 {
	return uint32(gcRef)
}

// IsNull reports whether the reference is null.
func (gcRef GcRef) IsNull() bool {
	return gcRef == NullGcRef
}

// IsImmediate reports whether the reference is an immediate value
// rather than a heap reference.
func (gcRef GcRef) IsImmediate() bool {
	return uint32(gcRef)&immediateTag != 0
}

// Immediate returns the sign extended payload of an immediate
// reference, or false for null and heap references.
func (gcRef GcRef) Immediate() (int32, bool) {
	if !gcRef.IsImmediate() {
		return 0, false
	}
	return int32(gcRef) >> 1, true
}

// HeapAddr returns the heap address of a heap reference, or false for
// null and immediate references.
func (gcRef GcRef) HeapAddr() (uint32, bool) {
	if gcRef.IsNull() || gcRef.IsImmediate() {
		return 0, false
	}
	return uint32(gcRef), true
}

func (gcRef GcRef) String() string {
	if gcRef.IsNull() {
		return "null"
	}
	if value, ok := gcRef.Immediate(); ok {
		return fmt.Sprintf("immediate(%d)", value)
	}
	return fmt.Sprintf("heap(%#x)", uint32(gcRef))
}

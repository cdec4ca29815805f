package roots

import (
	"fmt"

	"github.com/v2pro/plz/countlog"
)

// PackedIndex locates a root within its root set, packed into one
// machine word: the top bit discriminates between the two root kinds
// and the low 31 bits carry either a LIFO stack offset or an owned slot
// id. A PackedIndex never changes after construction.
type PackedIndex uint32

const (
	packedDiscriminant      = uint32(1) << 31
	packedLifoDiscriminant  = uint32(0)
	packedOwnedDiscriminant = packedDiscriminant
	maxPackedPayload        = packedDiscriminant - 1
)

func newLifoIndex(offset int) PackedIndex {
	if offset < 0 || uint64(offset) > uint64(maxPackedPayload) {
		countlog.Fatal("event!roots.lifo offset overflows packed index",
			"offset", offset)
		panic("lifo root offset overflows the 31-bit index space")
	}
	return PackedIndex(packedLifoDiscriminant | uint32(offset))
}

func newOwnedIndex(slot uint32) PackedIndex {
	if slot > maxPackedPayload {
		countlog.Fatal("event!roots.owned slot overflows packed index",
			"slot", slot)
		panic("owned root slot overflows the 31-bit index space")
	}
	return PackedIndex(packedOwnedDiscriminant | slot)
}

// IsLifo reports whether the index names a LIFO stack offset. Exactly
// one of IsLifo and IsOwned holds.
func (index PackedIndex) IsLifo() bool {
	return uint32(index)&packedDiscriminant == packedLifoDiscriminant
}

// IsOwned reports whether the index names an owned slot id.
func (index PackedIndex) IsOwned() bool {
	return uint32(index)&packedDiscriminant == packedOwnedDiscriminant
}

// AsLifo returns the LIFO stack offset, or false for an owned index.
func (index PackedIndex) AsLifo() (uint32, bool) {
	if !index.IsLifo() {
		return 0, false
	}
	return uint32(index) &^ packedDiscriminant, true
}

// AsOwned returns the owned slot id, or false for a LIFO index.
func (index PackedIndex) AsOwned() (uint32, bool) {
	if !index.IsOwned() {
		return 0, false
	}
	return uint32(index) &^ packedDiscriminant, true
}

func (index PackedIndex) String() string {
	if offset, ok := index.AsLifo(); ok {
		return fmt.Sprintf("lifo(%d)", offset)
	}
	slot, _ := index.AsOwned()
	return fmt.Sprintf("owned(%d)", slot)
}

package roots

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// GcRoot is the read surface shared by Rooted and OwnedRooted, so the
// equality and hash relations below work across both handle kinds.
type GcRoot interface {
	TryGcRef(store *Store) (GcRef, error)
	ComesFromSameStore(store *Store) bool
	rootIndex() GcRootIndex
}

// RootedEq reports whether two handles name the same root slot. Two
// separate roots of the same object are not RootedEq; resolve them
// with RefEq for that question. Unrooted handles compare fine, a
// handle is always RootedEq to its own copies.
func RootedEq(a, b GcRoot) bool {
	return a.rootIndex() == b.rootIndex()
}

// RefEq reports whether two handles currently refer to the same
// object. An unrooted handle on either side fails with UnrootedError
// rather than comparing unequal.
func RefEq(store *Store, a, b GcRoot) (bool, error) {
	refA, err := a.TryGcRef(store)
	if err != nil {
		return false, err
	}
	refB, err := b.TryGcRef(store)
	if err != nil {
		return false, err
	}
	return refA == refB, nil
}

// RootedHash digests the root slot identity, consistent with RootedEq:
// handles that are RootedEq hash alike for the life of the process.
func RootedHash(root GcRoot) uint64 {
	index := root.rootIndex()
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(index.store))
	binary.LittleEndian.PutUint32(buf[8:12], index.generation)
	binary.LittleEndian.PutUint32(buf[12:], uint32(index.index))
	return murmur3.Sum64(buf[:])
}

// RefHash digests the referent identity, consistent with RefEq. Only
// stable until the next collection moves the referent; unrooted
// handles fail with UnrootedError.
func RefHash(store *Store, root GcRoot) (uint64, error) {
	gcRef, err := root.TryGcRef(store)
	if err != nil {
		return 0, err
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], gcRef.Raw())
	return murmur3.Sum64(buf[:]), nil
}

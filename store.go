package roots

import (
	"io"
	"sync/atomic"

	"github.com/v2pro/plz"
	"github.com/v2pro/plz/countlog"
)

// StoreID identifies a store for the lifetime of the process. Ids are
// minted from a global counter and never reused, so a handle minted by
// one store can always be told apart from the handles of every other
// store, including stores created after it died.
type StoreID uint64

var storeIDSeq uint64

type Config struct {
	// Heap is told about every reference the root set clones or
	// drops. May be nil, in which case only null and immediate
	// references can usefully be rooted.
	Heap GcHeap
	// LifoCapacity pre-sizes the scoped root stack.
	LifoCapacity int
	// TrimHighWater overrides the initial liveness flag trim
	// threshold. Zero means the default of 8.
	TrimHighWater int
}

// Store owns one RootSet and is not thread safe
type Store struct {
	Config
	id     StoreID
	roots  RootSet
	closed bool
}

func NewStore(config Config) *Store {
	if config.LifoCapacity == 0 {
		config.LifoCapacity = 64
	}
	if config.TrimHighWater == 0 {
		config.TrimHighWater = defaultLivenessHighWater
	}
	store := &Store{
		Config: config,
		id:     StoreID(atomic.AddUint64(&storeIDSeq, 1)),
	}
	store.roots.lifoRoots = make([]lifoRoot, 0, config.LifoCapacity)
	store.roots.trimHighWater = config.TrimHighWater
	countlog.Trace("event!roots.new store",
		"store", store.id)
	return store
}

// ID returns the process-unique id of this store.
func (store *Store) ID() StoreID {
	return store.id
}

// RootSet exposes the root set for scope management and tracing.
func (store *Store) RootSet() *RootSet {
	return &store.roots
}

// Close drops every root the store still holds, then closes the heap
// if the heap is closable. Handles minted by this store become
// permanently unrooted. Close is idempotent.
func (store *Store) Close() error {
	if store.closed {
		return nil
	}
	store.closed = true
	store.roots.releaseAll(store.Heap)
	var errs []error
	if closer, _ := store.Heap.(io.Closer); closer != nil {
		err := closer.Close()
		countlog.TraceCall("callee!heap.Close", err)
		if err != nil {
			errs = append(errs, err)
		}
	}
	countlog.Trace("event!roots.store closed",
		"store", store.id)
	return plz.MergeErrors(errs...)
}

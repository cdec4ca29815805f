package roots

// RootScope bounds the lifetime of scoped roots. Everything rooted
// between NewRootScope and Close is unrooted by Close. The usual shape
// is
//
//	scope := roots.NewRootScope(store)
//	defer scope.Close()
//
// so the scope also exits on panic unwind. Scopes nest and must close
// innermost first; closing them out of order panics.
type RootScope struct {
	store  *Store
	marker int
	exited bool
}

// NewRootScope opens a lifo scope on the store.
func NewRootScope(store *Store) *RootScope {
	return &RootScope{
		store:  store,
		marker: store.roots.EnterLifoScope(),
	}
}

// Store returns the store the scope was opened on, so helpers handed
// the scope can root into it.
func (scope *RootScope) Store() *Store {
	return scope.store
}

// Reserve grows the scoped root stack ahead of rooting n more objects.
func (scope *RootScope) Reserve(n int) {
	scope.store.roots.reserve(n)
}

// Close exits the scope and drops every root made inside it. Only the
// first Close does anything; the error is always nil.
func (scope *RootScope) Close() error {
	if scope.exited {
		return nil
	}
	scope.exited = true
	scope.store.roots.ExitLifoScope(scope.store.Heap, scope.marker)
	return nil
}

// WithLifoScope runs f inside a fresh scope and closes the scope when
// f returns, panicking included.
func WithLifoScope[T any](store *Store, f func(store *Store) T) T {
	scope := NewRootScope(store)
	defer scope.Close()
	return f(scope.Store())
}

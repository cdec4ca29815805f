// Package ref provides the shared liveness flag behind owned GC roots.
// Every clone of an owned root holds one strong count on the same flag;
// the root set keeps a non-owning view of the flag and reclaims the
// root's slot once it observes that no strong holders remain.
package ref

import (
	"sync/atomic"
)

// Flag is a strong reference counter with no destructor. Dropping the
// last hold does not trigger any callback, it only makes the flag
// observable as dead through Live. Flag is safe for concurrent use.
type Flag struct {
	strong uint32
}

// NewFlag returns a flag with a single strong hold.
func NewFlag() *Flag {
	return &Flag{strong: 1}
}

// Acquire adds a strong hold. It reports false if the flag is already
// dead, in which case no hold was added and the flag can not be revived.
func (flag *Flag) Acquire() bool {
	for {
		counter := atomic.LoadUint32(&flag.strong)
		if counter == 0 {
			// already dead, can not be used
			return false
		}
		if !atomic.CompareAndSwapUint32(&flag.strong, counter, counter+1) {
			// retry
			continue
		}
		return true
	}
}

// Release drops one strong hold and reports whether this was the last
// one. Each hold must be released exactly once.
func (flag *Flag) Release() bool {
	for {
		counter := atomic.LoadUint32(&flag.strong)
		if counter == 0 {
			return true
		}
		if atomic.CompareAndSwapUint32(&flag.strong, counter, counter-1) {
			return counter == 1 // last one makes the flag dead
		}
	}
}

// Live reports whether any strong holder remains. This is the weak
// observer side used by the lazy sweep: it never extends the flag's
// life.
func (flag *Flag) Live() bool {
	return atomic.LoadUint32(&flag.strong) > 0
}

// Strong returns the current number of strong holds. Intended for
// diagnostics.
func (flag *Flag) Strong() uint32 {
	return atomic.LoadUint32(&flag.strong)
}

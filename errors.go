package roots

import "errors"

// UnrootedError is returned when resolving a handle whose root is gone:
// a scoped handle after its scope exited, or an owned handle after all
// of its clones were closed. This is an ordinary runtime condition for
// callers, not a bug.
var UnrootedError = errors.New("attempted to use a garbage-collected object that has been unrooted")

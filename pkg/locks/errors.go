package locks

import "errors"

// ErrHeld indicates the lock is currently held by another party.
// Callers should retry after a short backoff.
var ErrHeld = errors.New("lock held")

package util

import "sync/atomic"

// AtomicBool is a lock-free boolean flag. Its zero value is false, which is
// what every Start/Stop guard in this codebase wants.
type AtomicBool uint32

func NewAtomicBool(value bool) AtomicBool {
	return AtomicBool(boolWord(value))
}

func boolWord(value bool) uint32 {
	if value {
		return 1
	}
	return 0
}

func (b *AtomicBool) Store(value bool) {
	atomic.StoreUint32((*uint32)(b), boolWord(value))
}

func (b *AtomicBool) Load() bool {
	return atomic.LoadUint32((*uint32)(b)) != 0
}

// StoreIf stores value only when the current state is expected, reporting
// whether the swap happened. This is the do-it-exactly-once primitive behind
// idempotent Start and Stop.
func (b *AtomicBool) StoreIf(expected, value bool) bool {
	return atomic.CompareAndSwapUint32((*uint32)(b), boolWord(expected), boolWord(value))
}

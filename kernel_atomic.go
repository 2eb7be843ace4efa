// kernel_atomic.go - 32-bit atomics shim for cross-core shared words

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

package main

import "sync/atomic"

/*
Every word shared between the two cores (the seqlock sequence and counter
halves, the exclusive lock word and acknowledgment flags, the shutdown
flags) goes through this shim and nothing else. All operations are
sequentially consistent, matching the LDREX/STREX + DMB sequences the
kernel would emit on the real silicon. Operations are total - there is
no failure path at this layer.
*/

// atomicLoad32 returns the current value of a shared word.
func atomicLoad32(word *int32) int32 {
	return atomic.LoadInt32(word)
}

// atomicStore32 publishes a new value to a shared word.
func atomicStore32(word *int32, value int32) {
	atomic.StoreInt32(word, value)
}

// atomicAdd32 adds delta to a shared word and returns the new value.
func atomicAdd32(word *int32, delta int32) int32 {
	return atomic.AddInt32(word, delta)
}

// atomicCas32 attempts to swap *word from *expected to desired. On failure
// *expected is updated to the observed value and false is returned, so the
// caller can inspect who beat it to the word (the exclusive protocol keys
// off the observed tag).
func atomicCas32(word *int32, expected *int32, desired int32) bool {
	if atomic.CompareAndSwapInt32(word, *expected, desired) {
		return true
	}
	*expected = atomic.LoadInt32(word)
	return false
}

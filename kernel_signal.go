// kernel_signal.go - Inter-core tick/signal interrupt handler

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

package main

import "runtime"

/*
serviceSignal is the body of the tick/signal interrupt, one parameterized
routine shared by both cores (the original used per-core macro expansion;
the core argument replaces it). It runs whenever the peer executes a
signal event and on every periodic tick, at a priority above the
critical-section mask, so it is reachable even while this core sits in a
critical section.

Duties, in order:

 1. Propagate shutdown: if the peer has declared shutdown, declare our
    own and divert straight into the shutdown executor (no return).
 2. Acknowledge exclusion: if the peer holds the exclusive lock, raise
    this core's acknowledgment flag and park here until the peer
    releases the lock. The flag goes up once and stays up for the whole
    park, so the peer observes an uninterrupted acknowledgment, and it
    is cleared only after the lock is observed free again. The park is
    bounded by the exclusive-section timeout as a backstop against a
    holder that never releases.
*/
func (k *Kernel) serviceSignal(c *Core) {
	c.EnterCritical()
	if atomicLoad32(k.shutdownFlag(c.id.Peer())) != 0 {
		atomicStore32(k.shutdownFlag(c.id), 1)
		k.execShutdown(c)
	}
	_ = c.ExitCritical()

	altTag := exclusiveTag(c.id.Peer())
	if atomicLoad32(&k.exclusiveLock) != altTag {
		return
	}
	thisAck := k.exclusiveAck(c.id)
	atomicStore32(thisAck, 1)
	startTime, errc := k.Now()
	if errc == ERRC_NONE {
		for atomicLoad32(&k.exclusiveLock) == altTag {
			currentTime, errc := k.Now()
			if errc != ERRC_NONE {
				break
			}
			if currentTime-startTime > EXCLUSIVE_SECTION_TIMEOUT {
				break
			}
			runtime.Gosched()
		}
	}
	atomicStore32(thisAck, 0)
}

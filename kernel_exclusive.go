// kernel_exclusive.go - Cross-core exclusive sections

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

/*
kernel_exclusive.go - Cross-core exclusive sections

An exclusive section guarantees that while one core holds it, the other
core executes no application code at all: the peer is parked inside its
signal handler's acknowledgment loop. The protocol pieces:

    - a shared lock word: 0 free, +1 held by CM7, -1 held by CM4,
      acquired by compare-and-swap (the only CAS target in the kernel)
    - a shared nesting counter, touched only by the holder
    - one acknowledgment flag per core, written only by the core it
      names and read by the peer; 1 means "I am parked and will run no
      application code until you release"

Entry runs inside a local critical section. The subtle case is two cores
entering at once: the CAS loser observes the winner's tag in the lock
word and must raise its own acknowledgment while it retries, because the
loser sits in a critical section and the winner would otherwise wait
forever for an acknowledgment that cannot arrive - mutual waiting with
interrupts masked on both sides is a deadlock. Both waits are bounded by
configured timeouts and surface ERRC_TIMEOUT; a time-source failure while
holding partially built state surfaces ERRC_INTERNAL after rollback.
*/

package main

import "runtime"

// EnterExclusive enters a cross-core exclusive section. Nested entry on
// the holding core short-circuits the acquisition. On ERRC_TIMEOUT the
// section state is rolled back completely; on ERRC_INTERNAL it is
// undefined.
func (c *Core) EnterExclusive() Errc {
	k := c.kernel
	c.EnterCritical()
	thisTag := exclusiveTag(c.id)
	altTag := exclusiveTag(c.id.Peer())
	thisAck := k.exclusiveAck(c.id)

	if atomicLoad32(&k.exclusiveLock) != thisTag {
		startTime, errc := k.Now()
		if errc != ERRC_NONE {
			_ = c.ExitCritical()
			return ERRC_INTERNAL
		}
		curTag := int32(0)
		for !atomicCas32(&k.exclusiveLock, &curTag, thisTag) {
			currentTime, errc := k.Now()
			if errc != ERRC_NONE {
				atomicStore32(thisAck, 0)
				_ = c.ExitCritical()
				return ERRC_INTERNAL
			}
			if currentTime-startTime > EXCLUSIVE_SECTION_TIMEOUT {
				// We are about to resume application code, so the
				// acknowledgment must not stay up.
				atomicStore32(thisAck, 0)
				if errc := c.ExitCritical(); errc != ERRC_NONE {
					return ERRC_INTERNAL
				}
				return ERRC_TIMEOUT
			}
			// The peer holds the lock while we sit in a critical section.
			// Raise our acknowledgment so its entry can complete; without
			// this the two cores deadlock.
			if curTag == altTag {
				atomicStore32(thisAck, 1)
			}
			curTag = 0
			c.poll()
			runtime.Gosched()
		}
	}
	atomicStore32(thisAck, 0)
	atomicAdd32(&k.exclusiveCount, 1)

	// Wake the peer's signal handler so it parks promptly.
	c.dsb()
	c.board.SignalEvent(c.id)

	startTime, errc := k.Now()
	if errc != ERRC_NONE {
		return c.rollbackExclusive(ERRC_INTERNAL)
	}
	altAck := k.exclusiveAck(c.id.Peer())
	for atomicLoad32(altAck) != 1 {
		currentTime, errc := k.Now()
		if errc != ERRC_NONE {
			return c.rollbackExclusive(ERRC_INTERNAL)
		}
		if currentTime-startTime > EXCLUSIVE_SECTION_ACK_TIMEOUT {
			return c.rollbackExclusive(ERRC_TIMEOUT)
		}
		c.poll()
		runtime.Gosched()
	}

	// Leaving the critical section while holding the lock is safe: the
	// peer is parked in its handler regardless of what preempts us here.
	if errc := c.ExitCritical(); errc != ERRC_NONE {
		return ERRC_INTERNAL
	}
	return ERRC_NONE
}

// rollbackExclusive undoes a partially completed entry: drops one nesting
// level, frees the lock word when the count reaches zero, and leaves the
// critical section. Returns errc, or ERRC_INTERNAL if the unwind itself
// fails.
func (c *Core) rollbackExclusive(errc Errc) Errc {
	k := c.kernel
	if atomicAdd32(&k.exclusiveCount, -1) == 0 {
		atomicStore32(&k.exclusiveLock, 0)
	}
	if exitErrc := c.ExitCritical(); exitErrc != ERRC_NONE {
		return ERRC_INTERNAL
	}
	return errc
}

// ExitExclusive leaves one nesting level of the exclusive section,
// releasing the lock word on the outermost exit. ERRC_INVALID_STATE if
// this core does not hold the section. ERRC_TIMEOUT if the peer's
// acknowledgment has already dropped - the exclusion invariant was lost
// before this call.
func (c *Core) ExitExclusive() Errc {
	k := c.kernel
	c.EnterCritical()
	thisTag := exclusiveTag(c.id)
	if atomicLoad32(&k.exclusiveLock) != thisTag {
		if errc := c.ExitCritical(); errc != ERRC_NONE {
			return ERRC_INTERNAL
		}
		return ERRC_INVALID_STATE
	}
	altAck := k.exclusiveAck(c.id.Peer())
	if atomicLoad32(altAck) == 0 {
		if errc := c.ExitCritical(); errc != ERRC_NONE {
			return ERRC_INTERNAL
		}
		return ERRC_TIMEOUT
	}
	if atomicAdd32(&k.exclusiveCount, -1) == 0 {
		atomicStore32(&k.exclusiveLock, 0)
	}
	if errc := c.ExitCritical(); errc != ERRC_NONE {
		return ERRC_INTERNAL
	}
	return ERRC_NONE
}

// IsExclusive reports whether the calling core holds the exclusive
// section.
func (c *Core) IsExclusive() bool {
	return atomicLoad32(&c.kernel.exclusiveLock) == exclusiveTag(c.id)
}

// resetExclusive clears the section if this core holds it. Reserved for
// the shutdown and reset paths; never exposed to applications.
func (c *Core) resetExclusive() {
	k := c.kernel
	c.EnterCritical()
	if atomicLoad32(&k.exclusiveLock) == exclusiveTag(c.id) {
		atomicStore32(&k.exclusiveCount, 0)
		atomicStore32(&k.exclusiveLock, 0)
	}
	_ = c.ExitCritical()
}

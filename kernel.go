// kernel.go - Shared state for the Titan dual-core kernel

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

/*
kernel.go - Shared kernel state for the Titan dual-core runtime

The Titan MCU pairs a Cortex-M7 class primary core with a Cortex-M4 class
secondary core on shared memory. This file owns every word of cross-core
shared state in the kernel:

    - the seqlock-protected 64-bit microsecond counter
    - the exclusive-section lock word, nesting counter and per-core
      acknowledgment flags
    - the per-core shutdown flags

Nothing else in the repository touches these words directly; all access is
funnelled through the atomics shim (kernel_atomic.go) and the operations
defined in kernel_time.go, kernel_exclusive.go, kernel_signal.go and
kernel_shutdown.go. Per-core private state (critical-section depth, the
BASEPRI mask) lives on the Core execution context instead (mcu_core.go).
*/

package main

// CoreID identifies one of the two physical cores.
type CoreID int

const (
	CORE_CM7 CoreID = iota // Primary core (Cortex-M7)
	CORE_CM4               // Secondary core (Cortex-M4)
)

func (id CoreID) String() string {
	if id == CORE_CM7 {
		return "CM7"
	}
	return "CM4"
}

// Peer returns the identity of the other core.
func (id CoreID) Peer() CoreID {
	if id == CORE_CM7 {
		return CORE_CM4
	}
	return CORE_CM7
}

// Kernel holds the cross-core shared words of the runtime. Exactly one
// Kernel exists per board; both cores and the tick source reference it.
type Kernel struct {
	board *Board

	// Time counter. tickTime is the tick handler's private 64-bit value;
	// readers only ever see the published 32-bit halves, guarded by the
	// sequence word.
	tickTime int64
	timeSeq  int32
	timeLo   int32
	timeHi   int32

	// Exclusive section: lock word (0 free, +1 CM7, -1 CM4), shared
	// nesting counter, and one acknowledgment flag per core. Each ack
	// flag is written only by the core it names.
	exclusiveLock   int32
	exclusiveCount  int32
	cm7ExclusiveAck int32
	cm4ExclusiveAck int32

	// Shutdown flags, monotonic 0 -> 1.
	cm7ShutdownFlag int32
	cm4ShutdownFlag int32
}

// NewKernel creates the shared kernel state for a board.
func NewKernel(board *Board) *Kernel {
	return &Kernel{board: board}
}

// exclusiveTag returns the lock-word tag a core writes when it holds the
// exclusive section: +1 for CM7, -1 for CM4.
func exclusiveTag(id CoreID) int32 {
	if id == CORE_CM7 {
		return 1
	}
	return -1
}

func (k *Kernel) exclusiveAck(id CoreID) *int32 {
	if id == CORE_CM7 {
		return &k.cm7ExclusiveAck
	}
	return &k.cm4ExclusiveAck
}

func (k *Kernel) shutdownFlag(id CoreID) *int32 {
	if id == CORE_CM7 {
		return &k.cm7ShutdownFlag
	}
	return &k.cm4ShutdownFlag
}

// reset returns every shared word to its power-on value. Used by the
// board on a system reset, never by applications.
func (k *Kernel) reset() {
	atomicAdd32(&k.timeSeq, 1)
	k.tickTime = 0
	atomicStore32(&k.timeLo, 0)
	atomicStore32(&k.timeHi, 0)
	atomicAdd32(&k.timeSeq, 1)
	atomicStore32(&k.exclusiveLock, 0)
	atomicStore32(&k.exclusiveCount, 0)
	atomicStore32(&k.cm7ExclusiveAck, 0)
	atomicStore32(&k.cm4ExclusiveAck, 0)
	atomicStore32(&k.cm7ShutdownFlag, 0)
	atomicStore32(&k.cm4ShutdownFlag, 0)
}

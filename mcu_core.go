// mcu_core.go - Core execution context for the emulated Titan MCU

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

/*
mcu_core.go - Core execution context

Each of the two MCU cores is modelled as an execution context that firmware
(a Go function) runs on, one goroutine per core. The context carries the
core-private machine state: the BASEPRI interrupt priority mask, the fault
mask (CPSID F), the IPSR interrupt-context indicator, the critical-section
nesting counter and the WFE event latch.

Interrupt delivery is cooperative: a pending interrupt is dispatched at
poll points - Yield, the kernel's own spin loops, WFE/WFI - rather than by
asynchronous preemption. The tick/signal interrupt is priority 0, above
the critical-section mask, so BASEPRI never blocks it; only the fault mask
does. Handlers do not nest: dispatch is skipped while IPSR is nonzero.

Firmware that spins without reaching a poll point starves its own
interrupt handlers, exactly as masked-interrupt spinning does on the real
part. The exclusive-section tests model an unresponsive peer with the
fault mask instead, which holds off the signal handler at every poll
point.
*/

package main

import (
	"runtime"
	"sync"
)

// Exception number reported in IPSR while the tick/signal handler runs.
const EXC_SIGNAL = 16

type Core struct {
	id     CoreID
	board  *Board
	kernel *Kernel
	scb    *SCB

	// Device registers. Observed cross-goroutine by the test harness and
	// the front panel, so they go through the atomics shim.
	basepri   int32 // Interrupt priority mask: 0 = all enabled, 1 = block priorities >= 1
	faultMask int32 // CPSID F state: nonzero suppresses everything, priority 0 included
	ipsr      int32 // Nonzero while servicing an interrupt

	// Critical-section nesting depth. Core-private: only code executing
	// on this core touches it.
	criticalCount int32

	pendingSignal int32         // Tick/signal interrupt pending
	event         chan struct{} // WFE event latch; SEV and interrupt raises target it

	halted   chan struct{} // Closed when the core halts for good
	haltOnce sync.Once
}

func newCore(id CoreID, board *Board, kernel *Kernel) *Core {
	partno := int32(CM7_PARTNO)
	if id == CORE_CM4 {
		partno = CM4_PARTNO
	}
	return &Core{
		id:     id,
		board:  board,
		kernel: kernel,
		scb:    NewSCB(board, partno),
		event:  make(chan struct{}, 1),
		halted: make(chan struct{}),
	}
}

// ID reports the identity of this core, derived from the CPUID part
// number field on every call rather than cached.
func (c *Core) ID() CoreID {
	if c.scb.PartNo() == CM7_PARTNO {
		return CORE_CM7
	}
	return CORE_CM4
}

// InInterrupt reports whether the core is currently servicing an
// interrupt (IPSR nonzero).
func (c *Core) InInterrupt() bool {
	return atomicLoad32(&c.ipsr) != 0
}

// InterruptMask returns the current BASEPRI value: 0 = all interrupts
// enabled, 1 = priorities >= 1 blocked.
func (c *Core) InterruptMask() int32 {
	return atomicLoad32(&c.basepri)
}

// SCB returns the core's system control block.
func (c *Core) SCB() *SCB {
	return c.scb
}

// Halted is closed once the core has executed its final WFE park and will
// never run firmware again.
func (c *Core) Halted() <-chan struct{} {
	return c.halted
}

// raiseSignal marks the tick/signal interrupt pending and latches the WFE
// event so a sleeping core wakes to service it.
func (c *Core) raiseSignal() {
	atomicStore32(&c.pendingSignal, 1)
	c.notifyEvent()
}

func (c *Core) notifyEvent() {
	select {
	case c.event <- struct{}{}:
	default:
	}
}

// poll dispatches a pending interrupt if the current masks admit it. The
// tick/signal interrupt is priority 0: BASEPRI never blocks it, the fault
// mask always does. Handlers do not nest.
func (c *Core) poll() {
	if atomicLoad32(&c.ipsr) != 0 || atomicLoad32(&c.faultMask) != 0 {
		return
	}
	expected := int32(1)
	if atomicCas32(&c.pendingSignal, &expected, 0) {
		atomicStore32(&c.ipsr, EXC_SIGNAL)
		c.kernel.serviceSignal(c)
		atomicStore32(&c.ipsr, 0)
	}
}

// Yield is the cooperative scheduler hook: pending interrupts are
// serviced, then the host scheduler may run another task. Sleep and the
// kernel's bounded waits call this between samples.
func (c *Core) Yield() {
	c.poll()
	runtime.Gosched()
}

// waitForEvent models WFE: block until the event latch is set (SEV, or an
// interrupt raise) or the board is torn down, then service anything
// pending.
func (c *Core) waitForEvent() {
	select {
	case <-c.event:
	case <-c.board.stopCh:
	}
	c.poll()
}

// dsb and isb model the ARM data/instruction synchronization barriers.
// The host's atomics are already sequentially consistent; these exist so
// the protocol code marks the exact points where the silicon needs them.
func (c *Core) dsb() {}
func (c *Core) isb() {}

// disableFaults models CPSID F: from here on no interrupt of any
// priority is delivered to this core.
func (c *Core) disableFaults() {
	atomicStore32(&c.faultMask, 1)
}

// park is the terminal WFE loop of the shutdown and restart sequences.
// The core never executes firmware again; the goroutine exits when the
// board is torn down. Does not return.
func (c *Core) park() {
	c.haltOnce.Do(func() { close(c.halted) })
	for {
		select {
		case <-c.event:
		case <-c.board.stopCh:
			runtime.Goexit()
		}
	}
}

// reset restores the core-private machine state to its power-on values.
// Used by the board on a system reset, never by applications.
func (c *Core) reset() {
	c.resetCritical()
	c.resetExclusive()
	atomicStore32(&c.pendingSignal, 0)
	atomicStore32(&c.faultMask, 0)
	atomicStore32(&c.ipsr, 0)
	c.scb.reset()
}

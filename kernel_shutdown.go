// kernel_shutdown.go - Cooperative shutdown, restart and CPU sleep

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

/*
kernel_shutdown.go - System shutdown and restart

Shutdown is a two-phase handshake. The initiating core publishes its
shutdown flag and signals the peer; the peer's signal handler observes
the flag, publishes its own, and dives into its shutdown executor. The
initiator meanwhile spins until it sees the peer's flag - so by the time
either core runs its exit tables, both have committed to halting and
neither will touch shared state again.

The executor disables all interrupts and faults so the sequence completes
even if an exit handler misbehaves, walks the core's exit table front to
back (the primary core additionally walks the MCU-wide table after its
own), arms deep sleep and parks in WFE forever.

Restart bypasses all of that: it is a hard system reset through the AIRCR
reset request, taking both cores down immediately.
*/

package main

import "runtime"

// Shutdown shuts down the whole system cooperatively. Both cores drain
// their exit tables before halting. Does not return.
func (c *Core) Shutdown() {
	k := c.kernel
	atomicStore32(k.shutdownFlag(c.id), 1)

	// The signal event runs the handler on the other core, which starts
	// its own shutdown sequence.
	c.dsb()
	c.board.SignalEvent(c.id)

	// Hold off our own exit sequence until the peer has acknowledged the
	// request and committed to shutting down itself.
	altFlag := k.shutdownFlag(c.id.Peer())
	for atomicLoad32(altFlag) != 1 {
		runtime.Gosched()
	}
	k.execShutdown(c)
}

// execShutdown runs the core's exit sequence and halts it. Does not
// return.
func (k *Kernel) execShutdown(c *Core) {
	// Interrupts and faults stay off so the sequence proceeds even if an
	// exit handler faults.
	c.disableFaults()
	for _, fn := range k.board.exitHandlers(c.id) {
		fn()
	}
	if c.id == CORE_CM7 {
		for _, fn := range k.board.mcuExitHandlers() {
			fn()
		}
	}
	c.scb.SetSleepDeep()
	c.dsb()
	c.isb()
	c.park()
}

// Restart triggers a hard system reset of both cores through the AIRCR
// reset request. Does not return.
func (c *Core) Restart() {
	c.disableFaults()
	value := c.scb.ReadAIRCR()
	value = (value &^ AIRCR_VECTKEY_MASK) | RESET_VECTKEY_VALUE<<AIRCR_VECTKEY_SHIFT
	value |= AIRCR_SYSRESETREQ
	c.scb.WriteAIRCR(value)
	c.dsb()
	c.isb()
	c.park()
}

// SleepCPU puts the calling core into a low-power wait until an event or
// interrupt arrives. Inside a critical section it does nothing: a
// critical section must not suspend, that would break the no-preemption
// contract.
func (c *Core) SleepCPU() {
	if c.IsCritical() {
		return
	}
	c.dsb()
	c.isb()
	c.waitForEvent()
}

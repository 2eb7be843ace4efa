// kernel_critical.go - Per-core nested critical sections

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

package main

/*
A critical section suppresses maskable interrupts and scheduler preemption
on the calling core only. Sections nest: each EnterCritical must be
matched by one ExitCritical on the same core, and the interrupt mask is
only touched on the 0->1 and 1->0 transitions. The tick and inter-core
signal interrupts are configured above the mask threshold, so they keep
running inside critical sections - the time counter never stalls and the
peer can always obtain an acknowledgment.
*/

// EnterCritical enters a critical section on the calling core. On the
// outermost entry the BASEPRI mask is raised to block all maskable
// interrupts.
func (c *Core) EnterCritical() {
	if c.criticalCount == 0 {
		atomicStore32(&c.basepri, 1)
		c.isb()
	}
	c.criticalCount++
}

// ExitCritical leaves one nesting level of the critical section. Called
// outside any critical section it returns ERRC_INVALID_STATE and changes
// nothing. The interrupt mask is cleared on the outermost exit.
func (c *Core) ExitCritical() Errc {
	if c.criticalCount == 0 {
		return ERRC_INVALID_STATE
	}
	c.criticalCount--
	if c.criticalCount == 0 {
		atomicStore32(&c.basepri, 0)
		c.isb()
	}
	return ERRC_NONE
}

// IsCritical reports whether the calling core is inside a critical
// section.
func (c *Core) IsCritical() bool {
	return c.criticalCount > 0
}

// resetCritical forces the nesting counter to zero and clears the mask.
// Reserved for the shutdown and reset paths; never exposed to
// applications.
func (c *Core) resetCritical() {
	c.criticalCount = 0
	atomicStore32(&c.basepri, 0)
	c.isb()
}

// kernel_config.go - Compile-time configuration for the Titan kernel

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

package main

// ------------------------------------------------------------------------------
// Kernel Timing Configuration
// ------------------------------------------------------------------------------
const (
	KERNEL_TICK_FREQ   = 1000                          // Periodic tick frequency in Hz
	TIME_USEC_PER_TICK = 1_000_000 / KERNEL_TICK_FREQ  // Microseconds added per tick
	TIME_LOCK_ATTEMPTS = 64                            // Seqlock read retry budget
)

// ------------------------------------------------------------------------------
// Exclusive Section Configuration (all values in microseconds)
// ------------------------------------------------------------------------------
const (
	EXCLUSIVE_SECTION_TIMEOUT     = 100_000 // Bound on acquiring the lock word
	EXCLUSIVE_SECTION_ACK_TIMEOUT = 10_000  // Bound on waiting for peer acknowledgment
)

// ------------------------------------------------------------------------------
// Core Identification (SCB CPUID PARTNO values)
// ------------------------------------------------------------------------------
const (
	CM7_PARTNO = 0xC27 // Cortex-M7 part number
	CM4_PARTNO = 0xC24 // Cortex-M4 part number
)

// ------------------------------------------------------------------------------
// Reset Control
// ------------------------------------------------------------------------------
const (
	RESET_VECTKEY_VALUE = 0x5FA // Key value for the AIRCR VECTKEY field
)

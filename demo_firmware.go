// demo_firmware.go - Demonstration firmware for both cores

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

/*
demo_firmware.go - Demo firmware

The demo models a slice of the Titan flight computer: the primary core
samples the barometer and publishes a telemetry block in shared SRAM
under an exclusive section; the secondary core runs a heartbeat LED and
consumes the telemetry, flagging staleness on the red LED. The front
panel requests shutdown or restart through the demo control flags, which
the primary core polls - shutdown and restart must issue from a core,
not from the host.
*/

package main

import "fmt"

// ------------------------------------------------------------------------------
// Shared Telemetry Block (SRAM)
// ------------------------------------------------------------------------------
const (
	TELEMETRY_BASE     = 0x1000
	TELEMETRY_PRESSURE = TELEMETRY_BASE + 0x00 // Hundredths of a mbar
	TELEMETRY_TEMP     = TELEMETRY_BASE + 0x04 // Centi-degrees C
	TELEMETRY_COUNT    = TELEMETRY_BASE + 0x08 // Sample counter
)

// demoControl carries host requests into firmware.
type demoControl struct {
	shutdownReq int32
	restartReq  int32
}

// cm7Firmware samples the barometer every half second and publishes
// telemetry under an exclusive section. It also owns the shutdown and
// restart sequences.
func cm7Firmware(ctrl *demoControl, baro *Barometer) func(*Core) {
	return func(c *Core) {
		bus := c.board.Bus()
		_ = LedInit(bus, LED_YELLOW)
		_ = LedInit(bus, LED_RED)

		if errc := c.board.I2C().Init(&I2CConfig{Timing: 0x10C0ECFF, Timeout: 100_000}); errc != ERRC_NONE {
			fmt.Printf("\r\ncm7: i2c init failed: %v\r\n", errc)
			return
		}
		if errc := baro.Init(); errc != ERRC_NONE {
			fmt.Printf("\r\ncm7: barometer init failed: %v\r\n", errc)
			return
		}

		for {
			if atomicLoad32(&ctrl.restartReq) != 0 {
				c.Restart()
			}
			if atomicLoad32(&ctrl.shutdownReq) != 0 {
				_ = LedCountdown(c, bus, 1)
				c.Shutdown()
			}

			sample, errc := baro.Sample()
			if errc == ERRC_NONE {
				if errc := c.EnterExclusive(); errc == ERRC_NONE {
					bus.Write32(TELEMETRY_PRESSURE, uint32(sample.Pressure))
					bus.Write32(TELEMETRY_TEMP, uint32(sample.Temperature))
					bus.Write32(TELEMETRY_COUNT, bus.Read32(TELEMETRY_COUNT)+1)
					_ = c.ExitExclusive()
				}
			}

			_ = LedToggle(bus, LED_YELLOW)
			_ = c.Sleep(500_000)
		}
	}
}

// cm4Firmware blinks the heartbeat LED and consumes the telemetry block,
// lighting the red LED while the data is stale.
func cm4Firmware(ctrl *demoControl) func(*Core) {
	return func(c *Core) {
		bus := c.board.Bus()
		_ = LedInit(bus, LED_GREEN)

		lastCount := uint32(0)
		for {
			_ = LedToggle(bus, LED_GREEN)

			if errc := c.EnterExclusive(); errc == ERRC_NONE {
				count := bus.Read32(TELEMETRY_COUNT)
				_ = c.ExitExclusive()
				_ = LedSet(bus, LED_RED, count == lastCount)
				lastCount = count
			}

			_ = c.Sleep(250_000)
		}
	}
}

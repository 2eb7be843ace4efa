// panel_interface.go - LED front-panel output interface

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

package main

// PanelOutput displays the board's three user LEDs. Implementations:
// the ebiten window (default build) and a headless stub (-tags headless)
// that only records the states it is given.
type PanelOutput interface {
	Start() error
	Stop() error
	IsStarted() bool
	UpdateLeds(states [NUM_LEDS]bool)
}

// main.go - TitanCore entry point

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147mTitanCore\033[0m - dual-core kernel runtime for the Titan flight computer")
	fmt.Println("Emulated Cortex-M7 + Cortex-M4 board with seqlock time, critical and")
	fmt.Println("exclusive sections, cooperative shutdown, barometer and LED peripherals.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/TitanCore")
	fmt.Println("License: GPLv3 or later")
	fmt.Println()
}

func usage() {
	fmt.Println("Usage: ./titancore [-nopanel] [-run=<seconds>]")
	fmt.Println("  -nopanel        no LED panel window, terminal status only")
	fmt.Println("  -run=<seconds>  shut the board down automatically after <seconds>")
	os.Exit(1)
}

func main() {
	boilerPlate()

	showPanel := true
	runSeconds := 0
	for _, arg := range os.Args[1:] {
		switch {
		case arg == "-nopanel":
			showPanel = false
		case strings.HasPrefix(arg, "-run="):
			seconds, err := strconv.Atoi(strings.TrimPrefix(arg, "-run="))
			if err != nil || seconds <= 0 {
				usage()
			}
			runSeconds = seconds
		default:
			usage()
		}
	}

	board := NewBoard(BoardConfig{})

	// Datasheet example calibration and raw conversion values; through
	// the driver's compensation the emulated sensor reports a steady
	// 550.01 mbar at 20.00 C.
	cal := BarometerCal{Sens: 46372, Off: 43981, Tcs: 29059, Tco: 27842, TRef: 31553, TempSens: 28165}
	board.I2C().AttachDevice(BARO_I2C_ADDR, NewBarometerDevice(cal, 6465444, 8077636))
	baro := NewBarometer(board.Core(CORE_CM7), board.I2C(), OSR_1024)

	var panel PanelOutput
	if showPanel {
		var err error
		panel, err = NewLedPanel()
		if err != nil {
			fmt.Printf("Failed to initialize LED panel: %v\n", err)
			os.Exit(1)
		}
		if err := panel.Start(); err != nil {
			fmt.Printf("Failed to start LED panel: %v\n", err)
			os.Exit(1)
		}
	}

	ctrl := &demoControl{}
	frontPanel := NewFrontPanel(board, func(key byte) {
		switch key {
		case 'q', 'Q', 0x03: // ctrl-c in raw mode arrives as 0x03
			atomicStore32(&ctrl.shutdownReq, 1)
		case 'r', 'R':
			atomicStore32(&ctrl.restartReq, 1)
		}
	})
	frontPanel.Start()

	board.Start()
	board.LaunchFirmware(CORE_CM7, cm7Firmware(ctrl, baro))
	board.LaunchFirmware(CORE_CM4, cm4Firmware(ctrl))

	halted := make(chan struct{})
	go func() {
		<-board.Core(CORE_CM7).Halted()
		<-board.Core(CORE_CM4).Halted()
		close(halted)
	}()

	var autoStop <-chan time.Time
	if runSeconds > 0 {
		autoStop = time.After(time.Duration(runSeconds) * time.Second)
	}

	render := time.NewTicker(50 * time.Millisecond)
	defer render.Stop()

loop:
	for {
		select {
		case <-halted:
			break loop
		case <-board.ResetRequested():
			fmt.Print("\r\nSystem reset requested.\r\n")
			break loop
		case <-autoStop:
			atomicStore32(&ctrl.shutdownReq, 1)
			autoStop = nil
		case <-render.C:
			frontPanel.Render()
			if panel != nil {
				panel.UpdateLeds(frontPanel.LedStates())
			}
		}
	}

	frontPanel.Stop()
	if panel != nil {
		_ = panel.Stop()
	}
	board.Stop()
	fmt.Println("\nTitanCore halted.")
}

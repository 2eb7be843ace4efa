//go:build windows

// front_panel_windows.go - Interactive terminal front panel (Windows)

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// FrontPanel reads raw keystrokes from stdin and renders a one-line
// status display of the running board. Windows has no non-blocking
// stdin, so the reader blocks on os.Stdin and may outlive Stop until
// one more key arrives.
type FrontPanel struct {
	board        *Board
	keyHandler   func(byte)
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	oldTermState *term.State
}

// NewFrontPanel creates a panel over the board; keystrokes are passed to
// keyHandler.
func NewFrontPanel(board *Board, keyHandler func(byte)) *FrontPanel {
	return &FrontPanel{
		board:      board,
		keyHandler: keyHandler,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start sets stdin to raw mode and begins reading keys in a goroutine.
// Call Stop() to restore the terminal.
func (fp *FrontPanel) Start() {
	fp.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(fp.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "front_panel: failed to set raw mode: %v\n", err)
		close(fp.done)
		return
	}
	fp.oldTermState = oldState

	go func() {
		defer close(fp.done)
		buf := make([]byte, 1)
		for {
			select {
			case <-fp.stopCh:
				return
			default:
			}
			n, err := os.Stdin.Read(buf)
			if n > 0 && fp.keyHandler != nil {
				fp.keyHandler(buf[0])
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
}

// Stop signals the key reader and restores stdin.
func (fp *FrontPanel) Stop() {
	fp.stopped.Do(func() {
		close(fp.stopCh)
	})
	if fp.oldTermState != nil {
		_ = term.Restore(fp.fd, fp.oldTermState)
		fp.oldTermState = nil
	}
}

// Render overwrites the status line: kernel time, exclusive lock owner
// and LED states.
func (fp *FrontPanel) Render() {
	kernel := fp.board.Kernel()
	now, errc := kernel.Now()
	timeField := "----"
	if errc == ERRC_NONE {
		timeField = fmt.Sprintf("%10.3fs", float64(now)/1_000_000)
	}

	owner := "free"
	switch atomicLoad32(&kernel.exclusiveLock) {
	case 1:
		owner = "CM7"
	case -1:
		owner = "CM4"
	}

	leds := ""
	for led := Led(0); led < NUM_LEDS; led++ {
		on, _ := LedState(fp.board.Bus(), led)
		mark := "."
		if on {
			mark = "*"
		}
		leds += fmt.Sprintf(" %s%s", mark, led)
	}

	fmt.Printf("\r[%s] excl:%-4s leds:%s   (q)uit via shutdown, (r)estart ", timeField, owner, leds)
}

// LedStates samples the three user LEDs for the graphical panel.
func (fp *FrontPanel) LedStates() [NUM_LEDS]bool {
	var states [NUM_LEDS]bool
	for led := Led(0); led < NUM_LEDS; led++ {
		states[led], _ = LedState(fp.board.Bus(), led)
	}
	return states
}

//go:build !windows

// front_panel.go - Interactive terminal front panel

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
	"syscall"
	"time"

	"golang.org/x/term"
)

// FrontPanel reads raw keystrokes from stdin and renders a one-line
// status display of the running board. Only instantiated in main.go for
// interactive use - never in tests.
type FrontPanel struct {
	board        *Board
	keyHandler   func(byte)
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
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

// Start sets stdin to raw non-blocking mode and begins reading keys in a
// goroutine. Call Stop() to restore the terminal.
func (fp *FrontPanel) Start() {
	fp.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(fp.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "front_panel: failed to set raw mode: %v\n", err)
		close(fp.done)
		return
	}
	fp.oldTermState = oldState

	if err := syscall.SetNonblock(fp.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "front_panel: failed to set nonblocking stdin: %v\n", err)
		_ = term.Restore(fp.fd, fp.oldTermState)
		fp.oldTermState = nil
		close(fp.done)
		return
	}
	fp.nonblockSet = true

	go func() {
		defer close(fp.done)
		buf := make([]byte, 1)
		for {
			select {
			case <-fp.stopCh:
				return
			default:
			}
			n, err := syscall.Read(fp.fd, buf)
			if n > 0 && fp.keyHandler != nil {
				fp.keyHandler(buf[0])
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || n == 0 {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
		}
	}()
}

// Stop terminates the key reader and restores stdin.
func (fp *FrontPanel) Stop() {
	fp.stopped.Do(func() {
		close(fp.stopCh)
	})
	<-fp.done
	if fp.nonblockSet {
		_ = syscall.SetNonblock(fp.fd, false)
		fp.nonblockSet = false
	}
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

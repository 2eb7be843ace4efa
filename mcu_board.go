// mcu_board.go - Board bring-up for the emulated dual-core Titan MCU

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/TitanCore
License: GPLv3 or later
*/

/*
mcu_board.go - The Titan board

The board wires the whole machine together: the shared kernel state, the
two core execution contexts, the system bus with the GPIO and I2C
peripherals, the periodic tick source and the exit-handler tables.

Firmware runs one function per core, each on its own goroutine managed by
an errgroup. The tick source is a third goroutine modelling the hardware
timer: it advances the kernel time counter and raises the tick/signal
interrupt on both cores. It is never blocked by anything the cores do,
which is exactly the property the seqlock time counter depends on.
Deterministic tests create the board with ManualTick and drive Tick()
themselves.

Exit-handler tables stand in for the linker-delimited exit arrays of the
real firmware image: the host has no linker sections, so handlers are
registered explicitly and kept in registration order, which takes the
place of address order.
*/

package main

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// BoardConfig selects board options. The zero value gives a board with
// the configured default tick rate and no panel.
type BoardConfig struct {
	TickHz     int  // Tick frequency; 0 means KERNEL_TICK_FREQ
	ManualTick bool // No tick goroutine; the caller drives Tick()
}

type Board struct {
	bus    *SystemBus
	kernel *Kernel
	cores  [2]*Core
	gpio   *GpioController
	i2c    *I2CController

	aircr int32 // MCU-wide AIRCR backing word

	tickHz     int
	manualTick bool

	group  *errgroup.Group
	stopCh chan struct{}
	stop   sync.Once

	started bool

	exitMu       sync.Mutex
	cm7ExitTable []func()
	cm4ExitTable []func()
	mcuExitTable []func()

	resetCh   chan struct{}
	resetOnce sync.Once
}

// NewBoard builds a board: kernel, two cores, bus, GPIO and I2C
// peripherals mapped.
func NewBoard(config BoardConfig) *Board {
	board := &Board{
		bus:     NewSystemBus(),
		tickHz:  config.TickHz,
		stopCh:  make(chan struct{}),
		resetCh: make(chan struct{}),
		group:   &errgroup.Group{},
	}
	if board.tickHz == 0 {
		board.tickHz = KERNEL_TICK_FREQ
	}
	board.manualTick = config.ManualTick
	board.kernel = NewKernel(board)
	board.cores[CORE_CM7] = newCore(CORE_CM7, board, board.kernel)
	board.cores[CORE_CM4] = newCore(CORE_CM4, board, board.kernel)
	board.gpio = NewGpioController(board.bus)
	board.i2c = NewI2CController(board.bus)
	return board
}

// Core returns the execution context for the given core.
func (b *Board) Core(id CoreID) *Core {
	return b.cores[id]
}

// Kernel returns the shared kernel state.
func (b *Board) Kernel() *Kernel {
	return b.kernel
}

// Bus returns the system bus.
func (b *Board) Bus() *SystemBus {
	return b.bus
}

// Gpio returns the GPIO controller.
func (b *Board) Gpio() *GpioController {
	return b.gpio
}

// I2C returns the I2C controller.
func (b *Board) I2C() *I2CController {
	return b.i2c
}

// Start launches the tick source. With ManualTick set it is a no-op and
// the caller drives Tick().
func (b *Board) Start() {
	if b.started || b.manualTick {
		b.started = true
		return
	}
	b.started = true
	period := time.Second / time.Duration(b.tickHz)
	b.group.Go(func() error {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-b.stopCh:
				return nil
			case <-ticker.C:
				b.Tick()
			}
		}
	})
}

// Tick is one period of the hardware tick source: advance the time
// counter and raise the tick/signal interrupt on both cores. Runs above
// every mask, so it can never be blocked by a critical section.
func (b *Board) Tick() {
	b.kernel.advanceTick()
	for _, core := range b.cores {
		core.raiseSignal()
	}
}

// SignalEvent executes the signal event instruction on behalf of the
// given core: the peer's event latch is set and its signal interrupt
// raised.
func (b *Board) SignalEvent(from CoreID) {
	b.cores[from.Peer()].raiseSignal()
}

// LaunchFirmware runs fn as the firmware entry point of the given core,
// on that core's goroutine. After fn returns the core idles servicing
// interrupts until the board is torn down, the way the real part keeps
// taking interrupts after main returns - the peer may still need this
// core's signal handler for acknowledgments and shutdown.
func (b *Board) LaunchFirmware(id CoreID, fn func(*Core)) {
	core := b.cores[id]
	b.group.Go(func() error {
		fn(core)
		for {
			select {
			case <-b.stopCh:
				return nil
			default:
			}
			core.Yield()
		}
	})
}

// RegisterExitHandler appends fn to a core's exit table. Handlers run in
// registration order, exactly once, during that core's shutdown
// sequence.
func (b *Board) RegisterExitHandler(id CoreID, fn func()) {
	b.exitMu.Lock()
	defer b.exitMu.Unlock()
	if id == CORE_CM7 {
		b.cm7ExitTable = append(b.cm7ExitTable, fn)
	} else {
		b.cm4ExitTable = append(b.cm4ExitTable, fn)
	}
}

// RegisterMcuExitHandler appends fn to the MCU-wide exit table, which the
// primary core walks after its own table.
func (b *Board) RegisterMcuExitHandler(fn func()) {
	b.exitMu.Lock()
	defer b.exitMu.Unlock()
	b.mcuExitTable = append(b.mcuExitTable, fn)
}

func (b *Board) exitHandlers(id CoreID) []func() {
	b.exitMu.Lock()
	defer b.exitMu.Unlock()
	if id == CORE_CM7 {
		return b.cm7ExitTable
	}
	return b.cm4ExitTable
}

func (b *Board) mcuExitHandlers() []func() {
	b.exitMu.Lock()
	defer b.exitMu.Unlock()
	return b.mcuExitTable
}

// requestReset latches a system reset request (AIRCR SYSRESETREQ).
func (b *Board) requestReset() {
	b.resetOnce.Do(func() { close(b.resetCh) })
}

// ResetRequested is closed when either core has requested a system
// reset.
func (b *Board) ResetRequested() <-chan struct{} {
	return b.resetCh
}

// AwaitHalt blocks until both cores have halted, or the timeout expires.
func (b *Board) AwaitHalt(timeout time.Duration) error {
	deadline := time.After(timeout)
	for _, core := range b.cores {
		select {
		case <-core.Halted():
		case <-deadline:
			return fmt.Errorf("board: %s did not halt within %v", core.id, timeout)
		}
	}
	return nil
}

// Stop tears the board down: the tick source exits, parked cores
// release their goroutines, firmware goroutines are awaited.
func (b *Board) Stop() {
	b.stop.Do(func() { close(b.stopCh) })
	_ = b.group.Wait()
}

// Reset returns the board to its power-on state: cores, kernel time and
// shared words, peripherals, SRAM. Both cores must be halted or idle.
func (b *Board) Reset() {
	for _, core := range b.cores {
		core.reset()
	}
	b.kernel.reset()
	b.gpio.Reset()
	b.i2c.Reset()
	b.bus.Reset()
	atomicStore32(&b.aircr, 0)
}

// kernel_exclusive_test.go - Unit tests for cross-core exclusive sections

package main

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

// launchIdlePeer runs a firmware loop on the given core that just
// services interrupts, so the core can park in its signal handler when
// the other core takes exclusion. The returned func stops it.
func launchIdlePeer(board *Board, id CoreID) func() {
	stopCh := make(chan struct{})
	done := make(chan struct{})
	board.LaunchFirmware(id, func(c *Core) {
		defer close(done)
		for {
			select {
			case <-stopCh:
				return
			default:
			}
			c.Yield()
		}
	})
	return func() {
		close(stopCh)
		<-done
	}
}

// TestExclusive_EnterExitWithParkedPeer covers the normal path: the
// peer is responsive, entry succeeds, the peer sits in its signal
// handler with its acknowledgment raised for the whole hold, and exit
// releases the lock.
func TestExclusive_EnterExitWithParkedPeer(t *testing.T) {
	board := newManualBoard()
	kernel := board.Kernel()
	stopTick := startTicking(t, board)
	defer stopTick()
	stopPeer := launchIdlePeer(board, CORE_CM4)
	defer stopPeer()

	cm7 := board.Core(CORE_CM7)
	cm4 := board.Core(CORE_CM4)

	if errc := cm7.EnterExclusive(); errc != ERRC_NONE {
		t.Fatalf("EnterExclusive errc = %v", errc)
	}
	if !cm7.IsExclusive() {
		t.Error("IsExclusive() = false on holder")
	}
	if cm4.IsExclusive() {
		t.Error("IsExclusive() = true on peer")
	}
	if ack := atomicLoad32(kernel.exclusiveAck(CORE_CM4)); ack != 1 {
		t.Errorf("peer ack = %d while section held, want 1", ack)
	}
	if !cm4.InInterrupt() {
		t.Error("peer not parked in its signal handler while section held")
	}
	if cm7.IsCritical() {
		t.Error("holder still in critical section after successful entry")
	}

	if errc := cm7.ExitExclusive(); errc != ERRC_NONE {
		t.Fatalf("ExitExclusive errc = %v", errc)
	}
	if lock := atomicLoad32(&kernel.exclusiveLock); lock != 0 {
		t.Errorf("lock word = %d after exit, want 0", lock)
	}
}

// TestExclusive_Reentry verifies nested entry short-circuits the
// acquisition and the lock is only released by the matching outermost
// exit.
func TestExclusive_Reentry(t *testing.T) {
	board := newManualBoard()
	kernel := board.Kernel()
	stopTick := startTicking(t, board)
	defer stopTick()
	stopPeer := launchIdlePeer(board, CORE_CM4)
	defer stopPeer()

	cm7 := board.Core(CORE_CM7)
	if errc := cm7.EnterExclusive(); errc != ERRC_NONE {
		t.Fatalf("outer EnterExclusive errc = %v", errc)
	}
	if errc := cm7.EnterExclusive(); errc != ERRC_NONE {
		t.Fatalf("nested EnterExclusive errc = %v", errc)
	}
	if count := atomicLoad32(&kernel.exclusiveCount); count != 2 {
		t.Errorf("nesting count = %d, want 2", count)
	}

	if errc := cm7.ExitExclusive(); errc != ERRC_NONE {
		t.Fatalf("inner ExitExclusive errc = %v", errc)
	}
	if !cm7.IsExclusive() {
		t.Error("lock released by inner exit")
	}
	if errc := cm7.ExitExclusive(); errc != ERRC_NONE {
		t.Fatalf("outer ExitExclusive errc = %v", errc)
	}
	if lock := atomicLoad32(&kernel.exclusiveLock); lock != 0 {
		t.Errorf("lock word = %d after outermost exit, want 0", lock)
	}
}

// TestExclusive_UnmatchedExit checks ERRC_INVALID_STATE and that
// nothing is disturbed.
func TestExclusive_UnmatchedExit(t *testing.T) {
	board := newManualBoard()
	kernel := board.Kernel()
	board.Tick()

	cm4 := board.Core(CORE_CM4)
	if errc := cm4.ExitExclusive(); errc != ERRC_INVALID_STATE {
		t.Fatalf("ExitExclusive errc = %v, want ERRC_INVALID_STATE", errc)
	}
	if lock := atomicLoad32(&kernel.exclusiveLock); lock != 0 {
		t.Errorf("lock word = %d, want 0", lock)
	}
	if count := atomicLoad32(&kernel.exclusiveCount); count != 0 {
		t.Errorf("nesting count = %d, want 0", count)
	}
	if cm4.IsCritical() {
		t.Error("critical section leaked by failed exit")
	}
}

// TestExclusive_MutualAcquire races both cores into the section. The
// winner writes a sentinel into shared SRAM and verifies it is
// undisturbed for the whole hold; the loser acquires after the release.
// At no instant may both cores hold the section.
func TestExclusive_MutualAcquire(t *testing.T) {
	board := newManualBoard()
	stopTick := startTicking(t, board)
	defer stopTick()

	const sentinelAddr = 0x2000
	var holders int32
	var violations int32
	var wg sync.WaitGroup

	run := func(core *Core, sentinel uint32) {
		defer wg.Done()
		bus := board.Bus()
		id := core.ID()
		for {
			errc := core.EnterExclusive()
			if errc == ERRC_TIMEOUT {
				core.Yield()
				continue
			}
			if errc != ERRC_NONE {
				t.Errorf("%s: EnterExclusive errc = %v", id, errc)
				return
			}
			break
		}
		if atomicAdd32(&holders, 1) != 1 {
			atomicAdd32(&violations, 1)
		}
		bus.Write32(sentinelAddr, sentinel)
		for i := 0; i < 200; i++ {
			if bus.Read32(sentinelAddr) != sentinel {
				atomicAdd32(&violations, 1)
				break
			}
			runtime.Gosched()
		}
		atomicAdd32(&holders, -1)
		if errc := core.ExitExclusive(); errc != ERRC_NONE {
			t.Errorf("%s: ExitExclusive errc = %v", id, errc)
		}
	}

	// Launched as firmware so each core keeps servicing its signal
	// handler after its turn in the section - the second entrant needs
	// the first one parked.
	wg.Add(2)
	board.LaunchFirmware(CORE_CM7, func(c *Core) { run(c, 0xC0FFEE00) })
	board.LaunchFirmware(CORE_CM4, func(c *Core) { run(c, 0xBEEF0000) })
	wg.Wait()

	if v := atomicLoad32(&violations); v != 0 {
		t.Errorf("mutual exclusion violated %d times", v)
	}
	if lock := atomicLoad32(&board.Kernel().exclusiveLock); lock != 0 {
		t.Errorf("lock word = %d after both exits, want 0", lock)
	}
}

// TestExclusive_PeerUnresponsive masks everything on the secondary core
// so its signal handler can never run, then expects the primary's entry
// to time out on the acknowledgment wait and leave no state behind.
func TestExclusive_PeerUnresponsive(t *testing.T) {
	board := newManualBoard()
	kernel := board.Kernel()
	stopTick := startTicking(t, board)
	defer stopTick()

	board.Core(CORE_CM4).disableFaults()

	cm7 := board.Core(CORE_CM7)
	start := time.Now()
	errc := cm7.EnterExclusive()
	if errc != ERRC_TIMEOUT {
		t.Fatalf("EnterExclusive errc = %v, want ERRC_TIMEOUT", errc)
	}
	if elapsed := time.Since(start); elapsed > 30*time.Second {
		t.Errorf("timeout took %v of host time", elapsed)
	}
	if lock := atomicLoad32(&kernel.exclusiveLock); lock != 0 {
		t.Errorf("lock word = %d after timeout, want 0", lock)
	}
	if count := atomicLoad32(&kernel.exclusiveCount); count != 0 {
		t.Errorf("nesting count = %d after timeout, want 0", count)
	}
	if cm7.IsCritical() {
		t.Error("critical section leaked by timed-out entry")
	}
}

// TestExclusive_ExitAfterPeerResumed simulates the peer abandoning its
// acknowledgment while the section is held; the exit must report
// ERRC_TIMEOUT and the internal reset must clean up.
func TestExclusive_ExitAfterPeerResumed(t *testing.T) {
	board := newManualBoard()
	kernel := board.Kernel()
	stopTick := startTicking(t, board)
	defer stopTick()
	stopPeer := launchIdlePeer(board, CORE_CM4)
	defer stopPeer()

	cm7 := board.Core(CORE_CM7)
	if errc := cm7.EnterExclusive(); errc != ERRC_NONE {
		t.Fatalf("EnterExclusive errc = %v", errc)
	}

	// The peer's acknowledgment drops without the lock being released -
	// the invariant the exit path must detect.
	atomicStore32(kernel.exclusiveAck(CORE_CM4), 0)
	if errc := cm7.ExitExclusive(); errc != ERRC_TIMEOUT {
		t.Fatalf("ExitExclusive errc = %v, want ERRC_TIMEOUT", errc)
	}
	if !cm7.IsExclusive() {
		t.Error("failed exit released the lock")
	}

	cm7.resetExclusive()
	if cm7.IsExclusive() {
		t.Error("resetExclusive left the lock held")
	}
	if lock := atomicLoad32(&kernel.exclusiveLock); lock != 0 {
		t.Errorf("lock word = %d after reset, want 0", lock)
	}
}

package devices_test

import (
	"testing"

	"example.com/boardsim/core_engine/devices"
)

func newAciaForTest() (*devices.Acia, *devices.InterruptController, *devices.BufferedConsole) {
	ic := devices.NewInterruptController(devices.ModeFlatIRQ)
	console := devices.NewBufferedConsole()
	return devices.NewAcia(0x80, console, ic, nil), ic, console
}

// TestAciaStatusReadClearsIRQ covers the status-read half of §4.6: reading
// status must clear the IRQ bit.
func TestAciaStatusReadClearsIRQ(t *testing.T) {
	a, ic, console := newAciaForTest()
	buf := [1]byte{0x01} // any nonzero control enables the IRQ path
	if err := a.HandleIO(0x80, devices.IODirectionOut, 1, buf[:]); err != nil {
		t.Fatalf("control write failed: %v", err)
	}
	console.Feed([]byte{0x33})
	a.Tick()
	if !ic.Pending() {
		t.Fatalf("expected ACIA interrupt pending after receive")
	}

	statusBuf := [1]byte{}
	if err := a.HandleIO(0x80, devices.IODirectionIn, 1, statusBuf[:]); err != nil {
		t.Fatalf("status read failed: %v", err)
	}
	if statusBuf[0]&0x80 == 0 {
		t.Fatalf("expected IRQ bit set in the status byte returned, got 0x%x", statusBuf[0])
	}
	if ic.Pending() {
		t.Fatalf("expected status read to clear the pending IRQ")
	}
}

// TestAciaDataWriteClearsTxEmptyUntilNextTick covers §4.6's data-write
// path: the write clears TDRE immediately, and a subsequent tick restores
// it (mirroring the 6850's "transmit in progress" window).
func TestAciaDataWriteClearsTxEmptyUntilNextTick(t *testing.T) {
	a, _, console := newAciaForTest()
	buf := [1]byte{0x99}
	if err := a.HandleIO(0x81, devices.IODirectionOut, 1, buf[:]); err != nil {
		t.Fatalf("data write failed: %v", err)
	}
	if len(console.Out) != 1 || console.Out[0] != 0x99 {
		t.Fatalf("expected console to receive 0x99, got %v", console.Out)
	}
	statusBuf := [1]byte{}
	a.HandleIO(0x80, devices.IODirectionIn, 1, statusBuf[:])
	if statusBuf[0]&0x02 != 0 {
		t.Fatalf("expected TDRE clear immediately after a data write, got status=0x%x", statusBuf[0])
	}
	a.Tick()
	a.HandleIO(0x80, devices.IODirectionIn, 1, statusBuf[:])
	if statusBuf[0]&0x02 == 0 {
		t.Fatalf("expected TDRE to be restored by the next tick, got status=0x%x", statusBuf[0])
	}
}

// TestAciaOverrunSetsStatusBit exercises the "already full" branch of the
// receive path.
func TestAciaOverrunSetsStatusBit(t *testing.T) {
	a, _, console := newAciaForTest()
	console.Feed([]byte{0x11})
	a.Tick()
	console.Feed([]byte{0x22})
	a.Tick()

	statusBuf := [1]byte{}
	a.HandleIO(0x80, devices.IODirectionIn, 1, statusBuf[:])
	if statusBuf[0]&0x20 == 0 {
		t.Fatalf("expected overrun bit set after a second receive before the first was read, got 0x%x", statusBuf[0])
	}
}

package devices_test

import (
	"testing"

	"example.com/boardsim/core_engine/devices"
)

// TestCTCTimerModeFiresOnExpiry programs channel 0 in timer mode with a
// small reload and int-enable, and checks that enough T-states to exhaust
// the counter leave the CTC0 source pending.
func TestCTCTimerModeFiresOnExpiry(t *testing.T) {
	ic := devices.NewInterruptController(devices.ModeVectored)
	ctc := devices.NewCTC(ic, nil)

	program := func(port uint16, control, timeConstant byte) {
		buf := [1]byte{control}
		if err := ctc.HandleIO(port, devices.IODirectionOut, 1, buf[:]); err != nil {
			t.Fatalf("control write failed: %v", err)
		}
		buf[0] = timeConstant
		if err := ctc.HandleIO(port, devices.IODirectionOut, 1, buf[:]); err != nil {
			t.Fatalf("time constant write failed: %v", err)
		}
	}

	// Timer mode (bit6=1), reset+TC-follows+int-enable, prescale /16, reload 1.
	const timerModeCtrl = 0x01 | 0x02 | 0x04 | 0x40 | 0x80
	program(0, timerModeCtrl, 1)

	ic.Clear(devices.IrqCTC0)
	if ic.Pending() {
		t.Fatalf("no interrupt expected before the counter expires")
	}
	ctc.Tick(16) // one full /16-prescaled decrement of a reload-1 channel
	if !ic.Pending() {
		t.Fatalf("expected CTC0 interrupt after counter expiry")
	}
}

func TestCTCVectorDerivesFromChannelZero(t *testing.T) {
	ic := devices.NewInterruptController(devices.ModeVectored)
	ctc := devices.NewCTC(ic, nil)

	buf := [1]byte{0xE0} // channel 0's vector byte (not a control word: bit0 clear)
	if err := ctc.HandleIO(0, devices.IODirectionOut, 1, buf[:]); err != nil {
		t.Fatalf("vector write failed: %v", err)
	}
	v := ctc.Vector(devices.IrqCTC2)
	want := (byte(0xE0) &^ 0x07) + 2*2
	if v != want {
		t.Fatalf("expected CTC2 vector 0x%x, got 0x%x", want, v)
	}
}

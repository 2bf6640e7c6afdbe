// core_engine/bus_orchestrator.go
package core_engine

import (
	"time"

	"example.com/boardsim/core_engine/devices"
)

// outerBatchSubsteps and outerBatchPacing mirror kz80.c's/rc2014-6502.c's
// main loop: 100 inner exec6502(tstate_steps)/Z80Execute calls per outer
// iteration, each outer iteration paced to roughly 5ms of wall clock.
const (
	outerBatchSubsteps = 100
	outerBatchPacing   = 5 * time.Millisecond
)

// retiState tracks the Z80 M1-fetch opcode-prefix shift register used to
// sniff ED 4D (RETI) without a real CPU acknowledge cycle, per kz80.c's
// reti_event/poll_irq_event machinery.
type retiState int

const (
	retiNone retiState = iota
	retiSawED
	retiSawPrefix
)

// BusOrchestrator implements core_engine.Bus against a Machine's memory
// fabric and I/O bus, and owns the RETI opcode sniff and the outer-loop
// pacing. It is the consolidated replacement for the teacher's
// VirtualMachine.HandleIO/HandleMMIO dispatch and
// CheckForPendingInterrupts polling loop.
type BusOrchestrator struct {
	m     *Machine
	reti  retiState
}

func NewBusOrchestrator(m *Machine) *BusOrchestrator {
	return &BusOrchestrator{m: m}
}

func (b *BusOrchestrator) MemRead(addr uint16) byte {
	v := b.m.Mem.Read(addr)
	if b.m.CPU != nil && b.m.CPU.M1Asserted() {
		b.onM1Fetch(v)
	}
	return v
}

func (b *BusOrchestrator) MemWrite(addr uint16, val byte) {
	b.m.Mem.Write(addr, val)
}

func (b *BusOrchestrator) IORead(port uint16) byte {
	buf := [1]byte{0xFF}
	if err := b.m.Bus.HandleIO(port, devices.IODirectionIn, 1, buf[:]); err != nil {
		b.m.Trace.Logf(devices.TraceUnk, "bus: %v", err)
	}
	return buf[0]
}

func (b *BusOrchestrator) IOWrite(port uint16, val byte) {
	buf := [1]byte{val}
	if err := b.m.Bus.HandleIO(port, devices.IODirectionOut, 1, buf[:]); err != nil {
		b.m.Trace.Logf(devices.TraceUnk, "bus: %v", err)
	}
}

// onM1Fetch advances the RETI-detection shift register, per kz80.c's
// rstate (only an ED seen from a clean, non-prefixed M1 arms the
// sequence; rstate==2 after DD/FD/CB deliberately blocks a following ED
// from arming, so DD ED 4D never fires). An ED immediately followed by
// 4D fires a RETI event. Any other byte resets to idle.
func (b *BusOrchestrator) onM1Fetch(opcode byte) {
	switch {
	case b.reti == retiSawED && opcode == 0x4D:
		b.m.IC.RetiAll()
		b.reti = retiNone
	case opcode == 0xDD || opcode == 0xFD || opcode == 0xCB:
		b.reti = retiSawPrefix
	case opcode == 0xED && b.reti == retiNone:
		b.reti = retiSawED
	default:
		b.reti = retiNone
	}
}

// RunOuterBatch executes one full outer-loop iteration: 100 inner
// substeps of the profile's T-state budget, a peripheral tick after every
// substep, an interrupt delivery check, and (for the 6502 board) one NIC
// poll at the end of the batch.
func (b *BusOrchestrator) RunOuterBatch() {
	m := b.m
	for i := 0; i < outerBatchSubsteps; i++ {
		n := m.CPU.ExecuteTStates(m.Profile.TStateStep, b)
		b.tickPeripherals(n)
		b.deliverInterrupts()
	}
	if m.nic != nil {
		m.nic.Process()
	}
}

func (b *BusOrchestrator) tickPeripherals(nTstates int) {
	m := b.m
	if m.sioA != nil {
		m.sioA.Tick()
	}
	if m.ctc != nil {
		m.ctc.Tick(nTstates)
	}
	if m.acia != nil {
		m.acia.Tick()
	}
	if m.uart != nil {
		m.uart.Tick()
	}
	if m.via != nil {
		m.via.Tick(nTstates)
	}
}

// deliverInterrupts mirrors poll_irq_event: for the flat-IRQ (6502) board
// it simply keeps the CPU's IRQ line in sync with the controller; for the
// vectored (Z80) board it accepts and delivers the next pending source
// only when none is currently being serviced.
func (b *BusOrchestrator) deliverInterrupts() {
	m := b.m
	if icMode := icModeFor(m.Profile.Kind); icMode == devices.ModeFlatIRQ {
		m.CPU.AssertIRQ(m.IC.Pending())
		return
	}
	if !m.IC.Pending() {
		return
	}
	if !m.CPU.IFF1() {
		return
	}
	vector, ok := m.IC.Accept()
	if ok {
		m.CPU.InterruptZ80(vector)
	}
}

// Run drives outer-loop batches until stop is closed, pacing each batch to
// roughly 5ms of wall clock unless FastPacing is set -- the Go equivalent
// of the original's nanosleep(&tc, NULL) between outer iterations.
func (b *BusOrchestrator) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		b.RunOuterBatch()
		if !b.m.Profile.FastPacing {
			time.Sleep(outerBatchPacing)
		}
	}
}

// core_engine/machine.go
package core_engine

import (
	"fmt"

	"example.com/boardsim/core_engine/devices"
)

// BoardKind selects which of the two physical boards a MachineProfile
// describes.
type BoardKind int

const (
	BoardZ80Laptop      BoardKind = iota // vectored mode-2 interrupts
	BoardExpansion6502                  // flat IRQ line
)

// MachineProfile is the immutable descriptor that picks which peripherals
// are populated, their port ranges, the ROM path, and the pacing budget --
// the Go equivalent of the original's CLI-flag-driven feature set.
type MachineProfile struct {
	Kind BoardKind

	RomPath     string
	RomSize     int // exact required size; 8192 (Z80) or 524288 (6502)
	TStateStep  int // T-states executed per inner substep (369 Z80, 200 6502)
	FastPacing  bool

	// 6502-only feature toggles, mirroring -1 -a -A -c -s -R -w -i.
	EnableUart16550 bool
	EnableAciaWide  bool
	EnableAciaNarrow bool
	EnableSio       bool
	EnableCTC       bool
	EnableRTC       bool
	EnableNIC       bool
	IdeImagePath    string

	TraceMask devices.TraceFlag
	XorMask   uint16
}

// Machine owns every peripheral, the memory fabric, the interrupt
// controller, and the CPU; it is the consolidated replacement for the
// teacher's VirtualMachine, stripped of its KVM-specific fields and
// rebuilt around the two board profiles instead of a generic x86 guest.
type Machine struct {
	Profile MachineProfile
	Mem     *MemoryFabric
	IC      *devices.InterruptController
	Bus     *devices.IOBus
	CPU     CPU
	Console devices.ConsolePort
	Trace   *devices.Tracer

	orchestrator *BusOrchestrator

	sioA *devices.SioPair
	ctc  *devices.CTC
	acia *devices.Acia
	uart *devices.Uart16x50
	via  *devices.Via
	rtc  *devices.Rtc
	nic  *devices.NicAdapter
	ide  *devices.IdeAdapter
}

// NewMachine wires a profile into a fully populated Machine. cpu and
// console are injected so tests can supply fakes for either.
func NewMachine(profile MachineProfile, rom []byte, cpu CPU, console devices.ConsolePort, host devices.HostNetInterface, ideCtrl devices.IdeController) (*Machine, error) {
	if len(rom) != profile.RomSize {
		return nil, fmt.Errorf("machine: ROM size %d does not match required %d", len(rom), profile.RomSize)
	}

	trace := devices.NewTracer(profile.TraceMask)
	m := &Machine{
		Profile: profile,
		IC:      devices.NewInterruptController(icModeFor(profile.Kind)),
		Bus:     devices.NewIOBus(),
		CPU:     cpu,
		Console: console,
		Trace:   trace,
	}

	switch profile.Kind {
	case BoardZ80Laptop:
		m.Mem = NewZ80MemoryFabric(rom, profile.RomSize)
		m.sioA = devices.NewSioPair(0x80, console, m.IC, trace)
		m.Bus.RegisterDevice(0x80, 0x83, m.sioA)
	case BoardExpansion6502:
		backing := make([]byte, 1<<20)
		copy(backing, rom)
		m.Mem = NewBankedMemoryFabric(backing, profile.XorMask)
		m.Bus.RegisterDevice(0x78, 0x7F, NewBankPort(m.Mem))
		m.Bus.RegisterDevice(0x00, 0x00, devices.NewTraceControlPort(trace))

		if profile.EnableSio {
			m.sioA = devices.NewSioPair(0x80, console, m.IC, trace)
			m.Bus.RegisterDevice(0x80, 0x83, m.sioA)
		}
		if profile.EnableCTC {
			m.ctc = devices.NewCTC(m.IC, trace)
			m.Bus.RegisterDevice(0x88, 0x8B, m.ctc)
		}
		if profile.EnableAciaWide {
			m.acia = devices.NewAcia(0x80, console, m.IC, trace)
			m.Bus.RegisterDevice(0x80, 0xBF, m.acia)
		} else if profile.EnableAciaNarrow {
			m.acia = devices.NewAcia(0x80, console, m.IC, trace)
			m.Bus.RegisterDevice(0x80, 0x87, m.acia)
		}
		if profile.EnableUart16550 {
			m.uart = devices.NewUart16x50(0xC0, console, m.IC, trace)
			m.Bus.RegisterDevice(0xC0, 0xCF, m.uart)
		}
		if profile.EnableRTC && !profile.EnableUart16550 {
			m.rtc = devices.NewRtc(0xC0, trace)
			m.Bus.RegisterDevice(0xC0, 0xC0, m.rtc)
		}
		m.via = devices.NewVia(0x60, m.IC, trace)
		m.Bus.RegisterDevice(0x60, 0x6F, m.via)

		if profile.EnableNIC {
			m.nic = devices.NewNicAdapter(0x28, host, trace)
			m.Bus.RegisterDevice(0x28, 0x2C, m.nic)
		}
		if profile.IdeImagePath != "" && ideCtrl != nil {
			ide, err := devices.NewIdeAdapter(0x10, ideCtrl, profile.IdeImagePath, trace)
			if err != nil {
				trace.Logf(devices.TraceIO, "machine: IDE not attached: %v", err)
			} else {
				m.ide = ide
				m.Bus.RegisterDevice(0x10, 0x17, m.ide)
			}
		}
	}

	m.orchestrator = NewBusOrchestrator(m)
	return m, nil
}

func icModeFor(kind BoardKind) devices.Mode {
	if kind == BoardZ80Laptop {
		return devices.ModeVectored
	}
	return devices.ModeFlatIRQ
}

// Step runs one outer-loop batch: 100 substeps of Profile.TStateStep
// T-states each, followed by peripheral ticks, an optional NIC poll, and
// an interrupt delivery check. It returns immediately; pacing sleep is the
// caller's responsibility (see BusOrchestrator.Run).
func (m *Machine) Step() {
	m.orchestrator.RunOuterBatch()
}

// RunUntil drives outer-loop batches until stop is closed, pacing each one
// per Profile.FastPacing.
func (m *Machine) RunUntil(stop <-chan struct{}) {
	m.orchestrator.Run(stop)
}

// Close restores nothing by itself -- the host TTY bridge owns terminal
// mode -- and releases nothing either: no peripheral here holds a file
// descriptor of its own. It always returns nil.
func (m *Machine) Close() error {
	var firstErr error
	if m.nic != nil {
		// NicAdapter doesn't own the host transport's lifetime; the
		// caller that opened it is responsible for closing it.
	}
	return firstErr
}

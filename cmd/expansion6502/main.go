// cmd/expansion6502/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"example.com/boardsim/core_engine"
	"example.com/boardsim/core_engine/devices"
	"example.com/boardsim/core_engine/host"
	"example.com/boardsim/core_engine/network"
)

const expansionRomSize = 524288

func main() {
	romPath := flag.String("r", "rc2014-6502.rom", "ROM image path")
	idePath := flag.String("i", "", "IDE disk image path")
	traceMask := flag.Uint("d", 0, "trace mask")
	fast := flag.Bool("f", false, "disable pacing sleep")
	enable16550 := flag.Bool("1", false, "enable 16550A UART")
	enableAciaWide := flag.Bool("a", false, "enable ACIA (wide decode 0x80-0xBF)")
	enableAciaNarrow := flag.Bool("A", false, "enable ACIA (narrow decode 0x80-0x87)")
	enableSio := flag.Bool("s", false, "enable SIO")
	enableCTC := flag.Bool("c", false, "enable CTC")
	enableRTC := flag.Bool("R", false, "enable RTC")
	enableNIC := flag.Bool("w", false, "enable NIC")
	tapName := flag.String("tap", "tap0", "host TAP device name when -w is set")
	flag.Parse()

	if *enableAciaWide && *enableAciaNarrow {
		fmt.Fprintln(os.Stderr, "expansion6502: -a and -A are mutually exclusive")
		os.Exit(1)
	}
	if *enableRTC && *enable16550 {
		fmt.Fprintln(os.Stderr, "expansion6502: -R and -1 both target port 0xC0 and cannot be combined")
		os.Exit(1)
	}

	rom, err := os.ReadFile(*romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "expansion6502: reading ROM %s: %v\n", *romPath, err)
		os.Exit(1)
	}
	if len(rom) != expansionRomSize {
		fmt.Fprintf(os.Stderr, "expansion6502: ROM %s must be exactly %d bytes, got %d\n", *romPath, expansionRomSize, len(rom))
		os.Exit(1)
	}

	console, err := host.NewTTYConsole()
	if err != nil {
		fmt.Fprintf(os.Stderr, "expansion6502: %v\n", err)
		os.Exit(1)
	}
	defer console.Restore()

	var netIface devices.HostNetInterface
	if *enableNIC {
		tap, err := network.NewTapDevice(*tapName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "expansion6502: NIC disabled, could not open %s: %v\n", *tapName, err)
		} else {
			netIface = tap
			defer tap.Close()
		}
	}

	profile := core_engine.MachineProfile{
		Kind:             core_engine.BoardExpansion6502,
		RomPath:          *romPath,
		RomSize:          expansionRomSize,
		TStateStep:       200,
		FastPacing:       *fast,
		EnableUart16550:  *enable16550,
		EnableAciaWide:   *enableAciaWide,
		EnableAciaNarrow: *enableAciaNarrow,
		EnableSio:        *enableSio,
		EnableCTC:        *enableCTC,
		EnableRTC:        *enableRTC,
		EnableNIC:        *enableNIC && netIface != nil,
		IdeImagePath:     *idePath,
		TraceMask:        devices.TraceFlag(*traceMask),
	}

	cpu := core_engine.NewNullCPU()
	machine, err := core_engine.NewMachine(profile, rom, cpu, console, netIface, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "expansion6502: %v\n", err)
		os.Exit(1)
	}
	defer machine.Close()

	machine.RunUntil(console.Done)
}

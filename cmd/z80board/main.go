// cmd/z80board/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"example.com/boardsim/core_engine"
	"example.com/boardsim/core_engine/devices"
	"example.com/boardsim/core_engine/host"
)

const z80RomSize = 8192

func main() {
	romPath := flag.String("r", "kz80.rom", "ROM image path")
	traceMask := flag.Uint("d", 0, "trace mask")
	fast := flag.Bool("f", false, "disable pacing sleep")
	flag.Parse()

	rom, err := os.ReadFile(*romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "z80board: reading ROM %s: %v\n", *romPath, err)
		os.Exit(1)
	}
	if len(rom) != z80RomSize {
		fmt.Fprintf(os.Stderr, "z80board: ROM %s must be exactly %d bytes, got %d\n", *romPath, z80RomSize, len(rom))
		os.Exit(1)
	}

	console, err := host.NewTTYConsole()
	if err != nil {
		fmt.Fprintf(os.Stderr, "z80board: %v\n", err)
		os.Exit(1)
	}
	defer console.Restore()

	profile := core_engine.MachineProfile{
		Kind:       core_engine.BoardZ80Laptop,
		RomPath:    *romPath,
		RomSize:    z80RomSize,
		TStateStep: 369,
		FastPacing: *fast,
		TraceMask:  devices.TraceFlag(*traceMask),
	}

	cpu := core_engine.NewNullCPU()
	machine, err := core_engine.NewMachine(profile, rom, cpu, console, nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "z80board: %v\n", err)
		os.Exit(1)
	}
	defer machine.Close()

	machine.RunUntil(console.Done)
}

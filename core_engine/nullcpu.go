// core_engine/nullcpu.go
package core_engine

// NullCPU is a placeholder CPU satisfying the CPU interface so the cmd/
// entrypoints link and exercise the bus/peripheral fabric end to end. It
// performs no real instruction decoding -- the actual Z80/6502 core is an
// external collaborator per the bus/peripheral contract in cpu.go, and is
// expected to be substituted via NewMachine's cpu parameter in any real
// deployment.
type NullCPU struct {
	m1      bool
	iff1    bool
	irqLine bool
}

func NewNullCPU() *NullCPU { return &NullCPU{iff1: true} }

func (c *NullCPU) Reset() {}

func (c *NullCPU) ExecuteTStates(n int, bus Bus) int {
	return n
}

func (c *NullCPU) AssertIRQ(asserted bool) { c.irqLine = asserted }

func (c *NullCPU) InterruptZ80(vector byte) {}

func (c *NullCPU) M1Asserted() bool { return c.m1 }

func (c *NullCPU) IFF1() bool { return c.iff1 }

// cpu_test.go - Core CPU unit tests: register/flag plumbing, the prefetch
// queue, the bus T-state machine, and five of the six end-to-end scenarios
// (the DMA-steal-during-MOV scenario is covered only by DMA-scheduler unit
// tests).
//
// (c) 2024-2026 x8088 project contributors - GPLv3 or later

package cpu

import "testing"

// memBus is a flat 1MB RAM/IO harness used by every test in this package.
type memBus struct {
	mem      [1 << 20]byte
	io       [0x10000]byte
	readWait uint32
}

func newMemBus() *memBus { return &memBus{} }

func (b *memBus) ReadU8(addr uint32, elapsed uint32) (uint8, uint32) {
	return b.mem[addr&0xFFFFF], 0
}
func (b *memBus) ReadU16(addr uint32, elapsed uint32) (uint16, uint32) {
	return uint16(b.mem[addr&0xFFFFF]) | uint16(b.mem[(addr+1)&0xFFFFF])<<8, 0
}
func (b *memBus) WriteU8(addr uint32, v uint8, elapsed uint32) uint32 {
	b.mem[addr&0xFFFFF] = v
	return 0
}
func (b *memBus) WriteU16(addr uint32, v uint16, elapsed uint32) uint32 {
	b.mem[addr&0xFFFFF] = uint8(v)
	b.mem[(addr+1)&0xFFFFF] = uint8(v >> 8)
	return 0
}
func (b *memBus) IoReadU8(port uint16, elapsed uint32) uint8    { return b.io[port] }
func (b *memBus) IoWriteU8(port uint16, v uint8, elapsed uint32) { b.io[port] = v }
func (b *memBus) GetReadWait(addr uint32, elapsed uint32) uint32  { return b.readWait }
func (b *memBus) GetWriteWait(addr uint32, elapsed uint32) uint32 { return 0 }
func (b *memBus) GetFlags(addr uint32) uint32                     { return 0 }

func (b *memBus) peek(addr uint32) uint8 { return b.mem[addr&0xFFFFF] }

func (b *memBus) loadAt(seg, off uint16, bytes ...byte) {
	addr := Physical(seg, off)
	for i, by := range bytes {
		b.mem[(addr+uint32(i))&0xFFFFF] = by
	}
}

func newTestCPU(t *testing.T, ct CPUType) (*CPU, *memBus) {
	t.Helper()
	bus := newMemBus()
	c := New(ct, bus, nil)
	return c, bus
}

func runOne(t *testing.T, c *CPU) StepResult {
	t.Helper()
	res, _, err := c.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	return res
}

func TestRegisterSiblingHalves(t *testing.T) {
	var r Registers
	r.Set16(AX, 0x1234)
	if r.Get8(AH) != 0x12 || r.Get8(AL) != 0x34 {
		t.Fatalf("AH/AL = %02X/%02X, want 12/34", r.Get8(AH), r.Get8(AL))
	}
	r.Set8(AL, 0xFF)
	if r.AX != 0x12FF {
		t.Fatalf("AX after AL write = %04X, want 12FF", r.AX)
	}
}

func TestPhysicalAddressWraps1MB(t *testing.T) {
	got := Physical(0xFFFF, 0xFFFF)
	want := uint32(0xFFFF*16+0xFFFF) & 0xFFFFF
	if got != want {
		t.Fatalf("Physical(FFFF,FFFF) = %05X, want %05X", got, want)
	}
}

func TestPrefetchQueueCapacityByVariant(t *testing.T) {
	cases := []struct {
		ct   CPUType
		want int
	}{
		{I8088, 4}, {V20, 4}, {I8086, 6}, {V30, 6},
	}
	for _, tc := range cases {
		if got := tc.ct.QueueCapacity(); got != tc.want {
			t.Errorf("%s.QueueCapacity() = %d, want %d", tc.ct, got, tc.want)
		}
	}
}

func TestQueuePushPopOrder(t *testing.T) {
	q := NewPrefetchQueue(4)
	q.Push(1)
	q.Push(2)
	q.Push(3)
	if v := q.Pop(); v != 1 {
		t.Fatalf("Pop() = %d, want 1", v)
	}
	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
}

// TestDivideByZeroRaisesInt0 covers scenario: DIV with a zero divisor must
// raise interrupt 0 rather than writing back AX/DX, and the stack must
// receive FLAGS, CS, and the IP of the DIV instruction itself (not the IP
// of whatever follows it).
func TestDivideByZeroRaisesInt0(t *testing.T) {
	c, bus := newTestCPU(t, I8088)
	// Install a trivial IVT entry 0 pointing at 0x1000:0x0000.
	bus.loadAt(0, 0x0000, 0x00, 0x00, 0x00, 0x10)
	c.SetSegment(CS, 0x2000)
	c.SetIP(0x0010)
	c.pc = Physical(0x2000, 0x0010)
	c.SetRegister16(AX, 10)
	c.SetRegister16(DX, 0)
	c.SetSegment(SS, 0x5000)
	c.SetRegister16(SP, 0x0100)
	flagsBefore := c.GetFlags()
	// DIV AL ; F6 /6 with AL=0 (mod=11 reg=110 rm=000 -> 0xF0), at CS:0010.
	bus.loadAt(0x2000, 0x0010, 0xF6, 0xF0)
	c.SetRegister8(AL, 0)

	runOne(t, c)

	if c.GetSegment(CS) != 0x1000 || c.GetIP() != 0 {
		t.Fatalf("CS:IP after divide fault = %04X:%04X, want 1000:0000", c.GetSegment(CS), c.GetIP())
	}
	pushedIP := uint16(bus.peek(Physical(0x5000, 0x00FA))) | uint16(bus.peek(Physical(0x5000, 0x00FB)))<<8
	pushedCS := uint16(bus.peek(Physical(0x5000, 0x00FC))) | uint16(bus.peek(Physical(0x5000, 0x00FD)))<<8
	pushedFlags := uint16(bus.peek(Physical(0x5000, 0x00FE))) | uint16(bus.peek(Physical(0x5000, 0x00FF)))<<8
	if pushedIP != 0x0010 {
		t.Fatalf("pushed IP = %04X, want 0010 (the DIV instruction's own start IP)", pushedIP)
	}
	if pushedCS != 0x2000 {
		t.Fatalf("pushed CS = %04X, want 2000", pushedCS)
	}
	if pushedFlags != flagsBefore {
		t.Fatalf("pushed FLAGS = %04X, want pre-fault FLAGS %04X", pushedFlags, flagsBefore)
	}
}

// TestRepMovsbCopiesWholeString covers scenario: REP MOVSB over 5 bytes
// copies the whole source string and leaves CX at zero.
func TestRepMovsbCopiesWholeString(t *testing.T) {
	c, bus := newTestCPU(t, I8088)
	c.SetSegment(CS, 0x2000)
	c.SetSegment(DS, 0x3000)
	c.SetSegment(ES, 0x4000)
	c.SetIP(0)
	c.pc = Physical(0x2000, 0)
	bus.loadAt(0x2000, 0, 0xF3, 0xA4) // REP MOVSB
	bus.loadAt(0x3000, 0, 'h', 'e', 'l', 'l', 'o')
	c.SetRegister16(SI, 0)
	c.SetRegister16(DI, 0)
	c.SetRegister16(CX, 5)
	c.SetFlags(c.GetFlags() &^ FlagDF)

	runOne(t, c)

	for i := 0; i < 5; i++ {
		got := bus.peek(Physical(0x4000, uint16(i)))
		want := "hello"[i]
		if got != want {
			t.Fatalf("dest[%d] = %q, want %q", i, got, want)
		}
	}
	if c.GetRegister16(CX) != 0 {
		t.Fatalf("CX after REP MOVSB = %d, want 0", c.GetRegister16(CX))
	}
}

// TestPopCSIsNotTwoByteOpcodeOnNonNEC covers scenario: opcode 0x0F pops CS
// on 8088/8086, but is the V20/V30 extended-opcode escape on NEC variants.
func TestPopCSIsNotTwoByteOpcodeOnNonNEC(t *testing.T) {
	c, bus := newTestCPU(t, I8088)
	c.SetSegment(CS, 0x2000)
	c.SetSegment(SS, 0x1000)
	c.SetIP(0)
	c.pc = Physical(0x2000, 0)
	c.SetRegister16(SP, 0x0100)
	bus.loadAt(0x1000, 0x0100, 0x34, 0x12) // word on stack: 0x1234
	bus.loadAt(0x2000, 0, 0x0F)            // POP CS

	runOne(t, c)

	if c.GetSegment(CS) != 0x1234 {
		t.Fatalf("CS after POP CS = %04X, want 1234", c.GetSegment(CS))
	}
}

func TestV20Treats0FAsExtendedEscape(t *testing.T) {
	c, bus := newTestCPU(t, V20)
	c.SetSegment(CS, 0x2000)
	c.SetIP(0)
	c.pc = Physical(0x2000, 0)
	// 0F 28: ROL4 on byte at ES:DI.
	c.SetSegment(ES, 0x4000)
	c.SetRegister16(DI, 0)
	bus.loadAt(0x4000, 0, 0x21) // nibbles 2,1 -> rotated -> 1,2 = 0x12
	bus.loadAt(0x2000, 0, 0x0F, 0x28)

	runOne(t, c)

	if got := bus.peek(Physical(0x4000, 0)); got != 0x12 {
		t.Fatalf("ROL4 result = %02X, want 12", got)
	}
}

func TestDMASchedulerLeavesIdleAfterPeriod(t *testing.T) {
	c, _ := newTestCPU(t, I8088)
	c.SetRefreshPeriod(4)
	for i := 0; i < 4; i++ {
		c.cycle()
	}
	if c.dma.state == dmaIdle {
		t.Fatalf("dma scheduler never left idle after period elapsed")
	}
}

// TestDMAStealsExactlyFourCycles covers scenario: a refresh cycle steals
// exactly the documented 4 bus cycles from the CPU (HOLDA's own handshake
// tick is not itself stolen time), while still carrying the 6 injected
// wait states forward to gate any transfer caught mid-window.
func TestDMAStealsExactlyFourCycles(t *testing.T) {
	c, _ := newTestCPU(t, I8088)
	c.SetRefreshPeriod(1)
	stolen := 0
	for i := 0; i < 32; i++ {
		if c.tickDMA() {
			stolen++
		}
		if i > 0 && c.dma.state == dmaIdle {
			break
		}
	}
	if stolen != dmaOperatingCycles {
		t.Fatalf("dma stole %d cycles, want %d", stolen, dmaOperatingCycles)
	}
	if c.dma.waitsLeft == 0 {
		t.Fatalf("waitsLeft drained to 0 inside the stolen window, want leftover waits to carry forward")
	}
}

// TestAbortFetchDropsInFlightFetch covers scenario: the EU demanding the bus
// while a code fetch is in T2 must not let that fetch complete — the bus
// state has to drop to idle before the penalty cycles are ticked, or the
// aborted fetch's T3 still fires and pushes a byte into the queue.
func TestAbortFetchDropsInFlightFetch(t *testing.T) {
	c, _ := newTestCPU(t, I8088)
	c.tstate = T2
	c.status = CodeFetch
	c.addr = 0x1234
	startLen := c.queue.Len()
	startPC := c.pc
	startCycles := c.cycles
	c.fetch.age = 0

	c.abortFetch()

	if got := c.cycles - startCycles; got != 2 {
		t.Fatalf("abortFetch spent %d cycles, want 2 (age<=1 penalty)", got)
	}
	if c.queue.Len() != startLen {
		t.Fatalf("queue length changed from %d to %d: aborted fetch still completed", startLen, c.queue.Len())
	}
	if c.pc != startPC {
		t.Fatalf("pc advanced from %05X to %05X: aborted fetch still completed", startPC, c.pc)
	}
	if c.tstate != Ti || c.status != Passive {
		t.Fatalf("bus state after abort = %v/%v, want Ti/Passive", c.tstate, c.status)
	}
}

// TestInterruptAtREPBoundaryResumesAtPrefix covers scenario: an NMI raised
// mid-REP completes the current iteration, then resumes the REP prefix
// itself (not the instruction after it) once the handler returns.
func TestInterruptAtREPBoundaryResumesAtPrefix(t *testing.T) {
	c, bus := newTestCPU(t, I8088)
	bus.loadAt(0, 2*4, 0x40, 0x00, 0x00, 0x50) // IVT[2] (NMI) -> 0x5000:0x0040
	c.SetSegment(CS, 0x2000)
	c.SetSegment(DS, 0x3000)
	c.SetSegment(ES, 0x4000)
	c.SetSegment(SS, 0x1000)
	c.SetRegister16(SP, 0x0100)
	c.SetIP(0)
	c.pc = Physical(0x2000, 0)
	bus.loadAt(0x2000, 0, 0xF3, 0xA4) // REP MOVSB
	bus.loadAt(0x3000, 0, 'h', 'e', 'l', 'l', 'o')
	c.SetRegister16(SI, 0)
	c.SetRegister16(DI, 0)
	c.SetRegister16(CX, 5)
	c.SetFlags(c.GetFlags() &^ FlagDF)
	c.RequestNMI()

	runOne(t, c)

	if got := bus.peek(Physical(0x4000, 0)); got != 'h' {
		t.Fatalf("dest[0] = %q, want 'h' (one iteration ran before the NMI boundary)", got)
	}
	if c.GetRegister16(CX) != 4 {
		t.Fatalf("CX = %d, want 4 (exactly one iteration consumed)", c.GetRegister16(CX))
	}
	if c.GetSegment(CS) != 0x5000 || c.GetIP() != 0x0040 {
		t.Fatalf("CS:IP after NMI = %04X:%04X, want 5000:0040", c.GetSegment(CS), c.GetIP())
	}
	pushedIP := uint16(bus.peek(Physical(0x1000, 0x00FA))) | uint16(bus.peek(Physical(0x1000, 0x00FB)))<<8
	if pushedIP != 0 {
		t.Fatalf("pushed return IP = %04X, want 0000 (the REP prefix itself, to resume remaining iterations)", pushedIP)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	c, _ := newTestCPU(t, I8086)
	c.SetRegister16(AX, 0xBEEF)
	c.SetRegister16(CX, 7)
	buf := c.Serialize()

	c2, _ := newTestCPU(t, I8086)
	if err := c2.Deserialize(buf); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if c2.GetRegister16(AX) != 0xBEEF || c2.GetRegister16(CX) != 7 {
		t.Fatalf("restored AX/CX = %04X/%04X, want BEEF/0007", c2.GetRegister16(AX), c2.GetRegister16(CX))
	}
}

func TestDisassembleNopAndHlt(t *testing.T) {
	bus := newMemBus()
	bus.loadAt(0, 0, 0x90, 0xF4)
	lines := Disassemble(func(addr uint32) byte { return bus.peek(addr) }, 0, 2, false)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Text != "NOP" || lines[1].Text != "HLT" {
		t.Fatalf("got %q/%q, want NOP/HLT", lines[0].Text, lines[1].Text)
	}
}

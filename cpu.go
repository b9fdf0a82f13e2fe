// cpu.go - The CPU aggregate: wires the BIU, EU, scheduler, DMA and
// interrupt sequencer together behind the single cycle() stepping method,
// and exposes the public surface a host program drives.
//
// (c) 2024-2026 x8088 project contributors - GPLv3 or later

package cpu

import "fmt"

// resetCS and resetIP are the documented 8088/8086/V20/V30 power-on vector:
// execution begins at the top of the BIOS ROM.
const (
	resetCS uint16 = 0xF000
	resetIP uint16 = 0xFFF0
)

// StepResult names the outcome of Step().
type StepResult int

const (
	StepOK StepResult = iota
	StepHalt
	StepBreakpoint
)

// DecodeError reports a malformed instruction stream.
type DecodeError struct {
	Addr uint32
	Byte byte
	Msg  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cpu: decode error at %05X (byte %02X): %s", e.Addr, e.Byte, e.Msg)
}

// ExecutionError reports an internal contract violation in the executor.
type ExecutionError struct {
	Op  string
	Msg string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("cpu: execution error in %s: %s", e.Op, e.Msg)
}

// CPU is the single aggregate holding BIU, EU, scheduler, DMA and interrupt
// state. Per the design note on cyclic BIU/EU ownership, there is
// deliberately no separate "BIU object" referencing a separate "EU
// object" — every method below is a method on this one struct.
type CPU struct {
	cpuType CPUType

	regs  Registers
	queue *PrefetchQueue
	biu
	fetch fetchState
	dma   dmaScheduler
	intr  interruptSequencer

	bus Bus
	pic PIC

	baseOps [256]func(*CPU)
	extOps  [256]func(*CPU)

	cycles  uint64
	halted  bool
	running bool

	breakpoints  []Breakpoint
	condBreaks   []*ConditionalBreakpoint
	watchpoints  []*Watchpoint
	lastBreak    *Breakpoint
	lastWatchHit *WatchpointHit

	trace       []Signals
	tracing     bool
	validator   Validator
	microPC     string

	// Decode-time scratch, valid for the duration of one Step().
	segOverride  int // -1 = none, else SegReg
	repPrefix    RepKind
	lockPrefix   bool
	extended     bool   // V20/V30 0x0F two-byte opcode in progress
	instrStartIP uint16 // IP of the first prefix byte, for REP/INTR resume
}

// New constructs a CPU for the given variant, wired to the supplied bus and
// (optionally nil) PIC.
func New(t CPUType, bus Bus, pic PIC) *CPU {
	c := &CPU{
		cpuType: t,
		queue:   NewPrefetchQueue(t.QueueCapacity()),
		bus:     bus,
		pic:     pic,
		dma:     *newDMAScheduler(defaultRefreshPeriod),
	}
	c.initBaseOps()
	c.initExtendedOps()
	c.Reset()
	return c
}

// SetRefreshPeriod reconfigures the DMA scheduler's refresh interval; the
// DMA scheduler tests use it to shorten the period.
func (c *CPU) SetRefreshPeriod(period int) {
	c.dma = *newDMAScheduler(period)
}

// Reset forces the documented post-reset register values, flushes the
// prefetch queue, and begins fetching from F000:FFF0.
func (c *CPU) Reset() {
	c.regs = Registers{CS: resetCS, IP: resetIP, Flags: normalizeFlags(0)}
	c.queue.Flush()
	c.fetch = fetchState{}
	c.tstate = Ti
	c.status = Passive
	c.halted = false
	c.running = true
	c.pc = Physical(c.regs.CS, c.regs.IP)
	c.intr = interruptSequencer{}
}

// --- Register/flag accessors (External Interfaces §6) ---

func (c *CPU) GetRegister8(r Register8) uint8   { return c.regs.Get8(r) }
func (c *CPU) SetRegister8(r Register8, v uint8) { c.regs.Set8(r, v) }
func (c *CPU) GetRegister16(r Register16) uint16  { return c.regs.Get16(r) }
func (c *CPU) SetRegister16(r Register16, v uint16) { c.regs.Set16(r, v) }
func (c *CPU) GetSegment(s SegReg) uint16         { return c.regs.GetSeg(s) }
func (c *CPU) SetSegment(s SegReg, v uint16)      { c.regs.SetSeg(s, v) }
func (c *CPU) GetIP() uint16                      { return c.regs.IP }
func (c *CPU) SetIP(v uint16)                     { c.regs.IP = v }
func (c *CPU) GetFlags() uint16                   { return c.regs.Flags }
func (c *CPU) SetFlags(v uint16)                   { c.regs.Flags = normalizeFlags(v) }
func (c *CPU) Halted() bool                        { return c.halted }
func (c *CPU) Cycles() uint64                      { return c.cycles }

// --- Tracing ---

func (c *CPU) BeginTrace(v Validator) {
	c.tracing = true
	c.validator = v
	c.trace = c.trace[:0]
}

func (c *CPU) EndTrace() {
	c.tracing = false
	c.validator = nil
}

func (c *CPU) GetCycleStates() []Signals { return c.trace }

// cycle is the single private method that advances the whole aggregate by
// exactly one T-state: DMA tick, BIU state-machine advance, scheduler
// bookkeeping, and trace emission. Every execution path — fetch, memory
// and I/O access, interrupt stacking — calls this and nothing else
// touches the wall of cycles directly; ALU work itself clocks no cycles.
func (c *CPU) cycle() {
	c.cycles++

	stolen := c.tickDMA()
	c.tickScheduler()

	qop := QueueIdle
	var qbyte byte
	if !stolen {
		if (c.tstate == Ti || c.tstate == Tinit) && c.status == Passive && c.wantsFetch() {
			c.beginCodeFetch()
		}
		completed := c.advanceBus()
		if completed && c.status == CodeFetch {
			qop = QueueFirst
			if b, ok := c.queue.Peek(); ok {
				qbyte = b
			}
			c.pc += uint32(c.size)
			c.fetch.kind = fetchIdle
		}
	}

	if c.validator != nil {
		c.validator.CycleState(c.signals(qop, qbyte))
	}
	if c.tracing {
		c.trace = append(c.trace, c.signals(qop, qbyte))
	}
}

// runBusCycle drives one full bus transaction (Ti->T1->...->T4) by stepping
// cycle() until it completes, and returns the data read (for reads).
func (c *CPU) runBusCycle(status BusStatus, addr uint32, size TransferSize, isWrite bool, writeVal uint16) uint16 {
	if status != CodeFetch {
		c.pendingEU = true
		if c.tstate == T1 || c.tstate == T2 {
			// A code fetch is mid-flight and the EU needs the bus now.
			c.abortFetch()
		}
	}
	c.status = status
	c.addr = addr
	c.size = size
	c.isWrite = isWrite
	c.writeVal = writeVal
	c.tstate = Ti

	for {
		c.cycle()
		if c.tstate == Ti && c.status == Passive {
			break
		}
	}
	c.pendingEU = false
	return c.data
}

// readMem8/16 and writeMem8/16 are the microcode executor's only doorways
// to memory; they always cycle-step through a full bus transaction.
func (c *CPU) readMem8(addr uint32) uint8 {
	return uint8(c.runBusCycle(MemRead, addr, SizeByte, false, 0))
}

func (c *CPU) readMem16(addr uint32) uint16 {
	if c.cpuType.IsWordBus() {
		return c.runBusCycle(MemRead, addr, SizeWord, false, 0)
	}
	lo := c.readMem8(addr)
	hi := c.readMem8(addr + 1)
	return uint16(lo) | uint16(hi)<<8
}

func (c *CPU) writeMem8(addr uint32, v uint8) {
	c.checkWatchpoint(addr, v)
	c.runBusCycle(MemWrite, addr, SizeByte, true, uint16(v))
}

func (c *CPU) writeMem16(addr uint32, v uint16) {
	if c.cpuType.IsWordBus() {
		c.runBusCycle(MemWrite, addr, SizeWord, true, v)
		return
	}
	c.writeMem8(addr, uint8(v))
	c.writeMem8(addr+1, uint8(v>>8))
}

func (c *CPU) readWordPhysical(addr uint32) uint16 { return c.readMem16(addr) }

func (c *CPU) ioRead8(port uint16) uint8 {
	return uint8(c.runBusCycle(IoRead, uint32(port), SizeByte, false, 0))
}

func (c *CPU) ioWrite8(port uint16, v uint8) {
	c.runBusCycle(IoWrite, uint32(port), SizeByte, true, uint16(v))
}

// pushWord/popWord implement the stack-segment-relative PUSH/POP primitive
// shared by every opcode and by the interrupt sequencer.
func (c *CPU) pushWord(v uint16) {
	c.regs.SP -= 2
	c.writeMem16(Physical(c.regs.SS, c.regs.SP), v)
}

func (c *CPU) popWord() uint16 {
	v := c.readMem16(Physical(c.regs.SS, c.regs.SP))
	c.regs.SP += 2
	return v
}

// flushAndRefetch clears the prefetch queue and resets the linear fetch
// pointer to the architectural CS:IP, as required after any control
// transfer (jump/call/ret/interrupt entry).
func (c *CPU) flushAndRefetch() {
	c.queue.Flush()
	c.pc = Physical(c.regs.CS, c.regs.IP)
	c.fetch.kind = fetchIdle
	c.fetch.age = 0
}

// fetchByte pops the next instruction byte from the prefetch queue,
// cycling the CPU to produce more bytes if the queue is empty. This is the
// decoder's only source of bytes (§4.A).
func (c *CPU) fetchByte() uint8 {
	if b, ok := c.queue.TakePreload(); ok {
		c.cycle()
		return b
	}
	for c.queue.Len() == 0 {
		c.cycle()
	}
	b := c.queue.Pop()
	c.regs.IP++
	return b
}

func (c *CPU) fetchWord() uint16 {
	lo := c.fetchByte()
	hi := c.fetchByte()
	return uint16(lo) | uint16(hi)<<8
}

// Tell implements the byte-queue contract's tell(): the linear address of
// the next byte the decoder will read.
func (c *CPU) Tell() uint32 {
	pre := 0
	if c.queue.HasPreload() {
		pre = 1
	}
	return c.pc - uint32(c.queue.Len()) - uint32(pre)
}

// TickCycle exposes cycle() to a host driving the core on a sub-instruction
// schedule.
func (c *CPU) TickCycle() { c.cycle() }

// Step decodes and fully executes one instruction (including REP
// iterations), returning the outcome and the number of bus cycles consumed.
func (c *CPU) Step() (StepResult, uint64, error) {
	startCycles := c.cycles

	if c.halted {
		if vec, ok := c.pendingInterrupt(); ok {
			c.halted = false
			c.serviceInterrupt(vec, c.regs.IP)
		} else {
			c.cycle()
			return StepOK, c.cycles - startCycles, nil
		}
	}

	if c.checkBreakpoint(Tell(c), BreakExecute) {
		return StepBreakpoint, 0, nil
	}

	c.segOverride = -1
	c.repPrefix = RepNone
	c.lockPrefix = false
	c.extended = false
	c.instrStartIP = c.regs.IP

	op, err := c.decodeAndPrefix()
	if err != nil {
		return StepOK, c.cycles - startCycles, err
	}

	// LOCK asserts for the whole instruction once decoded, even when the
	// instruction that follows never touches memory (Open Question: a real
	// 8088 still holds the bus for the single following instruction).
	if c.lockPrefix {
		c.lock = true
	}

	if err := c.execute(op); err != nil {
		c.lock = false
		return StepOK, c.cycles - startCycles, err
	}
	c.lock = false

	// A divide exception pushes the faulting instruction's own start IP,
	// not the current one (decode/execute have already advanced c.regs.IP
	// past the whole instruction by this point) — serviced ahead of the
	// normal TF/NMI/INTR priority chain, which only ever sees the
	// already-completed instruction's post-IP.
	if c.intr.divException {
		c.intr.divException = false
		c.serviceInterrupt(0, c.instrStartIP)
		return StepOK, c.cycles - startCycles, nil
	}

	if c.halted {
		return StepHalt, c.cycles - startCycles, nil
	}

	if vec, ok := c.pendingInterrupt(); ok {
		c.serviceInterrupt(vec, c.regs.IP)
	}

	return StepOK, c.cycles - startCycles, nil
}

// Tell is a free function mirroring CPU.Tell, used before prefix decode has
// established any state, purely for breakpoint address lookup.
func Tell(c *CPU) uint32 { return c.Tell() }

// Validator is the optional hook a host plugs in to compare every cycle
// against a reference implementation (§9 "Validator integration").
type Validator interface {
	CycleState(Signals)
	InstructionBegin(addr uint32)
	InstructionEnd(addr uint32)
	EmuReadByte(addr uint32, v uint8)
	EmuWriteByte(addr uint32, v uint8)
}

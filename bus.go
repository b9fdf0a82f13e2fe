// bus.go - External bus interface and the BIU's T-state cycle machine.
//
// (c) 2024-2026 x8088 project contributors - GPLv3 or later

package cpu

// Bus is the interface the host's memory/peripheral map must implement. All
// calls are synchronous and must return within the cycle; the core never
// blocks on I/O.
type Bus interface {
	ReadU8(addr uint32, elapsed uint32) (uint8, uint32)
	ReadU16(addr uint32, elapsed uint32) (uint16, uint32)
	WriteU8(addr uint32, v uint8, elapsed uint32) uint32
	WriteU16(addr uint32, v uint16, elapsed uint32) uint32
	IoReadU8(port uint16, elapsed uint32) uint8
	IoWriteU8(port uint16, v uint8, elapsed uint32)
	GetReadWait(addr uint32, elapsed uint32) uint32
	GetWriteWait(addr uint32, elapsed uint32) uint32
	GetFlags(addr uint32) uint32
}

// PIC is the interrupt controller handle the interrupt sequencer consults
// during INTA cycles.
type PIC interface {
	NextInterruptVector() uint8
	InterruptPending() bool
}

// Signals captures the CPU-visible pin state for one cycle, bit-exact with
// the reference hardware pins named in spec §6.
type Signals struct {
	Cycle    uint64
	TState   TState
	Status   BusStatus
	Address  uint32
	Data     uint16
	ALE      bool
	MRDC     bool
	MWTC     bool
	AMWC     bool
	IORC     bool
	IOWC     bool
	AIOWC    bool
	INTA     bool
	LOCK     bool
	READY    bool
	HRQ      bool
	HOLDA    bool
	AEN      bool
	DREQ0    bool
	QueueOp  QueueOp
	QueueLen int
	QueueByte byte
	MicroPC  string
}

// biu holds the Bus Interface Unit's T-state machine fields. It is embedded
// directly in CPU per the design note that BIU and EU share one aggregate.
type biu struct {
	tstate     TState
	status     BusStatus
	waitStates uint32
	waitCount  uint32
	addr       uint32
	data       uint16
	size       TransferSize
	isWrite    bool
	writeVal   uint16
	ale        bool
	lock       bool
	pendingEU  bool // EU has an outstanding bus request this cycle
	pc         uint32 // linear fetch pointer, independent of IP
}

// advanceBus steps the BIU's T-state machine exactly one cycle and returns
// true when a transfer completed on this cycle (i.e. this was the last T3
// or Tw). Completion triggers the actual bus.Read/Write call and, for code
// fetches, the prefetch-queue push.
func (c *CPU) advanceBus() (completed bool) {
	switch c.tstate {
	case Tinit, Ti:
		if c.status == Halt {
			c.tstate = Ti
			c.status = Passive
			return false
		}
		if c.status == Passive {
			c.tstate = Ti
			return false
		}
		c.tstate = T1
		c.ale = true
	case T1:
		c.ale = false
		c.tstate = T2
		c.waitStates = c.queryWait()
		c.waitCount = 0
	case T2:
		c.tstate = T3
	case T3:
		if c.dma.waitsLeft > 0 {
			// A transfer that was parked here while DMA owned the bus
			// still sees whatever's left of the 6 injected refresh waits
			// once the bus is handed back, even if the device itself
			// needed none.
			c.waitStates += uint32(c.dma.waitsLeft)
			c.dma.waitsLeft = 0
		}
		if c.waitStates == 0 {
			completed = true
			c.performTransfer()
			c.tstate = T4
		} else {
			c.tstate = Tw
		}
	case Tw:
		c.waitCount++
		if c.waitCount >= c.waitStates {
			completed = true
			c.performTransfer()
			c.tstate = T4
		}
	case T4:
		c.tstate = Ti
		c.status = Passive
	}
	return completed
}

// queryWait asks the bus (or the fixed I/O wait of 1) for the wait-state
// count to apply to the in-flight transfer.
func (c *CPU) queryWait() uint32 {
	switch c.status {
	case IoRead, IoWrite:
		return 1
	case MemRead, CodeFetch:
		return c.bus.GetReadWait(c.addr, uint32(c.cycles))
	case MemWrite:
		return c.bus.GetWriteWait(c.addr, uint32(c.cycles))
	default:
		return 0
	}
}

// performTransfer executes the actual data movement at T3/last-Tw and, for
// code fetches, pushes the byte(s) into the prefetch queue.
func (c *CPU) performTransfer() {
	switch c.status {
	case CodeFetch:
		if c.size == SizeWord && c.cpuType.IsWordBus() {
			w, _ := c.bus.ReadU16(c.addr, uint32(c.cycles))
			c.data = w
			if c.queue.Len() <= c.queue.Capacity()-2 {
				c.queue.Push(uint8(w))
				c.queue.Push(uint8(w >> 8))
			} else {
				c.queue.Push(uint8(w))
				c.queue.SetPreload(uint8(w >> 8))
			}
		} else {
			b, _ := c.bus.ReadU8(c.addr, uint32(c.cycles))
			c.data = uint16(b)
			c.queue.Push(b)
		}
	case MemRead:
		if c.size == SizeWord {
			w, _ := c.bus.ReadU16(c.addr, uint32(c.cycles))
			c.data = w
		} else {
			b, _ := c.bus.ReadU8(c.addr, uint32(c.cycles))
			c.data = uint16(b)
		}
	case MemWrite:
		if c.size == SizeWord {
			c.bus.WriteU16(c.addr, c.writeVal, uint32(c.cycles))
		} else {
			c.bus.WriteU8(c.addr, uint8(c.writeVal), uint32(c.cycles))
		}
	case IoRead:
		c.data = uint16(c.bus.IoReadU8(uint16(c.addr), uint32(c.cycles)))
	case IoWrite:
		c.bus.IoWriteU8(uint16(c.addr), uint8(c.writeVal), uint32(c.cycles))
	case InterruptAck:
		if c.pic != nil {
			c.data = uint16(c.pic.NextInterruptVector())
		}
	}
}

// signals renders the current cycle's pin state for the trace sink.
func (c *CPU) signals(qop QueueOp, qbyte byte) Signals {
	return Signals{
		Cycle:     c.cycles,
		TState:    c.tstate,
		Status:    c.status,
		Address:   c.addr,
		Data:      c.data,
		ALE:       c.ale,
		MRDC:      (c.tstate == T2 || c.tstate == T3 || c.tstate == Tw) && (c.status == MemRead || c.status == CodeFetch),
		MWTC:      (c.tstate == T3 || c.tstate == Tw) && c.status == MemWrite,
		IORC:      (c.tstate == T2 || c.tstate == T3 || c.tstate == Tw) && c.status == IoRead,
		IOWC:      (c.tstate == T3 || c.tstate == Tw) && c.status == IoWrite,
		INTA:      c.status == InterruptAck,
		LOCK:      c.lock,
		READY:     c.waitStates == 0 || c.waitCount >= c.waitStates,
		HRQ:       c.dma.state == dmaHrq || c.dma.state == dmaHoldA || c.dma.state == dmaOperating,
		HOLDA:     c.dma.state == dmaHoldA || c.dma.state == dmaOperating,
		AEN:       c.dma.state == dmaHoldA || c.dma.state == dmaOperating,
		DREQ0:     c.dma.state == dmaDreq || c.dma.state == dmaHrq,
		QueueOp:   qop,
		QueueLen:  c.queue.Len(),
		QueueByte: qbyte,
		MicroPC:   c.microPC,
	}
}

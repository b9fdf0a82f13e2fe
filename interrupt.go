// interrupt.go - Interrupt sequencer: priority ordering, INTA cycles,
// vector fetch, and FLAGS/CS/IP stacking, per §4.J.
//
// (c) 2024-2026 x8088 project contributors - GPLv3 or later

package cpu

import "sync/atomic"

// intrKind names the interrupt sequencer's state machine variants.
type intrKind int

const (
	intrIdle intrKind = iota
	intrAcceptPending
	intrPushingFlags
	intrPushingCS
	intrPushingIP
	intrVectorRead
	intrFetchResume
)

// interruptSequencer holds the pending-interrupt flags and the sequencer's
// own state. nmiPending/intrLine are atomics because push_interrupt is the
// one surface a host may legitimately call from another goroutine (e.g. a
// UI thread raising a key-driven IRQ); everything else in the core is
// single-threaded.
type interruptSequencer struct {
	state       intrKind
	nmiPending  atomic.Bool
	intrLine    atomic.Bool
	softVector  int // unused: INT/INT3/INTO are serviced inline by their opcode handlers
	divException bool
	suppressTrapOnce bool
}

// RequestNMI raises a non-maskable interrupt (edge-triggered): it will be
// serviced at the next instruction boundary regardless of IF.
func (c *CPU) RequestNMI() {
	c.intr.nmiPending.Store(true)
}

// RequestINTR raises (or lowers) the level-triggered maskable interrupt
// line; it is serviced only while IF=1 and the line remains asserted.
func (c *CPU) RequestINTR(asserted bool) {
	c.intr.intrLine.Store(asserted)
}

// pendingInterrupt reports the highest-priority interrupt source pending at
// this instruction boundary, per §4.J's ordering: faults of the
// just-completed instruction, then single-step (TF), then NMI, then INTR,
// then software interrupts (already consumed inline by their own opcode).
// Divide exceptions are not handled here: they're serviced immediately
// after execute() in Step(), pushing the faulting instruction's start IP
// rather than the current one, before this priority chain (TF/NMI/INTR)
// is ever consulted.
func (c *CPU) pendingInterrupt() (vector int, ok bool) {
	if getFlag(c.regs.Flags, FlagTF) && !c.intr.suppressTrapOnce {
		return 1, true
	}
	c.intr.suppressTrapOnce = false
	if c.intr.nmiPending.CompareAndSwap(true, false) {
		return 2, true
	}
	if c.intr.intrLine.Load() && getFlag(c.regs.Flags, FlagIF) {
		return -1, true // vector supplied by the PIC via INTA
	}
	return 0, false
}

// peekPendingInterrupt reports whether NMI or a level-asserted, IF-enabled
// INTR is waiting, without consuming it — used by REP string loops to
// decide whether to break at the current iteration boundary (§4.E, §8
// scenario 6) and let Step()'s normal post-instruction check take it from
// there.
func (c *CPU) peekPendingInterrupt() bool {
	return c.intr.nmiPending.Load() || (c.intr.intrLine.Load() && getFlag(c.regs.Flags, FlagIF))
}

// serviceInterrupt runs the full hardware sequence documented in §4.J: for
// external INTR, two back-to-back INTA cycles (LOCK asserted on the first)
// to obtain the vector from the PIC; for all sources, push FLAGS, clear
// IF/TF, push CS then returnIP, then read the 4-byte vector table entry at
// vector*4 and resume fetching from the new CS:IP. returnIP is the value
// pushed to the stack: the post-instruction IP for hardware/software
// interrupts and traps, but the faulting instruction's own start IP for a
// divide exception (vector 0 from raiseDivideException), per the "stack
// contains... IP of the DIV instruction" contract.
func (c *CPU) serviceInterrupt(vector int, returnIP uint16) {
	c.intr.state = intrAcceptPending
	if vector < 0 {
		c.lock = true
		c.runBusCycle(InterruptAck, 0, SizeByte, false, 0)
		c.lock = false
		c.runBusCycle(InterruptAck, 0, SizeByte, false, 0)
		if c.pic != nil {
			vector = int(c.pic.NextInterruptVector())
		} else {
			vector = 0
		}
	}

	c.intr.state = intrPushingFlags
	c.pushWord(c.regs.Flags)
	c.regs.Flags = setFlag(c.regs.Flags, FlagIF, false)
	c.regs.Flags = setFlag(c.regs.Flags, FlagTF, false)

	c.intr.state = intrPushingCS
	c.pushWord(c.regs.CS)
	c.intr.state = intrPushingIP
	c.pushWord(returnIP)

	c.intr.state = intrVectorRead
	base := uint32(vector) * 4
	ip := c.readWordPhysical(base)
	cs := c.readWordPhysical(base + 2)

	c.intr.state = intrFetchResume
	c.regs.IP = ip
	c.regs.CS = cs
	c.flushAndRefetch()
	c.intr.state = intrIdle
}

// raiseDivideException records a pending type-0 fault. Step() services it
// immediately after execute() returns, pushing instrStartIP rather than the
// current IP so the stacked return address is the faulting DIV/IDIV
// instruction's own start, not whatever IP decode/execute left behind.
func (c *CPU) raiseDivideException() {
	c.intr.divException = true
}

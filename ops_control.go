// ops_control.go - Control transfer: conditional/unconditional jumps,
// calls, returns, loops, software interrupts, and flag-bit instructions.
//
// (c) 2024-2026 x8088 project contributors - GPLv3 or later

package cpu

// condPredicate tests a condition code against FLAGS (§4.B Jcc table).
type condPredicate func(f uint16) bool

func testO(f uint16) bool   { return getFlag(f, FlagOF) }
func testNO(f uint16) bool  { return !getFlag(f, FlagOF) }
func testB(f uint16) bool   { return getFlag(f, FlagCF) }
func testNB(f uint16) bool  { return !getFlag(f, FlagCF) }
func testZ(f uint16) bool   { return getFlag(f, FlagZF) }
func testNZ(f uint16) bool  { return !getFlag(f, FlagZF) }
func testBE(f uint16) bool  { return getFlag(f, FlagCF) || getFlag(f, FlagZF) }
func testNBE(f uint16) bool { return !getFlag(f, FlagCF) && !getFlag(f, FlagZF) }
func testS(f uint16) bool   { return getFlag(f, FlagSF) }
func testNS(f uint16) bool  { return !getFlag(f, FlagSF) }
func testP(f uint16) bool   { return getFlag(f, FlagPF) }
func testNP(f uint16) bool  { return !getFlag(f, FlagPF) }
func testL(f uint16) bool   { return getFlag(f, FlagSF) != getFlag(f, FlagOF) }
func testNL(f uint16) bool  { return getFlag(f, FlagSF) == getFlag(f, FlagOF) }
func testLE(f uint16) bool  { return getFlag(f, FlagZF) || (getFlag(f, FlagSF) != getFlag(f, FlagOF)) }
func testNLE(f uint16) bool { return !getFlag(f, FlagZF) && (getFlag(f, FlagSF) == getFlag(f, FlagOF)) }

func condJumpFn(pred condPredicate) func(*CPU) {
	return func(c *CPU) {
		rel := int8(c.fetchByte())
		if pred(c.regs.Flags) {
			c.jumpRelative(rel)
		}
	}
}

func (c *CPU) jumpRelative(rel int8) {
	c.regs.IP = uint16(int32(c.regs.IP) + int32(rel))
	c.flushAndRefetch()
}

func (c *CPU) opJMP_rel8() {
	rel := int8(c.fetchByte())
	c.jumpRelative(rel)
}

func (c *CPU) opJMP_rel() {
	rel := int16(c.fetchWord())
	c.regs.IP = uint16(int32(c.regs.IP) + int32(rel))
	c.flushAndRefetch()
}

func (c *CPU) opJMP_far() {
	ip := c.fetchWord()
	cs := c.fetchWord()
	c.regs.IP = ip
	c.regs.CS = cs
	c.flushAndRefetch()
}

func (c *CPU) opCALL_rel() {
	rel := int16(c.fetchWord())
	ret := c.regs.IP
	c.regs.IP = uint16(int32(c.regs.IP) + int32(rel))
	c.flushAndRefetch()
	c.pushWord(ret)
}

func (c *CPU) opRET() {
	c.regs.IP = c.popWord()
	c.flushAndRefetch()
}

func (c *CPU) opRET_imm16() {
	n := c.fetchWord()
	c.regs.IP = c.popWord()
	c.regs.SP += n
	c.flushAndRefetch()
}

func (c *CPU) opRETF() {
	c.regs.IP = c.popWord()
	c.regs.CS = c.popWord()
	c.flushAndRefetch()
}

func (c *CPU) opRETF_imm16() {
	n := c.fetchWord()
	c.regs.IP = c.popWord()
	c.regs.CS = c.popWord()
	c.regs.SP += n
	c.flushAndRefetch()
}

func (c *CPU) opLOOP() {
	rel := int8(c.fetchByte())
	c.regs.CX--
	if c.regs.CX != 0 {
		c.jumpRelative(rel)
	}
}

func (c *CPU) opLOOPE() {
	rel := int8(c.fetchByte())
	c.regs.CX--
	if c.regs.CX != 0 && getFlag(c.regs.Flags, FlagZF) {
		c.jumpRelative(rel)
	}
}

func (c *CPU) opLOOPNE() {
	rel := int8(c.fetchByte())
	c.regs.CX--
	if c.regs.CX != 0 && !getFlag(c.regs.Flags, FlagZF) {
		c.jumpRelative(rel)
	}
}

func (c *CPU) opJCXZ() {
	rel := int8(c.fetchByte())
	if c.regs.CX == 0 {
		c.jumpRelative(rel)
	}
}

// opINT3/opINT/opINTO raise software interrupts inline: per §4.J they follow
// the same stacking as hardware interrupts but skip the INTA cycles.
func (c *CPU) opINT3() { c.serviceInterrupt(3, c.regs.IP) }

func (c *CPU) opINT() {
	vector := c.fetchByte()
	c.serviceInterrupt(int(vector), c.regs.IP)
}

func (c *CPU) opINTO() {
	if getFlag(c.regs.Flags, FlagOF) {
		c.serviceInterrupt(4, c.regs.IP)
	}
}

func (c *CPU) opIRET() {
	c.regs.IP = c.popWord()
	c.regs.CS = c.popWord()
	c.regs.Flags = normalizeFlags(c.popWord())
	c.flushAndRefetch()
}

func (c *CPU) opHLT() {
	c.halted = true
	c.status = Halt
}

func (c *CPU) opCLC() { c.regs.Flags = setFlag(c.regs.Flags, FlagCF, false) }
func (c *CPU) opSTC() { c.regs.Flags = setFlag(c.regs.Flags, FlagCF, true) }
func (c *CPU) opCMC() { c.regs.Flags = setFlag(c.regs.Flags, FlagCF, !getFlag(c.regs.Flags, FlagCF)) }
func (c *CPU) opCLI() { c.regs.Flags = setFlag(c.regs.Flags, FlagIF, false) }
func (c *CPU) opSTI() { c.regs.Flags = setFlag(c.regs.Flags, FlagIF, true) }
func (c *CPU) opCLD() { c.regs.Flags = setFlag(c.regs.Flags, FlagDF, false) }
func (c *CPU) opSTD() { c.regs.Flags = setFlag(c.regs.Flags, FlagDF, true) }

// extended.go - NEC V20/V30 documented 0x0F-prefixed extensions: bitfield
// insert/extract, packed-BCD string ops, nibble rotates, and single-bit
// test/clear/set/toggle, per §4.D.
//
// (c) 2024-2026 x8088 project contributors - GPLv3 or later

package cpu

// initExtendedOps builds the two-byte (0x0F-prefixed) dispatch table used
// only when cpuType.IsNEC(); plain 8088/8086 treat 0x0F as POP CS (wired in
// the base table instead).
func (c *CPU) initExtendedOps() {
	// TEST1/CLR1/SET1/NOT1, byte and word forms, CL-indexed and
	// immediate-indexed bit number.
	c.extOps[0x10] = (*CPU).opTEST1_Eb_CL
	c.extOps[0x11] = (*CPU).opTEST1_Ev_CL
	c.extOps[0x12] = (*CPU).opCLR1_Eb_CL
	c.extOps[0x13] = (*CPU).opCLR1_Ev_CL
	c.extOps[0x14] = (*CPU).opSET1_Eb_CL
	c.extOps[0x15] = (*CPU).opSET1_Ev_CL
	c.extOps[0x16] = (*CPU).opNOT1_Eb_CL
	c.extOps[0x17] = (*CPU).opNOT1_Ev_CL
	c.extOps[0x18] = (*CPU).opTEST1_Eb_Ib
	c.extOps[0x19] = (*CPU).opTEST1_Ev_Ib
	c.extOps[0x1A] = (*CPU).opCLR1_Eb_Ib
	c.extOps[0x1B] = (*CPU).opCLR1_Ev_Ib
	c.extOps[0x1C] = (*CPU).opSET1_Eb_Ib
	c.extOps[0x1D] = (*CPU).opSET1_Ev_Ib
	c.extOps[0x1E] = (*CPU).opNOT1_Eb_Ib
	c.extOps[0x1F] = (*CPU).opNOT1_Ev_Ib

	c.extOps[0x20] = (*CPU).opADD4S
	c.extOps[0x22] = (*CPU).opSUB4S
	c.extOps[0x26] = (*CPU).opCMP4S

	c.extOps[0x28] = (*CPU).opROL4
	c.extOps[0x2A] = (*CPU).opROR4

	c.extOps[0x31] = (*CPU).opBINS
	c.extOps[0x33] = (*CPU).opBEXT
}

func (c *CPU) opTEST1_Eb_CL() { c.test1Eb(c.regs.Get8(CL) & 7) }
func (c *CPU) opTEST1_Ev_CL() { c.test1Ev(c.regs.Get8(CL) & 15) }
func (c *CPU) opTEST1_Eb_Ib() { bit := c.fetchByte(); c.test1Eb(bit & 7) }
func (c *CPU) opTEST1_Ev_Ib() { bit := c.fetchByte(); c.test1Ev(bit & 15) }

func (c *CPU) test1Eb(bit uint8) {
	m := c.readModRM()
	v := c.readRM8(m)
	c.regs.Flags = setFlag(c.regs.Flags, FlagZF, !test1(uint16(v), bit))
}

func (c *CPU) test1Ev(bit uint8) {
	m := c.readModRM()
	v := c.readRM16(m)
	c.regs.Flags = setFlag(c.regs.Flags, FlagZF, !test1(v, bit))
}

func (c *CPU) opCLR1_Eb_CL() { c.bitOpEb(c.regs.Get8(CL)&7, clr1) }
func (c *CPU) opCLR1_Ev_CL() { c.bitOpEv(c.regs.Get8(CL)&15, clr1) }
func (c *CPU) opCLR1_Eb_Ib() { bit := c.fetchByte(); c.bitOpEb(bit&7, clr1) }
func (c *CPU) opCLR1_Ev_Ib() { bit := c.fetchByte(); c.bitOpEv(bit&15, clr1) }

func (c *CPU) opSET1_Eb_CL() { c.bitOpEb(c.regs.Get8(CL)&7, set1) }
func (c *CPU) opSET1_Ev_CL() { c.bitOpEv(c.regs.Get8(CL)&15, set1) }
func (c *CPU) opSET1_Eb_Ib() { bit := c.fetchByte(); c.bitOpEb(bit&7, set1) }
func (c *CPU) opSET1_Ev_Ib() { bit := c.fetchByte(); c.bitOpEv(bit&15, set1) }

func (c *CPU) opNOT1_Eb_CL() { c.bitOpEb(c.regs.Get8(CL)&7, not1) }
func (c *CPU) opNOT1_Ev_CL() { c.bitOpEv(c.regs.Get8(CL)&15, not1) }
func (c *CPU) opNOT1_Eb_Ib() { bit := c.fetchByte(); c.bitOpEb(bit&7, not1) }
func (c *CPU) opNOT1_Ev_Ib() { bit := c.fetchByte(); c.bitOpEv(bit&15, not1) }

func (c *CPU) bitOpEb(bit uint8, f func(uint16, uint8) uint16) {
	m := c.readModRM()
	v := c.readRM8(m)
	c.writeRM8(m, uint8(f(uint16(v), bit)))
}

func (c *CPU) bitOpEv(bit uint8, f func(uint16, uint8) uint16) {
	m := c.readModRM()
	v := c.readRM16(m)
	c.writeRM16(m, f(v, bit))
}

// opROL4/opROR4 rotate the nibbles of the byte pointed to by ES:DI.
func (c *CPU) opROL4() {
	addr := Physical(c.regs.ES, c.regs.DI)
	c.writeMem8(addr, rol4(c.readMem8(addr)))
}

func (c *CPU) opROR4() {
	addr := Physical(c.regs.ES, c.regs.DI)
	c.writeMem8(addr, ror4(c.readMem8(addr)))
}

// stringOpLen reads the CL-encoded byte-string length used by
// ADD4S/SUB4S/CMP4S; a CL of 0 means 32 bytes.
func (c *CPU) stringOpLen() int {
	n := int(c.regs.Get8(CL))
	if n == 0 {
		n = 32
	}
	return n
}

// opADD4S/opSUB4S/opCMP4S operate on packed-BCD digit strings addressed by
// ES:DI (destination) and DS:SI (source, segment-overridable), byte length
// from CL, per the V20/V30 manuals.
func (c *CPU) opADD4S() {
	n := c.stringOpLen()
	srcSeg := c.srcSeg()
	carry := uint8(0)
	allZero := true
	for i := 0; i < n; i++ {
		da := Physical(c.regs.ES, c.regs.DI+uint16(i))
		sa := Physical(c.regs.GetSeg(srcSeg), c.regs.SI+uint16(i))
		dst := c.readMem8(da)
		src := c.readMem8(sa)
		res, nextCarry := bcdByteAdd(dst, src, carry)
		carry = nextCarry
		if res != 0 {
			allZero = false
		}
		c.writeMem8(da, res)
	}
	c.regs.Flags = setFlag(c.regs.Flags, FlagCF, carry != 0)
	c.regs.Flags = setFlag(c.regs.Flags, FlagZF, allZero)
	c.regs.Flags = normalizeFlags(c.regs.Flags)
}

func (c *CPU) opSUB4S() {
	n := c.stringOpLen()
	srcSeg := c.srcSeg()
	borrow := uint8(0)
	allZero := true
	for i := 0; i < n; i++ {
		da := Physical(c.regs.ES, c.regs.DI+uint16(i))
		sa := Physical(c.regs.GetSeg(srcSeg), c.regs.SI+uint16(i))
		dst := c.readMem8(da)
		src := c.readMem8(sa)
		res, nextBorrow := bcdByteSub(dst, src, borrow)
		borrow = nextBorrow
		if res != 0 {
			allZero = false
		}
		c.writeMem8(da, res)
	}
	c.regs.Flags = setFlag(c.regs.Flags, FlagCF, borrow != 0)
	c.regs.Flags = setFlag(c.regs.Flags, FlagZF, allZero)
	c.regs.Flags = normalizeFlags(c.regs.Flags)
}

func (c *CPU) opCMP4S() {
	n := c.stringOpLen()
	srcSeg := c.srcSeg()
	borrow := uint8(0)
	allZero := true
	for i := 0; i < n; i++ {
		da := Physical(c.regs.ES, c.regs.DI+uint16(i))
		sa := Physical(c.regs.GetSeg(srcSeg), c.regs.SI+uint16(i))
		dst := c.readMem8(da)
		src := c.readMem8(sa)
		res, nextBorrow := bcdByteSub(dst, src, borrow)
		borrow = nextBorrow
		if res != 0 {
			allZero = false
		}
	}
	c.regs.Flags = setFlag(c.regs.Flags, FlagCF, borrow != 0)
	c.regs.Flags = setFlag(c.regs.Flags, FlagZF, allZero)
	c.regs.Flags = normalizeFlags(c.regs.Flags)
}

// opBINS/opBEXT implement bitfield insert/extract between DX and the word
// addressed by the ModR/M operand, with AL giving the bit offset and AH the
// width (each masked to 4 bits; a width of 0 means 16).
func (c *CPU) opBINS() {
	m := c.readModRM()
	offset := c.regs.Get8(AL) & 15
	width := c.regs.Get8(AH) & 15
	if width == 0 {
		width = 16
	}
	mask := uint16((1<<width)-1) << offset
	dst := c.readRM16(m)
	src := c.regs.DX << offset
	c.writeRM16(m, (dst &^ mask) | (src & mask))
}

func (c *CPU) opBEXT() {
	m := c.readModRM()
	offset := c.regs.Get8(AL) & 15
	width := c.regs.Get8(AH) & 15
	if width == 0 {
		width = 16
	}
	src := c.readRM16(m)
	mask := uint16((1 << width) - 1)
	c.regs.DX = (src >> offset) & mask
}

// ops_data.go - Data movement: MOV forms, PUSH/POP, XCHG, LEA, LES/LDS,
// segment-register loads, and the accumulator/flag shuffles.
//
// (c) 2024-2026 x8088 project contributors - GPLv3 or later

package cpu

func (c *CPU) opMOV_Eb_Gb() {
	m := c.readModRM()
	c.writeRM8(m, c.regs.Get8(Register8(m.reg)))
}

func (c *CPU) opMOV_Ev_Gv() {
	m := c.readModRM()
	c.writeRM16(m, c.regs.Get16(Register16(m.reg)))
}

func (c *CPU) opMOV_Gb_Eb() {
	m := c.readModRM()
	c.regs.Set8(Register8(m.reg), c.readRM8(m))
}

func (c *CPU) opMOV_Gv_Ev() {
	m := c.readModRM()
	c.regs.Set16(Register16(m.reg), c.readRM16(m))
}

func (c *CPU) opMOV_Ew_Sw() {
	m := c.readModRM()
	c.writeRM16(m, c.regs.GetSeg(SegReg(m.reg&3)))
}

// opMOV_Sw_Ew loads a segment register; when the target is CS this is the
// same "POP CS"-adjacent oddity noted in §4.E — loading CS here still only
// updates CS, and the next fetch uses the new CS with the preserved IP.
func (c *CPU) opMOV_Sw_Ew() {
	m := c.readModRM()
	v := c.readRM16(m)
	seg := SegReg(m.reg & 3)
	c.regs.SetSeg(seg, v)
	if seg == CS {
		c.flushAndRefetch()
	}
}

func (c *CPU) opLEA() {
	m := c.readModRM()
	if !m.isMemory {
		return
	}
	addr := c.effectiveAddress(m)
	seg := m.defaultSeg
	if c.segOverride >= 0 {
		seg = SegReg(c.segOverride)
	}
	off := uint16(addr - Physical(c.regs.GetSeg(seg), 0))
	c.regs.Set16(Register16(m.reg), off)
}

func (c *CPU) opLES() { c.loadFarPointer(ES) }
func (c *CPU) opLDS() { c.loadFarPointer(DS) }

func (c *CPU) loadFarPointer(target SegReg) {
	m := c.readModRM()
	addr := c.effectiveAddress(m)
	off := c.readMem16(addr)
	seg := c.readMem16(addr + 2)
	c.regs.Set16(Register16(m.reg), off)
	c.regs.SetSeg(target, seg)
}

func (c *CPU) opMOV_Eb_Ib() {
	m := c.readModRM()
	v := c.fetchByte()
	c.writeRM8(m, v)
}

func (c *CPU) opMOV_Ev_Iv() {
	m := c.readModRM()
	v := c.fetchWord()
	c.writeRM16(m, v)
}

func regMovImm8Fn(r Register8) func(*CPU) {
	return func(c *CPU) { c.regs.Set8(r, c.fetchByte()) }
}

func regMovImm16Fn(r Register16) func(*CPU) {
	return func(c *CPU) { c.regs.Set16(r, c.fetchWord()) }
}

func (c *CPU) opMOV_AL_moffs() {
	off := c.fetchWord()
	c.regs.Set8(AL, c.readMem8(c.moffsAddr(off)))
}

func (c *CPU) opMOV_AX_moffs() {
	off := c.fetchWord()
	c.regs.AX = c.readMem16(c.moffsAddr(off))
}

func (c *CPU) opMOV_moffs_AL() {
	off := c.fetchWord()
	c.writeMem8(c.moffsAddr(off), c.regs.Get8(AL))
}

func (c *CPU) opMOV_moffs_AX() {
	off := c.fetchWord()
	c.writeMem16(c.moffsAddr(off), c.regs.AX)
}

func (c *CPU) moffsAddr(off uint16) uint32 {
	seg := DS
	if c.segOverride >= 0 {
		seg = SegReg(c.segOverride)
	}
	return Physical(c.regs.GetSeg(seg), off)
}

func (c *CPU) opXCHG_Eb_Gb() {
	m := c.readModRM()
	a, b := c.readRM8(m), c.regs.Get8(Register8(m.reg))
	c.writeRM8(m, b)
	c.regs.Set8(Register8(m.reg), a)
}

func (c *CPU) opXCHG_Ev_Gv() {
	m := c.readModRM()
	a, b := c.readRM16(m), c.regs.Get16(Register16(m.reg))
	c.writeRM16(m, b)
	c.regs.Set16(Register16(m.reg), a)
}

func regXchgAXFn(r Register16) func(*CPU) {
	return func(c *CPU) {
		a, b := c.regs.AX, c.regs.Get16(r)
		c.regs.Set16(r, a)
		c.regs.AX = b
	}
}

func (c *CPU) opNOP() {}

func (c *CPU) opCBW() {
	if c.regs.Get8(AL)&0x80 != 0 {
		c.regs.Set8(AH, 0xFF)
	} else {
		c.regs.Set8(AH, 0x00)
	}
}

func (c *CPU) opCWD() {
	if c.regs.AX&0x8000 != 0 {
		c.regs.DX = 0xFFFF
	} else {
		c.regs.DX = 0
	}
}

func (c *CPU) opWAIT() {}

func (c *CPU) opPUSHF() { c.pushWord(c.regs.Flags) }
func (c *CPU) opPOPF()  {
	v := c.popWord()
	// Setting TF via POPF suppresses the trap for exactly the following
	// instruction boundary (§4.E tie-break policy).
	if getFlag(v, FlagTF) && !getFlag(c.regs.Flags, FlagTF) {
		c.intr.suppressTrapOnce = true
	}
	c.regs.Flags = normalizeFlags(v)
}

func (c *CPU) opSAHF() {
	ah := c.regs.Get8(AH)
	c.regs.Flags = normalizeFlags((c.regs.Flags &^ 0xFF) | uint16(ah))
}

func (c *CPU) opLAHF() {
	c.regs.Set8(AH, uint8(c.regs.Flags))
}

func (c *CPU) opXLAT() {
	seg := DS
	if c.segOverride >= 0 {
		seg = SegReg(c.segOverride)
	}
	addr := Physical(c.regs.GetSeg(seg), c.regs.BX+uint16(c.regs.Get8(AL)))
	c.regs.Set8(AL, c.readMem8(addr))
}

func (c *CPU) opPopCS() {
	v := c.popWord()
	c.regs.CS = v
	c.flushAndRefetch()
}

func opPushSeg(seg SegReg) func(*CPU) {
	return func(cc *CPU) { cc.pushWord(cc.regs.GetSeg(seg)) }
}

func opPopSeg(seg SegReg) func(*CPU) {
	return func(cc *CPU) {
		cc.regs.SetSeg(seg, cc.popWord())
		if seg == CS {
			cc.flushAndRefetch()
		}
	}
}

func regPushFn(r Register16) func(*CPU) {
	return func(c *CPU) { c.pushWord(c.regs.Get16(r)) }
}

func regPopFn(r Register16) func(*CPU) {
	return func(c *CPU) { c.regs.Set16(r, c.popWord()) }
}

func (c *CPU) opPOP_Ev() {
	m := c.readModRM()
	v := c.popWord()
	c.writeRM16(m, v)
}

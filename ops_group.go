// ops_group.go - ModR/M reg-field-subdivided "group" opcodes: Grp1 (arith
// with immediate), Grp2 (shift/rotate), Grp3 (unary/mul/div), Grp4/Grp5
// (INC/DEC/CALL/JMP/PUSH through a memory or register operand).
//
// (c) 2024-2026 x8088 project contributors - GPLv3 or later

package cpu

var grp1Ops = [8]aluOp{aluADD, aluOR, aluADC, aluSBB, aluAND, aluSUB, aluXOR, aluCMP}

func (c *CPU) opGrp1_Eb_Ib() {
	m := c.readModRM()
	imm := c.fetchByte()
	a := c.readRM8(m)
	res, wb := c.apply8(grp1Ops[m.reg], a, imm)
	if wb {
		c.writeRM8(m, res)
	}
}

func (c *CPU) opGrp1_Ev_Iv() {
	m := c.readModRM()
	imm := c.fetchWord()
	a := c.readRM16(m)
	res, wb := c.apply16(grp1Ops[m.reg], a, imm)
	if wb {
		c.writeRM16(m, res)
	}
}

func (c *CPU) opGrp1_Ev_Ib() {
	m := c.readModRM()
	imm := uint16(int16(int8(c.fetchByte())))
	a := c.readRM16(m)
	res, wb := c.apply16(grp1Ops[m.reg], a, imm)
	if wb {
		c.writeRM16(m, res)
	}
}

// shiftRotate8/16 apply one Grp2 sub-operation (0=ROL 1=ROR 2=RCL 3=RCR
// 4=SHL 5=SHR 6=SHL(alias) 7=SAR) and update CF/OF; a shift count of zero
// returns the operand unchanged, leaves FLAGS untouched, and clocks no cycle.
func (c *CPU) shiftRotate8(reg byte, v uint8, count uint8) uint8 {
	if count == 0 {
		return v
	}
	cfIn := getFlag(c.regs.Flags, FlagCF)
	var res uint8
	var cf, of bool
	switch reg {
	case 0:
		res, cf, of = c.rol8(v, count)
	case 1:
		res, cf, of = c.ror8(v, count)
	case 2:
		res, cf, of = c.rcl8(v, count, cfIn)
	case 3:
		res, cf, of = c.rcr8(v, count, cfIn)
	case 4, 6:
		res, cf, of = shl8(v, count)
	case 5:
		res, cf, of = shr8(v, count)
	case 7:
		res, cf, of = sar8(v, count)
	}
	f := c.regs.Flags
	f = setFlag(f, FlagCF, cf)
	if count == 1 {
		f = setFlag(f, FlagOF, of)
	}
	if reg >= 4 {
		f = setFlag(f, FlagZF, res == 0)
		f = setFlag(f, FlagSF, res&0x80 != 0)
		f = setFlag(f, FlagPF, parity(res))
	}
	c.regs.Flags = normalizeFlags(f)
	return res
}

func (c *CPU) shiftRotate16(reg byte, v uint16, count uint8) uint16 {
	if count == 0 {
		return v
	}
	cfIn := getFlag(c.regs.Flags, FlagCF)
	var res uint16
	var cf, of bool
	switch reg {
	case 0:
		res, cf, of = c.rol16(v, count)
	case 1:
		res, cf, of = c.ror16(v, count)
	case 2:
		res, cf, of = c.rcl16(v, count, cfIn)
	case 3:
		res, cf, of = c.rcr16(v, count, cfIn)
	case 4, 6:
		res, cf, of = shl16(v, count)
	case 5:
		res, cf, of = shr16(v, count)
	case 7:
		res, cf, of = sar16(v, count)
	}
	f := c.regs.Flags
	f = setFlag(f, FlagCF, cf)
	if count == 1 {
		f = setFlag(f, FlagOF, of)
	}
	if reg >= 4 {
		f = setFlag(f, FlagZF, res == 0)
		f = setFlag(f, FlagSF, res&0x8000 != 0)
		f = setFlag(f, FlagPF, parity(uint8(res)))
	}
	c.regs.Flags = normalizeFlags(f)
	return res
}

func (c *CPU) opGrp2_Eb_1() {
	m := c.readModRM()
	v := c.readRM8(m)
	c.writeRM8(m, c.shiftRotate8(m.reg, v, 1))
}

func (c *CPU) opGrp2_Ev_1() {
	m := c.readModRM()
	v := c.readRM16(m)
	c.writeRM16(m, c.shiftRotate16(m.reg, v, 1))
}

func (c *CPU) opGrp2_Eb_CL() {
	m := c.readModRM()
	count := c.shiftCount(c.regs.Get8(CL))
	v := c.readRM8(m)
	c.writeRM8(m, c.shiftRotate8(m.reg, v, count))
}

func (c *CPU) opGrp2_Ev_CL() {
	m := c.readModRM()
	count := c.shiftCount(c.regs.Get8(CL))
	v := c.readRM16(m)
	c.writeRM16(m, c.shiftRotate16(m.reg, v, count))
}

// opGrp3_Eb/Ev implement TEST(imm)/NOT/NEG/MUL/IMUL/DIV/IDIV, keyed by the
// ModR/M reg field.
func (c *CPU) opGrp3_Eb() {
	m := c.readModRM()
	switch m.reg {
	case 0, 1:
		imm := c.fetchByte()
		c.apply8(aluTEST, c.readRM8(m), imm)
	case 2:
		c.writeRM8(m, ^c.readRM8(m))
	case 3:
		v := c.readRM8(m)
		res, ar := subFlags8(0, v, false)
		c.regs.Flags = flagsFromResult8(ar, c.regs.Flags)
		c.writeRM8(m, res)
	case 4:
		c.mulAL(c.readRM8(m))
	case 5:
		c.imulAL(c.readRM8(m))
	case 6:
		if !c.divAL(c.readRM8(m)) {
			c.raiseDivideException()
		}
	case 7:
		if !c.idivAL(c.readRM8(m)) {
			c.raiseDivideException()
		}
	}
}

func (c *CPU) opGrp3_Ev() {
	m := c.readModRM()
	switch m.reg {
	case 0, 1:
		imm := c.fetchWord()
		c.apply16(aluTEST, c.readRM16(m), imm)
	case 2:
		c.writeRM16(m, ^c.readRM16(m))
	case 3:
		v := c.readRM16(m)
		res, ar := subFlags16(0, v, false)
		c.regs.Flags = flagsFromResult16(ar, c.regs.Flags)
		c.writeRM16(m, res)
	case 4:
		c.mulAX(c.readRM16(m))
	case 5:
		c.imulAX(c.readRM16(m))
	case 6:
		if !c.divAX(c.readRM16(m)) {
			c.raiseDivideException()
		}
	case 7:
		if !c.idivAX(c.readRM16(m)) {
			c.raiseDivideException()
		}
	}
}

func (c *CPU) mulAL(v uint8) {
	res := uint16(c.regs.Get8(AL)) * uint16(v)
	c.regs.AX = res
	cf, of := c.mulFlags8(uint8(res >> 8))
	f := c.regs.Flags
	f = setFlag(f, FlagCF, cf)
	f = setFlag(f, FlagOF, of)
	c.regs.Flags = normalizeFlags(f)
}

func (c *CPU) imulAL(v uint8) {
	res := int16(int8(c.regs.Get8(AL))) * int16(int8(v))
	c.regs.AX = uint16(res)
	top := res >> 8
	extended := top == 0 || top == -1
	f := c.regs.Flags
	f = setFlag(f, FlagCF, !extended)
	f = setFlag(f, FlagOF, !extended)
	c.regs.Flags = normalizeFlags(f)
}

func (c *CPU) mulAX(v uint16) {
	res := uint32(c.regs.AX) * uint32(v)
	c.regs.AX = uint16(res)
	c.regs.DX = uint16(res >> 16)
	cf, of := c.mulFlags16(c.regs.DX)
	f := c.regs.Flags
	f = setFlag(f, FlagCF, cf)
	f = setFlag(f, FlagOF, of)
	c.regs.Flags = normalizeFlags(f)
}

func (c *CPU) imulAX(v uint16) {
	res := int32(int16(c.regs.AX)) * int32(int16(v))
	c.regs.AX = uint16(res)
	c.regs.DX = uint16(res >> 16)
	top := res >> 16
	extended := top == 0 || top == -1
	f := c.regs.Flags
	f = setFlag(f, FlagCF, !extended)
	f = setFlag(f, FlagOF, !extended)
	c.regs.Flags = normalizeFlags(f)
}

func (c *CPU) divAL(v uint8) bool {
	if v == 0 {
		return false
	}
	ax := c.regs.AX
	q := ax / uint16(v)
	if q > 0xFF {
		return false
	}
	r := ax % uint16(v)
	c.regs.Set8(AL, uint8(q))
	c.regs.Set8(AH, uint8(r))
	return true
}

func (c *CPU) idivAL(v uint8) bool {
	if v == 0 {
		return false
	}
	ax := int16(c.regs.AX)
	divisor := int16(int8(v))
	q := ax / divisor
	if q > 127 || q < -128 {
		return false
	}
	r := ax % divisor
	c.regs.Set8(AL, uint8(q))
	c.regs.Set8(AH, uint8(r))
	return true
}

func (c *CPU) divAX(v uint16) bool {
	if v == 0 {
		return false
	}
	dividend := uint32(c.regs.DX)<<16 | uint32(c.regs.AX)
	q := dividend / uint32(v)
	if q > 0xFFFF {
		return false
	}
	r := dividend % uint32(v)
	c.regs.AX = uint16(q)
	c.regs.DX = uint16(r)
	return true
}

func (c *CPU) idivAX(v uint16) bool {
	if v == 0 {
		return false
	}
	dividend := int32(uint32(c.regs.DX)<<16 | uint32(c.regs.AX))
	divisor := int32(int16(v))
	q := dividend / divisor
	if q > 32767 || q < -32768 {
		return false
	}
	r := dividend % divisor
	c.regs.AX = uint16(q)
	c.regs.DX = uint16(r)
	return true
}

func (c *CPU) opGrp4_Eb() {
	m := c.readModRM()
	v := c.readRM8(m)
	switch m.reg {
	case 0:
		res, ar := addFlags8(v, 1, false)
		ar.cf = getFlag(c.regs.Flags, FlagCF)
		c.regs.Flags = flagsFromResult8(ar, c.regs.Flags)
		c.writeRM8(m, res)
	case 1:
		res, ar := subFlags8(v, 1, false)
		ar.cf = getFlag(c.regs.Flags, FlagCF)
		c.regs.Flags = flagsFromResult8(ar, c.regs.Flags)
		c.writeRM8(m, res)
	}
}

func (c *CPU) opGrp5_Ev() {
	m := c.readModRM()
	switch m.reg {
	case 0:
		v := c.readRM16(m)
		res, ar := addFlags16(v, 1, false)
		ar.cf = getFlag(c.regs.Flags, FlagCF)
		c.regs.Flags = flagsFromResult16(ar, c.regs.Flags)
		c.writeRM16(m, res)
	case 1:
		v := c.readRM16(m)
		res, ar := subFlags16(v, 1, false)
		ar.cf = getFlag(c.regs.Flags, FlagCF)
		c.regs.Flags = flagsFromResult16(ar, c.regs.Flags)
		c.writeRM16(m, res)
	case 2: // CALL near indirect
		target := c.readRM16(m)
		ret := c.regs.IP
		c.regs.IP = target
		c.flushAndRefetch()
		c.pushWord(ret)
	case 3: // CALL far indirect
		addr := c.effectiveAddress(m)
		ip := c.readMem16(addr)
		cs := c.readMem16(addr + 2)
		retIP, retCS := c.regs.IP, c.regs.CS
		c.regs.IP, c.regs.CS = ip, cs
		c.flushAndRefetch()
		c.pushWord(retCS)
		c.pushWord(retIP)
	case 4: // JMP near indirect
		c.regs.IP = c.readRM16(m)
		c.flushAndRefetch()
	case 5: // JMP far indirect
		addr := c.effectiveAddress(m)
		c.regs.IP = c.readMem16(addr)
		c.regs.CS = c.readMem16(addr + 2)
		c.flushAndRefetch()
	case 6: // PUSH r/m16
		c.pushWord(c.readRM16(m))
	}
}

// modrm.go - ModR/M byte parsing and 8086 effective-address computation.
//
// (c) 2024-2026 x8088 project contributors - GPLv3 or later

package cpu

// modrmInfo caches a decoded ModR/M byte plus any displacement, so a
// handler reads it once and both the reg and rm operands can be resolved
// without re-fetching.
type modrmInfo struct {
	raw  byte
	mod  byte
	reg  byte
	rm   byte
	disp int16
	isMemory bool
	defaultSeg SegReg
}

// readModRM fetches and decodes the ModR/M byte (and any 8/16-bit
// displacement it implies) and returns it by value; the calling handler
// keeps it for the rest of the instruction.
func (c *CPU) readModRM() modrmInfo {
	raw := c.fetchByte()
	m := modrmInfo{raw: raw, mod: raw >> 6, reg: (raw >> 3) & 7, rm: raw & 7}

	if m.mod == 3 {
		return m
	}
	m.isMemory = true
	m.defaultSeg = DS

	switch m.rm {
	case 0, 1, 7:
		m.defaultSeg = DS // [BX+SI],[BX+DI],[BX]
	case 2, 3:
		m.defaultSeg = SS // [BP+SI],[BP+DI]
	case 6:
		if m.mod == 0 {
			m.defaultSeg = DS // direct address, no BP
		} else {
			m.defaultSeg = SS // [BP+disp]
		}
	}

	switch {
	case m.mod == 0 && m.rm == 6:
		m.disp = int16(c.fetchWord())
	case m.mod == 1:
		m.disp = int16(int8(c.fetchByte()))
	case m.mod == 2:
		m.disp = int16(c.fetchWord())
	}
	return m
}

// effectiveAddress computes the 20-bit physical address for a memory
// ModR/M operand, honoring any segment-override prefix.
func (c *CPU) effectiveAddress(m modrmInfo) uint32 {
	var base uint16
	switch m.rm {
	case 0:
		base = c.regs.BX + c.regs.SI
	case 1:
		base = c.regs.BX + c.regs.DI
	case 2:
		base = c.regs.BP + c.regs.SI
	case 3:
		base = c.regs.BP + c.regs.DI
	case 4:
		base = c.regs.SI
	case 5:
		base = c.regs.DI
	case 6:
		if m.mod == 0 {
			base = 0
		} else {
			base = c.regs.BP
		}
	case 7:
		base = c.regs.BX
	}
	off := base + uint16(m.disp)
	seg := m.defaultSeg
	if c.segOverride >= 0 {
		seg = SegReg(c.segOverride)
	}
	return Physical(c.regs.GetSeg(seg), off)
}

// readRM8/16 and writeRM8/16 resolve a ModR/M rm operand to/from either a
// register or a memory location.
func (c *CPU) readRM8(m modrmInfo) uint8 {
	if m.mod == 3 {
		return c.regs.Get8(Register8(m.rm))
	}
	return c.readMem8(c.effectiveAddress(m))
}

func (c *CPU) writeRM8(m modrmInfo, v uint8) {
	if m.mod == 3 {
		c.regs.Set8(Register8(m.rm), v)
		return
	}
	c.writeMem8(c.effectiveAddress(m), v)
}

func (c *CPU) readRM16(m modrmInfo) uint16 {
	if m.mod == 3 {
		return c.regs.Get16(Register16(m.rm))
	}
	return c.readMem16(c.effectiveAddress(m))
}

func (c *CPU) writeRM16(m modrmInfo, v uint16) {
	if m.mod == 3 {
		c.regs.Set16(Register16(m.rm), v)
		return
	}
	c.writeMem16(c.effectiveAddress(m), v)
}

// ops_string.go - MOVS/CMPS/SCAS/STOS/LODS and their REP-controlled looping,
// per §4.E. Source operand honors a segment override; the destination
// (via ES:DI) never does.
//
// (c) 2024-2026 x8088 project contributors - GPLv3 or later

package cpu

func (c *CPU) srcSeg() SegReg {
	if c.segOverride >= 0 {
		return SegReg(c.segOverride)
	}
	return DS
}

func (c *CPU) stepIndex(reg *uint16, size uint16) {
	if getFlag(c.regs.Flags, FlagDF) {
		*reg -= size
	} else {
		*reg += size
	}
}

// repLoop runs one string-opcode body under the active REP prefix, per
// iteration checking CX (for REP/REPE/REPNE), the ZF-termination condition
// (REPE/REPNE only, for CMPS/SCAS), and pending interrupts. hasZFCheck is
// false for MOVS/STOS/LODS, which REP (without E/NE) repeats unconditionally
// on CX.
func (c *CPU) repLoop(hasZFCheck bool, body func()) {
	if c.repPrefix == RepNone {
		body()
		return
	}
	for {
		if c.regs.CX == 0 {
			break
		}
		body()
		c.regs.CX--
		if hasZFCheck {
			zf := getFlag(c.regs.Flags, FlagZF)
			if c.repPrefix == RepEqual && !zf {
				break
			}
			if c.repPrefix == RepNotEqual && zf {
				break
			}
		}
		if c.regs.CX == 0 {
			break
		}
		if c.peekPendingInterrupt() {
			// Current iteration completed; resume at the REP prefix itself
			// so the remaining iterations run when this instruction is
			// re-entered after the interrupt handler returns.
			c.regs.IP = c.instrStartIP
			c.flushAndRefetch()
			return
		}
	}
}

func (c *CPU) opMOVSB() {
	c.repLoop(false, func() {
		srcAddr := Physical(c.regs.GetSeg(c.srcSeg()), c.regs.SI)
		v := c.readMem8(srcAddr)
		c.writeMem8(Physical(c.regs.ES, c.regs.DI), v)
		c.stepIndex(&c.regs.SI, 1)
		c.stepIndex(&c.regs.DI, 1)
	})
}

func (c *CPU) opMOVSW() {
	c.repLoop(false, func() {
		srcAddr := Physical(c.regs.GetSeg(c.srcSeg()), c.regs.SI)
		v := c.readMem16(srcAddr)
		c.writeMem16(Physical(c.regs.ES, c.regs.DI), v)
		c.stepIndex(&c.regs.SI, 2)
		c.stepIndex(&c.regs.DI, 2)
	})
}

func (c *CPU) opCMPSB() {
	c.repLoop(true, func() {
		a := c.readMem8(Physical(c.regs.GetSeg(c.srcSeg()), c.regs.SI))
		b := c.readMem8(Physical(c.regs.ES, c.regs.DI))
		c.apply8(aluCMP, a, b)
		c.stepIndex(&c.regs.SI, 1)
		c.stepIndex(&c.regs.DI, 1)
	})
}

func (c *CPU) opCMPSW() {
	c.repLoop(true, func() {
		a := c.readMem16(Physical(c.regs.GetSeg(c.srcSeg()), c.regs.SI))
		b := c.readMem16(Physical(c.regs.ES, c.regs.DI))
		c.apply16(aluCMP, a, b)
		c.stepIndex(&c.regs.SI, 2)
		c.stepIndex(&c.regs.DI, 2)
	})
}

func (c *CPU) opSCASB() {
	c.repLoop(true, func() {
		b := c.readMem8(Physical(c.regs.ES, c.regs.DI))
		c.apply8(aluCMP, c.regs.Get8(AL), b)
		c.stepIndex(&c.regs.DI, 1)
	})
}

func (c *CPU) opSCASW() {
	c.repLoop(true, func() {
		w := c.readMem16(Physical(c.regs.ES, c.regs.DI))
		c.apply16(aluCMP, c.regs.AX, w)
		c.stepIndex(&c.regs.DI, 2)
	})
}

func (c *CPU) opSTOSB() {
	c.repLoop(false, func() {
		c.writeMem8(Physical(c.regs.ES, c.regs.DI), c.regs.Get8(AL))
		c.stepIndex(&c.regs.DI, 1)
	})
}

func (c *CPU) opSTOSW() {
	c.repLoop(false, func() {
		c.writeMem16(Physical(c.regs.ES, c.regs.DI), c.regs.AX)
		c.stepIndex(&c.regs.DI, 2)
	})
}

func (c *CPU) opLODSB() {
	c.repLoop(false, func() {
		c.regs.Set8(AL, c.readMem8(Physical(c.regs.GetSeg(c.srcSeg()), c.regs.SI)))
		c.stepIndex(&c.regs.SI, 1)
	})
}

func (c *CPU) opLODSW() {
	c.repLoop(false, func() {
		c.regs.AX = c.readMem16(Physical(c.regs.GetSeg(c.srcSeg()), c.regs.SI))
		c.stepIndex(&c.regs.SI, 2)
	})
}

// ops_dispatch.go - Top-level opcode dispatch. Each opcode is a pure
// function of the CPU aggregate, looked up in a flat 256-entry table rather
// than via virtual dispatch, per the design note in §9.
//
// (c) 2024-2026 x8088 project contributors - GPLv3 or later

package cpu

// execute runs the already-decoded opcode byte (or, on V20/V30 with the
// 0x0F-prefix, extended opcode byte) through its dispatch table entry.
func (c *CPU) execute(op byte) error {
	if c.extended {
		fn := c.extOps[op]
		if fn == nil {
			return &DecodeError{Addr: c.Tell(), Byte: op, Msg: "unimplemented extended opcode"}
		}
		fn(c)
		return nil
	}
	fn := c.baseOps[op]
	if fn == nil {
		return &DecodeError{Addr: c.Tell(), Byte: op, Msg: "unimplemented opcode"}
	}
	fn(c)
	return nil
}

// initBaseOps builds the 256-entry base dispatch table for the 8088/8086
// instruction set (plus the one undocumented-but-real 0x0F = POP CS case
// on non-NEC variants). CALL far (0x9A) and the ESC coprocessor opcodes
// (0xD8-0xDF) have no entry, so execute() returns a DecodeError for them.
func (c *CPU) initBaseOps() {
	c.baseOps[0x00] = opALU_Eb_Gb(aluADD)
	c.baseOps[0x01] = opALU_Ev_Gv(aluADD)
	c.baseOps[0x02] = opALU_Gb_Eb(aluADD)
	c.baseOps[0x03] = opALU_Gv_Ev(aluADD)
	c.baseOps[0x04] = opALU_AL_Ib(aluADD)
	c.baseOps[0x05] = opALU_AX_Iv(aluADD)
	c.baseOps[0x06] = opPushSeg(ES)
	c.baseOps[0x07] = opPopSeg(ES)

	c.baseOps[0x08] = opALU_Eb_Gb(aluOR)
	c.baseOps[0x09] = opALU_Ev_Gv(aluOR)
	c.baseOps[0x0A] = opALU_Gb_Eb(aluOR)
	c.baseOps[0x0B] = opALU_Gv_Ev(aluOR)
	c.baseOps[0x0C] = opALU_AL_Ib(aluOR)
	c.baseOps[0x0D] = opALU_AX_Iv(aluOR)
	c.baseOps[0x0E] = opPushSeg(CS)
	c.baseOps[0x0F] = (*CPU).opPopCS // real hardware quirk, not a prefix on 8088/8086

	c.baseOps[0x10] = opALU_Eb_Gb(aluADC)
	c.baseOps[0x11] = opALU_Ev_Gv(aluADC)
	c.baseOps[0x12] = opALU_Gb_Eb(aluADC)
	c.baseOps[0x13] = opALU_Gv_Ev(aluADC)
	c.baseOps[0x14] = opALU_AL_Ib(aluADC)
	c.baseOps[0x15] = opALU_AX_Iv(aluADC)
	c.baseOps[0x16] = opPushSeg(SS)
	c.baseOps[0x17] = opPopSeg(SS)

	c.baseOps[0x18] = opALU_Eb_Gb(aluSBB)
	c.baseOps[0x19] = opALU_Ev_Gv(aluSBB)
	c.baseOps[0x1A] = opALU_Gb_Eb(aluSBB)
	c.baseOps[0x1B] = opALU_Gv_Ev(aluSBB)
	c.baseOps[0x1C] = opALU_AL_Ib(aluSBB)
	c.baseOps[0x1D] = opALU_AX_Iv(aluSBB)
	c.baseOps[0x1E] = opPushSeg(DS)
	c.baseOps[0x1F] = opPopSeg(DS)

	c.baseOps[0x20] = opALU_Eb_Gb(aluAND)
	c.baseOps[0x21] = opALU_Ev_Gv(aluAND)
	c.baseOps[0x22] = opALU_Gb_Eb(aluAND)
	c.baseOps[0x23] = opALU_Gv_Ev(aluAND)
	c.baseOps[0x24] = opALU_AL_Ib(aluAND)
	c.baseOps[0x25] = opALU_AX_Iv(aluAND)
	c.baseOps[0x27] = (*CPU).opDAA

	c.baseOps[0x28] = opALU_Eb_Gb(aluSUB)
	c.baseOps[0x29] = opALU_Ev_Gv(aluSUB)
	c.baseOps[0x2A] = opALU_Gb_Eb(aluSUB)
	c.baseOps[0x2B] = opALU_Gv_Ev(aluSUB)
	c.baseOps[0x2C] = opALU_AL_Ib(aluSUB)
	c.baseOps[0x2D] = opALU_AX_Iv(aluSUB)
	c.baseOps[0x2F] = (*CPU).opDAS

	c.baseOps[0x30] = opALU_Eb_Gb(aluXOR)
	c.baseOps[0x31] = opALU_Ev_Gv(aluXOR)
	c.baseOps[0x32] = opALU_Gb_Eb(aluXOR)
	c.baseOps[0x33] = opALU_Gv_Ev(aluXOR)
	c.baseOps[0x34] = opALU_AL_Ib(aluXOR)
	c.baseOps[0x35] = opALU_AX_Iv(aluXOR)
	c.baseOps[0x37] = (*CPU).opAAA

	c.baseOps[0x38] = opALU_Eb_Gb(aluCMP)
	c.baseOps[0x39] = opALU_Ev_Gv(aluCMP)
	c.baseOps[0x3A] = opALU_Gb_Eb(aluCMP)
	c.baseOps[0x3B] = opALU_Gv_Ev(aluCMP)
	c.baseOps[0x3C] = opALU_AL_Ib(aluCMP)
	c.baseOps[0x3D] = opALU_AX_Iv(aluCMP)
	c.baseOps[0x3F] = (*CPU).opAAS

	for i := 0; i < 8; i++ {
		r := Register16(i)
		c.baseOps[0x40+i] = regIncFn(r)
		c.baseOps[0x48+i] = regDecFn(r)
		c.baseOps[0x50+i] = regPushFn(r)
		c.baseOps[0x58+i] = regPopFn(r)
	}

	c.baseOps[0x70] = condJumpFn(testO)
	c.baseOps[0x71] = condJumpFn(testNO)
	c.baseOps[0x72] = condJumpFn(testB)
	c.baseOps[0x73] = condJumpFn(testNB)
	c.baseOps[0x74] = condJumpFn(testZ)
	c.baseOps[0x75] = condJumpFn(testNZ)
	c.baseOps[0x76] = condJumpFn(testBE)
	c.baseOps[0x77] = condJumpFn(testNBE)
	c.baseOps[0x78] = condJumpFn(testS)
	c.baseOps[0x79] = condJumpFn(testNS)
	c.baseOps[0x7A] = condJumpFn(testP)
	c.baseOps[0x7B] = condJumpFn(testNP)
	c.baseOps[0x7C] = condJumpFn(testL)
	c.baseOps[0x7D] = condJumpFn(testNL)
	c.baseOps[0x7E] = condJumpFn(testLE)
	c.baseOps[0x7F] = condJumpFn(testNLE)

	c.baseOps[0x80] = (*CPU).opGrp1_Eb_Ib
	c.baseOps[0x81] = (*CPU).opGrp1_Ev_Iv
	c.baseOps[0x82] = (*CPU).opGrp1_Eb_Ib
	c.baseOps[0x83] = (*CPU).opGrp1_Ev_Ib
	c.baseOps[0x84] = (*CPU).opTEST_Eb_Gb
	c.baseOps[0x85] = (*CPU).opTEST_Ev_Gv
	c.baseOps[0x86] = (*CPU).opXCHG_Eb_Gb
	c.baseOps[0x87] = (*CPU).opXCHG_Ev_Gv
	c.baseOps[0x88] = (*CPU).opMOV_Eb_Gb
	c.baseOps[0x89] = (*CPU).opMOV_Ev_Gv
	c.baseOps[0x8A] = (*CPU).opMOV_Gb_Eb
	c.baseOps[0x8B] = (*CPU).opMOV_Gv_Ev
	c.baseOps[0x8C] = (*CPU).opMOV_Ew_Sw
	c.baseOps[0x8D] = (*CPU).opLEA
	c.baseOps[0x8E] = (*CPU).opMOV_Sw_Ew
	c.baseOps[0x8F] = (*CPU).opPOP_Ev

	c.baseOps[0x90] = (*CPU).opNOP
	for i := 1; i < 8; i++ {
		c.baseOps[0x90+i] = regXchgAXFn(Register16(i))
	}
	c.baseOps[0x98] = (*CPU).opCBW
	c.baseOps[0x99] = (*CPU).opCWD
	c.baseOps[0x9B] = (*CPU).opWAIT
	c.baseOps[0x9C] = (*CPU).opPUSHF
	c.baseOps[0x9D] = (*CPU).opPOPF
	c.baseOps[0x9E] = (*CPU).opSAHF
	c.baseOps[0x9F] = (*CPU).opLAHF

	c.baseOps[0xA0] = (*CPU).opMOV_AL_moffs
	c.baseOps[0xA1] = (*CPU).opMOV_AX_moffs
	c.baseOps[0xA2] = (*CPU).opMOV_moffs_AL
	c.baseOps[0xA3] = (*CPU).opMOV_moffs_AX
	c.baseOps[0xA4] = (*CPU).opMOVSB
	c.baseOps[0xA5] = (*CPU).opMOVSW
	c.baseOps[0xA6] = (*CPU).opCMPSB
	c.baseOps[0xA7] = (*CPU).opCMPSW
	c.baseOps[0xA8] = opALU_AL_Ib(aluTEST)
	c.baseOps[0xA9] = opALU_AX_Iv(aluTEST)
	c.baseOps[0xAA] = (*CPU).opSTOSB
	c.baseOps[0xAB] = (*CPU).opSTOSW
	c.baseOps[0xAC] = (*CPU).opLODSB
	c.baseOps[0xAD] = (*CPU).opLODSW
	c.baseOps[0xAE] = (*CPU).opSCASB
	c.baseOps[0xAF] = (*CPU).opSCASW

	for i := 0; i < 8; i++ {
		c.baseOps[0xB0+i] = regMovImm8Fn(Register8(i))
		c.baseOps[0xB8+i] = regMovImm16Fn(Register16(i))
	}

	c.baseOps[0xC2] = (*CPU).opRET_imm16
	c.baseOps[0xC3] = (*CPU).opRET
	c.baseOps[0xC4] = (*CPU).opLES
	c.baseOps[0xC5] = (*CPU).opLDS
	c.baseOps[0xC6] = (*CPU).opMOV_Eb_Ib
	c.baseOps[0xC7] = (*CPU).opMOV_Ev_Iv
	c.baseOps[0xCA] = (*CPU).opRETF_imm16
	c.baseOps[0xCB] = (*CPU).opRETF
	c.baseOps[0xCC] = (*CPU).opINT3
	c.baseOps[0xCD] = (*CPU).opINT
	c.baseOps[0xCE] = (*CPU).opINTO
	c.baseOps[0xCF] = (*CPU).opIRET

	c.baseOps[0xD0] = (*CPU).opGrp2_Eb_1
	c.baseOps[0xD1] = (*CPU).opGrp2_Ev_1
	c.baseOps[0xD2] = (*CPU).opGrp2_Eb_CL
	c.baseOps[0xD3] = (*CPU).opGrp2_Ev_CL
	c.baseOps[0xD4] = (*CPU).opAAM
	c.baseOps[0xD5] = (*CPU).opAAD
	c.baseOps[0xD7] = (*CPU).opXLAT

	c.baseOps[0xE0] = (*CPU).opLOOPNE
	c.baseOps[0xE1] = (*CPU).opLOOPE
	c.baseOps[0xE2] = (*CPU).opLOOP
	c.baseOps[0xE3] = (*CPU).opJCXZ
	c.baseOps[0xE4] = (*CPU).opIN_AL_imm8
	c.baseOps[0xE5] = (*CPU).opIN_AX_imm8
	c.baseOps[0xE6] = (*CPU).opOUT_imm8_AL
	c.baseOps[0xE7] = (*CPU).opOUT_imm8_AX
	c.baseOps[0xE8] = (*CPU).opCALL_rel
	c.baseOps[0xE9] = (*CPU).opJMP_rel
	c.baseOps[0xEA] = (*CPU).opJMP_far
	c.baseOps[0xEB] = (*CPU).opJMP_rel8
	c.baseOps[0xEC] = (*CPU).opIN_AL_DX
	c.baseOps[0xED] = (*CPU).opIN_AX_DX
	c.baseOps[0xEE] = (*CPU).opOUT_DX_AL
	c.baseOps[0xEF] = (*CPU).opOUT_DX_AX

	c.baseOps[0xF4] = (*CPU).opHLT
	c.baseOps[0xF5] = (*CPU).opCMC
	c.baseOps[0xF6] = (*CPU).opGrp3_Eb
	c.baseOps[0xF7] = (*CPU).opGrp3_Ev
	c.baseOps[0xF8] = (*CPU).opCLC
	c.baseOps[0xF9] = (*CPU).opSTC
	c.baseOps[0xFA] = (*CPU).opCLI
	c.baseOps[0xFB] = (*CPU).opSTI
	c.baseOps[0xFC] = (*CPU).opCLD
	c.baseOps[0xFD] = (*CPU).opSTD
	c.baseOps[0xFE] = (*CPU).opGrp4_Eb
	c.baseOps[0xFF] = (*CPU).opGrp5_Ev
}

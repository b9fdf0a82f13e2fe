// serialize.go - Full CPU state (de)serialization for host snapshotting, a
// versioned fixed-layout binary format in the style of a cycle-accurate
// core's save-state.
//
// (c) 2024-2026 x8088 project contributors - GPLv3 or later

package cpu

import (
	"encoding/binary"
	"fmt"
)

// stateVersion is bumped whenever the layout below changes incompatibly.
const stateVersion = 1

// Serialize encodes the architectural and internal scheduler state
// (registers, flags, cycle count, fetch pointer, halted/running flags,
// T-state and bus status, FetchState, DmaState, and queue contents
// including preload). It does not include the BIU's in-flight transfer
// fields (address, size, data, wait-state counters, LOCK), the DMA refresh
// period, or pending NMI/INTR lines.
func (c *CPU) Serialize() []byte {
	buf := make([]byte, 0, 128)
	buf = append(buf, stateVersion)
	buf = appendU16(buf, c.regs.AX, c.regs.BX, c.regs.CX, c.regs.DX)
	buf = appendU16(buf, c.regs.SP, c.regs.BP, c.regs.SI, c.regs.DI)
	buf = appendU16(buf, c.regs.ES, c.regs.CS, c.regs.SS, c.regs.DS)
	buf = appendU16(buf, c.regs.IP, c.regs.Flags)

	buf = appendU64(buf, c.cycles)
	buf = appendU32(buf, c.pc)
	buf = append(buf, boolBit(c.halted), boolBit(c.running), byte(c.tstate), byte(c.status))

	buf = append(buf, byte(c.fetch.kind), byte(int8(c.fetch.age)))
	buf = append(buf, byte(c.dma.state), byte(c.dma.counter), byte(c.dma.opCount), byte(c.dma.waitsLeft))

	buf = append(buf, byte(c.queue.Len()))
	for i := 0; i < c.queue.Len(); i++ {
		buf = append(buf, c.queue.buf[i])
	}
	if c.queue.HasPreload() {
		buf = append(buf, 1, *c.queue.preload)
	} else {
		buf = append(buf, 0, 0)
	}
	return buf
}

// Deserialize restores state written by Serialize. It returns an error if
// the version byte does not match.
func (c *CPU) Deserialize(buf []byte) error {
	if len(buf) < 1 || buf[0] != stateVersion {
		return fmt.Errorf("cpu: serialize version mismatch (got %d, want %d)", buf[0], stateVersion)
	}
	p := 1
	vals := make([]uint16, 14)
	for i := range vals {
		vals[i] = binary.LittleEndian.Uint16(buf[p:])
		p += 2
	}
	c.regs.AX, c.regs.BX, c.regs.CX, c.regs.DX = vals[0], vals[1], vals[2], vals[3]
	c.regs.SP, c.regs.BP, c.regs.SI, c.regs.DI = vals[4], vals[5], vals[6], vals[7]
	c.regs.ES, c.regs.CS, c.regs.SS, c.regs.DS = vals[8], vals[9], vals[10], vals[11]
	c.regs.IP, c.regs.Flags = vals[12], vals[13]

	c.cycles = binary.LittleEndian.Uint64(buf[p:])
	p += 8
	c.pc = binary.LittleEndian.Uint32(buf[p:])
	p += 4
	c.halted = buf[p] != 0
	p++
	c.running = buf[p] != 0
	p++
	c.tstate = TState(buf[p])
	p++
	c.status = BusStatus(buf[p])
	p++

	c.fetch.kind = fetchKind(buf[p])
	p++
	c.fetch.age = int(int8(buf[p]))
	p++

	c.dma.state = dmaKind(buf[p])
	p++
	c.dma.counter = int(buf[p])
	p++
	c.dma.opCount = int(buf[p])
	p++
	c.dma.waitsLeft = int(buf[p])
	p++

	qlen := int(buf[p])
	p++
	c.queue.Flush()
	for i := 0; i < qlen; i++ {
		c.queue.Push(buf[p])
		p++
	}
	hasPre := buf[p]
	p++
	preByte := buf[p]
	p++
	if hasPre != 0 {
		c.queue.SetPreload(preByte)
	}
	return nil
}

func appendU16(buf []byte, vals ...uint16) []byte {
	for _, v := range vals {
		buf = binary.LittleEndian.AppendUint16(buf, v)
	}
	return buf
}

func appendU32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

func appendU64(buf []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(buf, v)
}

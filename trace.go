// trace.go - Trace/validator sink: renders captured per-cycle Signals as
// text or CSV, and a null Validator a host can use when not co-simulating
// a reference CPU, per §4.K/§9.
//
// (c) 2024-2026 x8088 project contributors - GPLv3 or later

package cpu

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// NullValidator discards every hook call; embed or use directly when
// tracing is enabled but no reference co-simulation is wired up.
type NullValidator struct{}

func (NullValidator) CycleState(Signals)             {}
func (NullValidator) InstructionBegin(addr uint32)    {}
func (NullValidator) InstructionEnd(addr uint32)      {}
func (NullValidator) EmuReadByte(addr uint32, v uint8)  {}
func (NullValidator) EmuWriteByte(addr uint32, v uint8) {}

// WriteText renders cycle states as one line per cycle, in the style of a
// logic-analyzer capture: cycle, T-state, bus status, address, data, and
// the asserted-signal letters.
func WriteText(w io.Writer, states []Signals) error {
	for _, s := range states {
		_, err := fmt.Fprintf(w, "%6d %-5s %-4s %05X %04X %s%s%s%s%s%s %s%d\n",
			s.Cycle, s.TState, s.Status, s.Address, s.Data,
			boolSig(s.ALE, "A"), boolSig(s.MRDC, "R"), boolSig(s.MWTC, "W"),
			boolSig(s.INTA, "I"), boolSig(s.LOCK, "L"), boolSig(s.HOLDA, "H"),
			s.QueueOp, s.QueueLen)
		if err != nil {
			return err
		}
	}
	return nil
}

func boolSig(b bool, sym string) string {
	if b {
		return sym
	}
	return "."
}

// WriteCSV renders cycle states as CSV, one row per cycle, for offline
// analysis or comparison against a reference capture.
func WriteCSV(w io.Writer, states []Signals) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	header := []string{"cycle", "tstate", "status", "addr", "data", "ale", "mrdc", "mwtc", "inta", "lock", "holda", "queueop", "queuelen"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range states {
		row := []string{
			strconv.FormatUint(s.Cycle, 10),
			s.TState.String(),
			s.Status.String(),
			strconv.FormatUint(uint64(s.Address), 16),
			strconv.FormatUint(uint64(s.Data), 16),
			strconv.FormatBool(s.ALE),
			strconv.FormatBool(s.MRDC),
			strconv.FormatBool(s.MWTC),
			strconv.FormatBool(s.INTA),
			strconv.FormatBool(s.LOCK),
			strconv.FormatBool(s.HOLDA),
			s.QueueOp.String(),
			strconv.Itoa(s.QueueLen),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

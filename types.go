// types.go - Core enumerations shared by the BIU, EU, scheduler, DMA and
// interrupt subsystems.
//
// (c) 2024-2026 x8088 project contributors - GPLv3 or later

package cpu

// CPUType selects which member of the 8088 family is being emulated. The
// base instruction set is shared by all four; what differs is prefetch
// queue capacity, bus width (byte vs. word fetches), shift-count masking,
// and the NEC-only 0x0F extended opcodes.
type CPUType int

const (
	I8088 CPUType = iota
	I8086
	V20
	V30
)

func (t CPUType) String() string {
	switch t {
	case I8088:
		return "8088"
	case I8086:
		return "8086"
	case V20:
		return "V20"
	case V30:
		return "V30"
	default:
		return "unknown"
	}
}

// IsNEC reports whether this variant implements the NEC-documented extended
// opcode set and 5-bit shift-count masking.
func (t CPUType) IsNEC() bool {
	return t == V20 || t == V30
}

// QueueCapacity returns the prefetch queue's byte capacity for this variant.
func (t CPUType) QueueCapacity() int {
	switch t {
	case I8086, V30:
		return 6
	default:
		return 4
	}
}

// IsWordBus reports whether the BIU performs word-aligned word fetches
// (8086/V30) rather than always fetching a byte at a time (8088/V20).
func (t CPUType) IsWordBus() bool {
	return t == I8086 || t == V30
}

// TState names one phase of a bus cycle.
type TState int

const (
	Tinit TState = iota
	Ti
	T1
	T2
	T3
	Tw
	T4
)

func (s TState) String() string {
	switch s {
	case Tinit:
		return "Tinit"
	case Ti:
		return "Ti"
	case T1:
		return "T1"
	case T2:
		return "T2"
	case T3:
		return "T3"
	case Tw:
		return "Tw"
	case T4:
		return "T4"
	default:
		return "T?"
	}
}

// BusStatus names the operation a bus cycle performs.
type BusStatus int

const (
	Passive BusStatus = iota
	CodeFetch
	MemRead
	MemWrite
	IoRead
	IoWrite
	InterruptAck
	Halt
)

func (s BusStatus) String() string {
	switch s {
	case Passive:
		return "PASV"
	case CodeFetch:
		return "CODE"
	case MemRead:
		return "MEMR"
	case MemWrite:
		return "MEMW"
	case IoRead:
		return "IOR"
	case IoWrite:
		return "IOW"
	case InterruptAck:
		return "INTA"
	case Halt:
		return "HALT"
	default:
		return "?"
	}
}

// TransferSize is the width of a single bus transfer.
type TransferSize int

const (
	SizeByte TransferSize = 1
	SizeWord TransferSize = 2
)

// OperandSize is the width an instruction's w-bit selects.
type OperandSize int

const (
	Operand8 OperandSize = iota
	Operand16
)

// QueueOp classifies prefetch-queue activity on a given cycle, for tracing.
// cycle() records only QueueFirst, on a cycle where a code fetch completes
// and pushes into the queue; decoder reads from the queue are not recorded,
// and QueueSubsequent and QueueFlush are never emitted.
type QueueOp int

const (
	QueueIdle QueueOp = iota
	QueueFirst
	QueueSubsequent
	QueueFlush
)

func (q QueueOp) String() string {
	switch q {
	case QueueFirst:
		return "F"
	case QueueSubsequent:
		return "S"
	case QueueFlush:
		return "E"
	default:
		return "-"
	}
}

// RepKind names the repeat prefix, if any, governing a string instruction.
type RepKind int

const (
	RepNone RepKind = iota
	RepEqual
	RepNotEqual
)

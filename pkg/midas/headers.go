package midas

/* ---------- Event ID (type code) ---------- */
type EventIDType uint16

const (
	HEAD_EVENT  EventIDType = 1
	HEAD_SCALER EventIDType = 2
	TAIL_EVENT  EventIDType = 3
	TAIL_SCALER EventIDType = 4
	BOR         EventIDType = 0x8000
	EOR         EventIDType = 0x8001
)

func (e EventIDType) String() string {
	switch e {
	case HEAD_EVENT:
		return "head event"
	case HEAD_SCALER:
		return "head scaler"
	case TAIL_EVENT:
		return "tail event"
	case TAIL_SCALER:
		return "tail scaler"
	case BOR:
		return "begin of run"
	case EOR:
		return "end of run"
	default:
		return "unknown"
	}
}

/* ---------- The event header structure ---------- */
// Timestamp units are implementation defined; the unpacker treats them as
// microseconds.
type EventHeaderStruct struct {
	EventID      EventIDType
	TriggerMask  uint16
	SerialNumber uint32
	Timestamp    uint64
	DataSize     uint32
}

/* ---------- Bank ---------- */
type BankTypeType uint32

const (
	TID_BYTE  BankTypeType = 1
	TID_WORD  BankTypeType = 4
	TID_DWORD BankTypeType = 6
	TID_QWORD BankTypeType = 17
)

// WordSize returns the size in bytes of one element of the bank data.
func (t BankTypeType) WordSize() int {
	switch t {
	case TID_WORD:
		return 2
	case TID_DWORD:
		return 4
	case TID_QWORD:
		return 8
	default:
		return 1
	}
}

type BankHeaderStruct struct {
	Name     [4]byte
	BankType BankTypeType
	Size     uint32
}

// Bank data is padded up to a multiple of BANK_ALIGN bytes.
const BANK_ALIGN = 8

func alignBank(size int) int {
	return (size + BANK_ALIGN - 1) &^ (BANK_ALIGN - 1)
}

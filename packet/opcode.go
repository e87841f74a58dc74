package packet

import "fmt"

// Opcode is the 2-bit packet opcode.
type Opcode uint32

const (
	NOOP  Opcode = 0
	READ  Opcode = 1
	WRITE Opcode = 2
	RSVD  Opcode = 3
)

func (o Opcode) String() string {
	switch o {
	case NOOP:
		return "NOOP"
	case READ:
		return "READ"
	case WRITE:
		return "WRITE"
	default:
		return fmt.Sprintf("RSVD(%d)", uint32(o))
	}
}

// Command is a CMD-register command code written via a TYPE1 WRITE.
type Command uint32

// DESYNC ends a configuration section (§4.2 Section boundary).
const DESYNC Command = 13

// Type is the packet header type.
type Type uint8

const (
	// Padding is not a real header type; it marks a word that decoded to
	// neither TYPE1 nor TYPE2 (dummy, zero-fill, or residue) and was
	// skipped without emitting a Packet.
	Padding Type = iota
	Type1
	Type2
)

func (t Type) String() string {
	switch t {
	case Type1:
		return "TYPE1"
	case Type2:
		return "TYPE2"
	default:
		return "PADDING"
	}
}

/*
NAME
  far.go

DESCRIPTION
  far.go defines the Frame Address Register value type: a packed address
  identifying exactly one configuration frame, and its projections to
  integer, hex and binary form.
*/

// Package far implements the Frame Address Register value type and its
// device-driven auto-increment (§3 FAR, §4.4).
package far

import (
	"fmt"
	"strconv"

	"github.com/xlnxtools/usbit/arch"
)

// BlockType is the FAR block-type sub-field.
type BlockType uint32

const (
	CLBIOCLK    BlockType = 0
	BRAMContent BlockType = 1
	Rsvd2       BlockType = 2
	Rsvd3       BlockType = 3
	Rsvd4       BlockType = 4
	Rsvd5       BlockType = 5
	Rsvd6       BlockType = 6
	Rsvd7       BlockType = 7
)

func (b BlockType) String() string {
	switch b {
	case CLBIOCLK:
		return "CLB_IO_CLK"
	case BRAMContent:
		return "BRAM_CONTENT"
	default:
		return fmt.Sprintf("RSVD_%d", uint32(b))
	}
}

// FAR is an immutable Frame Address Register value. Equality is structural,
// including Reserved (§9 Open Questions: FAR equality decision) — a plain
// comparable struct gives this via Go's built-in ==, so no custom Equal is
// needed as long as Arch is a shared *arch.Spec singleton (see arch.For).
type FAR struct {
	Arch *arch.Spec

	Reserved  uint32
	BlockType BlockType
	Row       uint32
	Col       uint32
	Minor     uint32
}

// FromInt decodes a FAR from its packed 32-bit integer representation,
// extracting the four sub-fields using a's bit indices.
func FromInt(a *arch.Spec, v uint32) FAR {
	return FAR{
		Arch:      a,
		Reserved:  (v & a.Reserved.Mask()) >> a.Reserved.Shift,
		BlockType: BlockType((v & a.BlockType.Mask()) >> a.BlockType.Shift),
		Row:       (v & a.Row.Mask()) >> a.Row.Shift,
		Col:       (v & a.Col.Mask()) >> a.Col.Shift,
		Minor:     (v & a.Minor.Mask()) >> a.Minor.Shift,
	}
}

// ToInt reassembles the packed 32-bit integer representation of f.
func (f FAR) ToInt() uint32 {
	return (f.Reserved << f.Arch.Reserved.Shift & f.Arch.Reserved.Mask()) |
		(uint32(f.BlockType) << f.Arch.BlockType.Shift & f.Arch.BlockType.Mask()) |
		(f.Row << f.Arch.Row.Shift & f.Arch.Row.Mask()) |
		(f.Col << f.Arch.Col.Shift & f.Arch.Col.Mask()) |
		(f.Minor << f.Arch.Minor.Shift & f.Arch.Minor.Mask())
}

// ToHex returns f's packed integer representation as a "0x"-prefixed,
// zero-padded hex string.
func (f FAR) ToHex() string {
	return fmt.Sprintf("0x%08x", f.ToInt())
}

// ToBin returns f's packed integer representation as a 32-character binary
// string.
func (f FAR) ToBin() string {
	return fmt.Sprintf("%032s", strconv.FormatUint(uint64(f.ToInt()), 2))
}

func (f FAR) String() string {
	return fmt.Sprintf("FAR{%s block_type=%s row=%d col=%d minor=%d reserved=%d}",
		f.Arch.Name, f.BlockType, f.Row, f.Col, f.Minor, f.Reserved)
}

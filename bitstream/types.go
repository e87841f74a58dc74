package bitstream

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/xlnxtools/usbit/arch"
	"github.com/xlnxtools/usbit/far"
)

// ErrOutOfRange is returned by ConfigFrame.Bit when the requested offset is
// outside the frame.
var ErrOutOfRange = errors.New("bitstream: frame bit offset out of range")

// ConfigFrame is a single configuration frame: an exact-length vector of
// 32-bit words written to one FAR (§3 ConfigFrame).
type ConfigFrame struct {
	Arch       *arch.Spec
	ByteOffset int
	Words      []uint32
	FAR        far.FAR
}

// Bit returns the single bit at offsetInFrame, numbered from 0 at the LSB of
// the first word up to 32*len(Words)-1 at the MSB of the last word (§9
// Truth-table and bit-offset endianness note: frame-offset numbering is not
// reversed).
func (c *ConfigFrame) Bit(offsetInFrame int) (uint32, error) {
	if offsetInFrame < 0 || offsetInFrame >= 32*len(c.Words) {
		return 0, errors.Wrapf(ErrOutOfRange, "offset %d (frame has %d words)", offsetInFrame, len(c.Words))
	}
	word := c.Words[offsetInFrame/32]
	return (word >> uint(offsetInFrame%32)) & 1, nil
}

// IsAllZero reports whether every word in the frame is zero.
func (c *ConfigFrame) IsAllZero() bool {
	for _, w := range c.Words {
		if w != 0 {
			return false
		}
	}
	return true
}

func (c *ConfigFrame) String() string {
	return fmt.Sprintf("ConfigFrame{offset=%d far=%s words=%d}", c.ByteOffset, c.FAR, len(c.Words))
}

// RawWrite is a single contiguous FDRI write: the byte offset of its
// payload and the payload reinterpreted as 32-bit words (§3
// RawConfigurationArrays).
type RawWrite struct {
	ByteOffset int
	Words      []uint32
}

// RawConfigurationArrays maps each IDCODE to a map from the FAR value
// written to the FAR register at the time of the write, to an ordered list
// of FDRI writes made while that FAR was current.
type RawConfigurationArrays map[uint32]map[far.FAR][]RawWrite

// IndividualConfigurationArrays maps each IDCODE to a map from individual,
// auto-incremented FAR to the ordered ConfigFrames written to it.
type IndividualConfigurationArrays map[uint32]map[far.FAR][]*ConfigFrame

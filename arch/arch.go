/*
NAME
  arch.go

DESCRIPTION
  arch.go defines the architectural identity of an UltraScale / UltraScale+
  device: the bit layout of the Frame Address Register, the frame size, and
  the constant resource counts that depend only on the architecture family.
*/

// Package arch selects and describes the FAR bit layout and frame geometry
// for the UltraScale and UltraScale+ architecture families.
package arch

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Name identifies an architecture family.
type Name int

const (
	// UltraScale is the original UltraScale family (e.g. Kintex/Virtex UltraScale).
	UltraScale Name = iota
	// UltraScalePlus is the UltraScale+ family.
	UltraScalePlus
)

func (n Name) String() string {
	switch n {
	case UltraScale:
		return "ULTRASCALE"
	case UltraScalePlus:
		return "ULTRASCALE_PLUS"
	default:
		return fmt.Sprintf("Name(%d)", int(n))
	}
}

// ErrUnsupportedArchitecture is returned when an FPGA part does not map to a
// known architecture family.
var ErrUnsupportedArchitecture = errors.New("arch: unsupported architecture")

// Field describes the bit width and low-order bit index of one FAR sub-field.
type Field struct {
	Width uint
	Shift uint
}

// Mask returns the bitmask for the field, already shifted into place.
func (f Field) Mask() uint32 {
	return ((uint32(1) << f.Width) - 1) << f.Shift
}

// Spec is the immutable, process-lifetime description of one architecture
// family: FAR field layout, frame size, and constant per-column resource
// counts. Spec values never change after construction and may be shared
// freely across bitstreams of compatible part.
type Spec struct {
	Name Name

	Reserved  Field
	BlockType Field
	Row       Field
	Col       Field
	Minor     Field

	// FrameSizeWords is the number of 32-bit words in a single configuration
	// frame for this architecture.
	FrameSizeWords int

	// Architecture-independent resource counts per column.
	CLBsPerColumn   int
	LUTsPerCLB      int
	FFsPerCLB       int
	DSPsPerColumn   int
	BRAM36PerColumn int
	BRAM18PerColumn int
}

// commonCounts holds the resource counts that are identical across both
// architecture families (§4.1).
var commonCounts = Spec{
	CLBsPerColumn:   60,
	LUTsPerCLB:      8,
	FFsPerCLB:       16,
	DSPsPerColumn:   24,
	BRAM36PerColumn: 12,
	BRAM18PerColumn: 24,
}

// ultraScale is the UltraScale FAR layout:
// [reserved 31:26][block_type 25:23][row 22:17][col 16:7][minor 6:0].
var ultraScale = Spec{
	Name:           UltraScale,
	Reserved:       Field{Width: 6, Shift: 26},
	BlockType:      Field{Width: 3, Shift: 23},
	Row:            Field{Width: 6, Shift: 17},
	Col:            Field{Width: 10, Shift: 7},
	Minor:          Field{Width: 7, Shift: 0},
	FrameSizeWords: 123,

	CLBsPerColumn:   commonCounts.CLBsPerColumn,
	LUTsPerCLB:      commonCounts.LUTsPerCLB,
	FFsPerCLB:       commonCounts.FFsPerCLB,
	DSPsPerColumn:   commonCounts.DSPsPerColumn,
	BRAM36PerColumn: commonCounts.BRAM36PerColumn,
	BRAM18PerColumn: commonCounts.BRAM18PerColumn,
}

// ultraScalePlus is the UltraScale+ FAR layout:
// [reserved 31:27][block_type 26:24][row 23:18][col 17:8][minor 7:0].
var ultraScalePlus = Spec{
	Name:           UltraScalePlus,
	Reserved:       Field{Width: 5, Shift: 27},
	BlockType:      Field{Width: 3, Shift: 24},
	Row:            Field{Width: 6, Shift: 18},
	Col:            Field{Width: 10, Shift: 8},
	Minor:          Field{Width: 8, Shift: 0},
	FrameSizeWords: 93,

	CLBsPerColumn:   commonCounts.CLBsPerColumn,
	LUTsPerCLB:      commonCounts.LUTsPerCLB,
	FFsPerCLB:       commonCounts.FFsPerCLB,
	DSPsPerColumn:   commonCounts.DSPsPerColumn,
	BRAM36PerColumn: commonCounts.BRAM36PerColumn,
	BRAM18PerColumn: commonCounts.BRAM18PerColumn,
}

// For returns the Spec for the named architecture.
func For(n Name) *Spec {
	switch n {
	case UltraScale:
		return &ultraScale
	case UltraScalePlus:
		return &ultraScalePlus
	default:
		panic(fmt.Sprintf("arch: unknown architecture name %d", int(n)))
	}
}

// partPrefixes maps FPGA part-number prefixes to an architecture family.
// This is a deliberately small built-in table seeded from the part families
// named in the example fixtures; table generation proper is out of scope
// (§1).
var partPrefixes = []struct {
	prefix string
	name   Name
}{
	{"xcku", UltraScale},
	{"xcvu", UltraScalePlus},
	{"xczu", UltraScalePlus},
	{"xcau", UltraScalePlus},
}

// SpecForPart selects an architecture Spec from an FPGA part identifier,
// e.g. "xcku025-ffva1156-1-c". Returns ErrUnsupportedArchitecture if the
// part does not match any known family.
func SpecForPart(part string) (*Spec, error) {
	lower := strings.ToLower(part)
	for _, p := range partPrefixes {
		if strings.HasPrefix(lower, p.prefix) {
			return For(p.name), nil
		}
	}
	return nil, errors.Wrapf(ErrUnsupportedArchitecture, "part %q", part)
}

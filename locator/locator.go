/*
NAME
  locator.go

DESCRIPTION
  locator.go resolves SLICE_X<n>Y<n>/bel and RAMB18_X<n>Y<n> resource names
  into (SLR, FAR, frame-bit-offset) tuples, using a device table and an
  architecture table as the sole sources of truth for geometry (§4.5 Bit
  Locator).
*/

// Package locator implements the bit locator: resource-name parsing and the
// uniform SLR / row-major / column-major resolution algorithm (§4.5).
package locator

import (
	"io"
	"regexp"
	"strconv"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/xlnxtools/usbit/arch"
	"github.com/xlnxtools/usbit/archtable"
	"github.com/xlnxtools/usbit/device"
	"github.com/xlnxtools/usbit/far"
)

// defaultLogger is used when no logger is injected via WithLogger; it
// discards all output (§AMBIENT STACK logging).
func defaultLogger() logging.Logger {
	return logging.New(logging.Error, io.Discard, true)
}

// Option configures a Locator.
type Option func(*Locator)

// WithLogger injects a logging.Logger used for diagnostic messages while
// resolving resource names. Defaults to a suppressed logger if not
// supplied.
func WithLogger(l logging.Logger) Option {
	return func(loc *Locator) { loc.log = l }
}

// Errors returned by the locator (§7).
var (
	ErrResourceNotFound    = errors.New("locator: resource not found")
	ErrUnsupportedResource = errors.New("locator: unsupported resource")
	ErrSlrNotFound         = errors.New("locator: slr not found")
)

const (
	// entitiesPerColumnSlice is the number of CLB/LUT/FF sites stacked
	// vertically per column (60, §4.1).
	entitiesPerColumnSlice = 60
	// entitiesPerColumnBRAM18 is the number of 18-Kib BRAMs stacked
	// vertically per column (24, §4.1).
	entitiesPerColumnBRAM18 = 24

	// NumLutBits is the fan-out of a LUT's initialization vector.
	NumLutBits = 64
	// NumBramMemBits is the fan-out of an 18-Kib BRAM's memory content.
	NumBramMemBits = 16384
	// NumBramParityBits is the fan-out of an 18-Kib BRAM's parity content.
	NumBramParityBits = 2048

	// bramTileType is the constant tile-type label used for 18-Kib BRAM
	// columns in the architecture table (§4.5 step 5).
	bramTileType = "BRAM"
	// bramBel is the architecture table's BEL name for an 18-Kib BRAM
	// primitive.
	bramBel = "RAMB18E2"
)

var (
	sliceRe = regexp.MustCompile(`^SLICE_X(\d+)Y(\d+)/([ABCDEFGH])(6LUT|FF2?)$`)
	bramRe  = regexp.MustCompile(`^RAMB(\d+)_X(\d+)Y(\d+)$`)
)

// Locator resolves resource names against a device table, an architecture
// table, and an architecture spec. All three are process-lifetime read-only
// values (§5 Concurrency model).
type Locator struct {
	dev  *device.Table
	at   archtable.Table
	arch *arch.Spec
	log  logging.Logger
}

// New builds a Locator from a device table, architecture table, and
// architecture spec.
func New(dev *device.Table, at archtable.Table, a *arch.Spec, opts ...Option) *Locator {
	loc := &Locator{dev: dev, at: at, arch: a, log: defaultLogger()}
	for _, o := range opts {
		o(loc)
	}
	return loc
}

// RegResult is the result of locating a flip-flop.
type RegResult struct {
	SLR         string
	FAR         far.FAR
	FrameOffset int
}

// LutResult is the result of locating a LUT: 64 (FAR, frame-offset) pairs in
// truth-table bit order (index 0 is the truth-table entry for all-zero
// inputs).
type LutResult struct {
	SLR          string
	FARs         [NumLutBits]far.FAR
	FrameOffsets [NumLutBits]int
}

// BramResult is the result of locating an 18-Kib BRAM: memory content and
// parity fan-out, each ordered low-address-first.
type BramResult struct {
	SLR           string
	MemFARs       [NumBramMemBits]far.FAR
	MemOffsets    [NumBramMemBits]int
	ParityFARs    [NumBramParityBits]far.FAR
	ParityOffsets [NumBramParityBits]int
}

// ffBelName normalizes the locator/checker's <letter>FF / <letter>FF2
// convention to the logic-location collaborator's <letter>Q / <letter>Q2
// convention used as the architecture table's RegLoc BEL key (§4.5
// Register-name normalization).
func ffBelName(letter, suffix string) string {
	if suffix == "FF2" {
		return letter + "Q2"
	}
	return letter + "Q"
}

// sliceCoords is a parsed SLICE_X*Y*/bel resource name.
type sliceCoords struct {
	x, y   int
	letter string
	suffix string // "FF", "FF2", or "6LUT"
}

func parseSliceName(name string) (sliceCoords, error) {
	m := sliceRe.FindStringSubmatch(name)
	if m == nil {
		return sliceCoords{}, errors.Wrapf(ErrResourceNotFound, "%q does not match SLICE resource pattern", name)
	}
	x, _ := strconv.Atoi(m[1])
	y, _ := strconv.Atoi(m[2])
	return sliceCoords{x: x, y: y, letter: m[3], suffix: m[4]}, nil
}

type bramCoords struct {
	size int
	x, y int
}

func parseBramName(name string) (bramCoords, error) {
	m := bramRe.FindStringSubmatch(name)
	if m == nil {
		return bramCoords{}, errors.Wrapf(ErrResourceNotFound, "%q does not match RAMB resource pattern", name)
	}
	size, _ := strconv.Atoi(m[1])
	x, _ := strconv.Atoi(m[2])
	y, _ := strconv.Atoi(m[3])
	return bramCoords{size: size, x: x, y: y}, nil
}

// slrResolution is the outcome of resolving an absolute Y coordinate to an
// SLR and its relative row major (§4.5 steps 3-4).
type slrResolution struct {
	slrName          string
	slr              device.SLR
	relativeRowMajor int
}

// resolveSlr finds the SLR whose visible row-major range contains y, using
// N entities per column. Visible range is [MinClockRegionRowIdx*N,
// (MaxClockRegionRowIdx+1)*N-1]; the relative row major reported (used in
// the FAR) is offset against MinClockRegionRowIdx, the same base used to
// compute the absolute row major from y in the first place.
func (l *Locator) resolveSlr(y, n int) (slrResolution, error) {
	for name, slr := range l.dev.SLRs {
		lo := slr.MinClockRegionRowIdx * n
		hi := (slr.MaxClockRegionRowIdx+1)*n - 1
		if y < lo || y > hi {
			continue
		}
		absoluteRowMajor := y / n
		l.log.Debug("resolved slr", "y", y, "slr", name, "row_major", absoluteRowMajor-slr.MinClockRegionRowIdx)
		return slrResolution{
			slrName:          name,
			slr:              slr,
			relativeRowMajor: absoluteRowMajor - slr.MinClockRegionRowIdx,
		}, nil
	}
	l.log.Warning("slr not found", "y", y)
	return slrResolution{}, errors.Wrapf(ErrSlrNotFound, "y=%d", y)
}

// LocateReg locates a flip-flop resource such as "SLICE_X53Y0/AFF" or
// "SLICE_X53Y0/AFF2".
func (l *Locator) LocateReg(name string) (RegResult, error) {
	c, err := parseSliceName(name)
	if err != nil {
		return RegResult{}, err
	}
	if c.suffix != "FF" && c.suffix != "FF2" {
		return RegResult{}, errors.Wrapf(ErrResourceNotFound, "%q is not a register resource", name)
	}

	res, err := l.resolveSlr(c.y, entitiesPerColumnSlice)
	if err != nil {
		return RegResult{}, err
	}
	rm, ok := res.slr.RowMajors[res.relativeRowMajor]
	if !ok {
		return RegResult{}, errors.Wrapf(ErrResourceNotFound, "slr %q has no rowMajor %d", res.slrName, res.relativeRowMajor)
	}
	if c.x >= len(rm.ClbColMajors) {
		return RegResult{}, errors.Wrapf(ErrResourceNotFound, "column %d out of range in slr %q rowMajor %d", c.x, res.slrName, res.relativeRowMajor)
	}
	colMajor := rm.ClbColMajors[c.x]
	tileType := rm.ClbTileTypes[c.x]

	yOfst := c.y % entitiesPerColumnSlice
	bel := ffBelName(c.letter, c.suffix)
	minor, frameOfst, err := l.at.RegLoc(tileType, yOfst, bel)
	if err != nil {
		return RegResult{}, errors.Wrapf(err, "locating %q", name)
	}

	f := far.FAR{
		Arch:      l.arch,
		BlockType: far.CLBIOCLK,
		Row:       uint32(res.relativeRowMajor),
		Col:       uint32(colMajor),
		Minor:     uint32(minor),
	}
	return RegResult{SLR: res.slrName, FAR: f, FrameOffset: frameOfst}, nil
}

// LocateLut locates a LUT resource such as "SLICE_X0Y13/A6LUT".
func (l *Locator) LocateLut(name string) (LutResult, error) {
	c, err := parseSliceName(name)
	if err != nil {
		return LutResult{}, err
	}
	if c.suffix != "6LUT" {
		return LutResult{}, errors.Wrapf(ErrResourceNotFound, "%q is not a LUT resource", name)
	}

	res, err := l.resolveSlr(c.y, entitiesPerColumnSlice)
	if err != nil {
		return LutResult{}, err
	}
	rm, ok := res.slr.RowMajors[res.relativeRowMajor]
	if !ok {
		return LutResult{}, errors.Wrapf(ErrResourceNotFound, "slr %q has no rowMajor %d", res.slrName, res.relativeRowMajor)
	}
	if c.x >= len(rm.ClbColMajors) {
		return LutResult{}, errors.Wrapf(ErrResourceNotFound, "column %d out of range in slr %q rowMajor %d", c.x, res.slrName, res.relativeRowMajor)
	}
	colMajor := rm.ClbColMajors[c.x]
	tileType := rm.ClbTileTypes[c.x]

	yOfst := c.y % entitiesPerColumnSlice
	bel := c.letter + "6LUT"
	minors, frameOfsts, err := l.at.LutLoc(tileType, yOfst, bel)
	if err != nil {
		return LutResult{}, errors.Wrapf(err, "locating %q", name)
	}
	if len(minors) != NumLutBits {
		return LutResult{}, errors.Wrapf(ErrResourceNotFound, "%q: architecture table returned %d entries, want %d", name, len(minors), NumLutBits)
	}

	var out LutResult
	out.SLR = res.slrName
	for i := 0; i < NumLutBits; i++ {
		out.FARs[i] = far.FAR{
			Arch:      l.arch,
			BlockType: far.CLBIOCLK,
			Row:       uint32(res.relativeRowMajor),
			Col:       uint32(colMajor),
			Minor:     uint32(minors[i]),
		}
		out.FrameOffsets[i] = frameOfsts[i]
	}
	return out, nil
}

// LocateBram locates an 18-Kib BRAM resource such as "RAMB18_X2Y0". Only
// 18-Kib blocks are supported (§4.5).
func (l *Locator) LocateBram(name string) (BramResult, error) {
	c, err := parseBramName(name)
	if err != nil {
		return BramResult{}, err
	}
	if c.size != 18 {
		return BramResult{}, errors.Wrapf(ErrUnsupportedResource, "RAMB%d not supported, only RAMB18", c.size)
	}

	res, err := l.resolveSlr(c.y, entitiesPerColumnBRAM18)
	if err != nil {
		return BramResult{}, err
	}
	rm, ok := res.slr.RowMajors[res.relativeRowMajor]
	if !ok {
		return BramResult{}, errors.Wrapf(ErrResourceNotFound, "slr %q has no rowMajor %d", res.slrName, res.relativeRowMajor)
	}
	if c.x >= len(rm.BramContentColMajors) || c.x >= len(rm.BramContentParityColMajors) {
		return BramResult{}, errors.Wrapf(ErrResourceNotFound, "column %d out of range in slr %q rowMajor %d", c.x, res.slrName, res.relativeRowMajor)
	}
	memColMajor := rm.BramContentColMajors[c.x]
	parityColMajor := rm.BramContentParityColMajors[c.x]

	yOfst := c.y % entitiesPerColumnBRAM18

	memMinors, memOfsts, err := l.at.BramMemLoc(bramTileType, yOfst, bramBel)
	if err != nil {
		return BramResult{}, errors.Wrapf(err, "locating %q memory", name)
	}
	if len(memMinors) != NumBramMemBits {
		return BramResult{}, errors.Wrapf(ErrResourceNotFound, "%q: architecture table returned %d mem entries, want %d", name, len(memMinors), NumBramMemBits)
	}
	parityMinors, parityOfsts, err := l.at.BramMemParityLoc(bramTileType, yOfst, bramBel)
	if err != nil {
		return BramResult{}, errors.Wrapf(err, "locating %q parity", name)
	}
	if len(parityMinors) != NumBramParityBits {
		return BramResult{}, errors.Wrapf(ErrResourceNotFound, "%q: architecture table returned %d parity entries, want %d", name, len(parityMinors), NumBramParityBits)
	}

	var out BramResult
	out.SLR = res.slrName
	for i := 0; i < NumBramMemBits; i++ {
		out.MemFARs[i] = far.FAR{
			Arch: l.arch, BlockType: far.BRAMContent,
			Row: uint32(res.relativeRowMajor), Col: uint32(memColMajor), Minor: uint32(memMinors[i]),
		}
		out.MemOffsets[i] = memOfsts[i]
	}
	for i := 0; i < NumBramParityBits; i++ {
		out.ParityFARs[i] = far.FAR{
			Arch: l.arch, BlockType: far.BRAMContent,
			Row: uint32(res.relativeRowMajor), Col: uint32(parityColMajor), Minor: uint32(parityMinors[i]),
		}
		out.ParityOffsets[i] = parityOfsts[i]
	}
	return out, nil
}

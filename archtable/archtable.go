/*
NAME
  archtable.go

DESCRIPTION
  archtable.go defines the architecture table: for each tile type, the
  per-Y-offset encoding of where a given BEL's configuration bit or bits sit
  within a column (minor index and frame-bit-offset). Like the device table,
  this is produced by an external vendor-tooling pipeline (§1); this package
  loads and exposes its JSON shape (§6).
*/

// Package archtable loads and represents the architecture table used by the
// bit locator to resolve a BEL's (minor, frame-offset) position(s) within a
// column.
package archtable

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a requested tile type, Y-offset, or BEL name
// has no entry in the table.
var ErrNotFound = errors.New("archtable: not found")

// arrayEntry is a BEL's per-bit encoding: minor and frame-offset are each
// arrays of equal length (64 for LUTs, 16384/2048 for BRAM content/parity).
type arrayEntry struct {
	Minor     map[string][]int `json:"minor"`
	FrameOfst map[string][]int `json:"frame_ofst"`
}

// scalarEntry is a BEL's single-bit encoding (registers).
type scalarEntry struct {
	Minor     map[string]int `json:"minor"`
	FrameOfst map[string]int `json:"frame_ofst"`
}

// arrayLoc is a { "Y_ofst": { "<y>": arrayEntry } } location table.
type arrayLoc struct {
	YOfst map[string]arrayEntry `json:"Y_ofst"`
}

// scalarLoc is a { "Y_ofst": { "<y>": scalarEntry } } location table.
type scalarLoc struct {
	YOfst map[string]scalarEntry `json:"Y_ofst"`
}

// TileType holds all the BEL-location tables for one tile type.
type TileType struct {
	LutLoc           *arrayLoc  `json:"LutLoc,omitempty"`
	RegLoc           *scalarLoc `json:"RegLoc,omitempty"`
	BramMemLoc       *arrayLoc  `json:"BramMemLoc,omitempty"`
	BramMemParityLoc *arrayLoc  `json:"BramMemParityLoc,omitempty"`
}

// Table is the architecture table: tile type name -> its BEL locations.
type Table map[string]TileType

// Load decodes an architecture table from r.
func Load(r io.Reader) (Table, error) {
	var t Table
	dec := json.NewDecoder(r)
	if err := dec.Decode(&t); err != nil {
		return nil, errors.Wrap(err, "archtable: decode table")
	}
	if len(t) == 0 {
		return nil, errors.Wrap(ErrNotFound, "architecture table is empty")
	}
	return t, nil
}

func yKey(y int) string { return strconv.Itoa(y) }

// RegLoc returns the (minor, frame_ofst) pair for a register BEL (e.g. "AFF")
// at the given Y-offset within the named tile type.
func (t Table) RegLoc(tileType string, yOfst int, bel string) (minor, frameOfst int, err error) {
	tt, ok := t[tileType]
	if !ok || tt.RegLoc == nil {
		return 0, 0, errors.Wrapf(ErrNotFound, "tile type %q has no RegLoc", tileType)
	}
	y, ok := tt.RegLoc.YOfst[yKey(yOfst)]
	if !ok {
		return 0, 0, errors.Wrapf(ErrNotFound, "tile type %q Y_ofst %d", tileType, yOfst)
	}
	m, ok := y.Minor[bel]
	if !ok {
		return 0, 0, errors.Wrapf(ErrNotFound, "tile type %q Y_ofst %d bel %q", tileType, yOfst, bel)
	}
	f, ok := y.FrameOfst[bel]
	if !ok {
		return 0, 0, errors.Wrapf(ErrNotFound, "tile type %q Y_ofst %d bel %q frame_ofst", tileType, yOfst, bel)
	}
	return m, f, nil
}

// LutLoc returns the 64 (minor, frame_ofst) pairs for a LUT BEL (e.g. "A6LUT")
// at the given Y-offset within the named tile type.
func (t Table) LutLoc(tileType string, yOfst int, bel string) (minors, frameOfsts []int, err error) {
	return t.arrayLoc(tileType, yOfst, bel, func(tt TileType) *arrayLoc { return tt.LutLoc })
}

// BramMemLoc returns the 16384 (minor, frame_ofst) pairs for BRAM memory
// content at the given Y-offset within the named (BRAM) tile type.
func (t Table) BramMemLoc(tileType string, yOfst int, bel string) (minors, frameOfsts []int, err error) {
	return t.arrayLoc(tileType, yOfst, bel, func(tt TileType) *arrayLoc { return tt.BramMemLoc })
}

// BramMemParityLoc returns the 2048 (minor, frame_ofst) pairs for BRAM parity
// content at the given Y-offset within the named (BRAM) tile type.
func (t Table) BramMemParityLoc(tileType string, yOfst int, bel string) (minors, frameOfsts []int, err error) {
	return t.arrayLoc(tileType, yOfst, bel, func(tt TileType) *arrayLoc { return tt.BramMemParityLoc })
}

func (t Table) arrayLoc(tileType string, yOfst int, bel string, sel func(TileType) *arrayLoc) ([]int, []int, error) {
	tt, ok := t[tileType]
	if !ok {
		return nil, nil, errors.Wrapf(ErrNotFound, "tile type %q", tileType)
	}
	loc := sel(tt)
	if loc == nil {
		return nil, nil, errors.Wrapf(ErrNotFound, "tile type %q has no matching location table", tileType)
	}
	y, ok := loc.YOfst[yKey(yOfst)]
	if !ok {
		return nil, nil, errors.Wrapf(ErrNotFound, "tile type %q Y_ofst %d", tileType, yOfst)
	}
	m, ok := y.Minor[bel]
	if !ok {
		return nil, nil, errors.Wrapf(ErrNotFound, "tile type %q Y_ofst %d bel %q", tileType, yOfst, bel)
	}
	f, ok := y.FrameOfst[bel]
	if !ok {
		return nil, nil, errors.Wrapf(ErrNotFound, "tile type %q Y_ofst %d bel %q frame_ofst", tileType, yOfst, bel)
	}
	if len(m) != len(f) {
		return nil, nil, errors.Wrapf(ErrNotFound, "tile type %q bel %q: minor/frame_ofst length mismatch", tileType, bel)
	}
	return m, f, nil
}

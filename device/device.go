/*
NAME
  device.go

DESCRIPTION
  device.go defines the device table: the per-device, per-SLR geometry
  (column-major layouts, minor-frame counts, row ranges) that the FAR
  incrementer and bit locator consume as read-only reference data. The table
  itself is produced by an external, vendor-tooling-driven pipeline (§1); this
  package only loads and exposes its JSON shape (§6).
*/

// Package device loads and represents the device table: the per-device,
// per-SLR geometry used by the FAR incrementer and bit locator.
package device

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformed is returned when a device table fails to decode or fails a
// structural sanity check.
var ErrMalformed = errors.New("device: malformed device table")

// IDCode is a 32-bit SLR identifier, encoded in JSON as a hex string like
// "0x0428e093".
type IDCode uint32

// UnmarshalJSON decodes a hex-encoded IDCode string.
func (c *IDCode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return errors.Wrapf(ErrMalformed, "idcode %q: %v", s, err)
	}
	*c = IDCode(v)
	return nil
}

// MarshalJSON encodes the IDCode as a hex string.
func (c IDCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("0x%08x", uint32(c)))
}

// TileSite is a (tile_type, site_type) pair, as carried verbatim from the
// device table for informational purposes.
type TileSite struct {
	TileType string `json:"tile_type"`
	SiteType string `json:"site_type"`
}

// RowMajor is the per-(SLR, row-major) column geometry: the column-major
// lists for each resource kind, per-column minor-frame counts, and CLB tile
// types, keyed by logical column index (position in the slice).
type RowMajor struct {
	BramContentColMajors       []int    `json:"bram_content_colMajors"`
	BramContentParityColMajors []int    `json:"bram_content_parity_colMajors"`
	BramRegColMajors           []int    `json:"bram_reg_colMajors"`
	ClbColMajors               []int    `json:"clb_colMajors"`
	DspColMajors               []int    `json:"dsp_colMajors"`
	ClbTileTypes               []string `json:"clb_tileTypes"`

	NumMinorsPerBramContentColMajor []int `json:"num_minors_per_bram_content_colMajor"`
	NumMinorsPerStdColMajor         []int `json:"num_minors_per_std_colMajor"`

	MinDspYOfst *int `json:"min_dsp_y_ofst,omitempty"`
	MaxDspYOfst *int `json:"max_dsp_y_ofst,omitempty"`
}

// SLR describes one super-logic region's addressable geometry.
type SLR struct {
	IDCode         IDCode `json:"idcode"`
	SLRIdx         int    `json:"slr_idx"`
	ConfigOrderIdx int    `json:"config_order_idx"`

	MinClockRegionRowIdx int `json:"min_clock_region_row_idx"`
	MaxClockRegionRowIdx int `json:"max_clock_region_row_idx"`
	MinClockRegionColIdx int `json:"min_clock_region_col_idx"`
	MaxClockRegionColIdx int `json:"max_clock_region_col_idx"`

	MinFarRowIdx int `json:"min_far_row_idx"`
	MaxFarRowIdx int `json:"max_far_row_idx"`

	RowMajors map[int]RowMajor `json:"-"`
}

// slrWire is the JSON wire shape of SLR; RowMajors there is keyed by a
// decimal string, which we convert to map[int]RowMajor after decode.
type slrWire struct {
	IDCode         IDCode `json:"idcode"`
	SLRIdx         int    `json:"slr_idx"`
	ConfigOrderIdx int    `json:"config_order_idx"`

	MinClockRegionRowIdx int `json:"min_clock_region_row_idx"`
	MaxClockRegionRowIdx int `json:"max_clock_region_row_idx"`
	MinClockRegionColIdx int `json:"min_clock_region_col_idx"`
	MaxClockRegionColIdx int `json:"max_clock_region_col_idx"`

	MinFarRowIdx int `json:"min_far_row_idx"`
	MaxFarRowIdx int `json:"max_far_row_idx"`

	RowMajors map[string]RowMajor `json:"rowMajors"`
}

// UnmarshalJSON decodes an SLR record, converting the string-keyed rowMajors
// map into an int-keyed one.
func (s *SLR) UnmarshalJSON(b []byte) error {
	var w slrWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	s.IDCode = w.IDCode
	s.SLRIdx = w.SLRIdx
	s.ConfigOrderIdx = w.ConfigOrderIdx
	s.MinClockRegionRowIdx = w.MinClockRegionRowIdx
	s.MaxClockRegionRowIdx = w.MaxClockRegionRowIdx
	s.MinClockRegionColIdx = w.MinClockRegionColIdx
	s.MaxClockRegionColIdx = w.MaxClockRegionColIdx
	s.MinFarRowIdx = w.MinFarRowIdx
	s.MaxFarRowIdx = w.MaxFarRowIdx
	s.RowMajors = make(map[int]RowMajor, len(w.RowMajors))
	for k, v := range w.RowMajors {
		n, err := strconv.Atoi(k)
		if err != nil {
			return errors.Wrapf(ErrMalformed, "rowMajors key %q: %v", k, err)
		}
		s.RowMajors[n] = v
	}
	return nil
}

// Table is a single device's geometry record.
type Table struct {
	Part    string `json:"part"`
	Device  string `json:"device"`
	License string `json:"license"`

	NumBrams  int `json:"num_brams"`
	NumDsps   int `json:"num_dsps"`
	NumRegs   int `json:"num_regs"`
	NumLuts   int `json:"num_luts"`
	NumSlices int `json:"num_slices"`
	NumSlrs   int `json:"num_slrs"`

	TileSites []TileSite     `json:"tile_site_pairs"`
	SLRs      map[string]SLR `json:"slrs"`
}

// Load decodes a device table from r.
func Load(r io.Reader) (*Table, error) {
	var t Table
	dec := json.NewDecoder(r)
	if err := dec.Decode(&t); err != nil {
		return nil, errors.Wrap(err, "device: decode table")
	}
	if len(t.SLRs) == 0 {
		return nil, errors.Wrap(ErrMalformed, "device table has no SLRs")
	}
	return &t, nil
}

// SLRByIDCode returns the SLR (and its name) whose IDCode matches code.
func (t *Table) SLRByIDCode(code uint32) (name string, slr SLR, ok bool) {
	for n, s := range t.SLRs {
		if uint32(s.IDCode) == code {
			return n, s, true
		}
	}
	return "", SLR{}, false
}

/*
NAME
  increment.go

DESCRIPTION
  increment.go implements the FAR auto-increment algorithm (§4.4): given an
  IDCODE and a current FAR, returns the next FAR, carrying minor -> column ->
  row -> block-type in that order using per-row column/minor counts cached
  from the device table.
*/

package far

import (
	"github.com/pkg/errors"

	"github.com/xlnxtools/usbit/arch"
	"github.com/xlnxtools/usbit/device"
)

// ErrUnknownIDCode is returned when the Incrementer has no cached geometry
// for the requested IDCODE.
var ErrUnknownIDCode = errors.New("far: unknown idcode")

// rowGeometry is the per-row minor-frame counts for each block type, cached
// from the device table's rowMajors entries.
type rowGeometry struct {
	stdMinors  []int // NumMinorsPerStdColMajor, len == number of CLB_IO_CLK columns in this row.
	bramMinors []int // NumMinorsPerBramContentColMajor, len == number of BRAM_CONTENT columns in this row.
}

func (g rowGeometry) minorsFor(bt BlockType, col uint32) (int, bool) {
	cols := g.colsFor(bt)
	if int(col) >= len(cols) {
		return 0, false
	}
	return cols[col], true
}

func (g rowGeometry) colsFor(bt BlockType) []int {
	if bt == BRAMContent {
		return g.bramMinors
	}
	return g.stdMinors
}

// Incrementer computes FAR auto-increment for a specific device, caching per
// (IDCODE, row) minor and column counts. Incrementer values are built once
// from a device.Table and are read-only thereafter (§5 Concurrency model).
type Incrementer struct {
	arch *arch.Spec
	rows map[uint32][]rowGeometry // idcode -> rows, indexed by relative row number.
}

// NewIncrementer builds an Incrementer from a device table for architecture a.
func NewIncrementer(a *arch.Spec, table *device.Table) (*Incrementer, error) {
	inc := &Incrementer{arch: a, rows: make(map[uint32][]rowGeometry)}
	for _, slr := range table.SLRs {
		nRows := slr.MaxFarRowIdx - slr.MinFarRowIdx + 1
		if nRows <= 0 {
			return nil, errors.Wrapf(device.ErrMalformed, "slr idcode %#08x: non-positive row count", uint32(slr.IDCode))
		}
		geoms := make([]rowGeometry, nRows)
		for i := 0; i < nRows; i++ {
			rm, ok := slr.RowMajors[i]
			if !ok {
				return nil, errors.Wrapf(device.ErrMalformed, "slr idcode %#08x: missing rowMajors[%d]", uint32(slr.IDCode), i)
			}
			geoms[i] = rowGeometry{
				stdMinors:  rm.NumMinorsPerStdColMajor,
				bramMinors: rm.NumMinorsPerBramContentColMajor,
			}
		}
		inc.rows[uint32(slr.IDCode)] = geoms
	}
	return inc, nil
}

// Increment returns the FAR immediately following f for the SLR identified
// by idcode, per the carry-chain algorithm in §4.4. Reserved bits are
// preserved.
func (inc *Incrementer) Increment(idcode uint32, f FAR) (FAR, error) {
	rows, ok := inc.rows[idcode]
	if !ok {
		return FAR{}, errors.Wrapf(ErrUnknownIDCode, "%#08x", idcode)
	}
	if int(f.Row) >= len(rows) {
		return FAR{}, errors.Wrapf(device.ErrMalformed, "idcode %#08x: row %d out of range (have %d rows)", idcode, f.Row, len(rows))
	}

	row, col, minor, bt := f.Row, f.Col, f.Minor, f.BlockType

	minorsInCol, ok := rows[row].minorsFor(bt, col)
	if !ok {
		return FAR{}, errors.Wrapf(device.ErrMalformed, "idcode %#08x row %d: column %d out of range for block type %s", idcode, row, col, bt)
	}

	minor++
	if minor >= uint32(minorsInCol) {
		minor = 0
		col++
		colsInRow := len(rows[row].colsFor(bt))
		if int(col) >= colsInRow {
			col = 0
			row++
			if int(row) >= len(rows) {
				row = 0
				bt = toggleBlockType(bt)
			}
		}
	}

	return FAR{
		Arch:      f.Arch,
		Reserved:  f.Reserved,
		BlockType: bt,
		Row:       row,
		Col:       col,
		Minor:     minor,
	}, nil
}

func toggleBlockType(bt BlockType) BlockType {
	if bt == CLBIOCLK {
		return BRAMContent
	}
	return CLBIOCLK
}

// IsLastFarOfRow reports whether f is the last FAR of its row for the given
// idcode: its column is the last column of the row, and its minor is the
// last minor of that column.
func (inc *Incrementer) IsLastFarOfRow(idcode uint32, f FAR) (bool, error) {
	rows, ok := inc.rows[idcode]
	if !ok {
		return false, errors.Wrapf(ErrUnknownIDCode, "%#08x", idcode)
	}
	if int(f.Row) >= len(rows) {
		return false, errors.Wrapf(device.ErrMalformed, "idcode %#08x: row %d out of range", idcode, f.Row)
	}
	cols := rows[f.Row].colsFor(f.BlockType)
	if int(f.Col) != len(cols)-1 {
		return false, nil
	}
	return int(f.Minor) == cols[f.Col]-1, nil
}

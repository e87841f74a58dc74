package device

import (
	"strings"
	"testing"
)

func TestIDCodeMarshalUnmarshalRoundTrip(t *testing.T) {
	c := IDCode(0x04A63093)
	b, err := c.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if got, want := string(b), `"0x04a63093"`; got != want {
		t.Errorf("MarshalJSON = %s, want %s", got, want)
	}
	var got IDCode
	if err := got.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if got != c {
		t.Errorf("round trip = %#x, want %#x", uint32(got), uint32(c))
	}
}

func TestIDCodeUnmarshalUppercasePrefix(t *testing.T) {
	var c IDCode
	if err := c.UnmarshalJSON([]byte(`"0X0428E093"`)); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if c != 0x0428E093 {
		t.Errorf("c = %#x", uint32(c))
	}
}

func TestIDCodeUnmarshalMalformed(t *testing.T) {
	var c IDCode
	if err := c.UnmarshalJSON([]byte(`"not-hex"`)); err == nil {
		t.Fatal("expected error for non-hex idcode")
	}
}

// sampleTable carries two SLRs. SLR1 is a non-bottom SLR whose
// min_clock_region_row_idx (2) and min_far_row_idx (5) deliberately differ,
// so a loader or consumer that confuses the two visible/FAR-addressable row
// bases is exercised rather than masked by a single-SLR, all-zero fixture.
const sampleTable = `{
  "part": "xczu3eg-sbva484-1-e",
  "device": "xczu3eg",
  "license": "",
  "num_brams": 1, "num_dsps": 0, "num_regs": 0, "num_luts": 0, "num_slices": 0, "num_slrs": 2,
  "tile_site_pairs": [{"tile_type": "CLEL_L", "site_type": "SLICEL"}],
  "slrs": {
    "SLR0": {
      "idcode": "0x04a63093",
      "slr_idx": 0,
      "config_order_idx": 0,
      "min_clock_region_row_idx": 0,
      "max_clock_region_row_idx": 1,
      "min_clock_region_col_idx": 0,
      "max_clock_region_col_idx": 0,
      "min_far_row_idx": 0,
      "max_far_row_idx": 1,
      "rowMajors": {
        "0": {
          "bram_content_colMajors": [10],
          "bram_content_parity_colMajors": [11],
          "bram_reg_colMajors": [],
          "clb_colMajors": [5, 7],
          "dsp_colMajors": [],
          "clb_tileTypes": ["CLEL_L", "CLEM"],
          "num_minors_per_bram_content_colMajor": [2],
          "num_minors_per_std_colMajor": [2, 2]
        },
        "1": {
          "bram_content_colMajors": [10],
          "bram_content_parity_colMajors": [11],
          "bram_reg_colMajors": [],
          "clb_colMajors": [5, 7],
          "dsp_colMajors": [],
          "clb_tileTypes": ["CLEL_L", "CLEM"],
          "num_minors_per_bram_content_colMajor": [2],
          "num_minors_per_std_colMajor": [2, 2]
        }
      }
    },
    "SLR1": {
      "idcode": "0x04a63043",
      "slr_idx": 1,
      "config_order_idx": 1,
      "min_clock_region_row_idx": 2,
      "max_clock_region_row_idx": 2,
      "min_clock_region_col_idx": 0,
      "max_clock_region_col_idx": 0,
      "min_far_row_idx": 5,
      "max_far_row_idx": 5,
      "rowMajors": {
        "0": {
          "bram_content_colMajors": [20],
          "bram_content_parity_colMajors": [21],
          "bram_reg_colMajors": [],
          "clb_colMajors": [3],
          "dsp_colMajors": [],
          "clb_tileTypes": ["CLEL_L"],
          "num_minors_per_bram_content_colMajor": [2],
          "num_minors_per_std_colMajor": [2]
        }
      }
    }
  }
}`

func TestLoad(t *testing.T) {
	tbl, err := Load(strings.NewReader(sampleTable))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Part != "xczu3eg-sbva484-1-e" {
		t.Errorf("Part = %q", tbl.Part)
	}
	slr, ok := tbl.SLRs["SLR0"]
	if !ok {
		t.Fatal("missing SLR0")
	}
	if uint32(slr.IDCode) != 0x04a63093 {
		t.Errorf("idcode = %#x", uint32(slr.IDCode))
	}
	if len(slr.RowMajors) != 2 {
		t.Fatalf("got %d rowMajors, want 2", len(slr.RowMajors))
	}
	rm0, ok := slr.RowMajors[0]
	if !ok {
		t.Fatal("rowMajors key 0 not converted from string")
	}
	if len(rm0.ClbColMajors) != 2 || rm0.ClbColMajors[0] != 5 || rm0.ClbColMajors[1] != 7 {
		t.Errorf("ClbColMajors = %v", rm0.ClbColMajors)
	}
	if len(rm0.ClbTileTypes) != 2 || rm0.ClbTileTypes[1] != "CLEM" {
		t.Errorf("ClbTileTypes = %v", rm0.ClbTileTypes)
	}

	slr1, ok := tbl.SLRs["SLR1"]
	if !ok {
		t.Fatal("missing SLR1")
	}
	if slr1.MinClockRegionRowIdx != 2 || slr1.MinFarRowIdx != 5 {
		t.Errorf("SLR1 MinClockRegionRowIdx/MinFarRowIdx = %d/%d, want 2/5", slr1.MinClockRegionRowIdx, slr1.MinFarRowIdx)
	}
}

func TestLoadEmptySLRs(t *testing.T) {
	_, err := Load(strings.NewReader(`{"part":"x","slrs":{}}`))
	if err == nil {
		t.Fatal("expected error for a table with no SLRs")
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	_, err := Load(strings.NewReader(`{not json`))
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLoadBadRowMajorKey(t *testing.T) {
	bad := `{"part":"x","slrs":{"SLR0":{"idcode":"0x1","rowMajors":{"notanumber":{}}}}}`
	_, err := Load(strings.NewReader(bad))
	if err == nil {
		t.Fatal("expected error for non-numeric rowMajors key")
	}
}

func TestSLRByIDCode(t *testing.T) {
	tbl, err := Load(strings.NewReader(sampleTable))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	name, slr, ok := tbl.SLRByIDCode(0x04a63093)
	if !ok || name != "SLR0" {
		t.Fatalf("SLRByIDCode = %q, %+v, %v", name, slr, ok)
	}
	if _, _, ok := tbl.SLRByIDCode(0xdeadbeef); ok {
		t.Error("expected no match for unknown idcode")
	}
}

package checker

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ausocean/utils/logging"

	"github.com/xlnxtools/usbit/arch"
	"github.com/xlnxtools/usbit/archtable"
	"github.com/xlnxtools/usbit/bitstream"
	"github.com/xlnxtools/usbit/device"
	"github.com/xlnxtools/usbit/far"
	"github.com/xlnxtools/usbit/locator"
)

const testIDCode = 0x04A63093

const testDeviceJSON = `{
  "part": "xczu3eg-sbva484-1-e",
  "num_slrs": 1,
  "slrs": {
    "SLR0": {
      "idcode": "0x04a63093",
      "min_clock_region_row_idx": 0,
      "max_clock_region_row_idx": 0,
      "min_far_row_idx": 0,
      "max_far_row_idx": 0,
      "rowMajors": {
        "0": {
          "bram_content_colMajors": [10],
          "bram_content_parity_colMajors": [11],
          "clb_colMajors": [5],
          "clb_tileTypes": ["CLEL_L"],
          "num_minors_per_bram_content_colMajor": [6],
          "num_minors_per_std_colMajor": [2]
        }
      }
    }
  }
}`

// buildArchtableJSON builds CLEL_L register/LUT locations plus a BRAM tile's
// full-width memory and parity location tables, spread across as many
// minors as a single frame's bit width (32*FrameSizeWords) requires.
func buildArchtableJSON(t *testing.T, frameBits int) []byte {
	t.Helper()

	lutMinors := make([]int, locator.NumLutBits)
	lutOfsts := make([]int, locator.NumLutBits)
	for i := range lutOfsts {
		lutOfsts[i] = i // minors all 0, offsets 0..63
	}

	memMinors := make([]int, locator.NumBramMemBits)
	memOfsts := make([]int, locator.NumBramMemBits)
	for i := range memOfsts {
		memMinors[i] = i / frameBits
		memOfsts[i] = i % frameBits
	}

	parityMinors := make([]int, locator.NumBramParityBits)
	parityOfsts := make([]int, locator.NumBramParityBits)
	for i := range parityOfsts {
		parityMinors[i] = 0
		parityOfsts[i] = i
	}

	doc := map[string]any{
		"CLEL_L": map[string]any{
			"RegLoc": map[string]any{
				"Y_ofst": map[string]any{
					"13": map[string]any{
						"minor":      map[string]int{"AQ": 0},
						"frame_ofst": map[string]int{"AQ": 70},
					},
				},
			},
			"LutLoc": map[string]any{
				"Y_ofst": map[string]any{
					"13": map[string]any{
						"minor":      map[string][]int{"A6LUT": lutMinors},
						"frame_ofst": map[string][]int{"A6LUT": lutOfsts},
					},
				},
			},
		},
		"BRAM": map[string]any{
			"BramMemLoc": map[string]any{
				"Y_ofst": map[string]any{
					"0": map[string]any{
						"minor":      map[string][]int{"RAMB18E2": memMinors},
						"frame_ofst": map[string][]int{"RAMB18E2": memOfsts},
					},
				},
			},
			"BramMemParityLoc": map[string]any{
				"Y_ofst": map[string]any{
					"0": map[string]any{
						"minor":      map[string][]int{"RAMB18E2": parityMinors},
						"frame_ofst": map[string][]int{"RAMB18E2": parityOfsts},
					},
				},
			},
		},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json.Marshal fixture: %v", err)
	}
	return b
}

// testFixture bundles a locator and the zero-initialized ConfigFrames that
// back every FAR it can resolve, so tests can mutate specific bits before
// building a Checker.
type testFixture struct {
	a      *arch.Spec
	loc    *locator.Locator
	frames map[far.FAR]*bitstream.ConfigFrame
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	a := arch.For(arch.UltraScalePlus)

	dev, err := device.Load(strings.NewReader(testDeviceJSON))
	if err != nil {
		t.Fatalf("device.Load: %v", err)
	}
	at, err := archtable.Load(bytes.NewReader(buildArchtableJSON(t, 32*a.FrameSizeWords)))
	if err != nil {
		t.Fatalf("archtable.Load: %v", err)
	}
	loc := locator.New(dev, at, a)

	frames := make(map[far.FAR]*bitstream.ConfigFrame)
	mkFrame := func(bt far.BlockType, col, minor uint32) *bitstream.ConfigFrame {
		f := far.FAR{Arch: a, BlockType: bt, Row: 0, Col: col, Minor: minor}
		cf := &bitstream.ConfigFrame{Arch: a, Words: make([]uint32, a.FrameSizeWords), FAR: f}
		frames[f] = cf
		return cf
	}
	mkFrame(far.CLBIOCLK, 5, 0) // CLB column, minor 0: holds both FF and LUT bits
	for m := uint32(0); m < 6; m++ {
		mkFrame(far.BRAMContent, 10, m) // BRAM memory column
	}
	mkFrame(far.BRAMContent, 11, 0) // BRAM parity column

	return &testFixture{a: a, loc: loc, frames: frames}
}

func (f *testFixture) setBit(fr far.FAR, offset int) {
	cf := f.frames[fr]
	cf.Words[offset/32] |= 1 << uint(offset%32)
}

func (f *testFixture) newChecker(t *testing.T) *Checker {
	t.Helper()
	arrays := bitstream.IndividualConfigurationArrays{
		testIDCode: make(map[far.FAR][]*bitstream.ConfigFrame),
	}
	for fr, cf := range f.frames {
		arrays[testIDCode][fr] = []*bitstream.ConfigFrame{cf}
	}
	c, err := New(f.loc, arrays, map[string]uint32{"SLR0": testIDCode})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// TestCheckFFInversion exercises the UltraScale CLB capture inversion: a
// raw captured bit of 1 means a logical FF init of 0.
func TestCheckFFInversion(t *testing.T) {
	fx := newTestFixture(t)
	clbFar := far.FAR{Arch: fx.a, BlockType: far.CLBIOCLK, Row: 0, Col: 5, Minor: 0}
	fx.setBit(clbFar, 70) // raw bit = 1 -> logical init = 0
	c := fx.newChecker(t)

	m, err := c.Check(ExpectedValues{FFs: []FFExpectation{{Resource: "SLICE_X0Y13/AFF", Init: 0}}})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if m != nil {
		t.Errorf("unexpected mismatch: %v", m)
	}
}

func TestCheckFFMismatch(t *testing.T) {
	fx := newTestFixture(t)
	clbFar := far.FAR{Arch: fx.a, BlockType: far.CLBIOCLK, Row: 0, Col: 5, Minor: 0}
	fx.setBit(clbFar, 70) // raw bit = 1 -> logical init = 0
	c := fx.newChecker(t)

	m, err := c.Check(ExpectedValues{FFs: []FFExpectation{{Resource: "SLICE_X0Y13/AFF", Init: 1}}})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if m == nil || m.Kind != "ff" {
		t.Fatalf("expected an ff mismatch, got %v", m)
	}
}

func TestCheckLutMatch(t *testing.T) {
	fx := newTestFixture(t)
	clbFar := far.FAR{Arch: fx.a, BlockType: far.CLBIOCLK, Row: 0, Col: 5, Minor: 0}
	fx.setBit(clbFar, 0) // truth-table bit 0 set; INIT = 1
	c := fx.newChecker(t)

	m, err := c.Check(ExpectedValues{Luts: []LutExpectation{{Resource: "SLICE_X0Y13/A6LUT", InitHex: "64'h0000000000000001"}}})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if m != nil {
		t.Errorf("unexpected mismatch: %v", m)
	}
}

func TestCheckLutMismatchReportsUnusedInputs(t *testing.T) {
	fx := newTestFixture(t)
	c := fx.newChecker(t) // all bits zero: observed INIT = 0
	m, err := c.Check(ExpectedValues{Luts: []LutExpectation{{Resource: "SLICE_X0Y13/A6LUT", InitHex: "64'h0000000000000000"}}})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if m != nil {
		t.Fatalf("expected match on all-zero INIT, got mismatch %v", m)
	}

	// 64'hAAAA...A depends only on input 0 (alternating output by parity of
	// the truth-table index); observed is all-zero, so this mismatches and
	// reports the expected value's other 5 inputs as unused.
	m, err = c.Check(ExpectedValues{Luts: []LutExpectation{{Resource: "SLICE_X0Y13/A6LUT", InitHex: "64'hAAAAAAAAAAAAAAAA"}}})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if m == nil || m.Kind != "lut" {
		t.Fatalf("expected a lut mismatch, got %v", m)
	}
	if len(m.UnusedInputs) != 5 {
		t.Errorf("UnusedInputs = %v, want 5 entries", m.UnusedInputs)
	}
}

func TestCheckBramAllZeroMatch(t *testing.T) {
	fx := newTestFixture(t)
	c := fx.newChecker(t)

	zeroInit := map[string]string{"INIT_00": strings.Repeat("0", locator.NumBramMemBits/4)}
	zeroInitP := map[string]string{"INITP_00": strings.Repeat("0", locator.NumBramParityBits/4)}
	m, err := c.Check(ExpectedValues{Brams: []BRAMExpectation{{Resource: "RAMB18_X0Y0", Init: zeroInit, InitP: zeroInitP}}})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if m != nil {
		t.Errorf("unexpected mismatch: %v", m)
	}
}

func TestCheckBramMismatch(t *testing.T) {
	fx := newTestFixture(t)
	bramFar := far.FAR{Arch: fx.a, BlockType: far.BRAMContent, Row: 0, Col: 10, Minor: 0}
	fx.setBit(bramFar, 0) // flips the first (lowest-address) memory bit
	c := fx.newChecker(t)

	zeroInit := map[string]string{"INIT_00": strings.Repeat("0", locator.NumBramMemBits/4)}
	zeroInitP := map[string]string{"INITP_00": strings.Repeat("0", locator.NumBramParityBits/4)}
	m, err := c.Check(ExpectedValues{Brams: []BRAMExpectation{{Resource: "RAMB18_X0Y0", Init: zeroInit, InitP: zeroInitP}}})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if m == nil || m.Kind != "bram" {
		t.Fatalf("expected a bram mismatch, got %v", m)
	}
}

// TestCheckFirstMismatchWins exercises §4.6 step 5: LUT expectations are
// checked before FF expectations, so a failing LUT wins over a failing FF
// that comes after it in the expected-values list.
func TestCheckFirstMismatchWins(t *testing.T) {
	fx := newTestFixture(t)
	c := fx.newChecker(t)

	ev := ExpectedValues{
		Luts: []LutExpectation{{Resource: "SLICE_X0Y13/A6LUT", InitHex: "64'h0000000000000001"}}, // mismatches: observed INIT is 0
		FFs:  []FFExpectation{{Resource: "SLICE_X0Y13/AFF", Init: 0}},                            // mismatches: raw bit 0 inverts to logical 1
	}
	m, err := c.Check(ev)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if m == nil || m.Kind != "lut" {
		t.Fatalf("expected the lut mismatch to win, got %v", m)
	}
}

// TestCheckWithLogger exercises the WithLogger option end to end: a
// mismatch must produce a log line via the injected logger rather than the
// default suppressed one.
func TestCheckWithLogger(t *testing.T) {
	fx := newTestFixture(t)
	clbFar := far.FAR{Arch: fx.a, BlockType: far.CLBIOCLK, Row: 0, Col: 5, Minor: 0}
	fx.setBit(clbFar, 70) // raw bit = 1 -> logical init = 0, mismatches Init: 1 below

	arrays := bitstream.IndividualConfigurationArrays{
		testIDCode: make(map[far.FAR][]*bitstream.ConfigFrame),
	}
	for fr, cf := range fx.frames {
		arrays[testIDCode][fr] = []*bitstream.ConfigFrame{cf}
	}

	var buf bytes.Buffer
	l := logging.New(logging.Info, &buf, false)
	c, err := New(fx.loc, arrays, map[string]uint32{"SLR0": testIDCode}, WithLogger(l))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	m, err := c.Check(ExpectedValues{FFs: []FFExpectation{{Resource: "SLICE_X0Y13/AFF", Init: 1}}})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if m == nil || m.Kind != "ff" {
		t.Fatalf("expected an ff mismatch, got %v", m)
	}
	if buf.Len() == 0 {
		t.Error("expected the injected logger to receive a warning on mismatch")
	}
}

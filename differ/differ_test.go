package differ

import (
	"testing"

	"github.com/xlnxtools/usbit/arch"
	"github.com/xlnxtools/usbit/bitstream"
	"github.com/xlnxtools/usbit/far"
)

const testIDCode = 0x04A63093

func oneFrameArrays(a *arch.Spec, f far.FAR, words []uint32) bitstream.IndividualConfigurationArrays {
	cf := &bitstream.ConfigFrame{Arch: a, Words: append([]uint32(nil), words...), FAR: f}
	return bitstream.IndividualConfigurationArrays{
		testIDCode: {f: {cf}},
	}
}

func TestDiffNoDisagreements(t *testing.T) {
	a := arch.For(arch.UltraScalePlus)
	f := far.FAR{Arch: a, BlockType: far.CLBIOCLK, Row: 0, Col: 0, Minor: 0}
	words := []uint32{0x1, 0x2, 0x3}

	baseline := oneFrameArrays(a, f, words)
	modified := oneFrameArrays(a, f, words)

	diffs, err := Diff(baseline, modified)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(diffs) != 0 {
		t.Errorf("got %d disagreements, want 0", len(diffs))
	}
}

func TestDiffSingleBitRisingAndFalling(t *testing.T) {
	a := arch.For(arch.UltraScalePlus)
	f := far.FAR{Arch: a, BlockType: far.CLBIOCLK, Row: 0, Col: 0, Minor: 0}

	baseline := oneFrameArrays(a, f, []uint32{0b0001, 0b0010})
	modified := oneFrameArrays(a, f, []uint32{0b0011, 0b0000})

	diffs, err := Diff(baseline, modified)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(diffs) != 2 {
		t.Fatalf("got %d disagreements, want 2: %+v", len(diffs), diffs)
	}
	byOffset := make(map[int]Disagreement)
	for _, d := range diffs {
		byOffset[d.FrameOffset] = d
	}
	// Word 0 bit 1: baseline 0 -> modified 1, rising.
	if d, ok := byOffset[1]; !ok || d.Polarity != PolarityRising {
		t.Errorf("offset 1 = %+v, want rising", d)
	}
	// Word 1 bit 33-32=1: baseline 1 -> modified 0, falling.
	if d, ok := byOffset[33]; !ok || d.Polarity != PolarityFalling {
		t.Errorf("offset 33 = %+v, want falling", d)
	}
}

func TestDiffMismatchedIDCodeSets(t *testing.T) {
	a := arch.For(arch.UltraScalePlus)
	f := far.FAR{Arch: a, BlockType: far.CLBIOCLK, Row: 0, Col: 0, Minor: 0}
	baseline := oneFrameArrays(a, f, []uint32{0})
	modified := bitstream.IndividualConfigurationArrays{}

	if _, err := Diff(baseline, modified); err == nil {
		t.Fatal("expected ErrMismatchedInputs for differing idcode sets")
	}
}

func TestDiffMismatchedFarKeySets(t *testing.T) {
	a := arch.For(arch.UltraScalePlus)
	f1 := far.FAR{Arch: a, BlockType: far.CLBIOCLK, Row: 0, Col: 0, Minor: 0}
	f2 := far.FAR{Arch: a, BlockType: far.CLBIOCLK, Row: 0, Col: 0, Minor: 1}
	baseline := oneFrameArrays(a, f1, []uint32{0})
	modified := oneFrameArrays(a, f2, []uint32{0})

	if _, err := Diff(baseline, modified); err == nil {
		t.Fatal("expected ErrMismatchedInputs for differing far key sets")
	}
}

func TestDiffMultipleIDCodesInDisagreements(t *testing.T) {
	a := arch.For(arch.UltraScalePlus)
	f := far.FAR{Arch: a, BlockType: far.CLBIOCLK, Row: 0, Col: 0, Minor: 0}

	baseline := bitstream.IndividualConfigurationArrays{
		0x1: {f: {{Arch: a, Words: []uint32{0}, FAR: f}}},
		0x2: {f: {{Arch: a, Words: []uint32{0}, FAR: f}}},
	}
	modified := bitstream.IndividualConfigurationArrays{
		0x1: {f: {{Arch: a, Words: []uint32{1}, FAR: f}}},
		0x2: {f: {{Arch: a, Words: []uint32{1}, FAR: f}}},
	}

	if _, err := Diff(baseline, modified); err == nil {
		t.Fatal("expected ErrMultipleIDCodes when disagreements span more than one idcode")
	}
}

// TestOutlierIdentifiesFarthestFromMedian is §8 scenario 6: among a cluster
// of related LUT-equation disagreements, the one bit far from the others'
// median offset is flagged as the outlier.
func TestOutlierIdentifiesFarthestFromMedian(t *testing.T) {
	cluster := []Disagreement{
		{FrameOffset: 10, Polarity: PolarityRising},
		{FrameOffset: 11, Polarity: PolarityRising},
		{FrameOffset: 12, Polarity: PolarityRising},
		{FrameOffset: 63, Polarity: PolarityFalling}, // far from the 10-12 cluster
	}
	got, err := Outlier(cluster)
	if err != nil {
		t.Fatalf("Outlier: %v", err)
	}
	if got.FrameOffset != 63 {
		t.Errorf("Outlier = %+v, want FrameOffset 63", got)
	}
}

func TestOutlierEmptyCluster(t *testing.T) {
	if _, err := Outlier(nil); err == nil {
		t.Fatal("expected error for an empty cluster")
	}
}

func TestOutlierSingleElement(t *testing.T) {
	cluster := []Disagreement{{FrameOffset: 5, Polarity: PolarityRising}}
	got, err := Outlier(cluster)
	if err != nil {
		t.Fatalf("Outlier: %v", err)
	}
	if got.FrameOffset != 5 {
		t.Errorf("Outlier = %+v, want FrameOffset 5", got)
	}
}

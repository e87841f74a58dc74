/*
NAME
  differ.go

DESCRIPTION
  differ.go compares two parsed, full, uncompressed bitstreams for the same
  part frame-by-frame and enumerates the exact bit positions where they
  disagree, with an optional outlier hint for isolating a LUT "equation" bit
  change among a cluster of related disagreements (§4.7).
*/

// Package differ implements the bitstream differ.
package differ

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/xlnxtools/usbit/bitstream"
	"github.com/xlnxtools/usbit/far"
)

// ErrMismatchedInputs is returned when the two bitstreams do not share the
// same IDCODE set, FAR key sets, write counts, or frame byte offsets (§4.7
// step 1).
var ErrMismatchedInputs = errors.New("differ: mismatched inputs")

// ErrMultipleIDCodes is returned when emitted disagreements span more than
// one IDCODE (§4.7 step 3).
var ErrMultipleIDCodes = errors.New("differ: disagreements span multiple idcodes")

// Polarity is the direction of a bit disagreement.
type Polarity byte

const (
	// PolarityRising is a baseline-0, modified-1 disagreement.
	PolarityRising Polarity = '+'
	// PolarityFalling is a baseline-1, modified-0 disagreement.
	PolarityFalling Polarity = '-'
)

func (p Polarity) String() string { return string(p) }

// Disagreement is one bit position where the two bitstreams differ.
type Disagreement struct {
	IDCode      uint32
	FAR         far.FAR
	FrameOffset int
	Polarity    Polarity
}

// Diff compares baseline against modified, asserting both share the same
// IDCODE set, FAR key sets, write counts and frame byte offsets (§4.7 step
// 1), and returns every bit-level disagreement ordered by IDCODE, then FAR
// integer value, then frame bit offset.
func Diff(baseline, modified bitstream.IndividualConfigurationArrays) ([]Disagreement, error) {
	if err := assertComparable(baseline, modified); err != nil {
		return nil, err
	}

	var out []Disagreement
	seenIDCode := make(map[uint32]bool)

	idcodes := sortedIDCodes(baseline)
	for _, idcode := range idcodes {
		bFars := baseline[idcode]
		mFars := modified[idcode]
		fars := sortedFars(bFars)
		for _, f := range fars {
			bFrames := bFars[f]
			mFrames := mFars[f]
			for i := range bFrames {
				bf, mf := bFrames[i], mFrames[i]
				if bf.ByteOffset != mf.ByteOffset {
					return nil, errors.Wrapf(ErrMismatchedInputs, "idcode %#08x far %s: byte offset %d != %d", idcode, f, bf.ByteOffset, mf.ByteOffset)
				}
				for w := range bf.Words {
					diff := bf.Words[w] ^ mf.Words[w]
					if diff == 0 {
						continue
					}
					for bit := 0; bit < 32; bit++ {
						if diff&(1<<uint(bit)) == 0 {
							continue
						}
						offset := w*32 + bit
						var pol Polarity
						if bf.Words[w]&(1<<uint(bit)) == 0 {
							pol = PolarityRising
						} else {
							pol = PolarityFalling
						}
						out = append(out, Disagreement{IDCode: idcode, FAR: f, FrameOffset: offset, Polarity: pol})
						seenIDCode[idcode] = true
					}
				}
			}
		}
	}

	if len(seenIDCode) > 1 {
		return nil, errors.Wrapf(ErrMultipleIDCodes, "%d distinct idcodes", len(seenIDCode))
	}
	return out, nil
}

func assertComparable(a, b bitstream.IndividualConfigurationArrays) error {
	if len(a) != len(b) {
		return errors.Wrapf(ErrMismatchedInputs, "idcode set sizes differ: %d vs %d", len(a), len(b))
	}
	for idcode, aFars := range a {
		bFars, ok := b[idcode]
		if !ok {
			return errors.Wrapf(ErrMismatchedInputs, "idcode %#08x missing from modified", idcode)
		}
		if len(aFars) != len(bFars) {
			return errors.Wrapf(ErrMismatchedInputs, "idcode %#08x: far key set sizes differ: %d vs %d", idcode, len(aFars), len(bFars))
		}
		for f, aFrames := range aFars {
			bFrames, ok := bFars[f]
			if !ok {
				return errors.Wrapf(ErrMismatchedInputs, "idcode %#08x far %s missing from modified", idcode, f)
			}
			if len(aFrames) != len(bFrames) {
				return errors.Wrapf(ErrMismatchedInputs, "idcode %#08x far %s: write counts differ: %d vs %d", idcode, f, len(aFrames), len(bFrames))
			}
		}
	}
	return nil
}

func sortedIDCodes(m bitstream.IndividualConfigurationArrays) []uint32 {
	out := make([]uint32, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedFars(m map[far.FAR][]*bitstream.ConfigFrame) []far.FAR {
	out := make([]far.FAR, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ToInt() < out[j].ToInt() })
	return out
}

// Outlier identifies the single disagreement among cluster whose frame
// offset is farthest from the cluster's median offset, as a hint for the
// "equation" bit of a LUT change (§4.7 step 4, §8 scenario 6).
func Outlier(cluster []Disagreement) (Disagreement, error) {
	if len(cluster) == 0 {
		return Disagreement{}, errors.New("differ: empty cluster")
	}
	offsets := make([]float64, len(cluster))
	for i, d := range cluster {
		offsets[i] = float64(d.FrameOffset)
	}
	sorted := append([]float64(nil), offsets...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	best := 0
	bestDist := -1.0
	for i, off := range offsets {
		dist := off - median
		if dist < 0 {
			dist = -dist
		}
		if dist > bestDist {
			bestDist = dist
			best = i
		}
	}
	return cluster[best], nil
}

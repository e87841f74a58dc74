/*
NAME
  checker.go

DESCRIPTION
  checker.go implements the state checker: it compares the bits a bit
  locator resolves against a parsed bitstream's configuration frames to a
  caller-supplied set of expected LUT, flip-flop, and BRAM values (§4.6).
*/

// Package checker implements the bitstream state checker.
package checker

import (
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/xlnxtools/usbit/bitstream"
	"github.com/xlnxtools/usbit/far"
	"github.com/xlnxtools/usbit/locator"
	"github.com/xlnxtools/usbit/lut"
)

// defaultLogger is used when no logger is injected via WithLogger; it
// discards all output (§AMBIENT STACK logging).
func defaultLogger() logging.Logger {
	return logging.New(logging.Error, io.Discard, true)
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger injects a logging.Logger used for diagnostic messages while
// checking. Defaults to a suppressed logger if not supplied.
func WithLogger(l logging.Logger) Option {
	return func(c *Checker) { c.log = l }
}

// ErrIntegrityViolation mirrors bitstream.ErrIntegrityViolation for
// violations discovered while building the (slr, far) frame map (more than
// one write to the same FAR).
var ErrIntegrityViolation = errors.New("checker: integrity violation")

// ErrExpectedMismatch is returned when an observed value disagrees with the
// expected value for a LUT, FF, or BRAM entry.
var ErrExpectedMismatch = errors.New("checker: expected value mismatch")

// LutExpectation names a LUT resource and its expected 64-bit INIT value, as
// a Verilog-style sized literal (e.g. "64'h0000000000000001") or bare hex/
// decimal string.
type LutExpectation struct {
	Resource string `json:"resource"`
	InitHex  string `json:"init"`
}

// FFExpectation names a flip-flop resource and its expected 1-bit INIT
// value.
type FFExpectation struct {
	Resource string `json:"resource"`
	Init     uint32 `json:"init"`
}

// BRAMExpectation names a BRAM resource and its expected memory/parity
// content, keyed by INIT_XX / INITP_XX hex-value strings.
type BRAMExpectation struct {
	Resource string            `json:"resource"`
	Init     map[string]string `json:"init"`
	InitP    map[string]string `json:"initp"`
}

// ExpectedValues is the full set of entries to check against a bitstream.
// Decoded with stdlib encoding/json: a fixed, caller-authored test-fixture
// shape, not a negotiated wire format (§DOMAIN STACK).
type ExpectedValues struct {
	Luts  []LutExpectation  `json:"luts"`
	FFs   []FFExpectation   `json:"ffs"`
	Brams []BRAMExpectation `json:"brams"`
}

// Mismatch describes one failed comparison (§4.6 step 5).
type Mismatch struct {
	Kind     string // "lut", "ff", or "bram"
	Resource string
	Expected string
	Observed string
	// UnusedInputs holds the LUT input indices that do not affect the
	// output, populated only for "lut" mismatches (§4.8).
	UnusedInputs []int
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s %s: expected %s, observed %s", m.Kind, m.Resource, m.Expected, m.Observed)
}

// frameKey identifies a configuration frame by IDCODE and FAR.
type frameKey struct {
	idcode uint32
	far    far.FAR
}

// Checker holds the (slr, far) -> ConfigFrame map built from a bitstream's
// per-FAR configuration arrays, plus the bit locator used to resolve
// resource names.
type Checker struct {
	loc    *locator.Locator
	dev    slrIndex
	frames map[frameKey]*bitstream.ConfigFrame
	log    logging.Logger
}

// slrIndex maps an SLR name to the IDCODE the bitstream wrote for it, so a
// locator result (which names an SLR) can be joined against the per-IDCODE
// configuration arrays.
type slrIndex map[string]uint32

// New builds a Checker from a parsed bitstream's per-FAR configuration
// arrays and an SLR-name-to-IDCODE index (typically obtained from the
// device table: each SLR record's IDCode paired with its name).
func New(loc *locator.Locator, arrays bitstream.IndividualConfigurationArrays, slrIdcodes map[string]uint32, opts ...Option) (*Checker, error) {
	c := &Checker{loc: loc, dev: slrIndex(slrIdcodes), log: defaultLogger()}
	for _, o := range opts {
		o(c)
	}

	frames := make(map[frameKey]*bitstream.ConfigFrame)
	for idcode, byFar := range arrays {
		for f, writes := range byFar {
			if len(writes) != 1 {
				return nil, errors.Wrapf(ErrIntegrityViolation, "idcode %#08x far %s: %d writes, want 1", idcode, f, len(writes))
			}
			frames[frameKey{idcode: idcode, far: f}] = writes[0]
		}
	}
	c.frames = frames
	c.log.Debug("built checker frame map", "idcodes", len(arrays), "frames", len(frames))
	return c, nil
}

func (c *Checker) frame(slr string, f far.FAR) (*bitstream.ConfigFrame, bool) {
	idcode, ok := c.dev[slr]
	if !ok {
		return nil, false
	}
	cf, ok := c.frames[frameKey{idcode: idcode, far: f}]
	return cf, ok
}

// Check runs every expectation and returns the first mismatch found, or nil
// if every entry matches (§4.6 step 5: first mismatch fails the check).
func (c *Checker) Check(ev ExpectedValues) (*Mismatch, error) {
	for _, e := range ev.Luts {
		m, err := c.checkLut(e)
		if err != nil {
			return nil, err
		}
		if m != nil {
			c.log.Warning("expected mismatch", "kind", m.Kind, "resource", m.Resource, "expected", m.Expected, "observed", m.Observed)
			return m, nil
		}
	}
	for _, e := range ev.FFs {
		m, err := c.checkFF(e)
		if err != nil {
			return nil, err
		}
		if m != nil {
			c.log.Warning("expected mismatch", "kind", m.Kind, "resource", m.Resource, "expected", m.Expected, "observed", m.Observed)
			return m, nil
		}
	}
	for _, e := range ev.Brams {
		m, err := c.checkBram(e)
		if err != nil {
			return nil, err
		}
		if m != nil {
			c.log.Warning("expected mismatch", "kind", m.Kind, "resource", m.Resource, "expected", m.Expected, "observed", m.Observed)
			return m, nil
		}
	}
	c.log.Debug("check passed", "luts", len(ev.Luts), "ffs", len(ev.FFs), "brams", len(ev.Brams))
	return nil, nil
}

func (c *Checker) checkLut(e LutExpectation) (*Mismatch, error) {
	res, err := c.loc.LocateLut(e.Resource)
	if err != nil {
		return nil, errors.Wrapf(err, "locating %q", e.Resource)
	}

	var observed uint64
	for i := 0; i < locator.NumLutBits; i++ {
		cf, ok := c.frame(res.SLR, res.FARs[i])
		if !ok {
			return nil, errors.Wrapf(ErrIntegrityViolation, "%q: no frame for far %s", e.Resource, res.FARs[i])
		}
		bit, err := cf.Bit(res.FrameOffsets[i])
		if err != nil {
			return nil, errors.Wrapf(err, "%q bit %d", e.Resource, i)
		}
		// Assembled MSB-first: bit 63 is truth-table index 63.
		observed |= uint64(bit) << uint(i)
	}

	expected, err := lut.ParseVerilogNumber(e.InitHex)
	if err != nil {
		return nil, errors.Wrapf(err, "%q expected INIT", e.Resource)
	}

	if observed != expected {
		return &Mismatch{
			Kind:         "lut",
			Resource:     e.Resource,
			Expected:     lut.Table(expected).Hex(),
			Observed:     lut.Table(observed).Hex(),
			UnusedInputs: lut.Table(expected).UnusedInputs(),
		}, nil
	}
	return nil, nil
}

func (c *Checker) checkFF(e FFExpectation) (*Mismatch, error) {
	res, err := c.loc.LocateReg(e.Resource)
	if err != nil {
		return nil, errors.Wrapf(err, "locating %q", e.Resource)
	}
	cf, ok := c.frame(res.SLR, res.FAR)
	if !ok {
		return nil, errors.Wrapf(ErrIntegrityViolation, "%q: no frame for far %s", e.Resource, res.FAR)
	}
	bit, err := cf.Bit(res.FrameOffset)
	if err != nil {
		return nil, errors.Wrapf(err, "%q", e.Resource)
	}
	// UltraScale CLB registers are captured inverted; invert the observed
	// bit before comparing (§4.6 step 3).
	observed := bit ^ 1
	if observed != e.Init {
		return &Mismatch{
			Kind:     "ff",
			Resource: e.Resource,
			Expected: fmt.Sprintf("%d", e.Init),
			Observed: fmt.Sprintf("%d", observed),
		}, nil
	}
	return nil, nil
}

func (c *Checker) checkBram(e BRAMExpectation) (*Mismatch, error) {
	res, err := c.loc.LocateBram(e.Resource)
	if err != nil {
		return nil, errors.Wrapf(err, "locating %q", e.Resource)
	}

	expectedMem, err := lut.ConcatenateBRAMInit(e.Init, "INIT_")
	if err != nil {
		return nil, errors.Wrapf(err, "%q INIT", e.Resource)
	}
	expectedParity, err := lut.ConcatenateBRAMInit(e.InitP, "INITP_")
	if err != nil {
		return nil, errors.Wrapf(err, "%q INITP", e.Resource)
	}

	observedMem, err := c.reconstructBram(res.SLR, res.MemFARs[:], res.MemOffsets[:])
	if err != nil {
		return nil, errors.Wrapf(err, "%q memory", e.Resource)
	}
	observedParity, err := c.reconstructBram(res.SLR, res.ParityFARs[:], res.ParityOffsets[:])
	if err != nil {
		return nil, errors.Wrapf(err, "%q parity", e.Resource)
	}

	if observedMem != expectedMem {
		return &Mismatch{Kind: "bram", Resource: e.Resource, Expected: expectedMem, Observed: observedMem}, nil
	}
	if observedParity != expectedParity {
		return &Mismatch{Kind: "bram", Resource: e.Resource, Expected: expectedParity, Observed: observedParity}, nil
	}
	return nil, nil
}

// reconstructBram reads len(fars) bits, low-address-first, and returns them
// as a big hex string (MSB-side is the highest address).
func (c *Checker) reconstructBram(slr string, fars []far.FAR, offsets []int) (string, error) {
	n := len(fars)
	bits := make([]uint32, n)
	for i := range fars {
		cf, ok := c.frame(slr, fars[i])
		if !ok {
			return "", errors.Wrapf(ErrIntegrityViolation, "no frame for far %s", fars[i])
		}
		bit, err := cf.Bit(offsets[i])
		if err != nil {
			return "", err
		}
		bits[i] = bit
	}

	// Pack low-address-first bits into a big-endian hex string, 4 bits per
	// nibble, highest address as the MSB nibble.
	nibbles := (n + 3) / 4
	out := make([]byte, nibbles)
	for i := 0; i < n; i++ {
		if bits[i] == 0 {
			continue
		}
		nibbleIdx := nibbles - 1 - i/4
		out[nibbleIdx] |= 1 << uint(i%4)
	}
	const hexDigits = "0123456789abcdef"
	for i, v := range out {
		out[i] = hexDigits[v]
	}
	return string(out), nil
}

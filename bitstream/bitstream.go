/*
NAME
  bitstream.go

DESCRIPTION
  bitstream.go is the top-level parsed Bitstream facade: header metadata,
  the ordered packet list, and the lazily-derived views built on top of them
  (§4.3 Bitstream Facade, §9 Lazy caches -> explicit computed state).
*/

// Package bitstream implements the bitstream codec and facade: sync
// scanning, TYPE1/TYPE2 packet decoding, and the derived configuration-array
// views (§4.2, §4.3).
package bitstream

import (
	"io"
	"strings"
	"sync"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/xlnxtools/usbit/arch"
	"github.com/xlnxtools/usbit/packet"
)

// defaultLogger is used when no logger is injected via WithLogger; it
// discards all output (§AMBIENT STACK logging).
func defaultLogger() logging.Logger {
	return logging.New(logging.Error, io.Discard, true)
}

// ErrUnsupportedBitstream is returned when frame extraction is requested on
// a compressed, encrypted, or per-frame-CRC bitstream.
var ErrUnsupportedBitstream = errors.New("bitstream: unsupported bitstream for frame extraction")

// ErrIntegrityViolation is returned when a structural invariant of the
// configuration-array derivation is violated (§7 IntegrityViolation).
var ErrIntegrityViolation = errors.New("bitstream: integrity violation")

// Option configures a Parse call.
type Option func(*Bitstream)

// WithLogger injects a logging.Logger used for diagnostic messages during
// parsing. Defaults to a logger that discards all output if not supplied.
func WithLogger(l logging.Logger) Option {
	return func(b *Bitstream) { b.log = l }
}

// Bitstream is the parsed, single-owner representation of one bitstream
// file. Packets and ConfigFrames it derives hold read-only borrows into its
// backing buffer and do not outlive it (§3 Ownership & lifecycle). Once
// parsed, a Bitstream's IDCODE, CRC and raw-array views are computed on
// demand and memoized (PerFarConfigurationArrays is rebuilt on every call);
// it may then be shared read-only across goroutines.
type Bitstream struct {
	raw    []byte
	header Header
	arch   *arch.Spec
	log    logging.Logger

	packets []packet.Packet

	idcodesOnce sync.Once
	idcodes     []uint32

	crcOnce    sync.Once
	crcEnabled bool

	perFrameCRCOnce sync.Once
	perFrameCRC     bool

	rawOnce   sync.Once
	rawArrays RawConfigurationArrays
	rawErr    error
}

// Parse decodes a bitstream file's header and packet sequence. a selects the
// FAR bit layout used to decode FAR-register writes (selected by the caller
// via arch.SpecForPart on the header's Part, or supplied directly).
func Parse(data []byte, a *arch.Spec, opts ...Option) (*Bitstream, error) {
	b := &Bitstream{raw: data, arch: a, log: defaultLogger()}
	for _, o := range opts {
		o(b)
	}

	h, err := ParseHeader(data)
	if err != nil {
		return nil, errors.Wrap(err, "bitstream: parse header")
	}
	b.header = h

	pkts, err := decodeAllSections(data, h.BodyOffset)
	if err != nil {
		return nil, errors.Wrap(err, "bitstream: decode packets")
	}
	// NOOP filtering (§4.2): dropped from the output list, already counted
	// for word-advance during decode.
	b.packets = make([]packet.Packet, 0, len(pkts))
	for _, p := range pkts {
		if p.IsNoop() {
			continue
		}
		b.packets = append(b.packets, p)
	}

	b.log.Debug("parsed bitstream", "part", h.Part, "packets", len(b.packets))
	return b, nil
}

// Header returns the parsed header.
func (b *Bitstream) Header() Header { return b.header }

// Packets returns the ordered, NOOP-filtered packet list.
func (b *Bitstream) Packets() []packet.Packet { return b.packets }

// Arch returns the architecture spec used to decode this bitstream.
func (b *Bitstream) Arch() *arch.Spec { return b.arch }

func optionFlag(opts map[string]string, key string) bool {
	v, ok := opts[key]
	if !ok {
		return false
	}
	switch strings.ToUpper(v) {
	case "YES", "TRUE":
		return true
	default:
		return false
	}
}

// IsEncrypted reports whether the header's ENCRYPT option is YES/TRUE.
func (b *Bitstream) IsEncrypted() bool { return optionFlag(b.header.Options, "ENCRYPT") }

// IsCompressed reports whether the header's COMPRESS option is YES/TRUE.
func (b *Bitstream) IsCompressed() bool { return optionFlag(b.header.Options, "COMPRESS") }

// IsPartial reports whether the header's PARTIAL option is YES/TRUE.
func (b *Bitstream) IsPartial() bool { return optionFlag(b.header.Options, "PARTIAL") }

// GetUserID returns the header's UserID option, if present.
func (b *Bitstream) GetUserID() (string, bool) { return b.header.Option("UserID") }

// GetVersion returns the header's Version option, if present.
func (b *Bitstream) GetVersion() (string, bool) { return b.header.Option("Version") }

// IsCRCEnabled reports whether any WRITE to the CRC register occurs in the
// packet sequence.
func (b *Bitstream) IsCRCEnabled() bool {
	b.crcOnce.Do(func() {
		for _, p := range b.packets {
			if p.Opcode == packet.WRITE && p.Register == packet.CRC {
				b.crcEnabled = true
				return
			}
		}
	})
	return b.crcEnabled
}

// IsPerFrameCRC reports whether every FDRI write carries exactly one frame
// and is followed by a CRC write before the next FDRI write (§4.3
// is_per_frame_crc).
func (b *Bitstream) IsPerFrameCRC() bool {
	b.perFrameCRCOnce.Do(func() {
		frameSize := b.arch.FrameSizeWords
		var sawFDRI, pendingCRC bool
		for _, p := range b.packets {
			if p.Opcode != packet.WRITE {
				continue
			}
			switch p.Register {
			case packet.FDRI:
				if len(p.Payload) == 0 {
					continue
				}
				if len(p.PayloadWords()) != frameSize {
					b.perFrameCRC = false
					return
				}
				if pendingCRC {
					// Previous FDRI write was not followed by a CRC write
					// before this one.
					b.perFrameCRC = false
					return
				}
				sawFDRI = true
				pendingCRC = true
			case packet.CRC:
				pendingCRC = false
			}
		}
		b.perFrameCRC = sawFDRI && !pendingCRC
	})
	return b.perFrameCRC
}

// GetIDCodes returns the distinct IDCODEs written to the IDCODE register, in
// first-seen order.
func (b *Bitstream) GetIDCodes() []uint32 {
	b.idcodesOnce.Do(func() {
		seen := make(map[uint32]bool)
		for _, p := range b.packets {
			if p.Opcode == packet.WRITE && p.Register == packet.IDCODE {
				words := p.PayloadWords()
				if len(words) != 1 {
					continue
				}
				if !seen[words[0]] {
					seen[words[0]] = true
					b.idcodes = append(b.idcodes, words[0])
				}
			}
		}
	})
	return b.idcodes
}

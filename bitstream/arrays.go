/*
NAME
  arrays.go

DESCRIPTION
  arrays.go derives the raw and per-FAR configuration array views from a
  Bitstream's packet sequence (§4.3 Raw configuration arrays, Per-FAR
  configuration arrays).
*/

package bitstream

import (
	"github.com/pkg/errors"

	"github.com/xlnxtools/usbit/far"
	"github.com/xlnxtools/usbit/packet"
)

// rawEvent is one FDRI write in decode order, with the IDCODE and FAR that
// were current at the time it was made.
type rawEvent struct {
	idcode     uint32
	far        far.FAR
	byteOffset int
	words      []uint32
}

// rawEvents walks the packet list once, tracking current IDCODE and FAR,
// and returns the ordered list of non-empty FDRI writes (§4.3 Raw
// configuration arrays).
func (b *Bitstream) rawEvents() ([]rawEvent, error) {
	if b.IsEncrypted() || b.IsCompressed() || b.IsPerFrameCRC() {
		return nil, errors.Wrap(ErrUnsupportedBitstream, "compressed, encrypted, or per-frame-CRC bitstream")
	}

	var (
		events     []rawEvent
		curIDCode  uint32
		haveIDCode bool
		curFAR     far.FAR
		haveFAR    bool
		frameSize  = b.arch.FrameSizeWords
	)

	for _, p := range b.packets {
		if p.Opcode != packet.WRITE {
			continue
		}
		switch p.Register {
		case packet.IDCODE:
			words := p.PayloadWords()
			if len(words) != 1 {
				return nil, errors.Wrapf(ErrIntegrityViolation, "IDCODE write at offset %d has %d words, want 1", p.Offset, len(words))
			}
			curIDCode, haveIDCode = words[0], true
		case packet.FAR:
			words := p.PayloadWords()
			if len(words) != 1 {
				return nil, errors.Wrapf(ErrIntegrityViolation, "FAR write at offset %d has %d words, want 1", p.Offset, len(words))
			}
			curFAR, haveFAR = far.FromInt(b.arch, words[0]), true
		case packet.FDRI:
			if len(p.Payload) == 0 {
				continue // Empty TYPE1 placeholder preceding a TYPE2; skip.
			}
			if !haveIDCode || !haveFAR {
				return nil, errors.Wrapf(ErrIntegrityViolation, "FDRI write at offset %d before IDCODE/FAR were set", p.Offset)
			}
			words := p.PayloadWords()
			if len(words)%frameSize != 0 {
				return nil, errors.Wrapf(ErrIntegrityViolation, "FDRI write at offset %d has %d words, not a multiple of frame size %d", p.Offset, len(words), frameSize)
			}
			events = append(events, rawEvent{idcode: curIDCode, far: curFAR, byteOffset: p.Offset + 4, words: words})
		}
	}
	return events, nil
}

// RawConfigurationArrays returns the per-IDCODE, per-base-FAR map of FDRI
// writes (§4.3 Raw configuration arrays). Rejects compressed, encrypted and
// per-frame-CRC bitstreams.
func (b *Bitstream) RawConfigurationArrays() (RawConfigurationArrays, error) {
	b.rawOnce.Do(func() {
		events, err := b.rawEvents()
		if err != nil {
			b.rawErr = err
			return
		}
		result := make(RawConfigurationArrays)
		for _, e := range events {
			m, ok := result[e.idcode]
			if !ok {
				m = make(map[far.FAR][]RawWrite)
				result[e.idcode] = m
			}
			m[e.far] = append(m[e.far], RawWrite{ByteOffset: e.byteOffset, Words: e.words})
		}
		b.rawArrays = result
	})
	return b.rawArrays, b.rawErr
}

// NumEndOfRowPaddingFrames is the number of all-zero padding frames inserted
// at every row boundary (§3 Invariant 3, §4.3 Per-FAR configuration arrays).
const NumEndOfRowPaddingFrames = 2

// PerFarConfigurationArrays re-slices the raw FDRI writes into individual
// ConfigFrames, one per auto-incremented FAR, using inc to track the
// auto-increment and row-boundary padding-frame skip (§4.3 Per-FAR
// configuration arrays).
func (b *Bitstream) PerFarConfigurationArrays(inc *far.Incrementer) (IndividualConfigurationArrays, error) {
	events, err := b.rawEvents()
	if err != nil {
		return nil, err
	}

	frameSize := b.arch.FrameSizeWords
	result := make(IndividualConfigurationArrays)

	for _, e := range events {
		nFrames := len(e.words) / frameSize
		curFAR := e.far
		i := 0
		for i < nFrames {
			frameWords := e.words[i*frameSize : (i+1)*frameSize]
			cf := &ConfigFrame{
				Arch:       b.arch,
				ByteOffset: e.byteOffset + i*frameSize*4,
				Words:      frameWords,
				FAR:        curFAR,
			}
			m, ok := result[e.idcode]
			if !ok {
				m = make(map[far.FAR][]*ConfigFrame)
				result[e.idcode] = m
			}
			m[curFAR] = append(m[curFAR], cf)
			i++

			isLastOfRow, err := inc.IsLastFarOfRow(e.idcode, curFAR)
			if err != nil {
				return nil, errors.Wrapf(err, "idcode %#08x far %s", e.idcode, curFAR)
			}
			next, err := inc.Increment(e.idcode, curFAR)
			if err != nil {
				return nil, errors.Wrapf(err, "idcode %#08x far %s", e.idcode, curFAR)
			}

			if isLastOfRow {
				for k := 0; k < NumEndOfRowPaddingFrames && i < nFrames; k++ {
					padWords := e.words[i*frameSize : (i+1)*frameSize]
					for _, w := range padWords {
						if w != 0 {
							return nil, errors.Wrapf(ErrIntegrityViolation, "non-zero end-of-row padding frame at byte offset %d", e.byteOffset+i*frameSize*4)
						}
					}
					i++
				}
			}
			curFAR = next
		}
	}
	return result, nil
}

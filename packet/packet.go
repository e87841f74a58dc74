/*
NAME
  packet.go

DESCRIPTION
  packet.go decodes a single TYPE1 or TYPE2 configuration packet from a
  32-bit-big-endian word stream, tracking the implicit register inheritance
  of TYPE2 from the most recent TYPE1, and the sinkhole zero-payload override
  (§4.2).
*/

package packet

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrOrphanType2 is returned when a TYPE2 packet is encountered before any
// TYPE1 packet has set an implicit register.
var ErrOrphanType2 = errors.New("packet: orphan TYPE2 packet")

// ErrMalformedHeader is returned when a packet header's word count would
// overflow the remaining buffer outside of the sinkhole exception.
var ErrMalformedHeader = errors.New("packet: malformed header")

// Packet is a single decoded configuration packet. Payload is a read-only
// borrow over the underlying bitstream buffer; it does not outlive the
// buffer it was decoded from (§3 Ownership & lifecycle).
type Packet struct {
	Type      Type
	Opcode    Opcode
	Register  Register
	Reserved  uint32 // TYPE1 only; zero for TYPE2.
	WordCount uint32 // header word count, as encoded (may differ from len(Payload)/4 for a sinkhole write).
	Payload   []byte // 32-bit big-endian words, word_count*4 bytes (0 for a sinkhole TYPE2 write).
	Offset    int    // byte offset within the bitstream buffer where this packet's header word starts.
}

// IsNoop reports whether p is a NOOP packet (filtered from facade output,
// but still consumes its word-count advance).
func (p Packet) IsNoop() bool { return p.Opcode == NOOP }

// IsSinkholeWrite reports whether p is the zero-payload sinkhole marker
// (§4.2 Sinkhole handling).
func (p Packet) IsSinkholeWrite() bool {
	return p.Type == Type2 && p.Register == Rsvd30 && p.Opcode == WRITE && len(p.Payload) == 0
}

// Context tracks the decode state that spans multiple packets within one
// sync-rooted section: the most recently seen TYPE1 register (for TYPE2
// inheritance) and whether that register was the sinkhole register.
type Context struct {
	lastType1Reg Register
	haveType1    bool
	sinkhole     bool
}

// DecodeOne decodes the packet (or padding word) at byte offset off in buf,
// interpreted as 32-bit big-endian words (§4.2 Packet decoding inside a
// section). It returns the decoded packet, whether a packet was actually
// emitted (false only for padding words; NOOP is still emitted as a Packet
// here and the caller filters it, since filtering is a facade-level concern,
// not a codec concern), and the byte offset immediately following the
// consumed bytes.
func (c *Context) DecodeOne(buf []byte, off int) (pkt Packet, emitted bool, next int, err error) {
	if off+4 > len(buf) {
		return Packet{}, false, off, errors.Wrap(ErrMalformedHeader, "truncated header word")
	}
	word := binary.BigEndian.Uint32(buf[off : off+4])
	headerType := word >> 29 & 0x7

	switch headerType {
	case 1: // TYPE1
		opcode := Opcode(word >> 27 & 0x3)
		register := Register(word >> 13 & 0x3FFF)
		reserved := word >> 11 & 0x3
		wordCount := word & 0x7FF

		payloadLen := int(wordCount) * 4
		if off+4+payloadLen > len(buf) {
			return Packet{}, false, off, errors.Wrapf(ErrMalformedHeader, "TYPE1 payload overflows buffer at offset %d", off)
		}
		p := Packet{
			Type: Type1, Opcode: opcode, Register: register, Reserved: reserved,
			WordCount: wordCount, Payload: buf[off+4 : off+4+payloadLen], Offset: off,
		}
		c.lastType1Reg = register
		c.haveType1 = true
		c.sinkhole = register == Rsvd30
		return p, true, off + 4 + payloadLen, nil

	case 2: // TYPE2
		if !c.haveType1 {
			return Packet{}, false, off, errors.Wrapf(ErrOrphanType2, "at offset %d", off)
		}
		opcode := Opcode(word >> 27 & 0x3)
		wordCount := word & 0x07FFFFFF

		if c.sinkhole && opcode == WRITE {
			// Sinkhole write: treat as a zero-payload marker regardless of
			// the (possibly bogus / overflowing) header word count.
			p := Packet{
				Type: Type2, Opcode: opcode, Register: c.lastType1Reg,
				WordCount: wordCount, Payload: nil, Offset: off,
			}
			return p, true, off + 4, nil
		}

		payloadLen := int(wordCount) * 4
		if off+4+payloadLen > len(buf) {
			return Packet{}, false, off, errors.Wrapf(ErrMalformedHeader, "TYPE2 payload overflows buffer at offset %d", off)
		}
		p := Packet{
			Type: Type2, Opcode: opcode, Register: c.lastType1Reg,
			WordCount: wordCount, Payload: buf[off+4 : off+4+payloadLen], Offset: off,
		}
		return p, true, off + 4 + payloadLen, nil

	default:
		// Padding: dummy 0xFFFFFFFF, zero fill, or residue. Advance one
		// word without emitting a packet.
		return Packet{}, false, off + 4, nil
	}
}

// PayloadWords returns p's payload reinterpreted as big-endian 32-bit words.
func (p Packet) PayloadWords() []uint32 {
	n := len(p.Payload) / 4
	words := make([]uint32, n)
	for i := 0; i < n; i++ {
		words[i] = binary.BigEndian.Uint32(p.Payload[i*4 : i*4+4])
	}
	return words
}

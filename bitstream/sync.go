/*
NAME
  sync.go

DESCRIPTION
  sync.go locates SYNC_WORD occurrences and drives the per-section packet
  decode loop, resolving the sync-scan-robustness rule: after a section ends
  at a DESYNC boundary, the next section starts at the smallest sync offset
  at or after that boundary, even if an earlier (spurious) sync pattern
  occurred inside the section's own FDRI payload (§4.2 Sync scanning).
*/

package bitstream

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/xlnxtools/usbit/packet"
)

// SyncWord is the 32-bit pattern that marks the start of a configuration
// section.
const SyncWord = 0xAA995566

var syncBytes = [4]byte{0xAA, 0x99, 0x55, 0x66}

// ErrNoSyncFound is returned when no sync word occurs anywhere in the
// buffer.
var ErrNoSyncFound = errors.New("bitstream: no sync word found")

// findSyncOffsets returns every byte offset at which the 4-byte sync
// pattern occurs in buf[from:], as absolute offsets into buf. Occurrences
// need not be word-aligned.
func findSyncOffsets(buf []byte, from int) []int {
	var offs []int
	for i := from; i+4 <= len(buf); i++ {
		if buf[i] == syncBytes[0] && buf[i+1] == syncBytes[1] && buf[i+2] == syncBytes[2] && buf[i+3] == syncBytes[3] {
			offs = append(offs, i)
		}
	}
	return offs
}

// nextSyncAtOrAfter returns the smallest offset in offs that is >= boundary.
func nextSyncAtOrAfter(offs []int, boundary int) (int, bool) {
	i := sort.SearchInts(offs, boundary)
	if i >= len(offs) {
		return 0, false
	}
	return offs[i], true
}

// decodeSection decodes packets starting at the sync word offset start,
// until a DESYNC command ends the section or the buffer is exhausted. It
// returns the decoded packets (NOOP packets included; callers filter) and
// the byte offset immediately after the section-ending packet, or
// len(buf)/false if no DESYNC was found before the buffer ended.
func decodeSection(buf []byte, start int) (pkts []packet.Packet, end int, found bool, err error) {
	ctx := &packet.Context{}
	pos := start
	for pos < len(buf) {
		pkt, emitted, next, derr := ctx.DecodeOne(buf, pos)
		if derr != nil {
			return nil, pos, false, derr
		}
		if emitted {
			pkts = append(pkts, pkt)
			if pkt.Type == packet.Type1 && pkt.Opcode == packet.WRITE && pkt.Register == packet.CMD {
				words := pkt.PayloadWords()
				if len(words) == 1 && packet.Command(words[0]) == packet.DESYNC {
					return pkts, next, true, nil
				}
			}
		}
		pos = next
	}
	return pkts, pos, false, nil
}

// decodeAllSections orchestrates the full multi-section (multi-SLR) decode:
// find the first sync, decode its section, then jump to the next real sync
// at or after the section's end, repeating until no further sync remains.
func decodeAllSections(buf []byte, bodyOffset int) ([]packet.Packet, error) {
	syncOffsets := findSyncOffsets(buf, bodyOffset)
	if len(syncOffsets) == 0 {
		return nil, ErrNoSyncFound
	}

	var all []packet.Packet
	cursor := syncOffsets[0]
	for {
		pkts, end, _, err := decodeSection(buf, cursor)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding section starting at offset %d", cursor)
		}
		all = append(all, pkts...)

		next, ok := nextSyncAtOrAfter(syncOffsets, end)
		if !ok {
			break
		}
		cursor = next
	}
	return all, nil
}

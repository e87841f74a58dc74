package bitstream

import (
	"bytes"
	"testing"

	"github.com/xlnxtools/usbit/packet"
)

func TestFindSyncOffsets(t *testing.T) {
	var buf bytes.Buffer
	writeWord(&buf, 0x11111111)
	appendSync(&buf)
	writeWord(&buf, 0x22222222)
	appendSync(&buf)

	offs := findSyncOffsets(buf.Bytes(), 0)
	if len(offs) != 2 || offs[0] != 4 || offs[1] != 12 {
		t.Errorf("findSyncOffsets = %v, want [4 12]", offs)
	}
}

func TestNextSyncAtOrAfter(t *testing.T) {
	offs := []int{4, 12, 28}
	if got, ok := nextSyncAtOrAfter(offs, 0); !ok || got != 4 {
		t.Errorf("nextSyncAtOrAfter(offs, 0) = %d, %v", got, ok)
	}
	if got, ok := nextSyncAtOrAfter(offs, 24); !ok || got != 28 {
		t.Errorf("nextSyncAtOrAfter(offs, 24) = %d, %v, want 28", got, ok)
	}
	if _, ok := nextSyncAtOrAfter(offs, 29); ok {
		t.Error("expected no sync at or after 29")
	}
}

// TestSyncScanRobustness is §8 scenario 3: a spurious sync-word byte pattern
// embedded in an FDRI payload earlier than the real section boundary must
// not be mistaken for the start of the next section.
func TestSyncScanRobustness(t *testing.T) {
	var buf bytes.Buffer

	// Section 1: sync, an FDRI write whose payload's second word happens to
	// equal the sync pattern, then DESYNC.
	appendSync(&buf)
	writeWord(&buf, type1Word(packet.WRITE, packet.FDRI, 2))
	writeWord(&buf, 0x11111111)
	writeWord(&buf, SyncWord) // spurious, embedded sync pattern
	appendDesync(&buf)

	// Junk filler before the real next sync.
	writeWord(&buf, 0xFFFFFFFF)

	// Section 2: sync, then immediately DESYNC.
	appendSync(&buf)
	appendDesync(&buf)

	pkts, err := decodeAllSections(buf.Bytes(), 0)
	if err != nil {
		t.Fatalf("decodeAllSections: %v", err)
	}
	if len(pkts) != 3 {
		t.Fatalf("got %d packets, want 3: %+v", len(pkts), pkts)
	}

	fdri := pkts[0]
	if fdri.Register != packet.FDRI {
		t.Fatalf("pkts[0].Register = %s, want FDRI", fdri.Register)
	}
	words := fdri.PayloadWords()
	if len(words) != 2 || words[0] != 0x11111111 || words[1] != SyncWord {
		t.Errorf("FDRI payload words = %#v, want [0x11111111 %#08x]", words, uint32(SyncWord))
	}

	for i, want := range []packet.Register{packet.FDRI, packet.CMD, packet.CMD} {
		if pkts[i].Register != want {
			t.Errorf("pkts[%d].Register = %s, want %s", i, pkts[i].Register, want)
		}
	}
}

func TestDecodeAllSectionsNoSync(t *testing.T) {
	_, err := decodeAllSections([]byte{0, 1, 2, 3}, 0)
	if err != ErrNoSyncFound {
		t.Errorf("err = %v, want ErrNoSyncFound", err)
	}
}

/*
NAME
  header.go

DESCRIPTION
  header.go parses the bitstream file's hybrid LV/TLV header: three
  length-prefixed fields (a fixed preamble, a fixed one-byte tag, and an
  arbitrary design-name-plus-options string) followed by four
  tag-length-value fields for part, date, time and body (§4.2 Header
  format).
*/

package bitstream

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedHeader is returned when the header does not match the
// expected LV/TLV shape.
var ErrMalformedHeader = errors.New("bitstream: malformed header")

// preamble is field 1's fixed expected content.
var preamble = []byte{0x0f, 0xf0, 0x0f, 0xf0, 0x0f, 0xf0, 0x0f, 0xf0, 0x00}

// fieldATag is field 2's fixed expected single-byte content.
const fieldATag = 'a'

// Header is the parsed bitstream header metadata (§3 Bitstream).
type Header struct {
	DesignName string
	Options    map[string]string
	Part       string
	Date       string
	Time       string

	// BodyOffset is the absolute byte offset within the original buffer at
	// which bitstream body data (the 'e' field) begins.
	BodyOffset int
}

// Option looks up an option key (e.g. "ENCRYPT", "COMPRESS", "PARTIAL",
// "UserID", "Version") case-sensitively, as embedded in the design-name
// field.
func (h Header) Option(key string) (string, bool) {
	v, ok := h.Options[key]
	return v, ok
}

func readU16Len(buf []byte, off int) (int, int, error) {
	if off+2 > len(buf) {
		return 0, off, errors.Wrap(ErrMalformedHeader, "truncated length field")
	}
	return int(binary.BigEndian.Uint16(buf[off : off+2])), off + 2, nil
}

func readU32Len(buf []byte, off int) (int, int, error) {
	if off+4 > len(buf) {
		return 0, off, errors.Wrap(ErrMalformedHeader, "truncated length field")
	}
	return int(binary.BigEndian.Uint32(buf[off : off+4])), off + 4, nil
}

func readTag(buf []byte, off int) (byte, int, error) {
	if off+1 > len(buf) {
		return 0, off, errors.Wrap(ErrMalformedHeader, "truncated tag byte")
	}
	return buf[off], off + 1, nil
}

func takeBytes(buf []byte, off, n int) ([]byte, int, error) {
	if off+n > len(buf) {
		return nil, off, errors.Wrapf(ErrMalformedHeader, "field of length %d overflows buffer at offset %d", n, off)
	}
	return buf[off : off+n], off + n, nil
}

// parseDesignNameField splits field 3's content into a design name and a
// KEY=VALUE options map: "name;KEY1=VAL1;KEY2=VAL2;" with a trailing NUL.
func parseDesignNameField(raw []byte) (name string, options map[string]string) {
	s := string(bytes.TrimRight(raw, "\x00"))
	parts := strings.Split(s, ";")
	options = make(map[string]string)
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 && !strings.Contains(part, "=") {
			name = part
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 {
			options[kv[0]] = kv[1]
		}
	}
	return name, options
}

func trimNUL(raw []byte) string {
	return string(bytes.TrimRight(raw, "\x00"))
}

// ParseHeader decodes the bitstream header at the start of buf (§4.2 Header
// format). All subsequent byte offsets used by the rest of the package are
// absolute within buf.
func ParseHeader(buf []byte) (Header, error) {
	off := 0

	l1, off, err := readU16Len(buf, off)
	if err != nil {
		return Header{}, err
	}
	field1, off, err := takeBytes(buf, off, l1)
	if err != nil {
		return Header{}, err
	}
	if !bytes.Equal(field1, preamble) {
		return Header{}, errors.Wrapf(ErrMalformedHeader, "unexpected field 1 preamble at offset %d", off-l1)
	}

	l2, off, err := readU16Len(buf, off)
	if err != nil {
		return Header{}, err
	}
	field2, off, err := takeBytes(buf, off, l2)
	if err != nil {
		return Header{}, err
	}
	if l2 != 1 || field2[0] != fieldATag {
		return Header{}, errors.Wrapf(ErrMalformedHeader, "unexpected field 2 tag at offset %d", off-l2)
	}

	l3, off, err := readU16Len(buf, off)
	if err != nil {
		return Header{}, err
	}
	field3, off, err := takeBytes(buf, off, l3)
	if err != nil {
		return Header{}, err
	}
	designName, options := parseDesignNameField(field3)

	part, off, err := readTLVString(buf, off, 'b')
	if err != nil {
		return Header{}, err
	}
	date, off, err := readTLVString(buf, off, 'c')
	if err != nil {
		return Header{}, err
	}
	tm, off, err := readTLVString(buf, off, 'd')
	if err != nil {
		return Header{}, err
	}

	tag, off, err := readTag(buf, off)
	if err != nil {
		return Header{}, err
	}
	if tag != 'e' {
		return Header{}, errors.Wrapf(ErrMalformedHeader, "expected tag 'e' at offset %d, got %q", off-1, tag)
	}
	_, off, err = readU32Len(buf, off)
	if err != nil {
		return Header{}, err
	}

	return Header{
		DesignName: designName,
		Options:    options,
		Part:       part,
		Date:       date,
		Time:       tm,
		BodyOffset: off,
	}, nil
}

// readTLVString reads one tag-length-value field with a 2-byte length and a
// NUL-terminated string value, asserting the tag matches wantTag.
func readTLVString(buf []byte, off int, wantTag byte) (string, int, error) {
	tag, off, err := readTag(buf, off)
	if err != nil {
		return "", off, err
	}
	if tag != wantTag {
		return "", off, errors.Wrapf(ErrMalformedHeader, "expected tag %q at offset %d, got %q", wantTag, off-1, tag)
	}
	l, off, err := readU16Len(buf, off)
	if err != nil {
		return "", off, err
	}
	raw, off, err := takeBytes(buf, off, l)
	if err != nil {
		return "", off, err
	}
	return trimNUL(raw), off, nil
}

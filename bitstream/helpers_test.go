package bitstream

import (
	"bytes"
	"encoding/binary"

	"github.com/xlnxtools/usbit/packet"
)

// writeWord appends v to buf as a big-endian 32-bit word.
func writeWord(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func type1Word(opcode packet.Opcode, reg packet.Register, wordCount uint32) uint32 {
	return (1 << 29) | (uint32(opcode) << 27) | (uint32(reg) << 13) | wordCount
}

func type2Word(opcode packet.Opcode, wordCount uint32) uint32 {
	return (2 << 29) | (uint32(opcode) << 27) | wordCount
}

// buildHeader builds a well-formed LV/TLV header (§4.2 Header format) for
// part, with the given design-name options appended after the design name.
func buildHeader(part, designNameAndOptions string) []byte {
	var buf bytes.Buffer

	// Literal real-world field-1 bytes, not the package's own preamble var,
	// so a regression in that var can't silently agree with itself here.
	field1 := []byte{0x0f, 0xf0, 0x0f, 0xf0, 0x0f, 0xf0, 0x0f, 0xf0, 0x00}
	binary.Write(&buf, binary.BigEndian, uint16(len(field1)))
	buf.Write(field1)

	field2 := []byte{fieldATag}
	binary.Write(&buf, binary.BigEndian, uint16(len(field2)))
	buf.Write(field2)

	field3 := append([]byte(designNameAndOptions), 0x00)
	binary.Write(&buf, binary.BigEndian, uint16(len(field3)))
	buf.Write(field3)

	writeTLVString(&buf, 'b', part)
	writeTLVString(&buf, 'c', "2024/01/01")
	writeTLVString(&buf, 'd', "12:00:00")

	buf.WriteByte('e')
	// body length placeholder; filled in by the caller once the body is
	// known. Callers append the body directly after this header and do not
	// rely on the length value being load-bearing for ParseHeader, which
	// only consumes it to advance past the length field.
	binary.Write(&buf, binary.BigEndian, uint32(0))

	return buf.Bytes()
}

func writeTLVString(buf *bytes.Buffer, tag byte, s string) {
	buf.WriteByte(tag)
	v := append([]byte(s), 0x00)
	binary.Write(buf, binary.BigEndian, uint16(len(v)))
	buf.Write(v)
}

// appendSync appends a single sync word.
func appendSync(buf *bytes.Buffer) {
	writeWord(buf, SyncWord)
}

func appendDesync(buf *bytes.Buffer) {
	writeWord(buf, type1Word(packet.WRITE, packet.CMD, 1))
	writeWord(buf, uint32(packet.DESYNC))
}

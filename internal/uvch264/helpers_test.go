package uvch264

import (
	"encoding/binary"
)

var (
	soi = []byte{0xFF, 0xD8}
	eoi = []byte{0xFF, 0xD9}
)

// vendorSegment builds the first APP4 segment: marker, total length, a header
// of headerLength bytes, the payload size and the first chunk of data.
func vendorSegment(headerLength int, payloadSize uint32, first []byte) []byte {
	total := headerLength + len(first) + controlBytes
	b := []byte{MarkerPrefix, MarkerAPP4, byte(total >> 8), byte(total)}
	hdr := make([]byte, headerLength)
	hdr[0] = 0x01
	binary.LittleEndian.PutUint16(hdr[2:], uint16(headerLength))
	b = append(b, hdr...)
	b = binary.LittleEndian.AppendUint32(b, payloadSize)
	return append(b, first...)
}

func chainedSegment(data []byte) []byte {
	l := len(data) + 2
	return append([]byte{MarkerPrefix, MarkerAPP4, byte(l >> 8), byte(l)}, data...)
}

// buildFrame wraps first and chained data into a frame whose payload size
// covers exactly the first chunk and every chained segment.
func buildFrame(headerLength int, first []byte, chained ...[]byte) []byte {
	size := len(first)
	for _, c := range chained {
		size += 4 + len(c)
	}
	frame := append([]byte{}, soi...)
	frame = append(frame, vendorSegment(headerLength, uint32(size), first)...)
	for _, c := range chained {
		frame = append(frame, chainedSegment(c)...)
	}
	return append(frame, eoi...)
}

func pattern(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return b
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

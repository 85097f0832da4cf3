// Package uvch264test builds MJPEG frames carrying H.264 in APP4 segments,
// laid out the way UVC 1.1 cameras send them.
package uvch264test

import (
	"encoding/binary"

	"github.com/Eyevinn/mjpeg-h264-tools/internal/uvch264"
)

// HeaderLength is the vendor header size used by Frame.
const HeaderLength = 22

// Parameter sets of a High profile stream.
var (
	SPS = []byte{
		0x27, 0x64, 0x00, 0x20, 0xac, 0x2b, 0x40, 0x28, 0x02, 0xdd, 0x80, 0x88,
		0x00, 0x00, 0x03, 0x00, 0x08, 0x00, 0x00, 0x03, 0x03, 0x27, 0x42, 0x00,
		0x14, 0x58, 0x00, 0x05, 0x10, 0xed, 0xef, 0x7c, 0x1d, 0xa1, 0xc3, 0x2a,
	}
	PPS = []byte{0x28, 0xee, 0x3c, 0xb0}
	IDR = []byte{0x25, 0xb8, 0x20, 0x00, 0xcb, 0xff, 0xd9, 0x07}
	P   = []byte{0x21, 0x9a, 0x02, 0x0c, 0x01}
)

var startCode = []byte{0x00, 0x00, 0x00, 0x01}

// AnnexB joins nalus with 4-byte start codes.
func AnnexB(nalus ...[]byte) []byte {
	var out []byte
	for _, n := range nalus {
		out = append(out, startCode...)
		out = append(out, n...)
	}
	return out
}

// Frame wraps au in a JPEG frame. The first APP4 segment and every chained
// one carry at most chunk bytes.
func Frame(au []byte, chunk int) []byte {
	first := au
	var chained [][]byte
	if len(au) > chunk {
		first = au[:chunk]
		for rest := au[chunk:]; len(rest) > 0; {
			n := chunk
			if n > len(rest) {
				n = len(rest)
			}
			chained = append(chained, rest[:n])
			rest = rest[n:]
		}
	}

	size := len(first)
	for _, c := range chained {
		size += 4 + len(c)
	}
	total := HeaderLength + len(first) + 6
	frame := []byte{0xFF, 0xD8, uvch264.MarkerPrefix, uvch264.MarkerAPP4, byte(total >> 8), byte(total)}
	hdr := make([]byte, HeaderLength)
	binary.LittleEndian.PutUint16(hdr[0:], 0x0100)
	binary.LittleEndian.PutUint16(hdr[2:], HeaderLength)
	frame = append(frame, hdr...)
	frame = binary.LittleEndian.AppendUint32(frame, uint32(size))
	frame = append(frame, first...)
	for _, c := range chained {
		l := len(c) + 2
		frame = append(frame, uvch264.MarkerPrefix, uvch264.MarkerAPP4, byte(l>>8), byte(l))
		frame = append(frame, c...)
	}
	return append(frame, 0xFF, 0xD9)
}

// PlainFrame is a JPEG frame without any APP4 segment.
func PlainFrame() []byte {
	return []byte{
		0xFF, 0xD8,
		0xFF, 0xE0, 0x00, 0x06, 'J', 'F', 'I', 'F',
		0xFF, 0xDA, 0x00, 0x02, 0x12, 0x34, 0xFF, 0x00, 0x56,
		0xFF, 0xD9,
	}
}

// Stream builds a GOP: the first frame holds SPS, PPS and an IDR slice, the
// following n-1 frames one P slice each.
func Stream(n, chunk int) (stream []byte, aus [][]byte) {
	for i := 0; i < n; i++ {
		au := AnnexB(P)
		if i == 0 {
			au = AnnexB(SPS, PPS, IDR)
		}
		aus = append(aus, au)
		stream = append(stream, Frame(au, chunk)...)
	}
	return stream, aus
}

// Package mjpeg splits a concatenated MJPEG byte stream into JPEG frames.
package mjpeg

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerTEM  = 0x01
	markerRST0 = 0xD0
	markerRST7 = 0xD7
)

var (
	jpegHeader  = []byte{0xFF, markerSOI}
	jpegTrailer = []byte{0xFF, markerEOI}
)

// DefaultMaxFrameSize bounds a single frame when reading with NewScanner.
const DefaultMaxFrameSize = 16 << 20

// NewScanner returns a scanner that yields one JPEG frame per token.
func NewScanner(r io.Reader, maxFrameSize int) *bufio.Scanner {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	initial := 64 * 1024
	if initial > maxFrameSize {
		initial = maxFrameSize
	}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, initial), maxFrameSize)
	s.Split(SplitFunc)
	return s
}

// SplitFunc is a bufio.SplitFunc returning frames from SOI through EOI.
//
// Marker segments are skipped by their declared length, so an FF D9 pair
// inside segment data (such as H.264 carried in APP4) does not end a frame.
// Bytes before the first SOI are discarded. At EOF an unterminated frame is
// returned as is.
func SplitFunc(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	start := bytes.Index(data, jpegHeader)
	if start < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// Keep a trailing 0xFF, it may start the next SOI.
		if n := len(data) - 1; n > 0 {
			return n, nil, nil
		}
		return 0, nil, nil
	}
	if start > 0 {
		return start, nil, nil
	}

	if end, ok := frameEnd(data); ok {
		return end, data[:end], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	// Request more data.
	return 0, nil, nil
}

// frameEnd walks the marker segments of the frame at the start of data and
// returns the offset just past its end.
func frameEnd(data []byte) (int, bool) {
	pos := len(jpegHeader)
	for pos+2 <= len(data) {
		if data[pos] != 0xFF {
			return scanTrailer(data, pos)
		}
		marker := data[pos+1]
		switch {
		case marker == 0xFF:
			// fill byte
			pos++
			continue
		case marker == markerEOI:
			return pos + 2, true
		case marker == markerSOI:
			// A new frame started before this one ended.
			return pos, true
		case marker == markerTEM, marker >= markerRST0 && marker <= markerRST7:
			pos += 2
			continue
		}

		if pos+4 > len(data) {
			return 0, false
		}
		length := int(binary.BigEndian.Uint16(data[pos+2:]))
		if length < 2 {
			return scanTrailer(data, pos+2)
		}
		segEnd := pos + 2 + length
		if segEnd > len(data) {
			return 0, false
		}
		if marker != markerSOS {
			pos = segEnd
			continue
		}

		next, ok := skipEntropyCoded(data, segEnd)
		if !ok {
			return 0, false
		}
		pos = next
	}
	return 0, false
}

// skipEntropyCoded returns the offset of the first marker after scan data
// starting at pos. Stuffed zeros and restart markers belong to the scan.
func skipEntropyCoded(data []byte, pos int) (int, bool) {
	for i := pos; i+1 < len(data); i++ {
		if data[i] != 0xFF {
			continue
		}
		b := data[i+1]
		if b == 0x00 || b == 0xFF || (b >= markerRST0 && b <= markerRST7) {
			continue
		}
		return i, true
	}
	return 0, false
}

func scanTrailer(data []byte, pos int) (int, bool) {
	if i := bytes.Index(data[pos:], jpegTrailer); i >= 0 {
		return pos + i + 2, true
	}
	return 0, false
}

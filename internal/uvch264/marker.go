// Package uvch264 demuxes H.264 that UVC cameras tunnel inside MJPEG frames.
//
// Such cameras emit a regular JPEG image and append the H.264 access unit in one
// or more APP4 segments. The first segment carries a small vendor header:
//
//	FF E4 | total length (BE16) | header (header length bytes) | payload size (LE32) | data...
//
// where the header length is stored little-endian in header bytes 2-3. When the
// payload does not fit in one segment it continues in further APP4 segments,
// each prefixed by FF E4 and a big-endian length that counts itself.
package uvch264

const (
	// MarkerPrefix is the first byte of every JPEG marker.
	MarkerPrefix byte = 0xFF
	// MarkerAPP4 is the JPEG application segment used by the camera for H.264.
	MarkerAPP4 byte = 0xE4
	// MaxSegmentSize is the largest first-segment length that is copied.
	MaxSegmentSize = 64 * 1024
)

var app4Marker = []byte{MarkerPrefix, MarkerAPP4}

// Locate returns the offset just past the first APP4 marker in frame.
func Locate(frame []byte) (int, error) {
	for i := 0; i < len(frame)-2; i++ {
		if frame[i] == MarkerPrefix && frame[i+1] == MarkerAPP4 {
			return i + 2, nil
		}
	}
	return 0, newError(KindMarkerNotFound, "locate", len(frame))
}

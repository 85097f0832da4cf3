package mjpeg

import (
	"bytes"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

// testFrame returns a small JPEG whose APP4 segment and scan data both
// contain byte pairs that look like markers.
func testFrame(id byte) []byte {
	f := []byte{0xFF, 0xD8}
	f = append(f, 0xFF, 0xE0, 0x00, 0x06, 'J', 'F', 'I', 'F')
	f = append(f, 0xFF, 0xE4, 0x00, 0x08, id, 0xFF, 0xD9, 0xFF, 0xD8, 0x00)
	f = append(f, 0xFF, 0xDA, 0x00, 0x04, 0x01, 0x02)
	f = append(f, 0x12, 0xFF, 0x00, 0x34, 0xFF, 0xD0, 0x56, 0xFF, 0xFF, 0xD9)
	return f
}

func scanAll(t *testing.T, s interface {
	Scan() bool
	Bytes() []byte
	Err() error
}) [][]byte {
	t.Helper()
	var frames [][]byte
	for s.Scan() {
		frames = append(frames, append([]byte(nil), s.Bytes()...))
	}
	require.NoError(t, s.Err())
	return frames
}

func TestSplitFrames(t *testing.T) {
	f1, f2 := testFrame(1), testFrame(2)

	cases := []struct {
		name  string
		input []byte
		want  [][]byte
	}{
		{"single", f1, [][]byte{f1}},
		{"two frames", append(append([]byte{}, f1...), f2...), [][]byte{f1, f2}},
		{"leading garbage", append([]byte{0x00, 0xFF, 0x17}, f1...), [][]byte{f1}},
		{"garbage between frames", append(append(append([]byte{}, f1...), 0xAA, 0xBB), f2...), [][]byte{f1, f2}},
		{"truncated last frame", append(append([]byte{}, f1...), f2[:20]...), [][]byte{f1, f2[:20]}},
		{"no frame", []byte{0x01, 0x02, 0x03}, nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := scanAll(t, NewScanner(bytes.NewReader(c.input), 0))
			require.Equal(t, c.want, got)

			got = scanAll(t, NewScanner(iotest.OneByteReader(bytes.NewReader(c.input)), 0))
			require.Equal(t, c.want, got, "byte-by-byte reads must give the same frames")
		})
	}
}

func TestSplitFrameWithoutEOI(t *testing.T) {
	f1 := testFrame(1)
	cut := f1[:len(f1)-2]
	input := append(append([]byte{}, cut...), testFrame(2)...)

	got := scanAll(t, NewScanner(bytes.NewReader(input), 0))
	require.Len(t, got, 2)
	require.Equal(t, cut, got[0])
	require.Equal(t, testFrame(2), got[1])
}

func TestSplitFrameTooLarge(t *testing.T) {
	s := NewScanner(bytes.NewReader(testFrame(1)), 8)
	require.False(t, s.Scan())
	require.Error(t, s.Err())
}

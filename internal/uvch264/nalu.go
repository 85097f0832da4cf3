package uvch264

import (
	"bytes"

	"github.com/Eyevinn/mp4ff/avc"
)

var startCode = []byte{0x00, 0x00, 0x00, 0x01}

// FindNALU finds the first NAL unit of type nalType that follows a 4-byte
// start code. start is the offset of the NAL header byte and end the offset of
// the next 4-byte start code, or len(buf).
func FindNALU(buf []byte, nalType avc.NaluType) (start, end int, ok bool) {
	for i := 0; i < len(buf)-5; i++ {
		if buf[i] != 0 || buf[i+1] != 0 || buf[i+2] != 0 || buf[i+3] != 1 {
			continue
		}
		if avc.GetNaluType(buf[i+4]) != nalType {
			continue
		}
		start = i + 4
		end = len(buf)
		if next := bytes.Index(buf[start+1:], startCode); next >= 0 {
			end = start + 1 + next
		}
		return start, end, true
	}
	return 0, 0, false
}

// ExtractNALU returns a copy of the first NAL unit of type nalType, header
// byte included and start code excluded.
func ExtractNALU(buf []byte, nalType avc.NaluType) ([]byte, error) {
	start, end, ok := FindNALU(buf, nalType)
	if !ok {
		return nil, newError(KindNALUNotFound, nalType.String(), len(buf))
	}
	nalu := make([]byte, end-start)
	copy(nalu, buf[start:end])
	return nalu, nil
}

package internal

import (
	"bytes"
	"fmt"

	"github.com/Eyevinn/mjpeg-h264-tools/internal/uvch264"
	"github.com/Eyevinn/mp4ff/avc"
)

const (
	ExtradataRaw    = "raw"
	ExtradataAnnexB = "annexb"
	ExtradataAVCC   = "avcc"
)

// EncodeExtradata renders the stream's parameter sets in the given format:
// raw (SPS, PPS, trailer byte), Annex-B or an AVCDecoderConfigurationRecord.
func EncodeExtradata(format string, sps, pps []byte) ([]byte, error) {
	switch format {
	case ExtradataRaw, "":
		return uvch264.BuildExtradata(sps, pps), nil
	case ExtradataAnnexB:
		return uvch264.AnnexBExtradata(sps, pps), nil
	case ExtradataAVCC:
		rec, err := avc.CreateAVCDecConfRec([][]byte{sps}, [][]byte{pps}, true)
		if err != nil {
			return nil, fmt.Errorf("creating AVC decoder config %w", err)
		}
		buf := bytes.Buffer{}
		if err := rec.Encode(&buf); err != nil {
			return nil, fmt.Errorf("encoding AVC decoder config %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown extradata format %q", format)
	}
}

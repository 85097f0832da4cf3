package internal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Comcast/gots/v2/packet"
	"github.com/Comcast/gots/v2/psi"
	"github.com/Eyevinn/mjpeg-h264-tools/internal/uvch264"
	"github.com/Eyevinn/mp4ff/avc"
	"github.com/asticode/go-astits"
)

const (
	VideoPID      = 256
	videoStreamID = 0xE0
)

// TSWriter muxes H.264 access units into an MPEG-TS with synthetic PTS.
type TSWriter struct {
	mx   *astits.Muxer
	pts  int64
	step int64
}

func NewTSWriter(ctx context.Context, w io.Writer, frameRate float64) (*TSWriter, error) {
	if frameRate <= 0 {
		return nil, fmt.Errorf("invalid frame rate %f", frameRate)
	}
	mx := astits.NewMuxer(ctx, w)
	err := mx.AddElementaryStream(astits.PMTElementaryStream{
		ElementaryPID: VideoPID,
		StreamType:    astits.StreamTypeH264Video,
	})
	if err != nil {
		return nil, fmt.Errorf("adding video stream %w", err)
	}
	mx.SetPCRPID(VideoPID)
	return &TSWriter{
		mx:   mx,
		pts:  TimeScale,
		step: int64(float64(TimeScale) / frameRate),
	}, nil
}

// WriteAccessUnit writes one Annex-B access unit as a PES packet. Access
// units holding an IDR slice are flagged as random access points.
func (t *TSWriter) WriteAccessUnit(data []byte) error {
	_, _, idr := uvch264.FindNALU(data, avc.NALU_IDR)
	_, err := t.mx.WriteData(&astits.MuxerData{
		PID:             VideoPID,
		AdaptationField: &astits.PacketAdaptationField{RandomAccessIndicator: idr},
		PES: &astits.PESData{
			Header: &astits.PESHeader{
				OptionalHeader: &astits.PESOptionalHeader{
					MarkerBits:      2,
					PTSDTSIndicator: astits.PTSDTSIndicatorOnlyPTS,
					PTS:             &astits.ClockReference{Base: t.pts},
				},
				StreamID: videoStreamID,
			},
			Data: data,
		},
	})
	if err != nil {
		return fmt.Errorf("writing PES %w", err)
	}
	t.pts = AddPTS(t.pts, t.step)
	return nil
}

type ElementaryStreamInfo struct {
	PID   uint16 `json:"pid"`
	Codec string `json:"codec"`
	Type  string `json:"type"`
}

func ParseElementaryStreamInfo(es psi.PmtElementaryStream) *ElementaryStreamInfo {
	pid := uint16(es.ElementaryPid())
	switch es.StreamType() {
	case psi.PmtStreamTypeMpeg4VideoH264:
		return &ElementaryStreamInfo{PID: pid, Codec: "AVC", Type: "video"}
	case psi.PmtStreamTypeMpeg4VideoH265:
		return &ElementaryStreamInfo{PID: pid, Codec: "HEVC", Type: "video"}
	case psi.PmtStreamTypeAac:
		return &ElementaryStreamInfo{PID: pid, Codec: "AAC", Type: "audio"}
	}
	return nil
}

// ReadTSStreamInfo reads back the PAT and PMTs at the start of a transport
// stream and lists the elementary streams it announces.
func ReadTSStreamInfo(r io.Reader) ([]ElementaryStreamInfo, error) {
	reader := bufio.NewReader(r)
	_, err := packet.Sync(reader)
	if err != nil {
		return nil, fmt.Errorf("syncing with reader %w", err)
	}
	pat, err := psi.ReadPAT(reader)
	if err != nil {
		return nil, fmt.Errorf("reading PAT %w", err)
	}

	var infos []ElementaryStreamInfo
	for _, pid := range pat.ProgramMap() {
		pmt, err := psi.ReadPMT(reader, pid)
		if err != nil {
			return nil, fmt.Errorf("reading PMT %w", err)
		}
		for _, es := range pmt.ElementaryStreams() {
			if info := ParseElementaryStreamInfo(es); info != nil {
				infos = append(infos, *info)
			}
		}
	}
	return infos, nil
}

// PrintTSStreamInfo prints the elementary streams of the TS file written by
// Demux.
func PrintTSStreamInfo(w io.Writer, file string, o Options) error {
	fh, err := os.Open(file)
	if err != nil {
		return err
	}
	defer fh.Close()
	infos, err := ReadTSStreamInfo(fh)
	if err != nil {
		return err
	}
	jp := NewJsonPrinter(w, o)
	for _, info := range infos {
		jp.Print(info, true)
	}
	return jp.Error()
}

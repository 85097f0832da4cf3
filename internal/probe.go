package internal

import (
	"fmt"
	"os"

	"github.com/Eyevinn/mjpeg-h264-tools/internal/uvcx"
)

type ProbeInfo struct {
	Width           uint16  `json:"width"`
	Height          uint16  `json:"height"`
	FrameRate       float64 `json:"frameRate,omitempty"`
	BitRate         uint32  `json:"bitRate"`
	Profile         string  `json:"profile"`
	IFramePeriod    uint16  `json:"iFramePeriodMs"`
	Hints           string  `json:"hints,omitempty"`
	StreamMuxOption uint8   `json:"streamMuxOption"`
	MuxesH264       bool    `json:"muxesH264"`
	Details         any     `json:"details,omitempty"`
}

// ReadProbeFile decodes a dumped VIDEO_CONFIG_PROBE/COMMIT payload.
func ReadProbeFile(file string) (*uvcx.ProbeCommit, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading probe file %w", err)
	}
	p := &uvcx.ProbeCommit{}
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return p, nil
}

func ToProbeInfo(p *uvcx.ProbeCommit, verbose bool) ProbeInfo {
	info := ProbeInfo{
		Width:           p.Width,
		Height:          p.Height,
		BitRate:         p.BitRate,
		Profile:         fmt.Sprintf("0x%04x", p.Profile),
		IFramePeriod:    p.IFramePeriod,
		Hints:           p.Hints.String(),
		StreamMuxOption: p.StreamMuxOption,
		MuxesH264:       p.MuxesH264(),
	}
	if p.FrameInterval > 0 {
		info.FrameRate = 1e7 / float64(p.FrameInterval)
	}
	if verbose {
		info.Details = p
	}
	return info
}

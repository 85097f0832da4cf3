// Package uvcx holds the UVC 1.1 H.264 extension unit structures used to
// negotiate an H.264 stream muxed into MJPEG.
package uvcx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

// ControlSelector identifies an H.264 extension unit control.
type ControlSelector uint8

const (
	VideoConfigProbe     ControlSelector = 0x01
	VideoConfigCommit    ControlSelector = 0x02
	RateControlMode      ControlSelector = 0x03
	TemporalScaleMode    ControlSelector = 0x04
	SpatialScaleMode     ControlSelector = 0x05
	SNRScaleMode         ControlSelector = 0x06
	LTRBufferSizeControl ControlSelector = 0x07
	LTRPictureControl    ControlSelector = 0x08
	PictureTypeControl   ControlSelector = 0x09
	Version              ControlSelector = 0x0A
	EncoderReset         ControlSelector = 0x0B
	FramerateConfig      ControlSelector = 0x0C
	VideoAdvanceConfig   ControlSelector = 0x0D
	BitrateLayers        ControlSelector = 0x0E
	QPStepsLayers        ControlSelector = 0x0F
)

// Hints is the bmHints bitmap telling the camera which fields to honour.
type Hints uint16

const (
	HintResolution Hints = 1 << iota
	HintProfile
	HintRateControl
	HintUsage
	HintSliceMode
	HintSliceUnits
	HintMVCView
	HintTemporal
	HintSNR
	HintSpatial
	HintSpatialRatio
	HintFrameInterval
	HintLeakyBucketSize
	HintBitrate
	HintEntropy
	HintIFramePeriod
)

var hintNames = []string{
	"resolution", "profile", "rateControl", "usage", "sliceMode", "sliceUnits",
	"mvcView", "temporal", "snr", "spatial", "spatialRatio", "frameInterval",
	"leakyBucketSize", "bitrate", "entropy", "iFramePeriod",
}

func (h Hints) String() string {
	var names []string
	for i, name := range hintNames {
		if h&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// bStreamMuxOption bits.
const (
	MuxEnable         uint8 = 0x01
	MuxH264           uint8 = 0x02
	MuxYUY2           uint8 = 0x04
	MuxNV12           uint8 = 0x08
	MuxMJPEGContainer uint8 = 0x40
)

// ProbeCommitSize is the wire size of ProbeCommit.
const ProbeCommitSize = 46

// ProbeCommit is the VIDEO_CONFIG_PROBE / VIDEO_CONFIG_COMMIT payload, sent
// packed and little-endian.
type ProbeCommit struct {
	FrameInterval           uint32 // 100 ns units
	BitRate                 uint32
	Hints                   Hints
	ConfigurationIndex      uint16
	Width                   uint16
	Height                  uint16
	SliceUnits              uint16
	SliceMode               uint16
	Profile                 uint16
	IFramePeriod            uint16 // ms
	EstimatedVideoDelay     uint16
	EstimatedMaxConfigDelay uint16
	UsageType               uint8
	RateControlMode         uint8
	TemporalScaleMode       uint8
	SpatialScaleMode        uint8
	SNRScaleMode            uint8
	StreamMuxOption         uint8
	StreamFormat            uint8
	EntropyCABAC            uint8
	Timestamp               uint8
	NumOfReorderFrames      uint8
	PreviewFlipped          uint8
	View                    uint8
	Reserved1               uint8
	Reserved2               uint8
	StreamID                uint8
	SpatialLayerRatio       uint8
	LeakyBucketSize         uint16
}

// UnmarshalBinary decodes a probe/commit payload.
func (p *ProbeCommit) UnmarshalBinary(data []byte) error {
	if len(data) < ProbeCommitSize {
		return fmt.Errorf("probe/commit payload is %d bytes, want %d", len(data), ProbeCommitSize)
	}
	return binary.Read(bytes.NewReader(data[:ProbeCommitSize]), binary.LittleEndian, p)
}

// MarshalBinary encodes p in wire format.
func (p *ProbeCommit) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, ProbeCommitSize))
	if err := binary.Write(buf, binary.LittleEndian, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Interval returns the frame interval as a duration.
func (p *ProbeCommit) Interval() time.Duration {
	return time.Duration(p.FrameInterval) * 100 * time.Nanosecond
}

// MuxesH264 reports whether the camera is asked to mux H.264 into the MJPEG
// stream, which is what the APP4 demuxer consumes.
func (p *ProbeCommit) MuxesH264() bool {
	return p.StreamMuxOption&MuxEnable != 0 && p.StreamMuxOption&MuxH264 != 0
}

// EncoderResetPayload is the ENCODER_RESET control payload.
type EncoderResetPayload struct {
	LayerID uint16
}

func (e EncoderResetPayload) MarshalBinary() ([]byte, error) {
	return binary.LittleEndian.AppendUint16(nil, e.LayerID), nil
}

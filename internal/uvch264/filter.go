package uvch264

import (
	"github.com/Eyevinn/mp4ff/avc"
	"github.com/sirupsen/logrus"
)

// Packet is the output of one Filter call.
type Packet struct {
	// Data is the reassembled H.264 access unit.
	Data    []byte
	Clamped bool
	// Err is set when the frame was only partially reassembled.
	Err error
	// Extradata is non-nil on exactly one packet per stream: the first one
	// after which both SPS and PPS are known.
	Extradata []byte
}

// Stats counts what a Filter has seen since creation or the last Reset.
type Stats struct {
	Frames   int   `json:"frames"`
	Dropped  int   `json:"dropped"`
	Degraded int   `json:"degraded"`
	Clamped  int   `json:"clamped"`
	BytesIn  int64 `json:"bytesIn"`
	BytesOut int64 `json:"bytesOut"`
}

// Filter demuxes the frames of one stream and caches its parameter sets.
// A Filter is not safe for concurrent use; give each stream its own.
type Filter struct {
	r         reassembler
	sps       []byte
	pps       []byte
	extradata []byte
	stats     Stats
}

// Option configures a Filter.
type Option func(*Filter)

// WithLogger sets where diagnostics go. The default discards them.
func WithLogger(log logrus.FieldLogger) Option {
	return func(f *Filter) {
		f.r.log = log
	}
}

// WithAllocator replaces the output buffer allocator.
func WithAllocator(alloc Allocator) Option {
	return func(f *Filter) {
		f.r.alloc = alloc
	}
}

// WithStrict makes size overruns fail the frame instead of being clipped.
func WithStrict(strict bool) Option {
	return func(f *Filter) {
		f.r.strict = strict
	}
}

func NewFilter(opts ...Option) *Filter {
	f := &Filter{
		r: reassembler{log: discardLogger(), alloc: makeAllocator},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Reassemble joins the APP4 payload of frame starting at start, logging
// through the filter's logger.
func (f *Filter) Reassemble(frame []byte, start int) (*Payload, error) {
	return f.r.reassemble(frame, start)
}

// Filter turns one MJPEG frame into an H.264 packet. An error means the frame
// must be dropped; partial results are reported in Packet.Err instead.
func (f *Filter) Filter(frame []byte) (*Packet, error) {
	f.stats.Frames++
	f.stats.BytesIn += int64(len(frame))

	start, err := Locate(frame)
	if err != nil {
		f.stats.Dropped++
		f.r.log.WithField("frame_size", len(frame)).Error("could not find APP4 marker in bitstream")
		return nil, err
	}
	payload, err := f.r.reassemble(frame, start)
	if err != nil {
		f.stats.Dropped++
		return nil, err
	}

	pkt := &Packet{Data: payload.Data, Clamped: payload.Clamped, Err: payload.Err}
	if payload.Err != nil {
		f.stats.Degraded++
	}
	if payload.Clamped {
		f.stats.Clamped++
	}
	f.stats.BytesOut += int64(len(payload.Data))

	if f.extradata == nil {
		f.collectParameterSets(payload.Data)
		if f.sps != nil && f.pps != nil {
			f.extradata = BuildExtradata(f.sps, f.pps)
			pkt.Extradata = f.extradata
			f.r.log.WithFields(logrus.Fields{
				"sps_size": len(f.sps),
				"pps_size": len(f.pps),
			}).Info("extradata ready")
		}
	}
	return pkt, nil
}

func (f *Filter) collectParameterSets(data []byte) {
	if f.sps == nil {
		sps, err := ExtractNALU(data, avc.NALU_SPS)
		if err != nil {
			f.r.log.WithError(err).Debug("no SPS in frame")
		} else if len(sps) > 0 {
			f.sps = sps
		}
	}
	if f.pps == nil {
		pps, err := ExtractNALU(data, avc.NALU_PPS)
		if err != nil {
			f.r.log.WithError(err).Debug("no PPS in frame")
		} else if len(pps) > 0 {
			f.pps = pps
		}
	}
}

// SPS returns the cached sequence parameter set, header byte included.
func (f *Filter) SPS() []byte {
	return f.sps
}

// PPS returns the cached picture parameter set, header byte included.
func (f *Filter) PPS() []byte {
	return f.pps
}

// Extradata returns the initialization blob, or nil until both parameter sets
// have been seen.
func (f *Filter) Extradata() []byte {
	return f.extradata
}

func (f *Filter) Stats() Stats {
	return f.stats
}

// Reset drops the cached parameter sets and counters.
func (f *Filter) Reset() {
	f.sps = nil
	f.pps = nil
	f.extradata = nil
	f.stats = Stats{}
}

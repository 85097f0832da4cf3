package internal

import (
	"github.com/Eyevinn/mjpeg-h264-tools/internal/uvch264"
)

type StreamStatistics struct {
	Type     string `json:"streamType"`
	Frames   int    `json:"frames"`
	Dropped  int    `json:"dropped"`
	Degraded int    `json:"degraded"`
	Clamped  int    `json:"clamped"`
	BytesIn  int64  `json:"bytesIn"`
	BytesOut int64  `json:"bytesOut"`
	// H.264 access unit sizes
	Sizes   []int64 `json:"-"`
	MinSize int64   `json:"minSize,omitempty"`
	MaxSize int64   `json:"maxSize,omitempty"`
	AvgSize int64   `json:"avgSize,omitempty"`
	// Errors
	Errors []string `json:"errors,omitempty"`
}

func NewStreamStatistics() *StreamStatistics {
	return &StreamStatistics{Type: "AVC"}
}

// AddPacket records the size of one reassembled access unit.
func (s *StreamStatistics) AddPacket(pkt *uvch264.Packet) {
	s.Sizes = append(s.Sizes, int64(len(pkt.Data)))
}

// Finalize copies the filter counters and derives size figures and errors.
func (s *StreamStatistics) Finalize(fs uvch264.Stats, haveExtradata bool) {
	s.Frames = fs.Frames
	s.Dropped = fs.Dropped
	s.Degraded = fs.Degraded
	s.Clamped = fs.Clamped
	s.BytesIn = fs.BytesIn
	s.BytesOut = fs.BytesOut
	s.MinSize, s.MaxSize, s.AvgSize = sliceMinMaxAverage(s.Sizes)

	if s.Frames == 0 {
		s.Errors = append(s.Errors, "no MJPEG frames found")
		return
	}
	if s.Dropped > 0 {
		s.Errors = append(s.Errors, "frames without APP4 H.264 payload dropped")
	}
	if s.Degraded > 0 {
		s.Errors = append(s.Errors, "frames with broken APP4 segment chain")
	}
	if !haveExtradata {
		s.Errors = append(s.Errors, "no SPS/PPS found")
	}
}

func (p *JsonPrinter) PrintStatistics(s StreamStatistics, show bool) {
	p.Print(s, show)
}

func sliceMinMaxAverage(values []int64) (min, max, avg int64) {
	if len(values) == 0 {
		return 0, 0, 0
	}

	min = values[0]
	max = values[0]
	sum := int64(0)
	for _, number := range values {
		if number < min {
			min = number
		}
		if number > max {
			max = number
		}
		sum += number
	}
	avg = sum / int64(len(values))
	return min, max, avg
}

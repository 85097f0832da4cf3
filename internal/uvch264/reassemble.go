package uvch264

import (
	"encoding/binary"
	"io"

	"github.com/sirupsen/logrus"
)

// controlBytes are the APP4 length field and the LE32 payload size, which
// total_length counts but which do not belong to the first segment's data.
const controlBytes = 6

// Header is the vendor header found right after the first APP4 marker.
type Header struct {
	TotalLength  uint16
	HeaderLength uint16
	PayloadSize  uint32
	// PayloadStart and PayloadEnd are frame offsets. PayloadEnd is clamped to
	// the frame length, in which case Clamped is set.
	PayloadStart int
	PayloadEnd   int
	Clamped      bool
}

// FirstSegmentLength is the number of payload bytes carried by the first APP4
// segment. It is negative for inconsistent headers.
func (h Header) FirstSegmentLength() int {
	return int(h.TotalLength) - int(h.HeaderLength) - controlBytes
}

// ParseHeader reads the vendor header at start, the offset just past the APP4
// marker. Every field must lie inside frame.
func ParseHeader(frame []byte, start int) (Header, error) {
	var h Header
	if start < 0 || start+2 > len(frame) {
		return h, newError(KindStructuralMismatch, "total length", start)
	}
	h.TotalLength = binary.BigEndian.Uint16(frame[start:])

	header := start + 2
	if header+4 > len(frame) {
		return h, newError(KindStructuralMismatch, "header length", header+2)
	}
	h.HeaderLength = binary.LittleEndian.Uint16(frame[header+2:])

	sizeOffset := header + int(h.HeaderLength)
	if sizeOffset+4 > len(frame) {
		return h, newError(KindStructuralMismatch, "payload size", sizeOffset)
	}
	h.PayloadSize = binary.LittleEndian.Uint32(frame[sizeOffset:])

	h.PayloadStart = sizeOffset + 4
	if int64(h.PayloadStart)+int64(h.PayloadSize) > int64(len(frame)) {
		h.PayloadEnd = len(frame)
		h.Clamped = true
	} else {
		h.PayloadEnd = h.PayloadStart + int(h.PayloadSize)
	}
	return h, nil
}

// Payload is a reassembled H.264 buffer.
type Payload struct {
	Data []byte
	// Clamped is set when a declared size ran past the available bytes and
	// the copy was cut at the boundary.
	Clamped bool
	// Err is set when reassembly stopped early. Data then holds the bytes
	// copied up to the failure.
	Err error
}

// Allocator returns a zero-length buffer with at least size bytes of capacity.
type Allocator func(size int) ([]byte, error)

func makeAllocator(size int) ([]byte, error) {
	return make([]byte, 0, size), nil
}

type reassembler struct {
	log    logrus.FieldLogger
	alloc  Allocator
	strict bool
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Reassemble joins the APP4-chained H.264 payload of frame. start is the offset
// returned by Locate. Nothing is logged; use a Filter for diagnostics.
func Reassemble(frame []byte, start int) (*Payload, error) {
	r := reassembler{log: discardLogger(), alloc: makeAllocator}
	return r.reassemble(frame, start)
}

func (r *reassembler) reassemble(frame []byte, start int) (*Payload, error) {
	log := r.log.WithField("frame_size", len(frame))

	hdr, err := ParseHeader(frame, start)
	if err != nil {
		log.WithError(err).Error("cannot read vendor header")
		return nil, err
	}
	if hdr.Clamped {
		log := log.WithFields(logrus.Fields{
			"offset":       hdr.PayloadStart,
			"payload_size": hdr.PayloadSize,
		})
		if r.strict {
			log.Error("payload size bigger than buffer")
			return nil, newError(KindBufferOverrun, "payload size", hdr.PayloadStart)
		}
		log.Warn("payload size bigger than buffer, clipped to buffer size")
	}

	buf, err := r.alloc(len(frame))
	if err != nil {
		return nil, &Error{Kind: KindAllocation, Op: "reassemble", Offset: len(frame), Err: err}
	}
	if cap(buf) < len(frame) {
		return nil, newError(KindAllocation, "reassemble", cap(buf))
	}
	p := &Payload{Data: buf[:0], Clamped: hdr.Clamped}

	sp, end := hdr.PayloadStart, hdr.PayloadEnd

	if first := hdr.FirstSegmentLength(); first >= 0 && first <= MaxSegmentSize {
		sp += r.copySegment(p, log, frame, sp, first, end)
		if p.Err != nil {
			return p, nil
		}
	} else {
		log.WithFields(logrus.Fields{
			"offset":         hdr.PayloadStart,
			"segment_length": first,
		}).Warn("first segment length out of range, skipped")
	}

	for sp < end {
		if end-sp < 4 {
			e := newError(KindStructuralMismatch, "segment", sp)
			log.WithFields(logrus.Fields{
				"offset":    sp,
				"remaining": end - sp,
			}).Warn("payload ended unexpectedly")
			p.Err = e
			break
		}
		if frame[sp] != MarkerPrefix || frame[sp+1] != MarkerAPP4 {
			e := newError(KindStructuralMismatch, "segment marker", sp)
			e.Expected = app4Marker
			e.Found = append([]byte(nil), frame[sp:sp+2]...)
			log.WithFields(logrus.Fields{
				"offset":   sp,
				"expected": e.Expected,
				"found":    e.Found,
			}).Warn("expected APP4 marker but none found")
			p.Err = e
			return p, nil
		}
		length := int(binary.BigEndian.Uint16(frame[sp+2:]))
		if length < 2 {
			log.WithFields(logrus.Fields{
				"offset":         sp + 2,
				"segment_length": length,
			}).Warn("segment length shorter than its own field")
			p.Err = newError(KindStructuralMismatch, "segment length", sp+2)
			return p, nil
		}
		length -= 2
		log.WithFields(logrus.Fields{
			"offset":         sp,
			"segment_length": length,
		}).Debug("chained segment")

		sp += 4
		sp += r.copySegment(p, log, frame, sp, length, end)
		if p.Err != nil {
			return p, nil
		}
	}

	if sp < end {
		log.WithFields(logrus.Fields{
			"offset": sp,
			"bytes":  end - sp,
		}).Warn("copying trailing segment bytes")
		p.Data = append(p.Data, frame[sp:end]...)
	}
	return p, nil
}

// copySegment appends up to length bytes of frame starting at sp, never
// reading at or past end. It returns the number of bytes copied.
func (r *reassembler) copySegment(p *Payload, log logrus.FieldLogger, frame []byte, sp, length, end int) int {
	n := length
	if sp+n > end {
		n = end - sp
		fields := logrus.Fields{
			"offset":         sp,
			"segment_length": length,
			"available":      n,
		}
		if r.strict {
			log.WithFields(fields).Error("segment runs past payload end")
			p.Err = newError(KindBufferOverrun, "segment", sp)
			return 0
		}
		log.WithFields(fields).Warn("segment runs past payload end, clipped")
		p.Clamped = true
	}
	p.Data = append(p.Data, frame[sp:sp+n]...)
	return n
}

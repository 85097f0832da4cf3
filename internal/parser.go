package internal

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mjpeg-h264-tools/internal/mjpeg"
	"github.com/Eyevinn/mjpeg-h264-tools/internal/uvch264"
	"github.com/sirupsen/logrus"
)

// FrameFunc is called once per MJPEG frame. pkt is nil and err set when the
// frame was dropped.
type FrameFunc func(nr int, frame []byte, pkt *uvch264.Packet, err error) error

// NewFilter creates a demux filter configured from o, logging to logOut.
func NewFilter(o Options, logOut io.Writer) (*uvch264.Filter, *logrus.Logger, error) {
	logger, err := NewLogger(o.LogLevel, o.LogFormat, logOut)
	if err != nil {
		return nil, nil, err
	}
	return uvch264.NewFilter(uvch264.WithLogger(logger), uvch264.WithStrict(o.Strict)), logger, nil
}

// ForEachFrame splits f into MJPEG frames, runs them through flt and hands
// the result to fn. It stops after o.MaxNrFrames frames if that is set.
func ForEachFrame(ctx context.Context, f io.Reader, o Options, flt *uvch264.Filter, fn FrameFunc) error {
	scanner := mjpeg.NewScanner(f, o.MaxFrameSize)
	nr := 0
	for scanner.Scan() {
		// Check if context was cancelled
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		frame := scanner.Bytes()
		pkt, err := flt.Filter(frame)
		if err := fn(nr, frame, pkt, err); err != nil {
			return err
		}
		nr++
		if o.MaxNrFrames > 0 && nr >= o.MaxNrFrames {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading MJPEG frames %w", err)
	}
	return nil
}

// Demux writes the H.264 carried in the MJPEG frames of f to videoOut, as a
// raw Annex-B stream or MPEG-TS, and prints statistics to textOut.
func Demux(ctx context.Context, textOut, videoOut io.Writer, f io.Reader, o Options) error {
	flt, _, err := NewFilter(o, os.Stderr)
	if err != nil {
		return err
	}
	var ts *TSWriter
	switch o.Format {
	case FormatH264, "":
	case FormatTS:
		ts, err = NewTSWriter(ctx, videoOut, o.FrameRate)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format %q", o.Format)
	}

	jp := NewJsonPrinter(textOut, o)
	stats := NewStreamStatistics()
	err = ForEachFrame(ctx, f, o, flt, func(nr int, frame []byte, pkt *uvch264.Packet, err error) error {
		if err != nil {
			// Dropped and logged by the filter.
			return nil
		}
		stats.AddPacket(pkt)
		if pkt.Extradata != nil && o.ExtradataOut != "" {
			if err := WriteExtradataFile(o.ExtradataOut, o.ExtradataFormat, flt.SPS(), flt.PPS()); err != nil {
				return err
			}
		}
		if len(pkt.Data) == 0 {
			return nil
		}
		if ts != nil {
			return ts.WriteAccessUnit(pkt.Data)
		}
		if _, err := videoOut.Write(pkt.Data); err != nil {
			return fmt.Errorf("writing H.264 %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	stats.Finalize(flt.Stats(), flt.Extradata() != nil)
	jp.PrintStatistics(*stats, o.ShowStatistics)
	return jp.Error()
}

// WriteExtradataFile writes the parameter sets to file in the given format.
func WriteExtradataFile(file, format string, sps, pps []byte) error {
	data, err := EncodeExtradata(format, sps, pps)
	if err != nil {
		return err
	}
	if err := os.WriteFile(file, data, 0644); err != nil {
		return fmt.Errorf("writing extradata %w", err)
	}
	return nil
}

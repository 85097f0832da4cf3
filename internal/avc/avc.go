package avc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Eyevinn/mjpeg-h264-tools/internal"
	"github.com/Eyevinn/mjpeg-h264-tools/internal/uvch264"
	"github.com/Eyevinn/mp4ff/avc"
	"github.com/Eyevinn/mp4ff/sei"
	"github.com/sirupsen/logrus"
)

// errExtradataDone stops the pslister once the parameter sets are known.
var errExtradataDone = errors.New("extradata done")

type AvcPS struct {
	spss    map[uint32]*avc.SPS
	ppss    map[uint32]*avc.PPS
	spsnalu []byte
	ppsnalu []byte
}

func (a *AvcPS) getSPS() *avc.SPS {
	for _, sps := range a.spss {
		return sps
	}
	return nil
}

func (a *AvcPS) setSPS(nalu []byte) error {
	if a.spss == nil {
		a.spss = make(map[uint32]*avc.SPS, 1)
		a.ppss = make(map[uint32]*avc.PPS, 1)
	}
	a.spsnalu = nalu
	sps, err := avc.ParseSPSNALUnit(nalu, true)
	if err != nil {
		return err
	}
	a.spss[sps.ParameterID] = sps
	return nil
}

func (a *AvcPS) setPPS(nalu []byte) error {
	a.ppsnalu = nalu
	if a.ppss == nil {
		a.ppss = make(map[uint32]*avc.PPS, 1)
	}
	pps, err := avc.ParsePPSNALUnit(nalu, a.spss)
	if err != nil {
		return err
	}
	a.ppss[pps.PicParameterSetID] = pps
	return nil
}

// set parses the parameter sets the filter captured. Parse failures are
// logged; the raw bytes are kept and printed without details.
func (a *AvcPS) set(sps, pps []byte, log logrus.FieldLogger) {
	if err := a.setSPS(sps); err != nil {
		log.WithError(err).Warn("could not parse SPS")
	}
	if err := a.setPPS(pps); err != nil {
		log.WithError(err).Warn("could not parse PPS")
	}
}

func (a *AvcPS) print(jp *internal.JsonPrinter, frame int, o internal.Options) {
	var spsNr, ppsNr uint32
	var spsDetails, ppsDetails any
	if sps := a.getSPS(); sps != nil {
		spsNr, spsDetails = sps.ParameterID, sps
	}
	for nr, pps := range a.ppss {
		ppsNr, ppsDetails = nr, pps
	}
	jp.PrintPS(frame, "SPS", spsNr, a.spsnalu, spsDetails, o.VerbosePSInfo, o.ShowPS)
	jp.PrintPS(frame, "PPS", ppsNr, a.ppsnalu, ppsDetails, o.VerbosePSInfo, o.ShowPS)
}

// ParseAll prints one line per MJPEG frame listing the NAL units found in
// its APP4 payload, plus the parameter sets when they first show up.
func ParseAll(ctx context.Context, w io.Writer, f io.Reader, o internal.Options) error {
	flt, log, err := internal.NewFilter(o, os.Stderr)
	if err != nil {
		return err
	}
	jp := internal.NewJsonPrinter(w, o)
	stats := internal.NewStreamStatistics()
	filter := internal.ParseNaluTypesFromString(o.NaluTypes)
	ps := &AvcPS{}

	err = internal.ForEachFrame(ctx, f, o, flt, func(nr int, frame []byte, pkt *uvch264.Packet, err error) error {
		fd := internal.FrameData{Nr: nr, Size: len(frame)}
		if err != nil {
			fd.Dropped = true
			fd.Error = err.Error()
			jp.Print(fd, o.ShowFrames)
			return jp.Error()
		}
		stats.AddPacket(pkt)
		if pkt.Extradata != nil {
			ps.set(flt.SPS(), flt.PPS(), log)
			ps.print(jp, nr, o)
		}
		fd.H264Size = len(pkt.Data)
		fd.Clamped = pkt.Clamped
		if pkt.Err != nil {
			fd.Error = pkt.Err.Error()
		}
		fd.ImgType, fd.NALUS = parseNalus(pkt.Data, ps, filter, o, log)
		jp.Print(fd, o.ShowFrames)
		return jp.Error()
	})
	if err != nil {
		return err
	}

	stats.Finalize(flt.Stats(), flt.Extradata() != nil)
	jp.PrintStatistics(*stats, o.ShowStatistics)
	return jp.Error()
}

func parseNalus(data []byte, ps *AvcPS, filter []avc.NaluType, o internal.Options,
	log logrus.FieldLogger) (string, []internal.NaluData) {
	imgType := ""
	var nalus []internal.NaluData
	for _, nalu := range avc.ExtractNalusFromByteStream(data) {
		if len(nalu) == 0 {
			continue
		}
		seiMsg := ""
		naluType := avc.GetNaluType(nalu[0])
		switch naluType {
		case avc.NALU_SEI:
			if !o.ShowSEI {
				break
			}
			sps := ps.getSPS()
			msgs, err := avc.ParseSEINalu(nalu, sps)
			if err != nil {
				log.WithError(err).Debug("could not parse SEI")
				break
			}
			seiMsg = seiText(msgs, sps != nil, o.ShowSEIDetails)
		case avc.NALU_IDR, avc.NALU_NON_IDR:
			sliceType, err := avc.GetSliceTypeFromNALU(nalu)
			if err == nil {
				imgType = fmt.Sprintf("[%s]", sliceType)
			}
		}
		if !internal.ShowNaluType(filter, naluType) {
			continue
		}
		nalus = append(nalus, internal.NaluData{
			Type: naluType.String(),
			Len:  len(nalu),
			Data: seiMsg,
		})
	}
	return imgType, nalus
}

func seiText(msgs []sei.SEIMessage, haveSPS, details bool) string {
	texts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		t := sei.SEIType(msg.Type())
		switch {
		case t == sei.SEIPicTimingType && details && haveSPS:
			pt := msg.(*sei.PicTimingAvcSEI)
			texts = append(texts, fmt.Sprintf("msg %s: %s", t, pt.Clocks[0]))
		case details && t != sei.SEIPicTimingType:
			texts = append(texts, msg.String())
		default:
			texts = append(texts, fmt.Sprintf("msg %s", t))
		}
	}
	return strings.Join(texts, ", ")
}

// ParsePS prints the stream's SPS and PPS and the extradata built from them,
// then stops reading. The UVC H.264 probe/commit settings are printed first
// when o.ProbeFile is set.
func ParsePS(ctx context.Context, w io.Writer, f io.Reader, o internal.Options) error {
	flt, log, err := internal.NewFilter(o, os.Stderr)
	if err != nil {
		return err
	}
	jp := internal.NewJsonPrinter(w, o)
	if o.ProbeFile != "" {
		probe, err := internal.ReadProbeFile(o.ProbeFile)
		if err != nil {
			return err
		}
		jp.Print(internal.ToProbeInfo(probe, o.VerbosePSInfo), true)
	}

	ps := &AvcPS{}
	err = internal.ForEachFrame(ctx, f, o, flt, func(nr int, frame []byte, pkt *uvch264.Packet, err error) error {
		if err != nil || pkt.Extradata == nil {
			return nil
		}
		ps.set(flt.SPS(), flt.PPS(), log)
		ps.print(jp, nr, o)
		data, err := internal.EncodeExtradata(o.ExtradataFormat, flt.SPS(), flt.PPS())
		if err != nil {
			return err
		}
		jp.PrintExtradata(o.ExtradataFormat, data, true)
		return errExtradataDone
	})
	switch {
	case errors.Is(err, errExtradataDone):
	case err != nil:
		return err
	default:
		log.Warn("no SPS/PPS found")
	}
	return jp.Error()
}

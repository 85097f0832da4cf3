package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/Eyevinn/mjpeg-h264-tools/internal"
)

var usg = `Usage of %s:

%s extracts the H.264 stream that UVC cameras embed in the APP4 segments
of their MJPEG frames. The stream is written as Annex-B or muxed into MPEG-TS.
Frames without an APP4 payload are dropped.
`

func parseOptions() internal.Options {
	opts := internal.CreateFullOptions(0)
	opts.ShowFrames = false
	opts.ShowStreamInfo = true
	internal.AddCommonFlags(&opts)
	flag.StringVar(&opts.OutPutTo, "output", "-", "save the H.264 stream into the given file (filepath) or stdout (-)")
	flag.StringVar(&opts.Format, "format", internal.FormatH264, "output format (h264 or ts)")
	flag.Float64Var(&opts.FrameRate, "fps", opts.FrameRate, "frame rate used for TS timestamps")
	flag.StringVar(&opts.ExtradataOut, "extradata", "", "save the extradata built from SPS and PPS into the given file")
	flag.StringVar(&opts.ExtradataFormat, "extradataformat", internal.ExtradataRaw, "extradata format (raw, annexb or avcc)")
	flag.BoolVar(&opts.ShowStatistics, "stats", true, "print statistics")

	flag.Usage = func() {
		parts := strings.Split(os.Args[0], "/")
		name := parts[len(parts)-1]
		fmt.Fprintf(os.Stderr, usg, name, name)
		fmt.Fprintf(os.Stderr, "\nRun as: %s [options] file.mjpeg (- for stdin) with options:\n\n", name)
		flag.PrintDefaults()
	}

	flag.Parse()
	return opts
}

func demux(ctx context.Context, w io.Writer, f io.Reader, o internal.Options) error {
	outPutToFile := o.OutPutTo != "-"
	var textOutput io.Writer
	var videoOutput io.Writer
	// If we output to a file, print analysis to stdout
	if outPutToFile {
		if err := internal.RemoveFileIfExists(o.OutPutTo); err != nil {
			return err
		}
		file, err := internal.OpenFileAndAppend(o.OutPutTo)
		if err != nil {
			return err
		}
		videoOutput = file
		textOutput = w
		defer file.Close()
	} else { // If we output to stdout, print analysis to stderr
		videoOutput = w
		textOutput = os.Stderr
	}

	if err := internal.Demux(ctx, textOutput, videoOutput, f, o); err != nil {
		return err
	}
	if outPutToFile && o.Format == internal.FormatTS && o.ShowStreamInfo {
		return internal.PrintTSStreamInfo(textOutput, o.OutPutTo, o)
	}
	return nil
}

func main() {
	o, inFile := internal.ParseParams(parseOptions)
	err := internal.Execute(os.Stdout, o, inFile, demux)
	if err != nil {
		log.Fatal(err)
	}
}

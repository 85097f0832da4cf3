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
	"github.com/Eyevinn/mjpeg-h264-tools/internal/avc"
)

var usg = `Usage of %s:

%s lists the parameter sets of the H.264 stream in an MJPEG file and the
extradata built from them.
`

func parseOptions() internal.Options {
	opts := internal.CreateFullOptions(0)
	opts.ShowFrames = false
	opts.ShowStatistics = false
	internal.AddCommonFlags(&opts)
	flag.BoolVar(&opts.VerbosePSInfo, "ps", false, "show verbose information")
	flag.StringVar(&opts.ExtradataFormat, "format", internal.ExtradataRaw, "extradata format (raw, annexb or avcc)")
	flag.StringVar(&opts.ProbeFile, "probe", "", "also decode a dumped UVC H.264 probe/commit payload")

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

func parsePSInfo(ctx context.Context, w io.Writer, f io.Reader, o internal.Options) error {
	return avc.ParsePS(ctx, w, f, o)
}

func main() {
	o, inFile := internal.ParseParams(parseOptions)
	err := internal.Execute(os.Stdout, o, inFile, parsePSInfo)
	if err != nil {
		log.Fatal(err)
	}
}

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

%s lists the nalus carried in the APP4 segments of each MJPEG frame.
`

func parseOptions() internal.Options {
	opts := internal.CreateFullOptions(0)
	opts.ShowPS = false
	internal.AddCommonFlags(&opts)
	flag.BoolVar(&opts.ShowPS, "ps", false, "print SPS and PPS when found")
	flag.BoolVar(&opts.VerbosePSInfo, "psdetails", false, "print parsed SPS and PPS fields")
	flag.BoolVar(&opts.ShowSEI, "sei", false, "print sei messages")
	flag.BoolVar(&opts.ShowSEIDetails, "seidetails", false, "print sei message details")
	flag.StringVar(&opts.NaluTypes, "nalus", "", "nalu types to list (split by space), e.g. \"5 7 8\"")

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

func printNALInfo(ctx context.Context, w io.Writer, f io.Reader, o internal.Options) error {
	return avc.ParseAll(ctx, w, f, o)
}

func main() {
	o, inFile := internal.ParseParams(parseOptions)
	err := internal.Execute(os.Stdout, o, inFile, printNALInfo)
	if err != nil {
		log.Fatal(err)
	}
}

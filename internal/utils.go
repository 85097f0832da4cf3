package internal

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/Eyevinn/mjpeg-h264-tools/internal/mjpeg"
	"github.com/Eyevinn/mp4ff/avc"
	slices "golang.org/x/exp/slices"
)

type Options struct {
	MaxNrFrames     int
	MaxFrameSize    int
	Version         bool
	Indent          bool
	ShowStreamInfo  bool
	ShowFrames      bool
	ShowPS          bool
	VerbosePSInfo   bool
	ShowNALU        bool
	ShowSEI         bool
	ShowSEIDetails  bool
	NaluTypes       string
	ShowStatistics  bool
	OutPutTo        string
	Format          string
	ExtradataFormat string
	ExtradataOut    string
	FrameRate       float64
	Strict          bool
	ProbeFile       string
	LogLevel        string
	LogFormat       string
}

const (
	FormatH264 = "h264"
	FormatTS   = "ts"
)

func CreateFullOptions(max int) Options {
	return Options{
		MaxNrFrames:     max,
		MaxFrameSize:    mjpeg.DefaultMaxFrameSize,
		ShowFrames:      true,
		ShowPS:          true,
		ShowNALU:        true,
		ShowStatistics:  true,
		Format:          FormatH264,
		ExtradataFormat: ExtradataRaw,
		FrameRate:       30,
		LogLevel:        "warning",
		LogFormat:       "text",
	}
}

type OptionParseFunc func() Options
type RunableFunc func(ctx context.Context, w io.Writer, f io.Reader, o Options) error

// AddCommonFlags registers the flags shared by all tools.
func AddCommonFlags(opts *Options) {
	flag.IntVar(&opts.MaxNrFrames, "max", opts.MaxNrFrames, "max nr frames to parse")
	flag.IntVar(&opts.MaxFrameSize, "maxframesize", opts.MaxFrameSize, "max size in bytes of one MJPEG frame")
	flag.BoolVar(&opts.Strict, "strict", false, "drop frames whose declared sizes run past the buffer instead of clipping")
	flag.StringVar(&opts.LogLevel, "loglevel", opts.LogLevel, "diagnostics level (debug, info, warning, error)")
	flag.StringVar(&opts.LogFormat, "logformat", opts.LogFormat, "diagnostics format (text or json)")
	flag.BoolVar(&opts.Indent, "indent", false, "indent JSON output")
	flag.BoolVar(&opts.Version, "version", false, "print version")
}

func RemoveFileIfExists(file string) error {
	_, err := os.Stat(file)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return os.Remove(file)
}

func OpenFileAndAppend(file string) (*os.File, error) {
	fo, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating output file %w", err)
	}

	return fo, nil
}

// ParseNaluTypesFromString parses a space-separated list of NAL unit types.
// Words that are not numbers are ignored.
func ParseNaluTypesFromString(input string) []avc.NaluType {
	words := strings.Fields(input)
	var types []avc.NaluType
	for _, word := range words {
		number, err := strconv.Atoi(word)
		if err != nil || number < 0 || number > 31 {
			continue
		}
		types = append(types, avc.NaluType(number))
	}
	return types
}

// ShowNaluType reports whether naluType passes the filter. An empty filter
// passes everything.
func ShowNaluType(filter []avc.NaluType, naluType avc.NaluType) bool {
	return len(filter) == 0 || slices.Contains(filter, naluType)
}

func ParseParams(function OptionParseFunc) (o Options, inFile string) {
	o = function()
	if o.Version {
		fmt.Printf("mjpeg-h264-tools version %s\n", GetVersion())
		os.Exit(0)
	}
	if len(flag.Args()) < 1 {
		flag.Usage()
		os.Exit(1)
	}
	inFile = flag.Args()[0]
	return o, inFile
}

func Execute(w io.Writer, o Options, inFile string, function RunableFunc) error {
	// Create a cancellable context in case you want to stop reading frames any time you want
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Handle SIGINT signal
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()

	var f io.Reader
	if inFile == "-" {
		f = os.Stdin
	} else {
		fh, err := os.Open(inFile)
		if err != nil {
			log.Fatal(err)
		}
		f = fh
		defer fh.Close()
	}

	return function(ctx, w, f, o)
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ironsheep/image-filters-mcp/internal/batch"
	"github.com/ironsheep/image-filters-mcp/internal/filters"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [options] <image> [<image>...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Filters: %s\n\n", strings.Join(filters.Names(), ", "))
		pflag.PrintDefaults()
	}

	filterName := pflag.StringP("filter", "f", filters.AdaptiveMean, "filter to apply")
	outputDir := pflag.StringP("output", "o", "", "directory for results (default: next to each input)")
	jobs := pflag.IntP("jobs", "j", runtime.NumCPU(), "files processed in parallel")
	scale := pflag.Int("scale", filters.DefaultDepthScale, "adaptive radius scale K")
	radius := pflag.Int("radius", 2, "window radius of mean-filter")
	normalize := pflag.String("normalize", "", "radius-squared, window-area or clipped-area")
	channelMode := pflag.String("channel-mode", "", "combined or per-channel")
	channel := pflag.String("channel", "", "intensity channel of the adaptive radius: red, green, blue or luma")
	zeroRadius := pflag.String("zero-radius", "", "copy or intensity")
	verbose := pflag.BoolP("verbose", "v", false, "log every file")
	version := pflag.Bool("version", false, "print version information")

	pflag.Parse()

	if *version {
		fmt.Printf("image-filter %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}
	if pflag.NArg() == 0 {
		pflag.Usage()
		os.Exit(2)
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	params := filters.Params{
		Normalization:    *normalize,
		ChannelMode:      *channelMode,
		IntensityChannel: *channel,
		ZeroRadius:       *zeroRadius,
	}
	if pflag.CommandLine.Changed("scale") {
		params.Scale = scale
	}
	if pflag.CommandLine.Changed("radius") {
		params.Radius = radius
	}

	f, err := filters.NewWithParams(*filterName, params)
	if err != nil {
		log.Fatalf("Invalid filter configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := &batch.Runner{
		Filter:    f,
		OutputDir: *outputDir,
		Jobs:      *jobs,
	}
	if *verbose {
		r.Logger = log.Default()
	}

	results := r.Run(ctx, pflag.Args())
	failed := false
	for _, res := range results {
		if res.Err != nil {
			log.Printf("%s: %v", res.Input, res.Err)
			failed = true
		}
	}
	log.Print(batch.Summary(results))

	if failed {
		stop()
		os.Exit(1)
	}
}

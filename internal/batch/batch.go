// Package batch applies one filter to many image files with a bounded pool
// of workers.
package batch

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ironsheep/image-filters-mcp/internal/filters"
	"github.com/ironsheep/image-filters-mcp/internal/imaging"
)

// Result describes the outcome for one input file.
type Result struct {
	Input    string
	Output   string
	Width    int
	Height   int
	Bytes    int64
	Duration time.Duration
	Err      error
}

// Runner processes files concurrently. The zero value is not usable; set at
// least Filter.
type Runner struct {
	// Filter is applied to every input.
	Filter filters.ImageFilter
	// OutputDir receives the results. Empty writes next to each input.
	OutputDir string
	// Jobs bounds the number of files processed at once. Values below 1
	// mean runtime.NumCPU().
	Jobs int
	// Logger receives one line per file. Nil disables logging.
	Logger *log.Logger
}

// Run filters every path and returns one Result per input, in input order.
// A failing file does not stop the others. Run stops handing out new files
// once ctx is done; files not started report ctx.Err().
func (r *Runner) Run(ctx context.Context, paths []string) []Result {
	jobs := r.Jobs
	if jobs < 1 {
		jobs = runtime.NumCPU()
	}
	cache := imaging.NewImageCache()
	results := make([]Result, len(paths))

	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				results[i] = r.process(ctx, cache, paths[i])
			}
		}()
	}

	next := 0
feed:
	for ; next < len(paths); next++ {
		select {
		case work <- next:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()

	for i := next; i < len(paths); i++ {
		results[i] = Result{Input: paths[i], Err: ctx.Err()}
	}
	return results
}

func (r *Runner) process(ctx context.Context, cache *imaging.ImageCache, path string) Result {
	res := Result{Input: path}
	start := time.Now()
	defer cache.Evict(path)

	src, err := cache.Load(path)
	if err != nil {
		res.Err = err
		return res
	}

	out, err := r.Filter.Apply(ctx, src, nil)
	if err != nil {
		res.Err = fmt.Errorf("%s on %s: %w", r.Filter.Name(), path, err)
		return res
	}

	res.Output = imaging.OutputPath(path, r.OutputDir, r.Filter.Name())
	if err := imaging.Save(out, res.Output); err != nil {
		res.Err = err
		return res
	}

	b := out.Bounds()
	res.Width, res.Height = b.Dx(), b.Dy()
	if st, err := os.Stat(res.Output); err == nil {
		res.Bytes = st.Size()
	}
	res.Duration = time.Since(start)

	if r.Logger != nil {
		r.Logger.Printf("%s -> %s (%s, %s) in %v", path, res.Output,
			humanize.SIWithDigits(float64(res.Width*res.Height), 1, "px"),
			humanize.Bytes(uint64(res.Bytes)), res.Duration.Round(time.Millisecond))
	}
	return res
}

// Summary formats totals for a finished run, e.g.
// "3 files, 1 failed, 2.4 MB written".
func Summary(results []Result) string {
	var failed int
	var written int64
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		written += res.Bytes
	}
	return fmt.Sprintf("%s files, %s failed, %s written",
		humanize.Comma(int64(len(results))), humanize.Comma(int64(failed)), humanize.Bytes(uint64(written)))
}

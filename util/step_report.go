package util

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

type StepReportOpts struct {
	Name string

	// MinPct hides the distribution bins holding less than MinPct percent of the samples.
	MinPct float64

	// Max is the largest step duration that can be recorded. Defaults to 10 seconds.
	Max time.Duration

	Writer io.Writer
}

// StepReport renders the distribution of dispatch step durations.
//
// Pass Histogram to the dispatcher with reactoropts.StepHistogram: every step records its duration, in
// nanoseconds, and Report prints and resets what was recorded so far.
type StepReport struct {
	opts StepReportOpts

	hdr  *hdrhistogram.Histogram
	tabw *tabwriter.Writer
	n    int
}

func NewStepReport(opts StepReportOpts) *StepReport {
	if opts.Max <= 0 {
		opts.Max = 10 * time.Second
	}
	if opts.Writer == nil {
		opts.Writer = io.Discard
	}
	return &StepReport{
		opts: opts,
		hdr:  hdrhistogram.New(1, opts.Max.Nanoseconds(), 3),
		tabw: tabwriter.NewWriter(opts.Writer, 2, 2, 2, byte(' '), 0),
	}
}

func (r *StepReport) Histogram() *hdrhistogram.Histogram {
	return r.hdr
}

// Reported returns the number of reports written.
func (r *StepReport) Reported() int {
	return r.n
}

// Report writes the summary and distribution of the recorded step durations, then resets the histogram. It does
// nothing if no step was recorded.
func (r *StepReport) Report() {
	total := r.hdr.TotalCount()
	if total == 0 {
		return
	}
	r.n++

	w := r.opts.Writer
	fmt.Fprintf(w,
		"%v step report=%d name=%s steps=%d\n",
		time.Now().Format("2006-01-02 15:04:05"), r.n, r.opts.Name, total,
	)
	fmt.Fprintf(w,
		"summary min/avg/max/stddev = %d/%.3f/%d/%.3f ns\n",
		r.hdr.Min(), r.hdr.Mean(), r.hdr.Max(), r.hdr.StdDev())
	for _, p := range []float64{50, 90, 99, 99.9} {
		fmt.Fprintf(w, "p%g=%d ns\n", p, r.hdr.ValueAtPercentile(p))
	}

	var minBin, maxBin int64 = math.MaxInt64, math.MinInt64
	bins := r.hdr.Distribution()
	for _, bin := range bins {
		if r.hidden(bin.Count, total) {
			continue
		}
		minBin = min(minBin, bin.Count)
		maxBin = max(maxBin, bin.Count)
	}

	for _, bin := range bins {
		if r.hidden(bin.Count, total) {
			continue
		}

		bar := 1
		if maxBin > minBin {
			bar = max(1, int(math.Ceil(float64(bin.Count-minBin)/float64(maxBin-minBin)*10)))
		}

		to := bin.To
		if bin.From == to {
			to++
		}

		fmt.Fprintf(r.tabw,
			"%d-%d ns\t%.3g%%\t%s\t%s\n",
			bin.From, to,
			float64(bin.Count)*100.0/float64(total),
			strings.Repeat("|", bar),
			strconv.FormatInt(bin.Count, 10),
		)
	}
	_ = r.tabw.Flush()

	r.hdr.Reset()
}

func (r *StepReport) hidden(count, total int64) bool {
	return count == 0 || float64(count)*100.0/float64(total) < r.opts.MinPct
}

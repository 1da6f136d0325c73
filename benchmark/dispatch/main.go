package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/felixge/fgprof"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/spf13/pflag"

	"github.com/talostrading/reactor"
	"github.com/talostrading/reactor/poller"
	"github.com/talostrading/reactor/reactoropts"
	"github.com/talostrading/reactor/util"
)

var (
	pipes    = pflag.IntP("pipes", "n", 64, "number of pipes to watch")
	period   = pflag.Duration("period", 100*time.Microsecond, "how often a byte is written to a random pipe")
	report   = pflag.Duration("report", 5*time.Second, "how often the step report is printed")
	duration = pflag.DurationP("duration", "d", 30*time.Second, "how long to run for; 0 runs until interrupted")
	minPct   = pflag.Float64("min-pct", 1, "step report bins holding less than this percentage of steps are hidden")
	fgprofAt = pflag.String("fgprof", "", "address to serve fgprof on; if empty, no fgprof")
	cpu      = pflag.Int("cpu", -1, "cpu to pin the dispatcher to; if negative, no pinning")
	verbose  = pflag.BoolP("verbose", "v", false, "log every dispatcher event")
)

type bench struct {
	pipes []*poller.Pipe
	rng   *rand.Rand

	writes, reads, idles int
}

func main() {
	pflag.Parse()

	level := logiface.LevelInformational
	if *verbose {
		level = logiface.LevelDebug
	}
	log := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		stumpy.L.WithLevel(level),
	).Logger()

	if *fgprofAt != "" {
		http.DefaultServeMux.Handle("/debug/fgprof", fgprof.Handler())
		go func() {
			if err := http.ListenAndServe(*fgprofAt, nil); err != nil {
				log.Err().Err(err).Log("fgprof server failed")
			}
		}()
	}

	if *cpu >= 0 {
		if err := util.PinDispatcher(*cpu); err != nil {
			fatal(log, err, "could not pin dispatcher")
		}
	}

	rep := util.NewStepReport(util.StepReportOpts{
		Name:   "dispatch",
		MinPct: *minPct,
		Writer: os.Stdout,
	})

	d, err := reactor.New(
		reactoropts.Logger(log),
		reactoropts.StepHistogram(rep.Histogram()),
		reactoropts.InitialCapacity(*pipes*2),
	)
	if err != nil {
		fatal(log, err, "could not create dispatcher")
	}
	defer d.Close()

	backend, err := newBackend()
	if err != nil {
		fatal(log, err, "could not create backend")
	}
	defer backend.Close()

	b := &bench{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	defer b.close()

	for i := 0; i < *pipes; i++ {
		p, err := poller.NewPipe()
		if err != nil {
			fatal(log, err, "could not create pipe")
		}
		b.pipes = append(b.pipes, p)

		if err := d.Watch(p.ReadFd(), reactor.Readable, b.onReadable, p); err != nil {
			fatal(log, err, "could not watch pipe")
		}
	}

	if _, err := d.AddTimerRelative(period.Milliseconds(), b.onWrite, nil); err != nil {
		fatal(log, err, "could not arm write timer")
	}
	if _, err := d.AddTimerRelative(report.Milliseconds(), b.onReport, rep); err != nil {
		fatal(log, err, "could not arm report timer")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	// Run only checks ctx between waits.
	waker, err := poller.NewWaker()
	if err != nil {
		fatal(log, err, "could not create waker")
	}
	defer waker.Close()
	if err := d.Watch(waker.Fd(), reactor.Readable, func(*reactor.Dispatcher, int, reactor.EventMask, any) {
		waker.Drain()
	}, nil); err != nil {
		fatal(log, err, "could not watch waker")
	}
	go func() {
		<-ctx.Done()
		_ = waker.Wake()
	}()

	log.Info().
		Int("pipes", *pipes).
		Dur("period", *period).
		Str("backend", backendName).
		Log("running")

	if err := d.Run(ctx, backend); err != nil && ctx.Err() == nil {
		log.Err().Err(err).Log("run failed")
	}

	rep.Report()
	log.Info().
		Int("writes", b.writes).
		Int("reads", b.reads).
		Int("idles", b.idles).
		Str("stats", d.Stats().String()).
		Log("done")
}

func (b *bench) onWrite(d *reactor.Dispatcher, _ *reactor.Timer, _ any) {
	p := b.pipes[b.rng.Intn(len(b.pipes))]
	if _, err := p.Write([]byte{1}); err == nil {
		b.writes++
	}

	// periods shorter than a millisecond degrade to a write per step
	if _, err := d.AddTimerAt(d.Now().Add(*period), b.onWrite, nil); err != nil {
		panic(err)
	}
}

func (b *bench) onReadable(d *reactor.Dispatcher, _ int, _ reactor.EventMask, ctx any) {
	b.reads += ctx.(*poller.Pipe).Drain()

	if _, err := d.AddIdle(b.onIdle, nil); err != nil {
		panic(err)
	}
}

func (b *bench) onIdle(*reactor.Dispatcher, *reactor.Idle, any) {
	b.idles++
}

func (b *bench) onReport(d *reactor.Dispatcher, _ *reactor.Timer, ctx any) {
	ctx.(*util.StepReport).Report()

	if _, err := d.AddTimerRelative(report.Milliseconds(), b.onReport, ctx); err != nil {
		panic(err)
	}
}

func fatal(log *logiface.Logger[logiface.Event], err error, msg string) {
	log.Err().Err(err).Log(msg)
	os.Exit(1)
}

func (b *bench) close() {
	for _, p := range b.pipes {
		_ = p.Close()
	}
}

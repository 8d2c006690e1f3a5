package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mash-protocol/mash-wdt/pkg/alarm"
	"github.com/mash-protocol/mash-wdt/pkg/boundcall"
	"github.com/mash-protocol/mash-wdt/pkg/config"
	"github.com/mash-protocol/mash-wdt/pkg/diag"
	"github.com/mash-protocol/mash-wdt/pkg/log"
	"github.com/mash-protocol/mash-wdt/pkg/recovery"
	"github.com/mash-protocol/mash-wdt/pkg/supervisor"
	"github.com/mash-protocol/mash-wdt/pkg/system"
)

// hangDuration is how long a simulated hung poll blocks its worker.
const hangDuration = time.Hour

// RunOptions holds the run command settings.
type RunOptions struct {
	// CallEvery is the interval between bounded sensor polls.
	CallEvery time.Duration

	// Work is how long a healthy poll takes.
	Work time.Duration

	// HangEvery makes every n-th poll hang. Zero disables.
	HangEvery int

	// StallAfter stops the main loop from kicking after this long, which
	// the supervisor turns into a fault and a reset. Zero disables.
	StallAfter time.Duration

	// Duration ends the run after this long. Zero runs until a signal.
	Duration time.Duration

	// Exec restarts the process in place on reset.
	Exec bool

	// MetricsAddr overrides metrics.listen.
	MetricsAddr string

	// Resetter replaces the process reset. Nil resets the process.
	Resetter alarm.Resetter
}

// RunCommand returns the run command.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the supervised demo loop with bounded sensor polls",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "call-every", Value: time.Second, Usage: "Interval between bounded polls"},
			&cli.DurationFlag{Name: "work", Value: 20 * time.Millisecond, Usage: "Duration of a healthy poll"},
			&cli.IntFlag{Name: "hang-every", Usage: "Make every n-th poll hang (0 = never)"},
			&cli.DurationFlag{Name: "stall-after", Usage: "Stop kicking the supervisor after this long (0 = never)"},
			&cli.DurationFlag{Name: "duration", Usage: "Stop after this long (0 = until interrupted)"},
			&cli.BoolFlag{Name: "reexec", Value: true, Usage: "Restart in place on reset instead of exiting"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "Serve Prometheus metrics on this address"},
		},
		Action: func(c *cli.Context) error {
			opts := RunOptions{
				CallEvery:   c.Duration("call-every"),
				Work:        c.Duration("work"),
				HangEvery:   c.Int("hang-every"),
				StallAfter:  c.Duration("stall-after"),
				Duration:    c.Duration("duration"),
				Exec:        c.Bool("reexec"),
				MetricsAddr: c.String("metrics-addr"),
			}
			if opts.CallEvery <= 0 {
				return errors.New("--call-every must be positive")
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return NewRunner(GetEnv(c), opts, c.App.Writer).Run(ctx)
		},
	}
}

// Runner is the supervised demo loop.
type Runner struct {
	env    *Env
	opts   RunOptions
	out    io.Writer
	logger *slog.Logger

	latch  *system.Latch
	store  *diag.Store
	events log.Logger
	report recovery.Report

	sup         *supervisor.Supervisor
	exec        *boundcall.Executor
	callTimeout alarm.Timeout
	polls       int
}

// NewRunner creates a runner writing its boot report to out.
func NewRunner(env *Env, opts RunOptions, out io.Writer) *Runner {
	return &Runner{
		env:    env,
		opts:   opts,
		out:    out,
		logger: env.Logger,
		latch:  env.Latch(),
	}
}

// Run recovers from the previous reset, then runs the loop until ctx ends.
// A detected reset loop halts instead.
func (r *Runner) Run(ctx context.Context) error {
	cfg := r.env.Config

	events, err := r.env.Events()
	if err != nil {
		return err
	}
	r.events = events

	r.store, err = r.env.SnapshotStore()
	if err != nil {
		return err
	}

	r.report, err = recovery.Recover(r.latch, r.store, recovery.Config{
		MaxResetLoops: uint8(cfg.Diagnostics.MaxResetLoops),
		Logger:        r.logger,
		Events:        events,
	})
	if err != nil {
		return fmt.Errorf("boot recovery: %w", err)
	}
	printReport(r.out, r.report)

	if err := r.report.Err(); err != nil {
		return system.Halt(ctx, r.out, r.logger, err.Error())
	}

	if stop := r.serveMetrics(); stop != nil {
		defer stop()
	}
	if stop := r.watchConfig(); stop != nil {
		defer stop()
	}

	r.callTimeout, err = cfg.CallTimeout()
	if err != nil {
		return err
	}
	resetter := r.resetter(system.Watchdog)

	r.exec = boundcall.New(
		alarm.New(alarm.Config{Name: "poll", Resetter: resetter, Logger: r.logger, Events: events}),
		boundcall.WithLogger(r.logger),
		boundcall.WithEvents(events),
	)

	if cfg.Supervisor.Enabled {
		t, err := cfg.SupervisorTimeout()
		if err != nil {
			return err
		}
		if r.callTimeout.Duration() >= t.Duration() {
			r.logger.Warn("bounded call timeout is not shorter than the supervisor timeout",
				"call_timeout", r.callTimeout.String(), "supervisor_timeout", t.String())
		}
		r.sup = supervisor.New(
			alarm.New(alarm.Config{Name: "main", Resetter: resetter, Logger: r.logger, Events: events}),
			supervisor.Config{
				Timeout: t,
				OnFault: r.saveFault,
				Logger:  r.logger,
				Events:  events,
			},
		)
		if err := r.sup.Start(); err != nil {
			return err
		}
		defer r.sup.Stop()
	}

	if r.opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Duration)
		defer cancel()
	}

	r.logger.Info("running",
		"supervisor", cfg.Supervisor.Enabled,
		"supervisor_timeout", cfg.Supervisor.Timeout,
		"call_timeout", r.callTimeout.String(),
		"call_every", r.opts.CallEvery)
	return r.loop(ctx)
}

func (r *Runner) loop(ctx context.Context) error {
	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)
	defer signal.Stop(hangup)

	kick := time.NewTicker(r.env.Config.Supervisor.KickInterval)
	defer kick.Stop()
	poll := time.NewTicker(r.opts.CallEvery)
	defer poll.Stop()

	var stall <-chan time.Time
	if r.opts.StallAfter > 0 {
		stall = time.After(r.opts.StallAfter)
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping")
			return nil

		case <-kick.C:
			if r.sup != nil {
				r.sup.Kick()
			}

		case <-poll.C:
			r.poll(ctx)

		case <-stall:
			r.logger.Warn("main loop stalled")
			<-ctx.Done()
			return nil

		case <-hangup:
			r.logger.Warn("external reset requested")
			r.resetter(system.External).SystemReset()
		}
	}
}

// pollRequest is the argument buffer of a sensor poll.
type pollRequest struct {
	Seq  int
	Work time.Duration
	Hang bool
}

// pollResult is the result buffer of a sensor poll.
type pollResult struct {
	Seq   int
	Value float64
	Took  time.Duration
}

// pollSensor stands in for a driver call that may never return.
func pollSensor(req *pollRequest, res *pollResult) {
	start := time.Now()
	work := req.Work
	if req.Hang {
		work = hangDuration
	}
	time.Sleep(work)
	res.Seq = req.Seq
	res.Value = 21.5 + float64(req.Seq%10)/10
	res.Took = time.Since(start)
}

func (r *Runner) poll(ctx context.Context) {
	r.polls++
	req := &pollRequest{
		Seq:  r.polls,
		Work: r.opts.Work,
		Hang: r.opts.HangEvery > 0 && r.polls%r.opts.HangEvery == 0,
	}
	res := &pollResult{}

	ok, err := boundcall.CallTyped(ctx, r.exec, pollSensor, req, res, r.callTimeout)
	switch {
	case err != nil:
		r.logger.Warn("poll failed", "seq", req.Seq, "error", err)
	case !ok:
		// res is poisoned: the abandoned worker may still write it.
		r.logger.Warn("poll timed out", "seq", req.Seq, "timeout", r.callTimeout.String())
	default:
		r.logger.Info("poll", "seq", res.Seq, "value", res.Value, "took", res.Took)
	}
}

// saveFault persists the diagnostic snapshot at the first supervisor stage.
func (r *Runner) saveFault(f supervisor.Fault) {
	snap := f.Snapshot(r.report.ResetCount)
	if err := r.store.Save(snap); err != nil {
		r.logger.Error("failed to save diagnostic snapshot", "error", err)
		return
	}
	r.logger.Warn("diagnostic snapshot saved",
		"fault_address", log.FormatAddress(uint64(snap.FaultAddress)),
		"function", f.Location.Function,
		"reset_counter", snap.ResetCounter)
	r.env.SyncEvents()
}

func (r *Runner) resetter(flags system.ResetFlags) alarm.Resetter {
	if r.opts.Resetter != nil {
		return r.opts.Resetter
	}
	return &system.ProcessReset{
		Latch:       r.latch,
		Flags:       flags,
		Exec:        r.opts.Exec,
		BeforeReset: r.env.SyncEvents,
		Logger:      r.logger,
	}
}

func (r *Runner) serveMetrics() func() {
	addr := r.opts.MetricsAddr
	if addr == "" {
		addr = r.env.Config.Metrics.Listen
	}
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", r.env.Metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		r.logger.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("metrics server error", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

// watchConfig applies log level changes from the configuration file.
func (r *Runner) watchConfig() func() {
	if r.env.ConfigPath == "" {
		return nil
	}
	w, err := config.NewWatcher(r.env.ConfigPath, r.reloadConfig, config.WithWatcherLogger(r.logger))
	if err != nil {
		r.logger.Warn("configuration reload disabled", "error", err)
		return nil
	}
	w.StartAsync()
	return func() { w.Stop() }
}

func (r *Runner) reloadConfig(path string) {
	cfg, err := config.Load(path, r.env.Overrides)
	if err != nil {
		r.logger.Warn("ignoring configuration change", "error", err)
		return
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return
	}
	if level != r.env.Level.Level() {
		r.env.Level.Set(level)
		r.logger.Info("log level changed", "level", level.String())
	}
}

// printReport writes the boot-time reset cause and recovered snapshot.
func printReport(w io.Writer, r recovery.Report) {
	fmt.Fprintf(w, "Reset flags: %s\n", r.Flags)
	fmt.Fprintf(w, "Reset cause: %s\n", r.Cause)
	if !r.Flags.IsWatchdog() {
		return
	}
	if !r.SnapshotValid {
		fmt.Fprintln(w, "Diagnostic snapshot: none")
	} else {
		printSnapshot(w, r.Snapshot)
	}
	fmt.Fprintf(w, "Consecutive watchdog resets: %d\n", r.ResetCount)
}

func printSnapshot(w io.Writer, s diag.Snapshot) {
	fmt.Fprintln(w, "Diagnostic snapshot: valid")
	fmt.Fprintf(w, "  Reset counter:  %d\n", s.ResetCounter)
	fmt.Fprintf(w, "  Free memory:    %d bytes\n", s.FreeMemoryAtFault)
	fmt.Fprintf(w, "  Fault address:  %s", log.FormatAddress(uint64(s.FaultAddress)))
	if loc := system.LocateAddress32(s.FaultAddress); loc.Function != "" {
		fmt.Fprintf(w, " (%s)", loc.Function)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Fault uptime:   %d ms\n", s.Timestamp)
}

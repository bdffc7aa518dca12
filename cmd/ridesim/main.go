package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/ride-sim/internal/ingest"
	"github.com/example/ride-sim/internal/logging"
	"github.com/example/ride-sim/internal/monitor"
	"github.com/example/ride-sim/internal/sim"
)

func main() {
	var (
		eventsPath string
		logLevel   string
		trace      bool
		asJSON     bool
	)
	flag.StringVar(&eventsPath, "events", "-", "event file to simulate, - for stdin")
	flag.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flag.BoolVar(&trace, "trace", false, "print every event as it is processed")
	flag.BoolVar(&asJSON, "json", false, "print the report as JSON")
	flag.Parse()

	logger := logging.NewLoggerTo(os.Stderr, logLevel, "text")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, eventsPath, trace, asJSON, os.Stdin, os.Stdout, logging.EventTracer(logger)); err != nil {
		logger.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string, trace, asJSON bool, stdin io.Reader, out io.Writer, tracer sim.Tracer) error {
	in := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	batch, err := ingest.Load(in)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	tracers := []sim.Tracer{tracer}
	if trace {
		tracers = append(tracers, sim.TracerFunc(func(e sim.Event) { fmt.Fprintln(out, e) }))
	}
	report, err := sim.Run(ctx, batch.Events, sim.WithTracer(sim.Tracers(tracers...)))
	if err != nil {
		return err
	}
	return printReport(out, report, asJSON)
}

func printReport(out io.Writer, r monitor.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	_, err := fmt.Fprintf(out, "rider wait time:       %.2f\ndriver total distance: %.2f\ndriver ride distance:  %.2f\n",
		r.RiderWaitTime, r.DriverTotalDistance, r.DriverRideDistance)
	return err
}

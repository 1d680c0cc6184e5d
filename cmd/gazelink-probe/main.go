// Command gazelink-probe is an interactive shell for exploring a
// GazeLink runtime. It starts a simulated runtime, connects a headset
// client and a compositor client to it, and exposes the SDK surface as
// shell commands.
//
// Usage:
//
//	gazelink-probe [flags]
//
// Flags:
//
//	-hardware <model>   Hardware model to simulate (gl1, gl2)
//	-scenario <file>    YAML scenario script driving the simulated user
//	-data-dir <dir>     Directory for profiles and config persistence
//	-event-log <file>   Write SDK events to a .glog file
//	-rate <duration>    Frame interval of the simulated runtime
//	-present            Start with the simulated user present
//	-v                  Verbose (debug) logging
package main

import (
	"context"
	"flag"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gazelink-protocol/gazelink-go/cmd/gazelink-probe/interactive"
	"github.com/gazelink-protocol/gazelink-go/pkg/capability"
	"github.com/gazelink-protocol/gazelink-go/pkg/compositor"
	"github.com/gazelink-protocol/gazelink-go/pkg/headset"
	"github.com/gazelink-protocol/gazelink-go/pkg/log"
	"github.com/gazelink-protocol/gazelink-go/pkg/sim"
)

func main() {
	hardware := flag.String("hardware", "gl2", "Hardware model to simulate (gl1, gl2)")
	scenarioPath := flag.String("scenario", "", "YAML scenario script driving the simulated user")
	dataDir := flag.String("data-dir", "", "Directory for profiles and config persistence")
	eventLog := flag.String("event-log", "", "Write SDK events to a .glog file")
	rate := flag.Duration("rate", 10*time.Millisecond, "Frame interval of the simulated runtime")
	present := flag.Bool("present", true, "Start with the simulated user present")
	verbose := flag.Bool("v", false, "Verbose (debug) logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	opts := sim.Options{
		Hardware:    *hardware,
		DataDir:     *dataDir,
		UserPresent: *present,
		Logger:      logger,
	}

	if *scenarioPath != "" {
		scenario, err := sim.LoadScenario(*scenarioPath)
		if err != nil {
			stdlog.Fatalf("Failed to load scenario: %v", err)
		}
		opts.Scenario = scenario
	}

	var events log.Logger = log.NoopLogger{}
	if *eventLog != "" {
		fl, err := log.NewFileLogger(*eventLog)
		if err != nil {
			stdlog.Fatalf("Failed to create event log: %v", err)
		}
		defer fl.Close()
		events = fl
	}

	runtime, err := sim.New(opts)
	if err != nil {
		stdlog.Fatalf("Failed to create runtime: %v", err)
	}
	defer runtime.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = runtime.Run(ctx, *rate) }()

	hs := headset.New(headset.Config{
		Capabilities: capability.EyeTracking,
		EventLogger:  events,
		Logger:       logger,
	})
	if err := hs.Connect(runtime); err != nil {
		stdlog.Fatalf("Failed to connect headset client: %v", err)
	}
	defer hs.Close()

	comp := compositor.NewClient(compositor.Config{
		EventLogger: events,
		Logger:      logger,
	})
	if err := comp.Connect(runtime); err != nil {
		stdlog.Fatalf("Failed to connect compositor client: %v", err)
	}
	defer comp.Disconnect()

	shell, err := interactive.New(runtime, hs, comp)
	if err != nil {
		stdlog.Fatalf("Failed to create shell: %v", err)
	}
	// Redirect log output through readline to avoid interfering with input
	stdlog.SetOutput(shell.Stdout())
	go shell.Run(ctx, cancel)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		stdlog.Printf("Received signal: %v", sig)
	case <-ctx.Done():
		// Cancelled by the quit command
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/allocsim/sim"
	"github.com/inference-sim/allocsim/sim/interp"
	"github.com/inference-sim/allocsim/sim/trace"
)

var (
	// CLI flags shared by run and flags
	configPath    string   // YAML or TOML run config
	modeOverrides []string // name=bool mode assignments applied after the config file
	logLevel      string   // Log verbosity level

	// CLI flags for the synthetic workload
	seed         int64  // Seed for the interpreter and worker RNGs
	workers      int    // Number of concurrent allocator workers
	opsPerWorker int    // Operations issued by each worker
	refreshEvery int    // Stack refresh period in operations
	maxAllocSize uint64 // Largest single allocation in bytes
	traceLevel   string // Trace collection level
	traceOut     string // Destination for the msgpack trace dump
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "allocsim",
	Short: "Allocation-event instrumentation for a GPU memory-allocator simulator",
}

// setupLogging parses the --log flag.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// configureModes applies --config then --set to the process-wide mode controller
// and returns the trace settings from the config file, if any.
func configureModes(modes *sim.ModeController) TraceSection {
	var section TraceSection
	if configPath != "" {
		cfg, err := LoadRunConfig(configPath)
		if err != nil {
			logrus.Fatalf("Failed to load config %s: %v", configPath, err)
		}
		if err := cfg.Apply(modes); err != nil {
			logrus.Fatalf("Failed to apply config %s: %v", configPath, err)
		}
		section = cfg.Trace
	}
	if err := ApplyOverrides(modes, modeOverrides); err != nil {
		logrus.Fatalf("Invalid --set: %v", err)
	}
	return section
}

// runCmd drives a synthetic allocator workload through the instrumentation layer
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a synthetic allocator workload with instrumentation enabled",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		modes := sim.DefaultModes()
		section := configureModes(modes)

		traceCfg := trace.TraceConfig{Level: trace.TraceLevel(traceLevel), StackCacheSize: section.StackCacheSize}
		if !cmd.Flags().Changed("trace") && section.Level != "" {
			traceCfg.Level = trace.TraceLevel(section.Level)
		}
		if !trace.IsValidTraceLevel(string(traceCfg.Level)) {
			logrus.Fatalf("Invalid trace level %q (valid: none, operations, stacks)", traceCfg.Level)
		}
		tr, err := trace.NewAllocationTrace(traceCfg)
		if err != nil {
			logrus.Fatalf("Failed to create trace: %v", err)
		}

		wl := WorkloadConfig{
			Workers:      workers,
			OpsPerWorker: opsPerWorker,
			Seed:         seed,
			RefreshEvery: refreshEvery,
			MaxAllocSize: maxAllocSize,
		}
		logrus.Infof("Starting workload with %d workers x %d ops, seed=%d, modes=%v",
			wl.Workers, wl.OpsPerWorker, wl.Seed, modes.Snapshot())

		in := interp.New()
		stacks := sim.NewSnapshotter(interp.NewInspector(in))
		instr := sim.NewInstrumentation(stacks)

		startTime := time.Now()
		result, err := RunWorkload(context.Background(), wl, instr, in, tr)
		if err != nil {
			logrus.Fatalf("Workload failed: %v", err)
		}

		if modes.IsTraceDumpping() {
			if traceOut == "" {
				logrus.Warn("trace_dumpping is on but --trace-out is empty; skipping dump")
			} else {
				instr.TimePhase(dumpTimerSlot, "trace_dump", func() {
					if err := writeTrace(tr, traceOut); err != nil {
						logrus.Fatalf("Failed to write trace: %v", err)
					}
				})
			}
		}

		printRunReport(os.Stdout, result, tr, instr, stacks, time.Since(startTime))
		logrus.Info("Workload complete.")
	},
}

func writeTrace(tr *trace.AllocationTrace, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	if err := tr.Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing trace file: %w", err)
	}
	logrus.Debugf("Successfully wrote trace to '%s'", path)
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Run config file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringArrayVar(&modeOverrides, "set", nil, "Mode override name=true|false (repeatable)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the synthetic interpreter and workers")
	runCmd.Flags().IntVar(&workers, "workers", 4, fmt.Sprintf("Concurrent allocator workers (1-%d)", maxWorkers))
	runCmd.Flags().IntVar(&opsPerWorker, "ops", 10000, "Operations issued by each worker")
	runCmd.Flags().IntVar(&refreshEvery, "refresh-every", 16, "Refresh the interpreter stack every N operations")
	runCmd.Flags().Uint64Var(&maxAllocSize, "max-alloc", 64<<20, "Largest single allocation in bytes")
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelOperations), "Trace level (none, operations, stacks)")
	runCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write a msgpack trace dump here when trace_dumpping is on")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(flagsCmd)
	rootCmd.AddCommand(sizeCmd)
}

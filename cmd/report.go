package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/inference-sim/allocsim/sim"
	"github.com/inference-sim/allocsim/sim/trace"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	onColor     = color.New(color.FgGreen)
	offColor    = color.New(color.FgRed)
)

func onOff(v bool) string {
	if v {
		return onColor.Sprint("on")
	}
	return offColor.Sprint("off")
}

// printModes writes one line per mode flag in declaration order.
func printModes(w io.Writer, modes *sim.ModeController) {
	_, _ = headerColor.Fprintln(w, "=== Mode Flags ===")
	for _, f := range sim.AllFlags() {
		marker := ""
		if modes.Get(f) != f.Default() {
			marker = " (changed)"
		}
		_, _ = fmt.Fprintf(w, "  %-24s %s%s\n", f.String(), onOff(modes.Get(f)), marker)
	}
}

// printRunReport writes the end-of-run summary: operations, pools, trace and timers.
func printRunReport(w io.Writer, result *WorkloadResult, tr *trace.AllocationTrace,
	instr *sim.Instrumentation, stacks *sim.Snapshotter, elapsed time.Duration) {
	_, _ = headerColor.Fprintln(w, "=== Workload ===")
	_, _ = fmt.Fprintf(w, "  operations:        %d\n", result.Operations)
	_, _ = fmt.Fprintf(w, "  next operation id: %d\n", instr.IDs.Current())
	_, _ = fmt.Fprintf(w, "  stack walks:       %d\n", stacks.Walks())
	_, _ = fmt.Fprintf(w, "  decode failures:   %d\n", sim.DecodeFailures())
	_, _ = fmt.Fprintf(w, "  wall time:         %s\n", elapsed.Round(time.Microsecond))
	var total uint64
	for i, b := range result.OutstandingBytes {
		_, _ = fmt.Fprintf(w, "  worker %d pool:     %s outstanding\n", i, sim.FormatSize(b))
		total += b
	}
	_, _ = fmt.Fprintf(w, "  total outstanding: %s\n", sim.FormatSize(total))

	if tr.Enabled() {
		summary := trace.Summarize(tr)
		_, _ = headerColor.Fprintln(w, "=== Trace ===")
		_, _ = fmt.Fprintf(w, "  records:       %d (ids %d..%d)\n", summary.TotalOperations, summary.FirstID, summary.LastID)
		kinds := make([]string, 0, len(summary.KindCounts))
		for k := range summary.KindCounts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			_, _ = fmt.Fprintf(w, "  %-14s %d ops, %s\n", k+":", summary.KindCounts[k], sim.FormatSize(summary.KindBytes[k]))
		}
		_, _ = fmt.Fprintf(w, "  unique stacks: %d (max depth %d)\n", summary.UniqueStacks, summary.MaxStackDepth)
	}

	if instr.Modes.IsProfiling() {
		_, _ = headerColor.Fprintln(w, "=== Phase Timers ===")
		instr.Timer.Print(w)
	}
}

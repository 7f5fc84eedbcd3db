package sim

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Flag names one simulator mode switch.
type Flag int

const (
	FlagAsyncTracing Flag = iota
	FlagFunctionalityChecking
	FlagProfiling
	FlagDebugDumpping
	FlagDebugPoolInfoDumpping
	FlagTraceDumpping
	FlagConfigOptimization
	FlagGroupOptimization
	numFlags
)

var flagNames = [numFlags]string{
	FlagAsyncTracing:          "async_tracing",
	FlagFunctionalityChecking: "functionality_checking",
	FlagProfiling:             "profiling",
	FlagDebugDumpping:         "debug_dumpping",
	FlagDebugPoolInfoDumpping: "debug_poolinfo_dumpping",
	FlagTraceDumpping:         "trace_dumpping",
	FlagConfigOptimization:    "config_optimization",
	FlagGroupOptimization:     "group_optimization",
}

var flagDefaults = [numFlags]bool{
	FlagAsyncTracing:       true,
	FlagProfiling:          true,
	FlagConfigOptimization: true,
}

// String returns the flag's configuration name.
func (f Flag) String() string {
	if f < 0 || f >= numFlags {
		return fmt.Sprintf("flag(%d)", int(f))
	}
	return flagNames[f]
}

// Default returns the flag's value at process start.
func (f Flag) Default() bool {
	if f < 0 || f >= numFlags {
		return false
	}
	return flagDefaults[f]
}

// AllFlags lists every recognized flag in declaration order.
func AllFlags() []Flag {
	out := make([]Flag, numFlags)
	for i := range out {
		out[i] = Flag(i)
	}
	return out
}

// ParseFlag maps a configuration name such as "trace_dumpping" to its Flag.
func ParseFlag(name string) (Flag, error) {
	for i, n := range flagNames {
		if n == name {
			return Flag(i), nil
		}
	}
	valid := make([]string, len(flagNames))
	copy(valid, flagNames[:])
	sort.Strings(valid)
	return 0, fmt.Errorf("unknown mode flag %q (valid: %v)", name, valid)
}

// ModeController holds the simulator's feature flags.
// Every flag is independent; no write implies or forbids another.
//
// Thread-safety: flags are atomic booleans. Races between a reader and a writer are
// benign: the reader sees the old or the new value, never a torn one.
type ModeController struct {
	flags [numFlags]atomic.Bool
}

// NewModeController creates a controller holding the documented defaults.
func NewModeController() *ModeController {
	m := &ModeController{}
	m.Init()
	return m
}

var defaultModes = NewModeController()

// DefaultModes returns the process-wide mode controller.
func DefaultModes() *ModeController {
	return defaultModes
}

// Init restores all eight flags to their documented defaults. This is a full reset:
// functionality_checking and debug_poolinfo_dumpping are reset too, not carried over.
func (m *ModeController) Init() {
	for i := range m.flags {
		m.flags[i].Store(flagDefaults[i])
	}
}

// Get reads one flag. Unknown flags read as false.
func (m *ModeController) Get(f Flag) bool {
	if f < 0 || f >= numFlags {
		return false
	}
	return m.flags[f].Load()
}

// Set writes one flag. Unknown flags are ignored.
func (m *ModeController) Set(f Flag, v bool) {
	if f < 0 || f >= numFlags {
		return
	}
	m.flags[f].Store(v)
}

// Snapshot returns the current value of every flag keyed by name.
func (m *ModeController) Snapshot() map[string]bool {
	out := make(map[string]bool, numFlags)
	for i := range m.flags {
		out[flagNames[i]] = m.flags[i].Load()
	}
	return out
}

// IsAsyncTracing reports whether asynchronous capture and emission of trace events is enabled.
func (m *ModeController) IsAsyncTracing() bool {
	return m.Get(FlagAsyncTracing)
}

// SetAsyncTracing enables or disables asynchronous capture and emission of trace events.
func (m *ModeController) SetAsyncTracing(v bool) {
	m.Set(FlagAsyncTracing, v)
}

// IsFunctionalityChecking reports whether the simulator runs extra correctness assertions.
func (m *ModeController) IsFunctionalityChecking() bool {
	return m.Get(FlagFunctionalityChecking)
}

// SetFunctionalityChecking enables or disables extra correctness assertions in the simulator.
func (m *ModeController) SetFunctionalityChecking(v bool) {
	m.Set(FlagFunctionalityChecking, v)
}

// IsProfiling reports whether phase timer accumulation around simulator phases is enabled.
func (m *ModeController) IsProfiling() bool {
	return m.Get(FlagProfiling)
}

// SetProfiling enables or disables phase timer accumulation around simulator phases.
func (m *ModeController) SetProfiling(v bool) {
	m.Set(FlagProfiling, v)
}

// IsDebugDumpping reports whether verbose debug dump output is enabled.
func (m *ModeController) IsDebugDumpping() bool {
	return m.Get(FlagDebugDumpping)
}

// SetDebugDumpping enables or disables verbose debug dump output.
func (m *ModeController) SetDebugDumpping(v bool) {
	m.Set(FlagDebugDumpping, v)
}

// IsDebugPoolInfoDumpping reports whether pool-state dump output is enabled.
func (m *ModeController) IsDebugPoolInfoDumpping() bool {
	return m.Get(FlagDebugPoolInfoDumpping)
}

// SetDebugPoolInfoDumpping enables or disables pool-state dump output.
func (m *ModeController) SetDebugPoolInfoDumpping(v bool) {
	m.Set(FlagDebugPoolInfoDumpping, v)
}

// IsTraceDumpping reports whether raw trace dump output is enabled.
func (m *ModeController) IsTraceDumpping() bool {
	return m.Get(FlagTraceDumpping)
}

// SetTraceDumpping enables or disables raw trace dump output.
func (m *ModeController) SetTraceDumpping(v bool) {
	m.Set(FlagTraceDumpping, v)
}

// IsConfigOptimization reports whether configuration-driven optimization is enabled.
func (m *ModeController) IsConfigOptimization() bool {
	return m.Get(FlagConfigOptimization)
}

// SetConfigOptimization enables or disables configuration-driven optimization.
func (m *ModeController) SetConfigOptimization(v bool) {
	m.Set(FlagConfigOptimization, v)
}

// IsGroupOptimization reports whether grouping optimization is enabled.
func (m *ModeController) IsGroupOptimization() bool {
	return m.Get(FlagGroupOptimization)
}

// SetGroupOptimization enables or disables grouping optimization.
func (m *ModeController) SetGroupOptimization(v bool) {
	m.Set(FlagGroupOptimization, v)
}

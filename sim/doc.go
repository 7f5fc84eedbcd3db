// Package sim provides the instrumentation layer the GPU memory-allocator
// simulator consults on its hot path.
//
// # Reading Guide
//
//   - opid.go: process-wide operation ids (OpIDSource)
//   - timer.go: per-phase wall-clock accumulation (PhaseTimer)
//   - mode.go: runtime feature flags (ModeController)
//   - stack.go: cached interpreter stack snapshots (Snapshotter)
//   - text.go: interpreter string decoding for frame fields (DecodeText)
//   - format.go: byte counts for diagnostics (FormatSize)
//   - instrument.go: how the allocator composes the four per operation
//
// # Architecture
//
// The sim package is interpreter-agnostic. Access to a live interpreter goes
// through the StackInspector interface; bindings live in sub-packages:
//   - sim/interp/: a cooperative interpreter guarded by one global lock
//   - sim/trace/: operation records and stack interning for trace writers
//
// Each component has a process-wide default (DefaultOpIDs, DefaultPhaseTimer,
// DefaultModes) and a constructor so tests can work on isolated instances.
//
// No component here returns errors or panics on misuse. Undecodable text,
// missing frames and empty stacks all degrade to empty values.
package sim

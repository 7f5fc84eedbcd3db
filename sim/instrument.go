package sim

import (
	"github.com/inference-sim/allocsim/sim/trace"
)

// OpKind names the allocator action an operation id was issued for.
type OpKind string

const (
	OpMalloc OpKind = "malloc"
	OpFree   OpKind = "free"
)

// Operation is what the instrumentation knows about one allocator action.
type Operation struct {
	ID    OperationID
	Kind  OpKind
	Size  uint64
	Stack StackSnapshot // nil when tracing is disabled
}

// Record converts the operation into a trace record for an external trace writer.
func (o Operation) Record() trace.OperationRecord {
	rec := trace.OperationRecord{
		ID:   uint64(o.ID),
		Kind: string(o.Kind),
		Size: o.Size,
	}
	if len(o.Stack) > 0 {
		rec.Frames = make([]trace.Frame, len(o.Stack))
		for i, fd := range o.Stack {
			rec.Frames[i] = trace.Frame{
				File:      fd.File,
				Function:  fd.Function,
				FirstLine: fd.FirstLine,
				Line:      fd.Line,
			}
		}
	}
	return rec
}

// Instrumentation bundles the components the allocator consults on its hot path.
type Instrumentation struct {
	IDs    IDIssuer
	Timer  *PhaseTimer
	Modes  *ModeController
	Stacks *Snapshotter
}

// NewInstrumentation wires the process-wide id source, timer and mode controller
// to the given snapshotter.
func NewInstrumentation(stacks *Snapshotter) *Instrumentation {
	return &Instrumentation{
		IDs:    DefaultOpIDs(),
		Timer:  DefaultPhaseTimer(),
		Modes:  DefaultModes(),
		Stacks: stacks,
	}
}

// BeginOperation issues the next operation id and, when async tracing is on,
// attaches the interpreter stack. refreshStack=false reuses the last captured stack.
func (in *Instrumentation) BeginOperation(kind OpKind, size uint64, refreshStack bool) Operation {
	op := Operation{ID: in.IDs.Advance(), Kind: kind, Size: size}
	if in.Stacks != nil && in.Modes.IsAsyncTracing() {
		op.Stack = in.Stacks.Capture(refreshStack)
	}
	return op
}

// TimePhase runs fn and, when profiling is on, accumulates its duration under slot.
func (in *Instrumentation) TimePhase(slot int, label string, fn func()) {
	if !in.Modes.IsProfiling() {
		fn()
		return
	}
	in.Timer.Start(slot)
	fn()
	in.Timer.Stop(slot)
	in.Timer.Commit(slot, label)
}

package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInstrumentation(frames []FrameDescriptor) (*Instrumentation, *Snapshotter) {
	stacks := NewSnapshotter(&fakeInspector{frames: frames})
	return &Instrumentation{
		IDs:    NewOpIDSource(),
		Timer:  NewPhaseTimer(WithClock(steppedClock(3 * time.Microsecond))),
		Modes:  NewModeController(),
		Stacks: stacks,
	}, stacks
}

func TestInstrumentation_BeginOperation_IssuesIDsAndStack(t *testing.T) {
	// GIVEN tracing on by default
	in, stacks := newTestInstrumentation(syntheticStack(3))

	// WHEN two operations begin, the second reusing the cached stack
	a := in.BeginOperation(OpMalloc, 4096, true)
	b := in.BeginOperation(OpFree, 4096, false)

	// THEN ids are consecutive and both carry the stack from a single walk
	assert.Equal(t, OperationID(0), a.ID)
	assert.Equal(t, OperationID(1), b.ID)
	assert.Len(t, a.Stack, 3)
	assert.Equal(t, a.Stack, b.Stack)
	assert.Equal(t, uint64(1), stacks.Walks())
}

func TestInstrumentation_TracingOff_NoStack(t *testing.T) {
	in, stacks := newTestInstrumentation(syntheticStack(3))
	in.Modes.SetAsyncTracing(false)

	op := in.BeginOperation(OpMalloc, 1, true)

	assert.Nil(t, op.Stack)
	assert.Zero(t, stacks.Walks())
	assert.Equal(t, OperationID(1), in.IDs.Current(), "ids are issued regardless of tracing")
}

func TestInstrumentation_TimePhase_RespectsProfiling(t *testing.T) {
	in, _ := newTestInstrumentation(nil)
	ran := 0

	in.TimePhase(1, "malloc", func() { ran++ })
	in.Modes.SetProfiling(false)
	in.TimePhase(1, "malloc", func() { ran++ })

	assert.Equal(t, 2, ran)
	label, us := in.Timer.Report(1)
	assert.Equal(t, "malloc", label)
	assert.Equal(t, 3.0, us, "only the profiled run is accumulated")
}

func TestOperation_Record_CopiesFrames(t *testing.T) {
	op := Operation{ID: 9, Kind: OpMalloc, Size: 256, Stack: syntheticStack(2)}

	rec := op.Record()

	assert.Equal(t, uint64(9), rec.ID)
	assert.Equal(t, "malloc", rec.Kind)
	assert.Equal(t, uint64(256), rec.Size)
	require.Len(t, rec.Frames, 2)
	assert.Equal(t, op.Stack[1].Function, rec.Frames[1].Function)
	assert.Equal(t, op.Stack[1].Line, rec.Frames[1].Line)
}

func TestNewInstrumentation_UsesProcessDefaults(t *testing.T) {
	in := NewInstrumentation(nil)
	assert.Same(t, DefaultPhaseTimer(), in.Timer)
	assert.Same(t, DefaultModes(), in.Modes)
	assert.Equal(t, IDIssuer(DefaultOpIDs()), in.IDs)
}

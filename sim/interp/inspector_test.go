package interp

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/allocsim/sim"
)

var (
	mainCode    = &Code{Filename: sim.Unicode("train.py"), Name: sim.Unicode("main"), FirstLine: 1}
	forwardCode = &Code{Filename: sim.RawBytes("model.py"), Name: sim.Unicode("forward"), FirstLine: 40}
	badCode     = &Code{Filename: sim.Unicode{0xD800}, Name: nil, FirstLine: -3}
)

func walk(in *Interpreter) []sim.FrameDescriptor {
	var out []sim.FrameDescriptor
	NewInspector(in).Walk(func(fd sim.FrameDescriptor) { out = append(out, fd) })
	return out
}

func TestInspector_Walk_InnermostFirst(t *testing.T) {
	// GIVEN main calling forward
	in := New()
	in.Push(mainCode, 12)
	in.Push(forwardCode, 41)
	in.SetLine(44)

	// WHEN walked
	got := walk(in)

	// THEN forward comes first, then its caller
	want := []sim.FrameDescriptor{
		{File: "model.py", Function: "forward", FirstLine: 40, Line: 44},
		{File: "train.py", Function: "main", FirstLine: 1, Line: 12},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("walk mismatch (-want +got):\n%s", diff)
	}
}

func TestInspector_Walk_Idle_Empty(t *testing.T) {
	in := New()
	assert.Empty(t, walk(in))

	in.Pop() // no-op when idle
	in.SetLine(5)
	assert.Empty(t, walk(in))
}

func TestInspector_Walk_UndecodableFields_DegradePerField(t *testing.T) {
	// GIVEN a frame whose filename cannot be decoded and whose name is missing
	in := New()
	in.Push(mainCode, 3)
	in.Push(badCode, -1)
	before := sim.DecodeFailures()

	// WHEN walked
	got := walk(in)

	// THEN only the bad fields are empty and the walk continues to the caller
	require.Len(t, got, 2)
	assert.Equal(t, sim.FrameDescriptor{}, got[0])
	assert.Equal(t, "main", got[1].Function)
	assert.Equal(t, before+2, sim.DecodeFailures())
}

func TestInspector_Walk_FrameWithoutCode(t *testing.T) {
	in := New()
	in.Push(nil, 8)
	assert.Equal(t, []sim.FrameDescriptor{{Line: 8}}, walk(in))
}

func TestInterpreter_Call_PopsFrame(t *testing.T) {
	in := New()
	in.Call(mainCode, 1, func() {
		in.Call(forwardCode, 40, func() {
			assert.Equal(t, 2, in.Depth())
		})
		assert.Equal(t, 1, in.Depth())
	})
	assert.Zero(t, in.Depth())
}

func TestInterpreter_SetLine_MovesInnermostOnly(t *testing.T) {
	// GIVEN main calling forward
	in := New()
	in.Push(mainCode, 12)
	in.Push(forwardCode, 41)

	// WHEN the innermost frame moves and then returns
	in.SetLine(47)
	got := walk(in)
	in.Pop()

	// THEN only forward's line changed and main resumes at its own line
	require.Len(t, got, 2)
	assert.Equal(t, uint64(47), got[0].Line)
	assert.Equal(t, uint64(12), got[1].Line)
	assert.Equal(t, []sim.FrameDescriptor{{File: "train.py", Function: "main", FirstLine: 1, Line: 12}}, walk(in))
}

func TestInspector_Walk_WaitsForToken(t *testing.T) {
	// GIVEN the interpreter token held elsewhere
	in := New()
	in.Push(mainCode, 1)
	in.gil.Lock()

	done := make(chan []sim.FrameDescriptor)
	go func() { done <- walk(in) }()

	// THEN the walk does not start until the token is released
	select {
	case <-done:
		t.Fatal("walk ran without the interpreter token")
	case <-time.After(20 * time.Millisecond):
	}
	in.gil.Unlock()
	assert.Len(t, <-done, 1)
}

func TestSnapshotter_OverInterpreter_ConcurrentMutation(t *testing.T) {
	// GIVEN an interpreter whose stack changes constantly
	in := New()
	snap := sim.NewSnapshotter(NewInspector(in))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for gctx.Err() == nil {
			in.Call(mainCode, 1, func() {
				in.Call(forwardCode, 40, func() { in.SetLine(41) })
			})
		}
		return nil
	})

	// WHEN native callers refresh snapshots meanwhile
	for i := 0; i < 2000; i++ {
		frames := snap.Capture(true)
		// THEN every snapshot is a consistent prefix of main <- forward
		require.LessOrEqual(t, len(frames), 2)
		if len(frames) > 0 {
			require.Equal(t, "main", frames[len(frames)-1].Function)
		}
		if len(frames) == 2 {
			require.Equal(t, "forward", frames[0].Function)
		}
	}
	cancel()
	require.NoError(t, g.Wait())
}

// cachedCaptureWithin runs Capture(false) on its own goroutine and reports whether it
// returned before the deadline.
func cachedCaptureWithin(snap *sim.Snapshotter, d time.Duration) (sim.StackSnapshot, bool) {
	done := make(chan sim.StackSnapshot, 1)
	go func() { done <- snap.Capture(false) }()
	select {
	case frames := <-done:
		return frames, true
	case <-time.After(d):
		return nil, false
	}
}

func TestSnapshotter_CachedCapture_NotBlockedByPendingRefresh(t *testing.T) {
	// GIVEN a primed snapshot and the interpreter token held elsewhere
	in := New()
	in.Push(mainCode, 1)
	snap := sim.NewSnapshotter(NewInspector(in))
	primed := snap.Capture(true)
	in.gil.Lock()

	// WHEN a refresh starts and has to wait for the token
	refreshed := make(chan sim.StackSnapshot, 1)
	go func() { refreshed <- snap.Capture(true) }()
	time.Sleep(20 * time.Millisecond)

	// THEN the cached path still returns the primed snapshot promptly
	frames, ok := cachedCaptureWithin(snap, 500*time.Millisecond)
	in.gil.Unlock()
	require.True(t, ok, "Capture(false) waited behind a refresh blocked on the interpreter token")
	assert.Equal(t, primed, frames)
	assert.Len(t, <-refreshed, 1)
}

func TestSnapshotter_TokenHolder_CachedCaptureDoesNotDeadlock(t *testing.T) {
	// GIVEN a primed snapshot
	in := New()
	snap := sim.NewSnapshotter(NewInspector(in))
	in.Push(mainCode, 1)
	snap.Capture(true)

	// WHEN interpreter code holding the token allocates while a refresh waits on it
	in.gil.Lock()
	refreshed := make(chan struct{})
	go func() {
		snap.Capture(true)
		close(refreshed)
	}()
	time.Sleep(20 * time.Millisecond)
	frames, ok := cachedCaptureWithin(snap, 500*time.Millisecond)
	n, queried := snap.Query(4, make([]sim.FrameDescriptor, 4))
	in.gil.Unlock()

	// THEN the holder's cached lookups return and the refresh completes once the token is released
	require.True(t, ok, "token holder's Capture(false) never returned")
	assert.Len(t, frames, 1)
	assert.True(t, queried)
	assert.Equal(t, 1, n)
	select {
	case <-refreshed:
	case <-time.After(time.Second):
		t.Fatal("refresh did not finish after the token was released")
	}
	assert.Equal(t, uint64(2), snap.Walks())
}

package sim

import "sync/atomic"

// FrameDescriptor describes one interpreter stack level.
type FrameDescriptor struct {
	File      string // source file of the frame's code
	Function  string // function name
	FirstLine uint64 // line the function is defined on
	Line      uint64 // line currently executing in the function
}

// StackSnapshot lists frames innermost first: element 0 is the executing frame,
// element 1 its caller, and so on up to the outermost reachable frame.
type StackSnapshot []FrameDescriptor

// StackInspector is implemented once per host-interpreter binding.
//
// Walk must hold the interpreter's exclusive-execution token for the whole walk,
// not per frame, and call visit once per frame starting from the currently
// executing frame and following caller links until none is left. If nothing is
// executing, Walk calls visit zero times. Walk must not fail: fields it cannot
// read are reported as zero values.
type StackInspector interface {
	Walk(visit func(FrameDescriptor))
}

// Snapshotter captures and caches the interpreter's call stack for the allocator.
//
// Only a refresh touches the interpreter, and it blocks while the binding waits for
// the interpreter's token. Once a snapshot exists, Capture(false) and Query wait on
// neither that token nor a refresh in flight, so hot-path callers (including code
// that already holds the token) should pass forceRefresh=false.
//
// Thread-safety: safe for concurrent use. Each refresh walks into a fresh slice and
// publishes it atomically; published snapshots are never modified. Concurrent
// refreshes each walk once and the last to finish wins.
type Snapshotter struct {
	inspector StackInspector

	cached atomic.Pointer[StackSnapshot]
	walks  atomic.Uint64
}

// NewSnapshotter creates a snapshotter over the given binding. A nil inspector
// behaves like an interpreter with nothing executing.
func NewSnapshotter(inspector StackInspector) *Snapshotter {
	return &Snapshotter{inspector: inspector}
}

// Capture returns the call stack. Without forceRefresh it returns the previous
// snapshot untouched, walking the interpreter only if nothing was captured yet.
//
// The returned slice is a read-only view; it stays valid after later captures
// because a refresh builds a new slice rather than overwriting this one.
func (s *Snapshotter) Capture(forceRefresh bool) StackSnapshot {
	if !forceRefresh {
		if p := s.cached.Load(); p != nil {
			return *p
		}
	}
	return s.refresh()
}

// refresh walks the interpreter without holding any Snapshotter state.
func (s *Snapshotter) refresh() StackSnapshot {
	s.walks.Add(1)
	capHint := 8
	if p := s.cached.Load(); p != nil {
		capHint = max(len(*p), capHint)
	}
	frames := make(StackSnapshot, 0, capHint)
	if s.inspector != nil {
		s.inspector.Walk(func(fd FrameDescriptor) {
			frames = append(frames, fd)
		})
	}
	s.cached.Store(&frames)
	return frames
}

// Query copies at most maxEntries frames, innermost first, into out and returns
// how many were written. ok is false only when the stack is empty; a short copy
// is not a failure. The copy is also bounded by len(out).
//
// Query reads the cached snapshot, capturing one first if none exists. Strings in
// the copied descriptors share storage with the snapshot.
func (s *Snapshotter) Query(maxEntries int, out []FrameDescriptor) (n int, ok bool) {
	frames := s.Capture(false)
	if len(frames) == 0 {
		return 0, false
	}
	n = min(len(frames), max(maxEntries, 0), len(out))
	copy(out[:n], frames[:n])
	return n, true
}

// Walks returns how many times the interpreter has been walked.
func (s *Snapshotter) Walks() uint64 {
	return s.walks.Load()
}

// Reset drops the cached snapshot so the next Capture walks again.
func (s *Snapshotter) Reset() {
	s.cached.Store(nil)
}

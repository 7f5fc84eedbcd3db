package sim

import "sync/atomic"

// OperationID tags one simulated allocator operation. IDs never repeat within a process.
type OperationID uint64

// IDIssuer issues operation ids. Implementations must be safe for concurrent use.
type IDIssuer interface {
	// Current returns the next id to be issued, which equals the number of ids issued so far.
	Current() OperationID
	// Advance issues one id and moves the counter forward by exactly one.
	Advance() OperationID
}

// OpIDSource is the process-wide operation counter.
// It starts at zero, only moves forward and wraps only at 2^64.
//
// Thread-safety: safe for concurrent use; Advance is a single atomic add.
type OpIDSource struct {
	next atomic.Uint64
}

// NewOpIDSource creates a counter starting at zero. Tests use it in place of the default.
func NewOpIDSource() *OpIDSource {
	return &OpIDSource{}
}

var defaultOpIDs = NewOpIDSource()

// DefaultOpIDs returns the process-wide counter shared by the simulator and allocator.
func DefaultOpIDs() *OpIDSource {
	return defaultOpIDs
}

// Current returns the counter without mutating it.
func (s *OpIDSource) Current() OperationID {
	return OperationID(s.next.Load())
}

// Advance increments the counter and returns the id it held before the increment.
// N calls from a fresh source observe exactly 0..N-1, in some order across goroutines.
func (s *OpIDSource) Advance() OperationID {
	return OperationID(s.next.Add(1) - 1)
}

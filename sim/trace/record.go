// Package trace holds allocation trace records built by the instrumentation layer.
// This package has no dependencies on sim/; it stores pure data types plus a
// bounded stack intern table.
package trace

// Frame is one interpreter stack level attached to an operation record.
type Frame struct {
	File      string `msgpack:"file"`
	Function  string `msgpack:"func"`
	FirstLine uint64 `msgpack:"first_line"`
	Line      uint64 `msgpack:"line"`
}

// OperationRecord captures a single simulated allocator operation.
type OperationRecord struct {
	ID      uint64  `msgpack:"id"`
	Kind    string  `msgpack:"kind"`
	Size    uint64  `msgpack:"size"`
	StackID uint64  `msgpack:"stack_id"` // 0 when no stack was captured
	Frames  []Frame `msgpack:"frames,omitempty"`
}

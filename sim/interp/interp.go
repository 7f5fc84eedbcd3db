// Package interp binds the stack snapshotter to a cooperative, lock-guarded
// interpreter. The interpreter owns its frames; native code may only read them
// while holding the interpreter's global lock.
package interp

import (
	"sync"

	"github.com/inference-sim/allocsim/sim"
)

// Code is the static part of a frame: where the function lives.
type Code struct {
	Filename  sim.TextObject
	Name      sim.TextObject
	FirstLine int
}

// Frame is one activation record. Back links to the caller; nil at the outermost frame.
type Frame struct {
	Code *Code
	Line int
	Back *Frame
}

// Interpreter is a single execution context guarded by one global lock, the
// exclusive-execution token. Frames are only created, linked and updated while
// the token is held.
//
// The token is not reentrant: code already holding it must not call into a
// Snapshotter that may refresh.
type Interpreter struct {
	gil sync.Mutex
	top *Frame
}

// New creates an interpreter with nothing executing.
func New() *Interpreter {
	return &Interpreter{}
}

// Push enters a function at line. Frames are not handed out; the innermost one is
// only changed through SetLine and Pop.
func (in *Interpreter) Push(code *Code, line int) {
	in.gil.Lock()
	defer in.gil.Unlock()
	in.top = &Frame{Code: code, Line: line, Back: in.top}
}

// Pop leaves the innermost function. Popping an idle interpreter is a no-op.
func (in *Interpreter) Pop() {
	in.gil.Lock()
	defer in.gil.Unlock()
	if in.top != nil {
		in.top = in.top.Back
	}
}

// SetLine moves the innermost frame to another line.
func (in *Interpreter) SetLine(line int) {
	in.gil.Lock()
	defer in.gil.Unlock()
	if in.top != nil {
		in.top.Line = line
	}
}

// Call runs fn inside a new frame for code, popping it afterwards.
// fn runs without the token, as native code called from the interpreter would.
func (in *Interpreter) Call(code *Code, line int, fn func()) {
	in.Push(code, line)
	defer in.Pop()
	fn()
}

// Depth returns the number of active frames.
func (in *Interpreter) Depth() int {
	in.gil.Lock()
	defer in.gil.Unlock()
	n := 0
	for f := in.top; f != nil; f = f.Back {
		n++
	}
	return n
}

package interp

import (
	"fortio.org/safecast"

	"github.com/inference-sim/allocsim/sim"
)

// Inspector implements sim.StackInspector for an Interpreter.
type Inspector struct {
	in *Interpreter
}

// NewInspector binds an inspector to in.
func NewInspector(in *Interpreter) *Inspector {
	return &Inspector{in: in}
}

var _ sim.StackInspector = (*Inspector)(nil)

// Walk holds the interpreter token for the whole walk and reports frames from the
// innermost one outwards. A frame without code still yields a descriptor with
// empty fields.
func (i *Inspector) Walk(visit func(sim.FrameDescriptor)) {
	i.in.gil.Lock()
	defer i.in.gil.Unlock()

	for f := i.in.top; f != nil; f = f.Back {
		visit(describe(f))
	}
}

func describe(f *Frame) sim.FrameDescriptor {
	fd := sim.FrameDescriptor{Line: lineNumber(f.Line)}
	if f.Code == nil {
		return fd
	}
	fd.File = sim.DecodeText(f.Code.Filename).String()
	fd.Function = sim.DecodeText(f.Code.Name).String()
	fd.FirstLine = lineNumber(f.Code.FirstLine)
	return fd
}

// lineNumber converts an interpreter line number; negative values degrade to 0.
func lineNumber(n int) uint64 {
	u, err := safecast.Conv[uint64](n)
	if err != nil {
		return 0
	}
	return u
}

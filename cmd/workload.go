package cmd

import (
	"context"
	"fmt"
	"math/rand"

	"fortio.org/safecast"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/allocsim/sim"
	"github.com/inference-sim/allocsim/sim/interp"
	"github.com/inference-sim/allocsim/sim/trace"
)

// dumpTimerSlot is the phase timer slot used for trace encoding; workers use 0..dumpTimerSlot-1.
const dumpTimerSlot = sim.NumTimerSlots - 1

// maxWorkers keeps every worker on its own timer slot.
const maxWorkers = dumpTimerSlot

// WorkloadConfig describes a synthetic allocator run.
type WorkloadConfig struct {
	Workers      int
	OpsPerWorker int
	Seed         int64
	RefreshEvery int    // refresh the stack snapshot every N operations per worker; <=1 refreshes always
	MaxAllocSize uint64 // upper bound for a single allocation in bytes
}

// Validate checks the workload shape.
func (c WorkloadConfig) Validate() error {
	if c.Workers < 1 || c.Workers > maxWorkers {
		return fmt.Errorf("workers must be in [1, %d], got %d", maxWorkers, c.Workers)
	}
	if c.OpsPerWorker < 0 {
		return fmt.Errorf("ops must be non-negative, got %d", c.OpsPerWorker)
	}
	if c.MaxAllocSize == 0 {
		return fmt.Errorf("max allocation size must be positive")
	}
	if _, err := safecast.Conv[int64](c.MaxAllocSize); err != nil {
		return fmt.Errorf("max allocation size %d: %w", c.MaxAllocSize, err)
	}
	return nil
}

// WorkloadResult reports per-worker pool state at the end of a run.
type WorkloadResult struct {
	Operations       int
	OutstandingBytes []uint64 // per worker
}

// scriptCodes is the call path the synthetic interpreter cycles through, outermost first.
var scriptCodes = []*interp.Code{
	{Filename: sim.Unicode("train.py"), Name: sim.Unicode("<module>"), FirstLine: 1},
	{Filename: sim.Unicode("train.py"), Name: sim.Unicode("main"), FirstLine: 12},
	{Filename: sim.Unicode("trainer.py"), Name: sim.Unicode("step"), FirstLine: 88},
	{Filename: sim.RawBytes("model.py"), Name: sim.Unicode("forward"), FirstLine: 40},
	{Filename: sim.RawBytes("layers.py"), Name: sim.Unicode("linear"), FirstLine: 7},
}

// runInterpreter keeps the interpreter's stack moving until ctx is done.
func runInterpreter(ctx context.Context, in *interp.Interpreter, rng *rand.Rand) {
	var descend func(depth int)
	descend = func(depth int) {
		code := scriptCodes[depth]
		in.Call(code, code.FirstLine+1, func() {
			for ctx.Err() == nil && rng.Intn(4) != 0 {
				in.SetLine(code.FirstLine + 1 + rng.Intn(20))
				if depth+1 < len(scriptCodes) {
					descend(depth + 1)
				}
			}
		})
	}
	for ctx.Err() == nil {
		descend(0)
	}
}

type pool struct {
	outstanding []uint64
	bytes       uint64
}

// RunWorkload drives cfg.Workers allocator goroutines through instr while a
// separate goroutine executes the synthetic interpreter.
func RunWorkload(ctx context.Context, cfg WorkloadConfig, instr *sim.Instrumentation,
	in *interp.Interpreter, tr *trace.AllocationTrace) (*WorkloadResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rngs := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed))
	interpRNG := rngs.ForSubsystem(sim.SubsystemInterpreter)
	workerRNGs := make([]*rand.Rand, cfg.Workers)
	for w := range workerRNGs {
		workerRNGs[w] = rngs.ForSubsystem(sim.SubsystemWorker(w))
	}

	interpCtx, stopInterp := context.WithCancel(ctx)
	interpDone := make(chan struct{})
	go func() {
		defer close(interpDone)
		runInterpreter(interpCtx, in, interpRNG)
	}()
	defer func() {
		stopInterp()
		<-interpDone
	}()

	result := &WorkloadResult{OutstandingBytes: make([]uint64, cfg.Workers)}
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			p := &pool{}
			label := fmt.Sprintf("worker_%d", w)
			for i := 0; i < cfg.OpsPerWorker; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				var op sim.Operation
				instr.TimePhase(w, label, func() {
					op = allocate(instr, p, workerRNGs[w], cfg, i)
				})
				if instr.Modes.IsFunctionalityChecking() && op.ID >= instr.IDs.Current() {
					return fmt.Errorf("operation id %d not below counter %d", op.ID, instr.IDs.Current())
				}
				if instr.Modes.IsDebugDumpping() {
					logrus.WithFields(logrus.Fields{
						"worker": w,
						"op":     op.ID,
						"kind":   op.Kind,
						"size":   sim.FormatSize(op.Size),
						"depth":  len(op.Stack),
					}).Debug("allocator operation")
				}
				if instr.Modes.IsDebugPoolInfoDumpping() {
					logrus.Debugf("worker %d pool: %d blocks, %s outstanding", w, len(p.outstanding), sim.FormatSize(p.bytes))
				}
				if tr != nil {
					tr.Record(op.Record())
				}
			}
			result.OutstandingBytes[w] = p.bytes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	result.Operations = cfg.Workers * cfg.OpsPerWorker
	return result, nil
}

// allocate performs one synthetic malloc or free against p.
func allocate(instr *sim.Instrumentation, p *pool, rng *rand.Rand, cfg WorkloadConfig, i int) sim.Operation {
	refresh := cfg.RefreshEvery <= 1 || i%cfg.RefreshEvery == 0
	if len(p.outstanding) > 0 && rng.Intn(3) == 0 {
		last := len(p.outstanding) - 1
		size := p.outstanding[last]
		p.outstanding = p.outstanding[:last]
		p.bytes -= size
		return instr.BeginOperation(sim.OpFree, size, refresh)
	}
	size := uint64(rng.Int63n(int64(cfg.MaxAllocSize))) + 1
	p.outstanding = append(p.outstanding, size)
	p.bytes += size
	return instr.BeginOperation(sim.OpMalloc, size, refresh)
}

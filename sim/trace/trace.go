package trace

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// TraceLevel controls how much of each operation is kept.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelOperations keeps id, kind, size and stack fingerprint.
	TraceLevelOperations TraceLevel = "operations"
	// TraceLevelStacks additionally keeps the interned frames of every record.
	TraceLevelStacks TraceLevel = "stacks"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:       true,
	TraceLevelOperations: true,
	TraceLevelStacks:     true,
	"":                   true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// DefaultStackCacheSize bounds the stack intern table when TraceConfig leaves it unset.
const DefaultStackCacheSize = 4096

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level          TraceLevel
	StackCacheSize uint32 // distinct stacks kept for interning; 0 means DefaultStackCacheSize
}

// AllocationTrace collects operation records during a simulation run.
//
// Thread-safety: Record and the accessors may be called from any goroutine.
type AllocationTrace struct {
	Config TraceConfig

	mu      sync.Mutex
	records []OperationRecord
	stacks  *lru.Cache[uint64, []Frame]
}

// NewAllocationTrace creates an AllocationTrace ready for recording.
func NewAllocationTrace(config TraceConfig) (*AllocationTrace, error) {
	size := config.StackCacheSize
	if size == 0 {
		size = DefaultStackCacheSize
	}
	stacks, err := lru.New[uint64, []Frame](int(size))
	if err != nil {
		return nil, fmt.Errorf("creating stack intern table: %w", err)
	}
	return &AllocationTrace{
		Config:  config,
		records: make([]OperationRecord, 0),
		stacks:  stacks,
	}, nil
}

// Enabled reports whether Record keeps anything.
func (t *AllocationTrace) Enabled() bool {
	return t.Config.Level != TraceLevelNone && t.Config.Level != ""
}

// Record appends an operation record. StackID is derived from the frames; at
// TraceLevelStacks identical stacks share one interned slice, at
// TraceLevelOperations the frames are dropped.
func (t *AllocationTrace) Record(rec OperationRecord) {
	if !t.Enabled() {
		return
	}
	if len(rec.Frames) > 0 {
		rec.StackID = StackFingerprint(rec.Frames)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Config.Level == TraceLevelStacks && rec.StackID != 0 {
		if interned, ok := t.stacks.Get(rec.StackID); ok {
			rec.Frames = interned
		} else {
			t.stacks.Add(rec.StackID, rec.Frames)
		}
	} else {
		rec.Frames = nil
	}
	t.records = append(t.records, rec)
}

// Records returns a copy of the collected records in recording order.
func (t *AllocationTrace) Records() []OperationRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]OperationRecord, len(t.records))
	copy(out, t.records)
	return out
}

// Stack returns the interned frames for a fingerprint, if still cached.
func (t *AllocationTrace) Stack(id uint64) ([]Frame, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stacks.Get(id)
}

// Encode writes the records as a msgpack array for an external trace writer.
func (t *AllocationTrace) Encode(w io.Writer) error {
	recs := t.Records()
	if err := msgpack.NewEncoder(w).Encode(recs); err != nil {
		return fmt.Errorf("encoding %d trace records: %w", len(recs), err)
	}
	return nil
}

// DecodeRecords reads records written by Encode.
func DecodeRecords(r io.Reader) ([]OperationRecord, error) {
	var recs []OperationRecord
	if err := msgpack.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decoding trace records: %w", err)
	}
	return recs, nil
}

// StackFingerprint hashes a frame sequence. Order matters; an empty stack hashes to 0.
func StackFingerprint(frames []Frame) uint64 {
	if len(frames) == 0 {
		return 0
	}
	d := xxhash.New()
	var buf [16]byte
	for _, f := range frames {
		_, _ = d.WriteString(f.File)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(f.Function)
		_, _ = d.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:8], f.FirstLine)
		binary.LittleEndian.PutUint64(buf[8:], f.Line)
		_, _ = d.Write(buf[:])
	}
	if sum := d.Sum64(); sum != 0 {
		return sum
	}
	return 1
}

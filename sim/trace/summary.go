package trace

// TraceSummary aggregates statistics from an AllocationTrace.
type TraceSummary struct {
	TotalOperations int
	KindCounts      map[string]int    // operation kind → count
	KindBytes       map[string]uint64 // operation kind → summed sizes
	UniqueStacks    int
	MaxStackDepth   int
	FirstID         uint64
	LastID          uint64
}

// Summarize computes aggregate statistics from an AllocationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(t *AllocationTrace) *TraceSummary {
	summary := &TraceSummary{
		KindCounts: make(map[string]int),
		KindBytes:  make(map[string]uint64),
	}
	if t == nil {
		return summary
	}

	recs := t.Records()
	summary.TotalOperations = len(recs)
	stacks := make(map[uint64]struct{})
	for i, r := range recs {
		summary.KindCounts[r.Kind]++
		summary.KindBytes[r.Kind] += r.Size
		if r.StackID != 0 {
			stacks[r.StackID] = struct{}{}
		}
		if len(r.Frames) > summary.MaxStackDepth {
			summary.MaxStackDepth = len(r.Frames)
		}
		if i == 0 || r.ID < summary.FirstID {
			summary.FirstID = r.ID
		}
		if r.ID > summary.LastID {
			summary.LastID = r.ID
		}
	}
	summary.UniqueStacks = len(stacks)

	return summary
}

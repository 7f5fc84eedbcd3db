package sim

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// NumTimerSlots is the number of phase timer slots.
const NumTimerSlots = 10

// Clock returns the current time. PhaseTimer reads wall-clock time through it.
type Clock func() time.Time

// TimerReport is the diagnostic projection of one labelled slot.
type TimerReport struct {
	Slot   int
	Label  string
	Micros float64
}

type timerSlot struct {
	// label is nil until the first Commit; CompareAndSwap(nil, ...) makes it set-once.
	label atomic.Pointer[string]

	mu     sync.Mutex
	start  time.Time
	stop   time.Time
	micros float64
}

// PhaseTimer accumulates wall-clock time per phase slot across repeated
// Start/Stop/Commit cycles.
//
// A slot is not reentrant: a second Start before the matching Stop replaces the
// pending start time (last start wins). Calling Stop before Start yields a
// negative contribution. Both are caller-discipline contracts.
//
// Thread-safety: different slots may be driven from different goroutines. A single
// slot must be confined to one goroutine or serialized by the caller; the per-slot
// lock only keeps individual reads and writes from tearing.
type PhaseTimer struct {
	now   Clock
	slots [NumTimerSlots]timerSlot
}

// TimerOption configures a PhaseTimer.
type TimerOption func(*PhaseTimer)

// WithClock replaces time.Now as the timer's time source.
func WithClock(c Clock) TimerOption {
	return func(t *PhaseTimer) { t.now = c }
}

// NewPhaseTimer creates a timer with all slots zeroed and unlabelled.
func NewPhaseTimer(opts ...TimerOption) *PhaseTimer {
	t := &PhaseTimer{now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var defaultTimer = NewPhaseTimer()

// DefaultPhaseTimer returns the process-wide timer table.
func DefaultPhaseTimer() *PhaseTimer {
	return defaultTimer
}

func (t *PhaseTimer) slot(i int) *timerSlot {
	if i < 0 || i >= NumTimerSlots {
		return nil
	}
	return &t.slots[i]
}

// Start records now as the slot's pending start time. Out-of-range slots are ignored.
func (t *PhaseTimer) Start(slot int) {
	s := t.slot(slot)
	if s == nil {
		return
	}
	now := t.now()
	s.mu.Lock()
	s.start = now
	s.mu.Unlock()
}

// Stop records now as the slot's pending stop time.
func (t *PhaseTimer) Stop(slot int) {
	s := t.slot(slot)
	if s == nil {
		return
	}
	now := t.now()
	s.mu.Lock()
	s.stop = now
	s.mu.Unlock()
}

// Commit labels the slot if it has no label yet, then adds stop-start, truncated
// to microseconds, to the slot's accumulator. The most recent start and stop are
// used whether or not they were a matched pair.
func (t *PhaseTimer) Commit(slot int, label string) {
	s := t.slot(slot)
	if s == nil {
		return
	}
	s.label.CompareAndSwap(nil, &label)

	s.mu.Lock()
	s.micros += float64(s.stop.Sub(s.start).Microseconds())
	s.mu.Unlock()
}

// Report returns the slot's label and cumulative microseconds.
// An unlabelled or out-of-range slot reports an empty label.
func (t *PhaseTimer) Report(slot int) (string, float64) {
	s := t.slot(slot)
	if s == nil {
		return "", 0
	}
	var label string
	if p := s.label.Load(); p != nil {
		label = *p
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return label, s.micros
}

// Reports returns every labelled slot in slot order.
func (t *PhaseTimer) Reports() []TimerReport {
	out := make([]TimerReport, 0, NumTimerSlots)
	for i := range t.slots {
		if t.slots[i].label.Load() == nil {
			continue
		}
		label, us := t.Report(i)
		out = append(out, TimerReport{Slot: i, Label: label, Micros: us})
	}
	return out
}

// Print writes one "label: N us" line per labelled slot.
func (t *PhaseTimer) Print(w io.Writer) {
	for _, r := range t.Reports() {
		_, _ = fmt.Fprintf(w, "%s: %.0f us\n", r.Label, r.Micros)
	}
}

// Reset clears every slot, including labels.
func (t *PhaseTimer) Reset() {
	for i := range t.slots {
		s := &t.slots[i]
		s.label.Store(nil)
		s.mu.Lock()
		s.start, s.stop, s.micros = time.Time{}, time.Time{}, 0
		s.mu.Unlock()
	}
}

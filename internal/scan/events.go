package scan

import (
	"sync"
	"time"
)

// EventKind names the three notification kinds emitted by every scanner.
type EventKind string

const (
	EventProgress  EventKind = "progress"
	EventCompleted EventKind = "completed"
	EventAborted   EventKind = "aborted"
)

// Progress carries one progress update. Percent is derived from
// Current/Total when Total is known.
type Progress struct {
	Phase   string `json:"phase"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Item    string `json:"item,omitempty"`
}

// Percent returns completion as 0-100.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Current) / float64(p.Total) * 100
}

// Event is a single notification delivered to a subscriber.
type Event struct {
	Kind     EventKind
	Progress Progress
}

// Listener receives scan events. It is called synchronously from the
// scanning goroutine and must return quickly.
type Listener func(Event)

// minEmitInterval bounds how often intermediate progress updates reach the
// listener. Terminal updates (Current == Total) always go through.
const minEmitInterval = 100 * time.Millisecond

// Emitter delivers progress, completed and aborted events to an optional
// listener. Intermediate progress is coalesced so callers are not flooded,
// and the delivered percent is guaranteed non-decreasing within a phase.
// A phase change starts a fresh percent sequence, so a scan moving from
// discovery to port-scan to checking stays visible end to end.
type Emitter struct {
	mu          sync.Mutex
	listener    Listener
	lastPhase   string
	lastPercent float64
	lastEmit    time.Time
}

// NewEmitter returns an emitter for the given listener. A nil listener
// produces an emitter that drops all events.
func NewEmitter(l Listener) *Emitter {
	return &Emitter{listener: l}
}

// Reset clears per-scan state so the emitter can serve the next scan.
func (e *Emitter) Reset() {
	e.mu.Lock()
	e.lastPhase = ""
	e.lastPercent = 0
	e.lastEmit = time.Time{}
	e.mu.Unlock()
}

// Progress reports phase completion. Updates that would move a phase's
// percent backwards are dropped, as are updates arriving faster than the
// coalescing interval.
func (e *Emitter) Progress(phase string, current, total int, item string) {
	if e == nil || e.listener == nil {
		return
	}
	p := Progress{Phase: phase, Current: current, Total: total, Item: item}

	e.mu.Lock()
	if phase != e.lastPhase {
		e.lastPhase = phase
		e.lastPercent = 0
		e.lastEmit = time.Time{}
	}
	pct := p.Percent()
	terminal := total > 0 && current >= total
	if pct < e.lastPercent {
		e.mu.Unlock()
		return
	}
	if !terminal && time.Since(e.lastEmit) < minEmitInterval && e.lastEmit != (time.Time{}) {
		e.mu.Unlock()
		return
	}
	e.lastPercent = pct
	e.lastEmit = time.Now()
	e.mu.Unlock()

	e.listener(Event{Kind: EventProgress, Progress: p})
}

// Completed signals a terminal successful scan.
func (e *Emitter) Completed() {
	if e == nil || e.listener == nil {
		return
	}
	e.listener(Event{Kind: EventCompleted})
}

// Aborted signals cooperative cancellation took effect.
func (e *Emitter) Aborted() {
	if e == nil || e.listener == nil {
		return
	}
	e.listener(Event{Kind: EventAborted})
}

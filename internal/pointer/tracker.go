// Package pointer tracks the two targeting signals the shim reports:
// the hover target (coalesced to one hit test per animation frame in the
// page) and the pinned right-click target. Menu actions always act on
// the pinned descriptor — the hover target may be stale by the time the
// user picks an item.
package pointer

import (
	"sync"
	"time"

	"github.com/anyclick/anyclick/internal/dom"
)

// DefaultTouchWindow is how long after a touch interaction the
// touch-emulated mouse events are suppressed. A timing heuristic, not a
// guarantee — slow devices may dispatch emulated events later.
const DefaultTouchWindow = 500 * time.Millisecond

// Tracker holds the current and pinned targets. Safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	current   *dom.Descriptor
	pinned    *dom.Descriptor
	lastTouch time.Time
	window    time.Duration
	now       func() time.Time
}

// New creates a Tracker. window <= 0 takes DefaultTouchWindow.
func New(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultTouchWindow
	}
	return &Tracker{window: window, now: time.Now}
}

// Motion records the latest hover target. Only the most recent position
// survives — older motions are simply overwritten.
func (t *Tracker) Motion(d *dom.Descriptor) {
	t.mu.Lock()
	t.current = d
	t.mu.Unlock()
}

// MarkTouch flags that the last interaction was touch, opening the
// suppression window.
func (t *Tracker) MarkTouch() {
	t.mu.Lock()
	t.lastTouch = t.now()
	t.mu.Unlock()
}

// Pin records the right-clicked target. Returns false when the event
// falls inside the touch suppression window and was discarded.
func (t *Tracker) Pin(d *dom.Descriptor) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.lastTouch.IsZero() && t.now().Sub(t.lastTouch) < t.window {
		return false
	}
	t.pinned = d
	return true
}

// Current returns the last hover target, possibly nil.
func (t *Tracker) Current() *dom.Descriptor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Pinned returns the element pinned at the most recent accepted
// right-click. Stable across menu navigation.
func (t *Tracker) Pinned() *dom.Descriptor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pinned
}

// Reset drops both targets (navigation, teardown).
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.current = nil
	t.pinned = nil
	t.mu.Unlock()
}

// Package overlay holds the state behind the on-page adornments: the
// element highlight box and transient toasts. The shim only paints what
// these types decide.
package overlay

import (
	"sync"

	"github.com/anyclick/anyclick/capture"
)

// Highlight tracks the single outline box drawn over the targeted
// element. At most one box exists at a time; showing a new one replaces
// the old.
type Highlight struct {
	mu        sync.Mutex
	rect      *capture.Rect
	preserved bool
}

// Box is the draw command for the shim.
type Box struct {
	Rect capture.Rect `json:"rect"`
}

// Show replaces the current box with one over the given rect and
// returns the draw command.
func (h *Highlight) Show(rect capture.Rect) Box {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rect = &rect
	h.preserved = false
	return Box{Rect: rect}
}

// Preserve keeps the current box alive across the next menu close.
// Only the inspect action sets this.
func (h *Highlight) Preserve() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rect != nil {
		h.preserved = true
	}
}

// Clear drops the box and reports whether the shim should hide it.
// A preserved box survives a regular clear; force removes it anyway.
func (h *Highlight) Clear(force bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rect == nil {
		return false
	}
	if h.preserved && !force {
		h.preserved = false
		return false
	}
	h.rect = nil
	h.preserved = false
	return true
}

// Active reports whether a box is currently shown.
func (h *Highlight) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rect != nil
}

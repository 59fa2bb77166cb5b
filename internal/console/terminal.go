package console

import (
	"sort"
	"time"

	"github.com/Versifine/laneshift/internal/input"
	"golang.org/x/term"
)

const (
	defaultKeyPulse = 180 * time.Millisecond
	mouseContactID  = "mouse"
)

// Terminal is an input.EventSource fed from a raw-mode terminal. Terminals
// report no key-up, so every key press is held for a pulse and released
// when it expires; auto-repeat re-arms the pulse.
//
// Terminal is not safe for concurrent use; the console drives it under the
// runner lock.
type Terminal struct {
	*input.Dispatcher

	fd    int
	pulse time.Duration
	held  map[string]time.Time
	mouse bool
}

// NewTerminal reads the surface width from fd. A negative fd falls back to
// SetSurfaceWidth.
func NewTerminal(fd int, pulse time.Duration) *Terminal {
	if pulse <= 0 {
		pulse = defaultKeyPulse
	}
	return &Terminal{
		Dispatcher: input.NewDispatcher(),
		fd:         fd,
		pulse:      pulse,
		held:       make(map[string]time.Time),
	}
}

func (t *Terminal) SurfaceWidth() (float64, bool) {
	if t.fd >= 0 {
		if w, _, err := term.GetSize(t.fd); err == nil && w > 0 {
			return float64(w), true
		}
	}
	return t.Dispatcher.SurfaceWidth()
}

// Press emits a key-down for key unless it is already held, and (re)arms its
// release at now + pulse.
func (t *Terminal) Press(key string, now time.Time) {
	_, held := t.held[key]
	t.held[key] = now.Add(t.pulse)
	if !held {
		t.KeyDown(key)
	}
}

// Expire releases every pulse that has run out by now.
func (t *Terminal) Expire(now time.Time) {
	for _, key := range t.heldKeys() {
		if !now.Before(t.held[key]) {
			delete(t.held, key)
			t.KeyUp(key)
		}
	}
}

// ReleaseAll releases every held pulse and the mouse contact.
func (t *Terminal) ReleaseAll() {
	for _, key := range t.heldKeys() {
		delete(t.held, key)
		t.KeyUp(key)
	}
	if t.mouse {
		t.mouse = false
		t.TouchEnd(input.Contact{ID: mouseContactID})
	}
}

func (t *Terminal) heldKeys() []string {
	keys := make([]string, 0, len(t.held))
	for k := range t.held {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t *Terminal) Held() int {
	return len(t.held)
}

// Mouse maps a primary-button SGR report onto the "mouse" contact.
func (t *Terminal) Mouse(ev mouseEvent) {
	if !ev.primary() {
		return
	}
	c := input.Contact{ID: mouseContactID, X: float64(ev.X), Y: float64(ev.Y)}
	switch {
	case ev.Release:
		if t.mouse {
			t.mouse = false
			t.TouchEnd(c)
		}
	case ev.Press:
		if t.mouse {
			t.TouchEnd(c)
		}
		t.mouse = true
		t.TouchStart(c)
	case ev.Motion:
		if t.mouse {
			t.TouchMove(c)
		}
	}
}

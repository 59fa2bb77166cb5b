package input

import (
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Versifine/laneshift/internal/event"
	"golang.org/x/text/cases"
)

// Source owns the held-key set and the live contacts, and publishes a
// debounced State to subscribers.
//
// Source is not safe for concurrent use. The host delivers raw events and
// reads state from a single goroutine (or under its own lock).
type Source struct {
	events EventSource
	opts   Options
	log    *slog.Logger

	leftKeys  map[string]struct{}
	rightKeys map[string]struct{}
	pressed   map[string]struct{}
	touches   map[string]*TouchRecord

	lastWidth float64
	hasWidth  bool

	state       State
	lastApplied time.Time

	subscribers *event.Registry[State]
	detach      []Detach
	disposed    bool
}

func NewSource(events EventSource, opts Options) *Source {
	opts = opts.withDefaults()
	s := &Source{
		events:      events,
		opts:        opts,
		log:         opts.Logger.With("component", "input"),
		pressed:     make(map[string]struct{}),
		touches:     make(map[string]*TouchRecord),
		subscribers: event.NewRegistry[State]("input.state"),
	}
	s.bindKeys(opts.LeftKeys, opts.RightKeys)
	if events != nil {
		s.detach = []Detach{
			events.OnKeyDown(s.KeyDown),
			events.OnKeyUp(s.KeyUp),
			events.OnTouchStart(s.TouchStart),
			events.OnTouchMove(s.TouchMove),
			events.OnTouchEnd(s.TouchEnd),
		}
	}
	return s
}

func normalizeKey(key string) string {
	return cases.Fold().String(strings.TrimSpace(key))
}

func (s *Source) bindKeys(left, right []string) {
	s.leftKeys = make(map[string]struct{}, len(left))
	for _, k := range left {
		if k = normalizeKey(k); k != "" {
			s.leftKeys[k] = struct{}{}
		}
	}
	s.rightKeys = make(map[string]struct{}, len(right))
	for _, k := range right {
		if k = normalizeKey(k); k != "" {
			s.rightKeys[k] = struct{}{}
		}
	}
}

func (s *Source) isMovementKey(key string) bool {
	_, left := s.leftKeys[key]
	_, right := s.rightKeys[key]
	return left || right
}

func (s *Source) KeyDown(key string) {
	if s.disposed {
		return
	}
	k := normalizeKey(key)
	if !s.isMovementKey(k) {
		return
	}
	if _, held := s.pressed[k]; held {
		return
	}
	s.pressed[k] = struct{}{}
	s.recompute()
}

// KeyUp always recomputes so the held set stays accurate even for keys that
// were unbound by Reconfigure.
func (s *Source) KeyUp(key string) {
	if s.disposed {
		return
	}
	delete(s.pressed, normalizeKey(key))
	s.recompute()
}

func (s *Source) TouchStart(contacts []Contact) {
	if s.disposed {
		return
	}
	s.refreshWidth()
	for _, c := range contacts {
		if c.ID == "" {
			continue
		}
		s.touches[c.ID] = &TouchRecord{
			StartX:   c.X,
			StartY:   c.Y,
			CurrentX: c.X,
			CurrentY: c.Y,
			Zone:     s.zoneFor(c.X),
		}
	}
	s.recompute()
}

func (s *Source) TouchMove(contacts []Contact) {
	if s.disposed {
		return
	}
	for _, c := range contacts {
		rec, ok := s.touches[c.ID]
		if !ok {
			continue
		}
		rec.CurrentX = c.X
		rec.CurrentY = c.Y
	}
	s.recompute()
}

func (s *Source) TouchEnd(contacts []Contact) {
	if s.disposed {
		return
	}
	for _, c := range contacts {
		delete(s.touches, c.ID)
	}
	s.recompute()
}

// Resync re-runs recomputation without a new raw event. Hosts may call it
// once per tick so a change dropped inside the debounce window surfaces as
// soon as the window has passed.
func (s *Source) Resync() {
	if s.disposed {
		return
	}
	s.recompute()
}

func (s *Source) refreshWidth() {
	if s.events == nil {
		return
	}
	if w, ok := s.events.SurfaceWidth(); ok && w > 0 {
		s.lastWidth = w
		s.hasWidth = true
	}
}

// zoneFor splits the surface at its midpoint; the midpoint itself is RIGHT.
// Without a known width the split is at x = 0.
func (s *Source) zoneFor(x float64) Zone {
	mid := 0.0
	if s.hasWidth {
		mid = s.lastWidth / 2
	}
	if x < mid {
		return ZoneLeft
	}
	return ZoneRight
}

func (s *Source) recompute() {
	s.publish(false)
}

// publish commits a changed intent. force skips the debounce window; it is
// used when the bindings themselves change rather than the raw input.
func (s *Source) publish(force bool) {
	next := s.resolve()
	if next.SameIntent(s.state) {
		return
	}
	now := s.opts.Clock.Now()
	if !force && !debounceElapsed(s.lastApplied, now, s.opts.DebounceInterval) {
		s.log.Debug("Intent change dropped inside debounce window",
			"left", next.Left, "right", next.Right,
			"since_last", now.Sub(s.lastApplied))
		return
	}
	s.state = next
	s.lastApplied = now
	s.subscribers.Emit(next)
}

func (s *Source) resolve() State {
	if len(s.touches) > 0 {
		st := State{Modality: ModalityTouch}
		for _, rec := range s.touches {
			left, right := classify(*rec, s.opts.SwipeThreshold, s.opts.DeadZone)
			st.Left = st.Left || left
			st.Right = st.Right || right
		}
		return st
	}

	var st State
	held := false
	for k := range s.pressed {
		if _, ok := s.leftKeys[k]; ok {
			st.Left = true
			held = true
		}
		if _, ok := s.rightKeys[k]; ok {
			st.Right = true
			held = true
		}
	}
	if held {
		st.Modality = ModalityKeyboard
	}
	return st
}

// Gesture is how a single contact is read.
type Gesture int

const (
	GestureNeutral Gesture = iota
	GestureHold
	GestureSwipe
)

func (g Gesture) String() string {
	switch g {
	case GestureNeutral:
		return "neutral"
	case GestureHold:
		return "hold"
	case GestureSwipe:
		return "swipe"
	default:
		return "unknown"
	}
}

// ClassifyGesture reports whether a contact is a swipe (|dx| > swipe), a
// held press (|dx| <= deadZone) or in the neutral band between the two.
func ClassifyGesture(rec TouchRecord, swipe, deadZone float64) Gesture {
	dx := math.Abs(rec.DeltaX())
	switch {
	case dx > swipe:
		return GestureSwipe
	case dx <= deadZone:
		return GestureHold
	default:
		return GestureNeutral
	}
}

func classify(rec TouchRecord, swipe, deadZone float64) (left, right bool) {
	switch ClassifyGesture(rec, swipe, deadZone) {
	case GestureSwipe:
		if rec.DeltaX() > 0 {
			return false, true
		}
		return true, false
	case GestureHold:
		if rec.Zone == ZoneLeft {
			return true, false
		}
		return false, true
	}
	return false, false
}

// debounceElapsed reports whether a change at now may be published given the
// last published change. The first change is always publishable.
func debounceElapsed(lastApplied, now time.Time, interval time.Duration) bool {
	if lastApplied.IsZero() {
		return true
	}
	return now.Sub(lastApplied) >= interval
}

func (s *Source) GetState() State {
	return s.state
}

// Subscribe registers fn and calls it once with the current state.
func (s *Source) Subscribe(fn func(State)) event.Token {
	if fn == nil || s.disposed {
		return event.Token{}
	}
	tok := s.subscribers.Add(fn)
	fn(s.state)
	return tok
}

func (s *Source) Unsubscribe(tok event.Token) bool {
	return s.subscribers.Remove(tok)
}

func (s *Source) Subscribers() int {
	return s.subscribers.Len()
}

// Touches returns a copy of the live contacts keyed by contact ID.
func (s *Source) Touches() map[string]TouchRecord {
	out := make(map[string]TouchRecord, len(s.touches))
	for id, rec := range s.touches {
		out[id] = *rec
	}
	return out
}

func (s *Source) HeldKeys() []string {
	keys := make([]string, 0, len(s.pressed))
	for k := range s.pressed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Source) Options() Options {
	return s.opts
}

// Reconfigure swaps thresholds, debounce interval and key bindings and
// re-resolves the intent at once, ignoring the debounce window. The clock
// and logger are kept when opts leaves them nil. Held keys that are no longer
// bound stay in the set but contribute nothing.
func (s *Source) Reconfigure(opts Options) {
	if s.disposed {
		return
	}
	if opts.Clock == nil {
		opts.Clock = s.opts.Clock
	}
	if opts.Logger == nil {
		opts.Logger = s.opts.Logger
	}
	s.opts = opts.withDefaults()
	s.bindKeys(s.opts.LeftKeys, s.opts.RightKeys)
	s.log.Info("Input reconfigured",
		"debounce", s.opts.DebounceInterval,
		"swipe_threshold", s.opts.SwipeThreshold,
		"dead_zone", s.opts.DeadZone)
	s.publish(true)
}

// Dispose detaches from the event source and drops all subscribers. It is
// safe to call more than once.
func (s *Source) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	for _, d := range s.detach {
		if d != nil {
			d()
		}
	}
	s.detach = nil
	s.subscribers.Clear()
}

package scenario

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Versifine/laneshift/internal/config"
	"github.com/Versifine/laneshift/internal/event"
	"github.com/Versifine/laneshift/internal/input"
	"github.com/Versifine/laneshift/internal/logger"
	"github.com/Versifine/laneshift/internal/loop"
	"github.com/Versifine/laneshift/internal/motion"
)

var epoch = time.Unix(0, 0).UTC()

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

type Sample struct {
	AtMS     int
	Phase    loop.Phase
	Lane     int
	Position float64
	Velocity float64
	Intent   input.State
}

// Note is a notification observed during the run: an input publication, a
// phase change or a lane change.
type Note struct {
	AtMS   int
	Kind   string
	Detail string
}

type Trace struct {
	Name    string
	Lanes   []float64
	Samples []Sample
	Notes   []Note
}

// Final returns the last sample, or the zero Sample for an empty trace.
func (t *Trace) Final() Sample {
	if len(t.Samples) == 0 {
		return Sample{}
	}
	return t.Samples[len(t.Samples)-1]
}

// Run replays s against a fresh core built from cfg (DefaultConfig when nil).
// Boot is skipped: the first tick enters the running phase.
func Run(s *Script, cfg *config.Config, log *slog.Logger) (*Trace, error) {
	if s == nil {
		return nil, fmt.Errorf("scenario: nil script")
	}
	if s.TickMS <= 0 {
		return nil, fmt.Errorf("scenario: tick_ms must be > 0, got %d", s.TickMS)
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scenario config: %w", err)
	}
	if log == nil {
		log = logger.Discard()
	}

	clock := &manualClock{now: epoch}
	at := func() int { return int(clock.now.Sub(epoch) / time.Millisecond) }

	disp := input.NewDispatcher()
	disp.SetSurfaceWidth(s.SurfaceWidth)

	inOpts := cfg.InputOptions(log)
	inOpts.Clock = clock
	src := input.NewSource(disp, inOpts)
	defer src.Dispose()

	ctrl := motion.NewController(cfg.MotionOptions())

	tr := &Trace{Name: s.Name, Lanes: ctrl.LanePositions()}
	note := func(kind, format string, args ...any) {
		tr.Notes = append(tr.Notes, Note{AtMS: at(), Kind: kind, Detail: fmt.Sprintf(format, args...)})
	}

	bus := event.NewBus()
	defer bus.Close()
	bus.Subscribe(event.EventPhaseChanged, func(raw any) {
		e := raw.(event.PhaseChangedEvent)
		note("phase", "%s -> %s", e.From, e.To)
	})
	bus.Subscribe(event.EventLaneChanged, func(raw any) {
		e := raw.(event.LaneChangedEvent)
		note("lane", "%d -> %d x=%+.2f", e.From, e.To, e.TargetX)
	})

	first := true
	src.Subscribe(func(st input.State) {
		if first {
			first = false
			return
		}
		note("input", "%s", formatIntent(st))
	})

	lo := cfg.LoopOptions()
	lo.BootDuration = 0
	lo.Bus = bus
	lo.Logger = log
	runner := loop.NewRunner(src, ctrl, lo)

	tick := time.Duration(s.TickMS) * time.Millisecond
	next := 0
	for t := 0; t <= s.DurationMS; t += s.TickMS {
		for next < len(s.Steps) && s.Steps[next].AtMS <= t {
			step := s.Steps[next]
			clock.now = epoch.Add(time.Duration(step.AtMS) * time.Millisecond)
			runner.Do(func() { step.apply(disp) })
			log.Debug("Applied step", "at_ms", step.AtMS, "step", step.String())
			next++
		}
		clock.now = epoch.Add(time.Duration(t) * time.Millisecond)

		dt := tick
		if t == 0 {
			dt = 0
		}
		runner.Step(dt)

		st := runner.Status()
		tr.Samples = append(tr.Samples, Sample{
			AtMS:     t,
			Phase:    st.Phase,
			Lane:     st.Motion.TargetLane,
			Position: st.Motion.Position,
			Velocity: st.Motion.Velocity,
			Intent:   st.Intent,
		})
	}
	runner.Close()
	return tr, nil
}

func formatIntent(st input.State) string {
	return fmt.Sprintf("L%s R%s %s", mark(st.Left), mark(st.Right), st.Modality)
}

func mark(v bool) string {
	if v {
		return "+"
	}
	return "-"
}

// Format renders the trace as plain text, notes first and then one line per
// tick.
func (t *Trace) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", t.Name)
	fmt.Fprintf(&b, "lanes:")
	for _, x := range t.Lanes {
		fmt.Fprintf(&b, " %+.2f", x)
	}
	b.WriteString("\nnotes:\n")
	for _, n := range t.Notes {
		fmt.Fprintf(&b, "  t=%-5d %-6s %s\n", n.AtMS, n.Kind, n.Detail)
	}
	b.WriteString("samples:\n")
	for _, s := range t.Samples {
		fmt.Fprintf(&b, "  t=%-5d %-8s lane=%d x=%+.2f v=%+.2f %s\n",
			s.AtMS, s.Phase, s.Lane, s.Position, s.Velocity, formatIntent(s.Intent))
	}
	return b.String()
}

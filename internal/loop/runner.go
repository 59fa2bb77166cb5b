// Package loop drives the control core once per tick: it advances the
// application phase machine and feeds the published intent to the motion
// controller.
package loop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Versifine/laneshift/internal/event"
	"github.com/Versifine/laneshift/internal/fsm"
	"github.com/Versifine/laneshift/internal/input"
	"github.com/Versifine/laneshift/internal/motion"
)

type Phase string

const (
	PhaseBoot    Phase = "boot"
	PhaseRunning Phase = "running"
	PhasePaused  Phase = "paused"
	PhaseStopped Phase = "stopped"
)

const (
	DefaultTickInterval = time.Second / 60
	DefaultBootDuration = time.Second
)

// IntentProvider is the read side of input.Source.
type IntentProvider interface {
	GetState() input.State
}

// Resyncer is implemented by providers that can re-evaluate dropped changes.
type Resyncer interface {
	Resync()
}

type Options struct {
	TickInterval time.Duration
	// BootDuration is how long the runner stays in PhaseBoot. Zero leaves
	// boot on the first tick.
	BootDuration time.Duration
	// ResyncInput calls Resync on the provider before reading it each
	// running tick.
	ResyncInput bool
	Bus         *event.Bus
	Logger      *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		TickInterval: DefaultTickInterval,
		BootDuration: DefaultBootDuration,
	}
}

type Status struct {
	Phase  Phase
	Motion motion.State
	Intent input.State
	Ticks  uint64
}

type pending struct {
	name string
	evt  any
}

// Runner serializes ticks and host input delivery behind one lock.
type Runner struct {
	mu      sync.Mutex
	source  IntentProvider
	ctrl    *motion.Controller
	machine *fsm.Machine[Phase]
	bus     *event.Bus
	opts    Options
	log     *slog.Logger

	bootElapsed time.Duration
	ticks       uint64
	lastIntent  input.State
	queue       []pending
}

func NewRunner(source IntentProvider, ctrl *motion.Controller, opts Options) *Runner {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.BootDuration < 0 {
		opts.BootDuration = 0
	}
	if opts.Bus == nil {
		opts.Bus = event.NewBus()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := &Runner{
		source: source,
		ctrl:   ctrl,
		bus:    opts.Bus,
		opts:   opts,
		log:    opts.Logger.With("component", "loop"),
	}
	r.machine = fsm.New(PhaseBoot, fsm.WithLogger(opts.Logger))
	r.machine.RegisterState(PhaseBoot, fsm.Hooks{
		OnExit: func() { r.log.Info("Boot finished", "elapsed", r.bootElapsed) },
	})
	r.machine.RegisterState(PhaseRunning, fsm.Hooks{
		OnEnter: func() { r.lastIntent = input.State{} },
	})
	r.machine.RegisterState(PhasePaused)
	r.machine.RegisterState(PhaseStopped, fsm.Hooks{
		OnEnter: func() { r.log.Info("Runner stopped", "ticks", r.ticks) },
	})
	r.machine.AddStateChangeListener(func(prev, next Phase) {
		r.enqueue(event.EventPhaseChanged, event.PhaseChangedEvent{From: string(prev), To: string(next)})
	})
	return r
}

func (r *Runner) Bus() *event.Bus {
	return r.bus
}

func (r *Runner) enqueue(name string, evt any) {
	r.queue = append(r.queue, pending{name: name, evt: evt})
}

// unlock releases the lock and then publishes queued events, so bus
// handlers may call back into the Runner.
func (r *Runner) unlock() {
	queue := r.queue
	r.queue = nil
	r.mu.Unlock()
	for _, p := range queue {
		r.bus.Publish(p.name, p.evt)
	}
}

// Do runs fn under the runner lock. Hosts deliver raw input through Do so it
// never interleaves with a tick.
func (r *Runner) Do(fn func()) {
	r.mu.Lock()
	defer r.unlock()
	fn()
}

// Step runs one tick of dt.
func (r *Runner) Step(dt time.Duration) {
	r.mu.Lock()
	defer r.unlock()
	r.step(dt)
}

func (r *Runner) step(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	r.ticks++

	switch r.machine.State() {
	case PhaseBoot:
		r.bootElapsed += dt
		if r.bootElapsed >= r.opts.BootDuration {
			_ = r.machine.ChangeState(PhaseRunning)
		}
	case PhaseRunning:
		r.advance(dt)
	}
}

func (r *Runner) advance(dt time.Duration) {
	if r.opts.ResyncInput {
		if rs, ok := r.source.(Resyncer); ok {
			rs.Resync()
		}
	}
	st := r.source.GetState()
	if st != r.lastIntent {
		r.enqueue(event.EventIntentChanged, event.IntentChangedEvent{
			Left:     st.Left,
			Right:    st.Right,
			Modality: st.Modality.String(),
		})
		r.lastIntent = st
	}

	before := r.ctrl.Snapshot().TargetLane
	r.ctrl.Update(dt.Seconds(), motion.IntentFromInput(st))
	after := r.ctrl.Snapshot()
	if after.TargetLane != before {
		r.log.Debug("Lane changed", "from", before, "to", after.TargetLane, "target_x", after.TargetX)
		r.enqueue(event.EventLaneChanged, event.LaneChangedEvent{
			From:    before,
			To:      after.TargetLane,
			TargetX: after.TargetX,
		})
	}
}

func (r *Runner) transition(to Phase, allowed ...Phase) error {
	r.mu.Lock()
	defer r.unlock()
	cur := r.machine.State()
	ok := len(allowed) == 0
	for _, p := range allowed {
		if p == cur {
			ok = true
			break
		}
	}
	if !ok {
		r.log.Warn("Ignored phase request", "from", cur, "to", to)
		return fmt.Errorf("cannot enter %s from %s", to, cur)
	}
	return r.machine.ChangeState(to)
}

func (r *Runner) Pause() error {
	return r.transition(PhasePaused, PhaseRunning)
}

func (r *Runner) Resume() error {
	return r.transition(PhaseRunning, PhasePaused)
}

func (r *Runner) Stop() error {
	return r.transition(PhaseStopped, PhaseBoot, PhaseRunning, PhasePaused)
}

// Close stops the runner if it is still live and detaches the phase machine
// from the bus. It is safe to call more than once.
func (r *Runner) Close() {
	if r.Phase() != PhaseStopped {
		_ = r.Stop()
	}
	r.mu.Lock()
	r.machine.ClearListeners()
	r.mu.Unlock()
}

func (r *Runner) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.State()
}

func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		Phase:  r.machine.State(),
		Motion: r.ctrl.Snapshot(),
		Intent: r.source.GetState(),
		Ticks:  r.ticks,
	}
}

// History returns recent phase transitions, oldest first.
func (r *Runner) History() []fsm.Transition[Phase] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.History()
}

// WithController runs fn with the motion controller under the runner lock.
func (r *Runner) WithController(fn func(c *motion.Controller)) {
	r.Do(func() { fn(r.ctrl) })
}

// Run ticks at TickInterval until ctx is cancelled or the runner stops.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.TickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			if r.Phase() != PhaseStopped {
				_ = r.Stop()
			}
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			r.Step(dt)
			if r.Phase() == PhaseStopped {
				return nil
			}
		}
	}
}

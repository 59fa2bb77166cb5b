// Package motion moves a body between a fixed set of lanes with a
// framerate-independent damped approach.
package motion

import (
	"math"

	"github.com/Versifine/laneshift/internal/input"
)

type Intent struct {
	MoveLeft  bool
	MoveRight bool
}

func IntentFromInput(s input.State) Intent {
	return Intent{MoveLeft: s.Left, MoveRight: s.Right}
}

type Bounds struct {
	Min float64
	Max float64
}

func (b Bounds) Clamp(x float64) float64 {
	return clamp(x, b.Min, b.Max)
}

// Options configures a Controller. Zero values take the package defaults;
// nil InitialLane starts in the middle lane and nil Bounds spans the first
// to the last lane.
type Options struct {
	LaneCount          int
	LaneWidth          float64
	MaxHorizontalSpeed float64
	VelocityBlend      float64
	InitialLane        *int
	Bounds             *Bounds
}

func DefaultOptions() Options {
	return Options{
		LaneCount:          DefaultLaneCount,
		LaneWidth:          DefaultLaneWidth,
		MaxHorizontalSpeed: DefaultMaxHorizontalSpeed,
		VelocityBlend:      DefaultVelocityBlend,
	}
}

// State is a read-only snapshot of the controller.
type State struct {
	Position   float64
	Velocity   float64
	TargetLane int
	TargetX    float64
}

type Controller struct {
	lanes    []float64
	bounds   Bounds
	maxSpeed float64
	blend    float64

	targetLane int
	position   float64
	velocity   float64
	prev       Intent
}

func NewController(opts Options) *Controller {
	count := opts.LaneCount
	if count == 0 {
		count = DefaultLaneCount
	}
	if count < 1 {
		count = 1
	}
	width := opts.LaneWidth
	if width <= 0 {
		width = DefaultLaneWidth
	}

	c := &Controller{
		lanes:    LanePositions(count, width),
		maxSpeed: DefaultMaxHorizontalSpeed,
		blend:    DefaultVelocityBlend,
	}
	c.Tune(opts.MaxHorizontalSpeed, opts.VelocityBlend)

	if opts.Bounds != nil {
		c.bounds = *opts.Bounds
		if c.bounds.Min > c.bounds.Max {
			c.bounds.Min, c.bounds.Max = c.bounds.Max, c.bounds.Min
		}
	} else {
		c.bounds = Bounds{Min: c.lanes[0], Max: c.lanes[len(c.lanes)-1]}
	}

	initial := len(c.lanes) / 2
	if opts.InitialLane != nil {
		initial = *opts.InitialLane
	}
	c.targetLane = c.clampLane(initial)
	c.position = c.targetX()
	return c
}

// LanePositions returns n lane centres of width w, symmetric about zero.
func LanePositions(n int, w float64) []float64 {
	if n <= 1 {
		return []float64{0}
	}
	half := float64(n-1) * w / 2
	out := make([]float64, n)
	for i := range out {
		out[i] = -half + float64(i)*w
	}
	return out
}

// Update advances the controller by dt seconds. Lane changes happen only on
// the rising edge of an intent; when both edges rise in the same tick the
// left step is applied first, then the right step.
func (c *Controller) Update(dt float64, intent Intent) {
	if math.IsNaN(dt) || dt < 0 {
		dt = 0
	}
	c.consume(intent)
	c.moveTowardsLane(dt)
	c.prev = intent
}

func (c *Controller) consume(intent Intent) {
	if intent.MoveLeft && !c.prev.MoveLeft {
		c.targetLane = c.clampLane(c.targetLane - 1)
	}
	if intent.MoveRight && !c.prev.MoveRight {
		c.targetLane = c.clampLane(c.targetLane + 1)
	}
}

func (c *Controller) moveTowardsLane(dt float64) {
	target := c.targetX()
	delta := target - c.position

	if math.Abs(delta) < SnapEpsilon {
		c.position = target
		c.velocity = 0
		return
	}

	desired := clamp(delta/math.Max(dt, MinDeltaTime), -c.maxSpeed, c.maxSpeed)
	c.velocity = damp(c.velocity, desired, c.blend, dt)

	next := c.position + c.velocity*dt
	if (delta > 0 && next > target) || (delta < 0 && next < target) {
		next = target
		c.velocity = 0
	}
	c.position = c.bounds.Clamp(next)
}

// damp moves current toward target by 1-exp(-rate*dt) of the gap.
func damp(current, target, rate, dt float64) float64 {
	t := 1 - math.Exp(-rate*dt)
	return current + (target-current)*t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (c *Controller) clampLane(i int) int {
	if i < 0 {
		return 0
	}
	if i > len(c.lanes)-1 {
		return len(c.lanes) - 1
	}
	return i
}

func (c *Controller) targetX() float64 {
	return c.bounds.Clamp(c.lanes[c.targetLane])
}

func (c *Controller) Snapshot() State {
	return State{
		Position:   c.position,
		Velocity:   c.velocity,
		TargetLane: c.targetLane,
		TargetX:    c.targetX(),
	}
}

// Settled reports whether the controller rests exactly on its target.
func (c *Controller) Settled() bool {
	return c.position == c.targetX() && c.velocity == 0
}

func (c *Controller) LanePositions() []float64 {
	out := make([]float64, len(c.lanes))
	copy(out, c.lanes)
	return out
}

func (c *Controller) LaneCount() int {
	return len(c.lanes)
}

func (c *Controller) Bounds() Bounds {
	return c.bounds
}

// SetTargetLane jumps the target to lane i (clamped). Motion toward it still
// goes through the damped approach.
func (c *Controller) SetTargetLane(i int) {
	c.targetLane = c.clampLane(i)
}

// Tune replaces the speed cap and blend rate. Non-positive values are
// ignored.
func (c *Controller) Tune(maxSpeed, blend float64) {
	if maxSpeed > 0 {
		c.maxSpeed = maxSpeed
	}
	if blend > 0 {
		c.blend = blend
	}
}

func (c *Controller) Tuning() (maxSpeed, blend float64) {
	return c.maxSpeed, c.blend
}

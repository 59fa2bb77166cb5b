// Package fsm is a minimal labeled state machine with enter/exit hooks and
// change listeners. It knows nothing about the states it holds.
package fsm

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Versifine/laneshift/internal/event"
)

var (
	ErrUnregisteredState = errors.New("state not registered")
	ErrSelfTransition    = errors.New("already in state")
)

const historyLimit = 32

type Hooks struct {
	OnEnter func()
	OnExit  func()
}

type Listener[S comparable] func(prev, next S)

type Transition[S comparable] struct {
	From S
	To   S
}

type Machine[S comparable] struct {
	current   S
	states    map[S]Hooks
	listeners *event.Registry[Transition[S]]
	history   []Transition[S]
	log       *slog.Logger
}

type Option func(*options)

type options struct {
	logger *slog.Logger
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates a machine in initial, registered with no hooks.
func New[S comparable](initial S, opts ...Option) *Machine[S] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	m := &Machine[S]{
		current:   initial,
		states:    make(map[S]Hooks),
		listeners: event.NewRegistry[Transition[S]]("fsm.listeners"),
		log:       o.logger.With("component", "fsm"),
	}
	m.RegisterState(initial)
	return m
}

// RegisterState adds id or replaces its hooks. The current state is not
// affected.
func (m *Machine[S]) RegisterState(id S, hooks ...Hooks) {
	var h Hooks
	if len(hooks) > 0 {
		h = hooks[0]
	}
	m.states[id] = h
}

func (m *Machine[S]) Registered(id S) bool {
	_, ok := m.states[id]
	return ok
}

func (m *Machine[S]) State() S {
	return m.current
}

func (m *Machine[S]) Is(id S) bool {
	return m.current == id
}

// ChangeState moves to target. Unregistered targets and self-transitions are
// rejected without running hooks or listeners. On success the order is:
// current OnExit, state update, target OnEnter, listeners.
func (m *Machine[S]) ChangeState(target S) error {
	if _, ok := m.states[target]; !ok {
		m.log.Warn("Rejected transition to unregistered state", "from", m.current, "to", target)
		return fmt.Errorf("change state to %v: %w", target, ErrUnregisteredState)
	}
	if target == m.current {
		m.log.Warn("Rejected self transition", "state", target)
		return fmt.Errorf("change state to %v: %w", target, ErrSelfTransition)
	}

	prev := m.current
	if exit := m.states[prev].OnExit; exit != nil {
		exit()
	}
	m.current = target
	if enter := m.states[target].OnEnter; enter != nil {
		enter()
	}

	tr := Transition[S]{From: prev, To: target}
	m.record(tr)
	m.log.Debug("State changed", "from", prev, "to", target)
	m.listeners.Emit(tr)
	return nil
}

func (m *Machine[S]) record(tr Transition[S]) {
	if len(m.history) == historyLimit {
		copy(m.history, m.history[1:])
		m.history = m.history[:historyLimit-1]
	}
	m.history = append(m.history, tr)
}

// History returns the most recent transitions, oldest first.
func (m *Machine[S]) History() []Transition[S] {
	out := make([]Transition[S], len(m.history))
	copy(out, m.history)
	return out
}

func (m *Machine[S]) AddStateChangeListener(fn Listener[S]) event.Token {
	if fn == nil {
		return event.Token{}
	}
	return m.listeners.Add(func(tr Transition[S]) {
		fn(tr.From, tr.To)
	})
}

func (m *Machine[S]) RemoveStateChangeListener(tok event.Token) bool {
	return m.listeners.Remove(tok)
}

// ClearListeners drops every state change listener.
func (m *Machine[S]) ClearListeners() {
	m.listeners.Clear()
}

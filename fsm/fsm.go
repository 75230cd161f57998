// SPDX-License-Identifier: GPL-3.0-or-later

// Package fsm implements a data-driven finite state machine: states,
// predicated transitions, entry/exit actions, and an optional sequence
// tick. [github.com/nrao/matrix/component] builds the standard
// Created/Standby/Ready/Running lifecycle on top of it.
//
// A [Machine] is not safe for concurrent use; the caller (typically a
// single command-dispatch goroutine) must serialize calls to
// [*Machine.HandleEvent] and [*Machine.Sequence].
package fsm

import "fmt"

// Predicate is evaluated when deciding whether a transition fires. A
// transition with no predicates is unconditional.
type Predicate func() bool

// Action runs as part of a transition (entry, exit, or the transition's
// own action). An action that returns an error aborts the transition at
// the point of the error; note that the state has already advanced if
// the error occurs during the entry action.
type Action func() error

// Combine selects how a transition's predicate list is reduced to a
// single boolean.
type Combine int

const (
	// And requires every predicate to be true (the default).
	And Combine = iota
	// Or requires at least one predicate to be true.
	Or
)

// SequenceEvent is the distinguished event applied by [*Machine.Sequence]
// to let the FSM be polled by a periodic tick.
const SequenceEvent = "sequence"

// TransitionOption configures a transition registered with
// [*Machine.AddTransition].
type TransitionOption func(*transition)

// WithPredicates attaches a predicate list and combination rule to a
// transition. Without this option the transition is unconditional.
func WithPredicates(combine Combine, predicates ...Predicate) TransitionOption {
	return func(tr *transition) {
		tr.combine = combine
		tr.predicates = predicates
	}
}

// WithAction attaches the action that runs when the transition fires,
// after the source state's exit action and before the target state's
// entry action.
func WithAction(action Action) TransitionOption {
	return func(tr *transition) {
		tr.action = action
	}
}

type transition struct {
	to         string
	predicates []Predicate
	combine    Combine
	action     Action
}

func (tr *transition) unconditional() bool {
	return len(tr.predicates) == 0
}

func (tr *transition) eval() bool {
	if tr.unconditional() {
		return true
	}
	switch tr.combine {
	case Or:
		for _, p := range tr.predicates {
			if p() {
				return true
			}
		}
		return false
	default: // And
		for _, p := range tr.predicates {
			if !p() {
				return false
			}
		}
		return true
	}
}

type stateKey struct {
	state string
	event string
}

type stateInfo struct {
	terminal bool
	entry    Action
	exit     Action
}

// Machine is a finite state machine: a set of named states, one of them
// initial, and a table of predicated transitions keyed by (state, event).
type Machine struct {
	states      map[string]*stateInfo
	order       []string // insertion order, for deterministic diagnostics
	initial     string
	current     string
	transitions map[stateKey][]*transition
}

// New returns an empty [*Machine]. Call [*Machine.AddState] and
// [*Machine.SetInitial] before [*Machine.AddTransition].
func New() *Machine {
	return &Machine{
		states:      make(map[string]*stateInfo),
		transitions: make(map[stateKey][]*transition),
	}
}

// AddState registers a state. terminal, if true, marks the state as having
// no required outgoing transitions for [*Machine.ConsistencyCheck].
func (m *Machine) AddState(name string, terminal ...bool) {
	if _, ok := m.states[name]; ok {
		return
	}
	t := false
	if len(terminal) > 0 {
		t = terminal[0]
	}
	m.states[name] = &stateInfo{terminal: t}
	m.order = append(m.order, name)
}

// SetInitial marks name as the initial state and sets it as current. name
// must have already been registered with [*Machine.AddState].
func (m *Machine) SetInitial(name string) error {
	if _, ok := m.states[name]; !ok {
		return fmt.Errorf("fsm: unknown state %q", name)
	}
	m.initial = name
	m.current = name
	return nil
}

// AddEntryAction attaches an action run whenever a transition enters
// state. Self-transitions (from == to) still run it.
func (m *Machine) AddEntryAction(state string, action Action) error {
	info, ok := m.states[state]
	if !ok {
		return fmt.Errorf("fsm: unknown state %q", state)
	}
	info.entry = action
	return nil
}

// AddExitAction attaches an action run whenever a transition leaves state.
// Self-transitions (from == to) still run it.
func (m *Machine) AddExitAction(state string, action Action) error {
	info, ok := m.states[state]
	if !ok {
		return fmt.Errorf("fsm: unknown state %q", state)
	}
	info.exit = action
	return nil
}

// AddTransition registers a transition from -> to, firing on event when
// its predicates (if any) are satisfied.
//
// At most one transition may be registered per (from, event) pair without
// predicates, and it must be the last one registered for that pair:
// registering any further transition for the same pair after an
// unconditional one is rejected, since it could never fire.
func (m *Machine) AddTransition(from, event, to string, opts ...TransitionOption) error {
	if _, ok := m.states[from]; !ok {
		return fmt.Errorf("fsm: unknown state %q", from)
	}
	if _, ok := m.states[to]; !ok {
		return fmt.Errorf("fsm: unknown state %q", to)
	}
	tr := &transition{to: to}
	for _, opt := range opts {
		opt(tr)
	}

	key := stateKey{from, event}
	existing := m.transitions[key]
	for _, prior := range existing {
		if prior.unconditional() {
			return fmt.Errorf(
				"fsm: transition (%s, %s) -> %s unreachable: an unconditional transition to %s is already registered",
				from, event, to, prior.to)
		}
	}
	m.transitions[key] = append(existing, tr)
	return nil
}

// CurrentState returns the machine's current state.
func (m *Machine) CurrentState() string {
	return m.current
}

// HandleEvent evaluates the transitions registered for (current state,
// event) in registration order and fires the first whose predicates
// evaluate true. Firing runs, in order: the source state's exit action,
// the transition's own action, then sets the current state to the target
// and runs the target state's entry action. HandleEvent returns true iff exactly one transition
// fired to completion.
//
// An event for which no transition exists from the current state, or
// whose registered transitions all evaluate false, is rejected: HandleEvent
// returns false and the state does not change. An exit or transition
// action returning an error likewise aborts the transition with the state
// unchanged and HandleEvent returning false; an entry action's error is
// not recoverable, since the state has already advanced by then.
func (m *Machine) HandleEvent(event string) bool {
	key := stateKey{m.current, event}
	for _, tr := range m.transitions[key] {
		if !tr.eval() {
			continue
		}
		return m.fire(tr)
	}
	return false
}

func (m *Machine) fire(tr *transition) bool {
	from := m.states[m.current]
	if from.exit != nil {
		if err := from.exit(); err != nil {
			return false
		}
	}
	if tr.action != nil {
		if err := tr.action(); err != nil {
			return false
		}
	}
	to := m.states[tr.to]
	m.current = tr.to
	if to.entry != nil {
		_ = to.entry()
	}
	return true
}

// Sequence applies [SequenceEvent] to the machine, letting it be driven by
// a periodic tick rather than an externally observed event.
func (m *Machine) Sequence() bool {
	return m.HandleEvent(SequenceEvent)
}

// ConsistencyCheck verifies that every state is reachable from the initial
// state and that every non-terminal reachable state has at least one
// outgoing transition. It returns false with a diagnostic message if
// either check fails.
func (m *Machine) ConsistencyCheck() (bool, string) {
	if m.initial == "" {
		return false, "fsm: no initial state set"
	}

	outgoing := make(map[string]bool)
	for key := range m.transitions {
		outgoing[key.state] = true
	}

	reachable := map[string]bool{m.initial: true}
	frontier := []string{m.initial}
	for len(frontier) > 0 {
		state := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		for key, trs := range m.transitions {
			if key.state != state {
				continue
			}
			for _, tr := range trs {
				if !reachable[tr.to] {
					reachable[tr.to] = true
					frontier = append(frontier, tr.to)
				}
			}
		}
	}

	for _, name := range m.order {
		if !reachable[name] {
			return false, fmt.Sprintf("fsm: state %q is unreachable from initial state %q", name, m.initial)
		}
		if !m.states[name].terminal && !outgoing[name] {
			return false, fmt.Sprintf("fsm: non-terminal state %q has no outgoing transition", name)
		}
	}
	return true, ""
}

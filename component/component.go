// SPDX-License-Identifier: GPL-3.0-or-later

// Package component implements the standard component lifecycle: it ties
// the FSM ([github.com/nrao/matrix/fsm]) together with the Keymaster client
// ([github.com/nrao/matrix/keymaster]) so that every component in a
// process exposes the same standard state machine, driven entirely by
// commands published through the Keymaster.
package component

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nrao/matrix"
	"github.com/nrao/matrix/dataio"
	"github.com/nrao/matrix/fsm"
	"github.com/nrao/matrix/keymaster"
	"github.com/nrao/matrix/keystore"
	"github.com/nrao/matrix/transport"
)

// The four fixed lifecycle states.
const (
	StateCreated = "Created"
	StateStandby = "Standby"
	StateReady   = "Ready"
	StateRunning = "Running"
)

// The fixed set of commands that drive lifecycle transitions.
const (
	CmdRegister = "do_register"
	CmdInit     = "do_init"
	CmdStart    = "do_start"
	CmdStop     = "do_stop"
	CmdStandby  = "do_standby"
	CmdError    = "error"
)

// statePath and errorPath are the document keys a Component publishes its
// current state and last hook error under, so the architect observing
// these keys sees transitions (and failures) as they happen.
func statePath(name string) string   { return fmt.Sprintf("components.%s.State", name) }
func errorPath(name string) string   { return fmt.Sprintf("components.%s.Error", name) }
func commandPath(name string) string { return fmt.Sprintf("components.%s.command", name) }

// errHookFailed is the sentinel [fsm.Action] error used to abort a
// transition when a [Hooks] method returns false: the transition aborts
// and state is unchanged, but nothing is logged as an FSM-internal error.
var errHookFailed = errors.New("component: hook returned false")

// Hooks is the set of overridable lifecycle callbacks. A hook returning
// false aborts the transition: the component does not
// advance, and its published state is left unchanged for the architect to
// observe.
type Hooks interface {
	// DoReady opens files/sockets and allocates buffers (Standby -> Ready).
	DoReady() bool
	// DoStart launches worker goroutines (Ready -> Running).
	DoStart() bool
	// DoStop joins worker goroutines (Running -> Ready, and as the first
	// step of the error path).
	DoStop() bool
	// DoStandby releases resources (Ready -> Standby).
	DoStandby() bool
}

// NopHooks is a [Hooks] implementation whose methods all succeed,
// convenient for components with no setup/teardown work of their own.
type NopHooks struct{}

func (NopHooks) DoReady() bool   { return true }
func (NopHooks) DoStart() bool   { return true }
func (NopHooks) DoStop() bool    { return true }
func (NopHooks) DoStandby() bool { return true }

// Component is the base every domain component embeds or wraps: it owns
// a Keymaster client, subscribes to its own command key, and drives
// the standard Created/Standby/Ready/Running [fsm.Machine] in response.
//
// The zero value is not usable; construct one with [New].
type Component struct {
	cfg  *matrix.Config
	name string
	mode string
	km   *keymaster.Client

	servers *transport.ServerRegistry
	clients *transport.ClientRegistry

	mu      sync.Mutex
	machine *fsm.Machine
	hooks   Hooks
}

// New constructs a Component named name around the Keymaster client km and wires the standard
// lifecycle FSM around hooks. It does not yet subscribe to commands or
// announce itself; call [*Component.Register] to do that.
func New(cfg *matrix.Config, km *keymaster.Client, name, mode string, hooks Hooks) (*Component, error) {
	if cfg == nil {
		cfg = matrix.NewConfig()
	}
	if hooks == nil {
		hooks = NopHooks{}
	}
	if mode == "" {
		mode = "default"
	}

	c := &Component{
		cfg:     cfg,
		name:    name,
		mode:    mode,
		km:      km,
		servers: transport.NewServerRegistry(cfg),
		clients: transport.NewClientRegistry(cfg),
		hooks:   hooks,
	}

	m := fsm.New()
	for _, s := range []string{StateCreated, StateStandby, StateReady, StateRunning} {
		m.AddState(s)
	}
	if err := m.SetInitial(StateCreated); err != nil {
		return nil, err
	}

	for _, s := range []string{StateCreated, StateStandby, StateReady, StateRunning} {
		state := s
		if err := m.AddEntryAction(state, func() error {
			c.publishState(state)
			return nil
		}); err != nil {
			return nil, err
		}
	}

	transitions := []struct {
		from, event, to string
		hook            func() bool
	}{
		{StateCreated, CmdRegister, StateStandby, nil},
		{StateStandby, CmdInit, StateReady, hooks.DoReady},
		{StateReady, CmdStart, StateRunning, hooks.DoStart},
		{StateRunning, CmdStop, StateReady, hooks.DoStop},
		{StateReady, CmdStandby, StateStandby, hooks.DoStandby},
		{StateRunning, CmdError, StateReady, hooks.DoStop},
	}
	for _, t := range transitions {
		var opt fsm.TransitionOption
		if t.hook != nil {
			hook := t.hook
			opt = fsm.WithAction(func() error {
				if !hook() {
					return errHookFailed
				}
				return nil
			})
		}
		var opts []fsm.TransitionOption
		if opt != nil {
			opts = append(opts, opt)
		}
		if err := m.AddTransition(t.from, t.event, t.to, opts...); err != nil {
			return nil, err
		}
	}

	if ok, diag := m.ConsistencyCheck(); !ok {
		return nil, fmt.Errorf("component: %s: %s", name, diag)
	}
	c.machine = m
	return c, nil
}

// Name returns the component's name.
func (c *Component) Name() string { return c.name }

// Keymaster returns the component's Keymaster client, for constructing
// [dataio.Source]/[dataio.Sink] endpoints.
func (c *Component) Keymaster() *keymaster.Client { return c.km }

// Servers returns the component's transport server registry.
func (c *Component) Servers() *transport.ServerRegistry { return c.servers }

// Clients returns the component's transport client registry.
func (c *Component) Clients() *transport.ClientRegistry { return c.clients }

// CurrentState returns the component's current lifecycle state.
func (c *Component) CurrentState() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.CurrentState()
}

// Register subscribes to this component's command key and publishes its
// initial (Created) state. Domain components call this once, after
// constructing their sources and sinks, to begin participating in the
// architect's lifecycle.
func (c *Component) Register() error {
	c.publishState(c.machine.CurrentState())
	return c.km.Subscribe(commandPath(c.name), c.onCommand)
}

// Unregister unsubscribes from the command key. It does not touch the
// component's current state.
func (c *Component) Unregister() error {
	return c.km.Unsubscribe(commandPath(c.name))
}

func (c *Component) onCommand(_ string, node keystore.Node) {
	cmd, ok := node.ScalarValue()
	if !ok {
		c.cfg.Logger.Warn("component: malformed command", "component", c.name)
		return
	}
	c.mu.Lock()
	ok = c.machine.HandleEvent(cmd)
	state := c.machine.CurrentState()
	c.mu.Unlock()

	if !ok {
		c.cfg.Logger.Warn("component: command rejected", "component", c.name, "command", cmd, "state", state)
		// Republish the unchanged state so the architect observing the state
		// key sees the refusal.
		c.publishState(state)
		return
	}
	c.cfg.Logger.Info("component: transitioned", "component", c.name, "command", cmd, "state", state)
	if cmd == CmdError {
		c.publishError(fmt.Sprintf("component %s: entered error state from Running", c.name))
	}
}

func (c *Component) publishState(state string) {
	if err := c.km.Put(statePath(c.name), keystore.Scalar(state), true); err != nil {
		c.cfg.Logger.Error("component: publishing state failed", "component", c.name, "state", state, "error", err)
	}
}

func (c *Component) publishError(msg string) {
	if err := c.km.Put(errorPath(c.name), keystore.Scalar(msg), true); err != nil {
		c.cfg.Logger.Error("component: publishing error failed", "component", c.name, "error", err)
	}
}

// connectionsPath is where the architect publishes the wiring graph for
// operational mode mode.
func connectionsPath(mode string) string { return "connections." + mode }

// ConnectSink looks up the architect's connections.<mode> wiring graph
// for an entry whose consumer is c's name
// and whose sink-local-name is localName, resolves the producer/source it
// names, derives a [dataio.Selector] from the entry's transport scheme
// (empty scheme means [dataio.SelectOnly]), and connects sink.
func ConnectSink[T any](c *Component, sink *dataio.Sink[T], localName string) error {
	producer, source, scheme, err := c.resolveConnection(localName)
	if err != nil {
		return err
	}
	var selector dataio.Selector = dataio.SelectOnly{}
	if scheme != "" {
		sc, err := transport.ParseURN(scheme + "://")
		if err != nil {
			return fmt.Errorf("component: %s.%s: invalid transport scheme %q: %w", c.name, localName, scheme, err)
		}
		selector = dataio.SelectSpecified{Scheme: sc.Scheme}
	}
	return sink.Connect(c.km, producer, source, selector)
}

// resolveConnection finds the connections.<mode> tuple
// [producer, source, consumer, sink, scheme] whose consumer is c's name
// and whose sink element equals localName.
func (c *Component) resolveConnection(localName string) (producer, source, scheme string, err error) {
	path := connectionsPath(c.mode)
	node, err := c.km.Get(path)
	if err != nil {
		return "", "", "", fmt.Errorf("component: resolving %s: %w", path, err)
	}
	rows, ok := node.Items()
	if !ok {
		return "", "", "", fmt.Errorf("component: %s is not a sequence", path)
	}
	for _, row := range rows {
		fields, ok := row.Items()
		if !ok || len(fields) < 4 {
			continue
		}
		values := make([]string, len(fields))
		for i, f := range fields {
			values[i], _ = f.ScalarValue()
		}
		if values[2] != c.name || values[3] != localName {
			continue
		}
		sc := ""
		if len(values) > 4 {
			sc = values[4]
		}
		return values[0], values[1], sc, nil
	}
	return "", "", "", fmt.Errorf("component: no connections.%s entry for consumer=%s sink=%s", c.mode, c.name, localName)
}

// Package state implements the player mode state machine. It is the single writer
// of "what mode is the engine in"; every other component only reads it or requests
// a transition through TryTransition.
package state

import "sync"

// State enumerates the player modes.
type State int

const (
	Stopped State = iota
	Loading
	Playing
	Paused
	Buffering
	Ended
	Error
)

var names = map[State]string{
	Stopped:   "stopped",
	Loading:   "loading",
	Playing:   "playing",
	Paused:    "paused",
	Buffering: "buffering",
	Ended:     "ended",
	Error:     "error",
}

func (s State) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return "unknown"
}

// All returns every defined state, in declaration order.
func All() []State {
	return []State{Stopped, Loading, Playing, Paused, Buffering, Ended, Error}
}

// transitions is the single source of truth for legal mode changes.
var transitions = map[State][]State{
	Stopped:   {Loading},
	Loading:   {Playing, Paused, Error, Stopped},
	Playing:   {Paused, Buffering, Ended, Error, Stopped},
	Paused:    {Playing, Stopped, Error},
	Buffering: {Playing, Paused, Error, Stopped},
	Ended:     {Playing, Stopped, Loading},
	Error:     {Stopped, Loading},
}

// ChangeFunc observes applied transitions.
type ChangeFunc func(from, to State)

// Machine guards the live player state behind the transition table.
type Machine struct {
	mu       sync.Mutex
	current  State
	onChange []ChangeFunc
}

// NewMachine returns a state machine in the Stopped state.
func NewMachine() *Machine {
	return &Machine{current: Stopped}
}

// Current returns the live state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Is reports whether the live state equals s.
func (m *Machine) Is(s State) bool {
	return m.Current() == s
}

// OnChange registers a callback fired once per applied transition.
// Callbacks run synchronously on the goroutine that applied the change.
func (m *Machine) OnChange(f ChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, f)
}

// TryTransition requests a mode change. A target equal to the current state is a
// no-op success with no notification. A legal transition is applied and fires
// exactly one notification; an illegal one is rejected silently.
func (m *Machine) TryTransition(target State) bool {
	m.mu.Lock()

	if target == m.current {
		m.mu.Unlock()
		return true
	}

	legal := false
	for _, s := range transitions[m.current] {
		if s == target {
			legal = true
			break
		}
	}
	if !legal {
		m.mu.Unlock()
		return false
	}

	from := m.current
	m.current = target
	callbacks := make([]ChangeFunc, len(m.onChange))
	copy(callbacks, m.onChange)
	m.mu.Unlock()

	for _, f := range callbacks {
		f(from, target)
	}
	return true
}

// ForceState bypasses the transition table. Reserved for recovery paths that
// reset the engine to a known-good state, e.g. rewinding to position zero.
func (m *Machine) ForceState(target State) {
	m.mu.Lock()
	from := m.current
	m.current = target
	callbacks := make([]ChangeFunc, len(m.onChange))
	copy(callbacks, m.onChange)
	m.mu.Unlock()

	if from == target {
		return
	}
	for _, f := range callbacks {
		f(from, target)
	}
}

// state/presence.go
//
// Seat presence: who answers for a seat. A connected human moves to a
// grace period on detach; reconnecting inside the grace period restores
// human control, expiry hands the seat to the bot engine, and a later
// reconnect revokes automated control immediately, even mid-match.
package state

import (
	"errors"
	"fmt"
	"sync"
)

type Presence int

const (
	Connected Presence = iota
	GracePeriod
	Automated
)

var presenceNames = map[Presence]string{
	Connected:   "connected",
	GracePeriod: "grace-period",
	Automated:   "automated",
}

func (p Presence) String() string {
	if name, ok := presenceNames[p]; ok {
		return name
	}
	return fmt.Sprintf("presence(%d)", int(p))
}

// ErrTransitionNotAllowed is returned for a presence change outside the
// state machine.
var ErrTransitionNotAllowed = errors.New("presence transition not allowed")

// transitions is the closed set of legal moves.
var transitions = map[Presence][]Presence{
	Connected:   {GracePeriod},
	GracePeriod: {Connected, Automated},
	Automated:   {Connected},
}

// Machine tracks the controller of one seat. Safe for concurrent reads;
// writes are serialized by the owning room in practice, but the mutex keeps
// the machine independently sound.
type Machine struct {
	mu      sync.RWMutex
	current Presence
}

// NewMachine starts in Connected: seats exist only once a human joined.
func NewMachine() *Machine {
	return &Machine{current: Connected}
}

func (m *Machine) Current() Presence {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition moves to target if the state machine allows it.
func (m *Machine) Transition(to Presence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, next := range transitions[m.current] {
		if next == to {
			m.current = to
			return nil
		}
	}
	if m.current == to {
		return nil // idempotent self-transition
	}
	return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, m.current, to)
}

// ForceAutomated is the recovery path: after a process restart no human
// connection can exist, so every seat is handed to the bot engine without
// consulting the transition table.
func (m *Machine) ForceAutomated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Automated
}

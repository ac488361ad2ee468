package state

import (
	"errors"
	"testing"
)

func TestMachineStartsConnected(t *testing.T) {
	m := NewMachine()
	if m.Current() != Connected {
		t.Fatalf("initial = %s, want %s", m.Current(), Connected)
	}
}

func TestAllowedTransitions(t *testing.T) {
	steps := []struct {
		to   Presence
		want Presence
	}{
		{GracePeriod, GracePeriod},
		{Connected, Connected}, // reconnect inside the grace period
		{GracePeriod, GracePeriod},
		{Automated, Automated}, // grace expiry
		{Connected, Connected}, // reconnect revokes automated control
	}
	m := NewMachine()
	for i, s := range steps {
		if err := m.Transition(s.to); err != nil {
			t.Fatalf("step %d to %s: %v", i, s.to, err)
		}
		if m.Current() != s.want {
			t.Fatalf("step %d: current = %s, want %s", i, m.Current(), s.want)
		}
	}
}

func TestDisallowedTransitions(t *testing.T) {
	// Connected cannot jump straight to Automated: the grace period always
	// runs first.
	m := NewMachine()
	err := m.Transition(Automated)
	if !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("expected ErrTransitionNotAllowed, got %v", err)
	}
	if m.Current() != Connected {
		t.Errorf("state changed on a rejected transition: %s", m.Current())
	}

	// Automated never falls back to GracePeriod.
	m.ForceAutomated()
	err = m.Transition(GracePeriod)
	if !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("expected ErrTransitionNotAllowed, got %v", err)
	}
}

func TestSelfTransitionIsIdempotent(t *testing.T) {
	m := NewMachine()
	if err := m.Transition(Connected); err != nil {
		t.Fatalf("self-transition: %v", err)
	}
}

func TestForceAutomatedBypassesTable(t *testing.T) {
	m := NewMachine()
	m.ForceAutomated()
	if m.Current() != Automated {
		t.Fatalf("current = %s, want %s", m.Current(), Automated)
	}
	// A reconnect is still honoured afterwards.
	if err := m.Transition(Connected); err != nil {
		t.Fatalf("reconnect after force: %v", err)
	}
}

package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestOneShotFires(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	fired := make(chan struct{})
	m.AddTimer(10*time.Millisecond, 0, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("one-shot timer never fired")
	}
}

func TestRemovedTimerNeverFires(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fired int32
	id := m.AddTimer(200*time.Millisecond, 0, func() { atomic.AddInt32(&fired, 1) })
	m.RemoveTimer(id)

	time.Sleep(600 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Fatal("removed timer fired anyway")
	}
}

func TestIntervalRepeats(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fired int32
	id := m.AddTimer(10*time.Millisecond, 50*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })

	time.Sleep(time.Second)
	m.RemoveTimer(id)
	if n := atomic.LoadInt32(&fired); n < 2 {
		t.Fatalf("interval timer fired %d times, want at least 2", n)
	}
}

func TestAddTimerIDsAreUnique(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	seen := make(map[int64]bool)
	for i := 0; i < 100; i++ {
		id := m.AddTimer(time.Hour, 0, func() {})
		if seen[id] {
			t.Fatalf("duplicate timer ID %d", id)
		}
		seen[id] = true
	}
}

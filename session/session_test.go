package session

import (
	"net"
	"testing"
	"time"

	"github.com/stakehall/matchengine/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(msgID uint16, data []byte) error       { return nil }
func (m *MockConnection) SendJSON(msgID uint16, v interface{}) error { return nil }
func (m *MockConnection) Close() error                               { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                       { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)        {}
func (m *MockConnection) ReadPacket() (*network.Packet, error)       { return nil, nil }

func TestNewSessionStartsUnseated(t *testing.T) {
	sess := NewSession("s1", &MockConnection{})
	if sess.SeatIndex != -1 {
		t.Errorf("SeatIndex = %d, want -1", sess.SeatIndex)
	}
	if sess.RoomID != "" {
		t.Errorf("RoomID = %q, want empty", sess.RoomID)
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sess := NewSession("test_session_1", &MockConnection{})

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("count = %d, want 1", manager.Count())
	}

	retrieved, exists := manager.Get("test_session_1")
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrieved != sess {
		t.Fatal("Get should return the same session instance")
	}

	manager.Remove("test_session_1")
	if manager.Count() != 0 {
		t.Fatalf("count = %d after removal, want 0", manager.Count())
	}
	if _, exists := manager.Get("test_session_1"); exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_GetByAccount(t *testing.T) {
	manager := NewManager()

	sess1 := NewSession("session1", &MockConnection{})
	sess1.Bind(100)

	sess2 := NewSession("session2", &MockConnection{})
	sess2.Bind(200)

	sess3 := NewSession("session3", &MockConnection{})
	sess3.Bind(100)

	manager.Add(sess1)
	manager.Add(sess2)
	manager.Add(sess3)

	if n := len(manager.GetByAccount(100)); n != 2 {
		t.Errorf("account 100 sessions = %d, want 2", n)
	}
	if n := len(manager.GetByAccount(200)); n != 1 {
		t.Errorf("account 200 sessions = %d, want 1", n)
	}
	if n := len(manager.GetByAccount(300)); n != 0 {
		t.Errorf("account 300 sessions = %d, want 0", n)
	}
}

func TestBindSetsAccount(t *testing.T) {
	sess := NewSession("s1", &MockConnection{})
	sess.Bind(42)
	if sess.Account() != 42 {
		t.Errorf("Account = %d, want 42", sess.Account())
	}
}

// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/stakehall/matchengine/network"
)

// Session is one upstream-authenticated connection. The engine trusts the
// account identity handed to Bind, it performs no authentication itself.
type Session struct {
	ID         string
	Conn       network.Connection
	AccountID  int64
	RoomID     string
	SeatIndex  int
	CreatedAt  time.Time
	LastActive time.Time
	mutex      sync.RWMutex
	data       map[string]interface{}
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		SeatIndex:  -1,
		CreatedAt:  now,
		LastActive: now,
	}
}

// Bind attaches the verified account identity to this session.
func (s *Session) Bind(accountID int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.AccountID = accountID
}

func (s *Session) Account() int64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.AccountID
}

// SetData stores an arbitrary per-session value.
func (s *Session) SetData(key string, value interface{}) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.data == nil {
		s.data = make(map[string]interface{})
	}
	s.data[key] = value
}

// GetData returns a previously stored value, if any.
func (s *Session) GetData(key string) (interface{}, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.LastActive = time.Now()
	return s.Conn.Send(msgID, data)
}

func (s *Session) SendJSON(msgID uint16, v interface{}) error {
	s.LastActive = time.Now()
	return s.Conn.SendJSON(msgID, v)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager indexes live sessions by ID.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(sess *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[sess.ID] = sess
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	sess, exists := m.sessions[sessionID]
	return sess, exists
}

func (m *Manager) GetByAccount(accountID int64) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, sess := range m.sessions {
		if sess.Account() == accountID {
			result = append(result, sess)
		}
	}
	return result
}

// Count of live sessions, used by the metrics monitor.
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

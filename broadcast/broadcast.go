// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/stakehall/matchengine/room"
	"github.com/stakehall/matchengine/session"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomBroadcaster implements room.Broadcaster over the room and session
// managers. Send failures are tolerated; the heartbeat path detects dead
// connections and detaches the seat.
type RoomBroadcaster struct {
	rooms    *room.Manager
	sessions *session.Manager
}

func NewRoomBroadcaster(rooms *room.Manager, sessions *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{rooms: rooms, sessions: sessions}
}

// SendToSeat delivers a message to the session attached to one seat.
func (b *RoomBroadcaster) SendToSeat(roomID string, seat int, msgID uint16, v any) error {
	r, ok := b.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	sess, ok := r.SessionAt(seat)
	if !ok {
		return nil // seat disconnected or automated
	}
	return sess.SendJSON(msgID, v)
}

// BroadcastToRoom delivers a message to every attached session in a room.
func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, v any) error {
	r, ok := b.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	for _, sess := range r.Sessions() {
		if err := sess.SendJSON(msgID, v); err != nil {
			continue
		}
	}
	return nil
}

// SendToAccount delivers a message to every session a given account holds.
func (b *RoomBroadcaster) SendToAccount(accountID int64, msgID uint16, v any) error {
	for _, sess := range b.sessions.GetByAccount(accountID) {
		if err := sess.SendJSON(msgID, v); err != nil {
			continue
		}
	}
	return nil
}

// room/interfaces.go
package room

import "time"

// Broadcaster delivers redacted state to seats. Defined here to break the
// import cycle between room and broadcast.
type Broadcaster interface {
	SendToSeat(roomID string, seat int, msgID uint16, v interface{}) error
	BroadcastToRoom(roomID string, msgID uint16, v interface{}) error
}

// Scheduler is the cancellable-timer surface a room needs for grace
// periods, bot delays and its maintenance tick. timer.Manager satisfies
// it; tests substitute a manual fake to simulate time.
type Scheduler interface {
	AddTimer(delay, interval time.Duration, callback func()) int64
	RemoveTimer(id int64)
}

// Recorder counts rejected actions and automated decisions. Rooms run
// without one when nil; monitor.Monitor satisfies it.
type Recorder interface {
	IncRejection(code string)
	IncBotDecision()
}

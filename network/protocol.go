// network/protocol.go
package network

// Wire message IDs. Packets are binary framed: 2 bytes message ID, 2 bytes
// payload length, JSON payload.
const (
	MsgTypeHeartbeat = 1

	// Inbound.
	MsgTypeJoinMatch  = 101
	MsgTypeLeaveMatch = 102
	MsgTypeAction     = 201

	// Outbound.
	MsgTypeRoomState      = 301
	MsgTypeActionRejected = 302
	MsgTypeRoomEnded      = 303
	MsgTypeJoined         = 304
	MsgTypeError          = 305
)

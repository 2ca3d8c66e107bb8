package domain

import "errors"

// ErrValidation is returned when a join or leave request is missing
// required fields.
var ErrValidation = errors.New("userId and roomId are required")

// Frame is the envelope of an inbound client event. Message frames may
// carry arbitrary extra fields which are relayed untouched.
type Frame struct {
	Type   string `json:"type"`
	UserID string `json:"userId,omitempty"`
	RoomID string `json:"roomId,omitempty"`
}

// Event is an outbound server event.
type Event struct {
	Type         string   `json:"type"`
	ConnectionID string   `json:"connectionId,omitempty"`
	UserID       string   `json:"userId,omitempty"`
	RoomID       string   `json:"roomId,omitempty"`
	Users        []string `json:"users,omitempty"`
	Message      string   `json:"message,omitempty"`
}

type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

type Directory interface {
	Join(conn Connection, userID, roomID string) error
	Leave(conn Connection, userID, roomID string) error
	Disconnect(conn Connection)
	Relay(conn Connection, roomID string, frame []byte)
	Stats() (rooms, members int)
}

type FrameHandler interface {
	Handle(conn Connection, data []byte)
}

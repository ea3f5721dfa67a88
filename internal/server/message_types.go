package server

// MessageType names a websocket message.
type MessageType string

const (
	// Client to server
	MessageTypeJoin      MessageType = "join"
	MessageTypeLeave     MessageType = "leave"
	MessageTypeStartHand MessageType = "start_hand"
	MessageTypeAction    MessageType = "action"
	MessageTypeSetBoard  MessageType = "set_board"
	MessageTypeSettings  MessageType = "settings"

	// Server to client
	MessageTypeState MessageType = "state"
	MessageTypeError MessageType = "error"
)

func (mt MessageType) String() string {
	return string(mt)
}

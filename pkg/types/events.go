package types

import (
	"encoding/json"
	"time"
)

// Server-pushed event kinds. Kinds outside this list are ignored by the
// dispatcher so newer backends remain compatible with older clients.
const (
	EventNewMessage       = "new_message"
	EventUserTyping       = "user_typing"
	EventMessageDelivered = "message_delivered"
	EventMessageRead      = "message_read"
	EventUserStatusChange = "user_status_change"
	EventUnreadCounts     = "unread_counts"
	EventError            = "error"
)

// Client-emitted event kinds.
const (
	EventJoinRoom     = "join_room"
	EventLeaveRoom    = "leave_room"
	EventMarkRead     = "mark_read"
	EventTypingStart  = "typing_start"
	EventTypingStop   = "typing_stop"
	EventStatusChange = "status_change"
)

// Event is the tagged-union wire frame for both directions of the push
// channel. Data stays raw until a handler decodes it into the payload type
// for its kind.
type Event struct {
	Kind string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an outbound event, marshaling the payload immediately so
// encoding failures surface at send time rather than inside the write loop.
func NewEvent(kind string, payload interface{}) (Event, error) {
	if payload == nil {
		return Event{Kind: kind}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Kind: kind, Data: data}, nil
}

// TypingEvent is the payload of user_typing in both directions.
type TypingEvent struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id,omitempty"`
	Typing bool   `json:"typing"`
}

// ReceiptEvent is the payload of message_delivered and message_read.
type ReceiptEvent struct {
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
}

// StatusEvent is the payload of user_status_change and the outbound
// status_change request.
type StatusEvent struct {
	UserID   string    `json:"user_id,omitempty"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"last_seen,omitempty"`
}

// RoomEvent is the payload of join_room, leave_room and mark_read.
type RoomEvent struct {
	RoomID string `json:"room_id"`
}

// ServerError is the payload of the error event kind.
type ServerError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

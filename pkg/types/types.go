package types

import (
	"time"
)

// Room kinds as delivered by the chat service.
const (
	RoomKindDirect = "direct"
	RoomKindGroup  = "group"
)

// Message kinds as delivered by the chat service.
const (
	MessageKindText   = "text"
	MessageKindFile   = "file"
	MessageKindImage  = "image"
	MessageKindSystem = "system"
)

// Presence status values. At most one presence record exists per user;
// updates are last-write-wins.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusAway    = "away"
	StatusBusy    = "busy"
)

// UserSummary is the denormalized user shape embedded in rooms and messages.
type UserSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Room is a conversation (direct or group). The backend owns the record;
// the client only ever reads and joins.
type Room struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	Name         string          `json:"name,omitempty"`
	Participants []UserSummary   `json:"participants"`
	LastMessage  *MessageSummary `json:"last_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// MessageSummary is the truncated last-message preview carried on a room.
type MessageSummary struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment describes a file or image attached to a message.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// Message is a single chat message. A message must carry a resolved Sender
// before it may enter the visible message view; ReadBy and DeliveredTo are
// sets of user ids and only ever grow from the client's perspective.
//
// TempID and Pending exist only on the client: TempID is the locally assigned
// identity of an optimistic send until the server assigns ID, and Pending
// marks entries not yet confirmed by the backend.
type Message struct {
	ID          string       `json:"id"`
	RoomID      string       `json:"room_id"`
	Sender      *UserSummary `json:"sender"`
	Body        string       `json:"body"`
	Kind        string       `json:"kind"`
	Attachments []Attachment `json:"attachments,omitempty"`
	ReadBy      []string     `json:"read_by,omitempty"`
	DeliveredTo []string     `json:"delivered_to,omitempty"`
	Edited      bool         `json:"edited,omitempty"`
	EditedAt    *time.Time   `json:"edited_at,omitempty"`
	ReplyTo     *string      `json:"reply_to,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`

	TempID  string `json:"-"`
	Pending bool   `json:"-"`
}

// HasResolvedSender reports whether the message carries a usable sender.
// Messages without one are treated as malformed and must not enter the
// visible message view.
func (m *Message) HasResolvedSender() bool {
	return m.Sender != nil && m.Sender.ID != ""
}

// Presence is the last known status of a user.
type Presence struct {
	UserID   string    `json:"user_id"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"last_seen"`
}

// UnreadCounts is pushed wholesale by the backend. The client never computes
// deltas itself.
type UnreadCounts struct {
	Messages      int `json:"messages"`
	Notifications int `json:"notifications"`
}

// NotificationAction is an optional action descriptor on a notification.
type NotificationAction struct {
	Label string `json:"label"`
	URL   string `json:"url,omitempty"`
}

// Notification is a cross-cutting alert created server-side. The client only
// ever marks it read or deletes it.
type Notification struct {
	ID        string               `json:"id"`
	Type      string               `json:"type"`
	Category  string               `json:"category,omitempty"`
	Priority  string               `json:"priority,omitempty"`
	Title     string               `json:"title"`
	Body      string               `json:"body,omitempty"`
	Actions   []NotificationAction `json:"actions,omitempty"`
	ReadBy    []string             `json:"read_by,omitempty"`
	ExpiresAt *time.Time           `json:"expires_at,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// NotificationGroup is a category bucket with its unread tally.
type NotificationGroup struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Unread   int    `json:"unread"`
}

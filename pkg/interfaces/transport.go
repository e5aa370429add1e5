package interfaces

import (
	"context"

	"github.com/ForeFoldAi/eye-care-sub001/pkg/types"
)

// ConnState describes the observable lifecycle of the push channel.
type ConnState string

const (
	ConnStateDisconnected ConnState = "disconnected"
	ConnStateConnecting   ConnState = "connecting"
	ConnStateConnected    ConnState = "connected"
	ConnStateFailed       ConnState = "failed"
)

// PushTransport is the persistent bidirectional channel to the backend.
// Implementations must hold at most one live connection per session; a
// duplicate Connect while connected or connecting is a no-op.
type PushTransport interface {
	// Connect dials and authenticates. Returns types.ErrAuthenticationFailed
	// on handshake rejection, distinct from connectivity failures.
	Connect(ctx context.Context) error

	// Send emits a client event. Safe for concurrent use.
	Send(event types.Event) error

	// Events returns the inbound event stream. The channel is closed when
	// the transport shuts down terminally.
	Events() <-chan types.Event

	// State returns the current connection state.
	State() ConnState

	// LastError returns the terminal error after the transport has failed
	// or been closed by the server, nil otherwise.
	LastError() error

	// Close tears down the connection and stops reconnection.
	Close() error
}

// ChatAPI is the REST surface of the chat service consumed by the client.
type ChatAPI interface {
	ListRooms(ctx context.Context) ([]*types.Room, error)
	CreateDirectRoom(ctx context.Context, userID string) (*types.Room, error)
	ListMessages(ctx context.Context, roomID string, page, limit int) ([]*types.Message, error)
	SendMessage(ctx context.Context, roomID, body, kind string, replyTo *string) (*types.Message, error)
	MarkRoomRead(ctx context.Context, roomID string) error
	UpdatePresence(ctx context.Context, status string) error
}

// NotificationAPI is the REST surface of the notification service.
type NotificationAPI interface {
	ListNotifications(ctx context.Context) ([]*types.Notification, error)
	CreateNotification(ctx context.Context, n *types.Notification) (*types.Notification, error)
	UpdateNotification(ctx context.Context, n *types.Notification) (*types.Notification, error)
	DeleteNotification(ctx context.Context, id string) error
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	UnreadNotificationCount(ctx context.Context) (int, error)
	ListNotificationGroups(ctx context.Context) ([]*types.NotificationGroup, error)
}

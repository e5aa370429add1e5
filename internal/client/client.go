// Package client assembles the messaging SDK: transport, dispatcher, caches,
// session state and the notification side-channel behind one façade. A single
// event-loop goroutine consumes the transport stream in arrival order; every
// cache write goes through the store's mutators, and transport failures are
// converted to observable state rather than thrown at callers.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ForeFoldAi/eye-care-sub001/internal/dispatch"
	"github.com/ForeFoldAi/eye-care-sub001/internal/notify"
	"github.com/ForeFoldAi/eye-care-sub001/internal/reconcile"
	"github.com/ForeFoldAi/eye-care-sub001/internal/session"
	"github.com/ForeFoldAi/eye-care-sub001/internal/store"
	"github.com/ForeFoldAi/eye-care-sub001/pkg/interfaces"
	"github.com/ForeFoldAi/eye-care-sub001/pkg/types"
)

// Options carries the collaborators and tunables for a Client. Transport,
// Chat and Notifications are interfaces so tests can drive the client with
// fakes; Clock defaults to the system clock.
type Options struct {
	Self          types.UserSummary
	Transport     interfaces.PushTransport
	Chat          interfaces.ChatAPI
	Notifications interfaces.NotificationAPI
	Clock         interfaces.Clock

	TypingTTL        time.Duration
	NotifyPollPeriod time.Duration
	PageSize         int
	RequestTimeout   time.Duration

	Logger zerolog.Logger
}

// Client is the real-time synchronization engine for one authenticated user.
type Client struct {
	self      types.UserSummary
	transport interfaces.PushTransport
	chat      interfaces.ChatAPI
	cache     *store.Store
	session   *session.Manager
	notify    *notify.Channel
	dispatch  *dispatch.Dispatcher
	clock     interfaces.Clock
	log       zerolog.Logger

	pageSize       int
	requestTimeout time.Duration

	mu         sync.Mutex
	started    bool
	lastSrvErr *types.ServerError
	loopDone   chan struct{}
}

// New wires a client. Connect must be called before any room operation.
func New(opts Options) *Client {
	clock := opts.Clock
	if clock == nil {
		clock = interfaces.SystemClock()
	}

	cache := store.New()
	c := &Client{
		self:           opts.Self,
		transport:      opts.Transport,
		chat:           opts.Chat,
		cache:          cache,
		session:        session.NewManager(clock, opts.TypingTTL, opts.Logger),
		notify:         notify.NewChannel(opts.Notifications, cache, clock, opts.NotifyPollPeriod, opts.Logger),
		clock:          clock,
		log:            opts.Logger.With().Str("component", "client").Logger(),
		pageSize:       opts.PageSize,
		requestTimeout: opts.RequestTimeout,
		loopDone:       make(chan struct{}),
	}

	c.dispatch = dispatch.New(dispatch.Handlers{
		NewMessage:   c.onNewMessage,
		Typing:       c.onTyping,
		Delivered:    c.onDelivered,
		Read:         c.onRead,
		StatusChange: c.onStatusChange,
		UnreadCounts: c.onUnreadCounts,
		ServerError:  c.onServerError,
	}, opts.Logger)

	return c
}

// Connect establishes the push channel and starts the event loop and the
// notification poller. Duplicate calls while connected are no-ops.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.transport.Connect(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	already := c.started
	c.started = true
	c.mu.Unlock()
	if already {
		return nil
	}

	go c.run()
	c.notify.Start()
	return nil
}

// Close tears down everything regardless of session state.
func (c *Client) Close() error {
	c.notify.Stop()
	err := c.transport.Close()
	c.session.Leave()
	return err
}

// run is the event loop: one goroutine, arrival order, no reordering. It
// exits when the transport closes its event stream.
func (c *Client) run() {
	defer close(c.loopDone)
	for event := range c.transport.Events() {
		c.dispatch.Dispatch(event)
		if c.cache.ConsumeRefetch() {
			c.refetch(c.session.ActiveRoom())
		}
	}
	c.log.Info().Err(c.transport.LastError()).Msg("event loop stopped")
}

// Done is closed once the event loop has stopped.
func (c *Client) Done() <-chan struct{} { return c.loopDone }

// --- room operations --------------------------------------------------------

// JoinRoom makes roomID the active room. Switching is a hard reset: the
// typing set and message view are cleared, a fresh page is pulled, and a
// mark-read is issued for the new room. Joining the already-active room only
// re-emits the protocol join, which the backend treats as idempotent.
func (c *Client) JoinRoom(ctx context.Context, roomID string) error {
	switched, err := c.session.Join(roomID)
	if err != nil {
		return err
	}

	if event, err := types.NewEvent(types.EventJoinRoom, types.RoomEvent{RoomID: roomID}); err == nil {
		if sendErr := c.transport.Send(event); sendErr != nil {
			c.log.Warn().Err(sendErr).Str("room", roomID).Msg("join event not sent")
		}
	}

	if !switched {
		return nil
	}

	c.cache.ResetMessages(roomID)

	msgs, err := c.chat.ListMessages(ctx, roomID, 1, c.pageSize)
	if err != nil {
		return err
	}
	c.cache.SetMessages(roomID, msgs)

	if event, err := types.NewEvent(types.EventMarkRead, types.RoomEvent{RoomID: roomID}); err == nil {
		if sendErr := c.transport.Send(event); sendErr != nil {
			c.log.Warn().Err(sendErr).Str("room", roomID).Msg("mark-read event not sent")
		}
	}
	if err := c.chat.MarkRoomRead(ctx, roomID); err != nil {
		c.log.Warn().Err(err).Str("room", roomID).Msg("mark-read failed")
	}
	return nil
}

// LeaveRoom returns to the no-room state and clears all active-room state.
func (c *Client) LeaveRoom() error {
	roomID := c.session.ActiveRoom()
	if roomID == "" {
		return types.ErrNoActiveRoom
	}

	c.session.Leave()
	c.cache.ResetMessages("")

	if event, err := types.NewEvent(types.EventLeaveRoom, types.RoomEvent{RoomID: roomID}); err == nil {
		if sendErr := c.transport.Send(event); sendErr != nil {
			c.log.Warn().Err(sendErr).Str("room", roomID).Msg("leave event not sent")
		}
	}
	return nil
}

// SendMessage appends an optimistic entry keyed by a client uuid, then posts
// the message. On a confirmed response the entry is reconciled in place; on
// failure it is rolled back and the error reported once, with no retry. A
// confirmation lacking a resolved sender discards the optimistic entry and
// forces a refetch of the room's page.
func (c *Client) SendMessage(ctx context.Context, body, kind string, replyTo *string) (*types.Message, error) {
	roomID := c.session.ActiveRoom()
	if roomID == "" {
		return nil, types.ErrNoActiveRoom
	}

	optimistic := &types.Message{
		TempID:    uuid.New().String(),
		RoomID:    roomID,
		Sender:    &c.self,
		Body:      body,
		Kind:      kind,
		ReplyTo:   replyTo,
		CreatedAt: c.clock.Now(),
	}
	if err := optimistic.ValidateOutgoing(); err != nil {
		return nil, err
	}
	c.cache.AppendOptimistic(optimistic)

	created, err := c.chat.SendMessage(ctx, roomID, body, optimistic.Kind, replyTo)
	if err != nil {
		c.cache.RemoveOptimistic(roomID, optimistic.TempID)
		return nil, err
	}

	c.cache.ApplyAck(roomID, optimistic.TempID, created)
	if c.cache.ConsumeRefetch() {
		c.refetch(roomID)
	}
	return created, nil
}

// Typing emits a typing start or stop signal for the active room.
func (c *Client) Typing(typing bool) error {
	roomID := c.session.ActiveRoom()
	if roomID == "" {
		return types.ErrNoActiveRoom
	}

	kind := types.EventTypingStop
	if typing {
		kind = types.EventTypingStart
	}
	event, err := types.NewEvent(kind, types.TypingEvent{RoomID: roomID, Typing: typing})
	if err != nil {
		return err
	}
	return c.transport.Send(event)
}

// SetStatus updates the caller's presence over REST and announces it on the
// push channel.
func (c *Client) SetStatus(ctx context.Context, status string) error {
	if !types.IsValidStatus(status) {
		return types.ErrInvalidStatus
	}
	if err := c.chat.UpdatePresence(ctx, status); err != nil {
		return err
	}
	if event, err := types.NewEvent(types.EventStatusChange, types.StatusEvent{Status: status}); err == nil {
		if sendErr := c.transport.Send(event); sendErr != nil {
			c.log.Warn().Err(sendErr).Msg("status event not sent")
		}
	}
	return nil
}

// RefreshRooms pulls the room list.
func (c *Client) RefreshRooms(ctx context.Context) error {
	rooms, err := c.chat.ListRooms(ctx)
	if err != nil {
		return err
	}
	c.cache.SetRooms(rooms)
	return nil
}

// CreateDirectRoom creates (or fetches) the direct room with userID and
// invalidates the room list.
func (c *Client) CreateDirectRoom(ctx context.Context, userID string) (*types.Room, error) {
	room, err := c.chat.CreateDirectRoom(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.cache.InvalidateRooms()
	return room, nil
}

// NotifyNewNotification is the out-of-band new_notification trigger. It only
// invalidates the notification caches; the next read re-pulls.
func (c *Client) NotifyNewNotification() {
	c.notify.Invalidate()
}

// Notifications exposes the side-channel for list refresh and mutations.
func (c *Client) Notifications() *notify.Channel { return c.notify }

// --- snapshots --------------------------------------------------------------

// Messages returns the bound room and a snapshot of its visible messages.
func (c *Client) Messages() (string, []*types.Message) { return c.cache.Messages() }

// Rooms returns a snapshot of the room list and whether it is stale.
func (c *Client) Rooms() ([]*types.Room, bool) { return c.cache.Rooms() }

// TypingUsers returns who is typing in the active room.
func (c *Client) TypingUsers() []string { return c.session.TypingUsers() }

// ActiveRoom returns the active room id, empty when no room is active.
func (c *Client) ActiveRoom() string { return c.session.ActiveRoom() }

// NotificationList returns a snapshot of the notification list and whether
// it is stale.
func (c *Client) NotificationList() ([]*types.Notification, bool) { return c.cache.Notifications() }

// NotificationUnread returns the pulled unread notification counter and
// whether it is stale.
func (c *Client) NotificationUnread() (int, bool) { return c.cache.NotificationUnread() }

// UnreadCounts returns the last counters pushed by the backend.
func (c *Client) UnreadCounts() types.UnreadCounts { return c.cache.UnreadCounts() }

// Presence returns the last known presence record for a user.
func (c *Client) Presence(userID string) (types.Presence, bool) { return c.cache.Presence(userID) }

// State reports the transport state for rendering connection status.
func (c *Client) State() interfaces.ConnState { return c.transport.State() }

// LastError returns the transport's terminal error, if any.
func (c *Client) LastError() error { return c.transport.LastError() }

// LastServerError returns the most recent error event pushed by the backend.
func (c *Client) LastServerError() *types.ServerError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSrvErr
}

// --- push event handlers (run on the event-loop goroutine) ------------------

func (c *Client) onNewMessage(msg types.Message) {
	c.cache.ApplyPush(&msg)
}

func (c *Client) onTyping(ev types.TypingEvent) {
	c.session.SetTyping(ev.RoomID, ev.UserID, ev.Typing)
}

func (c *Client) onDelivered(ev types.ReceiptEvent) {
	c.cache.ApplyReceipt(ev.RoomID, ev.MessageID, ev.UserID, reconcile.ReceiptDelivered)
}

func (c *Client) onRead(ev types.ReceiptEvent) {
	c.cache.ApplyReceipt(ev.RoomID, ev.MessageID, ev.UserID, reconcile.ReceiptRead)
}

func (c *Client) onStatusChange(ev types.StatusEvent) {
	c.cache.UpsertPresence(types.Presence{UserID: ev.UserID, Status: ev.Status, LastSeen: ev.LastSeen})
}

func (c *Client) onUnreadCounts(counts types.UnreadCounts) {
	c.cache.SetUnreadCounts(counts)
}

func (c *Client) onServerError(serr types.ServerError) {
	c.log.Warn().Str("code", serr.Code).Str("message", serr.Message).Msg("server error event")
	c.mu.Lock()
	c.lastSrvErr = &serr
	c.mu.Unlock()
}

// refetch re-pulls the bound room's message page after an untrusted fact.
// Results for a room that is no longer active are discarded by the store's
// room-id check.
func (c *Client) refetch(roomID string) {
	if roomID == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
		defer cancel()
		msgs, err := c.chat.ListMessages(ctx, roomID, 1, c.pageSize)
		if err != nil {
			c.log.Warn().Err(err).Str("room", roomID).Msg("corrective refetch failed")
			return
		}
		c.cache.SetMessages(roomID, msgs)
	}()
}

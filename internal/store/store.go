// Package store holds the client's shared mutable caches: the message view
// for the active room, the room list, the notification list, unread counters
// and the presence roster. Every cache is written only through the enumerated
// mutators here; readers get snapshot copies. The store is injected into the
// components that need it rather than living in a package-level variable.
package store

import (
	"sync"

	"github.com/ForeFoldAi/eye-care-sub001/internal/reconcile"
	"github.com/ForeFoldAi/eye-care-sub001/pkg/types"
)

// Store is the single shared cache object. All methods are safe for
// concurrent use.
type Store struct {
	mu sync.RWMutex

	messagesRoom    string
	messages        []*types.Message
	messagesRefetch bool

	rooms      []*types.Room
	roomsStale bool

	notifications      []*types.Notification
	notificationsStale bool
	notifUnread        int
	notifUnreadStale   bool
	notifGroups        []*types.NotificationGroup

	unread   types.UnreadCounts
	presence map[string]types.Presence
}

// New creates an empty store.
func New() *Store {
	return &Store{
		presence: make(map[string]types.Presence),
	}
}

// --- message view -----------------------------------------------------------

// ResetMessages clears the view and binds it to roomID. Passing an empty
// roomID leaves no room bound (the no-room state).
func (s *Store) ResetMessages(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messagesRoom = roomID
	s.messages = nil
	s.messagesRefetch = false
}

// SetMessages installs a freshly pulled page. Results keyed to a room that is
// no longer bound are discarded; superseded fetches die here rather than
// being cancelled in flight.
func (s *Store) SetMessages(roomID string, msgs []*types.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if roomID != s.messagesRoom {
		return false
	}
	s.messages = msgs
	s.messagesRefetch = false
	return true
}

// AppendOptimistic adds a locally sent message to the view. Ignored when the
// message does not belong to the bound room.
func (s *Store) AppendOptimistic(msg *types.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.RoomID != s.messagesRoom || s.messagesRoom == "" {
		return false
	}
	s.messages = reconcile.AppendOptimistic(s.messages, msg)
	return true
}

// RemoveOptimistic rolls back a pending entry after a failed send.
func (s *Store) RemoveOptimistic(roomID, tempID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if roomID != s.messagesRoom {
		return false
	}
	view, removed := reconcile.RemoveOptimistic(s.messages, tempID)
	s.messages = view
	return removed
}

// ApplyAck reconciles a REST send confirmation into the view. Any resulting
// mutation invalidates the room list so last-message previews stay honest.
func (s *Store) ApplyAck(roomID, tempID string, confirmed *types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if roomID != s.messagesRoom {
		return
	}
	res := reconcile.ApplyAck(s.messages, tempID, confirmed)
	s.applyResult(res)
}

// ApplyPush merges a pushed message. Events for rooms other than the bound
// one only invalidate the room list.
func (s *Store) ApplyPush(msg *types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.RoomID != s.messagesRoom {
		s.roomsStale = true
		return
	}
	res := reconcile.ApplyPush(s.messages, msg)
	s.applyResult(res)
}

// ApplyReceipt unions a delivery or read receipt into the bound view.
func (s *Store) ApplyReceipt(roomID, messageID, userID string, kind reconcile.ReceiptKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if roomID != s.messagesRoom {
		return
	}
	res := reconcile.ApplyReceipt(s.messages, messageID, userID, kind)
	s.applyResult(res)
}

// applyResult commits a reconciliation outcome. Caller holds the lock.
func (s *Store) applyResult(res reconcile.Result) {
	s.messages = res.View
	if res.Changed {
		s.roomsStale = true
	}
	if res.Refetch {
		s.messagesRefetch = true
	}
}

// Messages returns a snapshot of the view and the room it is bound to.
func (s *Store) Messages() (string, []*types.Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Message, len(s.messages))
	copy(out, s.messages)
	return s.messagesRoom, out
}

// ConsumeRefetch reports whether a corrective refetch is owed and clears the
// flag, so each occurrence triggers exactly one refetch.
func (s *Store) ConsumeRefetch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	owed := s.messagesRefetch
	s.messagesRefetch = false
	return owed
}

// --- room list --------------------------------------------------------------

// SetRooms installs a freshly pulled room list.
func (s *Store) SetRooms(rooms []*types.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = rooms
	s.roomsStale = false
}

// InvalidateRooms marks the room list stale without refetching.
func (s *Store) InvalidateRooms() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomsStale = true
}

// Rooms returns a snapshot of the room list and whether it is stale.
func (s *Store) Rooms() ([]*types.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Room, len(s.rooms))
	copy(out, s.rooms)
	return out, s.roomsStale
}

// --- notifications ----------------------------------------------------------

// SetNotifications installs a freshly pulled list. Full replace, never merged.
func (s *Store) SetNotifications(list []*types.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = list
	s.notificationsStale = false
}

// InvalidateNotifications marks the list and the unread counter stale. This
// is the only effect of a push-delivered new_notification trigger.
func (s *Store) InvalidateNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notificationsStale = true
	s.notifUnreadStale = true
}

// Notifications returns a snapshot of the list and whether it is stale.
func (s *Store) Notifications() ([]*types.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out, s.notificationsStale
}

// SetNotificationUnread installs a freshly pulled unread counter.
func (s *Store) SetNotificationUnread(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifUnread = n
	s.notifUnreadStale = false
}

// NotificationUnread returns the counter and whether it is stale.
func (s *Store) NotificationUnread() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notifUnread, s.notifUnreadStale
}

// SetNotificationGroups installs the pulled category list.
func (s *Store) SetNotificationGroups(groups []*types.NotificationGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifGroups = groups
}

// NotificationGroups returns a snapshot of the category list.
func (s *Store) NotificationGroups() []*types.NotificationGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.NotificationGroup, len(s.notifGroups))
	copy(out, s.notifGroups)
	return out
}

// --- counters and presence --------------------------------------------------

// SetUnreadCounts installs a wholesale unread-counts push.
func (s *Store) SetUnreadCounts(c types.UnreadCounts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unread = c
}

// UnreadCounts returns the last pushed counters.
func (s *Store) UnreadCounts() types.UnreadCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// UpsertPresence records a presence update, last-write-wins per user.
func (s *Store) UpsertPresence(p types.Presence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence[p.UserID] = p
}

// Presence returns the last known record for a user.
func (s *Store) Presence(userID string) (types.Presence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.presence[userID]
	return p, ok
}

// PresenceSnapshot returns a copy of the whole roster.
func (s *Store) PresenceSnapshot() map[string]types.Presence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]types.Presence, len(s.presence))
	for k, v := range s.presence {
		out[k] = v
	}
	return out
}
